package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bailaconsara/portal/internal/app"
	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/niveles"
	"github.com/bailaconsara/portal/internal/talleres"
)

var errNotSignedIn = errors.New("sessão não iniciada; use bailactl login")

type cli struct {
	ws  *app.Workspace
	in  io.Reader
	out io.Writer
}

// tallerView mostra a data como o formulário a exibe (dd/mm/aaaa).
type tallerView struct {
	talleres.Taller
	FechaDisplay string `json:"fechaDisplay"`
	talleres.Flags
}

// itemList acumula --item repetidos.
type itemList []string

func (l *itemList) String() string { return strings.Join(*l, ", ") }

func (l *itemList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func (c *cli) print(v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(encoded))
	return err
}

func (c *cli) userID() (int64, error) {
	current := c.ws.Session.Current()
	if !current.Authenticated() {
		return 0, errNotSignedIn
	}
	return current.UserID, nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "e-mail da conta")
	password := fs.String("password", "", "senha (padrão: BAILACTL_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *password == "" {
		*password = os.Getenv("BAILACTL_PASSWORD")
	}
	st, err := c.ws.Session.Login(ctx, backend.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	return c.print(st)
}

func (c *cli) logout(ctx context.Context) error {
	if _, err := c.userID(); err != nil {
		return err
	}
	if err := c.ws.Session.Logout(ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintln(c.out, "sessão encerrada")
	return err
}

func (c *cli) perfil(ctx context.Context) error {
	if _, err := c.userID(); err != nil {
		return err
	}
	st, err := c.ws.Session.FetchProfile(ctx)
	if err != nil {
		return err
	}
	user := *st.User
	if display, err := talleres.ToDisplay(user.FechaNacimiento); err == nil {
		user.FechaNacimiento = display
	}
	return c.print(user)
}

func (c *cli) talleres(ctx context.Context) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	list, err := c.ws.Talleres.List(ctx, userID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(c.out, "nenhuma oficina publicada")
		return err
	}
	estado := c.ws.Talleres.Channel().Value()
	views := make([]tallerView, 0, len(list))
	for _, t := range list {
		display, _ := talleres.ToDisplay(t.Fecha)
		views = append(views, tallerView{Taller: t, FechaDisplay: display, Flags: estado.FlagsFor(t.ID)})
	}
	return c.print(views)
}

func (c *cli) inscribir(ctx context.Context, args []string) error {
	fs := newFlagSet("inscribir")
	tallerID := fs.Int64("taller", 0, "id da oficina")
	pareja := fs.String("pareja", "", "e-mail do par, para inscrição em casal")
	if err := fs.Parse(args); err != nil || *tallerID <= 0 {
		return errUsage
	}
	userID, err := c.userID()
	if err != nil {
		return err
	}
	if *pareja != "" {
		_, err = c.ws.Coordinator.SignUpAsCouple(ctx, *tallerID, userID, *pareja)
	} else {
		_, err = c.ws.Coordinator.SignUp(ctx, *tallerID, userID)
	}
	if err != nil {
		return err
	}
	return c.print(c.ws.Talleres.Channel().Value().FlagsFor(*tallerID))
}

func (c *cli) pareja(ctx context.Context, args []string) error {
	fs := newFlagSet("pareja")
	tallerID := fs.Int64("taller", 0, "id da oficina")
	email := fs.String("email", "", "e-mail do par")
	if err := fs.Parse(args); err != nil || *tallerID <= 0 {
		return errUsage
	}
	userID, err := c.userID()
	if err != nil {
		return err
	}
	if _, err := c.ws.Coordinator.AddPartner(ctx, *tallerID, userID, *email); err != nil {
		return err
	}
	return c.print(c.ws.Talleres.Channel().Value().FlagsFor(*tallerID))
}

func (c *cli) anular(ctx context.Context, args []string) error {
	fs := newFlagSet("anular")
	tallerID := fs.Int64("taller", 0, "id da oficina")
	yes := fs.Bool("si", false, "confirma sem perguntar")
	if err := fs.Parse(args); err != nil || *tallerID <= 0 {
		return errUsage
	}
	userID, err := c.userID()
	if err != nil {
		return err
	}
	confirmer := promptConfirmer(c.in, c.out)
	if *yes {
		confirmer = talleres.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	}
	if _, err := c.ws.Coordinator.CancelSignUp(ctx, *tallerID, userID, confirmer); err != nil {
		return err
	}
	return c.print(c.ws.Talleres.Channel().Value().FlagsFor(*tallerID))
}

func (c *cli) salas(ctx context.Context, args []string) error {
	fs := newFlagSet("salas")
	dia := fs.String("dia", "", "dia da semana (LUNES..DOMINGO)")
	if err := fs.Parse(args); err != nil || *dia == "" {
		return errUsage
	}
	list, err := c.ws.Salas.ByDay(ctx, *dia)
	if err != nil {
		return err
	}
	return c.print(list)
}

func (c *cli) posts(ctx context.Context, args []string) error {
	fs := newFlagSet("posts")
	slug := fs.String("slug", "", "abre uma publicação pelo slug")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *slug != "" {
		post, err := c.ws.Posts.GetBySlug(ctx, *slug)
		if err != nil {
			return err
		}
		return c.print(post)
	}
	list, err := c.ws.Posts.List(ctx)
	if err != nil {
		return err
	}
	return c.print(list)
}

func (c *cli) cookies(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	switch args[0] {
	case "aceptar":
		return c.ws.Consent.Accept(ctx)
	case "rechazar":
		return c.ws.Consent.Reject(ctx)
	}
	return errUsage
}

func runNivel(out io.Writer, args []string) error {
	fs := newFlagSet("nivel")
	nivel := fs.String("nivel", niveles.NivelTest, "nível avaliado")
	var items itemList
	fs.Var(&items, "item", "item marcado (repetível)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	var selection niveles.Selection
	for _, item := range items {
		selection.Toggle(item)
	}
	result, err := niveles.Evaluate(*nivel, selection.Items())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, result)
	return err
}

// promptConfirmer pergunta em out e lê a resposta de in; só "s", "si", "sí",
// "y" ou "yes" confirmam.
func promptConfirmer(in io.Reader, out io.Writer) talleres.Confirmer {
	reader := bufio.NewReader(in)
	return talleres.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		if _, err := fmt.Fprintf(out, "%s [s/N] ", prompt); err != nil {
			return false, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "si", "sí", "y", "yes":
			return true, nil
		}
		return false, nil
	})
}
