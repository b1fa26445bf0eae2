package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/app"
	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/config"
	"github.com/bailaconsara/portal/internal/notify"
	"github.com/bailaconsara/portal/internal/storage"
)

// workspaceID identifica o único visitante do cliente de terminal.
const workspaceID = "bailactl"

var errUsage = errors.New("uso inválido")

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(zerolog.WarnLevel)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "erro:", notify.Describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	if cmd == "nivel" {
		return runNivel(os.Stdout, args)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	store, err := storage.OpenSQLite(ctx, cfg.BailactlDB)
	if err != nil {
		return fmt.Errorf("armazenamento local: %w", err)
	}
	base, err := backend.New(backend.Config{BaseURL: cfg.BackendURL, Timeout: cfg.BackendTimeout})
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("backend: %w", err)
	}

	ws := app.NewWorkspace(workspaceID, store, app.ClientFor(base, store))
	defer ws.Close()
	ws.Restore(ctx)
	defer printNotifications(os.Stderr, ws)()

	c := &cli{ws: ws, in: os.Stdin, out: os.Stdout}
	switch cmd {
	case "login":
		return c.login(ctx, args)
	case "logout":
		return c.logout(ctx)
	case "perfil":
		return c.perfil(ctx)
	case "talleres":
		return c.talleres(ctx)
	case "inscribir":
		return c.inscribir(ctx, args)
	case "pareja":
		return c.pareja(ctx, args)
	case "anular":
		return c.anular(ctx, args)
	case "salas":
		return c.salas(ctx, args)
	case "posts":
		return c.posts(ctx, args)
	case "cookies":
		return c.cookies(ctx, args)
	default:
		return errUsage
	}
}

// printNotifications escreve cada notificação nova em w até a função devolvida ser chamada.
func printNotifications(w io.Writer, ws *app.Workspace) func() {
	seen := make(map[string]bool)
	return ws.Notify.Channel().Subscribe(func(list []notify.Message) {
		for _, msg := range list {
			if seen[msg.ID] {
				continue
			}
			seen[msg.ID] = true
			prefix := "ok"
			if msg.Kind == notify.KindError {
				prefix = "erro"
			}
			fmt.Fprintf(w, "[%s] %s\n", prefix, msg.Text)
		}
	})
}

func usage() {
	fmt.Fprintln(os.Stderr, "bailactl: cliente de terminal da escola")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  bailactl login --email sara@example.com [--password ...]  (ou BAILACTL_PASSWORD)")
	fmt.Fprintln(os.Stderr, "  bailactl logout")
	fmt.Fprintln(os.Stderr, "  bailactl perfil")
	fmt.Fprintln(os.Stderr, "  bailactl talleres")
	fmt.Fprintln(os.Stderr, "  bailactl inscribir --taller 7 [--pareja pareja@example.com]")
	fmt.Fprintln(os.Stderr, "  bailactl pareja --taller 7 --email pareja@example.com")
	fmt.Fprintln(os.Stderr, "  bailactl anular --taller 7 [--si]")
	fmt.Fprintln(os.Stderr, "  bailactl salas --dia VIERNES")
	fmt.Fprintln(os.Stderr, "  bailactl posts [--slug noche-latina]")
	fmt.Fprintln(os.Stderr, "  bailactl cookies aceptar|rechazar")
	fmt.Fprintln(os.Stderr, "  bailactl nivel --nivel test --item \"Copa\" [--item ...]")
}
