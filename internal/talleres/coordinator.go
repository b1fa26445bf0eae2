package talleres

import (
	"context"
	"errors"
	"maps"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
)

// ErrNotConfirmed é devolvido quando a anulação não foi confirmada.
var ErrNotConfirmed = errors.New("Anulación cancelada")

// CancelPrompt é o texto apresentado antes de anular uma inscrição.
const CancelPrompt = "¿Seguro que quieres anular tu asistencia a este taller?"

// Taller é o registro da oficina como o backend o conhece.
type Taller = backend.Taller

// Flags são as projeções derivadas por usuário; nunca vão ao backend.
type Flags struct {
	SignedUp   bool `json:"isSignedUp"`
	HasPartner bool `json:"hasPartner"`
}

// Estado é o valor publicado no canal de oficinas.
type Estado struct {
	Talleres []Taller        `json:"talleres"`
	Taller   *Taller         `json:"taller"`
	Flags    map[int64]Flags `json:"flags"`
}

// FlagsFor devolve as projeções conhecidas da oficina.
func (e Estado) FlagsFor(tallerID int64) Flags {
	return e.Flags[tallerID]
}

// Confirmer pede ao usuário que confirme uma ação destrutiva.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapta uma função a Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Enrollment lista as chamadas de inscrição usadas pelo coordenador.
type Enrollment interface {
	SignIn(ctx context.Context, tallerID, userID int64) (backend.Message, error)
	SignInCouple(ctx context.Context, tallerID, userID int64, partnerEmail string) (backend.Message, error)
	AddPartner(ctx context.Context, tallerID, userID int64, partnerEmail string) (backend.Message, error)
	SignOut(ctx context.Context, tallerID, userID int64) (backend.Message, error)
	IsSignedUp(ctx context.Context, tallerID, userID int64) (bool, error)
	HasPartner(ctx context.Context, tallerID, userID int64) (bool, error)
}

// Coordinator conduz inscrição e pareamento mantendo as projeções coerentes.
//
// Não verifica a sessão: quem chama garante um userID resolvido.
type Coordinator struct {
	api     Enrollment
	channel *state.Channel[Estado]
	logger  zerolog.Logger
}

func NewCoordinator(api Enrollment, channel *state.Channel[Estado]) *Coordinator {
	return &Coordinator{
		api:     api,
		channel: channel,
		logger:  log.With().Str("component", "talleres").Logger(),
	}
}

// SignUp inscreve o usuário sozinho e reconsulta as duas projeções juntas.
// SignedUp permanece verdadeiro; HasPartner vem do servidor.
func (c *Coordinator) SignUp(ctx context.Context, tallerID, userID int64) (backend.Message, error) {
	msg, err := c.api.SignIn(ctx, tallerID, userID)
	if err != nil {
		return backend.Message{}, err
	}
	c.setFlags(tallerID, func(f Flags) Flags {
		f.SignedUp = true
		return f
	})

	flags, err := c.query(ctx, tallerID, userID)
	if err != nil {
		c.logger.Warn().Err(err).Int64("taller_id", tallerID).Msg("reconsulta após inscrição falhou")
		return msg, nil
	}
	if !flags.SignedUp {
		c.logger.Warn().Int64("taller_id", tallerID).Int64("user_id", userID).Msg("servidor não confirma inscrição recém-feita")
	}
	c.setFlags(tallerID, func(f Flags) Flags {
		f.SignedUp = true
		f.HasPartner = flags.HasPartner
		return f
	})
	return msg, nil
}

// SignUpAsCouple inscreve usuário e par; ambas as projeções ficam verdadeiras sem reconsulta.
func (c *Coordinator) SignUpAsCouple(ctx context.Context, tallerID, userID int64, partnerEmail string) (backend.Message, error) {
	msg, err := c.api.SignInCouple(ctx, tallerID, userID, partnerEmail)
	if err != nil {
		return backend.Message{}, err
	}
	c.setFlags(tallerID, func(Flags) Flags {
		return Flags{SignedUp: true, HasPartner: true}
	})
	return msg, nil
}

// AddPartner associa um par; o e-mail é resolvido pelo servidor.
func (c *Coordinator) AddPartner(ctx context.Context, tallerID, userID int64, partnerEmail string) (backend.Message, error) {
	msg, err := c.api.AddPartner(ctx, tallerID, userID, partnerEmail)
	if err != nil {
		return backend.Message{}, err
	}
	c.setFlags(tallerID, func(f Flags) Flags {
		f.HasPartner = true
		return f
	})
	return msg, nil
}

// CancelSignUp só chama o servidor depois de uma confirmação explícita.
// Recusa, ausência de confirmador ou erro no diálogo resultam em ErrNotConfirmed
// sem nenhuma requisição.
func (c *Coordinator) CancelSignUp(ctx context.Context, tallerID, userID int64, confirmer Confirmer) (backend.Message, error) {
	if confirmer == nil {
		return backend.Message{}, ErrNotConfirmed
	}
	ok, err := confirmer.Confirm(ctx, CancelPrompt)
	if err != nil {
		c.logger.Debug().Err(err).Msg("confirmação descartada")
		return backend.Message{}, ErrNotConfirmed
	}
	if !ok {
		return backend.Message{}, ErrNotConfirmed
	}

	msg, err := c.api.SignOut(ctx, tallerID, userID)
	if err != nil {
		return backend.Message{}, err
	}
	c.setFlags(tallerID, func(Flags) Flags { return Flags{} })
	return msg, nil
}

// IsSignedUp consulta apenas a inscrição, sem publicar.
func (c *Coordinator) IsSignedUp(ctx context.Context, tallerID, userID int64) (bool, error) {
	return c.api.IsSignedUp(ctx, tallerID, userID)
}

// HasPartner consulta apenas o par, sem publicar.
func (c *Coordinator) HasPartner(ctx context.Context, tallerID, userID int64) (bool, error) {
	return c.api.HasPartner(ctx, tallerID, userID)
}

// Refresh consulta as duas projeções em paralelo e publica o par numa única vez.
func (c *Coordinator) Refresh(ctx context.Context, tallerID, userID int64) (Flags, error) {
	flags, err := c.query(ctx, tallerID, userID)
	if err != nil {
		return Flags{}, err
	}
	c.setFlags(tallerID, func(Flags) Flags { return flags })
	return c.channel.Value().FlagsFor(tallerID), nil
}

// ResetFlags descarta as projeções de todas as oficinas.
func (c *Coordinator) ResetFlags(context.Context) {
	c.channel.Publish(func(e Estado) Estado {
		e.Flags = nil
		return e
	})
}

func (c *Coordinator) query(ctx context.Context, tallerID, userID int64) (Flags, error) {
	var flags Flags
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.api.IsSignedUp(gctx, tallerID, userID)
		flags.SignedUp = v
		return err
	})
	g.Go(func() error {
		v, err := c.api.HasPartner(gctx, tallerID, userID)
		flags.HasPartner = v
		return err
	})
	if err := g.Wait(); err != nil {
		return Flags{}, err
	}
	return flags, nil
}

// setFlags publica a projeção de uma oficina. Um par implica inscrição, então
// HasPartner verdadeiro força SignedUp verdadeiro no valor publicado.
func (c *Coordinator) setFlags(tallerID int64, update func(Flags) Flags) {
	c.channel.Publish(func(e Estado) Estado {
		next := update(e.Flags[tallerID])
		if next.HasPartner && !next.SignedUp {
			c.logger.Warn().Int64("taller_id", tallerID).Msg("par sem inscrição; projeção corrigida")
			next.SignedUp = true
		}
		flags := make(map[int64]Flags, len(e.Flags)+1)
		maps.Copy(flags, e.Flags)
		flags[tallerID] = next
		e.Flags = flags
		return e
	})
}
