package app

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/consent"
	"github.com/bailaconsara/portal/internal/notify"
	"github.com/bailaconsara/portal/internal/posts"
	"github.com/bailaconsara/portal/internal/salas"
	"github.com/bailaconsara/portal/internal/session"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/storage"
	"github.com/bailaconsara/portal/internal/talleres"
	"github.com/bailaconsara/portal/internal/usuarios"
)

// Nomes dos canais, também usados como chave no stream de estado.
const (
	ChannelAuth          = "auth"
	ChannelTalleres      = "talleres"
	ChannelSalas         = "salas"
	ChannelPosts         = "posts"
	ChannelUsuarios      = "usuarios"
	ChannelConsent       = "cookieConsent"
	ChannelNotifications = "notificaciones"
)

// Backend é o conjunto de chamadas REST usadas pelos serviços do workspace.
type Backend interface {
	session.Backend
	talleres.Enrollment
	talleres.Catalog
	salas.API
	posts.API
	usuarios.API
}

// Workspace reúne o estado em memória de um visitante: canais, máquina de
// sessão e serviços, todos construídos e ligados aqui.
type Workspace struct {
	ID    string
	Store storage.Store

	Session     *session.Machine
	Coordinator *talleres.Coordinator
	Talleres    *talleres.Service
	Salas       *salas.Service
	Posts       *posts.Service
	Usuarios    *usuarios.Service
	Consent     *consent.Service
	Notify      *notify.Center

	streams []Stream
	logger  zerolog.Logger
}

// Stream expõe um canal sem o tipo do valor, para serialização.
type Stream struct {
	Name      string
	Subscribe func(fn func(any)) (unsubscribe func())
}

func streamOf[T any](ch *state.Channel[T]) Stream {
	return Stream{
		Name: ch.Name(),
		Subscribe: func(fn func(any)) func() {
			return ch.Subscribe(func(v T) { fn(v) })
		},
	}
}

// NewWorkspace monta o workspace sobre o store do visitante. api deve ler o
// token do mesmo store; veja ClientFor.
func NewWorkspace(id string, store storage.Store, api Backend) *Workspace {
	authCh := state.New(ChannelAuth, session.AuthState{Session: session.Session{Role: session.Anonymous}})
	talleresCh := state.New(ChannelTalleres, talleres.Estado{})
	salasCh := state.New(ChannelSalas, salas.Estado{})
	postsCh := state.New(ChannelPosts, posts.Estado{})
	usuariosCh := state.New(ChannelUsuarios, usuarios.Estado{})
	consentCh := state.New(ChannelConsent, true)
	notifyCh := state.New(ChannelNotifications, []notify.Message{})

	coordinator := talleres.NewCoordinator(api, talleresCh)
	w := &Workspace{
		ID:          id,
		Store:       store,
		Session:     session.NewMachine(api, store, authCh),
		Coordinator: coordinator,
		Talleres:    talleres.NewService(api, talleresCh, coordinator),
		Salas:       salas.NewService(api, salasCh),
		Posts:       posts.NewService(api, postsCh),
		Usuarios:    usuarios.NewService(api, usuariosCh, authCh),
		Consent:     consent.NewService(store, consentCh),
		Notify:      notify.NewCenter(notifyCh),
		streams: []Stream{
			streamOf(authCh),
			streamOf(talleresCh),
			streamOf(salasCh),
			streamOf(postsCh),
			streamOf(usuariosCh),
			streamOf(consentCh),
			streamOf(notifyCh),
		},
		logger: log.With().Str("component", "workspace").Str("workspace", id).Logger(),
	}

	w.Session.OnReset(w.Coordinator.ResetFlags)
	w.Session.OnReset(w.Salas.ClearSelection)
	w.Session.OnReset(w.Posts.ClearSelection)
	w.Session.OnReset(func(context.Context) { usuariosCh.Reset() })
	w.Session.OnReset(w.Consent.Reload)

	return w
}

// ClientFor devolve um cliente que lê o token do store do visitante.
func ClientFor(base *backend.Client, store storage.Store) *backend.Client {
	return base.WithTokens(backend.TokenFunc(func(ctx context.Context) (string, error) {
		return storage.Lookup(ctx, store, storage.KeyToken)
	}))
}

// Restore recarrega a preferência de cookies e, se houver token guardado, o perfil.
// Falhas deixam a sessão anônima e não impedem o uso do workspace.
func (w *Workspace) Restore(ctx context.Context) {
	w.Consent.Reload(ctx)

	token, err := storage.Lookup(ctx, w.Store, storage.KeyToken)
	if err != nil {
		w.logger.Warn().Err(err).Msg("token não lido na restauração")
		return
	}
	if token == "" {
		return
	}
	if _, err := w.Session.FetchProfile(ctx); err != nil {
		w.logger.Info().Err(err).Msg("sessão guardada não restaurada")
	}
}

// Streams lista os canais na ordem em que são enviados a um novo observador.
func (w *Workspace) Streams() []Stream {
	return append([]Stream(nil), w.streams...)
}

// Close descarta notificações pendentes e fecha o store se ele for fechável.
func (w *Workspace) Close() error {
	w.Notify.Clear()
	if c, ok := w.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
