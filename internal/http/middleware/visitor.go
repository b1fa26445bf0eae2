package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/app"
	"github.com/bailaconsara/portal/internal/util"
)

// VisitorCookie guarda o identificador opaco do visitante.
const VisitorCookie = "bcs_visitante"

// Resolver devolve o workspace de um visitante; *app.Registry o implementa.
type Resolver interface {
	Get(ctx context.Context, visitorID string) (*app.Workspace, error)
}

// VisitorOptions controla o cookie emitido.
type VisitorOptions struct {
	Secure bool
	MaxAge time.Duration
}

// Visitor identifica o visitante pelo cookie, emitindo um novo quando ausente
// ou inválido, e injeta seu workspace no contexto.
func Visitor(resolver Resolver, opts VisitorOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(VisitorCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = util.NewID()
			}

			// renovado a cada requisição para acompanhar a expiração do armazenamento
			cookie := &http.Cookie{
				Name:     VisitorCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if opts.MaxAge > 0 {
				cookie.MaxAge = int(opts.MaxAge.Seconds())
			}
			http.SetCookie(w, cookie)

			ws, err := resolver.Get(r.Context(), id)
			if err != nil {
				log.Error().Err(err).Str("visitor", id).Msg("workspace indisponível")
				writeError(w, http.StatusServiceUnavailable, "WORKSPACE", "Servicio no disponible")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithWorkspace(r.Context(), ws)))
		})
	}
}
