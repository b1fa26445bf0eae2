package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bailaconsara/portal/internal/app"
	"github.com/bailaconsara/portal/internal/session"
)

type contextKey string

const (
	ContextKeyVisitor   contextKey = "visitor"
	ContextKeyWorkspace contextKey = "workspace"
)

// WithWorkspace injeta o visitante e seu workspace no contexto.
func WithWorkspace(ctx context.Context, ws *app.Workspace) context.Context {
	ctx = context.WithValue(ctx, ContextKeyVisitor, ws.ID)
	return context.WithValue(ctx, ContextKeyWorkspace, ws)
}

// GetVisitor recupera o identificador do visitante.
func GetVisitor(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyVisitor).(string)
	return val
}

// GetWorkspace recupera o workspace do visitante, ou nil fora de Visitor.
func GetWorkspace(ctx context.Context) *app.Workspace {
	val, _ := ctx.Value(ContextKeyWorkspace).(*app.Workspace)
	return val
}

// RequireRole exige sessão com papel igual ou superior a role.
// Visitante anônimo recebe 401; papel insuficiente recebe 403.
func RequireRole(role session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ws := GetWorkspace(r.Context())
			if ws == nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "Visitante no identificado")
				return
			}
			current := ws.Session.Current()
			if current.Can(role) {
				next.ServeHTTP(w, r)
				return
			}
			if !current.Authenticated() {
				writeError(w, http.StatusUnauthorized, "AUTH", "Debes iniciar sesión")
				return
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Acceso restringido")
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
