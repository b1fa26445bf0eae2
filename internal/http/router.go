package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/bailaconsara/portal/internal/app"
	"github.com/bailaconsara/portal/internal/config"
	httpmiddleware "github.com/bailaconsara/portal/internal/http/middleware"
	"github.com/bailaconsara/portal/internal/session"
)

type Handler struct {
	cfg           *config.Config
	registry      *app.Registry
	redis         *redis.Client
	origins       *httpmiddleware.OriginMatcher
	upgrader      websocket.Upgrader
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve o roteador do portal. redisClient pode ser nil quando os
// workspaces vivem só em memória; nesse caso /ready não o consulta.
func NewRouter(cfg *config.Config, registry *app.Registry, redisClient *redis.Client) (http.Handler, error) {
	h := &Handler{
		cfg:           cfg,
		registry:      registry,
		redis:         redisClient,
		origins:       httpmiddleware.NewOriginMatcher(cfg.AllowOrigins),
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst, cfg.VisitorTTL),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst, cfg.VisitorTTL),
		devCookies:    cfg.DevCookies(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}

	visitor := httpmiddleware.Visitor(registry, httpmiddleware.VisitorOptions{
		Secure: !h.devCookies,
		MaxAge: cfg.VisitorTTL,
	})

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(h.origins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.With(visitor).Get("/ws/estado", h.Stream)

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.IPRateLimit(h.publicLimiter))
		api.Use(visitor)

		api.Route("/auth", func(auth chi.Router) {
			auth.Group(func(limited chi.Router) {
				limited.Use(httpmiddleware.VisitorRateLimit(h.authLimiter))
				limited.Post("/login", h.Login)
				limited.Post("/register", h.Register)
				limited.Post("/password/otp", h.RequestOTP)
				limited.Post("/password/verificar", h.VerifyOTP)
				limited.Post("/password/cambiar", h.ChangePassword)
			})
			auth.With(httpmiddleware.RequireRole(session.User)).Post("/logout", h.Logout)
			auth.With(httpmiddleware.RequireRole(session.User)).Get("/perfil", h.Perfil)
		})

		api.Route("/usuarios", func(u chi.Router) {
			u.Use(httpmiddleware.RequireRole(session.User))
			u.Put("/{id}", h.UpdateUsuario)
			u.Delete("/{id}", h.DeleteUsuario)
		})

		api.Route("/admin/usuarios", func(u chi.Router) {
			u.Use(httpmiddleware.RequireRole(session.Admin))
			u.Get("/", h.ListUsuarios)
			u.Put("/{id}/habilitar", h.EnableUsuario)
			u.Put("/{id}/deshabilitar", h.DisableUsuario)
			u.Put("/{id}/rol", h.ChangeRol)
		})

		api.Route("/talleres", func(t chi.Router) {
			t.Use(httpmiddleware.RequireRole(session.User))
			t.Get("/", h.ListTalleres)
			t.Get("/{id}", h.GetTaller)
			t.Get("/{id}/estado", h.RefreshTaller)
			t.Post("/{id}/inscripcion", h.SignUpTaller)
			t.Post("/{id}/inscripcion-pareja", h.SignUpTallerPareja)
			t.Post("/{id}/pareja", h.AddPartnerTaller)
			t.Post("/{id}/anulacion", h.CancelTaller)

			t.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireRole(session.Admin))
				admin.Post("/", h.CreateTaller)
				admin.Put("/{id}", h.UpdateTaller)
				admin.Delete("/{id}", h.DeleteTaller)
				admin.Get("/{id}/usuarios", h.ListTallerUsuarios)
			})
		})

		api.Route("/salas", func(s chi.Router) {
			s.Get("/", h.ListSalas)
			s.Get("/{id}", h.GetSala)
			s.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireRole(session.Admin))
				admin.Post("/", h.CreateSala)
				admin.Put("/{id}", h.UpdateSala)
				admin.Delete("/{id}", h.DeleteSala)
			})
		})

		api.Route("/posts", func(p chi.Router) {
			p.Get("/", h.ListPosts)
			p.Get("/{id}", h.GetPost)
			p.Get("/slug/{slug}", h.GetPostBySlug)
			p.Get("/titulo/{titulo}", h.GetPostByTitle)
			p.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireRole(session.Admin))
				admin.Post("/", h.CreatePost)
				admin.Put("/{id}", h.UpdatePost)
				admin.Delete("/{id}", h.DeletePost)
			})
		})

		api.Get("/consentimiento", h.GetConsent)
		api.Post("/consentimiento", h.SetConsent)

		api.Get("/niveles", h.ListNiveles)
		api.Post("/niveles/evaluar", h.EvaluateNivel)

		api.Get("/notificaciones", h.ListNotificaciones)
		api.Delete("/notificaciones", h.ClearNotificaciones)
		api.Delete("/notificaciones/{id}", h.DismissNotificacion)
	})

	return r, nil
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "workspaces": h.registry.Len()})
}

// Ready verifica o Redis dos workspaces, quando configurado.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "NOT_READY", "redis indisponível", nil)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
