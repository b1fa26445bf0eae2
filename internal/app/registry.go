package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrVisitorRequired é devolvido quando falta o identificador do visitante.
var ErrVisitorRequired = errors.New("app: visitante obrigatório")

// Factory cria o workspace de um visitante.
type Factory func(ctx context.Context, visitorID string) (*Workspace, error)

// Registry mantém um workspace por visitante e descarta os ociosos.
type Registry struct {
	factory Factory
	idle    time.Duration
	logger  zerolog.Logger
	group   singleflight.Group
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry

	once   sync.Once
	cancel context.CancelFunc
}

type entry struct {
	workspace *Workspace
	lastSeen  time.Time
}

// NewRegistry cria o registro; idle <= 0 desativa o descarte.
func NewRegistry(factory Factory, idle time.Duration) *Registry {
	return &Registry{
		factory: factory,
		idle:    idle,
		logger:  log.With().Str("component", "registry").Logger(),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get devolve o workspace do visitante, criando-o na primeira requisição.
// Requisições simultâneas do mesmo visitante compartilham uma única criação.
func (r *Registry) Get(ctx context.Context, visitorID string) (*Workspace, error) {
	if visitorID == "" {
		return nil, ErrVisitorRequired
	}
	if ws, ok := r.touch(visitorID); ok {
		return ws, nil
	}

	v, err, _ := r.group.Do(visitorID, func() (any, error) {
		if ws, ok := r.touch(visitorID); ok {
			return ws, nil
		}
		ws, err := r.factory(context.WithoutCancel(ctx), visitorID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.entries[visitorID] = &entry{workspace: ws, lastSeen: r.now()}
		r.mu.Unlock()
		r.logger.Debug().Str("visitor", visitorID).Msg("workspace criado")
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Workspace), nil
}

func (r *Registry) touch(visitorID string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[visitorID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.workspace, true
}

// Len devolve quantos workspaces estão vivos.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// RevokeUser encerra a sessão local de todos os workspaces autenticados como
// userID, exceto o do visitante except. Devolve quantos foram revogados.
func (r *Registry) RevokeUser(ctx context.Context, userID int64, except string) int {
	r.mu.Lock()
	targets := make([]*Workspace, 0)
	for id, e := range r.entries {
		if id == except {
			continue
		}
		if s := e.workspace.Session.Current(); s.Authenticated() && s.UserID == userID {
			targets = append(targets, e.workspace)
		}
	}
	r.mu.Unlock()

	for _, ws := range targets {
		ws.Session.Revoke(ctx)
	}
	if len(targets) > 0 {
		r.logger.Info().Int64("user_id", userID).Int("workspaces", len(targets)).Msg("sessões revogadas")
	}
	return len(targets)
}

// Sweep descarta workspaces sem uso há mais de idle.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	stale := make([]*Workspace, 0)
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.workspace)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range stale {
		if err := ws.Close(); err != nil {
			r.logger.Warn().Err(err).Str("workspace", ws.ID).Msg("falha ao fechar workspace")
		}
	}
	return len(stale)
}

// Start inicia o descarte periódico. Seguro para chamar múltiplas vezes.
func (r *Registry) Start(parent context.Context) {
	if r.idle <= 0 {
		return
	}
	r.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		r.cancel = cancel
		go r.runLoop(ctx)
	})
}

// Stop encerra o descarte periódico e fecha todos os workspaces.
func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range all {
		_ = e.workspace.Close()
	}
}

func (r *Registry) runLoop(ctx context.Context) {
	interval := r.idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", interval).Msg("registry: limpeza iniciada")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("registry: limpeza encerrada")
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug().Int("removed", n).Msg("registry: workspaces ociosos descartados")
			}
		}
	}
}
