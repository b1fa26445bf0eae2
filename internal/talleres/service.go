package talleres

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/util"
)

const refreshConcurrency = 4

// Catalog lista as chamadas de leitura e administração de oficinas.
type Catalog interface {
	ListTalleres(ctx context.Context) ([]Taller, error)
	GetTaller(ctx context.Context, id int64) (Taller, error)
	CreateTaller(ctx context.Context, taller Taller) (backend.Message, error)
	UpdateTaller(ctx context.Context, id int64, taller Taller) (backend.Message, error)
	DeleteTaller(ctx context.Context, id int64) (backend.Message, error)
	ListTallerUsers(ctx context.Context, tallerID int64) ([]backend.UserProfile, error)
}

// Service carrega e administra oficinas publicando no mesmo canal do coordenador.
type Service struct {
	api         Catalog
	channel     *state.Channel[Estado]
	coordinator *Coordinator
	logger      zerolog.Logger
}

func NewService(api Catalog, channel *state.Channel[Estado], coordinator *Coordinator) *Service {
	return &Service{
		api:         api,
		channel:     channel,
		coordinator: coordinator,
		logger:      log.With().Str("component", "talleres").Logger(),
	}
}

func (s *Service) Channel() *state.Channel[Estado] {
	return s.channel
}

// List publica a lista e, para um usuário resolvido, reconsulta as projeções de cada oficina.
func (s *Service) List(ctx context.Context, userID int64) ([]Taller, error) {
	list, err := s.api.ListTalleres(ctx)
	if err != nil {
		return nil, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.Talleres = list
		return e
	})

	if userID > 0 && s.coordinator != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(refreshConcurrency)
		for _, t := range list {
			tallerID := t.ID
			g.Go(func() error {
				if _, err := s.coordinator.Refresh(gctx, tallerID, userID); err != nil {
					s.logger.Warn().Err(err).Int64("taller_id", tallerID).Msg("projeções não atualizadas")
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	return list, nil
}

// Get publica a oficina selecionada e reconsulta suas projeções.
func (s *Service) Get(ctx context.Context, id, userID int64) (Taller, error) {
	taller, err := s.api.GetTaller(ctx, id)
	if err != nil {
		return Taller{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.Taller = &taller
		return e
	})
	if userID > 0 && s.coordinator != nil {
		if _, err := s.coordinator.Refresh(ctx, id, userID); err != nil {
			s.logger.Warn().Err(err).Int64("taller_id", id).Msg("projeções não atualizadas")
		}
	}
	return taller, nil
}

// Create cadastra a oficina e recarrega a lista publicada.
func (s *Service) Create(ctx context.Context, taller Taller) (backend.Message, error) {
	if err := Validate(taller); err != nil {
		return backend.Message{}, err
	}
	msg, err := s.api.CreateTaller(ctx, taller)
	if err != nil {
		return backend.Message{}, err
	}
	if _, err := s.List(ctx, 0); err != nil {
		s.logger.Warn().Err(err).Msg("lista não recarregada após criação")
	}
	return msg, nil
}

// Update grava os campos editáveis; as projeções derivadas não fazem parte do registro.
func (s *Service) Update(ctx context.Context, id int64, taller Taller) (backend.Message, error) {
	if err := Validate(taller); err != nil {
		return backend.Message{}, err
	}
	taller.ID = id
	msg, err := s.api.UpdateTaller(ctx, id, taller)
	if err != nil {
		return backend.Message{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		next := make([]Taller, len(e.Talleres))
		for i, t := range e.Talleres {
			if t.ID == id {
				t = taller
			}
			next[i] = t
		}
		e.Talleres = next
		if e.Taller != nil && e.Taller.ID == id {
			updated := taller
			e.Taller = &updated
		}
		return e
	})
	return msg, nil
}

// Delete remove a oficina e a retira do estado publicado.
func (s *Service) Delete(ctx context.Context, id int64) (backend.Message, error) {
	msg, err := s.api.DeleteTaller(ctx, id)
	if err != nil {
		return backend.Message{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		next := make([]Taller, 0, len(e.Talleres))
		for _, t := range e.Talleres {
			if t.ID != id {
				next = append(next, t)
			}
		}
		e.Talleres = next
		if e.Taller != nil && e.Taller.ID == id {
			e.Taller = nil
		}
		if _, ok := e.Flags[id]; ok {
			flags := make(map[int64]Flags, len(e.Flags))
			for k, v := range e.Flags {
				if k != id {
					flags[k] = v
				}
			}
			e.Flags = flags
		}
		return e
	})
	return msg, nil
}

// ListUsers devolve os inscritos (ADMIN).
func (s *Service) ListUsers(ctx context.Context, tallerID int64) ([]backend.UserProfile, error) {
	return s.api.ListTallerUsers(ctx, tallerID)
}

// Validate exige todos os campos, hora HH:MM e data de calendário válida.
func Validate(t Taller) error {
	v := util.NewValidator()
	v.Require("nombre", t.Nombre)
	v.Require("modalidad", t.Modalidad)
	v.Require("profesores", t.Profesores)
	v.Require("lugar", t.Lugar)
	if v.Require("fecha", t.Fecha) {
		v.Check(ValidFecha(strings.TrimSpace(t.Fecha)), "fecha", util.MsgFormat)
	}
	v.FieldError("hora", util.ValidateHora(t.Hora))
	return v.Err()
}
