package salas

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/util"
)

// Dias válidos na agenda semanal, na ordem de exibição.
var Dias = []string{"LUNES", "MARTES", "MIERCOLES", "JUEVES", "VIERNES", "SABADO", "DOMINGO"}

// Generos tocados nas salas.
var Generos = []string{"SALSA", "BACHATA", "KIZOMBA"}

const msgDiaRepetido = "Día repetido"

type (
	Sala       = backend.Sala
	DiaGeneros = backend.DiaGeneros
)

// Estado é o valor publicado no canal de salas.
type Estado struct {
	Salas []Sala `json:"salas"`
	Sala  *Sala  `json:"sala"`
}

// API lista as chamadas de salas usadas pelo serviço.
type API interface {
	SalasByDia(ctx context.Context, dia string) ([]Sala, error)
	GetSala(ctx context.Context, id int64) (Sala, error)
	CreateSala(ctx context.Context, sala Sala) (backend.Message, error)
	UpdateSala(ctx context.Context, id int64, sala Sala) (backend.Message, error)
	DeleteSala(ctx context.Context, id int64) (backend.Message, error)
}

type Service struct {
	api     API
	channel *state.Channel[Estado]
	logger  zerolog.Logger
}

func NewService(api API, channel *state.Channel[Estado]) *Service {
	return &Service{
		api:     api,
		channel: channel,
		logger:  log.With().Str("component", "salas").Logger(),
	}
}

func (s *Service) Channel() *state.Channel[Estado] {
	return s.channel
}

// ByDay publica as salas abertas no dia; o dia é normalizado para maiúsculas.
func (s *Service) ByDay(ctx context.Context, dia string) ([]Sala, error) {
	dia = strings.ToUpper(strings.TrimSpace(dia))
	if !slices.Contains(Dias, dia) {
		return nil, &util.ValidationError{Fields: map[string]string{"dia": util.MsgFormat}}
	}
	list, err := s.api.SalasByDia(ctx, dia)
	if err != nil {
		return nil, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.Salas = list
		return e
	})
	return list, nil
}

// Get publica a sala selecionada.
func (s *Service) Get(ctx context.Context, id int64) (Sala, error) {
	sala, err := s.api.GetSala(ctx, id)
	if err != nil {
		return Sala{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.Sala = &sala
		return e
	})
	return sala, nil
}

func (s *Service) Create(ctx context.Context, sala Sala) (backend.Message, error) {
	sala = Normalize(sala)
	if err := Validate(sala); err != nil {
		return backend.Message{}, err
	}
	return s.api.CreateSala(ctx, sala)
}

// Update regrava a sala e atualiza a lista e a seleção publicadas.
func (s *Service) Update(ctx context.Context, id int64, sala Sala) (backend.Message, error) {
	sala = Normalize(sala)
	if err := Validate(sala); err != nil {
		return backend.Message{}, err
	}
	sala.ID = id
	msg, err := s.api.UpdateSala(ctx, id, sala)
	if err != nil {
		return backend.Message{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		next := make([]Sala, len(e.Salas))
		for i, cur := range e.Salas {
			if cur.ID == id {
				cur = sala
			}
			next[i] = cur
		}
		e.Salas = next
		if e.Sala != nil && e.Sala.ID == id {
			updated := sala
			e.Sala = &updated
		}
		return e
	})
	return msg, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (backend.Message, error) {
	msg, err := s.api.DeleteSala(ctx, id)
	if err != nil {
		return backend.Message{}, err
	}
	s.channel.Publish(func(e Estado) Estado {
		e.Salas = slices.DeleteFunc(slices.Clone(e.Salas), func(cur Sala) bool { return cur.ID == id })
		if e.Sala != nil && e.Sala.ID == id {
			e.Sala = nil
		}
		return e
	})
	return msg, nil
}

// ClearSelection descarta a sala selecionada.
func (s *Service) ClearSelection(context.Context) {
	s.channel.Publish(func(e Estado) Estado {
		e.Sala = nil
		return e
	})
}

// Normalize coloca dias e gêneros em maiúsculas.
func Normalize(sala Sala) Sala {
	dias := make([]DiaGeneros, len(sala.DiasGeneros))
	for i, dg := range sala.DiasGeneros {
		generos := make([]string, len(dg.Generos))
		for j, g := range dg.Generos {
			generos[j] = strings.ToUpper(strings.TrimSpace(g))
		}
		dias[i] = DiaGeneros{Dia: strings.ToUpper(strings.TrimSpace(dg.Dia)), Generos: generos}
	}
	sala.DiasGeneros = dias
	return sala
}

// Validate exige nome, localidade e endereço, e no máximo uma entrada por dia.
func Validate(sala Sala) error {
	v := util.NewValidator()
	v.Require("nombreSala", sala.NombreSala)
	v.Require("localidad", sala.Localidad)
	v.Require("address", sala.Address)

	seen := make(map[string]bool, len(sala.DiasGeneros))
	for _, dg := range sala.DiasGeneros {
		if !slices.Contains(Dias, dg.Dia) {
			v.Add("diasGeneros", util.MsgFormat)
			continue
		}
		if seen[dg.Dia] {
			v.Add("diasGeneros", msgDiaRepetido)
		}
		seen[dg.Dia] = true
		for _, g := range dg.Generos {
			v.Check(slices.Contains(Generos, g), "diasGeneros", util.MsgFormat)
		}
	}
	return v.Err()
}
