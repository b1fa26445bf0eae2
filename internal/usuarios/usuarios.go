package usuarios

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/session"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/talleres"
	"github.com/bailaconsara/portal/internal/util"
)

// MsgUpdated é a confirmação exibida após salvar o perfil.
const MsgUpdated = "¡Usuario actualizado con éxito!"

type User = backend.UserProfile

// Estado é a tabela de usuários vista pelo administrador.
type Estado struct {
	Usuarios []User `json:"usuarios"`
}

// API lista as chamadas de usuários usadas pelo serviço.
type API interface {
	UpdateUser(ctx context.Context, userID int64, update backend.ProfileUpdate) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	EnableUser(ctx context.Context, userID int64) (backend.Message, error)
	DisableUser(ctx context.Context, userID int64) (backend.Message, error)
	ChangeRole(ctx context.Context, userID int64, role string) (backend.Message, error)
}

type Service struct {
	api     API
	channel *state.Channel[Estado]
	auth    *state.Channel[session.AuthState]
	logger  zerolog.Logger
}

// NewService recebe também o canal de autenticação para refletir edições do próprio perfil.
func NewService(api API, channel *state.Channel[Estado], auth *state.Channel[session.AuthState]) *Service {
	return &Service{
		api:     api,
		channel: channel,
		auth:    auth,
		logger:  log.With().Str("component", "usuarios").Logger(),
	}
}

func (s *Service) Channel() *state.Channel[Estado] {
	return s.channel
}

// UpdateProfile recebe a data de nascimento em DD-MM-YYYY, envia YYYY-MM-DD e
// devolve o perfil com a data novamente em DD-MM-YYYY.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, update backend.ProfileUpdate) (User, error) {
	v := util.NewValidator()
	v.FieldError("nombre", util.ValidateNombre(update.Nombre))
	v.Require("apellidos", update.Apellidos)
	v.FieldError("email", util.ValidateEmail(update.Email))
	v.Require("telefono", update.Telefono)
	iso := ""
	if v.Require("fechanacimiento", update.FechaNacimiento) {
		var err error
		iso, err = talleres.FromDisplay(strings.TrimSpace(update.FechaNacimiento))
		v.Check(err == nil, "fechanacimiento", util.MsgFormat)
	}
	if err := v.Err(); err != nil {
		return User{}, err
	}

	update.FechaNacimiento = iso
	user, err := s.api.UpdateUser(ctx, userID, update)
	if err != nil {
		return User{}, err
	}
	if user.ID == 0 {
		user.ID = userID
	}

	if s.auth != nil {
		s.auth.Publish(func(a session.AuthState) session.AuthState {
			if a.UserID == userID && a.User != nil {
				stored := user
				a.User = &stored
			}
			return a
		})
	}
	s.replace(user.ID, func(User) User { return user })

	if display, err := talleres.ToDisplay(user.FechaNacimiento); err == nil {
		user.FechaNacimiento = display
	} else {
		s.logger.Debug().Str("fecha", user.FechaNacimiento).Msg("data de nascimento fora do formato esperado")
	}
	return user, nil
}

// List publica todos os usuários (ADMIN).
func (s *Service) List(ctx context.Context) ([]User, error) {
	list, err := s.api.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	s.channel.Set(Estado{Usuarios: list})
	return list, nil
}

func (s *Service) Enable(ctx context.Context, userID int64) (backend.Message, error) {
	msg, err := s.api.EnableUser(ctx, userID)
	if err != nil {
		return backend.Message{}, err
	}
	s.replace(userID, func(u User) User {
		u.Enabled = true
		return u
	})
	return msg, nil
}

func (s *Service) Disable(ctx context.Context, userID int64) (backend.Message, error) {
	msg, err := s.api.DisableUser(ctx, userID)
	if err != nil {
		return backend.Message{}, err
	}
	s.replace(userID, func(u User) User {
		u.Enabled = false
		return u
	})
	return msg, nil
}

// ChangeRole aceita apenas USER e ADMIN.
func (s *Service) ChangeRole(ctx context.Context, userID int64, role string) (backend.Message, error) {
	parsed := session.ParseRole(role)
	if parsed == session.Anonymous {
		return backend.Message{}, &util.ValidationError{Fields: map[string]string{"role": util.MsgFormat}}
	}
	msg, err := s.api.ChangeRole(ctx, userID, string(parsed))
	if err != nil {
		return backend.Message{}, err
	}
	s.replace(userID, func(u User) User {
		u.Role = string(parsed)
		return u
	})
	return msg, nil
}

// Forget retira da tabela um usuário já removido no backend.
func (s *Service) Forget(userID int64) {
	s.channel.Publish(func(e Estado) Estado {
		e.Usuarios = slices.DeleteFunc(slices.Clone(e.Usuarios), func(u User) bool { return u.ID == userID })
		return e
	})
}

func (s *Service) replace(userID int64, update func(User) User) {
	s.channel.Publish(func(e Estado) Estado {
		next := make([]User, len(e.Usuarios))
		for i, u := range e.Usuarios {
			if u.ID == userID {
				u = update(u)
			}
			next[i] = u
		}
		e.Usuarios = next
		return e
	})
}
