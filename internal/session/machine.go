package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/auth"
	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/storage"
	"github.com/bailaconsara/portal/internal/util"
)

var (
	// ErrAccountLocked é devolvido quando o perfil vem com isNotLocked=false.
	ErrAccountLocked = errors.New("Tu cuenta está bloqueada")
	// ErrUnknownRole é devolvido quando o perfil traz um papel fora de USER/ADMIN.
	ErrUnknownRole = errors.New("Rol de usuario desconocido")
	// ErrPasswordMismatch sinaliza senha e repetição diferentes.
	ErrPasswordMismatch = errors.New("Las contraseñas no coinciden")
)

const DefaultPrefijo = "+34"

// AuthState é o valor publicado no canal de autenticação.
type AuthState struct {
	Session
	User           *backend.UserProfile `json:"user"`
	AccountDeleted bool                 `json:"accountDeleted"`
}

// Backend lista as chamadas de autenticação usadas pela máquina.
type Backend interface {
	Authenticate(ctx context.Context, creds backend.Credentials) (string, error)
	Register(ctx context.Context, reg backend.Registration) (backend.Message, error)
	UserProfile(ctx context.Context) (backend.UserProfile, error)
	Logout(ctx context.Context) error
	DeleteUser(ctx context.Context, userID int64) (backend.Message, error)
	RequestOTP(ctx context.Context, email string) (backend.Message, error)
	VerifyOTP(ctx context.Context, otp, email string) (backend.Message, error)
	ChangePassword(ctx context.Context, email string, change backend.PasswordChange) (backend.Message, error)
}

// Machine conduz as transições ANONYMOUS ⇄ USER/ADMIN.
type Machine struct {
	api     Backend
	store   storage.Store
	channel *state.Channel[AuthState]
	logger  zerolog.Logger

	mu    sync.Mutex
	hooks []func(context.Context)
}

// NewMachine cria a máquina sobre o canal de autenticação já construído.
func NewMachine(api Backend, store storage.Store, channel *state.Channel[AuthState]) *Machine {
	return &Machine{
		api:     api,
		store:   store,
		channel: channel,
		logger:  log.With().Str("component", "session").Logger(),
	}
}

// Channel expõe o canal de autenticação.
func (m *Machine) Channel() *state.Channel[AuthState] {
	return m.channel
}

// Current devolve a sessão corrente.
func (m *Machine) Current() Session {
	return m.channel.Value().Session
}

// OnReset registra fn para rodar sempre que a sessão volta a ANONYMOUS.
func (m *Machine) OnReset(fn func(context.Context)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Login valida as credenciais, guarda o token e carrega o perfil.
func (m *Machine) Login(ctx context.Context, creds backend.Credentials) (AuthState, error) {
	v := util.NewValidator()
	v.FieldError("email", util.ValidateEmail(creds.Email))
	v.Require("password", creds.Password)
	if err := v.Err(); err != nil {
		return AuthState{}, err
	}

	token, err := m.api.Authenticate(ctx, creds)
	if err != nil {
		m.logger.Info().Err(err).Msg("login recusado")
		return AuthState{}, err
	}

	if err := m.store.Set(ctx, storage.KeyToken, token); err != nil {
		return AuthState{}, fmt.Errorf("session: gravar token: %w", err)
	}
	if exp, ok := m.store.(storage.Expirer); ok {
		if ttl := auth.TTL(token, time.Now(), 0); ttl > 0 {
			if err := exp.Expire(ctx, ttl); err != nil {
				m.logger.Warn().Err(err).Msg("falha ao limitar expiração do armazenamento")
			}
		}
	}

	return m.FetchProfile(ctx)
}

// FetchProfile consulta o perfil e decide o papel. Qualquer falha deixa a
// sessão em ANONYMOUS, sem nova tentativa. O token só é descartado quando o
// backend o recusa (4xx), a conta está bloqueada ou o papel é desconhecido;
// falhas de transporte e 5xx preservam o armazenamento local.
func (m *Machine) FetchProfile(ctx context.Context) (AuthState, error) {
	token, err := storage.Lookup(ctx, m.store, storage.KeyToken)
	if err != nil {
		return AuthState{}, fmt.Errorf("session: ler token: %w", err)
	}

	profile, err := m.api.UserProfile(ctx)
	if err != nil {
		m.logger.Info().Err(err).Int("status", backend.StatusCode(err)).Msg("perfil indisponível, sessão volta a anônima")
		m.reset(ctx, profileWipe(err))
		return AuthState{}, err
	}

	role := ParseRole(profile.Role)
	if role == Anonymous {
		m.logger.Warn().Str("role", profile.Role).Int64("user_id", profile.ID).Msg("papel desconhecido no perfil")
		m.reset(ctx, wipeToken)
		return AuthState{}, ErrUnknownRole
	}
	if !profile.IsNotLocked {
		m.logger.Info().Int64("user_id", profile.ID).Msg("conta bloqueada")
		m.reset(ctx, wipeToken)
		return AuthState{}, ErrAccountLocked
	}

	next := AuthState{
		Session: Session{UserID: profile.ID, Role: role, Token: token},
		User:    &profile,
	}
	m.channel.Set(next)
	m.logger.Info().Int64("user_id", profile.ID).Str("role", string(role)).Msg("sessão autenticada")
	return next, nil
}

// Logout encerra a sessão no backend e, só então, limpa o estado local.
func (m *Machine) Logout(ctx context.Context) error {
	if err := m.api.Logout(ctx); err != nil {
		return err
	}
	m.reset(ctx, wipeAll)
	return nil
}

// Register valida o formulário, junta o prefixo ao telefone e cria a conta.
// Não há transição de estado: o usuário precisa entrar em seguida.
func (m *Machine) Register(ctx context.Context, reg backend.Registration, prefijo string) (backend.Message, error) {
	if prefijo == "" {
		prefijo = DefaultPrefijo
	}
	v := util.NewValidator()
	v.FieldError("nombre", util.ValidateNombre(reg.Nombre))
	v.Require("apellidos", reg.Apellidos)
	v.Require("fechanacimiento", reg.FechaNacimiento)
	v.FieldError("telefono", util.ValidateTelefono(reg.Telefono))
	v.FieldError("prefijo", util.ValidatePrefijo(prefijo))
	v.FieldError("email", util.ValidateEmail(reg.Email))
	v.FieldError("password", util.ValidatePassword(reg.Password))
	v.Require("bailerol", reg.Bailerol)
	if err := v.Err(); err != nil {
		return backend.Message{}, err
	}

	reg.Telefono = prefijo + reg.Telefono
	return m.api.Register(ctx, reg)
}

// RequestOTP inicia a recuperação de senha.
func (m *Machine) RequestOTP(ctx context.Context, email string) (backend.Message, error) {
	if err := util.ValidateEmail(email); err != nil {
		return backend.Message{}, &util.ValidationError{Fields: map[string]string{"email": err.Error()}}
	}
	return m.api.RequestOTP(ctx, email)
}

// ConfirmOTP confere o código enviado por e-mail.
func (m *Machine) ConfirmOTP(ctx context.Context, otp, email string) (backend.Message, error) {
	v := util.NewValidator()
	v.Require("otp", otp)
	v.FieldError("email", util.ValidateEmail(email))
	if err := v.Err(); err != nil {
		return backend.Message{}, err
	}
	return m.api.VerifyOTP(ctx, otp, email)
}

// ResetPassword grava a nova senha; em caso de sucesso a sessão é encerrada.
func (m *Machine) ResetPassword(ctx context.Context, email, password, repeat string) (backend.Message, error) {
	v := util.NewValidator()
	v.FieldError("email", util.ValidateEmail(email))
	v.FieldError("password", util.ValidatePassword(password))
	if password != repeat {
		v.Add("repeatPassword", ErrPasswordMismatch.Error())
	}
	if err := v.Err(); err != nil {
		return backend.Message{}, err
	}

	msg, err := m.api.ChangePassword(ctx, email, backend.PasswordChange{Password: password, RepeatPassword: repeat})
	if err != nil {
		return backend.Message{}, err
	}
	m.reset(ctx, wipeAll)
	return msg, nil
}

// DeleteAccount remove a conta; se for a do próprio visitante, a sessão é encerrada
// e AccountDeleted fica verdadeiro.
func (m *Machine) DeleteAccount(ctx context.Context, userID int64) (backend.Message, error) {
	msg, err := m.api.DeleteUser(ctx, userID)
	if err != nil {
		return backend.Message{}, err
	}
	if current := m.Current(); current.Authenticated() && current.UserID == userID {
		m.Revoke(ctx)
	}
	return msg, nil
}

// Revoke encerra localmente uma sessão cuja conta deixou de existir.
func (m *Machine) Revoke(ctx context.Context) {
	m.reset(ctx, wipeAll)
	m.channel.Publish(func(s AuthState) AuthState {
		s.AccountDeleted = true
		return s
	})
}

// wipe diz quanto do armazenamento local um reset apaga.
type wipe int

const (
	wipeNone wipe = iota
	wipeToken
	wipeAll
)

// profileWipe: um 4xx é o backend recusando o token; status 0, 5xx e
// resposta ilegível são falhas passageiras.
func profileWipe(err error) wipe {
	if status := backend.StatusCode(err); status >= 400 && status < 500 {
		return wipeToken
	}
	return wipeNone
}

func (m *Machine) reset(ctx context.Context, scope wipe) {
	switch scope {
	case wipeAll:
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Error().Err(err).Msg("falha ao limpar armazenamento local")
		}
	case wipeToken:
		if err := m.store.Delete(ctx, storage.KeyToken); err != nil {
			m.logger.Error().Err(err).Msg("falha ao descartar token")
		}
	}
	m.channel.Reset()

	m.mu.Lock()
	hooks := append([]func(context.Context){}, m.hooks...)
	m.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx)
	}
}
