package consent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bailaconsara/portal/internal/state"
	"github.com/bailaconsara/portal/internal/storage"
)

// Valores gravados sob storage.KeyCookieConsent.
const (
	Accepted = "accepted"
	Rejected = "rejected"
)

// Service guarda a preferência de cookies e publica se o aviso deve aparecer.
type Service struct {
	store   storage.Store
	channel *state.Channel[bool]
	logger  zerolog.Logger
}

// NewService usa um canal cujo valor inicial deve ser true (aviso visível).
func NewService(store storage.Store, channel *state.Channel[bool]) *Service {
	return &Service{
		store:   store,
		channel: channel,
		logger:  log.With().Str("component", "consent").Logger(),
	}
}

func (s *Service) Channel() *state.Channel[bool] {
	return s.channel
}

// Load publica o aviso conforme a preferência gravada: só "accepted" o esconde.
func (s *Service) Load(ctx context.Context) error {
	pref, err := s.Preference(ctx)
	if err != nil {
		return err
	}
	s.channel.Set(pref != Accepted)
	return nil
}

// Reload é a versão de Load usada como gancho de reinício da sessão.
func (s *Service) Reload(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("preferência de cookies não recarregada")
	}
}

// Preference devolve a preferência gravada ou "" se não houver.
func (s *Service) Preference(ctx context.Context) (string, error) {
	pref, err := storage.Lookup(ctx, s.store, storage.KeyCookieConsent)
	if err != nil {
		return "", fmt.Errorf("consent: ler preferência: %w", err)
	}
	return pref, nil
}

// Accept grava a aceitação e esconde o aviso.
func (s *Service) Accept(ctx context.Context) error {
	if err := s.store.Set(ctx, storage.KeyCookieConsent, Accepted); err != nil {
		return fmt.Errorf("consent: gravar preferência: %w", err)
	}
	s.channel.Set(false)
	return nil
}

// Reject descarta o armazenamento não essencial, preservando apenas a
// credencial, grava a recusa e mantém o aviso visível.
func (s *Service) Reject(ctx context.Context) error {
	token, err := storage.Lookup(ctx, s.store, storage.KeyToken)
	if err != nil {
		return fmt.Errorf("consent: ler credencial: %w", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("consent: limpar armazenamento: %w", err)
	}
	if token != "" {
		if err := s.store.Set(ctx, storage.KeyToken, token); err != nil {
			return fmt.Errorf("consent: regravar credencial: %w", err)
		}
	}
	if err := s.store.Set(ctx, storage.KeyCookieConsent, Rejected); err != nil {
		return fmt.Errorf("consent: gravar preferência: %w", err)
	}
	s.channel.Set(true)
	return nil
}
