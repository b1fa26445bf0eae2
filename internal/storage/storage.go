package storage

import (
	"context"
	"errors"
	"time"
)

// Chaves fixas do armazenamento local do visitante.
const (
	KeyToken         = "token"
	KeyCookieConsent = "cookieConsent"
)

// ErrNotFound indica chave ausente.
var ErrNotFound = errors.New("storage: chave não encontrada")

// Store guarda o estado persistido do lado do cliente (token e consentimento).
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Expirer é implementado por stores cujo conteúdo pode expirar.
type Expirer interface {
	Expire(ctx context.Context, ttl time.Duration) error
}

// Lookup lê key tratando ausência como string vazia.
func Lookup(ctx context.Context, store Store, key string) (string, error) {
	val, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return val, err
}
