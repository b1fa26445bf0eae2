package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken indica que o token não é um JWT legível.
var ErrOpaqueToken = errors.New("token opaco")

// Claims representa as informações legíveis do token emitido pelo backend.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenInfo resume o que o cliente sabe do token sem validá-lo.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	Roles     []string
}

// InspectToken lê as claims sem verificar assinatura; a validação cabe ao backend.
func InspectToken(raw string) (TokenInfo, error) {
	if raw == "" {
		return TokenInfo{}, ErrOpaqueToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, ErrOpaqueToken
	}

	info := TokenInfo{Subject: claims.Subject, Roles: claims.Roles}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// TTL limita max ao tempo restante do token. Tokens opacos ou sem exp recebem max.
func TTL(raw string, now time.Time, max time.Duration) time.Duration {
	info, err := InspectToken(raw)
	if err != nil || info.ExpiresAt.IsZero() {
		return max
	}
	remaining := info.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	if max > 0 && remaining > max {
		return max
	}
	return remaining
}
