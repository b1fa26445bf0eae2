package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("segredo-qualquer-do-backend-0000"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func TestInspectTokenReadsClaimsWithoutKey(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signed(t, Claims{
		Roles:            []string{"ADMIN"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ana@example.com", ExpiresAt: jwt.NewNumericDate(exp)},
	})

	info, err := InspectToken(raw)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if info.Subject != "ana@example.com" || !info.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected info %+v", info)
	}
	if len(info.Roles) != 1 || info.Roles[0] != "ADMIN" {
		t.Fatalf("unexpected roles %v", info.Roles)
	}
}

func TestInspectTokenRejectsOpaqueValues(t *testing.T) {
	for _, raw := range []string{"", "abc", "a.b.c"} {
		if _, err := InspectToken(raw); err != ErrOpaqueToken {
			t.Fatalf("%q: expected ErrOpaqueToken, got %v", raw, err)
		}
	}
}

func TestTTLNeverOutlivesToken(t *testing.T) {
	now := time.Now()
	raw := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute))}})

	got := TTL(raw, now, 24*time.Hour)
	if got > 10*time.Minute || got < 9*time.Minute {
		t.Fatalf("expected ~10m, got %v", got)
	}
	if got := TTL(raw, now, time.Minute); got != time.Minute {
		t.Fatalf("expected cap at max, got %v", got)
	}
	if got := TTL("opaco", now, time.Hour); got != time.Hour {
		t.Fatalf("opaque token should use max, got %v", got)
	}

	expired := signed(t, Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}})
	if got := TTL(expired, now, time.Hour); got != 0 {
		t.Fatalf("expired token should give 0, got %v", got)
	}
}
