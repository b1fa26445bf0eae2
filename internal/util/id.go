package util

import "github.com/google/uuid"

// NewID gera um identificador aleatório (UUID v4) para visitantes e notificações.
func NewID() string {
	return uuid.NewString()
}
