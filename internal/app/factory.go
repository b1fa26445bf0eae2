package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bailaconsara/portal/internal/backend"
	"github.com/bailaconsara/portal/internal/storage"
)

// RedisFactory cria workspaces cujo armazenamento local vive em Redis, com
// expiração ttl por visitante. O estado persistido sobrevive ao descarte do
// workspace e é restaurado na próxima requisição.
func RedisFactory(base *backend.Client, rdb *redis.Client, ttl time.Duration) Factory {
	return func(ctx context.Context, visitorID string) (*Workspace, error) {
		store := storage.NewRedis(rdb, visitorID, ttl)
		ws := NewWorkspace(visitorID, store, ClientFor(base, store))
		ws.Restore(ctx)
		return ws, nil
	}
}

// MemoryFactory cria workspaces com armazenamento em memória.
func MemoryFactory(base *backend.Client) Factory {
	return func(ctx context.Context, visitorID string) (*Workspace, error) {
		store := storage.NewMemory()
		ws := NewWorkspace(visitorID, store, ClientFor(base, store))
		ws.Restore(ctx)
		return ws, nil
	}
}
