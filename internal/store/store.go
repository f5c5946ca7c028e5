// Package store selects the key/value backend that holds the transcript,
// settings and identity blobs.
package store

import (
	"context"
	"fmt"

	"github.com/suPer8Hu/pocket-chat/internal/config"
	"github.com/suPer8Hu/pocket-chat/internal/db"
	"github.com/suPer8Hu/pocket-chat/internal/store/redisstore"
	"github.com/suPer8Hu/pocket-chat/internal/store/sqlstore"
)

// KV is whole-value key/value storage. Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Open returns the backend named by cfg.ChatStore.
func Open(ctx context.Context, cfg config.Config) (KV, error) {
	switch cfg.ChatStore {
	case "", BackendLocal:
		gdb, err := db.Open(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.New(gdb)
		if err != nil {
			_ = db.Close(gdb)
			return nil, fmt.Errorf("migrate kv: %w", err)
		}
		return s, nil
	case BackendRedis:
		s, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported CHAT_STORE=%q", cfg.ChatStore)
	}
}

var (
	_ KV = (*sqlstore.Store)(nil)
	_ KV = (*redisstore.Store)(nil)
)
