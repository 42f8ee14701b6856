package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// CredentialStore persists the single credential key. Load returns "" when
// nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type Opts struct {
	Driver   string        // file | redis | memory
	Path     string        // file driver
	Redis    *redis.Client // redis driver
	RedisKey string        // redis driver
}

// New picks the backend named by opts.Driver.
func New(opts Opts) (CredentialStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", "file":
		return NewFileStore(opts.Path)
	case "redis":
		if opts.Redis == nil {
			return nil, fmt.Errorf("store: redis driver selected but no redis client configured")
		}
		return NewRedisStore(opts.Redis, opts.RedisKey), nil
	case "memory":
		return NewMemoryStore(""), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", opts.Driver)
	}
}
