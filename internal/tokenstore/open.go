package tokenstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/me/campusfix/internal/config"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

// Open builds the backend selected by cfg.TokenStore. The returned Closer
// releases database or network handles and must be called when done.
func Open(ctx context.Context, cfg config.ClientConfig, logger *slog.Logger) (Store, io.Closer, error) {
	switch cfg.TokenStore {
	case config.StoreFile, "":
		return NewFileStore(cfg.StateDir, logger), nopCloser, nil
	case config.StoreMemory:
		return NewMemoryStore(), nopCloser, nil
	case config.StoreSQLite:
		if err := os.MkdirAll(cfg.StateDir, 0700); err != nil {
			return nil, nil, fmt.Errorf("create state directory: %w", err)
		}
		st, err := NewSQLiteStore(ctx, filepath.Join(cfg.StateDir, SQLiteFileName), cfg.Profile, logger)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	case config.StoreRedis:
		client, err := NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, cfg.Profile, logger), client, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.TokenStore)
	}
}
