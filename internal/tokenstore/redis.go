package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps credentials in Redis so several client processes on a
// workstation can share one sign-in.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisClient connects to addr and verifies the server answers.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisStore returns a store using keys campusfix:<profile>:access|refresh.
func NewRedisStore(client *redis.Client, profile string, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "campusfix:" + profile + ":",
		logger: componentLogger(logger, "redis"),
	}
}

func (r *RedisStore) Save(ctx context.Context, access, refresh string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.prefix+keyAccess, access, 0)
		pipe.Set(ctx, r.prefix+keyRefresh, refresh, 0)
		return nil
	})
	if err != nil {
		r.logger.Warn("save credentials", "error", err)
	}
}

// SetAccess watches the refresh key so a Clear or Save from another
// process between the compare and the write aborts the transaction.
func (r *RedisStore) SetAccess(ctx context.Context, refresh, access string) bool {
	if refresh == "" {
		return false
	}
	written := false
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, r.prefix+keyRefresh).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if current != refresh {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.prefix+keyAccess, access, 0)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}, r.prefix+keyRefresh)
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		r.logger.Warn("save access credential", "error", err)
	}
	return err == nil && written
}

func (r *RedisStore) Access(ctx context.Context) string {
	return r.get(ctx, keyAccess)
}

func (r *RedisStore) Refresh(ctx context.Context) string {
	return r.get(ctx, keyRefresh)
}

func (r *RedisStore) Clear(ctx context.Context) {
	if err := r.client.Del(ctx, r.prefix+keyAccess, r.prefix+keyRefresh).Err(); err != nil {
		r.logger.Warn("clear credentials", "error", err)
	}
}

func (r *RedisStore) get(ctx context.Context, name string) string {
	v, err := r.client.Get(ctx, r.prefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return ""
	}
	if err != nil {
		r.logger.Warn("read credential", "name", name, "error", err)
		return ""
	}
	return v
}
