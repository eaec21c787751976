package tokenstore

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/campusfix/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			return NewFileStore(t.TempDir(), quietLogger())
		},
		"sqlite": func(t *testing.T) Store {
			st, err := NewSQLiteStore(context.Background(), ":memory:", "default", quietLogger())
			require.NoError(t, err)
			t.Cleanup(func() { st.Close() })
			return st
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisStore(client, "default", quietLogger())
		},
	}
}

func TestStore_Conformance(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st := newStore(t)

			assert.Empty(t, st.Access(ctx), "fresh store has no access credential")
			assert.Empty(t, st.Refresh(ctx), "fresh store has no refresh credential")

			st.Save(ctx, "access-1", "refresh-1")
			assert.Equal(t, "access-1", st.Access(ctx))
			assert.Equal(t, "refresh-1", st.Refresh(ctx))

			assert.True(t, st.SetAccess(ctx, "refresh-1", "access-2"))
			assert.Equal(t, "access-2", st.Access(ctx))
			assert.Equal(t, "refresh-1", st.Refresh(ctx), "SetAccess must not touch refresh")

			assert.False(t, st.SetAccess(ctx, "refresh-0", "access-3"), "refresh credential no longer stored")
			assert.Equal(t, "access-2", st.Access(ctx))

			st.Clear(ctx)
			assert.Empty(t, st.Access(ctx))
			assert.Empty(t, st.Refresh(ctx))

			// Clearing an empty store is harmless.
			st.Clear(ctx)

			assert.False(t, st.SetAccess(ctx, "refresh-1", "access-4"), "no write after Clear")
			assert.False(t, st.SetAccess(ctx, "", "access-4"))
			assert.Empty(t, st.Access(ctx))
			assert.Empty(t, st.Refresh(ctx))
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	NewFileStore(dir, quietLogger()).Save(ctx, "a", "r")

	reopened := NewFileStore(dir, quietLogger())
	assert.Equal(t, "a", reopened.Access(ctx))
	assert.Equal(t, "r", reopened.Refresh(ctx))

	info, err := os.Stat(filepath.Join(dir, CredentialsFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_CorruptFileReadsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CredentialsFileName), []byte("{not json"), 0600))

	st := NewFileStore(dir, quietLogger())
	assert.Empty(t, st.Access(ctx))
	assert.Empty(t, st.Refresh(ctx))

	st.Save(ctx, "a", "r")
	assert.Equal(t, "a", st.Access(ctx))
}

func TestSQLiteStore_ProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), SQLiteFileName)

	alice, err := NewSQLiteStore(ctx, path, "alice", quietLogger())
	require.NoError(t, err)
	alice.Save(ctx, "a-access", "a-refresh")
	alice.Close()

	bob, err := NewSQLiteStore(ctx, path, "bob", quietLogger())
	require.NoError(t, err)
	defer bob.Close()
	assert.Empty(t, bob.Access(ctx))
	bob.Save(ctx, "b-access", "b-refresh")
	bob.Clear(ctx)

	again, err := NewSQLiteStore(ctx, path, "alice", quietLogger())
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, "a-access", again.Access(ctx), "clearing bob must not clear alice")
}

func TestRedisStore_Keys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	NewRedisStore(client, "lab", quietLogger()).Save(ctx, "a", "r")

	got, err := mr.Get("campusfix:lab:refresh")
	require.NoError(t, err)
	assert.Equal(t, "r", got)
}

func TestRedisStore_UnavailableReadsEmpty(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	st := NewRedisStore(client, "default", quietLogger())
	st.Save(ctx, "a", "r")
	mr.Close()

	assert.Empty(t, st.Access(ctx))
	st.Clear(ctx) // must not panic
}

func TestNilLoggerFallsBackToDiscard(t *testing.T) {
	ctx := context.Background()

	file := NewFileStore(t.TempDir(), nil)
	file.Save(ctx, "a", "r")
	assert.Equal(t, "a", file.Access(ctx))

	db, err := NewSQLiteStore(ctx, ":memory:", "default", nil)
	require.NoError(t, err)
	defer db.Close()
	db.Save(ctx, "a", "r")
	assert.Equal(t, "r", db.Refresh(ctx))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	rs := NewRedisStore(client, "default", nil)
	mr.Close()
	assert.Empty(t, rs.Access(ctx), "failures are logged to the discard logger")
}

func TestRedisStore_SetAccessAfterClearElsewhere(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	mine := NewRedisStore(client, "default", quietLogger())
	other := NewRedisStore(client, "default", quietLogger())
	mine.Save(ctx, "a", "r")
	other.Clear(ctx)

	assert.False(t, mine.SetAccess(ctx, "r", "a2"))
	assert.False(t, mr.Exists("campusfix:default:access"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	cfg := config.DefaultClientConfig()
	cfg.StateDir = t.TempDir()

	for _, backend := range []string{config.StoreFile, config.StoreMemory, config.StoreSQLite} {
		t.Run(backend, func(t *testing.T) {
			cfg.TokenStore = backend
			st, closer, err := Open(ctx, cfg, quietLogger())
			require.NoError(t, err)
			defer closer.Close()

			st.Save(ctx, "a", "r")
			assert.Equal(t, "a", st.Access(ctx))
		})
	}

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg.TokenStore = config.StoreRedis
		cfg.RedisAddr = mr.Addr()
		st, closer, err := Open(ctx, cfg, quietLogger())
		require.NoError(t, err)
		defer closer.Close()
		st.Save(ctx, "a", "r")
		assert.Equal(t, "r", st.Refresh(ctx))
	})

	t.Run("unknown", func(t *testing.T) {
		cfg.TokenStore = "etcd"
		_, _, err := Open(ctx, cfg, quietLogger())
		require.ErrorIs(t, err, ErrUnknownBackend)
	})
}
