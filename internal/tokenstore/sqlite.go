package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteFileName is the database file SQLiteStore opens inside the state directory.
const SQLiteFileName = "campusfix.db"

// SQLiteStore keeps credentials in a SQLite database, one row per
// credential, namespaced by profile.
type SQLiteStore struct {
	db      *sql.DB
	profile string
	logger  *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and applies
// the schema. Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(ctx context.Context, dbPath, profile string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{
		db:      db,
		profile: profile,
		logger:  componentLogger(logger, "sqlite"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, access, refresh string) {
	s.logger.Debug("sql", "op", "upsert", "table", "credentials", "names", "access,refresh")
	if err := s.upsert(ctx, map[string]string{keyAccess: access, keyRefresh: refresh}); err != nil {
		s.logger.Warn("save credentials", "error", err)
	}
}

func (s *SQLiteStore) SetAccess(ctx context.Context, refresh, access string) bool {
	if refresh == "" {
		return false
	}
	s.logger.Debug("sql", "op", "upsert", "table", "credentials", "names", "access", "guard", "refresh")
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (profile, name, value, updated_at)
		 SELECT ?, ?, ?, ? WHERE EXISTS (
		     SELECT 1 FROM credentials WHERE profile = ? AND name = ? AND value = ?)
		 ON CONFLICT(profile, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.profile, keyAccess, access, time.Now().Unix(),
		s.profile, keyRefresh, refresh,
	)
	if err != nil {
		s.logger.Warn("save access credential", "error", err)
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logger.Warn("save access credential", "error", err)
		return false
	}
	return n > 0
}

func (s *SQLiteStore) Access(ctx context.Context) string {
	return s.get(ctx, keyAccess)
}

func (s *SQLiteStore) Refresh(ctx context.Context) string {
	return s.get(ctx, keyRefresh)
}

func (s *SQLiteStore) Clear(ctx context.Context) {
	s.logger.Debug("sql", "op", "delete", "table", "credentials", "profile", s.profile)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE profile = ?`, s.profile); err != nil {
		s.logger.Warn("clear credentials", "error", err)
	}
}

func (s *SQLiteStore) get(ctx context.Context, name string) string {
	s.logger.Debug("sql", "op", "select", "table", "credentials", "name", name)

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM credentials WHERE profile = ? AND name = ?`, s.profile, name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	if err != nil {
		s.logger.Warn("read credential", "name", name, "error", err)
		return ""
	}
	return value
}

func (s *SQLiteStore) upsert(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for name, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO credentials (profile, name, value, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(profile, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			s.profile, name, value, now,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", name, err)
		}
	}
	return tx.Commit()
}
