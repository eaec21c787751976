// Package tokenstore persists the access/refresh credential pair between
// client invocations.
//
// Storage is best-effort: no Store method returns an error. Backends log
// failures and behave as if the credential were absent.
package tokenstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// Store holds the client's credential pair.
type Store interface {
	// Save replaces both credentials.
	Save(ctx context.Context, access, refresh string)
	// SetAccess replaces the access credential, but only while the stored
	// refresh credential is still refresh. It reports whether the write
	// happened; the refresh credential is never touched.
	SetAccess(ctx context.Context, refresh, access string) bool
	// Access returns the access credential, or "" if none is held.
	Access(ctx context.Context) string
	// Refresh returns the refresh credential, or "" if none is held.
	Refresh(ctx context.Context) string
	// Clear removes both credentials.
	Clear(ctx context.Context)
}

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown token store backend")

// Credential names used as keys by the key/value backends.
const (
	keyAccess  = "access"
	keyRefresh = "refresh"
)

func componentLogger(logger *slog.Logger, backend string) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger.With("component", "tokenstore", "backend", backend)
}
