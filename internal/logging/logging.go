package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates a configured slog.Logger.
//
// level: slog level (DEBUG, INFO, WARN, ERROR)
// format: "text" (human-readable) or "json" (structured)
//
// Output goes to stderr by default (stdout is reserved for program output).
func NewLogger(level slog.Level, format string) *slog.Logger {
	return NewLoggerWithWriter(level, format, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to the given writer.
func NewLoggerWithWriter(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RedactToken masks a credential for logging, keeping only enough of its
// tail to tell two tokens apart.
func RedactToken(tok string) string {
	if tok == "" {
		return ""
	}
	if len(tok) <= 8 {
		return "***"
	}
	return "***" + tok[len(tok)-4:]
}

// RedactEmail masks the local part of an email address.
// "student@u.edu" becomes "st***@u.edu"; anything without exactly one '@'
// is masked entirely.
func RedactEmail(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}
	i := strings.IndexByte(s, '@')
	local, domain := []rune(s[:i]), s[i+1:]
	if len(local) <= 2 {
		return "***@" + domain
	}
	return string(local[:2]) + "***@" + domain
}
