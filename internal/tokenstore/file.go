package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// CredentialsFileName is the file FileStore writes inside the state directory.
const CredentialsFileName = "credentials.json"

type credentialsFile struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// FileStore keeps credentials in a JSON file readable only by the owner.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore returns a store backed by dir/credentials.json.
// The directory is created on first write.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{
		path:   filepath.Join(dir, CredentialsFileName),
		logger: componentLogger(logger, "file"),
	}
}

// Path returns the credentials file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(_ context.Context, access, refresh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.write(credentialsFile{Access: access, Refresh: refresh})
}

// SetAccess compares under the store mutex only, so it guards against
// clears made through this FileStore, not against other processes.
func (f *FileStore) SetAccess(_ context.Context, refresh, access string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	creds := f.read()
	if refresh == "" || creds.Refresh != refresh {
		return false
	}
	creds.Access = access
	f.write(creds)
	return true
}

func (f *FileStore) Access(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read().Access
}

func (f *FileStore) Refresh(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read().Refresh
}

func (f *FileStore) Clear(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn("remove credentials", "path", f.path, "error", err)
	}
}

func (f *FileStore) read() credentialsFile {
	var creds credentialsFile
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("read credentials", "path", f.path, "error", err)
		}
		return creds
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		f.logger.Warn("parse credentials", "path", f.path, "error", err)
		return credentialsFile{}
	}
	return creds
}

func (f *FileStore) write(creds credentialsFile) {
	if err := f.writeFile(creds); err != nil {
		f.logger.Warn("write credentials", "path", f.path, "error", err)
	}
}

// writeFile replaces the credentials file atomically via rename.
func (f *FileStore) writeFile(creds credentialsFile) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}
