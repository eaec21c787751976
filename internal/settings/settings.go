// Package settings keeps the user's local preferences (profile cache,
// notification switches, security flags and appearance) in a YAML file
// under the state directory.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/me/campusfix/pkg/model"
)

// FileName is the settings file inside the state directory.
const FileName = "settings.yaml"

// Theme is the appearance preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

type Profile struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	StudentID string `yaml:"student_id"`
	Phone     string `yaml:"phone"`
	Avatar    string `yaml:"avatar,omitempty"`
}

type Notifications struct {
	Email         bool `yaml:"email"`
	Push          bool `yaml:"push"`
	IssueUpdates  bool `yaml:"issue_updates"`
	IssueComments bool `yaml:"issue_comments"`
	WeeklyDigest  bool `yaml:"weekly_digest"`
	Marketing     bool `yaml:"marketing"`
}

type Security struct {
	TwoFactorEnabled bool `yaml:"two_factor_enabled"`
}

type Appearance struct {
	Language string `yaml:"language"`
	Theme    Theme  `yaml:"theme"`
}

// Settings is the whole preference document.
type Settings struct {
	Profile       Profile       `yaml:"profile"`
	Notifications Notifications `yaml:"notifications"`
	Security      Security      `yaml:"security"`
	Appearance    Appearance    `yaml:"appearance"`
}

// Defaults returns the settings of a fresh installation.
func Defaults() Settings {
	return Settings{
		Notifications: Notifications{
			Email:         true,
			Push:          true,
			IssueUpdates:  true,
			IssueComments: true,
		},
		Appearance: Appearance{Language: "en", Theme: ThemeLight},
	}
}

// ProfilePatch carries partial profile changes; nil fields are kept.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	StudentID *string
	Phone     *string
	Avatar    *string
}

// NotificationsPatch carries partial notification changes.
type NotificationsPatch struct {
	Email         *bool
	Push          *bool
	IssueUpdates  *bool
	IssueComments *bool
	WeeklyDigest  *bool
	Marketing     *bool
}

// AppearancePatch carries partial appearance changes.
type AppearancePatch struct {
	Language *string
	Theme    *Theme
}

// Store reads and writes the settings file.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore returns a store backed by path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{path: path, logger: logger.With("component", "settings")}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored settings. A missing or unreadable file yields
// the defaults; keys absent from the file keep their default values.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() Settings {
	out := Defaults()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("read settings", "path", s.path, "error", err)
		}
		return out
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		s.logger.Warn("settings file is corrupt, using defaults", "path", s.path, "error", err)
		return Defaults()
	}
	if !out.Appearance.Theme.Valid() {
		out.Appearance.Theme = ThemeLight
	}
	return out
}

func (s *Store) save(st Settings) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Update applies fn to the stored settings and persists the result.
func (s *Store) Update(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.load()
	fn(&st)
	if err := s.save(st); err != nil {
		return st, err
	}
	return st, nil
}

// UpdateProfile merges p into the cached profile.
func (s *Store) UpdateProfile(p ProfilePatch) (Settings, error) {
	return s.Update(func(st *Settings) {
		setString(&st.Profile.FirstName, p.FirstName)
		setString(&st.Profile.LastName, p.LastName)
		setString(&st.Profile.Email, p.Email)
		setString(&st.Profile.StudentID, p.StudentID)
		setString(&st.Profile.Phone, p.Phone)
		setString(&st.Profile.Avatar, p.Avatar)
	})
}

// UpdateAvatar replaces the avatar URL; "" removes it.
func (s *Store) UpdateAvatar(avatar string) (Settings, error) {
	return s.Update(func(st *Settings) { st.Profile.Avatar = avatar })
}

// UpdateNotifications merges p into the notification switches.
func (s *Store) UpdateNotifications(p NotificationsPatch) (Settings, error) {
	return s.Update(func(st *Settings) {
		setBool(&st.Notifications.Email, p.Email)
		setBool(&st.Notifications.Push, p.Push)
		setBool(&st.Notifications.IssueUpdates, p.IssueUpdates)
		setBool(&st.Notifications.IssueComments, p.IssueComments)
		setBool(&st.Notifications.WeeklyDigest, p.WeeklyDigest)
		setBool(&st.Notifications.Marketing, p.Marketing)
	})
}

// UpdateSecurity records the two-factor flag.
func (s *Store) UpdateSecurity(twoFactor bool) (Settings, error) {
	return s.Update(func(st *Settings) { st.Security.TwoFactorEnabled = twoFactor })
}

// UpdateAppearance merges p into the appearance settings. An unknown
// theme is rejected.
func (s *Store) UpdateAppearance(p AppearancePatch) (Settings, error) {
	if p.Theme != nil && !p.Theme.Valid() {
		return s.Load(), fmt.Errorf("unknown theme %q", *p.Theme)
	}
	return s.Update(func(st *Settings) {
		setString(&st.Appearance.Language, p.Language)
		if p.Theme != nil {
			st.Appearance.Theme = *p.Theme
		}
	})
}

// Reset deletes the settings file so the defaults apply again.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove settings: %w", err)
	}
	return nil
}

// ProfileFetcher returns the signed-in user's server profile.
type ProfileFetcher func(ctx context.Context) model.Result[model.User]

// SyncProfile refreshes the cached profile from the server. Only
// non-empty server values overwrite local ones. A failed fetch leaves the
// settings untouched and returns the failure message as an error.
func (s *Store) SyncProfile(ctx context.Context, fetch ProfileFetcher) (Settings, error) {
	res := fetch(ctx)
	u, ok := res.Value()
	if !ok {
		return s.Load(), errors.New(res.Message())
	}
	return s.Update(func(st *Settings) {
		keep(&st.Profile.FirstName, u.FirstName)
		keep(&st.Profile.LastName, u.LastName)
		keep(&st.Profile.Email, u.Email)
		keepPtr(&st.Profile.StudentID, u.StudentID)
		keepPtr(&st.Profile.Phone, u.Phone)
		keepPtr(&st.Profile.Avatar, u.Avatar)
		st.Security.TwoFactorEnabled = u.TwoFactorEnabled
	})
}

// publicPaths always render in the light theme.
var publicPaths = map[string]bool{"/": true, "/login": true, "/forgot-password": true}

// ResolveTheme returns the concrete theme (light or dark) to render.
// Public screens and signed-out sessions are always light; "system"
// follows the desktop preference.
func ResolveTheme(theme Theme, authenticated bool, path string, systemDark bool) Theme {
	if !authenticated || publicPaths[path] {
		return ThemeLight
	}
	switch theme {
	case ThemeDark:
		return ThemeDark
	case ThemeSystem:
		if systemDark {
			return ThemeDark
		}
	}
	return ThemeLight
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func keep(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func keepPtr(dst *string, v *string) {
	if v != nil {
		keep(dst, *v)
	}
}
