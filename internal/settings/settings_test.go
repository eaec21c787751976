package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/campusfix/pkg/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state", FileName), nil)
}

func ptr[T any](v T) *T { return &v }

func TestLoadDefaults(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, Defaults(), s.Load())
	assert.Equal(t, ThemeLight, s.Load().Appearance.Theme)
	assert.True(t, s.Load().Notifications.Email)
	assert.False(t, s.Load().Notifications.Marketing)
}

func TestUpdatesPersistAndMerge(t *testing.T) {
	s := newStore(t)

	_, err := s.UpdateProfile(ProfilePatch{FirstName: ptr("Ada"), Phone: ptr("555")})
	require.NoError(t, err)
	_, err = s.UpdateNotifications(NotificationsPatch{WeeklyDigest: ptr(true), Push: ptr(false)})
	require.NoError(t, err)
	_, err = s.UpdateAppearance(AppearancePatch{Theme: ptr(ThemeDark)})
	require.NoError(t, err)
	_, err = s.UpdateSecurity(true)
	require.NoError(t, err)

	reopened := NewStore(s.Path(), nil).Load()
	assert.Equal(t, "Ada", reopened.Profile.FirstName)
	assert.Equal(t, "555", reopened.Profile.Phone)
	assert.True(t, reopened.Notifications.WeeklyDigest)
	assert.False(t, reopened.Notifications.Push)
	assert.True(t, reopened.Notifications.Email, "untouched switches keep their value")
	assert.Equal(t, ThemeDark, reopened.Appearance.Theme)
	assert.Equal(t, "en", reopened.Appearance.Language)
	assert.True(t, reopened.Security.TwoFactorEnabled)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestUpdateAppearanceRejectsUnknownTheme(t *testing.T) {
	s := newStore(t)
	_, err := s.UpdateAppearance(AppearancePatch{Theme: ptr(Theme("neon"))})
	assert.Error(t, err)
	assert.Equal(t, ThemeLight, s.Load().Appearance.Theme)
}

func TestAvatar(t *testing.T) {
	s := newStore(t)
	st, err := s.UpdateAvatar("https://cdn.example/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.png", st.Profile.Avatar)
	st, err = s.UpdateAvatar("")
	require.NoError(t, err)
	assert.Empty(t, st.Profile.Avatar)
}

func TestCorruptFileFallsBack(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
	require.NoError(t, os.WriteFile(s.Path(), []byte("appearance: [unterminated"), 0o600))

	assert.Equal(t, Defaults(), s.Load())
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
	require.NoError(t, os.WriteFile(s.Path(), []byte("appearance:\n  theme: system\n"), 0o600))

	st := s.Load()
	assert.Equal(t, ThemeSystem, st.Appearance.Theme)
	assert.True(t, st.Notifications.IssueUpdates)
}

func TestReset(t *testing.T) {
	s := newStore(t)
	_, err := s.UpdateAppearance(AppearancePatch{Theme: ptr(ThemeDark)})
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	assert.Equal(t, Defaults(), s.Load())
	assert.NoError(t, s.Reset(), "resetting twice is fine")
}

func TestSyncProfile(t *testing.T) {
	s := newStore(t)
	_, err := s.UpdateProfile(ProfilePatch{Phone: ptr("local-phone"), LastName: ptr("Local")})
	require.NoError(t, err)

	sid := "S42"
	st, err := s.SyncProfile(context.Background(), func(context.Context) model.Result[model.User] {
		return model.OK(model.User{FirstName: "Server", Email: "s@u.edu", StudentID: &sid, TwoFactorEnabled: true})
	})
	require.NoError(t, err)
	assert.Equal(t, "Server", st.Profile.FirstName)
	assert.Equal(t, "Local", st.Profile.LastName, "empty server value keeps local")
	assert.Equal(t, "local-phone", st.Profile.Phone, "nil server value keeps local")
	assert.Equal(t, "S42", st.Profile.StudentID)
	assert.True(t, st.Security.TwoFactorEnabled)

	_, err = s.SyncProfile(context.Background(), func(context.Context) model.Result[model.User] {
		return model.Fail[model.User](model.MsgNetwork)
	})
	assert.EqualError(t, err, model.MsgNetwork)
	assert.Equal(t, "Server", s.Load().Profile.FirstName)
}

func TestResolveTheme(t *testing.T) {
	tests := []struct {
		name          string
		theme         Theme
		authenticated bool
		path          string
		systemDark    bool
		want          Theme
	}{
		{"dark when signed in", ThemeDark, true, "/dashboard", false, ThemeDark},
		{"public route forces light", ThemeDark, true, "/login", false, ThemeLight},
		{"root is public", ThemeDark, true, "/", true, ThemeLight},
		{"anonymous forces light", ThemeDark, false, "/dashboard", true, ThemeLight},
		{"system dark", ThemeSystem, true, "/settings", true, ThemeDark},
		{"system light", ThemeSystem, true, "/settings", false, ThemeLight},
		{"light", ThemeLight, true, "/settings", true, ThemeLight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTheme(tt.theme, tt.authenticated, tt.path, tt.systemDark))
		})
	}
}
