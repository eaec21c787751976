package route

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/me/campusfix/internal/session"
	"github.com/me/campusfix/pkg/model"
)

var (
	unknown   = session.Snapshot{Status: session.StatusUnknown}
	anonymous = session.Snapshot{Status: session.StatusAnonymous}
	student   = session.Snapshot{Status: session.StatusAuthenticated, User: model.User{Email: "s@u.edu", Role: "student"}, Role: model.RoleUser}
	admin     = session.Snapshot{Status: session.StatusAuthenticated, User: model.User{Email: "a@u.edu", IsSuperuser: true}, Role: model.RoleAdmin}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		snap          session.Snapshot
		path          string
		requiresAdmin bool
		want          Decision
	}{
		{"unknown waits", unknown, "/dashboard", false, Decision{Kind: Loading}},
		{"unknown waits on admin", unknown, "/admin", true, Decision{Kind: Loading}},
		{"anonymous to login", anonymous, "/issues/7?tab=comments", false, Decision{Kind: RedirectLogin, Target: "/login", From: "/issues/7?tab=comments"}},
		{"anonymous to login from admin", anonymous, "/admin", true, Decision{Kind: RedirectLogin, Target: "/login", From: "/admin"}},
		{"user on user screen", student, "/dashboard", false, Decision{Kind: Allow}},
		{"user on admin screen", student, "/admin", true, Decision{Kind: RedirectHome, Target: HomeUser}},
		{"admin on admin screen", admin, "/admin", true, Decision{Kind: Allow}},
		{"admin on user screen", admin, "/dashboard", false, Decision{Kind: RedirectHome, Target: HomeAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.snap, tt.path, tt.requiresAdmin))
		})
	}
}

// Each role is sent to its own home from the other role's screens, and
// the decision never changes for identical input.
func TestDecideRoleSymmetry(t *testing.T) {
	for _, snap := range []session.Snapshot{student, admin} {
		home := Home(snap.Role)
		for _, requiresAdmin := range []bool{false, true} {
			first := Decide(snap, "/x", requiresAdmin)
			assert.Equal(t, first, Decide(snap, "/x", requiresAdmin))
			if requiresAdmin == snap.Role.IsAdmin() {
				assert.Equal(t, Allow, first.Kind)
			} else {
				assert.Equal(t, Decision{Kind: RedirectHome, Target: home}, first)
			}
		}
	}
}

func TestAdmit(t *testing.T) {
	table := Default()
	tests := []struct {
		name string
		snap session.Snapshot
		uri  string
		want Decision
	}{
		{"root alias", anonymous, "/", Decision{Kind: Redirect, Target: "/login"}},
		{"public login", anonymous, "/login", Decision{Kind: Allow}},
		{"public login for admin", admin, "/login", Decision{Kind: Allow}},
		{"public forgot password", unknown, "/forgot-password", Decision{Kind: Allow}},
		{"issue pattern", student, "/issues/42", Decision{Kind: Allow}},
		{"issue edit pattern", student, "/issues/42/edit", Decision{Kind: Allow}},
		{"trailing slash", student, "/issues/", Decision{Kind: Allow}},
		{"anonymous keeps query", anonymous, "/issues/42?tab=comments", Decision{Kind: RedirectLogin, Target: "/login", From: "/issues/42?tab=comments"}},
		{"admin responses", admin, "/admin/issues/3/responses", Decision{Kind: Allow}},
		{"student on admin responses", student, "/admin/issues/3/responses", Decision{Kind: RedirectHome, Target: HomeUser}},
		{"admin on public issues", admin, "/public-issues", Decision{Kind: RedirectHome, Target: HomeAdmin}},
		{"unknown screen", student, "/nowhere", Decision{Kind: NotFound}},
		{"unknown nested screen", anonymous, "/issues/1/edit/more", Decision{Kind: NotFound}},
		{"loading", unknown, "/settings", Decision{Kind: Loading}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Admit(tt.snap, tt.uri))
		})
	}
}

func TestLookup(t *testing.T) {
	table := Default()

	access, ok := table.Lookup("/admin")
	assert.True(t, ok)
	assert.Equal(t, Admin, access)

	access, ok = table.Lookup("/issues/9?x=1")
	assert.True(t, ok)
	assert.Equal(t, Authenticated, access)

	_, ok = table.Lookup("/missing")
	assert.False(t, ok)

	assert.Contains(t, table.Patterns(), "/issues/{id}/edit")
}

func TestAfterAuth(t *testing.T) {
	assert.Equal(t, "/issues/4?tab=a", AfterLogin("/issues/4?tab=a", model.RoleAdmin))
	assert.Equal(t, HomeAdmin, AfterLogin("", model.RoleAdmin))
	assert.Equal(t, HomeUser, AfterLogin("", model.RoleUser))
	assert.Equal(t, "/report", AfterRegister("/report"))
	assert.Equal(t, HomeUser, AfterRegister(""))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "redirect-login", RedirectLogin.String())
	assert.Equal(t, "admin", Admin.String())
}
