package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/me/campusfix/internal/api"
	"github.com/me/campusfix/internal/apiclient"
	"github.com/me/campusfix/internal/apitest"
	"github.com/me/campusfix/internal/route"
	"github.com/me/campusfix/internal/session"
	"github.com/me/campusfix/internal/tokenstore"
	"github.com/me/campusfix/pkg/model"
)

type fixture struct {
	srv    *apitest.Server
	api    *api.API
	tokens *tokenstore.MemoryStore
	mgr    *session.Manager
}

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	tokens := tokenstore.NewMemoryStore()
	c := apiclient.NewClient(apiclient.DefaultConfig().WithBaseURL(srv.URL()), tokens, nil)
	a := api.New(c)
	return &fixture{srv: srv, api: a, tokens: tokens, mgr: session.New(a.Auth, tokens, nil)}
}

func TestStartsUnknown(t *testing.T) {
	f := setup(t)
	assert.Equal(t, session.StatusUnknown, f.mgr.Snapshot().Status)
	assert.Equal(t, "unknown", f.mgr.Snapshot().Status.String())
}

func TestStartWithoutCredential(t *testing.T) {
	f := setup(t)

	snap := f.mgr.Start(context.Background())

	assert.Equal(t, session.StatusAnonymous, snap.Status)
	assert.Zero(t, f.srv.Hits("/api/auth/profile/"), "no network without a credential")
}

func TestStartRestoresSession(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("admin@u.edu", "secret123", true)
	creds := f.srv.IssueTokens("admin@u.edu")
	f.tokens.Save(context.Background(), creds.Access, creds.Refresh)

	snap := f.mgr.Start(context.Background())

	require.True(t, snap.Authenticated())
	assert.Equal(t, "admin@u.edu", snap.User.Email)
	assert.Equal(t, model.RoleAdmin, snap.Role)
}

func TestStartWithRejectedCredentialClears(t *testing.T) {
	f := setup(t)
	f.tokens.Save(context.Background(), "stale-access", "stale-refresh")

	snap := f.mgr.Start(context.Background())

	assert.Equal(t, session.StatusAnonymous, snap.Status)
	assert.Empty(t, f.tokens.Access(context.Background()))
	assert.Empty(t, f.tokens.Refresh(context.Background()))
}

// Login, then an admin-only path sends an ordinary user home.
func TestLoginThenAdminPathRedirects(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()
	f.mgr.Start(ctx)

	res := f.mgr.Login(ctx, "a@u.edu", "secret123")

	require.True(t, res.IsOK(), res.Message())
	snap := f.mgr.Snapshot()
	require.Equal(t, session.StatusAuthenticated, snap.Status)
	assert.Equal(t, model.RoleUser, snap.Role)
	assert.NotEmpty(t, f.tokens.Access(ctx))
	assert.NotEmpty(t, f.tokens.Refresh(ctx))

	d := route.Decide(snap, "/admin", true)
	assert.Equal(t, route.RedirectHome, d.Kind)
	assert.Equal(t, route.HomeUser, d.Target)
}

// A failed refresh mid-request leaves no credentials and Sync signs out.
func TestFailedRefreshEndsAnonymous(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()
	require.True(t, f.mgr.Login(ctx, "a@u.edu", "secret123").IsOK())

	f.srv.ExpireAccess()
	f.srv.RevokeRefresh()
	res := f.api.Dashboard.Stats(ctx)

	require.False(t, res.IsOK())
	assert.Empty(t, f.tokens.Access(ctx))
	assert.Empty(t, f.tokens.Refresh(ctx))

	snap := f.mgr.Sync(ctx)
	assert.Equal(t, session.StatusAnonymous, snap.Status)
}

func TestSyncKeepsHealthySession(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()
	require.True(t, f.mgr.Login(ctx, "a@u.edu", "secret123").IsOK())

	assert.True(t, f.mgr.Sync(ctx).Authenticated())
}

func TestLoginFormCheckedLocally(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.mgr.Start(ctx)

	res := f.mgr.Login(ctx, "", "secret123")

	assert.Equal(t, model.MsgRequiredFields, res.Message())
	assert.Zero(t, f.srv.Hits("/api/auth/login/"))
	assert.Equal(t, session.StatusAnonymous, f.mgr.Snapshot().Status)
}

func TestLoginFailureLeavesStateUnchanged(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()
	f.mgr.Start(ctx)

	res := f.mgr.Login(ctx, "a@u.edu", "wrong-password")

	assert.Equal(t, "Invalid email or password.", res.Message())
	assert.Equal(t, session.StatusAnonymous, f.mgr.Snapshot().Status)
	assert.Empty(t, f.tokens.Access(ctx))
}

func TestRegister(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	form := model.RegisterForm{
		Email: "new@u.edu", FirstName: "New", LastName: "User", StudentID: "S3",
		Password: "Str0ngpass!", PasswordConfirm: "Str0ngpass?",
	}

	mismatch := f.mgr.Register(ctx, form)
	assert.Equal(t, model.MsgPasswordMismatch, mismatch.Message())
	assert.Zero(t, f.srv.Hits("/api/auth/register/"))

	form.PasswordConfirm = form.Password
	res := f.mgr.Register(ctx, form)
	require.True(t, res.IsOK(), res.Message())
	snap := f.mgr.Snapshot()
	assert.True(t, snap.Authenticated())
	assert.Equal(t, model.RoleUser, snap.Role)
	assert.NotEmpty(t, f.tokens.Refresh(ctx))
}

func TestLogout(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()
	require.True(t, f.mgr.Login(ctx, "a@u.edu", "secret123").IsOK())

	f.mgr.Logout(ctx)

	assert.Equal(t, session.StatusAnonymous, f.mgr.Snapshot().Status)
	assert.Empty(t, f.tokens.Access(ctx))
	assert.Empty(t, f.tokens.Refresh(ctx))
	assert.Equal(t, 1, f.srv.Hits("/api/auth/logout/"))
}

func TestLogoutWhenServerUnreachable(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()
	require.True(t, f.mgr.Login(ctx, "a@u.edu", "secret123").IsOK())
	f.srv.Close()

	f.mgr.Logout(ctx)

	assert.Equal(t, session.StatusAnonymous, f.mgr.Snapshot().Status)
	assert.Empty(t, f.tokens.Access(ctx))
	assert.Empty(t, f.tokens.Refresh(ctx))
}

func TestUpdateUser(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()

	// No-op while signed out.
	first := "Ignored"
	f.mgr.UpdateUser(model.UserPatch{FirstName: &first})
	assert.Equal(t, session.StatusUnknown, f.mgr.Snapshot().Status)

	require.True(t, f.mgr.Login(ctx, "a@u.edu", "secret123").IsOK())
	hits := f.srv.Hits("/api/auth/profile/")

	first = "Ada"
	f.mgr.UpdateUser(model.UserPatch{FirstName: &first})
	snap := f.mgr.Snapshot()
	assert.Equal(t, "Ada", snap.User.FirstName)
	assert.Equal(t, "User", snap.User.LastName, "merge keeps untouched fields")
	assert.Equal(t, model.RoleUser, snap.Role)

	promote := true
	f.mgr.UpdateUser(model.UserPatch{IsSuperuser: &promote})
	assert.Equal(t, model.RoleAdmin, f.mgr.Snapshot().Role)

	assert.Equal(t, hits, f.srv.Hits("/api/auth/profile/"), "UpdateUser is local only")
}

func TestSubscribe(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []session.Status
	unsubscribe := f.mgr.Subscribe(func(s session.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Status)
	})

	f.mgr.Start(ctx)
	f.mgr.Login(ctx, "a@u.edu", "secret123")
	unsubscribe()
	f.mgr.Logout(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []session.Status{session.StatusAnonymous, session.StatusAuthenticated}, seen)
}

func TestUpdateUserRacingLogout(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()
	first := "Ada"

	for i := 0; i < 200; i++ {
		require.True(t, f.mgr.Login(ctx, "a@u.edu", "secret123").IsOK())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.mgr.UpdateUser(model.UserPatch{FirstName: &first})
		}()
		go func() {
			defer wg.Done()
			f.mgr.Logout(ctx)
		}()
		wg.Wait()

		require.Equal(t, session.StatusAnonymous, f.mgr.Snapshot().Status, "iteration %d", i)
		require.Empty(t, f.tokens.Refresh(ctx))
	}
}

func TestSyncDoesNotDropFreshLogin(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("a@u.edu", "secret123", false)
	ctx := context.Background()
	require.True(t, f.mgr.Login(ctx, "a@u.edu", "secret123").IsOK())

	for i := 0; i < 100; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.mgr.Sync(ctx)
		}()
		go func() {
			defer wg.Done()
			f.mgr.UpdateUser(model.UserPatch{})
		}()
		wg.Wait()
		require.True(t, f.mgr.Snapshot().Authenticated(), "iteration %d", i)
	}

	f.tokens.Clear(ctx)
	assert.Equal(t, session.StatusAnonymous, f.mgr.Sync(ctx).Status)
}
