// Package session owns the client-side authentication state: whether a
// user is signed in, who they are and which role they act under. A
// Manager is created once per process and passed to whatever needs it.
package session

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/me/campusfix/internal/api"
	"github.com/me/campusfix/internal/forms"
	"github.com/me/campusfix/internal/logging"
	"github.com/me/campusfix/internal/tokenstore"
	"github.com/me/campusfix/pkg/model"
)

// Status is the coarse authentication state.
type Status int

const (
	// StatusUnknown is the state before Start has resolved.
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Snapshot is an immutable copy of the session state. User and Role are
// only meaningful when Status is StatusAuthenticated.
type Snapshot struct {
	Status Status
	User   model.User
	Role   model.UserRole
}

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Listener is notified after every state change.
type Listener func(Snapshot)

// Manager holds the session state. It is safe for concurrent use; the
// state is only changed through its methods.
type Manager struct {
	auth   *api.Auth
	tokens tokenstore.Store
	logger *slog.Logger

	mu        sync.RWMutex
	state     Snapshot
	listeners map[int]Listener
	nextID    int
}

// New creates a Manager in StatusUnknown.
func New(auth *api.Auth, tokens tokenstore.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		auth:      auth,
		tokens:    tokens,
		logger:    logger.With("component", "session"),
		listeners: make(map[int]Listener),
	}
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) setAuthenticated(u model.User) Snapshot {
	return m.set(Snapshot{Status: StatusAuthenticated, User: u, Role: model.ClassifyRole(&u)})
}

func (m *Manager) setAnonymous() Snapshot {
	return m.set(Snapshot{Status: StatusAnonymous})
}

// set replaces the state and notifies listeners outside the lock.
func (m *Manager) set(next Snapshot) Snapshot {
	return m.update(func(Snapshot) (Snapshot, bool) { return next, true })
}

// update computes the next state from the current one while holding the
// lock, so no other transition can interleave. fn returns false to leave
// the state alone. Listeners are notified outside the lock.
func (m *Manager) update(fn func(cur Snapshot) (Snapshot, bool)) Snapshot {
	m.mu.Lock()
	next, ok := fn(m.state)
	if !ok {
		cur := m.state
		m.mu.Unlock()
		return cur
	}
	m.state = next
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Start resolves the initial state. With a stored access credential the
// profile is fetched; any failure clears the stored credentials. Without
// one the session is anonymous and nothing is sent.
func (m *Manager) Start(ctx context.Context) Snapshot {
	if m.tokens.Access(ctx) == "" {
		m.logger.Debug("no stored credential")
		return m.setAnonymous()
	}

	res := m.auth.Profile(ctx)
	u, ok := res.Value()
	if !ok {
		m.logger.Info("stored session rejected", "message", res.Message())
		m.tokens.Clear(ctx)
		return m.setAnonymous()
	}
	m.logger.Debug("session restored", "user", logging.RedactEmail(u.Email))
	return m.setAuthenticated(u)
}

// Login signs in with email and password. An incomplete form fails
// without contacting the server. On failure the state is unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) model.Result[model.User] {
	if msg := forms.Login(model.LoginForm{Email: email, Password: password}); msg != "" {
		return model.Fail[model.User](msg)
	}
	return m.establish(ctx, "login", m.auth.Login(ctx, email, password))
}

// Register creates an account and signs it in. An incomplete form or a
// password mismatch fails without contacting the server.
func (m *Manager) Register(ctx context.Context, form model.RegisterForm) model.Result[model.User] {
	if msg := forms.Register(form); msg != "" {
		return model.Fail[model.User](msg)
	}
	return m.establish(ctx, "register", m.auth.Register(ctx, form))
}

// establish stores the credential pair and user from a login or register
// response.
func (m *Manager) establish(ctx context.Context, op string, res model.Result[model.AuthResponse]) model.Result[model.User] {
	out, ok := res.Value()
	if !ok {
		m.logger.Debug(op+" failed", "message", res.Message())
		return model.Recast[model.User](res)
	}
	m.tokens.Save(ctx, out.Tokens.Access, out.Tokens.Refresh)
	m.setAuthenticated(out.User)
	m.logger.Info(op+" succeeded", "user", logging.RedactEmail(out.User.Email))
	return model.OK(out.User)
}

// Logout tells the server to forget the refresh credential, when one is
// held, then clears local credentials whatever the server answered.
func (m *Manager) Logout(ctx context.Context) {
	if refresh := m.tokens.Refresh(ctx); refresh != "" {
		if res := m.auth.Logout(ctx, refresh); !res.IsOK() {
			m.logger.Debug("server logout failed", "message", res.Message())
		}
	}
	m.tokens.Clear(ctx)
	m.setAnonymous()
}

// UpdateUser merges p into the signed-in user without contacting the
// server. It does nothing when no user is signed in.
func (m *Manager) UpdateUser(p model.UserPatch) {
	m.update(func(cur Snapshot) (Snapshot, bool) {
		if !cur.Authenticated() {
			return cur, false
		}
		next := Snapshot{Status: StatusAuthenticated, User: cur.User.Apply(p), Role: cur.Role}
		if p.TouchesRole() {
			next.Role = model.ClassifyRole(&next.User)
		}
		return next, true
	})
}

// Sync drops to anonymous when the session believes it is signed in but
// the credentials are gone, which happens when a refresh fails mid-request.
func (m *Manager) Sync(ctx context.Context) Snapshot {
	dropped := false
	next := m.update(func(cur Snapshot) (Snapshot, bool) {
		if !cur.Authenticated() || m.tokens.Access(ctx) != "" {
			return cur, false
		}
		dropped = true
		return Snapshot{Status: StatusAnonymous}, true
	})
	if dropped {
		m.logger.Info("credentials cleared, signing out")
	}
	return next
}
