// Package route decides whether a screen may be shown for the current
// session and where to send the user otherwise.
package route

import (
	"github.com/me/campusfix/internal/session"
	"github.com/me/campusfix/pkg/model"
)

// Role home screens.
const (
	HomeUser  = "/dashboard"
	HomeAdmin = "/admin"
	LoginPath = "/login"
)

// Kind enumerates admission outcomes.
type Kind int

const (
	// Loading means the session has not resolved yet; show a placeholder.
	Loading Kind = iota
	Allow
	// RedirectLogin sends an anonymous user to sign in; Decision.From
	// holds the originally requested path and query.
	RedirectLogin
	// RedirectHome sends a user to their role's home screen.
	RedirectHome
	// NotFound means no screen exists at the path.
	NotFound
	// Redirect is an unconditional alias, e.g. "/" to "/login".
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case NotFound:
		return "not-found"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the outcome of admitting a path.
type Decision struct {
	Kind   Kind
	Target string // destination for the redirect kinds
	From   string // requested path and query, for RedirectLogin
}

// Home returns the home screen for role.
func Home(role model.UserRole) string {
	if role.IsAdmin() {
		return HomeAdmin
	}
	return HomeUser
}

// Decide admits a protected screen. It is pure: the same snapshot, path
// and flag always yield the same decision.
//
// Administrators are kept inside the admin screens and ordinary users out
// of them, so each role lands on its own home when it strays.
func Decide(s session.Snapshot, requested string, requiresAdmin bool) Decision {
	switch s.Status {
	case session.StatusUnknown:
		return Decision{Kind: Loading}
	case session.StatusAnonymous:
		return Decision{Kind: RedirectLogin, Target: LoginPath, From: requested}
	}

	admin := s.Role.IsAdmin()
	switch {
	case requiresAdmin && !admin:
		return Decision{Kind: RedirectHome, Target: HomeUser}
	case !requiresAdmin && admin:
		return Decision{Kind: RedirectHome, Target: HomeAdmin}
	}
	return Decision{Kind: Allow}
}

// AfterLogin is where to go once signed in: back to the screen that asked
// for a login, or the role's home.
func AfterLogin(from string, role model.UserRole) string {
	if from != "" {
		return from
	}
	return Home(role)
}

// AfterRegister is where to go once an account is created. New accounts
// are never administrators.
func AfterRegister(from string) string {
	if from != "" {
		return from
	}
	return HomeUser
}
