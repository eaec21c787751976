package route

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/me/campusfix/internal/session"
)

// Access is the protection level of a screen.
type Access int

const (
	Public Access = iota
	Authenticated
	Admin
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	}
	return "unknown"
}

// match is what a lookup resolved to.
type match struct {
	found   bool
	access  Access
	alias   string
	pattern string
}

type matchKey struct{}

// Table maps screen paths (chi patterns such as "/issues/{id}") to access
// levels.
type Table struct {
	mux      *chi.Mux
	patterns []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	t := &Table{mux: chi.NewRouter()}
	t.mux.NotFound(func(http.ResponseWriter, *http.Request) {})
	t.mux.MethodNotAllowed(func(http.ResponseWriter, *http.Request) {})
	return t
}

// Add registers pattern with the given access level.
func (t *Table) Add(pattern string, access Access) *Table {
	t.handle(pattern, match{found: true, access: access, pattern: pattern})
	return t
}

// Alias registers pattern as a redirect to target.
func (t *Table) Alias(pattern, target string) *Table {
	t.handle(pattern, match{found: true, access: Public, alias: target, pattern: pattern})
	return t
}

func (t *Table) handle(pattern string, m match) {
	t.patterns = append(t.patterns, pattern)
	t.mux.Get(pattern, func(_ http.ResponseWriter, r *http.Request) {
		if out, ok := r.Context().Value(matchKey{}).(*match); ok {
			*out = m
		}
	})
}

// Patterns lists registered patterns in registration order.
func (t *Table) Patterns() []string {
	return append([]string(nil), t.patterns...)
}

// lookup resolves the path part of uri.
func (t *Table) lookup(path string) match {
	var m match
	req, err := http.NewRequestWithContext(context.WithValue(context.Background(), matchKey{}, &m), http.MethodGet, path, nil)
	if err != nil {
		return match{}
	}
	t.mux.ServeHTTP(discard{}, req)
	return m
}

// Lookup returns the access level for uri and whether a screen exists.
func (t *Table) Lookup(uri string) (Access, bool) {
	m := t.lookup(pathOf(uri))
	return m.access, m.found
}

// Admit decides whether the session may open uri, which may carry a query
// string. Public screens are always allowed.
func (t *Table) Admit(s session.Snapshot, uri string) Decision {
	m := t.lookup(pathOf(uri))
	switch {
	case !m.found:
		return Decision{Kind: NotFound}
	case m.alias != "":
		return Decision{Kind: Redirect, Target: m.alias}
	case m.access == Public:
		return Decision{Kind: Allow}
	}
	return Decide(s, uri, m.access == Admin)
}

// Default returns the table of CampusFix screens.
func Default() *Table {
	return NewTable().
		Alias("/", LoginPath).
		Add(LoginPath, Public).
		Add("/forgot-password", Public).
		Add("/dashboard", Authenticated).
		Add("/report", Authenticated).
		Add("/issues", Authenticated).
		Add("/issues/{id}", Authenticated).
		Add("/issues/{id}/edit", Authenticated).
		Add("/settings", Authenticated).
		Add("/public-issues", Authenticated).
		Add("/admin", Admin).
		Add("/admin/issues/{id}/responses", Admin)
}

// pathOf strips the query and any trailing slash from uri.
func pathOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/"
	}
	return strings.TrimSuffix(u.Path, "/")
}

// discard is a ResponseWriter that drops everything; lookups only need
// the handler side effect.
type discard struct{}

func (discard) Header() http.Header         { return http.Header{} }
func (discard) Write(b []byte) (int, error) { return len(b), nil }
func (discard) WriteHeader(int)             {}
