// Package apitest provides an in-process fake of the CampusFix REST API for
// tests. It issues opaque access and refresh credentials, lets tests expire
// or revoke them, and counts refresh exchanges.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/me/campusfix/pkg/model"
)

type account struct {
	user     model.User
	password string
}

// Server is a fake CampusFix API backed by in-memory maps.
type Server struct {
	ts *httptest.Server

	mu            sync.Mutex
	accounts      map[int64]*account
	byEmail       map[string]int64
	access        map[string]int64
	refresh       map[string]int64
	issues        map[int64]*model.IssueDetail
	upvotes       map[int64]map[int64]bool
	notifications map[int64][]*model.Notification
	nextID        int64

	refreshCalls int
	refreshFail  bool
	refreshDelay time.Duration
	hits         map[string]int
	authHeaders  map[string][]string
	alwaysDeny   map[string]bool
}

// New starts a fake server and registers its shutdown with t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts:      make(map[int64]*account),
		byEmail:       make(map[string]int64),
		access:        make(map[string]int64),
		refresh:       make(map[string]int64),
		issues:        make(map[int64]*model.IssueDetail),
		upvotes:       make(map[int64]map[int64]bool),
		notifications: make(map[int64][]*model.Notification),
		hits:          make(map[string]int),
		authHeaders:   make(map[string][]string),
		alwaysDeny:    make(map[string]bool),
	}
	s.ts = httptest.NewServer(s.routes())
	t.Cleanup(s.ts.Close)
	return s
}

// URL returns the API base URL (server root + "/api").
func (s *Server) URL() string {
	return s.ts.URL + "/api"
}

// Close shuts the server down; subsequent requests fail at the network level.
func (s *Server) Close() {
	s.ts.Close()
}

// AddUser creates an account and returns its user object.
func (s *Server) AddUser(email, password string, admin bool) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, password, "Test", "User", "S0001", admin)
}

func (s *Server) addUserLocked(email, password, first, last, studentID string, admin bool) model.User {
	s.nextID++
	role := "student"
	if admin {
		role = "admin"
	}
	sid := studentID
	u := model.User{
		ID:        s.nextID,
		Email:     email,
		FirstName: first,
		LastName:  last,
		StudentID: &sid,
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		IsStaff:   admin,
	}
	s.accounts[u.ID] = &account{user: u, password: password}
	s.byEmail[strings.ToLower(email)] = u.ID
	return u
}

// IssueTokens mints a credential pair for an existing account.
func (s *Server) IssueTokens(email string) model.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokensLocked(s.byEmail[strings.ToLower(email)])
}

func (s *Server) issueTokensLocked(userID int64) model.Credentials {
	creds := model.Credentials{
		Access:  "acc-" + uuid.NewString(),
		Refresh: "ref-" + uuid.NewString(),
	}
	s.access[creds.Access] = userID
	s.refresh[creds.Refresh] = userID
	return creds
}

// ExpireAccess invalidates every outstanding access credential.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]int64)
}

// RevokeRefresh invalidates every outstanding refresh credential.
func (s *Server) RevokeRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]int64)
}

// FailRefresh makes the refresh endpoint answer 500 when on.
func (s *Server) FailRefresh(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFail = on
}

// SlowRefresh delays every refresh exchange by d.
func (s *Server) SlowRefresh(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = d
}

// DenyAlways makes every request to path answer 401, even with a fresh credential.
func (s *Server) DenyAlways(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alwaysDeny[path] = true
}

// RefreshCalls returns how many refresh exchanges reached the server.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Hits returns how many requests reached path (e.g. "/api/auth/profile/").
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// AuthHeaders returns the Authorization headers seen on path, in order.
func (s *Server) AuthHeaders(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders[path]...)
}

// ValidAccess reports whether tok is a live access credential.
func (s *Server) ValidAccess(tok string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.access[tok]
	return ok
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login/", s.handleLogin)
			r.Post("/register/", s.handleRegister)
			r.Post("/token/refresh/", s.handleRefresh)
			r.Post("/forgot-password/", s.handleForgotPassword)
			r.Post("/reset-password/", s.handleResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Post("/logout/", s.handleLogout)
				r.Get("/profile/", s.handleProfile)
				r.Patch("/profile/", s.handleProfileUpdate)
				r.Post("/change-password/", s.handleChangePassword)
				r.Patch("/two-factor/", s.handleTwoFactor)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Route("/issues", func(r chi.Router) {
				r.Get("/", s.handleIssueList)
				r.Post("/", s.handleIssueCreate)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleIssueGet)
					r.Patch("/", s.handleIssueUpdate)
					r.Delete("/", s.handleIssueDelete)
					r.Post("/upvote/", s.handleUpvote)
					r.Get("/comments/", s.handleCommentList)
					r.Post("/comments/", s.handleCommentCreate)
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats/", s.handleStats)
				r.Get("/recent_issues/", s.handleRecentIssues)
				r.Get("/admin_stats/", s.handleAdminStats)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleNotificationList)
				r.Post("/mark_all_read/", s.handleMarkAllRead)
				r.Get("/unread_count/", s.handleUnreadCount)
				r.Post("/{id}/mark_read/", s.handleMarkRead)
			})
		})
	})
	return r
}

// record counts hits and captures Authorization headers per path.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.authHeaders[r.URL.Path] = append(s.authHeaders[r.URL.Path], r.Header.Get("Authorization"))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

// authenticate resolves the bearer credential to an account.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		id, ok := s.access[tok]
		deny := s.alwaysDeny[r.URL.Path]
		s.mu.Unlock()

		if !ok || deny {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), id)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

// fieldErrors renders a validation failure the way the real API does.
func fieldErrors(w http.ResponseWriter, errs map[string][]string) {
	writeJSON(w, http.StatusBadRequest, errs)
}
