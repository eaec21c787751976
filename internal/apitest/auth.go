package apitest

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/me/campusfix/pkg/model"
)

func withUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxKey{}).(int64)
	return id
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body model.LoginForm
	if !decode(r, &body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	errs := map[string][]string{}
	if body.Email == "" {
		errs["email"] = []string{"This field is required."}
	}
	if body.Password == "" {
		errs["password"] = []string{"This field may not be blank."}
	}
	if len(errs) > 0 {
		fieldErrors(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.ToLower(body.Email)]
	if !ok || s.accounts[id].password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}
	writeJSON(w, http.StatusOK, model.AuthResponse{
		User:    s.accounts[id].user,
		Tokens:  s.issueTokensLocked(id),
		Message: "Login successful",
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body model.RegisterForm
	if !decode(r, &body) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	errs := map[string][]string{}
	if _, taken := s.byEmail[strings.ToLower(body.Email)]; taken {
		errs["email"] = []string{"user with this email already exists."}
	}
	if msgs := passwordProblems(body.Password); len(msgs) > 0 {
		errs["password"] = msgs
	} else if body.Password != body.PasswordConfirm {
		errs["password"] = []string{"Password fields didn't match."}
	}
	if len(errs) > 0 {
		fieldErrors(w, errs)
		return
	}

	u := s.addUserLocked(body.Email, body.Password, body.FirstName, body.LastName, body.StudentID, false)
	writeJSON(w, http.StatusCreated, model.AuthResponse{
		User:    u,
		Tokens:  s.issueTokensLocked(u.ID),
		Message: "Registration successful",
	})
}

// passwordProblems mirrors the server's password validators.
func passwordProblems(pw string) []string {
	var msgs []string
	if len(pw) < 8 {
		msgs = append(msgs, "This password is too short. It must contain at least 8 characters.")
	}
	if pw == "password" || pw == "password123" || pw == "12345678" {
		msgs = append(msgs, "This password is too common.")
	}
	numeric := pw != ""
	for _, r := range pw {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		msgs = append(msgs, "This password is entirely numeric.")
	}
	return msgs
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	decode(r, &body)

	s.mu.Lock()
	s.refreshCalls++
	delay, fail := s.refreshDelay, s.refreshFail
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "refresh unavailable"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.refresh[body.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	access := "acc-" + strings.TrimPrefix(body.Refresh, "ref-") + "-" + time.Now().Format("150405.000000000")
	s.access[access] = id
	writeJSON(w, http.StatusOK, model.RefreshResponse{Access: access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	decode(r, &body)
	s.mu.Lock()
	delete(s.refresh, body.Refresh)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Logout successful"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.accounts[userID(r)].user)
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.UserPatch
	if !decode(r, &patch) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	// Privilege fields are read-only on this endpoint.
	patch.Role, patch.IsSuperuser = nil, nil

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[userID(r)]
	acct.user = acct.user.Apply(patch)
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Old     string `json:"old_password"`
		New     string `json:"new_password"`
		Confirm string `json:"new_password_confirm"`
	}
	decode(r, &body)

	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[userID(r)]
	if acct.password != body.Old {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Current password is incorrect"})
		return
	}
	if msgs := passwordProblems(body.New); len(msgs) > 0 {
		fieldErrors(w, map[string][]string{"new_password": msgs})
		return
	}
	if body.New != body.Confirm {
		fieldErrors(w, map[string][]string{"new_password": {"Password fields didn't match."}})
		return
	}
	acct.password = body.New
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Password changed successfully"})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	decode(r, &body)
	s.mu.Lock()
	_, ok := s.byEmail[strings.ToLower(body.Email)]
	s.mu.Unlock()
	resp := model.ForgotPasswordResponse{Message: "If an account exists, a reset link has been sent."}
	if ok {
		resp.ResetToken = "reset-" + strings.ToLower(body.Email)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token   string `json:"token"`
		New     string `json:"new_password"`
		Confirm string `json:"new_password_confirm"`
	}
	decode(r, &body)

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.TrimPrefix(body.Token, "reset-")]
	if !ok || !strings.HasPrefix(body.Token, "reset-") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid reset token"})
		return
	}
	if body.New != body.Confirm {
		fieldErrors(w, map[string][]string{"new_password": {"Password fields didn't match."}})
		return
	}
	s.accounts[id].password = body.New
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Password has been reset successfully"})
}

func (s *Server) handleTwoFactor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"two_factor_enabled"`
	}
	decode(r, &body)
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.accounts[userID(r)]
	acct.user.TwoFactorEnabled = body.Enabled
	u := acct.user
	writeJSON(w, http.StatusOK, model.TwoFactorResponse{
		Message:          "Two-factor settings updated",
		TwoFactorEnabled: body.Enabled,
		User:             &u,
	})
}
