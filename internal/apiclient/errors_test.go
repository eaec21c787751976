package apiclient

import (
	"testing"

	"github.com/me/campusfix/pkg/model"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error": "Invalid email or password", "detail": "ignored"}`, "Invalid email or password"},
		{"detail field", `{"detail": "Not found."}`, "Not found."},
		{"empty error falls through", `{"error": "", "detail": "Use detail"}`, "Use detail"},
		{"non-string error falls through", `{"error": {"code": 1}, "email": ["bad email"]}`, "bad email"},
		{"first field list in document order", `{"password": ["too short"], "email": ["taken"]}`, "too short"},
		{"skips empty entries", `{"email": ["", "taken"]}`, "taken"},
		{"non field errors", `{"non_field_errors": ["Passwords didn't match."]}`, "Passwords didn't match."},
		{"nested object", `{"profile": {"phone": ["Enter a valid phone number."]}}`, "Enter a valid phone number."},
		{"bare list", `["Something failed"]`, "Something failed"},
		{"string outside list ignored", `{"code": "token_not_valid"}`, model.MsgGeneric},
		{"empty body", ``, model.MsgGeneric},
		{"null body", `null`, model.MsgGeneric},
		{"not json", `<html>502</html>`, model.MsgGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("ErrorMessage(%s) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"This password is too short. It must contain at least 8 characters.", "Password is too short. It must contain at least 8 characters."},
		{"This password is too common.", "Password is too common. Please choose a stronger password."},
		{"This password is entirely numeric.", "Password cannot be entirely numeric."},
		{"user with this email already exists.", "An account with this email already exists."},
		{"user with this student id already exists.", "An account with this student ID already exists."},
		{"user with this student_id already exists.", "An account with this student ID already exists."},
		{"Password fields didn't match.", model.MsgPasswordMismatch},
		{"The two password fields did not match.", model.MsgPasswordMismatch},
		{"Passwords do not match", model.MsgPasswordMismatch},
		{"No active account found with the given credentials", "Invalid email or password."},
		{"Invalid email or password", "Invalid email or password."},
		{"This field is required.", model.MsgRequiredFields},
		{"This field may not be blank.", model.MsgRequiredFields},
		{"This field may not be null.", model.MsgRequiredFields},
		{"Issue not found", "Issue not found"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeMessage(tt.raw); got != tt.want {
			t.Errorf("NormalizeMessage(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"ok", 200, `{"id": 1}`, ""},
		{"no content", 204, ``, ""},
		{"bad json on success", 200, `{"id":`, model.MsgUnexpectedResponse},
		{"server error without body", 500, ``, model.MsgGeneric},
		{"normalized failure", 400, `{"password": ["This password is too common."]}`, "Password is too common. Please choose a stronger password."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := interpret(tt.status, []byte(tt.body))
			if resp.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", resp.Message, tt.wantMsg)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}
