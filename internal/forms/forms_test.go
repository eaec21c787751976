package forms

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/me/campusfix/pkg/model"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name string
		form model.LoginForm
		want string
	}{
		{"valid", model.LoginForm{Email: "a@u.edu", Password: "secret123"}, ""},
		{"missing password", model.LoginForm{Email: "a@u.edu"}, model.MsgRequiredFields},
		{"missing both", model.LoginForm{}, model.MsgRequiredFields},
		{"bad email", model.LoginForm{Email: "not-an-email", Password: "x"}, model.MsgInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Login(tt.form))
		})
	}
}

func TestRegister(t *testing.T) {
	valid := model.RegisterForm{
		Email: "a@u.edu", FirstName: "Ada", LastName: "Lovelace", StudentID: "S1",
		Password: "secret123", PasswordConfirm: "secret123",
	}
	assert.Empty(t, Register(valid))

	mismatch := valid
	mismatch.PasswordConfirm = "secret124"
	assert.Equal(t, model.MsgPasswordMismatch, Register(mismatch))

	blank := valid
	blank.StudentID = ""
	blank.PasswordConfirm = "other"
	assert.Equal(t, model.MsgRequiredFields, Register(blank), "blank fields are reported before a mismatch")
}

func TestIssue(t *testing.T) {
	valid := model.NewIssue{
		Title:       "Broken projector",
		Description: "Room 101 projector flickers",
		Category:    model.CategoryEquipment,
		Location:    "Science Block 101",
	}
	assert.Empty(t, Issue(valid))

	withPriority := valid
	withPriority.Priority = model.PriorityHigh
	assert.Empty(t, Issue(withPriority))

	badCategory := valid
	badCategory.Category = "gardening"
	assert.Equal(t, `Unknown category "gardening".`, Issue(badCategory))

	badPriority := valid
	badPriority.Priority = "urgent"
	assert.Equal(t, `Unknown priority "urgent".`, Issue(badPriority))

	long := valid
	long.Title = strings.Repeat("x", 256)
	assert.Equal(t, "Title must be at most 255 characters.", Issue(long))

	badVisibility := valid
	badVisibility.Visibility = "secret"
	assert.Equal(t, "Visibility must be one of: public, private.", Issue(badVisibility))

	missing := valid
	missing.Location = ""
	assert.Equal(t, model.MsgRequiredFields, Issue(missing))
}

func TestPasswordChange(t *testing.T) {
	assert.Empty(t, PasswordChange("newsecret1", "newsecret1"))
	assert.Equal(t, model.MsgPasswordMismatch, PasswordChange("newsecret1", "newsecret2"))
	assert.Equal(t, model.MsgRequiredFields, PasswordChange("", ""))
}

func TestMustRegister(t *testing.T) {
	v := validator.New()
	always := func(validator.FieldLevel) bool { return true }

	assert.NotPanics(t, func() { mustRegister(v, "campus", always) })
	assert.PanicsWithError(t, `register validation "": function Key cannot be empty`, func() {
		mustRegister(v, "", always)
	})
}
