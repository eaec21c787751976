// Package forms checks user input before it is sent to the API and turns
// validation failures into the same user-facing messages the API layer
// produces.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/me/campusfix/pkg/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return model.IssueCategory(fl.Field().String()).Valid()
	})
	mustRegister(v, "priority", func(fl validator.FieldLevel) bool {
		return model.IssuePriority(fl.Field().String()).Valid()
	})
	return v
}

// mustRegister panics if tag cannot be registered.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Errorf("register validation %q: %w", tag, err))
	}
}

// Check validates a struct carrying `validate` tags and returns "" when it
// passes. The first failing field decides the message; a missing required
// field always wins so the user fixes blanks first.
func Check(form any) string {
	err := validate.Struct(form)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.MsgGeneric
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return model.MsgRequiredFields
		}
	}
	return message(verrs[0])
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "email":
		return model.MsgInvalidEmail
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", capitalize(field), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", capitalize(field), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "category":
		return fmt.Sprintf("Unknown category %q.", fe.Value())
	case "priority":
		return fmt.Sprintf("Unknown priority %q.", fe.Value())
	}
	return fmt.Sprintf("%s is invalid.", capitalize(field))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Login checks a sign-in form.
func Login(f model.LoginForm) string {
	return Check(f)
}

// Register checks a registration form, including that both password
// entries agree.
func Register(f model.RegisterForm) string {
	if msg := Check(f); msg != "" {
		return msg
	}
	if f.Password != f.PasswordConfirm {
		return model.MsgPasswordMismatch
	}
	return ""
}

// Issue checks a new issue report.
func Issue(in model.NewIssue) string {
	return Check(in)
}

// PasswordChange checks that a new password was entered twice identically.
func PasswordChange(newPassword, confirm string) string {
	if newPassword == "" || confirm == "" {
		return model.MsgRequiredFields
	}
	if newPassword != confirm {
		return model.MsgPasswordMismatch
	}
	return ""
}
