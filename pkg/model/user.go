package model

import "time"

// UserRole is the role class a session operates under.
type UserRole string

const (
	// RoleUser is an ordinary campus member (student or staff reporter).
	RoleUser UserRole = "user"
	// RoleAdmin has access to campus-wide issue management views.
	RoleAdmin UserRole = "admin"
)

// IsAdmin reports whether the role is administrative.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// User is the authenticated principal as returned by the CampusFix API.
type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	StudentID        *string   `json:"student_id"`
	Phone            *string   `json:"phone"`
	Role             string    `json:"role"` // "student" or "admin" on the wire
	Avatar           *string   `json:"avatar"`
	CreatedAt        time.Time `json:"created_at"`
	IsSuperuser      bool      `json:"is_superuser"`
	IsStaff          bool      `json:"is_staff"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
}

// ClassifyRole derives the session role from the user's superuser flag and
// wire role. Either one is enough to make the user an administrator.
func ClassifyRole(u *User) UserRole {
	if u == nil {
		return RoleUser
	}
	if u.IsSuperuser || u.Role == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// FullName joins first and last name, falling back to the email address.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Email
}

// UserPatch carries a partial set of user fields. Nil fields are left
// untouched by Apply and omitted from PATCH request bodies.
type UserPatch struct {
	Email            *string `json:"email,omitempty"`
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	StudentID        *string `json:"student_id,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Role             *string `json:"role,omitempty"`
	Avatar           *string `json:"avatar,omitempty"`
	IsSuperuser      *bool   `json:"is_superuser,omitempty"`
	TwoFactorEnabled *bool   `json:"two_factor_enabled,omitempty"`
}

// Apply returns a copy of u with every non-nil patch field merged in.
func (u User) Apply(p UserPatch) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.StudentID != nil {
		u.StudentID = p.StudentID
	}
	if p.Phone != nil {
		u.Phone = p.Phone
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Avatar != nil {
		u.Avatar = p.Avatar
	}
	if p.IsSuperuser != nil {
		u.IsSuperuser = *p.IsSuperuser
	}
	if p.TwoFactorEnabled != nil {
		u.TwoFactorEnabled = *p.TwoFactorEnabled
	}
	return u
}

// TouchesRole reports whether the patch changes a field that ClassifyRole reads.
func (p UserPatch) TouchesRole() bool {
	return p.Role != nil || p.IsSuperuser != nil
}

// RegisterForm is the payload for creating a new account.
type RegisterForm struct {
	Email           string `json:"email" validate:"required,email"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	StudentID       string `json:"student_id" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// LoginForm is the payload for signing in.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
