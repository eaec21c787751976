package api

import (
	"context"

	"github.com/me/campusfix/internal/apiclient"
	"github.com/me/campusfix/pkg/model"
)

// Auth covers the /auth endpoints.
type Auth struct {
	c *apiclient.Client
}

// NewAuth returns the auth endpoints on c.
func NewAuth(c *apiclient.Client) *Auth {
	return &Auth{c: c}
}

// Client returns the underlying API client.
func (a *Auth) Client() *apiclient.Client {
	return a.c
}

// Login exchanges email and password for a user and credential pair.
// It does not store the credentials.
func (a *Auth) Login(ctx context.Context, email, password string) model.Result[model.AuthResponse] {
	res := anonymous[model.AuthResponse](ctx, a.c, "/auth/login/", model.LoginForm{Email: email, Password: password})
	return requireTokens(res)
}

// Register creates an account and returns it with a credential pair.
// It does not store the credentials.
func (a *Auth) Register(ctx context.Context, form model.RegisterForm) model.Result[model.AuthResponse] {
	res := anonymous[model.AuthResponse](ctx, a.c, "/auth/register/", form)
	return requireTokens(res)
}

// requireTokens rejects a successful auth response without a full pair.
func requireTokens(res model.Result[model.AuthResponse]) model.Result[model.AuthResponse] {
	if v, ok := res.Value(); ok && !v.Tokens.Complete() {
		return model.Fail[model.AuthResponse](model.MsgUnexpectedResponse)
	}
	return res
}

// Logout blacklists the refresh credential on the server.
func (a *Auth) Logout(ctx context.Context, refresh string) model.Result[model.MessageResponse] {
	return post[model.MessageResponse](ctx, a.c, "/auth/logout/", map[string]string{"refresh": refresh})
}

// Profile fetches the signed-in user.
func (a *Auth) Profile(ctx context.Context) model.Result[model.User] {
	return get[model.User](ctx, a.c, "/auth/profile/", nil)
}

// UpdateProfile applies a partial update to the signed-in user.
func (a *Auth) UpdateProfile(ctx context.Context, p model.UserPatch) model.Result[model.User] {
	return patch[model.User](ctx, a.c, "/auth/profile/", p)
}

// ChangePassword replaces the password of the signed-in user.
func (a *Auth) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) model.Result[model.MessageResponse] {
	return post[model.MessageResponse](ctx, a.c, "/auth/change-password/", map[string]string{
		"old_password":         oldPassword,
		"new_password":         newPassword,
		"new_password_confirm": confirm,
	})
}

// ForgotPassword requests a reset token for email.
func (a *Auth) ForgotPassword(ctx context.Context, email string) model.Result[model.ForgotPasswordResponse] {
	return anonymous[model.ForgotPasswordResponse](ctx, a.c, "/auth/forgot-password/", map[string]string{"email": email})
}

// ResetPassword sets a new password using a reset token.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword, confirm string) model.Result[model.MessageResponse] {
	return anonymous[model.MessageResponse](ctx, a.c, "/auth/reset-password/", map[string]string{
		"token":                token,
		"new_password":         newPassword,
		"new_password_confirm": confirm,
	})
}

// SetTwoFactor turns two-factor authentication on or off.
func (a *Auth) SetTwoFactor(ctx context.Context, enabled bool) model.Result[model.TwoFactorResponse] {
	return patch[model.TwoFactorResponse](ctx, a.c, "/auth/two-factor/", map[string]bool{"two_factor_enabled": enabled})
}
