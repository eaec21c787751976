package model

// Credentials is the access/refresh token pair held by a client.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty reports whether neither token is held.
func (c Credentials) Empty() bool {
	return c.Access == "" && c.Refresh == ""
}

// Complete reports whether both tokens are held.
func (c Credentials) Complete() bool {
	return c.Access != "" && c.Refresh != ""
}

// AuthResponse is returned by the login and register endpoints.
type AuthResponse struct {
	User    User        `json:"user"`
	Tokens  Credentials `json:"tokens"`
	Message string      `json:"message"`
}

// RefreshResponse is returned by the token refresh endpoint.
type RefreshResponse struct {
	Access string `json:"access"`
}

// MessageResponse is the generic {"message": ...} acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordResponse may carry a reset token in development deployments.
type ForgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}

// TwoFactorResponse is returned when toggling two-factor authentication.
type TwoFactorResponse struct {
	Message          string `json:"message"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
	User             *User  `json:"user,omitempty"`
}
