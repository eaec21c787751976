// Package apiclient is the authenticated transport for the CampusFix REST
// API. It attaches the stored access credential to each request, renews it
// once through the refresh credential when the server answers 401, and
// folds every outcome into a success payload or a single user-facing
// message.
package apiclient

import "time"

// Default client settings.
const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20

	refreshPath = "/auth/token/refresh/"
	userAgent   = "campusfix-client/1"
)

// Config holds configuration for the API client.
type Config struct {
	// BaseURL is the API root, e.g. https://fix.example.edu/api.
	BaseURL string

	// Timeout bounds each HTTP exchange. A timeout is reported as a
	// network error.
	Timeout time.Duration
}

// DefaultConfig returns a Config pointing at a local development server.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// WithBaseURL returns a copy of the config with the specified base URL.
func (c Config) WithBaseURL(u string) Config {
	c.BaseURL = u
	return c
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
