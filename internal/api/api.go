// Package api wraps the CampusFix REST endpoints in typed calls. Every call
// returns a model.Result; transport, refresh and error-message handling
// live in the apiclient package.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/me/campusfix/internal/apiclient"
	"github.com/me/campusfix/pkg/model"
)

// API groups the endpoint families over one client.
type API struct {
	Auth          *Auth
	Issues        *Issues
	Dashboard     *Dashboard
	Notifications *Notifications
}

// New builds every endpoint family on c.
func New(c *apiclient.Client) *API {
	return &API{
		Auth:          &Auth{c: c},
		Issues:        &Issues{c: c},
		Dashboard:     &Dashboard{c: c},
		Notifications: &Notifications{c: c},
	}
}

func get[T any](ctx context.Context, c *apiclient.Client, path string, query url.Values) model.Result[T] {
	return apiclient.Do[T](ctx, c, apiclient.Request{Method: http.MethodGet, Path: path, Query: query})
}

func post[T any](ctx context.Context, c *apiclient.Client, path string, body any) model.Result[T] {
	return apiclient.Do[T](ctx, c, apiclient.Request{Method: http.MethodPost, Path: path, Body: body})
}

func patch[T any](ctx context.Context, c *apiclient.Client, path string, body any) model.Result[T] {
	return apiclient.Do[T](ctx, c, apiclient.Request{Method: http.MethodPatch, Path: path, Body: body})
}

// anonymous posts without the access credential.
func anonymous[T any](ctx context.Context, c *apiclient.Client, path string, body any) model.Result[T] {
	return apiclient.Do[T](ctx, c, apiclient.Request{Method: http.MethodPost, Path: path, Body: body, Anonymous: true})
}

func issuePath(id int64, suffix string) string {
	return fmt.Sprintf("/issues/%d/%s", id, suffix)
}
