package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/me/campusfix/internal/logging"
	"github.com/me/campusfix/internal/metrics"
	"github.com/me/campusfix/pkg/model"
)

var (
	errRefreshRejected = errors.New("refresh credential rejected")
	errRefreshReplaced = errors.New("credentials changed during refresh")
)

// Refresh exchanges the stored refresh credential for a new access
// credential, stores it and returns it.
//
// With no refresh credential stored it returns ("", false) without any
// network traffic. Any failure clears both credentials. If the pair was
// cleared or replaced while the exchange was in flight, the new access
// credential is discarded and the call fails.
//
// Concurrent callers holding the same refresh credential share a single
// exchange. A caller whose ctx ends stops waiting; the exchange itself
// runs to completion for the others.
func (c *Client) Refresh(ctx context.Context) (string, bool) {
	refresh := c.tokens.Refresh(ctx)
	if refresh == "" {
		c.metrics.ObserveRefresh(metrics.RefreshNoToken)
		return "", false
	}

	ch := c.refreshes.DoChan(refresh, func() (any, error) {
		exCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.Timeout)
		defer cancel()
		return c.exchange(exCtx, refresh)
	})

	select {
	case <-ctx.Done():
		return "", false
	case res := <-ch:
		if res.Shared {
			c.metrics.ObserveRefresh(metrics.RefreshCoalesced)
		}
		if res.Err != nil {
			return "", false
		}
		return res.Val.(string), true
	}
}

// exchange performs the refresh round trip. It fails closed: on any error
// the whole credential pair is cleared.
func (c *Client) exchange(ctx context.Context, refresh string) (string, error) {
	logger := c.logger.With("op", "refresh", "refresh", logging.RedactToken(refresh))

	access, err := c.requestAccess(ctx, refresh)
	if err != nil {
		logger.Info("refresh failed, clearing credentials", "error", err)
		c.tokens.Clear(ctx)
		c.metrics.ObserveRefresh(metrics.RefreshFailed)
		return "", err
	}

	if !c.tokens.SetAccess(ctx, refresh, access) {
		// Signed out or re-signed in meanwhile; whatever is stored now wins.
		logger.Info("credentials changed during refresh, discarding access credential")
		c.metrics.ObserveRefresh(metrics.RefreshFailed)
		return "", errRefreshReplaced
	}
	c.metrics.ObserveRefresh(metrics.RefreshRenewed)
	logger.Debug("access credential renewed", "access", logging.RedactToken(access))
	return access, nil
}

func (c *Client) requestAccess(ctx context.Context, refresh string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return "", fmt.Errorf("marshal refresh request: %w", err)
	}

	status, body, err := c.send(ctx, http.MethodPost, c.url(refreshPath, nil), payload, "")
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w: HTTP %d", errRefreshRejected, status)
	}

	var out model.RefreshResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse refresh response: %w", err)
	}
	if out.Access == "" {
		return "", fmt.Errorf("%w: empty access credential", errRefreshRejected)
	}
	return out.Access, nil
}
