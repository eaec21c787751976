package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/me/campusfix/internal/apiclient"
	"github.com/me/campusfix/pkg/model"
)

// Dashboard covers the /dashboard endpoints.
type Dashboard struct {
	c *apiclient.Client
}

// Stats summarises the caller's own issues.
func (d *Dashboard) Stats(ctx context.Context) model.Result[model.DashboardStats] {
	return get[model.DashboardStats](ctx, d.c, "/dashboard/stats/", nil)
}

// RecentIssues returns the caller's latest issues. A non-positive limit
// leaves the server default.
func (d *Dashboard) RecentIssues(ctx context.Context, limit int) model.Result[[]model.Issue] {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	return get[[]model.Issue](ctx, d.c, "/dashboard/recent_issues/", q)
}

// AdminStats summarises every issue on campus. Administrators only.
func (d *Dashboard) AdminStats(ctx context.Context) model.Result[model.AdminStats] {
	return get[model.AdminStats](ctx, d.c, "/dashboard/admin_stats/", nil)
}

// Notifications covers the /notifications endpoints.
type Notifications struct {
	c *apiclient.Client
}

func (n *Notifications) List(ctx context.Context) model.Result[[]model.Notification] {
	return get[[]model.Notification](ctx, n.c, "/notifications/", nil)
}

func (n *Notifications) MarkRead(ctx context.Context, id int64) model.Result[model.MessageResponse] {
	return post[model.MessageResponse](ctx, n.c, "/notifications/"+strconv.FormatInt(id, 10)+"/mark_read/", nil)
}

func (n *Notifications) MarkAllRead(ctx context.Context) model.Result[model.MessageResponse] {
	return post[model.MessageResponse](ctx, n.c, "/notifications/mark_all_read/", nil)
}

func (n *Notifications) UnreadCount(ctx context.Context) model.Result[model.UnreadCount] {
	return get[model.UnreadCount](ctx, n.c, "/notifications/unread_count/", nil)
}
