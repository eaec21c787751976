package api

import (
	"context"
	"net/http"

	"github.com/me/campusfix/internal/apiclient"
	"github.com/me/campusfix/pkg/model"
)

// Issues covers the /issues endpoints.
type Issues struct {
	c *apiclient.Client
}

// List returns issues matching f, newest first unless f.Ordering says otherwise.
func (s *Issues) List(ctx context.Context, f model.IssueFilter) model.Result[[]model.Issue] {
	return get[[]model.Issue](ctx, s.c, "/issues/", f.Query())
}

// Get fetches one issue with its comments and attachments.
func (s *Issues) Get(ctx context.Context, id int64) model.Result[model.IssueDetail] {
	return get[model.IssueDetail](ctx, s.c, issuePath(id, ""), nil)
}

// Create reports a new issue.
func (s *Issues) Create(ctx context.Context, in model.NewIssue) model.Result[model.Issue] {
	return post[model.Issue](ctx, s.c, "/issues/", in)
}

// Update applies a partial change to an issue.
func (s *Issues) Update(ctx context.Context, id int64, p model.IssuePatch) model.Result[model.Issue] {
	return patch[model.Issue](ctx, s.c, issuePath(id, ""), p)
}

// Delete removes an issue.
func (s *Issues) Delete(ctx context.Context, id int64) model.Result[struct{}] {
	return apiclient.Do[struct{}](ctx, s.c, apiclient.Request{Method: http.MethodDelete, Path: issuePath(id, "")})
}

// Upvote toggles the caller's upvote on an issue.
func (s *Issues) Upvote(ctx context.Context, id int64) model.Result[model.UpvoteResult] {
	return post[model.UpvoteResult](ctx, s.c, issuePath(id, "upvote/"), nil)
}

// Comments lists the discussion on an issue.
func (s *Issues) Comments(ctx context.Context, id int64) model.Result[[]model.Comment] {
	return get[[]model.Comment](ctx, s.c, issuePath(id, "comments/"), nil)
}

// AddComment posts a comment on an issue.
func (s *Issues) AddComment(ctx context.Context, id int64, content string) model.Result[model.Comment] {
	return post[model.Comment](ctx, s.c, issuePath(id, "comments/"), map[string]string{"content": content})
}
