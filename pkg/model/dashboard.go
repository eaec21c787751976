package model

import "time"

// DashboardStats summarises the caller's own issues.
type DashboardStats struct {
	TotalIssues          int     `json:"total_issues"`
	OpenIssues           int     `json:"open_issues"`
	InProgressIssues     int     `json:"in_progress_issues"`
	ResolvedIssues       int     `json:"resolved_issues"`
	ClosedIssues         int     `json:"closed_issues"`
	ResolutionRate       float64 `json:"resolution_rate"`
	AvgResponseTimeHours float64 `json:"avg_response_time_hours"`
}

// CategoryCount is one row of the admin category breakdown.
type CategoryCount struct {
	Category IssueCategory `json:"category"`
	Count    int           `json:"count"`
}

// PriorityCount is one row of the admin priority breakdown.
type PriorityCount struct {
	Priority IssuePriority `json:"priority"`
	Count    int           `json:"count"`
}

// AdminStats summarises every issue on campus.
type AdminStats struct {
	TotalIssues      int             `json:"total_issues"`
	OpenIssues       int             `json:"open_issues"`
	InProgressIssues int             `json:"in_progress_issues"`
	ResolvedIssues   int             `json:"resolved_issues"`
	ClosedIssues     int             `json:"closed_issues"`
	ResolutionRate   float64         `json:"resolution_rate"`
	CategoryStats    []CategoryCount `json:"category_stats"`
	PriorityStats    []PriorityCount `json:"priority_stats"`
}

// NotificationType classifies why a notification was generated.
type NotificationType string

const (
	NotifyComment      NotificationType = "comment"
	NotifyStatusChange NotificationType = "status_change"
	NotifyAssignment   NotificationType = "assignment"
	NotifyUpvote       NotificationType = "upvote"
	NotifyResolution   NotificationType = "resolution"
	NotifySystem       NotificationType = "system"
)

// Notification is a message addressed to the signed-in user.
type Notification struct {
	ID           int64            `json:"id"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	Type         NotificationType `json:"type"`
	IsRead       bool             `json:"is_read"`
	RelatedIssue *int64           `json:"related_issue"`
	CreatedAt    time.Time        `json:"created_at"`
}

// UnreadCount is returned by the unread notification counter.
type UnreadCount struct {
	Count int `json:"count"`
}
