package model

import (
	"net/url"
	"strconv"
	"time"
)

// IssueStatus is the lifecycle state of a reported issue.
type IssueStatus string

const (
	StatusOpen       IssueStatus = "open"
	StatusInProgress IssueStatus = "in-progress"
	StatusResolved   IssueStatus = "resolved"
	StatusClosed     IssueStatus = "closed"
)

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IssuePriority ranks how urgently an issue needs attention.
type IssuePriority string

const (
	PriorityLow      IssuePriority = "low"
	PriorityMedium   IssuePriority = "medium"
	PriorityHigh     IssuePriority = "high"
	PriorityCritical IssuePriority = "critical"
)

// Valid reports whether p is a known priority.
func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// IssueCategory groups issues by the facility team that handles them.
type IssueCategory string

const (
	CategoryFacilities  IssueCategory = "facilities"
	CategoryIT          IssueCategory = "it-infrastructure"
	CategoryPlumbing    IssueCategory = "plumbing"
	CategoryElectrical  IssueCategory = "electrical"
	CategoryEquipment   IssueCategory = "equipment"
	CategorySafety      IssueCategory = "safety"
	CategoryMaintenance IssueCategory = "maintenance"
	CategoryOther       IssueCategory = "other"
)

// Categories lists every category in display order.
var Categories = []IssueCategory{
	CategoryFacilities, CategoryIT, CategoryPlumbing, CategoryElectrical,
	CategoryEquipment, CategorySafety, CategoryMaintenance, CategoryOther,
}

// Valid reports whether c is a known category.
func (c IssueCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Issue is the list representation of a reported facility issue.
type Issue struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      IssueCategory `json:"category"`
	Status        IssueStatus   `json:"status"`
	Priority      IssuePriority `json:"priority"`
	Location      string        `json:"location"`
	Visibility    string        `json:"visibility,omitempty"`
	Reporter      *User         `json:"reporter,omitempty"`
	AssignedTo    *User         `json:"assigned_to,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
	UpvoteCount   int           `json:"upvote_count"`
	UpvotedByUser bool          `json:"upvoted_by_user"`
}

// IssueDetail is the single-issue representation with comments and attachments.
type IssueDetail struct {
	Issue
	Comments     []Comment    `json:"comments"`
	Attachments  []Attachment `json:"attachments"`
	CommentCount int          `json:"comment_count"`
}

// Comment is a discussion entry on an issue.
type Comment struct {
	ID        int64     `json:"id"`
	Issue     int64     `json:"issue"`
	User      *User     `json:"user,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment is a file uploaded alongside an issue.
type Attachment struct {
	ID         int64     `json:"id"`
	Issue      int64     `json:"issue"`
	File       string    `json:"file"`
	Filename   string    `json:"filename"`
	UploadedBy *User     `json:"uploaded_by,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewIssue is the payload for reporting an issue.
type NewIssue struct {
	Title       string        `json:"title" validate:"required,max=255"`
	Description string        `json:"description" validate:"required"`
	Category    IssueCategory `json:"category" validate:"required,category"`
	Priority    IssuePriority `json:"priority,omitempty" validate:"omitempty,priority"`
	Location    string        `json:"location" validate:"required,max=255"`
	Visibility  string        `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// IssuePatch carries partial issue changes.
type IssuePatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Category    *IssueCategory `json:"category,omitempty"`
	Status      *IssueStatus   `json:"status,omitempty"`
	Priority    *IssuePriority `json:"priority,omitempty"`
	Location    *string        `json:"location,omitempty"`
	Visibility  *string        `json:"visibility,omitempty"`
}

// IssueFilter narrows an issue listing.
type IssueFilter struct {
	Status   IssueStatus
	Priority IssuePriority
	Category IssueCategory
	Search   string
	Ordering string // e.g. "-created_at", "upvote_count"
	Mine     bool   // only issues reported by the caller
	Reporter int64
}

// Query encodes the filter as list query parameters.
func (f IssueFilter) Query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	if f.Mine {
		q.Set("filter", "my-issues")
	}
	if f.Reporter != 0 {
		q.Set("reporter", strconv.FormatInt(f.Reporter, 10))
	}
	return q
}

// UpvoteResult is returned when toggling an upvote.
type UpvoteResult struct {
	Message     string `json:"message"`
	Upvoted     bool   `json:"upvoted"`
	UpvoteCount int    `json:"upvote_count"`
}
