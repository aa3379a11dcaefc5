// Package review models the approval dashboard: reviewable items with
// status/priority metadata, threaded comments, assignments, filtering with
// pagination, and CSV export.
package review

import "time"

// Status is the closed set of workflow states an item can be in. Transition
// legality is the calling backend's concern; here statuses are data the
// dashboard filters and renders.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPending         Status = "pending"
	StatusInProgress      Status = "in_progress"
	StatusUnderReview     Status = "under_review"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusCompleted       Status = "completed"
	StatusArchived        Status = "archived"
	StatusCancelled       Status = "cancelled"
	StatusRequiresChanges Status = "requires_changes"
)

// Statuses lists every workflow state in dashboard display order.
func Statuses() []Status {
	return []Status{
		StatusDraft, StatusPending, StatusInProgress, StatusUnderReview,
		StatusApproved, StatusRejected, StatusCompleted, StatusArchived,
		StatusCancelled, StatusRequiresChanges,
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the review workflow.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCompleted, StatusArchived, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority orders items by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists priorities from least to most urgent.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	for _, known := range Priorities() {
		if p == known {
			return true
		}
	}
	return false
}

// Rank returns a sortable weight; unknown priorities sort lowest.
func (p Priority) Rank() int {
	for i, known := range Priorities() {
		if p == known {
			return i + 1
		}
	}
	return 0
}

// Item is one reviewable entry on the dashboard, typically a form schema
// awaiting approval.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ItemType    string   `json:"itemType"`
	Stage       string   `json:"stage,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	Tags        []string `json:"tags,omitempty"`

	// FormID ties the item back to the schema under review.
	FormID      string `json:"formId,omitempty"`
	FormVersion int    `json:"formVersion,omitempty"`

	Assignees []string   `json:"assignees,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`

	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Overdue reports whether the item has an elapsed due date and is still in
// an open state.
func (i Item) Overdue(now time.Time) bool {
	return i.DueDate != nil && i.DueDate.Before(now) && !i.Status.Terminal()
}

// Comment is one entry in an item's discussion. ParentID links replies to
// their parent comment; a blank ParentID marks a top-level comment.
type Comment struct {
	ID       string `json:"id"`
	ItemID   string `json:"itemId"`
	ParentID string `json:"parentId,omitempty"`
	Author   string `json:"author"`
	Body     string `json:"body"`
	Edited   bool   `json:"edited,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Assignment records who is responsible for an item and in what role.
type Assignment struct {
	ID       string `json:"id"`
	ItemID   string `json:"itemId"`
	Assignee string `json:"assignee"`
	Role     string `json:"role,omitempty"`

	AssignedBy string    `json:"assignedBy,omitempty"`
	AssignedAt time.Time `json:"assignedAt"`
}
