package entities

import (
	"fmt"
	"strings"
	"time"
)

// FeedbackStatus is the workflow status of a feedback item
type FeedbackStatus string

const (
	StatusOpen       FeedbackStatus = "Open"
	StatusInProgress FeedbackStatus = "In Progress"
	StatusCompleted  FeedbackStatus = "Completed"
)

// Statuses lists every status in Kanban column order
var Statuses = []FeedbackStatus{StatusOpen, StatusInProgress, StatusCompleted}

// ParseStatus accepts the display form or a loose spelling such as
// "in-progress" or "completed".
func ParseStatus(value string) (FeedbackStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", " ", "_", " ").Replace(normalized)
	for _, s := range Statuses {
		if strings.ToLower(string(s)) == normalized {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// Valid reports whether s is a known status
func (s FeedbackStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Board is a named container of feedback items
type Board struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

// BoardInput is the create/update body for a board
type BoardInput struct {
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

// BoardStats is the dashboard aggregate returned by boards/{id}/get_stats/
type BoardStats struct {
	ActiveFeedbacks   int                    `json:"active_feedbacks"`
	TotalFeedbacks    int                    `json:"total_feedbacks"`
	TrendingFeedbacks []Feedback             `json:"trending_feedbacks"`
	FeedbacksByStatus map[FeedbackStatus]int `json:"feedbacks_by_status"`
}

// Feedback is a user-submitted item on a board
type Feedback struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Status       FeedbackStatus `json:"status"`
	Board        int64          `json:"board"`
	User         OwnerRef       `json:"user"`
	UpvoteCount  int            `json:"upvote_count"`
	UpvotedBy    IDSet          `json:"upvoted_by"`
	CommentCount int            `json:"comment_count"`
	CreatedAt    time.Time      `json:"created_at"`

	// Comments is populated lazily; nil means "not loaded".
	Comments []Comment `json:"comments,omitempty"`
}

// Clone returns a deep copy safe to hand to callers
func (f *Feedback) Clone() Feedback {
	out := *f
	if f.UpvotedBy != nil {
		out.UpvotedBy = append(IDSet(nil), f.UpvotedBy...)
	}
	if f.Comments != nil {
		out.Comments = append([]Comment{}, f.Comments...)
	}
	return out
}

// CommentsLoaded reports whether any comments are held locally
func (f *Feedback) CommentsLoaded() bool {
	return len(f.Comments) > 0
}

// FeedbackInput is the create/replace body for a feedback item
type FeedbackInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      FeedbackStatus `json:"status,omitempty"`
	Board       int64          `json:"board"`
}

// StatusPatch is the partial update sent by a Kanban move
type StatusPatch struct {
	Status FeedbackStatus `json:"status"`
}

// UpvoteResult is the authoritative upvote state after a toggle
type UpvoteResult struct {
	UpvoteCount int   `json:"upvote_count"`
	UpvotedBy   IDSet `json:"upvoted_by"`
}

// Comment is a remark on a feedback item
type Comment struct {
	ID        int64     `json:"id"`
	Feedback  int64     `json:"feedback"`
	User      OwnerRef  `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentInput is the create/update body for a comment
type CommentInput struct {
	Feedback int64  `json:"feedback"`
	Text     string `json:"text"`
}
