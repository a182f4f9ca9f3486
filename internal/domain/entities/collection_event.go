package entities

import (
	"time"

	"github.com/google/uuid"
)

// CollectionEventType names a change applied to a local feedback collection
type CollectionEventType string

const (
	EventCollectionLoaded CollectionEventType = "collection_loaded"
	EventLoadFailed       CollectionEventType = "load_failed"
	EventFeedbackCreated  CollectionEventType = "feedback_created"
	EventFeedbackUpdated  CollectionEventType = "feedback_updated"
	EventFeedbackRemoved  CollectionEventType = "feedback_removed"
	EventUpvoteToggled    CollectionEventType = "upvote_toggled"
	EventCommentsLoaded   CollectionEventType = "comments_loaded"
	EventCommentAdded     CollectionEventType = "comment_added"
	EventCommentUpdated   CollectionEventType = "comment_updated"
	EventCommentDeleted   CollectionEventType = "comment_deleted"
	EventMoveApplied      CollectionEventType = "move_applied"
	EventMoveConfirmed    CollectionEventType = "move_confirmed"
	EventMoveFailed       CollectionEventType = "move_failed"
	EventSessionEnded     CollectionEventType = "session_ended"
)

// Known reports whether t is an event type this client emits
func (t CollectionEventType) Known() bool {
	switch t {
	case EventCollectionLoaded, EventLoadFailed, EventFeedbackCreated, EventFeedbackUpdated,
		EventFeedbackRemoved, EventUpvoteToggled, EventCommentsLoaded, EventCommentAdded,
		EventCommentUpdated, EventCommentDeleted, EventMoveApplied, EventMoveConfirmed,
		EventMoveFailed, EventSessionEnded:
		return true
	}
	return false
}

// CollectionEvent tells presentation surfaces what changed
type CollectionEvent struct {
	ID         string              `json:"id"`
	Type       CollectionEventType `json:"type"`
	BoardID    int64               `json:"board_id,omitempty"`
	FeedbackID int64               `json:"feedback_id,omitempty"`
	CommentID  int64               `json:"comment_id,omitempty"`
	Status     FeedbackStatus      `json:"status,omitempty"`
	Error      string              `json:"error,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// NewCollectionEvent creates an event stamped with a fresh id
func NewCollectionEvent(eventType CollectionEventType, boardID, feedbackID int64) *CollectionEvent {
	return &CollectionEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BoardID:    boardID,
		FeedbackID: feedbackID,
		Timestamp:  time.Now().UTC(),
	}
}
