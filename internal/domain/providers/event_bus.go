package providers

import (
	"context"
	"strconv"
	"strings"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to collection events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.CollectionEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.CollectionEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelFeedbackUpdates carries every collection event
	EventChannelFeedbackUpdates = "feedback:updates"

	// EventChannelBoardPrefix is the prefix for board-scoped channels
	EventChannelBoardPrefix = "feedback:board:"
)

// BoardFromChannel returns the board id of a board-scoped channel
func BoardFromChannel(channel string) (int64, bool) {
	if !strings.HasPrefix(channel, EventChannelBoardPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(channel, EventChannelBoardPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GetBoardChannel returns the channel name for a specific board
func GetBoardChannel(boardID int64) string {
	return EventChannelBoardPrefix + strconv.FormatInt(boardID, 10)
}
