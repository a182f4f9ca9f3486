package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

// ErrSuperseded is returned by Load when a newer Load started before this
// one finished. The older result is discarded.
var ErrSuperseded = errors.New("superseded by a newer load")

// CollectionState is the lifecycle of the local feedback collection
type CollectionState string

const (
	StateIdle    CollectionState = "idle"
	StateLoading CollectionState = "loading"
	StateReady   CollectionState = "ready"
	StateFailed  CollectionState = "failed"
)

// FeedbackAPI is the part of the REST client the collection needs
type FeedbackAPI interface {
	CommentFetcher
	ListFeedback(ctx context.Context) ([]entities.Feedback, error)
	CreateFeedback(ctx context.Context, input entities.FeedbackInput) (*entities.Feedback, error)
	ReplaceFeedback(ctx context.Context, id int64, input entities.FeedbackInput) (*entities.Feedback, error)
	PatchFeedbackStatus(ctx context.Context, id int64, status entities.FeedbackStatus) (*entities.Feedback, error)
	DeleteFeedback(ctx context.Context, id int64) error
	ToggleUpvote(ctx context.Context, id int64) (*entities.UpvoteResult, error)
	CreateComment(ctx context.Context, input entities.CommentInput) (*entities.Comment, error)
	UpdateComment(ctx context.Context, id int64, input entities.CommentInput) (*entities.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

// SessionReader reports whether someone is logged in
type SessionReader interface {
	Current(ctx context.Context) (entities.Session, bool)
}

// CollectionOptions tunes the collection
type CollectionOptions struct {
	// RollbackOnFailure reverts a failed Kanban move to the last
	// server-confirmed status. When false a failure is only logged.
	RollbackOnFailure bool

	// CommentConcurrency bounds comment fetches during Load
	CommentConcurrency int

	Metrics *observability.Metrics
}

// PendingMove describes an unconfirmed status move
type PendingMove struct {
	OpID      string
	Confirmed entities.FeedbackStatus
	Target    entities.FeedbackStatus
}

// MoveResult is delivered once a move's PATCH settles
type MoveResult struct {
	FeedbackID int64
	OpID       string
	// Status is the local status after the outcome was applied
	Status     entities.FeedbackStatus
	RolledBack bool
	Err        error
}

// FeedbackCollection holds the feedback of one board (or of every board when
// the board id is 0) and keeps it in step with the server.
//
// Network calls run outside the lock. Every Load bumps a generation counter;
// a load or mutation that started under an older generation does not touch
// local state when it completes.
type FeedbackCollection struct {
	api      FeedbackAPI
	session  SessionReader
	bus      providers.EventBus
	comments *CommentLoader
	opts     CollectionOptions

	mu         sync.Mutex
	items      []*entities.Feedback
	boardID    int64
	state      CollectionState
	lastErr    error
	generation uint64
	pending    map[int64]*PendingMove
}

// NewFeedbackCollection creates an empty collection. bus may be nil.
func NewFeedbackCollection(api FeedbackAPI, session SessionReader, bus providers.EventBus, opts CollectionOptions) *FeedbackCollection {
	return &FeedbackCollection{
		api:      api,
		session:  session,
		bus:      bus,
		comments: NewCommentLoader(api, opts.CommentConcurrency),
		opts:     opts,
		state:    StateIdle,
		pending:  make(map[int64]*PendingMove),
	}
}

// Load fetches all feedback, keeps the items on boardID (0 keeps all) and
// prefetches comments for items that have some. Comment fetch failures
// leave that item's comments empty.
func (c *FeedbackCollection) Load(ctx context.Context, boardID int64) ([]entities.Feedback, error) {
	ctx, span := observability.StartSpan(ctx, "FeedbackCollection.Load")
	defer span.End()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = StateLoading
	c.boardID = boardID
	c.mu.Unlock()

	all, err := c.api.ListFeedback(ctx)
	if err != nil {
		observability.RecordError(span, err)
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return nil, ErrSuperseded
		}
		c.state = StateFailed
		c.lastErr = err
		c.mu.Unlock()

		event := entities.NewCollectionEvent(entities.EventLoadFailed, boardID, 0)
		event.Error = err.Error()
		c.publish(ctx, event)
		return nil, err
	}

	items := make([]*entities.Feedback, 0, len(all))
	var needComments []int64
	for i := range all {
		f := all[i]
		if boardID != 0 && f.Board != boardID {
			continue
		}
		if f.CommentCount > 0 && !f.CommentsLoaded() {
			needComments = append(needComments, f.ID)
		}
		items = append(items, &f)
	}

	fetched := c.comments.LoadAll(ctx, needComments)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		observability.LoggerFromContext(ctx).Debug().Int64("board_id", boardID).Msg("discarding superseded load")
		return nil, ErrSuperseded
	}
	for _, f := range items {
		if comments, ok := fetched[f.ID]; ok {
			f.Comments = comments
		}
		// Unconfirmed moves stay visible across a reload.
		if p, ok := c.pending[f.ID]; ok {
			p.Confirmed = f.Status
			f.Status = p.Target
		}
	}
	c.items = items
	c.state = StateReady
	c.lastErr = nil
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	observability.LoggerFromContext(ctx).Debug().
		Int64("board_id", boardID).
		Int("items", len(snapshot)).
		Int("comment_fetches", len(needComments)).
		Msg("collection loaded")
	c.publish(ctx, entities.NewCollectionEvent(entities.EventCollectionLoaded, boardID, 0))
	return snapshot, nil
}

// Create submits a new item and prepends the server's record. There is no
// optimistic insert because the server assigns the id.
func (c *FeedbackCollection) Create(ctx context.Context, input entities.FeedbackInput) (*entities.Feedback, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, apperrors.NewValidationError("title is required")
	}

	c.mu.Lock()
	if input.Board == 0 {
		input.Board = c.boardID
	}
	gen := c.generation
	c.mu.Unlock()

	if input.Board <= 0 {
		return nil, apperrors.NewValidationError("board is required")
	}
	if input.Status == "" {
		input.Status = entities.StatusOpen
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown status %q", input.Status))
	}

	created, err := c.api.CreateFeedback(ctx, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	merged := false
	if gen == c.generation && (c.boardID == 0 || c.boardID == created.Board) {
		item := created.Clone()
		c.items = append([]*entities.Feedback{&item}, c.items...)
		merged = true
	}
	c.mu.Unlock()

	if merged {
		c.publish(ctx, entities.NewCollectionEvent(entities.EventFeedbackCreated, created.Board, created.ID))
	}
	out := created.Clone()
	return &out, nil
}

// Update replaces an item's fields. Board and status default to the local
// record's values; locally loaded comments survive when the response
// carries none. With a move in flight the response status becomes the
// status a failed move reverts to.
func (c *FeedbackCollection) Update(ctx context.Context, id int64, input entities.FeedbackInput) (*entities.Feedback, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, apperrors.NewValidationError("title is required")
	}

	c.mu.Lock()
	local := c.findLocked(id)
	if local == nil {
		c.mu.Unlock()
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("feedback %d is not loaded", id))
	}
	if input.Board == 0 {
		input.Board = local.Board
	}
	if input.Status == "" {
		input.Status = local.Status
	}
	gen := c.generation
	c.mu.Unlock()

	if !input.Status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown status %q", input.Status))
	}

	updated, err := c.api.ReplaceFeedback(ctx, id, input)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	merged := false
	if gen == c.generation {
		if idx := c.indexLocked(id); idx >= 0 {
			item := updated.Clone()
			if len(item.Comments) == 0 {
				item.Comments = c.items[idx].Comments
			}
			// A failing in-flight move falls back to what the PUT committed.
			// The optimistic target stays until that move settles.
			if p, ok := c.pending[id]; ok {
				p.Confirmed = item.Status
				item.Status = p.Target
			}
			if c.boardID != 0 && item.Board != c.boardID {
				c.items = append(c.items[:idx], c.items[idx+1:]...)
			} else {
				c.items[idx] = &item
			}
			merged = true
		}
	}
	c.mu.Unlock()

	if merged {
		c.publish(ctx, entities.NewCollectionEvent(entities.EventFeedbackUpdated, updated.Board, id))
	}
	out := updated.Clone()
	return &out, nil
}

// Remove deletes an item on the server, then locally.
func (c *FeedbackCollection) Remove(ctx context.Context, id int64) error {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	if err := c.api.DeleteFeedback(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	var boardID int64
	removed := false
	if gen == c.generation {
		if idx := c.indexLocked(id); idx >= 0 {
			boardID = c.items[idx].Board
			c.items = append(c.items[:idx], c.items[idx+1:]...)
			removed = true
		}
	}
	delete(c.pending, id)
	c.mu.Unlock()

	if removed {
		c.publish(ctx, entities.NewCollectionEvent(entities.EventFeedbackRemoved, boardID, id))
	}
	return nil
}

// ToggleUpvote toggles the caller's upvote and adopts the server's count
// and upvoter set verbatim.
func (c *FeedbackCollection) ToggleUpvote(ctx context.Context, id int64) (*entities.UpvoteResult, error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	result, err := c.api.ToggleUpvote(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	var boardID int64
	merged := false
	if gen == c.generation {
		if f := c.findLocked(id); f != nil {
			f.UpvoteCount = result.UpvoteCount
			f.UpvotedBy = append(entities.IDSet(nil), result.UpvotedBy...)
			boardID = f.Board
			merged = true
		}
	}
	c.mu.Unlock()

	if merged {
		c.publish(ctx, entities.NewCollectionEvent(entities.EventUpvoteToggled, boardID, id))
	}
	return result, nil
}

// LoadComments fetches one item's comments, as when its comment panel opens.
func (c *FeedbackCollection) LoadComments(ctx context.Context, feedbackID int64) ([]entities.Comment, error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	comments, err := c.api.ListComments(ctx, feedbackID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	var boardID int64
	merged := false
	if gen == c.generation {
		if f := c.findLocked(feedbackID); f != nil {
			f.Comments = append([]entities.Comment{}, comments...)
			boardID = f.Board
			merged = true
		}
	}
	c.mu.Unlock()

	if merged {
		c.publish(ctx, entities.NewCollectionEvent(entities.EventCommentsLoaded, boardID, feedbackID))
	}
	return comments, nil
}

// AddComment posts a comment, appends it locally and bumps comment_count
// by exactly one.
func (c *FeedbackCollection) AddComment(ctx context.Context, feedbackID int64, text string) (*entities.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required")
	}
	if _, ok := c.session.Current(ctx); !ok {
		return nil, apperrors.NewUnauthorizedError("login required to comment")
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	comment, err := c.api.CreateComment(ctx, entities.CommentInput{Feedback: feedbackID, Text: text})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	var boardID int64
	merged := false
	if gen == c.generation {
		if f := c.findLocked(feedbackID); f != nil {
			f.Comments = append(f.Comments, *comment)
			f.CommentCount++
			boardID = f.Board
			merged = true
		}
	}
	c.mu.Unlock()

	if merged {
		event := entities.NewCollectionEvent(entities.EventCommentAdded, boardID, feedbackID)
		event.CommentID = comment.ID
		c.publish(ctx, event)
	}
	out := *comment
	return &out, nil
}

// UpdateComment edits a loaded comment. The owning item is found by scanning.
func (c *FeedbackCollection) UpdateComment(ctx context.Context, commentID int64, text string) (*entities.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required")
	}

	c.mu.Lock()
	owner, _ := c.findCommentLocked(commentID)
	var feedbackID int64
	if owner != nil {
		feedbackID = owner.ID
	}
	gen := c.generation
	c.mu.Unlock()

	if feedbackID == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("comment %d is not loaded", commentID))
	}

	updated, err := c.api.UpdateComment(ctx, commentID, entities.CommentInput{Feedback: feedbackID, Text: text})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	var boardID int64
	merged := false
	if gen == c.generation {
		if f, idx := c.findCommentLocked(commentID); f != nil {
			f.Comments[idx] = *updated
			boardID = f.Board
			merged = true
		}
	}
	c.mu.Unlock()

	if merged {
		event := entities.NewCollectionEvent(entities.EventCommentUpdated, boardID, feedbackID)
		event.CommentID = commentID
		c.publish(ctx, event)
	}
	out := *updated
	return &out, nil
}

// DeleteComment deletes a comment and decrements comment_count, floored at 0.
func (c *FeedbackCollection) DeleteComment(ctx context.Context, commentID int64) error {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	if err := c.api.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	c.mu.Lock()
	var boardID, feedbackID int64
	merged := false
	if gen == c.generation {
		if f, idx := c.findCommentLocked(commentID); f != nil {
			f.Comments = append(f.Comments[:idx], f.Comments[idx+1:]...)
			if f.CommentCount > 0 {
				f.CommentCount--
			}
			boardID, feedbackID = f.Board, f.ID
			merged = true
		}
	}
	c.mu.Unlock()

	if merged {
		event := entities.NewCollectionEvent(entities.EventCommentDeleted, boardID, feedbackID)
		event.CommentID = commentID
		c.publish(ctx, event)
	}
	return nil
}

// MoveFeedback applies a status change locally right away and sends the
// PATCH in the background. The returned channel yields exactly one result.
//
// While moves are pending the collection remembers the last status the
// server confirmed. When the most recent move for an item fails, the item
// goes back to that status (unless rollback is disabled) and a move_failed
// event is published. A failure of an older move that has since been
// overtaken changes nothing locally.
func (c *FeedbackCollection) MoveFeedback(ctx context.Context, id int64, status entities.FeedbackStatus) (<-chan MoveResult, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown status %q", status))
	}

	results := make(chan MoveResult, 1)

	c.mu.Lock()
	f := c.findLocked(id)
	if f == nil {
		c.mu.Unlock()
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("feedback %d is not loaded", id))
	}
	if f.Status == status {
		c.mu.Unlock()
		results <- MoveResult{FeedbackID: id, Status: status}
		close(results)
		return results, nil
	}

	p, ok := c.pending[id]
	if !ok {
		p = &PendingMove{Confirmed: f.Status}
		c.pending[id] = p
	}
	opID := uuid.NewString()
	p.OpID = opID
	p.Target = status
	f.Status = status
	boardID := f.Board
	c.mu.Unlock()

	applied := entities.NewCollectionEvent(entities.EventMoveApplied, boardID, id)
	applied.Status = status
	c.publish(ctx, applied)

	go c.settleMove(ctx, id, boardID, opID, status, results)
	return results, nil
}

func (c *FeedbackCollection) settleMove(ctx context.Context, id, boardID int64, opID string, status entities.FeedbackStatus, results chan<- MoveResult) {
	defer close(results)
	logger := observability.LoggerFromContext(ctx)

	resp, err := c.api.PatchFeedbackStatus(ctx, id, status)

	c.mu.Lock()
	p := c.pending[id]
	latest := p != nil && p.OpID == opID
	result := MoveResult{FeedbackID: id, OpID: opID, Status: status, Err: err}
	var event *entities.CollectionEvent

	switch {
	case err == nil && latest:
		delete(c.pending, id)
		confirmed := status
		if resp != nil && resp.Status.Valid() {
			confirmed = resp.Status
		}
		if f := c.findLocked(id); f != nil {
			f.Status = confirmed
		}
		result.Status = confirmed
		event = entities.NewCollectionEvent(entities.EventMoveConfirmed, boardID, id)
		event.Status = confirmed

	case p == nil:
		// The item was removed while the move was in flight.

	case err == nil:
		// A newer move is still in flight; this one becomes the fallback.
		p.Confirmed = status

	case latest:
		delete(c.pending, id)
		if c.opts.RollbackOnFailure {
			if f := c.findLocked(id); f != nil {
				f.Status = p.Confirmed
			}
			result.Status = p.Confirmed
			result.RolledBack = true
			observability.RecordRollback(ctx, c.opts.Metrics, string(p.Confirmed))
			logger.Warn().Err(err).Int64("feedback_id", id).Str("reverted_to", string(p.Confirmed)).Msg("status move failed, reverted")
		} else {
			logger.Error().Err(err).Int64("feedback_id", id).Str("status", string(status)).Msg("status move failed")
		}
		event = entities.NewCollectionEvent(entities.EventMoveFailed, boardID, id)
		event.Status = result.Status
		event.Error = err.Error()

	default:
		result.Status = p.Target
		logger.Debug().Err(err).Int64("feedback_id", id).Msg("overtaken status move failed")
	}
	c.mu.Unlock()

	if event != nil {
		c.publish(ctx, event)
	}
	results <- result
}

// Items returns a copy of the collection in display order
func (c *FeedbackCollection) Items() []entities.Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Get returns a copy of one item
func (c *FeedbackCollection) Get(id int64) (entities.Feedback, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f := c.findLocked(id); f != nil {
		return f.Clone(), true
	}
	return entities.Feedback{}, false
}

// State returns the load state
func (c *FeedbackCollection) State() CollectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last failed load
func (c *FeedbackCollection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// BoardID returns the board of the most recent Load
func (c *FeedbackCollection) BoardID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boardID
}

// Pending returns the unconfirmed move for an item, if any
func (c *FeedbackCollection) Pending(id int64) (PendingMove, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[id]; ok {
		return *p, true
	}
	return PendingMove{}, false
}

func (c *FeedbackCollection) snapshotLocked() []entities.Feedback {
	out := make([]entities.Feedback, len(c.items))
	for i, f := range c.items {
		out[i] = f.Clone()
	}
	return out
}

func (c *FeedbackCollection) indexLocked(id int64) int {
	for i, f := range c.items {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (c *FeedbackCollection) findLocked(id int64) *entities.Feedback {
	if idx := c.indexLocked(id); idx >= 0 {
		return c.items[idx]
	}
	return nil
}

func (c *FeedbackCollection) findCommentLocked(commentID int64) (*entities.Feedback, int) {
	for _, f := range c.items {
		for i := range f.Comments {
			if f.Comments[i].ID == commentID {
				return f, i
			}
		}
	}
	return nil, -1
}

func (c *FeedbackCollection) publish(ctx context.Context, event *entities.CollectionEvent) {
	if c.bus == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx)
	if err := c.bus.Publish(ctx, providers.EventChannelFeedbackUpdates, event); err != nil {
		logger.Warn().Err(err).Str("type", string(event.Type)).Msg("failed to publish event")
	}
	if event.BoardID != 0 {
		if err := c.bus.Publish(ctx, providers.GetBoardChannel(event.BoardID), event); err != nil {
			logger.Warn().Err(err).Str("type", string(event.Type)).Msg("failed to publish board event")
		}
	}
	observability.RecordEventPublished(ctx, c.opts.Metrics, string(event.Type))
}
