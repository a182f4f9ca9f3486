package services_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/domain/permissions"
	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	"github.com/sharada257/Feedback-Management/internal/testutil/fakeapi"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

func TestFeedbackCollection_LoadFiltersBoardAndPrefetchesComments(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()

	other := h.srv.AddBoard("Other", true)
	first := h.srv.AddFeedback(h.userID, h.boardID, "Faster search", entities.StatusOpen)
	second := h.srv.AddFeedback(h.userID, h.boardID, "Dark mode", entities.StatusInProgress)
	h.srv.AddFeedback(h.userID, other, "Unrelated", entities.StatusOpen)
	h.srv.AddComment(h.userID, second, "please")
	h.srv.AddComment(h.userID, second, "+1")

	col := h.collection(true)
	assert.Equal(t, services.StateIdle, col.State())

	items, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first, items[0].ID)
	assert.Equal(t, second, items[1].ID)
	assert.Nil(t, items[0].Comments)
	assert.Len(t, items[1].Comments, 2)
	assert.Equal(t, 2, items[1].CommentCount)
	assert.Equal(t, services.StateReady, col.State())
	assert.Equal(t, h.boardID, col.BoardID())

	// Only items with comments trigger a fetch.
	assert.Equal(t, 1, h.srv.Calls(fakeapi.RouteCommentList))
}

func TestFeedbackCollection_LoadAllBoards(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	other := h.srv.AddBoard("Other", true)
	h.srv.AddFeedback(h.userID, h.boardID, "A", entities.StatusOpen)
	h.srv.AddFeedback(h.userID, other, "B", entities.StatusOpen)

	items, err := h.collection(true).Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFeedbackCollection_LoadIsIdempotent(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "A", entities.StatusOpen)
	h.srv.AddComment(h.userID, id, "c")

	col := h.collection(true)
	first, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)
	second, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, second, col.Items())
}

func TestFeedbackCollection_CommentFetchFailureIsSoft(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	id := h.srv.AddFeedback(h.userID, h.boardID, "A", entities.StatusOpen)
	h.srv.AddComment(h.userID, id, "c")
	h.srv.Fail(fakeapi.RouteCommentList, http.StatusInternalServerError, 0)

	items, err := h.collection(true).Load(context.Background(), h.boardID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Comments)
	assert.Equal(t, 1, items[0].CommentCount)
}

func TestFeedbackCollection_LoadFailure(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := h.bus.Subscribe(ctx, providers.EventChannelFeedbackUpdates)
	require.NoError(t, err)

	h.srv.Fail(fakeapi.RouteFeedbackList, http.StatusBadGateway, 1)
	col := h.collection(true)

	_, err = col.Load(ctx, h.boardID)
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, services.StateFailed, col.State())
	assert.Equal(t, err, col.Err())

	event := awaitEvent(t, updates, entities.EventLoadFailed)
	assert.Equal(t, h.boardID, event.BoardID)
	assert.NotEmpty(t, event.Error)

	// A retry recovers.
	_, err = col.Load(ctx, h.boardID)
	require.NoError(t, err)
	assert.Equal(t, services.StateReady, col.State())
	assert.NoError(t, col.Err())
}

func TestFeedbackCollection_SupersededLoadIsDiscarded(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	other := h.srv.AddBoard("Other", true)
	h.srv.AddFeedback(h.userID, h.boardID, "A", entities.StatusOpen)
	onOther := h.srv.AddFeedback(h.userID, other, "B", entities.StatusOpen)

	col := h.collection(true)
	gate := h.srv.Hold(fakeapi.RouteFeedbackList)

	staleErr := make(chan error, 1)
	go func() {
		_, err := col.Load(ctx, h.boardID)
		staleErr <- err
	}()
	<-gate.Arrived()

	items, err := col.Load(ctx, other)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, onOther, items[0].ID)

	gate.Release()
	select {
	case err := <-staleErr:
		assert.True(t, errors.Is(err, services.ErrSuperseded))
	case <-time.After(5 * time.Second):
		t.Fatal("stale load never returned")
	}

	assert.Equal(t, other, col.BoardID())
	require.Len(t, col.Items(), 1)
	assert.Equal(t, onOther, col.Items()[0].ID)
}

func TestFeedbackCollection_Create(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	existing := h.srv.AddFeedback(h.userID, h.boardID, "Existing", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	created, err := col.Create(ctx, entities.FeedbackInput{Title: "  Add dark mode ", Description: "night owls"})
	require.NoError(t, err)
	assert.Equal(t, "Add dark mode", created.Title)
	assert.Equal(t, entities.StatusOpen, created.Status)
	assert.Equal(t, h.boardID, created.Board)
	assert.Equal(t, 0, created.UpvoteCount)
	assert.Equal(t, strconv.FormatInt(h.userID, 10), created.User.ID)

	items := col.Items()
	require.Len(t, items, 2)
	assert.Equal(t, created.ID, items[0].ID)
	assert.Equal(t, existing, items[1].ID)
}

func TestFeedbackCollection_CreateValidation(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	col := h.collection(true)

	_, err := col.Create(ctx, entities.FeedbackInput{Title: "   ", Board: h.boardID})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = col.Create(ctx, entities.FeedbackInput{Title: "No board yet"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	assert.Equal(t, 0, h.srv.Calls(fakeapi.RouteFeedbackCreate))

	// Server-side field errors come back with their payload.
	_, err = col.Create(ctx, entities.FeedbackInput{Title: "Orphan", Board: 9999})
	require.Error(t, err)
	assert.True(t, apperrors.IsClientError(err))
	assert.Contains(t, apperrors.Payload(err), "board")
}

func TestFeedbackCollection_CreateOnOtherBoardIsNotMerged(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	other := h.srv.AddBoard("Other", true)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	created, err := col.Create(ctx, entities.FeedbackInput{Title: "Elsewhere", Board: other})
	require.NoError(t, err)
	assert.Equal(t, other, created.Board)
	assert.Empty(t, col.Items())
}

func TestFeedbackCollection_SupersededCreateReturnsResultWithoutMerging(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	gate := h.srv.Hold(fakeapi.RouteFeedbackCreate)
	type outcome struct {
		f   *entities.Feedback
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		f, err := col.Create(ctx, entities.FeedbackInput{Title: "Racing"})
		done <- outcome{f, err}
	}()
	<-gate.Arrived()

	_, err = col.Load(ctx, h.boardID)
	require.NoError(t, err)
	gate.Release()

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "Racing", res.f.Title)
	assert.Empty(t, col.Items())
}

func TestFeedbackCollection_UpdateKeepsComments(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Old title", entities.StatusInProgress)
	h.srv.AddComment(h.userID, id, "keep me")

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	updated, err := col.Update(ctx, id, entities.FeedbackInput{Title: "New title", Description: "more"})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, entities.StatusInProgress, updated.Status)

	local, ok := col.Get(id)
	require.True(t, ok)
	assert.Equal(t, "New title", local.Title)
	assert.Equal(t, "more", local.Description)
	require.Len(t, local.Comments, 1)
	assert.Equal(t, "keep me", local.Comments[0].Text)
}

func TestFeedbackCollection_UpdateMovingBoardDropsItem(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	other := h.srv.AddBoard("Other", true)
	id := h.srv.AddFeedback(h.userID, h.boardID, "Mover", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	_, err = col.Update(ctx, id, entities.FeedbackInput{Title: "Mover", Board: other})
	require.NoError(t, err)
	_, ok := col.Get(id)
	assert.False(t, ok)
}

func TestFeedbackCollection_UpdateRequiresLoadedItem(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	_, err := h.collection(true).Update(context.Background(), 42, entities.FeedbackInput{Title: "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.Equal(t, 0, h.srv.Calls(fakeapi.RouteFeedbackReplace))
}

func TestFeedbackCollection_Remove(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	keep := h.srv.AddFeedback(h.userID, h.boardID, "Keep", entities.StatusOpen)
	drop := h.srv.AddFeedback(h.userID, h.boardID, "Drop", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	require.NoError(t, col.Remove(ctx, drop))
	items := col.Items()
	require.Len(t, items, 1)
	assert.Equal(t, keep, items[0].ID)

	// Deleting something the server no longer has surfaces NotFound.
	err = col.Remove(ctx, drop)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestFeedbackCollection_ToggleUpvoteAdoptsServerState(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	otherUser, _ := h.srv.AddUser("kim", "pw", "kim@example.com", entities.RoleContributor)
	id := h.srv.AddFeedback(otherUser, h.boardID, "Popular", entities.StatusOpen)
	h.srv.AddUpvote(id, otherUser)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	result, err := col.ToggleUpvote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, result.UpvoteCount)

	local, _ := col.Get(id)
	assert.Equal(t, 2, local.UpvoteCount)
	assert.True(t, local.UpvotedBy.Contains(strconv.FormatInt(h.userID, 10)))
	assert.True(t, local.UpvotedBy.Contains(strconv.FormatInt(otherUser, 10)))

	_, err = col.ToggleUpvote(ctx, id)
	require.NoError(t, err)
	local, _ = col.Get(id)
	assert.Equal(t, 1, local.UpvoteCount)
	assert.False(t, local.UpvotedBy.Contains(strconv.FormatInt(h.userID, 10)))
}

func TestFeedbackCollection_CommentLifecycle(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Discuss", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	comment, err := col.AddComment(ctx, id, " first! ")
	require.NoError(t, err)
	assert.Equal(t, "first!", comment.Text)

	local, _ := col.Get(id)
	assert.Equal(t, 1, local.CommentCount)
	require.Len(t, local.Comments, 1)
	assert.Equal(t, 1, h.srv.CommentCount(id))

	edited, err := col.UpdateComment(ctx, comment.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Text)
	local, _ = col.Get(id)
	assert.Equal(t, "edited", local.Comments[0].Text)

	require.NoError(t, col.DeleteComment(ctx, comment.ID))
	local, _ = col.Get(id)
	assert.Equal(t, 0, local.CommentCount)
	assert.Empty(t, local.Comments)
	assert.Equal(t, 0, h.srv.CommentCount(id))
}

func TestFeedbackCollection_LoadCommentsOnDemand(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Discuss", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	// Added behind the collection's back.
	h.srv.AddComment(h.userID, id, "late")
	comments, err := col.LoadComments(ctx, id)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	local, _ := col.Get(id)
	require.Len(t, local.Comments, 1)
	assert.Equal(t, "late", local.Comments[0].Text)
}

func TestFeedbackCollection_UpdateUnknownComment(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	_, err := h.collection(true).UpdateComment(context.Background(), 77, "text")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestFeedbackCollection_AddCommentRequiresSession(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Discuss", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	require.NoError(t, h.session.Logout(ctx))
	_, err = col.AddComment(ctx, id, "hello")
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, 0, h.srv.Calls(fakeapi.RouteCommentCreate))
}

func TestFeedbackCollection_MoveConfirmed(t *testing.T) {
	h := newHarness(t, entities.RoleModerator)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Ship it", entities.StatusOpen)

	boardEvents, err := h.bus.Subscribe(ctx, providers.GetBoardChannel(h.boardID))
	require.NoError(t, err)

	col := h.collection(true)
	_, err = col.Load(ctx, h.boardID)
	require.NoError(t, err)

	gate := h.srv.Hold(fakeapi.RouteFeedbackPatch)
	results, err := col.MoveFeedback(ctx, id, entities.StatusInProgress)
	require.NoError(t, err)

	<-gate.Arrived()
	local, _ := col.Get(id)
	assert.Equal(t, entities.StatusInProgress, local.Status)
	pending, ok := col.Pending(id)
	require.True(t, ok)
	assert.Equal(t, entities.StatusOpen, pending.Confirmed)
	assert.Equal(t, entities.StatusInProgress, pending.Target)
	gate.Release()

	res := awaitMove(t, results)
	require.NoError(t, res.Err)
	assert.False(t, res.RolledBack)
	assert.Equal(t, entities.StatusInProgress, res.Status)

	_, ok = col.Pending(id)
	assert.False(t, ok)
	status, _ := h.srv.FeedbackStatus(id)
	assert.Equal(t, entities.StatusInProgress, status)

	applied := awaitEvent(t, boardEvents, entities.EventMoveApplied)
	assert.Equal(t, entities.StatusInProgress, applied.Status)
	awaitEvent(t, boardEvents, entities.EventMoveConfirmed)
}

func TestFeedbackCollection_MoveFailureRollsBack(t *testing.T) {
	h := newHarness(t, entities.RoleModerator)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Ship it", entities.StatusOpen)

	updates, err := h.bus.Subscribe(ctx, providers.EventChannelFeedbackUpdates)
	require.NoError(t, err)

	col := h.collection(true)
	_, err = col.Load(ctx, h.boardID)
	require.NoError(t, err)

	h.srv.Fail(fakeapi.RouteFeedbackPatch, http.StatusInternalServerError, 1)
	results, err := col.MoveFeedback(ctx, id, entities.StatusCompleted)
	require.NoError(t, err)

	res := awaitMove(t, results)
	require.Error(t, res.Err)
	assert.True(t, res.RolledBack)
	assert.Equal(t, entities.StatusOpen, res.Status)

	local, _ := col.Get(id)
	assert.Equal(t, entities.StatusOpen, local.Status)
	_, ok := col.Pending(id)
	assert.False(t, ok)

	failed := awaitEvent(t, updates, entities.EventMoveFailed)
	assert.Equal(t, entities.StatusOpen, failed.Status)
	assert.NotEmpty(t, failed.Error)
}

func TestFeedbackCollection_MoveFailureWithoutRollbackKeepsTarget(t *testing.T) {
	h := newHarness(t, entities.RoleModerator)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Ship it", entities.StatusOpen)

	updates, err := h.bus.Subscribe(ctx, providers.EventChannelFeedbackUpdates)
	require.NoError(t, err)

	col := h.collection(false)
	_, err = col.Load(ctx, h.boardID)
	require.NoError(t, err)

	h.srv.Fail(fakeapi.RouteFeedbackPatch, http.StatusInternalServerError, 1)
	results, err := col.MoveFeedback(ctx, id, entities.StatusCompleted)
	require.NoError(t, err)

	res := awaitMove(t, results)
	require.Error(t, res.Err)
	assert.False(t, res.RolledBack)

	local, _ := col.Get(id)
	assert.Equal(t, entities.StatusCompleted, local.Status)
	awaitEvent(t, updates, entities.EventMoveFailed)

	// The server never changed, and a reload shows it.
	items, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusOpen, items[0].Status)
}

func TestFeedbackCollection_OvertakenMoveFailureChangesNothing(t *testing.T) {
	h := newHarness(t, entities.RoleModerator)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Ship it", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	gate := h.srv.Hold(fakeapi.RouteFeedbackPatch)
	older, err := col.MoveFeedback(ctx, id, entities.StatusInProgress)
	require.NoError(t, err)
	<-gate.Arrived()

	newer, err := col.MoveFeedback(ctx, id, entities.StatusCompleted)
	require.NoError(t, err)
	res := awaitMove(t, newer)
	require.NoError(t, res.Err)
	assert.Equal(t, entities.StatusCompleted, res.Status)

	h.srv.Fail(fakeapi.RouteFeedbackPatch, http.StatusInternalServerError, 1)
	gate.Release()
	res = awaitMove(t, older)
	require.Error(t, res.Err)
	assert.False(t, res.RolledBack)

	local, _ := col.Get(id)
	assert.Equal(t, entities.StatusCompleted, local.Status)
	status, _ := h.srv.FeedbackStatus(id)
	assert.Equal(t, entities.StatusCompleted, status)
}

func TestFeedbackCollection_UpdateDuringMoveRefreshesRollbackStatus(t *testing.T) {
	h := newHarness(t, entities.RoleModerator)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Ship it", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	gate := h.srv.Hold(fakeapi.RouteFeedbackPatch)
	results, err := col.MoveFeedback(ctx, id, entities.StatusCompleted)
	require.NoError(t, err)
	<-gate.Arrived()

	updated, err := col.Update(ctx, id, entities.FeedbackInput{Title: "Ship it soon"})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCompleted, updated.Status)

	local, _ := col.Get(id)
	assert.Equal(t, "Ship it soon", local.Title)
	assert.Equal(t, entities.StatusCompleted, local.Status)
	pending, ok := col.Pending(id)
	require.True(t, ok)
	assert.Equal(t, entities.StatusCompleted, pending.Confirmed)

	h.srv.Fail(fakeapi.RouteFeedbackPatch, http.StatusInternalServerError, 1)
	gate.Release()
	res := awaitMove(t, results)
	require.Error(t, res.Err)
	assert.True(t, res.RolledBack)

	local, _ = col.Get(id)
	status, _ := h.srv.FeedbackStatus(id)
	assert.Equal(t, entities.StatusCompleted, status)
	assert.Equal(t, status, local.Status)
}

func TestFeedbackCollection_PendingMoveSurvivesReload(t *testing.T) {
	h := newHarness(t, entities.RoleModerator)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Ship it", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	gate := h.srv.Hold(fakeapi.RouteFeedbackPatch)
	results, err := col.MoveFeedback(ctx, id, entities.StatusInProgress)
	require.NoError(t, err)
	<-gate.Arrived()

	items, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInProgress, items[0].Status)

	gate.Release()
	res := awaitMove(t, results)
	require.NoError(t, res.Err)
	local, _ := col.Get(id)
	assert.Equal(t, entities.StatusInProgress, local.Status)
}

func TestFeedbackCollection_MoveToSameStatusIsNoop(t *testing.T) {
	h := newHarness(t, entities.RoleModerator)
	ctx := context.Background()
	id := h.srv.AddFeedback(h.userID, h.boardID, "Ship it", entities.StatusOpen)

	col := h.collection(true)
	_, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)

	results, err := col.MoveFeedback(ctx, id, entities.StatusOpen)
	require.NoError(t, err)
	res := awaitMove(t, results)
	assert.NoError(t, res.Err)
	assert.Equal(t, entities.StatusOpen, res.Status)
	assert.Equal(t, 0, h.srv.Calls(fakeapi.RouteFeedbackPatch))
}

func TestFeedbackCollection_MoveRejectsUnknownStatusAndItem(t *testing.T) {
	h := newHarness(t, entities.RoleModerator)
	col := h.collection(true)

	_, err := col.MoveFeedback(context.Background(), 1, entities.FeedbackStatus("Archived"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = col.MoveFeedback(context.Background(), 1, entities.StatusCompleted)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestFeedbackCollection_BareOwnerIDsStillGrantOwnership(t *testing.T) {
	h := newHarness(t, entities.RoleContributor)
	ctx := context.Background()
	h.srv.BareOwnerIDs = true
	id := h.srv.AddFeedback(h.userID, h.boardID, "Mine", entities.StatusOpen)
	h.srv.AddComment(h.userID, id, "also mine")

	col := h.collection(true)
	items, err := col.Load(ctx, h.boardID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	user, err := h.session.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, permissions.ActionsEditDelete, permissions.ForFeedback(user, &items[0]))
	require.Len(t, items[0].Comments, 1)
	assert.Equal(t, permissions.ActionsEditDelete, permissions.ForComment(user, &items[0].Comments[0]))
}
