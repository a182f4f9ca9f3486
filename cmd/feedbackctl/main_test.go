package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/testutil/fakeapi"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

type cliFixture struct {
	srv *fakeapi.Server
	app *app
	out *bytes.Buffer
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	t.Setenv("FEEDBACK_API_URL", srv.URL())
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("EVENT_BUS", "memory")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	out := &bytes.Buffer{}
	a := &app{out: out}
	t.Cleanup(a.Close)
	return &cliFixture{srv: srv, app: a, out: out}
}

func (f *cliFixture) run(args ...string) error {
	f.out.Reset()
	cmd := newRootCmd(f.app)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestCLI_LoginListAndWhoami(t *testing.T) {
	f := newCLIFixture(t)
	userID, _ := f.srv.AddUser("sam", "secret", "sam@example.com", entities.RoleContributor)
	board := f.srv.AddBoard("Product", true)
	f.srv.AddFeedback(userID, board, "Add dark mode", entities.StatusOpen)

	require.NoError(t, f.run("login", "sam", "--password", "secret"))
	assert.Contains(t, f.out.String(), "Logged in as sam (contributor).")

	require.NoError(t, f.run("feedback", "list", "--board", strconv.FormatInt(board, 10)))
	assert.Contains(t, f.out.String(), "Add dark mode")
	assert.Contains(t, f.out.String(), "edit+delete")

	require.NoError(t, f.run("whoami"))
	assert.Contains(t, f.out.String(), "sam")
	assert.Contains(t, f.out.String(), "sam@example.com")
}

func TestCLI_RequiresLogin(t *testing.T) {
	f := newCLIFixture(t)

	err := f.run("feedback", "list")
	assert.True(t, errors.Is(err, errRedirected))
	assert.Contains(t, f.out.String(), "Please log in")
	assert.Equal(t, 0, f.srv.Calls(fakeapi.RouteFeedbackList))
}

func TestCLI_KanbanIsForModerators(t *testing.T) {
	f := newCLIFixture(t)
	f.srv.AddUser("sam", "secret", "", entities.RoleContributor)
	require.NoError(t, f.run("login", "sam", "--password", "secret"))

	err := f.run("kanban")
	assert.True(t, errors.Is(err, errRedirected))
	assert.Contains(t, f.out.String(), "You do not have access")
}

func TestCLI_MoveAndRollback(t *testing.T) {
	f := newCLIFixture(t)
	userID, _ := f.srv.AddUser("mo", "pw", "", entities.RoleModerator)
	board := f.srv.AddBoard("Product", true)
	id := f.srv.AddFeedback(userID, board, "Ship it", entities.StatusOpen)
	require.NoError(t, f.run("login", "mo", "--password", "pw"))

	require.NoError(t, f.run("move", strconv.FormatInt(id, 10), "in-progress"))
	assert.Contains(t, f.out.String(), "Saved")
	status, _ := f.srv.FeedbackStatus(id)
	assert.Equal(t, entities.StatusInProgress, status)

	f.srv.Fail(fakeapi.RouteFeedbackPatch, http.StatusInternalServerError, 1)
	err := f.run("move", strconv.FormatInt(id, 10), "completed")
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Contains(t, f.out.String(), "back in In Progress")

	require.NoError(t, f.run("kanban"))
	assert.Contains(t, f.out.String(), "== In Progress (1)")
}

func TestCLI_MoveWithoutWaitNeedsShell(t *testing.T) {
	f := newCLIFixture(t)
	userID, _ := f.srv.AddUser("mo", "pw", "", entities.RoleModerator)
	board := f.srv.AddBoard("Product", true)
	id := f.srv.AddFeedback(userID, board, "Ship it", entities.StatusOpen)
	require.NoError(t, f.run("login", "mo", "--password", "pw"))

	err := f.run("move", strconv.FormatInt(id, 10), "completed", "--wait=false")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Contains(t, describeError(err), "feedbackctl shell")
	assert.NotContains(t, f.out.String(), "->")
	assert.Equal(t, 0, f.srv.Calls(fakeapi.RouteFeedbackPatch))
	status, _ := f.srv.FeedbackStatus(id)
	assert.Equal(t, entities.StatusOpen, status)
}

func TestCLI_ShellMoveWithoutWaitSettlesBeforeClose(t *testing.T) {
	f := newCLIFixture(t)
	userID, _ := f.srv.AddUser("mo", "pw", "", entities.RoleModerator)
	board := f.srv.AddBoard("Product", true)
	id := f.srv.AddFeedback(userID, board, "Ship it", entities.StatusOpen)
	require.NoError(t, f.run("login", "mo", "--password", "pw"))
	f.app.interactive = true

	gate := f.srv.Hold(fakeapi.RouteFeedbackPatch)
	require.NoError(t, f.run("move", strconv.FormatInt(id, 10), "completed", "--wait=false"))
	assert.Contains(t, f.out.String(), "-> Completed")
	<-gate.Arrived()

	closed := make(chan struct{})
	go func() {
		f.app.Close()
		close(closed)
	}()
	select {
	case <-closed:
		t.Fatal("Close returned while a move was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	gate.Release()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return after the move settled")
	}
	status, _ := f.srv.FeedbackStatus(id)
	assert.Equal(t, entities.StatusCompleted, status)
}

func TestCLI_FailedInitReleasesOpenedBackends(t *testing.T) {
	f := newCLIFixture(t)
	t.Setenv("SESSION_BACKEND", "file")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("EVENT_BUS", "redis")
	t.Setenv("REDIS_PORT", "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.app.init(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis event bus")
	assert.Empty(t, f.app.closers)
	assert.False(t, f.app.ready)
}

func TestCLI_CommentPermissions(t *testing.T) {
	f := newCLIFixture(t)
	author, _ := f.srv.AddUser("ann", "pw", "", entities.RoleContributor)
	f.srv.AddUser("sam", "secret", "", entities.RoleContributor)
	board := f.srv.AddBoard("Product", true)
	fb := f.srv.AddFeedback(author, board, "Dark mode", entities.StatusOpen)
	theirs := f.srv.AddComment(author, fb, "mine")
	require.NoError(t, f.run("login", "sam", "--password", "secret"))

	require.NoError(t, f.run("comment", "add", strconv.FormatInt(fb, 10), "me", "too"))
	assert.Contains(t, f.out.String(), "(2 comments)")

	err := f.run("comment", "edit", strconv.FormatInt(theirs, 10), "changed")
	require.Error(t, err)
	assert.Equal(t, "only the author can edit this comment", describeError(err))

	err = f.run("feedback", "edit", strconv.FormatInt(fb, 10), "--title", "Hijacked")
	require.Error(t, err)
	assert.Equal(t, 0, f.srv.Calls(fakeapi.RouteFeedbackReplace))
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"redirect is silent", errRedirected, ""},
		{"superseded is silent", services.ErrSuperseded, ""},
		{"expired session", apperrors.FromStatus("GET profile/", 401, map[string]interface{}{"detail": "Invalid token."}), "Your session has expired. Please log in again."},
		{"bad credentials", apperrors.FromStatus("POST login/", 401, map[string]interface{}{"error": "Invalid credentials"}), "Invalid credentials"},
		{"field errors", apperrors.FromStatus("POST feedbacks/", 400, map[string]interface{}{
			"title": []interface{}{"This field may not be blank."},
			"board": []interface{}{"This field is required."},
		}), "board: This field is required.\ntitle: This field may not be blank."},
		{"server error", apperrors.NewExternalError("request failed", nil), "request failed (try again)"},
		{"server error with detail", apperrors.FromStatus("PATCH feedbacks/3/", 503, map[string]interface{}{"detail": "Service Unavailable"}), "PATCH feedbacks/3/: Service Unavailable (try again)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeError(tt.err))
		})
	}
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"feedback", "create", "Add dark mode", "--board", "3"},
		parseArgs(`feedback create "Add dark mode" --board 3`))
	assert.Equal(t, []string{"comment", "add", "1", ""}, parseArgs(`comment add 1 ""`))
	assert.Empty(t, parseArgs("   "))
}
