package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sharada257/Feedback-Management/internal/adapters/events"
	"github.com/sharada257/Feedback-Management/internal/adapters/storage"
	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/domain/providers"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/clients/feedbackapi"
	"github.com/sharada257/Feedback-Management/internal/testutil/fakeapi"
)

type recordingNavigator struct {
	mu       sync.Mutex
	logins   int
	defaults int
}

func (n *recordingNavigator) ToLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.logins++
}

func (n *recordingNavigator) ToDefault() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.defaults++
}

func (n *recordingNavigator) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.logins, n.defaults
}

// harness wires the real client and session against a fake backend with
// one logged-in user and one public board.
type harness struct {
	srv     *fakeapi.Server
	client  *feedbackapi.HTTPClient
	session *services.SessionService
	store   *storage.MemoryStorage
	nav     *recordingNavigator
	bus     providers.EventBus
	userID  int64
	token   string
	boardID int64
}

func newHarness(t *testing.T, role entities.Role) *harness {
	t.Helper()

	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	bus := events.NewMemoryEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	store := storage.NewMemoryStorage()
	nav := &recordingNavigator{}
	session := services.NewSessionService(store, nil, nav, bus)
	client := feedbackapi.NewClient(srv.URL(),
		feedbackapi.WithTokenSource(session),
		feedbackapi.WithUnauthorizedHandler(session.HandleUnauthorized),
		feedbackapi.WithTimeout(5*time.Second),
	)
	session.SetProfileFetcher(client)

	userID, token := srv.AddUser("sam", "secret", "sam@example.com", role)
	require.NoError(t, session.Login(context.Background(), token, role, "sam"))

	return &harness{
		srv:     srv,
		client:  client,
		session: session,
		store:   store,
		nav:     nav,
		bus:     bus,
		userID:  userID,
		token:   token,
		boardID: srv.AddBoard("Product", true),
	}
}

func (h *harness) collection(rollback bool) *services.FeedbackCollection {
	return services.NewFeedbackCollection(h.client, h.session, h.bus, services.CollectionOptions{
		RollbackOnFailure:  rollback,
		CommentConcurrency: 4,
	})
}

func awaitMove(t *testing.T, results <-chan services.MoveResult) services.MoveResult {
	t.Helper()
	select {
	case res, ok := <-results:
		require.True(t, ok, "move channel closed without a result")
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for move result")
	}
	return services.MoveResult{}
}

func awaitEvent(t *testing.T, ch <-chan *entities.CollectionEvent, want entities.CollectionEventType) *entities.CollectionEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "event channel closed")
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}
