package services

import (
	"context"
	"sync"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
)

// StatsAPI fetches board aggregates
type StatsAPI interface {
	BoardStats(ctx context.Context, id int64) (*entities.BoardStats, error)
}

// UserResolver resolves the logged-in user
type UserResolver interface {
	CurrentUser(ctx context.Context) (*entities.CurrentUser, error)
}

// Dashboard is what the dashboard shows
type Dashboard struct {
	User          *entities.CurrentUser
	Boards        []entities.Board
	SelectedBoard int64
	Stats         *entities.BoardStats
}

// DashboardService assembles the dashboard
type DashboardService struct {
	users  UserResolver
	boards *BoardService
	stats  StatsAPI

	mu         sync.Mutex
	generation uint64
}

func NewDashboardService(users UserResolver, boards *BoardService, stats StatsAPI) *DashboardService {
	return &DashboardService{users: users, boards: boards, stats: stats}
}

// Open fetches the profile and the boards concurrently, then the stats of
// the first board. Without boards Stats stays nil.
func (s *DashboardService) Open(ctx context.Context) (*Dashboard, error) {
	var (
		wg       sync.WaitGroup
		user     *entities.CurrentUser
		boards   []entities.Board
		userErr  error
		boardErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = s.users.CurrentUser(ctx)
	}()
	go func() {
		defer wg.Done()
		boards, boardErr = s.boards.List(ctx, true)
	}()
	wg.Wait()

	if userErr != nil {
		return nil, userErr
	}
	if boardErr != nil {
		return nil, boardErr
	}

	view := &Dashboard{User: user, Boards: boards}
	if len(boards) == 0 {
		return view, nil
	}

	view.SelectedBoard = boards[0].ID
	stats, err := s.Select(ctx, view.SelectedBoard)
	if err != nil {
		return nil, err
	}
	view.Stats = stats
	return view, nil
}

// Select fetches stats for a board. If another Select started meanwhile,
// the older one returns ErrSuperseded.
func (s *DashboardService) Select(ctx context.Context, boardID int64) (*entities.BoardStats, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	stats, err := s.stats.BoardStats(ctx, boardID)

	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		observability.LoggerFromContext(ctx).Debug().Int64("board_id", boardID).Msg("discarding superseded stats")
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	if stats.FeedbacksByStatus == nil {
		stats.FeedbacksByStatus = make(map[entities.FeedbackStatus]int)
	}
	for _, status := range entities.Statuses {
		if _, ok := stats.FeedbacksByStatus[status]; !ok {
			stats.FeedbacksByStatus[status] = 0
		}
	}
	return stats, nil
}
