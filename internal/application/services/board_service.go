package services

import (
	"context"
	"strings"
	"sync"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

// BoardAPI is the board part of the REST client
type BoardAPI interface {
	ListBoards(ctx context.Context) ([]entities.Board, error)
	CreateBoard(ctx context.Context, input entities.BoardInput) (*entities.Board, error)
	GetBoard(ctx context.Context, id int64) (*entities.Board, error)
	UpdateBoard(ctx context.Context, id int64, input entities.BoardInput) (*entities.Board, error)
	DeleteBoard(ctx context.Context, id int64) error
}

// BoardService keeps a local list of boards in step with the server
type BoardService struct {
	api BoardAPI

	mu     sync.Mutex
	boards []entities.Board
	loaded bool
}

// NewBoardService creates a new board service
func NewBoardService(api BoardAPI) *BoardService {
	return &BoardService{api: api}
}

// List returns the cached boards, fetching them on first use or when refresh is set
func (s *BoardService) List(ctx context.Context, refresh bool) ([]entities.Board, error) {
	s.mu.Lock()
	if s.loaded && !refresh {
		out := append([]entities.Board(nil), s.boards...)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	boards, err := s.api.ListBoards(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.boards = append([]entities.Board(nil), boards...)
	s.loaded = true
	s.mu.Unlock()
	return boards, nil
}

// Create creates a board and appends it to the cache
func (s *BoardService) Create(ctx context.Context, input entities.BoardInput) (*entities.Board, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("board name is required")
	}

	board, err := s.api.CreateBoard(ctx, input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.boards = append(s.boards, *board)
	s.mu.Unlock()
	return board, nil
}

// Get fetches one board
func (s *BoardService) Get(ctx context.Context, id int64) (*entities.Board, error) {
	return s.api.GetBoard(ctx, id)
}

// Update replaces a board's name and visibility
func (s *BoardService) Update(ctx context.Context, id int64, input entities.BoardInput) (*entities.Board, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("board name is required")
	}

	board, err := s.api.UpdateBoard(ctx, id, input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i := range s.boards {
		if s.boards[i].ID == id {
			s.boards[i] = *board
		}
	}
	s.mu.Unlock()
	return board, nil
}

// Delete deletes a board
func (s *BoardService) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteBoard(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.boards {
		if s.boards[i].ID == id {
			s.boards = append(s.boards[:i], s.boards[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}
