package feedbackapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
)

// Client is the typed REST surface of the feedback backend.
type Client interface {
	Register(ctx context.Context, input entities.RegisterInput) (*entities.AuthResponse, error)
	Login(ctx context.Context, username, password string) (*entities.AuthResponse, error)
	Profile(ctx context.Context) (*entities.Profile, error)

	ListBoards(ctx context.Context) ([]entities.Board, error)
	CreateBoard(ctx context.Context, input entities.BoardInput) (*entities.Board, error)
	GetBoard(ctx context.Context, id int64) (*entities.Board, error)
	UpdateBoard(ctx context.Context, id int64, input entities.BoardInput) (*entities.Board, error)
	DeleteBoard(ctx context.Context, id int64) error
	BoardStats(ctx context.Context, id int64) (*entities.BoardStats, error)

	ListFeedback(ctx context.Context) ([]entities.Feedback, error)
	CreateFeedback(ctx context.Context, input entities.FeedbackInput) (*entities.Feedback, error)
	GetFeedback(ctx context.Context, id int64) (*entities.Feedback, error)
	ReplaceFeedback(ctx context.Context, id int64, input entities.FeedbackInput) (*entities.Feedback, error)
	PatchFeedbackStatus(ctx context.Context, id int64, status entities.FeedbackStatus) (*entities.Feedback, error)
	DeleteFeedback(ctx context.Context, id int64) error
	ToggleUpvote(ctx context.Context, id int64) (*entities.UpvoteResult, error)

	ListComments(ctx context.Context, feedbackID int64) ([]entities.Comment, error)
	CreateComment(ctx context.Context, input entities.CommentInput) (*entities.Comment, error)
	UpdateComment(ctx context.Context, id int64, input entities.CommentInput) (*entities.Comment, error)
	DeleteComment(ctx context.Context, id int64) error

	ListUsers(ctx context.Context) ([]entities.User, error)
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) Register(ctx context.Context, input entities.RegisterInput) (*entities.AuthResponse, error) {
	var resp entities.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "register/", input, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*entities.AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp entities.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "login/", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*entities.Profile, error) {
	var resp entities.Profile
	if err := c.Do(ctx, http.MethodGet, "profile/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ListBoards(ctx context.Context) ([]entities.Board, error) {
	var boards []entities.Board
	if err := c.Do(ctx, http.MethodGet, "boards/", nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

func (c *HTTPClient) CreateBoard(ctx context.Context, input entities.BoardInput) (*entities.Board, error) {
	var board entities.Board
	if err := c.Do(ctx, http.MethodPost, "boards/", input, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (c *HTTPClient) GetBoard(ctx context.Context, id int64) (*entities.Board, error) {
	var board entities.Board
	if err := c.Do(ctx, http.MethodGet, boardPath(id), nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (c *HTTPClient) UpdateBoard(ctx context.Context, id int64, input entities.BoardInput) (*entities.Board, error) {
	var board entities.Board
	if err := c.Do(ctx, http.MethodPut, boardPath(id), input, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (c *HTTPClient) DeleteBoard(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, boardPath(id), nil, nil)
}

func (c *HTTPClient) BoardStats(ctx context.Context, id int64) (*entities.BoardStats, error) {
	var stats entities.BoardStats
	if err := c.Do(ctx, http.MethodGet, boardPath(id)+"get_stats/", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) ListFeedback(ctx context.Context) ([]entities.Feedback, error) {
	var items []entities.Feedback
	if err := c.Do(ctx, http.MethodGet, "feedbacks/", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) CreateFeedback(ctx context.Context, input entities.FeedbackInput) (*entities.Feedback, error) {
	var item entities.Feedback
	if err := c.Do(ctx, http.MethodPost, "feedbacks/", input, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) GetFeedback(ctx context.Context, id int64) (*entities.Feedback, error) {
	var item entities.Feedback
	if err := c.Do(ctx, http.MethodGet, feedbackPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) ReplaceFeedback(ctx context.Context, id int64, input entities.FeedbackInput) (*entities.Feedback, error) {
	var item entities.Feedback
	if err := c.Do(ctx, http.MethodPut, feedbackPath(id), input, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) PatchFeedbackStatus(ctx context.Context, id int64, status entities.FeedbackStatus) (*entities.Feedback, error) {
	var item entities.Feedback
	if err := c.Do(ctx, http.MethodPatch, feedbackPath(id), entities.StatusPatch{Status: status}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) DeleteFeedback(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, feedbackPath(id), nil, nil)
}

func (c *HTTPClient) ToggleUpvote(ctx context.Context, id int64) (*entities.UpvoteResult, error) {
	var result entities.UpvoteResult
	if err := c.Do(ctx, http.MethodPost, feedbackPath(id)+"toggle_upvote/", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ListComments(ctx context.Context, feedbackID int64) ([]entities.Comment, error) {
	query := url.Values{}
	query.Set("feedback", strconv.FormatInt(feedbackID, 10))

	var comments []entities.Comment
	if err := c.Do(ctx, http.MethodGet, "comments/?"+query.Encode(), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *HTTPClient) CreateComment(ctx context.Context, input entities.CommentInput) (*entities.Comment, error) {
	var comment entities.Comment
	if err := c.Do(ctx, http.MethodPost, "comments/", input, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *HTTPClient) UpdateComment(ctx context.Context, id int64, input entities.CommentInput) (*entities.Comment, error) {
	var comment entities.Comment
	if err := c.Do(ctx, http.MethodPut, commentPath(id), input, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *HTTPClient) DeleteComment(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, commentPath(id), nil, nil)
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	if err := c.Do(ctx, http.MethodGet, "users/", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func boardPath(id int64) string    { return fmt.Sprintf("boards/%d/", id) }
func feedbackPath(id int64) string { return fmt.Sprintf("feedbacks/%d/", id) }
func commentPath(id int64) string  { return fmt.Sprintf("comments/%d/", id) }
