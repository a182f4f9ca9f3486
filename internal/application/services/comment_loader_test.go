package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/entities"
)

type MockCommentFetcher struct {
	mock.Mock
}

func (m *MockCommentFetcher) ListComments(ctx context.Context, feedbackID int64) ([]entities.Comment, error) {
	args := m.Called(ctx, feedbackID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Comment), args.Error(1)
}

func TestCommentLoader_LoadAllSkipsFailures(t *testing.T) {
	fetcher := new(MockCommentFetcher)
	fetcher.On("ListComments", mock.Anything, int64(1)).Return([]entities.Comment{{ID: 10, Feedback: 1}}, nil).Once()
	fetcher.On("ListComments", mock.Anything, int64(2)).Return(nil, errors.New("boom")).Once()
	fetcher.On("ListComments", mock.Anything, int64(3)).Return([]entities.Comment{}, nil).Once()

	loader := services.NewCommentLoader(fetcher, 2)
	got := loader.LoadAll(context.Background(), []int64{1, 2, 3, 1})

	assert.Len(t, got, 2)
	assert.Equal(t, int64(10), got[1][0].ID)
	assert.NotContains(t, got, int64(2))
	assert.Contains(t, got, int64(3))
	fetcher.AssertExpectations(t)
}

func TestCommentLoader_EmptyInput(t *testing.T) {
	fetcher := new(MockCommentFetcher)
	got := services.NewCommentLoader(fetcher, 4).LoadAll(context.Background(), nil)
	assert.Empty(t, got)
	fetcher.AssertNotCalled(t, "ListComments", mock.Anything, mock.Anything)
}

type slowFetcher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *slowFetcher) ListComments(ctx context.Context, feedbackID int64) ([]entities.Comment, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return []entities.Comment{{ID: feedbackID * 100, Feedback: feedbackID}}, nil
}

func TestCommentLoader_BoundsConcurrency(t *testing.T) {
	fetcher := &slowFetcher{}
	got := services.NewCommentLoader(fetcher, 2).LoadAll(context.Background(), []int64{1, 2, 3, 4, 5, 6})

	assert.Len(t, got, 6)
	assert.LessOrEqual(t, fetcher.peak.Load(), int32(2))
	assert.Equal(t, int64(600), got[6][0].ID)
}
