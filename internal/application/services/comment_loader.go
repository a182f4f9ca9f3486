package services

import (
	"context"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
)

// CommentFetcher lists the comments of one feedback item
type CommentFetcher interface {
	ListComments(ctx context.Context, feedbackID int64) ([]entities.Comment, error)
}

// CommentLoader prefetches comments for a batch of feedback items. The API
// has no bulk endpoint, so one batch fans out into per-feedback requests
// bounded by concurrency.
type CommentLoader struct {
	api         CommentFetcher
	concurrency int
}

// NewCommentLoader creates a comment loader
func NewCommentLoader(api CommentFetcher, concurrency int) *CommentLoader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CommentLoader{api: api, concurrency: concurrency}
}

// LoadAll fetches comments for every id and returns the ones that
// succeeded. A failed fetch is logged and its id is left out of the result.
// It returns only after every fetch has settled.
func (l *CommentLoader) LoadAll(ctx context.Context, feedbackIDs []int64) map[int64][]entities.Comment {
	out := make(map[int64][]entities.Comment, len(feedbackIDs))
	if len(feedbackIDs) == 0 {
		return out
	}

	// A fresh loader per call: its cache must not outlive one board load.
	loader := dataloader.NewBatchedLoader(l.batch,
		dataloader.WithBatchCapacity[int64, []entities.Comment](len(feedbackIDs)),
		dataloader.WithWait[int64, []entities.Comment](time.Millisecond),
	)

	thunks := make(map[int64]dataloader.Thunk[[]entities.Comment], len(feedbackIDs))
	for _, id := range feedbackIDs {
		if _, ok := thunks[id]; !ok {
			thunks[id] = loader.Load(ctx, id)
		}
	}

	logger := observability.LoggerFromContext(ctx)
	for id, thunk := range thunks {
		comments, err := thunk()
		if err != nil {
			logger.Warn().Err(err).Int64("feedback_id", id).Msg("comment fetch failed, leaving comments empty")
			continue
		}
		out[id] = comments
	}
	return out
}

func (l *CommentLoader) batch(ctx context.Context, keys []int64) []*dataloader.Result[[]entities.Comment] {
	results := make([]*dataloader.Result[[]entities.Comment], len(keys))
	sem := make(chan struct{}, l.concurrency)

	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, feedbackID int64) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = &dataloader.Result[[]entities.Comment]{Error: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			comments, err := l.api.ListComments(ctx, feedbackID)
			results[i] = &dataloader.Result[[]entities.Comment]{Data: comments, Error: err}
		}(i, key)
	}
	wg.Wait()
	return results
}
