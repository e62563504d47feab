package series

import (
	"context"
	"errors"

	"github.com/postpilot/postpilot/internal/domain"
)

var (
	ErrInvalidPlatform = errors.New("unknown platform")
	ErrRateLimited     = errors.New("generation rate limit exceeded")
	ErrNothingToDo     = errors.New("no posts generated")
)

// OnPost receives each generated post right after it is persisted. Returning
// an error stops the stream.
type OnPost func(seriesID int64, post *domain.Post) error

type Client interface {
	// Generate produces the whole series in one model call and persists it
	Generate(ctx context.Context, userID int64, req domain.GenerateSeriesRequest) (*domain.SeriesResult, error)

	// GenerateStream produces posts one at a time, persisting each before
	// handing it to the sink. Items persisted before a failure stay persisted.
	GenerateStream(ctx context.Context, userID int64, req domain.GenerateSeriesRequest, onPost OnPost) (int64, error)
}
