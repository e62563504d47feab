package post

import (
	"context"
	"errors"
	"time"

	"github.com/postpilot/postpilot/internal/domain"
)

var (
	ErrNotFound = errors.New("post not found")

	// ErrNotDue is returned by RecordOutcome when the post is no longer in
	// the scheduled state, meaning a concurrent run already resolved it.
	ErrNotDue = errors.New("post is not in scheduled state")
)

type Repository interface {
	// Create inserts a new post and returns its id
	Create(ctx context.Context, p domain.Post) (int64, error)

	// GetByID returns a single post
	GetByID(ctx context.Context, id int64) (*domain.Post, error)

	// GetDue returns all posts with status scheduled and scheduled_at <= now,
	// joined with the owner's email, in a single query
	GetDue(ctx context.Context, now time.Time) ([]domain.DuePost, error)

	// Claim takes a short lease on a due post so overlapping runs do not
	// publish it twice. Returns false when another run holds the lease or the
	// post already left the scheduled state.
	Claim(ctx context.Context, id int64, now time.Time) (bool, error)

	// RecordOutcome applies the terminal status transition and appends the
	// audit log entry in one transaction. The post update is guarded by a
	// status compare so an already-resolved post is never overwritten.
	RecordOutcome(ctx context.Context, rec domain.PublishRecord) error
}
