package publishlog

import (
	"context"

	"github.com/postpilot/postpilot/internal/domain"
)

// Repository reads the append-only publish audit trail. Writes happen only
// through the post repository's outcome transaction.
type Repository interface {
	// ListByPost returns all attempts for a post, newest first
	ListByPost(ctx context.Context, postID int64) ([]*domain.PublishLogEntry, error)
}
