package credential

import (
	"context"

	"github.com/postpilot/postpilot/internal/domain"
)

// Repository resolves per-user, per-platform credential sets. A nil map means
// no override is stored; publishers fall back to process configuration.
type Repository interface {
	// Get returns the stored credential key/value set, or nil when absent.
	// A malformed stored blob is treated the same as absence.
	Get(ctx context.Context, userID int64, platform domain.Platform) (map[string]string, error)
}
