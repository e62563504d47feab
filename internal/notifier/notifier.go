package notifier

import (
	"context"

	"github.com/postpilot/postpilot/internal/domain"
)

// Client sends best-effort "your post went out" notices. A false return
// never affects the publish outcome.
type Client interface {
	PostPublished(ctx context.Context, toEmail string, platform domain.Platform, preview string) bool
}
