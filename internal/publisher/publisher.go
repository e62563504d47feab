package publisher

import (
	"context"

	"github.com/postpilot/postpilot/internal/domain"
)

// Outcome is the transient result of one publish attempt. Expected failures
// (missing configuration, vendor rejection) are carried in Err; they never
// surface as panics or aborts.
type Outcome struct {
	Success        bool
	ExternalPostID string
	Err            error
}

func Ok(externalPostID string) Outcome {
	return Outcome{Success: true, ExternalPostID: externalPostID}
}

func Failed(err error) Outcome {
	return Outcome{Success: false, Err: err}
}

// Publisher is the uniform capability implemented once per platform.
// Credentials may be nil; each implementation decides whether to fall back to
// process configuration or fail with a not-configured outcome.
type Publisher interface {
	Platform() domain.Platform
	Publish(ctx context.Context, post domain.DuePost, credentials map[string]string) Outcome
}

// Registry maps platforms to their publisher. A missing entry is a per-post
// failure, not a run failure.
type Registry struct {
	byPlatform map[domain.Platform]Publisher
}

func NewRegistry(publishers ...Publisher) *Registry {
	m := make(map[domain.Platform]Publisher, len(publishers))
	for _, p := range publishers {
		m[p.Platform()] = p
	}
	return &Registry{byPlatform: m}
}

// For returns the publisher registered for the platform, or nil.
func (r *Registry) For(platform domain.Platform) Publisher {
	return r.byPlatform[platform]
}
