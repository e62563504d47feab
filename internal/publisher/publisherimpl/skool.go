package publisherimpl

import (
	"context"

	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/publisher"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/errors"
	"github.com/postpilot/postpilot/pkg/logger"
	"go.uber.org/fx"
)

// Skool's public API only documents listing posts. Until a create-post
// endpoint ships, every attempt fails with a not-implemented outcome. The
// Skool config keys (api key, session id, group id) are reserved for that
// endpoint.
type Skool struct {
	config *config.Config
	logger logger.Logger
}

type SkoolOpts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func NewSkool(opts SkoolOpts) *Skool {
	return &Skool{
		config: opts.Config,
		logger: opts.Logger.WithComponent("SkoolPublisher"),
	}
}

var _ publisher.Publisher = (*Skool)(nil)

func (s *Skool) Platform() domain.Platform {
	return domain.PlatformSkool
}

func (s *Skool) Publish(ctx context.Context, post domain.DuePost, credentials map[string]string) publisher.Outcome {
	s.logger.Warn("Skool has no create-post API; post skipped", "post_id", post.ID)
	return publisher.Failed(errors.ErrNotImplemented)
}
