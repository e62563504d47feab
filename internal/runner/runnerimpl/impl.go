package runnerimpl

import (
	"github.com/jonboulle/clockwork"
	"github.com/postpilot/postpilot/internal/notifier"
	"github.com/postpilot/postpilot/internal/publisher"
	"github.com/postpilot/postpilot/internal/repositories/credential"
	"github.com/postpilot/postpilot/internal/repositories/post"
	"github.com/postpilot/postpilot/internal/runner"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	PostRepo       post.Repository
	CredentialRepo credential.Repository
	Registry       *publisher.Registry
	Notifier       notifier.Client
	Clock          clockwork.Clock
	Logger         logger.Logger
	Config         *config.Config
}

type RunnerImpl struct {
	PostRepo       post.Repository
	CredentialRepo credential.Repository
	Registry       *publisher.Registry
	Notifier       notifier.Client
	Clock          clockwork.Clock
	Logger         logger.Logger
	Config         *config.Config
}

func New(opts Opts) *RunnerImpl {
	return &RunnerImpl{
		PostRepo:       opts.PostRepo,
		CredentialRepo: opts.CredentialRepo,
		Registry:       opts.Registry,
		Notifier:       opts.Notifier,
		Clock:          opts.Clock,
		Logger:         opts.Logger.WithComponent("PublishRunner"),
		Config:         opts.Config,
	}
}

var _ runner.Client = (*RunnerImpl)(nil)
