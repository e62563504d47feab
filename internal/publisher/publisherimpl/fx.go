package publisherimpl

import (
	"github.com/postpilot/postpilot/internal/publisher"
	"go.uber.org/fx"
)

var Module = fx.Module("publishers",
	fx.Provide(
		NewBlueskySessionCache,
		fx.Annotate(NewBluesky, fx.As(new(publisher.Publisher)), fx.ResultTags(`group:"publishers"`)),
		fx.Annotate(NewLinkedIn, fx.As(new(publisher.Publisher)), fx.ResultTags(`group:"publishers"`)),
		fx.Annotate(NewFacebook, fx.As(new(publisher.Publisher)), fx.ResultTags(`group:"publishers"`)),
		fx.Annotate(NewInstagram, fx.As(new(publisher.Publisher)), fx.ResultTags(`group:"publishers"`)),
		fx.Annotate(NewTikTok, fx.As(new(publisher.Publisher)), fx.ResultTags(`group:"publishers"`)),
		fx.Annotate(NewSkool, fx.As(new(publisher.Publisher)), fx.ResultTags(`group:"publishers"`)),
		fx.Annotate(
			func(publishers []publisher.Publisher) *publisher.Registry {
				return publisher.NewRegistry(publishers...)
			},
			fx.ParamTags(`group:"publishers"`),
		),
	),
)
