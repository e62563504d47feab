package fx

import (
	"github.com/postpilot/postpilot/internal/repositories/credential"
	"github.com/postpilot/postpilot/internal/repositories/post"
	"github.com/postpilot/postpilot/internal/repositories/publishlog"
	"github.com/postpilot/postpilot/internal/repositories/series"
	"go.uber.org/fx"
)

var Module = fx.Options(
	post.Module,
	publishlog.Module,
	credential.Module,
	series.Module,
)
