package server

import (
	"net/http"

	"github.com/postpilot/postpilot/internal/repositories/post"
	"github.com/postpilot/postpilot/internal/repositories/publishlog"
	seriesrepo "github.com/postpilot/postpilot/internal/repositories/series"
	"github.com/postpilot/postpilot/internal/runner"
	"github.com/postpilot/postpilot/internal/series"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Runner         runner.Client
	Series         series.Client
	PostRepo       post.Repository
	SeriesRepo     seriesrepo.Repository
	PublishLogRepo publishlog.Repository
	Logger         logger.Logger
	Config         *config.Config
}

type Server struct {
	runner         runner.Client
	series         series.Client
	postRepo       post.Repository
	seriesRepo     seriesrepo.Repository
	publishLogRepo publishlog.Repository
	logger         logger.Logger
	config         *config.Config
}

func New(opts Opts) *Server {
	return &Server{
		runner:         opts.Runner,
		series:         opts.Series,
		postRepo:       opts.PostRepo,
		seriesRepo:     opts.SeriesRepo,
		publishLogRepo: opts.PublishLogRepo,
		logger:         opts.Logger.WithComponent("HttpServer"),
		config:         opts.Config,
	}
}

// Router wires the operator trigger, the series generation surface, and the
// audit log read path.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /api/publish/run", s.handleTriggerPublish)
	mux.HandleFunc("POST /api/series/generate", s.handleGenerateSeries)
	mux.HandleFunc("POST /api/series/generate/stream", s.handleGenerateSeriesStream)
	mux.HandleFunc("GET /api/posts/{id}", s.handleGetPost)
	mux.HandleFunc("GET /api/posts/{id}/logs", s.handlePostLogs)
	mux.HandleFunc("GET /api/series/{id}", s.handleGetSeries)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}
