package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/postpilot/postpilot/internal/generator"
	"github.com/postpilot/postpilot/internal/generator/generatorimpl"
	"github.com/postpilot/postpilot/internal/notifier"
	"github.com/postpilot/postpilot/internal/notifier/notifierimpl"
	"github.com/postpilot/postpilot/internal/publisher/publisherimpl"
	"github.com/postpilot/postpilot/internal/ratelimit"
	repositories "github.com/postpilot/postpilot/internal/repositories/fx"
	"github.com/postpilot/postpilot/internal/runner"
	"github.com/postpilot/postpilot/internal/runner/runnerimpl"
	"github.com/postpilot/postpilot/internal/series"
	"github.com/postpilot/postpilot/internal/series/seriesimpl"
	"github.com/postpilot/postpilot/internal/server"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/logger"
	"github.com/postpilot/postpilot/pkg/pgx"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"

	_ "github.com/postpilot/postpilot/internal/migrations"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
		server.New,
		func() clockwork.Clock {
			return clockwork.NewRealClock()
		},
		func() ratelimit.Limiter {
			return ratelimit.NewInMemoryLimiter(10, time.Hour, 3)
		},
	),
	fx.Provide(
		fx.Annotate(
			notifierimpl.New,
			fx.As(new(notifier.Client)),
		), fx.Annotate(
			generatorimpl.New,
			fx.As(new(generator.Client)),
		), fx.Annotate(
			runnerimpl.New,
			fx.As(new(runner.Client)),
		),
		fx.Annotate(
			seriesimpl.New,
			fx.As(new(series.Client)),
		),
	),
	repositories.Module,
	publisherimpl.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

func migrate(c *config.Config) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", c.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	return goose.Up(db, filepath.Join(wd, "internal", "migrations"))
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, runnerClient runner.Client, srv *server.Server) {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: srv.Router(),
	}

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info(fmt.Sprintf("Starting server on :%d", cfg.App.Port))
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("Server failed to start", "error", err)
				}
			}()

			if err := runnerClient.ScheduleRuns(runCtx); err != nil {
				log.Error("Failed to schedule publish runs", "error", err)
				return err
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return httpServer.Shutdown(ctx)
		},
	})
}
