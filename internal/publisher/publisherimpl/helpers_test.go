package publisherimpl

import (
	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.New(logger.Opts{})
}

func testPost() domain.DuePost {
	return domain.DuePost{
		ID:      42,
		UserID:  1,
		Content: "hello from the pipeline",
	}
}

func testPostWithImage(url string) domain.DuePost {
	p := testPost()
	p.ImageURL = &url
	return p
}

func emptyConfig() *config.Config {
	return &config.Config{}
}
