package generator

import (
	"context"

	"github.com/postpilot/postpilot/internal/domain"
)

// Options carries everything the model needs to write one series.
type Options struct {
	TopicDetail                 string
	NumPosts                    int
	Platform                    string
	Linked                      bool
	Tone                        string
	Length                      string
	TikTokScriptDurationSeconds int
}

type Client interface {
	// GenerateSeries produces the whole batch in one model call
	GenerateSeries(ctx context.Context, opts Options) ([]domain.GeneratedPost, error)

	// GenerateNext produces item index (1-based) of the series. previous
	// carries earlier contents for continuity when opts.Linked is set.
	GenerateNext(ctx context.Context, opts Options, index int, previous []string) (*domain.GeneratedPost, error)
}
