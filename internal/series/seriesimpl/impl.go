package seriesimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/generator"
	"github.com/postpilot/postpilot/internal/ratelimit"
	postrepo "github.com/postpilot/postpilot/internal/repositories/post"
	seriesrepo "github.com/postpilot/postpilot/internal/repositories/series"
	"github.com/postpilot/postpilot/internal/series"
	"github.com/postpilot/postpilot/pkg/logger"
	"go.uber.org/fx"
)

const (
	topicSummaryLen = 500

	// Rolling continuity window passed to the model in linked mode.
	continuityWindow = 5
)

type Opts struct {
	fx.In

	Generator  generator.Client
	SeriesRepo seriesrepo.Repository
	PostRepo   postrepo.Repository
	Limiter    ratelimit.Limiter
	Clock      clockwork.Clock
	Logger     logger.Logger
}

type SeriesImpl struct {
	Generator  generator.Client
	SeriesRepo seriesrepo.Repository
	PostRepo   postrepo.Repository
	Limiter    ratelimit.Limiter
	Clock      clockwork.Clock
	Logger     logger.Logger
}

func New(opts Opts) *SeriesImpl {
	return &SeriesImpl{
		Generator:  opts.Generator,
		SeriesRepo: opts.SeriesRepo,
		PostRepo:   opts.PostRepo,
		Limiter:    opts.Limiter,
		Clock:      opts.Clock,
		Logger:     opts.Logger.WithComponent("SeriesService"),
	}
}

var _ series.Client = (*SeriesImpl)(nil)

// Generate produces the whole series in one model call and persists it
func (s *SeriesImpl) Generate(ctx context.Context, userID int64, req domain.GenerateSeriesRequest) (*domain.SeriesResult, error) {
	platform, ok := domain.ParsePlatform(req.Platform)
	if !ok {
		return nil, series.ErrInvalidPlatform
	}
	if !s.Limiter.Allow(userID) {
		return nil, series.ErrRateLimited
	}

	generated, err := s.Generator.GenerateSeries(ctx, generatorOptions(req))
	if err != nil {
		return nil, fmt.Errorf("series generation failed: %w", err)
	}
	if len(generated) == 0 {
		return nil, series.ErrNothingToDo
	}

	seriesID, err := s.createSeriesRow(ctx, userID, req, len(generated))
	if err != nil {
		return nil, err
	}

	result := &domain.SeriesResult{SeriesID: seriesID}
	for i, g := range generated {
		post := s.buildPost(userID, req, platform, i, g)
		id, err := s.PostRepo.Create(ctx, post)
		if err != nil {
			return nil, fmt.Errorf("failed to persist post %d: %w", i+1, err)
		}
		result.PostIDs = append(result.PostIDs, id)
	}

	s.Logger.Info("Series generated", "series_id", seriesID, "posts", len(result.PostIDs))
	return result, nil
}

// GenerateStream produces posts one at a time, persisting each before
// handing it to the sink
func (s *SeriesImpl) GenerateStream(ctx context.Context, userID int64, req domain.GenerateSeriesRequest, onPost series.OnPost) (int64, error) {
	platform, ok := domain.ParsePlatform(req.Platform)
	if !ok {
		return 0, series.ErrInvalidPlatform
	}
	if !s.Limiter.Allow(userID) {
		return 0, series.ErrRateLimited
	}

	seriesID, err := s.createSeriesRow(ctx, userID, req, req.NumPosts)
	if err != nil {
		return 0, err
	}

	opts := generatorOptions(req)
	var previous []string

	for i := 0; i < req.NumPosts; i++ {
		if err := ctx.Err(); err != nil {
			return seriesID, err
		}

		generated, err := s.Generator.GenerateNext(ctx, opts, i+1, previous)
		if err != nil {
			return seriesID, fmt.Errorf("generation failed at post %d: %w", i+1, err)
		}

		post := s.buildPost(userID, req, platform, i, *generated)
		id, err := s.PostRepo.Create(ctx, post)
		if err != nil {
			return seriesID, fmt.Errorf("failed to persist post %d: %w", i+1, err)
		}
		post.ID = id

		if err := onPost(seriesID, &post); err != nil {
			return seriesID, err
		}

		previous = append(previous, generated.Content)
		if len(previous) > continuityWindow {
			previous = previous[len(previous)-continuityWindow:]
		}
	}

	s.Logger.Info("Series stream completed", "series_id", seriesID, "posts", req.NumPosts)
	return seriesID, nil
}

func (s *SeriesImpl) createSeriesRow(ctx context.Context, userID int64, req domain.GenerateSeriesRequest, numPosts int) (int64, error) {
	options, err := json.Marshal(map[string]any{
		"linked":             req.Linked,
		"tone":               req.Tone,
		"length":             req.Length,
		"startDate":          req.StartDate,
		"recurrence":         req.Recurrence,
		"scheduledTimeOfDay": req.ScheduledTimeOfDay,
	})
	if err != nil {
		return 0, err
	}
	optionsJSON := string(options)

	seriesID, err := s.SeriesRepo.Create(ctx, domain.Series{
		UserID:      userID,
		TopicDetail: req.TopicDetail,
		NumPosts:    numPosts,
		Options:     &optionsJSON,
		CreatedAt:   s.Clock.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create series: %w", err)
	}
	return seriesID, nil
}

func (s *SeriesImpl) buildPost(userID int64, req domain.GenerateSeriesRequest, platform domain.Platform, index int, g domain.GeneratedPost) domain.Post {
	now := s.Clock.Now().UTC()

	scheduledAt := ScheduleSlot(req, index)
	status := domain.StatusDraft
	if scheduledAt != nil {
		status = domain.StatusScheduled
	}

	post := domain.Post{
		UserID:       userID,
		TopicSummary: truncate(req.TopicDetail, topicSummaryLen),
		Platform:     platform,
		Status:       status,
		ScheduledAt:  scheduledAt,
		Content:      g.Content,
		Script:       g.Script,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Tone != "" {
		post.Tone = &req.Tone
	}
	if req.Length != "" {
		post.Length = &req.Length
	}
	if g.Hashtags != nil {
		metadata := fmt.Sprintf(`{"hashtags": %s}`, *g.Hashtags)
		post.Metadata = &metadata
	}
	return post
}

// ScheduleSlot computes the scheduled time of item index: start date plus
// time of day plus index intervals. Both the start date and the time of day
// must be present; otherwise the item stays an unscheduled draft.
func ScheduleSlot(req domain.GenerateSeriesRequest, index int) *time.Time {
	if req.StartDate == nil || req.ScheduledTimeOfDay == "" {
		return nil
	}

	timeOfDay, err := time.Parse("15:04", req.ScheduledTimeOfDay)
	if err != nil {
		return nil
	}

	step := 7 * 24 * time.Hour
	if req.Recurrence == domain.RecurrenceDaily {
		step = 24 * time.Hour
	}

	base := req.StartDate.Truncate(24 * time.Hour).
		Add(time.Duration(timeOfDay.Hour())*time.Hour + time.Duration(timeOfDay.Minute())*time.Minute)
	at := base.Add(time.Duration(index) * step)
	return &at
}

func generatorOptions(req domain.GenerateSeriesRequest) generator.Options {
	return generator.Options{
		TopicDetail:                 req.TopicDetail,
		NumPosts:                    req.NumPosts,
		Platform:                    req.Platform,
		Linked:                      req.Linked,
		Tone:                        req.Tone,
		Length:                      req.Length,
		TikTokScriptDurationSeconds: req.TikTokScriptDurationSeconds,
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
