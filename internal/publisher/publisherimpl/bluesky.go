package publisherimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/publisher"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/errors"
	"github.com/postpilot/postpilot/pkg/logger"
	"go.uber.org/fx"
)

type Bluesky struct {
	client  *resty.Client
	session *BlueskySessionCache
	config  *config.Config
	clock   clockwork.Clock
	logger  logger.Logger
}

type BlueskyOpts struct {
	fx.In

	Session *BlueskySessionCache
	Config  *config.Config
	Clock   clockwork.Clock
	Logger  logger.Logger
}

func NewBluesky(opts BlueskyOpts) *Bluesky {
	return &Bluesky{
		client:  resty.New().SetTimeout(30 * time.Second),
		session: opts.Session,
		config:  opts.Config,
		clock:   opts.Clock,
		logger:  opts.Logger.WithComponent("BlueskyPublisher"),
	}
}

var _ publisher.Publisher = (*Bluesky)(nil)

func (b *Bluesky) Platform() domain.Platform {
	return domain.PlatformBluesky
}

// Publish creates an app.bsky.feed.post record. Per-user credentials create a
// fresh session; otherwise the cached shared session is used.
func (b *Bluesky) Publish(ctx context.Context, post domain.DuePost, credentials map[string]string) publisher.Outcome {
	pdsUrl := strings.TrimRight(b.config.Bluesky.PdsUrl, "/")
	if override := credentials["PdsUrl"]; override != "" {
		pdsUrl = strings.TrimRight(override, "/")
	}

	var session *blueskySession
	if handle, appPassword := credentials["Handle"], credentials["AppPassword"]; handle != "" && appPassword != "" {
		s, err := createBlueskySession(ctx, b.client, pdsUrl, handle, appPassword)
		if err != nil {
			b.logger.Error("Bluesky createSession failed for per-user credentials",
				"post_id", post.ID, "error", err)
		}
		session = s
	}
	if session == nil {
		session = b.session.GetOrRefresh(ctx)
	}
	if session == nil {
		b.logger.Warn("Bluesky publisher skipped: no session available", "post_id", post.ID)
		return publisher.Failed(errors.ErrNotConfigured)
	}

	record := map[string]any{
		"repo":       session.Did,
		"collection": "app.bsky.feed.post",
		"record": map[string]string{
			"text":      post.Content,
			"createdAt": b.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		},
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetAuthToken(session.AccessJwt).
		SetBody(record).
		Post(pdsUrl + "/xrpc/com.atproto.repo.createRecord")
	if err != nil {
		b.logger.Error("Bluesky HTTP error publishing post", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}
	if resp.IsError() {
		err := fmt.Errorf("createRecord returned %s", resp.Status())
		b.logger.Error("Bluesky error publishing post", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}

	var externalID string
	var body struct {
		Uri string `json:"uri"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		externalID = body.Uri
	}

	b.logger.Info("Bluesky post published", "post_id", post.ID)
	return publisher.Ok(externalID)
}
