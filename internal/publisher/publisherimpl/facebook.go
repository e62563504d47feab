package publisherimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/publisher"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/errors"
	"github.com/postpilot/postpilot/pkg/logger"
	"go.uber.org/fx"
)

type Facebook struct {
	client *resty.Client
	config *config.Config
	logger logger.Logger
}

type FacebookOpts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func NewFacebook(opts FacebookOpts) *Facebook {
	return &Facebook{
		client: resty.New().SetTimeout(30 * time.Second),
		config: opts.Config,
		logger: opts.Logger.WithComponent("FacebookPublisher"),
	}
}

var _ publisher.Publisher = (*Facebook)(nil)

func (f *Facebook) Platform() domain.Platform {
	return domain.PlatformFacebook
}

// Publish posts to the page feed, or as a photo when the post carries an
// image reference.
func (f *Facebook) Publish(ctx context.Context, post domain.DuePost, credentials map[string]string) publisher.Outcome {
	pageId := credentials["PageId"]
	if pageId == "" {
		pageId = f.config.Facebook.PageId
	}
	pageAccessToken := credentials["PageAccessToken"]
	if pageAccessToken == "" {
		pageAccessToken = f.config.Facebook.PageAccessToken
	}

	if pageId == "" || pageAccessToken == "" {
		f.logger.Warn("Facebook publisher skipped: page id or page access token not configured",
			"post_id", post.ID)
		return publisher.Failed(errors.ErrNotConfigured)
	}

	req := f.client.R().
		SetContext(ctx).
		SetQueryParam("access_token", pageAccessToken).
		SetQueryParam("message", post.Content)

	endpoint := fmt.Sprintf("%s/%s/feed", f.config.Facebook.GraphUrl, pageId)
	if post.ImageURL != nil && *post.ImageURL != "" {
		endpoint = fmt.Sprintf("%s/%s/photos", f.config.Facebook.GraphUrl, pageId)
		req.SetQueryParam("url", *post.ImageURL)
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		f.logger.Error("Facebook HTTP error publishing post", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}
	if resp.IsError() {
		err := fmt.Errorf("graph api returned %s", resp.Status())
		f.logger.Error("Facebook error publishing post", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}

	var externalID string
	var created struct {
		Id     string `json:"id"`
		PostId string `json:"post_id"`
	}
	if err := json.Unmarshal(resp.Body(), &created); err == nil {
		externalID = created.PostId
		if externalID == "" {
			externalID = created.Id
		}
	}

	f.logger.Info("Facebook post published", "post_id", post.ID)
	return publisher.Ok(externalID)
}
