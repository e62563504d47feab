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

type Instagram struct {
	client *resty.Client
	config *config.Config
	logger logger.Logger
}

type InstagramOpts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func NewInstagram(opts InstagramOpts) *Instagram {
	return &Instagram{
		client: resty.New().SetTimeout(30 * time.Second),
		config: opts.Config,
		logger: opts.Logger.WithComponent("InstagramPublisher"),
	}
}

var _ publisher.Publisher = (*Instagram)(nil)

func (i *Instagram) Platform() domain.Platform {
	return domain.PlatformInstagram
}

// Publish runs the Graph API two-step flow: create a media container, then
// publish it. The published media id becomes the external post id.
func (i *Instagram) Publish(ctx context.Context, post domain.DuePost, credentials map[string]string) publisher.Outcome {
	userId := credentials["UserId"]
	if userId == "" {
		userId = i.config.Instagram.UserId
	}
	accessToken := credentials["AccessToken"]
	if accessToken == "" {
		accessToken = i.config.Instagram.AccessToken
	}

	if userId == "" || accessToken == "" {
		i.logger.Warn("Instagram publisher skipped: user id or access token not configured",
			"post_id", post.ID)
		return publisher.Failed(errors.ErrNotConfigured)
	}

	containerReq := i.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("caption", post.Content)
	if post.ImageURL != nil && *post.ImageURL != "" {
		containerReq.SetQueryParam("image_url", *post.ImageURL)
	}

	containerResp, err := containerReq.Post(fmt.Sprintf("%s/%s/media", i.config.Instagram.GraphUrl, userId))
	if err != nil {
		i.logger.Error("Instagram HTTP error creating container", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}
	if containerResp.IsError() {
		err := fmt.Errorf("media container returned %s", containerResp.Status())
		i.logger.Error("Instagram error creating container", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}

	var container struct {
		Id string `json:"id"`
	}
	if err := json.Unmarshal(containerResp.Body(), &container); err != nil || container.Id == "" {
		i.logger.Error("Instagram container response missing id", "post_id", post.ID)
		return publisher.Failed(fmt.Errorf("container response missing id"))
	}

	publishResp, err := i.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("creation_id", container.Id).
		Post(fmt.Sprintf("%s/%s/media_publish", i.config.Instagram.GraphUrl, userId))
	if err != nil {
		i.logger.Error("Instagram HTTP error publishing media", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}
	if publishResp.IsError() {
		err := fmt.Errorf("media_publish returned %s", publishResp.Status())
		i.logger.Error("Instagram error publishing media", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}

	var externalID string
	var published struct {
		Id string `json:"id"`
	}
	if err := json.Unmarshal(publishResp.Body(), &published); err == nil {
		externalID = published.Id
	}

	i.logger.Info("Instagram post published", "post_id", post.ID)
	return publisher.Ok(externalID)
}
