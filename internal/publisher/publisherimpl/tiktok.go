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

const (
	tiktokPollInterval = 2 * time.Second
	tiktokMaxPolls     = 60
)

type TikTok struct {
	client *resty.Client
	config *config.Config
	logger logger.Logger

	pollInterval time.Duration
	maxPolls     int
}

type TikTokOpts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func NewTikTok(opts TikTokOpts) *TikTok {
	return &TikTok{
		client:       resty.New().SetTimeout(30 * time.Second),
		config:       opts.Config,
		logger:       opts.Logger.WithComponent("TikTokPublisher"),
		pollInterval: tiktokPollInterval,
		maxPolls:     tiktokMaxPolls,
	}
}

var _ publisher.Publisher = (*TikTok)(nil)

func (t *TikTok) Platform() domain.Platform {
	return domain.PlatformTikTok
}

type tiktokInitResponse struct {
	Data struct {
		PublishId string `json:"publish_id"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type tiktokStatusResponse struct {
	Data struct {
		Status     string `json:"status"`
		VideoId    string `json:"video_id"`
		FailReason string `json:"fail_reason"`
	} `json:"data"`
}

// Publish initializes an inbox video publish from a reachable video URL and
// polls the status endpoint until a terminal state or the attempt budget
// runs out.
func (t *TikTok) Publish(ctx context.Context, post domain.DuePost, credentials map[string]string) publisher.Outcome {
	accessToken := credentials["AccessToken"]
	if accessToken == "" {
		accessToken = t.config.TikTok.AccessToken
	}
	if accessToken == "" {
		t.logger.Warn("TikTok publisher skipped: access token not configured", "post_id", post.ID)
		return publisher.Failed(errors.ErrNotConfigured)
	}

	videoUrl := videoUrlFor(post)
	if videoUrl == "" {
		t.logger.Warn("TikTok requires a video URL in metadata or the image reference",
			"post_id", post.ID)
		return publisher.Failed(errors.New("no video url for tiktok post"))
	}

	initBody := map[string]any{
		"source_info": map[string]string{
			"source":    "PULL_FROM_URL",
			"video_url": videoUrl,
		},
	}

	var initResult tiktokInitResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(initBody).
		SetResult(&initResult).
		Post(t.config.TikTok.BaseUrl + "/v2/post/publish/inbox/video/init/")
	if err != nil {
		t.logger.Error("TikTok HTTP error initializing publish", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}
	if resp.IsError() {
		err := fmt.Errorf("publish init returned %s", resp.Status())
		t.logger.Error("TikTok error initializing publish", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}
	if initResult.Error.Code != "" && initResult.Error.Code != "ok" {
		err := fmt.Errorf("publish init failed: %s", initResult.Error.Message)
		t.logger.Error("TikTok init failed", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}
	if initResult.Data.PublishId == "" {
		err := fmt.Errorf("publish init response missing publish_id")
		t.logger.Error("TikTok init response missing publish_id", "post_id", post.ID)
		return publisher.Failed(err)
	}

	publishId := initResult.Data.PublishId

	for attempt := 0; attempt < t.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return publisher.Failed(ctx.Err())
		case <-time.After(t.pollInterval):
		}

		var status tiktokStatusResponse
		statusResp, err := t.client.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			SetBody(map[string]string{"publish_id": publishId}).
			SetResult(&status).
			Post(t.config.TikTok.BaseUrl + "/v2/post/publish/status/fetch/")
		if err != nil {
			t.logger.Error("TikTok HTTP error fetching status", "post_id", post.ID, "error", err)
			return publisher.Failed(err)
		}
		if statusResp.IsError() {
			err := fmt.Errorf("status fetch returned %s", statusResp.Status())
			t.logger.Error("TikTok error fetching status", "post_id", post.ID, "error", err)
			return publisher.Failed(err)
		}

		externalID := status.Data.VideoId
		if externalID == "" {
			externalID = publishId
		}

		switch status.Data.Status {
		case "SEND_TO_USER_INBOX", "PUBLISH_COMPLETE":
			t.logger.Info("TikTok post published", "post_id", post.ID)
			return publisher.Ok(externalID)
		case "FAILED":
			reason := status.Data.FailReason
			if reason == "" {
				reason = "unknown"
			}
			err := fmt.Errorf("publish failed: %s", reason)
			t.logger.Error("TikTok publish failed", "post_id", post.ID, "reason", reason)
			return publisher.Failed(err)
		case "PROCESSING_DOWNLOAD", "PROCESSING_UPLOAD":
			continue
		default:
			t.logger.Warn("TikTok unknown publish status", "post_id", post.ID, "status", status.Data.Status)
		}
	}

	err = fmt.Errorf("publish timed out after %d status checks", t.maxPolls)
	t.logger.Error("TikTok publish timed out", "post_id", post.ID)
	return publisher.Failed(err)
}

// videoUrlFor prefers a video_url in the post metadata and falls back to the
// image reference field.
func videoUrlFor(post domain.DuePost) string {
	if post.Metadata != nil && *post.Metadata != "" {
		var meta struct {
			VideoUrl string `json:"video_url"`
		}
		if err := json.Unmarshal([]byte(*post.Metadata), &meta); err == nil && meta.VideoUrl != "" {
			return meta.VideoUrl
		}
	}
	if post.ImageURL != nil {
		return *post.ImageURL
	}
	return ""
}
