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

type LinkedIn struct {
	client *resty.Client
	config *config.Config
	logger logger.Logger
}

type LinkedInOpts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func NewLinkedIn(opts LinkedInOpts) *LinkedIn {
	return &LinkedIn{
		client: resty.New().
			SetTimeout(60 * time.Second).
			SetHeader("X-Restli-Protocol-Version", "2.0.0"),
		config: opts.Config,
		logger: opts.Logger.WithComponent("LinkedInPublisher"),
	}
}

var _ publisher.Publisher = (*LinkedIn)(nil)

func (l *LinkedIn) Platform() domain.Platform {
	return domain.PlatformLinkedIn
}

// Publish creates a ugcPosts share, resolving the acting identity via /v2/me
// when no person URN is supplied. Image upload failure degrades to a
// text-only share.
func (l *LinkedIn) Publish(ctx context.Context, post domain.DuePost, credentials map[string]string) publisher.Outcome {
	accessToken := credentials["AccessToken"]
	if accessToken == "" {
		accessToken = l.config.LinkedIn.AccessToken
	}
	personUrn := credentials["PersonUrn"]
	if personUrn == "" {
		personUrn = l.config.LinkedIn.PersonUrn
	}

	if accessToken == "" {
		l.logger.Warn("LinkedIn publisher skipped: access token not configured", "post_id", post.ID)
		return publisher.Failed(errors.ErrNotConfigured)
	}

	baseUrl := l.config.LinkedIn.BaseUrl

	if personUrn == "" {
		var me struct {
			Id string `json:"id"`
		}
		resp, err := l.client.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			SetResult(&me).
			Get(baseUrl + "/v2/me")
		if err != nil {
			l.logger.Error("LinkedIn HTTP error resolving identity", "post_id", post.ID, "error", err)
			return publisher.Failed(err)
		}
		if resp.IsError() || me.Id == "" {
			err := fmt.Errorf("/v2/me returned %s without an id", resp.Status())
			l.logger.Error("LinkedIn error resolving identity", "post_id", post.ID, "error", err)
			return publisher.Failed(err)
		}
		personUrn = me.Id
	}

	var mediaUrn string
	if post.ImageURL != nil && *post.ImageURL != "" {
		urn, err := l.uploadImage(ctx, accessToken, personUrn, *post.ImageURL)
		if err != nil {
			l.logger.Warn("LinkedIn image upload failed, posting text only",
				"post_id", post.ID, "error", err)
		}
		mediaUrn = urn
	}

	shareMediaCategory := "NONE"
	media := []map[string]any{}
	if mediaUrn != "" {
		shareMediaCategory = "IMAGE"
		media = append(media, map[string]any{
			"media":  mediaUrn,
			"status": "READY",
			"title":  map[string]any{"attributes": []any{}, "text": "Image"},
		})
	}

	body := map[string]any{
		"author":         personUrn,
		"lifecycleState": "PUBLISHED",
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]any{"attributes": []any{}, "text": post.Content},
				"shareMediaCategory": shareMediaCategory,
				"media":              media,
			},
		},
	}

	resp, err := l.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(body).
		Post(baseUrl + "/v2/ugcPosts")
	if err != nil {
		l.logger.Error("LinkedIn HTTP error publishing post", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}
	if resp.IsError() {
		err := fmt.Errorf("ugcPosts returned %s", resp.Status())
		l.logger.Error("LinkedIn error publishing post", "post_id", post.ID, "error", err)
		return publisher.Failed(err)
	}

	externalID := resp.Header().Get("X-RestLi-Id")
	if externalID == "" {
		var created struct {
			Id string `json:"id"`
		}
		if err := json.Unmarshal(resp.Body(), &created); err == nil {
			externalID = created.Id
		}
	}

	l.logger.Info("LinkedIn post published", "post_id", post.ID)
	return publisher.Ok(externalID)
}

// uploadImage runs LinkedIn's two-step register/PUT upload and returns the
// asset URN.
func (l *LinkedIn) uploadImage(ctx context.Context, accessToken, ownerUrn, imageUrl string) (string, error) {
	registerBody := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   ownerUrn,
			"serviceRelationships": []map[string]string{
				{"relationshipType": "OWNER", "identifier": "urn:li:userGeneratedContent"},
			},
		},
	}

	resp, err := l.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(registerBody).
		Post(l.config.LinkedIn.BaseUrl + "/v2/assets?action=registerUpload")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("registerUpload returned %s", resp.Status())
	}

	var register struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism struct {
				MediaUploadHttpRequest struct {
					UploadUrl string `json:"uploadUrl"`
				} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.Unmarshal(resp.Body(), &register); err != nil {
		return "", err
	}
	uploadUrl := register.Value.UploadMechanism.MediaUploadHttpRequest.UploadUrl
	if uploadUrl == "" || register.Value.Asset == "" {
		return "", fmt.Errorf("registerUpload response missing uploadUrl or asset")
	}

	imageResp, err := l.client.R().SetContext(ctx).Get(imageUrl)
	if err != nil {
		return "", err
	}
	if imageResp.IsError() {
		return "", fmt.Errorf("image fetch returned %s", imageResp.Status())
	}

	uploadResp, err := l.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(imageResp.Body()).
		Put(uploadUrl)
	if err != nil {
		return "", err
	}
	if uploadResp.IsError() {
		return "", fmt.Errorf("image upload returned %s", uploadResp.Status())
	}

	return register.Value.Asset, nil
}
