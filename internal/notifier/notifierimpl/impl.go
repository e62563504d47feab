package notifierimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/notifier"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/logger"
	"github.com/postpilot/postpilot/pkg/retry"
	"go.uber.org/fx"
)

type Mailgun struct {
	client *resty.Client
	config *config.Config
	logger logger.Logger
}

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

func New(opts Opts) *Mailgun {
	return &Mailgun{
		client: resty.New().SetTimeout(15 * time.Second),
		config: opts.Config,
		logger: opts.Logger.WithComponent("MailgunNotifier"),
	}
}

var _ notifier.Client = (*Mailgun)(nil)

// PostPublished emails the owner that their scheduled post went out. Missing
// Mailgun configuration or a send failure only means no notice; it is never
// an error for the caller.
func (m *Mailgun) PostPublished(ctx context.Context, toEmail string, platform domain.Platform, preview string) bool {
	if m.config.Mailgun.ApiKey == "" || m.config.Mailgun.Domain == "" {
		return false
	}

	form := map[string]string{
		"from":    fmt.Sprintf("%s <%s>", m.config.Mailgun.FromName, m.config.Mailgun.FromAddress),
		"to":      toEmail,
		"subject": fmt.Sprintf("Your post was published on %s", platform),
		"text":    fmt.Sprintf("Your scheduled post was published on %s.\n\nPreview:\n%s", platform, preview),
	}

	url := fmt.Sprintf("%s/v3/%s/messages", m.config.Mailgun.BaseUrl, m.config.Mailgun.Domain)

	send := func() error {
		resp, err := m.client.R().
			SetContext(ctx).
			SetBasicAuth("api", m.config.Mailgun.ApiKey).
			SetFormData(form).
			Post(url)
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("mailgun returned %s", resp.Status())
		}
		return nil
	}

	cfg := retry.DefaultConfig()
	cfg.MaxRetries = 2
	if err := retry.Do(ctx, m.logger, "mailgun send", send, cfg); err != nil {
		m.logger.Warn("Failed to send publish notification", "to", toEmail, "error", err)
		return false
	}

	m.logger.Info("Publish notification sent", "to", toEmail, "platform", platform)
	return true
}
