package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8080"`
		SentryUrl string `env:"SENTRY_URL"`
	}
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT"`
		Host    string `env:"POSTGRES_HOST"`
		User    string `env:"POSTGRES_USER"`
		Pass    string `env:"POSTGRES_PASS"`
		Name    string `env:"POSTGRES_NAME"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	}
	Publisher struct {
		IntervalMinutes   int `env:"PUBLISHER_INTERVAL_MINUTES" env-default:"5"`
		RunTimeoutMinutes int `env:"PUBLISHER_RUN_TIMEOUT_MINUTES" env-default:"10"`
	}
	Mailgun struct {
		ApiKey      string `env:"MAILGUN_API_KEY"`
		Domain      string `env:"MAILGUN_DOMAIN"`
		FromAddress string `env:"MAILGUN_FROM_ADDRESS" env-default:"noreply@example.com"`
		FromName    string `env:"MAILGUN_FROM_NAME" env-default:"PostPilot"`
		BaseUrl     string `env:"MAILGUN_BASE_URL" env-default:"https://api.mailgun.net"`
	}
	LLM struct {
		ApiKey  string `env:"LLM_API_KEY"`
		Model   string `env:"LLM_MODEL" env-default:"gpt-4o-mini"`
		BaseUrl string `env:"LLM_BASE_URL"`
	}
	Bluesky struct {
		Handle      string `env:"BLUESKY_HANDLE"`
		AppPassword string `env:"BLUESKY_APP_PASSWORD"`
		PdsUrl      string `env:"BLUESKY_PDS_URL" env-default:"https://bsky.social"`
	}
	LinkedIn struct {
		AccessToken string `env:"LINKEDIN_ACCESS_TOKEN"`
		PersonUrn   string `env:"LINKEDIN_PERSON_URN"`
		BaseUrl     string `env:"LINKEDIN_BASE_URL" env-default:"https://api.linkedin.com"`
	}
	Facebook struct {
		PageId          string `env:"FACEBOOK_PAGE_ID"`
		PageAccessToken string `env:"FACEBOOK_PAGE_ACCESS_TOKEN"`
		GraphUrl        string `env:"FACEBOOK_GRAPH_URL" env-default:"https://graph.facebook.com/v21.0"`
	}
	Instagram struct {
		UserId      string `env:"INSTAGRAM_USER_ID"`
		AccessToken string `env:"INSTAGRAM_ACCESS_TOKEN"`
		GraphUrl    string `env:"INSTAGRAM_GRAPH_URL" env-default:"https://graph.facebook.com/v21.0"`
	}
	TikTok struct {
		AccessToken string `env:"TIKTOK_ACCESS_TOKEN"`
		BaseUrl     string `env:"TIKTOK_BASE_URL" env-default:"https://open.tiktokapis.com"`
	}
	Skool struct {
		ApiKey    string `env:"SKOOL_API_KEY"`
		SessionId string `env:"SKOOL_SESSION_ID"`
		GroupId   string `env:"SKOOL_GROUP_ID"`
	}
}

var (
	once sync.Once
	cfg  *Config
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			help, _ := cleanenv.GetDescription(cfg, nil)
			log.Fatalf("Failed to read configuration: %v\n%v", err, help)
		}
	})
	return cfg, nil
}

// GetDSN returns the postgres connection string in keyword/value form.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode)
}
