package publisherimpl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/logger"
	"go.uber.org/fx"
)

// Bluesky access tokens live about an hour; refresh with some margin.
const blueskySessionTTL = 55 * time.Minute

type blueskySession struct {
	AccessJwt string
	Did       string
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	Did       string `json:"did"`
}

// BlueskySessionCache holds the process-wide Bluesky session created from the
// configured handle and app password, guarded by a mutex and refreshed on
// expiry. Per-user credentials bypass the cache entirely.
type BlueskySessionCache struct {
	client *resty.Client
	config *config.Config
	clock  clockwork.Clock
	logger logger.Logger

	mu        sync.Mutex
	cached    *blueskySession
	expiresAt time.Time
}

type BlueskySessionOpts struct {
	fx.In

	Config *config.Config
	Clock  clockwork.Clock
	Logger logger.Logger
}

func NewBlueskySessionCache(opts BlueskySessionOpts) *BlueskySessionCache {
	return &BlueskySessionCache{
		client: resty.New().SetTimeout(30 * time.Second),
		config: opts.Config,
		clock:  opts.Clock,
		logger: opts.Logger.WithComponent("BlueskySession"),
	}
}

// GetOrRefresh returns a valid shared session, creating one if the cache is
// empty or expired. Returns nil when the process-wide handle and app password
// are not configured or the exchange fails.
func (c *BlueskySessionCache) GetOrRefresh(ctx context.Context) *blueskySession {
	handle := c.config.Bluesky.Handle
	appPassword := c.config.Bluesky.AppPassword
	if handle == "" || appPassword == "" {
		return nil
	}

	c.mu.Lock()
	if c.cached != nil && c.clock.Now().Before(c.expiresAt) {
		session := c.cached
		c.mu.Unlock()
		return session
	}
	c.mu.Unlock()

	session, err := createBlueskySession(ctx, c.client, c.config.Bluesky.PdsUrl, handle, appPassword)
	if err != nil {
		c.logger.Error("Bluesky createSession failed", "error", err)
		return nil
	}

	c.mu.Lock()
	c.cached = session
	c.expiresAt = c.clock.Now().Add(blueskySessionTTL)
	c.mu.Unlock()

	return session
}

func createBlueskySession(ctx context.Context, client *resty.Client, pdsUrl, identifier, password string) (*blueskySession, error) {
	var result createSessionResponse
	resp, err := client.R().
		SetContext(ctx).
		SetBody(map[string]string{"identifier": identifier, "password": password}).
		SetResult(&result).
		Post(strings.TrimRight(pdsUrl, "/") + "/xrpc/com.atproto.server.createSession")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("createSession returned %s", resp.Status())
	}
	if result.AccessJwt == "" || result.Did == "" {
		return nil, fmt.Errorf("createSession response missing accessJwt or did")
	}
	return &blueskySession{AccessJwt: result.AccessJwt, Did: result.Did}, nil
}
