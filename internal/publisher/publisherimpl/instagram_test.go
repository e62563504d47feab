package publisherimpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/postpilot/postpilot/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newInstagram(graphUrl, userId, token string) *Instagram {
	cfg := emptyConfig()
	cfg.Instagram.GraphUrl = graphUrl
	cfg.Instagram.UserId = userId
	cfg.Instagram.AccessToken = token
	return NewInstagram(InstagramOpts{Config: cfg, Logger: testLogger()})
}

func TestInstagramPublish(t *testing.T) {
	t.Run("creates a container then publishes it", func(t *testing.T) {
		var containerCaption, containerImage, publishedCreationId string
		mux := http.NewServeMux()
		mux.HandleFunc("/ig-user/media", func(w http.ResponseWriter, r *http.Request) {
			containerCaption = r.URL.Query().Get("caption")
			containerImage = r.URL.Query().Get("image_url")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "container-1"})
		})
		mux.HandleFunc("/ig-user/media_publish", func(w http.ResponseWriter, r *http.Request) {
			publishedCreationId = r.URL.Query().Get("creation_id")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "media-1"})
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		ig := newInstagram(srv.URL, "ig-user", "token")
		outcome := ig.Publish(context.Background(), testPostWithImage("https://cdn.example.com/pic.jpg"), nil)

		assert.True(t, outcome.Success)
		assert.Equal(t, "media-1", outcome.ExternalPostID)
		assert.Equal(t, "hello from the pipeline", containerCaption)
		assert.Equal(t, "https://cdn.example.com/pic.jpg", containerImage)
		assert.Equal(t, "container-1", publishedCreationId)
	})

	t.Run("container without id fails before publish", func(t *testing.T) {
		var publishCalled bool
		mux := http.NewServeMux()
		mux.HandleFunc("/ig-user/media", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		})
		mux.HandleFunc("/ig-user/media_publish", func(w http.ResponseWriter, r *http.Request) {
			publishCalled = true
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		ig := newInstagram(srv.URL, "ig-user", "token")
		outcome := ig.Publish(context.Background(), testPost(), nil)

		assert.False(t, outcome.Success)
		assert.False(t, publishCalled)
	})

	t.Run("not configured without user id or token", func(t *testing.T) {
		ig := newInstagram("http://127.0.0.1:1", "", "")

		outcome := ig.Publish(context.Background(), testPost(), nil)

		assert.False(t, outcome.Success)
		assert.ErrorIs(t, outcome.Err, errors.ErrNotConfigured)
	})
}
