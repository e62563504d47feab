package publisherimpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/postpilot/postpilot/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkedIn(baseUrl, token, personUrn string) *LinkedIn {
	cfg := emptyConfig()
	cfg.LinkedIn.BaseUrl = baseUrl
	cfg.LinkedIn.AccessToken = token
	cfg.LinkedIn.PersonUrn = personUrn
	return NewLinkedIn(LinkedInOpts{Config: cfg, Logger: testLogger()})
}

func ugcBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestLinkedInPublish(t *testing.T) {
	t.Run("text share with configured urn", func(t *testing.T) {
		var author, category string
		mux := http.NewServeMux()
		mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
			body := ugcBody(t, r)
			author = body["author"].(string)
			content := body["specificContent"].(map[string]any)["com.linkedin.ugc.ShareContent"].(map[string]any)
			category = content["shareMediaCategory"].(string)

			w.Header().Set("X-RestLi-Id", "urn:li:share:1")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "urn:li:share:1"})
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		l := newLinkedIn(srv.URL, "token", "urn:li:person:me")
		outcome := l.Publish(context.Background(), testPost(), nil)

		assert.True(t, outcome.Success)
		assert.Equal(t, "urn:li:share:1", outcome.ExternalPostID)
		assert.Equal(t, "urn:li:person:me", author)
		assert.Equal(t, "NONE", category)
	})

	t.Run("missing urn is resolved via the identity endpoint", func(t *testing.T) {
		var author string
		mux := http.NewServeMux()
		mux.HandleFunc("/v2/me", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "resolved-id"})
		})
		mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
			author = ugcBody(t, r)["author"].(string)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "urn:li:share:2"})
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		l := newLinkedIn(srv.URL, "token", "")
		outcome := l.Publish(context.Background(), testPost(), nil)

		assert.True(t, outcome.Success)
		assert.Equal(t, "urn:li:share:2", outcome.ExternalPostID)
		assert.Equal(t, "resolved-id", author)
	})

	t.Run("image share runs the register and upload flow", func(t *testing.T) {
		var uploaded bool
		var category string
		var media []any

		mux := http.NewServeMux()
		var srv *httptest.Server
		mux.HandleFunc("/v2/assets", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "registerUpload", r.URL.Query().Get("action"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": map[string]any{
					"asset": "urn:li:digitalmediaAsset:img-1",
					"uploadMechanism": map[string]any{
						"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest": map[string]string{
							"uploadUrl": srv.URL + "/upload",
						},
					},
				},
			})
		})
		mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			uploaded = true
		})
		mux.HandleFunc("/image.jpg", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("jpeg-bytes"))
		})
		mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
			content := ugcBody(t, r)["specificContent"].(map[string]any)["com.linkedin.ugc.ShareContent"].(map[string]any)
			category = content["shareMediaCategory"].(string)
			media = content["media"].([]any)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "urn:li:share:3"})
		})
		srv = httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		l := newLinkedIn(srv.URL, "token", "urn:li:person:me")
		outcome := l.Publish(context.Background(), testPostWithImage(srv.URL+"/image.jpg"), nil)

		assert.True(t, outcome.Success)
		assert.True(t, uploaded)
		assert.Equal(t, "IMAGE", category)
		require.Len(t, media, 1)
		assert.Equal(t, "urn:li:digitalmediaAsset:img-1", media[0].(map[string]any)["media"])
	})

	t.Run("failed image upload degrades to a text-only share", func(t *testing.T) {
		var category string
		mux := http.NewServeMux()
		mux.HandleFunc("/v2/assets", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream broken", http.StatusInternalServerError)
		})
		mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
			content := ugcBody(t, r)["specificContent"].(map[string]any)["com.linkedin.ugc.ShareContent"].(map[string]any)
			category = content["shareMediaCategory"].(string)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "urn:li:share:4"})
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		l := newLinkedIn(srv.URL, "token", "urn:li:person:me")
		outcome := l.Publish(context.Background(), testPostWithImage("https://cdn.example.com/pic.jpg"), nil)

		assert.True(t, outcome.Success)
		assert.Equal(t, "NONE", category)
	})

	t.Run("not configured without access token", func(t *testing.T) {
		l := newLinkedIn("http://127.0.0.1:1", "", "urn:li:person:me")

		outcome := l.Publish(context.Background(), testPost(), nil)

		assert.False(t, outcome.Success)
		assert.ErrorIs(t, outcome.Err, errors.ErrNotConfigured)
	})
}
