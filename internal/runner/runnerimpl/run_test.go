package runnerimpl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/publisher"
	postrepo "github.com/postpilot/postpilot/internal/repositories/post"
	"github.com/postpilot/postpilot/pkg/config"
	"github.com/postpilot/postpilot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostRepo struct {
	due        []domain.DuePost
	dueErr     error
	claimFalse map[int64]bool
	claimErr   map[int64]error

	claimed       []int64
	recorded      []domain.PublishRecord
	recordCtxErrs []error

	recordErr map[int64]error
}

func (r *fakePostRepo) Create(_ context.Context, _ domain.Post) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *fakePostRepo) GetByID(_ context.Context, _ int64) (*domain.Post, error) {
	return nil, errors.New("not implemented")
}

func (r *fakePostRepo) GetDue(_ context.Context, _ time.Time) ([]domain.DuePost, error) {
	return r.due, r.dueErr
}

func (r *fakePostRepo) Claim(_ context.Context, id int64, _ time.Time) (bool, error) {
	if err := r.claimErr[id]; err != nil {
		return false, err
	}
	if r.claimFalse[id] {
		return false, nil
	}
	r.claimed = append(r.claimed, id)
	return true, nil
}

func (r *fakePostRepo) RecordOutcome(ctx context.Context, rec domain.PublishRecord) error {
	if err := r.recordErr[rec.PostID]; err != nil {
		return err
	}
	r.recorded = append(r.recorded, rec)
	r.recordCtxErrs = append(r.recordCtxErrs, ctx.Err())
	return nil
}

type fakeCredentialRepo struct {
	creds map[int64]map[string]string
	err   error
}

func (r *fakeCredentialRepo) Get(_ context.Context, userID int64, _ domain.Platform) (map[string]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.creds[userID], nil
}

type stubPublisher struct {
	platform domain.Platform
	publish  func(ctx context.Context, post domain.DuePost, creds map[string]string) publisher.Outcome

	calls []domain.DuePost
}

func (p *stubPublisher) Platform() domain.Platform { return p.platform }

func (p *stubPublisher) Publish(ctx context.Context, post domain.DuePost, creds map[string]string) publisher.Outcome {
	p.calls = append(p.calls, post)
	return p.publish(ctx, post, creds)
}

type fakeNotifier struct {
	ok    bool
	sent  []string
	calls int
}

func (n *fakeNotifier) PostPublished(_ context.Context, toEmail string, _ domain.Platform, _ string) bool {
	n.calls++
	n.sent = append(n.sent, toEmail)
	return n.ok
}

func newTestRunner(repo *fakePostRepo, creds *fakeCredentialRepo, notif *fakeNotifier, pubs ...publisher.Publisher) *RunnerImpl {
	return New(Opts{
		PostRepo:       repo,
		CredentialRepo: creds,
		Registry:       publisher.NewRegistry(pubs...),
		Notifier:       notif,
		Clock:          clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		Logger:         logger.New(logger.Opts{}),
		Config:         &config.Config{},
	})
}

func duePost(id int64, platform domain.Platform) domain.DuePost {
	return domain.DuePost{
		ID:        id,
		UserID:    1,
		Content:   "some content",
		Platform:  platform,
		UserEmail: "user@example.com",
	}
}

func okPublisher(platform domain.Platform) *stubPublisher {
	return &stubPublisher{
		platform: platform,
		publish: func(context.Context, domain.DuePost, map[string]string) publisher.Outcome {
			return publisher.Ok("ext-1")
		},
	}
}

func TestRun(t *testing.T) {
	t.Run("no due posts is a no-op", func(t *testing.T) {
		repo := &fakePostRepo{}
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true})

		require.NoError(t, r.Run(context.Background()))
		assert.Empty(t, repo.recorded)
	})

	t.Run("successful publish records a published outcome", func(t *testing.T) {
		repo := &fakePostRepo{due: []domain.DuePost{duePost(1, domain.PlatformBluesky)}}
		notif := &fakeNotifier{ok: true}
		r := newTestRunner(repo, &fakeCredentialRepo{}, notif, okPublisher(domain.PlatformBluesky))

		require.NoError(t, r.Run(context.Background()))

		require.Len(t, repo.recorded, 1)
		rec := repo.recorded[0]
		assert.True(t, rec.Succeeded)
		require.NotNil(t, rec.ExternalPostID)
		assert.Equal(t, "ext-1", *rec.ExternalPostID)
		assert.NotNil(t, rec.NotifiedAt)
		assert.Equal(t, []string{"user@example.com"}, notif.sent)
	})

	t.Run("failed publish records a failed outcome with the message", func(t *testing.T) {
		repo := &fakePostRepo{due: []domain.DuePost{duePost(1, domain.PlatformBluesky)}}
		notif := &fakeNotifier{ok: true}
		failing := &stubPublisher{
			platform: domain.PlatformBluesky,
			publish: func(context.Context, domain.DuePost, map[string]string) publisher.Outcome {
				return publisher.Failed(errors.New("vendor rejected the post"))
			},
		}
		r := newTestRunner(repo, &fakeCredentialRepo{}, notif, failing)

		require.NoError(t, r.Run(context.Background()))

		require.Len(t, repo.recorded, 1)
		rec := repo.recorded[0]
		assert.False(t, rec.Succeeded)
		require.NotNil(t, rec.ErrorMessage)
		assert.Equal(t, "vendor rejected the post", *rec.ErrorMessage)
		assert.Nil(t, rec.NotifiedAt)
		assert.Zero(t, notif.calls)
	})

	t.Run("one platform failure never blocks the others", func(t *testing.T) {
		repo := &fakePostRepo{due: []domain.DuePost{
			duePost(1, domain.PlatformLinkedIn),
			duePost(2, domain.PlatformBluesky),
		}}
		failing := &stubPublisher{
			platform: domain.PlatformLinkedIn,
			publish: func(context.Context, domain.DuePost, map[string]string) publisher.Outcome {
				return publisher.Failed(errors.New("linkedin is down"))
			},
		}
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true},
			failing, okPublisher(domain.PlatformBluesky))

		require.NoError(t, r.Run(context.Background()))

		require.Len(t, repo.recorded, 2)
		assert.False(t, repo.recorded[0].Succeeded)
		assert.True(t, repo.recorded[1].Succeeded)
	})

	t.Run("missing publisher records a failure", func(t *testing.T) {
		repo := &fakePostRepo{due: []domain.DuePost{duePost(1, domain.PlatformTikTok)}}
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true})

		require.NoError(t, r.Run(context.Background()))

		require.Len(t, repo.recorded, 1)
		assert.False(t, repo.recorded[0].Succeeded)
		require.NotNil(t, repo.recorded[0].ErrorMessage)
		assert.Contains(t, *repo.recorded[0].ErrorMessage, "no publisher registered")
	})

	t.Run("publisher panic records a failure", func(t *testing.T) {
		repo := &fakePostRepo{due: []domain.DuePost{duePost(1, domain.PlatformBluesky)}}
		panicking := &stubPublisher{
			platform: domain.PlatformBluesky,
			publish: func(context.Context, domain.DuePost, map[string]string) publisher.Outcome {
				panic("boom")
			},
		}
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true}, panicking)

		require.NoError(t, r.Run(context.Background()))

		require.Len(t, repo.recorded, 1)
		assert.False(t, repo.recorded[0].Succeeded)
		require.NotNil(t, repo.recorded[0].ErrorMessage)
		assert.Contains(t, *repo.recorded[0].ErrorMessage, "panicked")
	})

	t.Run("notification failure does not change the outcome", func(t *testing.T) {
		repo := &fakePostRepo{due: []domain.DuePost{duePost(1, domain.PlatformBluesky)}}
		notif := &fakeNotifier{ok: false}
		r := newTestRunner(repo, &fakeCredentialRepo{}, notif, okPublisher(domain.PlatformBluesky))

		require.NoError(t, r.Run(context.Background()))

		require.Len(t, repo.recorded, 1)
		assert.True(t, repo.recorded[0].Succeeded)
		assert.Nil(t, repo.recorded[0].NotifiedAt)
	})

	t.Run("unclaimed post is skipped", func(t *testing.T) {
		repo := &fakePostRepo{
			due:        []domain.DuePost{duePost(1, domain.PlatformBluesky), duePost(2, domain.PlatformBluesky)},
			claimFalse: map[int64]bool{1: true},
		}
		pub := okPublisher(domain.PlatformBluesky)
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true}, pub)

		require.NoError(t, r.Run(context.Background()))

		assert.Equal(t, []int64{2}, repo.claimed)
		require.Len(t, repo.recorded, 1)
		assert.Equal(t, int64(2), repo.recorded[0].PostID)
	})

	t.Run("concurrent resolution is tolerated", func(t *testing.T) {
		repo := &fakePostRepo{
			due:       []domain.DuePost{duePost(1, domain.PlatformBluesky), duePost(2, domain.PlatformBluesky)},
			recordErr: map[int64]error{1: postrepo.ErrNotDue},
		}
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true},
			okPublisher(domain.PlatformBluesky))

		require.NoError(t, r.Run(context.Background()))

		require.Len(t, repo.recorded, 1)
		assert.Equal(t, int64(2), repo.recorded[0].PostID)
	})

	t.Run("record failure surfaces but later posts still run", func(t *testing.T) {
		repo := &fakePostRepo{
			due:       []domain.DuePost{duePost(1, domain.PlatformBluesky), duePost(2, domain.PlatformBluesky)},
			recordErr: map[int64]error{1: errors.New("db connection lost")},
		}
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true},
			okPublisher(domain.PlatformBluesky))

		err := r.Run(context.Background())
		require.Error(t, err)
		require.Len(t, repo.recorded, 1)
		assert.Equal(t, int64(2), repo.recorded[0].PostID)
	})

	t.Run("cancellation after a completed publish still records it", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		repo := &fakePostRepo{due: []domain.DuePost{
			duePost(1, domain.PlatformBluesky),
			duePost(2, domain.PlatformBluesky),
		}}
		cancelling := &stubPublisher{
			platform: domain.PlatformBluesky,
			publish: func(context.Context, domain.DuePost, map[string]string) publisher.Outcome {
				cancel()
				return publisher.Ok("ext-1")
			},
		}
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true}, cancelling)

		err := r.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)

		// The first post already went out, so its outcome lands under a
		// detached context; the second post is never attempted.
		require.Len(t, repo.recorded, 1)
		assert.Equal(t, int64(1), repo.recorded[0].PostID)
		assert.True(t, repo.recorded[0].Succeeded)
		require.Len(t, repo.recordCtxErrs, 1)
		assert.NoError(t, repo.recordCtxErrs[0])
		require.Len(t, cancelling.calls, 1)
		assert.Equal(t, []int64{1}, repo.claimed)
	})

	t.Run("cancellation mid-publish leaves the post scheduled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		repo := &fakePostRepo{due: []domain.DuePost{
			duePost(1, domain.PlatformBluesky),
			duePost(2, domain.PlatformBluesky),
		}}
		interrupted := &stubPublisher{
			platform: domain.PlatformBluesky,
			publish: func(ctx context.Context, _ domain.DuePost, _ map[string]string) publisher.Outcome {
				cancel()
				return publisher.Failed(ctx.Err())
			},
		}
		r := newTestRunner(repo, &fakeCredentialRepo{}, &fakeNotifier{ok: true}, interrupted)

		err := r.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		// The publish never completed: nothing recorded, the post stays
		// scheduled for the next run.
		assert.Empty(t, repo.recorded)
		require.Len(t, interrupted.calls, 1)
	})

	t.Run("credential lookup failure falls back to process configuration", func(t *testing.T) {
		repo := &fakePostRepo{due: []domain.DuePost{duePost(1, domain.PlatformBluesky)}}
		var seenCreds map[string]string
		pub := &stubPublisher{
			platform: domain.PlatformBluesky,
			publish: func(_ context.Context, _ domain.DuePost, creds map[string]string) publisher.Outcome {
				seenCreds = creds
				return publisher.Ok("ext-1")
			},
		}
		r := newTestRunner(repo, &fakeCredentialRepo{err: errors.New("db timeout")}, &fakeNotifier{ok: true}, pub)

		require.NoError(t, r.Run(context.Background()))
		assert.Nil(t, seenCreds)
		require.Len(t, repo.recorded, 1)
		assert.True(t, repo.recorded[0].Succeeded)
	})
}
