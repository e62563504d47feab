package runnerimpl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/publisher"
	postrepo "github.com/postpilot/postpilot/internal/repositories/post"
	"github.com/postpilot/postpilot/pkg/textutil"
)

const notificationPreviewLen = 200

// Run executes one publish pass: load all due posts in a single query, then
// resolve, publish, and record each one independently. One platform's outage
// never blocks the others; cancellation aborts the remaining posts, but a
// publish that already completed still gets its outcome recorded.
func (r *RunnerImpl) Run(ctx context.Context) error {
	now := r.Clock.Now().UTC()

	due, err := r.PostRepo.GetDue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to load due posts: %w", err)
	}

	if len(due) == 0 {
		r.Logger.Debug("No due posts")
		return nil
	}

	r.Logger.Info("Starting publish run", "due_posts", len(due))

	var runErr error
	for _, d := range due {
		if ctx.Err() != nil {
			r.Logger.Info("Publish run cancelled, aborting remaining posts")
			return ctx.Err()
		}

		claimed, err := r.PostRepo.Claim(ctx, d.ID, r.Clock.Now().UTC())
		if err != nil {
			r.Logger.Error("Failed to claim post", "post_id", d.ID, "error", err)
			runErr = errors.Join(runErr, err)
			continue
		}
		if !claimed {
			r.Logger.Debug("Post claimed by another run, skipping", "post_id", d.ID)
			continue
		}

		outcome := r.dispatch(ctx, d)

		cancelled := ctx.Err() != nil
		if cancelled && !outcome.Success {
			// Cancelled mid-publish: leave the post scheduled for the next run.
			r.Logger.Info("Publish run cancelled, aborting remaining posts")
			return ctx.Err()
		}

		recordCtx := ctx
		if cancelled {
			// The post already reached the platform, so the terminal write must
			// land even though the run is shutting down.
			recordCtx = context.WithoutCancel(ctx)
		}

		var notifiedAt *time.Time
		if outcome.Success && d.UserEmail != "" {
			preview := textutil.TruncatePreview(d.Content, notificationPreviewLen)
			if r.Notifier.PostPublished(recordCtx, d.UserEmail, d.Platform, preview) {
				t := r.Clock.Now().UTC()
				notifiedAt = &t
			}
		}

		rec := domain.PublishRecord{
			PostID:     d.ID,
			Platform:   d.Platform,
			Succeeded:  outcome.Success,
			NotifiedAt: notifiedAt,
			FinishedAt: r.Clock.Now().UTC(),
		}
		if outcome.Success && outcome.ExternalPostID != "" {
			externalID := outcome.ExternalPostID
			rec.ExternalPostID = &externalID
		}
		if outcome.Err != nil {
			msg := outcome.Err.Error()
			rec.ErrorMessage = &msg
		}

		if err := r.PostRepo.RecordOutcome(recordCtx, rec); err != nil {
			if errors.Is(err, postrepo.ErrNotDue) {
				r.Logger.Warn("Post already resolved by a concurrent run", "post_id", d.ID)
				continue
			}
			// The transaction rolled back; the post stays scheduled and will
			// be retried on the next run.
			r.Logger.Error("Failed to record publish outcome", "post_id", d.ID, "error", err)
			runErr = errors.Join(runErr, err)
			continue
		}

		r.Logger.Info("Post resolved",
			"post_id", d.ID,
			"platform", d.Platform,
			"succeeded", outcome.Success)
	}

	return runErr
}

// dispatch resolves the publisher and credentials for one post and invokes
// the publish. A missing publisher and a publisher panic both become failure
// outcomes so the post still reaches a terminal status.
func (r *RunnerImpl) dispatch(ctx context.Context, d domain.DuePost) (outcome publisher.Outcome) {
	pub := r.Registry.For(d.Platform)
	if pub == nil {
		r.Logger.Warn("No publisher registered for platform",
			"platform", d.Platform, "post_id", d.ID)
		return publisher.Failed(fmt.Errorf("no publisher registered for platform %q", d.Platform))
	}

	creds, err := r.CredentialRepo.Get(ctx, d.UserID, d.Platform)
	if err != nil {
		r.Logger.Warn("Credential lookup failed, falling back to process configuration",
			"post_id", d.ID, "error", err)
		creds = nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Error("Publisher panicked", "post_id", d.ID, "panic", rec)
			outcome = publisher.Failed(fmt.Errorf("publisher panicked: %v", rec))
		}
	}()

	return pub.Publish(ctx, d, creds)
}
