package post

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/repositories"
	"github.com/postpilot/postpilot/pkg/logger"
)

// Lease length for a claimed post. A run that dies mid-publish releases the
// post to a later run once the lease expires.
const claimLease = 10 * time.Minute

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("PostRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

// Create inserts a new post and returns its id
func (p *Pgx) Create(ctx context.Context, post domain.Post) (int64, error) {
	now := time.Now()
	query, args, err := repositories.SqBuilder.
		Insert("posts").
		Columns("user_id", "topic_summary", "platform", "status", "scheduled_at",
			"content", "script", "image_url", "metadata", "tone", "length",
			"created_at", "updated_at").
		Values(post.UserID, post.TopicSummary, post.Platform, post.Status, post.ScheduledAt,
			post.Content, post.Script, post.ImageURL, post.Metadata, post.Tone, post.Length,
			now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	var id int64
	if err := p.pg.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID returns a single post
func (p *Pgx) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "user_id", "topic_summary", "platform", "status",
			"scheduled_at", "published_at", "external_post_id",
			"content", "script", "image_url", "metadata", "tone", "length",
			"claimed_at", "created_at", "updated_at").
		From("posts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var post domain.Post
	err = p.pg.QueryRow(ctx, query, args...).Scan(
		&post.ID, &post.UserID, &post.TopicSummary, &post.Platform, &post.Status,
		&post.ScheduledAt, &post.PublishedAt, &post.ExternalPostID,
		&post.Content, &post.Script, &post.ImageURL, &post.Metadata, &post.Tone, &post.Length,
		&post.ClaimedAt, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetDue returns all posts with status scheduled and scheduled_at <= now,
// joined with the owner's email, in a single query
func (p *Pgx) GetDue(ctx context.Context, now time.Time) ([]domain.DuePost, error) {
	query, args, err := repositories.SqBuilder.
		Select("p.id", "p.user_id", "p.content", "p.platform",
			"p.image_url", "p.script", "p.metadata", "COALESCE(u.email, '')").
		From("posts p").
		Join("users u ON u.id = p.user_id").
		Where(sq.Eq{"p.status": domain.StatusScheduled}).
		Where(sq.LtOrEq{"p.scheduled_at": now}).
		OrderBy("p.scheduled_at ASC").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []domain.DuePost
	for rows.Next() {
		var d domain.DuePost
		if err := rows.Scan(&d.ID, &d.UserID, &d.Content, &d.Platform,
			&d.ImageURL, &d.Script, &d.Metadata, &d.UserEmail); err != nil {
			return nil, err
		}
		due = append(due, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return due, nil
}

// Claim takes a short lease on a due post so overlapping runs do not publish
// it twice
func (p *Pgx) Claim(ctx context.Context, id int64, now time.Time) (bool, error) {
	query, args, err := repositories.SqBuilder.
		Update("posts").
		Set("claimed_at", now).
		Where(sq.Eq{"id": id, "status": domain.StatusScheduled}).
		Where(sq.Or{
			sq.Eq{"claimed_at": nil},
			sq.Lt{"claimed_at": now.Add(-claimLease)},
		}).
		ToSql()
	if err != nil {
		return false, repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// RecordOutcome applies the terminal status transition and appends the audit
// log entry in one transaction
func (p *Pgx) RecordOutcome(ctx context.Context, rec domain.PublishRecord) error {
	tx, err := p.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	status := domain.StatusFailed
	update := repositories.SqBuilder.
		Update("posts").
		Set("updated_at", rec.FinishedAt).
		Set("claimed_at", nil).
		Where(sq.Eq{"id": rec.PostID, "status": domain.StatusScheduled})
	if rec.Succeeded {
		status = domain.StatusPublished
		update = update.
			Set("published_at", rec.FinishedAt).
			Set("external_post_id", rec.ExternalPostID)
	}
	update = update.Set("status", status)

	query, args, err := update.ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotDue
	}

	query, args, err = repositories.SqBuilder.
		Insert("publish_logs").
		Columns("post_id", "platform", "succeeded", "error_message", "notified_at", "created_at").
		Values(rec.PostID, rec.Platform, rec.Succeeded, rec.ErrorMessage, rec.NotifiedAt, rec.FinishedAt).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
