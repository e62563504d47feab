package publishlog

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/postpilot/postpilot/internal/domain"
	"github.com/postpilot/postpilot/internal/repositories"
	"github.com/postpilot/postpilot/pkg/logger"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("PublishLogRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

// ListByPost returns all attempts for a post, newest first
func (p *Pgx) ListByPost(ctx context.Context, postID int64) ([]*domain.PublishLogEntry, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "post_id", "platform", "succeeded", "error_message", "notified_at", "created_at").
		From("publish_logs").
		Where(sq.Eq{"post_id": postID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.PublishLogEntry
	for rows.Next() {
		var e domain.PublishLogEntry
		if err := rows.Scan(&e.ID, &e.PostID, &e.Platform, &e.Succeeded,
			&e.ErrorMessage, &e.NotifiedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
