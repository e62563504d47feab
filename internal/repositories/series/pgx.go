package series

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
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
		logger: logger.WithComponent("SeriesRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

// Create inserts a new series row and returns its id
func (p *Pgx) Create(ctx context.Context, s domain.Series) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Insert("post_series").
		Columns("user_id", "topic_detail", "num_posts", "options", "created_at").
		Values(s.UserID, s.TopicDetail, s.NumPosts, s.Options, s.CreatedAt).
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

// GetByID returns a single series
func (p *Pgx) GetByID(ctx context.Context, id int64) (*domain.Series, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "user_id", "topic_detail", "num_posts", "options", "created_at").
		From("post_series").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var s domain.Series
	err = p.pg.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.UserID, &s.TopicDetail, &s.NumPosts, &s.Options, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
