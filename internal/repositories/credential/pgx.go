package credential

import (
	"context"
	"encoding/json"
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
		logger: logger.WithComponent("CredentialRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

// Get returns the stored credential key/value set, or nil when absent
func (p *Pgx) Get(ctx context.Context, userID int64, platform domain.Platform) (map[string]string, error) {
	query, args, err := repositories.SqBuilder.
		Select("credential_json").
		From("social_credentials").
		Where(sq.Eq{"user_id": userID, "platform": platform}).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var blob []byte
	err = p.pg.QueryRow(ctx, query, args...).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return ParseCredentialJSON(p.logger, userID, platform, blob), nil
}

// ParseCredentialJSON decodes a stored credential blob. Malformed or empty
// blobs resolve to nil, same as "nothing stored".
func ParseCredentialJSON(log logger.Logger, userID int64, platform domain.Platform, blob []byte) map[string]string {
	if len(blob) == 0 {
		return nil
	}

	var creds map[string]string
	if err := json.Unmarshal(blob, &creds); err != nil {
		log.Warn("Ignoring malformed credential blob",
			"user_id", userID,
			"platform", platform,
			"error", err)
		return nil
	}
	if len(creds) == 0 {
		return nil
	}
	return creds
}
