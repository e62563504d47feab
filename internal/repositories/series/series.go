package series

import (
	"context"
	"errors"

	"github.com/postpilot/postpilot/internal/domain"
)

var ErrNotFound = errors.New("series not found")

type Repository interface {
	// Create inserts a new series row and returns its id
	Create(ctx context.Context, s domain.Series) (int64, error)

	// GetByID returns a single series
	GetByID(ctx context.Context, id int64) (*domain.Series, error)
}
