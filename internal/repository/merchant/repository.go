package merchant

import (
	"context"
	"time"

	"diorder/internal/domain"
)

type Repository interface {
	ListActive(ctx context.Context) ([]domain.Merchant, error)
	GetByID(ctx context.Context, id int64) (*domain.Merchant, error)
	UpdatedAt(ctx context.Context, id int64) (time.Time, error)
	LatestUpdate(ctx context.Context) (time.Time, error)
	AddPoints(ctx context.Context, id, delta int64) error
}
