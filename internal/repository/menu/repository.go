package menu

import (
	"context"

	"diorder/internal/domain"
)

type Repository interface {
	ListActive(ctx context.Context) ([]domain.MenuItem, error)
	ListByMerchant(ctx context.Context, merchantID int64) ([]domain.MenuItem, error)
	AddPoints(ctx context.Context, id, delta int64) error
	Upsert(ctx context.Context, item domain.MenuItem) error
}
