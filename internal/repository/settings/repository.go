package settings

import (
	"context"
	"time"

	"diorder/internal/domain"
)

type Repository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Set(ctx context.Context, s domain.Settings) error
	UpdatedAt(ctx context.Context) (time.Time, error)
}
