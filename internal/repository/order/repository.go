package order

import (
	"context"

	"diorder/internal/domain"
)

type Repository interface {
	Insert(ctx context.Context, o domain.Order) error
}
