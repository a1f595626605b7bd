package order

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"diorder/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Insert(ctx context.Context, o domain.Order) error {
	rawCustomer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	rawLines, err := json.Marshal(o.Lines)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO orders (id, customer, lines, subtotal, delivery_fee, fee_negotiable, total, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err = r.pool.Exec(ctx, q,
		o.ID, rawCustomer, rawLines, o.Subtotal, o.DeliveryFee, o.FeeNegotiable, o.Total, o.CreatedAt)
	if err != nil {
		r.logger.Printf("order repo: insert id=%s error=%v", o.ID, err)
	}
	return err
}
