package merchant

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
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

func (r *postgresRepo) ListActive(ctx context.Context) ([]domain.Merchant, error) {
	const q = `
SELECT id, name, address, COALESCE(logo, ''), open_time, close_time, point, updated_at
FROM merchants
WHERE is_active
ORDER BY name
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("merchant repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Merchant
	for rows.Next() {
		var m domain.Merchant
		if err := rows.Scan(&m.ID, &m.Name, &m.Address, &m.Logo, &m.OpeningHours.Open, &m.OpeningHours.Close, &m.Point, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("merchant repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Merchant, error) {
	const q = `
SELECT id, name, address, COALESCE(logo, ''), open_time, close_time, point, updated_at
FROM merchants
WHERE id = $1 AND is_active
`
	var m domain.Merchant
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.Name, &m.Address, &m.Logo, &m.OpeningHours.Open, &m.OpeningHours.Close, &m.Point, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdatedAt is the lightweight staleness probe for one merchant.
func (r *postgresRepo) UpdatedAt(ctx context.Context, id int64) (time.Time, error) {
	const q = `SELECT updated_at FROM merchants WHERE id = $1`
	var ts time.Time
	err := r.pool.QueryRow(ctx, q, id).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

// LatestUpdate is the staleness probe across all merchants. A zero time
// means the table is empty.
func (r *postgresRepo) LatestUpdate(ctx context.Context) (time.Time, error) {
	const q = `SELECT COALESCE(MAX(updated_at), 'epoch'::timestamptz) FROM merchants`
	var ts time.Time
	if err := r.pool.QueryRow(ctx, q).Scan(&ts); err != nil {
		return time.Time{}, err
	}
	if ts.Unix() == 0 {
		return time.Time{}, nil
	}
	return ts, nil
}

// AddPoints increments a merchant's point counter. Best-effort at the call
// site: callers log failures and move on.
func (r *postgresRepo) AddPoints(ctx context.Context, id, delta int64) error {
	const q = `UPDATE merchants SET point = point + $1 WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, delta, id)
	if err != nil {
		r.logger.Printf("merchant repo: add points id=%d error=%v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
