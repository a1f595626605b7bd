package menu

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

// optionsDoc is the persisted shape of the options column.
type optionsDoc struct {
	OptionGroups []domain.OptionGroup `json:"optionGroups"`
}

func (r *postgresRepo) ListActive(ctx context.Context) ([]domain.MenuItem, error) {
	const q = `
SELECT id, merchant_id, name, price, COALESCE(image, ''), COALESCE(category, ''), is_active, options, updated_at
FROM menu_items
WHERE is_active
ORDER BY merchant_id, category, name
`
	return r.list(ctx, q)
}

func (r *postgresRepo) ListByMerchant(ctx context.Context, merchantID int64) ([]domain.MenuItem, error) {
	const q = `
SELECT id, merchant_id, name, price, COALESCE(image, ''), COALESCE(category, ''), is_active, options, updated_at
FROM menu_items
WHERE merchant_id = $1 AND is_active
ORDER BY category, name
`
	return r.list(ctx, q, merchantID)
}

func (r *postgresRepo) AddPoints(ctx context.Context, id, delta int64) error {
	const q = `UPDATE menu_items SET point = point + $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, delta)
	if err != nil {
		r.logger.Printf("menu repo: add points id=%d error=%v", id, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert writes one menu item keyed by (merchant_id, name) and touches the
// owning merchant so staleness probes see the change.
func (r *postgresRepo) Upsert(ctx context.Context, item domain.MenuItem) error {
	var rawOptions []byte
	if len(item.OptionGroups) > 0 {
		var err error
		rawOptions, err = json.Marshal(optionsDoc{OptionGroups: item.OptionGroups})
		if err != nil {
			return err
		}
	}
	const q = `
INSERT INTO menu_items (merchant_id, name, price, image, category, options, is_active, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, now())
ON CONFLICT (merchant_id, name) DO UPDATE
SET price = EXCLUDED.price,
    image = EXCLUDED.image,
    category = EXCLUDED.category,
    options = EXCLUDED.options,
    is_active = EXCLUDED.is_active,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, item.MerchantID, item.Name, item.Price, item.Image, item.Category, rawOptions, item.IsActive); err != nil {
		r.logger.Printf("menu repo: upsert %q error=%v", item.Name, err)
		return err
	}
	const touch = `UPDATE merchants SET updated_at = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, touch, item.MerchantID); err != nil {
		r.logger.Printf("menu repo: touch merchant %d error=%v", item.MerchantID, err)
		return err
	}
	return nil
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...interface{}) ([]domain.MenuItem, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("menu repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		var rawOptions []byte
		if err := rows.Scan(&item.ID, &item.MerchantID, &item.Name, &item.Price, &item.Image, &item.Category, &item.IsActive, &rawOptions, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if len(rawOptions) > 0 {
			var doc optionsDoc
			if err := json.Unmarshal(rawOptions, &doc); err != nil {
				r.logger.Printf("menu repo: item %d: bad options json: %v", item.ID, err)
			} else {
				item.OptionGroups = doc.OptionGroups
			}
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("menu repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}
