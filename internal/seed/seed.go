package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"diorder/internal/domain"
)

type merchantSeed struct {
	Name      string
	Address   string
	OpenTime  string
	CloseTime string
	Menu      []menuSeed
}

type menuSeed struct {
	Name     string
	Price    int64
	Category string
	Groups   []domain.OptionGroup
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	merchants := []merchantSeed{
		{
			Name:      "Warung Bu Sri",
			Address:   "Jl. Raya Duduksampeyan No. 12",
			OpenTime:  "07:00",
			CloseTime: "21:00",
			Menu: []menuSeed{
				{
					Name: "Nasi Goreng", Price: 15000, Category: "Makanan",
					Groups: []domain.OptionGroup{
						{
							ID: "porsi", Title: "Porsi", Type: domain.SingleRequired,
							Options: []domain.Option{
								{ID: "biasa", Name: "Biasa", ExtraPrice: 0},
								{ID: "jumbo", Name: "Jumbo", ExtraPrice: 5000},
							},
						},
						{
							ID: "spice_level", Title: "Level Pedas", Type: domain.SingleOptional,
							Options: []domain.Option{
								{ID: "tidak_pedas", Name: "Tidak Pedas", ExtraPrice: 0},
								{ID: "sedang", Name: "Sedang", ExtraPrice: 0},
								{ID: "pedas", Name: "Pedas", ExtraPrice: 0},
							},
						},
						{
							ID: "topping", Title: "Topping", Type: domain.MultipleOptional, MaxSelections: 3,
							Options: []domain.Option{
								{ID: "telur", Name: "Telur", ExtraPrice: 3000},
								{ID: "sosis", Name: "Sosis", ExtraPrice: 4000},
								{ID: "bakso", Name: "Bakso", ExtraPrice: 4000},
							},
						},
					},
				},
				{Name: "Es Teh", Price: 4000, Category: "Minuman"},
			},
		},
		{
			Name:      "Bakso Pak Min",
			Address:   "Jl. Sumengko No. 3",
			OpenTime:  "09:00",
			CloseTime: "20:00",
			Menu: []menuSeed{
				{Name: "Bakso Urat", Price: 12000, Category: "Makanan"},
				{Name: "Es Jeruk", Price: 5000, Category: "Minuman"},
			},
		},
	}

	for _, m := range merchants {
		merchantID, err := upsertMerchant(ctx, pool, m)
		if err != nil {
			return fmt.Errorf("upsert merchant %s: %w", m.Name, err)
		}
		for _, item := range m.Menu {
			if err := upsertMenuItem(ctx, pool, merchantID, item); err != nil {
				return fmt.Errorf("upsert menu item %s: %w", item.Name, err)
			}
		}
	}

	return ensureSettings(ctx, pool)
}

func upsertMerchant(ctx context.Context, pool *pgxpool.Pool, m merchantSeed) (int64, error) {
	const q = `
INSERT INTO merchants (name, address, open_time, close_time, is_active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (name) DO UPDATE
SET address = EXCLUDED.address,
    open_time = EXCLUDED.open_time,
    close_time = EXCLUDED.close_time,
    is_active = TRUE,
    updated_at = now()
RETURNING id
`
	var id int64
	if err := pool.QueryRow(ctx, q, m.Name, m.Address, m.OpenTime, m.CloseTime).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func upsertMenuItem(ctx context.Context, pool *pgxpool.Pool, merchantID int64, item menuSeed) error {
	var rawOptions []byte
	if len(item.Groups) > 0 {
		var err error
		rawOptions, err = json.Marshal(map[string]interface{}{"optionGroups": item.Groups})
		if err != nil {
			return err
		}
	}
	const q = `
INSERT INTO menu_items (merchant_id, name, price, category, options, is_active)
VALUES ($1, $2, $3, $4, $5, TRUE)
ON CONFLICT (merchant_id, name) DO UPDATE
SET price = EXCLUDED.price,
    category = EXCLUDED.category,
    options = EXCLUDED.options,
    is_active = TRUE,
    updated_at = now()
`
	_, err := pool.Exec(ctx, q, merchantID, item.Name, item.Price, item.Category, rawOptions)
	return err
}

func ensureSettings(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
INSERT INTO app_settings (id, is_open)
VALUES (1, TRUE)
ON CONFLICT (id) DO NOTHING
`
	_, err := pool.Exec(ctx, q)
	return err
}
