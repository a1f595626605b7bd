package settings

import (
	"context"
	"encoding/json"
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

// The settings table holds exactly one row, id = 1.

func (r *postgresRepo) Get(ctx context.Context) (*domain.Settings, error) {
	const q = `SELECT is_open, opening_hours, updated_at FROM app_settings WHERE id = 1`
	var s domain.Settings
	var rawHours []byte
	err := r.pool.QueryRow(ctx, q).Scan(&s.IsOpen, &rawHours, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(rawHours) > 0 {
		var hours domain.OpeningHours
		if err := json.Unmarshal(rawHours, &hours); err != nil {
			r.logger.Printf("settings repo: bad opening_hours json: %v", err)
		} else {
			s.OpeningHours = &hours
		}
	}
	return &s, nil
}

func (r *postgresRepo) Set(ctx context.Context, s domain.Settings) error {
	var rawHours []byte
	if s.OpeningHours != nil {
		var err error
		rawHours, err = json.Marshal(s.OpeningHours)
		if err != nil {
			return err
		}
	}
	const q = `
INSERT INTO app_settings (id, is_open, opening_hours, updated_at)
VALUES (1, $1, $2, now())
ON CONFLICT (id) DO UPDATE SET is_open = $1, opening_hours = $2, updated_at = now()
`
	_, err := r.pool.Exec(ctx, q, s.IsOpen, rawHours)
	if err != nil {
		r.logger.Printf("settings repo: set error=%v", err)
	}
	return err
}

func (r *postgresRepo) UpdatedAt(ctx context.Context) (time.Time, error) {
	const q = `SELECT updated_at FROM app_settings WHERE id = 1`
	var ts time.Time
	err := r.pool.QueryRow(ctx, q).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}
