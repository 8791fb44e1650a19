package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/tatracker/internal/contracts"
)

// Repository persists rating records so rating histories survive cache
// expiry and restarts. Persistence is optional; callers skip the
// repository entirely when no database is configured.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the ratings table on a fresh database. Idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ratings (
			ticker     TEXT NOT NULL,
			trade_date DATE NOT NULL,
			osc_buy    INT  NOT NULL,
			osc_sell   INT  NOT NULL,
			ma_buy     INT  NOT NULL,
			ma_sell    INT  NOT NULL,
			rating1    INT  NOT NULL,
			rating2    INT  NOT NULL,
			PRIMARY KEY (ticker, trade_date)
		)
	`

	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure ratings schema: %w", err)
	}
	return nil
}

// Save upserts one rating record for a ticker.
func (r *Repository) Save(ctx context.Context, ticker string, rec contracts.RatingRecord) error {
	query := `
		INSERT INTO ratings (ticker, trade_date, osc_buy, osc_sell, ma_buy, ma_sell, rating1, rating2)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			osc_buy = EXCLUDED.osc_buy,
			osc_sell = EXCLUDED.osc_sell,
			ma_buy = EXCLUDED.ma_buy,
			ma_sell = EXCLUDED.ma_sell,
			rating1 = EXCLUDED.rating1,
			rating2 = EXCLUDED.rating2
	`

	_, err := r.pool.Exec(ctx, query,
		ticker, rec.Date, rec.OscBuy, rec.OscSell, rec.MABuy, rec.MASell, rec.Rating1, rec.Rating2,
	)
	if err != nil {
		return fmt.Errorf("save rating %s %s: %w", ticker, rec.Date.Format("2006-01-02"), err)
	}
	return nil
}

// SaveBatch upserts all records of one analysis result.
func (r *Repository) SaveBatch(ctx context.Context, ticker string, recs []contracts.RatingRecord) error {
	for _, rec := range recs {
		if err := r.Save(ctx, ticker, rec); err != nil {
			return err
		}
	}
	return nil
}

// GetHistory returns up to limit records for a ticker at or before the
// given date, most recent first.
func (r *Repository) GetHistory(ctx context.Context, ticker string, before time.Time, limit int) ([]contracts.RatingRecord, error) {
	query := `
		SELECT trade_date, osc_buy, osc_sell, ma_buy, ma_sell, rating1, rating2
		FROM ratings
		WHERE ticker = $1 AND trade_date <= $2
		ORDER BY trade_date DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, ticker, before, limit)
	if err != nil {
		return nil, fmt.Errorf("load rating history %s: %w", ticker, err)
	}
	defer rows.Close()

	var records []contracts.RatingRecord
	for rows.Next() {
		var rec contracts.RatingRecord
		if err := rows.Scan(&rec.Date, &rec.OscBuy, &rec.OscSell,
			&rec.MABuy, &rec.MASell, &rec.Rating1, &rec.Rating2); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetLatest returns the most recent record for a ticker.
func (r *Repository) GetLatest(ctx context.Context, ticker string) (*contracts.RatingRecord, error) {
	query := `
		SELECT trade_date, osc_buy, osc_sell, ma_buy, ma_sell, rating1, rating2
		FROM ratings
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var rec contracts.RatingRecord
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&rec.Date, &rec.OscBuy, &rec.OscSell,
		&rec.MABuy, &rec.MASell, &rec.Rating1, &rec.Rating2)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
