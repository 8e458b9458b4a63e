package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// priceRepository implements domain.PriceRepository
type priceRepository struct {
	q Querier
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(q Querier) domain.PriceRepository {
	return &priceRepository{q: q}
}

// InsertPrices stores observations in one transaction.
// Existing (asset, date) pairs are left untouched (ON CONFLICT DO NOTHING).
func (r *priceRepository) InsertPrices(ctx context.Context, prices []domain.PriceObservation) (int, error) {
	query := `
		INSERT INTO prices (asset_id, date, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset_id, date) DO NOTHING
	`

	inserted := 0
	err := inTx(ctx, r.q, func(q Querier) error {
		inserted = 0
		for i := range prices {
			p := prices[i].Normalize()
			if err := p.Validate(); err != nil {
				return err
			}

			res, err := q.ExecContext(ctx, query,
				p.AssetID,
				domain.FormatDate(p.Date),
				p.Price.StringFixed(domain.PriceScale),
			)
			if err != nil {
				return writeError("failed to insert price", err)
			}

			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetPrice retrieves the observation of an asset on a date
func (r *priceRepository) GetPrice(ctx context.Context, assetID uuid.UUID, date time.Time) (*domain.PriceObservation, error) {
	query := `
		SELECT asset_id, date, price
		FROM prices
		WHERE asset_id = $1 AND date = $2
	`

	var p domain.PriceObservation
	var day time.Time
	var priceStr string

	err := r.q.QueryRowContext(ctx, query, assetID, domain.FormatDate(date)).Scan(&p.AssetID, &day, &priceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("price of asset %s on %s: %w", assetID, domain.FormatDate(date), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get price: %w", err)
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	p.Price = price
	p.Date = domain.TruncateDay(day)

	return &p, nil
}

// PricesInRange returns the observations of the given assets between start and end inclusive
func (r *priceRepository) PricesInRange(ctx context.Context, assetIDs []uuid.UUID, start, end time.Time) ([]domain.PriceObservation, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(assetIDs))
	for i, id := range assetIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT asset_id, date, price
		FROM prices
		WHERE asset_id = ANY($1::uuid[]) AND date >= $2 AND date <= $3
		ORDER BY date ASC, asset_id ASC
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids), domain.FormatDate(start), domain.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []domain.PriceObservation
	for rows.Next() {
		var p domain.PriceObservation
		var day time.Time
		var priceStr string

		if err := rows.Scan(&p.AssetID, &day, &priceStr); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}

		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price: %w", err)
		}
		p.Price = price
		p.Date = domain.TruncateDay(day)

		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return prices, nil
}
