package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// lotRepository implements domain.LotRepository.
// seq is a BIGSERIAL, so ORDER BY effective_from DESC, seq DESC picks the last inserted lot on ties.
type lotRepository struct {
	q Querier
}

// NewLotRepository creates a new holding lot repository
func NewLotRepository(q Querier) domain.LotRepository {
	return &lotRepository{q: q}
}

const selectLot = `
	SELECT id, seq, portfolio_id, asset_id, quantity, effective_from
	FROM holding_lots
`

// InsertLots appends lots in one transaction and records their assigned sequence numbers
func (r *lotRepository) InsertLots(ctx context.Context, lots []domain.HoldingLot) error {
	query := `
		INSERT INTO holding_lots (id, portfolio_id, asset_id, quantity, effective_from)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`

	return inTx(ctx, r.q, func(q Querier) error {
		for i := range lots {
			lots[i] = lots[i].Normalize()
			if err := lots[i].Validate(); err != nil {
				return err
			}
			if lots[i].ID == uuid.Nil {
				lots[i].ID = uuid.New()
			}

			err := q.QueryRowContext(ctx, query,
				lots[i].ID,
				lots[i].PortfolioID,
				lots[i].AssetID,
				lots[i].Quantity.StringFixed(domain.QuantityScale),
				domain.FormatDate(lots[i].EffectiveFrom),
			).Scan(&lots[i].Seq)
			if err != nil {
				return writeError("failed to insert holding lot", err)
			}
		}
		return nil
	})
}

// LatestLotAsOf returns the lot in force on date for one (portfolio, asset)
func (r *lotRepository) LatestLotAsOf(ctx context.Context, portfolioID, assetID uuid.UUID, date time.Time) (*domain.HoldingLot, error) {
	query := selectLot + `
		WHERE portfolio_id = $1 AND asset_id = $2 AND effective_from <= $3
		ORDER BY effective_from DESC, seq DESC
		LIMIT 1
	`

	rows, err := r.q.QueryContext(ctx, query, portfolioID, assetID, domain.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query latest holding lot: %w", err)
	}
	lots, err := scanLots(rows)
	if err != nil {
		return nil, err
	}

	if len(lots) == 0 {
		return nil, fmt.Errorf("lot of asset %s in portfolio %s as of %s: %w",
			assetID, portfolioID, domain.FormatDate(date), domain.ErrNotFound)
	}
	return &lots[0], nil
}

// LatestLotsAsOf returns the lot in force on date for every asset of the portfolio
func (r *lotRepository) LatestLotsAsOf(ctx context.Context, portfolioID uuid.UUID, date time.Time) (map[uuid.UUID]domain.HoldingLot, error) {
	query := `
		SELECT DISTINCT ON (asset_id) id, seq, portfolio_id, asset_id, quantity, effective_from
		FROM holding_lots
		WHERE portfolio_id = $1 AND effective_from <= $2
		ORDER BY asset_id, effective_from DESC, seq DESC
	`

	rows, err := r.q.QueryContext(ctx, query, portfolioID, domain.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query latest holding lots: %w", err)
	}
	lots, err := scanLots(rows)
	if err != nil {
		return nil, err
	}

	latest := make(map[uuid.UUID]domain.HoldingLot, len(lots))
	for _, lot := range lots {
		latest[lot.AssetID] = lot
	}
	return latest, nil
}

// ListLots returns the portfolio's lots effective on or before upTo
func (r *lotRepository) ListLots(ctx context.Context, portfolioID uuid.UUID, upTo time.Time) ([]domain.HoldingLot, error) {
	query := selectLot + `
		WHERE portfolio_id = $1 AND effective_from <= $2
		ORDER BY asset_id, effective_from, seq
	`

	rows, err := r.q.QueryContext(ctx, query, portfolioID, domain.FormatDate(upTo))
	if err != nil {
		return nil, fmt.Errorf("failed to query holding lots: %w", err)
	}
	return scanLots(rows)
}

// HeldAssetIDs returns every asset that appears in the portfolio's lots
func (r *lotRepository) HeldAssetIDs(ctx context.Context, portfolioID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT DISTINCT asset_id FROM holding_lots WHERE portfolio_id = $1 ORDER BY asset_id`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query held assets: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan held asset: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating held assets: %w", err)
	}

	return ids, nil
}

func scanLots(rows *sql.Rows) ([]domain.HoldingLot, error) {
	defer rows.Close()

	var lots []domain.HoldingLot
	for rows.Next() {
		var lot domain.HoldingLot
		var quantityStr string
		var effective time.Time

		if err := rows.Scan(&lot.ID, &lot.Seq, &lot.PortfolioID, &lot.AssetID, &quantityStr, &effective); err != nil {
			return nil, fmt.Errorf("failed to scan holding lot: %w", err)
		}

		quantity, err := decimal.NewFromString(quantityStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse holding lot quantity: %w", err)
		}
		lot.Quantity = quantity
		lot.EffectiveFrom = domain.TruncateDay(effective)

		lots = append(lots, lot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding lots: %w", err)
	}

	return lots, nil
}
