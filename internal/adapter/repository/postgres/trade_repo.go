package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// tradeRepository implements domain.TradeRepository
type tradeRepository struct {
	q Querier
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(q Querier) domain.TradeRepository {
	return &tradeRepository{q: q}
}

// Create inserts a trade record
func (r *tradeRepository) Create(ctx context.Context, trade *domain.TradeRecord) error {
	*trade = trade.Normalize()
	if err := trade.Validate(); err != nil {
		return err
	}
	if trade.ID == uuid.Nil {
		trade.ID = uuid.New()
	}

	query := `
		INSERT INTO trades (id, portfolio_id, asset_id, trade_date, amount_usd)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		trade.ID,
		trade.PortfolioID,
		trade.AssetID,
		domain.FormatDate(trade.TradeDate),
		trade.AmountUSD.StringFixed(domain.MoneyScale),
	)
	if err != nil {
		return writeError("failed to insert trade", err)
	}

	return nil
}

// ListByPortfolio returns the portfolio's trades in trade date order
func (r *tradeRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]domain.TradeRecord, error) {
	query := `
		SELECT id, portfolio_id, asset_id, trade_date, amount_usd
		FROM trades
		WHERE portfolio_id = $1
		ORDER BY trade_date, created_at
	`

	rows, err := r.q.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var tradeDate time.Time
		var amountStr string

		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.AssetID, &tradeDate, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trade amount: %w", err)
		}
		t.AmountUSD = amount
		t.TradeDate = domain.TruncateDay(tradeDate)

		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}
