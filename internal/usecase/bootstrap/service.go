package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/logger"
	"github.com/simaogato/portfolio-metrics/internal/usecase/allocator"
)

// BootstrapService creates a portfolio's initial holding lots from its target weights
type BootstrapService struct {
	Store domain.LedgerStore
}

// NewBootstrapService creates a new BootstrapService instance
func NewBootstrapService(store domain.LedgerStore) *BootstrapService {
	return &BootstrapService{Store: store}
}

// BootstrapInitialHoldings creates one lot per initial weight, effective at t0
// Logic:
//  1. Fetch the portfolio and its initial weights
//  2. For every weight require a price at exactly t0; the first missing price aborts everything
//  3. quantity = weight × initial value / price, truncated to 12 fractional digits
//  4. Insert all lots in the same transaction
//
// Returns the created lots
func (s *BootstrapService) BootstrapInitialHoldings(ctx context.Context, portfolioID uuid.UUID, t0 time.Time) ([]domain.HoldingLot, error) {
	if t0.IsZero() {
		return nil, fmt.Errorf("%w: bootstrap date is required", domain.ErrInvalidInput)
	}
	t0 = domain.TruncateDay(t0)

	var created []domain.HoldingLot
	var portfolioName string

	err := s.Store.Atomic(ctx, func(ctx context.Context, tx domain.Ledger) error {
		// 1. Portfolio and weights
		portfolio, err := tx.Portfolios().GetByID(ctx, portfolioID)
		if err != nil {
			return err
		}
		portfolioName = portfolio.Name

		weights, err := tx.Weights().ListInitialWeights(ctx, portfolioID)
		if err != nil {
			return fmt.Errorf("failed to list initial weights: %w", err)
		}

		// 2. Prices at t0
		prices := make(map[uuid.UUID]decimal.Decimal, len(weights))
		for _, w := range weights {
			price, err := tx.Prices().GetPrice(ctx, w.AssetID, t0)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: asset %s on %s", domain.ErrMissingPrice, w.AssetID, domain.FormatDate(t0))
				}
				return fmt.Errorf("failed to get price: %w", err)
			}
			prices[w.AssetID] = price.Price
		}

		// 3. Quantities
		quantities, err := allocator.AllocateQuantities(portfolio.InitialValueUSD, weights, prices)
		if err != nil {
			return err
		}

		lots := make([]domain.HoldingLot, 0, len(weights))
		for _, w := range weights {
			lots = append(lots, domain.HoldingLot{
				ID:            uuid.New(),
				PortfolioID:   portfolioID,
				AssetID:       w.AssetID,
				Quantity:      quantities[w.AssetID],
				EffectiveFrom: t0,
			})
		}

		// 4. Persist
		if len(lots) > 0 {
			if err := tx.Lots().InsertLots(ctx, lots); err != nil {
				return fmt.Errorf("failed to insert holding lots: %w", err)
			}
		}

		created = lots
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Initial holdings created",
		"portfolio", portfolioName,
		"lots", len(created),
		"t0", domain.FormatDate(t0),
	)

	return created, nil
}
