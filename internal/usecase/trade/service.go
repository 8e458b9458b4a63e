package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/logger"
)

// PostTradeInput represents the input for posting a notional trade
type PostTradeInput struct {
	PortfolioID uuid.UUID
	AssetID     uuid.UUID
	TradeDate   time.Time
	AmountUSD   decimal.Decimal // positive buys, negative sells
}

// TradeResult is what a successful trade wrote, plus the figures it was derived from
type TradeResult struct {
	Lot           domain.HoldingLot
	Trade         domain.TradeRecord
	Price         decimal.Decimal
	PriorQuantity decimal.Decimal
	DeltaQuantity decimal.Decimal
}

// TradeService applies notional trades to the holding lot ledger
type TradeService struct {
	Store domain.LedgerStore
}

// NewTradeService creates a new TradeService instance
func NewTradeService(store domain.LedgerStore) *TradeService {
	return &TradeService{Store: store}
}

// PostTradeNotional adjusts a held quantity from the trade date onwards
// Logic:
//  1. Portfolio and asset must exist
//  2. Price at exactly TradeDate is required
//  3. The latest lot effective on or before TradeDate is the prior quantity; a trade
//     cannot open a position that was never held
//  4. delta = amount / price, new = prior + delta, rejected when new < 0
//  5. Insert the new lot and its TradeRecord in the same transaction
func (s *TradeService) PostTradeNotional(ctx context.Context, input PostTradeInput) (*TradeResult, error) {
	if input.PortfolioID == uuid.Nil || input.AssetID == uuid.Nil {
		return nil, fmt.Errorf("%w: trade must reference a portfolio and an asset", domain.ErrInvalidInput)
	}
	if input.TradeDate.IsZero() {
		return nil, fmt.Errorf("%w: trade date is required", domain.ErrInvalidInput)
	}
	tradeDate := domain.TruncateDay(input.TradeDate)

	var result *TradeResult
	var assetName string

	err := s.Store.Atomic(ctx, func(ctx context.Context, tx domain.Ledger) error {
		// 1. Referenced entities
		if _, err := tx.Portfolios().GetByID(ctx, input.PortfolioID); err != nil {
			return err
		}
		asset, err := tx.Assets().GetByID(ctx, input.AssetID)
		if err != nil {
			return err
		}
		assetName = asset.Name

		// 2. Price on the trade date
		price, err := tx.Prices().GetPrice(ctx, input.AssetID, tradeDate)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %s on %s", domain.ErrMissingPrice, asset.Name, domain.FormatDate(tradeDate))
			}
			return fmt.Errorf("failed to get price: %w", err)
		}
		if !price.Price.IsPositive() {
			return fmt.Errorf("%w: price of %s on %s must be positive", domain.ErrInvalidInput, asset.Name, domain.FormatDate(tradeDate))
		}

		// 3. Prior holding
		prior, err := tx.Lots().LatestLotAsOf(ctx, input.PortfolioID, input.AssetID, tradeDate)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: %s on %s", domain.ErrMissingPriorHolding, asset.Name, domain.FormatDate(tradeDate))
			}
			return fmt.Errorf("failed to get prior holding: %w", err)
		}

		// 4. Resulting quantity
		delta := input.AmountUSD.Div(price.Price)
		newQty := prior.Quantity.Add(delta)
		if newQty.IsNegative() {
			return fmt.Errorf("%w: %s would go from %s to %s", domain.ErrNegativeResult, asset.Name, prior.Quantity.String(), newQty.String())
		}

		// 5. Lot and audit record together
		lot := domain.HoldingLot{
			ID:            uuid.New(),
			PortfolioID:   input.PortfolioID,
			AssetID:       input.AssetID,
			Quantity:      newQty.RoundBank(domain.QuantityScale),
			EffectiveFrom: tradeDate,
		}
		lots := []domain.HoldingLot{lot}
		if err := tx.Lots().InsertLots(ctx, lots); err != nil {
			return fmt.Errorf("failed to insert holding lot: %w", err)
		}

		record := domain.TradeRecord{
			ID:          uuid.New(),
			PortfolioID: input.PortfolioID,
			AssetID:     input.AssetID,
			TradeDate:   tradeDate,
			AmountUSD:   input.AmountUSD.RoundBank(domain.MoneyScale),
		}
		if err := tx.Trades().Create(ctx, &record); err != nil {
			return fmt.Errorf("failed to record trade: %w", err)
		}

		result = &TradeResult{
			Lot:           lots[0],
			Trade:         record,
			Price:         price.Price,
			PriorQuantity: prior.Quantity,
			DeltaQuantity: delta,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Trade posted",
		"asset", assetName,
		"amount_usd", result.Trade.AmountUSD.StringFixed(domain.MoneyScale),
		"trade_date", domain.FormatDate(tradeDate),
		"quantity", result.Lot.Quantity.String(),
	)

	return result, nil
}
