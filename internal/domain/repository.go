package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PortfolioRepository defines the interface for portfolio persistence operations
type PortfolioRepository interface {
	// GetByID retrieves a portfolio by its ID, wrapping ErrNotFound when absent
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)

	// GetByName retrieves a portfolio by its unique name, wrapping ErrNotFound when absent
	GetByName(ctx context.Context, name string) (*Portfolio, error)

	// Create creates a new portfolio
	Create(ctx context.Context, portfolio *Portfolio) error

	// UpdateInitialValue corrects the initial value of an existing portfolio
	UpdateInitialValue(ctx context.Context, id uuid.UUID, value decimal.Decimal) error

	// Delete removes a portfolio together with its weights, lots and trades
	Delete(ctx context.Context, id uuid.UUID) error
}

// AssetRepository defines the interface for asset persistence operations
type AssetRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	GetByName(ctx context.Context, name string) (*Asset, error)

	// GetOrCreate returns the asset with the given name, creating it on first reference
	GetOrCreate(ctx context.Context, name string) (*Asset, error)

	// List returns every asset ordered by name
	List(ctx context.Context) ([]*Asset, error)
}

// PriceRepository defines the interface for price observation persistence operations
type PriceRepository interface {
	// InsertPrices stores observations, silently skipping (asset, date) pairs that already exist.
	// Returns the number of observations actually inserted.
	InsertPrices(ctx context.Context, prices []PriceObservation) (int, error)

	// GetPrice returns the observation for (asset, date), wrapping ErrNotFound when absent
	GetPrice(ctx context.Context, assetID uuid.UUID, date time.Time) (*PriceObservation, error)

	// PricesInRange returns observations of the given assets with start <= date <= end,
	// ordered by date then asset ID. Missing prices are simply absent.
	PricesInRange(ctx context.Context, assetIDs []uuid.UUID, start, end time.Time) ([]PriceObservation, error)
}

// WeightRepository defines the interface for initial weight persistence operations
type WeightRepository interface {
	// ReplaceInitialWeights deletes every weight of the portfolio and inserts the given set
	ReplaceInitialWeights(ctx context.Context, portfolioID uuid.UUID, weights InitialWeights) error

	// ListInitialWeights returns the portfolio's weights
	ListInitialWeights(ctx context.Context, portfolioID uuid.UUID) (InitialWeights, error)
}

// LotRepository defines the interface for holding lot persistence operations
type LotRepository interface {
	// InsertLots appends lots, assigning each a Seq larger than any existing one
	InsertLots(ctx context.Context, lots []HoldingLot) error

	// LatestLotAsOf returns the lot in force on date for (portfolio, asset),
	// wrapping ErrNotFound when no lot has EffectiveFrom <= date.
	// Ties on EffectiveFrom are resolved in favour of the last inserted lot.
	LatestLotAsOf(ctx context.Context, portfolioID, assetID uuid.UUID, date time.Time) (*HoldingLot, error)

	// LatestLotsAsOf is the batched form of LatestLotAsOf: one lot per held asset
	LatestLotsAsOf(ctx context.Context, portfolioID uuid.UUID, date time.Time) (map[uuid.UUID]HoldingLot, error)

	// ListLots returns the portfolio's lots with EffectiveFrom <= upTo,
	// ordered by asset ID, EffectiveFrom and Seq
	ListLots(ctx context.Context, portfolioID uuid.UUID, upTo time.Time) ([]HoldingLot, error)

	// HeldAssetIDs returns every asset that ever appears in the portfolio's lots
	HeldAssetIDs(ctx context.Context, portfolioID uuid.UUID) ([]uuid.UUID, error)
}

// TradeRepository defines the interface for trade record persistence operations
type TradeRepository interface {
	// Create appends a trade record
	Create(ctx context.Context, trade *TradeRecord) error

	// ListByPortfolio returns the portfolio's trades ordered by trade date
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]TradeRecord, error)
}

// Ledger groups the repositories of one consistent view of the store
type Ledger interface {
	Portfolios() PortfolioRepository
	Assets() AssetRepository
	Prices() PriceRepository
	Weights() WeightRepository
	Lots() LotRepository
	Trades() TradeRepository
}

// LedgerStore is a Ledger that can run a unit of work atomically
type LedgerStore interface {
	Ledger

	// Atomic runs fn against a transactional ledger. Writes made through tx are committed
	// when fn returns nil and discarded otherwise; readers never observe them partially.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Ledger) error) error
}
