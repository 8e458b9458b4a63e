package holdings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// Resolver answers "how much of an asset did a portfolio hold on a date" from the lot ledger
type Resolver struct {
	LotRepo domain.LotRepository
}

// NewResolver creates a new Resolver instance
func NewResolver(lotRepo domain.LotRepository) *Resolver {
	return &Resolver{LotRepo: lotRepo}
}

// QuantityAt returns the quantity of the latest lot with EffectiveFrom <= date.
// ok is false when no lot qualifies: the asset is absent on that date, which is not the same as zero.
func (r *Resolver) QuantityAt(ctx context.Context, portfolioID, assetID uuid.UUID, date time.Time) (decimal.Decimal, bool, error) {
	lot, err := r.LotRepo.LatestLotAsOf(ctx, portfolioID, assetID, domain.TruncateDay(date))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to resolve quantity: %w", err)
	}
	return lot.Quantity, true, nil
}

// QuantitiesAt is the batched form of QuantityAt: one entry per asset held on date.
// Assets absent on date have no entry.
func (r *Resolver) QuantitiesAt(ctx context.Context, portfolioID uuid.UUID, date time.Time) (map[uuid.UUID]decimal.Decimal, error) {
	lots, err := r.LotRepo.LatestLotsAsOf(ctx, portfolioID, domain.TruncateDay(date))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve quantities: %w", err)
	}

	quantities := make(map[uuid.UUID]decimal.Decimal, len(lots))
	for assetID, lot := range lots {
		quantities[assetID] = lot.Quantity
	}
	return quantities, nil
}

// Book loads every lot of the portfolio effective on or before upTo in one query
// and answers lookups for dates up to upTo in memory
func (r *Resolver) Book(ctx context.Context, portfolioID uuid.UUID, upTo time.Time) (*Book, error) {
	lots, err := r.LotRepo.ListLots(ctx, portfolioID, domain.TruncateDay(upTo))
	if err != nil {
		return nil, fmt.Errorf("failed to load holding lots: %w", err)
	}
	return NewBook(lots), nil
}

// Book holds one LotTimeline per asset of a portfolio
type Book struct {
	timelines map[uuid.UUID]*domain.LotTimeline
}

// NewBook groups lots by asset. Lots must be given in insertion order per asset
// (or carry their Seq) for ties to resolve to the last inserted lot.
func NewBook(lots []domain.HoldingLot) *Book {
	grouped := make(map[uuid.UUID][]domain.HoldingLot)
	for _, lot := range lots {
		grouped[lot.AssetID] = append(grouped[lot.AssetID], lot)
	}

	timelines := make(map[uuid.UUID]*domain.LotTimeline, len(grouped))
	for assetID, assetLots := range grouped {
		timelines[assetID] = domain.NewLotTimeline(assetLots...)
	}
	return &Book{timelines: timelines}
}

// QuantityAt returns the quantity of assetID held on date and whether any lot applies
func (b *Book) QuantityAt(assetID uuid.UUID, date time.Time) (decimal.Decimal, bool) {
	timeline, ok := b.timelines[assetID]
	if !ok {
		return decimal.Zero, false
	}
	return timeline.QuantityAt(date)
}

// QuantitiesAt returns the quantity of every asset held on date
func (b *Book) QuantitiesAt(date time.Time) map[uuid.UUID]decimal.Decimal {
	quantities := make(map[uuid.UUID]decimal.Decimal, len(b.timelines))
	for assetID, timeline := range b.timelines {
		if qty, ok := timeline.QuantityAt(date); ok {
			quantities[assetID] = qty
		}
	}
	return quantities
}
