package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HoldingLot is one step of the piecewise-constant quantity of an asset held by a portfolio:
// from EffectiveFrom onwards the portfolio holds Quantity, until a later lot supersedes it.
// Lots are append-only; a new lot is inserted for every change, never updated in place.
type HoldingLot struct {
	ID            uuid.UUID
	PortfolioID   uuid.UUID
	AssetID       uuid.UUID
	Quantity      decimal.Decimal // non-negative, 12 fractional digits
	EffectiveFrom time.Time
	Seq           int64 // insertion sequence assigned by the store, breaks EffectiveFrom ties
}

// Validate ensures the lot adheres to domain rules
func (l *HoldingLot) Validate() error {
	if l.PortfolioID == uuid.Nil || l.AssetID == uuid.Nil {
		return fmt.Errorf("%w: holding lot must reference a portfolio and an asset", ErrInvalidInput)
	}
	if l.EffectiveFrom.IsZero() {
		return fmt.Errorf("%w: holding lot effective date is required", ErrInvalidInput)
	}
	if l.Quantity.IsNegative() {
		return fmt.Errorf("%w: holding lot quantity cannot be negative", ErrInvalidInput)
	}
	return nil
}

// Normalize returns the lot with its quantity rounded half away from zero to QuantityScale
// digits and its effective date truncated to the day
func (l HoldingLot) Normalize() HoldingLot {
	l.Quantity = l.Quantity.Round(QuantityScale)
	l.EffectiveFrom = TruncateDay(l.EffectiveFrom)
	return l
}

// supersedes reports whether l takes precedence over o when both apply to the same date
func (l HoldingLot) supersedes(o HoldingLot) bool {
	if !l.EffectiveFrom.Equal(o.EffectiveFrom) {
		return l.EffectiveFrom.After(o.EffectiveFrom)
	}
	return l.Seq > o.Seq
}

// TradeRecord is the audit entry written alongside the lot produced by a notional trade.
// AmountUSD is signed: positive buys, negative sells.
type TradeRecord struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	AssetID     uuid.UUID
	TradeDate   time.Time
	AmountUSD   decimal.Decimal // 2 fractional digits
}

// Normalize returns the record with its amount at MoneyScale digits and its date truncated to the day
func (t TradeRecord) Normalize() TradeRecord {
	t.AmountUSD = t.AmountUSD.Round(MoneyScale)
	t.TradeDate = TruncateDay(t.TradeDate)
	return t
}

// Validate ensures the trade record adheres to domain rules
func (t *TradeRecord) Validate() error {
	if t.PortfolioID == uuid.Nil || t.AssetID == uuid.Nil {
		return fmt.Errorf("%w: trade must reference a portfolio and an asset", ErrInvalidInput)
	}
	if t.TradeDate.IsZero() {
		return fmt.Errorf("%w: trade date is required", ErrInvalidInput)
	}
	return nil
}

// LotTimeline is the step function of one (portfolio, asset) pair.
// Lots are kept sorted by (EffectiveFrom, Seq) so that the lot in force at a date
// is found with a binary search. Among lots sharing an EffectiveFrom the one inserted
// last (highest Seq, or later position when Seq is equal) wins.
type LotTimeline struct {
	lots []HoldingLot
}

// NewLotTimeline builds a timeline from lots given in insertion order
func NewLotTimeline(lots ...HoldingLot) *LotTimeline {
	sorted := make([]HoldingLot, len(lots))
	copy(sorted, lots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].supersedes(sorted[i])
	})
	return &LotTimeline{lots: sorted}
}

// Insert adds a lot, keeping the ordering. A lot equal in (EffectiveFrom, Seq) to an
// existing one is placed after it.
func (t *LotTimeline) Insert(lot HoldingLot) {
	i := sort.Search(len(t.lots), func(i int) bool {
		return t.lots[i].supersedes(lot)
	})
	t.lots = append(t.lots, HoldingLot{})
	copy(t.lots[i+1:], t.lots[i:])
	t.lots[i] = lot
}

// LatestAsOf returns the lot in force on date: the latest lot with EffectiveFrom <= date.
// ok is false when no lot qualifies, meaning the asset is absent (not zero) on that date.
func (t *LotTimeline) LatestAsOf(date time.Time) (lot HoldingLot, ok bool) {
	i := sort.Search(len(t.lots), func(i int) bool {
		return t.lots[i].EffectiveFrom.After(date)
	})
	if i == 0 {
		return HoldingLot{}, false
	}
	return t.lots[i-1], true
}

// QuantityAt returns the quantity held on date and whether any lot applies
func (t *LotTimeline) QuantityAt(date time.Time) (decimal.Decimal, bool) {
	lot, ok := t.LatestAsOf(date)
	if !ok {
		return decimal.Zero, false
	}
	return lot.Quantity, true
}

// Len returns the number of lots
func (t *LotTimeline) Len() int { return len(t.lots) }

// Lots returns a copy of the lots in timeline order
func (t *LotTimeline) Lots() []HoldingLot {
	out := make([]HoldingLot, len(t.lots))
	copy(out, t.lots)
	return out
}
