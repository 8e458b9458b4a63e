package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceObservation is the closing price of an asset on a calendar day.
// (AssetID, Date) is unique; observations are immutable once written.
type PriceObservation struct {
	AssetID uuid.UUID
	Date    time.Time
	Price   decimal.Decimal // non-negative, 8 fractional digits
}

// Validate ensures the observation adheres to domain rules
func (p *PriceObservation) Validate() error {
	if p.AssetID == uuid.Nil {
		return fmt.Errorf("%w: price observation must reference an asset", ErrInvalidInput)
	}
	if p.Date.IsZero() {
		return fmt.Errorf("%w: price observation date is required", ErrInvalidInput)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	return nil
}

// Normalize returns the observation as the store keeps it: the price rounded half away
// from zero to PriceScale digits and the date truncated to its day
func (p PriceObservation) Normalize() PriceObservation {
	p.Price = p.Price.Round(PriceScale)
	p.Date = TruncateDay(p.Date)
	return p
}

// PriceKey identifies a price observation
type PriceKey struct {
	AssetID uuid.UUID
	Date    time.Time
}

// Key returns the unique (asset, date) key of the observation
func (p PriceObservation) Key() PriceKey {
	return PriceKey{AssetID: p.AssetID, Date: TruncateDay(p.Date)}
}
