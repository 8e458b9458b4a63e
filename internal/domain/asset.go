package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fixed-point scales of the persisted decimal columns
const (
	MoneyScale    int32 = 2
	PriceScale    int32 = 8
	WeightScale   int32 = 8
	QuantityScale int32 = 12
)

// Asset is an identity entity shared by prices, weights, lots and trades
type Asset struct {
	ID     uuid.UUID
	Name   string // unique
	Ticker string // optional
}

// Validate ensures the asset adheres to domain rules
func (a *Asset) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: asset name cannot be empty", ErrInvalidInput)
	}
	return nil
}

// Portfolio owns its initial weights, holding lots and trade records.
// InceptionDate (t0) is treated as immutable once created.
type Portfolio struct {
	ID              uuid.UUID
	Name            string // unique
	InceptionDate   time.Time
	InitialValueUSD decimal.Decimal // non-negative, 2 fractional digits
}

// Validate ensures the portfolio adheres to domain rules
// Returns an error if validation fails
func (p *Portfolio) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: portfolio name cannot be empty", ErrInvalidInput)
	}

	if p.InceptionDate.IsZero() {
		return fmt.Errorf("%w: portfolio inception date is required", ErrInvalidInput)
	}

	if p.InitialValueUSD.IsNegative() {
		return fmt.Errorf("%w: portfolio initial value cannot be negative", ErrInvalidInput)
	}

	if !p.InitialValueUSD.Equal(p.InitialValueUSD.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: portfolio initial value allows at most %d fractional digits", ErrInvalidInput, MoneyScale)
	}

	return nil
}
