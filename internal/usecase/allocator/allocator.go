package allocator

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// AllocateQuantities splits an initial portfolio value across assets by target weight
// Returns a map of asset ID to quantity
// Logic:
//  1. Each weighted asset needs a positive price
//  2. quantity = weight × initial value / price, truncated (never rounded up) to domain.QuantityScale
//  3. A zero weight still yields an entry with a zero quantity
//
// Safety: Ensures the allocated notional never exceeds weight × initial value for any asset
func AllocateQuantities(initialValue decimal.Decimal, weights domain.InitialWeights, prices map[uuid.UUID]decimal.Decimal) (map[uuid.UUID]decimal.Decimal, error) {
	if initialValue.IsNegative() {
		return nil, fmt.Errorf("%w: initial value must not be negative", domain.ErrInvalidInput)
	}

	allocation := make(map[uuid.UUID]decimal.Decimal, len(weights))
	for _, w := range weights {
		price, ok := prices[w.AssetID]
		if !ok {
			return nil, fmt.Errorf("%w: asset %s", domain.ErrMissingPrice, w.AssetID)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("%w: price of asset %s must be positive", domain.ErrInvalidInput, w.AssetID)
		}

		target := w.Weight.Mul(initialValue)
		quantity, _ := target.QuoRem(price, domain.QuantityScale)

		// Safety check: truncation only ever leaves cash unallocated
		if quantity.Mul(price).GreaterThan(target) {
			return nil, errors.New("allocated notional exceeds target")
		}

		allocation[w.AssetID] = quantity
	}

	return allocation, nil
}
