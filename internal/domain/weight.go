package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeightSumTolerance is the allowed distance of a weight set's sum from 1
var WeightSumTolerance = decimal.New(1, -6)

// InitialWeight is the target weight of an asset in a portfolio at inception.
// (PortfolioID, AssetID) is unique; the set is replaced wholesale on reload.
type InitialWeight struct {
	PortfolioID uuid.UUID
	AssetID     uuid.UUID
	Weight      decimal.Decimal // 8 fractional digits, semantically in [0, 1]
}

// Validate ensures the weight adheres to domain rules
func (w *InitialWeight) Validate() error {
	if w.PortfolioID == uuid.Nil || w.AssetID == uuid.Nil {
		return fmt.Errorf("%w: initial weight must reference a portfolio and an asset", ErrInvalidInput)
	}
	if w.Weight.IsNegative() || w.Weight.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: initial weight must be between 0 and 1", ErrInvalidInput)
	}
	return nil
}

// Normalize returns the weight rounded half away from zero to WeightScale digits
func (w InitialWeight) Normalize() InitialWeight {
	w.Weight = w.Weight.Round(WeightScale)
	return w
}

// InitialWeights is the full weight set of one portfolio
type InitialWeights []InitialWeight

// Normalize returns a copy of the set with every weight at WeightScale digits
func (ws InitialWeights) Normalize() InitialWeights {
	out := make(InitialWeights, len(ws))
	for i := range ws {
		out[i] = ws[i].Normalize()
	}
	return out
}

// Validate checks every weight and rejects duplicate assets.
// When requireUnitSum is set the weights must also add up to 1 (within WeightSumTolerance).
func (ws InitialWeights) Validate(requireUnitSum bool) error {
	seen := make(map[uuid.UUID]bool, len(ws))

	for i := range ws {
		if err := ws[i].Validate(); err != nil {
			return err
		}
		if seen[ws[i].AssetID] {
			return fmt.Errorf("%w: duplicate initial weight for asset %s", ErrInvalidInput, ws[i].AssetID)
		}
		seen[ws[i].AssetID] = true
	}

	if requireUnitSum && len(ws) > 0 {
		if sum := ws.Sum(); sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(WeightSumTolerance) {
			return fmt.Errorf("%w: initial weights sum to %s, expected 1", ErrInvalidInput, sum.String())
		}
	}

	return nil
}

// Sum returns the total of the weights
func (ws InitialWeights) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, w := range ws {
		sum = sum.Add(w.Weight)
	}
	return sum
}
