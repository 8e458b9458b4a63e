package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInitialWeights_Validate(t *testing.T) {
	portfolioID := uuid.New()
	assetA, assetB := uuid.New(), uuid.New()

	tests := []struct {
		name           string
		weights        InitialWeights
		requireUnitSum bool
		wantErr        bool
		errMsg         string
	}{
		{
			name: "weights summing to one",
			weights: InitialWeights{
				{PortfolioID: portfolioID, AssetID: assetA, Weight: decimal.RequireFromString("0.6")},
				{PortfolioID: portfolioID, AssetID: assetB, Weight: decimal.RequireFromString("0.4")},
			},
			requireUnitSum: true,
		},
		{
			name: "weights not summing to one are rejected when strict",
			weights: InitialWeights{
				{PortfolioID: portfolioID, AssetID: assetA, Weight: decimal.RequireFromString("0.6")},
				{PortfolioID: portfolioID, AssetID: assetB, Weight: decimal.RequireFromString("0.3")},
			},
			requireUnitSum: true,
			wantErr:        true,
			errMsg:         "sum to 0.9",
		},
		{
			name: "weights not summing to one are accepted when lenient",
			weights: InitialWeights{
				{PortfolioID: portfolioID, AssetID: assetA, Weight: decimal.RequireFromString("0.6")},
			},
			requireUnitSum: false,
		},
		{
			name: "weight above one",
			weights: InitialWeights{
				{PortfolioID: portfolioID, AssetID: assetA, Weight: decimal.RequireFromString("1.2")},
			},
			wantErr: true,
			errMsg:  "between 0 and 1",
		},
		{
			name: "duplicate asset",
			weights: InitialWeights{
				{PortfolioID: portfolioID, AssetID: assetA, Weight: decimal.RequireFromString("0.5")},
				{PortfolioID: portfolioID, AssetID: assetA, Weight: decimal.RequireFromString("0.5")},
			},
			wantErr: true,
			errMsg:  "duplicate",
		},
		{
			name:           "empty set",
			weights:        InitialWeights{},
			requireUnitSum: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate(tt.requireUnitSum)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
