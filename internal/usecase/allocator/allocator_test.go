package allocator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

func weight(assetID uuid.UUID, w string) domain.InitialWeight {
	return domain.InitialWeight{
		PortfolioID: uuid.New(),
		AssetID:     assetID,
		Weight:      decimal.RequireFromString(w),
	}
}

func TestAllocateQuantities_InceptionScenario(t *testing.T) {
	// Input: 1,000,000,000 USD
	// Weights: 60% at 10, 40% at 20
	// Expected: 60,000,000 and 20,000,000 units
	a := uuid.New()
	b := uuid.New()

	allocation, err := AllocateQuantities(
		decimal.NewFromInt(1_000_000_000),
		domain.InitialWeights{weight(a, "0.6"), weight(b, "0.4")},
		map[uuid.UUID]decimal.Decimal{a: decimal.NewFromInt(10), b: decimal.NewFromInt(20)},
	)

	require.NoError(t, err)
	require.Len(t, allocation, 2)
	assert.True(t, allocation[a].Equal(decimal.NewFromInt(60_000_000)), "got %s", allocation[a])
	assert.True(t, allocation[b].Equal(decimal.NewFromInt(20_000_000)), "got %s", allocation[b])
}

func TestAllocateQuantities_Truncates(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	allocation, err := AllocateQuantities(
		decimal.NewFromInt(100),
		domain.InitialWeights{weight(a, "0.5"), weight(b, "0.5")},
		map[uuid.UUID]decimal.Decimal{a: decimal.NewFromInt(3), b: decimal.NewFromInt(6)},
	)

	require.NoError(t, err)
	// 50 / 3 and 50 / 6, truncated rather than rounded
	assert.Equal(t, "16.666666666666", allocation[a].StringFixed(domain.QuantityScale))
	assert.Equal(t, "8.333333333333", allocation[b].StringFixed(domain.QuantityScale))
}

func TestAllocateQuantities_ZeroWeight(t *testing.T) {
	a := uuid.New()

	allocation, err := AllocateQuantities(
		decimal.NewFromInt(100),
		domain.InitialWeights{weight(a, "0")},
		map[uuid.UUID]decimal.Decimal{a: decimal.NewFromInt(3)},
	)

	require.NoError(t, err)
	assert.True(t, allocation[a].IsZero())
}

func TestAllocateQuantities_Errors(t *testing.T) {
	a := uuid.New()

	tests := []struct {
		name         string
		initialValue decimal.Decimal
		prices       map[uuid.UUID]decimal.Decimal
		wantErr      error
	}{
		{
			name:         "missing price",
			initialValue: decimal.NewFromInt(100),
			prices:       map[uuid.UUID]decimal.Decimal{},
			wantErr:      domain.ErrMissingPrice,
		},
		{
			name:         "zero price",
			initialValue: decimal.NewFromInt(100),
			prices:       map[uuid.UUID]decimal.Decimal{a: decimal.Zero},
			wantErr:      domain.ErrInvalidInput,
		},
		{
			name:         "negative initial value",
			initialValue: decimal.NewFromInt(-1),
			prices:       map[uuid.UUID]decimal.Decimal{a: decimal.NewFromInt(1)},
			wantErr:      domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocation, err := AllocateQuantities(tt.initialValue, domain.InitialWeights{weight(a, "1")}, tt.prices)
			assert.Nil(t, allocation)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
