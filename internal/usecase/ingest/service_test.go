package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-metrics/internal/adapter/repository/memory"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

var t0 = domain.NewDate(2022, time.February, 15)

func sampleInput() LoadInput {
	return LoadInput{
		PortfolioName:   "Portafolio 1",
		InceptionDate:   t0,
		InitialValueUSD: decimal.NewFromInt(1_000_000_000),
		Prices: []PriceRow{
			{AssetName: "EEUU", Date: t0, Price: decimal.NewFromInt(10)},
			{AssetName: "Europa", Date: t0, Price: decimal.NewFromInt(20)},
			{AssetName: "EEUU", Date: t0.AddDate(0, 0, 1), Price: decimal.NewFromInt(11)},
		},
		Weights: []WeightRow{
			{AssetName: "EEUU", Weight: decimal.RequireFromString("0.6")},
			{AssetName: "Europa", Weight: decimal.RequireFromString("0.4")},
			{AssetName: "  ", Weight: decimal.Zero},
		},
	}
}

func TestLoad_CreatesEverything(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	result, err := NewIngestService(store, true).Load(ctx, sampleInput())
	require.NoError(t, err)

	assert.True(t, result.PortfolioCreated)
	assert.False(t, result.ValueCorrected)
	assert.Equal(t, 2, result.Assets)
	assert.Equal(t, 3, result.PricesInserted)
	assert.Equal(t, 0, result.PricesSkipped)
	assert.Equal(t, 2, result.Weights)

	portfolio, err := store.Portfolios().GetByName(ctx, "Portafolio 1")
	require.NoError(t, err)
	assert.True(t, portfolio.InceptionDate.Equal(t0))

	weights, err := store.Weights().ListInitialWeights(ctx, portfolio.ID)
	require.NoError(t, err)
	assert.Len(t, weights, 2)
	assert.True(t, decimal.NewFromInt(1).Equal(weights.Sum()))
}

func TestLoad_IsIdempotentAndCorrectsInitialValue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewIngestService(store, true)

	_, err := svc.Load(ctx, sampleInput())
	require.NoError(t, err)

	again := sampleInput()
	again.InitialValueUSD = decimal.RequireFromString("2000000000.50")
	again.InceptionDate = t0.AddDate(1, 0, 0)
	again.Prices[0].Price = decimal.NewFromInt(999)
	again.Weights = again.Weights[:1]
	again.Weights[0].Weight = decimal.NewFromInt(1)

	result, err := svc.Load(ctx, again)
	require.NoError(t, err)

	assert.False(t, result.PortfolioCreated)
	assert.True(t, result.ValueCorrected)
	assert.Equal(t, 0, result.PricesInserted)
	assert.Equal(t, 3, result.PricesSkipped)
	assert.Equal(t, 1, result.Weights)

	portfolio, err := store.Portfolios().GetByName(ctx, "Portafolio 1")
	require.NoError(t, err)
	assert.Equal(t, "2000000000.50", portfolio.InitialValueUSD.StringFixed(2))
	assert.True(t, portfolio.InceptionDate.Equal(t0), "inception date is never rewritten")

	us, err := store.Assets().GetByName(ctx, "EEUU")
	require.NoError(t, err)
	price, err := store.Prices().GetPrice(ctx, us.ID, t0)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(price.Price), "existing prices are never overwritten")

	weights, err := store.Weights().ListInitialWeights(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Len(t, weights, 1)
	assert.Equal(t, us.ID, weights[0].AssetID)
}

func TestLoad_StrictWeights(t *testing.T) {
	ctx := context.Background()

	input := sampleInput()
	input.Weights[1].Weight = decimal.RequireFromString("0.3")

	store := memory.NewStore()
	_, err := NewIngestService(store, true).Load(ctx, input)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "sum to 0.9")

	// nothing from the failed load is visible
	_, err = store.Portfolios().GetByName(ctx, "Portafolio 1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assets, err := store.Assets().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, assets)

	// lenient mode keeps the source behaviour
	result, err := NewIngestService(memory.NewStore(), false).Load(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Weights)
}

func TestLoad_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := NewIngestService(memory.NewStore(), true)

	input := sampleInput()
	input.PortfolioName = " "
	_, err := svc.Load(ctx, input)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	input = sampleInput()
	input.InitialValueUSD = decimal.NewFromInt(-1)
	_, err = svc.Load(ctx, input)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	input = sampleInput()
	input.Prices[0].Price = decimal.NewFromInt(-5)
	_, err = svc.Load(ctx, input)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
