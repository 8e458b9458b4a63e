package seeder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-metrics/internal/adapter/repository/memory"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

func writeSource(t *testing.T) Source {
	t.Helper()
	dir := t.TempDir()

	prices := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(prices, []byte("Dates,EEUU,Europa\n2022-02-15,10,20\n"), 0o600))

	weights := filepath.Join(dir, "weights.csv")
	require.NoError(t, os.WriteFile(weights, []byte("activos,portafolio 1,portafolio 2\nEEUU,0.6,0.1\nEuropa,0.4,0.9\n"), 0o600))

	return Source{
		PricesPath:      prices,
		WeightsPath:     weights,
		PortfolioName:   "Portafolio 1",
		InceptionDate:   domain.NewDate(2022, time.February, 15),
		InitialValueUSD: decimal.NewFromInt(1_000_000_000),
	}
}

func TestPortfolioSeeder_Seed_BootstrapsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seeder := NewPortfolioSeeder(store, true)
	src := writeSource(t)

	result, err := seeder.Seed(ctx, src)
	require.NoError(t, err)
	assert.True(t, result.Load.PortfolioCreated)
	assert.True(t, result.Bootstrapped)
	require.Len(t, result.Lots, 2)

	// Second run: data is refreshed, holdings are left alone
	result, err = seeder.Seed(ctx, src)
	require.NoError(t, err)
	assert.False(t, result.Load.PortfolioCreated)
	assert.Equal(t, 2, result.Load.PricesSkipped)
	assert.False(t, result.Bootstrapped)
	assert.Empty(t, result.Lots)

	lots, err := store.Lots().ListLots(ctx, result.Load.Portfolio.ID, src.InceptionDate)
	require.NoError(t, err)
	assert.Len(t, lots, 2)
}

func TestPortfolioSeeder_Seed_MissingFile(t *testing.T) {
	src := writeSource(t)
	src.PricesPath = filepath.Join(t.TempDir(), "missing.csv")

	_, err := NewPortfolioSeeder(memory.NewStore(), true).Seed(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
