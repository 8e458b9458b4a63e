package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/logger"
	"github.com/simaogato/portfolio-metrics/internal/usecase/bootstrap"
	"github.com/simaogato/portfolio-metrics/internal/usecase/ingest"
)

// Source names the CSV files and the portfolio a startup seed loads
type Source struct {
	PricesPath      string
	WeightsPath     string
	PortfolioName   string
	InceptionDate   time.Time
	InitialValueUSD decimal.Decimal
}

// Result reports what a seed did
type Result struct {
	Load         *ingest.LoadResult
	Bootstrapped bool
	Lots         []domain.HoldingLot
}

// PortfolioSeeder loads reference data at startup and bootstraps the portfolio once
type PortfolioSeeder struct {
	Store     domain.LedgerStore
	Ingest    *ingest.IngestService
	Bootstrap *bootstrap.BootstrapService
}

// NewPortfolioSeeder creates a new PortfolioSeeder instance
func NewPortfolioSeeder(store domain.LedgerStore, strictWeights bool) *PortfolioSeeder {
	return &PortfolioSeeder{
		Store:     store,
		Ingest:    ingest.NewIngestService(store, strictWeights),
		Bootstrap: bootstrap.NewBootstrapService(store),
	}
}

// Seed ensures the source's portfolio exists with its prices and weights
// If the portfolio holds nothing yet, initial holdings are created at the inception date.
// Running it again only tops up prices, corrects the initial value and replaces the weights.
func (s *PortfolioSeeder) Seed(ctx context.Context, src Source) (*Result, error) {
	prices, weights, err := ingest.ReadFiles(src.PricesPath, src.WeightsPath, src.PortfolioName, "")
	if err != nil {
		return nil, err
	}

	loaded, err := s.Ingest.Load(ctx, ingest.LoadInput{
		PortfolioName:   src.PortfolioName,
		InceptionDate:   src.InceptionDate,
		InitialValueUSD: src.InitialValueUSD,
		Prices:          prices,
		Weights:         weights,
	})
	if err != nil {
		return nil, err
	}
	result := &Result{Load: loaded}

	held, err := s.Store.Lots().HeldAssetIDs(ctx, loaded.Portfolio.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing holdings: %w", err)
	}
	if len(held) > 0 {
		logger.FromContext(ctx).Info("Portfolio already bootstrapped, skipping", "portfolio", loaded.Portfolio.Name)
		return result, nil
	}

	lots, err := s.Bootstrap.BootstrapInitialHoldings(ctx, loaded.Portfolio.ID, src.InceptionDate)
	if err != nil {
		return nil, err
	}
	result.Bootstrapped = true
	result.Lots = lots

	return result, nil
}
