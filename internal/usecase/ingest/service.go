package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/logger"
)

// PriceRow is one price cell of a price table, keyed by asset name
type PriceRow struct {
	AssetName string
	Date      time.Time
	Price     decimal.Decimal
}

// WeightRow is one target weight, keyed by asset name
type WeightRow struct {
	AssetName string
	Weight    decimal.Decimal
}

// LoadInput represents the input for loading a portfolio's reference data
type LoadInput struct {
	PortfolioName   string
	InceptionDate   time.Time
	InitialValueUSD decimal.Decimal
	Prices          []PriceRow
	Weights         []WeightRow
}

// LoadResult summarises what a load wrote
type LoadResult struct {
	Portfolio        domain.Portfolio
	PortfolioCreated bool
	ValueCorrected   bool
	Assets           int
	PricesInserted   int
	PricesSkipped    int
	Weights          int
}

// IngestService populates assets, prices and initial weights ahead of a bootstrap
type IngestService struct {
	Store         domain.LedgerStore
	StrictWeights bool
}

// NewIngestService creates a new IngestService instance.
// When strictWeights is set, a weight set must sum to 1 within domain.WeightSumTolerance.
func NewIngestService(store domain.LedgerStore, strictWeights bool) *IngestService {
	return &IngestService{
		Store:         store,
		StrictWeights: strictWeights,
	}
}

// Load writes the input as one unit of work
// Logic:
//  1. Get or create the portfolio by name; an existing one gets its initial value corrected,
//     its inception date is never changed
//  2. Get or create every asset named by a price or a weight
//  3. Insert prices; (asset, date) pairs already stored are skipped
//  4. Replace the portfolio's initial weights wholesale
func (s *IngestService) Load(ctx context.Context, input LoadInput) (*LoadResult, error) {
	name := strings.TrimSpace(input.PortfolioName)
	if name == "" {
		return nil, fmt.Errorf("%w: portfolio name is required", domain.ErrInvalidInput)
	}

	result := &LoadResult{}

	err := s.Store.Atomic(ctx, func(ctx context.Context, tx domain.Ledger) error {
		*result = LoadResult{}

		// 1. Portfolio
		portfolio, err := s.ensurePortfolio(ctx, tx, name, input, result)
		if err != nil {
			return err
		}

		// 2. Assets
		assets := make(map[string]domain.Asset)
		ensure := func(assetName string) (domain.Asset, error) {
			assetName = strings.TrimSpace(assetName)
			if a, ok := assets[assetName]; ok {
				return a, nil
			}
			a, err := tx.Assets().GetOrCreate(ctx, assetName)
			if err != nil {
				return domain.Asset{}, fmt.Errorf("failed to ensure asset %q: %w", assetName, err)
			}
			assets[assetName] = *a
			return *a, nil
		}

		// 3. Prices
		prices := make([]domain.PriceObservation, 0, len(input.Prices))
		for _, row := range input.Prices {
			asset, err := ensure(row.AssetName)
			if err != nil {
				return err
			}
			prices = append(prices, domain.PriceObservation{
				AssetID: asset.ID,
				Date:    domain.TruncateDay(row.Date),
				Price:   row.Price,
			})
		}
		inserted, err := tx.Prices().InsertPrices(ctx, prices)
		if err != nil {
			return fmt.Errorf("failed to insert prices: %w", err)
		}
		result.PricesInserted = inserted
		result.PricesSkipped = len(prices) - inserted

		// 4. Weights
		weights := make(domain.InitialWeights, 0, len(input.Weights))
		for _, row := range input.Weights {
			if strings.TrimSpace(row.AssetName) == "" {
				continue
			}
			asset, err := ensure(row.AssetName)
			if err != nil {
				return err
			}
			weights = append(weights, domain.InitialWeight{
				PortfolioID: portfolio.ID,
				AssetID:     asset.ID,
				Weight:      row.Weight,
			})
		}
		// The unit-sum check runs on the weights as stored
		weights = weights.Normalize()
		if err := weights.Validate(s.StrictWeights); err != nil {
			return err
		}
		if err := tx.Weights().ReplaceInitialWeights(ctx, portfolio.ID, weights); err != nil {
			return fmt.Errorf("failed to replace initial weights: %w", err)
		}

		result.Portfolio = *portfolio
		result.Assets = len(assets)
		result.Weights = len(weights)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Portfolio data loaded",
		"portfolio", result.Portfolio.Name,
		"assets", result.Assets,
		"prices_inserted", result.PricesInserted,
		"prices_skipped", result.PricesSkipped,
		"weights", result.Weights,
	)

	return result, nil
}

func (s *IngestService) ensurePortfolio(ctx context.Context, tx domain.Ledger, name string, input LoadInput, result *LoadResult) (*domain.Portfolio, error) {
	portfolio, err := tx.Portfolios().GetByName(ctx, name)
	if err == nil {
		if !portfolio.InitialValueUSD.Equal(input.InitialValueUSD) {
			corrected := *portfolio
			corrected.InitialValueUSD = input.InitialValueUSD
			if err := corrected.Validate(); err != nil {
				return nil, err
			}
			if err := tx.Portfolios().UpdateInitialValue(ctx, portfolio.ID, input.InitialValueUSD); err != nil {
				return nil, fmt.Errorf("failed to correct initial value: %w", err)
			}
			portfolio.InitialValueUSD = input.InitialValueUSD
			result.ValueCorrected = true
		}
		return portfolio, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up portfolio: %w", err)
	}

	portfolio = &domain.Portfolio{
		Name:            name,
		InceptionDate:   domain.TruncateDay(input.InceptionDate),
		InitialValueUSD: input.InitialValueUSD,
	}
	if err := portfolio.Validate(); err != nil {
		return nil, err
	}
	if err := tx.Portfolios().Create(ctx, portfolio); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	result.PortfolioCreated = true
	return portfolio, nil
}
