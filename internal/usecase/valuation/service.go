package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/usecase/holdings"
)

// DefaultNameTTL is how long an asset name stays in the lookup cache
const DefaultNameTTL = 10 * time.Minute

// WeightPoint is the weight of every included asset on one date
type WeightPoint struct {
	Date    time.Time
	Weights map[uuid.UUID]decimal.Decimal
}

// ValuePoint is the total portfolio value on one date
type ValuePoint struct {
	Date  time.Time
	Value decimal.Decimal
}

// Series is the output of ComputeSeries. Weights and Values are both ascending
// by date and always cover the same dates.
type Series struct {
	Weights []WeightPoint
	Values  []ValuePoint
}

// WeightsByDate returns the weight series keyed by date
func (s *Series) WeightsByDate() map[time.Time]map[uuid.UUID]decimal.Decimal {
	out := make(map[time.Time]map[uuid.UUID]decimal.Decimal, len(s.Weights))
	for _, p := range s.Weights {
		out[p.Date] = p.Weights
	}
	return out
}

// ValuesByDate returns the value series keyed by date
func (s *Series) ValuesByDate() map[time.Time]decimal.Decimal {
	out := make(map[time.Time]decimal.Decimal, len(s.Values))
	for _, p := range s.Values {
		out[p.Date] = p.Value
	}
	return out
}

// ValuationService computes per-day portfolio value and asset weights
type ValuationService struct {
	PortfolioRepo domain.PortfolioRepository
	AssetRepo     domain.AssetRepository
	PriceRepo     domain.PriceRepository
	LotRepo       domain.LotRepository
	Resolver      *holdings.Resolver

	names *cache.Cache
}

// NewValuationService creates a new ValuationService instance.
// nameTTL bounds how long asset names are cached for reports; zero uses DefaultNameTTL.
func NewValuationService(ledger domain.Ledger, nameTTL time.Duration) *ValuationService {
	if nameTTL <= 0 {
		nameTTL = DefaultNameTTL
	}
	return &ValuationService{
		PortfolioRepo: ledger.Portfolios(),
		AssetRepo:     ledger.Assets(),
		PriceRepo:     ledger.Prices(),
		LotRepo:       ledger.Lots(),
		Resolver:      holdings.NewResolver(ledger.Lots()),
		names:         cache.New(nameTTL, 2*nameTTL),
	}
}

// ComputeSeries returns the daily value and weight series of a portfolio over [start, end]
// Logic:
//  1. Universe = every asset that ever appears in the portfolio's lots
//  2. Dates = every date in range with a price for any asset of the universe
//  3. Per date: notional = price × quantity for each priced asset that is held on that date;
//     priced but absent assets are left out
//  4. V = sum of notionals. Dates with V == 0 are dropped from both series,
//     otherwise weight = notional / V
func (s *ValuationService) ComputeSeries(ctx context.Context, portfolioID uuid.UUID, start, end time.Time) (*Series, error) {
	start, end = domain.TruncateDay(start), domain.TruncateDay(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", domain.ErrInvalidRange, domain.FormatDate(end), domain.FormatDate(start))
	}

	if _, err := s.PortfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}

	series := &Series{}

	// 1. Asset universe
	universe, err := s.LotRepo.HeldAssetIDs(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list held assets: %w", err)
	}
	if len(universe) == 0 {
		return series, nil
	}

	// 2. Prices ordered by date then asset, so each date is one contiguous run
	prices, err := s.PriceRepo.PricesInRange(ctx, universe, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}
	if len(prices) == 0 {
		return series, nil
	}

	book, err := s.Resolver.Book(ctx, portfolioID, end)
	if err != nil {
		return nil, err
	}

	// 3-4. Aggregate one date at a time
	for i := 0; i < len(prices); {
		date := prices[i].Date
		j := i
		for j < len(prices) && prices[j].Date.Equal(date) {
			j++
		}

		quantities := book.QuantitiesAt(date)
		notionals := make(map[uuid.UUID]decimal.Decimal, j-i)
		total := decimal.Zero
		for _, p := range prices[i:j] {
			qty, held := quantities[p.AssetID]
			if !held {
				continue
			}
			notional := p.Price.Mul(qty)
			notionals[p.AssetID] = notional
			total = total.Add(notional)
		}
		i = j

		if total.IsZero() {
			continue
		}

		weights := make(map[uuid.UUID]decimal.Decimal, len(notionals))
		for assetID, notional := range notionals {
			weights[assetID] = notional.Div(total)
		}

		series.Weights = append(series.Weights, WeightPoint{Date: date, Weights: weights})
		series.Values = append(series.Values, ValuePoint{Date: date, Value: total})
	}

	return series, nil
}

// DatedWeights is one entry of a report's weight series
type DatedWeights struct {
	Date    string             `json:"date"`
	Weights map[string]float64 `json:"weights"`
}

// DatedValue is one entry of a report's value series
type DatedValue struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Report is the presentation form of a Series: asset names instead of ids
// and floating point values
type Report struct {
	Weights []DatedWeights `json:"weights"`
	Values  []DatedValue   `json:"values"`
}

// Metrics computes the series of a portfolio and renders it as a Report
func (s *ValuationService) Metrics(ctx context.Context, portfolioID uuid.UUID, start, end time.Time) (*Report, error) {
	series, err := s.ComputeSeries(ctx, portfolioID, start, end)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Weights: make([]DatedWeights, 0, len(series.Weights)),
		Values:  make([]DatedValue, 0, len(series.Values)),
	}

	for _, p := range series.Weights {
		weights := make(map[string]float64, len(p.Weights))
		for assetID, w := range p.Weights {
			name, err := s.assetName(ctx, assetID)
			if err != nil {
				return nil, err
			}
			weights[name] = w.InexactFloat64()
		}
		report.Weights = append(report.Weights, DatedWeights{Date: domain.FormatDate(p.Date), Weights: weights})
	}

	for _, p := range series.Values {
		report.Values = append(report.Values, DatedValue{Date: domain.FormatDate(p.Date), Value: p.Value.InexactFloat64()})
	}

	return report, nil
}

// assetName resolves an asset id to its name, falling back to the id string for unknown assets
func (s *ValuationService) assetName(ctx context.Context, assetID uuid.UUID) (string, error) {
	key := assetID.String()
	if name, ok := s.names.Get(key); ok {
		return name.(string), nil
	}

	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return key, nil
		}
		return "", fmt.Errorf("failed to look up asset name: %w", err)
	}

	s.names.Set(key, asset.Name, cache.DefaultExpiration)
	return asset.Name, nil
}
