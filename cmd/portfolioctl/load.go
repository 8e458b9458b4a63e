package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/usecase/bootstrap"
	"github.com/simaogato/portfolio-metrics/internal/usecase/ingest"
)

type loadCmd struct {
	open          storeOpener
	strictWeights bool
	out           io.Writer

	prices      string
	weights     string
	weightCol   string
	t0          string
	v0          string
	portfolio   string
	noBootstrap bool
}

func (*loadCmd) Name() string { return "load" }
func (*loadCmd) Synopsis() string {
	return "load a price table and initial weights, then bootstrap holdings"
}
func (*loadCmd) Usage() string {
	return `portfolioctl load -prices <prices.csv> -weights <weights.csv> -t0 <YYYY-MM-DD> -v0 <usd> -portfolio <name> [-weight-col <column>] [-no-bootstrap]

  The price table has a date column ("Dates") followed by one column per asset.
  The weights table has an asset column ("activos") and one column per portfolio;
  the column is picked by -weight-col, by the portfolio name, or by the trailing
  number of the portfolio name.

  Running load again is safe: prices already stored are skipped, the initial
  value is corrected and the weights are replaced.
`
}

func (c *loadCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.prices, "prices", "", "Path to the price table CSV")
	f.StringVar(&c.weights, "weights", "", "Path to the weights table CSV")
	f.StringVar(&c.weightCol, "weight-col", "", "Weights column to use (defaults to one matching the portfolio)")
	f.StringVar(&c.t0, "t0", "", "Inception date, YYYY-MM-DD")
	f.StringVar(&c.v0, "v0", "", "Initial portfolio value in USD")
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name")
	f.BoolVar(&c.noBootstrap, "no-bootstrap", false, "Only load data, do not create initial holdings")
}

func (c *loadCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.prices == "" || c.weights == "" || c.t0 == "" || c.v0 == "" || c.portfolio == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	t0, err := domain.ParseDate(c.t0)
	if err != nil {
		return fail(err)
	}
	v0, err := decimal.NewFromString(c.v0)
	if err != nil {
		return fail(fmt.Errorf("%w: -v0 %q is not a number", domain.ErrInvalidInput, c.v0))
	}

	prices, weights, err := ingest.ReadFiles(c.prices, c.weights, c.portfolio, c.weightCol)
	if err != nil {
		return fail(err)
	}

	store, release, err := c.open(ctx)
	if err != nil {
		return fail(err)
	}
	defer release()

	result, err := ingest.NewIngestService(store, c.strictWeights).Load(ctx, ingest.LoadInput{
		PortfolioName:   c.portfolio,
		InceptionDate:   t0,
		InitialValueUSD: v0,
		Prices:          prices,
		Weights:         weights,
	})
	if err != nil {
		return fail(err)
	}

	holdings := 0
	if !c.noBootstrap {
		lots, err := bootstrap.NewBootstrapService(store).BootstrapInitialHoldings(ctx, result.Portfolio.ID, t0)
		if err != nil {
			return fail(err)
		}
		holdings = len(lots)
	}

	fmt.Fprintf(c.out, "Loaded %d assets, %d prices (%d already present) and %d holdings for %s (%s).\n",
		result.Assets, result.PricesInserted, result.PricesSkipped, holdings, result.Portfolio.Name, result.Portfolio.ID)
	return subcommands.ExitSuccess
}
