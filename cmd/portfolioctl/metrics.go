package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/google/subcommands"

	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/usecase/valuation"
)

type metricsCmd struct {
	open    storeOpener
	nameTTL time.Duration
	out     io.Writer

	portfolio string
	start     string
	end       string
}

func (*metricsCmd) Name() string     { return "metrics" }
func (*metricsCmd) Synopsis() string { return "print daily values and weights as JSON" }
func (*metricsCmd) Usage() string {
	return `portfolioctl metrics -portfolio <name|id> -start <YYYY-MM-DD> -end <YYYY-MM-DD>

  Prints the same document as GET /api/portfolios/{id}/metrics.
`
}

func (c *metricsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name or ID")
	f.StringVar(&c.start, "start", "", "First date of the range, YYYY-MM-DD")
	f.StringVar(&c.end, "end", "", "Last date of the range, YYYY-MM-DD")
}

func (c *metricsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || c.start == "" || c.end == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	start, err := domain.ParseDate(c.start)
	if err != nil {
		return fail(err)
	}
	end, err := domain.ParseDate(c.end)
	if err != nil {
		return fail(err)
	}

	store, release, err := c.open(ctx)
	if err != nil {
		return fail(err)
	}
	defer release()

	portfolio, err := resolvePortfolio(ctx, store, c.portfolio)
	if err != nil {
		return fail(err)
	}

	report, err := valuation.NewValuationService(store, c.nameTTL).Metrics(ctx, portfolio.ID, start, end)
	if err != nil {
		return fail(err)
	}

	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fail(fmt.Errorf("failed to write report: %w", err))
	}
	return subcommands.ExitSuccess
}
