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
	"github.com/simaogato/portfolio-metrics/internal/usecase/trade"
)

type bootstrapCmd struct {
	open storeOpener
	out  io.Writer

	portfolio string
	t0        string
}

func (*bootstrapCmd) Name() string     { return "bootstrap" }
func (*bootstrapCmd) Synopsis() string { return "create initial holdings from the initial weights" }
func (*bootstrapCmd) Usage() string {
	return `portfolioctl bootstrap -portfolio <name|id> [-t0 <YYYY-MM-DD>]

  Creates one holding lot per weighted asset, effective from t0.
  t0 defaults to the portfolio's inception date.
`
}

func (c *bootstrapCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name or ID")
	f.StringVar(&c.t0, "t0", "", "Bootstrap date, YYYY-MM-DD (defaults to the inception date)")
}

func (c *bootstrapCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" {
		f.Usage()
		return subcommands.ExitUsageError
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

	t0 := portfolio.InceptionDate
	if c.t0 != "" {
		if t0, err = domain.ParseDate(c.t0); err != nil {
			return fail(err)
		}
	}

	lots, err := bootstrap.NewBootstrapService(store).BootstrapInitialHoldings(ctx, portfolio.ID, t0)
	if err != nil {
		return fail(err)
	}

	for _, lot := range lots {
		fmt.Fprintf(c.out, "%s\t%s\t%s\n", domain.FormatDate(lot.EffectiveFrom), lot.AssetID, lot.Quantity.StringFixed(domain.QuantityScale))
	}
	fmt.Fprintf(c.out, "Created %d holdings for %s.\n", len(lots), portfolio.Name)
	return subcommands.ExitSuccess
}

type tradeCmd struct {
	open storeOpener
	out  io.Writer

	portfolio string
	asset     string
	date      string
	amount    string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "post a notional trade in USD" }
func (*tradeCmd) Usage() string {
	return `portfolioctl trade -portfolio <name|id> -asset <name|id> -date <YYYY-MM-DD> -amount <usd>

  A positive amount buys, a negative amount sells. The asset must already be
  held on the trade date and must have a price on that exact day.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "Portfolio name or ID")
	f.StringVar(&c.asset, "asset", "", "Asset name or ID")
	f.StringVar(&c.date, "date", "", "Trade date, YYYY-MM-DD")
	f.StringVar(&c.amount, "amount", "", "Signed notional in USD")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.portfolio == "" || c.asset == "" || c.date == "" || c.amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	tradeDate, err := domain.ParseDate(c.date)
	if err != nil {
		return fail(err)
	}
	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return fail(fmt.Errorf("%w: -amount %q is not a number", domain.ErrInvalidInput, c.amount))
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
	asset, err := resolveAsset(ctx, store, c.asset)
	if err != nil {
		return fail(err)
	}

	result, err := trade.NewTradeService(store).PostTradeNotional(ctx, trade.PostTradeInput{
		PortfolioID: portfolio.ID,
		AssetID:     asset.ID,
		TradeDate:   tradeDate,
		AmountUSD:   amount,
	})
	if err != nil {
		return fail(err)
	}

	fmt.Fprintf(c.out, "%s %s on %s at %s: %s -> %s\n",
		asset.Name,
		result.Trade.AmountUSD.StringFixed(domain.MoneyScale),
		domain.FormatDate(result.Lot.EffectiveFrom),
		result.Price.String(),
		result.PriorQuantity.StringFixed(domain.QuantityScale),
		result.Lot.Quantity.StringFixed(domain.QuantityScale),
	)
	return subcommands.ExitSuccess
}
