package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// resolvePortfolio accepts either a portfolio ID or a portfolio name
func resolvePortfolio(ctx context.Context, ledger domain.Ledger, ref string) (*domain.Portfolio, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return ledger.Portfolios().GetByID(ctx, id)
	}
	p, err := ledger.Portfolios().GetByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("portfolio %q: %w", ref, err)
	}
	return p, nil
}

// resolveAsset accepts either an asset ID or an asset name
func resolveAsset(ctx context.Context, ledger domain.Ledger, ref string) (*domain.Asset, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return ledger.Assets().GetByID(ctx, id)
	}
	a, err := ledger.Assets().GetByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", ref, err)
	}
	return a, nil
}

// fail reports err on stderr and picks the exit status
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidRange) {
		return subcommands.ExitUsageError
	}
	return subcommands.ExitFailure
}
