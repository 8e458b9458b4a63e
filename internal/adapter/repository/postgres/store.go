package postgres

import (
	"context"
	"fmt"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// ledger implements domain.Ledger over a Querier
type ledger struct {
	q Querier
}

func (l ledger) Portfolios() domain.PortfolioRepository { return NewPortfolioRepository(l.q) }
func (l ledger) Assets() domain.AssetRepository         { return NewAssetRepository(l.q) }
func (l ledger) Prices() domain.PriceRepository         { return NewPriceRepository(l.q) }
func (l ledger) Weights() domain.WeightRepository       { return NewWeightRepository(l.q) }
func (l ledger) Lots() domain.LotRepository             { return NewLotRepository(l.q) }
func (l ledger) Trades() domain.TradeRepository         { return NewTradeRepository(l.q) }

// Store implements domain.LedgerStore on PostgreSQL
type Store struct {
	ledger
	db *DB
}

// NewStore creates a ledger store backed by db
func NewStore(db *DB) *Store {
	return &Store{ledger: ledger{q: db}, db: db}
}

// Atomic runs fn inside a single database transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx domain.Ledger) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(ctx, ledger{q: dbTx}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
