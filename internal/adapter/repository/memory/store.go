// Package memory is an in-process implementation of domain.LedgerStore.
// It serves tests, the CLI's dry runs and deployments configured with STORE=memory.
package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

type lotKey struct {
	PortfolioID uuid.UUID
	AssetID     uuid.UUID
}

// state is one consistent snapshot of the ledger
type state struct {
	portfolios map[uuid.UUID]domain.Portfolio
	assets     map[uuid.UUID]domain.Asset
	prices     map[domain.PriceKey]domain.PriceObservation
	weights    map[uuid.UUID]domain.InitialWeights
	lots       map[lotKey]*domain.LotTimeline
	trades     []domain.TradeRecord
	nextSeq    int64
}

func newState() *state {
	return &state{
		portfolios: make(map[uuid.UUID]domain.Portfolio),
		assets:     make(map[uuid.UUID]domain.Asset),
		prices:     make(map[domain.PriceKey]domain.PriceObservation),
		weights:    make(map[uuid.UUID]domain.InitialWeights),
		lots:       make(map[lotKey]*domain.LotTimeline),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.portfolios {
		c.portfolios[k] = v
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.prices {
		c.prices[k] = v
	}
	for k, v := range s.weights {
		c.weights[k] = append(domain.InitialWeights(nil), v...)
	}
	for k, v := range s.lots {
		c.lots[k] = domain.NewLotTimeline(v.Lots()...)
	}
	c.trades = append([]domain.TradeRecord(nil), s.trades...)
	c.nextSeq = s.nextSeq
	return c
}

// Store implements domain.LedgerStore in memory
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newState()}
}

// view binds the repositories either to the live state (taking the lock per call)
// or to a transaction snapshot (the lock is already held by Atomic).
type view struct {
	store *Store
	tx    *state
}

func (v *view) read(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.state)
}

func (v *view) write(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()

	// single-call writes are atomic as well: apply to a copy, keep it only on success
	next := v.store.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	v.store.state = next
	return nil
}

func (v *view) Portfolios() domain.PortfolioRepository { return &portfolioRepository{v: v} }
func (v *view) Assets() domain.AssetRepository         { return &assetRepository{v: v} }
func (v *view) Prices() domain.PriceRepository         { return &priceRepository{v: v} }
func (v *view) Weights() domain.WeightRepository       { return &weightRepository{v: v} }
func (v *view) Lots() domain.LotRepository             { return &lotRepository{v: v} }
func (v *view) Trades() domain.TradeRepository         { return &tradeRepository{v: v} }

func (s *Store) live() *view { return &view{store: s} }

func (s *Store) Portfolios() domain.PortfolioRepository { return s.live().Portfolios() }
func (s *Store) Assets() domain.AssetRepository         { return s.live().Assets() }
func (s *Store) Prices() domain.PriceRepository         { return s.live().Prices() }
func (s *Store) Weights() domain.WeightRepository       { return s.live().Weights() }
func (s *Store) Lots() domain.LotRepository             { return s.live().Lots() }
func (s *Store) Trades() domain.TradeRepository         { return s.live().Trades() }

// Atomic runs fn against a private snapshot and publishes it only when fn succeeds.
// Writers are serialised; fn must not call back into the live store.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx domain.Ledger) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, &view{store: s, tx: snapshot}); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

func lessUUID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
