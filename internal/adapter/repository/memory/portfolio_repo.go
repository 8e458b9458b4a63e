package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository
type portfolioRepository struct {
	v *view
}

func (r *portfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	var out *domain.Portfolio
	err := r.v.read(func(st *state) error {
		p, ok := st.portfolios[id]
		if !ok {
			return fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *portfolioRepository) GetByName(ctx context.Context, name string) (*domain.Portfolio, error) {
	var out *domain.Portfolio
	err := r.v.read(func(st *state) error {
		for _, p := range st.portfolios {
			if p.Name == name {
				out = &p
				return nil
			}
		}
		return fmt.Errorf("portfolio %q: %w", name, domain.ErrNotFound)
	})
	return out, err
}

func (r *portfolioRepository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	if err := portfolio.Validate(); err != nil {
		return err
	}
	if portfolio.ID == uuid.Nil {
		portfolio.ID = uuid.New()
	}

	return r.v.write(func(st *state) error {
		if _, ok := st.portfolios[portfolio.ID]; ok {
			return fmt.Errorf("%w: portfolio %s already exists", domain.ErrInvalidInput, portfolio.ID)
		}
		for _, p := range st.portfolios {
			if p.Name == portfolio.Name {
				return fmt.Errorf("%w: portfolio name %q already exists", domain.ErrInvalidInput, portfolio.Name)
			}
		}
		p := *portfolio
		p.InceptionDate = domain.TruncateDay(p.InceptionDate)
		st.portfolios[p.ID] = p
		return nil
	})
}

func (r *portfolioRepository) UpdateInitialValue(ctx context.Context, id uuid.UUID, value decimal.Decimal) error {
	return r.v.write(func(st *state) error {
		p, ok := st.portfolios[id]
		if !ok {
			return fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
		}
		p.InitialValueUSD = value
		st.portfolios[id] = p
		return nil
	})
}

// Delete cascades to the portfolio's weights, lots and trades
func (r *portfolioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.portfolios[id]; !ok {
			return fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
		}
		delete(st.portfolios, id)
		delete(st.weights, id)
		for k := range st.lots {
			if k.PortfolioID == id {
				delete(st.lots, k)
			}
		}
		trades := st.trades[:0]
		for _, t := range st.trades {
			if t.PortfolioID != id {
				trades = append(trades, t)
			}
		}
		st.trades = trades
		return nil
	})
}
