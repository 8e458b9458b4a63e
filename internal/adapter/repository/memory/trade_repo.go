package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// tradeRepository implements domain.TradeRepository
type tradeRepository struct {
	v *view
}

func (r *tradeRepository) Create(ctx context.Context, trade *domain.TradeRecord) error {
	*trade = trade.Normalize()
	if err := trade.Validate(); err != nil {
		return err
	}
	return r.v.write(func(st *state) error {
		if _, ok := st.portfolios[trade.PortfolioID]; !ok {
			return fmt.Errorf("portfolio %s: %w", trade.PortfolioID, domain.ErrNotFound)
		}
		if _, ok := st.assets[trade.AssetID]; !ok {
			return fmt.Errorf("asset %s: %w", trade.AssetID, domain.ErrNotFound)
		}
		if trade.ID == uuid.Nil {
			trade.ID = uuid.New()
		}
		st.trades = append(st.trades, *trade)
		return nil
	})
}

func (r *tradeRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]domain.TradeRecord, error) {
	var out []domain.TradeRecord
	err := r.v.read(func(st *state) error {
		for _, t := range st.trades {
			if t.PortfolioID == portfolioID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].TradeDate.Before(out[j].TradeDate) })
	return out, err
}
