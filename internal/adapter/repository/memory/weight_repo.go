package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// weightRepository implements domain.WeightRepository
type weightRepository struct {
	v *view
}

func (r *weightRepository) ReplaceInitialWeights(ctx context.Context, portfolioID uuid.UUID, weights domain.InitialWeights) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.portfolios[portfolioID]; !ok {
			return fmt.Errorf("portfolio %s: %w", portfolioID, domain.ErrNotFound)
		}
		weights = weights.Normalize()
		if err := weights.Validate(false); err != nil {
			return err
		}
		for _, w := range weights {
			if w.PortfolioID != portfolioID {
				return fmt.Errorf("%w: weight for asset %s belongs to another portfolio", domain.ErrInvalidInput, w.AssetID)
			}
			if _, ok := st.assets[w.AssetID]; !ok {
				return fmt.Errorf("asset %s: %w", w.AssetID, domain.ErrNotFound)
			}
		}
		st.weights[portfolioID] = weights
		return nil
	})
}

func (r *weightRepository) ListInitialWeights(ctx context.Context, portfolioID uuid.UUID) (domain.InitialWeights, error) {
	var out domain.InitialWeights
	err := r.v.read(func(st *state) error {
		out = append(domain.InitialWeights(nil), st.weights[portfolioID]...)
		return nil
	})
	return out, err
}
