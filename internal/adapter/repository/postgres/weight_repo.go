package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// weightRepository implements domain.WeightRepository
type weightRepository struct {
	q Querier
}

// NewWeightRepository creates a new initial weight repository
func NewWeightRepository(q Querier) domain.WeightRepository {
	return &weightRepository{q: q}
}

// ReplaceInitialWeights deletes the portfolio's weights and inserts the new set in one transaction
func (r *weightRepository) ReplaceInitialWeights(ctx context.Context, portfolioID uuid.UUID, weights domain.InitialWeights) error {
	weights = weights.Normalize()
	if err := weights.Validate(false); err != nil {
		return err
	}

	return inTx(ctx, r.q, func(q Querier) error {
		if _, err := q.ExecContext(ctx, `DELETE FROM initial_weights WHERE portfolio_id = $1`, portfolioID); err != nil {
			return fmt.Errorf("failed to delete initial weights: %w", err)
		}

		insertQuery := `
			INSERT INTO initial_weights (portfolio_id, asset_id, weight)
			VALUES ($1, $2, $3)
		`
		for _, w := range weights {
			if w.PortfolioID != portfolioID {
				return fmt.Errorf("%w: weight for asset %s belongs to another portfolio", domain.ErrInvalidInput, w.AssetID)
			}
			if _, err := q.ExecContext(ctx, insertQuery, portfolioID, w.AssetID, w.Weight.StringFixed(domain.WeightScale)); err != nil {
				return writeError("failed to insert initial weight", err)
			}
		}
		return nil
	})
}

// ListInitialWeights returns the portfolio's weights ordered by asset
func (r *weightRepository) ListInitialWeights(ctx context.Context, portfolioID uuid.UUID) (domain.InitialWeights, error) {
	query := `
		SELECT portfolio_id, asset_id, weight
		FROM initial_weights
		WHERE portfolio_id = $1
		ORDER BY asset_id
	`

	rows, err := r.q.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query initial weights: %w", err)
	}
	defer rows.Close()

	var weights domain.InitialWeights
	for rows.Next() {
		var w domain.InitialWeight
		var weightStr string

		if err := rows.Scan(&w.PortfolioID, &w.AssetID, &weightStr); err != nil {
			return nil, fmt.Errorf("failed to scan initial weight: %w", err)
		}

		weight, err := decimal.NewFromString(weightStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse initial weight: %w", err)
		}
		w.Weight = weight

		weights = append(weights, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating initial weights: %w", err)
	}

	return weights, nil
}
