package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	q Querier
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(q Querier) domain.AssetRepository {
	return &assetRepository{q: q}
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	var a domain.Asset
	err := r.q.QueryRowContext(ctx, `SELECT id, name, ticker FROM assets WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset by ID: %w", err)
	}
	return &a, nil
}

// GetByName retrieves an asset by its unique name
func (r *assetRepository) GetByName(ctx context.Context, name string) (*domain.Asset, error) {
	var a domain.Asset
	err := r.q.QueryRowContext(ctx, `SELECT id, name, ticker FROM assets WHERE name = $1`, name).
		Scan(&a.ID, &a.Name, &a.Ticker)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset by name: %w", err)
	}
	return &a, nil
}

// GetOrCreate inserts the asset unless the name already exists, then reads it back
func (r *assetRepository) GetOrCreate(ctx context.Context, name string) (*domain.Asset, error) {
	candidate := domain.Asset{ID: uuid.New(), Name: name}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO assets (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := r.q.ExecContext(ctx, query, candidate.ID, candidate.Name); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	return r.GetByName(ctx, name)
}

// List returns every asset ordered by name
func (r *assetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, ticker FROM assets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []*domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.Ticker); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}
