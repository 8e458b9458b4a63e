package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	v *view
}

func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	var out *domain.Asset
	err := r.v.read(func(st *state) error {
		a, ok := st.assets[id]
		if !ok {
			return fmt.Errorf("asset %s: %w", id, domain.ErrNotFound)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *assetRepository) GetByName(ctx context.Context, name string) (*domain.Asset, error) {
	var out *domain.Asset
	err := r.v.read(func(st *state) error {
		a, ok := findAsset(st, name)
		if !ok {
			return fmt.Errorf("asset %q: %w", name, domain.ErrNotFound)
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *assetRepository) GetOrCreate(ctx context.Context, name string) (*domain.Asset, error) {
	var out *domain.Asset
	err := r.v.write(func(st *state) error {
		if a, ok := findAsset(st, name); ok {
			out = &a
			return nil
		}
		a := domain.Asset{ID: uuid.New(), Name: name}
		if err := a.Validate(); err != nil {
			return err
		}
		st.assets[a.ID] = a
		out = &a
		return nil
	})
	return out, err
}

func (r *assetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	var out []*domain.Asset
	err := r.v.read(func(st *state) error {
		out = make([]*domain.Asset, 0, len(st.assets))
		for _, a := range st.assets {
			a := a
			out = append(out, &a)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func findAsset(st *state, name string) (domain.Asset, bool) {
	for _, a := range st.assets {
		if a.Name == name {
			return a, true
		}
	}
	return domain.Asset{}, false
}
