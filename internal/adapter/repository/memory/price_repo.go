package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// priceRepository implements domain.PriceRepository
type priceRepository struct {
	v *view
}

// InsertPrices ignores observations whose (asset, date) is already stored
func (r *priceRepository) InsertPrices(ctx context.Context, prices []domain.PriceObservation) (int, error) {
	inserted := 0
	err := r.v.write(func(st *state) error {
		inserted = 0
		for i := range prices {
			p := prices[i].Normalize()
			if err := p.Validate(); err != nil {
				return err
			}
			if _, ok := st.assets[p.AssetID]; !ok {
				return fmt.Errorf("asset %s: %w", p.AssetID, domain.ErrNotFound)
			}
			key := p.Key()
			if _, exists := st.prices[key]; exists {
				continue
			}
			st.prices[key] = p
			inserted++
		}
		return nil
	})
	return inserted, err
}

func (r *priceRepository) GetPrice(ctx context.Context, assetID uuid.UUID, date time.Time) (*domain.PriceObservation, error) {
	var out *domain.PriceObservation
	err := r.v.read(func(st *state) error {
		p, ok := st.prices[domain.PriceKey{AssetID: assetID, Date: domain.TruncateDay(date)}]
		if !ok {
			return fmt.Errorf("price of asset %s on %s: %w", assetID, domain.FormatDate(date), domain.ErrNotFound)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *priceRepository) PricesInRange(ctx context.Context, assetIDs []uuid.UUID, start, end time.Time) ([]domain.PriceObservation, error) {
	wanted := make(map[uuid.UUID]bool, len(assetIDs))
	for _, id := range assetIDs {
		wanted[id] = true
	}

	var out []domain.PriceObservation
	err := r.v.read(func(st *state) error {
		for key, p := range st.prices {
			if !wanted[key.AssetID] || key.Date.Before(start) || key.Date.After(end) {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return lessUUID(out[i].AssetID, out[j].AssetID)
	})
	return out, nil
}
