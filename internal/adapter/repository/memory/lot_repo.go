package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-metrics/internal/domain"
)

// lotRepository implements domain.LotRepository on top of one domain.LotTimeline
// per (portfolio, asset), so "latest lot as of" is a binary search.
type lotRepository struct {
	v *view
}

func (r *lotRepository) InsertLots(ctx context.Context, lots []domain.HoldingLot) error {
	return r.v.write(func(st *state) error {
		for i := range lots {
			lots[i] = lots[i].Normalize()
			if err := lots[i].Validate(); err != nil {
				return err
			}
			if _, ok := st.portfolios[lots[i].PortfolioID]; !ok {
				return fmt.Errorf("portfolio %s: %w", lots[i].PortfolioID, domain.ErrNotFound)
			}
			if _, ok := st.assets[lots[i].AssetID]; !ok {
				return fmt.Errorf("asset %s: %w", lots[i].AssetID, domain.ErrNotFound)
			}

			st.nextSeq++
			lots[i].Seq = st.nextSeq
			if lots[i].ID == uuid.Nil {
				lots[i].ID = uuid.New()
			}

			key := lotKey{PortfolioID: lots[i].PortfolioID, AssetID: lots[i].AssetID}
			timeline, ok := st.lots[key]
			if !ok {
				timeline = domain.NewLotTimeline()
				st.lots[key] = timeline
			}
			timeline.Insert(lots[i])
		}
		return nil
	})
}

func (r *lotRepository) LatestLotAsOf(ctx context.Context, portfolioID, assetID uuid.UUID, date time.Time) (*domain.HoldingLot, error) {
	var out *domain.HoldingLot
	err := r.v.read(func(st *state) error {
		timeline, ok := st.lots[lotKey{PortfolioID: portfolioID, AssetID: assetID}]
		if ok {
			if lot, found := timeline.LatestAsOf(date); found {
				out = &lot
				return nil
			}
		}
		return fmt.Errorf("lot of asset %s in portfolio %s as of %s: %w",
			assetID, portfolioID, domain.FormatDate(date), domain.ErrNotFound)
	})
	return out, err
}

func (r *lotRepository) LatestLotsAsOf(ctx context.Context, portfolioID uuid.UUID, date time.Time) (map[uuid.UUID]domain.HoldingLot, error) {
	out := make(map[uuid.UUID]domain.HoldingLot)
	err := r.v.read(func(st *state) error {
		for key, timeline := range st.lots {
			if key.PortfolioID != portfolioID {
				continue
			}
			if lot, ok := timeline.LatestAsOf(date); ok {
				out[key.AssetID] = lot
			}
		}
		return nil
	})
	return out, err
}

func (r *lotRepository) ListLots(ctx context.Context, portfolioID uuid.UUID, upTo time.Time) ([]domain.HoldingLot, error) {
	var out []domain.HoldingLot
	err := r.v.read(func(st *state) error {
		for key, timeline := range st.lots {
			if key.PortfolioID != portfolioID {
				continue
			}
			for _, lot := range timeline.Lots() {
				if lot.EffectiveFrom.After(upTo) {
					break
				}
				out = append(out, lot)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AssetID != out[j].AssetID {
			return lessUUID(out[i].AssetID, out[j].AssetID)
		}
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}

func (r *lotRepository) HeldAssetIDs(ctx context.Context, portfolioID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := r.v.read(func(st *state) error {
		for key, timeline := range st.lots {
			if key.PortfolioID == portfolioID && timeline.Len() > 0 {
				out = append(out, key.AssetID)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return lessUUID(out[i], out[j]) })
	return out, err
}
