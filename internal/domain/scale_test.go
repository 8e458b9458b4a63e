package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_RoundsToColumnScale(t *testing.T) {
	day := NewDate(2022, time.February, 15)
	late := day.Add(17 * time.Hour)

	tests := []struct {
		name string
		got  func() (decimal.Decimal, time.Time)
		want string
	}{
		{
			name: "price keeps eight digits",
			got: func() (decimal.Decimal, time.Time) {
				p := PriceObservation{AssetID: uuid.New(), Date: late, Price: decimal.RequireFromString("3.123456789")}.Normalize()
				return p.Price, p.Date
			},
			want: "3.12345679",
		},
		{
			name: "price halves round away from zero",
			got: func() (decimal.Decimal, time.Time) {
				p := PriceObservation{AssetID: uuid.New(), Date: late, Price: decimal.RequireFromString("2.000000005")}.Normalize()
				return p.Price, p.Date
			},
			want: "2.00000001",
		},
		{
			name: "lot quantity keeps twelve digits",
			got: func() (decimal.Decimal, time.Time) {
				l := HoldingLot{Quantity: decimal.RequireFromString("1.0000000000005"), EffectiveFrom: late}.Normalize()
				return l.Quantity, l.EffectiveFrom
			},
			want: "1.000000000001",
		},
		{
			name: "trade amount keeps cents",
			got: func() (decimal.Decimal, time.Time) {
				r := TradeRecord{AmountUSD: decimal.RequireFromString("-10.005"), TradeDate: late}.Normalize()
				return r.AmountUSD, r.TradeDate
			},
			want: "-10.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, date := tt.got()
			assert.Equal(t, tt.want, value.String())
			assert.True(t, day.Equal(date), "got %s", date)
		})
	}
}

func TestInitialWeights_Normalize(t *testing.T) {
	assetID := uuid.New()
	weights := InitialWeights{{PortfolioID: uuid.New(), AssetID: assetID, Weight: decimal.RequireFromString("0.6000000049")}}

	normalized := weights.Normalize()

	assert.Equal(t, "0.6", normalized[0].Weight.String())
	assert.Equal(t, "0.6000000049", weights[0].Weight.String(), "the input set is left untouched")
}
