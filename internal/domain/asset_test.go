package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPortfolio_Validate(t *testing.T) {
	tests := []struct {
		name      string
		portfolio Portfolio
		wantErr   bool
		errMsg    string
	}{
		{
			name: "valid portfolio",
			portfolio: Portfolio{
				ID:              uuid.New(),
				Name:            "Portafolio 1",
				InceptionDate:   NewDate(2022, time.February, 15),
				InitialValueUSD: decimal.RequireFromString("1000000000.00"),
			},
		},
		{
			name: "empty name",
			portfolio: Portfolio{
				ID:              uuid.New(),
				InceptionDate:   NewDate(2022, time.February, 15),
				InitialValueUSD: decimal.NewFromInt(1),
			},
			wantErr: true,
			errMsg:  "portfolio name cannot be empty",
		},
		{
			name: "negative initial value",
			portfolio: Portfolio{
				ID:              uuid.New(),
				Name:            "Negative",
				InceptionDate:   NewDate(2022, time.February, 15),
				InitialValueUSD: decimal.NewFromInt(-1),
			},
			wantErr: true,
			errMsg:  "cannot be negative",
		},
		{
			name: "too many fractional digits",
			portfolio: Portfolio{
				ID:              uuid.New(),
				Name:            "Precise",
				InceptionDate:   NewDate(2022, time.February, 15),
				InitialValueUSD: decimal.RequireFromString("10.001"),
			},
			wantErr: true,
			errMsg:  "fractional digits",
		},
		{
			name: "missing inception date",
			portfolio: Portfolio{
				ID:              uuid.New(),
				Name:            "Undated",
				InitialValueUSD: decimal.NewFromInt(1),
			},
			wantErr: true,
			errMsg:  "inception date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.portfolio.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2022-02-15")
	assert.NoError(t, err)
	assert.Equal(t, NewDate(2022, time.February, 15), d)
	assert.Equal(t, "2022-02-15", FormatDate(d))

	_, err = ParseDate("15/02/2022")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
