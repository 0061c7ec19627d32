package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount  string
		want    int64
		wantErr bool
	}{
		{"1000", 100000, false},
		{"117.99", 11799, false},
		{"0.1", 10, false},
		{"0", 0, false},
		{"1.005", 0, true},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, FromMinorUnits(got).Equal(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestAffiliateCommission(t *testing.T) {
	items := []OrderItem{
		{ProductID: uuid.New(), Price: decimal.RequireFromString("200"), Quantity: 1, AffiliatePercentage: decimal.NewFromInt(10)},
		{ProductID: uuid.New(), Price: decimal.RequireFromString("33.33"), Quantity: 3, AffiliatePercentage: decimal.RequireFromString("7.5")},
		{ProductID: uuid.New(), Price: decimal.RequireFromString("999"), Quantity: 2, AffiliatePercentage: decimal.Zero},
	}
	// 20 + 99.99 * 0.075 = 27.49925
	assert.Equal(t, "27.5", AffiliateCommission(items).String())
	assert.True(t, AffiliateCommission(nil).IsZero())
}

func TestPercentAndRounding(t *testing.T) {
	assert.Equal(t, "17.9982", Percent(decimal.RequireFromString("99.99"), decimal.NewFromInt(18)).String())
	assert.Equal(t, "18", RoundMoney(decimal.RequireFromString("17.9982")).String())
	assert.Equal(t, "0.01", RoundMoney(decimal.RequireFromString("0.005")).String())
}
