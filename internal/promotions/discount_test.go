package promotions

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestDiscountVariants(t *testing.T) {
	tests := []struct {
		name     string
		discount Discount
		price    string
		want     string
	}{
		{"percent twenty", PercentOff{Percent: d("20")}, "5.00", "4.00"},
		{"percent rounds half up", PercentOff{Percent: d("15")}, "0.10", "0.09"},
		{"percent full", PercentOff{Percent: d("100")}, "9.99", "0.00"},
		{"percent over hundred clamps", PercentOff{Percent: d("150")}, "9.99", "0.00"},
		{"percent negative clamps", PercentOff{Percent: d("-5")}, "9.99", "9.99"},
		{"fixed", FixedOff{Amount: d("3")}, "10.00", "7.00"},
		{"fixed floors at a cent", FixedOff{Amount: d("50")}, "10.00", "0.01"},
		{"fixed exact price floors", FixedOff{Amount: d("10")}, "10.00", "0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.discount.Apply(d(tt.price))
			assert.True(t, d(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestFromPromotion(t *testing.T) {
	percent, err := FromPromotion(models.Promotion{DiscountType: enums.DiscountTypePercent, DiscountValue: d("10")})
	require.NoError(t, err)
	assert.Equal(t, enums.DiscountTypePercent, percent.Kind())

	fixed, err := FromPromotion(models.Promotion{DiscountType: enums.DiscountTypeFixed, DiscountValue: d("1")})
	require.NoError(t, err)
	assert.IsType(t, FixedOff{}, fixed)

	_, err = FromPromotion(models.Promotion{DiscountType: "bogo"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal), "unexpected error %v", err)
}

func TestEffectivePrice(t *testing.T) {
	got, err := EffectivePrice(d("10"), nil)
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.StringFixed(2))

	promo := &models.Promotion{DiscountType: enums.DiscountTypePercent, DiscountValue: d("20")}
	got, err = EffectivePrice(d("5"), promo)
	require.NoError(t, err)
	assert.True(t, d("4").Equal(got))
}
