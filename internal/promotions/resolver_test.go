package promotions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketcore-backend/internal/dbtest"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
)

func TestResolveWindowBoundaries(t *testing.T) {
	conn := dbtest.OpenSQLite(t, "promotions")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	starting := dbtest.SeedProduct(t, conn, "10.00", 1)
	ending := dbtest.SeedProduct(t, conn, "10.00", 1)
	future := dbtest.SeedProduct(t, conn, "10.00", 1)

	startsNow := dbtest.SeedPromotion(t, conn, enums.DiscountTypePercent, "10", now, now.Add(time.Hour), now.Add(-time.Hour), starting.ID)
	dbtest.SeedPromotion(t, conn, enums.DiscountTypePercent, "10", now.Add(-time.Hour), now, now.Add(-time.Hour), ending.ID)
	dbtest.SeedPromotion(t, conn, enums.DiscountTypePercent, "10", now.Add(time.Second), now.Add(time.Hour), now.Add(-time.Hour), future.ID)

	got, err := NewResolver().Resolve(context.Background(), conn, []uuid.UUID{starting.ID, ending.ID, future.ID}, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, startsNow.ID, got[starting.ID].ID)
}

func TestResolveNewestPromotionWins(t *testing.T) {
	conn := dbtest.OpenSQLite(t, "promotions")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	product := dbtest.SeedProduct(t, conn, "10.00", 1)
	window := func(v string, created time.Time) models.Promotion {
		return dbtest.SeedPromotion(t, conn, enums.DiscountTypePercent, v, now.Add(-24*time.Hour), now.Add(24*time.Hour), created, product.ID)
	}

	// Larger discount but older; it must lose.
	window("50", now.Add(-2*time.Hour))
	newest := window("5", now.Add(-time.Hour))

	got, err := NewResolver().Resolve(context.Background(), conn, []uuid.UUID{product.ID}, now)
	require.NoError(t, err)
	assert.Equal(t, newest.ID, got[product.ID].ID)

	price, err := EffectivePrice(product.Price, ptr(got[product.ID]))
	require.NoError(t, err)
	assert.Equal(t, "9.50", price.StringFixed(2))
}

func TestResolveSkipsInactivePromotions(t *testing.T) {
	conn := dbtest.OpenSQLite(t, "promotions")
	now := time.Now().UTC().Truncate(time.Second)
	product := dbtest.SeedProduct(t, conn, "10.00", 1)
	promo := dbtest.SeedPromotion(t, conn, enums.DiscountTypeFixed, "1", now.Add(-time.Hour), now.Add(time.Hour), now.Add(-time.Hour), product.ID)
	require.NoError(t, conn.Model(&models.Promotion{}).Where("id = ?", promo.ID).Update("status", enums.PromotionStatusInactive).Error)

	got, err := NewResolver().Resolve(context.Background(), conn, []uuid.UUID{product.ID, product.ID}, now)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveEmptyInput(t *testing.T) {
	got, err := NewResolver().Resolve(context.Background(), nil, nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func ptr[T any](v T) *T {
	return &v
}
