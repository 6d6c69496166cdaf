package dbtest

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
)

// SeedProduct inserts an on-shelf product with the given price and stock.
func SeedProduct(t *testing.T, conn *gorm.DB, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		MerchantID: uuid.New(),
		Name:       "product-" + uuid.NewString()[:8],
		SKU:        "SKU-" + uuid.NewString()[:8],
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		Status:     enums.ProductStatusOn,
	}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

// SeedAddress inserts an address owned by userID.
func SeedAddress(t *testing.T, conn *gorm.DB, userID uuid.UUID) models.Address {
	t.Helper()
	a := models.Address{
		UserID:    userID,
		Recipient: "Test Buyer",
		Phone:     "555-0100",
		Line1:     "1 Main St",
		City:      "Springfield",
		Country:   "US",
	}
	require.NoError(t, conn.Create(&a).Error)
	return a
}

// SeedPromotion inserts an active promotion covering productIDs over
// [start, end). createdAt controls tie-break ordering.
func SeedPromotion(t *testing.T, conn *gorm.DB, kind enums.DiscountType, value string, start, end, createdAt time.Time, productIDs ...uuid.UUID) models.Promotion {
	t.Helper()
	promo := models.Promotion{
		MerchantID:    uuid.New(),
		Title:         string(kind) + " " + value,
		DiscountType:  kind,
		DiscountValue: decimal.RequireFromString(value),
		StartAt:       start.UTC(),
		EndAt:         end.UTC(),
		Status:        enums.PromotionStatusActive,
		CreatedAt:     createdAt.UTC(),
	}
	require.NoError(t, conn.Create(&promo).Error)
	for _, id := range productIDs {
		require.NoError(t, conn.Create(&models.PromotionProduct{PromotionID: promo.ID, ProductID: id}).Error)
	}
	return promo
}

// ReloadProduct reads the product row back from conn.
func ReloadProduct(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.Take(&p, "id = ?", id).Error)
	return p
}

// Line is one product and quantity of a seeded order.
type Line struct {
	Product  models.Product
	Quantity int
}

// SeedOrder inserts an order in status with one item per line, priced at
// each product's current price. Stock is not touched.
func SeedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.OrderStatus, lines ...Line) models.Order {
	t.Helper()
	addr := SeedAddress(t, conn, userID)
	order := models.Order{
		OrderNo:   "T" + strings.ReplaceAll(uuid.NewString(), "-", "")[:19],
		UserID:    userID,
		AddressID: addr.ID,
		Status:    status,
	}
	total := decimal.Zero
	base := time.Now().UTC()
	for i, line := range lines {
		item := models.OrderItem{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
			CreatedAt: base.Add(time.Duration(i) * time.Microsecond),
		}
		total = total.Add(item.Subtotal())
		order.Items = append(order.Items, item)
	}
	order.TotalAmount = total
	require.NoError(t, conn.Create(&order).Error)
	return order
}

// ReloadOrder reads the order row back from conn.
func ReloadOrder(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, conn.Take(&o, "id = ?", id).Error)
	return o
}

// CountEvents counts outbox rows of eventType for the aggregate.
func CountEvents(t *testing.T, conn *gorm.DB, aggregateID uuid.UUID, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", aggregateID, eventType).
		Count(&n).Error)
	return n
}
