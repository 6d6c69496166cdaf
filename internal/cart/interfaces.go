package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart
// service and by checkout.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	// FindActive returns nil when the user has no open cart.
	FindActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// LockActive is FindActive under a row lock.
	LockActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	CreateIfAbsent(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, itemID uuid.UUID, qty int, unitPrice decimal.Decimal) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	MarkCheckedOut(ctx context.Context, cartID uuid.UUID) error
}
