package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	"github.com/angelmondragon/marketcore-backend/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	OrderNoExists(ctx context.Context, orderNo string) (bool, error)
	// Create inserts the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	// Lock reads the order row under an exclusive lock.
	Lock(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// Transition applies updates only while the order is still in from.
	Transition(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, updates map[string]any) error
	// LockStaleShipped locks shipped orders whose shipped_at is before cutoff.
	// Rows held by another transaction are skipped.
	LockStaleShipped(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error)
	ListForMerchant(ctx context.Context, merchantID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error)
	MerchantOwnsOrder(ctx context.Context, orderID, merchantID uuid.UUID) (bool, error)
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status *enums.OrderStatus
}
