package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/marketcore-backend/pkg/db"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
	"github.com/angelmondragon/marketcore-backend/pkg/pagination"
)

const orderNoConstraint = "ux_orders_order_no"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) OrderNoExists(ctx context.Context, orderNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("order_no = ?", orderNo).Count(&count).Error
	if err != nil {
		return false, db.ClassifyError(err, "check order number")
	}
	return count > 0, nil
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Create(order).Error
	if db.IsUniqueViolation(err, orderNoConstraint) || db.IsUniqueViolation(err, "orders.order_no") {
		return pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "order number collision")
	}
	return db.ClassifyError(err, "create order")
}

func (r *repository) Lock(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, db.ClassifyError(err, "lock order")
	}
	return &order, nil
}

func (r *repository) FindItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, db.ClassifyError(err, "load order items")
	}
	return items, nil
}

func (r *repository) FindDetail(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB {
			return q.Order("created_at ASC").Order("id ASC")
		}).
		Where("id = ?", orderID).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, db.ClassifyError(err, "load order")
	}
	return &order, nil
}

func (r *repository) Transition(ctx context.Context, orderID uuid.UUID, from enums.OrderStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return db.ClassifyError(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrency, "order changed concurrently")
	}
	return nil
}

func (r *repository) LockStaleShipped(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var out []models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND shipped_at < ?", enums.OrderStatusShipped, cutoff.UTC()).
		Order("shipped_at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, db.ClassifyError(err, "select stale shipments")
	}
	return out, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	return r.list(q, filters, params)
}

func (r *repository) ListForMerchant(ctx context.Context, merchantID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error) {
	q := r.db.WithContext(ctx).Where(
		"EXISTS (SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id WHERE oi.order_id = orders.id AND p.merchant_id = ?)",
		merchantID,
	)
	return r.list(q, filters, params)
}

func (r *repository) list(q *gorm.DB, filters ListFilters, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if cursor != nil {
		q = q.Where("((created_at < ?) OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = q.Model(&models.Order{}).
		Preload("Items").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", db.ClassifyError(err, "list orders")
	}
	page, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

func (r *repository) MerchantOwnsOrder(ctx context.Context, orderID, merchantID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id = ? AND p.merchant_id = ?", orderID, merchantID).
		Count(&count).Error
	if err != nil {
		return false, db.ClassifyError(err, "check order merchant")
	}
	return count > 0, nil
}
