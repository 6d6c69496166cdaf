package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/marketcore-backend/pkg/db"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

const defaultCartName = "default"

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) activeQuery(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND is_checked_out = ?", userID, defaultCartName, false)
}

func (r *repository) FindActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return takeCart(r.activeQuery(ctx, userID))
}

func (r *repository) LockActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return takeCart(r.activeQuery(ctx, userID).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func takeCart(q *gorm.DB) (*models.Cart, error) {
	var cart models.Cart
	err := q.Take(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, db.ClassifyError(err, "load cart")
	}
	return &cart, nil
}

// CreateIfAbsent inserts the user's open cart. A concurrent insert that wins
// the partial unique index is read back instead.
func (r *repository) CreateIfAbsent(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID, Name: defaultCartName}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cart).Error
	if err != nil {
		return nil, db.ClassifyError(err, "create cart")
	}
	existing, err := r.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrency, "cart changed concurrently")
	}
	return existing, nil
}

func (r *repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, db.ClassifyError(err, "list cart items")
	}
	return items, nil
}

func (r *repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, db.ClassifyError(err, "load cart item")
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	err := r.db.WithContext(ctx).Create(item).Error
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConcurrency, err, "cart item added concurrently")
	}
	return db.ClassifyError(err, "create cart item")
}

func (r *repository) UpdateItem(ctx context.Context, itemID uuid.UUID, qty int, unitPrice decimal.Decimal) error {
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": qty, "unit_price": unitPrice}).Error
	return db.ClassifyError(err, "update cart item")
}

func (r *repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, db.ClassifyError(res.Error, "delete cart item")
	}
	return res.RowsAffected > 0, nil
}

// MarkCheckedOut freezes the cart. The next access creates a fresh one.
func (r *repository) MarkCheckedOut(ctx context.Context, cartID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND is_checked_out = ?", cartID, false).
		Update("is_checked_out", true)
	if res.Error != nil {
		return db.ClassifyError(res.Error, "mark cart checked out")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrency, "cart already checked out")
	}
	return nil
}
