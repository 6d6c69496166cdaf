package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/marketcore-backend/pkg/db"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

// Ledger is the only mutator of product stock and engagement counters. Every
// method runs inside the caller's transaction and locks the product row
// until that transaction ends.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

type counter string

const (
	counterSales     counter = "sales_count"
	counterViews     counter = "views_count"
	counterFavorites counter = "favorites_count"
	counterLikes     counter = "likes_count"
)

// LockProduct reads the product row under an exclusive lock.
func (l *Ledger) LockProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	var product models.Product
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, db.ClassifyError(err, "lock product")
	}
	return &product, nil
}

// Deduct removes qty units from stock. It returns false without touching the
// row when stock is insufficient.
func (l *Ledger) Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	product, err := l.LockProduct(ctx, tx, productID)
	if err != nil {
		return false, err
	}
	if product.Stock < qty {
		return false, nil
	}
	if err := l.writeStock(ctx, tx, productID, product.Stock-qty); err != nil {
		return false, err
	}
	return true, nil
}

// Restore returns qty units to stock. Callers guarantee it runs at most once
// per deduction.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	product, err := l.LockProduct(ctx, tx, productID)
	if err != nil {
		return err
	}
	return l.writeStock(ctx, tx, productID, product.Stock+qty)
}

func (l *Ledger) IncrementSales(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return l.adjust(ctx, tx, productID, counterSales, qty)
}

func (l *Ledger) IncrementViews(ctx context.Context, tx *gorm.DB, productID uuid.UUID) error {
	return l.adjust(ctx, tx, productID, counterViews, 1)
}

// ChangeFavorites applies delta to the favorites counter, flooring at zero.
func (l *Ledger) ChangeFavorites(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) error {
	return l.adjust(ctx, tx, productID, counterFavorites, delta)
}

// ChangeLikes applies delta to the likes counter, flooring at zero.
func (l *Ledger) ChangeLikes(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int) error {
	return l.adjust(ctx, tx, productID, counterLikes, delta)
}

func (l *Ledger) writeStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, stock int) error {
	err := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", stock).Error
	return db.ClassifyError(err, "update product stock")
}

func (l *Ledger) adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, col counter, delta int) error {
	product, err := l.LockProduct(ctx, tx, productID)
	if err != nil {
		return err
	}

	var value int
	switch col {
	case counterSales:
		product.SalesCount = floorZero(product.SalesCount + delta)
		value = product.SalesCount
	case counterViews:
		product.ViewsCount = floorZero(product.ViewsCount + delta)
		value = product.ViewsCount
	case counterFavorites:
		product.FavoritesCount = floorZero(product.FavoritesCount + delta)
		value = product.FavoritesCount
	case counterLikes:
		product.LikesCount = floorZero(product.LikesCount + delta)
		value = product.LikesCount
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown counter %s", col))
	}

	err = tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			string(col):        value,
			"popularity_score": product.Popularity(),
		}).Error
	return db.ClassifyError(err, "update product counters")
}

func floorZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
