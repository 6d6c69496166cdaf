package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/marketcore-backend/internal/products"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations for the authenticated user.
type Service interface {
	GetActive(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
}

type service struct {
	repo     CartRepository
	products *product.Repository
	tx       txRunner
	maxQty   int
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products *product.Repository, tx txRunner, maxQty int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx, maxQty: maxQty}, nil
}

// GetActive returns the user's open cart, creating it on first access.
func (s *service) GetActive(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.ensureCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		view, err = s.render(ctx, tx, cart)
		return err
	})
	return view, err
}

// AddItem snapshots the current price. Adding a product already in the cart
// merges quantities.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error) {
	if err := s.validateQty(qty); err != nil {
		return nil, err
	}
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		p, err := s.products.WithTx(tx).FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if p.Status != enums.ProductStatusOn {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "product is off the shelf").
				WithDetails(map[string]any{"product_id": productID})
		}
		if err := checkStock(p, qty); err != nil {
			return err
		}
		cart, err := s.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		if existing != nil {
			merged := existing.Quantity + qty
			if err := s.validateQty(merged); err != nil {
				return err
			}
			if err := checkStock(p, merged); err != nil {
				return err
			}
			if err := repo.UpdateItem(ctx, existing.ID, merged, p.Price); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty, UnitPrice: p.Price}
			if err := repo.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		view, err = s.render(ctx, tx, cart)
		return err
	})
	return view, err
}

func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error) {
	if err := s.validateQty(qty); err != nil {
		return nil, err
	}
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		p, err := s.products.WithTx(tx).FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := checkStock(p, qty); err != nil {
			return err
		}
		if err := repo.UpdateItem(ctx, item.ID, qty, item.UnitPrice); err != nil {
			return err
		}
		view, err = s.render(ctx, tx, cart)
		return err
	})
	return view, err
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		removed, err := s.repo.WithTx(tx).DeleteItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		if !removed {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		view, err = s.render(ctx, tx, cart)
		return err
	})
	return view, err
}

func (s *service) ensureCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	repo := s.repo.WithTx(tx)
	cart, err := repo.FindActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	return repo.CreateIfAbsent(ctx, userID)
}

// lockCart is ensureCart for writers. The row lock queues behind a running
// checkout, and the is_checked_out filter is re-read once it commits, so a
// write never lands in a cart that was just checked out.
func (s *service) lockCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	repo := s.repo.WithTx(tx)
	cart, err := repo.LockActive(ctx, userID)
	if err != nil || cart != nil {
		return cart, err
	}
	if _, err := repo.CreateIfAbsent(ctx, userID); err != nil {
		return nil, err
	}
	cart, err = repo.LockActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrency, "cart changed concurrently")
	}
	return cart, nil
}

func checkStock(p *models.Product, qty int) error {
	if p.Stock < qty {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "insufficient stock").
			WithDetails(map[string]any{"product_id": p.ID, "available": p.Stock, "requested": qty})
	}
	return nil
}

func (s *service) render(ctx context.Context, tx *gorm.DB, cart *models.Cart) (*CartView, error) {
	items, err := s.repo.WithTx(tx).ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	snapshots, err := s.products.WithTx(tx).Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}
	return buildView(cart, items, snapshots), nil
}

func (s *service) validateQty(qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if s.maxQty > 0 && qty > s.maxQty {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", s.maxQty))
	}
	return nil
}
