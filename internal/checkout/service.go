package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/internal/address"
	"github.com/angelmondragon/marketcore-backend/internal/cart"
	"github.com/angelmondragon/marketcore-backend/internal/checkout/helpers"
	"github.com/angelmondragon/marketcore-backend/internal/orders"
	product "github.com/angelmondragon/marketcore-backend/internal/products"
	"github.com/angelmondragon/marketcore-backend/internal/promotions"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
	"github.com/angelmondragon/marketcore-backend/pkg/logger"
	"github.com/angelmondragon/marketcore-backend/pkg/metrics"
	"github.com/angelmondragon/marketcore-backend/pkg/outbox"
	"github.com/angelmondragon/marketcore-backend/pkg/outbox/payloads"
)

// Checkout entry points, used as the source of order_created and as the
// metrics label.
const (
	SourceCart   = "cart"
	SourceBuyNow = "buy_now"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Ledger locks and decrements product stock inside the checkout transaction.
type Ledger interface {
	LockProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error)
	Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
}

// PromotionResolver returns the winning promotion per product at now.
type PromotionResolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, productIDs []uuid.UUID, now time.Time) (map[uuid.UUID]models.Promotion, error)
}

// Service turns a cart or a single product into a pending order.
type Service interface {
	CreateOrderFromCart(ctx context.Context, userID, addressID uuid.UUID) (*orders.OrderView, error)
	BuyNow(ctx context.Context, input BuyNowInput) (*orders.OrderView, error)
}

type BuyNowInput struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	AddressID uuid.UUID
}

// ServiceParams groups the checkout collaborators. Metrics and Logger may
// be nil.
type ServiceParams struct {
	Tx              txRunner
	Carts           cart.CartRepository
	Orders          orders.Repository
	Addresses       *address.Repository
	Ledger          Ledger
	Promotions      PromotionResolver
	Outbox          outboxPublisher
	Metrics         *metrics.OrderMetrics
	Logger          *logger.Logger
	MaxQuantity     int
	OrderNoAttempts int
}

type service struct {
	ServiceParams
	orderNos *OrderNumbers
	now      func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Addresses == nil:
		return nil, fmt.Errorf("address repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("inventory ledger required")
	case params.Promotions == nil:
		return nil, fmt.Errorf("promotion resolver required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.OrderNoAttempts <= 0 {
		params.OrderNoAttempts = 3
	}
	return &service{
		ServiceParams: params,
		orderNos:      NewOrderNumbers(),
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateOrderFromCart checks out the user's open cart. Every line is
// re-priced and deducted under its product lock; any failure rolls back the
// whole order and leaves the cart open.
func (s *service) CreateOrderFromCart(ctx context.Context, userID, addressID uuid.UUID) (*orders.OrderView, error) {
	var view *orders.OrderView
	err := s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		if userID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
		}
		carts := s.Carts.WithTx(tx)
		record, err := carts.LockActive(ctx, userID)
		if err != nil {
			return err
		}
		if record == nil {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is empty")
		}
		items, err := carts.ListItems(ctx, record.ID)
		if err != nil {
			return err
		}
		lines := helpers.LinesFromCart(items)
		if err := helpers.ValidateLines(lines, s.MaxQuantity); err != nil {
			return err
		}
		view, err = s.place(ctx, tx, userID, addressID, lines, SourceCart)
		if err != nil {
			return err
		}
		return carts.MarkCheckedOut(ctx, record.ID)
	})
	s.finish(ctx, SourceCart, view, err)
	return view, err
}

// BuyNow checks out a single product without touching the cart.
func (s *service) BuyNow(ctx context.Context, input BuyNowInput) (*orders.OrderView, error) {
	var view *orders.OrderView
	err := func() error {
		if input.UserID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
		}
		lines := []helpers.Line{{ProductID: input.ProductID, Quantity: input.Quantity}}
		if err := helpers.ValidateLines(lines, s.MaxQuantity); err != nil {
			return err
		}
		return s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			view, err = s.place(ctx, tx, input.UserID, input.AddressID, lines, SourceBuyNow)
			return err
		})
	}()
	s.finish(ctx, SourceBuyNow, view, err)
	return view, err
}

func (s *service) place(ctx context.Context, tx *gorm.DB, userID, addressID uuid.UUID, lines []helpers.Line, source string) (*orders.OrderView, error) {
	if _, err := s.Addresses.WithTx(tx).FindForUser(ctx, addressID, userID); err != nil {
		return nil, err
	}

	locked := make(map[uuid.UUID]*models.Product, len(lines))
	for _, line := range helpers.LockOrder(lines) {
		p, err := s.Ledger.LockProduct(ctx, tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if p.Status != enums.ProductStatusOn {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "product is off the shelf").
				WithDetails(map[string]any{"product_id": p.ID})
		}
		ok, err := s.Ledger.Deduct(ctx, tx, p.ID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": p.ID,
					"requested":  line.Quantity,
					"available":  p.Stock,
				})
		}
		locked[p.ID] = p
	}

	now := s.now()
	promos, err := s.Promotions.Resolve(ctx, tx, helpers.ProductIDs(lines), now)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:    userID,
		AddressID: addressID,
		Status:    enums.OrderStatusPending,
	}
	total := decimal.Zero
	snapshots := make(map[uuid.UUID]product.Snapshot, len(lines))
	eventLines := make([]payloads.OrderLine, 0, len(lines))
	for i, line := range lines {
		p := locked[line.ProductID]
		var promo *models.Promotion
		if found, ok := promos[p.ID]; ok {
			promo = &found
		}
		unitPrice, err := promotions.EffectivePrice(p.Price, promo)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "price order item")
		}
		item := models.OrderItem{
			ProductID: p.ID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			// Distinct timestamps keep line order stable on read.
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		}
		total = total.Add(item.Subtotal())
		order.Items = append(order.Items, item)
		snapshots[p.ID] = product.SnapshotOf(*p)
		eventLines = append(eventLines, payloads.OrderLine{ProductID: p.ID, Quantity: item.Quantity, UnitPrice: unitPrice})
	}
	order.TotalAmount = total

	repo := s.Orders.WithTx(tx)
	orderNo, err := s.nextOrderNo(ctx, repo, now)
	if err != nil {
		return nil, err
	}
	order.OrderNo = orderNo
	if err := repo.Create(ctx, order); err != nil {
		return nil, err
	}

	err = s.Outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: userID, Role: enums.RoleBuyer},
		Version:       outbox.CurrentVersion,
		Data: payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNo:     order.OrderNo,
			UserID:      userID,
			Source:      source,
			TotalAmount: total,
			Items:       eventLines,
		},
	})
	if err != nil {
		return nil, err
	}
	return orders.NewOrderView(*order, order.Items, snapshots), nil
}

// nextOrderNo regenerates until the number is unused. The unique index
// still guards the insert against a concurrent writer.
func (s *service) nextOrderNo(ctx context.Context, repo orders.Repository, now time.Time) (string, error) {
	for attempt := 0; attempt < s.OrderNoAttempts; attempt++ {
		candidate := s.orderNos.Next(now)
		exists, err := repo.OrderNoExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConcurrency, "could not allocate order number")
}

func (s *service) finish(ctx context.Context, source string, view *orders.OrderView, err error) {
	s.Metrics.ObserveCheckout(source, err)
	logCtx := s.Logger.WithField(ctx, "source", source)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInternal) || pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			s.Logger.Error(logCtx, "checkout failed", err)
		}
		return
	}
	logCtx = s.Logger.WithOrderID(logCtx, view.ID.String())
	logCtx = s.Logger.WithFields(logCtx, map[string]any{
		"order_no": view.OrderNo,
		"total":    view.TotalAmount.StringFixed(2),
		"items":    len(view.Items),
	})
	s.Logger.Info(logCtx, "order created")
}
