package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/angelmondragon/marketcore-backend/internal/products"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
	"github.com/angelmondragon/marketcore-backend/pkg/logger"
	"github.com/angelmondragon/marketcore-backend/pkg/metrics"
	"github.com/angelmondragon/marketcore-backend/pkg/outbox"
	"github.com/angelmondragon/marketcore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/marketcore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Inventory is the slice of the ledger the state machine needs.
type Inventory interface {
	Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	IncrementSales(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service owns every status change of an order after checkout created it.
type Service interface {
	PayOrder(ctx context.Context, userID, orderID uuid.UUID) error
	ShipOrder(ctx context.Context, input ShipOrderInput) error
	ReceiptOrder(ctx context.Context, userID, orderID uuid.UUID) error
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) error
	ReconcileStaleShipments(ctx context.Context, olderThan time.Duration) (int, error)
	Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderView, error)
	ListMine(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) (*OrderList, error)
	ListMerchant(ctx context.Context, merchantID uuid.UUID, filters ListFilters, params pagination.Params) (*OrderList, error)
}

// ShipOrderInput carries the courier details. A nil MerchantID skips the
// ownership check (admin path).
type ShipOrderInput struct {
	OrderID     uuid.UUID
	MerchantID  uuid.UUID
	CourierName string
	TrackingNo  string
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory Inventory
	products  *product.Repository
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	now       func() time.Time
}

type transition struct {
	order *models.Order
	from  enums.OrderStatus
	to    enums.OrderStatus
}

// NewService builds the order state machine with the required dependencies.
// metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, inventory Inventory, products *product.Repository, m *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outbox,
		inventory: inventory,
		products:  products,
		metrics:   m,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) PayOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	var done transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOwned(ctx, repo, userID, orderID)
		if err != nil {
			return err
		}
		if err := guard(order, enums.OrderStatusPaid); err != nil {
			return err
		}
		items, err := repo.FindItems(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.inventory.IncrementSales(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		now := s.now()
		if err := repo.Transition(ctx, order.ID, order.Status, map[string]any{
			"status":  enums.OrderStatusPaid,
			"paid_at": now,
		}); err != nil {
			return err
		}
		done = transition{order: order, from: order.Status, to: enums.OrderStatusPaid}
		return s.emit(ctx, tx, enums.EventOrderPaid, order.ID, userActor(userID), payloads.OrderPaidEvent{
			OrderID:     order.ID,
			OrderNo:     order.OrderNo,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount,
			PaidAt:      now,
		})
	})
	if err != nil {
		return err
	}
	s.committed(ctx, done)
	return nil
}

func (s *service) ShipOrder(ctx context.Context, input ShipOrderInput) error {
	courier := strings.TrimSpace(input.CourierName)
	tracking := strings.TrimSpace(input.TrackingNo)
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if courier == "" || tracking == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "courier name and tracking number are required")
	}

	var done transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.Lock(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if input.MerchantID != uuid.Nil {
			owns, err := repo.MerchantOwnsOrder(ctx, order.ID, input.MerchantID)
			if err != nil {
				return err
			}
			if !owns {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
		}
		if err := guard(order, enums.OrderStatusShipped); err != nil {
			return err
		}
		now := s.now()
		if err := repo.Transition(ctx, order.ID, order.Status, map[string]any{
			"status":       enums.OrderStatusShipped,
			"shipped_at":   now,
			"courier_name": courier,
			"tracking_no":  tracking,
		}); err != nil {
			return err
		}
		done = transition{order: order, from: order.Status, to: enums.OrderStatusShipped}
		actor := &outbox.ActorRef{UserID: input.MerchantID, Role: enums.RoleMerchant}
		if input.MerchantID == uuid.Nil {
			actor = &outbox.ActorRef{Role: enums.RoleAdmin}
		}
		return s.emit(ctx, tx, enums.EventOrderShipped, order.ID, actor, payloads.OrderShippedEvent{
			OrderID:     order.ID,
			OrderNo:     order.OrderNo,
			UserID:      order.UserID,
			CourierName: courier,
			TrackingNo:  tracking,
			ShippedAt:   now,
		})
	})
	if err != nil {
		return err
	}
	s.committed(ctx, done)
	return nil
}

func (s *service) ReceiptOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	var done transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOwned(ctx, repo, userID, orderID)
		if err != nil {
			return err
		}
		if err := guard(order, enums.OrderStatusCompleted); err != nil {
			return err
		}
		if err := s.complete(ctx, tx, repo, order, userActor(userID), false); err != nil {
			return err
		}
		done = transition{order: order, from: enums.OrderStatusShipped, to: enums.OrderStatusCompleted}
		return nil
	})
	if err != nil {
		return err
	}
	s.committed(ctx, done)
	return nil
}

// CancelOrder is legal only from pending. Every line's quantity goes back
// to stock in the same transaction as the status change.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) error {
	var done transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOwned(ctx, repo, userID, orderID)
		if err != nil {
			return err
		}
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeBusinessRule, "only pending orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}
		items, err := repo.FindItems(ctx, order.ID)
		if err != nil {
			return err
		}
		restored := make([]payloads.OrderLine, 0, len(items))
		for _, item := range items {
			if err := s.inventory.Restore(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			restored = append(restored, payloads.OrderLine{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		now := s.now()
		if err := repo.Transition(ctx, order.ID, order.Status, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return err
		}
		done = transition{order: order, from: order.Status, to: enums.OrderStatusCancelled}
		return s.emit(ctx, tx, enums.EventOrderCancelled, order.ID, userActor(userID), payloads.OrderCancelledEvent{
			OrderID:       order.ID,
			OrderNo:       order.OrderNo,
			UserID:        order.UserID,
			PreviousState: order.Status,
			Restored:      restored,
			CancelledAt:   now,
		})
	})
	if err != nil {
		return err
	}
	s.committed(ctx, done)
	return nil
}

// ReconcileStaleShipments completes every order shipped more than olderThan
// ago. All transitions of one sweep commit together. Orders locked by a
// concurrent request are left for the next sweep.
func (s *service) ReconcileStaleShipments(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be positive")
	}
	cutoff := s.now().Add(-olderThan)

	var completed []*models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		stale, err := repo.LockStaleShipped(ctx, cutoff)
		if err != nil {
			return err
		}
		for i := range stale {
			order := &stale[i]
			if order.Status != enums.OrderStatusShipped || order.ShippedAt == nil || !order.ShippedAt.Before(cutoff) {
				continue
			}
			if err := s.complete(ctx, tx, repo, order, outbox.SystemActor, true); err != nil {
				return err
			}
			completed = append(completed, order)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, order := range completed {
		s.committed(ctx, transition{order: order, from: enums.OrderStatusShipped, to: enums.OrderStatusCompleted})
	}
	s.metrics.AddReconciled(len(completed))
	return len(completed), nil
}

func (s *service) Detail(ctx context.Context, userID, orderID uuid.UUID) (*OrderView, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	snapshots, err := s.products.Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}
	return NewOrderView(*order, order.Items, snapshots), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, filters ListFilters, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, next, err := s.repo.ListForUser(ctx, userID, filters, params)
	if err != nil {
		return nil, err
	}
	return newOrderList(rows, next), nil
}

func (s *service) ListMerchant(ctx context.Context, merchantID uuid.UUID, filters ListFilters, params pagination.Params) (*OrderList, error) {
	if merchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "merchant context missing")
	}
	rows, next, err := s.repo.ListForMerchant(ctx, merchantID, filters, params)
	if err != nil {
		return nil, err
	}
	return newOrderList(rows, next), nil
}

func (s *service) complete(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, actor *outbox.ActorRef, auto bool) error {
	now := s.now()
	if err := repo.Transition(ctx, order.ID, enums.OrderStatusShipped, map[string]any{
		"status":       enums.OrderStatusCompleted,
		"completed_at": now,
	}); err != nil {
		return err
	}
	return s.emit(ctx, tx, enums.EventOrderCompleted, order.ID, actor, payloads.OrderCompletedEvent{
		OrderID:     order.ID,
		OrderNo:     order.OrderNo,
		UserID:      order.UserID,
		AutoClosed:  auto,
		CompletedAt: now,
	})
}

// lockOwned hides orders of other users behind NotFound.
func (s *service) lockOwned(ctx context.Context, repo Repository, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.Lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func guard(order *models.Order, to enums.OrderStatus) error {
	if CanTransition(order.Status, to) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeBusinessRule, fmt.Sprintf("cannot move order from %s to %s", order.Status, to)).
		WithDetails(map[string]any{"from": order.Status, "to": to})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, orderID uuid.UUID, actor *outbox.ActorRef, data any) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         actor,
		Data:          data,
		Version:       outbox.CurrentVersion,
	})
}

func (s *service) committed(ctx context.Context, t transition) {
	if t.order == nil {
		return
	}
	s.metrics.IncTransition(string(t.from), string(t.to))
	logCtx := s.logg.WithOrderID(ctx, t.order.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"order_no": t.order.OrderNo,
		"from":     string(t.from),
		"to":       string(t.to),
	})
	s.logg.Info(logCtx, "order status changed")
}

func userActor(userID uuid.UUID) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: userID, Role: enums.RoleBuyer}
}
