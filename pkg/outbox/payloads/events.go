package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketcore-backend/pkg/enums"
)

// OrderLine is the per-product snapshot carried by order_created.
type OrderLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderCreatedEvent is emitted once checkout commits a new order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNo     string          `json:"order_no"`
	UserID      uuid.UUID       `json:"user_id"`
	Source      string          `json:"source"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderLine     `json:"items"`
}

// OrderPaidEvent is emitted when a pending order is paid.
type OrderPaidEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNo     string          `json:"order_no"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAt      time.Time       `json:"paid_at"`
}

// OrderShippedEvent carries the courier details recorded by the merchant.
type OrderShippedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNo     string    `json:"order_no"`
	UserID      uuid.UUID `json:"user_id"`
	CourierName string    `json:"courier_name"`
	TrackingNo  string    `json:"tracking_no"`
	ShippedAt   time.Time `json:"shipped_at"`
}

// OrderCompletedEvent is emitted on buyer receipt or auto-completion.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNo     string    `json:"order_no"`
	UserID      uuid.UUID `json:"user_id"`
	AutoClosed  bool      `json:"auto_closed"`
	CompletedAt time.Time `json:"completed_at"`
}

// OrderCancelledEvent lists the stock returned to inventory.
type OrderCancelledEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	OrderNo       string            `json:"order_no"`
	UserID        uuid.UUID         `json:"user_id"`
	PreviousState enums.OrderStatus `json:"previous_status"`
	Restored      []OrderLine       `json:"restored"`
	CancelledAt   time.Time         `json:"cancelled_at"`
}
