package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/marketcore-backend/internal/products"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
)

// OrderView is the order returned by checkout and the detail endpoint.
type OrderView struct {
	ID          uuid.UUID         `json:"id"`
	OrderNo     string            `json:"order_no"`
	UserID      uuid.UUID         `json:"user_id"`
	AddressID   uuid.UUID         `json:"address_id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	CourierName *string           `json:"courier_name,omitempty"`
	TrackingNo  *string           `json:"tracking_no,omitempty"`
	PaidAt      *time.Time        `json:"paid_at,omitempty"`
	ShippedAt   *time.Time        `json:"shipped_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Items       []OrderItemView   `json:"items"`
}

type OrderItemView struct {
	ProductID uuid.UUID         `json:"product_id"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Product   *product.Snapshot `json:"product,omitempty"`
}

// OrderSummary is one row of an order listing.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	OrderNo     string            `json:"order_no"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// NewOrderView maps an order and its items. snapshots may be nil.
func NewOrderView(order models.Order, items []models.OrderItem, snapshots map[uuid.UUID]product.Snapshot) *OrderView {
	view := &OrderView{
		ID:          order.ID,
		OrderNo:     order.OrderNo,
		UserID:      order.UserID,
		AddressID:   order.AddressID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		CourierName: order.CourierName,
		TrackingNo:  order.TrackingNo,
		PaidAt:      order.PaidAt,
		ShippedAt:   order.ShippedAt,
		CompletedAt: order.CompletedAt,
		CancelledAt: order.CancelledAt,
		CreatedAt:   order.CreatedAt,
		Items:       make([]OrderItemView, 0, len(items)),
	}
	for _, item := range items {
		line := OrderItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
		}
		if snap, ok := snapshots[item.ProductID]; ok {
			line.Product = &snap
		}
		view.Items = append(view.Items, line)
	}
	return view
}

func newOrderList(rows []models.Order, next string) *OrderList {
	out := &OrderList{Orders: make([]OrderSummary, 0, len(rows)), NextCursor: next}
	for _, o := range rows {
		count := 0
		for _, item := range o.Items {
			count += item.Quantity
		}
		out.Orders = append(out.Orders, OrderSummary{
			ID:          o.ID,
			OrderNo:     o.OrderNo,
			Status:      o.Status,
			TotalAmount: o.TotalAmount,
			ItemCount:   count,
			CreatedAt:   o.CreatedAt,
		})
	}
	return out
}

// TotalOf sums unit_price × quantity over items.
func TotalOf(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
