package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/marketcore-backend/internal/products"
	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
)

// CartView is the cart as returned to clients. Prices are the add-time
// snapshots; checkout re-prices every line.
type CartView struct {
	ID    uuid.UUID       `json:"id"`
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type CartLine struct {
	ProductID uuid.UUID         `json:"product_id"`
	Quantity  int               `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Product   *product.Snapshot `json:"product,omitempty"`
}

func buildView(cart *models.Cart, items []models.CartItem, snapshots map[uuid.UUID]product.Snapshot) *CartView {
	view := &CartView{ID: cart.ID, Items: make([]CartLine, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		line := CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  subtotal,
		}
		if snap, ok := snapshots[item.ProductID]; ok {
			line.Product = &snap
		}
		view.Items = append(view.Items, line)
		view.Total = view.Total.Add(subtotal)
	}
	return view
}
