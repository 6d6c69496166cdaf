package helpers

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
)

// Line is one product and quantity to check out.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// LinesFromCart keeps the cart's line order.
func LinesFromCart(items []models.CartItem) []Line {
	out := make([]Line, 0, len(items))
	for _, item := range items {
		out = append(out, Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

// ProductIDs lists the products of lines in order.
func ProductIDs(lines []Line) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		out = append(out, line.ProductID)
	}
	return out
}

// LockOrder returns a copy of lines sorted by product id. Taking row locks
// in one global order keeps two checkouts over the same products from
// deadlocking each other.
func LockOrder(lines []Line) []Line {
	out := slices.Clone(lines)
	slices.SortFunc(out, func(a, b Line) int {
		return strings.Compare(a.ProductID.String(), b.ProductID.String())
	})
	return out
}
