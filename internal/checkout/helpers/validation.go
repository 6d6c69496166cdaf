package helpers

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

// ValidateQuantity checks 1 <= qty <= max. A non-positive max disables the
// upper bound.
func ValidateQuantity(qty, max int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if max > 0 && qty > max {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", max))
	}
	return nil
}

// ValidateLines rejects empty input, bad quantities and repeated products.
// An empty line set is a business rule failure, not a validation one: it
// means the cart had nothing to buy.
func ValidateLines(lines []Line, max int) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "cart is empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if _, dup := seen[line.ProductID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "product appears twice").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		seen[line.ProductID] = struct{}{}
		if err := ValidateQuantity(line.Quantity, max); err != nil {
			return err
		}
	}
	return nil
}
