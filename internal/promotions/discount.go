// Package promotions resolves the single promotion that prices each product
// at checkout and computes the discounted unit price.
package promotions

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketcore-backend/pkg/db/models"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
)

var (
	hundred  = decimal.NewFromInt(100)
	minFixed = decimal.New(1, -2)
)

// Discount prices one unit under a promotion. The set of variants is closed:
// PercentOff and FixedOff are the only implementations.
type Discount interface {
	Kind() enums.DiscountType
	Apply(price decimal.Decimal) decimal.Decimal
	sealed()
}

// PercentOff takes Percent percent off the price, never below zero.
type PercentOff struct {
	Percent decimal.Decimal
}

func (PercentOff) Kind() enums.DiscountType { return enums.DiscountTypePercent }

func (d PercentOff) Apply(price decimal.Decimal) decimal.Decimal {
	pct := clamp(d.Percent, decimal.Zero, hundred)
	out := price.Mul(hundred.Sub(pct)).Div(hundred)
	if out.IsNegative() {
		out = decimal.Zero
	}
	return out.Round(2)
}

func (PercentOff) sealed() {}

// FixedOff subtracts Amount from the price, never below one cent.
type FixedOff struct {
	Amount decimal.Decimal
}

func (FixedOff) Kind() enums.DiscountType { return enums.DiscountTypeFixed }

func (d FixedOff) Apply(price decimal.Decimal) decimal.Decimal {
	out := price.Sub(d.Amount).Round(2)
	if out.LessThan(minFixed) {
		return minFixed
	}
	return out
}

func (FixedOff) sealed() {}

// FromPromotion maps the persisted discount tag onto its variant.
func FromPromotion(p models.Promotion) (Discount, error) {
	switch p.DiscountType {
	case enums.DiscountTypePercent:
		return PercentOff{Percent: p.DiscountValue}, nil
	case enums.DiscountTypeFixed:
		return FixedOff{Amount: p.DiscountValue}, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown discount type").
			WithDetails(map[string]any{"promotion_id": p.ID, "discount_type": p.DiscountType})
	}
}

// EffectivePrice returns the unit price after promo. A nil promo leaves the
// base price as is.
func EffectivePrice(price decimal.Decimal, promo *models.Promotion) (decimal.Decimal, error) {
	if promo == nil {
		return price.Round(2), nil
	}
	discount, err := FromPromotion(*promo)
	if err != nil {
		return decimal.Zero, err
	}
	return discount.Apply(price), nil
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
