package enums

import "fmt"

// PromotionStatus toggles whether a promotion is considered at checkout.
type PromotionStatus string

const (
	PromotionStatusActive   PromotionStatus = "active"
	PromotionStatusInactive PromotionStatus = "inactive"
)

// IsValid reports whether the value is a known PromotionStatus.
func (s PromotionStatus) IsValid() bool {
	return s == PromotionStatusActive || s == PromotionStatusInactive
}

// DiscountType is the persisted tag of a promotion's discount variant.
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercent,
	DiscountTypeFixed,
}

// DiscountTypes lists every supported discount variant.
func DiscountTypes() []DiscountType {
	out := make([]DiscountType, len(validDiscountTypes))
	copy(out, validDiscountTypes)
	return out
}

// IsValid reports whether the value is a known DiscountType.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts raw input into a DiscountType.
func ParseDiscountType(value string) (DiscountType, error) {
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
