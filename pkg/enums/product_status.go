package enums

import "fmt"

// ProductStatus marks whether a product is on or off the shelf.
type ProductStatus string

const (
	ProductStatusOn  ProductStatus = "on"
	ProductStatusOff ProductStatus = "off"
)

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusOn || s == ProductStatusOff
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	status := ProductStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid product status %q", value)
	}
	return status, nil
}
