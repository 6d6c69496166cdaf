package checkout

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const orderNoLayout = "20060102150405"

// OrderNumbers formats order numbers as the UTC timestamp to the second
// followed by six random digits.
type OrderNumbers struct {
	digits func() int
}

func NewOrderNumbers() *OrderNumbers {
	return &OrderNumbers{digits: func() int { return rand.IntN(1_000_000) }}
}

func (g *OrderNumbers) Next(now time.Time) string {
	return fmt.Sprintf("%s%06d", now.UTC().Format(orderNoLayout), g.digits())
}
