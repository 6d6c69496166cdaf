package checkout

import (
	"regexp"
	"testing"
	"time"
)

func TestOrderNumbersPadDigits(t *testing.T) {
	g := &OrderNumbers{digits: func() int { return 42 }}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("UTC+2", 2*60*60))

	if got := g.Next(at); got != "20260102010405000042" {
		t.Fatalf("unexpected order number %q", got)
	}
}

func TestNewOrderNumbersShape(t *testing.T) {
	g := NewOrderNumbers()
	pattern := regexp.MustCompile(`^\d{20}$`)
	for i := 0; i < 50; i++ {
		if got := g.Next(time.Now()); !pattern.MatchString(got) {
			t.Fatalf("order number %q does not match %s", got, pattern)
		}
	}
}
