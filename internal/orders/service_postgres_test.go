package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketcore-backend/internal/dbtest"
	"github.com/angelmondragon/marketcore-backend/internal/inventory"
	product "github.com/angelmondragon/marketcore-backend/internal/products"
	"github.com/angelmondragon/marketcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketcore-backend/pkg/errors"
	"github.com/angelmondragon/marketcore-backend/pkg/outbox"
)

func TestCancelAndPayRaceOnPostgres(t *testing.T) {
	client := dbtest.OpenPostgres(t, 5*time.Second)
	conn := client.DB()
	svc, err := NewService(
		NewRepository(conn),
		client,
		outbox.NewService(outbox.NewRepository(conn), nil),
		inventory.NewLedger(),
		product.NewRepository(conn),
		nil,
		nil,
	)
	require.NoError(t, err)

	user := uuid.New()
	p := dbtest.SeedProduct(t, conn, "3.00", 4)
	order := dbtest.SeedOrder(t, conn, user, enums.OrderStatusPending, dbtest.Line{Product: p, Quantity: 1})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		errs[0] = svc.CancelOrder(context.Background(), user, order.ID)
	}()
	go func() {
		defer wg.Done()
		<-start
		errs[1] = svc.PayOrder(context.Background(), user, order.ID)
	}()
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeBusinessRule), "loser must fail the guard, got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	final := dbtest.ReloadOrder(t, conn, order.ID)
	got := dbtest.ReloadProduct(t, conn, p.ID)
	switch final.Status {
	case enums.OrderStatusCancelled:
		assert.Equal(t, 5, got.Stock)
		assert.Zero(t, got.SalesCount)
	case enums.OrderStatusPaid:
		assert.Equal(t, 4, got.Stock)
		assert.Equal(t, 1, got.SalesCount)
	default:
		t.Fatalf("unexpected final status %s", final.Status)
	}
}
