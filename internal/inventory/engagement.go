package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketcore-backend/pkg/logger"
)

const viewOperation = "product_view"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// operationLocker claims short-lived dedupe markers (redis SETNX).
type operationLocker interface {
	AcquireOperation(ctx context.Context, operation string, window time.Duration, parts ...string) (bool, error)
	OperationKey(operation string, parts ...string) string
	Del(ctx context.Context, keys ...string) error
}

// Engagement records product views, counting at most one per user and
// product inside the dedupe window.
type Engagement struct {
	tx     txRunner
	ledger *Ledger
	locks  operationLocker
	window time.Duration
	logg   *logger.Logger
}

// NewEngagement wires the view recorder. locks may be nil, in which case
// every view is counted.
func NewEngagement(tx txRunner, ledger *Ledger, locks operationLocker, window time.Duration, logg *logger.Logger) *Engagement {
	return &Engagement{tx: tx, ledger: ledger, locks: locks, window: window, logg: logg}
}

// RecordView bumps views_count unless the same user viewed the product
// within the window. It reports whether the view was counted.
func (e *Engagement) RecordView(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	parts := []string{userID.String(), productID.String()}
	claimed := false
	if e.locks != nil && e.window > 0 {
		ok, err := e.locks.AcquireOperation(ctx, viewOperation, e.window, parts...)
		switch {
		case err != nil:
			// Dedupe is best effort; a redis outage should not lose the view.
			e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "view dedupe unavailable")
		case !ok:
			return false, nil
		default:
			claimed = true
		}
	}

	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return e.ledger.IncrementViews(ctx, tx, productID)
	})
	if err != nil {
		if claimed {
			if delErr := e.locks.Del(ctx, e.locks.OperationKey(viewOperation, parts...)); delErr != nil {
				e.logg.Warn(e.logg.WithField(ctx, "error", delErr.Error()), "release view marker failed")
			}
		}
		return false, err
	}
	return true, nil
}
