package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/marketcore-backend/pkg/logger"
)

// ShipmentReconcileJobParams configure the stale shipment sweep.
type ShipmentReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler shipmentReconciler
	// Threshold is how long an order may sit in shipped before it is
	// completed on the buyer's behalf.
	Threshold time.Duration
}

type shipmentReconciler interface {
	ReconcileStaleShipments(ctx context.Context, olderThan time.Duration) (int, error)
}

// NewShipmentReconcileJob builds the job that auto-completes shipped orders
// once they exceed the threshold.
func NewShipmentReconcileJob(params ShipmentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("orders reconciler required")
	}
	if params.Threshold <= 0 {
		return nil, fmt.Errorf("reconcile threshold must be positive")
	}
	return &shipmentReconcileJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
		threshold:  params.Threshold,
	}, nil
}

type shipmentReconcileJob struct {
	logg       *logger.Logger
	reconciler shipmentReconciler
	threshold  time.Duration
}

func (j *shipmentReconcileJob) Name() string { return "shipment-reconcile" }

func (j *shipmentReconcileJob) Run(ctx context.Context) error {
	completed, err := j.reconciler.ReconcileStaleShipments(ctx, j.threshold)
	if err != nil {
		return fmt.Errorf("reconcile stale shipments: %w", err)
	}
	if completed > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"threshold": j.threshold.String(),
			"completed": completed,
		})
		j.logg.Info(logCtx, "stale shipments auto-completed")
	}
	return nil
}
