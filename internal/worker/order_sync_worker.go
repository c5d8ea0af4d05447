package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shelfline/marketsync/internal/service"
)

// OrderSyncWorker periodically polls marketplace orders for every connected
// tenant and applies their sales to the catalog.
type OrderSyncWorker struct {
	orderSync *service.OrderSyncService
	interval  time.Duration
}

// NewOrderSyncWorker constructs an OrderSyncWorker.
func NewOrderSyncWorker(orderSync *service.OrderSyncService, interval time.Duration) *OrderSyncWorker {
	return &OrderSyncWorker{
		orderSync: orderSync,
		interval:  interval,
	}
}

// Start begins the periodic polling loop and listens for context cancellation.
func (w *OrderSyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting order sync worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Order sync worker stopped")
			return
		}
	}
}

func (w *OrderSyncWorker) run(ctx context.Context) {
	log.Info().Msg("Polling marketplace orders...")

	start := time.Now()
	w.orderSync.SyncAll(ctx)

	log.Info().Dur("duration", time.Since(start)).Msg("Order sync pass completed")
}
