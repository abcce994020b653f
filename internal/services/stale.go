package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/events"
	"pizzeria_back_end/internal/models"
)

// StaleOrderReconciler reports orders that are still in the pipeline. An
// order is reported once it is older than minAge, and again only when its
// status moved since the last report.
type StaleOrderReconciler struct {
	orders *OrderService
	events EventPublisher
	window time.Duration
	minAge time.Duration

	mu       sync.Mutex
	reported map[uuid.UUID]models.OrderStatus
}

func NewStaleOrderReconciler(orders *OrderService, publisher EventPublisher, window, minAge time.Duration) *StaleOrderReconciler {
	return &StaleOrderReconciler{
		orders:   orders,
		events:   publisher,
		window:   window,
		minAge:   minAge,
		reported: make(map[uuid.UUID]models.OrderStatus),
	}
}

// Run publishes a stale event per newly reported open order and returns how
// many it reported.
func (r *StaleOrderReconciler) Run(ctx context.Context) (int, error) {
	orders, err := r.orders.ListStaleOrders(ctx, r.window)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.orders.now().Add(-r.minAge)
	open := make(map[uuid.UUID]models.OrderStatus, len(orders))
	reported := 0
	for i := range orders {
		order := &orders[i]
		if order.CreatedAt.After(cutoff) {
			continue
		}
		open[order.ID] = order.OrderStatus
		if last, ok := r.reported[order.ID]; ok && last == order.OrderStatus {
			continue
		}
		log.Warn().
			Str("order_id", order.ID.String()).
			Str("status", string(order.OrderStatus)).
			Time("created_at", order.CreatedAt).
			Msg("Order still open")
		if r.events != nil {
			r.events.Publish(ctx, events.NewOrderEvent(events.OrderStale, order))
		}
		reported++
	}
	// Orders that left the pipeline are forgotten.
	r.reported = open

	log.Info().Int("open", len(orders)).Int("reported", reported).Dur("window", r.window).Msg("Stale order scan finished")
	return reported, nil
}
