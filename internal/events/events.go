// Package events fans order lifecycle events out to the live tracker, the
// message broker and customer e-mail.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/models"
)

type Type string

const (
	OrderCreated       Type = "created"
	OrderItemsAttached Type = "items_attached"
	OrderUpdated       Type = "updated"
	OrderCancelled     Type = "cancelled"
	OrderStale         Type = "stale"
)

type OrderEvent struct {
	Type       Type               `json:"type"`
	OrderID    uuid.UUID          `json:"order_id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	Status     models.OrderStatus `json:"order_status"`
	// StatusChanged is set when the event moved the order to Status.
	StatusChanged bool      `json:"status_changed"`
	At            time.Time `json:"at"`
}

// NewOrderEvent builds an event describing order's current state.
func NewOrderEvent(t Type, order *models.Order) OrderEvent {
	return OrderEvent{
		Type:       t,
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     order.OrderStatus,
		At:         time.Now().UTC(),
	}
}

// RoutingKey is the broker routing key of the event.
func (e OrderEvent) RoutingKey() string {
	return "order." + string(e.Type)
}

// Publisher delivers events to one destination.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

var eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pizzeria_order_events_total",
	Help: "Order events published, by type.",
}, []string{"type"})

// Bus publishes every event to all registered publishers. Failures are
// logged and never returned: the write that produced the event is already
// committed.
type Bus struct {
	publishers []namedPublisher
}

type namedPublisher struct {
	name string
	Publisher
}

func NewBus() *Bus {
	return &Bus{}
}

// Register adds a publisher under name. Nil publishers are ignored.
func (b *Bus) Register(name string, p Publisher) *Bus {
	if p != nil {
		b.publishers = append(b.publishers, namedPublisher{name: name, Publisher: p})
	}
	return b
}

func (b *Bus) Publish(ctx context.Context, event OrderEvent) {
	if b == nil {
		return
	}
	eventsPublished.WithLabelValues(string(event.Type)).Inc()
	for _, p := range b.publishers {
		if err := p.Publish(ctx, event); err != nil {
			log.Error().Err(err).
				Str("publisher", p.name).
				Str("event", string(event.Type)).
				Str("order_id", event.OrderID.String()).
				Msg("Failed to publish order event")
		}
	}
}
