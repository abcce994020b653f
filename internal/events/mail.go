package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pizzeria_back_end/internal/models"
)

// CustomerLookup resolves the customer (with user) behind an order.
type CustomerLookup interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type StatusMailer interface {
	SendOrderStatusEmail(ctx context.Context, user *models.User, order *models.Order) error
}

// StatusNotifier e-mails the customer whenever an event changed the status
// of their order.
type StatusNotifier struct {
	customers CustomerLookup
	mailer    StatusMailer
}

func NewStatusNotifier(customers CustomerLookup, mailer StatusMailer) *StatusNotifier {
	return &StatusNotifier{customers: customers, mailer: mailer}
}

func (n *StatusNotifier) Publish(ctx context.Context, event OrderEvent) error {
	if !event.StatusChanged {
		return nil
	}
	customer, err := n.customers.GetCustomerByID(ctx, event.CustomerID)
	if err != nil {
		return errors.Wrap(err, "failed to load order customer")
	}
	if customer.User == nil {
		return errors.Errorf("customer %s has no user", customer.ID)
	}
	order := &models.Order{ID: event.OrderID, CustomerID: event.CustomerID, OrderStatus: event.Status}
	return n.mailer.SendOrderStatusEmail(ctx, customer.User, order)
}
