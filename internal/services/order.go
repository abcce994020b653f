package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/events"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/repository"
)

const (
	MinLineQuantity = 1
	MaxLineQuantity = 100

	// DefaultStaleWindow is used when ListStaleOrders gets no usable window.
	DefaultStaleWindow = 1440 * time.Minute

	// FilterAll lists orders of every status.
	FilterAll = "all"
)

type CreateOrderInput struct {
	DeliveryType models.DeliveryType `json:"delivery_type"`
	AddressID    *uuid.UUID          `json:"address_id"`
}

// LineInput is one requested order line.
type LineInput struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// OrderService runs the order workflow: creation, line attachment with price
// snapshots, status changes and the authorization rules around them.
type OrderService struct {
	store  repository.Store
	events EventPublisher
	now    func() time.Time
}

func NewOrderService(store repository.Store, publisher EventPublisher) *OrderService {
	return &OrderService{store: store, events: publisher, now: time.Now}
}

// LinePrice is the frozen price of quantity units at the given unit price,
// rounded half to even at two decimals.
func LinePrice(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity))).RoundBank(2)
}

func (s *OrderService) publish(ctx context.Context, t events.Type, order *models.Order, statusChanged bool) {
	if s.events == nil {
		return
	}
	event := events.NewOrderEvent(t, order)
	event.StatusChanged = statusChanged
	s.events.Publish(ctx, event)
}

// checkAddress verifies that addressID exists and belongs to customerID.
func checkAddress(ctx context.Context, store repository.Store, addressID, customerID uuid.UUID) error {
	address, err := store.Addresses().GetByID(ctx, addressID)
	if err != nil {
		return storeErr(err, "address")
	}
	if address.CustomerID != customerID {
		return apperr.Validation("address %s does not belong to the customer", addressID)
	}
	return nil
}

func (s *OrderService) CreateOrder(ctx context.Context, customerID uuid.UUID, in CreateOrderInput) (*models.Order, error) {
	if !in.DeliveryType.Valid() {
		return nil, apperr.Validation("unknown delivery type %q", in.DeliveryType)
	}

	order := &models.Order{
		CustomerID:   customerID,
		DeliveryType: in.DeliveryType,
		OrderStatus:  models.StatusProcessing,
	}
	if in.DeliveryType == models.DeliveryHome {
		if in.AddressID == nil {
			return nil, apperr.Validation("address_id is required for home delivery")
		}
		if err := checkAddress(ctx, s.store, *in.AddressID, customerID); err != nil {
			return nil, err
		}
		id := *in.AddressID
		order.AddressID = &id
	}

	now := s.now()
	order.CreatedAt, order.UpdatedAt = now, now
	if err := s.store.Orders().Create(ctx, order); err != nil {
		return nil, storeErr(err, "order")
	}

	s.publish(ctx, events.OrderCreated, order, true)
	return order, nil
}

// AttachItems appends priced lines to an order owned by the actor. The batch
// is all-or-nothing and the rows come back in input order.
func (s *OrderService) AttachItems(ctx context.Context, orderID uuid.UUID, lines []LineInput, actor Actor) ([]models.OrderItem, error) {
	if len(lines) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}
	for i, line := range lines {
		if line.Quantity < MinLineQuantity || line.Quantity > MaxLineQuantity {
			return nil, apperr.Validation("line %d: quantity must be between %d and %d", i+1, MinLineQuantity, MaxLineQuantity)
		}
	}
	if !actor.Can(models.PermOrdersAttach) {
		return nil, apperr.Forbidden("not allowed to add items to orders")
	}

	var (
		created []models.OrderItem
		order   *models.Order
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if order, err = tx.Orders().GetByID(ctx, orderID); err != nil {
			return storeErr(err, "order")
		}
		customerID, err := customerIDOf(ctx, tx, actor)
		if err != nil {
			return err
		}
		if customerID == uuid.Nil || order.CustomerID != customerID {
			return apperr.Forbidden("order %s does not belong to you", orderID)
		}

		now := s.now()
		created = make([]models.OrderItem, 0, len(lines))
		for i, line := range lines {
			item, err := tx.Catalog().GetItem(ctx, line.ItemID)
			if err != nil {
				return storeErr(err, "item "+line.ItemID.String())
			}
			price := LinePrice(item.Price, line.Quantity)
			if price.GreaterThanOrEqual(maxPrice) {
				return apperr.Validation("line %d: total price must be below %s", i+1, maxPrice)
			}
			created = append(created, models.OrderItem{
				OrderID:          orderID,
				ItemID:           item.ID,
				Quantity:         line.Quantity,
				PriceAtOrderTime: price,
				// Distinct timestamps keep input order when listing by creation.
				CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
			})
		}
		return storeErr(tx.Orders().AddItems(ctx, created), "order item")
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderItemsAttached, order, false)
	return created, nil
}

// GetOrder returns the order with its lines. Customers only see their own
// orders.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	if actor.Can(models.PermOrdersViewAll) {
		return order, nil
	}
	customerID, err := customerIDOf(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	if customerID == uuid.Nil || order.CustomerID != customerID {
		return nil, apperr.Forbidden("order %s does not belong to you", orderID)
	}
	return order, nil
}

// ListOrders returns the customer's orders. filter is "all" or a status.
func (s *OrderService) ListOrders(ctx context.Context, customerID uuid.UUID, filter string) ([]models.Order, error) {
	var status *models.OrderStatus
	if filter != FilterAll {
		parsed, err := models.ParseOrderStatus(filter)
		if err != nil {
			return nil, apperr.Validation("status must be %q or one of the order statuses", FilterAll)
		}
		status = &parsed
	}
	orders, err := s.store.Orders().ListByCustomer(ctx, customerID, status)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return orders, nil
}

// ListStaleOrders returns orders created within olderThan that have not been
// delivered or cancelled yet.
func (s *OrderService) ListStaleOrders(ctx context.Context, olderThan time.Duration) ([]models.Order, error) {
	if olderThan <= 0 {
		olderThan = DefaultStaleWindow
	}
	orders, err := s.store.Orders().ListActiveSince(ctx, s.now().Add(-olderThan))
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return orders, nil
}

// CancelOrder marks the order cancelled. Customers may cancel their own
// orders; managers and admins any order. The current status is not checked.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	var (
		order    *models.Order
		previous models.OrderStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if order, err = tx.Orders().GetByID(ctx, orderID); err != nil {
			return storeErr(err, "order")
		}
		if !actor.Can(models.PermOrdersCancelAny) {
			if !actor.Can(models.PermOrdersCancelOwn) {
				return apperr.Forbidden("not allowed to cancel orders")
			}
			customerID, err := customerIDOf(ctx, tx, actor)
			if err != nil {
				return err
			}
			if customerID == uuid.Nil || order.CustomerID != customerID {
				return apperr.Forbidden("order %s does not belong to you", orderID)
			}
		}

		previous = order.OrderStatus
		order.OrderStatus = models.StatusCancelled
		order.UpdatedAt = s.now()
		return storeErr(tx.Orders().Update(ctx, order), "order")
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderCancelled, order, previous != models.StatusCancelled)
	return order, nil
}

// UpdateOrder applies a staff patch. The home delivery address rule is
// checked against the resulting order before anything is written.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID uuid.UUID, patch models.OrderPatch, actor Actor) (*models.Order, error) {
	if !actor.Can(models.PermOrdersEdit) {
		return nil, apperr.Forbidden("not allowed to update orders")
	}
	if patch.DeliveryType != nil && !patch.DeliveryType.Valid() {
		return nil, apperr.Validation("unknown delivery type %q", *patch.DeliveryType)
	}
	if patch.OrderStatus != nil {
		if !patch.OrderStatus.Valid() {
			return nil, apperr.Validation("unknown order status %q", *patch.OrderStatus)
		}
		if *patch.OrderStatus == models.StatusCancelled {
			return nil, apperr.Validation("use the cancel endpoint to cancel an order")
		}
	}

	var (
		updated  *models.Order
		previous models.OrderStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return storeErr(err, "order")
		}
		previous = order.OrderStatus

		deliveryType := order.DeliveryType
		if patch.DeliveryType != nil {
			deliveryType = *patch.DeliveryType
		}
		addressID := order.AddressID
		if patch.AddressID.Set {
			addressID = patch.AddressID.Value
		}
		if deliveryType != models.DeliveryHome {
			addressID = nil
		} else if addressID == nil {
			return apperr.Validation("home delivery requires an address")
		}
		if patch.AddressID.Set && addressID != nil {
			if err := checkAddress(ctx, tx, *addressID, order.CustomerID); err != nil {
				return err
			}
		}

		order.DeliveryType = deliveryType
		order.AddressID = addressID
		if patch.OrderStatus != nil {
			order.OrderStatus = *patch.OrderStatus
		}
		if err := tx.Orders().Update(ctx, order); err != nil {
			return storeErr(err, "order")
		}
		updated, err = tx.Orders().GetByID(ctx, orderID)
		return storeErr(err, "order")
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderUpdated, updated, updated.OrderStatus != previous)
	return updated, nil
}
