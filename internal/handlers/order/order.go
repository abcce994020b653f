package order

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

// Orders is the order workflow. services.OrderService implements it.
type Orders interface {
	CreateOrder(ctx context.Context, customerID uuid.UUID, in services.CreateOrderInput) (*models.Order, error)
	AttachItems(ctx context.Context, orderID uuid.UUID, lines []services.LineInput, actor services.Actor) ([]models.OrderItem, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, actor services.Actor) (*models.Order, error)
	ListOrders(ctx context.Context, customerID uuid.UUID, filter string) ([]models.Order, error)
	ListStaleOrders(ctx context.Context, olderThan time.Duration) ([]models.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, actor services.Actor) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, patch models.OrderPatch, actor services.Actor) (*models.Order, error)
}

type OrderHandler struct {
	orders Orders
	feed   Feed
}

func NewOrderHandler(orders Orders, feed Feed) *OrderHandler {
	return &OrderHandler{orders: orders, feed: feed}
}

// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var in services.CreateOrderInput
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), middleware.CustomerIDFrom(c), in)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	log.Info().Str("order_id", order.ID.String()).Str("delivery_type", string(order.DeliveryType)).Msg("Order created")
	c.JSON(http.StatusCreated, order)
}

// POST /orders/:id/items
func (h *OrderHandler) AttachItems(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "order")
	if !ok {
		return
	}
	var in struct {
		Items []services.LineInput `json:"items"`
	}
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	lines, err := h.orders.AttachItems(c.Request.Context(), id, in.Items, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order_id": id, "order_items": lines})
}

// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "order")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GET /orders/status/:status
func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), middleware.CustomerIDFrom(c), c.Param("status"))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

// GET /orders/stale?minutes=
func (h *OrderHandler) ListStale(c *gin.Context) {
	var window time.Duration
	if raw := c.Query("minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			handlers.Fail(c, apperr.Validation("minutes must be a non-negative integer"))
			return
		}
		window = time.Duration(minutes) * time.Minute
	}
	orders, err := h.orders.ListStaleOrders(c.Request.Context(), window)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

// PATCH /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "order")
	if !ok {
		return
	}
	order, err := h.orders.CancelOrder(c.Request.Context(), id, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PATCH /orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "order")
	if !ok {
		return
	}
	var patch models.OrderPatch
	if !handlers.DecodeStrict(c, &patch) {
		return
	}
	order, err := h.orders.UpdateOrder(c.Request.Context(), id, patch, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
