package payment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

// Payments records order payments. services.PaymentService implements it.
type Payments interface {
	RecordPayment(ctx context.Context, orderID uuid.UUID, in services.PaymentInput, actor services.Actor) (*models.Payment, error)
	ListPayments(ctx context.Context, orderID uuid.UUID, actor services.Actor) ([]models.Payment, error)
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, actor services.Actor) (*models.Payment, error)
}

type PaymentHandler struct {
	payments Payments
}

func NewPaymentHandler(payments Payments) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// POST /orders/:id/payments
func (h *PaymentHandler) Record(c *gin.Context) {
	orderID, ok := handlers.ParamUUID(c, "id", "order")
	if !ok {
		return
	}
	var in services.PaymentInput
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	payment, err := h.payments.RecordPayment(c.Request.Context(), orderID, in, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GET /orders/:id/payments
func (h *PaymentHandler) List(c *gin.Context) {
	orderID, ok := handlers.ParamUUID(c, "id", "order")
	if !ok {
		return
	}
	payments, err := h.payments.ListPayments(c.Request.Context(), orderID, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// PATCH /payments/:id
func (h *PaymentHandler) SetStatus(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "payment")
	if !ok {
		return
	}
	var in struct {
		PaymentStatus models.PaymentStatus `json:"payment_status"`
	}
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	payment, err := h.payments.SetPaymentStatus(c.Request.Context(), id, in.PaymentStatus, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
