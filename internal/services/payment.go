package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/repository"
)

type PaymentInput struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Amount        decimal.Decimal      `json:"amount"`
	TransactionID string               `json:"transaction_id" validate:"required,max=256"`
}

// PaymentService records payments taken for orders. No processor is called.
type PaymentService struct {
	store repository.Store
}

func NewPaymentService(store repository.Store) *PaymentService {
	return &PaymentService{store: store}
}

func (s *PaymentService) RecordPayment(ctx context.Context, orderID uuid.UUID, in PaymentInput, actor Actor) (*models.Payment, error) {
	if !actor.Can(models.PermPaymentsEdit) {
		return nil, apperr.Forbidden("not allowed to record payments")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !in.PaymentMethod.Valid() {
		return nil, apperr.Validation("unknown payment method %q", in.PaymentMethod)
	}
	if err := validatePrice("amount", in.Amount); err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &models.Payment{
		OrderID:       orderID,
		TransactionID: in.TransactionID,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: models.PaymentPending,
		Amount:        in.Amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Orders().GetByID(ctx, orderID); err != nil {
			return storeErr(err, "order")
		}
		return storeErr(tx.Payments().Create(ctx, payment), "payment")
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ListPayments returns the payments of an order visible to actor.
func (s *PaymentService) ListPayments(ctx context.Context, orderID uuid.UUID, actor Actor) ([]models.Payment, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	if !actor.Can(models.PermOrdersViewAll) {
		customerID, err := customerIDOf(ctx, s.store, actor)
		if err != nil {
			return nil, err
		}
		if customerID == uuid.Nil || order.CustomerID != customerID {
			return nil, apperr.Forbidden("order %s does not belong to you", orderID)
		}
	}
	payments, err := s.store.Payments().ListByOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "payments")
	}
	return payments, nil
}

func (s *PaymentService) SetPaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, actor Actor) (*models.Payment, error) {
	if !actor.Can(models.PermPaymentsEdit) {
		return nil, apperr.Forbidden("not allowed to update payments")
	}
	if !status.Valid() {
		return nil, apperr.Validation("unknown payment status %q", status)
	}

	var payment *models.Payment
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if payment, err = tx.Payments().GetByID(ctx, id); err != nil {
			return storeErr(err, "payment")
		}
		payment.PaymentStatus = status
		payment.UpdatedAt = time.Now()
		return storeErr(tx.Payments().Update(ctx, payment), "payment")
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
