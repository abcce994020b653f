package utils

import (
	"context"

	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/models"
)

func statusSubject(status models.OrderStatus) string {
	switch status {
	case models.StatusProcessing:
		return "We received your order"
	case models.StatusPreparing:
		return "Your pizza is being prepared"
	case models.StatusPacking:
		return "Your order is being packed"
	case models.StatusHandedForDelivery:
		return "Your order is on its way"
	case models.StatusDelivered:
		return "Your order was delivered"
	case models.StatusCancelled:
		return "Your order was cancelled"
	default:
		return "Update on your order"
	}
}

func statusMessage(status models.OrderStatus) string {
	switch status {
	case models.StatusProcessing:
		return "Your order has been placed and will be confirmed shortly."
	case models.StatusPreparing:
		return "Our kitchen has started preparing your order."
	case models.StatusPacking:
		return "Your order is ready and being packed."
	case models.StatusHandedForDelivery:
		return "Your order has been handed to our delivery team."
	case models.StatusDelivered:
		return "Your order has been delivered. Enjoy your meal!"
	case models.StatusCancelled:
		return "Your order has been cancelled."
	default:
		return "The status of your order has changed."
	}
}

func statusColor(status models.OrderStatus) string {
	switch status {
	case models.StatusDelivered:
		return "#27ae60"
	case models.StatusCancelled:
		return "#7f8c8d"
	case models.StatusHandedForDelivery:
		return "#2980b9"
	default:
		return "#e67e22"
	}
}

func RenderOrderStatusEmail(name string, order *models.Order) (string, string, error) {
	subject := statusSubject(order.OrderStatus)
	body, err := render(orderStatusTmpl, statusEmail{
		Title:   subject,
		Name:    name,
		Message: statusMessage(order.OrderStatus),
		Status:  string(order.OrderStatus),
		Color:   statusColor(order.OrderStatus),
		OrderID: order.ID.String(),
	})
	return subject, body, err
}

// SendVerificationEmail mails the account confirmation link.
func (m *Mailer) SendVerificationEmail(ctx context.Context, user *models.User, token string) error {
	body, err := RenderVerificationEmail(user.Firstname, m.publicURL+"/auth/verify/"+token)
	if err != nil {
		return err
	}
	return m.Send(ctx, user.Email, "Confirm your Pizzeria account", body)
}

func (m *Mailer) SendPasswordResetEmail(ctx context.Context, user *models.User, token string) error {
	body, err := RenderPasswordResetEmail(user.Firstname, m.publicURL+"/auth/password-reset/"+token)
	if err != nil {
		return err
	}
	return m.Send(ctx, user.Email, "Reset your Pizzeria password", body)
}

// SendOrderStatusEmail tells the customer about the current status of order.
func (m *Mailer) SendOrderStatusEmail(ctx context.Context, user *models.User, order *models.Order) error {
	subject, body, err := RenderOrderStatusEmail(user.Firstname, order)
	if err != nil {
		return err
	}
	if err := m.Send(ctx, user.Email, subject, body); err != nil {
		return err
	}
	log.Info().Str("order_id", order.ID.String()).Str("status", string(order.OrderStatus)).Msg("Order status e-mail sent")
	return nil
}
