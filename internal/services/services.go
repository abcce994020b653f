// Package services holds the business operations behind the HTTP API. Each
// service is a stateless struct receiving its collaborators by constructor
// and returning apperr kinds.
package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/events"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/repository"
)

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

func (a Actor) Can(perm models.Permission) bool {
	return models.HasPermission(a.Role, perm)
}

// EventPublisher receives order events after commit. *events.Bus implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent)
}

// customerIDOf returns the customer profile id of the actor, or uuid.Nil
// when the actor has none.
func customerIDOf(ctx context.Context, store repository.Store, a Actor) (uuid.UUID, error) {
	if a.Role != models.RoleCustomer {
		return uuid.Nil, nil
	}
	customer, err := store.Users().GetCustomerByUserID(ctx, a.UserID)
	if err != nil {
		if err = storeErr(err, "customer"); isNotFound(err) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return customer.ID, nil
}

func warnSideEffect(err error, msg string) {
	if err != nil {
		log.Warn().Err(err).Msg(msg)
	}
}
