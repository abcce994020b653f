package services

import (
	"github.com/pkg/errors"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/repository"
)

// storeErr translates a repository failure into a service error. what names
// the record for NotFound and Conflict messages.
func storeErr(err error, what string) error {
	var appErr *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("%s not found", what)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("%s already exists", what)
	default:
		return apperr.Internal(err, "internal server error")
	}
}

func isNotFound(err error) bool {
	return apperr.Is(err, apperr.KindNotFound)
}
