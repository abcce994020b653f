package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/auth"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/repository"
)

// IdentityService resolves bearer credentials and the profiles behind them.
type IdentityService struct {
	store   repository.Store
	tokens  *auth.TokenManager
	revoker auth.Revoker
}

func NewIdentityService(store repository.Store, tokens *auth.TokenManager, revoker auth.Revoker) *IdentityService {
	return &IdentityService{store: store, tokens: tokens, revoker: revoker}
}

func tokenErr(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return apperr.Unauthorized("token expired")
	case errors.Is(err, auth.ErrRevokedToken):
		return apperr.Unauthorized("token revoked")
	default:
		return apperr.Unauthorized("invalid token")
	}
}

// verify parses a token of the wanted kind and rejects revoked ids.
func (s *IdentityService) verify(ctx context.Context, credential string, refresh bool) (*auth.Principal, error) {
	p, err := s.tokens.Parse(credential)
	if err != nil {
		return nil, tokenErr(err)
	}
	if p.Refresh != refresh {
		if refresh {
			return nil, apperr.Unauthorized("a refresh token is required")
		}
		return nil, apperr.Unauthorized("an access token is required")
	}
	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, p.TokenID)
		if err != nil {
			return nil, apperr.Internal(err, "could not verify token")
		}
		if revoked {
			return nil, tokenErr(auth.ErrRevokedToken)
		}
	}
	return p, nil
}

// Authenticate turns an access token into the calling principal. The role
// is reloaded from the store so a demotion applies to tokens already issued.
func (s *IdentityService) Authenticate(ctx context.Context, credential string) (*auth.Principal, error) {
	p, err := s.verify(ctx, credential, false)
	if err != nil {
		return nil, err
	}
	role, err := s.RoleOf(ctx, p.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthorized("account no longer exists")
		}
		return nil, err
	}
	p.Role = role
	return p, nil
}

// RoleOf returns the stored role of a user, which wins over the token claim.
func (s *IdentityService) RoleOf(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return "", storeErr(err, "user")
	}
	return user.Role, nil
}

func (s *IdentityService) IsVerifiedCustomer(ctx context.Context, userID uuid.UUID) (bool, error) {
	customer, err := s.store.Users().GetCustomerByUserID(ctx, userID)
	if err != nil {
		if err = storeErr(err, "customer"); isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return customer.IsVerified, nil
}

func (s *IdentityService) CustomerFor(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	customer, err := s.store.Users().GetCustomerByUserID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "customer profile")
	}
	return customer, nil
}
