package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/models"
)

// CustomerIdentity answers the customer questions asked by the role gates.
// services.IdentityService implements it.
type CustomerIdentity interface {
	IsVerifiedCustomer(ctx context.Context, userID uuid.UUID) (bool, error)
	CustomerFor(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
}

// RequireRoles lets through the listed roles only. A customer must also be
// verified when customers are allowed.
func RequireRoles(identity CustomerIdentity, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			Abort(c, apperr.Unauthorized("authentication required"))
			return
		}
		if !slices.Contains(roles, p.Role) {
			log.Warn().Str("user_id", p.UserID.String()).Str("role", string(p.Role)).
				Str("path", c.FullPath()).Msg("Role refused")
			Abort(c, apperr.Forbidden("your role may not access this resource"))
			return
		}
		if p.Role == models.RoleCustomer {
			verified, err := identity.IsVerifiedCustomer(c.Request.Context(), p.UserID)
			if err != nil {
				Abort(c, err)
				return
			}
			if !verified {
				Abort(c, apperr.Unauthorized("please verify your e-mail address first"))
				return
			}
		}
		c.Next()
	}
}

// RequirePermission checks the role matrix for perm.
func RequirePermission(perm models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			Abort(c, apperr.Unauthorized("authentication required"))
			return
		}
		if !models.HasPermission(roleOf(c), perm) {
			Abort(c, apperr.Forbidden("missing permission %s", perm))
			return
		}
		c.Next()
	}
}

// RequireVerifiedCustomer admits verified customers only and stores their
// customer profile id under KeyCustomerID.
func RequireVerifiedCustomer(identity CustomerIdentity) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			Abort(c, apperr.Unauthorized("authentication required"))
			return
		}
		if p.Role != models.RoleCustomer {
			Abort(c, apperr.Forbidden("only customers may access this resource"))
			return
		}
		customer, err := identity.CustomerFor(c.Request.Context(), p.UserID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				err = apperr.Forbidden("no customer profile for this account")
			}
			Abort(c, err)
			return
		}
		if !customer.IsVerified {
			Abort(c, apperr.Forbidden("only verified customers may access this resource"))
			return
		}
		c.Set(KeyCustomerID, customer.ID)
		c.Next()
	}
}
