// Package middleware holds the gin middlewares of the API: authentication,
// role gates, rate limits, auditing, request logging and metrics.
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/auth"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

// Context keys set by AuthRequired and RequireVerifiedCustomer.
const (
	KeyUserID     = "user_id"
	KeyEmail      = "email"
	KeyRole       = "role"
	KeyPrincipal  = "principal"
	KeyCustomerID = "customer_id"
)

// Authenticator turns a bearer credential into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (*auth.Principal, error)
}

// Abort writes err as the JSON error body and stops the chain.
func Abort(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{
		"error": apperr.Message(err),
		"code":  kind,
	})
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", apperr.Unauthorized("missing authorization header")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperr.Unauthorized("invalid authorization header format")
	}
	return parts[1], nil
}

// AuthRequired rejects requests without a valid, non-revoked access token.
func AuthRequired(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c)
		if err != nil {
			Abort(c, err)
			return
		}
		p, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Debug().Err(err).Str("ip", c.ClientIP()).Msg("Rejected credential")
			Abort(c, err)
			return
		}

		c.Set(KeyUserID, p.UserID.String())
		c.Set(KeyEmail, p.Email)
		c.Set(KeyRole, string(p.Role))
		c.Set(KeyPrincipal, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by AuthRequired.
func PrincipalFrom(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(KeyPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok
}

// ActorFrom returns the service actor of the authenticated request.
func ActorFrom(c *gin.Context) services.Actor {
	p, ok := PrincipalFrom(c)
	if !ok {
		return services.Actor{}
	}
	return services.Actor{UserID: p.UserID, Email: p.Email, Role: p.Role}
}

// CustomerIDFrom returns the customer profile id stored by
// RequireVerifiedCustomer.
func CustomerIDFrom(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(KeyCustomerID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func roleOf(c *gin.Context) models.Role {
	return models.Role(c.GetString(KeyRole))
}
