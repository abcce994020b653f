package admin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/utils"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditReader reads the audit trail. utils.AuditLogger implements it.
type AuditReader interface {
	List(ctx context.Context, resource string, limit int) ([]models.AuditLog, error)
}

type AuditHandler struct {
	audit AuditReader
}

func NewAuditHandler(audit AuditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

var auditResources = []string{
	utils.ResourceOrder, utils.ResourceItem, utils.ResourceCategory,
	utils.ResourcePayment, utils.ResourceUser, utils.ResourceRole,
}

// GET /admin/audit/:resource?limit=
func (h *AuditHandler) ListByResource(c *gin.Context) {
	resource := c.Param("resource")
	known := false
	for _, r := range auditResources {
		if r == resource {
			known = true
			break
		}
	}
	if !known {
		handlers.Fail(c, apperr.NotFound("unknown audit resource %q", resource))
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAuditLimit)))
	if err != nil || limit <= 0 {
		handlers.Fail(c, apperr.Validation("limit must be a positive integer"))
		return
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	logs, err := h.audit.List(c.Request.Context(), resource, limit)
	if errors.Is(err, utils.ErrAuditDisabled) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "unavailable"})
		return
	}
	if err != nil {
		handlers.Fail(c, apperr.Internal(err, "could not read audit logs"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":     logs,
		"total":    len(logs),
		"resource": resource,
		"limit":    limit,
	})
}
