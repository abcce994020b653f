package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzeria_back_end/internal/models"
)

// Auditor stores audit rows. utils.AuditLogger implements it.
type Auditor interface {
	Record(entry models.AuditLog)
}

// Audit records one audit row per request once the handler has answered.
// The resource id comes from the :id or :name path parameter.
func Audit(auditor Auditor, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID := c.Param("id")
		if resourceID == "" {
			resourceID = c.Param("name")
		}

		c.Next()

		status := c.Writer.Status()
		entry := models.AuditLog{
			UserID:     c.GetString(KeyUserID),
			UserEmail:  c.GetString(KeyEmail),
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Success:    status >= 200 && status < 300,
		}
		if !entry.Success {
			entry.ErrorMsg = http.StatusText(status)
			if len(c.Errors) > 0 {
				entry.ErrorMsg = c.Errors.Last().Error()
			}
		}
		auditor.Record(entry)
	}
}
