package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/models"
)

// GET /admin/roles lists the role matrix.
func GetAllRoles(c *gin.Context) {
	roles := make([]gin.H, 0, len(models.RolePermissions))
	for _, role := range []models.Role{models.RoleCustomer, models.RoleStaff, models.RoleManager, models.RoleAdmin} {
		roles = append(roles, gin.H{
			"role":        role,
			"permissions": models.RolePermissions[role],
		})
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

// GET /auth/me/permissions
func GetMyPermissions(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	perms := models.RolePermissions[actor.Role]
	if perms == nil {
		perms = []models.Permission{}
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     actor.UserID,
		"role":        actor.Role,
		"permissions": perms,
	})
}
