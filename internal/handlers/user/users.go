package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/services"
)

// PATCH /users/:id
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "user")
	if !ok {
		return
	}
	var patch services.UserPatch
	if !handlers.DecodeStrict(c, &patch) {
		return
	}
	user, err := h.accounts.UpdateUser(c.Request.Context(), id, patch, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /users/:id/role
func (h *AuthHandler) UpdateRole(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "user")
	if !ok {
		return
	}
	var in struct {
		Role string `json:"role"`
	}
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	user, err := h.accounts.UpdateRole(c.Request.Context(), id, in.Role, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// POST /staff
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	var in services.StaffInput
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	staff, err := h.accounts.CreateStaff(c.Request.Context(), in, middleware.ActorFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"staff": staff, "user": staff.User})
}
