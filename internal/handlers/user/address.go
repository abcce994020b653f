package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

// Addresses is the address book. services.AddressService implements it.
type Addresses interface {
	CreateAddress(ctx context.Context, customerID uuid.UUID, in services.AddressInput) (*models.Address, error)
	ListAddresses(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
	GetAddress(ctx context.Context, id, customerID uuid.UUID) (*models.Address, error)
	UpdateAddress(ctx context.Context, id uuid.UUID, patch services.AddressPatch, customerID uuid.UUID) (*models.Address, error)
	DeleteAddress(ctx context.Context, id, customerID uuid.UUID) error
}

// AddressHandler serves the address book of the calling customer. Routes sit
// behind middleware.RequireVerifiedCustomer.
type AddressHandler struct {
	addresses Addresses
}

func NewAddressHandler(addresses Addresses) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// GET /addresses
func (h *AddressHandler) List(c *gin.Context) {
	list, err := h.addresses.ListAddresses(c.Request.Context(), middleware.CustomerIDFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /addresses
func (h *AddressHandler) Create(c *gin.Context) {
	var in services.AddressInput
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	address, err := h.addresses.CreateAddress(c.Request.Context(), middleware.CustomerIDFrom(c), in)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, address)
}

// GET /addresses/:id
func (h *AddressHandler) Get(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "address")
	if !ok {
		return
	}
	address, err := h.addresses.GetAddress(c.Request.Context(), id, middleware.CustomerIDFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

// PATCH /addresses/:id
func (h *AddressHandler) Update(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "address")
	if !ok {
		return
	}
	var patch services.AddressPatch
	if !handlers.DecodeStrict(c, &patch) {
		return
	}
	address, err := h.addresses.UpdateAddress(c.Request.Context(), id, patch, middleware.CustomerIDFrom(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, address)
}

// DELETE /addresses/:id
func (h *AddressHandler) Delete(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "address")
	if !ok {
		return
	}
	if err := h.addresses.DeleteAddress(c.Request.Context(), id, middleware.CustomerIDFrom(c)); err != nil {
		handlers.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
