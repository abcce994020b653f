package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

// GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GET /categories/:name
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.catalog.GetCategory(c.Request.Context(), c.Param("name"))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var in services.CreateCategoryInput
	if isMultipart(c) {
		in = services.CreateCategoryInput{
			Name:        c.PostForm("name"),
			TypeOf:      models.FoodType(c.PostForm("type_of")),
			Description: c.PostForm("description"),
		}
		img, file, err := formImage(c)
		if err != nil {
			handlers.Fail(c, err)
			return
		}
		if file != nil {
			defer file.Close()
		}
		in.Image = img
	} else if !handlers.DecodeStrict(c, &in) {
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), in)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// PATCH /categories/:name
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var patch services.CategoryPatch
	if !handlers.DecodeStrict(c, &patch) {
		return
	}
	category, err := h.catalog.UpdateCategory(c.Request.Context(), c.Param("name"), patch)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// DELETE /categories/:name
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("name")); err != nil {
		handlers.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
