package product

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

// MaxImageSize caps uploaded menu images.
const MaxImageSize = 5 << 20

// Catalog is the menu. services.CatalogService implements it.
type Catalog interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	SearchItems(ctx context.Context, query string) ([]models.Item, error)
	CreateItem(ctx context.Context, in services.CreateItemInput) (*models.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, patch services.ItemPatch) (*models.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error

	GetCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, in services.CreateCategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, name string, patch services.CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, name string) error
}

type CatalogHandler struct {
	catalog Catalog
}

func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formImage returns the optional "image" file of a multipart form. The
// caller closes the returned file.
func formImage(c *gin.Context) (*services.ImageUpload, multipart.File, error) {
	header, err := c.FormFile("image")
	if err == http.ErrMissingFile {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, apperr.Validation("invalid image upload")
	}
	if header.Size > MaxImageSize {
		return nil, nil, apperr.Validation("image must be at most %d MB", MaxImageSize>>20)
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, nil, apperr.Validation("image must be an image file")
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, apperr.Internal(err, "could not read image upload")
	}
	return &services.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	}, file, nil
}

// GET /items
func (h *CatalogHandler) ListItems(c *gin.Context) {
	items, err := h.catalog.ListItems(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /items/search?q=
func (h *CatalogHandler) SearchItems(c *gin.Context) {
	items, err := h.catalog.SearchItems(c.Request.Context(), c.Query("q"))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "items": items, "total": len(items)})
}

// GET /items/:id
func (h *CatalogHandler) GetItem(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "item")
	if !ok {
		return
	}
	item, err := h.catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// POST /items accepts JSON or a multipart form with an optional image.
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var in services.CreateItemInput
	if isMultipart(c) {
		price, err := decimal.NewFromString(c.PostForm("price"))
		if err != nil {
			handlers.Fail(c, apperr.Validation("price must be a decimal number"))
			return
		}
		in = services.CreateItemInput{
			Name:        c.PostForm("name"),
			Description: c.PostForm("description"),
			SKU:         c.PostForm("sku"),
			Size:        models.ItemSize(c.PostForm("size")),
			Price:       price,
			Category:    c.PostForm("category"),
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

	item, err := h.catalog.CreateItem(c.Request.Context(), in)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	log.Info().Str("item_id", item.ID.String()).Str("sku", item.SKU).Msg("Menu item created")
	c.JSON(http.StatusCreated, item)
}

// PATCH /items/:id
func (h *CatalogHandler) UpdateItem(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "item")
	if !ok {
		return
	}
	var patch services.ItemPatch
	if !handlers.DecodeStrict(c, &patch) {
		return
	}
	item, err := h.catalog.UpdateItem(c.Request.Context(), id, patch)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DELETE /items/:id
func (h *CatalogHandler) DeleteItem(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id", "item")
	if !ok {
		return
	}
	if err := h.catalog.DeleteItem(c.Request.Context(), id); err != nil {
		handlers.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
