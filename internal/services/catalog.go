package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/repository"
)

// ItemCache is a read-through cache of menu items. Get returns nil on a miss.
type ItemCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Set(ctx context.Context, item *models.Item) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

type MenuIndex interface {
	IndexItem(ctx context.Context, item *models.Item) error
	RemoveItem(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string) ([]uuid.UUID, error)
}

type ImageStore interface {
	Upload(ctx context.Context, prefix string, img ImageUpload) (string, error)
}

type CreateItemInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=250"`
	Description string          `json:"description" validate:"required,max=500"`
	SKU         string          `json:"sku" validate:"required,max=100"`
	Size        models.ItemSize `json:"size"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required"`
	Image       *ImageUpload    `json:"-"`
}

type ItemPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=250"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	SKU         *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Size        *models.ItemSize `json:"size"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image" validate:"omitempty,url"`
}

type CreateCategoryInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=50"`
	TypeOf      models.FoodType `json:"type_of"`
	Description string          `json:"description" validate:"max=500"`
	Image       *ImageUpload    `json:"-"`
}

type CategoryPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=50"`
	TypeOf      *models.FoodType `json:"type_of"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	Image       *string          `json:"image" validate:"omitempty,url"`
}

// CatalogService manages the menu. The cache, index and image store are
// optional.
type CatalogService struct {
	store  repository.Store
	cache  ItemCache
	index  MenuIndex
	images ImageStore
}

func NewCatalogService(store repository.Store, cache ItemCache, index MenuIndex, images ImageStore) *CatalogService {
	return &CatalogService{store: store, cache: cache, index: index, images: images}
}

func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.cache != nil {
		item, err := s.cache.Get(ctx, id)
		warnSideEffect(err, "item cache read failed")
		if item != nil {
			return item, nil
		}
	}
	item, err := s.store.Catalog().GetItem(ctx, id)
	if err != nil {
		return nil, storeErr(err, "item")
	}
	if s.cache != nil {
		warnSideEffect(s.cache.Set(ctx, item), "item cache write failed")
	}
	return item, nil
}

func (s *CatalogService) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.store.Catalog().ListItems(ctx)
	if err != nil {
		return nil, storeErr(err, "items")
	}
	return items, nil
}

// SearchItems matches items by name, description, category or sku. Without
// a search index it falls back to a substring match on the name.
func (s *CatalogService) SearchItems(ctx context.Context, query string) ([]models.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("search query is required")
	}

	if s.index == nil {
		items, err := s.ListItems(ctx)
		if err != nil {
			return nil, err
		}
		needle := strings.ToLower(query)
		matched := make([]models.Item, 0)
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Name), needle) {
				matched = append(matched, item)
			}
		}
		return matched, nil
	}

	ids, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, apperr.Internal(err, "search is unavailable")
	}
	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.GetItem(ctx, id)
		if isNotFound(err) {
			// Stale index entry.
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (s *CatalogService) uploadImage(ctx context.Context, prefix string, img *ImageUpload, fallback string) string {
	if img == nil {
		return fallback
	}
	if s.images == nil {
		log.Warn().Str("file", img.Filename).Msg("Image storage not configured, using placeholder")
		return fallback
	}
	url, err := s.images.Upload(ctx, prefix, *img)
	if err != nil {
		log.Error().Err(err).Str("file", img.Filename).Msg("Image upload failed, using placeholder")
		return fallback
	}
	return url
}

func (s *CatalogService) reindex(ctx context.Context, item *models.Item) {
	if s.index != nil {
		warnSideEffect(s.index.IndexItem(ctx, item), "failed to index item")
	}
}

func (s *CatalogService) forget(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		warnSideEffect(s.cache.Invalidate(ctx, id), "failed to invalidate cached item")
	}
}

func (s *CatalogService) CreateItem(ctx context.Context, in CreateItemInput) (*models.Item, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.Size == "" {
		in.Size = models.SizeMedium
	}
	if !in.Size.Valid() {
		return nil, apperr.Validation("unknown size %q", in.Size)
	}
	if err := validatePrice("price", in.Price); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &models.Item{
		Name:        in.Name,
		Description: in.Description,
		SKU:         in.SKU,
		Size:        in.Size,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		category, err := tx.Catalog().GetCategoryByName(ctx, in.Category)
		if err != nil {
			return storeErr(err, "category "+in.Category)
		}
		item.Image = s.uploadImage(ctx, "items", in.Image, models.DefaultItemImage)
		if err := tx.Catalog().CreateItem(ctx, item, category.ID); err != nil {
			return storeErr(err, "item with sku "+in.SKU)
		}
		item.Categories = []models.Category{*category}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, item)
	return item, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, id uuid.UUID, patch ItemPatch) (*models.Item, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if patch.Size != nil && !patch.Size.Valid() {
		return nil, apperr.Validation("unknown size %q", *patch.Size)
	}
	if patch.Price != nil {
		if err := validatePrice("price", *patch.Price); err != nil {
			return nil, err
		}
	}

	var item *models.Item
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if item, err = tx.Catalog().GetItem(ctx, id); err != nil {
			return storeErr(err, "item")
		}
		if patch.Name != nil {
			item.Name = *patch.Name
		}
		if patch.Description != nil {
			item.Description = *patch.Description
		}
		if patch.SKU != nil {
			item.SKU = *patch.SKU
		}
		if patch.Size != nil {
			item.Size = *patch.Size
		}
		if patch.Price != nil {
			item.Price = *patch.Price
		}
		if patch.Image != nil {
			item.Image = *patch.Image
		}
		item.UpdatedAt = time.Now()
		return storeErr(tx.Catalog().UpdateItem(ctx, item), "item with sku "+item.SKU)
	})
	if err != nil {
		return nil, err
	}

	s.forget(ctx, id)
	s.reindex(ctx, item)
	return item, nil
}

// DeleteItem removes the item together with the order lines that use it.
func (s *CatalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Catalog().DeleteItem(ctx, id); err != nil {
		return storeErr(err, "item")
	}
	s.forget(ctx, id)
	if s.index != nil {
		warnSideEffect(s.index.RemoveItem(ctx, id), "failed to remove item from index")
	}
	return nil
}

func (s *CatalogService) GetCategory(ctx context.Context, name string) (*models.Category, error) {
	category, err := s.store.Catalog().GetCategoryByName(ctx, name)
	if err != nil {
		return nil, storeErr(err, "category "+name)
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.Catalog().ListCategories(ctx)
	if err != nil {
		return nil, storeErr(err, "categories")
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.TypeOf == "" {
		in.TypeOf = models.FoodOther
	}
	if !in.TypeOf.Valid() {
		return nil, apperr.Validation("unknown category type %q", in.TypeOf)
	}

	now := time.Now()
	category := &models.Category{
		Name:        in.Name,
		TypeOf:      in.TypeOf,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	category.Image = s.uploadImage(ctx, "categories", in.Image, models.DefaultItemImage)
	if err := s.store.Catalog().CreateCategory(ctx, category); err != nil {
		return nil, storeErr(err, "category "+in.Name)
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, name string, patch CategoryPatch) (*models.Category, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}
	if patch.TypeOf != nil && !patch.TypeOf.Valid() {
		return nil, apperr.Validation("unknown category type %q", *patch.TypeOf)
	}

	var category *models.Category
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if category, err = tx.Catalog().GetCategoryByName(ctx, name); err != nil {
			return storeErr(err, "category "+name)
		}
		if patch.Name != nil {
			category.Name = *patch.Name
		}
		if patch.TypeOf != nil {
			category.TypeOf = *patch.TypeOf
		}
		if patch.Description != nil {
			category.Description = *patch.Description
		}
		if patch.Image != nil {
			category.Image = *patch.Image
		}
		category.UpdatedAt = time.Now()
		return storeErr(tx.Catalog().UpdateCategory(ctx, category), "category "+category.Name)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, name string) error {
	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		category, err := tx.Catalog().GetCategoryByName(ctx, name)
		if err != nil {
			return storeErr(err, "category "+name)
		}
		return storeErr(tx.Catalog().DeleteCategory(ctx, category.ID), "category "+name)
	})
}
