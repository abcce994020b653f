package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultItemImage is stored when an item is created without an image.
const DefaultItemImage = "https://cksc.com.au/CKSC/media/Images/no-product-image-400x400.png"

type Item struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"uid"`
	Name        string          `gorm:"size:250;not null" json:"name"`
	Description string          `gorm:"size:500;not null" json:"description"`
	SKU         string          `gorm:"column:sku;size:100;not null;uniqueIndex" json:"sku"`
	Size        ItemSize        `gorm:"type:varchar(10);not null;default:medium" json:"size"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Image       string          `gorm:"size:500" json:"image"`
	Categories  []Category      `gorm:"many2many:itemCategories;constraint:OnDelete:CASCADE" json:"categories,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Item) TableName() string { return "items" }

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ItemCategory is the join row between items and categories.
type ItemCategory struct {
	ItemID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (ItemCategory) TableName() string { return "itemCategories" }
