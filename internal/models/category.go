package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"uid"`
	Name        string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	TypeOf      FoodType  `gorm:"type:varchar(40);not null;default:Others" json:"type_of"`
	Description string    `gorm:"size:500" json:"description"`
	Image       string    `gorm:"size:500" json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
