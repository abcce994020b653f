package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Address struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"uid"`
	CustomerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	AddressLine1 string    `gorm:"column:address_line_1;size:250;not null" json:"address_line_1"`
	AddressLine2 *string   `gorm:"column:address_line_2;size:250" json:"address_line_2"`
	City         string    `gorm:"size:100" json:"city"`
	PostalCode   string    `gorm:"size:100" json:"postal_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Address) TableName() string { return "delivery_addresses" }

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
