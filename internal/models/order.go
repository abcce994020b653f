package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"uid"`
	CustomerID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"customer_id"`
	DeliveryType DeliveryType `gorm:"type:varchar(20);not null;default:home_delivery" json:"delivery_type"`
	AddressID    *uuid.UUID   `gorm:"type:uuid" json:"address_id"`
	Address      *Address     `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	OrderStatus  OrderStatus  `gorm:"type:varchar(30);not null;default:processing;index" json:"order_status"`
	Items        []OrderItem  `gorm:"constraint:OnDelete:CASCADE" json:"order_items"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is one priced line of an order. PriceAtOrderTime is frozen when
// the line is attached and never follows later catalog changes.
type OrderItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"uid"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item             *Item           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Quantity         int             `gorm:"not null;default:1" json:"quantity"`
	PriceAtOrderTime decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_at_order_time"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string { return "orderItems" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// OrderPatch lists the only fields staff may change on an order.
type OrderPatch struct {
	DeliveryType *DeliveryType `json:"delivery_type"`
	AddressID    OptionalUUID  `json:"address_id"`
	OrderStatus  *OrderStatus  `json:"order_status"`
}

// OptionalUUID distinguishes an absent JSON field from an explicit null.
type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// NullUUID returns an OptionalUUID that explicitly clears the field.
func NullUUID() OptionalUUID { return OptionalUUID{Set: true} }

// SomeUUID returns an OptionalUUID set to id.
func SomeUUID(id uuid.UUID) OptionalUUID { return OptionalUUID{Set: true, Value: &id} }
