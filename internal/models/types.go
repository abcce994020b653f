package models

import "fmt"

type OrderStatus string

const (
	StatusProcessing        OrderStatus = "processing"
	StatusPreparing         OrderStatus = "preparing"
	StatusPacking           OrderStatus = "packing"
	StatusHandedForDelivery OrderStatus = "handed_for_delivery"
	StatusDelivered         OrderStatus = "delivered"
	StatusCancelled         OrderStatus = "cancelled"
)

// OrderStatuses lists every status in pipeline order.
var OrderStatuses = []OrderStatus{
	StatusProcessing, StatusPreparing, StatusPacking,
	StatusHandedForDelivery, StatusDelivered, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Completed reports whether the order has left the pipeline.
func (s OrderStatus) Completed() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", v)
	}
	return s, nil
}

type DeliveryType string

const (
	DeliveryHome    DeliveryType = "home_delivery"
	DeliveryTakeout DeliveryType = "takeout"
	DeliveryDineIn  DeliveryType = "dine_in"
)

func (d DeliveryType) Valid() bool {
	switch d {
	case DeliveryHome, DeliveryTakeout, DeliveryDineIn:
		return true
	}
	return false
}

func ParseDeliveryType(v string) (DeliveryType, error) {
	d := DeliveryType(v)
	if !d.Valid() {
		return "", fmt.Errorf("unknown delivery type %q", v)
	}
	return d, nil
}

type ItemSize string

const (
	SizeLarge  ItemSize = "large"
	SizeMedium ItemSize = "medium"
	SizeSmall  ItemSize = "small"
)

func (s ItemSize) Valid() bool {
	switch s {
	case SizeLarge, SizeMedium, SizeSmall:
		return true
	}
	return false
}

type FoodType string

const (
	FoodPizza      FoodType = "Pizza"
	FoodAppetizers FoodType = "Appetizers & Sides"
	FoodPasta      FoodType = "Pasta Dishes"
	FoodSalads     FoodType = "Salads"
	FoodBeverages  FoodType = "Beverages"
	FoodDesserts   FoodType = "Desserts"
	FoodSandwiches FoodType = "Sandwiches & Subs"
	FoodCalzones   FoodType = "Calzones & Strombolis"
	FoodOther      FoodType = "Others"
)

var FoodTypes = []FoodType{
	FoodPizza, FoodAppetizers, FoodPasta, FoodSalads, FoodBeverages,
	FoodDesserts, FoodSandwiches, FoodCalzones, FoodOther,
}

func (f FoodType) Valid() bool {
	for _, v := range FoodTypes {
		if f == v {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentUPI        PaymentMethod = "UPI"
	PaymentNEFT       PaymentMethod = "NEFT"
	PaymentCreditCard PaymentMethod = "Credit Card"
	PaymentDebitCard  PaymentMethod = "Debit Card"
	PaymentCash       PaymentMethod = "Cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentUPI, PaymentNEFT, PaymentCreditCard, PaymentDebitCard, PaymentCash:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentCompleted
}

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleManager, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(v string) (Role, error) {
	r := Role(v)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", v)
	}
	return r, nil
}

type JobTitle string

const (
	JobKitchen  JobTitle = "kitchen staff / chef"
	JobDelivery JobTitle = "delivery personnel"
	JobWaiter   JobTitle = "wait staff / server"
	JobManager  JobTitle = "manager"
)

func (j JobTitle) Valid() bool {
	switch j {
	case JobKitchen, JobDelivery, JobWaiter, JobManager:
		return true
	}
	return false
}
