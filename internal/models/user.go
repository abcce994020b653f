package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"uid"`
	Firstname    string    `gorm:"size:100;not null" json:"firstname"`
	Lastname     string    `gorm:"size:100" json:"lastname"`
	Email        string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Phone        string    `gorm:"size:20;not null;uniqueIndex" json:"phone"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"type:varchar(20);not null;default:customer" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Customer is the ordering profile of a user with the customer role.
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"uid"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	IsVerified bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`

	Addresses []Address `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Orders    []Order   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Customer) TableName() string { return "customers" }

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Staff struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"uid"`
	UserID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User     *User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	JobTitle JobTitle        `gorm:"type:varchar(40);not null" json:"job_title"`
	HireDate time.Time       `gorm:"not null" json:"hire_date"`
	Salary   decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"salary"`
}

func (Staff) TableName() string { return "staffs" }

func (s *Staff) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
