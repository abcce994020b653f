// Package repository is the relational persistence layer. Every repository
// is reachable from a Store, and WithinTx hands the callback a Store bound to
// a single transaction.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pizzeria_back_end/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error)
	// GetCustomerByID loads the customer with its user.
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error

	CreateStaff(ctx context.Context, staff *models.Staff) error
}

type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CatalogRepository interface {
	// CreateItem inserts the item and links it to categoryID.
	CreateItem(ctx context.Context, item *models.Item, categoryID uuid.UUID) error
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error

	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	// GetByID loads the order with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// ListByCustomer returns the customer's orders, newest first. A nil status
	// returns every order.
	ListByCustomer(ctx context.Context, customerID uuid.UUID, status *models.OrderStatus) ([]models.Order, error)
	// ListActiveSince returns orders created at or after since that are
	// neither delivered nor cancelled.
	ListActiveSince(ctx context.Context, since time.Time) ([]models.Order, error)
	// Update writes the mutable columns of the order.
	Update(ctx context.Context, order *models.Order) error
	AddItems(ctx context.Context, items []models.OrderItem) error
	CountByAddress(ctx context.Context, addressID uuid.UUID) (int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

// Store groups the repositories over one connection or transaction.
type Store interface {
	Users() UserRepository
	Addresses() AddressRepository
	Catalog() CatalogRepository
	Orders() OrderRepository
	Payments() PaymentRepository

	// WithinTx runs fn in a transaction. The transaction is rolled back when
	// fn returns an error or panics.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
