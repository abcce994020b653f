package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pizzeria_back_end/internal/models"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db. The connection should be opened with
// TranslateError enabled so unique violations surface as ErrDuplicate.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository { return &UserRepo{db: s.db} }
func (s *GormStore) Addresses() AddressRepository { return &AddressRepo{db: s.db} }
func (s *GormStore) Catalog() CatalogRepository { return &CatalogRepo{db: s.db} }
func (s *GormStore) Orders() OrderRepository { return &OrderRepo{db: s.db} }
func (s *GormStore) Payments() PaymentRepository { return &PaymentRepo{db: s.db} }

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func wrap(err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Wrap(ErrNotFound, msg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Wrap(ErrDuplicate, msg)
	}
	return errors.Wrap(err, msg)
}

func affected(res *gorm.DB, msg string) error {
	if res.Error != nil {
		return wrap(res.Error, msg)
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, msg)
	}
	return nil
}

// UserRepo provides access to users and their customer/staff profiles.
type UserRepo struct {
	db *gorm.DB
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrap(err, "failed to create user")
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "failed to get user by id")
	}
	return &user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrap(err, "failed to get user by email")
	}
	return &user, nil
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"firstname":     user.Firstname,
		"lastname":      user.Lastname,
		"phone":         user.Phone,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
		"updated_at":    time.Now(),
	})
	return affected(res, "failed to update user")
}

func (r *UserRepo) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(customer).Error; err != nil {
		return wrap(err, "failed to create customer")
	}
	return nil
}

func (r *UserRepo) GetCustomerByUserID(ctx context.Context, userID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&customer).Error; err != nil {
		return nil, wrap(err, "failed to get customer by user id")
	}
	return &customer, nil
}

func (r *UserRepo) GetCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Preload("User").First(&customer, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "failed to get customer by id")
	}
	return &customer, nil
}

func (r *UserRepo) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", customer.ID).
		Update("is_verified", customer.IsVerified)
	return affected(res, "failed to update customer")
}

func (r *UserRepo) CreateStaff(ctx context.Context, staff *models.Staff) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(staff).Error; err != nil {
		return wrap(err, "failed to create staff")
	}
	return nil
}

// AddressRepo provides access to delivery addresses.
type AddressRepo struct {
	db *gorm.DB
}

func (r *AddressRepo) Create(ctx context.Context, address *models.Address) error {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return wrap(err, "failed to create address")
	}
	return nil
}

func (r *AddressRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "failed to get address by id")
	}
	return &address, nil
}

func (r *AddressRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).
		Order("created_at ASC").Find(&addresses).Error
	if err != nil {
		return nil, wrap(err, "failed to list addresses")
	}
	return addresses, nil
}

func (r *AddressRepo) Update(ctx context.Context, address *models.Address) error {
	res := r.db.WithContext(ctx).Model(&models.Address{}).Where("id = ?", address.ID).Updates(map[string]any{
		"address_line_1": address.AddressLine1,
		"address_line_2": address.AddressLine2,
		"city":           address.City,
		"postal_code":    address.PostalCode,
		"updated_at":     time.Now(),
	})
	return affected(res, "failed to update address")
}

func (r *AddressRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Address{}, "id = ?", id)
	return affected(res, "failed to delete address")
}

// CatalogRepo provides access to items and categories.
type CatalogRepo struct {
	db *gorm.DB
}

func (r *CatalogRepo) CreateItem(ctx context.Context, item *models.Item, categoryID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(item).Error; err != nil {
		return wrap(err, "failed to create item")
	}
	link := models.ItemCategory{ItemID: item.ID, CategoryID: categoryID}
	if err := db.Create(&link).Error; err != nil {
		return wrap(err, "failed to link item to category")
	}
	return nil
}

func (r *CatalogRepo) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Preload("Categories").First(&item, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "failed to get item by id")
	}
	return &item, nil
}

func (r *CatalogRepo) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := r.db.WithContext(ctx).Preload("Categories").Order("name ASC").Find(&items).Error; err != nil {
		return nil, wrap(err, "failed to list items")
	}
	return items, nil
}

func (r *CatalogRepo) UpdateItem(ctx context.Context, item *models.Item) error {
	res := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", item.ID).Updates(map[string]any{
		"name":        item.Name,
		"description": item.Description,
		"sku":         item.SKU,
		"size":        item.Size,
		"price":       item.Price,
		"image":       item.Image,
		"updated_at":  time.Now(),
	})
	return affected(res, "failed to update item")
}

// DeleteItem removes the item. Order lines and category links referencing it
// are removed by their ON DELETE CASCADE constraints.
func (r *CatalogRepo) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", id)
	return affected(res, "failed to delete item")
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return wrap(err, "failed to create category")
	}
	return nil
}

func (r *CatalogRepo) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, wrap(err, "failed to get category by name")
	}
	return &category, nil
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, wrap(err, "failed to list categories")
	}
	return categories, nil
}

func (r *CatalogRepo) UpdateCategory(ctx context.Context, category *models.Category) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", category.ID).Updates(map[string]any{
		"name":        category.Name,
		"type_of":     category.TypeOf,
		"description": category.Description,
		"image":       category.Image,
		"updated_at":  time.Now(),
	})
	return affected(res, "failed to update category")
}

func (r *CatalogRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	return affected(res, "failed to delete category")
}

// OrderRepo provides access to orders and their lines.
type OrderRepo struct {
	db *gorm.DB
}

func (r *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return wrap(err, "failed to create order")
	}
	return nil
}

func orderItemsByCreation(db *gorm.DB) *gorm.DB {
	return db.Order(`"orderItems".created_at ASC`)
}

func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items", orderItemsByCreation).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, wrap(err, "failed to get order by id")
	}
	return &order, nil
}

func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items", orderItemsByCreation).Where("customer_id = ?", customerID)
	if status != nil {
		q = q.Where("order_status = ?", *status)
	}
	var orders []models.Order
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, wrap(err, "failed to list customer orders")
	}
	return orders, nil
}

func (r *OrderRepo) ListActiveSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND order_status NOT IN ?", since,
			[]models.OrderStatus{models.StatusCancelled, models.StatusDelivered}).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, wrap(err, "failed to list active orders")
	}
	return orders, nil
}

func (r *OrderRepo) Update(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"delivery_type": order.DeliveryType,
		"address_id":    order.AddressID,
		"order_status":  order.OrderStatus,
		"updated_at":    time.Now(),
	})
	return affected(res, "failed to update order")
}

func (r *OrderRepo) AddItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error; err != nil {
		return wrap(err, "failed to add order items")
	}
	return nil
}

func (r *OrderRepo) CountByAddress(ctx context.Context, addressID uuid.UUID) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("address_id = ?", addressID).Count(&n).Error; err != nil {
		return 0, wrap(err, "failed to count orders by address")
	}
	return n, nil
}

// PaymentRepo provides access to recorded payments.
type PaymentRepo struct {
	db *gorm.DB
}

func (r *PaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(payment).Error; err != nil {
		return wrap(err, "failed to create payment")
	}
	return nil
}

func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "failed to get payment by id")
	}
	return &payment, nil
}

func (r *PaymentRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&payments).Error
	if err != nil {
		return nil, wrap(err, "failed to list payments")
	}
	return payments, nil
}

func (r *PaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	res := r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(map[string]any{
		"payment_status": payment.PaymentStatus,
		"updated_at":     time.Now(),
	})
	return affected(res, "failed to update payment")
}
