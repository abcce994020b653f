package services

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pizzeria_back_end/internal/events"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/repository"
)

// memStore is an in-memory repository.Store. WithinTx restores the previous
// state when the callback fails.
type memStore struct {
	mu sync.Mutex

	users      map[uuid.UUID]models.User
	customers  map[uuid.UUID]models.Customer
	staff      map[uuid.UUID]models.Staff
	addresses  map[uuid.UUID]models.Address
	items      map[uuid.UUID]models.Item
	categories map[uuid.UUID]models.Category
	links      map[uuid.UUID][]uuid.UUID // item -> categories
	orders     map[uuid.UUID]models.Order
	lines      []models.OrderItem
	payments   map[uuid.UUID]models.Payment

	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[uuid.UUID]models.User{},
		customers:  map[uuid.UUID]models.Customer{},
		staff:      map[uuid.UUID]models.Staff{},
		addresses:  map[uuid.UUID]models.Address{},
		items:      map[uuid.UUID]models.Item{},
		categories: map[uuid.UUID]models.Category{},
		links:      map[uuid.UUID][]uuid.UUID{},
		orders:     map[uuid.UUID]models.Order{},
		payments:   map[uuid.UUID]models.Payment{},
	}
}

func (s *memStore) Users() repository.UserRepository { return memUsers{s} }
func (s *memStore) Addresses() repository.AddressRepository { return memAddresses{s} }
func (s *memStore) Catalog() repository.CatalogRepository { return memCatalog{s} }
func (s *memStore) Orders() repository.OrderRepository { return memOrders{s} }
func (s *memStore) Payments() repository.PaymentRepository { return memPayments{s} }

func (s *memStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	snap := &memStore{
		users:      maps.Clone(s.users),
		customers:  maps.Clone(s.customers),
		staff:      maps.Clone(s.staff),
		addresses:  maps.Clone(s.addresses),
		items:      maps.Clone(s.items),
		categories: maps.Clone(s.categories),
		links:      maps.Clone(s.links),
		orders:     maps.Clone(s.orders),
		lines:      slices.Clone(s.lines),
		payments:   maps.Clone(s.payments),
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.users, s.customers, s.staff = snap.users, snap.customers, snap.staff
		s.addresses, s.items, s.categories = snap.addresses, snap.items, snap.categories
		s.links, s.orders, s.lines, s.payments = snap.links, snap.orders, snap.lines, snap.payments
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) fail(op string) error {
	if s.failOn == op {
		return errors.Errorf("injected failure in %s", op)
	}
	return nil
}

func notFound(what string) error { return errors.Wrap(repository.ErrNotFound, what) }
func duplicate(what string) error { return errors.Wrap(repository.ErrDuplicate, what) }

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email || other.Phone == u.Phone {
			return duplicate("user")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return notFound("user")
	}
	for id, other := range r.s.users {
		if id != u.ID && other.Phone == u.Phone {
			return duplicate("user")
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) CreateCustomer(_ context.Context, c *models.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.customers {
		if other.UserID == c.UserID {
			return duplicate("customer")
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r memUsers) GetCustomerByUserID(_ context.Context, userID uuid.UUID) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.customers {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, notFound("customer")
}

func (r memUsers) GetCustomerByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, notFound("customer")
	}
	if u, ok := r.s.users[c.UserID]; ok {
		c.User = &u
	}
	return &c, nil
}

func (r memUsers) UpdateCustomer(_ context.Context, c *models.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[c.ID]; !ok {
		return notFound("customer")
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r memUsers) CreateStaff(_ context.Context, st *models.Staff) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CreateStaff"); err != nil {
		return err
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	r.s.staff[st.ID] = *st
	return nil
}

type memAddresses struct{ s *memStore }

func (r memAddresses) Create(_ context.Context, a *models.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.s.addresses[a.ID] = *a
	return nil
}

func (r memAddresses) GetByID(_ context.Context, id uuid.UUID) (*models.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addresses[id]
	if !ok {
		return nil, notFound("address")
	}
	return &a, nil
}

func (r memAddresses) ListByCustomer(_ context.Context, customerID uuid.UUID) ([]models.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Address
	for _, a := range r.s.addresses {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memAddresses) Update(_ context.Context, a *models.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.addresses[a.ID]; !ok {
		return notFound("address")
	}
	r.s.addresses[a.ID] = *a
	return nil
}

func (r memAddresses) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.addresses[id]; !ok {
		return notFound("address")
	}
	delete(r.s.addresses, id)
	return nil
}

type memCatalog struct{ s *memStore }

func (r memCatalog) CreateItem(_ context.Context, item *models.Item, categoryID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.items {
		if other.SKU == item.SKU {
			return duplicate("item")
		}
	}
	if _, ok := r.s.categories[categoryID]; !ok {
		return errors.New("foreign key violation")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	stored := *item
	stored.Categories = nil
	r.s.items[item.ID] = stored
	r.s.links[item.ID] = []uuid.UUID{categoryID}
	return nil
}

func (r memCatalog) GetItem(_ context.Context, id uuid.UUID) (*models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, notFound("item")
	}
	for _, cid := range r.s.links[id] {
		if c, ok := r.s.categories[cid]; ok {
			item.Categories = append(item.Categories, c)
		}
	}
	return &item, nil
}

func (r memCatalog) ListItems(_ context.Context) ([]models.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Item, 0, len(r.s.items))
	for _, item := range r.s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCatalog) UpdateItem(_ context.Context, item *models.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[item.ID]; !ok {
		return notFound("item")
	}
	for id, other := range r.s.items {
		if id != item.ID && other.SKU == item.SKU {
			return duplicate("item")
		}
	}
	stored := *item
	stored.Categories = nil
	r.s.items[item.ID] = stored
	return nil
}

func (r memCatalog) DeleteItem(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return notFound("item")
	}
	delete(r.s.items, id)
	delete(r.s.links, id)
	kept := r.s.lines[:0:0]
	for _, l := range r.s.lines {
		if l.ItemID != id {
			kept = append(kept, l)
		}
	}
	r.s.lines = kept
	return nil
}

func (r memCatalog) CreateCategory(_ context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.categories {
		if other.Name == c.Name {
			return duplicate("category")
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.s.categories[c.ID] = *c
	return nil
}

func (r memCatalog) GetCategoryByName(_ context.Context, name string) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, notFound("category")
}

func (r memCatalog) ListCategories(_ context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCatalog) UpdateCategory(_ context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[c.ID]; !ok {
		return notFound("category")
	}
	for id, other := range r.s.categories {
		if id != c.ID && other.Name == c.Name {
			return duplicate("category")
		}
	}
	r.s.categories[c.ID] = *c
	return nil
}

func (r memCatalog) DeleteCategory(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return notFound("category")
	}
	delete(r.s.categories, id)
	for item, cats := range r.s.links {
		r.s.links[item] = slices.DeleteFunc(slices.Clone(cats), func(c uuid.UUID) bool { return c == id })
	}
	return nil
}

type memOrders struct{ s *memStore }

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	stored := *o
	stored.Items = nil
	r.s.orders[o.ID] = stored
	return nil
}

func (r memOrders) withItems(o models.Order) models.Order {
	o.Items = nil
	for _, l := range r.s.lines {
		if l.OrderID == o.ID {
			o.Items = append(o.Items, l)
		}
	}
	return o
}

func (r memOrders) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, notFound("order")
	}
	o = r.withItems(o)
	return &o, nil
}

func (r memOrders) ListByCustomer(_ context.Context, customerID uuid.UUID, status *models.OrderStatus) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.s.orders {
		if o.CustomerID == customerID && (status == nil || o.OrderStatus == *status) {
			out = append(out, r.withItems(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memOrders) ListActiveSince(_ context.Context, since time.Time) ([]models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Order{}
	for _, o := range r.s.orders {
		if !o.CreatedAt.Before(since) && !o.OrderStatus.Completed() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memOrders) Update(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("UpdateOrder"); err != nil {
		return err
	}
	stored, ok := r.s.orders[o.ID]
	if !ok {
		return notFound("order")
	}
	stored.DeliveryType = o.DeliveryType
	stored.AddressID = o.AddressID
	stored.OrderStatus = o.OrderStatus
	stored.UpdatedAt = time.Now()
	r.s.orders[o.ID] = stored
	return nil
}

func (r memOrders) AddItems(_ context.Context, items []models.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("AddItems"); err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		r.s.lines = append(r.s.lines, items[i])
	}
	return nil
}

func (r memOrders) CountByAddress(_ context.Context, addressID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, o := range r.s.orders {
		if o.AddressID != nil && *o.AddressID == addressID {
			n++
		}
	}
	return n, nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Create(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.payments[p.ID] = *p
	return nil
}

func (r memPayments) GetByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, notFound("payment")
	}
	return &p, nil
}

func (r memPayments) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Payment{}
	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memPayments) Update(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[p.ID]; !ok {
		return notFound("payment")
	}
	r.s.payments[p.ID] = *p
	return nil
}

// fixture helpers

func (s *memStore) addUser(role models.Role, email string) models.User {
	u := models.User{ID: uuid.New(), Firstname: "Test", Email: email, Phone: uuid.NewString()[:10], Role: role}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addCustomer(email string, verified bool) (models.User, models.Customer) {
	u := s.addUser(models.RoleCustomer, email)
	c := models.Customer{ID: uuid.New(), UserID: u.ID, IsVerified: verified}
	s.customers[c.ID] = c
	return u, c
}

func (s *memStore) addAddress(customerID uuid.UUID) models.Address {
	a := models.Address{ID: uuid.New(), CustomerID: customerID, AddressLine1: "24 Gandhi Nagar", City: "Mumbai", PostalCode: "400001"}
	s.addresses[a.ID] = a
	return a
}

func (s *memStore) addItem(name string, price string) models.Item {
	item := models.Item{ID: uuid.New(), Name: name, SKU: "SKU-" + name, Size: models.SizeMedium, Price: mustDecimal(price)}
	s.items[item.ID] = item
	return item
}

func (s *memStore) addOrder(customerID uuid.UUID, status models.OrderStatus, createdAt time.Time) models.Order {
	o := models.Order{ID: uuid.New(), CustomerID: customerID, DeliveryType: models.DeliveryTakeout, OrderStatus: status, CreatedAt: createdAt}
	s.orders[o.ID] = o
	return o
}

func actorOf(u models.User) Actor {
	return Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

type eventLog struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (l *eventLog) Publish(_ context.Context, e events.OrderEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []events.Type {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.Type, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func mustDecimal(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
