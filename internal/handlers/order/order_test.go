package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/auth"
	"pizzeria_back_end/internal/events"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockOrders struct {
	mock.Mock
}

func (m *mockOrders) CreateOrder(ctx context.Context, customerID uuid.UUID, in services.CreateOrderInput) (*models.Order, error) {
	args := m.Called(ctx, customerID, in)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrders) AttachItems(ctx context.Context, orderID uuid.UUID, lines []services.LineInput, actor services.Actor) ([]models.OrderItem, error) {
	args := m.Called(ctx, orderID, lines, actor)
	items, _ := args.Get(0).([]models.OrderItem)
	return items, args.Error(1)
}

func (m *mockOrders) GetOrder(ctx context.Context, orderID uuid.UUID, actor services.Actor) (*models.Order, error) {
	args := m.Called(ctx, orderID, actor)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrders) ListOrders(ctx context.Context, customerID uuid.UUID, filter string) ([]models.Order, error) {
	args := m.Called(ctx, customerID, filter)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrders) ListStaleOrders(ctx context.Context, olderThan time.Duration) ([]models.Order, error) {
	args := m.Called(ctx, olderThan)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrders) CancelOrder(ctx context.Context, orderID uuid.UUID, actor services.Actor) (*models.Order, error) {
	args := m.Called(ctx, orderID, actor)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrders) UpdateOrder(ctx context.Context, orderID uuid.UUID, patch models.OrderPatch, actor services.Actor) (*models.Order, error) {
	args := m.Called(ctx, orderID, patch, actor)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

type nopFeed struct{}

func (nopFeed) Subscribe(context.Context, uuid.UUID) (<-chan events.OrderEvent, func() error) {
	ch := make(chan events.OrderEvent)
	return ch, func() error { return nil }
}

// as plays the part of AuthRequired and RequireVerifiedCustomer.
func as(p *auth.Principal, customerID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.KeyPrincipal, p)
		c.Set(middleware.KeyRole, string(p.Role))
		if customerID != uuid.Nil {
			c.Set(middleware.KeyCustomerID, customerID)
		}
		c.Next()
	}
}

func newRouter(orders Orders, p *auth.Principal, customerID uuid.UUID) *gin.Engine {
	h := NewOrderHandler(orders, nopFeed{})
	r := gin.New()
	g := r.Group("/orders", as(p, customerID))
	g.POST("", h.Create)
	g.GET("/status/:status", h.ListMine)
	g.GET("/stale", h.ListStale)
	g.GET("/:id", h.Get)
	g.POST("/:id/items", h.AttachItems)
	g.PATCH("/:id/cancel", h.Cancel)
	g.PATCH("/:id", h.Update)
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func customer() (*auth.Principal, services.Actor) {
	p := &auth.Principal{UserID: uuid.New(), Email: "c@example.com", Role: models.RoleCustomer}
	return p, services.Actor{UserID: p.UserID, Email: p.Email, Role: p.Role}
}

func TestCreateOrder(t *testing.T) {
	p, _ := customer()
	customerID := uuid.New()
	addressID := uuid.New()

	orders := new(mockOrders)
	in := services.CreateOrderInput{DeliveryType: models.DeliveryHome, AddressID: &addressID}
	orders.On("CreateOrder", mock.Anything, customerID, in).
		Return(&models.Order{ID: uuid.New(), CustomerID: customerID, DeliveryType: models.DeliveryHome, AddressID: &addressID, OrderStatus: models.StatusProcessing}, nil).
		Once()
	r := newRouter(orders, p, customerID)

	w := send(r, http.MethodPost, "/orders", `{"delivery_type":"home_delivery","address_id":"`+addressID.String()+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var got models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.StatusProcessing, got.OrderStatus)
	assert.Equal(t, addressID, *got.AddressID)
	orders.AssertExpectations(t)
}

func TestCreateOrderRejectsMalformedBodies(t *testing.T) {
	p, _ := customer()
	orders := new(mockOrders)
	r := newRouter(orders, p, uuid.New())

	for name, body := range map[string]string{
		"not json":      `{"delivery_type":`,
		"unknown field": `{"delivery_type":"takeout","order_status":"delivered"}`,
		"trailing data": `{"delivery_type":"takeout"} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := send(r, http.MethodPost, "/orders", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, string(apperr.KindValidation), errorCode(t, w))
		})
	}
	orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrderValidationError(t *testing.T) {
	p, _ := customer()
	customerID := uuid.New()
	orders := new(mockOrders)
	orders.On("CreateOrder", mock.Anything, customerID, services.CreateOrderInput{DeliveryType: models.DeliveryHome}).
		Return(nil, apperr.Validation("address_id is required for home delivery"))
	r := newRouter(orders, p, customerID)

	w := send(r, http.MethodPost, "/orders", `{"delivery_type":"home_delivery"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperr.KindValidation), errorCode(t, w))
}

func TestAttachItems(t *testing.T) {
	p, actor := customer()
	orderID := uuid.New()
	pizza, cola := uuid.New(), uuid.New()
	lines := []services.LineInput{{ItemID: pizza, Quantity: 2}, {ItemID: cola, Quantity: 1}}

	orders := new(mockOrders)
	orders.On("AttachItems", mock.Anything, orderID, lines, actor).Return([]models.OrderItem{
		{ID: uuid.New(), OrderID: orderID, ItemID: pizza, Quantity: 2, PriceAtOrderTime: decimal.RequireFromString("20.00")},
		{ID: uuid.New(), OrderID: orderID, ItemID: cola, Quantity: 1, PriceAtOrderTime: decimal.RequireFromString("5.00")},
	}, nil).Once()
	r := newRouter(orders, p, uuid.New())

	body := `{"items":[{"item_id":"` + pizza.String() + `","quantity":2},{"item_id":"` + cola.String() + `","quantity":1}]}`
	w := send(r, http.MethodPost, "/orders/"+orderID.String()+"/items", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got struct {
		OrderID    uuid.UUID          `json:"order_id"`
		OrderItems []models.OrderItem `json:"order_items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, orderID, got.OrderID)
	require.Len(t, got.OrderItems, 2)
	assert.True(t, got.OrderItems[0].PriceAtOrderTime.Equal(decimal.RequireFromString("20")))
	orders.AssertExpectations(t)
}

func TestMalformedOrderIDIsNotFound(t *testing.T) {
	p, _ := customer()
	orders := new(mockOrders)
	r := newRouter(orders, p, uuid.New())

	w := send(r, http.MethodGet, "/orders/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(apperr.KindNotFound), errorCode(t, w))

	w = send(r, http.MethodPost, "/orders/42/items", `{"items":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	orders.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrderOfAnotherCustomer(t *testing.T) {
	p, actor := customer()
	orderID := uuid.New()
	orders := new(mockOrders)
	orders.On("GetOrder", mock.Anything, orderID, actor).Return(nil, apperr.NotFound("order not found"))
	r := newRouter(orders, p, uuid.New())

	w := send(r, http.MethodGet, "/orders/"+orderID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListMine(t *testing.T) {
	p, _ := customer()
	customerID := uuid.New()
	orders := new(mockOrders)
	orders.On("ListOrders", mock.Anything, customerID, "all").
		Return([]models.Order{{ID: uuid.New()}, {ID: uuid.New()}}, nil)
	orders.On("ListOrders", mock.Anything, customerID, "lost").
		Return(nil, apperr.Validation("unknown order status %q", "lost"))
	r := newRouter(orders, p, customerID)

	w := send(r, http.MethodGet, "/orders/status/all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	w = send(r, http.MethodGet, "/orders/status/lost", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListStale(t *testing.T) {
	p := &auth.Principal{UserID: uuid.New(), Role: models.RoleStaff}
	orders := new(mockOrders)
	orders.On("ListStaleOrders", mock.Anything, 30*time.Minute).Return([]models.Order{{ID: uuid.New()}}, nil).Once()
	orders.On("ListStaleOrders", mock.Anything, time.Duration(0)).Return([]models.Order{}, nil).Once()
	r := newRouter(orders, p, uuid.Nil)

	w := send(r, http.MethodGet, "/orders/stale?minutes=30", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = send(r, http.MethodGet, "/orders/stale", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodGet, "/orders/stale?minutes=soon", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = send(r, http.MethodGet, "/orders/stale?minutes=-5", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	orders.AssertExpectations(t)
}

func TestCancelForbidden(t *testing.T) {
	p, actor := customer()
	orderID := uuid.New()
	orders := new(mockOrders)
	orders.On("CancelOrder", mock.Anything, orderID, actor).Return(nil, apperr.Forbidden("you may only cancel your own orders"))
	r := newRouter(orders, p, uuid.New())

	w := send(r, http.MethodPatch, "/orders/"+orderID.String()+"/cancel", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(apperr.KindForbidden), errorCode(t, w))
}

func TestUpdateDistinguishesNullAddress(t *testing.T) {
	p := &auth.Principal{UserID: uuid.New(), Role: models.RoleManager}
	actor := services.Actor{UserID: p.UserID, Role: p.Role}
	orderID := uuid.New()

	orders := new(mockOrders)
	orders.On("UpdateOrder", mock.Anything, orderID, mock.MatchedBy(func(patch models.OrderPatch) bool {
		return patch.AddressID.Set && patch.AddressID.Value == nil && patch.OrderStatus == nil
	}), actor).Return(nil, apperr.Validation("home delivery requires an address")).Once()
	orders.On("UpdateOrder", mock.Anything, orderID, mock.MatchedBy(func(patch models.OrderPatch) bool {
		return !patch.AddressID.Set && patch.OrderStatus != nil && *patch.OrderStatus == models.StatusPreparing
	}), actor).Return(&models.Order{ID: orderID, OrderStatus: models.StatusPreparing}, nil).Once()
	r := newRouter(orders, p, uuid.Nil)

	w := send(r, http.MethodPatch, "/orders/"+orderID.String(), `{"address_id":null}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = send(r, http.MethodPatch, "/orders/"+orderID.String(), `{"order_status":"preparing"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"order_status":"preparing"`)

	w = send(r, http.MethodPatch, "/orders/"+orderID.String(), `{"customer_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	orders.AssertExpectations(t)
}
