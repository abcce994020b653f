package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/auth"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	args := m.Called(ctx, email, password)
	pair, _ := args.Get(0).(*services.TokenPair)
	return pair, args.Error(1)
}

func (m *mockAccounts) Logout(ctx context.Context, p *auth.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockAccounts) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *mockAccounts) Verify(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAccounts) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAccounts) ResetPassword(ctx context.Context, token, password, confirm string) error {
	return m.Called(ctx, token, password, confirm).Error(0)
}

func (m *mockAccounts) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAccounts) UpdateUser(ctx context.Context, targetID uuid.UUID, patch services.UserPatch, actor services.Actor) (*models.User, error) {
	args := m.Called(ctx, targetID, patch, actor)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAccounts) UpdateRole(ctx context.Context, targetID uuid.UUID, role string, actor services.Actor) (*models.User, error) {
	args := m.Called(ctx, targetID, role, actor)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAccounts) CreateStaff(ctx context.Context, in services.StaffInput, actor services.Actor) (*models.Staff, error) {
	args := m.Called(ctx, in, actor)
	staff, _ := args.Get(0).(*models.Staff)
	return staff, args.Error(1)
}

// signedIn stands in for AuthRequired; a nil principal leaves the request
// anonymous.
func signedIn(p *auth.Principal, customerID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.KeyPrincipal, p)
			c.Set(middleware.KeyRole, string(p.Role))
		}
		if customerID != uuid.Nil {
			c.Set(middleware.KeyCustomerID, customerID)
		}
		c.Next()
	}
}

func authRouter(accounts Accounts, p *auth.Principal) *gin.Engine {
	h := NewAuthHandler(accounts)
	r := gin.New()
	r.Use(signedIn(p, uuid.Nil))
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/auth/verify/:token", h.Verify)
	r.POST("/auth/password-reset", h.RequestPasswordReset)
	r.POST("/auth/password-reset/:token", h.ResetPassword)
	r.GET("/auth/me", h.Me)
	r.PATCH("/users/:id", h.UpdateUser)
	r.PATCH("/users/:id/role", h.UpdateRole)
	r.POST("/staff", h.CreateStaff)
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
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestSignup(t *testing.T) {
	accounts := new(mockAccounts)
	in := services.RegisterInput{Firstname: "Asha", Lastname: "Rao", Email: "asha@example.com", Phone: "9876543210", Password: "Secret@123"}
	accounts.On("Register", mock.Anything, in).
		Return(&models.User{ID: uuid.New(), Firstname: "Asha", Email: "asha@example.com", PasswordHash: "argon2id$..."}, nil).Once()
	accounts.On("Register", mock.Anything, mock.MatchedBy(func(in services.RegisterInput) bool { return in.Email == "taken@example.com" })).
		Return(nil, apperr.Conflict("email already registered"))
	r := authRouter(accounts, nil)

	w := send(r, http.MethodPost, "/auth/signup",
		`{"firstname":"Asha","lastname":"Rao","email":"asha@example.com","phone":"9876543210","password":"Secret@123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "argon2id", "password hash must never be serialized")

	w = send(r, http.MethodPost, "/auth/signup", `{"email":"taken@example.com"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(r, http.MethodPost, "/auth/signup", `{"email":"x@example.com","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	accounts.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	accounts := new(mockAccounts)
	accounts.On("Login", mock.Anything, "asha@example.com", "Secret@123").
		Return(&services.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil)
	accounts.On("Login", mock.Anything, "asha@example.com", "wrong").
		Return(nil, apperr.Unauthorized("invalid credentials"))
	r := authRouter(accounts, nil)

	w := send(r, http.MethodPost, "/auth/login", `{"email":"asha@example.com","password":"Secret@123"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"a"`)
	assert.Contains(t, w.Body.String(), `"refresh_token":"r"`)

	w = send(r, http.MethodPost, "/auth/login", `{"email":"asha@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(r, http.MethodPost, "/auth/login", `{"email":"asha@example.com"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, string(apperr.KindValidation), errorCode(t, w))
}

func TestLogoutAndMe(t *testing.T) {
	p := &auth.Principal{UserID: uuid.New(), Email: "asha@example.com", Role: models.RoleCustomer, TokenID: "jti-1"}
	accounts := new(mockAccounts)
	accounts.On("Logout", mock.Anything, p).Return(nil).Once()
	accounts.On("Me", mock.Anything, p.UserID).Return(&models.User{ID: p.UserID, Email: p.Email}, nil).Once()
	r := authRouter(accounts, p)

	w := send(r, http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), p.UserID.String())
	accounts.AssertExpectations(t)

	w = send(authRouter(accounts, nil), http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh(t *testing.T) {
	accounts := new(mockAccounts)
	accounts.On("Refresh", mock.Anything, "refresh-token").Return("new-access", nil)
	r := authRouter(accounts, nil)

	w := send(r, http.MethodPost, "/auth/refresh", `{"refresh_token":"refresh-token"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"access_token":"new-access"}`, w.Body.String())

	w = send(r, http.MethodPost, "/auth/refresh", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestVerifyAndPasswordReset(t *testing.T) {
	accounts := new(mockAccounts)
	accounts.On("Verify", mock.Anything, "good").Return(nil)
	accounts.On("Verify", mock.Anything, "stale").Return(apperr.Unauthorized("token expired"))
	accounts.On("RequestPasswordReset", mock.Anything, "nobody@example.com").Return(nil).Once()
	accounts.On("ResetPassword", mock.Anything, "reset-token", "NewPass@1", "Other@1").
		Return(apperr.Validation("passwords do not match"))
	r := authRouter(accounts, nil)

	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/auth/verify/good", "").Code)
	assert.Equal(t, http.StatusUnauthorized, send(r, http.MethodGet, "/auth/verify/stale", "").Code)

	w := send(r, http.MethodPost, "/auth/password-reset", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodPost, "/auth/password-reset/reset-token", `{"new_password":"NewPass@1","confirm_password":"Other@1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	accounts.AssertExpectations(t)
}

func TestUserAdministration(t *testing.T) {
	manager := &auth.Principal{UserID: uuid.New(), Role: models.RoleManager}
	actor := services.Actor{UserID: manager.UserID, Role: manager.Role}
	target := uuid.New()

	accounts := new(mockAccounts)
	accounts.On("UpdateUser", mock.Anything, target, mock.MatchedBy(func(p services.UserPatch) bool {
		return p.Firstname != nil && *p.Firstname == "Ravi" && p.Phone == nil
	}), actor).Return(&models.User{ID: target, Firstname: "Ravi"}, nil).Once()
	accounts.On("UpdateRole", mock.Anything, target, "admin", actor).Return(nil, apperr.Forbidden("only admins may change roles"))
	accounts.On("CreateStaff", mock.Anything, mock.MatchedBy(func(in services.StaffInput) bool {
		return in.Email == "chef@example.com" && in.JobTitle == models.JobKitchen
	}), actor).Return(&models.Staff{ID: uuid.New(), JobTitle: models.JobKitchen, User: &models.User{Email: "chef@example.com"}}, nil).Once()
	r := authRouter(accounts, manager)

	w := send(r, http.MethodPatch, "/users/"+target.String(), `{"firstname":"Ravi"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = send(r, http.MethodPatch, "/users/"+target.String(), `{"email":"new@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(r, http.MethodPatch, "/users/"+target.String()+"/role", `{"role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(r, http.MethodPost, "/staff",
		`{"firstname":"Chef","email":"chef@example.com","phone":"9123456780","password":"Secret@123","job_title":"kitchen staff / chef","salary":"1200"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"email":"chef@example.com"`)
	accounts.AssertExpectations(t)
}
