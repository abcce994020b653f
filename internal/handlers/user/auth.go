package user

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pizzeria_back_end/internal/apperr"
	"pizzeria_back_end/internal/auth"
	"pizzeria_back_end/internal/handlers"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/services"
)

// Accounts is the account lifecycle used by the auth and user handlers.
// services.AccountService implements it.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Logout(ctx context.Context, p *auth.Principal) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Verify(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, targetID uuid.UUID, patch services.UserPatch, actor services.Actor) (*models.User, error)
	UpdateRole(ctx context.Context, targetID uuid.UUID, role string, actor services.Actor) (*models.User, error)
	CreateStaff(ctx context.Context, in services.StaffInput, actor services.Actor) (*models.Staff, error)
}

type AuthHandler struct {
	accounts Accounts
}

func NewAuthHandler(accounts Accounts) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var in services.RegisterInput
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	log.Info().Str("user_id", user.ID.String()).Msg("Customer registered")
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Check your e-mail to verify it.",
		"user":    user,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	if in.Email == "" || in.Password == "" {
		handlers.Fail(c, apperr.Validation("email and password are required"))
		return
	}
	pair, err := h.accounts.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		handlers.Fail(c, apperr.Unauthorized("authentication required"))
		return
	}
	if err := h.accounts.Logout(c.Request.Context(), p); err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	if in.RefreshToken == "" {
		handlers.Fail(c, apperr.Validation("refresh_token is required"))
		return
	}
	access, err := h.accounts.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access})
}

// GET /auth/verify/:token
func (h *AuthHandler) Verify(c *gin.Context) {
	if err := h.accounts.Verify(c.Request.Context(), c.Param("token")); err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "E-mail verified"})
}

// POST /auth/password-reset
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var in struct {
		Email string `json:"email"`
	}
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	if in.Email == "" {
		handlers.Fail(c, apperr.Validation("email is required"))
		return
	}
	if err := h.accounts.RequestPasswordReset(c.Request.Context(), in.Email); err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the address is registered, a reset link has been sent."})
}

// POST /auth/password-reset/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var in struct {
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if !handlers.DecodeStrict(c, &in) {
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), c.Param("token"), in.NewPassword, in.ConfirmPassword); err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.accounts.Me(c.Request.Context(), middleware.ActorFrom(c).UserID)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
