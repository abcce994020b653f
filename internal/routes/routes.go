package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pizzeria_back_end/internal/handlers/admin"
	"pizzeria_back_end/internal/handlers/order"
	"pizzeria_back_end/internal/handlers/payment"
	"pizzeria_back_end/internal/handlers/product"
	"pizzeria_back_end/internal/handlers/user"
	"pizzeria_back_end/internal/middleware"
	"pizzeria_back_end/internal/models"
	"pizzeria_back_end/internal/utils"
)

// Identity authenticates bearer tokens and resolves customer profiles.
// services.IdentityService implements it.
type Identity interface {
	middleware.Authenticator
	middleware.CustomerIdentity
}

// Deps is everything the router needs.
type Deps struct {
	Identity    Identity
	Limiter     *middleware.RateLimiter
	Auditor     middleware.Auditor
	CorsOrigins []string

	Auth      *user.AuthHandler
	Addresses *user.AddressHandler
	Catalog   *product.CatalogHandler
	Orders    *order.OrderHandler
	Payments  *payment.PaymentHandler
	Audit     *admin.AuditHandler
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(cors.New(corsConfig(d.CorsOrigins)))
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	api := r.Group("/api/v1")
	api.Use(d.Limiter.API())

	authn := middleware.AuthRequired(d.Identity)
	customer := middleware.RequireVerifiedCustomer(d.Identity)
	managers := middleware.RequireRoles(d.Identity, models.RoleAdmin, models.RoleManager)
	kitchen := middleware.RequireRoles(d.Identity, models.RoleAdmin, models.RoleManager, models.RoleStaff)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(d.Auditor, action, resource)
	}

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", d.Limiter.Register(), d.Auth.Signup)
		authGroup.POST("/login", d.Limiter.Login(), d.Auth.Login)
		authGroup.POST("/refresh", d.Auth.Refresh)
		authGroup.GET("/verify/:token", d.Auth.Verify)
		authGroup.POST("/password-reset", d.Limiter.ForgotPassword(), d.Auth.RequestPasswordReset)
		authGroup.POST("/password-reset/:token", d.Auth.ResetPassword)

		authGroup.POST("/logout", authn, d.Auth.Logout)
		authGroup.GET("/me", authn, d.Auth.Me)
		authGroup.GET("/me/permissions", authn, admin.GetMyPermissions)
	}

	// Users
	api.PATCH("/users/:id", authn, audit(utils.ActionUserUpdate, utils.ResourceUser), d.Auth.UpdateUser)
	api.PATCH("/users/:id/role", authn, middleware.RequirePermission(models.PermRolesEdit),
		audit(utils.ActionRoleAssign, utils.ResourceRole), d.Auth.UpdateRole)
	api.POST("/staff", authn, managers, audit(utils.ActionStaffCreate, utils.ResourceUser), d.Auth.CreateStaff)

	// Addresses
	addresses := api.Group("/addresses", authn, customer)
	{
		addresses.GET("", d.Addresses.List)
		addresses.POST("", d.Addresses.Create)
		addresses.GET("/:id", d.Addresses.Get)
		addresses.PATCH("/:id", d.Addresses.Update)
		addresses.DELETE("/:id", d.Addresses.Delete)
	}

	// Catalog
	api.GET("/items", d.Catalog.ListItems)
	api.GET("/items/search", d.Catalog.SearchItems)
	api.GET("/items/:id", d.Catalog.GetItem)
	api.POST("/items", authn, managers, audit(utils.ActionItemCreate, utils.ResourceItem), d.Catalog.CreateItem)
	api.PATCH("/items/:id", authn, managers, audit(utils.ActionItemUpdate, utils.ResourceItem), d.Catalog.UpdateItem)
	api.DELETE("/items/:id", authn, managers, audit(utils.ActionItemDelete, utils.ResourceItem), d.Catalog.DeleteItem)

	api.GET("/categories", d.Catalog.ListCategories)
	api.GET("/categories/:name", d.Catalog.GetCategory)
	api.POST("/categories", authn, managers, audit(utils.ActionCategoryEdit, utils.ResourceCategory), d.Catalog.CreateCategory)
	api.PATCH("/categories/:name", authn, managers, audit(utils.ActionCategoryEdit, utils.ResourceCategory), d.Catalog.UpdateCategory)
	api.DELETE("/categories/:name", authn, managers, audit(utils.ActionCategoryEdit, utils.ResourceCategory), d.Catalog.DeleteCategory)

	// Orders
	orders := api.Group("/orders", authn)
	{
		orders.POST("", customer, audit(utils.ActionOrderCreate, utils.ResourceOrder), d.Orders.Create)
		orders.GET("/status/:status", customer, d.Orders.ListMine)
		orders.GET("/stale", kitchen, d.Orders.ListStale)

		orders.GET("/:id", d.Orders.Get)
		orders.GET("/:id/track", d.Orders.Track)
		orders.POST("/:id/items", customer, audit(utils.ActionOrderAttach, utils.ResourceOrder), d.Orders.AttachItems)
		orders.PATCH("/:id/cancel",
			middleware.RequireRoles(d.Identity, models.RoleCustomer, models.RoleManager, models.RoleAdmin),
			audit(utils.ActionOrderCancel, utils.ResourceOrder), d.Orders.Cancel)
		orders.PATCH("/:id", kitchen, audit(utils.ActionOrderUpdate, utils.ResourceOrder), d.Orders.Update)

		orders.GET("/:id/payments", d.Payments.List)
		orders.POST("/:id/payments", middleware.RequirePermission(models.PermPaymentsEdit),
			audit(utils.ActionPaymentEdit, utils.ResourcePayment), d.Payments.Record)
	}
	api.PATCH("/payments/:id", authn, middleware.RequirePermission(models.PermPaymentsEdit),
		audit(utils.ActionPaymentEdit, utils.ResourcePayment), d.Payments.SetStatus)

	// Admin
	adminGroup := api.Group("/admin", authn, middleware.RequireRoles(d.Identity, models.RoleAdmin))
	{
		adminGroup.GET("/roles", admin.GetAllRoles)
		adminGroup.GET("/audit/:resource", d.Audit.ListByResource)
	}
}
