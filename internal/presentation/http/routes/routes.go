package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matiasvera/almacen-api/internal/config"
	domainRepo "github.com/matiasvera/almacen-api/internal/domain/repository"
	"github.com/matiasvera/almacen-api/internal/presentation/http/handler"
	"github.com/matiasvera/almacen-api/internal/presentation/http/middleware"
	"github.com/matiasvera/almacen-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth        *handler.AuthHandler
	Product     *handler.ProductHandler
	Customer    *handler.CustomerHandler
	Sale        *handler.SaleHandler
	CashSession *handler.CashSessionHandler
	Payment     *handler.PaymentHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// Protected routes (authentication required)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Per-cashier rate limiter
		rateLimiter := middleware.NewUserRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.GET("/profile", h.Auth.GetProfile)

	// Sale registration is the endpoint retried most by flaky register
	// clients; it gets idempotency key support.
	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo})

	sales := protected.Group("/sales")
	{
		sales.POST("", idempotency, h.Sale.Register)
		sales.POST("/quote", h.Sale.Quote)
		sales.GET("", h.Sale.List)
		sales.GET("/:id", h.Sale.Get)
		sales.POST("/:id/void", middleware.RequireRole("admin"), h.Sale.Void)
	}

	sessions := protected.Group("/cash-sessions")
	{
		sessions.POST("", h.CashSession.Open)
		sessions.GET("", h.CashSession.List)
		sessions.GET("/open", h.CashSession.GetOpen)
		sessions.GET("/:id", h.CashSession.Get)
		sessions.GET("/:id/preview-close", h.CashSession.PreviewClose)
		sessions.POST("/:id/close", h.CashSession.Close)
	}

	payments := protected.Group("/payments/qr")
	{
		payments.POST("", h.Payment.Begin)
		payments.GET("/:ref", h.Payment.Status)
		payments.POST("/:ref/cancel", h.Payment.Cancel)
	}

	products := protected.Group("/products")
	{
		products.POST("", h.Product.Create)
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.Get)
		products.GET("/barcode/:barcode", h.Product.GetByBarcode)
		products.PUT("/:id", h.Product.Update)
		products.POST("/:id/stock-adjust", h.Product.AdjustStock)
		products.DELETE("/:id", middleware.RequireRole("admin"), h.Product.Delete)
	}

	customers := protected.Group("/customers")
	{
		customers.POST("", h.Customer.Create)
		customers.GET("", h.Customer.List)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.DELETE("/:id", middleware.RequireRole("admin"), h.Customer.Delete)
	}
}
