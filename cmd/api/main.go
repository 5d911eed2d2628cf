package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/matiasvera/almacen-api/internal/application/service"
	"github.com/matiasvera/almacen-api/internal/config"
	"github.com/matiasvera/almacen-api/internal/infrastructure/database"
	"github.com/matiasvera/almacen-api/internal/infrastructure/gateway"
	"github.com/matiasvera/almacen-api/internal/infrastructure/repository"
	"github.com/matiasvera/almacen-api/internal/presentation/http/handler"
	"github.com/matiasvera/almacen-api/internal/presentation/http/routes"
	"github.com/matiasvera/almacen-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	sessionRepo := repository.NewCashSessionRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize external collaborators
	paymentGateway := gateway.NewHTTPPaymentGateway(&cfg.Gateway)
	invoicingService := gateway.NewHTTPInvoicingService(&cfg.Invoicing)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	productService := service.NewProductService(productRepo)
	customerService := service.NewCustomerService(customerRepo)
	saleService := service.NewSaleService(saleRepo, productRepo, customerRepo, invoicingService, cfg.Pricing)
	sessionService := service.NewCashSessionService(sessionRepo, saleRepo)
	paymentPoller := service.NewPaymentPoller(paymentGateway, saleService, cfg.Poller)
	saleService.SetPaymentApprovals(paymentPoller)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Product:     handler.NewProductHandler(productService),
		Customer:    handler.NewCustomerHandler(customerService),
		Sale:        handler.NewSaleHandler(saleService),
		CashSession: handler.NewCashSessionHandler(sessionService),
		Payment:     handler.NewPaymentHandler(paymentPoller),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
	log.Printf("Environment: %s", cfg.App.Env)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
