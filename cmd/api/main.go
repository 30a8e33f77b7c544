package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sinapseerp/engine/internal/application/service"
	"github.com/sinapseerp/engine/internal/config"
	"github.com/sinapseerp/engine/internal/infrastructure/database"
	"github.com/sinapseerp/engine/internal/infrastructure/gateway"
	"github.com/sinapseerp/engine/internal/infrastructure/repository"
	"github.com/sinapseerp/engine/internal/presentation/http/handler"
	"github.com/sinapseerp/engine/internal/presentation/http/routes"
	"github.com/sinapseerp/engine/pkg/utils"
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
	if err := database.SeedDefaults(db); err != nil {
		log.Printf("Warning: Failed to seed default data: %v", err)
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	terminalRepo := repository.NewTerminalRepository(db)
	fiscalRepo := repository.NewFiscalDocumentRepository(db)
	invoiceRepo := repository.NewInboundInvoiceRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize the emitter bridge client
	emitter := gateway.NewClient(cfg.Fiscal.GatewayURL, cfg.Fiscal.GatewayTimeout)

	// Initialize services
	credentials := service.NewCredentialStore(userRepo)
	fiscalService := service.NewFiscalService(db, fiscalRepo, invoiceRepo, saleRepo, settingsRepo, emitter)
	cartService := service.NewCartService(db, productRepo, saleRepo, customerRepo, settingsRepo, credentials)
	settlementService := service.NewSettlementService(db, saleRepo, settingsRepo, credentials, fiscalService)
	saleService := service.NewSaleService(saleRepo)
	goalService := service.NewGoalService(saleRepo, invoiceRepo, settingsRepo, fiscalService)
	terminalService := service.NewTerminalService(db, terminalRepo, saleRepo, credentials)
	creditService := service.NewCreditService(db, customerRepo, settingsRepo)
	approvalService := service.NewApprovalService(approvalRepo, userRepo)
	settingsService := service.NewSettingsService(settingsRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Sale:     handler.NewSaleHandler(cartService, settlementService, saleService),
		Terminal: handler.NewTerminalHandler(terminalService),
		Fiscal:   handler.NewFiscalHandler(fiscalService, goalService, settingsService),
		Credit:   handler.NewCreditHandler(creditService),
		Approval: handler.NewApprovalHandler(approvalService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager: jwtManager,
		Cfg:        cfg,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting %s server on port %s...", cfg.App.Name, port)
		log.Printf("Environment: %s", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown: drain in-flight settlements before closing the pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	if err := database.Close(db); err != nil {
		log.Printf("Error closing database: %v", err)
	}
	log.Println("Server stopped")
}
