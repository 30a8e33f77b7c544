package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sinapseerp/engine/internal/config"
	"github.com/sinapseerp/engine/internal/domain/entity"
	"github.com/sinapseerp/engine/internal/presentation/http/handler"
	"github.com/sinapseerp/engine/internal/presentation/http/middleware"
	"github.com/sinapseerp/engine/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Sale     *handler.SaleHandler
	Terminal *handler.TerminalHandler
	Fiscal   *handler.FiscalHandler
	Credit   *handler.CreditHandler
	Approval *handler.ApprovalHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager *utils.JWTManager
	Cfg        *config.Config
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

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))

		// Per-terminal rate limiter
		rateLimiter := middleware.NewTerminalRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: float64(deps.Cfg.RateLimit.Requests) / float64(deps.Cfg.RateLimit.Duration),
			BurstSize:         deps.Cfg.RateLimit.Requests,
			CleanupInterval:   5 * time.Minute,
			EntryTTL:          10 * time.Minute,
		})
		protected.Use(rateLimiter.Middleware())

		registerSaleRoutes(protected, h)
		registerTerminalRoutes(protected, h)
		registerFiscalRoutes(protected, h)
		registerCreditRoutes(protected, h)
		registerApprovalRoutes(protected, h)
		registerRoutineRoutes(protected, h)
	}

	return router
}

func registerSaleRoutes(rg *gin.RouterGroup, h *Handlers) {
	sales := rg.Group("/sales")
	{
		sales.POST("/items", h.Sale.AddItem)
		sales.POST("/items/remove", h.Sale.RemoveItem)
		sales.POST("/customer", h.Sale.SetCustomer)
		sales.GET("/open/:terminal_id", h.Sale.GetOpen)
		sales.DELETE("/open/:terminal_id", h.Sale.Discard)
		sales.POST("/finalize", h.Sale.Finalize)
		sales.GET("", h.Sale.List)
		sales.GET("/:id", h.Sale.Get)
	}
}

func registerTerminalRoutes(rg *gin.RouterGroup, h *Handlers) {
	terminals := rg.Group("/terminals")
	{
		terminals.GET("", h.Terminal.List)
		terminals.POST("/:id/open", h.Terminal.Open)
		terminals.POST("/:id/close", h.Terminal.Close)
		terminals.POST("/:id/cash-in", h.Terminal.CashIn)
		terminals.POST("/:id/cash-out", h.Terminal.CashOut)
		terminals.GET("/:id/movements", h.Terminal.Movements)
	}
}

func registerFiscalRoutes(rg *gin.RouterGroup, h *Handlers) {
	fiscal := rg.Group("/fiscal")
	{
		fiscal.GET("/documents", h.Fiscal.ListDocuments)
		fiscal.POST("/documents/:id/transmit", h.Fiscal.Transmit)
		fiscal.GET("/summary", h.Fiscal.Summary)
		fiscal.POST("/inbound-invoices", h.Fiscal.RegisterInboundInvoice)
		fiscal.GET("/inbound-invoices", h.Fiscal.ListInboundInvoices)

		managers := fiscal.Group("")
		managers.Use(middleware.RequireRole(entity.RoleManager, entity.RoleAdmin))
		{
			managers.GET("/config", h.Fiscal.GetConfig)
			managers.PUT("/config", h.Fiscal.UpdateConfig)
			managers.POST("/goal-run", h.Fiscal.RunGoal)
			managers.POST("/emit-batch", h.Fiscal.EmitBatch)
		}
	}
}

func registerCreditRoutes(rg *gin.RouterGroup, h *Handlers) {
	credit := rg.Group("/credit")
	{
		credit.GET("/summary", h.Credit.Summary)
		credit.GET("/customers", h.Credit.Customers)
		credit.GET("/customers/:id/statement", h.Credit.Statement)
		credit.POST("/customers/:id/payments", h.Credit.RegisterPayment)
	}
}

func registerApprovalRoutes(rg *gin.RouterGroup, h *Handlers) {
	approvals := rg.Group("/approvals")
	{
		approvals.POST("", h.Approval.Create)
		approvals.GET("", h.Approval.ListPending)

		managers := approvals.Group("")
		managers.Use(middleware.RequireRole(entity.RoleManager, entity.RoleAdmin))
		{
			managers.PUT("/:id", h.Approval.Resolve)
		}
	}
}

func registerRoutineRoutes(rg *gin.RouterGroup, h *Handlers) {
	routines := rg.Group("/routines")
	routines.Use(middleware.RequireRole(entity.RoleManager, entity.RoleAdmin))
	{
		routines.POST("/credit-interest", h.Credit.AccrueInterest)
	}
}
