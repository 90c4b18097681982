package router

import (
	"github.com/goldshop/backend/internal/infrastructure/auth"
	"github.com/goldshop/backend/internal/infrastructure/config"
	appLogger "github.com/goldshop/backend/internal/infrastructure/logger"
	"github.com/goldshop/backend/internal/interfaces/http/handler"
	"github.com/goldshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Workflow *handler.WorkflowHandler
	Report   *handler.ReportHandler
	System   *handler.SystemHandler
}

// New builds the gin engine with the full middleware chain and all routes.
// jwtService may be nil to disable authentication (tests, local tooling).
func New(cfg *config.Config, logger *zap.Logger, handlers Handlers, jwtService *auth.JWTService) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		appLogger.GinMiddleware(logger),
		appLogger.Recovery(logger),
		middleware.CORSWithConfig(corsConfig),
	)

	engine.GET("/health", handlers.System.Health)

	api := engine.Group("/api/v1")
	if jwtService != nil {
		api.Use(middleware.JWTAuth(jwtService))
	}

	deposits := api.Group("/deposits")
	{
		deposits.POST("", handlers.Workflow.CreateDeposit)
		deposits.POST("/:id/buyback", handlers.Workflow.Buyback)
		deposits.POST("/:id/fulfill", handlers.Workflow.Fulfill)
	}

	orders := api.Group("/manufacturer-orders")
	{
		orders.POST("", handlers.Workflow.CreateOrder)
		orders.POST("/:id/receive", handlers.Workflow.Receive)
		orders.POST("/:id/sell-back", handlers.Workflow.SellBack)
	}

	api.POST("/swaps", handlers.Workflow.Swap)

	transactions := api.Group("/transactions")
	{
		transactions.GET("", handlers.Report.ListTransactions)
		transactions.GET("/:id", handlers.Report.GetTransaction)
		transactions.POST("/:id/amend", middleware.AdminOnly(), handlers.Workflow.Amend)
	}

	products := api.Group("/products")
	{
		products.GET("", handlers.Report.ListProducts)
		products.GET("/pending-manufacturer", handlers.Report.PendingManufacturer)
		products.GET("/:id/history", handlers.Report.ProductHistory)
		products.GET("/:id/verify", handlers.Report.VerifyProduct)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/financial", handlers.Report.FinancialStats)
		reports.GET("/inventory-audit", handlers.Report.VerifyInventory)
	}

	return engine
}
