package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/api/handler"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	walletHandler *handler.WalletHandler,
	transactionHandler *handler.TransactionHandler,
	chargeHandler *handler.ChargeHandler,
	systemHandler *handler.SystemHandler,
) {
	router.GET("/healthz", systemHandler.Healthz)
	router.GET("/currencies", systemHandler.Currencies)
	router.GET("/kinds", systemHandler.Kinds)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	walletRoutes := router.Group("/wallet")
	{
		walletRoutes.GET("/:uid", walletHandler.GetWallet)
		walletRoutes.GET("/:uid/credits", walletHandler.ListCredits)
		walletRoutes.POST("/:uid/credits", walletHandler.AwardCredits)

		walletRoutes.POST("/:uid/transactions", transactionHandler.Prepare)
		walletRoutes.GET("/:uid/transactions", transactionHandler.List)
		walletRoutes.GET("/:uid/transactions/:id", transactionHandler.Get)
		walletRoutes.POST("/:uid/transactions/:id/prepared", transactionHandler.AdvanceToPrepared)
		walletRoutes.POST("/:uid/transactions/:id/commit", transactionHandler.Commit)
		walletRoutes.POST("/:uid/transactions/:id/cancel", transactionHandler.Cancel)

		walletRoutes.POST("/:uid/charges", chargeHandler.Create)
		walletRoutes.GET("/:uid/charges", chargeHandler.List)
		walletRoutes.GET("/:uid/charges/:id", chargeHandler.Get)
		walletRoutes.POST("/:uid/charges/:id/refund", chargeHandler.Refund)

		walletRoutes.GET("/:uid/customers/:provider", chargeHandler.GetCustomer)
		walletRoutes.PUT("/:uid/customers/:provider", chargeHandler.SaveCustomer)
	}

	router.GET("/payee/:uid/transactions", transactionHandler.ListByPayee)

	router.POST("/webhooks/:provider", chargeHandler.HandleEvent)
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
}
