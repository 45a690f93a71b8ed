package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	paymentport "github.com/yiwen-ai/walletbase/internal/domain/port/payment"
	chargeUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/charge"
	creditUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/credit"
	reconcileUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/reconcile"
	transferUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/transfer"
	walletUseCase "github.com/yiwen-ai/walletbase/internal/domain/usecase/wallet"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/api/handler"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/api/routes"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/database"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/logger"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/memory"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/metrics"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/payment"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/repository"
	timeProvider "github.com/yiwen-ai/walletbase/internal/infrastructure/adapter/time"
	"github.com/yiwen-ai/walletbase/internal/infrastructure/config"
)

// stores bundles the persistence ports behind the driver switch
type stores struct {
	wallets   persistence.WalletRepository
	txns      persistence.TransactionLog
	payees    persistence.PayeeIndex
	credits   persistence.CreditLog
	charges   persistence.ChargeStore
	customers persistence.CustomerStore
	ping      func() error
	close     func() error
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == "production")
	appLogger.SetLevel(logLevel(cfg.Logger.Level))
	defer func() { _ = appLogger.Flush() }()

	tp := timeProvider.NewRealTimeProvider()
	prom := metrics.NewPrometheusMetrics()

	st, err := openStores(cfg, tp, appLogger)
	if err != nil {
		appLogger.Error("failed to open backing store", map[string]any{
			"driver": cfg.Database.Driver,
			"error":  err.Error(),
		})
		os.Exit(1)
	}
	if st.close != nil {
		defer func() { _ = st.close() }()
	}

	signer := walletUseCase.NewSigner(cfg.ChecksumKey())
	wallets := walletUseCase.NewStore(st.wallets, signer, tp, appLogger).
		WithRetry(walletUseCase.RetryConfig{
			MaxRetries:    cfg.Wallet.MaxRetries,
			RetryInterval: cfg.Wallet.RetryInterval,
			MaxInterval:   cfg.Wallet.MaxInterval,
		}).
		WithMetrics(prom)

	credits := creditUseCase.NewService(wallets, st.credits, appLogger)
	transfers := transferUseCase.NewCoordinator(wallets, st.txns, st.payees, credits, appLogger).
		WithMetrics(prom)

	gateways := paymentport.NewRegistry(payment.NewFakeGateway(cfg.Payment.Provider))
	charges := chargeUseCase.NewCoordinator(st.charges, st.customers, transfers, gateways, tp, appLogger).
		WithMetrics(prom)

	reconcilerCtx, stopReconciler := context.WithCancel(context.Background())
	defer stopReconciler()
	if cfg.Reconciler.Enabled {
		reconciler := reconcileUseCase.NewReconciler(st.txns, transfers, reconcileUseCase.Config{
			Interval:   cfg.Reconciler.Interval,
			StaleAfter: cfg.Reconciler.StaleAfter,
			BatchSize:  cfg.Reconciler.BatchSize,
		}, tp, appLogger).WithMetrics(prom)
		go reconciler.Run(reconcilerCtx)
	}

	walletHandler := handler.NewWalletHandler(wallets, credits, appLogger)
	transactionHandler := handler.NewTransactionHandler(transfers, appLogger)
	chargeHandler := handler.NewChargeHandler(charges, appLogger)
	systemHandler := handler.NewSystemHandler(st.ping)

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger)
	routes.SetupRoutes(router, walletHandler, transactionHandler, chargeHandler, systemHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("starting server", map[string]any{
			"addr":   server.Addr,
			"env":    cfg.Environment,
			"driver": cfg.Database.Driver,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server", nil)
	stopReconciler()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("server exited gracefully", nil)
}

// logLevel maps the configured level name to a logger level
func logLevel(level string) coreport.LogLevel {
	switch level {
	case "debug":
		return coreport.LogLevelDebug
	case "warn":
		return coreport.LogLevelWarn
	case "error":
		return coreport.LogLevelError
	default:
		return coreport.LogLevelInfo
	}
}

// openStores connects the configured persistence driver and returns the
// bundled ports. The memory driver serves development and smoke tests;
// postgres is the production path.
func openStores(cfg *config.Config, tp coreport.TimeProvider, appLogger coreport.Logger) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		return &stores{
			wallets:   memory.NewWalletRepo(),
			txns:      memory.NewTransactionLog(),
			payees:    memory.NewPayeeIndex(),
			credits:   memory.NewCreditLog(),
			charges:   memory.NewChargeStore(),
			customers: memory.NewCustomerStore(),
		}, nil
	}

	conn, err := database.NewConnection(&cfg.Database, appLogger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(context.Background(), conn.DB, appLogger); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &stores{
		wallets:   repository.NewWalletRepository(conn.DB, tp, appLogger),
		txns:      repository.NewTransactionRepository(conn.DB, appLogger),
		payees:    repository.NewPayeeIndexRepository(conn.DB, appLogger),
		credits:   repository.NewCreditRepository(conn.DB, appLogger),
		charges:   repository.NewChargeRepository(conn.DB, tp, appLogger),
		customers: repository.NewCustomerRepository(conn.DB, appLogger),
		ping: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ReadTimeout)
			defer cancel()
			return conn.Ping(ctx)
		},
		close: conn.Close,
	}, nil
}
