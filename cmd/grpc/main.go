package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	"github.com/fekuna/omnipos-inventory-service/pkg/broker"
	"github.com/fekuna/omnipos-inventory-service/pkg/cache"
	"github.com/fekuna/omnipos-inventory-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-inventory-service/pkg/i18n"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/middleware"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction/checkout"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/executor"
	dedH "github.com/fekuna/omnipos-inventory-service/internal/deduction/handler"
	dedListenerPkg "github.com/fekuna/omnipos-inventory-service/internal/deduction/listener"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/recovery"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/resolver"
	dedUCPkg "github.com/fekuna/omnipos-inventory-service/internal/deduction/usecase"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/validation"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	invCache "github.com/fekuna/omnipos-inventory-service/internal/inventory/cache"
	invH "github.com/fekuna/omnipos-inventory-service/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/usecase"

	"github.com/fekuna/omnipos-inventory-service/internal/recipe"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe/alias"
	recipeRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/recipe/repository"
	recipeUCPkg "github.com/fekuna/omnipos-inventory-service/internal/recipe/usecase"

	"github.com/fekuna/omnipos-inventory-service/internal/sale"
	saleRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/sale/repository"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const recoveryActor = "system:recovery"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize i18n
	i18n.Init()
	for _, path := range cfg.I18n.ExtraFiles {
		if err := i18n.Load(path); err != nil {
			appLogger.Warn("Failed to load locale file", zap.String("path", path), zap.Error(err))
		}
	}

	aliases, err := alias.Load(cfg.Deduction.AliasTablePath)
	if err != nil {
		appLogger.Fatal("Could not load alias table", zap.String("path", cfg.Deduction.AliasTablePath), zap.Error(err))
	}
	appLogger.Info("Alias table loaded", zap.Int("concepts", aliases.Len()))

	// 4. Initialize Repositories
	var (
		invRepo    inventory.Repository
		recipeRepo recipe.Repository
		saleRepo   sale.Repository
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		invRepo = invRepoPkg.NewMemoryRepository()
		recipeRepo = recipeRepoPkg.NewMemoryRepository()
		saleRepo = saleRepoPkg.NewMemoryRepository()
		appLogger.Warn("Using in-memory storage; data is lost on restart")
	default:
		db, err := postgres.NewPostgres(&postgres.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		invRepo = invRepoPkg.NewPGRepository(db)
		recipeRepo = recipeRepoPkg.NewPGRepository(db)
		saleRepo = saleRepoPkg.NewPGRepository(db)
	}
	invRepo = invRepoPkg.WithTimeout(invRepo, cfg.Deduction.IOTimeout)
	recipeRepo = recipeRepoPkg.WithTimeout(recipeRepo, cfg.Deduction.IOTimeout)
	saleRepo = saleRepoPkg.WithTimeout(saleRepo, cfg.Deduction.IOTimeout)

	// 5. Initialize Redis
	var guard checkout.SaleGuard
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		guard = redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 6. Initialize Kafka
	var (
		events        executor.EventPublisher
		kafkaConsumer *broker.KafkaConsumer
	)
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		defer producer.Close()
		events = producer

		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.TransactionsTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("consume", cfg.Kafka.TransactionsTopic),
			zap.String("publish", cfg.Kafka.EventsTopic),
		)
	}

	// 7. Initialize UseCases
	stockCache := invCache.NewInventoryCache(invRepo, cfg.Deduction.CacheTTL, appLogger)
	res := resolver.New(aliases)
	recipeUC := recipeUCPkg.NewRecipeUseCase(recipeRepo, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, stockCache, appLogger)

	exec := executor.New(invRepo, stockCache, events, executor.Config{
		MaxRetries: cfg.Deduction.CASMaxRetries,
		Compensate: cfg.Deduction.Compensate,
	}, appLogger)
	checkoutSvc := checkout.NewService(recipeUC, stockCache, res, exec, guard, cfg.Deduction.SaleLockTTL, appLogger)
	actor := recoveryActor
	recoverySvc := recovery.NewService(saleRepo, invRepo, checkoutSvc, stockCache, cfg.Deduction.RecoveryItemDelay, &actor, appLogger)
	validator := validation.NewValidator(recipeUC, stockCache, res, appLogger)
	coordinator := validation.NewCoordinator(validator.Validate, cfg.Deduction.ValidationDebounce, appLogger)
	defer coordinator.Close()

	dedUC := dedUCPkg.NewDeductionUseCase(coordinator, checkoutSvc, recoverySvc, appLogger)

	// 8. Start Listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if kafkaConsumer != nil {
		go dedListenerPkg.NewTransactionListener(kafkaConsumer, dedUC, appLogger).Start(ctx)
	}

	// 9. Initialize Handlers
	dedHandler := dedH.NewDeductionHandler(dedUC, appLogger)
	invHandler := invH.NewInventoryHandler(invUC, appLogger)

	// 10. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextInterceptor(),
			middleware.LoggingInterceptor(appLogger),
		),
	)
	dedH.Register(grpcServer, dedHandler)
	invH.Register(grpcServer, invHandler)

	appLogger.Info("Starting gRPC server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// 11. Start ops HTTP server
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	dedHandler.RegisterRoutes(router)
	invHandler.RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	appLogger.Info("Starting HTTP server", zap.String("addr", cfg.Server.HTTPPort))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("HTTP shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
