package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"expenseflow/internal/application/service"
	"expenseflow/internal/config"
	"expenseflow/internal/infrastructure/notify"
	"expenseflow/internal/infrastructure/persistence/repository"
	"expenseflow/internal/infrastructure/persistence/sqlite"
	httpiface "expenseflow/internal/interfaces/http"
	"expenseflow/pkg/database"
	"expenseflow/pkg/logger"
)

func main() {
	// Load .env if present; real deployments set env vars directly
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting expense report service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, zapLogger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories and transaction manager
	txManager := sqlite.NewDB(db.DB, zapLogger)
	reportRepo := repository.NewReportRepository(db.DB, zapLogger)
	itemRepo := repository.NewItemRepository(db.DB, zapLogger)

	// Initialize notification adapter
	notifier := notify.NewHTTPNotifier(notify.Config{
		Endpoint:    cfg.Notify.Endpoint,
		APIKey:      cfg.Notify.APIKey,
		MaxAttempts: cfg.Notify.MaxAttempts,
		RetryDelay:  cfg.Notify.RetryDelay,
		Timeout:     cfg.Notify.Timeout,
	}, zapLogger)

	// Initialize application services
	svcLogger := logger.NewSugared(zapLogger)
	reportService := service.NewReportService(
		reportRepo,
		itemRepo,
		txManager,
		notifier,
		cfg.Limits.MaxItemAmountCents,
		svcLogger,
	)
	exportService := service.NewExportService(reportRepo, itemRepo, svcLogger)

	// Initialize HTTP server
	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JWTSecret:    cfg.Auth.JWTSecret,
	}, reportService, exportService, svcLogger)

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		zapLogger.Fatal("HTTP server failed", zap.Error(err))
	}

	zapLogger.Info("Server exited successfully")
}
