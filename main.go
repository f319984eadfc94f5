package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"sevenms-trading-bot/config"
	"sevenms-trading-bot/internal/api"
	"sevenms-trading-bot/internal/approval"
	"sevenms-trading-bot/internal/auth"
	"sevenms-trading-bot/internal/broker"
	"sevenms-trading-bot/internal/database"
	"sevenms-trading-bot/internal/events"
	"sevenms-trading-bot/internal/logging"
	"sevenms-trading-bot/internal/market"
	"sevenms-trading-bot/internal/pipeline"
	"sevenms-trading-bot/internal/scheduler"
	"sevenms-trading-bot/internal/vault"
)

func main() {
	godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(&logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
		Component:  "main",
	})
	logging.SetDefault(logger)
	logger.Info("Structured logging initialized")

	ctx := context.Background()

	// Initialize event bus
	bus := events.NewBus()
	logger.Info("Event bus initialized")

	// Resolve bridge credentials, preferring Vault over environment
	bridgeURL := cfg.BridgeConfig.BaseURL
	bridgeToken := cfg.BridgeConfig.AuthToken
	if cfg.VaultConfig.Enabled {
		vaultClient, err := vault.NewClient(cfg.VaultConfig)
		if err != nil {
			log.Fatalf("Failed to create vault client: %v", err)
		}
		creds, err := vaultClient.GetBridgeCredentials(ctx, cfg.BridgeConfig.VaultEnv)
		if err != nil {
			logger.Warn("Vault credential lookup failed, using environment values", "error", err)
		} else {
			bridgeURL = creds.BaseURL
			bridgeToken = creds.Token
			logger.Info("Bridge credentials loaded from vault", "env", cfg.BridgeConfig.VaultEnv)
		}
	}

	// Market data and execution clients
	var dataSource market.DataSource
	var execClient broker.ExecutionClient
	if cfg.BridgeConfig.MockMode {
		dataSource = market.NewMockSource()
		execClient = broker.NewMockClient()
		logger.Warn("Mock mode enabled, orders will not reach a broker")
	} else {
		dataSource = market.NewBridgeClient(bridgeURL, bridgeToken)
		execClient = broker.NewBridgeClient(bridgeURL, bridgeToken)
		logger.Info("Bridge clients initialized", "base_url", bridgeURL)
	}

	// Database journal (optional)
	var db *database.DB
	var journal pipeline.Journal
	var apiJournal *database.Journal
	if cfg.DatabaseConfig.Enabled {
		db, err = database.NewDB(cfg.DatabaseConfig)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.RunMigrations(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		apiJournal = database.NewJournal(db)
		journal = apiJournal
		logger.Info("Database journal initialized", "database", cfg.DatabaseConfig.Database)
	} else {
		logger.Info("Database disabled, runs will not be persisted")
	}

	// Approval request store, Redis-backed when available
	var store approval.Store
	if cfg.RedisConfig.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			PoolSize: cfg.RedisConfig.PoolSize,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, approval requests held in memory", "error", err)
			store = approval.NewMemoryStore()
		} else {
			store = approval.NewRedisStore(redisClient)
			logger.Info("Redis approval store initialized", "address", cfg.RedisConfig.Address)
		}
	} else {
		store = approval.NewMemoryStore()
	}

	// Approval gate with a zerolog audit trail
	auditLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	gate := approval.NewGate(store, auditLogger)

	// Pipeline engine
	engine := pipeline.NewEngine(cfg.PipelineConfig, dataSource, execClient, gate, bus, journal)
	logger.Info("Pipeline engine initialized", "symbol", cfg.PipelineConfig.Symbol)

	// Operator authentication
	var authService *auth.Service
	if cfg.AuthConfig.Enabled {
		authService = auth.NewService(cfg.AuthConfig)
		logger.Info("Operator authentication enabled")
	}

	// Scheduled analysis runs
	var sched *scheduler.Scheduler
	if cfg.SchedulerConfig.Enabled {
		sched = scheduler.New(ctx, engine, cfg.SchedulerConfig)
		if err := sched.Register(); err != nil {
			log.Fatalf("Failed to register scheduler job: %v", err)
		}
		sched.Start()
		logger.Info("Scheduler started", "spec", cfg.SchedulerConfig.Spec)
	}

	// Web server
	server := api.NewServer(cfg.ServerConfig, engine, bus, authService, apiJournal)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start web server: %v", err)
		}
	}()
	logger.Info("Web interface available", "host", cfg.ServerConfig.Host, "port", cfg.ServerConfig.Port)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down web server: %v", err)
	}

	log.Println("Shutdown complete")
}
