// Package main is the entry point for the hidesync API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"hidesync/internal/domain/auth"
	"hidesync/internal/domain/material"
	"hidesync/internal/domain/preset"
	"hidesync/internal/domain/schema/entitytype"
	"hidesync/internal/domain/schema/enumreg"
	"hidesync/internal/domain/schema/propertydef"
	"hidesync/internal/domain/settings"
	"hidesync/internal/domain/storage"
	"hidesync/internal/infrastructure/cache"
	v1 "hidesync/internal/infrastructure/http/v1"
	"hidesync/internal/infrastructure/storage/postgres"
	"hidesync/internal/infrastructure/storage/postgres/auth_repo"
	"hidesync/internal/infrastructure/storage/postgres/instance_repo"
	"hidesync/internal/infrastructure/storage/postgres/preset_repo"
	"hidesync/internal/infrastructure/storage/postgres/schema_repo"
	"hidesync/internal/infrastructure/storage/postgres/settings_repo"
	"hidesync/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting hidesync server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	enumRepo := schema_repo.NewEnumRepo(txManager)
	propRepo := schema_repo.NewPropertyDefRepo(txManager)
	typeRepo := schema_repo.NewEntityTypeRepo(txManager)
	materialRepo := instance_repo.NewMaterialRepo(txManager)
	locationRepo := instance_repo.NewLocationRepo(txManager)
	presetRepo := preset_repo.NewPresetRepo(txManager)
	settingsRepo := settings_repo.NewSettingsRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to build audit service", "error", err)
	}

	// --- Enum registry and property validation ---
	enumService := enumreg.NewService(enumRepo, txManager)
	enumService.RegisterAuditor(auditService)

	validator, err := propertydef.NewValidator(enumService)
	if err != nil {
		log.Fatalw("failed to build value validator", "error", err)
	}
	propService := propertydef.NewService(propRepo, txManager, validator)
	propService.RegisterAuditor(auditService)

	// --- Optional Redis list cache with LISTEN/NOTIFY invalidation ---
	var listCache entitytype.ListCache
	var invalidator *cache.Invalidator
	if redisAddr := getEnv("REDIS_ADDR", ""); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalw("failed to ping redis", "error", err)
		}
		defer redisClient.Close()

		redisCache := cache.NewRedisCache(redisClient, getEnvDuration("CACHE_TTL", 5*time.Minute))
		listCache = redisCache

		invalidator = cache.NewInvalidator(pool.Pool, redisCache)
		if err := invalidator.Start(ctx); err != nil {
			log.Fatalw("failed to start cache invalidator", "error", err)
		}
		defer invalidator.Stop()

		log.Infow("redis cache enabled", "addr", redisAddr)
	}

	// --- Type registry and instances ---
	typeService := entitytype.NewService(typeRepo, propService, txManager, listCache)

	materialService := material.NewService(materialRepo, propService, enumService, txManager)
	storageService := storage.NewService(locationRepo, propService, enumService, txManager)

	typeService.RegisterInstanceCounter(entitytype.KindMaterial, materialService)
	typeService.RegisterInstanceCounter(entitytype.KindStorageLocation, storageService)
	typeService.RegisterAuditor(auditService)

	// --- Settings, presets, outbox ---
	settingsService := settings.NewService(settingsRepo, txManager)

	outbox := postgres.NewOutboxPublisher(txManager)
	presetService := preset.NewService(
		presetRepo, propService, typeService, materialService, settingsService, outbox, txManager)
	presetService.RegisterAuditor(auditService)

	// --- Auth ---
	authService := auth.NewService(
		userRepo,
		mustEnv("JWT_SECRET"),
		getEnvDuration("JWT_TTL", 24*time.Hour),
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:    pool.Pool,
		Logger:  log,
		Version: getEnv("APP_VERSION", "dev"),

		AuthService:     authService,
		EnumService:     enumService,
		PropertyService: propService,
		TypeService:     typeService,
		MaterialService: materialService,
		StorageService:  storageService,
		PresetService:   presetService,
		SettingsService: settingsService,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
