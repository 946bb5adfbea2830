package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"edge-gate/internal/auth"
	"edge-gate/internal/config"
	"edge-gate/internal/handler"
	"edge-gate/internal/logger"
	"edge-gate/internal/middleware"
	"edge-gate/internal/service"
	"edge-gate/internal/storage"
)

func main() {
	// Carregar configurações; sem JWT_SECRET a aplicação não sobe
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Inicializar logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	appLogger.Info("Starting Edge Gate", map[string]interface{}{
		"log_level": cfg.LogLevel,
		"port":      cfg.ServerPort,
		"storage":   cfg.StorageType,
		"dev_mode":  cfg.DevMode,
	})

	// Inicializar storage via factory (memory ou redis)
	storageConfig := &storage.StorageConfig{
		Type: storage.StorageType(cfg.StorageType),
		RedisConfig: &storage.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			Database: cfg.RedisDB,
		},
	}

	factory := storage.NewStorageFactory()

	limiterStorage, err := factory.CreateRateLimiterStorage(storageConfig, appLogger)
	if err != nil {
		appLogger.Error("Failed to create rate limiter storage", err, nil)
		os.Exit(1)
	}

	tokenStore, err := factory.CreateTokenStore(storageConfig, appLogger)
	if err != nil {
		appLogger.Error("Failed to create token store", err, nil)
		os.Exit(1)
	}

	// Inicializar serviços
	rateLimiter := service.NewRateLimiterService(limiterStorage, cfg.Policies, appLogger)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	checker := auth.NewStaticChecker(cfg.AdminEmail, cfg.AdminSenhaHash)

	// Inicializar handlers
	handlers := handler.NewHandlers(
		rateLimiter,
		tokenManager,
		tokenStore,
		checker,
		appLogger,
		cfg.ProspectTTL,
		!cfg.DevMode,
	)

	// Configurar Gin
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	// Middlewares globais: recovery, access log e o gate de borda antes de
	// qualquer rota
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.TimeStamp.Format("2006/01/02 - 15:04:05"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(middleware.NewEdgeGate(middleware.GateConfig{
		DevMode:     cfg.DevMode,
		BotDenylist: cfg.BotDenylist,
	}, appLogger))

	handlers.SetupRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Iniciar servidor em goroutine
	go func() {
		appLogger.Info("Starting HTTP server", map[string]interface{}{
			"addr": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", err, nil)
			os.Exit(1)
		}
	}()

	// Aguardar sinais de interrupção
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", err, nil)
	}

	// Interrompe as limpezas em background e fecha conexões
	if err := rateLimiter.Close(); err != nil {
		appLogger.Error("Failed to close rate limiter", err, nil)
	}
	if err := tokenStore.Close(); err != nil {
		appLogger.Error("Failed to close token store", err, nil)
	}

	appLogger.Info("Server stopped gracefully", nil)
}
