package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openguild/guildpress/internal/config"
	"github.com/openguild/guildpress/internal/models"
	"github.com/openguild/guildpress/internal/services"
	"github.com/openguild/guildpress/internal/utils"
	"github.com/openguild/guildpress/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.Init(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitSystemLogger(db)
	invalidator := services.InitInvalidator(&cfg.Redis)
	defer invalidator.Close()

	scheduler := services.NewSchedulerService(db)
	scheduler.Start()
	defer scheduler.Stop()

	// In Redis deployments this node also drains the invalidation queue.
	if worker := services.NewInvalidationWorker(&cfg.Redis, nil); worker != nil {
		if err := worker.Start(); err != nil {
			logger.Errorf("Failed to start invalidation worker: %v", err)
		} else {
			defer worker.Stop()
		}
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(logger.GinLogger(), logger.GinRecovery())

	authHandler := setupRoutes(router, db, cfg)

	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Fatalf("Failed to seed admin account: %v", err)
	}

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Infof("GuildPress listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Forced shutdown: %v", err)
	}
}
