package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"summarymaker/config"
	"summarymaker/config/database"
	"summarymaker/internal/document/cache"
	"summarymaker/internal/document/repository"
	"summarymaker/internal/document/service"
	"summarymaker/pkg/logger"
	"summarymaker/router"
	"summarymaker/socket"
)

func main() {
	cfg, err := config.Load()
	logger.Init(cfg.LogLevel)
	defer logger.Sync()
	if err != nil {
		logger.Sugar.Fatalf("Invalid configuration: %v", err)
	}

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		logger.Sugar.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()

	var templates service.TemplateStore
	if cfg.RedisURL != "" {
		tc, err := cache.NewTemplateCache(ctx, cfg.RedisURL, repository.NewTemplateRepository(db), cfg.TemplateCacheTTL)
		if err != nil {
			logger.Sugar.Fatalf("Could not connect to redis: %v", err)
		}
		defer tc.Close()
		templates = tc
		logger.Sugar.Infof("Template cache enabled (ttl %s)", cfg.TemplateCacheTTL)
	}

	hub := socket.NewHub()
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Setup(cfg, db, hub, templates),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("Summary service listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Errorf("Server crashed: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Graceful shutdown failed: %v", err)
	}
	logger.Sugar.Info("Shutdown complete")
}
