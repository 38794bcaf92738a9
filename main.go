package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gc-distance/gc"
	"gc-distance/internal/api"
	"gc-distance/internal/config"
	"gc-distance/internal/jobs"
	"gc-distance/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err, "Failed to load configuration")
	}

	logger.Init(logger.Config{
		Level:  cfg.LoggingConfig.Level,
		Format: cfg.LoggingConfig.Format,
	})
	if !cfg.AuthConfig.Enabled() {
		logger.Warn("AUTH_PASSWORD is empty, the web UI is not protected")
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(api.RequestID(), api.RequestLogger(), api.Recovery())
	router.LoadHTMLGlob(cfg.TemplateGlob)

	defaults := gc.Options{
		Ellipsoid: gc.WithAxes(cfg.GeodesyConfig.RMajor, cfg.GeodesyConfig.RMinor),
		Workers:   cfg.GeodesyConfig.Workers,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	runner := api.NewRunner(ctx, cfg, jobs.NewStore(), defaults)
	api.RegisterRoutes(router, cfg, runner, defaults)

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runner.Prune(cfg.JobRetention)
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port,
			"rmajor", cfg.GeodesyConfig.RMajor, "rminor", cfg.GeodesyConfig.RMinor)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Running jobs see their context canceled.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal(err, "Server forced to shutdown")
	}
	logger.Info("Server exited properly")
}
