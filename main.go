package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pizza-ordering-api/app"
	"pizza-ordering-api/config"
	"pizza-ordering-api/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pizza-api"})

	if err := config.LoadDotEnv(); err != nil {
		logg.Error(context.Background(), "failed to read .env", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pizza-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	if cfg.App.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service, err := app.Build(ctx, cfg, logg, reg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap service", err)
		os.Exit(1)
	}
	defer func() {
		if err := service.Close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()
	go service.RunSweeper(ctx)

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           service.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"db_driver": cfg.DB.Driver,
		"sessions":  cfg.Session.Store,
	})
	logg.Info(runCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(runCtx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
}
