package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"ms-seeder/internal/config"
	"ms-seeder/internal/logger"
	"ms-seeder/internal/seeding"
	"ms-seeder/internal/seeding/seed_api"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger(cfg.Log.Service+"-api", cfg.Log.Dir)
	log.SetLevel(logger.ParseLevel(cfg.Log.Level))
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx := context.Background()
	svc, cleanup, err := seeding.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal("APP", fmt.Sprintf("Failed to set up: %v", err))
	}
	defer cleanup()

	if err := svc.Init(ctx); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to initialize bookkeeping tables: %v", err))
	}
	if _, err := svc.Migrate(ctx); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
	}

	handler := seed_api.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	handler.RegisterRoutes(r)
	log.Info("ROUTER", "Seed routes registered under /api/seeds")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Seed API running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Seed API shutdown complete")
	}
}
