package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pp-store-sync/merchant-api/internal/auth"
	"github.com/pp-store-sync/merchant-api/internal/cart"
	"github.com/pp-store-sync/merchant-api/internal/catalog"
	"github.com/pp-store-sync/merchant-api/internal/config"
	cartHttp "github.com/pp-store-sync/merchant-api/internal/handler/http"
	"github.com/pp-store-sync/merchant-api/internal/paypal"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	log.Info().Msg("Starting merchant-api...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	catalogStore := catalog.NewStore(cfg.App.CatalogPath)
	if err := catalogStore.Load(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load product catalog")
	}

	gateway := paypal.NewClient(cfg)
	cartStore := cart.NewMemoryStore()
	cartSvc := cart.NewService(cartStore, catalogStore, gateway, cfg.App.StoreURL)

	cartHandler := cartHttp.NewCartHandler(cartSvc)
	serviceHandler := cartHttp.NewServiceHandler(catalogStore, cfg.PayPal.Environment)
	verifier := auth.NewVerifier(cfg)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	serviceHandler.RegisterRoutes(router)
	router.Route("/api/paypal/v1", func(r chi.Router) {
		r.Use(verifier.Middleware)
		cartHandler.RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Str("environment", cfg.PayPal.Environment).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("Could not listen")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Merchant-api stopped gracefully.")
}
