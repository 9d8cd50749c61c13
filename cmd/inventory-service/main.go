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
	"github.com/go-chi/cors"

	"github.com/labstock/labstock-backend/internal/inventory/events"
	"github.com/labstock/labstock-backend/internal/inventory/handler"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/config"
	"github.com/labstock/labstock-backend/pkg/database"
	"github.com/labstock/labstock-backend/pkg/httputil"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ when enabled. A nil publisher drops events, so
	// the service runs standalone without a broker.
	var rmq *messaging.RabbitMQ
	var publisher *events.StockEventPublisher
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewStockEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	} else {
		log.Info().Msg("event publishing disabled")
	}

	// Initialize services
	catalogService := service.NewCatalogService(db, log)
	stockService := service.NewStockService(db, publisher, log)
	requisitionService := service.NewRequisitionService(db, publisher, log)
	reportService := service.NewReportService(db, log)

	// Initialize handlers
	itemHandler := handler.NewItemHandler(catalogService, log)
	catalogHandler := handler.NewCatalogHandler(catalogService, log)
	lotHandler := handler.NewLotHandler(stockService, log)
	stockHandler := handler.NewStockHandler(stockService, log)
	requisitionHandler := handler.NewRequisitionHandler(requisitionService, log)
	reportHandler := handler.NewReportHandler(reportService, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID", "X-Actor-Name", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.ActorMiddleware) // Extract actor identity from headers

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "inventory-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Catalog routes
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", catalogHandler.ListCategories)
			r.Post("/", catalogHandler.CreateCategory)
			r.Get("/{id}", catalogHandler.GetCategory)
			r.Put("/{id}", catalogHandler.UpdateCategory)
			r.Delete("/{id}", catalogHandler.DeleteCategory)
		})
		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", catalogHandler.ListSuppliers)
			r.Post("/", catalogHandler.CreateSupplier)
			r.Get("/{id}", catalogHandler.GetSupplier)
			r.Put("/{id}", catalogHandler.UpdateSupplier)
			r.Delete("/{id}", catalogHandler.DeleteSupplier)
		})
		r.Route("/locations", func(r chi.Router) {
			r.Get("/", catalogHandler.ListLocations)
			r.Post("/", catalogHandler.CreateLocation)
			r.Get("/{id}", catalogHandler.GetLocation)
			r.Put("/{id}", catalogHandler.UpdateLocation)
			r.Delete("/{id}", catalogHandler.DeleteLocation)
		})

		// Item routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Create)
			r.Get("/low-stock", itemHandler.ListLowStock)
			r.Get("/{id}", itemHandler.Get)
			r.Put("/{id}", itemHandler.Update)
			r.Delete("/{id}", itemHandler.Delete)
			r.Get("/{id}/lots", lotHandler.ListByItem)
		})

		// Lot routes
		r.Route("/lots", func(r chi.Router) {
			r.Post("/", lotHandler.Create)
			r.Get("/{id}", lotHandler.Get)
			r.Put("/{id}", lotHandler.Update)
			r.Delete("/{id}", lotHandler.Delete)
			r.Post("/{id}/adjust", stockHandler.AdjustLot)
			r.Post("/{id}/discard", stockHandler.DiscardLot)
		})

		// Withdrawal routes
		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", stockHandler.PerformWithdrawal)
			r.Post("/plan", stockHandler.PlanWithdrawal)
		})

		// Movement ledger
		r.Get("/movements", stockHandler.ListMovements)

		// Requisition routes
		r.Route("/requisitions", func(r chi.Router) {
			r.Get("/", requisitionHandler.List)
			r.Post("/", requisitionHandler.Create)
			r.Get("/{id}", requisitionHandler.Get)
			r.Delete("/{id}", requisitionHandler.Delete)
			r.Post("/{id}/approve", requisitionHandler.Approve)
			r.Post("/{id}/reject", requisitionHandler.Reject)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/consumption", reportHandler.Consumption)
			r.Get("/waste-loss", reportHandler.WasteLoss)
			r.Get("/stock-value", reportHandler.StockValue)
			r.Get("/expiry-exposure", reportHandler.ExpiryExposure)
		})

		// Dashboard
		r.Get("/dashboard/summary", reportHandler.Dashboard)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
