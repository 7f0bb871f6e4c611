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
	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/internal/stock/events"
	"github.com/quantscan/quantscan-backend/internal/stock/handler"
	"github.com/quantscan/quantscan-backend/internal/stock/repository"
	"github.com/quantscan/quantscan-backend/internal/stock/service"
	"github.com/quantscan/quantscan-backend/pkg/actor"
	"github.com/quantscan/quantscan-backend/pkg/auth"
	"github.com/quantscan/quantscan-backend/pkg/config"
	"github.com/quantscan/quantscan-backend/pkg/database"
	"github.com/quantscan/quantscan-backend/pkg/httputil"
	"github.com/quantscan/quantscan-backend/pkg/logger"
	"github.com/quantscan/quantscan-backend/pkg/messaging"
)

const serviceName = "scan-service"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Scan Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	startupCtx := actor.WithActor(context.Background(), actor.System(cfg.Scan.DefaultCompanyID))

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(startupCtx, repository.Migrations()); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	sequenceRepo := repository.NewSequenceRepository(db)
	if err := sequenceRepo.Ensure(startupCtx, &domain.Sequence{
		Code:       cfg.Scan.SequenceCode,
		Prefix:     "PKG",
		Padding:    7,
		NumberNext: 1,
	}); err != nil {
		log.Fatal().Err(err).Str("code", cfg.Scan.SequenceCode).Msg("failed to ensure barcode sequence")
	}

	// Events are optional; a nil publisher drops them
	var (
		rmq       *messaging.RabbitMQ
		publisher *events.StockEventPublisher
	)
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
		log.Warn().Msg("RabbitMQ disabled, stock events will not be published")
	}

	// Initialize repositories
	quantRepo := repository.NewQuantRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	parameterRepo := repository.NewParameterRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	// Initialize services
	barcodeService := service.NewBarcodeService(quantRepo, sequenceRepo, db, publisher, cfg.Scan.SequenceCode, log)
	quantService := service.NewQuantService(quantRepo, adjustmentRepo, barcodeService, db, publisher, cfg.Scan.DefaultCompanyID, log)
	scanService := service.NewScanService(quantRepo, parameterRepo, quantService, publisher, service.ScanConfig{
		TokenParameter:   cfg.Scan.TokenParameter,
		TokenCacheTTL:    cfg.Scan.TokenCacheTTL,
		DefaultCompanyID: cfg.Scan.DefaultCompanyID,
	}, log)
	printService := service.NewPrintService(quantRepo, catalogRepo, barcodeService, cfg.Scan.DefaultCompanyID, log)
	reportService := service.NewReportService(quantRepo)

	tokens := auth.NewManager(&cfg.JWT)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	// Browser based scanner pages post from other origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		rabbit := map[string]string{"status": "disabled"}
		if rmq != nil {
			rabbit = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"rabbitmq": rabbit,
		})
	})

	if cfg.Scan.DebugTokenEndpoint {
		log.Warn().Msg("scan token debug endpoint is enabled")
	}

	handler.Routes(r, handler.Handlers{
		Scan:   handler.NewScanHandler(scanService, log),
		Quant:  handler.NewQuantHandler(quantService, barcodeService, log),
		Print:  handler.NewPrintHandler(printService, log),
		Report: handler.NewReportHandler(reportService, log),
	}, handler.RouteOptions{
		Authenticate:       httputil.Authenticate(tokens, cfg.Scan.DefaultCompanyID, log),
		DebugTokenEndpoint: cfg.Scan.DebugTokenEndpoint,
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
