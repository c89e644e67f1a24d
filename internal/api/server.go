package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/freightops/load-ledger-api/internal/clients"
	"github.com/freightops/load-ledger-api/internal/config"
	"github.com/freightops/load-ledger-api/internal/events"
	"github.com/freightops/load-ledger-api/internal/service"
	"github.com/freightops/load-ledger-api/internal/store"
	"github.com/freightops/load-ledger-api/pkg/logger"
	"github.com/freightops/load-ledger-api/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Server wires the ledger, services and HTTP surface together
type Server struct {
	config      *config.Config
	logger      logger.Logger
	router      *mux.Router
	httpServer  *http.Server
	shipments   *service.ShipmentService
	calls       *service.CallService
	fmcsa       *clients.FMCSAClient
	publisher   events.Publisher
	rateLimiter *middleware.RateLimiterMiddleware
}

// NewServer creates a new API server with the given configuration and logger
func NewServer(cfg *config.Config, logger logger.Logger) *Server {
	r := mux.NewRouter()

	ledger := store.NewLedgerStore(logger)

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.LoadsTopic, logger)
		if err != nil {
			// Event publishing is best-effort; the ledger works without it
			logger.Error("Failed to create Kafka publisher, events disabled", "error", err)
		} else {
			publisher = kafkaPublisher
		}
	}

	shipmentService := service.NewShipmentService(ledger, publisher, logger)
	callService := service.NewCallService(ledger, publisher, logger)
	fmcsaClient := clients.NewFMCSAClient(cfg.FMCSA.BaseURL, cfg.FMCSA.WebKey, logger)

	rateLimiter := middleware.NewRateLimiterMiddleware(&middleware.RateLimiterConfig{
		GlobalMaxTokens:   cfg.RateLimit.GlobalMaxTokens,
		GlobalRefillRate:  cfg.RateLimit.GlobalRefill,
		IPMaxTokens:       cfg.RateLimit.IPMaxTokens,
		IPRefillRate:      cfg.RateLimit.IPRefill,
		TrustForwardedFor: true,
	}, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-API-Key"},
		AllowCredentials: true,
	})

	server := &Server{
		config: cfg,
		logger: logger,
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      corsHandler.Handler(r),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		shipments:   shipmentService,
		calls:       callService,
		fmcsa:       fmcsaClient,
		publisher:   publisher,
		rateLimiter: rateLimiter,
	}

	server.setupRoutes()

	return server
}

// Shipments exposes the shipment service for startup seeding and jobs
func (s *Server) Shipments() *service.ShipmentService {
	return s.shipments
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()

	if err := s.publisher.Close(); err != nil {
		s.logger.Error("Error closing event publisher", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for the API
func (s *Server) setupRoutes() {
	auth := middleware.NewAPIKeyMiddleware(s.config.APIKey, []string{"/health", "/debug"}, s.logger)

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimiter.Middleware)
	s.router.Use(auth.Middleware)

	s.router.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/debug", s.debugHandler).Methods(http.MethodGet)

	// Literal routes must be registered before the {identifier} routes
	s.router.HandleFunc("/shipments/stats", s.getStatsHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/shipments/random", s.getRandomShipmentHandler).Methods(http.MethodGet)

	s.router.HandleFunc("/shipments", s.getShipmentsHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/shipments", s.createShipmentHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/shipments/{identifier}", s.getShipmentHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/shipments/{identifier}", s.updateShipmentHandler).Methods(http.MethodPatch)
	s.router.HandleFunc("/shipments/{identifier}/manual", s.updateShipmentManualHandler).Methods(http.MethodPatch)
	s.router.HandleFunc("/shipments/{identifier}", s.deleteShipmentHandler).Methods(http.MethodDelete)

	s.router.HandleFunc("/shipments/{identifier}/phone-calls", s.addCallHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/shipments/{identifier}/phone-calls", s.getCallsHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/shipments/{identifier}/phone-calls", s.clearCallsHandler).Methods(http.MethodDelete)
	s.router.HandleFunc("/phone-calls", s.getAllCallsHandler).Methods(http.MethodGet)

	s.router.HandleFunc("/carriers/{docket}", s.getCarrierHandler).Methods(http.MethodGet)
}

// loggingMiddleware logs every processed request
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}
