package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"alpha-clothing/internal/config"
	custommiddleware "alpha-clothing/internal/middleware"
	"alpha-clothing/internal/notification"
	"alpha-clothing/internal/repository"
	"alpha-clothing/internal/service"
	"alpha-clothing/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config     *config.Config
	logger     *zap.Logger
	db         *sql.DB
	redis      *redis.Client
	dispatcher *notification.Dispatcher
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client, sender notification.Sender) *Server {
	// Create router
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithMessage(w, http.StatusOK, "Clothing E-commerce API is running!")
	})
	router.Get("/health", healthHandler(db))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Order confirmations are sent in the background
	dispatcher := notification.NewDispatcher(sender, userRepo, cfg.Notify, logger)
	dispatcher.Start(context.Background())

	// Initialize services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg.JWT, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, cfg.Cart.MaxRetries, logger)
	checkoutService := service.NewCheckoutService(cartRepo, productRepo, orderRepo, dispatcher, logger)
	adminService := service.NewAdminService(orderRepo, userRepo, refreshTokenRepo, logger)

	guards := transport.Guards{
		Authenticate: custommiddleware.AuthMiddleware(authService, logger),
		RequireAdmin: custommiddleware.RequireAdmin(logger),
		RateLimit:    transport.Passthrough,
	}
	if redisClient != nil {
		guards.RateLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "rate_limit",
		}, logger)
	}

	// Register routes
	router.Route("/api", func(r chi.Router) {
		transport.NewAuthHandler(authService, logger).RegisterRoutes(r, guards)
		transport.NewProductHandler(catalogService, logger).RegisterRoutes(r, guards)
		transport.NewCartHandler(cartService, logger).RegisterRoutes(r, guards)
		transport.NewOrderHandler(checkoutService, logger).RegisterRoutes(r, guards)
		transport.NewAdminHandler(adminService, logger).RegisterRoutes(r, guards)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           router,
			IdleTimeout:       time.Minute,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		config:     cfg,
		logger:     logger,
		db:         db,
		redis:      redisClient,
		dispatcher: dispatcher,
	}

	return server
}

func healthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Close drains pending notifications and releases the server's connections.
// Call it after Shutdown so no new orders are placed.
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Closing server resources")

	var errs []error
	if err := s.dispatcher.Shutdown(ctx); err != nil {
		s.logger.Error("Notification queue not drained", zap.Error(err))
		errs = append(errs, err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
			errs = append(errs, err)
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
			errs = append(errs, err)
		}
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
