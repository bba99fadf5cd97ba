package server

import (
	"fmt"
	"net/http"
	"time"

	"fitbook/internal/config"
	"fitbook/internal/currency"
	"fitbook/internal/database"
	custommiddleware "fitbook/internal/middleware"
	"fitbook/internal/repository"
	"fitbook/internal/service"
	"fitbook/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *database.Service
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Throttle the whole API surface; the limiter fails open when Redis
	// is unreachable.
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 300,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:api",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"database": db.Health(),
		})
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB())
	refreshTokenRepo := repository.NewRefreshTokenRepository(db.DB())
	itemRepo := repository.NewWardrobeItemRepository(db.DB())
	outfitRepo := repository.NewOutfitRepository(db.DB())

	// Currency conversion service
	converter := currency.NewConverter(currency.Config{
		APIURL:      cfg.Exchange.APIURL,
		CacheTTL:    cfg.Exchange.CacheTTL,
		HTTPTimeout: cfg.Exchange.HTTPTimeout,
	}, logger)

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	wardrobeService := service.NewWardrobeService(itemRepo)
	outfitService := service.NewOutfitService(outfitRepo, itemRepo, converter, logger)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	wardrobeHandler := transport.NewWardrobeHandler(wardrobeService, logger)
	outfitHandler := transport.NewOutfitHandler(outfitService, userService, logger)
	currencyHandler := transport.NewCurrencyHandler(converter, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware)
	wardrobeHandler.RegisterRoutes(router, authMiddleware)
	outfitHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	currencyHandler.RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
