package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/tikit/helpdesk-backend/internal/adapters/primary/http"
	mw "github.com/tikit/helpdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/tikit/helpdesk-backend/internal/adapters/primary/websocket"
	"github.com/tikit/helpdesk-backend/internal/adapters/secondary/mail"
	"github.com/tikit/helpdesk-backend/internal/adapters/secondary/postgres"
	"github.com/tikit/helpdesk-backend/internal/auth"
	"github.com/tikit/helpdesk-backend/internal/config"
	"github.com/tikit/helpdesk-backend/internal/core/services"
	"github.com/tikit/helpdesk-backend/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	// Apply database configuration
	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 5. Initialize Rate Limiters
	var generalRateLimiter, authRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})

		authRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.AuthRPS,
			BurstSize:         cfg.RateLimit.AuthBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
		})
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	userRepo := postgres.NewUserRepository(pool)
	groupRepo := postgres.NewGroupRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	resolverRepo := postgres.NewResolverRepository(pool)
	chatRepo := postgres.NewChatRepository(pool)
	contractRepo := postgres.NewContractRepository(pool)
	maintenanceRepo := postgres.NewMaintenanceRepository(pool)

	// Mail transport (Secondary Adapters)
	mailSender := mail.NewSMTPSender(cfg.Mail, logger)
	mailbox := mail.NewGatewayMailbox(cfg.Mail)

	// Services (Core)
	clock := services.SystemClock()
	dispatcher := services.NewNotificationService(userRepo, groupRepo, resolverRepo, mailSender, hub, cfg.App.Name, logger)
	authService := services.NewAuthService(userRepo)
	ticketService := services.NewTicketService(ticketRepo, chatRepo, dispatcher, clock, logger)
	chatService := services.NewChatService(chatRepo, ticketRepo, dispatcher, clock, logger)
	resolverService := services.NewResolverService(resolverRepo, ticketRepo, dispatcher, logger)
	maintenanceService := services.NewMaintenanceService(maintenanceRepo, clock, logger)
	mailroom := services.NewMailroom(mailbox, mailSender, userRepo, contractRepo, ticketService, chatService, services.NewMailCursor(), clock, cfg.Mail, logger)

	// Background jobs
	housekeeping := services.NewHousekeeping(ticketService, contractRepo, mailroom, *cfg, logger)
	if err := housekeeping.Start(); err != nil {
		logger.Error("failed to start housekeeping", "error", err)
		os.Exit(1)
	}

	// Handlers (Primary Adapters)
	authHandler := httpAdapter.NewAuthHandler(authService, tokenManager, errorHandler, logger)
	chatHandler := httpAdapter.NewChatHandler(chatService, userRepo, errorHandler, logger)
	resolverHandler := httpAdapter.NewResolverHandler(resolverService, errorHandler, logger)
	ticketHandler := httpAdapter.NewTicketHandler(ticketService, chatHandler, resolverHandler, errorHandler, logger)
	maintenanceHandler := httpAdapter.NewMaintenanceHandler(maintenanceService, errorHandler, logger)
	meHandler := httpAdapter.NewMeHandler(userRepo, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, userRepo, chatService, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(pool, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with stricter rate limiting
		r.Group(func(r chi.Router) {
			if authRateLimiter != nil {
				r.Use(authRateLimiter.Middleware)
			}
			r.Route("/auth", authHandler.RegisterRoutes)
		})

		// WebSocket route (Authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Protected REST routes
		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokenManager))
			r.Route("/tickets", ticketHandler.RegisterRoutes)
			r.Route("/maintenance-windows", maintenanceHandler.RegisterRoutes)
			r.Route("/me", meHandler.RegisterRoutes)
		})
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop the cron jobs before the HTTP listener so no new work starts.
	housekeeping.Stop()

	// Graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	// Drain in-flight notification deliveries.
	ticketService.Shutdown()
	resolverService.Shutdown()

	logger.Info("server shutdown complete")
}
