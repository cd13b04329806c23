// File: cmd/server/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iyunix/go-converse/internal/auth"
	"github.com/iyunix/go-converse/internal/config"
	"github.com/iyunix/go-converse/internal/handlers"
	"github.com/iyunix/go-converse/internal/metrics"
	"github.com/iyunix/go-converse/internal/middleware"
	"github.com/iyunix/go-converse/internal/ratelimit"
	"github.com/iyunix/go-converse/internal/repository"
	"github.com/iyunix/go-converse/internal/repository/user"
	"github.com/iyunix/go-converse/internal/services"
	"github.com/iyunix/go-converse/internal/services/ai"
	chatservice "github.com/iyunix/go-converse/internal/services/chat"
	"github.com/iyunix/go-converse/internal/services/user_services"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, db)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		log.Info().Str("database", cfg.DatabasePath).Msg("schema is up to date")
		return closeDB(db)
	},
}

// bootstrap loads configuration, configures logging and opens a migrated database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log.Logger = services.ConfigureGlobal(cfg.Environment, cfg.LogLevel)

	gormLevel := gormlogger.Warn
	if cfg.IsProduction() {
		gormLevel = gormlogger.Error
	}
	db, err := repository.Open(cfg.DatabasePath, gormLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := repository.Migrate(db); err != nil {
		_ = closeDB(db)
		return nil, nil, fmt.Errorf("migrating database: %w", err)
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func serve(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	defer closeDB(db)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Gateway ---
	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.OpenAIAPIKey
	aiConfig.BaseURL = cfg.OpenAIBaseURL
	aiConfig.Model = cfg.ChatModel
	aiConfig.Temperature = cfg.ChatTemperature
	aiConfig.MaxTokens = cfg.ChatMaxTokens
	aiConfig.Timeout = cfg.AITimeout
	if err := aiConfig.Validate(); err != nil {
		log.Warn().Err(err).Msg("AI gateway is not configured; chat requests will fail")
	}
	gateway := ai.NewOpenAIProvider(aiConfig)

	// --- Services ---
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.NewMetrics()
	}

	chatConfig := chatservice.DefaultConfig()
	chatConfig.Model = cfg.ChatModel
	chatConfig.Temperature = cfg.ChatTemperature
	chatConfig.MaxTokens = cfg.ChatMaxTokens
	chatConfig.HistoryLimit = cfg.ChatHistoryLimit
	chatConfig.GatewayTimeout = cfg.AITimeout

	chatService, err := services.NewChatService(db, gateway, chatConfig, m, services.NewLogger("chat"))
	if err != nil {
		return fmt.Errorf("initializing chat service: %w", err)
	}
	userService := user_services.NewUserService(user.NewGormUserRepository(db), services.NewLogger("users"))

	verifier, err := auth.NewVerifier([]byte(cfg.IdentityJWTSecret), cfg.IdentityIssuer)
	if err != nil {
		return fmt.Errorf("initializing identity verifier: %w", err)
	}

	limiter := ratelimit.NewMemoryRateLimiter(ratelimit.ChatConfig(cfg.ChatRateLimit, cfg.ChatRateWindow))
	defer limiter.Close()

	// --- Router Setup ---
	r := mux.NewRouter()
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware(log.Logger, m))

	r.HandleFunc("/health", handlers.NewHealthHandler(chatService).Health).Methods(http.MethodGet)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.NewAuthMiddleware(verifier, userService))
	handlers.RegisterChatRoutes(api,
		handlers.NewChatHandler(chatService, chatService),
		handlers.NewProjectHandler(chatService),
		middleware.RateLimitMiddleware(limiter, "chat", m),
	)

	// Gateway calls can take up to AITimeout, so the write deadline must outlast them.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.AITimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Environment).Str("model", cfg.ChatModel).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
