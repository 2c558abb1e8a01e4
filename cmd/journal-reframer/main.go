package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journal-reframer/internal/api"
	"journal-reframer/internal/api/handlers"
	"journal-reframer/internal/docx"
	"journal-reframer/internal/repository"
	"journal-reframer/internal/service"
	"journal-reframer/pkg/auth"
	"journal-reframer/pkg/cache"
	"journal-reframer/pkg/config"
	"journal-reframer/pkg/llm"
	"journal-reframer/pkg/logger"
	"journal-reframer/pkg/mailer"
	"journal-reframer/pkg/postgres"

	"go.uber.org/zap"
)

// @title Journal Reframer API
// @version 1.0
// @description Turns an uploaded .docx draft into a formatted reflective journal, behind account approval.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@aurora.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			appLogger.Error("Invalid configuration", zap.Error(e))
		}
		appLogger.Fatal("Refusing to start with invalid configuration")
	}
	appLogger.Info("Starting Journal Reframer service", zap.String("llm_provider", cfg.LLM.Provider))

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db, appLogger)

	views, closeViews := newViewCache(ctx, &cfg.Redis, appLogger)
	defer closeViews()

	generator, err := newGenerator(ctx, &cfg.LLM, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM provider", zap.Error(err))
	}
	defer generator.Close()

	mail, err := newMailer(&cfg.Mail, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp, cfg.JWT.ResetExp)
	validate := service.NewValidator()

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, mail, validate, cfg.Mail.ResetURL, cfg.Admin.Email, logger.Component("auth"))
	accountService := service.NewAccountService(userRepo, views, logger.Component("accounts"))
	workspaceService := service.NewWorkspaceService(userRepo, views, cfg.Admin.Email, logger.Component("workspace"))
	rephraseService := service.NewRephraseService(generator, validate, logger.Component("rephrase"))
	builder := service.NewJournalBuilder(cfg.Journal.HeaderImagePath, logger.Component("builder"))
	journalService := service.NewJournalService(
		validate,
		docx.ExtractText,
		rephraseService,
		builder,
		views,
		cfg.Journal.MaxUploadBytes,
		logger.Component("journal"),
	)

	// Setup router
	app := api.SetupRouter(api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, appLogger),
		Journal:   handlers.NewJournalHandler(journalService, appLogger),
		Workspace: handlers.NewWorkspaceHandler(workspaceService, appLogger),
		Admin:     handlers.NewAdminHandler(accountService, appLogger),
	}, jwtManager, workspaceService, api.Options{
		AdminEmail: cfg.Admin.Email,
		BodyLimit:  cfg.Server.BodyLimit,
	}, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := accountService.Wait(drainCtx); err != nil {
		appLogger.Warn("Pending status changes did not finish", zap.Error(err))
	}
}

func newGenerator(ctx context.Context, cfg *config.LLMConfig, appLogger *zap.Logger) (llm.StructuredGenerator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAICompat(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.Model, cfg.OpenAI.Timeout, appLogger), nil
	case config.ProviderGigaChat:
		g, err := llm.NewGigaChat(ctx, llm.GigaChatConfig{
			APIKey:             cfg.GigaChat.APIKey,
			Scope:              cfg.GigaChat.Scope,
			Model:              cfg.Model,
			InsecureSkipVerify: cfg.GigaChat.InsecureSkipVerify,
		}, appLogger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// newViewCache uses Redis when configured and falls back to no caching.
func newViewCache(ctx context.Context, cfg *config.RedisConfig, appLogger *zap.Logger) (cache.ViewCache, func()) {
	if cfg.Addr == "" {
		appLogger.Info("REDIS_ADDR not set, workspace views are not cached")
		return cache.Nop{}, func() {}
	}
	rc, err := cache.NewRedisViewCache(ctx, cfg.Addr, cfg.Password, cfg.DB, "", cfg.ViewTTL)
	if err != nil {
		appLogger.Warn("Redis unavailable, workspace views are not cached", zap.String("addr", cfg.Addr), zap.Error(err))
		return cache.Nop{}, func() {}
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			appLogger.Warn("Failed to close view cache", zap.Error(err))
		}
	}
}

func newMailer(cfg *config.MailConfig, appLogger *zap.Logger) (mailer.Mailer, error) {
	if cfg.SendGridAPIKey == "" {
		appLogger.Warn("SENDGRID_API_KEY not set, password reset emails are only logged")
		return mailer.NewLog(appLogger), nil
	}
	sg, err := mailer.NewSendGrid(mailer.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		BaseURL:   cfg.BaseURL,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
	}, appLogger)
	if err != nil {
		return nil, err
	}
	return sg, nil
}
