package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"studygenie/internal/api"
	"studygenie/internal/api/handlers"
	"studygenie/internal/repository"
	"studygenie/internal/service"
	"studygenie/internal/worker"
	"studygenie/pkg/auth"
	"studygenie/pkg/config"
	"studygenie/pkg/logger"
	"studygenie/pkg/postgres"

	"go.uber.org/zap"
)

// @title StudyGenie API
// @version 1.0
// @description AI-powered study assistant: upload documents, get summaries, quizzes, flashcards and a document tutor
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@studygenie.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting StudyGenie service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, &cfg.Database, appLogger); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)
	chatRepo := repository.NewChatRepository(db, appLogger)

	// Artifacts left running by a previous process would otherwise stay
	// running forever.
	if err := docRepo.FailStaleRunning(ctx); err != nil {
		appLogger.Fatal("Failed to reset stale artifact statuses", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	llmService := service.NewLLMService(&cfg.OpenAI, appLogger)
	extractorService := service.NewExtractorService(appLogger)
	artifactService := service.NewArtifactService(llmService, &cfg.Generation, appLogger)

	pool := worker.NewPool(docRepo, artifactService, cfg.Scheduler.Workers, cfg.Scheduler.QueueSize, appLogger)

	docService := service.NewDocumentService(docRepo, extractorService, pool, appLogger)
	chatService := service.NewChatService(docRepo, chatRepo, llmService, &cfg.Generation, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	docHandler := handlers.NewDocumentHandler(docService, appLogger)
	chatHandler := handlers.NewChatHandler(chatService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, docHandler, chatHandler, jwtManager, appLogger)

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
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
	pool.Stop()
}
