package main

import (
	"context"
	"log"
	"time"

	"studygenie/internal/models"
	"studygenie/internal/repository"
	"studygenie/pkg/auth"
	"studygenie/pkg/config"
	"studygenie/pkg/logger"
	"studygenie/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	demoEmail    = "demo@studygenie.app"
	demoUsername = "demo"
	demoPassword = "demo12345"
)

const demoText = `Photosynthesis is the process by which green plants and some other
organisms use sunlight to synthesize foods from carbon dioxide and water.
It occurs in the chloroplasts and produces oxygen as a byproduct. The light
reactions capture energy in ATP and NADPH, while the Calvin cycle fixes
carbon dioxide into glucose.`

// Seeds a demo account with one pre-extracted document so the API is
// explorable without uploading anything.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, &cfg.Database, appLogger); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)

	appLogger.Info("Starting database seeding...")

	user, err := userRepo.GetByEmail(ctx, demoEmail)
	if err == nil {
		appLogger.Info("Demo user already exists", zap.String("email", demoEmail))
	} else {
		hashed, err := auth.HashPassword(demoPassword)
		if err != nil {
			appLogger.Fatal("Failed to hash demo password", zap.Error(err))
		}

		now := time.Now()
		user = &models.User{
			ID:        uuid.New(),
			Username:  demoUsername,
			Email:     demoEmail,
			Password:  hashed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			appLogger.Fatal("Failed to create demo user", zap.Error(err))
		}
		appLogger.Info("Created demo user", zap.String("email", demoEmail))
	}

	docs, err := docRepo.ListByUserID(ctx, user.ID, 1, 0)
	if err != nil {
		appLogger.Fatal("Failed to list demo documents", zap.Error(err))
	}
	if len(docs) > 0 {
		appLogger.Info("Demo document already exists")
		appLogger.Info("Database seeding completed successfully!")
		return
	}

	doc := &models.Document{
		ID:               uuid.New(),
		UserID:           user.ID,
		Filename:         "photosynthesis.pdf",
		MediaType:        "application/pdf",
		FileSize:         int64(len(demoText)),
		RawText:          demoText,
		Status:           models.DocumentStatusExtracted,
		SummaryStatus:    models.ArtifactNotStarted,
		QuizStatus:       models.ArtifactNotStarted,
		FlashcardsStatus: models.ArtifactNotStarted,
		UploadedAt:       time.Now(),
	}
	if err := docRepo.Create(ctx, doc); err != nil {
		appLogger.Fatal("Failed to create demo document", zap.Error(err))
	}

	appLogger.Info("Created demo document", zap.String("document_id", doc.ID.String()))
	appLogger.Info("Database seeding completed successfully!")
}
