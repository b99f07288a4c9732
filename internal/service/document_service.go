package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studygenie/internal/models"
	"studygenie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService owns the ingestion flow: extract on the request path,
// persist, then hand the three artifact jobs to the scheduler. Nothing is
// persisted for a document whose extraction failed.
type DocumentService struct {
	store     DocumentStore
	extractor Extractor
	scheduler Scheduler
	logger    *zap.Logger
}

func NewDocumentService(store DocumentStore, extractor Extractor, scheduler Scheduler, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		store:     store,
		extractor: extractor,
		scheduler: scheduler,
		logger:    logger,
	}
}

func (s *DocumentService) Upload(ctx context.Context, userID uuid.UUID, data []byte, filename, mediaType string) (*models.Document, error) {
	text, err := s.extractor.ExtractText(data, mediaType)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("%w: no text could be extracted", ErrCorruptDocument)
	}

	doc := &models.Document{
		ID:               uuid.New(),
		UserID:           userID,
		Filename:         filename,
		MediaType:        mediaType,
		FileSize:         int64(len(data)),
		RawText:          text,
		Status:           models.DocumentStatusExtracted,
		SummaryStatus:    models.ArtifactNotStarted,
		QuizStatus:       models.ArtifactNotStarted,
		FlashcardsStatus: models.ArtifactNotStarted,
		UploadedAt:       time.Now(),
	}

	if err := s.store.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	// Generation runs off the request path; the upload response does not
	// wait for it.
	rejected := false
	for _, kind := range models.ArtifactKinds {
		if s.scheduler.Submit(doc.ID, userID, kind) {
			setArtifactStatus(doc, kind, models.ArtifactRunning)
		} else {
			rejected = true
		}
	}

	// A rejected submit has already recorded its failure in the store;
	// re-read so the response carries those cells instead of not_started.
	if rejected {
		if fresh, err := s.store.GetByID(ctx, userID, doc.ID); err == nil {
			doc = fresh
		}
	}

	s.logger.Info("Document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("filename", filename),
		zap.Int("text_length", len(text)),
	)

	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Document, error) {
	doc, err := s.store.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error) {
	return s.store.ListByUserID(ctx, userID, limit, offset)
}

// Regenerate re-runs one artifact. Rejected while a run for that cell is
// in flight; a failed or ready cell goes back to running.
func (s *DocumentService) Regenerate(ctx context.Context, userID, id uuid.UUID, kind models.ArtifactKind) error {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	status, _ := doc.ArtifactState(kind)
	if status == "" {
		return fmt.Errorf("unknown artifact kind: %s", kind)
	}
	if status == models.ArtifactRunning {
		return ErrGenerationInProgress
	}

	if !s.scheduler.Submit(id, userID, kind) {
		return ErrGenerationInProgress
	}

	s.logger.Info("Artifact regeneration requested",
		zap.String("document_id", id.String()),
		zap.String("kind", string(kind)),
	)
	return nil
}

func setArtifactStatus(doc *models.Document, kind models.ArtifactKind, status models.ArtifactStatus) {
	switch kind {
	case models.ArtifactSummary:
		doc.SummaryStatus = status
	case models.ArtifactQuiz:
		doc.QuizStatus = status
	case models.ArtifactFlashcards:
		doc.FlashcardsStatus = status
	}
}
