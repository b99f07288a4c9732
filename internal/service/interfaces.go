package service

import (
	"context"

	"studygenie/internal/models"

	"github.com/google/uuid"
)

// Completer is the prompt-in/text-out contract to the generative model.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// DocumentStore is the ownership-scoped persistence surface used by the
// services. Every read and write is filtered to one owner's documents.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Document, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error)
	SetArtifactStatus(ctx context.Context, id uuid.UUID, kind models.ArtifactKind, status models.ArtifactStatus, reason string) error
}

// ChatStore persists tutor exchanges for the history endpoint.
type ChatStore interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByDocument(ctx context.Context, userID, documentID uuid.UUID, limit int) ([]*models.ChatMessage, error)
}

// Scheduler dispatches artifact generation off the request path.
// Submit reports false when a job for that (document, kind) is already
// running or queued.
type Scheduler interface {
	Submit(documentID, userID uuid.UUID, kind models.ArtifactKind) bool
}

// Extractor turns uploaded bytes plus a declared media type into plain text.
type Extractor interface {
	ExtractText(data []byte, mediaType string) (string, error)
}
