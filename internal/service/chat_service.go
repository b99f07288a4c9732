package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studygenie/internal/models"
	"studygenie/internal/repository"
	"studygenie/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatService answers questions about one document. Each call is
// independent: the prompt contains a bounded window of the document text
// and the user message, never prior exchanges.
type ChatService struct {
	store  DocumentStore
	chats  ChatStore
	llm    Completer
	cfg    *config.GenerationConfig
	logger *zap.Logger
}

func NewChatService(store DocumentStore, chats ChatStore, llm Completer, cfg *config.GenerationConfig, logger *zap.Logger) *ChatService {
	return &ChatService{
		store:  store,
		chats:  chats,
		llm:    llm,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *ChatService) Answer(ctx context.Context, userID, documentID uuid.UUID, message string) (string, error) {
	doc, err := s.store.GetByID(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrDocumentNotFound
		}
		return "", err
	}

	prompt := buildTutorPrompt(doc.RawText, message)

	response, err := s.llm.Complete(ctx, prompt, s.cfg.MaxTokens)
	if err != nil {
		return "", err
	}

	// Persisted for the history view only; failures here don't lose the
	// answer.
	exchange := &models.ChatMessage{
		ID:         uuid.New(),
		DocumentID: documentID,
		UserID:     userID,
		Message:    message,
		Response:   response,
		CreatedAt:  time.Now(),
	}
	if err := s.chats.Create(ctx, exchange); err != nil {
		s.logger.Warn("Failed to persist chat exchange",
			zap.String("document_id", documentID.String()),
			zap.Error(err),
		)
	}

	return response, nil
}

func (s *ChatService) History(ctx context.Context, userID, documentID uuid.UUID) ([]*models.ChatMessage, error) {
	if _, err := s.store.GetByID(ctx, userID, documentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return s.chats.ListByDocument(ctx, userID, documentID, 100)
}

func buildTutorPrompt(rawText, message string) string {
	return fmt.Sprintf(`You are an AI tutor helping a student understand their study material. Answer the question based on the provided document content. Be helpful, clear, and educational.

Document content:
%s

Question: %s`, truncate(rawText, contentWindow), message)
}
