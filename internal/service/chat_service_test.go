package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"studygenie/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type memoryChatStore struct {
	messages  []*models.ChatMessage
	createErr error
}

func (m *memoryChatStore) Create(_ context.Context, msg *models.ChatMessage) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memoryChatStore) ListByDocument(_ context.Context, _, documentID uuid.UUID, _ int) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	for _, msg := range m.messages {
		if msg.DocumentID == documentID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func seedChatDocument(store *memoryStore, text string) *models.Document {
	doc := &models.Document{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		RawText: text,
	}
	store.docs[doc.ID] = doc
	return doc
}

func TestAnswerEmbedsDocumentText(t *testing.T) {
	store := newMemoryStore()
	chats := &memoryChatStore{}
	llm := &fakeCompleter{responses: []string{"because chlorophyll absorbs light"}}
	svc := NewChatService(store, chats, llm, testGenConfig(), zap.NewNop())

	doc := seedChatDocument(store, "chlorophyll absorbs red and blue light")

	got, err := svc.Answer(context.Background(), doc.UserID, doc.ID, "why are leaves green?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "because chlorophyll absorbs light" {
		t.Errorf("Answer() = %q", got)
	}

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "chlorophyll absorbs red and blue light") {
		t.Error("prompt does not embed the document text")
	}
	if !strings.Contains(prompt, "why are leaves green?") {
		t.Error("prompt does not embed the question")
	}
}

func TestAnswerIsStatelessAcrossDocuments(t *testing.T) {
	store := newMemoryStore()
	llm := &fakeCompleter{responses: []string{"a1", "a2"}}
	svc := NewChatService(store, &memoryChatStore{}, llm, testGenConfig(), zap.NewNop())

	docA := seedChatDocument(store, "document alpha content")
	docB := seedChatDocument(store, "document beta content")

	if _, err := svc.Answer(context.Background(), docA.UserID, docA.ID, "same question"); err != nil {
		t.Fatalf("Answer(A) error = %v", err)
	}
	if _, err := svc.Answer(context.Background(), docB.UserID, docB.ID, "same question"); err != nil {
		t.Fatalf("Answer(B) error = %v", err)
	}

	if strings.Contains(llm.prompts[1], "alpha") {
		t.Error("second prompt leaks the first document's content")
	}
	if strings.Contains(llm.prompts[1], "a1") {
		t.Error("second prompt leaks the first exchange")
	}
}

func TestAnswerUnknownDocument(t *testing.T) {
	svc := NewChatService(newMemoryStore(), &memoryChatStore{}, &fakeCompleter{}, testGenConfig(), zap.NewNop())

	_, err := svc.Answer(context.Background(), uuid.New(), uuid.New(), "hello?")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("Answer() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestAnswerPersistFailureStillAnswers(t *testing.T) {
	store := newMemoryStore()
	chats := &memoryChatStore{createErr: errors.New("disk full")}
	llm := &fakeCompleter{responses: []string{"still answered"}}
	svc := NewChatService(store, chats, llm, testGenConfig(), zap.NewNop())

	doc := seedChatDocument(store, "content")

	got, err := svc.Answer(context.Background(), doc.UserID, doc.ID, "q")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if got != "still answered" {
		t.Errorf("Answer() = %q", got)
	}
}

func TestHistoryScopedToOwner(t *testing.T) {
	store := newMemoryStore()
	chats := &memoryChatStore{}
	llm := &fakeCompleter{responses: []string{"answer"}}
	svc := NewChatService(store, chats, llm, testGenConfig(), zap.NewNop())

	doc := seedChatDocument(store, "content")
	if _, err := svc.Answer(context.Background(), doc.UserID, doc.ID, "q"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	history, err := svc.History(context.Background(), doc.UserID, doc.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].Message != "q" {
		t.Errorf("history = %+v, want the one exchange", history)
	}

	if _, err := svc.History(context.Background(), uuid.New(), doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("stranger History() error = %v, want ErrDocumentNotFound", err)
	}
}
