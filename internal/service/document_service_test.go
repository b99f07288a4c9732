package service

import (
	"context"
	"errors"
	"testing"

	"studygenie/internal/models"
	"studygenie/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type memoryStore struct {
	docs      map[uuid.UUID]*models.Document
	createErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[uuid.UUID]*models.Document)}
}

func (m *memoryStore) Create(_ context.Context, doc *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *memoryStore) GetByID(_ context.Context, userID, id uuid.UUID) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (m *memoryStore) ListByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range m.docs {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memoryStore) SetArtifactStatus(_ context.Context, id uuid.UUID, kind models.ArtifactKind, status models.ArtifactStatus, reason string) error {
	doc, ok := m.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch kind {
	case models.ArtifactSummary:
		doc.SummaryStatus, doc.SummaryError = status, reason
	case models.ArtifactQuiz:
		doc.QuizStatus, doc.QuizError = status, reason
	case models.ArtifactFlashcards:
		doc.FlashcardsStatus, doc.FlashcardsError = status, reason
	}
	return nil
}

type fakeScheduler struct {
	submitted []models.ArtifactKind
	accept    bool
}

func (f *fakeScheduler) Submit(_, _ uuid.UUID, kind models.ArtifactKind) bool {
	f.submitted = append(f.submitted, kind)
	return f.accept
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(_ []byte, _ string) (string, error) {
	return f.text, f.err
}

func TestUploadSchedulesAllArtifacts(t *testing.T) {
	store := newMemoryStore()
	sched := &fakeScheduler{accept: true}
	svc := NewDocumentService(store, &fakeExtractor{text: "extracted text"}, sched, zap.NewNop())

	userID := uuid.New()
	doc, err := svc.Upload(context.Background(), userID, []byte("pdf bytes"), "notes.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if doc.RawText != "extracted text" {
		t.Errorf("raw text = %q", doc.RawText)
	}
	if doc.Status != models.DocumentStatusExtracted {
		t.Errorf("status = %q, want extracted", doc.Status)
	}
	if len(sched.submitted) != 3 {
		t.Fatalf("scheduled %d jobs, want 3", len(sched.submitted))
	}
	for _, kind := range models.ArtifactKinds {
		if status, _ := doc.ArtifactState(kind); status != models.ArtifactRunning {
			t.Errorf("%s status = %q, want running", kind, status)
		}
	}
	if _, ok := store.docs[doc.ID]; !ok {
		t.Error("document was not persisted")
	}
}

// saturatedScheduler mimics the pool under queue overflow: the failure is
// written through the store before Submit reports false.
type saturatedScheduler struct {
	store *memoryStore
}

func (s *saturatedScheduler) Submit(documentID, _ uuid.UUID, kind models.ArtifactKind) bool {
	s.store.SetArtifactStatus(context.Background(), documentID, kind, models.ArtifactFailed, "generation queue full")
	return false
}

func TestUploadReportsQueueOverflow(t *testing.T) {
	store := newMemoryStore()
	svc := NewDocumentService(store, &fakeExtractor{text: "extracted text"}, &saturatedScheduler{store: store}, zap.NewNop())

	doc, err := svc.Upload(context.Background(), uuid.New(), []byte("pdf"), "notes.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	for _, kind := range models.ArtifactKinds {
		status, reason := doc.ArtifactState(kind)
		if status != models.ArtifactFailed {
			t.Errorf("%s status = %q, want failed", kind, status)
		}
		if reason != "generation queue full" {
			t.Errorf("%s reason = %q, want %q", kind, reason, "generation queue full")
		}
	}
}

func TestUploadExtractionFailurePersistsNothing(t *testing.T) {
	store := newMemoryStore()
	sched := &fakeScheduler{accept: true}
	svc := NewDocumentService(store, &fakeExtractor{err: ErrCorruptDocument}, sched, zap.NewNop())

	_, err := svc.Upload(context.Background(), uuid.New(), []byte("junk"), "broken.pdf", "application/pdf")
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("Upload() error = %v, want ErrCorruptDocument", err)
	}
	if len(store.docs) != 0 {
		t.Error("document persisted despite extraction failure")
	}
	if len(sched.submitted) != 0 {
		t.Error("jobs scheduled despite extraction failure")
	}
}

func TestUploadEmptyTextIsCorrupt(t *testing.T) {
	svc := NewDocumentService(newMemoryStore(), &fakeExtractor{text: ""}, &fakeScheduler{accept: true}, zap.NewNop())

	_, err := svc.Upload(context.Background(), uuid.New(), []byte("img"), "blank.png", "image/png")
	if !errors.Is(err, ErrCorruptDocument) {
		t.Fatalf("Upload() error = %v, want ErrCorruptDocument", err)
	}
}

func TestGetScopedToOwner(t *testing.T) {
	store := newMemoryStore()
	svc := NewDocumentService(store, &fakeExtractor{text: "text"}, &fakeScheduler{accept: true}, zap.NewNop())

	owner := uuid.New()
	doc, err := svc.Upload(context.Background(), owner, []byte("b"), "a.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if _, err := svc.Get(context.Background(), owner, doc.ID); err != nil {
		t.Errorf("owner Get() error = %v", err)
	}

	// Another user must see not-found, not forbidden.
	if _, err := svc.Get(context.Background(), uuid.New(), doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("stranger Get() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestRegenerateRejectsRunningArtifact(t *testing.T) {
	store := newMemoryStore()
	sched := &fakeScheduler{accept: true}
	svc := NewDocumentService(store, &fakeExtractor{text: "text"}, sched, zap.NewNop())

	owner := uuid.New()
	doc, err := svc.Upload(context.Background(), owner, []byte("b"), "a.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	err = svc.Regenerate(context.Background(), owner, doc.ID, models.ArtifactQuiz)
	if !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("Regenerate() on running cell error = %v, want ErrGenerationInProgress", err)
	}
}

func TestRegenerateFailedArtifact(t *testing.T) {
	store := newMemoryStore()
	sched := &fakeScheduler{accept: true}
	svc := NewDocumentService(store, &fakeExtractor{text: "text"}, sched, zap.NewNop())

	owner := uuid.New()
	doc, err := svc.Upload(context.Background(), owner, []byte("b"), "a.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	store.docs[doc.ID].QuizStatus = models.ArtifactFailed
	store.docs[doc.ID].QuizError = "unavailable"
	sched.submitted = nil

	if err := svc.Regenerate(context.Background(), owner, doc.ID, models.ArtifactQuiz); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if len(sched.submitted) != 1 || sched.submitted[0] != models.ArtifactQuiz {
		t.Errorf("scheduled jobs = %v, want [quiz]", sched.submitted)
	}
}

func TestRegenerateSchedulerBusy(t *testing.T) {
	store := newMemoryStore()
	svc := NewDocumentService(store, &fakeExtractor{text: "text"}, &fakeScheduler{accept: false}, zap.NewNop())

	owner := uuid.New()
	doc := &models.Document{
		ID:               uuid.New(),
		UserID:           owner,
		SummaryStatus:    models.ArtifactReady,
		QuizStatus:       models.ArtifactReady,
		FlashcardsStatus: models.ArtifactReady,
	}
	store.docs[doc.ID] = doc

	err := svc.Regenerate(context.Background(), owner, doc.ID, models.ArtifactSummary)
	if !errors.Is(err, ErrGenerationInProgress) {
		t.Errorf("Regenerate() error = %v, want ErrGenerationInProgress", err)
	}
}
