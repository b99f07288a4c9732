package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"studygenie/internal/models"
	"studygenie/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubDocService struct {
	doc       *models.Document
	uploadErr error
	getErr    error
	regenErr  error
}

func (s *stubDocService) Upload(_ context.Context, userID uuid.UUID, data []byte, filename, mediaType string) (*models.Document, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return s.doc, nil
}

func (s *stubDocService) Get(_ context.Context, _, _ uuid.UUID) (*models.Document, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.doc, nil
}

func (s *stubDocService) List(_ context.Context, _ uuid.UUID, _, _ int) ([]*models.Document, error) {
	return []*models.Document{s.doc}, nil
}

func (s *stubDocService) Regenerate(_ context.Context, _, _ uuid.UUID, _ models.ArtifactKind) error {
	return s.regenErr
}

// testApp mounts the handler behind a middleware that injects the caller
// identity, standing in for the JWT layer.
func testApp(svc DocumentService) *fiber.App {
	h := NewDocumentHandler(svc, zap.NewNop())

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uuid.New().String())
		return c.Next()
	})
	app.Post("/api/v1/documents/upload", h.UploadDocument)
	app.Get("/api/v1/documents", h.ListDocuments)
	app.Get("/api/v1/documents/:id", h.GetDocument)
	app.Get("/api/v1/documents/:id/quiz", h.GetQuiz)
	app.Get("/api/v1/documents/:id/flashcards", h.GetFlashcards)
	app.Post("/api/v1/documents/:id/artifacts/:kind/regenerate", h.RegenerateArtifact)
	return app
}

func sampleDocument() *models.Document {
	return &models.Document{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Filename:         "notes.pdf",
		MediaType:        "application/pdf",
		FileSize:         1234,
		Status:           models.DocumentStatusExtracted,
		SummaryStatus:    models.ArtifactReady,
		Summary:          "a summary",
		QuizStatus:       models.ArtifactRunning,
		FlashcardsStatus: models.ArtifactFailed,
		FlashcardsError:  "unavailable",
		UploadedAt:       time.Now(),
	}
}

func multipartUpload(t *testing.T, filename, contentType string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("file bytes"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode body %q: %v", body, err)
	}
}

func TestUploadDocumentCreated(t *testing.T) {
	doc := sampleDocument()
	app := testApp(&stubDocService{doc: doc})

	resp, err := app.Test(multipartUpload(t, "notes.pdf", "application/pdf"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body map[string]any
	decodeBody(t, resp, &body)
	if body["id"] != doc.ID.String() {
		t.Errorf("id = %v", body["id"])
	}
	if body["summary_status"] != "ready" {
		t.Errorf("summary_status = %v", body["summary_status"])
	}
}

func TestUploadDocumentUnsupportedFormat(t *testing.T) {
	app := testApp(&stubDocService{uploadErr: service.ErrUnsupportedFormat})

	resp, err := app.Test(multipartUpload(t, "notes.txt", "text/plain"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestUploadDocumentCorrupt(t *testing.T) {
	app := testApp(&stubDocService{uploadErr: service.ErrCorruptDocument})

	resp, err := app.Test(multipartUpload(t, "broken.pdf", "application/pdf"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestUploadDocumentMissingFile(t *testing.T) {
	app := testApp(&stubDocService{doc: sampleDocument()})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	app := testApp(&stubDocService{getErr: service.ErrDocumentNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetDocumentInvalidID(t *testing.T) {
	app := testApp(&stubDocService{doc: sampleDocument()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/not-a-uuid", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetQuizPendingReturnsStatus(t *testing.T) {
	doc := sampleDocument() // quiz is running
	app := testApp(&stubDocService{doc: doc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/quiz", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "running" {
		t.Errorf("status field = %v, want running", body["status"])
	}
	if _, present := body["quiz"]; present {
		t.Error("pending response carries a quiz payload")
	}
}

func TestGetQuizReady(t *testing.T) {
	doc := sampleDocument()
	doc.QuizStatus = models.ArtifactReady
	doc.Quiz = &models.Quiz{Questions: []models.Question{{
		Text: "q",
		Options: []models.Option{
			{Label: "A", Text: "1"}, {Label: "B", Text: "2"},
			{Label: "C", Text: "3"}, {Label: "D", Text: "4"},
		},
		CorrectAnswer: "B",
	}}}
	app := testApp(&stubDocService{doc: doc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/quiz", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "ready" {
		t.Errorf("status field = %v, want ready", body["status"])
	}
	if _, present := body["quiz"]; !present {
		t.Error("ready response is missing the quiz payload")
	}
}

func TestGetFlashcardsFailedCarriesReason(t *testing.T) {
	doc := sampleDocument() // flashcards failed: unavailable
	app := testApp(&stubDocService{doc: doc})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/flashcards", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "failed" {
		t.Errorf("status field = %v, want failed", body["status"])
	}
	if body["reason"] != "unavailable" {
		t.Errorf("reason = %v, want unavailable", body["reason"])
	}
}

func TestRegenerateConflictWhileRunning(t *testing.T) {
	app := testApp(&stubDocService{regenErr: service.ErrGenerationInProgress})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+uuid.NewString()+"/artifacts/quiz/regenerate", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestRegenerateAccepted(t *testing.T) {
	app := testApp(&stubDocService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+uuid.NewString()+"/artifacts/summary/regenerate", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "running" {
		t.Errorf("status = %v, want running", body["status"])
	}
}

func TestRegenerateInvalidKind(t *testing.T) {
	app := testApp(&stubDocService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+uuid.NewString()+"/artifacts/poster/regenerate", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
