package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"studygenie/internal/dto"
	"studygenie/internal/models"
	"studygenie/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService is the slice of the ingestion layer the handler needs.
type DocumentService interface {
	Upload(ctx context.Context, userID uuid.UUID, data []byte, filename, mediaType string) (*models.Document, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Document, error)
	Regenerate(ctx context.Context, userID, id uuid.UUID, kind models.ArtifactKind) error
}

type DocumentHandler struct {
	docService DocumentService
	logger     *zap.Logger
}

func NewDocumentHandler(docService DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger,
	}
}

// UploadDocument godoc
// @Summary Upload a study document
// @Description Upload a PDF or image. Text is extracted synchronously; summary, quiz and flashcard generation start in the background.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file (PDF or image)"
// @Security Bearer
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/documents/upload [post]
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	mediaType := file.Header.Get("Content-Type")

	doc, err := h.docService.Upload(c.Context(), userID, data, file.Filename, mediaType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFormat):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unsupported file format, expected PDF or image",
			})
		case errors.Is(err, service.ErrCorruptDocument):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Could not extract text from document",
			})
		}
		h.logger.Error("Failed to upload document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to upload document",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(doc))
}

// GetDocument godoc
// @Summary Get a document
// @Description Get one document with its summary and per-artifact statuses
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.DocumentResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.docService.Get(c.Context(), userID, documentID)
	if err != nil {
		return h.documentError(c, err, "Failed to get document")
	}

	return c.JSON(toDocumentResponse(doc))
}

// ListDocuments godoc
// @Summary List user's documents
// @Description Get a list of user's uploaded documents
// @Tags documents
// @Produce json
// @Param limit query int false "Limit" default(10)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.DocumentResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 10)
	offset := c.QueryInt("offset", 0)

	docs, err := h.docService.List(c.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	return c.JSON(out)
}

// GetQuiz godoc
// @Summary Get a document's quiz
// @Description Get the generated quiz. While generation is pending the response carries the status instead of questions.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.ArtifactResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/quiz [get]
func (h *DocumentHandler) GetQuiz(c *fiber.Ctx) error {
	return h.getArtifact(c, models.ArtifactQuiz)
}

// GetFlashcards godoc
// @Summary Get a document's flashcards
// @Description Get the generated flashcards. While generation is pending the response carries the status instead of cards.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.ArtifactResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/flashcards [get]
func (h *DocumentHandler) GetFlashcards(c *fiber.Ctx) error {
	return h.getArtifact(c, models.ArtifactFlashcards)
}

func (h *DocumentHandler) getArtifact(c *fiber.Ctx, kind models.ArtifactKind) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.docService.Get(c.Context(), userID, documentID)
	if err != nil {
		return h.documentError(c, err, "Failed to get document")
	}

	status, reason := doc.ArtifactState(kind)
	resp := &dto.ArtifactResponse{Status: string(status)}
	if status == models.ArtifactFailed {
		resp.Reason = reason
	}
	if status == models.ArtifactReady {
		switch kind {
		case models.ArtifactQuiz:
			resp.Quiz = doc.Quiz
		case models.ArtifactFlashcards:
			resp.Flashcards = doc.Flashcards
		}
	}

	return c.JSON(resp)
}

// RegenerateArtifact godoc
// @Summary Regenerate an artifact
// @Description Re-run generation for one artifact kind. Rejected while a run for that artifact is already in flight.
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Param kind path string true "Artifact kind: summary, quiz or flashcards"
// @Security Bearer
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/documents/{id}/artifacts/{kind}/regenerate [post]
func (h *DocumentHandler) RegenerateArtifact(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	kind := models.ArtifactKind(c.Params("kind"))
	switch kind {
	case models.ArtifactSummary, models.ArtifactQuiz, models.ArtifactFlashcards:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid artifact kind",
		})
	}

	if err := h.docService.Regenerate(c.Context(), userID, documentID, kind); err != nil {
		if errors.Is(err, service.ErrGenerationInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Generation already in progress",
			})
		}
		return h.documentError(c, err, "Failed to regenerate artifact")
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": string(models.ArtifactRunning),
	})
}

func (h *DocumentHandler) documentError(c *fiber.Ctx, err error, msg string) error {
	if errors.Is(err, service.ErrDocumentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	h.logger.Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": msg,
	})
}

func toDocumentResponse(doc *models.Document) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		ID:               doc.ID.String(),
		Filename:         doc.Filename,
		MediaType:        doc.MediaType,
		FileSize:         doc.FileSize,
		Status:           string(doc.Status),
		SummaryStatus:    string(doc.SummaryStatus),
		QuizStatus:       string(doc.QuizStatus),
		FlashcardsStatus: string(doc.FlashcardsStatus),
		UploadedAt:       doc.UploadedAt.Format(time.RFC3339),
	}
	if doc.SummaryStatus == models.ArtifactReady {
		resp.Summary = doc.Summary
	}
	return resp
}
