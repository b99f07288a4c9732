package handlers

import (
	"context"
	"errors"
	"time"

	"studygenie/internal/dto"
	"studygenie/internal/models"
	"studygenie/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatService answers document-scoped questions and serves past exchanges.
type ChatService interface {
	Answer(ctx context.Context, userID, documentID uuid.UUID, message string) (string, error)
	History(ctx context.Context, userID, documentID uuid.UUID) ([]*models.ChatMessage, error)
}

type ChatHandler struct {
	chatService ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat godoc
// @Summary Ask a question about a document
// @Description Ask the tutor a question grounded in one uploaded document. Each question is answered independently.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Chat request"
// @Security Bearer
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	documentID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	response, err := h.chatService.Answer(c.Context(), userID, documentID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		}
		if errors.Is(err, service.ErrModelUnavailable) || errors.Is(err, service.ErrModelRejected) {
			h.logger.Error("Chat completion failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Tutor is unavailable, try again later",
			})
		}
		h.logger.Error("Chat failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Chat failed",
		})
	}

	return c.JSON(&dto.ChatResponse{Response: response})
}

// ChatHistory godoc
// @Summary Get chat history for a document
// @Description List past question/answer exchanges for one document, oldest first
// @Tags chat
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {array} dto.ChatMessageResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/chat-history [get]
func (h *ChatHandler) ChatHistory(c *fiber.Ctx) error {
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

	messages, err := h.chatService.History(c.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		}
		h.logger.Error("Failed to load chat history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load chat history",
		})
	}

	out := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, &dto.ChatMessageResponse{
			ID:         m.ID.String(),
			DocumentID: m.DocumentID.String(),
			Message:    m.Message,
			Response:   m.Response,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(out)
}
