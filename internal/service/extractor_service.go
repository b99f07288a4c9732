package service

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// ExtractorService converts uploaded file bytes into plain text.
// PDF uploads are read from the embedded text layer, images go through
// OCR. Extraction has no side effects: the same bytes and media type
// always produce the same text.
type ExtractorService struct {
	logger *zap.Logger
}

func NewExtractorService(logger *zap.Logger) *ExtractorService {
	return &ExtractorService{
		logger: logger,
	}
}

func (s *ExtractorService) ExtractText(data []byte, mediaType string) (string, error) {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}

	switch {
	case mediaType == "application/pdf":
		return s.extractFromPDF(data)
	case strings.HasPrefix(mediaType, "image/"):
		return s.extractFromImage(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}
}

func (s *ExtractorService) extractFromPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	text := strings.TrimSpace(textBuilder.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text layer in PDF", ErrCorruptDocument)
	}

	s.logger.Info("PDF text extracted",
		zap.Int("pages", doc.NumPage()),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}

// extractFromImage runs OCR. Low-quality input yields low-quality text,
// never an error; only an undecodable image fails.
func (s *ExtractorService) extractFromImage(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	text = strings.TrimSpace(text)
	s.logger.Info("Image text extracted via OCR",
		zap.Int("text_length", len(text)),
	)

	return text, nil
}
