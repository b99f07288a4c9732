package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"context"

	"studygenie/internal/models"
	"studygenie/pkg/config"

	"go.uber.org/zap"
)

// Content windows: long documents are cut to the leading characters so a
// single prompt stays inside the model's context.
const (
	summaryWindow = 8000
	contentWindow = 6000
)

// ArtifactService builds the three derived study artifacts from extracted
// document text. The builders are independent: a failing quiz never touches
// summary or flashcards.
type ArtifactService struct {
	llm    Completer
	cfg    *config.GenerationConfig
	logger *zap.Logger
}

func NewArtifactService(llm Completer, cfg *config.GenerationConfig, logger *zap.Logger) *ArtifactService {
	return &ArtifactService{
		llm:    llm,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *ArtifactService) GenerateSummary(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`You are an expert at creating concise, informative summaries of study materials.
Create a comprehensive summary of the following study material. Focus on key concepts, main points, and important details that a student should remember:

%s`, truncate(text, summaryWindow))

	summary, err := s.llm.Complete(ctx, prompt, s.cfg.MaxTokens)
	if err != nil {
		return "", err
	}

	summary = strings.TrimSpace(summary)
	s.logger.Info("Summary generated", zap.Int("length", len(summary)))
	return summary, nil
}

func (s *ArtifactService) GenerateQuiz(ctx context.Context, text string) (*models.Quiz, error) {
	count := s.cfg.QuizQuestions
	window := truncate(text, contentWindow)

	prompt := fmt.Sprintf(`Create exactly %d multiple-choice questions based on this study material.

CRITICAL: Respond with ONLY a valid JSON array. No additional text, no markdown, no explanations.

Required JSON format:
[
  {
    "question": "What is the main concept discussed?",
    "options": ["A) First option", "B) Second option", "C) Third option", "D) Fourth option"],
    "correct_answer": "A",
    "explanation": "Brief explanation why this is correct"
  }
]

Each question must have exactly 4 options labeled A) through D), and correct_answer must be a single letter A, B, C or D.

Study Material:
%s`, count, window)

	raw, err := s.llm.Complete(ctx, prompt, s.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}

	quiz, perr := parseQuiz(raw, count)
	if perr == nil {
		s.logger.Info("Quiz generated", zap.Int("questions", len(quiz.Questions)))
		return quiz, nil
	}

	// One retry with a stricter prompt. A systematically malformed response
	// is not worth paying the latency for again after that.
	s.logger.Warn("Quiz response malformed, retrying with strict prompt", zap.Error(perr))

	strict := fmt.Sprintf(`Return ONLY a raw JSON array, nothing else. Do not wrap it in markdown code fences.
The array must contain exactly %d objects. Every object must have these keys and no others:
"question" (string), "options" (array of exactly 4 strings, each starting with "A) ", "B) ", "C) " or "D) " in that order), "correct_answer" (one letter: A, B, C or D), "explanation" (string).

Study Material:
%s`, count, window)

	raw, err = s.llm.Complete(ctx, strict, s.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}

	quiz, perr = parseQuiz(raw, count)
	if perr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, perr)
	}

	s.logger.Info("Quiz generated on strict retry", zap.Int("questions", len(quiz.Questions)))
	return quiz, nil
}

func (s *ArtifactService) GenerateFlashcards(ctx context.Context, text string) ([]models.Flashcard, error) {
	count := s.cfg.FlashcardCount
	window := truncate(text, contentWindow)

	prompt := fmt.Sprintf(`Create flashcards from this study material. Return ONLY a JSON array in this exact format:
[
  {
    "term": "Key term or concept",
    "definition": "Clear, concise definition or explanation"
  }
]

Create %d flashcards covering the most important concepts. Study Material:
%s`, count, window)

	raw, err := s.llm.Complete(ctx, prompt, s.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}

	cards, perr := parseFlashcards(raw, count)
	if perr == nil {
		s.logger.Info("Flashcards generated", zap.Int("cards", len(cards)))
		return cards, nil
	}

	s.logger.Warn("Flashcard response malformed, retrying with strict prompt", zap.Error(perr))

	strict := fmt.Sprintf(`Return ONLY a raw JSON array, nothing else. Do not wrap it in markdown code fences.
The array must contain exactly %d objects, each with exactly two string keys: "term" and "definition".

Study Material:
%s`, count, window)

	raw, err = s.llm.Complete(ctx, strict, s.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}

	cards, perr = parseFlashcards(raw, count)
	if perr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, perr)
	}

	s.logger.Info("Flashcards generated on strict retry", zap.Int("cards", len(cards)))
	return cards, nil
}

type quizItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

func parseQuiz(raw string, maxQuestions int) (*models.Quiz, error) {
	jsonStr, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var items []quizItem
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		return nil, fmt.Errorf("decode quiz JSON: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("quiz response contains no questions")
	}

	quiz := &models.Quiz{}
	for i, item := range items {
		question, err := buildQuestion(item)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		quiz.Questions = append(quiz.Questions, question)
		if len(quiz.Questions) == maxQuestions {
			break
		}
	}

	return quiz, nil
}

// buildQuestion validates one model question against the quiz invariants:
// exactly 4 options, labels uniquely A-D, and a correct answer that names
// a present label. Labels are parsed into explicit fields instead of being
// matched against option leading characters.
func buildQuestion(item quizItem) (models.Question, error) {
	if strings.TrimSpace(item.Question) == "" {
		return models.Question{}, fmt.Errorf("empty question text")
	}
	if len(item.Options) != 4 {
		return models.Question{}, fmt.Errorf("expected 4 options, got %d", len(item.Options))
	}

	options := make([]models.Option, 0, 4)
	for i, opt := range item.Options {
		expected := string(rune('A' + i))
		label, text := splitOptionLabel(opt)
		if label == "" {
			// Unlabeled option text: assign the positional label.
			label = expected
		} else if label != expected {
			return models.Question{}, fmt.Errorf("option %d labeled %q, want %q", i+1, label, expected)
		}
		if strings.TrimSpace(text) == "" {
			return models.Question{}, fmt.Errorf("option %s has no text", label)
		}
		options = append(options, models.Option{Label: label, Text: strings.TrimSpace(text)})
	}

	answer := strings.ToUpper(strings.TrimSpace(item.CorrectAnswer))
	if len(answer) > 1 {
		// Accept "A)" or a full option repetition, keyed by the first rune.
		answer = answer[:1]
	}
	if answer < "A" || answer > "D" {
		return models.Question{}, fmt.Errorf("correct answer %q does not name an option label", item.CorrectAnswer)
	}

	return models.Question{
		Text:          strings.TrimSpace(item.Question),
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   strings.TrimSpace(item.Explanation),
	}, nil
}

// splitOptionLabel separates a leading "A)", "A.", "A:" or "A -" label from
// the option text. Returns an empty label if the option is unlabeled.
func splitOptionLabel(opt string) (label, text string) {
	trimmed := strings.TrimSpace(opt)
	if len(trimmed) < 2 {
		return "", trimmed
	}
	head := trimmed[0]
	if head < 'A' || head > 'D' {
		return "", trimmed
	}

	rest := trimmed[1:]
	for _, sep := range []string{")", ".", ":", "-"} {
		if strings.HasPrefix(rest, sep) {
			return string(head), strings.TrimSpace(rest[len(sep):])
		}
	}
	if strings.HasPrefix(rest, " ") {
		return "", trimmed
	}
	return "", trimmed
}

func parseFlashcards(raw string, maxCards int) ([]models.Flashcard, error) {
	jsonStr, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}

	var cards []models.Flashcard
	if err := json.Unmarshal([]byte(jsonStr), &cards); err != nil {
		return nil, fmt.Errorf("decode flashcards JSON: %w", err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("flashcard response contains no cards")
	}

	valid := make([]models.Flashcard, 0, len(cards))
	for i, card := range cards {
		term := strings.TrimSpace(card.Term)
		def := strings.TrimSpace(card.Definition)
		if term == "" || def == "" {
			return nil, fmt.Errorf("card %d is missing term or definition", i+1)
		}
		valid = append(valid, models.Flashcard{Term: term, Definition: def})
		if len(valid) == maxCards {
			break
		}
	}

	return valid, nil
}

// extractJSONArray pulls a JSON array out of a model response that may be
// wrapped in markdown fences or surrounded by commentary.
func extractJSONArray(content string) (string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON array in response")
	}

	return content[start : end+1], nil
}

// truncate cuts text to at most limit bytes without splitting a rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
