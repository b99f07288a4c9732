package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"studygenie/pkg/config"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// LLMService is the prompt-in/text-out boundary to the generative model.
// Timeouts and retries live here and nowhere else: transient failures are
// retried with exponential backoff, everything above this layer sees only
// ErrModelUnavailable or ErrModelRejected.
type LLMService struct {
	client *openai.Client
	cfg    *config.OpenAIConfig
	logger *zap.Logger
}

func NewLLMService(cfg *config.OpenAIConfig, logger *zap.Logger) *LLMService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.RequestTimeout,
	}

	return &LLMService{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		logger: logger,
	}
}

func (s *LLMService) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var lastErr error
	backoff := s.cfg.RetryBackoff

	// One initial call plus up to cfg.MaxRetries retries.
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn("Retrying model request",
				zap.Int("retry", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrModelUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       s.cfg.Model,
			MaxTokens:   maxTokens,
			Temperature: 0.3,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			if !isTransient(err) {
				return "", fmt.Errorf("%w: %v", ErrModelRejected, err)
			}
			lastErr = err
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty completion response")
			continue
		}

		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	return "", fmt.Errorf("%w: %v", ErrModelUnavailable, lastErr)
}

// isTransient reports whether a failure is worth retrying. Server-side and
// transport failures are; client errors, including quota exhaustion, fail
// the request permanently.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}

	// Network errors and timeouts arrive unwrapped.
	return true
}
