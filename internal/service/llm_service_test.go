package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"studygenie/pkg/config"

	"go.uber.org/zap"
)

func testLLMConfig(baseURL string) *config.OpenAIConfig {
	return &config.OpenAIConfig{
		APIKey:         "test-key",
		Model:          "gpt-4o-mini",
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   time.Millisecond,
	}
}

func completionServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *config.OpenAIConfig) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, testLLMConfig(srv.URL + "/v1")
}

func TestCompleteSuccess(t *testing.T) {
	srv, cfg := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  the answer  "}}]}`))
	})
	_ = srv

	svc := NewLLMService(cfg, zap.NewNop())
	got, err := svc.Complete(context.Background(), "question", 256)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "the answer" {
		t.Errorf("Complete() = %q, want %q", got, "the answer")
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls int32
	srv, cfg := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream broke","type":"server_error"}}`))
	})
	_ = srv

	svc := NewLLMService(cfg, zap.NewNop())
	_, err := svc.Complete(context.Background(), "question", 256)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("Complete() error = %v, want ErrModelUnavailable", err)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("server saw %d requests, want 4 (initial call plus three retries)", got)
	}
}

func TestCompleteRejectsClientErrors(t *testing.T) {
	var calls int32
	srv, cfg := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"content rejected","type":"invalid_request_error"}}`))
	})
	_ = srv

	svc := NewLLMService(cfg, zap.NewNop())
	_, err := svc.Complete(context.Background(), "question", 256)
	if !errors.Is(err, ErrModelRejected) {
		t.Fatalf("Complete() error = %v, want ErrModelRejected", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d requests, want 1 (no retry on client errors)", got)
	}
}

func TestCompleteRecoversAfterTransientError(t *testing.T) {
	var calls int32
	srv, cfg := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"recovered"}}]}`))
	})
	_ = srv

	svc := NewLLMService(cfg, zap.NewNop())
	got, err := svc.Complete(context.Background(), "question", 256)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("Complete() = %q, want %q", got, "recovered")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server saw %d requests, want 2", n)
	}
}
