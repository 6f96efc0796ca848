package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

type fakeProvider struct {
	name     string
	calls    int
	complete func(call int, prompt string) (string, error)
}

func (f *fakeProvider) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	return f.complete(f.calls, prompt)
}

func testProviderConfig() config.ProviderConfig {
	return config.ProviderConfig{
		Name:            config.ProviderDeepSeek,
		Temperature:     0.3,
		Timeout:         5 * time.Second,
		MaxAttempts:     1,
		DeepSeekModel:   "deepseek-chat",
		DeepSeekBaseURL: "http://127.0.0.1:1",
		OllamaModel:     "llama3.1",
		GeminiModel:     "gemini-2.5-flash",
	}
}

func TestNewCompletionProviderSelection(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{config.ProviderDemo, "demo"},
		{config.ProviderOllama, "ollama"},
		{config.ProviderGemini, "gemini"},
		{config.ProviderDeepSeek, "deepseek"},
		{"openai", "deepseek"},
		{"", "deepseek"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testProviderConfig()
			cfg.Name = tt.name
			p, err := NewCompletionProvider(context.Background(), cfg, logger.Nop())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.want {
				t.Fatalf("Name() = %q, want %q", p.Name(), tt.want)
			}
		})
	}
}

func TestNewCompletionProviderWrapsRetries(t *testing.T) {
	cfg := testProviderConfig()
	cfg.MaxAttempts = 3
	p, err := NewCompletionProvider(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*retryingProvider); !ok {
		t.Fatalf("expected retrying provider, got %T", p)
	}
}

func TestMissingKeysAreUnavailable(t *testing.T) {
	cfg := testProviderConfig()
	gemini, err := NewGeminiProvider(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []CompletionProvider{NewDeepSeekProvider(cfg, logger.Nop()), gemini} {
		_, err := p.Complete(context.Background(), "prompt")
		if kind, _ := KindOf(err); kind != KindProviderUnavailable {
			t.Fatalf("%s: kind = %q, want %q (err=%v)", p.Name(), kind, KindProviderUnavailable, err)
		}
	}
}

func TestDemoProviderIgnoresPrompt(t *testing.T) {
	p := NewDemoProvider(models.LangEN)
	a, err := p.Complete(context.Background(), "first prompt")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := p.Complete(context.Background(), "")
	if a != b {
		t.Fatal("demo output depends on the prompt")
	}

	var got models.FeedbackResult
	if err := json.Unmarshal([]byte(a), &got); err != nil {
		t.Fatal(err)
	}
	if got.Strengths[0] != "The introduction makes the topic clear and sets a direction." {
		t.Fatalf("unexpected english strengths: %v", got.Strengths)
	}
}

func TestDemoFeedbackTable(t *testing.T) {
	de := DemoFeedback(models.LangDE)
	if s, ok := de.IntScore(); !ok || s != 7 {
		t.Fatalf("demo score = %#v, want 7", de.Score)
	}
	if !strings.HasPrefix(de.ScoreExplanation, "Der Text ist insgesamt") {
		t.Fatalf("german explanation = %q", de.ScoreExplanation)
	}
	if len(de.LanguageIssues.Spelling) != 3 {
		t.Fatalf("spelling = %v", de.LanguageIssues.Spelling)
	}

	de.Strengths[0] = "mutated"
	if DemoFeedback(models.LangDE).Strengths[0] == "mutated" {
		t.Fatal("DemoFeedback must return a copy")
	}

	if DemoFeedback(models.Language("fr")).ScoreExplanation != DemoFeedback(models.LangDE).ScoreExplanation {
		t.Fatal("unknown language should fall back to German")
	}
}

func TestOllamaProviderComplete(t *testing.T) {
	var gotReq ollamaGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.1","response":"{\"score\": 4}","done":true}`))
	}))
	defer srv.Close()

	cfg := testProviderConfig()
	cfg.OllamaURL = srv.URL + "/"
	raw, err := NewOllamaProvider(cfg, logger.Nop()).Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatal(err)
	}
	if raw != `{"score": 4}` {
		t.Fatalf("raw = %q", raw)
	}
	if gotReq.Model != "llama3.1" || gotReq.Prompt != "the prompt" || gotReq.Stream {
		t.Fatalf("request = %+v", gotReq)
	}
}

func TestOllamaProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	cfg := testProviderConfig()
	cfg.OllamaURL = srv.URL

	_, err := NewOllamaProvider(cfg, logger.Nop()).Complete(context.Background(), "p")
	if kind, _ := KindOf(err); kind != KindProviderError {
		t.Fatalf("non-2xx kind = %q, want %q", kind, KindProviderError)
	}

	srv.Close()
	_, err = NewOllamaProvider(cfg, logger.Nop()).Complete(context.Background(), "p")
	if kind, _ := KindOf(err); kind != KindProviderUnavailable {
		t.Fatalf("transport failure kind = %q, want %q", kind, KindProviderUnavailable)
	}
}

func TestDeepSeekProviderComplete(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "deepseek-chat",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"score\": 9}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	cfg := testProviderConfig()
	cfg.DeepSeekAPIKey = "test-key"
	cfg.DeepSeekBaseURL = srv.URL

	raw, err := NewDeepSeekProvider(cfg, logger.Nop()).Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatal(err)
	}
	if raw != `{"score": 9}` {
		t.Fatalf("raw = %q", raw)
	}

	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", gotBody["messages"])
	}
	system, _ := msgs[0].(map[string]any)
	if system["role"] != "system" || system["content"] != jsonOnlyInstruction {
		t.Fatalf("system message = %v", system)
	}
	if gotBody["model"] != "deepseek-chat" {
		t.Fatalf("model = %v", gotBody["model"])
	}
}

func TestDeepSeekProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusUnauthorized, `{"error": {"message": "invalid key", "type": "authentication_error"}}`},
		{"no choices", http.StatusOK, `{"id": "cmpl-2", "object": "chat.completion", "model": "deepseek-chat", "choices": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cfg := testProviderConfig()
			cfg.DeepSeekAPIKey = "test-key"
			cfg.DeepSeekBaseURL = srv.URL

			_, err := NewDeepSeekProvider(cfg, logger.Nop()).Complete(context.Background(), "p")
			if kind, _ := KindOf(err); kind != KindProviderError {
				t.Fatalf("kind = %q, want %q (err=%v)", kind, KindProviderError, err)
			}
			if strings.Contains(UserMessage(KindProviderError, models.LangDE), "invalid key") {
				t.Fatal("upstream detail leaked into user message")
			}
		})
	}
}

func TestRetryingProvider(t *testing.T) {
	t.Run("retries provider errors", func(t *testing.T) {
		inner := &fakeProvider{complete: func(call int, _ string) (string, error) {
			if call < 3 {
				return "", providerError("fake", errors.New("flaky"))
			}
			return "ok", nil
		}}
		raw, err := NewRetryingProvider(inner, 3, time.Millisecond, logger.Nop()).Complete(context.Background(), "p")
		if err != nil || raw != "ok" {
			t.Fatalf("raw=%q err=%v", raw, err)
		}
		if inner.calls != 3 {
			t.Fatalf("calls = %d, want 3", inner.calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		inner := &fakeProvider{complete: func(int, string) (string, error) {
			return "", providerError("fake", errors.New("down"))
		}}
		_, err := NewRetryingProvider(inner, 2, time.Millisecond, logger.Nop()).Complete(context.Background(), "p")
		if kind, _ := KindOf(err); kind != KindProviderError {
			t.Fatalf("kind = %q", kind)
		}
		if inner.calls != 2 {
			t.Fatalf("calls = %d, want 2", inner.calls)
		}
	})

	t.Run("never retries unavailable", func(t *testing.T) {
		inner := &fakeProvider{complete: func(int, string) (string, error) {
			return "", newFeedbackError(KindProviderUnavailable, "no key", nil)
		}}
		_, _ = NewRetryingProvider(inner, 5, time.Millisecond, logger.Nop()).Complete(context.Background(), "p")
		if inner.calls != 1 {
			t.Fatalf("calls = %d, want 1", inner.calls)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var calls atomic.Int32
		inner := &fakeProvider{complete: func(int, string) (string, error) {
			calls.Add(1)
			cancel()
			return "", providerError("fake", context.Canceled)
		}}
		_, err := NewRetryingProvider(inner, 5, time.Hour, logger.Nop()).Complete(ctx, "p")
		if err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Fatalf("calls = %d, want 1", calls.Load())
		}
	})
}
