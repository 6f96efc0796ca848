package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

// jsonOnlyInstruction is sent as the system message to chat-style backends.
const jsonOnlyInstruction = "Return ONLY valid JSON. No markdown. No extra text."

// CompletionProvider turns a prompt into the backend's raw reply. Failures
// are *FeedbackError of kind KindProviderUnavailable or KindProviderError.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewCompletionProvider picks the backend named by cfg.Name. Unknown names
// use DeepSeek. The returned provider is wrapped with retries when
// cfg.MaxAttempts is greater than one.
func NewCompletionProvider(ctx context.Context, cfg config.ProviderConfig, log *logger.Logger) (CompletionProvider, error) {
	var (
		provider CompletionProvider
		err      error
	)

	switch cfg.Name {
	case config.ProviderDemo:
		provider = NewDemoProvider(DefaultDemoLanguage)
	case config.ProviderOllama:
		provider = NewOllamaProvider(cfg, log)
	case config.ProviderGemini:
		provider, err = NewGeminiProvider(ctx, cfg, log)
	case config.ProviderDeepSeek:
		provider = NewDeepSeekProvider(cfg, log)
	default:
		log.Warn("unknown provider, falling back to deepseek", "provider", cfg.Name)
		provider = NewDeepSeekProvider(cfg, log)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxAttempts > 1 {
		provider = NewRetryingProvider(provider, cfg.MaxAttempts, cfg.RetryDelay, log)
	}
	return provider, nil
}

type retryingProvider struct {
	next        CompletionProvider
	maxAttempts int
	delay       time.Duration
	log         *logger.Logger
}

// NewRetryingProvider retries KindProviderError replies with a linear
// backoff. Unavailable backends and cancelled contexts fail immediately.
func NewRetryingProvider(next CompletionProvider, maxAttempts int, delay time.Duration, log *logger.Logger) CompletionProvider {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &retryingProvider{next: next, maxAttempts: maxAttempts, delay: delay, log: log}
}

func (r *retryingProvider) Name() string {
	return r.next.Name()
}

func (r *retryingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		raw, err := r.next.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !retryable(ctx, err) || attempt == r.maxAttempts {
			break
		}

		r.log.Warn("provider attempt failed, retrying",
			"provider", r.next.Name(),
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", newFeedbackError(KindProviderError, "request cancelled while retrying", ctx.Err())
		case <-time.After(time.Duration(attempt) * r.delay):
		}
	}

	return "", lastErr
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	kind, ok := KindOf(err)
	return ok && kind == KindProviderError
}

// providerError wraps an upstream failure without exposing it to callers.
func providerError(provider string, cause error) *FeedbackError {
	return newFeedbackError(KindProviderError, fmt.Sprintf("%s request failed", provider), cause)
}
