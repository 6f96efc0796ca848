package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

type ollamaProvider struct {
	httpClient *http.Client
	baseURL    string
	model      string
	log        *logger.Logger
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func NewOllamaProvider(cfg config.ProviderConfig, log *logger.Logger) CompletionProvider {
	return &ollamaProvider{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.OllamaURL, "/"),
		model:      cfg.OllamaModel,
		log:        log,
	}
}

func (o *ollamaProvider) Name() string {
	return config.ProviderOllama
}

// Complete calls /api/generate without streaming.
func (o *ollamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{Model: o.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", providerError(o.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", providerError(o.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		o.log.Error("ollama unreachable, is `ollama serve` running?", "url", o.baseURL, "error", err)
		return "", newFeedbackError(KindProviderUnavailable, "ollama is not reachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", providerError(o.Name(), fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		o.log.Error("ollama error response",
			"status", resp.StatusCode,
			"body", truncate(string(respBody), 8<<10),
		)
		return "", providerError(o.Name(), fmt.Errorf("status %d", resp.StatusCode))
	}

	var out ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		o.log.Error("ollama response is not json", "body", truncate(string(respBody), 8<<10))
		return "", providerError(o.Name(), fmt.Errorf("decode response: %w", err))
	}
	return out.Response, nil
}
