package services

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

type geminiProvider struct {
	client      *genai.Client
	modelName   string
	temperature float32
	cfg         config.ProviderConfig
	log         *logger.Logger
}

// NewGeminiProvider creates a client for the Gemini API. A missing key is
// not an error here; Complete reports it as KindProviderUnavailable.
func NewGeminiProvider(ctx context.Context, cfg config.ProviderConfig, log *logger.Logger) (CompletionProvider, error) {
	p := &geminiProvider{
		modelName:   cfg.GeminiModel,
		temperature: cfg.Temperature,
		cfg:         cfg,
		log:         log,
	}
	if cfg.GeminiAPIKey == "" {
		return p, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	p.client = client
	return p, nil
}

func (g *geminiProvider) Name() string {
	return config.ProviderGemini
}

func (g *geminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", newFeedbackError(KindProviderUnavailable, "GEMINI_API_KEY is not set", nil)
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	temperature := g.temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		MaxOutputTokens:   4096,
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(jsonOnlyInstruction, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), genCfg)
	if err != nil {
		g.log.Error("gemini api error", "model", g.modelName, "error", err)
		return "", providerError(g.Name(), err)
	}

	text := resp.Text()
	if text == "" {
		reason := ""
		if len(resp.Candidates) > 0 {
			reason = string(resp.Candidates[0].FinishReason)
		}
		g.log.Error("gemini returned no text", "model", g.modelName, "finish_reason", reason)
		return "", providerError(g.Name(), errors.New("no text content in response"))
	}

	return text, nil
}
