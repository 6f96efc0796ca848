package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

type deepSeekProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	log         *logger.Logger
}

// NewDeepSeekProvider talks to DeepSeek's OpenAI-compatible chat endpoint.
// Without an API key every call fails with KindProviderUnavailable.
func NewDeepSeekProvider(cfg config.ProviderConfig, log *logger.Logger) CompletionProvider {
	p := &deepSeekProvider{
		model:       cfg.DeepSeekModel,
		temperature: cfg.Temperature,
		log:         log,
	}
	if cfg.DeepSeekAPIKey == "" {
		return p
	}

	clientCfg := openai.DefaultConfig(cfg.DeepSeekAPIKey)
	clientCfg.BaseURL = cfg.DeepSeekBaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	p.client = openai.NewClientWithConfig(clientCfg)
	return p
}

func (d *deepSeekProvider) Name() string {
	return config.ProviderDeepSeek
}

func (d *deepSeekProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if d.client == nil {
		return "", newFeedbackError(KindProviderUnavailable, "DEEPSEEK_API_KEY is not set", nil)
	}

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: jsonOnlyInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: d.temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			d.log.Error("deepseek api error",
				"status", apiErr.HTTPStatusCode,
				"type", apiErr.Type,
				"code", apiErr.Code,
				"message", apiErr.Message,
			)
		} else {
			d.log.Error("deepseek request failed", "error", err)
		}
		return "", providerError(d.Name(), err)
	}

	if len(resp.Choices) == 0 {
		d.log.Error("deepseek returned no choices", "id", resp.ID, "model", resp.Model)
		return "", providerError(d.Name(), errors.New("no choices in response"))
	}

	d.log.Debug("deepseek completion received",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}
