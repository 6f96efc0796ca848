package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

// MinTextRunes is the shortest trimmed text that is sent for feedback.
const MinTextRunes = 30

// sourceTyped marks requests whose text came from the form field.
const sourceTyped = "typed"

type FeedbackService interface {
	GenerateFeedback(ctx context.Context, req *models.FeedbackRequest) (*models.FeedbackResult, error)
}

type feedbackService struct {
	extractor     ExtractorService
	provider      CompletionProvider
	promptBuilder *PromptBuilder
	recorder      LogRecorder
	demoMode      bool
	log           *logger.Logger
}

// NewFeedbackService wires the pipeline. recorder may be nil when no
// database is configured.
func NewFeedbackService(
	extractor ExtractorService,
	provider CompletionProvider,
	recorder LogRecorder,
	demoMode bool,
	log *logger.Logger,
) FeedbackService {
	return &feedbackService{
		extractor:     extractor,
		provider:      provider,
		promptBuilder: NewPromptBuilder(),
		recorder:      recorder,
		demoMode:      demoMode,
		log:           log,
	}
}

func (s *feedbackService) GenerateFeedback(ctx context.Context, req *models.FeedbackRequest) (*models.FeedbackResult, error) {
	start := time.Now()
	if req.RequestID == uuid.Nil {
		req.RequestID = uuid.New()
	}

	entry := &models.FeedbackLog{
		ID:           req.RequestID,
		Lang:         string(req.Lang),
		Level:        req.Level,
		TextType:     req.TextType,
		Provider:     s.provider.Name(),
		SourceFormat: sourceTyped,
		Status:       models.StatusCompleted,
		CreatedAt:    start,
	}
	if req.Document != nil {
		entry.SourceFormat = string(req.Document.Format)
	}
	log := s.log.With("request_id", req.RequestID.String())

	result, err := s.generate(ctx, req, entry, log)

	entry.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		kind, _ := KindOf(err)
		entry.ErrorCode = string(kind)
		entry.Status = models.StatusFailed
		if kind.IsClientError() {
			entry.Status = models.StatusRejected
		}
	} else if score, ok := result.IntScore(); ok {
		entry.Score = &score
	}
	if s.recorder != nil {
		s.recorder.Record(entry)
	}

	log.Info("feedback request finished",
		"status", entry.Status,
		"source", entry.SourceFormat,
		"chars", entry.CharCount,
		"degraded", entry.Degraded,
		"duration_ms", entry.DurationMS,
	)
	return result, err
}

func (s *feedbackService) generate(
	ctx context.Context,
	req *models.FeedbackRequest,
	entry *models.FeedbackLog,
	log *logger.Logger,
) (*models.FeedbackResult, error) {
	text := req.Text
	if req.Document != nil {
		extracted, err := s.extractor.Extract(ctx, req.Document)
		if err != nil {
			log.Warn("extraction failed",
				"format", req.Document.Format,
				"mime", req.Document.MimeType,
				"size_bytes", req.Document.Size,
				"error", err,
			)
			return nil, err
		}
		text = extracted

		if strings.TrimSpace(text) == "" &&
			(req.Document.Format == models.FormatPDF || req.Document.Format == models.FormatDocx) {
			log.Warn("no text layer in uploaded document",
				"format", req.Document.Format,
				"size_bytes", req.Document.Size,
			)
		}
	}

	text = strings.TrimSpace(text)
	entry.CharCount = utf8.RuneCountInString(text)
	if entry.CharCount < MinTextRunes {
		return nil, newFeedbackError(KindInsufficientContent, UserMessage(KindInsufficientContent, req.Lang), nil)
	}

	if s.demoMode {
		entry.Status = models.StatusDemo
		entry.Provider = config.ProviderDemo
		result := DemoFeedback(req.Lang)
		return &result, nil
	}

	prompt := s.promptBuilder.BuildFeedbackPrompt(text, req.TextType, req.Level, req.Lang)
	log.Debug("prompt built", "provider", s.provider.Name(), "prompt_chars", len(prompt))

	raw, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		log.Error("completion failed", "provider", s.provider.Name(), "error", err)
		if _, ok := KindOf(err); !ok {
			err = providerError(s.provider.Name(), err)
		}
		return nil, err
	}

	result, degraded := normalizeCompletion(raw, req.Lang)
	entry.Degraded = degraded
	if degraded {
		log.Warn("completion was not valid json", "provider", s.provider.Name(), "raw_chars", len(raw))
	} else if err := ValidateFeedback(result); err != nil {
		log.Warn("feedback is not well-formed", "provider", s.provider.Name(), "error", err)
	}

	return &result, nil
}
