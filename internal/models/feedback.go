package models

import (
	"mime"
	"strings"

	"github.com/google/uuid"
)

type Language string

const (
	LangEN Language = "en"
	LangDE Language = "de"
)

// ParseLanguage maps a form value onto the supported languages. Only "en"
// selects English; everything else, including an empty value, is German.
func ParseLanguage(s string) Language {
	if strings.EqualFold(strings.TrimSpace(s), string(LangEN)) {
		return LangEN
	}
	return LangDE
}

type DocumentFormat string

const (
	FormatUnknown   DocumentFormat = "unknown"
	FormatPlainText DocumentFormat = "text"
	FormatPDF       DocumentFormat = "pdf"
	FormatDocx      DocumentFormat = "docx"
	FormatImage     DocumentFormat = "image"
)

const (
	MimeText = "text/plain"
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeWEBP = "image/webp"
)

// FormatFromMime maps a declared upload MIME type onto the closed format set.
func FormatFromMime(contentType string) DocumentFormat {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case MimeText:
		return FormatPlainText
	case MimePDF:
		return FormatPDF
	case MimeDocx:
		return FormatDocx
	case MimePNG, MimeJPEG, MimeWEBP:
		return FormatImage
	default:
		return FormatUnknown
	}
}

// UploadedDocument holds one uploaded file for the lifetime of a single request.
type UploadedDocument struct {
	Data     []byte
	Format   DocumentFormat
	MimeType string
	Filename string
	Size     int64
}

func NewUploadedDocument(data []byte, contentType, filename string) *UploadedDocument {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return &UploadedDocument{
		Data:     data,
		Format:   FormatFromMime(contentType),
		MimeType: mediaType,
		Filename: filename,
		Size:     int64(len(data)),
	}
}

type FeedbackRequest struct {
	// RequestID is echoed as X-Request-ID and keys the FeedbackLog row.
	RequestID uuid.UUID
	Text      string
	Document  *UploadedDocument
	TextType  string
	Level     string
	Lang      Language
}

type LanguageIssues struct {
	Grammar  []string `json:"grammar" yaml:"grammar"`
	Spelling []string `json:"spelling" yaml:"spelling"`
}

// FeedbackResult is the response schema. Score is nil (JSON null), an int in
// [1,10], or whatever non-numeric value the model produced.
type FeedbackResult struct {
	Score            any            `json:"score" yaml:"score"`
	ScoreExplanation string         `json:"score_explanation" yaml:"score_explanation"`
	Strengths        []string       `json:"strengths" yaml:"strengths"`
	Improvements     []string       `json:"improvements" yaml:"improvements"`
	LanguageIssues   LanguageIssues `json:"language_issues" yaml:"language_issues"`
	NextSteps        []string       `json:"next_steps" yaml:"next_steps"`
	MiniExercise     string         `json:"mini_exercise" yaml:"mini_exercise"`
}

// EmptyFeedback returns a result with every list initialised so it never
// serialises a null list.
func EmptyFeedback() FeedbackResult {
	return FeedbackResult{
		Strengths:    []string{},
		Improvements: []string{},
		LanguageIssues: LanguageIssues{
			Grammar:  []string{},
			Spelling: []string{},
		},
		NextSteps: []string{},
	}
}

// IntScore returns the score when it is an integer value.
func (f FeedbackResult) IntScore() (int, bool) {
	switch v := f.Score.(type) {
	case int:
		return v, true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// FeedbackForm is the POST /api/feedback body. It is bound from multipart,
// url-encoded or JSON bodies.
type FeedbackForm struct {
	Text     string `form:"text" json:"text"`
	TextType string `form:"textType" json:"textType"`
	Level    string `form:"level" json:"level"`
	Lang     string `form:"lang" json:"lang"`
}

// WithDefaults fills empty fields the way the web form expects.
func (f FeedbackForm) WithDefaults() FeedbackForm {
	if strings.TrimSpace(f.TextType) == "" {
		f.TextType = "Essay"
	}
	if strings.TrimSpace(f.Level) == "" {
		f.Level = "Q1"
	}
	if strings.TrimSpace(f.Lang) == "" {
		f.Lang = string(LangDE)
	}
	return f
}
