package services

import (
	"errors"
	"fmt"

	"alfredoptarigan/writing-feedback/internal/models"
)

type ErrorKind string

const (
	KindUnsupportedFormat   ErrorKind = "unsupported_format"
	KindExtractionFailed    ErrorKind = "extraction_failed"
	KindImageTooSmall       ErrorKind = "image_too_small"
	KindInsufficientContent ErrorKind = "insufficient_content"
	KindOversizedUpload     ErrorKind = "oversized_upload"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindProviderError       ErrorKind = "provider_error"
)

// FeedbackError is the typed failure of one pipeline stage.
type FeedbackError struct {
	Kind    ErrorKind
	Message string
	Details string
	Cause   error
}

func (e *FeedbackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FeedbackError) Unwrap() error {
	return e.Cause
}

// Is matches on kind so callers can write errors.Is(err, &FeedbackError{Kind: ...}).
func (e *FeedbackError) Is(target error) bool {
	t, ok := target.(*FeedbackError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newFeedbackError(kind ErrorKind, message string, cause error) *FeedbackError {
	return &FeedbackError{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of a FeedbackError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FeedbackError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// IsClientError reports whether the kind is caused by the caller's input.
func (k ErrorKind) IsClientError() bool {
	switch k {
	case KindUnsupportedFormat, KindExtractionFailed, KindImageTooSmall, KindInsufficientContent, KindOversizedUpload:
		return true
	}
	return false
}

// UserMessage returns the caller-facing text for a client-input error kind.
func UserMessage(kind ErrorKind, lang models.Language) string {
	en := lang == models.LangEN
	switch kind {
	case KindUnsupportedFormat:
		if en {
			return "File type not supported."
		}
		return "Dateityp nicht unterstützt."
	case KindExtractionFailed:
		if en {
			return "The file could not be read. Please upload a different file."
		}
		return "Die Datei konnte nicht gelesen werden. Bitte eine andere Datei hochladen."
	case KindImageTooSmall:
		if en {
			return "Image is too small for OCR. Please upload a larger/readable image."
		}
		return "Bild ist zu klein für OCR. Bitte ein größeres/lesbares Bild hochladen."
	case KindInsufficientContent:
		if en {
			return "Please enter text or upload a file with enough content."
		}
		return "Bitte Text eingeben oder eine Datei mit ausreichend Inhalt hochladen."
	default:
		if en {
			return "The feedback could not be generated. Please try again later."
		}
		return "Das Feedback konnte nicht erstellt werden. Bitte später erneut versuchen."
	}
}

// OversizedMessage is the 413 body text.
func OversizedMessage(maxMB int, lang models.Language) string {
	if lang == models.LangEN {
		return fmt.Sprintf("File too large. Maximum %d MB allowed.", maxMB)
	}
	return fmt.Sprintf("Datei zu groß. Maximal %d MB erlaubt.", maxMB)
}
