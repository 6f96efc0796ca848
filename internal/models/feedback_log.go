package models

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackStatus string

const (
	StatusCompleted FeedbackStatus = "completed"
	StatusDemo      FeedbackStatus = "demo"
	StatusRejected  FeedbackStatus = "rejected"
	StatusFailed    FeedbackStatus = "failed"
)

// FeedbackLog is per-request audit metadata. It never holds the student text
// or the uploaded bytes.
type FeedbackLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Lang         string         `gorm:"type:text" json:"lang"`
	Level        string         `gorm:"type:text" json:"level"`
	TextType     string         `gorm:"type:text" json:"text_type"`
	Provider     string         `gorm:"type:text" json:"provider"`
	SourceFormat string         `gorm:"type:text" json:"source_format"`
	CharCount    int            `json:"char_count"`
	Score        *int           `json:"score,omitempty"`
	Degraded     bool           `json:"degraded"`
	Status       FeedbackStatus `gorm:"not null;default:'completed'" json:"status"`
	ErrorCode    string         `gorm:"type:text" json:"error_code,omitempty"`
	DurationMS   int64          `json:"duration_ms"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (FeedbackLog) TableName() string {
	return "feedback_logs"
}
