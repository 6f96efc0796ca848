package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/writing-feedback/internal/models"
)

var ErrFeedbackLogNotFound = errors.New("feedback log not found")

type FeedbackLogRepository interface {
	Create(entry *models.FeedbackLog) error
	FindByID(id uuid.UUID) (*models.FeedbackLog, error)
	FindRecent(limit int) ([]models.FeedbackLog, error)
}

type feedbackLogRepository struct {
	db *gorm.DB
}

func NewFeedbackLogRepository(db *gorm.DB) FeedbackLogRepository {
	return &feedbackLogRepository{db: db}
}

func (r *feedbackLogRepository) Create(entry *models.FeedbackLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create feedback log: %w", err)
	}
	return nil
}

func (r *feedbackLogRepository) FindByID(id uuid.UUID) (*models.FeedbackLog, error) {
	var entry models.FeedbackLog
	if err := r.db.Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackLogNotFound
		}
		return nil, fmt.Errorf("failed to find feedback log: %w", err)
	}
	return &entry, nil
}

// FindRecent returns the newest entries first.
func (r *feedbackLogRepository) FindRecent(limit int) ([]models.FeedbackLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var entries []models.FeedbackLog
	err := r.db.
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find recent feedback logs: %w", err)
	}
	return entries, nil
}
