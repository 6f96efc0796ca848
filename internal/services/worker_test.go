package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []models.FeedbackLog
	err     error
}

func (f *fakeLogRepo) Create(entry *models.FeedbackLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogRepo) FindByID(id uuid.UUID) (*models.FeedbackLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeLogRepo) FindRecent(limit int) ([]models.FeedbackLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FeedbackLog(nil), f.entries...), nil
}

func (f *fakeLogRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func TestLogRecorderWritesQueuedEntriesBeforeStop(t *testing.T) {
	repo := &fakeLogRepo{}
	rec := NewLogRecorder(repo, 2, logger.Nop())
	rec.Start(context.Background())

	for i := 0; i < 10; i++ {
		rec.Record(&models.FeedbackLog{ID: uuid.New(), Status: models.StatusCompleted})
	}
	rec.Stop()

	if got := repo.count(); got != 10 {
		t.Fatalf("recorded %d entries, want 10", got)
	}

	rec.Record(&models.FeedbackLog{ID: uuid.New()})
	rec.Stop()
	if got := repo.count(); got != 10 {
		t.Fatalf("entry recorded after stop: %d", got)
	}
}

func TestLogRecorderSurvivesRepositoryErrors(t *testing.T) {
	repo := &fakeLogRepo{err: errors.New("db down")}
	rec := NewLogRecorder(repo, 1, logger.Nop())
	rec.Start(context.Background())
	rec.Record(&models.FeedbackLog{ID: uuid.New()})
	rec.Stop()

	if repo.count() != 0 {
		t.Fatal("failing repository should store nothing")
	}
}

func TestLogRecorderKeepsWritingAfterContextCancel(t *testing.T) {
	repo := &fakeLogRepo{}
	rec := NewLogRecorder(repo, 2, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	rec.Start(ctx)
	cancel()

	rec.Record(&models.FeedbackLog{ID: uuid.New(), Status: models.StatusCompleted})
	rec.Stop()

	if got := repo.count(); got != 1 {
		t.Fatalf("recorded %d entries after shutdown signal, want 1", got)
	}
}
