package services

import (
	"context"
	"sync"

	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
	"alfredoptarigan/writing-feedback/internal/repositories"
)

// LogRecorder writes FeedbackLog rows off the request path.
type LogRecorder interface {
	Start(ctx context.Context)
	Stop()
	Record(entry *models.FeedbackLog)
}

type logRecorder struct {
	repo        repositories.FeedbackLogRepository
	log         *logger.Logger
	queue       chan *models.FeedbackLog
	concurrency int
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
}

func NewLogRecorder(repo repositories.FeedbackLogRepository, concurrency int, log *logger.Logger) LogRecorder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &logRecorder{
		repo:        repo,
		log:         log,
		queue:       make(chan *models.FeedbackLog, 256),
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the writers. They run until Stop, not until the context is
// done, so requests finishing during graceful shutdown are still recorded.
func (w *logRecorder) Start(_ context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processEntries(i + 1)
	}
	w.log.Info("feedback log recorder started", "workers", w.concurrency)
}

// Stop waits until every queued entry has been written.
func (w *logRecorder) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("feedback log recorder stopped")
	})
}

// Record never blocks. When the queue is full the entry is dropped.
func (w *logRecorder) Record(entry *models.FeedbackLog) {
	select {
	case <-w.stopChan:
		w.log.Warn("recorder stopped, dropping feedback log", "id", entry.ID)
		return
	default:
	}

	select {
	case w.queue <- entry:
	default:
		w.log.Warn("feedback log queue full, dropping entry", "id", entry.ID)
	}
}

func (w *logRecorder) processEntries(workerID int) {
	defer w.wg.Done()

	for {
		select {
		case entry := <-w.queue:
			w.write(workerID, entry)
		case <-w.stopChan:
			w.drain(workerID)
			return
		}
	}
}

func (w *logRecorder) drain(workerID int) {
	for {
		select {
		case entry := <-w.queue:
			w.write(workerID, entry)
		default:
			return
		}
	}
}

func (w *logRecorder) write(workerID int, entry *models.FeedbackLog) {
	if err := w.repo.Create(entry); err != nil {
		w.log.Error("failed to record feedback log", "worker", workerID, "id", entry.ID, "error", err)
	}
}
