package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
	"alfredoptarigan/writing-feedback/internal/repositories"
)

type fakeLogRepo struct {
	entries map[uuid.UUID]models.FeedbackLog
}

func (f *fakeLogRepo) Create(entry *models.FeedbackLog) error {
	f.entries[entry.ID] = *entry
	return nil
}

func (f *fakeLogRepo) FindByID(id uuid.UUID) (*models.FeedbackLog, error) {
	e, ok := f.entries[id]
	if !ok {
		return nil, repositories.ErrFeedbackLogNotFound
	}
	return &e, nil
}

func (f *fakeLogRepo) FindRecent(limit int) ([]models.FeedbackLog, error) {
	out := make([]models.FeedbackLog, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func newLogApp(repo repositories.FeedbackLogRepository) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: NewErrorHandler(30, logger.Nop())})
	h := NewFeedbackLogHandler(repo)
	app.Get("/api/feedback/logs", h.HandleListLogs)
	app.Get("/api/feedback/logs/:id", h.HandleGetLog)
	return app
}

func TestHandleGetLog(t *testing.T) {
	id := uuid.New()
	repo := &fakeLogRepo{entries: map[uuid.UUID]models.FeedbackLog{
		id: {ID: id, Status: models.StatusCompleted, Lang: "de", CharCount: 240},
	}}
	app := newLogApp(repo)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/api/feedback/logs/" + id.String(), fiber.StatusOK},
		{"unknown", "/api/feedback/logs/" + uuid.NewString(), fiber.StatusNotFound},
		{"invalid id", "/api/feedback/logs/not-a-uuid", fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/feedback/logs/"+id.String(), nil))
	body := decodeBody(t, resp)
	if body["status"] != "completed" || body["char_count"] != float64(240) {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["text"]; ok {
		t.Fatal("log entries must not carry student text")
	}
}

func TestHandleListLogs(t *testing.T) {
	repo := &fakeLogRepo{entries: map[uuid.UUID]models.FeedbackLog{}}
	for i := 0; i < 2; i++ {
		_ = repo.Create(&models.FeedbackLog{ID: uuid.New()})
	}

	resp, err := newLogApp(repo).Test(httptest.NewRequest(http.MethodGet, "/api/feedback/logs?limit=5", nil))
	if err != nil {
		t.Fatal(err)
	}
	if body := decodeBody(t, resp); body["count"] != float64(2) {
		t.Fatalf("count = %v", body["count"])
	}
}

func TestLogHandlerDisabled(t *testing.T) {
	app := newLogApp(nil)
	for _, path := range []string{"/api/feedback/logs", "/api/feedback/logs/" + uuid.NewString()} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("%s: status = %d, want 404", path, resp.StatusCode)
		}
	}
}
