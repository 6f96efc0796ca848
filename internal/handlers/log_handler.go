package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/writing-feedback/internal/repositories"
)

type FeedbackLogHandler struct {
	logRepo repositories.FeedbackLogRepository
}

// NewFeedbackLogHandler accepts a nil repository; every lookup is then a 404.
func NewFeedbackLogHandler(logRepo repositories.FeedbackLogRepository) *FeedbackLogHandler {
	return &FeedbackLogHandler{
		logRepo: logRepo,
	}
}

// HandleGetLog handles GET /api/feedback/logs/:id
func (h *FeedbackLogHandler) HandleGetLog(c *fiber.Ctx) error {
	if h.logRepo == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Feedback logging is disabled",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid feedback log ID format",
		})
	}

	entry, err := h.logRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrFeedbackLogNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Feedback log not found",
			})
		}
		return err
	}

	return c.JSON(entry)
}

// HandleListLogs handles GET /api/feedback/logs
func (h *FeedbackLogHandler) HandleListLogs(c *fiber.Ctx) error {
	if h.logRepo == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Feedback logging is disabled",
		})
	}

	entries, err := h.logRepo.FindRecent(c.QueryInt("limit", 20))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"logs":  entries,
		"count": len(entries),
	})
}
