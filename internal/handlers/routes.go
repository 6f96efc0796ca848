package handlers

import (
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the feedback API and the static pages.
func RegisterRoutes(app *fiber.App, feedback *FeedbackHandler, logs *FeedbackLogHandler, staticDir string) {
	api := app.Group("/api")
	api.Post("/feedback", feedback.HandleFeedback)
	api.Get("/feedback/logs", logs.HandleListLogs)
	api.Get("/feedback/logs/:id", logs.HandleGetLog)

	app.Get("/tool", func(c *fiber.Ctx) error {
		return c.SendFile(filepath.Join(staticDir, "tool.html"))
	})
	app.Static("/", staticDir)
}
