package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
	"alfredoptarigan/writing-feedback/internal/services"
)

// serverErrorLabel is the fixed "error" value of every 500 response.
const serverErrorLabel = "Serverfehler"

type FeedbackHandler struct {
	feedbackService services.FeedbackService
	maxFileMB       int
	log             *logger.Logger
}

func NewFeedbackHandler(
	feedbackService services.FeedbackService,
	maxFileMB int,
	log *logger.Logger,
) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		maxFileMB:       maxFileMB,
		log:             log,
	}
}

func (h *FeedbackHandler) maxFileBytes() int64 {
	return int64(h.maxFileMB) * 1024 * 1024
}

// HandleFeedback handles POST /api/feedback
func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var form models.FeedbackForm
	if err := c.BodyParser(&form); err != nil {
		h.log.Debug("feedback form not parsed", "content_type", c.Get(fiber.HeaderContentType), "error", err)
	}
	form = form.WithDefaults()
	lang := models.ParseLanguage(form.Lang)

	requestID := uuid.New()
	c.Set(fiber.HeaderXRequestID, requestID.String())

	req := &models.FeedbackRequest{
		RequestID: requestID,
		Text:      form.Text,
		TextType:  form.TextType,
		Level:     form.Level,
		Lang:      lang,
	}

	if fileHeader, err := c.FormFile("file"); err == nil {
		doc, err := h.readUpload(fileHeader)
		if err != nil {
			return h.writeError(c, err, lang)
		}
		req.Document = doc
	}

	result, err := h.feedbackService.GenerateFeedback(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err, lang)
	}

	return c.JSON(result)
}

// readUpload copies the file into memory. Nothing is written to disk.
func (h *FeedbackHandler) readUpload(fileHeader *multipart.FileHeader) (*models.UploadedDocument, error) {
	limit := h.maxFileBytes()
	if fileHeader.Size > limit {
		return nil, &services.FeedbackError{Kind: services.KindOversizedUpload, Message: "upload exceeds limit"}
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, &services.FeedbackError{Kind: services.KindExtractionFailed, Message: "failed to open upload", Cause: err}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, &services.FeedbackError{Kind: services.KindExtractionFailed, Message: "failed to read upload", Cause: err}
	}
	if int64(len(data)) > limit {
		return nil, &services.FeedbackError{Kind: services.KindOversizedUpload, Message: "upload exceeds limit"}
	}

	return models.NewUploadedDocument(data, fileHeader.Header.Get(fiber.HeaderContentType), fileHeader.Filename), nil
}

func (h *FeedbackHandler) writeError(c *fiber.Ctx, err error, lang models.Language) error {
	kind, ok := services.KindOf(err)

	switch {
	case ok && kind == services.KindOversizedUpload:
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": services.OversizedMessage(h.maxFileMB, lang),
		})
	case ok && kind.IsClientError():
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": services.UserMessage(kind, lang),
		})
	default:
		h.log.Error("feedback request failed",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"kind", kind,
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   serverErrorLabel,
			"details": services.UserMessage(kind, lang),
		})
	}
}

// NewErrorHandler produces the fiber error handler. Body limit overflows get
// the localized 413 message; anything unexpected collapses into a generic 500.
func NewErrorHandler(maxFileMB int, log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		lang := models.ParseLanguage(c.Query("lang", string(models.LangDE)))

		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch {
			case fe.Code == fiber.StatusRequestEntityTooLarge:
				return c.Status(fe.Code).JSON(fiber.Map{
					"error": services.OversizedMessage(maxFileMB, lang),
				})
			case fe.Code < fiber.StatusInternalServerError:
				return c.Status(fe.Code).JSON(fiber.Map{
					"error": fe.Message,
				})
			}
		}

		log.Error("unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   serverErrorLabel,
			"details": services.UserMessage("", lang),
		})
	}
}
