package services

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"unicode/utf8"

	_ "golang.org/x/image/webp"

	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

// MinImageBytes is the upload size below which an image is rejected before
// OCR. It is a byte-size heuristic for "too low resolution", not a real
// dimension check: a large PNG can still be unreadable and a small JPEG fine.
const MinImageBytes = 30_000

type ExtractorService interface {
	Extract(ctx context.Context, doc *models.UploadedDocument) (string, error)
}

type extractorService struct {
	pdfParser  PDFParserService
	docxParser DocxParserService
	ocr        OCRService
	log        *logger.Logger
}

func NewExtractorService(
	pdfParser PDFParserService,
	docxParser DocxParserService,
	ocr OCRService,
	log *logger.Logger,
) ExtractorService {
	return &extractorService{
		pdfParser:  pdfParser,
		docxParser: docxParser,
		ocr:        ocr,
		log:        log,
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (e *extractorService) Extract(ctx context.Context, doc *models.UploadedDocument) (string, error) {
	switch doc.Format {
	case models.FormatPlainText:
		data := bytes.TrimPrefix(doc.Data, utf8BOM)
		if !utf8.Valid(data) {
			return "", newFeedbackError(KindExtractionFailed, "text file is not valid UTF-8", nil)
		}
		return string(data), nil

	case models.FormatPDF:
		content, err := e.pdfParser.ExtractTextWithMetaData(doc.Data)
		if err != nil {
			return "", newFeedbackError(KindExtractionFailed, "failed to parse PDF", err)
		}
		if content.SkippedPages > 0 {
			e.log.Warn("pdf pages skipped", "pages", content.PageCount, "skipped", content.SkippedPages)
		}
		return content.Text, nil

	case models.FormatDocx:
		text, err := e.docxParser.ExtractText(doc.Data)
		if err != nil {
			return "", newFeedbackError(KindExtractionFailed, "failed to parse DOCX", err)
		}
		return text, nil

	case models.FormatImage:
		if doc.Size < MinImageBytes {
			width, height := imageDimensions(doc.Data)
			e.log.Info("image rejected by size heuristic",
				"size_bytes", doc.Size,
				"min_bytes", MinImageBytes,
				"width", width,
				"height", height,
			)
			return "", newFeedbackError(KindImageTooSmall, "image below OCR size floor", nil)
		}
		text, err := e.ocr.Recognize(ctx, doc)
		if err != nil {
			return "", newFeedbackError(KindExtractionFailed, "OCR failed", err)
		}
		return text, nil

	default:
		return "", newFeedbackError(KindUnsupportedFormat, "unsupported file type "+doc.MimeType, nil)
	}
}

// imageDimensions decodes only the image header; zeros when undecodable.
func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
