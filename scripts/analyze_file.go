package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
	"alfredoptarigan/writing-feedback/internal/services"
)

// Runs the feedback pipeline against a local file or text and prints the
// result as JSON:
//
//	go run ./scripts -file essay.pdf -lang en
//	go run ./scripts -text "..." -provider demo
func main() {
	var (
		filePath = flag.String("file", "", "path to a .txt, .pdf, .docx, .png, .jpg or .webp file")
		text     = flag.String("text", "", "text to analyse when no file is given")
		textType = flag.String("type", "Essay", "text type, e.g. Essay or Erörterung")
		level    = flag.String("level", "Q1", "target group / level")
		lang     = flag.String("lang", "de", "feedback language (de or en)")
		provider = flag.String("provider", "", "override PROVIDER (deepseek, ollama, gemini, demo)")
		quiet    = flag.Bool("quiet", false, "suppress logs")
	)
	flag.Parse()

	cfg := config.Load()
	if *provider != "" {
		cfg.Provider.Name = *provider
	}

	log := logger.Nop()
	if !*quiet {
		l, err := logger.New(cfg.Server.Env)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
		log = l
	}
	defer log.Sync()

	ctx := context.Background()
	req := &models.FeedbackRequest{
		Text:     *text,
		TextType: *textType,
		Level:    *level,
		Lang:     models.ParseLanguage(*lang),
	}

	if *filePath != "" {
		doc, err := loadDocument(*filePath, cfg.MaxFileBytes())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		log.Info("file loaded", "path", *filePath, "mime", doc.MimeType, "format", doc.Format, "size_bytes", doc.Size)
		req.Document = doc
	}

	completion, err := services.NewCompletionProvider(ctx, cfg.Provider, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "provider: %v\n", err)
		os.Exit(1)
	}

	extractor := services.NewExtractorService(
		services.NewPDFParserService(),
		services.NewDocxParserService(),
		services.NewOCRService(cfg.OCR, log),
		log,
	)
	feedbackService := services.NewFeedbackService(extractor, completion, nil, cfg.IsDemo(), log)

	result, err := feedbackService.GenerateFeedback(ctx, req)
	if err != nil {
		kind, _ := services.KindOf(err)
		if kind.IsClientError() {
			fmt.Fprintln(os.Stderr, services.UserMessage(kind, req.Lang))
		} else {
			fmt.Fprintf(os.Stderr, "feedback failed: %v\n", err)
		}
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// loadDocument reads path and detects its MIME type from content, the way
// a browser upload would declare it.
func loadDocument(path string, maxBytes int64) (*models.UploadedDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), maxBytes)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect mime type: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return models.NewUploadedDocument(data, mtype.String(), filepath.Base(path)), nil
}
