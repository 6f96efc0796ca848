package services

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/image/webp"

	"alfredoptarigan/writing-feedback/internal/config"
	"alfredoptarigan/writing-feedback/internal/models"
	"alfredoptarigan/writing-feedback/internal/pkg/logger"
)

// Runner lets tests stub the tesseract binary. stdin is piped to the process.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

type OCRService interface {
	Recognize(ctx context.Context, doc *models.UploadedDocument) (string, error)
}

type tesseractOCRService struct {
	cfg    config.OCRConfig
	runner Runner
	log    *logger.Logger
}

func NewOCRService(cfg config.OCRConfig, log *logger.Logger) OCRService {
	return NewOCRServiceWithRunner(cfg, execRunner{}, log)
}

func NewOCRServiceWithRunner(cfg config.OCRConfig, runner Runner, log *logger.Logger) OCRService {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &tesseractOCRService{cfg: cfg, runner: runner, log: log}
}

// Recognize streams the image to tesseract over stdin; nothing is written to
// disk. The process is killed when ctx is done or the timeout elapses.
func (s *tesseractOCRService) Recognize(ctx context.Context, doc *models.UploadedDocument) (string, error) {
	data := doc.Data
	if doc.MimeType == models.MimeWEBP {
		converted, err := webpToPNG(doc.Data)
		if err != nil {
			return "", err
		}
		data = converted
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	// tesseract stdin stdout -l <lang>
	args := []string{"stdin", "stdout", "-l", s.cfg.Lang}
	if s.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", s.cfg.TessdataDir)
	}

	start := time.Now()
	out, errb, err := s.runner.Run(ctx, data, s.cfg.Tesseract, args...)
	if err != nil {
		s.log.Error("tesseract failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"stderr", truncate(string(errb), 8<<10),
			"error", err,
		)
		return "", fmt.Errorf("tesseract: %w", err)
	}

	s.log.Debug("tesseract ok",
		"duration_ms", time.Since(start).Milliseconds(),
		"stdin_bytes", len(data),
		"stdout_bytes", len(out),
	)
	return strings.TrimSpace(string(out)), nil
}

func webpToPNG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode webp: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
