// Package extract turns uploaded document files into normalized text.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Result is the extracted title and normalized text of a document.
type Result struct {
	Title string
	Text  string
}

// ExtractionError reports unsupported or corrupt upload input. It fails
// the upload before any job exists.
type ExtractionError struct {
	ContentType string
	Reason      string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %s", e.ContentType, e.Reason)
}

// Extractor converts one document format into text.
type Extractor func(ctx context.Context, filename string, data []byte) (*Result, error)

// Service dispatches uploads to per-content-type extractors. External
// extractors (a PDF text service, OCR) register through Register.
type Service struct {
	byContentType map[string]Extractor
}

// Supported content types for upload.
const (
	ContentTypePDF   = "application/pdf"
	ContentTypeDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeWord  = "application/msword"
	ContentTypePlain = "text/plain"
)

// NewService builds a Service with the native extractors: DOCX and plain
// text. PDF extraction is an external capability; until one is
// registered, PDF uploads fail with an ExtractionError.
func NewService() *Service {
	s := &Service{byContentType: make(map[string]Extractor)}
	s.Register(ContentTypeDocx, extractDocx)
	s.Register(ContentTypeWord, extractDocx)
	s.Register(ContentTypePlain, extractPlain)
	s.Register(ContentTypePDF, func(ctx context.Context, filename string, data []byte) (*Result, error) {
		return nil, &ExtractionError{ContentType: ContentTypePDF, Reason: "no PDF extractor registered"}
	})
	return s
}

// Register installs an extractor for a content type, replacing any
// existing one. Call before serving traffic; the map is read-only after.
func (s *Service) Register(contentType string, fn Extractor) {
	s.byContentType[contentType] = fn
}

// Supported reports whether contentType can be ingested.
func (s *Service) Supported(contentType string) bool {
	_, ok := s.byContentType[normalizeContentType(contentType)]
	return ok
}

// Extract runs the registered extractor for the upload and applies title
// fallbacks: first non-empty line, then the title-cased filename stem.
func (s *Service) Extract(ctx context.Context, filename, contentType string, data []byte) (*Result, error) {
	ct := normalizeContentType(contentType)
	fn, ok := s.byContentType[ct]
	if !ok {
		return nil, &ExtractionError{ContentType: contentType, Reason: "unsupported content type"}
	}
	res, err := fn(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	res.Title = strings.TrimSpace(res.Title)
	if res.Title == "" {
		res.Title = firstLine(res.Text)
	}
	if res.Title == "" {
		res.Title = titleFromFilename(filename)
	}
	if len(res.Title) > 200 {
		res.Title = res.Title[:200]
	}
	return res, nil
}

func extractPlain(_ context.Context, _ string, data []byte) (*Result, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, &ExtractionError{ContentType: ContentTypePlain, Reason: "empty document"}
	}
	return &Result{Text: text}, nil
}

func normalizeContentType(ct string) string {
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func titleFromFilename(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	stem = strings.TrimSpace(stem)
	if stem == "" {
		return "Untitled Document"
	}
	return cases.Title(language.Und).String(stem)
}
