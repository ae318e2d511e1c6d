// Package render turns generated text into downloadable documents.
package render

import (
	"fmt"

	"researchd/internal/domain"
)

// Format is a supported output document format.
type Format string

const (
	FormatTxt  Format = "txt"
	FormatDocx Format = "docx"
	FormatTex  Format = "tex"
)

// DefaultFormat returns the output format a task uses when the caller does
// not specify one.
func DefaultFormat(task domain.TaskType) Format {
	switch task {
	case domain.TaskLongSummary, domain.TaskResearchSummary:
		return FormatDocx
	case domain.TaskMathProof:
		return FormatTex
	default:
		return FormatTxt
	}
}

// allowedFormats restricts the formats a task may request. Tasks absent
// from the map accept only their default.
var allowedFormats = map[domain.TaskType][]Format{
	domain.TaskResearchSummary: {FormatDocx, FormatTex},
	domain.TaskMathProof:       {FormatTex},
}

// ResolveFormat validates the requested format for a task, applying the
// default on an empty request.
func ResolveFormat(task domain.TaskType, requested string) (Format, error) {
	if requested == "" {
		return DefaultFormat(task), nil
	}
	f := Format(requested)
	allowed, ok := allowedFormats[task]
	if !ok {
		if f == DefaultFormat(task) {
			return f, nil
		}
		return "", fmt.Errorf("%w: %s does not support %q", domain.ErrInvalidFormat, task, requested)
	}
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s does not support %q", domain.ErrInvalidFormat, task, requested)
}

// Document renders text into format, returning the bytes and the MIME
// content type.
func Document(task domain.TaskType, format Format, title, text string) ([]byte, string, error) {
	switch format {
	case FormatTxt:
		return []byte(text), "text/plain; charset=utf-8", nil
	case FormatDocx:
		data, err := buildDocx(docTitle(task, title), text)
		if err != nil {
			return nil, "", err
		}
		return data, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil
	case FormatTex:
		data, err := buildLatex(task, title, text)
		if err != nil {
			return nil, "", err
		}
		return data, "application/x-tex", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", domain.ErrInvalidFormat, format)
	}
}

// ContentType returns the MIME type for a stored artifact key extension.
func ContentType(key string) string {
	switch {
	case hasSuffix(key, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case hasSuffix(key, ".tex"):
		return "application/x-tex"
	case hasSuffix(key, ".mp3"):
		return "audio/mpeg"
	case hasSuffix(key, ".pdf"):
		return "application/pdf"
	default:
		return "text/plain; charset=utf-8"
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func docTitle(task domain.TaskType, title string) string {
	if task == domain.TaskResearchSummary {
		return "Research Summary: " + title
	}
	return title
}
