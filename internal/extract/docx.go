package extract

import (
	"context"
	"encoding/xml"
	"strings"

	"researchd/pkg/zip"
)

// wordDocument mirrors the pieces of the OOXML main document part we
// read: paragraphs of text runs.
type wordDocument struct {
	Body struct {
		Paragraphs []wordParagraph `xml:"p"`
	} `xml:"body"`
}

type wordParagraph struct {
	Runs []struct {
		Text string `xml:"t"`
	} `xml:"r"`
}

// extractDocx reads paragraph text out of the OOXML container. The first
// non-empty paragraph doubles as the title heuristic upstream.
func extractDocx(_ context.Context, _ string, data []byte) (*Result, error) {
	part, err := zip.Extract(data, "word/document.xml")
	if err != nil {
		return nil, &ExtractionError{ContentType: ContentTypeDocx, Reason: "not a wordprocessing container: " + err.Error()}
	}

	var doc wordDocument
	if err := xml.Unmarshal(part, &doc); err != nil {
		return nil, &ExtractionError{ContentType: ContentTypeDocx, Reason: "malformed document part: " + err.Error()}
	}

	paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
	for _, p := range doc.Body.Paragraphs {
		sb := &strings.Builder{}
		for _, run := range p.Runs {
			sb.WriteString(run.Text)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	if len(paragraphs) == 0 {
		return nil, &ExtractionError{ContentType: ContentTypeDocx, Reason: "document contains no text"}
	}

	return &Result{
		Title: paragraphs[0],
		Text:  strings.Join(paragraphs, "\n"),
	}, nil
}
