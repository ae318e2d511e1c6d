package handlers

import (
	"errors"
	"io"
	"net/http"

	"researchd/internal/extract"
)

// Upload accepts a multipart document, extracts its text and returns the
// stored document record.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload())
	if err := r.ParseMultipartForm(a.maxUpload()); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	doc, err := a.Manager.IngestDocument(r.Context(), header.Filename, contentType, data)
	if err != nil {
		var exErr *extract.ExtractionError
		if errors.As(err, &exErr) {
			a.error(w, http.StatusUnsupportedMediaType, "unsupported_document", exErr.Error())
			return
		}
		a.Logger.Error().Err(err).Str("filename", header.Filename).Msg("document ingest failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to ingest document")
		return
	}

	a.json(w, http.StatusCreated, map[string]any{
		"id":       doc.ID,
		"filename": doc.Filename,
		"title":    doc.Title,
		"chars":    len(doc.Content),
	})
}
