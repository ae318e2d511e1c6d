// Package handlers implements the HTTP surface of the service.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"researchd/internal/jobs"
	"researchd/internal/pattern"
	"researchd/internal/scholar"
)

// App bundles the dependencies handlers need. Handlers never reach the
// database or providers directly; everything goes through the manager.
type App struct {
	Manager  *jobs.Manager
	Registry *pattern.Registry
	// Scholar is optional; without it related-search returns 503.
	Scholar scholar.Searcher
	Logger  zerolog.Logger

	// MaxUploadBytes caps multipart uploads. Zero means the default.
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 32 << 20

func (a *App) maxUpload() int64 {
	if a.MaxUploadBytes > 0 {
		return a.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{
			"kind":    kind,
			"message": message,
		},
	})
}
