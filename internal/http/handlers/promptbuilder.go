package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"researchd/internal/domain"
	"researchd/internal/jobs"
	"researchd/internal/pattern"
)

type promptBuilderRequest struct {
	Patterns    []string      `json:"patterns"`
	Tags        []pattern.Tag `json:"tags"`
	ModelPolicy string        `json:"model_policy"`
}

// PromptBuilder composes the selected patterns, scores the composition
// and returns the refined prompt job with its scoring breakdown.
func (a *App) PromptBuilder(w http.ResponseWriter, r *http.Request) {
	var req promptBuilderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	res, err := a.Manager.SubmitPromptBuilder(r.Context(), jobs.PromptBuilderRequest{
		Patterns:    req.Patterns,
		Tags:        req.Tags,
		ModelPolicy: req.ModelPolicy,
	})
	if err != nil {
		var missing *pattern.MissingTagError
		var unknown *pattern.UnknownPatternError
		switch {
		case errors.As(err, &missing), errors.As(err, &unknown):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		default:
			a.Logger.Error().Err(err).Msg("prompt builder failed")
			a.error(w, http.StatusInternalServerError, "internal", "prompt build failed")
		}
		return
	}

	view := jobView(res.Job)
	view["prompt_text"] = res.Composed.Text
	view["score_detail"] = res.Score
	view["used_tags"] = res.Composed.UsedTags
	if res.Job.FileKey != "" {
		view["file_key"] = res.Job.FileKey
	}
	a.json(w, http.StatusOK, view)
}

// PromptFiles lists the stored prompt artifacts.
func (a *App) PromptFiles(w http.ResponseWriter, r *http.Request) {
	files, err := a.Manager.ListPromptFiles(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("prompt file listing failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list prompt files")
		return
	}
	if files == nil {
		files = []string{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": files})
}

// PromptFile streams one stored prompt artifact.
func (a *App) PromptFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := a.Manager.PromptFile(r.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "prompt file not found")
			return
		}
		a.Logger.Error().Err(err).Str("name", name).Msg("prompt file read failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read prompt file")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(data)
}
