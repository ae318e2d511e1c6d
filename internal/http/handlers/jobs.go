package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"researchd/internal/domain"
	"researchd/internal/speech"
)

// JobStatus returns the current job record.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job, err := a.Manager.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("job lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	a.json(w, http.StatusOK, jobView(job))
}

// JobDownload streams the rendered artifact of a completed job.
func (a *App) JobDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	data, contentType, err := a.Manager.JobDownload(r.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "job or artifact not found")
		case errors.Is(err, domain.ErrJobNotCompleted):
			a.error(w, http.StatusConflict, "not_ready", "job has no downloadable result")
		default:
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("download failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load artifact")
		}
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	_, _ = w.Write(data)
}

// JobAudio returns a spoken rendition of a completed job's result,
// synthesizing it on first request.
func (a *App) JobAudio(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	audio, err := a.Manager.JobAudio(r.Context(), jobID)
	if err != nil {
		var synthErr *speech.SynthesisError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "job not found")
		case errors.Is(err, domain.ErrJobNotCompleted):
			a.error(w, http.StatusConflict, "not_ready", "job has no result to synthesize")
		case errors.As(err, &synthErr):
			a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("audio synthesis failed")
			a.error(w, http.StatusBadGateway, "synthesis_failed", synthErr.Error())
		default:
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("audio failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to produce audio")
		}
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(audio)))
	_, _ = w.Write(audio)
}

// InvalidateResult drops the cached result for a fingerprint.
func (a *App) InvalidateResult(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")
	if fingerprint == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "fingerprint is required")
		return
	}
	a.Manager.InvalidateResult(fingerprint)
	a.json(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
