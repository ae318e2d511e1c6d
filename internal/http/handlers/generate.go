package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"researchd/internal/domain"
	"researchd/internal/jobs"
)

type generateRequest struct {
	DocumentID        string `json:"document_id"`
	TaskType          string `json:"task_type"`
	OutputFormat      string `json:"output_format"`
	ModelPolicy       string `json:"model_policy"`
	ExtraInstructions string `json:"extra_instructions"`
}

// Generate runs a document task and returns the resulting job.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.DocumentID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "document_id is required")
		return
	}

	job, err := a.Manager.SubmitGenerate(r.Context(), jobs.GenerateRequest{
		DocumentID:        req.DocumentID,
		TaskType:          domain.TaskType(req.TaskType),
		OutputFormat:      req.OutputFormat,
		ModelPolicy:       req.ModelPolicy,
		ExtraInstructions: req.ExtraInstructions,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "document not found")
		case errors.Is(err, domain.ErrInvalidTask), errors.Is(err, domain.ErrInvalidFormat):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		default:
			a.Logger.Error().Err(err).Str("document_id", req.DocumentID).Msg("generate failed")
			a.error(w, http.StatusInternalServerError, "internal", "generation failed")
		}
		return
	}

	a.json(w, http.StatusOK, jobView(job))
}

// jobView is the wire shape of a job.
func jobView(job *domain.Job) map[string]any {
	v := map[string]any{
		"id":            job.ID,
		"task_type":     job.TaskType,
		"state":         job.State,
		"output_format": job.OutputFormat,
		"fingerprint":   job.Fingerprint,
		"created_at":    job.CreatedAt,
	}
	if job.DocumentID != nil {
		v["document_id"] = *job.DocumentID
	}
	if job.Preview != "" {
		v["preview"] = job.Preview
	}
	if job.TaskType == domain.TaskPromptBuilder {
		v["score"] = job.Score
		v["accepted"] = job.Accepted
	}
	if job.State == domain.JobStateFailed {
		v["error_class"] = job.ErrorClass
		v["error_message"] = job.ErrorMessage
	}
	if job.StartedAt != nil {
		v["started_at"] = job.StartedAt
	}
	if job.CompletedAt != nil {
		v["completed_at"] = job.CompletedAt
	}
	return v
}
