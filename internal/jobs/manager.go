// Package jobs orchestrates the full lifecycle of generation jobs: prompt
// assembly, quality scoring, model dispatch, rendering, artifact storage
// and result caching.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"researchd/internal/cache"
	"researchd/internal/domain"
	"researchd/internal/extract"
	"researchd/internal/llm"
	"researchd/internal/pattern"
	"researchd/internal/render"
	"researchd/internal/score"
	"researchd/internal/speech"
	"researchd/internal/storage"
)

// Error classes recorded on failed jobs.
const (
	ErrClassQualityGate       = "quality_gate"
	ErrClassProviderPermanent = "provider_permanent"
	ErrClassProviderTransient = "provider_transient"
	ErrClassInternal          = "internal"
)

const previewLen = 280

// Options wires a Manager.
type Options struct {
	Composer  *pattern.Composer
	Scorer    *score.Scorer
	Router    *llm.Router
	Results   *cache.Cache
	Audio     *cache.Cache
	Store     *storage.FileStore
	Extractor *extract.Service
	Documents domain.DocumentRepository
	Jobs      domain.JobRepository
	// Synth is optional; without it audio requests fail cleanly.
	Synth  speech.Synthesizer
	Voice  speech.VoiceParams
	Logger zerolog.Logger
}

// Manager owns job state. All transitions go through it; callers only ever
// observe jobs, never mutate them.
type Manager struct {
	composer  *pattern.Composer
	scorer    *score.Scorer
	router    *llm.Router
	results   *cache.Cache
	audio     *cache.Cache
	store     *storage.FileStore
	extractor *extract.Service
	docs      domain.DocumentRepository
	jobs      domain.JobRepository
	synth     speech.Synthesizer
	voice     speech.VoiceParams
	logger    zerolog.Logger
}

func NewManager(opts Options) *Manager {
	return &Manager{
		composer:  opts.Composer,
		scorer:    opts.Scorer,
		router:    opts.Router,
		results:   opts.Results,
		audio:     opts.Audio,
		store:     opts.Store,
		extractor: opts.Extractor,
		docs:      opts.Documents,
		jobs:      opts.Jobs,
		synth:     opts.Synth,
		voice:     opts.Voice,
		logger:    opts.Logger,
	}
}

// IngestDocument extracts text from an uploaded file and persists it.
func (m *Manager) IngestDocument(ctx context.Context, filename, contentType string, data []byte) (*domain.Document, error) {
	res, err := m.extractor.Extract(ctx, filename, contentType, data)
	if err != nil {
		return nil, err
	}
	doc := &domain.Document{
		ID:        uuid.NewString(),
		Filename:  filename,
		Title:     res.Title,
		Content:   res.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}
	m.logger.Info().
		Str("document_id", doc.ID).
		Str("filename", filename).
		Int("chars", len(doc.Content)).
		Msg("document ingested")
	return doc, nil
}

// GenerateRequest asks for one document-derived artifact.
type GenerateRequest struct {
	DocumentID   string
	TaskType     domain.TaskType
	OutputFormat string
	ModelPolicy  string
	// ExtraInstructions are appended to the task prompt and take part in
	// the result fingerprint.
	ExtraInstructions string
}

// SubmitGenerate runs a document task end to end and returns the final
// job. Validation failures return an error before any job exists; once a
// job is created, failures land in the job's terminal state instead.
func (m *Manager) SubmitGenerate(ctx context.Context, req GenerateRequest) (*domain.Job, error) {
	if !domain.ValidTask(req.TaskType) || req.TaskType == domain.TaskPromptBuilder {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTask, req.TaskType)
	}
	policy, err := resolvePolicy(req.ModelPolicy)
	if err != nil {
		return nil, err
	}
	format, err := render.ResolveFormat(req.TaskType, req.OutputFormat)
	if err != nil {
		return nil, err
	}
	doc, err := m.docs.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	fingerprint := pattern.Fingerprint(
		[]string{"task/" + string(req.TaskType)},
		[]pattern.Tag{
			{Name: "document_id", Value: doc.ID},
			{Name: "format", Value: string(format)},
			{Name: "policy", Value: string(policy)},
			{Name: "extra", Value: req.ExtraInstructions},
		},
	)

	job := &domain.Job{
		ID:           uuid.NewString(),
		DocumentID:   &doc.ID,
		TaskType:     req.TaskType,
		OutputFormat: string(format),
		ModelPolicy:  req.ModelPolicy,
		State:        domain.JobStateCreated,
		Fingerprint:  fingerprint,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}
	if err := m.advance(ctx, job, domain.JobStateQueued); err != nil {
		return nil, err
	}

	// Cache hit short-circuits the queue directly to completion.
	if entry, ok := m.results.Get(fingerprint); ok {
		job.FileKey = entry.Ref
		job.Preview = m.previewFor(ctx, fingerprint)
		if err := m.advance(ctx, job, domain.JobStateCompleted); err != nil {
			return nil, err
		}
		m.logger.Info().Str("job_id", job.ID).Str("fingerprint", fingerprint).Msg("served from result cache")
		return job, nil
	}

	if err := m.advance(ctx, job, domain.JobStateRunning); err != nil {
		return nil, err
	}

	payload, err := documentPayload(req.TaskType, doc.Title, doc.Content, req.ExtraInstructions)
	if err != nil {
		return m.fail(ctx, job, ErrClassInternal, err)
	}
	job.PromptText = payload.Prompt

	fileKey, _, err := m.results.GetOrCompute(ctx, fingerprint, func(ctx context.Context) (string, error) {
		out, err := m.router.Dispatch(ctx, req.TaskType, payload, policy)
		if err != nil {
			return "", err
		}
		return m.persistResult(ctx, req.TaskType, format, fingerprint, doc.Title, out.Text)
	})
	if err != nil {
		return m.fail(ctx, job, classifyError(err), err)
	}

	job.FileKey = fileKey
	job.Preview = m.previewFor(ctx, fingerprint)
	if err := m.advance(ctx, job, domain.JobStateCompleted); err != nil {
		return nil, err
	}
	return job, nil
}

// PromptBuilderRequest asks for a model-refined prompt assembled from
// catalog patterns.
type PromptBuilderRequest struct {
	Patterns    []string
	Tags        []pattern.Tag
	ModelPolicy string
}

// PromptBuilderResult pairs the job with its scoring breakdown.
type PromptBuilderResult struct {
	Job      *domain.Job
	Score    score.Result
	Composed *pattern.ComposedPrompt
}

// SubmitPromptBuilder composes the selected patterns, scores the
// composition and, when it clears the quality gate, dispatches it for
// refinement. Prompts scoring below the acceptance threshold still
// complete but their output is not persisted.
func (m *Manager) SubmitPromptBuilder(ctx context.Context, req PromptBuilderRequest) (*PromptBuilderResult, error) {
	if len(req.Patterns) == 0 {
		return nil, errors.New("at least one pattern is required")
	}
	policy, err := resolvePolicy(req.ModelPolicy)
	if err != nil {
		return nil, err
	}
	composed, err := m.composer.Compose(req.Patterns, req.Tags)
	if err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:           uuid.NewString(),
		TaskType:     domain.TaskPromptBuilder,
		OutputFormat: string(render.FormatTxt),
		ModelPolicy:  req.ModelPolicy,
		State:        domain.JobStateCreated,
		Fingerprint:  composed.Fingerprint,
		PromptText:   composed.Text,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}
	if err := m.advance(ctx, job, domain.JobStateQueued); err != nil {
		return nil, err
	}

	result := m.scorer.Score(composed)
	job.Score = result.Score
	job.Accepted = result.Accepted

	if result.Score == 0 {
		job.ErrorClass = ErrClassQualityGate
		job.ErrorMessage = "composed prompt rejected by minimum-length gate"
		// The gate fires before any dispatch; the job still has to pass
		// through running to reach its terminal state.
		if err := m.advance(ctx, job, domain.JobStateRunning); err != nil {
			return nil, err
		}
		if err := m.advance(ctx, job, domain.JobStateFailed); err != nil {
			return nil, err
		}
		return &PromptBuilderResult{Job: job, Score: result, Composed: composed}, nil
	}

	if entry, ok := m.results.Get(composed.Fingerprint); ok {
		job.FileKey = entry.Ref
		job.Preview = m.previewFor(ctx, composed.Fingerprint)
		if err := m.advance(ctx, job, domain.JobStateCompleted); err != nil {
			return nil, err
		}
		return &PromptBuilderResult{Job: job, Score: result, Composed: composed}, nil
	}

	if err := m.advance(ctx, job, domain.JobStateRunning); err != nil {
		return nil, err
	}

	payload := builderPayload(composed)
	out, err := m.router.Dispatch(ctx, domain.TaskPromptBuilder, payload, policy)
	if err != nil {
		failed, ferr := m.fail(ctx, job, classifyError(err), err)
		if ferr != nil {
			return nil, ferr
		}
		return &PromptBuilderResult{Job: failed, Score: result, Composed: composed}, nil
	}

	job.Preview = previewOf(out.Text)
	if result.Accepted {
		fileKey, _, err := m.results.GetOrCompute(ctx, composed.Fingerprint, func(ctx context.Context) (string, error) {
			return m.persistText(ctx, "prompts", composed.Fingerprint, out.Text)
		})
		if err != nil {
			return m.failBuilder(ctx, job, result, composed, err)
		}
		job.FileKey = fileKey
	}

	if err := m.advance(ctx, job, domain.JobStateCompleted); err != nil {
		return nil, err
	}
	return &PromptBuilderResult{Job: job, Score: result, Composed: composed}, nil
}

// GetJob returns the persisted job.
func (m *Manager) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return m.jobs.GetByID(ctx, jobID)
}

// JobDownload returns the stored artifact for a completed job.
func (m *Manager) JobDownload(ctx context.Context, jobID string) ([]byte, string, error) {
	job, err := m.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	if job.State != domain.JobStateCompleted || job.FileKey == "" {
		return nil, "", domain.ErrJobNotCompleted
	}
	data, err := m.store.Read(ctx, job.FileKey)
	if err != nil {
		return nil, "", err
	}
	return data, render.ContentType(job.FileKey), nil
}

// JobAudio synthesizes (or fetches from the audio cache) a spoken version
// of a completed job's result text. Synthesis is lazy; the owning text job
// is never affected by an audio failure.
func (m *Manager) JobAudio(ctx context.Context, jobID string) ([]byte, error) {
	if m.synth == nil {
		return nil, &speech.SynthesisError{Reason: "audio synthesis is not configured"}
	}
	job, err := m.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.State != domain.JobStateCompleted || job.Fingerprint == "" {
		return nil, domain.ErrJobNotCompleted
	}

	audioKey := "audio/" + job.Fingerprint + "_" + m.voice.CacheSuffix()
	key, _, err := m.audio.GetOrCompute(ctx, audioKey, func(ctx context.Context) (string, error) {
		text, err := m.resultText(ctx, job.Fingerprint)
		if err != nil {
			return "", err
		}
		audio, err := m.synth.Synthesize(ctx, text, m.voice)
		if err != nil {
			return "", err
		}
		return m.store.Write(ctx, audioKey, audio)
	})
	if err != nil {
		return nil, err
	}

	if job.AudioKey != key {
		job.AudioKey = key
		if err := m.jobs.Update(ctx, job); err != nil {
			m.logger.Warn().Err(err).Str("job_id", job.ID).Msg("audio key not persisted")
		}
	}
	return m.store.Read(ctx, key)
}

// InvalidateResult drops the cached result and audio entries for a
// fingerprint. Stored artifacts stay on disk; only the cache forgets them.
func (m *Manager) InvalidateResult(fingerprint string) {
	m.results.Invalidate(fingerprint)
	m.audio.Invalidate("audio/" + fingerprint + "_" + m.voice.CacheSuffix())
	m.logger.Info().Str("fingerprint", fingerprint).Msg("result cache invalidated")
}

// ListPromptFiles returns the stored prompt artifacts.
func (m *Manager) ListPromptFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.store.List("prompts")
}

// PromptFile returns one stored prompt artifact by file name.
func (m *Manager) PromptFile(ctx context.Context, name string) ([]byte, error) {
	if strings.ContainsAny(name, "/\\") {
		return nil, domain.ErrNotFound
	}
	key := "prompts/" + name
	if !m.store.Exists(key) {
		return nil, domain.ErrNotFound
	}
	return m.store.Read(ctx, key)
}

// persistResult stores the raw model text and its rendered document,
// returning the rendered file key used as the cache reference.
func (m *Manager) persistResult(ctx context.Context, task domain.TaskType, format render.Format, fingerprint, title, text string) (string, error) {
	if _, err := m.persistText(ctx, "results", fingerprint, text); err != nil {
		return "", err
	}
	data, _, err := render.Document(task, format, title, text)
	if err != nil {
		return "", err
	}
	return m.store.Write(ctx, fmt.Sprintf("outputs/%s.%s", fingerprint, format), data)
}

func (m *Manager) persistText(ctx context.Context, dir, fingerprint, text string) (string, error) {
	return m.store.Write(ctx, fmt.Sprintf("%s/%s.txt", dir, fingerprint), []byte(text))
}

// resultText loads the raw text artifact behind a fingerprint, preferring
// the results namespace over prompt artifacts.
func (m *Manager) resultText(ctx context.Context, fingerprint string) (string, error) {
	for _, dir := range []string{"results", "prompts"} {
		key := fmt.Sprintf("%s/%s.txt", dir, fingerprint)
		if m.store.Exists(key) {
			data, err := m.store.Read(ctx, key)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
	}
	return "", fmt.Errorf("no text artifact for fingerprint %s: %w", fingerprint, domain.ErrNotFound)
}

func (m *Manager) previewFor(ctx context.Context, fingerprint string) string {
	text, err := m.resultText(ctx, fingerprint)
	if err != nil {
		return ""
	}
	return previewOf(text)
}

// advance transitions the job and persists the new state.
func (m *Manager) advance(ctx context.Context, job *domain.Job, next domain.JobState) error {
	if err := job.Transition(next); err != nil {
		return err
	}
	if err := m.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("persist job state: %w", err)
	}
	return nil
}

// fail moves a job to its failed terminal state, recording the error.
func (m *Manager) fail(ctx context.Context, job *domain.Job, class string, cause error) (*domain.Job, error) {
	job.ErrorClass = class
	job.ErrorMessage = cause.Error()
	if err := m.advance(ctx, job, domain.JobStateFailed); err != nil {
		return nil, err
	}
	m.logger.Error().
		Str("job_id", job.ID).
		Str("error_class", class).
		Err(cause).
		Msg("job failed")
	return job, nil
}

func (m *Manager) failBuilder(ctx context.Context, job *domain.Job, result score.Result, composed *pattern.ComposedPrompt, cause error) (*PromptBuilderResult, error) {
	failed, err := m.fail(ctx, job, classifyError(cause), cause)
	if err != nil {
		return nil, err
	}
	return &PromptBuilderResult{Job: failed, Score: result, Composed: composed}, nil
}

// resolvePolicy validates the caller's model policy, defaulting when empty.
func resolvePolicy(raw string) (llm.CostPolicy, error) {
	switch llm.CostPolicy(raw) {
	case "", llm.PolicyDefault:
		return llm.PolicyDefault, nil
	case llm.PolicyEconomy:
		return llm.PolicyEconomy, nil
	default:
		return "", fmt.Errorf("unknown model policy %q", raw)
	}
}

// classifyError maps a pipeline error to a job error class.
func classifyError(err error) string {
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		if genErr.Transient {
			return ErrClassProviderTransient
		}
		return ErrClassProviderPermanent
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrClassProviderTransient
	}
	return ErrClassInternal
}

func previewOf(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= previewLen {
		return text
	}
	cut := text[:previewLen]
	if idx := strings.LastIndex(cut, " "); idx > previewLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
