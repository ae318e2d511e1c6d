package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"researchd/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, document_id, task_type, output_format, model_policy, state, fingerprint,
                  prompt_text, preview, file_key, audio_key, score, accepted,
                  error_class, error_message, created_at, started_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.DocumentID,
		job.TaskType,
		job.OutputFormat,
		job.ModelPolicy,
		job.State,
		job.Fingerprint,
		job.PromptText,
		job.Preview,
		job.FileKey,
		job.AudioKey,
		job.Score,
		job.Accepted,
		job.ErrorClass,
		job.ErrorMessage,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	return err
}

// Update persists the mutable lifecycle fields of an existing job.
func (r *JobRepositoryPG) Update(ctx context.Context, job *domain.Job) error {
	query := `
UPDATE jobs
SET state = $2,
    fingerprint = $3,
    prompt_text = $4,
    preview = $5,
    file_key = $6,
    audio_key = $7,
    score = $8,
    accepted = $9,
    error_class = $10,
    error_message = $11,
    started_at = $12,
    completed_at = $13
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query,
		job.ID,
		job.State,
		job.Fingerprint,
		job.PromptText,
		job.Preview,
		job.FileKey,
		job.AudioKey,
		job.Score,
		job.Accepted,
		job.ErrorClass,
		job.ErrorMessage,
		job.StartedAt,
		job.CompletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, document_id, task_type, output_format, model_policy, state, fingerprint,
       prompt_text, preview, file_key, audio_key, score, accepted,
       error_class, error_message, created_at, started_at, completed_at
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.DocumentID,
		&job.TaskType,
		&job.OutputFormat,
		&job.ModelPolicy,
		&job.State,
		&job.Fingerprint,
		&job.PromptText,
		&job.Preview,
		&job.FileKey,
		&job.AudioKey,
		&job.Score,
		&job.Accepted,
		&job.ErrorClass,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}
