package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"researchd/internal/domain"
)

// DocumentRepositoryPG implements domain.DocumentRepository.
type DocumentRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository backed by PostgreSQL.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepositoryPG {
	return &DocumentRepositoryPG{pool: pool}
}

// Create inserts an extracted document.
func (r *DocumentRepositoryPG) Create(ctx context.Context, doc *domain.Document) error {
	query := `
INSERT INTO documents (id, filename, title, content, created_at)
VALUES ($1, $2, $3, $4, $5);
`
	_, err := r.pool.Exec(ctx, query,
		doc.ID,
		doc.Filename,
		doc.Title,
		doc.Content,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by its identifier.
func (r *DocumentRepositoryPG) GetByID(ctx context.Context, docID string) (*domain.Document, error) {
	query := `
SELECT id, filename, title, content, created_at
FROM documents
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, docID)
	var doc domain.Document
	if err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.Title,
		&doc.Content,
		&doc.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}
