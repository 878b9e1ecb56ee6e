package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"signet/internal/domain"
	"signet/internal/port"
)

type placeholderRepo struct {
	db *sqlx.DB
}

// NewPlaceholderRepo creates a new PostgreSQL-backed PlaceholderRepository.
func NewPlaceholderRepo(db *sqlx.DB) port.PlaceholderRepository {
	return &placeholderRepo{db: db}
}

func (r *placeholderRepo) q(ctx context.Context) sqlx.ExtContext {
	return executor(ctx, r.db)
}

// ReplaceAll deletes every prior placeholder for the document and inserts the
// new set. Callers run it inside a transaction so a failed insert never
// leaves the document without its previous layout.
func (r *placeholderRepo) ReplaceAll(ctx context.Context, docID uuid.UUID, placeholders []domain.Placeholder) error {
	if _, err := r.q(ctx).ExecContext(ctx,
		"DELETE FROM placeholders WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("placeholderRepo.ReplaceAll delete: %w", err)
	}

	now := time.Now().UTC()
	query := `INSERT INTO placeholders (
		id, document_id, signer_id, page, field_type,
		x, y, width, height, z_index, position, options, created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10, $11, $12, $13
	)`
	for i := range placeholders {
		p := &placeholders[i]
		p.DocumentID = docID
		p.Position = i
		p.CreatedAt = now
		if _, err := r.q(ctx).ExecContext(ctx, query,
			p.ID, p.DocumentID, p.SignerID, p.Page, p.FieldType,
			p.X, p.Y, p.Width, p.Height, p.ZIndex, p.Position, p.Options, p.CreatedAt); err != nil {
			return fmt.Errorf("placeholderRepo.ReplaceAll insert: %w", err)
		}
	}
	return nil
}

func (r *placeholderRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Placeholder, error) {
	var placeholders []domain.Placeholder
	err := sqlx.SelectContext(ctx, r.q(ctx), &placeholders,
		`SELECT * FROM placeholders WHERE document_id = $1 ORDER BY position`,
		docID)
	if err != nil {
		return nil, fmt.Errorf("placeholderRepo.ListByDocument: %w", err)
	}
	return placeholders, nil
}

func (r *placeholderRepo) ListBySigner(ctx context.Context, docID uuid.UUID, signerID *uuid.UUID) ([]domain.Placeholder, error) {
	var placeholders []domain.Placeholder
	var err error
	if signerID == nil {
		err = sqlx.SelectContext(ctx, r.q(ctx), &placeholders,
			`SELECT * FROM placeholders WHERE document_id = $1 AND signer_id IS NULL ORDER BY position`,
			docID)
	} else {
		err = sqlx.SelectContext(ctx, r.q(ctx), &placeholders,
			`SELECT * FROM placeholders WHERE document_id = $1 AND signer_id = $2 ORDER BY position`,
			docID, *signerID)
	}
	if err != nil {
		return nil, fmt.Errorf("placeholderRepo.ListBySigner: %w", err)
	}
	return placeholders, nil
}
