package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"signet/internal/domain"
	"signet/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) q(ctx context.Context) sqlx.ExtContext {
	return executor(ctx, r.db)
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `INSERT INTO documents (
		id, title, category_id, org_wide, status, current_version_id, archived,
		send_in_order, time_to_complete_days, expiry_date,
		is_completed, is_declined, signed_url, original_name,
		created_by, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7,
		$8, $9, $10,
		$11, $12, $13, $14,
		$15, $16, $17
	)`

	_, err := r.q(ctx).ExecContext(ctx, query,
		doc.ID, doc.Title, doc.CategoryID, doc.OrgWide, doc.Status, doc.CurrentVersionID, doc.Archived,
		doc.SendInOrder, doc.TimeToCompleteDays, doc.ExpiryDate,
		doc.IsCompleted, doc.IsDeclined, doc.SignedURL, doc.OriginalName,
		doc.CreatedBy, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := sqlx.GetContext(ctx, r.q(ctx), &doc,
		"SELECT * FROM documents WHERE id = $1", docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) GetByIDForUpdate(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := sqlx.GetContext(ctx, r.q(ctx), &doc,
		"SELECT * FROM documents WHERE id = $1 FOR UPDATE", docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByIDForUpdate: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, offset, limit int) ([]domain.Document, int, error) {
	var total int
	err := sqlx.GetContext(ctx, r.q(ctx), &total, "SELECT COUNT(*) FROM documents")
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List count: %w", err)
	}

	var docs []domain.Document
	err = sqlx.SelectContext(ctx, r.q(ctx), &docs,
		`SELECT * FROM documents ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List: %w", err)
	}
	return docs, total, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, docID uuid.UUID, status domain.DocumentStatus) error {
	result, err := r.q(ctx).ExecContext(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), docID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) UpdateCurrentVersion(ctx context.Context, docID, versionID uuid.UUID) error {
	result, err := r.q(ctx).ExecContext(ctx,
		`UPDATE documents SET current_version_id = $1, updated_at = $2 WHERE id = $3`,
		versionID, time.Now().UTC(), docID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateCurrentVersion: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) UpdateSigningConfig(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.q(ctx).ExecContext(ctx,
		`UPDATE documents SET
			send_in_order = $1, time_to_complete_days = $2, expiry_date = $3, updated_at = $4
		 WHERE id = $5`,
		doc.SendInOrder, doc.TimeToCompleteDays, doc.ExpiryDate, doc.UpdatedAt, doc.ID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateSigningConfig: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) UpdateCompletion(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.q(ctx).ExecContext(ctx,
		`UPDATE documents SET
			is_completed = $1, is_declined = $2, signed_url = $3, updated_at = $4
		 WHERE id = $5`,
		doc.IsCompleted, doc.IsDeclined, doc.SignedURL, doc.UpdatedAt, doc.ID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateCompletion: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) UpdateExpiry(ctx context.Context, docID uuid.UUID, expiry time.Time) error {
	result, err := r.q(ctx).ExecContext(ctx,
		`UPDATE documents SET expiry_date = $1, updated_at = $2 WHERE id = $3`,
		expiry, time.Now().UTC(), docID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateExpiry: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *documentRepo) ReplaceDepartments(ctx context.Context, docID uuid.UUID, departmentIDs []uuid.UUID) error {
	if _, err := r.q(ctx).ExecContext(ctx,
		"DELETE FROM document_departments WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("documentRepo.ReplaceDepartments delete: %w", err)
	}
	for _, deptID := range departmentIDs {
		if _, err := r.q(ctx).ExecContext(ctx,
			`INSERT INTO document_departments (document_id, department_id) VALUES ($1, $2)`,
			docID, deptID); err != nil {
			return fmt.Errorf("documentRepo.ReplaceDepartments insert: %w", err)
		}
	}
	return nil
}

func (r *documentRepo) ListDepartments(ctx context.Context, docID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, r.q(ctx), &ids,
		"SELECT department_id FROM document_departments WHERE document_id = $1 ORDER BY department_id",
		docID)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ListDepartments: %w", err)
	}
	return ids, nil
}

func (r *documentRepo) Delete(ctx context.Context, docID uuid.UUID) error {
	result, err := r.q(ctx).ExecContext(ctx,
		"DELETE FROM documents WHERE id = $1", docID)
	if err != nil {
		return fmt.Errorf("documentRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
