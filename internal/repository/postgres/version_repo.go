package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"signet/internal/domain"
	"signet/internal/port"
)

type versionRepo struct {
	db *sqlx.DB
}

// NewVersionRepo creates a new PostgreSQL-backed VersionRepository.
func NewVersionRepo(db *sqlx.DB) port.VersionRepository {
	return &versionRepo{db: db}
}

func (r *versionRepo) q(ctx context.Context) sqlx.ExtContext {
	return executor(ctx, r.db)
}

func (r *versionRepo) Create(ctx context.Context, v *domain.DocumentVersion) error {
	v.CreatedAt = time.Now().UTC()

	query := `INSERT INTO document_versions (
		id, document_id, version_number, content_hash, byte_size,
		storage_bucket, storage_key, uploaded_by, change_note,
		expires_at, status_at_creation, created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12
	)`

	_, err := r.q(ctx).ExecContext(ctx, query,
		v.ID, v.DocumentID, v.VersionNumber, v.ContentHash, v.ByteSize,
		v.StorageBucket, v.StorageKey, v.UploadedBy, v.ChangeNote,
		v.ExpiresAt, v.StatusAtCreation, v.CreatedAt)
	if err != nil {
		// Constraint backstop for races the pre-insert checks did not catch.
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "content_hash") {
			return &domain.DuplicateContentError{
				Scope:       domain.DuplicateDocument,
				DocumentID:  v.DocumentID,
				ContentHash: v.ContentHash,
			}
		}
		return fmt.Errorf("versionRepo.Create: %w", err)
	}
	return nil
}

func (r *versionRepo) GetByID(ctx context.Context, versionID uuid.UUID) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion
	err := sqlx.GetContext(ctx, r.q(ctx), &v,
		"SELECT * FROM document_versions WHERE id = $1", versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, fmt.Errorf("versionRepo.GetByID: %w", err)
	}
	return &v, nil
}

func (r *versionRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.DocumentVersion, error) {
	var versions []domain.DocumentVersion
	err := sqlx.SelectContext(ctx, r.q(ctx), &versions,
		`SELECT * FROM document_versions WHERE document_id = $1 ORDER BY version_number`,
		docID)
	if err != nil {
		return nil, fmt.Errorf("versionRepo.ListByDocument: %w", err)
	}
	return versions, nil
}

func (r *versionRepo) MaxVersionNumber(ctx context.Context, docID uuid.UUID) (int, error) {
	var max int
	err := sqlx.GetContext(ctx, r.q(ctx), &max,
		"SELECT COALESCE(MAX(version_number), 0) FROM document_versions WHERE document_id = $1",
		docID)
	if err != nil {
		return 0, fmt.Errorf("versionRepo.MaxVersionNumber: %w", err)
	}
	return max, nil
}

// LockContentHash serializes concurrent first-version dedup checks for the
// same bytes. pg_advisory_xact_lock holds until the enclosing transaction
// ends, so the second uploader blocks until the first has committed its
// version row and then sees it in FindByContentHash.
func (r *versionRepo) LockContentHash(ctx context.Context, hash string) error {
	if _, err := r.q(ctx).ExecContext(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", hash); err != nil {
		return fmt.Errorf("versionRepo.LockContentHash: %w", err)
	}
	return nil
}

func (r *versionRepo) FindByContentHash(ctx context.Context, hash string) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion
	err := sqlx.GetContext(ctx, r.q(ctx), &v,
		`SELECT * FROM document_versions WHERE content_hash = $1 ORDER BY created_at LIMIT 1`,
		hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, fmt.Errorf("versionRepo.FindByContentHash: %w", err)
	}
	return &v, nil
}

func (r *versionRepo) FindByDocumentAndHash(ctx context.Context, docID uuid.UUID, hash string) (*domain.DocumentVersion, error) {
	var v domain.DocumentVersion
	err := sqlx.GetContext(ctx, r.q(ctx), &v,
		`SELECT * FROM document_versions WHERE document_id = $1 AND content_hash = $2`,
		docID, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVersionNotFound
		}
		return nil, fmt.Errorf("versionRepo.FindByDocumentAndHash: %w", err)
	}
	return &v, nil
}

func (r *versionRepo) ListMissingContentHash(ctx context.Context, limit int) ([]domain.DocumentVersion, error) {
	var versions []domain.DocumentVersion
	err := sqlx.SelectContext(ctx, r.q(ctx), &versions,
		`SELECT * FROM document_versions WHERE content_hash = '' ORDER BY created_at LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("versionRepo.ListMissingContentHash: %w", err)
	}
	return versions, nil
}

func (r *versionRepo) UpdateContentHash(ctx context.Context, versionID uuid.UUID, hash string) error {
	result, err := r.q(ctx).ExecContext(ctx,
		"UPDATE document_versions SET content_hash = $1 WHERE id = $2",
		hash, versionID)
	if err != nil {
		return fmt.Errorf("versionRepo.UpdateContentHash: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrVersionNotFound
	}
	return nil
}

func (r *versionRepo) Delete(ctx context.Context, versionID uuid.UUID) error {
	result, err := r.q(ctx).ExecContext(ctx,
		"DELETE FROM document_versions WHERE id = $1", versionID)
	if err != nil {
		return fmt.Errorf("versionRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrVersionNotFound
	}
	return nil
}
