package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"signet/internal/domain"
	"signet/internal/port"
)

type auditLogRepo struct {
	db *sqlx.DB
}

// NewAuditLogRepo creates a new PostgreSQL-backed AuditLogRepository.
func NewAuditLogRepo(db *sqlx.DB) port.AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) q(ctx context.Context) sqlx.ExtContext {
	return executor(ctx, r.db)
}

func (r *auditLogRepo) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	entry.CreatedAt = time.Now().UTC()
	if entry.Details == nil {
		entry.Details = []byte("{}")
	}
	_, err := r.q(ctx).ExecContext(ctx,
		`INSERT INTO audit_log (id, document_id, actor_id, action, signer_id, signer_email, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.DocumentID, entry.ActorID, entry.Action,
		entry.SignerID, entry.SignerEmail, entry.Details, entry.CreatedAt)
	if err != nil {
		// The partial unique index on (document_id, signer_id) for
		// SIGN_DOCUMENT is the race backstop beneath the transactional check.
		if strings.Contains(err.Error(), "duplicate key") && strings.Contains(err.Error(), "audit_log_sign") {
			return domain.ErrAlreadySigned
		}
		return fmt.Errorf("auditLogRepo.Append: %w", err)
	}
	return nil
}

func (r *auditLogRepo) ListByDocument(ctx context.Context, docID uuid.UUID, offset, limit int) ([]domain.AuditLogEntry, int, error) {
	var total int
	err := sqlx.GetContext(ctx, r.q(ctx), &total,
		"SELECT COUNT(*) FROM audit_log WHERE document_id = $1", docID)
	if err != nil {
		return nil, 0, fmt.Errorf("auditLogRepo.ListByDocument count: %w", err)
	}

	var entries []domain.AuditLogEntry
	err = sqlx.SelectContext(ctx, r.q(ctx), &entries,
		`SELECT * FROM audit_log WHERE document_id = $1
		 ORDER BY created_at LIMIT $2 OFFSET $3`,
		docID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("auditLogRepo.ListByDocument: %w", err)
	}
	return entries, total, nil
}

func (r *auditLogRepo) HasSigned(ctx context.Context, docID, signerID uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.q(ctx), &exists,
		`SELECT EXISTS (
			SELECT 1 FROM audit_log
			WHERE document_id = $1 AND signer_id = $2 AND action = $3
		)`,
		docID, signerID, domain.AuditSignDocument)
	if err != nil {
		return false, fmt.Errorf("auditLogRepo.HasSigned: %w", err)
	}
	return exists, nil
}

func (r *auditLogRepo) SignedSignerIDs(ctx context.Context, docID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := sqlx.SelectContext(ctx, r.q(ctx), &ids,
		`SELECT DISTINCT signer_id FROM audit_log
		 WHERE document_id = $1 AND action = $2 AND signer_id IS NOT NULL`,
		docID, domain.AuditSignDocument)
	if err != nil {
		return nil, fmt.Errorf("auditLogRepo.SignedSignerIDs: %w", err)
	}
	return ids, nil
}
