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

type signerRepo struct {
	db *sqlx.DB
}

// NewSignerRepo creates a new PostgreSQL-backed SignerRepository.
func NewSignerRepo(db *sqlx.DB) port.SignerRepository {
	return &signerRepo{db: db}
}

func (r *signerRepo) q(ctx context.Context) sqlx.ExtContext {
	return executor(ctx, r.db)
}

func (r *signerRepo) CreateBatch(ctx context.Context, signers []domain.Signer) error {
	now := time.Now().UTC()
	query := `INSERT INTO signers (
		id, document_id, external_id, order_index, role_label,
		email, name, phone, user_id, access_code_hash,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12
	)`
	for i := range signers {
		s := &signers[i]
		s.CreatedAt = now
		s.UpdatedAt = now
		if _, err := r.q(ctx).ExecContext(ctx, query,
			s.ID, s.DocumentID, s.ExternalID, s.OrderIndex, s.RoleLabel,
			s.Email, s.Name, s.Phone, s.UserID, s.AccessCodeHash,
			s.CreatedAt, s.UpdatedAt); err != nil {
			return fmt.Errorf("signerRepo.CreateBatch: %w", err)
		}
	}
	return nil
}

func (r *signerRepo) Resolve(ctx context.Context, docID, signerID uuid.UUID) (*domain.Signer, error) {
	var s domain.Signer
	err := sqlx.GetContext(ctx, r.q(ctx), &s,
		`SELECT * FROM signers WHERE document_id = $1 AND (id = $2 OR external_id = $2)`,
		docID, signerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSignerNotFound
		}
		return nil, fmt.Errorf("signerRepo.Resolve: %w", err)
	}
	return &s, nil
}

func (r *signerRepo) GetByExternalID(ctx context.Context, externalID uuid.UUID) (*domain.Signer, error) {
	var s domain.Signer
	err := sqlx.GetContext(ctx, r.q(ctx), &s,
		"SELECT * FROM signers WHERE external_id = $1", externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSignerNotFound
		}
		return nil, fmt.Errorf("signerRepo.GetByExternalID: %w", err)
	}
	return &s, nil
}

func (r *signerRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Signer, error) {
	var signers []domain.Signer
	err := sqlx.SelectContext(ctx, r.q(ctx), &signers,
		`SELECT * FROM signers WHERE document_id = $1 ORDER BY order_index, created_at`,
		docID)
	if err != nil {
		return nil, fmt.Errorf("signerRepo.ListByDocument: %w", err)
	}
	return signers, nil
}

func (r *signerRepo) UpdateContact(ctx context.Context, signer *domain.Signer) error {
	signer.UpdatedAt = time.Now().UTC()
	result, err := r.q(ctx).ExecContext(ctx,
		`UPDATE signers SET email = $1, name = $2, phone = $3, updated_at = $4 WHERE id = $5`,
		signer.Email, signer.Name, signer.Phone, signer.UpdatedAt, signer.ID)
	if err != nil {
		return fmt.Errorf("signerRepo.UpdateContact: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrSignerNotFound
	}
	return nil
}

func (r *signerRepo) DeleteByDocument(ctx context.Context, docID uuid.UUID) error {
	if _, err := r.q(ctx).ExecContext(ctx,
		"DELETE FROM signers WHERE document_id = $1", docID); err != nil {
		return fmt.Errorf("signerRepo.DeleteByDocument: %w", err)
	}
	return nil
}
