package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"signet/internal/domain"
)

// TxManager runs a function inside a single database transaction. Repos
// called with the context passed to fn execute against that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DocumentRepository defines the contract for document persistence.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	// GetByIDForUpdate locks the document row for the remainder of the
	// enclosing transaction, serializing writes to its version set.
	GetByIDForUpdate(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
	UpdateStatus(ctx context.Context, docID uuid.UUID, status domain.DocumentStatus) error
	UpdateCurrentVersion(ctx context.Context, docID, versionID uuid.UUID) error
	UpdateSigningConfig(ctx context.Context, doc *domain.Document) error
	UpdateCompletion(ctx context.Context, doc *domain.Document) error
	UpdateExpiry(ctx context.Context, docID uuid.UUID, expiry time.Time) error
	ReplaceDepartments(ctx context.Context, docID uuid.UUID, departmentIDs []uuid.UUID) error
	ListDepartments(ctx context.Context, docID uuid.UUID) ([]uuid.UUID, error)
	Delete(ctx context.Context, docID uuid.UUID) error
}

// VersionRepository defines the contract for immutable version persistence.
type VersionRepository interface {
	Create(ctx context.Context, v *domain.DocumentVersion) error
	GetByID(ctx context.Context, versionID uuid.UUID) (*domain.DocumentVersion, error)
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.DocumentVersion, error)
	MaxVersionNumber(ctx context.Context, docID uuid.UUID) (int, error)
	// LockContentHash takes a transaction-scoped lock on the digest so two
	// concurrent first uploads of identical bytes cannot both pass the global
	// dedup scan. Must run inside a transaction.
	LockContentHash(ctx context.Context, hash string) error
	// FindByContentHash searches the whole system for a version carrying the
	// digest (global pre-upload dedup).
	FindByContentHash(ctx context.Context, hash string) (*domain.DocumentVersion, error)
	// FindByDocumentAndHash searches one document's version set for the digest.
	FindByDocumentAndHash(ctx context.Context, docID uuid.UUID, hash string) (*domain.DocumentVersion, error)
	ListMissingContentHash(ctx context.Context, limit int) ([]domain.DocumentVersion, error)
	UpdateContentHash(ctx context.Context, versionID uuid.UUID, hash string) error
	Delete(ctx context.Context, versionID uuid.UUID) error
}

// SignerRepository defines the contract for signer persistence.
type SignerRepository interface {
	CreateBatch(ctx context.Context, signers []domain.Signer) error
	// Resolve looks a signer up within a document by row id or external
	// reference id.
	Resolve(ctx context.Context, docID, signerID uuid.UUID) (*domain.Signer, error)
	GetByExternalID(ctx context.Context, externalID uuid.UUID) (*domain.Signer, error)
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Signer, error)
	UpdateContact(ctx context.Context, signer *domain.Signer) error
	DeleteByDocument(ctx context.Context, docID uuid.UUID) error
}

// PlaceholderRepository defines the contract for placeholder persistence.
// Updates are whole-set: ReplaceAll deletes every prior placeholder for the
// document and inserts the new set.
type PlaceholderRepository interface {
	ReplaceAll(ctx context.Context, docID uuid.UUID, placeholders []domain.Placeholder) error
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.Placeholder, error)
	ListBySigner(ctx context.Context, docID uuid.UUID, signerID *uuid.UUID) ([]domain.Placeholder, error)
}

// AuditLogRepository defines the contract for the append-only audit log.
// Entries are never updated or deleted in normal operation.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	ListByDocument(ctx context.Context, docID uuid.UUID, offset, limit int) ([]domain.AuditLogEntry, int, error)
	HasSigned(ctx context.Context, docID, signerID uuid.UUID) (bool, error)
	SignedSignerIDs(ctx context.Context, docID uuid.UUID) ([]uuid.UUID, error)
}
