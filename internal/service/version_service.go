package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"signet/internal/domain"
	"signet/internal/metrics"
	"signet/internal/port"
)

// CreateVersionInput is the DTO for creating a document version.
type CreateVersionInput struct {
	DocumentID   uuid.UUID
	Bytes        []byte
	OriginalName string
	ContentType  string
	UploaderID   uuid.UUID
	ChangeNote   string
	ExpiresAt    *time.Time
	TargetStatus domain.DocumentStatus
	// FirstVersion switches dedup to global scope: a brand-new document may
	// not reuse bytes already stored anywhere in the system.
	FirstVersion bool
}

// VersionService owns creation of immutable version records and the document's
// current-version pointer.
type VersionService interface {
	CreateVersion(ctx context.Context, input *CreateVersionInput) (*domain.DocumentVersion, error)
	GetVersion(ctx context.Context, versionID uuid.UUID) (*domain.DocumentVersion, error)
	ListVersions(ctx context.Context, docID uuid.UUID) ([]domain.DocumentVersion, error)
	DownloadVersion(ctx context.Context, versionID uuid.UUID) ([]byte, *domain.DocumentVersion, error)
	PresignVersion(ctx context.Context, versionID uuid.UUID) (string, error)
}

type versionService struct {
	docRepo       port.DocumentRepository
	versionRepo   port.VersionRepository
	auditRepo     port.AuditLogRepository
	storage       port.ObjectStorage
	tx            port.TxManager
	metrics       *metrics.Metrics
	storageBucket string
	presignExpiry int64
}

// NewVersionService creates a new VersionService implementation.
// storageBucket is the physical S3 bucket; lifecycle buckets are key prefixes.
func NewVersionService(
	docRepo port.DocumentRepository,
	versionRepo port.VersionRepository,
	auditRepo port.AuditLogRepository,
	storage port.ObjectStorage,
	tx port.TxManager,
	m *metrics.Metrics,
	storageBucket string,
	presignExpiry int64,
) VersionService {
	return &versionService{
		docRepo:       docRepo,
		versionRepo:   versionRepo,
		auditRepo:     auditRepo,
		storage:       storage,
		tx:            tx,
		metrics:       m,
		storageBucket: storageBucket,
		presignExpiry: presignExpiry,
	}
}

// StorageKey renders the blob key for a version: lifecycle bucket under the
// document id, version-tagged file name. The signed bucket keeps the plain
// original name since there is exactly one canonical signed artifact.
func StorageKey(docID uuid.UUID, bucket domain.StorageBucket, versionNumber int, uploadedAt time.Time, originalName string) string {
	if bucket == domain.BucketSigned {
		return fmt.Sprintf("%s/%s/%s", docID, bucket, originalName)
	}
	return fmt.Sprintf("%s/%s/v%d_%d_%s", docID, bucket, versionNumber, uploadedAt.Unix(), originalName)
}

func (s *versionService) CreateVersion(ctx context.Context, input *CreateVersionInput) (*domain.DocumentVersion, error) {
	hash := domain.ContentDigest(input.Bytes)
	bucket := domain.BucketForStatus(input.TargetStatus)

	var created *domain.DocumentVersion
	var uploadedKey string

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Row lock serializes version-number assignment per document.
		doc, err := s.docRepo.GetByIDForUpdate(ctx, input.DocumentID)
		if err != nil {
			return err
		}

		if err := s.checkDuplicate(ctx, input, hash); err != nil {
			return err
		}

		maxNumber, err := s.versionRepo.MaxVersionNumber(ctx, doc.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		version := &domain.DocumentVersion{
			ID:               uuid.New(),
			DocumentID:       doc.ID,
			VersionNumber:    maxNumber + 1,
			ContentHash:      hash,
			ByteSize:         int64(len(input.Bytes)),
			StorageBucket:    bucket,
			StorageKey:       StorageKey(doc.ID, bucket, maxNumber+1, now, input.OriginalName),
			UploadedBy:       input.UploaderID,
			ChangeNote:       input.ChangeNote,
			ExpiresAt:        input.ExpiresAt,
			StatusAtCreation: input.TargetStatus,
		}

		contentType := input.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		if _, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.storageBucket,
			Key:         version.StorageKey,
			Body:        bytes.NewReader(input.Bytes),
			ContentType: contentType,
			Size:        version.ByteSize,
		}); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
		}
		uploadedKey = version.StorageKey

		if err := s.versionRepo.Create(ctx, version); err != nil {
			return err
		}
		if err := s.docRepo.UpdateCurrentVersion(ctx, doc.ID, version.ID); err != nil {
			return err
		}

		entry := &domain.AuditLogEntry{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			ActorID:    &input.UploaderID,
			Action:     domain.AuditVersionCreated,
			Details:    []byte(fmt.Sprintf(`{"version_number":%d,"content_hash":%q}`, version.VersionNumber, hash)),
		}
		if err := s.auditRepo.Append(ctx, entry); err != nil {
			return err
		}

		created = version
		return nil
	})
	if err != nil {
		// The transaction rolled back; any blob written before the failure is
		// now an orphan and gets a compensating delete.
		if uploadedKey != "" {
			if delErr := s.storage.Delete(ctx, s.storageBucket, uploadedKey); delErr != nil {
				log.Printf("versionService.CreateVersion: orphan blob cleanup failed for %s: %v", uploadedKey, delErr)
			}
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.VersionCreated(string(bucket))
	}
	log.Printf("versionService.CreateVersion: document %s version %d stored at %s",
		created.DocumentID, created.VersionNumber, created.StorageKey)
	return created, nil
}

// checkDuplicate applies the two dedup scopes: global for a document's first
// version, document-local for every later one.
func (s *versionService) checkDuplicate(ctx context.Context, input *CreateVersionInput, hash string) error {
	if input.FirstVersion {
		// Serialize concurrent first uploads of identical bytes; without the
		// lock both could pass the scan and commit, since the unique
		// constraint only covers the document scope.
		if err := s.versionRepo.LockContentHash(ctx, hash); err != nil {
			return err
		}
		existing, err := s.versionRepo.FindByContentHash(ctx, hash)
		if err != nil && !errors.Is(err, domain.ErrVersionNotFound) {
			return err
		}
		if existing != nil {
			if s.metrics != nil {
				s.metrics.DuplicateUpload(string(domain.DuplicateGlobal))
			}
			return &domain.DuplicateContentError{
				Scope:         domain.DuplicateGlobal,
				DocumentID:    existing.DocumentID,
				VersionID:     existing.ID,
				VersionNumber: existing.VersionNumber,
				ContentHash:   hash,
			}
		}
		return nil
	}

	existing, err := s.versionRepo.FindByDocumentAndHash(ctx, input.DocumentID, hash)
	if err != nil && !errors.Is(err, domain.ErrVersionNotFound) {
		return err
	}
	if existing != nil {
		if s.metrics != nil {
			s.metrics.DuplicateUpload(string(domain.DuplicateDocument))
		}
		return &domain.DuplicateContentError{
			Scope:         domain.DuplicateDocument,
			DocumentID:    existing.DocumentID,
			VersionID:     existing.ID,
			VersionNumber: existing.VersionNumber,
			ContentHash:   hash,
		}
	}
	return nil
}

func (s *versionService) GetVersion(ctx context.Context, versionID uuid.UUID) (*domain.DocumentVersion, error) {
	return s.versionRepo.GetByID(ctx, versionID)
}

func (s *versionService) ListVersions(ctx context.Context, docID uuid.UUID) ([]domain.DocumentVersion, error) {
	if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByDocument(ctx, docID)
}

func (s *versionService) DownloadVersion(ctx context.Context, versionID uuid.UUID) ([]byte, *domain.DocumentVersion, error) {
	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.storage.Download(ctx, s.storageBucket, version.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("versionService.DownloadVersion: %w", err)
	}
	return data, version, nil
}

func (s *versionService) PresignVersion(ctx context.Context, versionID uuid.UUID) (string, error) {
	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, s.storageBucket, version.StorageKey, s.presignExpiry)
}
