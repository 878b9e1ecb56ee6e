package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"signet/internal/domain"
	"signet/internal/port"
	"signet/internal/service"
	"signet/mocks"
)

func setupVersionService() (
	service.VersionService,
	*mocks.MockDocumentRepo,
	*mocks.MockVersionRepo,
	*mocks.MockAuditLogRepo,
	*mocks.MockObjectStorage,
) {
	docRepo := new(mocks.MockDocumentRepo)
	versionRepo := new(mocks.MockVersionRepo)
	auditRepo := new(mocks.MockAuditLogRepo)
	storage := new(mocks.MockObjectStorage)
	svc := service.NewVersionService(docRepo, versionRepo, auditRepo, storage, &mocks.MockTxManager{}, nil, "signet-documents", 900)
	return svc, docRepo, versionRepo, auditRepo, storage
}

func draftDocument() *domain.Document {
	return &domain.Document{
		ID:           uuid.New(),
		Title:        "Lease Agreement",
		Status:       domain.StatusDraft,
		OriginalName: "lease.pdf",
		CreatedBy:    uuid.New(),
	}
}

// --- CreateVersion ---

func TestVersionService_CreateVersion_AssignsNextNumber(t *testing.T) {
	svc, docRepo, versionRepo, auditRepo, storage := setupVersionService()
	doc := draftDocument()
	content := []byte("%PDF-1.4 revised lease")

	docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	versionRepo.On("FindByDocumentAndHash", mock.Anything, doc.ID, domain.ContentDigest(content)).
		Return(nil, domain.ErrVersionNotFound)
	versionRepo.On("MaxVersionNumber", mock.Anything, doc.ID).Return(2, nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{}, nil)
	versionRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.DocumentVersion")).Return(nil)
	docRepo.On("UpdateCurrentVersion", mock.Anything, doc.ID, mock.Anything).Return(nil)
	auditRepo.On("Append", mock.Anything, mock.AnythingOfType("*domain.AuditLogEntry")).Return(nil)

	version, err := svc.CreateVersion(context.Background(), &service.CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        content,
		OriginalName: "lease.pdf",
		ContentType:  "application/pdf",
		UploaderID:   doc.CreatedBy,
		ChangeNote:   "updated rent clause",
		TargetStatus: domain.StatusDraft,
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, version.VersionNumber)
	assert.Equal(t, domain.ContentDigest(content), version.ContentHash)
	assert.Equal(t, int64(len(content)), version.ByteSize)
	assert.Equal(t, domain.BucketDraft, version.StorageBucket)
	assert.Contains(t, version.StorageKey, doc.ID.String()+"/draft/v3_")

	docRepo.AssertExpectations(t)
	versionRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
	storage.AssertExpectations(t)
}

func TestVersionService_CreateVersion_GlobalDuplicate(t *testing.T) {
	svc, docRepo, versionRepo, _, storage := setupVersionService()
	doc := draftDocument()
	content := []byte("%PDF-1.4 already uploaded elsewhere")
	hash := domain.ContentDigest(content)

	existing := &domain.DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    uuid.New(),
		VersionNumber: 1,
		ContentHash:   hash,
	}

	docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	versionRepo.On("LockContentHash", mock.Anything, hash).Return(nil)
	versionRepo.On("FindByContentHash", mock.Anything, hash).Return(existing, nil)

	version, err := svc.CreateVersion(context.Background(), &service.CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        content,
		OriginalName: "lease.pdf",
		UploaderID:   doc.CreatedBy,
		TargetStatus: domain.StatusDraft,
		FirstVersion: true,
	})

	assert.Nil(t, version)
	var dup *domain.DuplicateContentError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, domain.DuplicateGlobal, dup.Scope)
	assert.Equal(t, existing.DocumentID, dup.DocumentID)
	assert.Equal(t, existing.ID, dup.VersionID)
	assert.Equal(t, hash, dup.ContentHash)

	// Rejected before any bytes hit storage.
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestVersionService_CreateVersion_DocumentScopedDuplicate(t *testing.T) {
	svc, docRepo, versionRepo, _, storage := setupVersionService()
	doc := draftDocument()
	content := []byte("%PDF-1.4 same bytes again")
	hash := domain.ContentDigest(content)

	existing := &domain.DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    doc.ID,
		VersionNumber: 4,
		ContentHash:   hash,
	}

	docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	versionRepo.On("FindByDocumentAndHash", mock.Anything, doc.ID, hash).Return(existing, nil)

	version, err := svc.CreateVersion(context.Background(), &service.CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        content,
		OriginalName: "lease.pdf",
		UploaderID:   doc.CreatedBy,
		TargetStatus: domain.StatusDraft,
	})

	assert.Nil(t, version)
	var dup *domain.DuplicateContentError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, domain.DuplicateDocument, dup.Scope)
	assert.Equal(t, 4, dup.VersionNumber)

	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestVersionService_CreateVersion_SameBytesDifferentDocumentAllowed(t *testing.T) {
	svc, docRepo, versionRepo, auditRepo, storage := setupVersionService()
	doc := draftDocument()
	content := []byte("%PDF-1.4 standard template")

	// Non-first versions dedup within the document only; a hit in some other
	// document's version set does not block.
	docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	versionRepo.On("FindByDocumentAndHash", mock.Anything, doc.ID, domain.ContentDigest(content)).
		Return(nil, domain.ErrVersionNotFound)
	versionRepo.On("MaxVersionNumber", mock.Anything, doc.ID).Return(0, nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{}, nil)
	versionRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.DocumentVersion")).Return(nil)
	docRepo.On("UpdateCurrentVersion", mock.Anything, doc.ID, mock.Anything).Return(nil)
	auditRepo.On("Append", mock.Anything, mock.AnythingOfType("*domain.AuditLogEntry")).Return(nil)

	version, err := svc.CreateVersion(context.Background(), &service.CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        content,
		OriginalName: "lease.pdf",
		UploaderID:   doc.CreatedBy,
		TargetStatus: domain.StatusDraft,
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, version.VersionNumber)
	versionRepo.AssertNotCalled(t, "FindByContentHash", mock.Anything, mock.Anything)
	versionRepo.AssertNotCalled(t, "LockContentHash", mock.Anything, mock.Anything)
}

func TestVersionService_CreateVersion_FirstVersionLocksContentHash(t *testing.T) {
	svc, docRepo, versionRepo, auditRepo, storage := setupVersionService()
	doc := draftDocument()
	content := []byte("%PDF-1.4 brand new document")
	hash := domain.ContentDigest(content)

	// The global dedup scan runs under a hash lock so two concurrent first
	// uploads of the same bytes serialize instead of both committing.
	docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	versionRepo.On("LockContentHash", mock.Anything, hash).Return(nil)
	versionRepo.On("FindByContentHash", mock.Anything, hash).Return(nil, domain.ErrVersionNotFound)
	versionRepo.On("MaxVersionNumber", mock.Anything, doc.ID).Return(0, nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{}, nil)
	versionRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.DocumentVersion")).Return(nil)
	docRepo.On("UpdateCurrentVersion", mock.Anything, doc.ID, mock.Anything).Return(nil)
	auditRepo.On("Append", mock.Anything, mock.AnythingOfType("*domain.AuditLogEntry")).Return(nil)

	version, err := svc.CreateVersion(context.Background(), &service.CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        content,
		OriginalName: "lease.pdf",
		UploaderID:   doc.CreatedBy,
		TargetStatus: domain.StatusDraft,
		FirstVersion: true,
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, version.VersionNumber)
	versionRepo.AssertExpectations(t)
}

func TestVersionService_CreateVersion_ContentHashLockFailure(t *testing.T) {
	svc, docRepo, versionRepo, _, storage := setupVersionService()
	doc := draftDocument()
	content := []byte("%PDF-1.4 lock unavailable")

	docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	versionRepo.On("LockContentHash", mock.Anything, domain.ContentDigest(content)).
		Return(errors.New("connection reset"))

	version, err := svc.CreateVersion(context.Background(), &service.CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        content,
		OriginalName: "lease.pdf",
		UploaderID:   doc.CreatedBy,
		TargetStatus: domain.StatusDraft,
		FirstVersion: true,
	})

	assert.Nil(t, version)
	assert.Error(t, err)
	versionRepo.AssertNotCalled(t, "FindByContentHash", mock.Anything, mock.Anything)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestVersionService_CreateVersion_UploadFailure(t *testing.T) {
	svc, docRepo, versionRepo, _, storage := setupVersionService()
	doc := draftDocument()
	content := []byte("%PDF-1.4 doomed upload")

	docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	versionRepo.On("FindByDocumentAndHash", mock.Anything, doc.ID, mock.Anything).
		Return(nil, domain.ErrVersionNotFound)
	versionRepo.On("MaxVersionNumber", mock.Anything, doc.ID).Return(0, nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(nil, errors.New("connection reset"))

	version, err := svc.CreateVersion(context.Background(), &service.CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        content,
		OriginalName: "lease.pdf",
		UploaderID:   doc.CreatedBy,
		TargetStatus: domain.StatusDraft,
	})

	assert.Nil(t, version)
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	versionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVersionService_CreateVersion_CompensatingDeleteOnRepoFailure(t *testing.T) {
	svc, docRepo, versionRepo, _, storage := setupVersionService()
	doc := draftDocument()
	content := []byte("%PDF-1.4 orphan candidate")

	docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	versionRepo.On("FindByDocumentAndHash", mock.Anything, doc.ID, mock.Anything).
		Return(nil, domain.ErrVersionNotFound)
	versionRepo.On("MaxVersionNumber", mock.Anything, doc.ID).Return(0, nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{}, nil)
	versionRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.DocumentVersion")).
		Return(errors.New("insert failed"))
	storage.On("Delete", mock.Anything, "signet-documents", mock.AnythingOfType("string")).Return(nil)

	version, err := svc.CreateVersion(context.Background(), &service.CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        content,
		OriginalName: "lease.pdf",
		UploaderID:   doc.CreatedBy,
		TargetStatus: domain.StatusDraft,
	})

	assert.Nil(t, version)
	assert.Error(t, err)
	// The blob written before the rollback gets cleaned up.
	storage.AssertCalled(t, "Delete", mock.Anything, "signet-documents", mock.AnythingOfType("string"))
}

// --- StorageKey ---

func TestStorageKey(t *testing.T) {
	docID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	at := time.Unix(1756700000, 0).UTC()

	key := service.StorageKey(docID, domain.BucketDraft, 3, at, "lease.pdf")
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8/draft/v3_1756700000_lease.pdf", key)

	// The signed bucket holds exactly one canonical artifact under the plain name.
	signed := service.StorageKey(docID, domain.BucketSigned, 4, at, "lease.pdf")
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8/signed/lease.pdf", signed)
}

// --- DownloadVersion ---

func TestVersionService_DownloadVersion(t *testing.T) {
	svc, _, versionRepo, _, storage := setupVersionService()

	version := &domain.DocumentVersion{
		ID:         uuid.New(),
		DocumentID: uuid.New(),
		StorageKey: "doc/draft/v1_1_lease.pdf",
	}
	versionRepo.On("GetByID", mock.Anything, version.ID).Return(version, nil)
	storage.On("Download", mock.Anything, "signet-documents", version.StorageKey).
		Return([]byte("%PDF-1.4"), nil)

	data, got, err := svc.DownloadVersion(context.Background(), version.ID)
	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
	assert.Equal(t, version, got)
}

func TestVersionService_DownloadVersion_NotFound(t *testing.T) {
	svc, _, versionRepo, _, _ := setupVersionService()

	missing := uuid.New()
	versionRepo.On("GetByID", mock.Anything, missing).Return(nil, domain.ErrVersionNotFound)

	data, got, err := svc.DownloadVersion(context.Background(), missing)
	assert.Nil(t, data)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}
