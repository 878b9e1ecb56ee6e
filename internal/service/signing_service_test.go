package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"signet/internal/domain"
	"signet/internal/port"
	"signet/internal/service"
	"signet/internal/token"
	"signet/mocks"
)

type signingFixture struct {
	svc             service.SigningService
	docRepo         *mocks.MockDocumentRepo
	signerRepo      *mocks.MockSignerRepo
	placeholderRepo *mocks.MockPlaceholderRepo
	auditRepo       *mocks.MockAuditLogRepo
	versionRepo     *mocks.MockVersionRepo
	versions        *mocks.MockVersionService
	storage         *mocks.MockObjectStorage
	stamper         *mocks.MockPDFStamper
	notifier        *mocks.MockSignerNotifier
}

func setupSigningService() *signingFixture {
	f := &signingFixture{
		docRepo:         new(mocks.MockDocumentRepo),
		signerRepo:      new(mocks.MockSignerRepo),
		placeholderRepo: new(mocks.MockPlaceholderRepo),
		auditRepo:       new(mocks.MockAuditLogRepo),
		versionRepo:     new(mocks.MockVersionRepo),
		versions:        new(mocks.MockVersionService),
		storage:         new(mocks.MockObjectStorage),
		stamper:         new(mocks.MockPDFStamper),
		notifier:        new(mocks.MockSignerNotifier),
	}
	f.svc = service.NewSigningService(
		f.docRepo, f.signerRepo, f.placeholderRepo, f.auditRepo, f.versionRepo,
		f.versions, f.storage, f.stamper, f.notifier,
		token.NewManager("test-secret", "signet"), &mocks.MockTxManager{}, nil,
		"signet-documents", "https://sign.example.com", 900,
	)
	return f
}

func pendingDocument(sendInOrder bool) *domain.Document {
	expiry := time.Now().UTC().Add(14 * 24 * time.Hour)
	versionID := uuid.New()
	return &domain.Document{
		ID:               uuid.New(),
		Title:            "Lease Agreement",
		Status:           domain.StatusPendingSignatures,
		CurrentVersionID: &versionID,
		SendInOrder:      sendInOrder,
		ExpiryDate:       &expiry,
		OriginalName:     "lease.pdf",
		CreatedBy:        uuid.New(),
	}
}

func makeSigners(docID uuid.UUID, n int) []domain.Signer {
	signers := make([]domain.Signer, n)
	for i := range signers {
		signers[i] = domain.Signer{
			ID:         uuid.New(),
			DocumentID: docID,
			ExternalID: uuid.New(),
			OrderIndex: i + 1,
			Email:      []string{"ana@example.com", "ben@example.com", "cam@example.com"}[i%3],
			Name:       []string{"Ana", "Ben", "Cam"}[i%3],
		}
	}
	return signers
}

// expectSubmission wires the mocks every accepted submission touches.
func (f *signingFixture) expectSubmission(doc *domain.Document, signer *domain.Signer, signers []domain.Signer, priorSigned []uuid.UUID) {
	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	f.signerRepo.On("Resolve", mock.Anything, doc.ID, signer.ID).Return(signer, nil)
	f.auditRepo.On("HasSigned", mock.Anything, doc.ID, signer.ID).Return(false, nil)
	f.signerRepo.On("ListByDocument", mock.Anything, doc.ID).Return(signers, nil)
	f.auditRepo.On("SignedSignerIDs", mock.Anything, doc.ID).Return(priorSigned, nil).Once()
	f.placeholderRepo.On("ListBySigner", mock.Anything, doc.ID, &signer.ID).Return([]domain.Placeholder{}, nil)
	f.stamper.On("Embed", mock.Anything, mock.AnythingOfType("port.EmbedInput")).
		Return([]byte("%PDF-1.4 stamped"), nil)
	f.auditRepo.On("Append", mock.Anything, mock.AnythingOfType("*domain.AuditLogEntry")).Return(nil)
}

// --- SubmitSignature ---

func TestSigningService_SubmitSignature_PartialProgress(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	signers := makeSigners(doc.ID, 2)
	signer := &signers[0]

	f.expectSubmission(doc, signer, signers, []uuid.UUID{})
	f.auditRepo.On("SignedSignerIDs", mock.Anything, doc.ID).Return([]uuid.UUID{signer.ID}, nil).Once()
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Key == doc.ID.String()+"/temp/working_lease.pdf"
	})).Return(&port.UploadOutput{}, nil)

	result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   signer.ID,
		Artifact:   port.SignatureArtifact{TypedText: "Ana", SignedAt: "2026-09-01"},
		PDFBytes:   []byte("%PDF-1.4 original"),
	})

	assert.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, 1, result.SignedCount)
	assert.Equal(t, 2, result.TotalSigners)
	assert.Nil(t, result.SignedURL)

	// No finalization on partial progress.
	f.versions.AssertNotCalled(t, "CreateVersion", mock.Anything, mock.Anything)
	f.docRepo.AssertNotCalled(t, "UpdateCompletion", mock.Anything, mock.Anything)
	f.storage.AssertExpectations(t)
}

func TestSigningService_SubmitSignature_LastSignerCompletes(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	signers := makeSigners(doc.ID, 2)
	first, last := &signers[0], &signers[1]

	f.expectSubmission(doc, last, signers, []uuid.UUID{first.ID})
	f.auditRepo.On("SignedSignerIDs", mock.Anything, doc.ID).
		Return([]uuid.UUID{first.ID, last.ID}, nil).Once()

	signedVersion := &domain.DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    doc.ID,
		VersionNumber: 2,
		StorageKey:    doc.ID.String() + "/signed/lease.pdf",
	}
	f.versions.On("CreateVersion", mock.Anything, mock.MatchedBy(func(in *service.CreateVersionInput) bool {
		return in.TargetStatus == domain.StatusSigned && in.DocumentID == doc.ID
	})).Return(signedVersion, nil)
	f.docRepo.On("UpdateStatus", mock.Anything, doc.ID, domain.StatusSigned).Return(nil)
	f.docRepo.On("UpdateCompletion", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.IsCompleted && d.SignedURL != nil && *d.SignedURL == signedVersion.StorageKey
	})).Return(nil)
	f.storage.On("Delete", mock.Anything, "signet-documents", doc.ID.String()+"/temp/working_lease.pdf").Return(nil)
	f.storage.On("GetPresignedURL", mock.Anything, "signet-documents", signedVersion.StorageKey, int64(900)).
		Return("https://s3.example.com/presigned", nil)
	f.notifier.On("SendCompletionNotice", mock.Anything, mock.Anything, mock.Anything, doc.Title, "https://s3.example.com/presigned").
		Return(nil).Times(2)

	result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   last.ID,
		Artifact:   port.SignatureArtifact{TypedText: "Ben", SignedAt: "2026-09-01"},
		PDFBytes:   []byte("%PDF-1.4 working"),
	})

	assert.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 2, result.SignedCount)
	assert.Equal(t, 2, result.TotalSigners)
	assert.NotNil(t, result.SignedURL)
	assert.Equal(t, signedVersion.StorageKey, *result.SignedURL)
	assert.Equal(t, domain.StatusSigned, doc.Status)

	f.versions.AssertExpectations(t)
	f.docRepo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestSigningService_SubmitSignature_FinalizeRollbackCleansSignedBlob(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	signers := makeSigners(doc.ID, 2)
	first, last := &signers[0], &signers[1]

	f.expectSubmission(doc, last, signers, []uuid.UUID{first.ID})
	f.auditRepo.On("SignedSignerIDs", mock.Anything, doc.ID).
		Return([]uuid.UUID{first.ID, last.ID}, nil).Once()

	signedVersion := &domain.DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    doc.ID,
		VersionNumber: 2,
		StorageKey:    doc.ID.String() + "/signed/lease.pdf",
	}
	f.versions.On("CreateVersion", mock.Anything, mock.Anything).Return(signedVersion, nil)
	// The signed artifact is already in storage when the status update fails
	// and rolls the transaction back.
	f.docRepo.On("UpdateStatus", mock.Anything, doc.ID, domain.StatusSigned).
		Return(errors.New("connection reset"))
	f.storage.On("Delete", mock.Anything, "signet-documents", signedVersion.StorageKey).Return(nil)

	result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   last.ID,
		Artifact:   port.SignatureArtifact{TypedText: "Ben", SignedAt: "2026-09-01"},
		PDFBytes:   []byte("%PDF-1.4 working"),
	})

	assert.Nil(t, result)
	assert.Error(t, err)
	// The rolled-back version row must not leave its blob behind.
	f.storage.AssertCalled(t, "Delete", mock.Anything, "signet-documents", signedVersion.StorageKey)
	f.docRepo.AssertNotCalled(t, "UpdateCompletion", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "SendCompletionNotice",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSigningService_SubmitSignature_ThreeSignersCompleteOnlyAtTheEnd(t *testing.T) {
	doc := pendingDocument(false)
	signers := makeSigners(doc.ID, 3)

	// First two submissions stay partial.
	for i := 0; i < 2; i++ {
		f := setupSigningService()
		prior := make([]uuid.UUID, 0, i)
		for j := 0; j < i; j++ {
			prior = append(prior, signers[j].ID)
		}
		after := append(append([]uuid.UUID{}, prior...), signers[i].ID)

		f.expectSubmission(doc, &signers[i], signers, prior)
		f.auditRepo.On("SignedSignerIDs", mock.Anything, doc.ID).Return(after, nil).Once()
		f.storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
			Return(&port.UploadOutput{}, nil)

		result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
			DocumentID: doc.ID,
			SignerID:   signers[i].ID,
			Artifact:   port.SignatureArtifact{TypedText: signers[i].Name},
			PDFBytes:   []byte("%PDF-1.4"),
		})

		assert.NoError(t, err)
		assert.False(t, result.Completed)
		assert.Equal(t, i+1, result.SignedCount)
		assert.Equal(t, 3, result.TotalSigners)
		f.versions.AssertNotCalled(t, "CreateVersion", mock.Anything, mock.Anything)
	}

	// The third signature completes the document.
	f := setupSigningService()
	f.expectSubmission(doc, &signers[2], signers, []uuid.UUID{signers[0].ID, signers[1].ID})
	f.auditRepo.On("SignedSignerIDs", mock.Anything, doc.ID).
		Return([]uuid.UUID{signers[0].ID, signers[1].ID, signers[2].ID}, nil).Once()
	f.versions.On("CreateVersion", mock.Anything, mock.Anything).
		Return(&domain.DocumentVersion{ID: uuid.New(), DocumentID: doc.ID, StorageKey: "k"}, nil)
	f.docRepo.On("UpdateStatus", mock.Anything, doc.ID, domain.StatusSigned).Return(nil)
	f.docRepo.On("UpdateCompletion", mock.Anything, mock.Anything).Return(nil)
	f.storage.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.storage.On("GetPresignedURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	f.notifier.On("SendCompletionNotice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Times(3)

	result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   signers[2].ID,
		Artifact:   port.SignatureArtifact{TypedText: "Cam"},
		PDFBytes:   []byte("%PDF-1.4"),
	})

	assert.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, 3, result.SignedCount)
}

func TestSigningService_SubmitSignature_OutOfOrder(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(true)
	signers := makeSigners(doc.ID, 2)
	second := &signers[1]

	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	f.signerRepo.On("Resolve", mock.Anything, doc.ID, second.ID).Return(second, nil)
	f.auditRepo.On("HasSigned", mock.Anything, doc.ID, second.ID).Return(false, nil)
	f.signerRepo.On("ListByDocument", mock.Anything, doc.ID).Return(signers, nil)
	f.auditRepo.On("SignedSignerIDs", mock.Anything, doc.ID).Return([]uuid.UUID{}, nil)

	result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   second.ID,
		Artifact:   port.SignatureArtifact{TypedText: "Ben"},
		PDFBytes:   []byte("%PDF-1.4"),
	})

	assert.Nil(t, result)
	var outOfOrder *domain.OutOfOrderError
	assert.ErrorAs(t, err, &outOfOrder)
	assert.Equal(t, signers[0].ID, outOfOrder.PendingSignerID)
	assert.Equal(t, 1, outOfOrder.PendingOrder)
	f.stamper.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
	f.auditRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestSigningService_SubmitSignature_OrderedInvitesNextSigner(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(true)
	signers := makeSigners(doc.ID, 2)
	first, second := &signers[0], &signers[1]

	f.expectSubmission(doc, first, signers, []uuid.UUID{})
	f.auditRepo.On("SignedSignerIDs", mock.Anything, doc.ID).Return([]uuid.UUID{first.ID}, nil).Once()
	f.storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{}, nil)
	f.notifier.On("SendSigningInvite", mock.Anything, mock.MatchedBy(func(invite port.SigningInvite) bool {
		return invite.Signer.ID == second.ID && invite.DocumentTitle == doc.Title
	})).Return(nil)

	result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   first.ID,
		Artifact:   port.SignatureArtifact{TypedText: "Ana"},
		PDFBytes:   []byte("%PDF-1.4"),
	})

	assert.NoError(t, err)
	assert.False(t, result.Completed)
	f.notifier.AssertExpectations(t)
}

func TestSigningService_SubmitSignature_AlreadySigned(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	signers := makeSigners(doc.ID, 2)
	signer := &signers[0]

	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	f.signerRepo.On("Resolve", mock.Anything, doc.ID, signer.ID).Return(signer, nil)
	f.auditRepo.On("HasSigned", mock.Anything, doc.ID, signer.ID).Return(true, nil)

	result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   signer.ID,
		Artifact:   port.SignatureArtifact{TypedText: "Ana"},
		PDFBytes:   []byte("%PDF-1.4"),
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrAlreadySigned)
	// No second audit entry, no re-stamping.
	f.auditRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	f.stamper.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestSigningService_SubmitSignature_Guards(t *testing.T) {
	expired := pendingDocument(false)
	past := time.Now().UTC().Add(-time.Hour)
	expired.ExpiryDate = &past

	declined := pendingDocument(false)
	declined.IsDeclined = true

	completed := pendingDocument(false)
	completed.IsCompleted = true

	archived := pendingDocument(false)
	archived.Archived = true

	notStarted := pendingDocument(false)
	notStarted.Status = domain.StatusDraft

	cases := []struct {
		name string
		doc  *domain.Document
		want error
	}{
		{"expired window", expired, domain.ErrDocumentExpired},
		{"declined document", declined, domain.ErrDocumentDeclined},
		{"completed document", completed, domain.ErrDocumentCompleted},
		{"archived document", archived, domain.ErrDocumentArchived},
		{"signing not started", notStarted, domain.ErrSigningNotStarted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupSigningService()
			f.docRepo.On("GetByIDForUpdate", mock.Anything, tc.doc.ID).Return(tc.doc, nil)

			result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
				DocumentID: tc.doc.ID,
				SignerID:   uuid.New(),
				Artifact:   port.SignatureArtifact{TypedText: "x"},
				PDFBytes:   []byte("%PDF-1.4"),
			})

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSigningService_SubmitSignature_WrongAccessCode(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	signers := makeSigners(doc.ID, 1)
	signer := &signers[0]

	hashed, err := bcrypt.GenerateFromPassword([]byte("4821"), bcrypt.MinCost)
	assert.NoError(t, err)
	hash := string(hashed)
	signer.AccessCodeHash = &hash

	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	f.signerRepo.On("Resolve", mock.Anything, doc.ID, signer.ID).Return(signer, nil)

	result, submitErr := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   signer.ID,
		AccessCode: "0000",
		Artifact:   port.SignatureArtifact{TypedText: "Ana"},
		PDFBytes:   []byte("%PDF-1.4"),
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, submitErr, domain.ErrInvalidAccessCode)
}

// --- Decline ---

func TestSigningService_Decline(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	signers := makeSigners(doc.ID, 2)
	actor := signers[1]

	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	f.signerRepo.On("Resolve", mock.Anything, doc.ID, actor.ID).Return(&actor, nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditLogEntry) bool {
		return e.Action == domain.AuditDeclineDocument && e.SignerID != nil && *e.SignerID == actor.ID
	})).Return(nil)
	f.docRepo.On("UpdateCompletion", mock.Anything, mock.MatchedBy(func(d *domain.Document) bool {
		return d.IsDeclined
	})).Return(nil)
	f.signerRepo.On("ListByDocument", mock.Anything, doc.ID).Return(signers, nil)
	f.notifier.On("SendDeclineNotice", mock.Anything, mock.Anything, mock.Anything, doc.Title, "terms not acceptable").
		Return(nil).Times(2)

	err := f.svc.Decline(context.Background(), doc.ID, actor.ID, "terms not acceptable")
	assert.NoError(t, err)
	assert.True(t, doc.IsDeclined)
	f.notifier.AssertExpectations(t)
}

func TestSigningService_Decline_BlocksFurtherSigning(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	doc.IsDeclined = true

	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)

	result, err := f.svc.SubmitSignature(context.Background(), &service.SubmitSignatureInput{
		DocumentID: doc.ID,
		SignerID:   uuid.New(),
		Artifact:   port.SignatureArtifact{TypedText: "x"},
		PDFBytes:   []byte("%PDF-1.4"),
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrDocumentDeclined)

	// A second decline is rejected too.
	err = f.svc.Decline(context.Background(), doc.ID, uuid.New(), "again")
	assert.ErrorIs(t, err, domain.ErrDocumentDeclined)
}

func TestSigningService_Decline_CompletedDocument(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	doc.IsCompleted = true

	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)

	err := f.svc.Decline(context.Background(), doc.ID, uuid.New(), "too late")
	assert.ErrorIs(t, err, domain.ErrDocumentCompleted)
	f.auditRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// --- ExtendExpiry ---

func TestSigningService_ExtendExpiry_Forward(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	newExpiry := doc.ExpiryDate.Add(7 * 24 * time.Hour)
	actor := uuid.New()

	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)
	f.docRepo.On("UpdateExpiry", mock.Anything, doc.ID, newExpiry).Return(nil)
	f.auditRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditLogEntry) bool {
		return e.Action == domain.AuditExpiryExtended
	})).Return(nil)

	updated, err := f.svc.ExtendExpiry(context.Background(), doc.ID, newExpiry, actor)
	assert.NoError(t, err)
	assert.Equal(t, newExpiry, *updated.ExpiryDate)
}

func TestSigningService_ExtendExpiry_Backward(t *testing.T) {
	f := setupSigningService()
	doc := pendingDocument(false)
	earlier := doc.ExpiryDate.Add(-24 * time.Hour)

	f.docRepo.On("GetByIDForUpdate", mock.Anything, doc.ID).Return(doc, nil)

	updated, err := f.svc.ExtendExpiry(context.Background(), doc.ID, earlier, uuid.New())
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, domain.ErrExpiryNotForward)

	// Same instant is not an extension either.
	updated, err = f.svc.ExtendExpiry(context.Background(), doc.ID, *doc.ExpiryDate, uuid.New())
	assert.Nil(t, updated)
	assert.ErrorIs(t, err, domain.ErrExpiryNotForward)
	f.docRepo.AssertNotCalled(t, "UpdateExpiry", mock.Anything, mock.Anything, mock.Anything)
}
