package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"signet/internal/domain"
	"signet/internal/metrics"
	"signet/internal/port"
	"signet/internal/token"
)

// SubmitSignatureInput is the DTO for one signing submission. SignerID accepts
// either the signer's row id or its external reference id. PDFBytes may be nil,
// in which case the coordinator loads the document's working copy (or current
// version) itself.
type SubmitSignatureInput struct {
	DocumentID uuid.UUID
	SignerID   uuid.UUID
	AccessCode string
	Artifact   port.SignatureArtifact
	PDFBytes   []byte
}

// SignResult reports the outcome of a signing submission.
type SignResult struct {
	Completed    bool    `json:"completed"`
	SignedCount  int     `json:"signed_count"`
	TotalSigners int     `json:"total_signers"`
	SignedURL    *string `json:"signed_url,omitempty"`
}

// SigningService is the signing protocol coordinator: it decides signer
// eligibility, appends the audit truth, and finalizes completed documents.
type SigningService interface {
	SubmitSignature(ctx context.Context, input *SubmitSignatureInput) (*SignResult, error)
	Decline(ctx context.Context, docID, actorID uuid.UUID, reason string) error
	ExtendExpiry(ctx context.Context, docID uuid.UUID, newExpiry time.Time, actorID uuid.UUID) (*domain.Document, error)
}

type signingService struct {
	docRepo         port.DocumentRepository
	signerRepo      port.SignerRepository
	placeholderRepo port.PlaceholderRepository
	auditRepo       port.AuditLogRepository
	versionRepo     port.VersionRepository
	versions        VersionService
	storage         port.ObjectStorage
	stamper         port.PDFStamper
	notifier        port.SignerNotifier
	tokens          *token.Manager
	tx              port.TxManager
	metrics         *metrics.Metrics
	storageBucket   string
	signingBaseURL  string
	presignExpiry   int64
}

// NewSigningService creates a new SigningService implementation.
func NewSigningService(
	docRepo port.DocumentRepository,
	signerRepo port.SignerRepository,
	placeholderRepo port.PlaceholderRepository,
	auditRepo port.AuditLogRepository,
	versionRepo port.VersionRepository,
	versions VersionService,
	storage port.ObjectStorage,
	stamper port.PDFStamper,
	notifier port.SignerNotifier,
	tokens *token.Manager,
	tx port.TxManager,
	m *metrics.Metrics,
	storageBucket, signingBaseURL string,
	presignExpiry int64,
) SigningService {
	return &signingService{
		docRepo:         docRepo,
		signerRepo:      signerRepo,
		placeholderRepo: placeholderRepo,
		auditRepo:       auditRepo,
		versionRepo:     versionRepo,
		versions:        versions,
		storage:         storage,
		stamper:         stamper,
		notifier:        notifier,
		tokens:          tokens,
		tx:              tx,
		metrics:         m,
		storageBucket:   storageBucket,
		signingBaseURL:  signingBaseURL,
		presignExpiry:   presignExpiry,
	}
}

// workingCopyKey is where partially signed bytes live between signer sessions.
func workingCopyKey(doc *domain.Document) string {
	return fmt.Sprintf("%s/%s/working_%s", doc.ID, domain.BucketTemp, doc.OriginalName)
}

func (s *signingService) SubmitSignature(ctx context.Context, input *SubmitSignatureInput) (*SignResult, error) {
	var result *SignResult
	var completedDoc *domain.Document
	var partialDoc *domain.Document
	var signedSigner *domain.Signer
	var nextSigner *domain.Signer
	var signedKey string

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doc, err := s.docRepo.GetByIDForUpdate(ctx, input.DocumentID)
		if err != nil {
			return err
		}
		if err := signingGuards(doc, time.Now().UTC()); err != nil {
			return err
		}

		signer, err := s.signerRepo.Resolve(ctx, doc.ID, input.SignerID)
		if err != nil {
			return err
		}
		if signer.AccessCodeHash != nil {
			if bcrypt.CompareHashAndPassword([]byte(*signer.AccessCodeHash), []byte(input.AccessCode)) != nil {
				return domain.ErrInvalidAccessCode
			}
		}

		alreadySigned, err := s.auditRepo.HasSigned(ctx, doc.ID, signer.ID)
		if err != nil {
			return err
		}
		if alreadySigned {
			return domain.ErrAlreadySigned
		}

		signers, err := s.signerRepo.ListByDocument(ctx, doc.ID)
		if err != nil {
			return err
		}
		priorSigned, err := s.auditRepo.SignedSignerIDs(ctx, doc.ID)
		if err != nil {
			return err
		}
		signedSet := make(map[uuid.UUID]bool, len(priorSigned))
		for _, id := range priorSigned {
			signedSet[id] = true
		}

		if doc.SendInOrder {
			if pending := firstUnsignedBefore(signers, signedSet, signer); pending != nil {
				return &domain.OutOfOrderError{
					PendingSignerID: pending.ID,
					PendingEmail:    pending.Email,
					PendingOrder:    pending.OrderIndex,
				}
			}
		}

		pdfBytes, err := s.loadWorkingPDF(ctx, doc, input.PDFBytes, len(priorSigned) > 0)
		if err != nil {
			return err
		}
		placeholders, err := s.placeholderRepo.ListBySigner(ctx, doc.ID, &signer.ID)
		if err != nil {
			return err
		}

		embedStart := time.Now()
		embedded, err := s.stamper.Embed(ctx, port.EmbedInput{
			DocumentID:    doc.ID,
			PDFBytes:      pdfBytes,
			Placeholders:  placeholders,
			Artifact:      input.Artifact,
			StampIdentity: len(priorSigned) == 0,
		})
		if err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.ObserveEmbed(time.Since(embedStart).Seconds())
		}

		entry := &domain.AuditLogEntry{
			ID:          uuid.New(),
			DocumentID:  doc.ID,
			ActorID:     signer.UserID,
			Action:      domain.AuditSignDocument,
			SignerID:    &signer.ID,
			SignerEmail: signer.Email,
			Details:     []byte(fmt.Sprintf(`{"order_index":%d}`, signer.OrderIndex)),
		}
		if err := s.auditRepo.Append(ctx, entry); err != nil {
			return err
		}

		// Completion is derived from the audit log, never from stored flags.
		signedIDs, err := s.auditRepo.SignedSignerIDs(ctx, doc.ID)
		if err != nil {
			return err
		}
		signedCount := len(signedIDs)
		totalSigners := len(signers)
		isComplete := signedCount >= totalSigners

		result = &SignResult{
			Completed:    isComplete,
			SignedCount:  signedCount,
			TotalSigners: totalSigners,
		}

		if !isComplete {
			// Persist the embedded working copy so the next signer session
			// resumes from it.
			if err := s.storeWorkingCopy(ctx, doc, embedded); err != nil {
				return err
			}
			signedSigner = signer
			partialDoc = doc
			if doc.SendInOrder {
				nowSigned := make(map[uuid.UUID]bool, len(signedIDs))
				for _, id := range signedIDs {
					nowSigned[id] = true
				}
				nextSigner = nextUnsigned(signers, nowSigned)
			}
			return nil
		}

		if err := s.finalize(ctx, doc, signer, embedded, result, &signedKey); err != nil {
			return err
		}
		completedDoc = doc
		signedSigner = signer
		return nil
	})
	if err != nil {
		// The transaction rolled back; a signed artifact uploaded during
		// finalize lost its version row and gets a compensating delete.
		if signedKey != "" {
			if delErr := s.storage.Delete(ctx, s.storageBucket, signedKey); delErr != nil {
				log.Printf("signingService.SubmitSignature: orphan signed blob cleanup failed for %s: %v", signedKey, delErr)
			}
		}
		if s.metrics != nil {
			s.metrics.SignAttempt(signOutcome(err))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SignAttempt("signed")
		if result.Completed {
			s.metrics.DocumentCompleted()
		}
	}
	log.Printf("signingService.SubmitSignature: document %s signer %s (%d/%d, completed=%t)",
		input.DocumentID, signedSigner.ID, result.SignedCount, result.TotalSigners, result.Completed)

	if completedDoc != nil {
		s.notifyCompletion(ctx, completedDoc)
	} else if partialDoc != nil && nextSigner != nil {
		s.inviteNextSigner(ctx, partialDoc, nextSigner)
	}
	return result, nil
}

// nextUnsigned returns the lowest-order signer without a signature, or nil.
func nextUnsigned(signers []domain.Signer, signedSet map[uuid.UUID]bool) *domain.Signer {
	var next *domain.Signer
	for i := range signers {
		sg := &signers[i]
		if signedSet[sg.ID] {
			continue
		}
		if next == nil || sg.OrderIndex < next.OrderIndex {
			next = sg
		}
	}
	return next
}

// inviteNextSigner issues a fresh signing link to the signer whose turn has
// arrived under ordered signing. Best effort; delivery failure is logged.
func (s *signingService) inviteNextSigner(ctx context.Context, doc *domain.Document, next *domain.Signer) {
	remaining := 24 * time.Hour
	if doc.ExpiryDate != nil {
		if until := time.Until(*doc.ExpiryDate); until > 0 {
			remaining = until
		}
	}
	linkToken, err := s.tokens.Issue(doc.ID, next.ExternalID, remaining)
	if err != nil {
		log.Printf("signingService.inviteNextSigner: issuing link for %s failed: %v", next.Email, err)
		return
	}

	expiryNote := ""
	if doc.ExpiryDate != nil {
		expiryNote = fmt.Sprintf("This link expires on %s.", doc.ExpiryDate.Format("January 2, 2006"))
	}
	invite := port.SigningInvite{
		Signer:        *next,
		DocumentTitle: doc.Title,
		SigningURL:    fmt.Sprintf("%s/sign/%s", s.signingBaseURL, linkToken),
		ExpiryNote:    expiryNote,
	}
	if err := s.notifier.SendSigningInvite(ctx, invite); err != nil {
		log.Printf("signingService.inviteNextSigner: invite to %s failed: %v", next.Email, err)
	}
}

// signingGuards rejects submissions against documents that are not open for
// signing. Order matters: the most specific condition wins.
func signingGuards(doc *domain.Document, now time.Time) error {
	switch {
	case doc.Archived:
		return domain.ErrDocumentArchived
	case doc.IsDeclined:
		return domain.ErrDocumentDeclined
	case doc.IsCompleted:
		return domain.ErrDocumentCompleted
	case doc.Expired(now):
		return domain.ErrDocumentExpired
	case doc.Status != domain.StatusPendingSignatures:
		return domain.ErrSigningNotStarted
	}
	return nil
}

// firstUnsignedBefore returns the lowest-order unsigned signer preceding
// current, or nil when current is eligible under ordered signing.
func firstUnsignedBefore(signers []domain.Signer, signedSet map[uuid.UUID]bool, current *domain.Signer) *domain.Signer {
	var pending *domain.Signer
	for i := range signers {
		sg := &signers[i]
		if sg.ID == current.ID || signedSet[sg.ID] {
			continue
		}
		if sg.OrderIndex < current.OrderIndex && (pending == nil || sg.OrderIndex < pending.OrderIndex) {
			pending = sg
		}
	}
	return pending
}

// loadWorkingPDF picks the byte stream to embed into: caller-supplied bytes,
// the persisted working copy when a prior signer exists, or the current
// version's stored bytes.
func (s *signingService) loadWorkingPDF(ctx context.Context, doc *domain.Document, supplied []byte, hasPriorSignatures bool) ([]byte, error) {
	if len(supplied) > 0 {
		return supplied, nil
	}
	if hasPriorSignatures {
		data, err := s.storage.Download(ctx, s.storageBucket, workingCopyKey(doc))
		if err == nil {
			return data, nil
		}
		log.Printf("signingService.loadWorkingPDF: working copy missing for document %s, falling back to current version: %v", doc.ID, err)
	}
	if doc.CurrentVersionID == nil {
		return nil, domain.ErrVersionNotFound
	}
	version, err := s.versionRepo.GetByID(ctx, *doc.CurrentVersionID)
	if err != nil {
		return nil, err
	}
	data, err := s.storage.Download(ctx, s.storageBucket, version.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("signingService.loadWorkingPDF: %w", err)
	}
	return data, nil
}

func (s *signingService) storeWorkingCopy(ctx context.Context, doc *domain.Document, embedded []byte) error {
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.storageBucket,
		Key:         workingCopyKey(doc),
		Body:        bytes.NewReader(embedded),
		ContentType: "application/pdf",
		Size:        int64(len(embedded)),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	return nil
}

// finalize runs inside the signing transaction once every signer has signed:
// it stores the fully executed artifact as a new version, moves the document
// to SIGNED and caches the completion projection. signedKey reports the
// uploaded blob's key back to the caller so a rollback after this point can
// still clean the blob up; the version service's own compensation only covers
// failures inside CreateVersion itself.
func (s *signingService) finalize(ctx context.Context, doc *domain.Document, signer *domain.Signer, embedded []byte, result *SignResult, signedKey *string) error {
	version, err := s.versions.CreateVersion(ctx, &CreateVersionInput{
		DocumentID:   doc.ID,
		Bytes:        embedded,
		OriginalName: doc.OriginalName,
		ContentType:  "application/pdf",
		UploaderID:   signer.ID,
		ChangeNote:   "fully executed document",
		TargetStatus: domain.StatusSigned,
	})
	if err != nil {
		return err
	}
	*signedKey = version.StorageKey

	if err := applyTransition(ctx, s.docRepo, s.auditRepo, s.metrics, doc, domain.StatusSigned, signer.UserID); err != nil {
		return err
	}

	doc.IsCompleted = true
	doc.SignedURL = &version.StorageKey
	if err := s.docRepo.UpdateCompletion(ctx, doc); err != nil {
		return err
	}

	// The working copy is superseded by the canonical signed artifact.
	if err := s.storage.Delete(ctx, s.storageBucket, workingCopyKey(doc)); err != nil {
		log.Printf("signingService.finalize: working copy cleanup failed for document %s: %v", doc.ID, err)
	}

	result.SignedURL = &version.StorageKey
	return nil
}

func (s *signingService) notifyCompletion(ctx context.Context, doc *domain.Document) {
	downloadURL := ""
	if doc.SignedURL != nil {
		url, err := s.storage.GetPresignedURL(ctx, s.storageBucket, *doc.SignedURL, s.presignExpiry)
		if err != nil {
			log.Printf("signingService.notifyCompletion: presigning signed artifact for document %s: %v", doc.ID, err)
		} else {
			downloadURL = url
		}
	}

	signers, err := s.signerRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		log.Printf("signingService.notifyCompletion: listing signers for document %s: %v", doc.ID, err)
		return
	}
	for _, sg := range signers {
		if err := s.notifier.SendCompletionNotice(ctx, sg.Email, sg.Name, doc.Title, downloadURL); err != nil {
			log.Printf("signingService.notifyCompletion: notice to %s failed: %v", sg.Email, err)
		}
	}
}

func (s *signingService) Decline(ctx context.Context, docID, actorID uuid.UUID, reason string) error {
	var declined *domain.Document

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doc, err := s.docRepo.GetByIDForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.IsCompleted {
			return domain.ErrDocumentCompleted
		}
		if doc.IsDeclined {
			return domain.ErrDocumentDeclined
		}

		var signerID *uuid.UUID
		signerEmail := ""
		if signer, err := s.signerRepo.Resolve(ctx, doc.ID, actorID); err == nil {
			signerID = &signer.ID
			signerEmail = signer.Email
		}

		entry := &domain.AuditLogEntry{
			ID:          uuid.New(),
			DocumentID:  doc.ID,
			ActorID:     &actorID,
			Action:      domain.AuditDeclineDocument,
			SignerID:    signerID,
			SignerEmail: signerEmail,
			Details:     []byte(fmt.Sprintf(`{"reason":%q}`, reason)),
		}
		if err := s.auditRepo.Append(ctx, entry); err != nil {
			return err
		}

		doc.IsDeclined = true
		if err := s.docRepo.UpdateCompletion(ctx, doc); err != nil {
			return err
		}
		declined = doc
		return nil
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.SignAttempt(signOutcome(err))
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.SignAttempt("declined")
	}
	log.Printf("signingService.Decline: document %s declined by %s", docID, actorID)

	signers, listErr := s.signerRepo.ListByDocument(ctx, declined.ID)
	if listErr != nil {
		log.Printf("signingService.Decline: listing signers for document %s: %v", declined.ID, listErr)
		return nil
	}
	for _, sg := range signers {
		if err := s.notifier.SendDeclineNotice(ctx, sg.Email, sg.Name, declined.Title, reason); err != nil {
			log.Printf("signingService.Decline: notice to %s failed: %v", sg.Email, err)
		}
	}
	return nil
}

func (s *signingService) ExtendExpiry(ctx context.Context, docID uuid.UUID, newExpiry time.Time, actorID uuid.UUID) (*domain.Document, error) {
	var updated *domain.Document

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doc, err := s.docRepo.GetByIDForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		// Strictly forward-only: the window never shrinks.
		if doc.ExpiryDate != nil && !newExpiry.After(*doc.ExpiryDate) {
			return domain.ErrExpiryNotForward
		}

		if err := s.docRepo.UpdateExpiry(ctx, doc.ID, newExpiry); err != nil {
			return err
		}
		entry := &domain.AuditLogEntry{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			ActorID:    &actorID,
			Action:     domain.AuditExpiryExtended,
			Details:    []byte(fmt.Sprintf(`{"new_expiry":%q}`, newExpiry.UTC().Format(time.RFC3339))),
		}
		if err := s.auditRepo.Append(ctx, entry); err != nil {
			return err
		}

		doc.ExpiryDate = &newExpiry
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// signOutcome maps a submission failure to its metrics label.
func signOutcome(err error) string {
	var outOfOrder *domain.OutOfOrderError
	switch {
	case errors.Is(err, domain.ErrAlreadySigned):
		return "already_signed"
	case errors.Is(err, domain.ErrDocumentExpired):
		return "expired"
	case errors.Is(err, domain.ErrDocumentDeclined):
		return "declined_document"
	case errors.As(err, &outOfOrder):
		return "out_of_order"
	default:
		return "error"
	}
}
