package service

import (
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

// CreateDocumentInput is the DTO for creating a document with its first version.
type CreateDocumentInput struct {
	Title         string
	CategoryID    *uuid.UUID
	OrgWide       bool
	DepartmentIDs []uuid.UUID
	CreatedBy     uuid.UUID
	FileName      string
	ContentType   string
	Bytes         []byte
}

// SignerInput is the DTO for one signer in a signing setup request.
type SignerInput struct {
	OrderIndex int        `json:"order_index"`
	RoleLabel  string     `json:"role_label"`
	Email      string     `json:"email" binding:"required,email"`
	Name       string     `json:"name" binding:"required"`
	Phone      string     `json:"phone"`
	UserID     *uuid.UUID `json:"user_id"`
	AccessCode string     `json:"access_code"`
}

// StartSigningInput is the DTO for moving a document into the signing phase.
type StartSigningInput struct {
	DocumentID         uuid.UUID
	ActorID            uuid.UUID
	SendInOrder        bool
	TimeToCompleteDays int
	Signers            []SignerInput
}

// SignerLink pairs a created signer with its signing-link URL.
type SignerLink struct {
	Signer     domain.Signer `json:"signer"`
	SigningURL string        `json:"signing_url"`
}

// DocumentDetail is the read aggregate for one document: header, scope,
// current version, signers, grouped placeholders and audit-derived completion.
type DocumentDetail struct {
	Document       domain.Document           `json:"document"`
	StatusDisplay  string                    `json:"status_display"`
	DepartmentIDs  []uuid.UUID               `json:"department_ids"`
	CurrentVersion *domain.DocumentVersion   `json:"current_version,omitempty"`
	Signers        []domain.Signer           `json:"signers"`
	Placeholders   []domain.PlaceholderGroup `json:"placeholders"`
	SignedCount    int                       `json:"signed_count"`
	TotalSigners   int                       `json:"total_signers"`
}

// DocumentService defines the document lifecycle contract.
type DocumentService interface {
	Create(ctx context.Context, input *CreateDocumentInput) (*domain.Document, *domain.DocumentVersion, error)
	GetDetail(ctx context.Context, docID uuid.UUID) (*DocumentDetail, error)
	List(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
	ChangeStatus(ctx context.Context, docID uuid.UUID, to domain.DocumentStatus, actorID uuid.UUID) (*domain.Document, error)
	StartSigning(ctx context.Context, input *StartSigningInput) ([]SignerLink, error)
	Delete(ctx context.Context, docID, actorID uuid.UUID) error
	AuditTrail(ctx context.Context, docID uuid.UUID, offset, limit int) ([]domain.AuditLogEntry, int, error)
}

type documentService struct {
	docRepo         port.DocumentRepository
	versionRepo     port.VersionRepository
	signerRepo      port.SignerRepository
	placeholderRepo port.PlaceholderRepository
	auditRepo       port.AuditLogRepository
	versions        VersionService
	storage         port.ObjectStorage
	notifier        port.SignerNotifier
	tokens          *token.Manager
	tx              port.TxManager
	metrics         *metrics.Metrics
	storageBucket   string
	signingBaseURL  string
	defaultDays     int
	maxFileBytes    int64
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docRepo port.DocumentRepository,
	versionRepo port.VersionRepository,
	signerRepo port.SignerRepository,
	placeholderRepo port.PlaceholderRepository,
	auditRepo port.AuditLogRepository,
	versions VersionService,
	storage port.ObjectStorage,
	notifier port.SignerNotifier,
	tokens *token.Manager,
	tx port.TxManager,
	m *metrics.Metrics,
	storageBucket, signingBaseURL string,
	defaultDays int,
	maxFileSizeMB int64,
) DocumentService {
	return &documentService{
		docRepo:         docRepo,
		versionRepo:     versionRepo,
		signerRepo:      signerRepo,
		placeholderRepo: placeholderRepo,
		auditRepo:       auditRepo,
		versions:        versions,
		storage:         storage,
		notifier:        notifier,
		tokens:          tokens,
		tx:              tx,
		metrics:         m,
		storageBucket:   storageBucket,
		signingBaseURL:  signingBaseURL,
		defaultDays:     defaultDays,
		maxFileBytes:    maxFileSizeMB * 1024 * 1024,
	}
}

func (s *documentService) Create(ctx context.Context, input *CreateDocumentInput) (*domain.Document, *domain.DocumentVersion, error) {
	if _, ok := domain.AllowedContentTypes[input.ContentType]; !ok {
		return nil, nil, domain.ErrUnsupportedFileType
	}
	if s.maxFileBytes > 0 && int64(len(input.Bytes)) > s.maxFileBytes {
		return nil, nil, domain.ErrFileTooLarge
	}

	doc := &domain.Document{
		ID:           uuid.New(),
		Title:        input.Title,
		CategoryID:   input.CategoryID,
		OrgWide:      input.OrgWide,
		Status:       domain.StatusDraft,
		OriginalName: input.FileName,
		CreatedBy:    input.CreatedBy,
	}

	var version *domain.DocumentVersion
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.docRepo.Create(ctx, doc); err != nil {
			return err
		}
		if !input.OrgWide && len(input.DepartmentIDs) > 0 {
			if err := s.docRepo.ReplaceDepartments(ctx, doc.ID, input.DepartmentIDs); err != nil {
				return err
			}
		}

		entry := &domain.AuditLogEntry{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			ActorID:    &input.CreatedBy,
			Action:     domain.AuditDocumentCreated,
			Details:    []byte(fmt.Sprintf(`{"title":%q}`, input.Title)),
		}
		if err := s.auditRepo.Append(ctx, entry); err != nil {
			return err
		}

		// A global content-hash hit rolls the whole creation back so no
		// document row survives a duplicate first upload.
		v, err := s.versions.CreateVersion(ctx, &CreateVersionInput{
			DocumentID:   doc.ID,
			Bytes:        input.Bytes,
			OriginalName: input.FileName,
			ContentType:  input.ContentType,
			UploaderID:   input.CreatedBy,
			TargetStatus: domain.StatusDraft,
			FirstVersion: true,
		})
		if err != nil {
			return err
		}
		version = v
		doc.CurrentVersionID = &v.ID
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("documentService.Create: document %s (%s) created by %s", doc.ID, doc.Title, input.CreatedBy)
	return doc, version, nil
}

func (s *documentService) GetDetail(ctx context.Context, docID uuid.UUID) (*DocumentDetail, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	departments, err := s.docRepo.ListDepartments(ctx, docID)
	if err != nil {
		return nil, err
	}
	signers, err := s.signerRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	placeholders, err := s.placeholderRepo.ListByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	signedIDs, err := s.auditRepo.SignedSignerIDs(ctx, docID)
	if err != nil {
		return nil, err
	}

	detail := &DocumentDetail{
		Document:      *doc,
		StatusDisplay: doc.Status.Display(),
		DepartmentIDs: departments,
		Signers:       signers,
		Placeholders:  GroupPlaceholders(placeholders),
		SignedCount:   len(signedIDs),
		TotalSigners:  len(signers),
	}
	if doc.CurrentVersionID != nil {
		version, err := s.versionRepo.GetByID(ctx, *doc.CurrentVersionID)
		if err != nil && !errors.Is(err, domain.ErrVersionNotFound) {
			return nil, err
		}
		detail.CurrentVersion = version
	}
	return detail, nil
}

func (s *documentService) List(ctx context.Context, offset, limit int) ([]domain.Document, int, error) {
	return s.docRepo.List(ctx, offset, limit)
}

func (s *documentService) ChangeStatus(ctx context.Context, docID uuid.UUID, to domain.DocumentStatus, actorID uuid.UUID) (*domain.Document, error) {
	var updated *domain.Document
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doc, err := s.docRepo.GetByIDForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := applyTransition(ctx, s.docRepo, s.auditRepo, s.metrics, doc, to, &actorID); err != nil {
			return err
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *documentService) StartSigning(ctx context.Context, input *StartSigningInput) ([]SignerLink, error) {
	if len(input.Signers) == 0 {
		return nil, domain.ErrNoSigners
	}

	days := input.TimeToCompleteDays
	if days <= 0 {
		days = s.defaultDays
	}
	expiry := time.Now().UTC().AddDate(0, 0, days)

	signers := make([]domain.Signer, 0, len(input.Signers))
	for _, in := range input.Signers {
		signer := domain.Signer{
			ID:         uuid.New(),
			DocumentID: input.DocumentID,
			ExternalID: uuid.New(),
			OrderIndex: in.OrderIndex,
			RoleLabel:  in.RoleLabel,
			Email:      in.Email,
			Name:       in.Name,
			Phone:      in.Phone,
			UserID:     in.UserID,
		}
		if in.AccessCode != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(in.AccessCode), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hashing access code: %w", err)
			}
			hashStr := string(hash)
			signer.AccessCodeHash = &hashStr
		}
		signers = append(signers, signer)
	}

	var doc *domain.Document
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.docRepo.GetByIDForUpdate(ctx, input.DocumentID)
		if err != nil {
			return err
		}

		if err := s.signerRepo.CreateBatch(ctx, signers); err != nil {
			return err
		}

		d.SendInOrder = input.SendInOrder
		d.TimeToCompleteDays = days
		d.ExpiryDate = &expiry
		if err := s.docRepo.UpdateSigningConfig(ctx, d); err != nil {
			return err
		}

		if err := applyTransition(ctx, s.docRepo, s.auditRepo, s.metrics, d, domain.StatusPendingSignatures, &input.ActorID); err != nil {
			return err
		}

		entry := &domain.AuditLogEntry{
			ID:         uuid.New(),
			DocumentID: d.ID,
			ActorID:    &input.ActorID,
			Action:     domain.AuditSigningStarted,
			Details: []byte(fmt.Sprintf(`{"signers":%d,"send_in_order":%t,"time_to_complete_days":%d}`,
				len(signers), input.SendInOrder, days)),
		}
		if err := s.auditRepo.Append(ctx, entry); err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(days) * 24 * time.Hour
	expiryNote := fmt.Sprintf("This link expires on %s.", expiry.Format("January 2, 2006"))

	links := make([]SignerLink, 0, len(signers))
	for _, signer := range signers {
		linkToken, err := s.tokens.Issue(doc.ID, signer.ExternalID, ttl)
		if err != nil {
			return nil, err
		}
		signingURL := fmt.Sprintf("%s/sign/%s", s.signingBaseURL, linkToken)
		links = append(links, SignerLink{Signer: signer, SigningURL: signingURL})

		// Ordered signing invites only the first signer; the rest are invited
		// as their turn arrives.
		if doc.SendInOrder && signer.OrderIndex != lowestOrder(signers) {
			continue
		}
		invite := port.SigningInvite{
			Signer:        signer,
			DocumentTitle: doc.Title,
			SigningURL:    signingURL,
			ExpiryNote:    expiryNote,
		}
		if err := s.notifier.SendSigningInvite(ctx, invite); err != nil {
			log.Printf("documentService.StartSigning: invite to %s failed: %v", signer.Email, err)
		}
	}

	log.Printf("documentService.StartSigning: document %s entered signing with %d signers (ordered=%t)",
		doc.ID, len(signers), doc.SendInOrder)
	return links, nil
}

func lowestOrder(signers []domain.Signer) int {
	lowest := signers[0].OrderIndex
	for _, s := range signers[1:] {
		if s.OrderIndex < lowest {
			lowest = s.OrderIndex
		}
	}
	return lowest
}

// Delete hard-deletes a document. Versions, signers, placeholders and audit
// entries cascade in the database; blobs are cleaned up after commit.
func (s *documentService) Delete(ctx context.Context, docID, actorID uuid.UUID) error {
	var keys []string
	var doc *domain.Document

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.docRepo.GetByIDForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		versions, err := s.versionRepo.ListByDocument(ctx, docID)
		if err != nil {
			return err
		}
		for _, v := range versions {
			keys = append(keys, v.StorageKey)
		}
		keys = append(keys, workingCopyKey(d))

		if err := s.docRepo.Delete(ctx, docID); err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.storage.Delete(ctx, s.storageBucket, key); err != nil {
			log.Printf("documentService.Delete: blob cleanup failed for %s: %v", key, err)
		}
	}
	log.Printf("documentService.Delete: document %s (%s) hard-deleted by %s", doc.ID, doc.Title, actorID)
	return nil
}

func (s *documentService) AuditTrail(ctx context.Context, docID uuid.UUID, offset, limit int) ([]domain.AuditLogEntry, int, error) {
	if _, err := s.docRepo.GetByID(ctx, docID); err != nil {
		return nil, 0, err
	}
	return s.auditRepo.ListByDocument(ctx, docID, offset, limit)
}

// applyTransition validates the edge against the transition graph, persists
// the new status and records the change. Callers run it inside a transaction
// with the document row already locked.
func applyTransition(
	ctx context.Context,
	docRepo port.DocumentRepository,
	auditRepo port.AuditLogRepository,
	m *metrics.Metrics,
	doc *domain.Document,
	to domain.DocumentStatus,
	actorID *uuid.UUID,
) error {
	if err := domain.Transition(doc.Status, to); err != nil {
		return err
	}
	if err := docRepo.UpdateStatus(ctx, doc.ID, to); err != nil {
		return err
	}

	entry := &domain.AuditLogEntry{
		ID:         uuid.New(),
		DocumentID: doc.ID,
		ActorID:    actorID,
		Action:     domain.AuditStatusChanged,
		Details:    []byte(fmt.Sprintf(`{"from":%q,"to":%q}`, doc.Status, to)),
	}
	if err := auditRepo.Append(ctx, entry); err != nil {
		return err
	}

	if m != nil {
		m.StatusTransition(string(doc.Status), string(to))
	}
	doc.Status = to
	return nil
}
