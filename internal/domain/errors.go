package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrVersionNotFound     = errors.New("document version not found")
	ErrSignerNotFound      = errors.New("signer not found")
	ErrAlreadySigned       = errors.New("signer has already signed this document")
	ErrDocumentDeclined    = errors.New("document has been declined")
	ErrDocumentCompleted   = errors.New("document is already completed")
	ErrDocumentExpired     = errors.New("document signing window has expired")
	ErrDocumentArchived    = errors.New("document is archived")
	ErrSigningNotStarted   = errors.New("document is not pending signatures")
	ErrExpiryNotForward    = errors.New("expiry date can only be extended forward")
	ErrInvalidAccessCode   = errors.New("invalid signer access code")
	ErrNoSigners           = errors.New("signing requires at least one signer")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrMalformedPDF        = errors.New("file is not a structurally valid PDF")
	ErrEncryptedPDF        = errors.New("encrypted PDFs cannot be processed; remove the password first")
	ErrInvalidPlaceholder  = errors.New("placeholder is missing required options for its field type")
	ErrInvalidStatus       = errors.New("unknown document status")
	ErrSigningLinkInvalid  = errors.New("signing link is invalid or has expired")
)

// DuplicateScope distinguishes where a content-hash collision was found.
type DuplicateScope string

const (
	DuplicateGlobal   DuplicateScope = "global"
	DuplicateDocument DuplicateScope = "document"
)

// DuplicateContentError reports that uploaded bytes already exist as a
// version, with enough identity for the caller to redirect instead of
// duplicating.
type DuplicateContentError struct {
	Scope         DuplicateScope
	DocumentID    uuid.UUID
	VersionID     uuid.UUID
	VersionNumber int
	ContentHash   string
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("duplicate content (%s): hash %s already stored as document %s version %d",
		e.Scope, e.ContentHash, e.DocumentID, e.VersionNumber)
}

// InvalidTransitionError reports a status change outside the transition graph.
type InvalidTransitionError struct {
	From DocumentStatus
	To   DocumentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// OutOfOrderError reports an ordered-signing violation: a signer with a lower
// order value has not signed yet.
type OutOfOrderError struct {
	PendingSignerID uuid.UUID
	PendingEmail    string
	PendingOrder    int
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("signing is ordered: signer %s (order %d) must sign first",
		e.PendingEmail, e.PendingOrder)
}
