package domain

// DocumentStatus is the closed set of lifecycle states a document moves through.
type DocumentStatus string

const (
	StatusDraft             DocumentStatus = "DRAFT"
	StatusReview            DocumentStatus = "REVIEW"
	StatusUnderRevision     DocumentStatus = "UNDER_REVISION"
	StatusPartialApproved   DocumentStatus = "PARTIAL_APPROVED"
	StatusDeclined          DocumentStatus = "DECLINED"
	StatusApproved          DocumentStatus = "APPROVED"
	StatusUnderProcessing   DocumentStatus = "UNDER_PROCESSING"
	StatusPendingSignatures DocumentStatus = "PENDING_SIGNATURES"
	StatusSigned            DocumentStatus = "SIGNED"
	StatusPublished         DocumentStatus = "PUBLISHED"
	StatusExpired           DocumentStatus = "EXPIRED"
	StatusArchived          DocumentStatus = "ARCHIVED"
	StatusDeleted           DocumentStatus = "DELETED"
)

// statusDisplay maps each status to its UI badge variant. Cosmetic only.
var statusDisplay = map[DocumentStatus]string{
	StatusDraft:             "secondary",
	StatusReview:            "info",
	StatusUnderRevision:     "warning",
	StatusPartialApproved:   "info",
	StatusDeclined:          "danger",
	StatusApproved:          "success",
	StatusUnderProcessing:   "info",
	StatusPendingSignatures: "warning",
	StatusSigned:            "success",
	StatusPublished:         "primary",
	StatusExpired:           "danger",
	StatusArchived:          "secondary",
	StatusDeleted:           "danger",
}

// Valid reports whether s is a member of the closed status set.
func (s DocumentStatus) Valid() bool {
	_, ok := statusDisplay[s]
	return ok
}

// Display returns the UI badge variant for the status.
func (s DocumentStatus) Display() string {
	if v, ok := statusDisplay[s]; ok {
		return v
	}
	return "secondary"
}

// StorageBucket partitions blob storage by document lifecycle stage.
type StorageBucket string

const (
	BucketDraft     StorageBucket = "draft"
	BucketTemp      StorageBucket = "temp"
	BucketSigned    StorageBucket = "signed"
	BucketPublished StorageBucket = "published"
)

// BucketForStatus selects the storage bucket for a version created under the
// given target status: SIGNED and PUBLISHED have dedicated buckets, everything
// else is a working draft.
func BucketForStatus(status DocumentStatus) StorageBucket {
	switch status {
	case StatusSigned:
		return BucketSigned
	case StatusPublished:
		return BucketPublished
	default:
		return BucketDraft
	}
}

// AuditAction identifies the kind of event recorded in the audit log.
type AuditAction string

const (
	AuditSignDocument    AuditAction = "SIGN_DOCUMENT"
	AuditDeclineDocument AuditAction = "DECLINE_DOCUMENT"
	AuditDocumentCreated AuditAction = "DOCUMENT_CREATED"
	AuditVersionCreated  AuditAction = "VERSION_CREATED"
	AuditStatusChanged   AuditAction = "STATUS_CHANGED"
	AuditSigningStarted  AuditAction = "SIGNING_STARTED"
	AuditExpiryExtended  AuditAction = "EXPIRY_EXTENDED"
	AuditDocumentDeleted AuditAction = "DOCUMENT_DELETED"
)

// FieldType is the kind of placeholder a signer fills.
type FieldType string

const (
	FieldSignature FieldType = "signature"
	FieldInitial   FieldType = "initial"
	FieldText      FieldType = "text"
	FieldDate      FieldType = "date"
	FieldStamp     FieldType = "stamp"
	FieldCheckbox  FieldType = "checkbox"
)

// RequiredOptionKeys lists the option keys a placeholder of each type must
// carry. Types absent from the map have no required options.
var RequiredOptionKeys = map[FieldType][]string{
	FieldDate:  {"format"},
	FieldText:  {"label"},
	FieldStamp: {"stamp_kind"},
}

// PrefillOwner is the sentinel signer id for self-service fields that belong
// to no signer.
const PrefillOwner = "prefill"

// FileType represents the allowed file types for document uploads.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
}
