package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document is the identity root of the lifecycle engine. Status only ever
// changes through the transition graph in status.go; completion flags are
// cached projections of the audit log, recomputed on every write.
type Document struct {
	ID                 uuid.UUID      `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	CategoryID         *uuid.UUID     `db:"category_id" json:"category_id"`
	OrgWide            bool           `db:"org_wide" json:"org_wide"`
	Status             DocumentStatus `db:"status" json:"status"`
	CurrentVersionID   *uuid.UUID     `db:"current_version_id" json:"current_version_id"`
	Archived           bool           `db:"archived" json:"archived"`
	SendInOrder        bool           `db:"send_in_order" json:"send_in_order"`
	TimeToCompleteDays int            `db:"time_to_complete_days" json:"time_to_complete_days"`
	ExpiryDate         *time.Time     `db:"expiry_date" json:"expiry_date"`
	IsCompleted        bool           `db:"is_completed" json:"is_completed"`
	IsDeclined         bool           `db:"is_declined" json:"is_declined"`
	SignedURL          *string        `db:"signed_url" json:"signed_url"`
	OriginalName       string         `db:"original_name" json:"original_name"`
	CreatedBy          uuid.UUID      `db:"created_by" json:"created_by"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the document's signing window has passed at now.
func (d *Document) Expired(now time.Time) bool {
	return d.ExpiryDate != nil && now.After(*d.ExpiryDate)
}

// DocumentVersion is an immutable snapshot of a document's bytes.
// VersionNumber is strictly increasing per document with no gaps or reuse.
type DocumentVersion struct {
	ID               uuid.UUID      `db:"id" json:"id"`
	DocumentID       uuid.UUID      `db:"document_id" json:"document_id"`
	VersionNumber    int            `db:"version_number" json:"version_number"`
	ContentHash      string         `db:"content_hash" json:"content_hash"`
	ByteSize         int64          `db:"byte_size" json:"byte_size"`
	StorageBucket    StorageBucket  `db:"storage_bucket" json:"storage_bucket"`
	StorageKey       string         `db:"storage_key" json:"storage_key"`
	UploadedBy       uuid.UUID      `db:"uploaded_by" json:"uploaded_by"`
	ChangeNote       string         `db:"change_note" json:"change_note"`
	ExpiresAt        *time.Time     `db:"expires_at" json:"expires_at"`
	StatusAtCreation DocumentStatus `db:"status_at_creation" json:"status_at_creation"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

// Signer is a party assigned to sign a document. OrderIndex matters only when
// the owning document has SendInOrder set. ExternalID is the identity embedded
// in signing links; contact details may be corrected after creation but
// nothing else once a placeholder references the signer.
type Signer struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	DocumentID     uuid.UUID  `db:"document_id" json:"document_id"`
	ExternalID     uuid.UUID  `db:"external_id" json:"external_id"`
	OrderIndex     int        `db:"order_index" json:"order_index"`
	RoleLabel      string     `db:"role_label" json:"role_label"`
	Email          string     `db:"email" json:"email"`
	Name           string     `db:"name" json:"name"`
	Phone          string     `db:"phone" json:"phone"`
	UserID         *uuid.UUID `db:"user_id" json:"user_id"`
	AccessCodeHash *string    `db:"access_code_hash" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Placeholder is a positioned field bound to a signer or to prefill.
// Coordinates are normalized to [0,1] against the page box; Position records
// insertion order within the replace-all set.
type Placeholder struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	DocumentID uuid.UUID       `db:"document_id" json:"document_id"`
	SignerID   *uuid.UUID      `db:"signer_id" json:"signer_id"`
	Page       int             `db:"page" json:"page"`
	FieldType  FieldType       `db:"field_type" json:"field_type"`
	X          float64         `db:"x" json:"x"`
	Y          float64         `db:"y" json:"y"`
	Width      float64         `db:"width" json:"width"`
	Height     float64         `db:"height" json:"height"`
	ZIndex     int             `db:"z_index" json:"z_index"`
	Position   int             `db:"position" json:"position"`
	Options    json.RawMessage `db:"options" json:"options"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// OwnerKey returns the grouping key for the placeholder's owner: the signer id
// or the prefill sentinel.
func (p *Placeholder) OwnerKey() string {
	if p.SignerID == nil {
		return PrefillOwner
	}
	return p.SignerID.String()
}

// AuditLogEntry is an append-only record of a lifecycle event. The set of
// SIGN_DOCUMENT entries for a document is the sole source of truth for who
// has signed.
type AuditLogEntry struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	DocumentID  uuid.UUID       `db:"document_id" json:"document_id"`
	ActorID     *uuid.UUID      `db:"actor_id" json:"actor_id"`
	Action      AuditAction     `db:"action" json:"action"`
	SignerID    *uuid.UUID      `db:"signer_id" json:"signer_id"`
	SignerEmail string          `db:"signer_email" json:"signer_email"`
	Details     json.RawMessage `db:"details" json:"details"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// PageGroup holds the placeholders of one page in insertion order.
type PageGroup struct {
	Page   int           `json:"page"`
	Fields []Placeholder `json:"fields"`
}

// PlaceholderGroup buckets a document's placeholders by owning signer
// (or "prefill"), then by page.
type PlaceholderGroup struct {
	Owner string      `json:"owner"`
	Pages []PageGroup `json:"pages"`
}
