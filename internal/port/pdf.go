package port

import (
	"context"

	"github.com/google/uuid"

	"signet/internal/domain"
)

// SignatureArtifact is the visual artifact embedded for one signer: a drawn
// or uploaded image, typed text, or both (text renders where no image fits,
// e.g. date and initial fields).
type SignatureArtifact struct {
	ImageBytes []byte
	ImageType  string // "png" or "jpg"
	TypedText  string
	SignedAt   string
}

// EmbedInput carries one embedding pass: the current PDF bytes plus the
// placeholders to stamp for a single signer (or the prefill set).
type EmbedInput struct {
	DocumentID   uuid.UUID
	PDFBytes     []byte
	Placeholders []domain.Placeholder
	Artifact     SignatureArtifact
	// StampIdentity requests the hidden per-page document-identity marker.
	// Best effort: failure to stamp it is logged, not fatal.
	StampIdentity bool
}

// PDFStamper produces new PDF bytes with signature artifacts embedded at the
// placeholders' positions. Implementations must fail with
// domain.ErrEncryptedPDF for encrypted sources and domain.ErrMalformedPDF for
// structurally invalid ones.
type PDFStamper interface {
	Embed(ctx context.Context, input EmbedInput) ([]byte, error)
	// PageCount reports the number of pages, validating the stream on the way.
	PageCount(ctx context.Context, pdfBytes []byte) (int, error)
}
