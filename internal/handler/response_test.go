package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"signet/internal/domain"
	"signet/internal/handler"
)

func TestMapDomainError_Sentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrDocumentNotFound, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{domain.ErrVersionNotFound, http.StatusNotFound, "VERSION_NOT_FOUND"},
		{domain.ErrSignerNotFound, http.StatusNotFound, "SIGNER_NOT_FOUND"},
		{domain.ErrAlreadySigned, http.StatusConflict, "ALREADY_SIGNED"},
		{domain.ErrDocumentDeclined, http.StatusConflict, "DOCUMENT_DECLINED"},
		{domain.ErrDocumentCompleted, http.StatusConflict, "DOCUMENT_COMPLETED"},
		{domain.ErrDocumentExpired, http.StatusGone, "DOCUMENT_EXPIRED"},
		{domain.ErrDocumentArchived, http.StatusConflict, "DOCUMENT_ARCHIVED"},
		{domain.ErrSigningNotStarted, http.StatusConflict, "SIGNING_NOT_STARTED"},
		{domain.ErrExpiryNotForward, http.StatusBadRequest, "EXPIRY_NOT_FORWARD"},
		{domain.ErrInvalidAccessCode, http.StatusUnauthorized, "INVALID_ACCESS_CODE"},
		{domain.ErrNoSigners, http.StatusBadRequest, "NO_SIGNERS"},
		{domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{domain.ErrUploadFailed, http.StatusInternalServerError, "UPLOAD_FAILED"},
		{domain.ErrEncryptedPDF, http.StatusBadRequest, "ENCRYPTED_PDF"},
		{domain.ErrMalformedPDF, http.StatusBadRequest, "MALFORMED_PDF"},
		{domain.ErrInvalidPlaceholder, http.StatusBadRequest, "INVALID_PLACEHOLDER"},
		{domain.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
		{domain.ErrSigningLinkInvalid, http.StatusUnauthorized, "INVALID_SIGNING_LINK"},
	}

	for _, tc := range cases {
		status, apiErr := handler.MapDomainError(tc.err)
		assert.Equal(t, tc.status, status, "status for %v", tc.err)
		assert.Equal(t, tc.code, apiErr.Code, "code for %v", tc.err)
	}
}

func TestMapDomainError_WrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("%w: connection reset", domain.ErrUploadFailed)
	status, apiErr := handler.MapDomainError(wrapped)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "UPLOAD_FAILED", apiErr.Code)
}

func TestMapDomainError_DuplicateContent(t *testing.T) {
	dup := &domain.DuplicateContentError{
		Scope:         domain.DuplicateDocument,
		DocumentID:    uuid.New(),
		VersionID:     uuid.New(),
		VersionNumber: 2,
		ContentHash:   "abc123",
	}

	status, apiErr := handler.MapDomainError(dup)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_CONTENT", apiErr.Code)
	// Structured details let the client redirect to the existing version.
	assert.Equal(t, dup, apiErr.Details)
}

func TestMapDomainError_InvalidTransition(t *testing.T) {
	status, apiErr := handler.MapDomainError(&domain.InvalidTransitionError{
		From: domain.StatusDraft,
		To:   domain.StatusSigned,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", apiErr.Code)
	assert.Contains(t, apiErr.Message, "DRAFT")
	assert.Contains(t, apiErr.Message, "SIGNED")
}

func TestMapDomainError_OutOfOrder(t *testing.T) {
	status, apiErr := handler.MapDomainError(&domain.OutOfOrderError{
		PendingSignerID: uuid.New(),
		PendingEmail:    "ana@example.com",
		PendingOrder:    1,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "OUT_OF_ORDER", apiErr.Code)
	assert.Contains(t, apiErr.Message, "ana@example.com")
}

func TestMapDomainError_Unknown(t *testing.T) {
	status, apiErr := handler.MapDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	// Internal details never leak to the client.
	assert.NotContains(t, apiErr.Message, "boom")
}
