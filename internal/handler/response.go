package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"signet/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response. Details carries structured
// context for errors the caller can act on (duplicates, ordering).
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes, error codes
// and optional structured details.
func MapDomainError(err error) (status int, apiErr *APIError) {
	var duplicate *domain.DuplicateContentError
	var invalidTransition *domain.InvalidTransitionError
	var outOfOrder *domain.OutOfOrderError

	switch {
	case errors.As(err, &duplicate):
		return http.StatusConflict, &APIError{
			Code:    "DUPLICATE_CONTENT",
			Message: "this exact file content is already stored",
			Details: duplicate,
		}
	case errors.As(err, &invalidTransition):
		return http.StatusConflict, &APIError{
			Code:    "INVALID_TRANSITION",
			Message: fmt.Sprintf("status cannot change from %s to %s", invalidTransition.From, invalidTransition.To),
			Details: invalidTransition,
		}
	case errors.As(err, &outOfOrder):
		return http.StatusConflict, &APIError{
			Code:    "OUT_OF_ORDER",
			Message: fmt.Sprintf("signing is ordered; %s (order %d) must sign first", outOfOrder.PendingEmail, outOfOrder.PendingOrder),
			Details: outOfOrder,
		}
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound, &APIError{Code: "DOCUMENT_NOT_FOUND", Message: "document not found"}
	case errors.Is(err, domain.ErrVersionNotFound):
		return http.StatusNotFound, &APIError{Code: "VERSION_NOT_FOUND", Message: "document version not found"}
	case errors.Is(err, domain.ErrSignerNotFound):
		return http.StatusNotFound, &APIError{Code: "SIGNER_NOT_FOUND", Message: "signer not found for this document"}
	case errors.Is(err, domain.ErrAlreadySigned):
		return http.StatusConflict, &APIError{Code: "ALREADY_SIGNED", Message: "this signer has already signed the document"}
	case errors.Is(err, domain.ErrDocumentDeclined):
		return http.StatusConflict, &APIError{Code: "DOCUMENT_DECLINED", Message: "the document has been declined; no further signing is possible"}
	case errors.Is(err, domain.ErrDocumentCompleted):
		return http.StatusConflict, &APIError{Code: "DOCUMENT_COMPLETED", Message: "the document is already fully executed"}
	case errors.Is(err, domain.ErrDocumentExpired):
		return http.StatusGone, &APIError{Code: "DOCUMENT_EXPIRED", Message: "the signing window for this document has expired"}
	case errors.Is(err, domain.ErrDocumentArchived):
		return http.StatusConflict, &APIError{Code: "DOCUMENT_ARCHIVED", Message: "the document is archived"}
	case errors.Is(err, domain.ErrSigningNotStarted):
		return http.StatusConflict, &APIError{Code: "SIGNING_NOT_STARTED", Message: "the document is not pending signatures"}
	case errors.Is(err, domain.ErrExpiryNotForward):
		return http.StatusBadRequest, &APIError{Code: "EXPIRY_NOT_FORWARD", Message: "expiry date can only be extended forward"}
	case errors.Is(err, domain.ErrInvalidAccessCode):
		return http.StatusUnauthorized, &APIError{Code: "INVALID_ACCESS_CODE", Message: "the access code is incorrect"}
	case errors.Is(err, domain.ErrNoSigners):
		return http.StatusBadRequest, &APIError{Code: "NO_SIGNERS", Message: "signing requires at least one signer"}
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, &APIError{Code: "UNSUPPORTED_FILE_TYPE", Message: "unsupported file type; allowed: pdf"}
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, &APIError{Code: "FILE_TOO_LARGE", Message: "file exceeds maximum allowed size"}
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, &APIError{Code: "UPLOAD_FAILED", Message: "file upload to storage failed"}
	case errors.Is(err, domain.ErrEncryptedPDF):
		return http.StatusBadRequest, &APIError{Code: "ENCRYPTED_PDF", Message: "the PDF is password protected; remove the password and upload again"}
	case errors.Is(err, domain.ErrMalformedPDF):
		return http.StatusBadRequest, &APIError{Code: "MALFORMED_PDF", Message: "the file is not a structurally valid PDF"}
	case errors.Is(err, domain.ErrInvalidPlaceholder):
		return http.StatusBadRequest, &APIError{Code: "INVALID_PLACEHOLDER", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, &APIError{Code: "INVALID_STATUS", Message: "unknown document status"}
	case errors.Is(err, domain.ErrSigningLinkInvalid):
		return http.StatusUnauthorized, &APIError{Code: "INVALID_SIGNING_LINK", Message: "the signing link is invalid or has expired"}
	default:
		return http.StatusInternalServerError, &APIError{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, apiErr := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] internal error: %v", requestID, err)
	}
	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}
