package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"signet/internal/middleware"
	"signet/internal/port"
	"signet/internal/service"
)

// SigningHandler handles the public signing-link endpoints.
type SigningHandler struct {
	signing   service.SigningService
	documents service.DocumentService
}

// NewSigningHandler creates a new SigningHandler.
func NewSigningHandler(signing service.SigningService, documents service.DocumentService) *SigningHandler {
	return &SigningHandler{signing: signing, documents: documents}
}

// Session handles GET /sign/:token
// @Summary Get the signing session for a signing link
// @Tags public
// @Produce json
// @Param token path string true "Signing link token"
// @Success 200 {object} APIResponse
// @Failure 401 {object} APIResponse "Invalid link"
// @Router /sign/{token} [get]
func (h *SigningHandler) Session(c *gin.Context) {
	documentID, signerID, ok := middleware.SigningLinkIdentity(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "INVALID_SIGNING_LINK", "the signing link is invalid or has expired")
		return
	}

	detail, err := h.documents.GetDetail(c.Request.Context(), documentID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"document": detail, "signer_id": signerID})
}

// Sign handles POST /sign/:token
// @Summary Submit a signature through a signing link
// @Description Embeds the signer's artifact into the working PDF and records the signature; finalizes the document when every signer has signed
// @Tags public
// @Accept multipart/form-data
// @Produce json
// @Param token path string true "Signing link token"
// @Param artifact formData file false "Signature image (PNG/JPEG)"
// @Param typed_text formData string false "Typed signature text"
// @Param access_code formData string false "Signer access code, when one was set"
// @Success 200 {object} APIResponse{data=SignResultResponse}
// @Failure 409 {object} APIResponse "Already signed or out of order"
// @Failure 410 {object} APIResponse "Signing window expired"
// @Router /sign/{token} [post]
func (h *SigningHandler) Sign(c *gin.Context) {
	documentID, signerID, ok := middleware.SigningLinkIdentity(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "INVALID_SIGNING_LINK", "the signing link is invalid or has expired")
		return
	}

	artifact := port.SignatureArtifact{
		TypedText: c.PostForm("typed_text"),
		SignedAt:  time.Now().UTC().Format("2006-01-02"),
	}
	if fileHeader, err := c.FormFile("artifact"); err == nil {
		data, _, imageType, err := readUploadedFileHeader(fileHeader)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "the signature artifact could not be read")
			return
		}
		artifact.ImageBytes = data
		artifact.ImageType = imageType
	}
	if artifact.TypedText == "" && len(artifact.ImageBytes) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "either an artifact image or typed_text is required")
		return
	}

	var pdfBytes []byte
	if fileHeader, err := c.FormFile("pdf"); err == nil {
		data, _, _, err := readUploadedFileHeader(fileHeader)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "the pdf upload could not be read")
			return
		}
		pdfBytes = data
	}

	result, err := h.signing.SubmitSignature(c.Request.Context(), &service.SubmitSignatureInput{
		DocumentID: documentID,
		SignerID:   signerID,
		AccessCode: c.PostForm("access_code"),
		Artifact:   artifact,
		PDFBytes:   pdfBytes,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Decline handles POST /sign/:token/decline
// @Summary Decline a document through a signing link
// @Tags public
// @Accept json
// @Produce json
// @Param token path string true "Signing link token"
// @Param request body DeclineRequest false "Decline reason"
// @Success 200 {object} APIResponse
// @Failure 409 {object} APIResponse "Already completed or declined"
// @Router /sign/{token}/decline [post]
func (h *SigningHandler) Decline(c *gin.Context) {
	documentID, signerID, ok := middleware.SigningLinkIdentity(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "INVALID_SIGNING_LINK", "the signing link is invalid or has expired")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.signing.Decline(c.Request.Context(), documentID, signerID, req.Reason); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"declined": true})
}
