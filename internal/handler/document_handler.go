package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"signet/internal/domain"
	"signet/internal/export"
	"signet/internal/service"
)

// DocumentHandler handles document lifecycle endpoints.
type DocumentHandler struct {
	documents service.DocumentService
	versions  service.VersionService
	signing   service.SigningService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents service.DocumentService, versions service.VersionService, signing service.SigningService) *DocumentHandler {
	return &DocumentHandler{documents: documents, versions: versions, signing: signing}
}

// actorID reads the acting user's id from the X-Actor-ID header. Identity
// issuance is out of scope; the id is treated as opaque but must be a UUID.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader("X-Actor-ID")
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_ACTOR", "X-Actor-ID header must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func docID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "document id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}

func readUploadedFile(c *gin.Context, field string) ([]byte, string, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", "", err
	}
	return readUploadedFileHeader(fileHeader)
}

func readUploadedFileHeader(fileHeader *multipart.FileHeader) ([]byte, string, string, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", "", err
	}
	return data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), nil
}

// Create handles POST /api/v1/documents
// @Summary Create a document
// @Description Create a document from an uploaded PDF; the upload becomes version 1
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param title formData string true "Document title"
// @Success 201 {object} APIResponse
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 409 {object} APIResponse "Duplicate content"
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}

	data, fileName, contentType, err := readUploadedFile(c, "file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "a file upload is required")
		return
	}
	title := c.PostForm("title")
	if title == "" {
		title = fileName
	}

	input := &service.CreateDocumentInput{
		Title:       title,
		OrgWide:     c.PostForm("org_wide") == "true",
		CreatedBy:   actor,
		FileName:    fileName,
		ContentType: contentType,
		Bytes:       data,
	}
	if raw := c.PostForm("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "category_id must be a valid UUID")
			return
		}
		input.CategoryID = &id
	}
	for _, raw := range c.PostFormArray("department_ids") {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "department_ids must be valid UUIDs")
			return
		}
		input.DepartmentIDs = append(input.DepartmentIDs, id)
	}

	doc, version, err := h.documents.Create(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, gin.H{"document": doc, "version": version})
}

// List handles GET /api/v1/documents
// @Summary List documents
// @Tags documents
// @Produce json
// @Success 200 {object} APIResponse
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	docs, total, err := h.documents.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/documents/:id
// @Summary Get a document's detail aggregate
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse "Not found"
// @Router /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	detail, err := h.documents.GetDetail(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, detail)
}

// AddVersion handles POST /api/v1/documents/:id/versions
// @Summary Add a new version to a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Document ID"
// @Param file formData file true "PDF file"
// @Success 201 {object} APIResponse
// @Failure 409 {object} APIResponse "Duplicate content within document"
// @Router /documents/{id}/versions [post]
func (h *DocumentHandler) AddVersion(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	data, fileName, contentType, err := readUploadedFile(c, "file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "a file upload is required")
		return
	}

	version, err := h.versions.CreateVersion(c.Request.Context(), &service.CreateVersionInput{
		DocumentID:   id,
		Bytes:        data,
		OriginalName: fileName,
		ContentType:  contentType,
		UploaderID:   actor,
		ChangeNote:   c.PostForm("change_note"),
		TargetStatus: domain.StatusDraft,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, version)
}

// ListVersions handles GET /api/v1/documents/:id/versions
// @Summary List a document's versions
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse
// @Router /documents/{id}/versions [get]
func (h *DocumentHandler) ListVersions(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	versions, err := h.versions.ListVersions(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, versions)
}

// ChangeStatus handles PUT /api/v1/documents/:id/status
// @Summary Transition a document's status
// @Tags documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body ChangeStatusRequest true "Target status"
// @Success 200 {object} APIResponse
// @Failure 409 {object} APIResponse "Invalid transition"
// @Router /documents/{id}/status [put]
func (h *DocumentHandler) ChangeStatus(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		Status domain.DocumentStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "status is required")
		return
	}
	if !req.Status.Valid() {
		HandleError(c, domain.ErrInvalidStatus)
		return
	}

	doc, err := h.documents.ChangeStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// StartSigning handles POST /api/v1/documents/:id/signing
// @Summary Move a document into the signing phase
// @Description Creates the signer set, derives the expiry window, transitions to PENDING_SIGNATURES and sends invites
// @Tags signing
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body StartSigningRequest true "Signer set and window"
// @Success 201 {object} APIResponse
// @Failure 409 {object} APIResponse "Invalid transition"
// @Router /documents/{id}/signing [post]
func (h *DocumentHandler) StartSigning(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		SendInOrder        bool                  `json:"send_in_order"`
		TimeToCompleteDays int                   `json:"time_to_complete_days"`
		Signers            []service.SignerInput `json:"signers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "signers are required, each with name and email")
		return
	}

	links, err := h.documents.StartSigning(c.Request.Context(), &service.StartSigningInput{
		DocumentID:         id,
		ActorID:            actor,
		SendInOrder:        req.SendInOrder,
		TimeToCompleteDays: req.TimeToCompleteDays,
		Signers:            req.Signers,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, links)
}

// ExtendExpiry handles PUT /api/v1/documents/:id/expiry
// @Summary Extend a document's signing window (forward only)
// @Tags signing
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body ExtendExpiryRequest true "New expiry date"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse "Expiry not forward"
// @Router /documents/{id}/expiry [put]
func (h *DocumentHandler) ExtendExpiry(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}

	var req struct {
		ExpiryDate time.Time `json:"expiry_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "expiry_date is required (RFC 3339)")
		return
	}

	doc, err := h.signing.ExtendExpiry(c.Request.Context(), id, req.ExpiryDate, actor)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}

// Delete handles DELETE /api/v1/documents/:id
// @Summary Hard-delete a document
// @Description Removes the document, its versions, signers, placeholders, audit log and stored blobs
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.documents.Delete(c.Request.Context(), id, actor); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

// AuditTrail handles GET /api/v1/documents/:id/audit
// @Summary Get a document's audit trail
// @Tags audit
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse
// @Router /documents/{id}/audit [get]
func (h *DocumentHandler) AuditTrail(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)
	entries, total, err := h.documents.AuditTrail(c.Request.Context(), id, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, entries, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// ExportAudit handles GET /api/v1/documents/:id/audit/export?format=csv|xlsx
// @Summary Export a document's audit trail
// @Tags audit
// @Produce application/octet-stream
// @Param id path string true "Document ID"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} binary
// @Router /documents/{id}/audit/export [get]
func (h *DocumentHandler) ExportAudit(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	detail, err := h.documents.GetDetail(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	// Export is unpaginated; the audit trail of one document is small.
	entries, _, err := h.documents.AuditTrail(c.Request.Context(), id, 0, 10000)
	if err != nil {
		HandleError(c, err)
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="audit_%s.xlsx"`, id))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := export.WriteAuditXLSX(c.Writer, detail.Document.Title, entries); err != nil {
			HandleError(c, err)
		}
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="audit_%s.csv"`, id))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		if _, err := c.Writer.Write(export.BOM); err != nil {
			return
		}
		w := export.NewCSVWriter(c.Writer)
		if err := w.WriteHeader(); err != nil {
			return
		}
		if err := w.WriteEntries(entries); err != nil {
			return
		}
		_ = w.Flush()
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
	}
}
