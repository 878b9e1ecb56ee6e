package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"signet/internal/service"
)

// PlaceholderHandler handles the placeholder registry endpoints.
type PlaceholderHandler struct {
	placeholders service.PlaceholderService
}

// NewPlaceholderHandler creates a new PlaceholderHandler.
func NewPlaceholderHandler(placeholders service.PlaceholderService) *PlaceholderHandler {
	return &PlaceholderHandler{placeholders: placeholders}
}

// Replace handles PUT /api/v1/documents/:id/placeholders
// @Summary Replace a document's placeholders
// @Description Whole-set replacement: prior placeholders are deleted and the submitted set is inserted in one transaction
// @Tags placeholders
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param request body ReplacePlaceholdersRequest true "Full placeholder set"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse "Missing required options for a field type"
// @Router /documents/{id}/placeholders [put]
func (h *PlaceholderHandler) Replace(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}

	var req struct {
		Placeholders []service.PlaceholderInput `json:"placeholders"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "placeholders must be an array of placeholder objects")
		return
	}

	placeholders, err := h.placeholders.ReplaceAll(c.Request.Context(), id, req.Placeholders)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, placeholders)
}

// Get handles GET /api/v1/documents/:id/placeholders
// @Summary Get a document's placeholders grouped by signer and page
// @Tags placeholders
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} APIResponse
// @Router /documents/{id}/placeholders [get]
func (h *PlaceholderHandler) Get(c *gin.Context) {
	id, ok := docID(c)
	if !ok {
		return
	}
	groups, err := h.placeholders.GetGrouped(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, groups)
}
