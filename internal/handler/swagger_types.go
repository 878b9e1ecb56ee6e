package handler

import (
	"time"

	"github.com/google/uuid"
)

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// ChangeStatusRequest represents the status transition request body.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required" example:"REVIEW"`
}

// SignerRequest represents one signer in a signing setup request.
type SignerRequest struct {
	OrderIndex int    `json:"order_index" example:"1"`
	RoleLabel  string `json:"role_label" example:"Tenant"`
	Email      string `json:"email" binding:"required" example:"jane.doe@example.com"`
	Name       string `json:"name" binding:"required" example:"Jane Doe"`
	Phone      string `json:"phone" example:"+15550100"`
	AccessCode string `json:"access_code" example:"4821"`
}

// StartSigningRequest represents the signing setup request body.
type StartSigningRequest struct {
	SendInOrder        bool            `json:"send_in_order" example:"true"`
	TimeToCompleteDays int             `json:"time_to_complete_days" example:"14"`
	Signers            []SignerRequest `json:"signers" binding:"required"`
}

// ExtendExpiryRequest represents the expiry extension request body.
type ExtendExpiryRequest struct {
	ExpiryDate time.Time `json:"expiry_date" binding:"required" example:"2026-10-01T00:00:00Z"`
}

// PlaceholderRequest represents one placeholder in a replace-all request.
type PlaceholderRequest struct {
	SignerID  *uuid.UUID        `json:"signer_id"`
	Page      int               `json:"page" binding:"required" example:"1"`
	FieldType string            `json:"field_type" binding:"required" example:"signature"`
	X         float64           `json:"x" example:"0.1"`
	Y         float64           `json:"y" example:"0.8"`
	Width     float64           `json:"width" example:"0.25"`
	Height    float64           `json:"height" example:"0.06"`
	ZIndex    int               `json:"z_index" example:"0"`
	Options   map[string]string `json:"options" example:"format:2006-01-02"`
}

// ReplacePlaceholdersRequest represents the replace-all request body.
type ReplacePlaceholdersRequest struct {
	Placeholders []PlaceholderRequest `json:"placeholders" binding:"required"`
}

// DeclineRequest represents the decline request body.
type DeclineRequest struct {
	Reason string `json:"reason" example:"Terms are not acceptable"`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// SignResultResponse represents the outcome of a signing submission.
type SignResultResponse struct {
	Completed    bool   `json:"completed" example:"false"`
	SignedCount  int    `json:"signed_count" example:"1"`
	TotalSigners int    `json:"total_signers" example:"2"`
	SignedURL    string `json:"signed_url,omitempty"`
}
