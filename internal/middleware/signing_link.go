package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"signet/internal/token"
)

const (
	// ContextDocumentID is the key holding the signing link's document id.
	ContextDocumentID = "signing_document_id"
	// ContextSignerID is the key holding the signing link's signer external id.
	ContextSignerID = "signing_signer_id"
)

// SigningLink validates the :token path parameter and exposes the link's
// document and signer identity to downstream handlers.
func SigningLink(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Parse(c.Param("token"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_SIGNING_LINK",
					"message": "the signing link is invalid or has expired",
				},
			})
			return
		}
		c.Set(ContextDocumentID, uuid.MustParse(claims.DocumentID))
		c.Set(ContextSignerID, uuid.MustParse(claims.SignerID))
		c.Next()
	}
}

// SigningLinkIdentity reads the document and signer ids set by SigningLink.
func SigningLinkIdentity(c *gin.Context) (docID, signerID uuid.UUID, ok bool) {
	d, dok := c.Get(ContextDocumentID)
	s, sok := c.Get(ContextSignerID)
	if !dok || !sok {
		return uuid.Nil, uuid.Nil, false
	}
	return d.(uuid.UUID), s.(uuid.UUID), true
}
