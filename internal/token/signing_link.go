package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"signet/internal/domain"
)

// SigningLinkClaims is the payload of a per-signer signing link: the document
// and the signer's external reference id.
type SigningLinkClaims struct {
	DocumentID string `json:"doc_id"`
	SignerID   string `json:"signer_id"`
	jwt.RegisteredClaims
}

// Manager issues and validates signing-link tokens.
type Manager struct {
	secret []byte
	issuer string
}

// NewManager creates a signing-link token manager.
func NewManager(secret, issuer string) *Manager {
	return &Manager{secret: []byte(secret), issuer: issuer}
}

// Issue creates a signing-link token for one signer, valid for ttl.
func (m *Manager) Issue(documentID, signerExternalID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := SigningLinkClaims{
		DocumentID: documentID.String(),
		SignerID:   signerExternalID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   signerExternalID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing link token: %w", err)
	}
	return signed, nil
}

// Parse validates a signing-link token and returns its claims. Any failure
// (bad signature, expiry, wrong issuer) maps to domain.ErrSigningLinkInvalid.
func (m *Manager) Parse(tokenString string) (*SigningLinkClaims, error) {
	claims := &SigningLinkClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrSigningLinkInvalid
	}
	if _, err := uuid.Parse(claims.DocumentID); err != nil {
		return nil, domain.ErrSigningLinkInvalid
	}
	if _, err := uuid.Parse(claims.SignerID); err != nil {
		return nil, domain.ErrSigningLinkInvalid
	}
	return claims, nil
}
