package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"signet/internal/domain"
	"signet/internal/export"
)

func TestCSVWriter_AuditTrail(t *testing.T) {
	actorID := uuid.New()
	signerID := uuid.New()
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	entries := []domain.AuditLogEntry{
		{
			ID:          uuid.New(),
			DocumentID:  uuid.New(),
			ActorID:     &actorID,
			Action:      domain.AuditSignDocument,
			SignerID:    &signerID,
			SignerEmail: "jane.doe@example.com",
			Details:     []byte(`{"order_index":1}`),
			CreatedAt:   createdAt,
		},
		{
			ID:         uuid.New(),
			DocumentID: uuid.New(),
			Action:     domain.AuditDocumentCreated,
			Details:    []byte("{}"),
			CreatedAt:  createdAt.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	w := export.NewCSVWriter(&buf)
	assert.NoError(t, w.WriteHeader())
	assert.NoError(t, w.WriteEntries(entries))
	assert.NoError(t, w.Flush())

	rows, err := csv.NewReader(&buf).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 3)

	assert.Equal(t, []string{"Timestamp (UTC)", "Action", "Actor ID", "Signer ID", "Signer Email", "Details"}, rows[0])

	assert.Equal(t, "2026-03-14T09:26:53Z", rows[1][0])
	assert.Equal(t, "SIGN_DOCUMENT", rows[1][1])
	assert.Equal(t, actorID.String(), rows[1][2])
	assert.Equal(t, signerID.String(), rows[1][3])
	assert.Equal(t, "jane.doe@example.com", rows[1][4])
	assert.Equal(t, `{"order_index":1}`, rows[1][5])

	// Nil ids and empty JSON objects render as blank cells.
	assert.Equal(t, "DOCUMENT_CREATED", rows[2][1])
	assert.Equal(t, "", rows[2][2])
	assert.Equal(t, "", rows[2][3])
	assert.Equal(t, "", rows[2][5])
}
