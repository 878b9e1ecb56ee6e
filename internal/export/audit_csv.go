package export

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/google/uuid"

	"signet/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// auditColumns defines the audit-trail export header row.
var auditColumns = []string{
	"Timestamp (UTC)",
	"Action",
	"Actor ID",
	"Signer ID",
	"Signer Email",
	"Details",
}

// CSVWriter wraps csv.Writer for exporting an audit trail as CSV.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes CSV to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(auditColumns)
}

// WriteEntries converts a batch of audit entries to CSV rows and writes them.
func (w *CSVWriter) WriteEntries(entries []domain.AuditLogEntry) error {
	for i := range entries {
		if err := w.csv.Write(entryToRow(&entries[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}

func entryToRow(e *domain.AuditLogEntry) []string {
	return []string{
		e.CreatedAt.UTC().Format(time.RFC3339),
		string(e.Action),
		uuidOrEmpty(e.ActorID),
		uuidOrEmpty(e.SignerID),
		e.SignerEmail,
		detailsOrEmpty(e.Details),
	}
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func detailsOrEmpty(raw []byte) string {
	if len(raw) == 0 || string(raw) == "{}" {
		return ""
	}
	return string(raw)
}
