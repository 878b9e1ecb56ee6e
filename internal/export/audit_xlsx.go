package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"signet/internal/domain"
)

const auditSheet = "Audit Trail"

// WriteAuditXLSX renders the audit trail of one document as an Excel workbook.
func WriteAuditXLSX(w io.Writer, documentTitle string, entries []domain.AuditLogEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetCellValue(auditSheet, "A1", documentTitle); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	for i, col := range auditColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(auditSheet, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i := range entries {
		row := entryToRow(&entries[i])
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+3)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(auditSheet, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
		}
	}

	if err := f.SetColWidth(auditSheet, "A", "A", 22); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(auditSheet, "B", "F", 30); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
