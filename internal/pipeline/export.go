package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"experiment-logger/internal/model"
	"experiment-logger/pkg/utils"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportSheetName is the worksheet of an exported workbook
const ExportSheetName = "Log"

// ExportTable writes a full snapshot of the table in the given format
func ExportTable(w io.Writer, table *model.Table, format string, at time.Time) (model.ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))

	var err error
	switch format {
	case FormatCSV, "":
		format = FormatCSV
		err = WriteCSV(w, table)
	case FormatXLSX:
		err = WriteXLSX(w, table)
	default:
		return model.ExportResult{}, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return model.ExportResult{}, err
	}

	return model.ExportResult{
		Format:      format,
		FileName:    utils.ExportFileName(format, at),
		RecordCount: table.Len(),
		Timestamp:   at,
	}, nil
}

// WriteCSV writes the header followed by every row
func WriteCSV(w io.Writer, table *model.Table) error {
	writer := csv.NewWriter(w)

	if len(table.Columns) > 0 {
		if err := writer.Write(table.Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the table as a single-sheet workbook. Numeric cells are
// stored as numbers.
func WriteXLSX(w io.Writer, table *model.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheetName); err != nil {
		return fmt.Errorf("failed to name worksheet: %w", err)
	}

	if len(table.Columns) > 0 {
		header := table.Columns
		if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = utils.ParseValue(v)
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
