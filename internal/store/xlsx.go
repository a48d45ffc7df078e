package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"experiment-logger/pkg/utils"
)

// XLSXSheet keeps the log in a worksheet of a local Excel workbook.
// The workbook is opened for every operation so external edits are picked up.
type XLSXSheet struct {
	mu        sync.Mutex
	path      string
	worksheet string
}

// OpenXLSX opens the workbook at path, creating it and the worksheet if needed
func OpenXLSX(path, worksheet string) (*XLSXSheet, error) {
	s := &XLSXSheet{path: path, worksheet: worksheet}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f := excelize.NewFile()
		defer f.Close()
		idx, err := f.NewSheet(worksheet)
		if err != nil {
			return nil, fmt.Errorf("failed to create worksheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if worksheet != "Sheet1" {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, fmt.Errorf("failed to drop default worksheet: %w", err)
			}
		}
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to create workbook: %w", err)
		}
		return s, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(worksheet)
	if err != nil {
		return nil, fmt.Errorf("failed to look up worksheet: %w", err)
	}
	if idx < 0 {
		if _, err := f.NewSheet(worksheet); err != nil {
			return nil, fmt.Errorf("failed to create worksheet: %w", err)
		}
		if err := f.Save(); err != nil {
			return nil, fmt.Errorf("failed to save workbook: %w", err)
		}
	}
	return s, nil
}

// Close is a no-op; the workbook is not held open
func (s *XLSXSheet) Close() error { return nil }

// Values returns every non-empty row of the worksheet
func (s *XLSXSheet) Values(ctx context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(s.worksheet)
}

// Header returns the first row
func (s *XLSXSheet) Header(ctx context.Context) ([]string, error) {
	values, err := s.Values(ctx)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[0], nil
}

// WriteHeader overwrites row 1
func (s *XLSXSheet) WriteHeader(ctx context.Context, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SetSheetRow(s.worksheet, "A1", &header); err != nil {
		return err
	}
	return f.Save()
}

// AppendRow writes row after the last used row. Numeric-looking cells are
// stored as numbers, the way a spreadsheet interprets typed input.
func (s *XLSXSheet) AppendRow(ctx context.Context, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.worksheet)
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}

	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = utils.ParseValue(v)
	}
	if err := f.SetSheetRow(s.worksheet, cell, &cells); err != nil {
		return err
	}
	return f.Save()
}
