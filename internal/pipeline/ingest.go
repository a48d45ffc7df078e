package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"experiment-logger/internal/model"
)

// ErrMissingTimestamp is returned for a snapshot without a Timestamp column
var ErrMissingTimestamp = errors.New("missing Timestamp column")

// ------------------- CSV Ingestion -------------------

// ReadCSV reads a CSV snapshot, as written by WriteCSV, back into log rows.
// Blank lines and rows without a timestamp are skipped. Every row carries
// every snapshot column in header order, empty or not, so appending the rows
// to an empty log reproduces the snapshot header.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.LogRow, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		// Clean header names: trim whitespace and a byte order mark
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	ts := slices.Index(headers, model.TimestampColumn)
	if ts < 0 {
		return nil, ErrMissingTimestamp
	}

	var rows []model.LogRow
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := csvReader.Read()
		if err == io.EOF {
			return rows, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("CSV read error on line %d: %w", line, err)
		}

		if ts >= len(record) || strings.TrimSpace(record[ts]) == "" {
			continue
		}
		row := model.LogRow{}
		for i, h := range headers {
			switch {
			case h == "":
			case i == ts:
				row.Set(h, strings.TrimSpace(record[i]))
			case i >= len(record) || strings.TrimSpace(record[i]) == "":
				row.Set(h, "")
			default:
				row.Set(h, record[i])
			}
		}
		rows = append(rows, row)
	}
}
