// Package store is the append-only log adapter. A LogStore writes LogRows
// to a Sheet, extending the sheet's header row when a row carries new
// columns. The header only ever grows: existing columns keep their position.
//
// There is no transaction across the header extension and the row append;
// the log assumes a single writer.
package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"experiment-logger/internal/model"
)

// Sheet is a single worksheet of a spreadsheet-like backend.
// Values returns every row including the header row; rows may be shorter than the header.
type Sheet interface {
	Values(ctx context.Context) ([][]string, error)
	Header(ctx context.Context) ([]string, error)
	WriteHeader(ctx context.Context, header []string) error
	AppendRow(ctx context.Context, row []string) error
	Close() error
}

// LogStore appends rows to a Sheet and reads them back as a table
type LogStore struct {
	sheet  Sheet
	logger *zap.Logger
}

// NewLogStore wraps a sheet
func NewLogStore(sheet Sheet, logger *zap.Logger) *LogStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogStore{sheet: sheet, logger: logger}
}

// Close releases the underlying sheet
func (s *LogStore) Close() error {
	return s.sheet.Close()
}

// Append writes a row. An empty sheet first receives the row's columns as its
// header. Otherwise columns missing from the header are appended to it, and the
// row is aligned to the (possibly extended) header with "" for absent fields.
func (s *LogStore) Append(ctx context.Context, row model.LogRow) error {
	header, err := s.sheet.Header(ctx)
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	if isEmpty(header) {
		header = append([]string(nil), row.Columns...)
		if err := s.sheet.WriteHeader(ctx, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		s.logger.Info("Initialized log header", zap.Int("columns", len(header)))
	} else if added := missingColumns(header, row.Columns); len(added) > 0 {
		extended := append(append([]string(nil), header...), added...)
		if err := s.sheet.WriteHeader(ctx, extended); err != nil {
			return fmt.Errorf("failed to extend header: %w", err)
		}
		s.logger.Info("Extended log header", zap.Strings("added", added))

		// Re-read so the row lines up with what the sheet actually holds.
		if header, err = s.sheet.Header(ctx); err != nil {
			return fmt.Errorf("failed to re-read header: %w", err)
		}
	}

	if err := s.sheet.AppendRow(ctx, align(header, row)); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	s.logger.Debug("Appended log row", zap.String("timestamp", row.Timestamp()))
	return nil
}

// Load reads the whole log. A backend failure yields an empty table and a
// warning instead of an error.
func (s *LogStore) Load(ctx context.Context) model.Snapshot {
	values, err := s.sheet.Values(ctx)
	if err != nil {
		s.logger.Warn("Could not load log", zap.Error(err))
		return model.Snapshot{
			Table:    &model.Table{},
			Warning:  fmt.Sprintf("Could not load log: %v", err),
			LoadedAt: time.Now(),
		}
	}
	return model.Snapshot{Table: model.NewTable(values), LoadedAt: time.Now()}
}

// ColumnValues returns the history of one column. A column that does not
// exist yet has no history.
func (s *LogStore) ColumnValues(ctx context.Context, column string) ([]string, error) {
	values, err := s.sheet.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	table := model.NewTable(values)
	idx := indexOf(table.Columns, column)
	if idx < 0 {
		return nil, nil
	}
	out := make([]string, 0, table.Len())
	for _, r := range table.Rows {
		out = append(out, r[idx])
	}
	return out, nil
}

// RowCount returns the number of logged rows
func (s *LogStore) RowCount(ctx context.Context) (int, error) {
	values, err := s.sheet.Values(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read log: %w", err)
	}
	return model.NewTable(values).Len(), nil
}

// normalize folds equivalent Unicode spellings so that "A — B" typed with a
// decomposed or differently composed dash still matches.
func normalize(s string) string {
	return norm.NFC.String(s)
}

func indexOf(header []string, column string) int {
	want := normalize(column)
	for i, h := range header {
		if normalize(h) == want {
			return i
		}
	}
	return -1
}

func missingColumns(header, columns []string) []string {
	var added []string
	for _, c := range columns {
		if indexOf(header, c) < 0 && indexOf(added, c) < 0 {
			added = append(added, c)
		}
	}
	return added
}

func align(header []string, row model.LogRow) []string {
	byName := make(map[string]string, len(row.Values))
	for k, v := range row.Values {
		byName[normalize(k)] = v
	}
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = byName[normalize(h)]
	}
	return out
}

func isEmpty(header []string) bool {
	for _, h := range header {
		if h != "" {
			return false
		}
	}
	return true
}
