package model

import (
	"strings"
	"time"
)

const (
	// TimestampColumn is always the first column of a logged row
	TimestampColumn = "Timestamp"
	// TimestampLayout is the layout of the Timestamp column
	TimestampLayout = "2006-01-02 15:04:05"
	// columnSeparator joins group and variable names in a column header
	columnSeparator = " — "
)

// ColumnName returns the log column for a group variable
func ColumnName(group, variable string) string {
	return group + columnSeparator + variable
}

// SplitColumn reverses ColumnName. ok is false for columns that
// do not belong to a group (Timestamp, hand-added columns).
func SplitColumn(column string) (group, variable string, ok bool) {
	return strings.Cut(column, columnSeparator)
}

// IsRunIDColumn reports whether a column identifies runs: its name
// mentions both "run" and "id", in any case
func IsRunIDColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "run") && strings.Contains(lower, "id")
}

// RunIDColumn returns the first run identifier column, "" if there is none
func (t *Table) RunIDColumn() string {
	for _, c := range t.Columns {
		if IsRunIDColumn(c) {
			return c
		}
	}
	return ""
}

// LogRow is one record written to the log store.
// Columns keeps insertion order; Values is keyed by column name.
type LogRow struct {
	Columns []string          `json:"columns"`
	Values  map[string]string `json:"values"`
}

// NewLogRow starts a row stamped with the given time
func NewLogRow(at time.Time) LogRow {
	ts := at.Format(TimestampLayout)
	return LogRow{
		Columns: []string{TimestampColumn},
		Values:  map[string]string{TimestampColumn: ts},
	}
}

// Set appends a column (or overwrites its value if already present)
func (r *LogRow) Set(column, value string) {
	if r.Values == nil {
		r.Values = make(map[string]string)
	}
	if _, exists := r.Values[column]; !exists {
		r.Columns = append(r.Columns, column)
	}
	r.Values[column] = value
}

// Get returns the value of a column, "" when absent
func (r LogRow) Get(column string) string {
	return r.Values[column]
}

// Timestamp returns the raw Timestamp value
func (r LogRow) Timestamp() string {
	return r.Values[TimestampColumn]
}

// Table is a header row plus data rows, every row padded to the header width
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable builds a table from raw sheet values where the first row is the header.
// Short rows are padded with "" and long rows are truncated.
func NewTable(values [][]string) *Table {
	t := &Table{}
	if len(values) == 0 {
		return t
	}
	t.Columns = append([]string(nil), values[0]...)
	for _, raw := range values[1:] {
		if isBlankRow(raw) {
			continue
		}
		row := make([]string, len(t.Columns))
		copy(row, raw)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Len returns the number of data rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no data rows
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Index returns the position of a column, -1 if missing
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Column returns every value of a column in row order
func (t *Table) Column(column string) ([]string, bool) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Subset returns a table sharing the header with only the given rows
func (t *Table) Subset(rows [][]string) *Table {
	return &Table{Columns: t.Columns, Rows: rows}
}

// Tail returns the last n rows, newest first
func (t *Table) Tail(n int) *Table {
	if n <= 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([][]string, 0, n)
	for i := len(t.Rows) - 1; i >= len(t.Rows)-n; i-- {
		out = append(out, t.Rows[i])
	}
	return t.Subset(out)
}

// Records converts rows into column-keyed maps
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[c] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Snapshot is the result of loading the log. Warning is set when the store
// could not be read; Table is then empty.
type Snapshot struct {
	Table    *Table    `json:"table"`
	Warning  string    `json:"warning,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// ExportResult describes a produced snapshot file
type ExportResult struct {
	Format      string    `json:"format"` // "csv", "xlsx"
	FileName    string    `json:"file_name"`
	RecordCount int       `json:"record_count"`
	Timestamp   time.Time `json:"timestamp"`
}
