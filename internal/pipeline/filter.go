package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"experiment-logger/internal/model"
)

const dateLayout = "2006-01-02"

type selector struct {
	idx    int
	values []string
}

func (s selector) match(row []string) bool {
	return slices.Contains(s.values, row[s.idx])
}

// FilterRows applies multi-select and date range filters. Select entries with
// no values are ignored. From and To are inclusive days; when either is set,
// rows with an unparseable Timestamp are dropped.
func FilterRows(table *model.Table, f model.FilterSpec) (*model.Table, error) {
	var selectors []selector
	for col, values := range f.Select {
		if len(values) == 0 {
			continue
		}
		idx := table.Index(col)
		if idx < 0 {
			return nil, fmt.Errorf("%w: filter %q", ErrColumnNotFound, col)
		}
		selectors = append(selectors, selector{idx: idx, values: values})
	}

	from, to, ranged, err := parseRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	tsIdx := table.Index(model.TimestampColumn)
	if ranged && tsIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, model.TimestampColumn)
	}

	rows := make([][]string, 0, table.Len())
rowLoop:
	for _, row := range table.Rows {
		for _, s := range selectors {
			if !s.match(row) {
				continue rowLoop
			}
		}
		if ranged {
			ts, err := time.Parse(model.TimestampLayout, strings.TrimSpace(row[tsIdx]))
			if err != nil || ts.Before(from) || !ts.Before(to) {
				continue
			}
		}
		rows = append(rows, row)
	}
	return table.Subset(rows), nil
}

// parseRange turns inclusive From/To days into a half-open [from, to) interval
func parseRange(fromStr, toStr string) (from, to time.Time, ranged bool, err error) {
	from = time.Time{}
	to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

	if s := strings.TrimSpace(fromStr); s != "" {
		if from, err = time.Parse(dateLayout, s); err != nil {
			return from, to, false, fmt.Errorf("%w: from %q, want YYYY-MM-DD", ErrInvalidDate, fromStr)
		}
		ranged = true
	}
	if s := strings.TrimSpace(toStr); s != "" {
		day, perr := time.Parse(dateLayout, s)
		if perr != nil {
			return from, to, false, fmt.Errorf("%w: to %q, want YYYY-MM-DD", ErrInvalidDate, toStr)
		}
		to = day.AddDate(0, 0, 1)
		ranged = true
	}
	if ranged && !from.Before(to) {
		return from, to, false, fmt.Errorf("%w: from %s is after to %s", ErrInvalidDate, fromStr, toStr)
	}
	return from, to, ranged, nil
}

// FilterOptions lists the distinct values of each categorical column among
// the given candidates, in first-seen order. Numeric and empty columns are skipped.
func FilterOptions(table *model.Table, candidates []string) map[string][]string {
	out := make(map[string][]string)
	for _, col := range candidates {
		idx := table.Index(col)
		if idx < 0 {
			continue
		}
		if isNumericColumn(table.Len(), func(r int) string { return table.Rows[r][idx] }) {
			continue
		}
		var values []string
		seen := make(map[string]bool)
		for _, row := range table.Rows {
			v := row[idx]
			if strings.TrimSpace(v) == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		if len(values) > 0 {
			out[col] = values
		}
	}
	return out
}

// DateBounds returns the first and last day found in the Timestamp column
func DateBounds(table *model.Table) (first, last string, ok bool) {
	idx := table.Index(model.TimestampColumn)
	if idx < 0 {
		return "", "", false
	}
	var lo, hi time.Time
	for _, row := range table.Rows {
		ts, err := time.Parse(model.TimestampLayout, strings.TrimSpace(row[idx]))
		if err != nil {
			continue
		}
		if !ok || ts.Before(lo) {
			lo = ts
		}
		if !ok || ts.After(hi) {
			hi = ts
		}
		ok = true
	}
	if !ok {
		return "", "", false
	}
	return lo.Format(dateLayout), hi.Format(dateLayout), true
}
