package dashboard

import (
	"context"
	"errors"

	"experiment-logger/internal/model"
	"experiment-logger/internal/pipeline"
)

// ErrNoLogData is returned when there is nothing logged to plot
var ErrNoLogData = errors.New("nothing logged yet")

// PlotChoices lists what the plotting controls can offer
type PlotChoices struct {
	// Axes are the numeric columns
	Axes []string `json:"axes"`
	// Colors is every column except Timestamp
	Colors []string `json:"colors"`
	// Filters maps each filterable categorical column to its values
	Filters  map[string][]string `json:"filters"`
	FirstDay string              `json:"firstDay,omitempty"`
	LastDay  string              `json:"lastDay,omitempty"`
	MaxSize  float64             `json:"maxSize"`
	Rows     int                 `json:"rows"`
	Warning  string              `json:"warning,omitempty"`
}

// Choices inspects the cached log for the plotting controls
func (s *Service) Choices(ctx context.Context) PlotChoices {
	snap := s.Snapshot(ctx)
	table := snap.Table

	c := PlotChoices{
		Axes:    pipeline.NumericColumns(table),
		Filters: pipeline.FilterOptions(table, s.Schema().FilterableColumns()),
		MaxSize: s.opts.MaxSize,
		Rows:    table.Len(),
		Warning: snap.Warning,
	}
	for _, col := range table.Columns {
		if col != model.TimestampColumn {
			c.Colors = append(c.Colors, col)
		}
	}
	c.FirstDay, c.LastDay, _ = pipeline.DateBounds(table)
	return c
}

// Plot filters the cached log and bins it. A zero MaxSize uses the configured default.
func (s *Service) Plot(ctx context.Context, req model.PlotRequest) (*pipeline.Result, error) {
	snap := s.Snapshot(ctx)
	if snap.Table.Empty() {
		if snap.Warning != "" {
			return nil, errors.Join(ErrStoreUnavailable, errors.New(snap.Warning))
		}
		return nil, ErrNoLogData
	}

	filtered, err := pipeline.FilterRows(snap.Table, req.Filters)
	if err != nil {
		return nil, err
	}

	maxSize := req.MaxSize
	if maxSize == 0 {
		maxSize = s.opts.MaxSize
	}
	return pipeline.AggregateBins(filtered, pipeline.BinSpec{
		X:          req.X,
		Y:          req.Y,
		Color:      req.Color,
		XPrecision: req.XPrecision,
		YPrecision: req.YPrecision,
		MaxSize:    maxSize,
	})
}
