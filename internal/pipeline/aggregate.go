package pipeline

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"experiment-logger/internal/model"
	"experiment-logger/pkg/utils"
)

// MinBubbleSize is the size given to the least populated bin
const MinBubbleSize = 8.0

// BinSpec selects the axes, the optional color column and the quantization
type BinSpec struct {
	X          string  `json:"x"`
	Y          string  `json:"y"`
	Color      string  `json:"color,omitempty"`
	XPrecision int     `json:"xPrecision"`
	YPrecision int     `json:"yPrecision"`
	MaxSize    float64 `json:"maxSize"`
}

// Bin is one bubble: every row sharing the rounded (X, Y) pair
type Bin struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Count int     `json:"count"`
	// Color is the mean (float64) of a numeric color column, the most
	// frequent value (string) of a categorical one, or nil
	Color   any     `json:"color,omitempty"`
	Members string  `json:"members,omitempty"`
	Size    float64 `json:"size"`
}

// Result is the output of AggregateBins
type Result struct {
	Spec BinSpec `json:"spec"`
	Bins []Bin   `json:"bins"`
	// Rows is the number of rows that landed in a bin
	Rows int `json:"rows"`
	// Dropped counts rows whose X or Y is empty or not a number
	Dropped      int    `json:"dropped"`
	ColorNumeric bool   `json:"colorNumeric"`
	MemberColumn string `json:"memberColumn,omitempty"`
}

// Round quantizes v to the given number of decimals, ties to even.
// A negative precision rounds to tens, hundreds and so on.
func Round(v float64, precision int) float64 {
	if precision < 0 {
		m := math.Pow(10, float64(-precision))
		return math.RoundToEven(v/m) * m
	}
	m := math.Pow(10, float64(precision))
	return math.RoundToEven(v*m) / m
}

type binKey struct {
	x, y float64
}

// binAccumulator collects the rows of one bin
type binAccumulator struct {
	key         binKey
	count       int
	colorNums   []float64
	colorCounts map[string]int
	colorOrder  []string
	members     []string
}

func (a *binAccumulator) addColor(v string) {
	if a.colorCounts == nil {
		a.colorCounts = make(map[string]int)
	}
	if _, seen := a.colorCounts[v]; !seen {
		a.colorOrder = append(a.colorOrder, v)
	}
	a.colorCounts[v]++
}

// mode returns the most frequent value; ties go to the value seen first
func (a *binAccumulator) mode() any {
	best, bestCount := "", 0
	for _, v := range a.colorOrder {
		if c := a.colorCounts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	if bestCount == 0 {
		return nil
	}
	return best
}

func (a *binAccumulator) mean() any {
	if len(a.colorNums) == 0 {
		return nil
	}
	return stat.Mean(a.colorNums, nil)
}

// AggregateBins rounds the X and Y columns, groups rows by the rounded pair
// and computes per-bin count, color aggregate, member ids and bubble size.
// Bins are ordered by X, then Y.
func AggregateBins(table *model.Table, spec BinSpec) (*Result, error) {
	if err := ValidateBinSpec(table, spec); err != nil {
		return nil, err
	}

	res := &Result{Spec: spec, MemberColumn: table.RunIDColumn()}
	xi, yi := table.Index(spec.X), table.Index(spec.Y)
	ci, mi := -1, -1
	if spec.Color != "" {
		ci = table.Index(spec.Color)
	}
	if res.MemberColumn != "" {
		mi = table.Index(res.MemberColumn)
	}

	type point struct {
		key binKey
		row []string
	}
	points := make([]point, 0, table.Len())
	for _, row := range table.Rows {
		x, okX := utils.ParseFloat(row[xi])
		y, okY := utils.ParseFloat(row[yi])
		if !okX || !okY {
			res.Dropped++
			continue
		}
		points = append(points, point{
			key: binKey{Round(x, spec.XPrecision), Round(y, spec.YPrecision)},
			row: row,
		})
	}

	if ci >= 0 {
		res.ColorNumeric = isNumericColumn(len(points), func(i int) string { return points[i].row[ci] })
	}

	bins := make(map[binKey]*binAccumulator)
	var order []*binAccumulator
	for _, p := range points {
		acc, ok := bins[p.key]
		if !ok {
			acc = &binAccumulator{key: p.key}
			bins[p.key] = acc
			order = append(order, acc)
		}
		acc.count++

		if ci >= 0 {
			if v := strings.TrimSpace(p.row[ci]); v != "" {
				if res.ColorNumeric {
					f, _ := utils.ParseFloat(v)
					acc.colorNums = append(acc.colorNums, f)
				} else {
					acc.addColor(v)
				}
			}
		}
		if mi >= 0 {
			if id := strings.TrimSpace(p.row[mi]); id != "" {
				acc.members = append(acc.members, id)
			}
		}
	}

	res.Rows = len(points)
	res.Bins = make([]Bin, 0, len(order))
	for _, acc := range order {
		b := Bin{
			X:       acc.key.x,
			Y:       acc.key.y,
			Count:   acc.count,
			Members: strings.Join(acc.members, ", "),
		}
		if ci >= 0 {
			if res.ColorNumeric {
				b.Color = acc.mean()
			} else {
				b.Color = acc.mode()
			}
		}
		res.Bins = append(res.Bins, b)
	}

	sort.SliceStable(res.Bins, func(i, j int) bool {
		if res.Bins[i].X != res.Bins[j].X {
			return res.Bins[i].X < res.Bins[j].X
		}
		return res.Bins[i].Y < res.Bins[j].Y
	})

	ScaleSizes(res.Bins, spec.MaxSize)
	return res, nil
}

// ScaleSizes maps bin counts linearly onto [MinBubbleSize, maxSize].
// When every bin has the same count all bins get the midpoint.
func ScaleSizes(bins []Bin, maxSize float64) {
	if len(bins) == 0 {
		return
	}
	lo, hi := bins[0].Count, bins[0].Count
	for _, b := range bins[1:] {
		lo = min(lo, b.Count)
		hi = max(hi, b.Count)
	}

	if lo == hi {
		mid := (MinBubbleSize + maxSize) / 2
		for i := range bins {
			bins[i].Size = mid
		}
		return
	}

	span := float64(hi - lo)
	for i := range bins {
		frac := float64(bins[i].Count-lo) / span
		bins[i].Size = MinBubbleSize + frac*(maxSize-MinBubbleSize)
	}
}

// isNumericColumn reports whether every non-empty value parses as a number.
// A column with no values at all is not numeric.
func isNumericColumn(n int, value func(i int) string) bool {
	seen := false
	for i := 0; i < n; i++ {
		v := strings.TrimSpace(value(i))
		if v == "" {
			continue
		}
		if _, ok := utils.ParseFloat(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// NumericColumns lists the columns usable as plot axes, in table order
func NumericColumns(table *model.Table) []string {
	var cols []string
	for i, c := range table.Columns {
		if isNumericColumn(table.Len(), func(r int) string { return table.Rows[r][i] }) {
			cols = append(cols, c)
		}
	}
	return cols
}
