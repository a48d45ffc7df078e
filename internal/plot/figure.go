// Package plot turns binned results into charts: plotly figure JSON for the
// interactive page and static SVG/PNG images.
package plot

import (
	"fmt"
	"strings"

	"experiment-logger/internal/pipeline"
	"experiment-logger/pkg/utils"
)

// NoColor labels bins whose color aggregate is missing
const NoColor = "(none)"

// Options holds the chart decorations
type Options struct {
	Title  string
	Width  int
	Height int
}

// Figure is a plotly figure: {data, layout}
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a plotly scatter trace drawn as markers
type Trace struct {
	Type      string    `json:"type"`
	Mode      string    `json:"mode"`
	Name      string    `json:"name,omitempty"`
	X         []float64 `json:"x"`
	Y         []float64 `json:"y"`
	Text      []string  `json:"text"`
	HoverInfo string    `json:"hoverinfo"`
	Marker    Marker    `json:"marker"`
}

// Marker sizes and colors the points of a trace
type Marker struct {
	Size       []float64 `json:"size"`
	SizeMode   string    `json:"sizemode"`
	Color      any       `json:"color,omitempty"`
	ColorScale string    `json:"colorscale,omitempty"`
	ShowScale  bool      `json:"showscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
	Opacity    float64   `json:"opacity"`
	Line       Line      `json:"line"`
}

type ColorBar struct {
	Title Title `json:"title"`
}

type Line struct {
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	Title    Title `json:"title"`
	ZeroLine bool  `json:"zeroline"`
}

// Layout is the plotly layout object
type Layout struct {
	Title      Title  `json:"title"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	HoverMode  string `json:"hovermode"`
	ShowLegend bool   `json:"showlegend"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// NewFigure builds the bubble chart of a result. A numeric color column gives
// a single trace on the Viridis scale; a categorical one gives one trace per
// category, in order of first appearance.
func NewFigure(res *pipeline.Result, opts Options) Figure {
	spec := res.Spec
	fig := Figure{
		Layout: Layout{
			Title:     Title{Text: title(res, opts)},
			XAxis:     Axis{Title: Title{Text: spec.X}},
			YAxis:     Axis{Title: Title{Text: spec.Y}},
			HoverMode: "closest",
			Width:     opts.Width,
			Height:    opts.Height,
		},
	}

	if spec.Color == "" || res.ColorNumeric {
		tr := newTrace("")
		var colors []any
		for _, b := range res.Bins {
			tr.add(b, HoverText(res, b))
			colors = append(colors, b.Color)
		}
		if spec.Color != "" {
			tr.Marker.Color = colors
			tr.Marker.ColorScale = "Viridis"
			tr.Marker.ShowScale = true
			tr.Marker.ColorBar = &ColorBar{Title: Title{Text: spec.Color}}
		}
		fig.Data = []Trace{tr}
		return fig
	}

	byCategory := make(map[string]int)
	for _, b := range res.Bins {
		name := categoryName(b.Color)
		i, ok := byCategory[name]
		if !ok {
			i = len(fig.Data)
			byCategory[name] = i
			fig.Data = append(fig.Data, newTrace(name))
		}
		fig.Data[i].add(b, HoverText(res, b))
	}
	fig.Layout.ShowLegend = true
	return fig
}

func newTrace(name string) Trace {
	return Trace{
		Type:      "scatter",
		Mode:      "markers",
		Name:      name,
		HoverInfo: "text",
		X:         []float64{},
		Y:         []float64{},
		Text:      []string{},
		Marker: Marker{
			Size:     []float64{},
			SizeMode: "diameter",
			Opacity:  0.8,
			Line:     Line{Width: 1, Color: "#333333"},
		},
	}
}

func (t *Trace) add(b pipeline.Bin, hover string) {
	t.X = append(t.X, b.X)
	t.Y = append(t.Y, b.Y)
	t.Text = append(t.Text, hover)
	t.Marker.Size = append(t.Marker.Size, b.Size)
}

func categoryName(c any) string {
	if s, ok := c.(string); ok && s != "" {
		return s
	}
	return NoColor
}

func title(res *pipeline.Result, opts Options) string {
	if opts.Title != "" {
		return opts.Title
	}
	return fmt.Sprintf("%s vs %s", res.Spec.Y, res.Spec.X)
}

// HoverText describes a bin: coordinates, count, color aggregate and members,
// one per line
func HoverText(res *pipeline.Result, b pipeline.Bin) string {
	lines := []string{
		fmt.Sprintf("%s: %s", res.Spec.X, utils.FormatNumber(b.X)),
		fmt.Sprintf("%s: %s", res.Spec.Y, utils.FormatNumber(b.Y)),
		fmt.Sprintf("Count: %d", b.Count),
	}
	if res.Spec.Color != "" {
		switch c := b.Color.(type) {
		case float64:
			lines = append(lines, fmt.Sprintf("%s (mean): %s", res.Spec.Color, utils.FormatNumber(round3(c))))
		case string:
			lines = append(lines, fmt.Sprintf("%s (mode): %s", res.Spec.Color, c))
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", res.Spec.Color, NoColor))
		}
	}
	if b.Members != "" {
		lines = append(lines, "Runs: "+b.Members)
	}
	return strings.Join(lines, "<br>")
}

func round3(f float64) float64 {
	return pipeline.Round(f, 3)
}
