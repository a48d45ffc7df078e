package plot

import (
	"errors"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"experiment-logger/internal/pipeline"
)

// ErrNoData is returned when there is nothing to draw
var ErrNoData = errors.New("no data to plot")

const (
	defaultWidth  = 960
	defaultHeight = 600
)

// RenderSVG writes the bubble chart as SVG
func RenderSVG(w io.Writer, res *pipeline.Result, opts Options) error {
	return render(w, chart.SVG, res, opts)
}

// RenderPNG writes the bubble chart as PNG
func RenderPNG(w io.Writer, res *pipeline.Result, opts Options) error {
	return render(w, chart.PNG, res, opts)
}

func render(w io.Writer, rp chart.RendererProvider, res *pipeline.Result, opts Options) error {
	if res == nil || len(res.Bins) == 0 {
		return ErrNoData
	}
	if opts.Width == 0 {
		opts.Width = defaultWidth
	}
	if opts.Height == 0 {
		opts.Height = defaultHeight
	}

	ch := chart.Chart{
		Title:      title(res, opts),
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: res.Spec.X, Range: paddedRange(res.Bins, func(b pipeline.Bin) float64 { return b.X })},
		YAxis:      chart.YAxis{Name: res.Spec.Y, Range: paddedRange(res.Bins, func(b pipeline.Bin) float64 { return b.Y })},
		Series:     buildSeries(res),
	}
	if len(ch.Series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(rp, w)
}

// bubbleStyle draws markers only, sized by the bins' scaled size
func bubbleStyle(bins []pipeline.Bin) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
			if index < len(bins) {
				return bins[index].Size / 2
			}
			return pipeline.MinBubbleSize / 2
		},
	}
}

func buildSeries(res *pipeline.Result) []chart.Series {
	if res.Spec.Color == "" || res.ColorNumeric {
		bins := res.Bins
		st := bubbleStyle(bins)
		if res.ColorNumeric {
			lo, hi, ok := colorRange(bins)
			st.DotColorProvider = func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
				c, isNum := bins[index].Color.(float64)
				if !ok || !isNum {
					return chart.ColorAlternateGray
				}
				if lo == hi {
					return chart.Viridis(0.5, 0, 1)
				}
				return chart.Viridis(c, lo, hi)
			}
		} else {
			st.DotColor = chart.ColorBlue.WithAlpha(200)
		}
		return []chart.Series{seriesOf("", bins, st)}
	}

	var order []string
	groups := make(map[string][]pipeline.Bin)
	for _, b := range res.Bins {
		name := categoryName(b.Color)
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], b)
	}

	series := make([]chart.Series, 0, len(order))
	for i, name := range order {
		st := bubbleStyle(groups[name])
		st.DotColor = chart.GetDefaultColor(i).WithAlpha(200)
		series = append(series, seriesOf(name, groups[name], st))
	}
	return series
}

func seriesOf(name string, bins []pipeline.Bin, st chart.Style) chart.ContinuousSeries {
	xs := make([]float64, len(bins))
	ys := make([]float64, len(bins))
	for i, b := range bins {
		xs[i], ys[i] = b.X, b.Y
	}
	return chart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: st}
}

func colorRange(bins []pipeline.Bin) (lo, hi float64, ok bool) {
	for _, b := range bins {
		c, isNum := b.Color.(float64)
		if !isNum {
			continue
		}
		if !ok || c < lo {
			lo = c
		}
		if !ok || c > hi {
			hi = c
		}
		ok = true
	}
	return lo, hi, ok
}

// paddedRange spans the values with a margin so bubbles at the edges stay
// visible; a single distinct value gets a unit margin on both sides
func paddedRange(bins []pipeline.Bin, value func(pipeline.Bin) float64) *chart.ContinuousRange {
	lo, hi := value(bins[0]), value(bins[0])
	for _, b := range bins[1:] {
		lo = min(lo, value(b))
		hi = max(hi, value(b))
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
