package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"experiment-logger/internal/model"
	"experiment-logger/internal/plot"
	"experiment-logger/pkg/utils"
)

// PlotOptions holds flags for the plot command.
type PlotOptions struct {
	model.PlotRequest
	Select []string // column=value
	Title  string
	Out    string
}

// NewPlotCommand creates the plot command.
func NewPlotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlotOptions{}

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a binned bubble chart of the log to an SVG or PNG file",
		Long: `Render a binned bubble chart of the log.

Rows are grouped on X and Y rounded to the given precision (negative values
round to tens, hundreds and so on). Bubble size follows the number of runs in
a bin; --color shades bins by the mean of a numeric column or the most
frequent value of a categorical one. The output format follows the file
extension of --out.`,
		Example: `  experiment-logger plot --x "Laser — Power (mW)" --y "Furnace — Temperature (C)" --yp -1
  experiment-logger plot --x "Laser — Power (mW)" --y "Laser — Wavelength (nm)" \
      --color "Laser — Mode" --filter "Furnace — Atmosphere=N2" --out plot.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.X, "x", "", "X column (required)")
	cmd.Flags().StringVar(&opts.Y, "y", "", "Y column (required)")
	cmd.Flags().StringVar(&opts.Color, "color", "", "color column")
	cmd.Flags().IntVar(&opts.XPrecision, "xp", 0, "X precision in decimals")
	cmd.Flags().IntVar(&opts.YPrecision, "yp", 0, "Y precision in decimals")
	cmd.Flags().Float64Var(&opts.MaxSize, "max-size", 0, "largest bubble size (defaults to plot.max_size)")
	cmd.Flags().StringVar(&opts.PlotRequest.Filters.From, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.PlotRequest.Filters.To, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&opts.Select, "filter", nil, "keep rows where column=value (repeatable)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "chart title")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "plot.svg", "output file (.svg or .png)")
	cmd.MarkFlagRequired("x")
	cmd.MarkFlagRequired("y")

	return cmd
}

// parseFilters turns column=value flags into a select filter
func parseFilters(filters []string) (map[string][]string, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	out := make(map[string][]string)
	for _, f := range filters {
		column, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(column) == "" {
			return nil, fmt.Errorf("invalid filter %q: expected column=value", f)
		}
		column = strings.TrimSpace(column)
		out[column] = append(out[column], value)
	}
	return out, nil
}

func runPlot(cmd *cobra.Command, rootOpts *RootOptions, opts *PlotOptions) error {
	render := plot.RenderSVG
	switch utils.GetFileType(opts.Out) {
	case "svg":
	case "png":
		render = plot.RenderPNG
	default:
		return fmt.Errorf("unsupported output %q: use a .svg or .png file", opts.Out)
	}

	selected, err := parseFilters(opts.Select)
	if err != nil {
		return err
	}
	req := opts.PlotRequest
	req.Filters.Select = selected

	a, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Plot(cmd.Context(), req)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := render(&buf, res, plot.Options{Title: opts.Title}); err != nil {
		return err
	}
	if dir := filepath.Dir(opts.Out); dir != "." {
		if err := utils.NewOutputManager(dir).EnsureOutputDirExists(); err != nil {
			return err
		}
	}
	if err := os.WriteFile(opts.Out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Plotted %d run(s) in %d bin(s) to %s\n", res.Rows, len(res.Bins), opts.Out)
	if res.Dropped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  %d run(s) without numeric X and Y were left out\n", res.Dropped)
	}
	return nil
}
