package cli

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"experiment-logger/internal/pipeline"
	"experiment-logger/pkg/utils"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	Format string
	OutDir string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of the log to a CSV or XLSX file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", pipeline.FormatCSV, "snapshot format (csv|xlsx)")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "output", "output directory")

	return cmd
}

func runExport(cmd *cobra.Command, rootOpts *RootOptions, opts *ExportOptions) error {
	if !slices.Contains([]string{pipeline.FormatCSV, pipeline.FormatXLSX}, opts.Format) {
		return fmt.Errorf("invalid format %q: must be csv or xlsx", opts.Format)
	}

	a, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	var buf bytes.Buffer
	res, err := a.svc.Export(cmd.Context(), &buf, opts.Format)
	if err != nil {
		return err
	}

	om := utils.NewOutputManager(opts.OutDir)
	path, err := om.GetOutputFilePath(res.FileName)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	size, _ := utils.GetFileSize(path)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d run(s) to %s (%d bytes, %s)\n",
		res.RecordCount, path, size, res.Timestamp.Format(time.DateTime))
	return nil
}
