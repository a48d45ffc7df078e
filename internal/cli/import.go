package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"experiment-logger/internal/pipeline"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	DryRun bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <snapshot.csv>",
		Short: "Append the runs of a CSV snapshot to the log",
		Long: `Append the runs of a CSV snapshot, such as one written by export, to the
configured log store. Columns the log does not have yet are added to its
header. Counters are not touched; sessions pick the imported values up on
their next resync.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "parse the snapshot without writing")

	return cmd
}

func runImport(cmd *cobra.Command, rootOpts *RootOptions, opts *ImportOptions, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	rows, err := pipeline.ReadCSV(cmd.Context(), file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if opts.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %d run(s) ready to import from %s\n", len(rows), path)
		return nil
	}

	a, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	for i, row := range rows {
		if err := a.store.Append(cmd.Context(), row); err != nil {
			return fmt.Errorf("imported %d of %d run(s): %w", i, len(rows), err)
		}
	}
	a.logger.Info("Snapshot imported", zap.String("path", path), zap.Int("rows", len(rows)))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d run(s) from %s\n", len(rows), path)
	return nil
}
