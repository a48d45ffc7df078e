package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"experiment-logger/internal/config"
	"experiment-logger/internal/form"
)

// NewCheckConfigCommand creates the check-config command.
func NewCheckConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Validate the settings and schema files without touching the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(rootOpts)
			if err != nil {
				return err
			}
			schema, err := config.LoadSchema(settings.Schema)
			if err != nil {
				return err
			}
			printSchema(cmd.OutOrStdout(), settings, schema)
			return nil
		},
	}
	return cmd
}

func printSchema(w io.Writer, settings config.Settings, schema *config.Schema) {
	fmt.Fprintf(w, "✓ Settings valid (%s store)\n", settings.Store.Backend)
	fmt.Fprintf(w, "✓ Schema valid: %d group(s), %d column(s)\n", len(schema.Groups), len(schema.Columns()))

	for _, g := range schema.Groups {
		var flags []string
		if g.AlwaysOn {
			flags = append(flags, "always on")
		}
		if g.Filterable {
			flags = append(flags, "filterable")
		}
		fmt.Fprintf(w, "  %s", g.Name)
		if len(flags) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(flags, ", "))
		}
		fmt.Fprintln(w)
		for _, v := range g.Variables {
			req := ""
			if v.Required {
				req = " *"
			}
			fmt.Fprintf(w, "    %-28s %s%s\n", v.Name, v.Type.Kind(), req)
		}
	}
	if cols := form.AutoIncrementColumns(schema); len(cols) > 0 {
		fmt.Fprintf(w, "  counters: %s\n", strings.Join(cols, ", "))
	}
}
