package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"experiment-logger/internal/api"
	"experiment-logger/internal/api/handler"
	"experiment-logger/internal/config"
	"experiment-logger/pkg/router"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Addr  string
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the entry form, the plot page and the JSON API",
		Long: `Serve the entry form, the plot page and the JSON API until interrupted.

With --watch the schema file is reloaded when it changes; sessions started
after a reload use the new schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "reload the schema file on change")

	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions, opts *ServeOptions) error {
	a, err := openApp(ctx, rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.settings.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	h, err := handler.New(a.svc, a.logger.Named("http"))
	if err != nil {
		return err
	}
	r := router.New(a.logger.Named("http"))
	api.RegisterRoutes(r, h)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Serve(ctx, addr)
	})
	if opts.Watch {
		g.Go(func() error {
			return config.WatchSchema(ctx, a.settings.Schema, a.logger.Named("config"), a.svc.SetSchema)
		})
	}

	a.logger.Info("Experiment logger started",
		zap.String("addr", addr),
		zap.String("backend", a.settings.Store.Backend),
		zap.String("schema", a.settings.Schema),
	)
	err = g.Wait()
	a.logger.Info("Experiment logger stopped")
	return err
}
