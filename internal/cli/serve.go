package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/stencil/internal/server"
	"github.com/roach88/stencil/internal/watch"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	SiteOptions
	Host string
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{SiteOptions: SiteOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site",
		Long: `Serve rendered pages, uploads and the content API.

In production the schema is built on start and pages are cached. In
development templates are watched: browsers reload on changes and are told
when the schema needs a build.

Example:
  stencil serve --site ./mysite --port 8080
  stencil serve --env production`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Host, "host", "", "interface to listen on")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "port to listen on (default from stencil.yaml or 3000)")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	a, err := openApp(&opts.SiteOptions)
	if err != nil {
		return report(formatter, err)
	}
	defer a.Close()

	port := a.cfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(port))

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.IsProduction() {
		if _, err := a.builder.Build(ctx); err != nil {
			return report(formatter, err)
		}
	} else {
		if err := a.builder.Init(ctx); err != nil {
			return report(formatter, err)
		}
		if dirty, err := a.builder.IsDirty(); err != nil {
			slog.Warn("schema check failed", "error", err)
		} else if dirty {
			slog.Warn("templates changed since the last build, run stencil build")
		}
	}

	logger := slog.Default()
	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithUploads(a.cfg.UploadsDir()),
	}
	if a.cfg.LiveReload {
		serverOpts = append(serverOpts, server.WithLiveReload(watch.NewHub(logger)))
	}
	srv := server.New(a.renderer, a.content, a.builder, serverOpts...)

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.IsDevelopment() {
		w, err := watch.New(a.cfg.TemplatesDir(), srv.TemplatesChanged, watch.WithLogger(logger))
		if err != nil {
			return report(formatter, err)
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return report(formatter, fmt.Errorf("listen %s: %w", addr, err))
	}
	slog.Info("serving site", "addr", ln.Addr().String(), "env", a.cfg.Env, "site", a.site.Root())
	g.Go(func() error { return srv.Serve(gctx, ln) })

	if err := g.Wait(); err != nil {
		return report(formatter, err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
