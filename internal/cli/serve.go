package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tagresolver/internal/metrics"
	"github.com/matzehuels/tagresolver/pkg/buildinfo"
	"github.com/matzehuels/tagresolver/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve release tag resolution over HTTP",
		Long: `Serve GET /gh/v1/releases/tag/{owner}/{repo}/{version} until interrupted.

The response body is the resolved tag as plain text. Only repositories on the
allow-list are resolved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if listen != "" {
				cfg.Server.Listen = listen
			}
			return c.runServe(cmd, cfg.Server.Listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "address to listen on (overrides server.listen)")
	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()
	cfg := c.settings()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}
	m.Install()

	svc, store, err := newService(ctx, cfg, c.Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	c.Logger.Info("starting "+appName,
		"version", buildinfo.Version,
		"backend", cfg.Cache.Backend,
		"ttl_latest", cfg.Cache.TTLLatest,
		"ttl_pinned", cfg.Cache.TTLPinned,
	)

	srv := server.New(svc, server.Config{
		Addr:            addr,
		RequestTimeout:  cfg.Server.RequestTimeout.Duration,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
		Metrics:         metrics.Handler(reg),
		Logger:          c.Logger,
	})
	return srv.ListenAndServe(ctx)
}
