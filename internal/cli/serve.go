package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/influencegraph/pkg/observability/prom"
	"github.com/matzehuels/influencegraph/pkg/server"
)

type serveOpts struct {
	addr    string
	store   string
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API and rendered graphs over a graph store",
		Long: `Serve exposes:

  GET /api/search-node/{keyword}   search envelope {success, data, error}
  GET /api/graph/{keyword}         filtered, laid out graph (json, dot, svg, png, pdf)
  GET /health                      liveness
  GET /metrics                     Prometheus metrics`,
		Example: `  influencegraph serve --store neo4j
  influencegraph serve --store memory --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.store, "store", "", "graph store: memory, neo4j or mongo (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the graph cache")
	_ = cmd.RegisterFlagCompletionFunc("store", completeNames("memory", "neo4j", "mongo"))

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	addr := opts.addr
	if addr == "" {
		addr = c.cfg.Server.Addr
	}

	st, err := c.openStore(ctx, opts.store)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	ch, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom.Register(reg)

	srv := server.New(st,
		server.WithLogger(logger),
		server.WithCache(ch),
		server.WithGatherer(reg),
		server.WithDefaults(server.Defaults{
			Layout:     c.cfg.Layout.Mode,
			Iterations: c.cfg.Layout.Iterations,
			Seed:       c.cfg.Layout.Seed,
		}),
	)
	return srv.ListenAndServe(ctx, addr)
}
