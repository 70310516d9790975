package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/influencegraph/pkg/dataset"
	"github.com/matzehuels/influencegraph/pkg/store"
)

type importOpts struct {
	store     string
	clear     bool
	batchSize int
	check     bool
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	opts := importOpts{}

	cmd := &cobra.Command{
		Use:   "import <dataset.json>",
		Short: "Load an MC1 knowledge-graph export into a graph store",
		Example: `  influencegraph import MC1_graph.json --store neo4j --clear
  influencegraph import MC1_graph.json --check`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.store, "store", "", "graph store: memory, neo4j or mongo (default from config)")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "remove existing data first")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", store.DefaultBatchSize, "records per write")
	cmd.Flags().BoolVar(&opts.check, "check", false, "only report dataset statistics")
	_ = cmd.RegisterFlagCompletionFunc("store", completeNames("memory", "neo4j", "mongo"))

	return cmd
}

func (c *CLI) runImport(cmd *cobra.Command, path string, opts importOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	d, err := dataset.ReadFile(path)
	if err != nil {
		return err
	}
	stats := d.Check()
	logger.Info("read dataset", "path", path, "nodes", stats.Nodes, "edges", stats.Edges)
	if d.Dropped > 0 {
		logger.Warn("dropped nodes without an id", "count", d.Dropped)
	}

	if opts.check {
		printDatasetStats(cmd, stats)
		return nil
	}

	st, err := c.openStore(ctx, opts.store)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	spin := newSpinner(ctx, out, fmt.Sprintf("Importing %d nodes...", stats.Nodes))
	spin.Start()
	prog := newProgress(logger)
	res, err := st.Import(ctx, d, store.ImportOptions{Clear: opts.clear, BatchSize: opts.batchSize})
	if err != nil {
		spin.Stop()
		return err
	}
	if res.SkippedEdges > 0 {
		spin.StopWithWarning("Imported %d nodes and %d edges. Skipped %d edges with unknown endpoints",
			res.Nodes, res.Edges, res.SkippedEdges)
	} else {
		spin.StopWithSuccess("Imported %d nodes and %d edges", res.Nodes, res.Edges)
	}
	prog.done("Import finished")
	return nil
}

func printDatasetStats(cmd *cobra.Command, s dataset.Stats) {
	out := cmd.OutOrStdout()
	printKeyValue(out, "Nodes", fmt.Sprint(s.Nodes))
	printKeyValue(out, "Edges", fmt.Sprint(s.Edges))
	printKeyValue(out, "Dangling", fmt.Sprint(s.DanglingEdges))

	for _, t := range slices.Sorted(maps.Keys(s.NodeTypes)) {
		printDetail(out, "%-20s %d", t, s.NodeTypes[t])
	}
	for _, t := range slices.Sorted(maps.Keys(s.EdgeTypes)) {
		printDetail(out, "%-20s %d", t, s.EdgeTypes[t])
	}
}
