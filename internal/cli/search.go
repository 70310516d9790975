package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/model"
)

type searchOpts struct {
	json    bool
	noCache bool
	refresh bool
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	opts := searchOpts{}

	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Query the search API and list the returned nodes and edges",
		Example: `  influencegraph search "Sailor Shift"
  influencegraph search "Oceanus Folk" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the raw response envelope")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached responses")

	return cmd
}

func (c *CLI) runSearch(cmd *cobra.Command, keyword string, opts searchOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	if err := errors.ValidateKeyword(keyword); err != nil {
		return err
	}

	ch, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()
	client := c.newClient(ch, opts.refresh)
	logger.Debug("searching", "url", client.SearchURL(keyword))

	spin := newSpinner(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Searching %q...", keyword))
	spin.Start()
	resp, err := client.Search(ctx, keyword)
	spin.Stop()
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "search %q", keyword)
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if !resp.Success || resp.Data == nil {
		msg := resp.Error
		if msg == "" {
			msg = errors.LoadFailedMessage
		}
		printWarning(out, "%s", msg)
		return nil
	}
	printSearchResult(out, keyword, resp.Data)
	return nil
}

// printSearchResult renders the nodes and edges of a response as tables.
func printSearchResult(w io.Writer, keyword string, data *model.SearchData) {
	names := make(map[model.ID]string, len(data.Nodes))
	nodeRows := make([][]string, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		names[n.ID] = n.Name
		typ := string(n.Type)
		if typ == "" {
			typ = "—"
		}
		nodeRows = append(nodeRows, []string{string(n.ID), n.Name, typ})
	}

	nodes := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("ID", "Name", "Type").
		Rows(nodeRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case row < len(data.Nodes) && strings.EqualFold(data.Nodes[row].Name, keyword):
				return styleFocus
			}
			return lipgloss.NewStyle()
		})

	edgeRows := make([][]string, 0, len(data.Edges))
	for _, e := range data.Edges {
		edgeRows = append(edgeRows, []string{endpoint(names, e.Source), string(e.Type), endpoint(names, e.Target)})
	}
	edges := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Source", "Relation", "Target").
		Rows(edgeRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 1 && row < len(data.Edges) {
				return relationStyle(data.Edges[row].Type)
			}
			return lipgloss.NewStyle()
		})

	fmt.Fprintln(w, StyleTitle.Render(keyword))
	fmt.Fprintln(w, nodes.Render())
	fmt.Fprintln(w, edges.Render())
	printStats(w, len(data.Nodes), len(data.Edges), false)
}

func endpoint(names map[model.ID]string, id model.ID) string {
	if name := names[id]; name != "" {
		return name
	}
	return string(id)
}
