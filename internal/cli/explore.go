package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/filter"
	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/layout"
	"github.com/matzehuels/influencegraph/pkg/loader"
)

const refreshInterval = 250 * time.Millisecond

type exploreOpts struct {
	keyword string
	layout  string
	seed    uint64
	noCache bool
	refresh bool
}

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	opts := exploreOpts{}

	cmd := &cobra.Command{
		Use:   "explore [keyword]",
		Short: "Browse the influence graph interactively",
		Long: `Explore opens a terminal view with a search box, the two switches, the
collaboration and influence toggles and the layout selector. Every change
reloads the graph; the node table follows the running layout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.keyword = args[0]
			}
			return c.runExplore(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.layout, "layout", "", "initial layout: forceatlas or circular")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for initial positions")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the response cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached responses")
	_ = cmd.RegisterFlagCompletionFunc("layout", completeNames(filter.LayoutForceAtlas, filter.LayoutCircular))

	return cmd
}

func (c *CLI) runExplore(cmd *cobra.Command, opts exploreOpts) error {
	ctx := cmd.Context()

	ch, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	if opts.layout == "" {
		opts.layout = c.cfg.Layout.Mode
	}
	if opts.seed == 0 {
		opts.seed = c.cfg.Layout.Seed
	}
	logger := loggerFromContext(ctx).With("component", "explore")

	m, err := newExploreModel(ctx, c.newClient(ch, opts.refresh), opts, logger)
	if err != nil {
		return err
	}
	defer m.close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// =============================================================================
// Keys
// =============================================================================

type exploreKeyMap struct {
	Search     key.Binding
	Submit     key.Binding
	Cancel     key.Binding
	Switch1    key.Binding
	Switch2    key.Binding
	Collab     key.Binding
	Influenced key.Binding
	Layout     key.Binding
	Export     key.Binding
	Quit       key.Binding
}

var exploreKeys = exploreKeyMap{
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "load")),
	Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave search")),
	Switch1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "switch 1")),
	Switch2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "influence only")),
	Collab:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "collaborated with")),
	Influenced: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "influenced")),
	Layout:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "layout")),
	Export:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export json")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k exploreKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Switch2, k.Collab, k.Influenced, k.Layout, k.Export, k.Quit}
}

func (k exploreKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Submit, k.Cancel},
		{k.Switch1, k.Switch2, k.Collab, k.Influenced},
		{k.Layout, k.Export, k.Quit},
	}
}

// =============================================================================
// Messages
// =============================================================================

// loadedMsg reports the end of a submitted load.
type loadedMsg struct {
	req *loader.Request
	res *loader.Result
	err error
}

type refreshMsg time.Time

func refreshCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// waitFor blocks until req finishes.
func waitFor(req *loader.Request) tea.Cmd {
	return func() tea.Msg {
		res, err := req.Result()
		return loadedMsg{req: req, res: res, err: err}
	}
}

// =============================================================================
// Model
// =============================================================================

// exploreModel is the bubbletea model of the explore view.
type exploreModel struct {
	ctx        context.Context
	session    *loader.Session
	controller *layout.Controller

	input   textinput.Model
	spin    spinner.Model
	nodes   table.Model
	help    help.Model
	filters filter.Filters

	keyword string
	result  *loader.Result
	loading bool
	status  string
	errMsg  string
	width   int
}

func newExploreModel(ctx context.Context, f loader.Fetcher, opts exploreOpts, logger *log.Logger, ctrlOpts ...layout.ControllerOption) (*exploreModel, error) {
	mode := layout.ModeForceAtlas
	if opts.layout != "" {
		m, err := layout.ParseMode(opts.layout)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	filters := filter.Default()
	filters.LayoutType = string(mode)

	ti := textinput.New()
	ti.Placeholder = "Search for an artist, song or label"
	ti.CharLimit = 120
	ti.Width = 48
	ti.SetValue(opts.keyword)

	nodes := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 8},
			{Title: "Name", Width: 28},
			{Title: "Type", Width: 13},
			{Title: "x", Width: 9},
			{Title: "y", Width: 9},
		}),
		table.WithHeight(14),
		table.WithFocused(opts.keyword != ""),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorDim).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(colorCyan).Bold(true)
	nodes.SetStyles(styles)

	m := &exploreModel{
		ctx:     ctx,
		input:   ti,
		spin:    spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styleIconSpinner)),
		nodes:   nodes,
		help:    help.New(),
		filters: filters,
	}

	if opts.keyword == "" {
		m.input.Focus()
	}

	ctrlOpts = append([]layout.ControllerOption{layout.WithControllerLogger(logger)}, ctrlOpts...)
	m.controller = layout.NewController(graph.New(nil), ctrlOpts...)
	m.controller.SetMode(mode)

	ld := loader.New(f, loader.WithSeed(opts.seed), loader.WithLogger(logger))
	m.session = loader.NewSession(ld, loader.WithOnLoad(func(res *loader.Result) {
		logger.Debug("graph loaded", "keyword", res.Keyword, "mode", res.Mode, "nodes", res.Graph.NodeCount())
		m.controller.SetGraph(res.Graph)
	}))
	return m, nil
}

func (m *exploreModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spin.Tick, refreshCmd()}
	if cmd := m.submit(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// submit loads the keyword in the search box with the current filters.
func (m *exploreModel) submit() tea.Cmd {
	keyword := strings.TrimSpace(m.input.Value())
	req := m.session.Submit(m.ctx, keyword, m.filters)
	if req == nil {
		return nil
	}
	m.keyword = keyword
	m.loading = true
	m.errMsg = ""
	return waitFor(req)
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		return m, m.applyLoaded(msg)

	case refreshMsg:
		m.refreshRows()
		return m, refreshCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.input.Focused() {
			return m, m.updateInput(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *exploreModel) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, exploreKeys.Submit):
		m.input.Blur()
		m.nodes.Focus()
		return m.submit()
	case key.Matches(msg, exploreKeys.Cancel):
		m.input.Blur()
		m.nodes.Focus()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *exploreModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, exploreKeys.Quit):
		return tea.Quit
	case key.Matches(msg, exploreKeys.Search):
		m.nodes.Blur()
		return m.input.Focus()
	case key.Matches(msg, exploreKeys.Switch1):
		m.filters.Switch1 = !m.filters.Switch1
		return m.submit()
	case key.Matches(msg, exploreKeys.Switch2):
		m.filters.Switch2 = !m.filters.Switch2
		return m.submit()
	case key.Matches(msg, exploreKeys.Collab):
		m.filters.CollaboratedWith = !m.filters.CollaboratedWith
		return m.submit()
	case key.Matches(msg, exploreKeys.Influenced):
		m.filters.Influenced = !m.filters.Influenced
		return m.submit()
	case key.Matches(msg, exploreKeys.Layout):
		m.toggleLayout()
		return nil
	case key.Matches(msg, exploreKeys.Export):
		m.export()
		return nil
	}
	var cmd tea.Cmd
	m.nodes, cmd = m.nodes.Update(msg)
	return cmd
}

func (m *exploreModel) applyLoaded(msg loadedMsg) tea.Cmd {
	if errors.Is(msg.err, errors.ErrCodeSuperseded) {
		return nil
	}
	m.loading = m.session.State().Loading
	if msg.err != nil {
		m.errMsg = errors.UserMessage(msg.err)
		return nil
	}
	m.result = msg.res
	m.status = ""
	m.refreshRows()
	return nil
}

func (m *exploreModel) toggleLayout() {
	next := layout.ModeCircular
	if m.filters.LayoutType == filter.LayoutCircular {
		next = layout.ModeForceAtlas
	}
	m.filters.LayoutType = string(next)
	m.controller.SetMode(next)
}

// export writes the displayed graph with its current positions.
func (m *exploreModel) export() {
	if m.result == nil {
		m.status = "Nothing to export"
		return
	}
	path := slug(m.keyword) + ".json"
	if err := graph.WriteFile(m.controller.Graph(), path); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.status = "Exported " + path
}

// refreshRows copies the current positions into the node table.
func (m *exploreModel) refreshRows() {
	g := m.controller.Graph()
	nodes := g.Nodes()
	rows := make([]table.Row, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, table.Row{
			n.ID,
			n.Label,
			n.Type,
			fmt.Sprintf("%.2f", n.X),
			fmt.Sprintf("%.2f", n.Y),
		})
	}
	m.nodes.SetRows(rows)
}

func (m *exploreModel) close() {
	m.session.Close()
	m.controller.Close()
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("influencegraph"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.togglesView())
	b.WriteString("\n\n")
	b.WriteString(m.statusView())
	b.WriteString("\n\n")
	b.WriteString(m.nodes.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(exploreKeys))
	return b.String()
}

func (m *exploreModel) togglesView() string {
	parts := []string{
		checkbox("Switch 1", m.filters.Switch1),
		checkbox("Influence only", m.filters.Switch2),
		checkbox("Collaborated with", m.filters.CollaboratedWith),
		checkbox("Influenced", m.filters.Influenced),
		StyleDim.Render("layout ") + StyleHighlight.Render(m.filters.LayoutType),
	}
	return strings.Join(parts, "  ")
}

func (m *exploreModel) statusView() string {
	switch {
	case m.loading:
		return m.spin.View() + " " + StyleDim.Render(fmt.Sprintf("Loading %q...", m.keyword))
	case m.errMsg != "":
		return StyleError.Render(m.errMsg)
	case m.result == nil:
		return StyleDim.Render("Type a keyword and press enter")
	}

	res := m.result
	focus := "no exact match, full result"
	if res.FocusFound() {
		focus = "focus " + string(res.Focus)
	}
	line := fmt.Sprintf("%d nodes"+sep+"%d edges"+sep+"%s"+sep+"%s",
		res.Graph.NodeCount(), res.Graph.EdgeCount(), res.Mode, focus)
	if m.controller.Running() {
		line += sep + "layout running"
	}
	if m.status != "" {
		line += sep + m.status
	}
	return StyleDim.Render(line)
}
