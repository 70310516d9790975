package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/influencegraph/pkg/model"
)

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleTitle for headings and the focus keyword.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	StyleDim     = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError   = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBorder = lipgloss.NewStyle().Foreground(colorDim)
	styleFocus  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

	styleInfluence     = lipgloss.NewStyle().Foreground(colorYellow)
	styleCollaboration = lipgloss.NewStyle().Foreground(colorGreen)

	styleToggleOn  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleToggleOff = lipgloss.NewStyle().Foreground(colorDim)
)

const sep = " · "

// relationStyle colours an edge type by its relation family.
func relationStyle(t model.EdgeType) lipgloss.Style {
	switch {
	case t.IsInfluence():
		return styleInfluence
	case t.IsCollaboration():
		return styleCollaboration
	}
	return lipgloss.NewStyle()
}

// checkbox renders an explore toggle.
func checkbox(label string, on bool) string {
	if on {
		return styleToggleOn.Render("[x] " + label)
	}
	return styleToggleOff.Render("[ ] " + label)
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StyleWarning.Render("! "+fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, StyleDim.Render("›")+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written artifact path.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render("→")+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintln(w, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints node and edge counts, and whether the result came from
// the cache.
func printStats(w io.Writer, nodeCount, edgeCount int, cached bool) {
	source := StyleDim.Render("fresh")
	if cached {
		source = styleIconSuccess.Render("cached")
	}
	counts := StyleDim.Render(strings.Join([]string{
		fmt.Sprintf("%d nodes", nodeCount),
		fmt.Sprintf("%d edges", edgeCount),
	}, sep))
	fmt.Fprintln(w, "  "+counts+StyleDim.Render(sep)+source)
}
