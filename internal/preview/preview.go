// Package preview draws a terminal sketch of the button grid the layout
// engine produces for a bar size and button count.
package preview

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/dockbar/internal/geom"
	"github.com/1broseidon/dockbar/internal/layout"
)

// DefaultWidth is used when stdout is not a terminal.
const DefaultWidth = 80

// Logical pixels per preview column.
const pxPerColumn = 8

// Options configures a preview.
type Options struct {
	Layout layout.Options
	// Available is the logical bar size. Only the constrained extent is
	// used: width for horizontal bars, height for vertical ones.
	Available geom.Size
	Count     int
	// Width is the terminal width in columns; 0 means DefaultWidth.
	Width int
	// Titles label the buttons; missing titles are numbered.
	Titles []string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Align(lipgloss.Center)
)

// Cell is one button placed on the preview grid.
type Cell struct {
	Index int
	Row   int
	Col   int
	Rect  geom.LogicalRect
}

// Place runs the layout engine and maps each button rectangle back to
// its grid row and column.
func Place(opts Options) (layout.Grid, []Cell) {
	g := layout.Measure(opts.Layout, opts.Available, opts.Count)
	rects := layout.Arrange(g, opts.Layout.Orientation, opts.Layout.Margin, opts.Count)

	cells := make([]Cell, len(rects))
	for i, r := range rects {
		cells[i] = Cell{
			Index: i,
			Row:   slot(r.Y-opts.Layout.Margin.Top, g.ItemHeight),
			Col:   slot(r.X-opts.Layout.Margin.Left, g.ItemWidth),
			Rect:  r,
		}
	}
	return g, cells
}

func slot(offset, step float64) int {
	if step <= 0 || !geom.Finite(step) {
		return 0
	}
	return int(math.Round(offset / step))
}

// Summary describes a grid in one line.
func Summary(g layout.Grid, count int) string {
	if count <= 0 {
		return "no buttons"
	}
	rows, cols := g.Rows, g.Columns
	shape := fmt.Sprintf("%d %s × %d %s", rows, plural(rows, "row"), cols, plural(cols, "column"))
	if g.Indeterminate {
		shape = "unconstrained"
	}
	return fmt.Sprintf("%d %s • %s • %s each",
		count, plural(count, "button"), shape, formatSize(g.ButtonWidth, g.ButtonHeight))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func formatSize(w, h float64) string {
	return fmt.Sprintf("%s×%s", formatPx(w), formatPx(h))
}

func formatPx(v float64) string {
	if !geom.Finite(v) {
		return "∞"
	}
	return fmt.Sprintf("%g", math.Round(v*10)/10)
}

// Render returns the header line followed by one bordered box per button.
func Render(opts Options) string {
	g, cells := Place(opts)
	header := headerStyle.Render(opts.Layout.Orientation.String()) + " " + dimStyle.Render(Summary(g, opts.Count))
	if len(cells) == 0 {
		return header + "\n"
	}

	rows, cols := 0, 0
	for _, c := range cells {
		rows = max(rows, c.Row+1)
		cols = max(cols, c.Col+1)
	}

	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	inner := boxWidth(g.ButtonWidth, cols, width)

	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
	}
	for _, c := range cells {
		grid[c.Row][c.Col] = buttonStyle.Width(inner).Render(truncate(title(opts.Titles, c.Index), inner))
	}

	blank := strings.Repeat(" ", inner+2)
	lines := make([]string, 0, rows)
	for _, row := range grid {
		boxes := make([]string, 0, cols)
		for _, box := range row {
			if box == "" {
				box = lipgloss.JoinVertical(lipgloss.Left, blank, blank, blank)
			}
			boxes = append(boxes, box)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return header + "\n" + lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

// boxWidth converts a logical button width into box content columns and
// shrinks it until cols boxes fit the terminal.
func boxWidth(buttonWidth float64, cols, termWidth int) int {
	w := 12
	if geom.Finite(buttonWidth) && buttonWidth > 0 {
		w = int(math.Ceil(buttonWidth / pxPerColumn))
	}
	if fit := termWidth/max(cols, 1) - 2; w > fit {
		w = fit
	}
	return max(w, 1)
}

func title(titles []string, i int) string {
	if i < len(titles) && titles[i] != "" {
		return titles[i]
	}
	return fmt.Sprintf("%d", i+1)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

// TerminalWidth returns the width of stdout, or DefaultWidth when stdout
// is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}
