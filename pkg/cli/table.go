package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Theme defines the color scheme.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Mark    lipgloss.Color // Highlighted rows
}

// DefaultTheme is lacquer red on a dim grid.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#e8453c"),
	Dim:     lipgloss.Color("#6e7681"),
	Mark:    lipgloss.Color("#f5c542"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Marked lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Cell:   lipgloss.NewStyle().Padding(0, 1),
		Marked: lipgloss.NewStyle().Foreground(t.Mark).Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(t.Dim),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Table is a rendered grid of rows under a header.
type Table struct {
	Styles  Styles
	Title   string
	Headers []string
	Rows    [][]string

	// Marked reports whether a data row is emphasized. Optional.
	Marked func(row int) bool
}

// Render renders the table to a string.
func (t Table) Render() string {
	st := t.Styles
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.Border).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return st.Header
			case t.Marked != nil && t.Marked(row):
				return st.Marked
			default:
				return st.Cell
			}
		})
	if t.Title == "" {
		return tbl.Render()
	}
	return st.Title.Render(t.Title) + "\n" + tbl.Render()
}
