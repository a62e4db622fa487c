package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column alignments
const (
	AlignLeft   = "left"
	AlignRight  = "right"
	AlignCenter = "center"
)

// TableColumn describes one table column
type TableColumn struct {
	Header   string
	Width    int    // Minimum width
	MaxWidth int    // Longer cells are elided in the middle; 0 disables
	Align    string // AlignLeft (default), AlignRight or AlignCenter
}

// Table is a plain aligned table, used for CID and URI listings
type Table struct {
	Columns []TableColumn
	Rows    [][]string
}

// NewTable creates a new table with specified columns
func NewTable(columns []TableColumn) *Table {
	return &Table{Columns: columns}
}

// AddRow adds a row to the table; extra cells are ignored
func (t *Table) AddRow(cells []string) {
	t.Rows = append(t.Rows, cells)
}

func (t *Table) cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return elide(row[i], t.Columns[i].MaxWidth)
}

// widths returns the display width of every column
func (t *Table) widths() []int {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = max(lipgloss.Width(col.Header), col.Width)
	}
	for _, row := range t.Rows {
		for i := range t.Columns {
			widths[i] = max(widths[i], lipgloss.Width(t.cell(row, i)))
		}
	}
	return widths
}

// Render renders the table as a string
func (t *Table) Render() string {
	if len(t.Columns) == 0 {
		return ""
	}

	var b strings.Builder
	widths := t.widths()

	parts := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		parts[i] = padString(col.Header, widths[i], AlignLeft)
	}
	b.WriteString(StyleTableHeader.Render(strings.Join(parts, "  ")))
	b.WriteString("\n")

	for i := range t.Columns {
		parts[i] = strings.Repeat("─", widths[i])
	}
	b.WriteString(StyleTableBorder.Render(strings.Join(parts, "  ")))
	b.WriteString("\n")

	for idx, row := range t.Rows {
		for i, col := range t.Columns {
			parts[i] = padString(t.cell(row, i), widths[i], col.Align)
		}

		style := StyleTableRow
		if idx%2 == 1 {
			style = StyleTableRowAlt
		}
		b.WriteString(style.Render(strings.Join(parts, "  ")))
		b.WriteString("\n")
	}

	return b.String()
}

// elide shortens s to limit display cells by cutting the middle, keeping the
// distinguishing head and tail of a CID
func elide(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit < 3 {
		return string(runes[:limit])
	}
	head := (limit - 1) / 2
	tail := limit - 1 - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}

// padString pads s to width display cells
func padString(s string, width int, align string) string {
	padding := width - lipgloss.Width(s)
	if padding <= 0 {
		return s
	}

	switch align {
	case AlignRight:
		return strings.Repeat(" ", padding) + s
	case AlignCenter:
		left := padding / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", padding-left)
	default:
		return s + strings.Repeat(" ", padding)
	}
}

// RenderSimpleList renders a bulleted list
func RenderSimpleList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(StyleInfo.Render("  • "))
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderKeyValue renders a key-value pair
func RenderKeyValue(key, value string) string {
	return fmt.Sprintf("%s: %s", StyleKey.Render(key), value)
}
