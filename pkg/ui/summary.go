package ui

import (
	"strings"
)

// Summary is the block printed to stdout after a run
type Summary struct {
	Title string
	Rows  [][2]string // Key, value
	Links []string
	Notes []string
}

// AddRow appends a labelled value
func (s *Summary) AddRow(key, value string) {
	s.Rows = append(s.Rows, [2]string{key, value})
}

// Render renders the summary as a string
func (s Summary) Render() string {
	var b strings.Builder

	if s.Title != "" {
		b.WriteString(FormatTitle(s.Title))
		b.WriteString("\n\n")
	}

	width := 0
	for _, row := range s.Rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}
	for _, row := range s.Rows {
		b.WriteString("  ")
		b.WriteString(RenderKeyValue(padString(row[0], width, "left"), row[1]))
		b.WriteString("\n")
	}

	if len(s.Links) > 0 {
		b.WriteString("\n")
		for _, link := range s.Links {
			b.WriteString(StyleInfo.Render("  " + IconLink + " "))
			b.WriteString(link)
			b.WriteString("\n")
		}
	}

	if len(s.Notes) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderSimpleList(s.Notes))
	}

	return b.String()
}
