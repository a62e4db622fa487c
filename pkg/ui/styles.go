package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette uses the 16 ANSI colors so output follows the terminal theme
var (
	ColorOK    = lipgloss.Color("2") // Green
	ColorFail  = lipgloss.Color("1") // Red
	ColorWarn  = lipgloss.Color("3") // Yellow
	ColorInfo  = lipgloss.Color("6") // Cyan
	ColorBrand = lipgloss.Color("5") // Magenta
	ColorCID   = lipgloss.Color("4") // Blue
	ColorMuted = lipgloss.Color("8") // Gray
)

var (
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	StyleError   = lipgloss.NewStyle().Foreground(ColorFail).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	StyleInfo    = lipgloss.NewStyle().Foreground(ColorInfo)
	StyleMuted   = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBrand   = lipgloss.NewStyle().Foreground(ColorBrand).Bold(true)
	StyleTitle   = StyleBrand.Underline(true)
	StyleKey     = lipgloss.NewStyle().Foreground(ColorBrand)

	// Content identifiers, the values operators copy into contracts
	StyleCID = lipgloss.NewStyle().Foreground(ColorCID).Bold(true)
	StyleURI = lipgloss.NewStyle().Foreground(ColorCID).Underline(true)

	StyleTableHeader = lipgloss.NewStyle().Foreground(ColorBrand).Bold(true)
	StyleTableBorder = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleTableRow    = lipgloss.NewStyle()
	StyleTableRowAlt = lipgloss.NewStyle().Faint(true)
)

// Status icons
const (
	IconSuccess = "✔"
	IconError   = "✘"
	IconInfo    = "ℹ"
	IconWarning = "⚠"
	IconUpload  = "⬆"
	IconLink    = "🔗"
)

func FormatSuccess(msg string) string {
	return StyleSuccess.Render(IconSuccess + " " + msg)
}

func FormatError(msg string) string {
	return StyleError.Render(IconError + " " + msg)
}

func FormatInfo(msg string) string {
	return StyleInfo.Render(IconInfo + " " + msg)
}

func FormatWarning(msg string) string {
	return StyleWarning.Render(IconWarning + " " + msg)
}

// FormatUpload announces an upload run
func FormatUpload(msg string) string {
	return StyleBrand.Render(IconUpload + " " + msg)
}

// FormatStage renders one completed pipeline stage, e.g. "✔ images   bafy..."
func FormatStage(stage string, width int, cid string) string {
	return StyleSuccess.Render(IconSuccess+" ") + padString(stage, width, AlignLeft) + "  " + FormatCID(cid)
}

func FormatCID(cid string) string {
	return StyleCID.Render(cid)
}

func FormatURI(uri string) string {
	return StyleURI.Render(uri)
}

func FormatTitle(title string) string {
	return StyleTitle.Render(title)
}

func FormatMuted(text string) string {
	return StyleMuted.Render(text)
}
