// Package ui renders command output for the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	accentColor = lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"}
	passColor   = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#87D787"}
	warnColor   = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD75F"}
	failColor   = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
	mutedColor  = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}

	accentStyle  = lipgloss.NewStyle().Foreground(accentColor)
	passStyle    = lipgloss.NewStyle().Foreground(passColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	failStyle    = lipgloss.NewStyle().Foreground(failColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	keynoteStyle = lipgloss.NewStyle().Bold(true).Foreground(warnColor)
	labelStyle   = lipgloss.NewStyle().Foreground(mutedColor).Width(10)
	bodyStyle    = lipgloss.NewStyle().Width(76).PaddingLeft(2)
)

// SetColor turns styling on or off. When enabled, the profile follows the
// environment (NO_COLOR, CLICOLOR_FORCE, TERM).
func SetColor(enabled bool) {
	if !enabled {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// RenderAccent styles informational markers and headings.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderPass styles success markers.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn styles warnings.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail styles errors.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderMuted styles secondary text.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderHeader styles a section header.
func RenderHeader(s string) string { return headerStyle.Render(s) }
