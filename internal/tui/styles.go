package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Accent color for docpilot branding.
const accentTeal = "#2DD4BF"

// docpilot ASCII art banner.
var bannerArt = []string{
	" ██████╗  ██████╗  ██████╗██████╗ ██╗██╗      ██████╗ ████████╗",
	" ██╔══██╗██╔═══██╗██╔════╝██╔══██╗██║██║     ██╔═══██╗╚══██╔══╝",
	" ██║  ██║██║   ██║██║     ██████╔╝██║██║     ██║   ██║   ██║   ",
	" ██║  ██║██║   ██║██║     ██╔═══╝ ██║██║     ██║   ██║   ██║   ",
	" ██████╔╝╚██████╔╝╚██████╗██║     ██║███████╗╚██████╔╝   ██║   ",
	" ╚═════╝  ╚═════╝  ╚═════╝╚═╝     ╚═╝╚══════╝ ╚═════╝    ╚═╝   ",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Source    lipgloss.Style
	Sidebar   lipgloss.Style
	Selected  lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
	DocTitle  lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentTeal)),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentTeal)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Source:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Sidebar:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentTeal)),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		DocTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentTeal)),
	}
}

// RenderBanner returns the ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range bannerArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// welcomeTips are shown under the banner until the first message.
var welcomeTips = []string{
	"Tips for getting started:",
	"  • Ask anything about the documentation",
	"  • Use /lang <language> to pick the language for code examples",
	"  • Use /doc <n> to read a cited source page",
	"  • Use /help to see all commands",
	"  • Press Ctrl+C twice or Ctrl+D to exit",
}

// RenderWelcomeTips returns the styled welcome tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tips.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
