package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Accent color for the maris branding.
const marisTeal = "#2DD4BF"

// MARIS ASCII art banner.
var marisArt = []string{
	"    ███╗   ███╗ █████╗ ██████╗ ██╗███████╗",
	"    ████╗ ████║██╔══██╗██╔══██╗██║██╔════╝",
	"    ██╔████╔██║███████║██████╔╝██║███████╗",
	"    ██║╚██╔╝██║██╔══██║██╔══██╗██║╚════██║",
	"    ██║ ╚═╝ ██║██║  ██║██║  ██║██║███████║",
	"    ╚═╝     ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝╚══════╝",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Reasoning lipgloss.Style // Dim italic for model reasoning
	ToolGroup lipgloss.Style // Group header (Explored, Searched, ...)
	ToolItem  lipgloss.Style
	ToolError lipgloss.Style
	System    lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Notice    lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(marisTeal)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Reasoning: lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("243")),
		ToolGroup: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
		ToolItem:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		ToolError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

// RenderBanner returns the MARIS ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range marisArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

var welcomeTips = []string{
	"Tips for getting started:",
	"  • Type a message and press Enter to talk to the agent",
	"  • /sessions lists past conversations, /switch <n> resumes one",
	"  • Esc stops a streaming response, Ctrl+D exits",
	"  • Up/Down arrows navigate input history",
}

// RenderWelcomeTips returns styled welcome tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tips.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
