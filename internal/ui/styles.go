// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ui provides the llama-themed terminal presentation: a lipgloss
// palette, renderers for query results, and the interactive query loop.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/llamagraph/llamagraph/pkg/types"
)

// Palette. Warm llama tones on the accent, conventional signal colors
// elsewhere.
var (
	ColorAccent = lipgloss.Color("173") // llama-wool orange
	ColorPass   = lipgloss.Color("42")
	ColorWarn   = lipgloss.Color("214")
	ColorFail   = lipgloss.Color("196")
	ColorMuted  = lipgloss.Color("243")
)

var (
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 2)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorPass)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	HintStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	PromptStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	LabelStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
)

// entityTypeColors gives each entity type its own hue in tables.
var entityTypeColors = map[types.EntityType]lipgloss.Color{
	types.EntityPerson:       lipgloss.Color("39"),
	types.EntityOrganization: lipgloss.Color("170"),
	types.EntityLocation:     lipgloss.Color("114"),
	types.EntityDate:         lipgloss.Color("221"),
	types.EntityOther:        ColorMuted,
}

// TypeStyle returns the style for an entity type tag.
func TypeStyle(t types.EntityType) lipgloss.Style {
	color, ok := entityTypeColors[t]
	if !ok {
		color = ColorMuted
	}
	return lipgloss.NewStyle().Foreground(color)
}

// IsTerminal reports whether stdout is connected to a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor respects NO_COLOR, CLICOLOR=0, and CLICOLOR_FORCE
// before falling back to TTY detection.
func ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	return IsTerminal()
}
