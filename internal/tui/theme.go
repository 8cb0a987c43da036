package tui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Theme holds the colors used by the viewer.
type Theme struct {
	KeyColor      color.Color // highlighted id and type keys
	ValueColor    color.Color // labels
	MutedColor    color.Color // markers, STIX type hints and the preview line
	HeaderFG      color.Color
	HeaderBG      color.Color
	SelectedFG    color.Color
	SelectedBG    color.Color
	StatusColor   color.Color
	StatusError   color.Color
	StatusSuccess color.Color
}

// DefaultTheme is the dark palette.
func DefaultTheme() Theme {
	return Theme{
		KeyColor:      lipgloss.Color("81"),  // cyan
		ValueColor:    lipgloss.Color("250"), // light gray
		MutedColor:    lipgloss.Color("244"),
		HeaderFG:      lipgloss.Color("81"),
		HeaderBG:      lipgloss.Color("236"), // charcoal
		SelectedFG:    lipgloss.Color("250"),
		SelectedBG:    lipgloss.Color("24"), // deep teal
		StatusColor:   lipgloss.Color("81"),
		StatusError:   lipgloss.Color("203"),
		StatusSuccess: lipgloss.Color("114"),
	}
}

type styles struct {
	key, value, muted, header, selected lipgloss.Style
	status, statusErr, statusOK         lipgloss.Style
}

func newStyles(th Theme, noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			key: plain.Bold(true), value: plain, muted: plain, header: plain.Bold(true),
			selected: plain.Reverse(true), status: plain, statusErr: plain, statusOK: plain,
		}
	}
	return styles{
		key:       lipgloss.NewStyle().Foreground(th.KeyColor).Bold(true),
		value:     lipgloss.NewStyle().Foreground(th.ValueColor),
		muted:     lipgloss.NewStyle().Foreground(th.MutedColor),
		header:    lipgloss.NewStyle().Foreground(th.HeaderFG).Background(th.HeaderBG).Bold(true),
		selected:  lipgloss.NewStyle().Foreground(th.SelectedFG).Background(th.SelectedBG),
		status:    lipgloss.NewStyle().Foreground(th.StatusColor),
		statusErr: lipgloss.NewStyle().Foreground(th.StatusError),
		statusOK:  lipgloss.NewStyle().Foreground(th.StatusSuccess),
	}
}
