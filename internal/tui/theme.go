package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the console palette. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Accent     lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	BorderColor lipgloss.Color
	HelpText    lipgloss.Color

	Success lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color
}

var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	Accent:             lipgloss.Color("39"),
	SelectedBackground: lipgloss.Color("24"),
	SelectedForeground: lipgloss.Color("231"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("245"),
	Success:            lipgloss.Color("42"),
	Error:              lipgloss.Color("203"),
	Info:               lipgloss.Color("75"),
}

type styles struct {
	title     lipgloss.Style
	faint     lipgloss.Style
	help      lipgloss.Style
	sidebar   lipgloss.Style
	navItem   lipgloss.Style
	navActive lipgloss.Style
	modal     lipgloss.Style
	label     lipgloss.Style
	focused   lipgloss.Style
	errorText lipgloss.Style
	toast     map[string]lipgloss.Style
}

func newStyles(theme Theme) styles {
	toastBase := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	return styles{
		title:     lipgloss.NewStyle().Foreground(theme.Accent).Bold(true),
		faint:     lipgloss.NewStyle().Foreground(theme.FaintText),
		help:      lipgloss.NewStyle().Foreground(theme.HelpText),
		sidebar:   lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(theme.BorderColor).Padding(0, 1),
		navItem:   lipgloss.NewStyle().Foreground(theme.NormalText),
		navActive: lipgloss.NewStyle().Foreground(theme.SelectedForeground).Background(theme.SelectedBackground).Bold(true),
		modal:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(theme.Accent).Padding(1, 2),
		label:     lipgloss.NewStyle().Foreground(theme.FaintText).Width(18),
		focused:   lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Width(18),
		errorText: lipgloss.NewStyle().Foreground(theme.Error),
		toast: map[string]lipgloss.Style{
			"success": toastBase.Foreground(theme.Success),
			"error":   toastBase.Foreground(theme.Error),
			"info":    toastBase.Foreground(theme.Info),
		},
	}
}
