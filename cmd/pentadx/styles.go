package main

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	region lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)),
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(4)),
		region: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(3)),
		ok:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2)),
		err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
	}
}
