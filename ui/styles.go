package ui

import "github.com/charmbracelet/lipgloss"

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	fuchsia   = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	yellow    = lipgloss.AdaptiveColor{Light: "#D9A900", Dark: "#ECFD65"}

	noteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	dimFg  = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#5A5A5A"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(darkGreen).
			Padding(0, 1)

	headerNoteStyle = lipgloss.NewStyle().
			Foreground(noteFg).
			Render

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Render

	focusedSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(fuchsia).
				Render

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Render

	cursorItemStyle = lipgloss.NewStyle().
			Foreground(fuchsia).
			Render

	selectedMarkStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Render

	dimStyle = lipgloss.NewStyle().
			Foreground(dimFg).
			Render

	buttonStyle = lipgloss.NewStyle().
			Foreground(noteFg).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimFg).
			Padding(0, 2)

	focusedButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("#FFFDF5")).
				BorderForeground(fuchsia)

	footerStyle = lipgloss.NewStyle().
			Foreground(noteFg).
			Render
)
