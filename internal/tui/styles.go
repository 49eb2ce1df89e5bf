package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("245"))

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	reminderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	alertStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("166")).Bold(true).Padding(0, 1)
	promptBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)
