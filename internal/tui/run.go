package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the task list until the user quits or ctx is cancelled.
func Run(ctx context.Context, repo Repository, bridge *Bridge, boot BootFunc) error {
	program := tea.NewProgram(
		NewModel(ctx, repo, boot),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)
	bridge.Attach(program)
	defer bridge.Close()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
