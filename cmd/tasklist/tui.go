package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/fastygo/tasklist/internal/tui"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := appOptions{stdoutLogs: "discard", background: true}
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := a.manager.SignalContext(cmd.Context())
			defer cancel()

			bridge := tui.NewBridge(a.logger)
			if err := a.wire(ctx, opts, bridge); err != nil {
				return err
			}

			boot := func(ctx context.Context) error {
				return a.tasks.Bootstrap(ctx, a.seed)
			}
			runErr := tui.Run(ctx, a.tasks, bridge, boot)
			return errors.Join(runErr, a.shutdown())
		},
	}
}
