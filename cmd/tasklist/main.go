package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tasklist",
		Short:         "Personal task list with reminders",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("store", "", "snapshot backend: bolt, redis or postgres (overrides STORE_BACKEND)")
	rootCmd.PersistentFlags().Bool("no-seed", false, "do not fetch starter tasks on first run")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(doneCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}
