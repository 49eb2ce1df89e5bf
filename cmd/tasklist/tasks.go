package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/tasklist/domain"
	authUC "github.com/fastygo/tasklist/usecase/auth"
	taskUC "github.com/fastygo/tasklist/usecase/task"
)

// withTasks runs fn against a bootstrapped repository and then flushes and
// closes the store.
func withTasks(cmd *cobra.Command, fn func(ctx context.Context, tasks *taskUC.UseCase, out io.Writer) error) error {
	opts := appOptions{stdoutLogs: "stderr"}
	a, err := loadApp(cmd, opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := a.wire(ctx, opts); err != nil {
		return err
	}
	if err := a.tasks.Bootstrap(ctx, a.seed); err != nil {
		a.logger.Warn("starter tasks unavailable", zap.Error(err))
	}
	runErr := fn(ctx, a.tasks, cmd.OutOrStdout())
	return errors.Join(runErr, a.shutdown())
}

// storageWarning keeps a mutation that happened but was not saved from
// failing the command.
func storageWarning(err error, out io.Writer) error {
	if domain.IsDomainError(err, domain.ErrCodeStorage) {
		fmt.Fprintln(out, "warning: change not saved yet:", err)
		return nil
	}
	return err
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("filter")
			filter, err := domain.ParseFilter(raw)
			if err != nil {
				return err
			}
			return withTasks(cmd, func(_ context.Context, tasks *taskUC.UseCase, out io.Writer) error {
				list := tasks.List(filter)
				if len(list) == 0 {
					fmt.Fprintln(out, "No tasks.")
					return nil
				}
				for _, t := range list {
					printTask(out, t)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringP("filter", "f", "all", "all, completed or incomplete")
	return cmd
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [text]",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTasks(cmd, func(ctx context.Context, tasks *taskUC.UseCase, out io.Writer) error {
				t, err := tasks.Create(ctx, strings.Join(args, " "))
				if t.ID != 0 {
					printTask(out, t)
				}
				return storageWarning(err, out)
			})
		},
	}
}

func doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Toggle a task between completed and incomplete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withTasks(cmd, func(ctx context.Context, tasks *taskUC.UseCase, out io.Writer) error {
				t, err := tasks.ToggleComplete(ctx, id)
				if t.ID != 0 {
					printTask(out, t)
				}
				return storageWarning(err, out)
			})
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withTasks(cmd, func(ctx context.Context, tasks *taskUC.UseCase, out io.Writer) error {
				t, _ := tasks.Find(id)
				err := tasks.Delete(ctx, id)
				if err != nil && !domain.IsDomainError(err, domain.ErrCodeStorage) {
					return err
				}
				fmt.Fprintf(out, "Deleted %q\n", t.Text)
				return storageWarning(err, out)
			})
		},
	}
}

func clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return withTasks(cmd, func(ctx context.Context, tasks *taskUC.UseCase, out io.Writer) error {
				if tasks.Count() > 0 && !yes {
					return fmt.Errorf("%w: pass --yes to delete %d tasks", domain.ErrConfirmRequired, tasks.Count())
				}
				removed, err := tasks.DeleteAll(ctx)
				if removed == 0 && err == nil {
					fmt.Fprintln(out, "Nothing to delete")
					return nil
				}
				fmt.Fprintf(out, "Deleted %d tasks\n", removed)
				return storageWarning(err, out)
			})
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "confirm deleting all tasks")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, appOptions{stdoutLogs: "stderr"})
			if err != nil {
				return err
			}
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			auth := authUC.New(a.cfg.JWT.Secret, a.cfg.JWT.Issuer, a.logger)
			if !auth.Enabled() {
				return errors.New("JWT_SECRET is not set, the API accepts requests without a token")
			}
			token, expires, err := auth.IssueToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintln(cmd.ErrOrStderr(), "expires", expires.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("subject", "cli", "token subject")
	cmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.WrapError(domain.ErrCodeInvalid, "task id must be a positive integer", err)
	}
	return id, nil
}

func printTask(out io.Writer, t domain.Task) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	fmt.Fprintf(out, "%d\t[%s] %s\n", t.ID, mark, t.Text)
}
