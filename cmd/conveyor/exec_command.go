package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"conveyor/internal/logging"
	"conveyor/internal/logsource"
	"conveyor/internal/runner"
	"conveyor/internal/runs"
)

func newExecCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var taskID string
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Execute a command as a recorded task attempt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			date := time.Now().UTC().Truncate(time.Second)
			if dateFlag != "" {
				if date, err = logsource.ParseLogicalDate(dateFlag); err != nil {
					return err
				}
			}
			if runID == "" {
				runID = "manual__" + date.Format(logsource.TimestampLayout)
			}

			store, err := runs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open attempt store: %w", err)
			}
			defer store.Close()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			r, err := runner.New(cfg, store, logger)
			if err != nil {
				return err
			}
			result, err := r.Run(cmd.Context(), runID, taskID, date, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Attempt %d of %s/%s finished with status %s (exit code %d)\n",
				result.Attempt.TryNumber, runID, taskID, result.Status, result.ExitCode)
			fmt.Fprintf(out, "Log: %s\n", result.Attempt.Source().Path(cfg.Paths.LogDir))
			if result.Status == runs.StatusFailed {
				return errors.New("task attempt failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run identifier (defaults to manual__<date>)")
	cmd.Flags().StringVar(&taskID, "task", "", "Task identifier")
	cmd.Flags().StringVar(&dateFlag, "date", "", "Logical date (defaults to now)")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}
