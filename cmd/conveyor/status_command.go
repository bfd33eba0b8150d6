package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running:   %s\n", yesNo(status.Running))
			fmt.Fprintf(out, "PID:       %d\n", status.PID)
			fmt.Fprintf(out, "Backend:   %s\n", status.Backend)
			fmt.Fprintf(out, "Log dir:   %s\n", status.LogDir)
			fmt.Fprintf(out, "Database:  %s\n", status.DBPath)
			fmt.Fprintf(out, "Lock file: %s\n", status.LockFilePath)
			if len(status.AttemptStats) > 0 {
				fmt.Fprintf(out, "Attempts:  %d total, %d running, %d success, %d failed\n",
					status.AttemptStats["total"],
					status.AttemptStats["running"],
					status.AttemptStats["success"],
					status.AttemptStats["failed"],
				)
			}
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
