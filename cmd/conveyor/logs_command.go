package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func sourceFlags(cmd *cobra.Command, params *sourceParams) {
	cmd.Flags().StringVar(&params.RunID, "run", "", "Run identifier")
	cmd.Flags().StringVar(&params.TaskID, "task", "", "Task identifier")
	cmd.Flags().StringVar(&params.LogicalDate, "date", "", "Logical date (RFC 3339 or YYYY-MM-DDTHH:MM:SS)")
	cmd.Flags().IntVar(&params.TryNumber, "try", 1, "Attempt number")
	_ = cmd.MarkFlagRequired("run")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("date")
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var params sourceParams

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print an attempt's log, paging until end of log",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			out := cmd.OutOrStdout()

			cursor := ""
			for {
				resp, err := client.Logs(cmd.Context(), params, cursor)
				if err != nil {
					return err
				}
				if resp.Message != "" {
					fmt.Fprintln(out, resp.Message)
				}
				if resp.Metadata.EndOfLog {
					return nil
				}
				raw, err := json.Marshal(resp.Metadata)
				if err != nil {
					return fmt.Errorf("encode cursor: %w", err)
				}
				cursor = string(raw)
			}
		},
	}

	sourceFlags(cmd, &params)
	return cmd
}
