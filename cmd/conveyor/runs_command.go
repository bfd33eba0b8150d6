package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded task attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			resp, err := client.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			headers := []string{"RUN", "TASK", "DATE", "TRY", "STATUS", "STARTED", "FINISHED"}
			rows := make([][]string, 0, len(resp.Attempts))
			for _, attempt := range resp.Attempts {
				rows = append(rows, []string{
					attempt.RunID,
					attempt.TaskID,
					attempt.LogicalDate,
					fmt.Sprintf("%d", attempt.TryNumber),
					attempt.Status,
					attempt.StartedAt,
					attempt.FinishedAt,
				})
			}

			out := cmd.OutOrStdout()
			if file, ok := out.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
			} else {
				fmt.Fprintln(out, renderPlain(headers, rows))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum attempts to list")
	return cmd
}
