package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var params sourceParams
	var output string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download an attempt's complete log as a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			body, name, err := client.Download(cmd.Context(), params)
			if err != nil {
				return err
			}
			defer body.Close()

			target := strings.TrimSpace(output)
			if target == "-" {
				_, err := io.Copy(cmd.OutOrStdout(), body)
				return err
			}
			if target == "" {
				if name == "" {
					name = fmt.Sprintf("%s_%s_%d.log", params.RunID, params.TaskID, params.TryNumber)
				}
				// Attachment names embed slashes; flatten for a local file.
				target = strings.ReplaceAll(name, "/", "_")
			}

			if dir := filepath.Dir(target); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			file, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer file.Close()

			written, err := io.Copy(file, body)
			if err != nil {
				return fmt.Errorf("write log: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", written, target)
			return nil
		},
	}

	sourceFlags(cmd, &params)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (- for stdout)")
	return cmd
}
