package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lenscal/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "PDF report utilities",
	}
	reportCmd.AddCommand(newReportMergeCommand())
	return reportCmd
}

func newReportMergeCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:         "merge -o <output.pdf> <page.pdf>...",
		Short:       "Merge PDF pages into one document in the given order",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			doc, err := report.Merge(output, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if doc.Pages == 0 {
				fmt.Fprintln(out, "No pages to merge")
				return nil
			}
			fmt.Fprintf(out, "Wrote %s (%d pages)\n", doc.Path, doc.Pages)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Merged PDF path")
	return cmd
}
