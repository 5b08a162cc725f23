package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lenscal/internal/deps"
	"lenscal/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that the external tools are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cfg, "")
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				detail := s.Path
				if !s.Available {
					detail = s.Detail
				}
				rows = append(rows, []string{s.Name, yesNo(s.Available), yesNo(s.Optional), detail, s.Description})
			}
			out := cmd.OutOrStdout()
			writeTable(out,
				[]string{"Tool", "Available", "Optional", "Path", "Purpose"},
				rows, nil,
			)
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
}
