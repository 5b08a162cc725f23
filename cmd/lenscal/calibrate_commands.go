package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lenscal/internal/calibrate"
	"lenscal/internal/lens"
	"lenscal/internal/preflight"
	"lenscal/internal/report"
)

func newCalibrationCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newInitCommand(ctx),
		newDistortionCommand(ctx),
		newTCACommand(ctx),
		newVignettingCommand(ctx),
		newGenerateXMLCommand(ctx),
		newShipCommand(ctx),
	}
}

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the distortion, tca and vignetting directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner("", false, func(r *calibrate.Runner) error {
				created, err := r.Init()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(created) == 0 {
					fmt.Fprintf(out, "Workspace %s already initialized\n", r.Workspace().Root)
					return nil
				}
				for _, dir := range created {
					fmt.Fprintf(out, "Created %s\n", dir)
				}
				fmt.Fprintln(out, "Copy calibration images into the directories, then run the actions.")
				return nil
			})
		},
	}
}

func newDistortionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "distortion",
		Short: "Export distortion images and write the lenses.toml template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(preflight.ActionDistortion, true, func(r *calibrate.Runner) error {
				summary, err := r.Distortion(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Images: %d, exported: %d, fitted buckets: %d\n", summary.Images, summary.Exported, summary.Fitted)
				printFailures(out, summary.Failures)
				if summary.LensesWritten {
					fmt.Fprintf(out, "Wrote %s; fill in the distortion coefficients before generate-xml\n", summary.LensesFile)
				} else {
					fmt.Fprintf(out, "Kept existing %s\n", summary.LensesFile)
				}
				return nil
			})
		},
	}
}

func newTCACommand(ctx *commandContext) *cobra.Command {
	var complexTCA bool

	cmd := &cobra.Command{
		Use:   "tca",
		Short: "Measure transverse chromatic aberration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if complexTCA {
				cfg.TCA.Complex = true
			}
			return ctx.withRunner(preflight.ActionTCA, true, func(r *calibrate.Runner) error {
				summary, err := r.TCA(cmd.Context(), cfg.TCA.Complex)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Images: %d, measured: %d, already stored: %d\n", summary.Images, summary.Measured, summary.Skipped)
				printFailures(out, summary.Failures)
				printReport(out, summary.Report)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&complexTCA, "complex", false, "Also fit the br/bb terms and plot each image")
	return cmd
}

func newVignettingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "vignetting",
		Short: "Fit vignetting for every image and distance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(preflight.ActionVignetting, true, func(r *calibrate.Runner) error {
				summary, err := r.Vignetting(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Images: %d, fitted: %d, already stored: %d\n", summary.Images, summary.Fitted, summary.Skipped)
				for _, dir := range summary.Ignored {
					fmt.Fprintf(out, "Ignored %s (not a distance in metres)\n", dir)
				}
				printFailures(out, summary.Failures)
				printReport(out, summary.Report)
				return nil
			})
		},
	}
}

func newGenerateXMLCommand(ctx *commandContext) *cobra.Command {
	var install bool

	cmd := &cobra.Command{
		Use:   "generate-xml",
		Short: "Write the lensfun XML from lenses.toml and stored results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner("", true, func(r *calibrate.Runner) error {
				summary, err := r.GenerateXML(cmd.Context(), install)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Wrote %s (%d lens(es), %d tca, %d vignetting entries)\n", summary.Path, summary.Lenses, summary.TCA, summary.Vignetting)
				if summary.Installed != "" {
					fmt.Fprintf(out, "Installed %s\n", summary.Installed)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&install, "install", false, "Copy the XML into the lensfun user database")
	return cmd
}

func newShipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ship",
		Short: "Bundle the XML, reports and previews into a tar.xz archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner("", true, func(r *calibrate.Runner) error {
				path, err := r.Ship(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			})
		},
	}
}

func printFailures(out io.Writer, failures []error) {
	if summary := failureSummary(failures); summary != "" {
		fmt.Fprintln(out, summary)
	}
}

func printReport(out io.Writer, doc report.CalibrationDocument) {
	if doc.Pages > 0 {
		fmt.Fprintf(out, "Report: %s (%d pages)\n", doc.Path, doc.Pages)
	}
}

func formatDistance(d float64) string {
	return lens.FormatDistance(d)
}
