package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"lenscal/internal/calibrate"
	"lenscal/internal/lens"
	"lenscal/internal/preflight"
	"lenscal/internal/services/exiftool"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var override exiftool.Override

	cmd := &cobra.Command{
		Use:   "tag [flags] <image>...",
		Short: "Write lens tags into images shot with a manual lens",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errNoArgs
			}
			return ctx.withRunner(preflight.ActionTag, false, func(r *calibrate.Runner) error {
				if err := r.Tag(cmd.Context(), args, override); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tagged %d image(s) with %s\n", len(args), override.LensModel)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&override.LensModel, "lens", "", "Lens model, e.g. 'Pentacon 50mm f/1.8'")
	cmd.Flags().Float64Var(&override.FocalLength, "focal", 0, "Focal length in mm")
	cmd.Flags().Float64Var(&override.Aperture, "aperture", 0, "Aperture as f-number")
	cmd.Flags().BoolVar(&override.InPlace, "in-place", false, "Overwrite originals instead of keeping _original backups")
	_ = cmd.MarkFlagRequired("lens")
	_ = cmd.MarkFlagRequired("focal")
	_ = cmd.MarkFlagRequired("aperture")
	return cmd
}

func newSamplesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "samples [dir]",
		Short: "List the lens metadata of the images in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(preflight.ActionSamples, false, func(r *calibrate.Runner) error {
				dir := r.Workspace().Root
				if len(args) == 1 {
					dir = args[0]
				}
				batch, err := r.Samples(cmd.Context(), dir)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(batch.Samples) == 0 {
					fmt.Fprintln(out, "No images found")
				} else {
					writeTable(out,
						[]string{"Image", "Lens", "Maker", "Mount", "Focal", "Aperture", "Crop", "Distance"},
						sampleRows(batch.Samples),
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
					)
				}
				printFailures(out, batch.Failures)
				return nil
			})
		},
	}
}

func sampleRows(samples []lens.ImageSample) [][]string {
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, []string{
			filepath.Base(s.Path),
			s.LensModel,
			s.LensMaker,
			s.Mount,
			lens.FormatFocal(s.FocalLength),
			strconv.FormatFloat(s.Aperture, 'g', -1, 64),
			strconv.FormatFloat(s.CropFactor, 'g', -1, 64),
			formatDistance(s.Distance),
		})
	}
	return rows
}
