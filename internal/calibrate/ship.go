package calibrate

import (
	"context"
	"log/slog"

	"lenscal/internal/lensfun"
	"lenscal/internal/logging"
	"lenscal/internal/ship"
	"lenscal/internal/store"
	"lenscal/internal/workspace"
)

// Ship packs the newest lensfun XML, the PDF reports and the vignetting
// previews into lensfun_calibration.tar.xz and returns its path.
func (r *Runner) Ship(ctx context.Context) (string, error) {
	var output string
	err := r.execute(ctx, "ship", func(_ context.Context, logger *slog.Logger, _ *store.Run) error {
		xmlPath, err := lensfun.Newest(r.ws.Root)
		if err != nil {
			return err
		}
		bundle, err := ship.Collect(r.ws.Root, xmlPath,
			[]string{r.ws.Path(workspace.TCAReport), r.ws.Path(workspace.VignettingReport)},
			r.ws.ExportPath(workspace.VignettingDir),
		)
		if err != nil {
			return err
		}
		output = r.ws.Path(workspace.BundleName)
		if err := ship.Write(output, bundle); err != nil {
			return err
		}
		logger.Info("calibration bundle written",
			logging.String("path", output),
			logging.Int("files", len(bundle.Files)),
		)
		return nil
	})
	return output, err
}
