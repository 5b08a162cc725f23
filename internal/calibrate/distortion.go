package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"lenscal/internal/fit"
	"lenscal/internal/lens"
	"lenscal/internal/lensconf"
	"lenscal/internal/logging"
	"lenscal/internal/services/darktable"
	"lenscal/internal/store"
	"lenscal/internal/workspace"
)

// DistortionSummary reports what the distortion action did.
type DistortionSummary struct {
	Images     int
	Exported   int
	Fitted     int
	Failures   []error
	LensesFile string
	// LensesWritten is false when an existing lenses file was kept.
	LensesWritten bool
}

// Distortion exports the distortion images as 16-bit TIFFs for hugin, fits
// point files (<image>.points.csv) with the ptlens model and writes the
// lenses file template when none exists.
func (r *Runner) Distortion(ctx context.Context) (DistortionSummary, error) {
	var summary DistortionSummary
	err := r.execute(ctx, "distortion", func(ctx context.Context, logger *slog.Logger, _ *store.Run) error {
		if err := r.ws.Require(workspace.DistortionDir); err != nil {
			return err
		}
		exportDir, err := r.ws.EnsureExportDir(workspace.DistortionDir)
		if err != nil {
			return err
		}
		sidecar, err := darktable.WriteSidecar(exportDir, darktable.Distortion)
		if err != nil {
			return err
		}

		batch, err := r.metadata.Read(ctx, r.ws.Path(workspace.DistortionDir))
		if err != nil {
			return err
		}
		logFailures(logger, batch)
		summary.Images = len(batch.Samples)
		summary.Failures = batch.Failures

		for _, sample := range batch.Samples {
			output := filepath.Join(exportDir, distortionExportName(sample))
			exported, err := r.exporter.Export(ctx, darktable.ExportRequest{
				Purpose: darktable.Distortion,
				Input:   sample.Path,
				Sidecar: sidecar,
				Output:  output,
			})
			if err != nil {
				return err
			}
			if exported {
				summary.Exported++
			}
		}

		fits, err := r.fitDistortionPoints(logger, batch.Samples)
		if err != nil {
			return err
		}
		summary.Fitted = countFits(fits)

		summary.LensesFile = r.ws.Path(lensconf.FileName)
		file := lensconf.Template(batch.Samples, fits, logger)
		written, err := lensconf.Save(summary.LensesFile, file, false)
		if err != nil {
			return err
		}
		summary.LensesWritten = written
		if !written && summary.Fitted > 0 {
			logger.Info("lenses file kept; copy fitted coefficients manually", logging.String("path", summary.LensesFile))
			logFits(logger, fits)
		}
		return nil
	})
	return summary, err
}

// distortionExportName keys exports by focal length for easier matching in hugin.
func distortionExportName(sample lens.ImageSample) string {
	stem := workspace.ExportStem(sample.Path, sample.Distance)
	focal := strconv.FormatFloat(sample.FocalLength, 'f', -1, 64)
	return fmt.Sprintf("%s_%smm.tif", stem, focal)
}

// fitDistortionPoints fits ptlens per lens and focal length over the point
// files of every image in the bucket. Buckets without point files are left
// out of the result.
func (r *Runner) fitDistortionPoints(logger *slog.Logger, samples []lens.ImageSample) (lensconf.Fits, error) {
	type key struct {
		model string
		focal string
	}
	points := map[key][]lens.SamplePoint{}
	var order []key
	for _, sample := range samples {
		pts, err := lensconf.ReadPoints(lens.PointsFile(sample.Path))
		if err != nil {
			return nil, err
		}
		if len(pts) == 0 {
			continue
		}
		k := key{model: sample.LensModel, focal: lens.FormatFocal(sample.FocalLength)}
		if _, seen := points[k]; !seen {
			order = append(order, k)
		}
		points[k] = append(points[k], pts...)
	}

	fits := lensconf.Fits{}
	for _, k := range order {
		result, err := fit.Fit(fit.PTLens, points[k], r.fitOptions())
		if err != nil {
			return nil, fmt.Errorf("%s at %smm: %w", k.model, k.focal, err)
		}
		if fits[k.model] == nil {
			fits[k.model] = map[string][]float64{}
		}
		fits[k.model][k.focal] = result.Coefficients
		logger.Info("distortion fitted",
			logging.String("lens", k.model),
			logging.String("focal", k.focal),
			logging.Int("points", len(points[k])),
			logging.Float64("rms", result.RMS),
		)
	}
	return fits, nil
}

func countFits(fits lensconf.Fits) int {
	n := 0
	for _, byFocal := range fits {
		n += len(byFocal)
	}
	return n
}

func logFits(logger *slog.Logger, fits lensconf.Fits) {
	for model, byFocal := range fits {
		for focal, coefficients := range byFocal {
			values := make([]string, len(coefficients))
			for i, c := range coefficients {
				values[i] = fmt.Sprintf("%.6g", c)
			}
			logger.Info("fitted distortion",
				logging.String("lens", model),
				logging.String("focal", focal),
				logging.String("coefficients", strings.Join(values, ", ")),
			)
		}
	}
}
