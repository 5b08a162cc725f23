package calibrate

import (
	"context"
	"log/slog"
	"path/filepath"

	"lenscal/internal/fit"
	"lenscal/internal/lens"
	"lenscal/internal/logging"
	"lenscal/internal/report"
	"lenscal/internal/services"
	"lenscal/internal/services/darktable"
	"lenscal/internal/services/gnuplot"
	"lenscal/internal/store"
	"lenscal/internal/vignette"
	"lenscal/internal/workspace"
)

// VignettingSummary reports what the vignetting action did.
type VignettingSummary struct {
	Images   int
	Fitted   int
	Skipped  int
	Failures []error
	// Ignored lists vignetting subdirectories whose name is not a distance.
	Ignored []string
	Report  report.CalibrationDocument
}

// Vignetting processes vignetting/ (shot at infinity) and every
// vignetting/<metres>/ directory: each image is exported to a reduced 16-bit
// TIFF and a JPEG preview, its radial intensity profile is fitted with the
// pa model, and the fit is stored and plotted. All plot pages are merged into
// vignetting.pdf.
func (r *Runner) Vignetting(ctx context.Context) (VignettingSummary, error) {
	var summary VignettingSummary
	err := r.execute(ctx, "vignetting", func(ctx context.Context, logger *slog.Logger, run *store.Run) error {
		if err := r.ws.Require(workspace.VignettingDir); err != nil {
			return err
		}
		exportDir, err := r.ws.EnsureExportDir(workspace.VignettingDir)
		if err != nil {
			return err
		}
		sidecar, err := darktable.WriteSidecar(exportDir, darktable.Vignetting)
		if err != nil {
			return err
		}

		sets, ignored, err := r.ws.VignettingSets()
		if err != nil {
			return err
		}
		summary.Ignored = ignored
		for _, dir := range ignored {
			logger.Warn("ignoring vignetting directory; name is not a distance in metres", logging.String("dir", dir))
		}

		for _, set := range sets {
			batch, err := r.metadata.Read(ctx, set.Dir)
			if err != nil {
				return err
			}
			logFailures(logger, batch)
			summary.Images += len(batch.Samples)
			summary.Failures = append(summary.Failures, batch.Failures...)

			for _, sample := range batch.Samples {
				sample.Distance = set.Distance
				fitted, err := r.vignettingImage(services.WithImage(ctx, sample.Path), logger, run, exportDir, sidecar, sample)
				if err != nil {
					return err
				}
				if fitted {
					summary.Fitted++
				} else {
					summary.Skipped++
				}
			}
		}

		doc, err := r.mergeReport(logger, exportDir, r.ws.Path(workspace.VignettingReport))
		summary.Report = doc
		return err
	})
	return summary, err
}

// vignettingImage returns false when the image already has a stored result.
func (r *Runner) vignettingImage(ctx context.Context, logger *slog.Logger, run *store.Run, exportDir, sidecar string, sample lens.ImageSample) (bool, error) {
	stem := workspace.ExportStem(sample.Path, sample.Distance)
	preview := filepath.Join(exportDir, stem+".jpg")
	tif := filepath.Join(exportDir, stem+".tif")
	width := r.cfg.Vignetting.ExportWidth

	// The preview is only bundled by ship, so it is exported even for images
	// measured earlier.
	if _, err := r.exporter.Export(ctx, darktable.ExportRequest{
		Purpose: darktable.Vignetting, Input: sample.Path, Sidecar: sidecar, Output: preview, Width: width,
	}); err != nil {
		return false, err
	}

	done, err := r.store.HasVignetting(ctx, sample.Path)
	if err != nil || done {
		return false, err
	}

	if _, err := r.exporter.Export(ctx, darktable.ExportRequest{
		Purpose: darktable.Vignetting, Input: sample.Path, Sidecar: sidecar, Output: tif, Width: width,
	}); err != nil {
		return false, err
	}
	img, err := vignette.Load(tif)
	if err != nil {
		return false, err
	}
	profile, err := vignette.Sample(img, r.cfg.Vignetting.Bins)
	if err != nil {
		return false, err
	}
	result, err := fit.Fit(fit.Vignetting, profile.Bins, r.fitOptions())
	if err != nil {
		return false, err
	}
	c := result.Coefficients

	if err := r.store.PutVignetting(ctx, store.VignettingResult{
		Source:      sample.Path,
		LensModel:   sample.LensModel,
		FocalLength: sample.FocalLength,
		Aperture:    sample.Aperture,
		Distance:    sample.Distance,
		A:           c[0],
		K1:          c[1],
		K2:          c[2],
		K3:          c[3],
		RMS:         result.RMS,
		MaxAbs:      result.MaxAbs,
		Iterations:  result.Iterations,
		RunID:       run.ID,
	}); err != nil {
		return false, err
	}
	logger.Info("vignetting fitted",
		logging.String(logging.FieldImage, sample.Path),
		logging.String("distance", lens.FormatDistance(sample.Distance)),
		logging.Float64("k1", c[1]),
		logging.Float64("k2", c[2]),
		logging.Float64("k3", c[3]),
		logging.Float64("rms", result.RMS),
	)

	allPoints := filepath.Join(exportDir, stem+".all.dat")
	bins := filepath.Join(exportDir, stem+".bins.dat")
	if err := vignette.WriteDat(allPoints, profile.Points); err != nil {
		return false, err
	}
	if err := vignette.WriteDat(bins, profile.Bins); err != nil {
		return false, err
	}
	plot := gnuplot.VignettingPlot{
		Output:       filepath.Join(exportDir, stem+".pdf"),
		Source:       filepath.Base(sample.Path),
		LensModel:    sample.LensModel,
		Focal:        sample.FocalLength,
		Aperture:     sample.Aperture,
		Distance:     sample.Distance,
		AllPoints:    allPoints,
		Bins:         bins,
		Coefficients: [4]float64{c[0], c[1], c[2], c[3]},
	}
	if err := r.plotter.Render(ctx, filepath.Join(exportDir, stem+".gp"), plot); err != nil {
		return false, err
	}
	return true, nil
}
