package calibrate

import (
	"context"
	"log/slog"
	"path/filepath"

	"lenscal/internal/logging"
	"lenscal/internal/report"
	"lenscal/internal/services"
	"lenscal/internal/services/darktable"
	"lenscal/internal/services/gnuplot"
	"lenscal/internal/store"
	"lenscal/internal/workspace"
)

// TCASummary reports what the tca action did.
type TCASummary struct {
	Images   int
	Measured int
	Skipped  int
	Failures []error
	// Report is the merged plot document; only produced for complex fits.
	Report report.CalibrationDocument
}

// TCA exports every tca image to PPM, measures it with tca_correct and stores
// the coefficients. With complexTCA the br/bb terms are fitted too and one
// plot page per image is merged into tca.pdf.
func (r *Runner) TCA(ctx context.Context, complexTCA bool) (TCASummary, error) {
	var summary TCASummary
	err := r.execute(ctx, "tca", func(ctx context.Context, logger *slog.Logger, run *store.Run) error {
		if err := r.ws.Require(workspace.TCADir); err != nil {
			return err
		}
		exportDir, err := r.ws.EnsureExportDir(workspace.TCADir)
		if err != nil {
			return err
		}
		sidecar, err := darktable.WriteSidecar(exportDir, darktable.TCA)
		if err != nil {
			return err
		}

		batch, err := r.metadata.Read(ctx, r.ws.Path(workspace.TCADir))
		if err != nil {
			return err
		}
		logFailures(logger, batch)
		summary.Images = len(batch.Samples)
		summary.Failures = batch.Failures

		for _, sample := range batch.Samples {
			imageCtx := services.WithImage(ctx, sample.Path)
			done, err := r.store.HasTCA(imageCtx, sample.Path, complexTCA)
			if err != nil {
				return err
			}
			if done {
				summary.Skipped++
				logger.Debug("tca already measured", logging.String(logging.FieldImage, sample.Path))
				continue
			}

			stem := workspace.ExportStem(sample.Path, sample.Distance)
			ppm := filepath.Join(exportDir, stem+".ppm")
			if _, err := r.exporter.Export(imageCtx, darktable.ExportRequest{
				Purpose: darktable.TCA,
				Input:   sample.Path,
				Sidecar: sidecar,
				Output:  ppm,
			}); err != nil {
				return err
			}

			coeffs, err := r.tca.Correct(imageCtx, ppm, complexTCA)
			if err != nil {
				return err
			}
			if err := r.store.PutTCA(imageCtx, store.TCAResult{
				Source:      sample.Path,
				LensModel:   sample.LensModel,
				FocalLength: sample.FocalLength,
				Aperture:    sample.Aperture,
				Complex:     coeffs.Complex,
				BR:          coeffs.BR,
				VR:          coeffs.VR,
				BB:          coeffs.BB,
				VB:          coeffs.VB,
				RawOutput:   coeffs.Raw,
				RunID:       run.ID,
			}); err != nil {
				return err
			}
			summary.Measured++
			logger.Info("tca measured",
				logging.String(logging.FieldImage, sample.Path),
				logging.Float64("vr", coeffs.VR),
				logging.Float64("vb", coeffs.VB),
			)

			if complexTCA {
				plot := gnuplot.TCAPlot{
					Output:    filepath.Join(exportDir, stem+".pdf"),
					Source:    filepath.Base(sample.Path),
					LensModel: sample.LensModel,
					Focal:     sample.FocalLength,
					Aperture:  sample.Aperture,
					BR:        coeffs.BR,
					VR:        coeffs.VR,
					BB:        coeffs.BB,
					VB:        coeffs.VB,
				}
				if err := r.plotter.Render(imageCtx, filepath.Join(exportDir, stem+".gp"), plot); err != nil {
					return err
				}
			}
		}

		if !complexTCA {
			return nil
		}
		doc, err := r.mergeReport(logger, exportDir, r.ws.Path(workspace.TCAReport))
		summary.Report = doc
		return err
	})
	return summary, err
}

// mergeReport merges the plot pages in pagesDir into output.
func (r *Runner) mergeReport(logger *slog.Logger, pagesDir, output string) (report.CalibrationDocument, error) {
	pages, err := report.CollectPages(pagesDir)
	if err != nil {
		return report.CalibrationDocument{}, err
	}
	doc, err := report.Merge(output, pages)
	if err != nil {
		return report.CalibrationDocument{}, err
	}
	if doc.Pages == 0 {
		logger.Info("no plot pages to merge", logging.String("dir", pagesDir))
		return doc, nil
	}
	logger.Info("report written", logging.String("path", doc.Path), logging.Int("pages", doc.Pages))
	return doc, nil
}
