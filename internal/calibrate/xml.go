package calibrate

import (
	"context"
	"errors"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"lenscal/internal/lens"
	"lenscal/internal/lensconf"
	"lenscal/internal/lensfun"
	"lenscal/internal/logging"
	"lenscal/internal/store"
)

// XMLSummary reports the generated lensfun file.
type XMLSummary struct {
	Path       string
	Installed  string
	Lenses     int
	TCA        int
	Vignetting int
}

// GenerateXML combines lenses.toml with the stored TCA and vignetting results
// and writes <model>_<timestamp>.xml to the workspace. With install the file
// is also copied into the lensfun user database directory.
func (r *Runner) GenerateXML(ctx context.Context, install bool) (XMLSummary, error) {
	var summary XMLSummary
	err := r.execute(ctx, "generate-xml", func(ctx context.Context, logger *slog.Logger, _ *store.Run) error {
		file, err := lensconf.Load(r.ws.Path(lensconf.FileName))
		if err != nil {
			return err
		}
		tca, err := r.store.TCAResults(ctx)
		if err != nil {
			return err
		}
		vig, err := r.store.VignettingResults(ctx)
		if err != nil {
			return err
		}
		profiles := BuildProfiles(file, tca, vig, logger)
		if len(profiles) == 0 {
			return errors.New("lenses.toml lists no lenses")
		}
		for _, p := range profiles {
			summary.TCA += len(p.TCA)
			summary.Vignetting += len(p.Vignetting)
		}
		summary.Lenses = len(profiles)

		path, err := lensfun.Write(r.ws.Root, profiles, r.now())
		if err != nil {
			return err
		}
		summary.Path = path
		logger.Info("lensfun xml written", logging.String("path", path), logging.Int("lenses", len(profiles)))

		if install {
			installed, err := lensfun.Install(path, r.cfg.Paths.LensfunDir)
			if err != nil {
				return err
			}
			summary.Installed = installed
			logger.Info("lensfun xml installed", logging.String("path", installed))
		}
		return nil
	})
	return summary, err
}

// BuildProfiles merges stored results into the lens profiles of file.
// Results of several images in one bucket are averaged. Results for lenses
// missing from file are logged and dropped.
func BuildProfiles(file lensconf.File, tca []store.TCAResult, vig []store.VignettingResult, logger *slog.Logger) []lens.Profile {
	logger = logging.NewComponentLogger(logger, "calibrate")
	profiles := make([]lens.Profile, len(file.Lenses))
	index := map[string]int{}
	for i, l := range file.Lenses {
		profiles[i] = l.Profile()
		index[profiles[i].Model] = i
	}
	missing := map[string]bool{}
	warnMissing := func(model, source string) {
		if !missing[model] {
			logger.Warn("results for lens not in lenses.toml dropped", logging.String("lens", model), logging.String(logging.FieldImage, source))
			missing[model] = true
		}
	}

	type tcaKey struct {
		model string
		focal float64
	}
	tcaGroups := map[tcaKey][]store.TCAResult{}
	var tcaOrder []tcaKey
	for _, t := range tca {
		if _, ok := index[t.LensModel]; !ok {
			warnMissing(t.LensModel, t.Source)
			continue
		}
		k := tcaKey{t.LensModel, t.FocalLength}
		if _, seen := tcaGroups[k]; !seen {
			tcaOrder = append(tcaOrder, k)
		}
		tcaGroups[k] = append(tcaGroups[k], t)
	}
	for _, k := range tcaOrder {
		group := tcaGroups[k]
		entry := lens.TCAEntry{Focal: k.focal, Complex: true}
		var br, vr, bb, vb []float64
		for _, t := range group {
			entry.Complex = entry.Complex && t.Complex
			br, vr, bb, vb = append(br, t.BR), append(vr, t.VR), append(bb, t.BB), append(vb, t.VB)
		}
		entry.VR, entry.VB = stat.Mean(vr, nil), stat.Mean(vb, nil)
		if entry.Complex {
			entry.BR, entry.BB = stat.Mean(br, nil), stat.Mean(bb, nil)
		}
		p := &profiles[index[k.model]]
		p.TCA = append(p.TCA, entry)
	}

	vigGroups := map[lens.Bucket][]store.VignettingResult{}
	var vigOrder []lens.Bucket
	for _, v := range vig {
		if _, ok := index[v.LensModel]; !ok {
			warnMissing(v.LensModel, v.Source)
			continue
		}
		k := lens.Bucket{LensModel: v.LensModel, FocalLength: v.FocalLength, Aperture: v.Aperture, Distance: v.Distance}
		if _, seen := vigGroups[k]; !seen {
			vigOrder = append(vigOrder, k)
		}
		vigGroups[k] = append(vigGroups[k], v)
	}
	for _, k := range vigOrder {
		var k1, k2, k3 []float64
		for _, v := range vigGroups[k] {
			k1, k2, k3 = append(k1, v.K1), append(k2, v.K2), append(k3, v.K3)
		}
		p := &profiles[index[k.LensModel]]
		p.Vignetting = append(p.Vignetting, lens.VignettingEntry{
			Focal:    k.FocalLength,
			Aperture: k.Aperture,
			Distance: k.Distance,
			K1:       stat.Mean(k1, nil),
			K2:       stat.Mean(k2, nil),
			K3:       stat.Mean(k3, nil),
		})
	}

	for i := range profiles {
		profiles[i].Sort()
	}
	return profiles
}
