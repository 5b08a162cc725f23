package calibrate

import (
	"context"
	"errors"

	"lenscal/internal/services"
	"lenscal/internal/services/exiftool"
	"lenscal/internal/workspace"
)

// Init creates the calibration directories and returns the ones created.
func (r *Runner) Init() ([]string, error) {
	return r.ws.Init()
}

// Tag writes lens tag overrides into each path, for images taken with lenses
// that do not report themselves to the camera.
func (r *Runner) Tag(ctx context.Context, paths []string, o exiftool.Override) error {
	if len(paths) == 0 {
		return errors.New("no images given")
	}
	for _, path := range paths {
		if !workspace.Exists(path) {
			return services.Wrap(services.ErrNotFound, "calibrate", "tag", path, nil)
		}
		if err := r.metadata.Tag(services.WithImage(ctx, path), path, o); err != nil {
			return err
		}
	}
	return nil
}

// Samples reads the metadata of every image in dir without changing anything.
func (r *Runner) Samples(ctx context.Context, dir string) (exiftool.Batch, error) {
	return r.metadata.Read(ctx, dir)
}
