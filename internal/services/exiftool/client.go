package exiftool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"lenscal/internal/lens"
	"lenscal/internal/logging"
	"lenscal/internal/services"
)

var batchArgs = []string{
	"-json",
	"-LensModel", "-LensID", "-LensType", "-LensMake",
	"-Make", "-Model",
	"-FocalLength#", "-FNumber#", "-ScaleFactor35efl#",
	"-AspectRatio",
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithSkipBadFiles switches the batch policy from abort-on-first-error to
// dropping failing files and reporting them in Batch.Failures.
func WithSkipBadFiles(skip bool) Option {
	return func(c *Client) {
		c.skipBad = skip
	}
}

// WithTimeout bounds each exiftool invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger attaches a logger for batch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "exiftool")
	}
}

// Client wraps exiftool CLI interactions.
type Client struct {
	binary  string
	exec    services.Executor
	skipBad bool
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs an exiftool client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("exiftool binary required")
	}
	client := &Client{
		binary: binary,
		exec:   services.CommandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Batch is the outcome of reading one directory. Failures is only populated
// when the client skips bad files.
type Batch struct {
	Samples  []lens.ImageSample
	Failures []error
}

// Read extracts one ImageSample per image file directly inside dir.
func (c *Client) Read(ctx context.Context, dir string) (Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Batch{}, services.Wrap(services.ErrNotFound, "exiftool", "list directory", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || lens.IsIgnored(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return c.ReadFiles(ctx, paths)
}

// ReadFiles extracts metadata for the given files with a single exiftool
// invocation. Results are ordered by path.
func (c *Client) ReadFiles(ctx context.Context, paths []string) (Batch, error) {
	paths = append([]string(nil), paths...)
	sort.Strings(paths)

	var images []string
	for _, path := range paths {
		if lens.IsImageFile(path) {
			images = append(images, path)
		}
	}

	records := map[string]record{}
	if len(images) > 0 {
		decoded, err := c.runBatch(ctx, images)
		if err != nil {
			return Batch{}, err
		}
		records = decoded
	}

	var batch Batch
	for _, path := range paths {
		sample, err := c.sampleFor(path, records)
		if err != nil {
			if !c.skipBad {
				return Batch{}, err
			}
			c.logger.Warn("skipping image", logging.Args(logging.String(logging.FieldImage, path), logging.Error(err))...)
			batch.Failures = append(batch.Failures, err)
			continue
		}
		batch.Samples = append(batch.Samples, sample)
	}
	c.logger.Debug("metadata batch read",
		logging.Int("files", len(paths)),
		logging.Int("samples", len(batch.Samples)),
		logging.Int("failures", len(batch.Failures)),
	)
	return batch, nil
}

func (c *Client) runBatch(ctx context.Context, images []string) (map[string]record, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := append(append([]string(nil), batchArgs...), "--")
	args = append(args, images...)
	stdout, stderr, runErr := c.exec.Run(runCtx, c.binary, args)
	if runErr != nil && services.IsMissingBinary(runErr) {
		return nil, &ExtractionError{Binary: c.binary, ExitCode: -1, Stderr: string(stderr), Err: runErr}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var decoded []record
	if err := json.Unmarshal(stdout, &decoded); err != nil || (runErr != nil && len(decoded) == 0) {
		cause := runErr
		if cause == nil {
			cause = fmt.Errorf("decode json: %w", err)
		}
		return nil, &ExtractionError{Binary: c.binary, ExitCode: services.ExitCode(runErr), Stderr: string(stderr), Err: cause}
	}
	if runErr != nil {
		// exiftool exits 1 when any file fails; per-file errors are in the records.
		c.logger.Debug("exiftool reported per-file errors", logging.Int("exit_code", services.ExitCode(runErr)))
	}

	records := make(map[string]record, len(decoded))
	for _, rec := range decoded {
		records[filepath.Clean(rec.SourceFile)] = rec
	}
	return records, nil
}

func (c *Client) sampleFor(path string, records map[string]record) (lens.ImageSample, error) {
	if !lens.IsImageFile(path) {
		return lens.ImageSample{}, &ParseError{Path: path, Reason: fmt.Sprintf("unsupported file type %q", filepath.Ext(path))}
	}
	rec, ok := records[filepath.Clean(path)]
	if !ok {
		return lens.ImageSample{}, &ParseError{Path: path, Reason: "exiftool returned no metadata"}
	}
	if msg := strings.TrimSpace(rec.Error); msg != "" {
		return lens.ImageSample{}, &ParseError{Path: path, Reason: msg}
	}

	model := rec.lensModel()
	maker, mount := lens.ResolveMakerMount(model, string(rec.LensMake))
	sample := lens.ImageSample{
		Path:        path,
		LensModel:   model,
		LensMaker:   maker,
		Mount:       mount,
		Camera:      strings.TrimSpace(strings.TrimSpace(string(rec.Make)) + " " + strings.TrimSpace(string(rec.Model))),
		FocalLength: float64(rec.FocalLength),
		Aperture:    float64(rec.FNumber),
		CropFactor:  float64(rec.ScaleFactor35efl),
		AspectRatio: strings.TrimSpace(string(rec.AspectRatio)),
		Distance:    math.Inf(1),
	}
	if err := sample.Validate(); err != nil {
		return lens.ImageSample{}, &ParseError{Path: path, Reason: err.Error(), Hint: legacyLensHint(path)}
	}
	return sample, nil
}

func legacyLensHint(path string) string {
	return fmt.Sprintf("lens metadata incomplete; for a manual lens run: lenscal tag --lens 'Maker Model 50mm F1.8' --focal 50 --aperture 8 %s", strconv.Quote(path))
}

// Override sets lens tags on an image that carries none, typically one shot
// with a manual lens.
type Override struct {
	LensModel   string
	FocalLength float64
	Aperture    float64
	// InPlace overwrites the original instead of keeping a _original backup.
	InPlace bool
}

// Tag writes the override tags into path.
func (c *Client) Tag(ctx context.Context, path string, o Override) error {
	if strings.TrimSpace(o.LensModel) == "" || o.FocalLength <= 0 || o.Aperture <= 0 {
		return services.Wrap(services.ErrValidation, "exiftool", "tag", "lens model, focal length and aperture are required", nil)
	}
	args := []string{
		"-Exif:LensModel=" + o.LensModel,
		fmt.Sprintf("-Exif:FocalLength=%s mm", lens.FormatFocal(o.FocalLength)),
		"-Exif:FNumber=" + strconv.FormatFloat(o.Aperture, 'g', -1, 64),
	}
	if o.InPlace {
		args = append(args, "-overwrite_original")
	}
	args = append(args, "--", path)

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	_, stderr, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "exiftool", "tag", strings.TrimSpace(string(stderr)), err)
	}
	c.logger.Info("lens tags written", logging.String(logging.FieldImage, path), logging.String("lens", o.LensModel))
	return nil
}
