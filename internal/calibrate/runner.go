package calibrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lenscal/internal/config"
	"lenscal/internal/fit"
	"lenscal/internal/logging"
	"lenscal/internal/services"
	"lenscal/internal/services/darktable"
	"lenscal/internal/services/exiftool"
	"lenscal/internal/services/gnuplot"
	"lenscal/internal/services/tcacorrect"
	"lenscal/internal/store"
	"lenscal/internal/workspace"
)

// MetadataReader reads lens metadata from calibration images.
type MetadataReader interface {
	Read(ctx context.Context, dir string) (exiftool.Batch, error)
	Tag(ctx context.Context, path string, o exiftool.Override) error
}

// Exporter renders raw files with darktable.
type Exporter interface {
	Export(ctx context.Context, req darktable.ExportRequest) (bool, error)
}

// TCAMeasurer measures chromatic aberration of an exported image.
type TCAMeasurer interface {
	Correct(ctx context.Context, input string, complexTCA bool) (tcacorrect.Coefficients, error)
}

// Plotter renders plot pages.
type Plotter interface {
	Render(ctx context.Context, scriptPath string, plot gnuplot.Plot) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetadataReader replaces the exiftool client.
func WithMetadataReader(m MetadataReader) Option {
	return func(r *Runner) { r.metadata = m }
}

// WithExporter replaces the darktable client.
func WithExporter(e Exporter) Option {
	return func(r *Runner) { r.exporter = e }
}

// WithTCAMeasurer replaces the tca_correct client.
func WithTCAMeasurer(m TCAMeasurer) Option {
	return func(r *Runner) { r.tca = m }
}

// WithPlotter replaces the gnuplot client.
func WithPlotter(p Plotter) Option {
	return func(r *Runner) { r.plotter = p }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for generated file names.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// Runner executes calibration actions for one workspace.
type Runner struct {
	cfg      *config.Config
	ws       workspace.Workspace
	store    *store.Store
	metadata MetadataReader
	exporter Exporter
	tca      TCAMeasurer
	plotter  Plotter
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a Runner. Tool clients default to the real binaries named in
// cfg. st may be nil for actions that do not touch stored results (init,
// tag, samples).
func New(cfg *config.Config, st *store.Store, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	r := &Runner{
		cfg:    cfg,
		ws:     workspace.New(cfg.Paths.WorkDir),
		store:  st,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	timeout := cfg.ToolTimeout()
	if r.metadata == nil {
		client, err := exiftool.New(cfg.Tools.Exiftool,
			exiftool.WithSkipBadFiles(cfg.SkipBadFiles()),
			exiftool.WithTimeout(timeout),
			exiftool.WithLogger(r.logger),
		)
		if err != nil {
			return nil, err
		}
		r.metadata = client
	}
	if r.exporter == nil {
		client, err := darktable.New(cfg.Tools.DarktableCLI, darktable.WithTimeout(timeout), darktable.WithLogger(r.logger))
		if err != nil {
			return nil, err
		}
		r.exporter = client
	}
	if r.tca == nil {
		client, err := tcacorrect.New(cfg.Tools.TCACorrect, tcacorrect.WithTimeout(timeout), tcacorrect.WithLogger(r.logger))
		if err != nil {
			return nil, err
		}
		r.tca = client
	}
	if r.plotter == nil {
		client, err := gnuplot.New(cfg.Tools.Gnuplot, gnuplot.WithTimeout(timeout), gnuplot.WithLogger(r.logger))
		if err != nil {
			return nil, err
		}
		r.plotter = client
	}
	return r, nil
}

// Workspace returns the workspace the runner operates on.
func (r *Runner) Workspace() workspace.Workspace {
	return r.ws
}

func (r *Runner) fitOptions() fit.Options {
	return fit.Options{
		MaxIterations:     r.cfg.Fit.MaxIterations,
		GradientThreshold: r.cfg.Fit.GradientThreshold,
	}
}

// execute holds the workspace lock and records the action as a run around fn.
func (r *Runner) execute(ctx context.Context, action string, fn func(context.Context, *slog.Logger, *store.Run) error) error {
	if r.store == nil {
		return fmt.Errorf("%s: results store is required", action)
	}
	lock, err := workspace.AcquireLock(r.cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("failed to release workspace lock", logging.Error(err))
		}
	}()

	run, err := r.store.BeginRun(ctx, action)
	if err != nil {
		return err
	}
	actionCtx := services.WithAction(services.WithRunID(ctx, run.ID), action)
	logger := logging.WithContext(actionCtx, r.logger)
	started := time.Now()
	logger.Info("action started", logging.String("workspace", r.ws.Root))

	runErr := fn(actionCtx, logger, run)

	// Record the outcome even when the action context was cancelled.
	if err := r.store.FinishRun(context.WithoutCancel(ctx), run, runErr); err != nil {
		logger.Warn("failed to record run outcome", logging.Error(err))
	}
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			logger.Error("action failed", logging.Failure(runErr)...)
		}
		return runErr
	}
	logger.Info("action completed", logging.Duration("elapsed", time.Since(started)))
	return nil
}

// logFailures reports images the metadata reader skipped.
func logFailures(logger *slog.Logger, batch exiftool.Batch) {
	for _, failure := range batch.Failures {
		attrs := logging.Failure(failure)
		var parseErr *exiftool.ParseError
		if errors.As(failure, &parseErr) && parseErr.Hint != "" {
			attrs = append(attrs, logging.String("hint", parseErr.Hint))
		}
		logger.Warn("image skipped", attrs...)
	}
}
