package darktable

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lenscal/internal/logging"
	"lenscal/internal/services"
)

//go:embed sidecars/*.xmp
var sidecars embed.FS

// Purpose selects the processing history and export settings for a run.
type Purpose string

const (
	// Distortion exports 16-bit sRGB TIFFs for hugin with a neutral base curve.
	Distortion Purpose = "distortion"
	// TCA exports camera RGB PPMs with every tone operation disabled.
	TCA Purpose = "tca"
	// Vignetting exports small linear images for radial sampling.
	Vignetting Purpose = "vignetting"
)

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

// WithTimeout bounds each export.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "darktable")
	}
}

// Client wraps darktable-cli exports.
type Client struct {
	binary  string
	exec    services.Executor
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs a darktable-cli client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("darktable-cli binary required")
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

// WriteSidecar writes the XMP history for purpose into dir as
// <purpose>.xmp unless it already exists, and returns its path.
func WriteSidecar(dir string, purpose Purpose) (string, error) {
	data, err := sidecars.ReadFile("sidecars/" + string(purpose) + ".xmp")
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "darktable", "sidecar", fmt.Sprintf("unknown purpose %q", purpose), err)
	}
	path := filepath.Join(dir, string(purpose)+".xmp")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "darktable", "sidecar", path, err)
	}
	return path, nil
}

// ExportRequest describes one darktable-cli export.
type ExportRequest struct {
	Purpose Purpose
	Input   string
	Sidecar string
	Output  string
	// Width limits the export width in pixels. Zero keeps the full size.
	Width int
}

// Export renders req.Input into req.Output. It reports false without running
// darktable-cli when the output already exists.
func (c *Client) Export(ctx context.Context, req ExportRequest) (bool, error) {
	if req.Input == "" || req.Output == "" || req.Sidecar == "" {
		return false, services.Wrap(services.ErrValidation, "darktable", "export", "input, sidecar and output are required", nil)
	}
	if _, err := os.Stat(req.Output); err == nil {
		c.logger.Debug("export exists", logging.String(logging.FieldImage, req.Input), logging.String("output", req.Output))
		return false, nil
	}

	configDir, err := os.MkdirTemp("", "lenscal_dt_")
	if err != nil {
		return false, services.Wrap(services.ErrExternalTool, "darktable", "export", "create config dir", err)
	}
	defer os.RemoveAll(configDir)

	args, err := exportArgs(req, configDir)
	if err != nil {
		return false, err
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	c.logger.Info("exporting image",
		logging.String(logging.FieldImage, req.Input),
		logging.String("purpose", string(req.Purpose)),
		logging.String("output", req.Output),
	)
	stdout, stderr, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = strings.TrimSpace(string(stdout))
		}
		if services.IsMissingBinary(err) {
			detail = fmt.Sprintf("%s not found", c.binary)
		}
		return false, services.Wrap(services.ErrExternalTool, "darktable", "export "+filepath.Base(req.Input), detail, err)
	}
	if _, err := os.Stat(req.Output); err != nil {
		return false, services.Wrap(services.ErrExternalTool, "darktable", "export "+filepath.Base(req.Input), "no output written", err)
	}
	return true, nil
}

func exportArgs(req ExportRequest, configDir string) ([]string, error) {
	args := []string{req.Input, req.Sidecar, req.Output}
	if req.Width > 0 {
		args = append(args, "--width", strconv.Itoa(req.Width))
	}
	args = append(args, "--core", "--configdir", configDir)

	switch req.Purpose {
	case Distortion:
		args = append(args,
			"--conf", "plugins/lighttable/export/iccintent=0",
			"--conf", "plugins/lighttable/export/iccprofile=sRGB",
			"--conf", "plugins/lighttable/export/style=none",
			"--conf", "plugins/imageio/format/tiff/bpp=16",
			"--conf", "plugins/imageio/format/tiff/compress=5",
		)
	case TCA:
		args = append(args,
			"--conf", "plugins/lighttable/export/iccprofile=image",
			"--conf", "plugins/lighttable/export/style=none",
		)
	case Vignetting:
		args = append(args,
			"--conf", "plugins/lighttable/export/iccprofile=image",
			"--conf", "plugins/lighttable/export/style=none",
		)
		if strings.EqualFold(filepath.Ext(req.Output), ".tif") {
			args = append(args, "--conf", "plugins/imageio/format/tiff/bpp=16")
		}
	default:
		return nil, services.Wrap(services.ErrValidation, "darktable", "export", fmt.Sprintf("unknown purpose %q", req.Purpose), nil)
	}
	return args, nil
}
