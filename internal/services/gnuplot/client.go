package gnuplot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"lenscal/internal/logging"
	"lenscal/internal/services"
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

// WithTimeout bounds each render.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "gnuplot")
	}
}

// Client renders gnuplot scripts.
type Client struct {
	binary  string
	exec    services.Executor
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs a gnuplot client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("gnuplot binary required")
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

// Plot is a script that renders one PDF page.
type Plot interface {
	Script() string
	OutputPath() string
}

// Render writes plot's script to scriptPath and runs gnuplot on it.
func (c *Client) Render(ctx context.Context, scriptPath string, plot Plot) error {
	if err := os.WriteFile(scriptPath, []byte(plot.Script()), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "gnuplot", "write script", scriptPath, err)
	}
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	_, stderr, err := c.exec.Run(runCtx, c.binary, []string{scriptPath})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		detail := strings.TrimSpace(string(stderr))
		if services.IsMissingBinary(err) {
			detail = fmt.Sprintf("%s not found", c.binary)
		}
		return services.Wrap(services.ErrExternalTool, "gnuplot", "render "+scriptPath, detail, err)
	}
	c.logger.Debug("plot rendered", logging.String("script", scriptPath), logging.String("output", plot.OutputPath()))
	return nil
}
