package tcacorrect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lenscal/internal/logging"
	"lenscal/internal/services"
)

// tca_correct prints hugin optimizer options; only the a:b:c:d polynomial
// terms for the red and blue channels are of interest.
var outputPattern = regexp.MustCompile(`-r [.0]+:([-.0-9]+):[.0]+:([-.0-9]+) -b [.0]+:([-.0-9]+):[.0]+:([-.0-9]+)`)

// Coefficients are the poly3 TCA terms: each channel is scaled by
// b*r^2 + v relative to green.
type Coefficients struct {
	BR, VR, BB, VB float64
	// Complex reports whether the quadratic terms were optimized.
	Complex bool
	// Raw is the tool output the coefficients were parsed from.
	Raw string
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

// WithTimeout bounds each invocation.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "tca_correct")
	}
}

// Client wraps the hugin tca_correct tool.
type Client struct {
	binary  string
	exec    services.Executor
	timeout time.Duration
	logger  *slog.Logger
}

// New constructs a tca_correct client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("tca_correct binary required")
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

// Correct measures TCA on a PPM export. With complexTCA set the quadratic terms
// are optimized too (-o bv), otherwise only the linear ones (-o v).
func (c *Client) Correct(ctx context.Context, input string, complexTCA bool) (Coefficients, error) {
	mode := "v"
	if complexTCA {
		mode = "bv"
	}
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	started := time.Now()
	stdout, stderr, err := c.exec.Run(runCtx, c.binary, []string{"-o", mode, input})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Coefficients{}, ctxErr
		}
		detail := strings.TrimSpace(string(stderr))
		if services.IsMissingBinary(err) {
			detail = fmt.Sprintf("%s not found", c.binary)
		}
		return Coefficients{}, services.Wrap(services.ErrExternalTool, "tca_correct", "run", detail, err)
	}
	coeffs, err := Parse(string(stdout))
	if err != nil {
		return Coefficients{}, err
	}
	coeffs.Complex = complexTCA
	c.logger.Debug("tca measured",
		logging.String(logging.FieldImage, input),
		logging.Duration("elapsed", time.Since(started)),
	)
	return coeffs, nil
}

// Parse extracts the red and blue terms from tca_correct output.
func Parse(output string) (Coefficients, error) {
	output = strings.TrimSpace(output)
	m := outputPattern.FindStringSubmatch(output)
	if m == nil {
		return Coefficients{}, services.Wrap(services.ErrParse, "tca_correct", "parse", fmt.Sprintf("no correction data in %q", output), nil)
	}
	var values [4]float64
	for i := range values {
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return Coefficients{}, services.Wrap(services.ErrParse, "tca_correct", "parse", m[i+1], err)
		}
		values[i] = v
	}
	return Coefficients{BR: values[0], VR: values[1], BB: values[2], VB: values[3], Raw: output}, nil
}
