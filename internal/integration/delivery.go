package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/dbin-w/courtwatch/pkg/models"
)

// defaultDeliveryTimeout bounds the messaging CLI when the config does not
// set one.
const defaultDeliveryTimeout = 60 * time.Second

// DeliveryResult captures the outcome of one messaging CLI invocation.
type DeliveryResult struct {
	Delivered bool
	ExitCode  int
	Stderr    string
}

// Deliverer pushes a report to the configured messaging channel.
type Deliverer interface {
	// Deliver invokes the messaging CLI with the given text. Delivered is
	// true only on a zero exit within the timeout. A non-zero exit or a
	// timeout is a normal (non-error) failed result; err is reserved for the
	// command not starting at all.
	Deliver(ctx context.Context, message string) (*DeliveryResult, error)
}

type cliDeliverer struct {
	cfg models.DeliveryConfig
}

// NewDeliverer creates a Deliverer that shells out to the messaging CLI from
// the given config.
func NewDeliverer(cfg models.DeliveryConfig) Deliverer {
	return &cliDeliverer{cfg: cfg}
}

func (d *cliDeliverer) timeout() time.Duration {
	if d.cfg.TimeoutSeconds > 0 {
		return time.Duration(d.cfg.TimeoutSeconds) * time.Second
	}
	return defaultDeliveryTimeout
}

// Deliver runs: <command> <default_args...> message send --target <target>
// --message <text>, capturing output the same way other CLI integrations do.
func (d *cliDeliverer) Deliver(ctx context.Context, message string) (*DeliveryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()

	args := make([]string, 0, len(d.cfg.DefaultArgs)+6)
	args = append(args, d.cfg.DefaultArgs...)
	args = append(args, "message", "send", "--target", d.cfg.Target, "--message", message)

	cmd := exec.CommandContext(ctx, d.cfg.Command, args...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	result := &DeliveryResult{Stderr: stderrBuf.String()}

	if err == nil {
		result.Delivered = true
		return result, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		result.Stderr = "delivery CLI timed out"
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	// Command could not be started (e.g. not found).
	return result, fmt.Errorf("executing %s: %w", d.cfg.Command, err)
}
