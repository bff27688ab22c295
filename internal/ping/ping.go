// Package ping runs the fping bulk probe tool and turns its per-host summary
// lines into structured results.
package ping

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBinary is the probe tool looked up on PATH.
	DefaultBinary = "fping"

	// DefaultDeadlineMargin is added to the per-host timeout to form the
	// wall-clock deadline of one invocation.
	DefaultDeadlineMargin = 10 * time.Second

	// waitDelay bounds how long Wait blocks on inherited pipes after the
	// child has been killed.
	waitDelay = 2 * time.Second

	// fping exit codes for runs that completed.
	exitUnreachable = 1
	exitUnresolved  = 2
)

var (
	// ErrProbeTimeout means the invocation ran past its deadline. Every
	// requested host counts as down for that cycle.
	ErrProbeTimeout = errors.New("probe timed out")

	// ErrProbeUnavailable means the tool is missing, was killed by a signal,
	// or exited with an error code (3 and above).
	ErrProbeUnavailable = errors.New("probe unavailable")

	// ErrInvalidRequest rejects empty host lists and non-positive limits.
	ErrInvalidRequest = errors.New("invalid probe request")
)

// Pinger invokes fping against a batch of hosts
type Pinger struct {
	binary string
	margin time.Duration
}

// Option is a functional option for configuring a Pinger.
type Option func(*Pinger) error

// WithBinary sets the path of the probe executable.
func WithBinary(path string) Option {
	return func(p *Pinger) error {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("binary path must not be empty")
		}
		p.binary = path
		return nil
	}
}

// WithDeadlineMargin sets the slack added on top of the per-host timeout.
func WithDeadlineMargin(d time.Duration) Option {
	return func(p *Pinger) error {
		if d <= 0 {
			return fmt.Errorf("deadline margin must be positive, got %v", d)
		}
		p.margin = d
		return nil
	}
}

// New creates a new Pinger
func New(opts ...Option) (*Pinger, error) {
	p := &Pinger{
		binary: DefaultBinary,
		margin: DefaultDeadlineMargin,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
	}
	return p, nil
}

// Deadline returns the overall wall-clock bound for one invocation.
func (p *Pinger) Deadline(timeoutPerHost time.Duration) time.Duration {
	return timeoutPerHost + p.margin
}

// Probe sends count probes to every host and returns the combined stdout and
// stderr of the tool. fping exits 1 when some host is unreachable and 2 when
// some host cannot be resolved; both are completed runs and the parser marks
// the affected hosts down. Any other exit is a failure.
func (p *Pinger) Probe(ctx context.Context, hosts []string, count int, timeoutPerHost time.Duration) (string, error) {
	args, err := buildArgs(hosts, count, timeoutPerHost)
	if err != nil {
		return "", err
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.Deadline(timeoutPerHost))
	defer cancel()

	cmd := exec.CommandContext(probeCtx, p.binary, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	output := combine(stdout.String(), stderr.String())

	if runErr == nil {
		return output, nil
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("ping: %w", ctx.Err())
	}
	if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: %d hosts after %v", ErrProbeTimeout, len(hosts), p.Deadline(timeoutPerHost))
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		switch exitErr.ExitCode() {
		case exitUnreachable, exitUnresolved:
			return output, nil
		}
	}
	return "", fmt.Errorf("%w: %s: %v", ErrProbeUnavailable, p.binary, runErr)
}

// buildArgs renders the fping argument list. Hosts that look like flags are
// rejected so API-supplied targets can never alter the invocation.
func buildArgs(hosts []string, count int, timeoutPerHost time.Duration) ([]string, error) {
	if len(hosts) == 0 {
		return nil, fmt.Errorf("%w: no hosts", ErrInvalidRequest)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidRequest, count)
	}
	if timeoutPerHost <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidRequest, timeoutPerHost)
	}

	ms := timeoutPerHost.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	args := []string{
		"-c", strconv.Itoa(count),
		"-t", strconv.FormatInt(ms, 10),
		"-q",
	}
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if h == "" || strings.HasPrefix(h, "-") || strings.ContainsAny(h, " \t\r\n") {
			return nil, fmt.Errorf("%w: bad host %q", ErrInvalidRequest, h)
		}
		args = append(args, h)
	}
	return args, nil
}

func combine(stdout, stderr string) string {
	if stdout == "" {
		return stderr
	}
	if !strings.HasSuffix(stdout, "\n") {
		stdout += "\n"
	}
	return stdout + stderr
}
