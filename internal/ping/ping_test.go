package ping

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netdiag/internal/models"
)

// fakeFping writes an executable shell script standing in for fping.
func fakeFping(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fping")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestNew_Defaults(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultBinary, p.binary)
	assert.Equal(t, DefaultDeadlineMargin, p.margin)
	assert.Equal(t, 15*time.Second, p.Deadline(5*time.Second))
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithBinary("  "))
	assert.Error(t, err)

	_, err = New(WithDeadlineMargin(0))
	assert.Error(t, err)
}

func TestBuildArgs(t *testing.T) {
	args, err := buildArgs([]string{"8.8.8.8", " example.com "}, 4, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"-c", "4", "-t", "5000", "-q", "8.8.8.8", "example.com"}, args)
}

func TestBuildArgs_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		hosts   []string
		count   int
		timeout time.Duration
	}{
		{"no hosts", nil, 4, time.Second},
		{"zero count", []string{"8.8.8.8"}, 0, time.Second},
		{"zero timeout", []string{"8.8.8.8"}, 4, 0},
		{"flag injection", []string{"-g"}, 4, time.Second},
		{"empty host", []string{""}, 4, time.Second},
		{"embedded space", []string{"a b"}, 4, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildArgs(tt.hosts, tt.count, tt.timeout)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestProbe_PassesArguments(t *testing.T) {
	bin := fakeFping(t, `printf '%s ' "$@"`)
	p, err := New(WithBinary(bin))
	require.NoError(t, err)

	out, err := p.Probe(context.Background(), []string{"a.example", "b.example"}, 3, 1500*time.Millisecond)
	require.NoError(t, err)
	assert.Contains(t, out, "-c 3 -t 1500 -q a.example b.example")
}

func TestProbe_CombinesStdoutAndStderr(t *testing.T) {
	bin := fakeFping(t, `printf 'banner'
echo "8.8.8.8 : xmt/rcv/%loss = 4/4/0%, min/avg/max = 25.0/28.7/35.1" >&2
echo "9.9.9.9 : xmt/rcv/%loss = 4/0/100%" >&2
exit 1`)
	p, err := New(WithBinary(bin))
	require.NoError(t, err)

	out, err := p.Probe(context.Background(), []string{"8.8.8.8", "9.9.9.9"}, 4, time.Second)
	require.NoError(t, err, "exit status 1 with summaries is not a failure")
	assert.True(t, strings.HasPrefix(out, "banner\n"))
	assert.Contains(t, out, "8.8.8.8 : xmt/rcv/%loss")
	assert.Contains(t, out, "9.9.9.9 : xmt/rcv/%loss")
}

func TestProbe_UnresolvedHostsCompleteTheRun(t *testing.T) {
	bin := fakeFping(t, `echo "nosuch.invalid: Name or service not known" >&2
exit 2`)
	p, err := New(WithBinary(bin))
	require.NoError(t, err)

	out, err := p.Probe(context.Background(), []string{"nosuch.invalid"}, 1, time.Second)
	require.NoError(t, err)
	assert.Contains(t, out, "Name or service not known")

	results := Parse(out, []string{"nosuch.invalid"})
	require.Contains(t, results, "nosuch.invalid")
	assert.Equal(t, models.StatusDown, results["nosuch.invalid"].Status)
	assert.Equal(t, 100.0, results["nosuch.invalid"].PacketLossPct)
}

func TestProbe_UnreachableWithoutSummaryCompletesTheRun(t *testing.T) {
	bin := fakeFping(t, `exit 1`)
	p, err := New(WithBinary(bin))
	require.NoError(t, err)

	_, err = p.Probe(context.Background(), []string{"8.8.8.8"}, 1, time.Second)
	assert.NoError(t, err)
}

func TestProbe_SignalledIsUnavailable(t *testing.T) {
	bin := fakeFping(t, `kill -KILL $$`)
	p, err := New(WithBinary(bin))
	require.NoError(t, err)

	_, err = p.Probe(context.Background(), []string{"8.8.8.8"}, 1, time.Second)
	assert.ErrorIs(t, err, ErrProbeUnavailable)
}

func TestProbe_ErrorExitIsUnavailable(t *testing.T) {
	bin := fakeFping(t, `echo "fping: can't create socket" >&2
exit 4`)
	p, err := New(WithBinary(bin))
	require.NoError(t, err)

	_, err = p.Probe(context.Background(), []string{"8.8.8.8"}, 1, time.Second)
	assert.ErrorIs(t, err, ErrProbeUnavailable)
}

func TestProbe_MissingBinary(t *testing.T) {
	p, err := New(WithBinary(filepath.Join(t.TempDir(), "does-not-exist")))
	require.NoError(t, err)

	_, err = p.Probe(context.Background(), []string{"8.8.8.8"}, 1, time.Second)
	assert.ErrorIs(t, err, ErrProbeUnavailable)
}

func TestProbe_DeadlineExceeded(t *testing.T) {
	bin := fakeFping(t, `exec sleep 5`)
	p, err := New(WithBinary(bin), WithDeadlineMargin(200*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Probe(context.Background(), []string{"8.8.8.8"}, 1, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrProbeTimeout)
	assert.Less(t, time.Since(start), 4*time.Second, "child must be killed at the deadline")
}

func TestProbe_ParentCancelled(t *testing.T) {
	bin := fakeFping(t, `exec sleep 5`)
	p, err := New(WithBinary(bin))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Probe(ctx, []string{"8.8.8.8"}, 1, time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrProbeTimeout))
}

func TestPingerProbe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping fping integration test in short mode")
	}
	if _, err := exec.LookPath(DefaultBinary); err != nil {
		t.Skip("fping binary not available on PATH")
	}

	p, err := New()
	require.NoError(t, err)

	hosts := []string{"127.0.0.1"}
	out, err := p.Probe(context.Background(), hosts, 2, time.Second)
	if err != nil {
		t.Skipf("skipping due to unexpected fping failure: %v", err)
	}

	results := Parse(out, hosts)
	require.Len(t, results, 1)
	t.Logf("fping result: %+v", results["127.0.0.1"])
}
