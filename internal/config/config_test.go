package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.DeadlineMargin)
	assert.Equal(t, 4, cfg.PingCount)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no targets is allowed", func(c *Config) { c.Targets = nil }, false},
		{"empty target", func(c *Config) { c.Targets = []string{""} }, true},
		{"flag-like target", func(c *Config) { c.Targets = []string{"-c"} }, true},
		{"target with space", func(c *Config) { c.Targets = []string{"a b"} }, true},
		{"zero interval", func(c *Config) { c.ScanInterval = 0 }, true},
		{"zero count", func(c *Config) { c.PingCount = 0 }, true},
		{"zero timeout", func(c *Config) { c.PingTimeout = 0 }, true},
		{"zero margin", func(c *Config) { c.DeadlineMargin = 0 }, true},
		{"no fping", func(c *Config) { c.FpingPath = "" }, true},
		{"loss over 100", func(c *Config) { c.AlertLossThresholdPct = 101 }, true},
		{"negative latency", func(c *Config) { c.AlertLatencyThresholdMS = -1 }, true},
		{"empty db", func(c *Config) { c.DatabasePath = "" }, true},
		{"negative retention", func(c *Config) { c.Retention = -time.Hour }, true},
		{"bad port", func(c *Config) { c.Port = 70000 }, true},
		{"negative rate", func(c *Config) { c.RateLimitRPS = -1 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"upper-case log level", func(c *Config) { c.LogLevel = "DEBUG" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApply_PartialPatch(t *testing.T) {
	base := Default()
	count := 2
	loss := 10.0
	out := base.Apply(Patch{PingCount: &count, AlertLossThresholdPct: &loss})

	assert.Equal(t, 2, out.PingCount)
	assert.Equal(t, 10.0, out.AlertLossThresholdPct)
	assert.Equal(t, base.Targets, out.Targets)
	assert.Equal(t, base.ScanInterval, out.ScanInterval)
	assert.Equal(t, 4, base.PingCount, "base must not change")
}

func TestDocument(t *testing.T) {
	doc := Default().Document()
	assert.Equal(t, 60.0, doc.ScanIntervalSeconds)
	assert.Equal(t, int64(5000), doc.PingTimeoutMS)
	assert.Equal(t, []string{"8.8.8.8", "1.1.1.1", "localhost"}, doc.Targets)
}

func TestHolder_UpdateValidates(t *testing.T) {
	h := NewHolder(Default())

	bad := 0
	_, err := h.Update(Patch{PingCount: &bad})
	require.Error(t, err)
	assert.Equal(t, 4, h.Load().PingCount)

	good := 8
	cfg, err := h.Update(Patch{PingCount: &good})
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.PingCount)
	assert.Equal(t, 8, h.Load().PingCount)
}

func TestHolder_StoreCopiesSlices(t *testing.T) {
	cfg := Default()
	h := NewHolder(cfg)
	cfg.Targets[0] = "mutated"
	assert.Equal(t, "8.8.8.8", h.Load().Targets[0])
}

func TestHolder_ConcurrentUpdates(t *testing.T) {
	h := NewHolder(Default())
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := h.Update(Patch{PingCount: &n})
			assert.NoError(t, err)
			_ = h.Load().PingCount
		}(i)
	}
	wg.Wait()
	assert.GreaterOrEqual(t, h.Load().PingCount, 1)
}

func TestParseFlags_OverridesOnlyGiven(t *testing.T) {
	base := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)

	cfg, err := ParseFlags(fs, []string{"-count", "2", "-targets", "10.0.0.1, 10.0.0.2,"}, base)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.PingCount)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Targets)
	assert.Equal(t, base.Port, cfg.Port)
	assert.Equal(t, base.PingTimeout, cfg.PingTimeout)
}

func TestParseFlags_Unknown(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	_, err := ParseFlags(fs, []string{"-nope"}, Default())
	assert.Error(t, err)
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netdiag.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, `{
		"targets": ["9.9.9.9"],
		"scan_interval_seconds": 30,
		"ping_count": 3,
		"alert_loss_threshold_pct": 7,
		"alert_latency_threshold_ms": 150
	}`)
	t.Setenv(FileEnv, path)
	t.Setenv("NETDIAG_PING_COUNT", "6")
	t.Setenv("NETDIAG_DB_PATH", filepath.Join(t.TempDir(), "x.db"))
	t.Setenv("NETDIAG_KAFKA_BROKERS", "k1:9092,k2:9092")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, []string{"-port", "8081"})
	require.NoError(t, err)

	assert.Equal(t, []string{"9.9.9.9"}, cfg.Targets, "file")
	assert.Equal(t, 30*time.Second, cfg.ScanInterval, "file")
	assert.Equal(t, 7.0, cfg.AlertLossThresholdPct, "file")
	assert.Equal(t, 6, cfg.PingCount, "env beats file")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8081, cfg.Port, "flag")
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.json"))
	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	assert.Error(t, err)
}

func TestLoad_BadJSON(t *testing.T) {
	t.Setenv(FileEnv, writeFile(t, `{"targets": 5}`))
	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	assert.Error(t, err)
}

func TestLoad_InvalidResult(t *testing.T) {
	t.Setenv(FileEnv, writeFile(t, `{"ping_count": 0}`))
	_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	assert.Error(t, err)
}
