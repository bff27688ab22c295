package config

import (
	"flag"
	"strings"
)

// ParseFlags overlays command-line flags on base. Flags that are not given
// keep the value from base.
func ParseFlags(fs *flag.FlagSet, args []string, base Config) (Config, error) {
	var (
		interval = fs.Duration("interval", base.ScanInterval, "Scan interval")
		count    = fs.Int("count", base.PingCount, "Pings per host per scan")
		timeout  = fs.Duration("timeout", base.PingTimeout, "Per-host ping timeout")
		fping    = fs.String("fping", base.FpingPath, "Path to the fping binary")
		dbPath   = fs.String("db", base.DatabasePath, "Database path")
		port     = fs.Int("port", base.Port, "Web server port")
		logDir   = fs.String("log-dir", base.LogDir, "Log directory")
		logLevel = fs.String("log-level", base.LogLevel, "Log level (debug, info, warn, error)")
		targets  = fs.String("targets", strings.Join(base.Targets, ","), "Comma-separated ping targets")
	)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := base.Clone()
	cfg.Targets = splitList(*targets)
	cfg.ScanInterval = *interval
	cfg.PingCount = *count
	cfg.PingTimeout = *timeout
	cfg.FpingPath = *fping
	cfg.DatabasePath = *dbPath
	cfg.Port = *port
	cfg.LogDir = *logDir
	cfg.LogLevel = *logLevel
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
