// Package config loads and validates service configuration and publishes
// immutable snapshots of it to running components.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all configuration for the diagnostics service
type Config struct {
	Targets        []string      `envconfig:"TARGETS"`
	ScanInterval   time.Duration `envconfig:"SCAN_INTERVAL"`
	PingCount      int           `envconfig:"PING_COUNT"`
	PingTimeout    time.Duration `envconfig:"PING_TIMEOUT"`
	DeadlineMargin time.Duration `envconfig:"DEADLINE_MARGIN"`
	FpingPath      string        `envconfig:"FPING_PATH"`

	AlertLossThresholdPct   float64 `envconfig:"ALERT_LOSS_THRESHOLD_PCT"`
	AlertLatencyThresholdMS float64 `envconfig:"ALERT_LATENCY_THRESHOLD_MS"`

	DatabasePath        string        `envconfig:"DB_PATH"`
	Retention           time.Duration `envconfig:"RETENTION"`
	MaintenanceSchedule string        `envconfig:"MAINTENANCE_SCHEDULE"`

	Port           int     `envconfig:"PORT"`
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST"`

	LogDir   string `envconfig:"LOG_DIR"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	SlackWebhook   string   `envconfig:"SLACK_WEBHOOK"`
	DiscordWebhook string   `envconfig:"DISCORD_WEBHOOK"`
	WebhookURL     string   `envconfig:"WEBHOOK_URL"`
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic     string   `envconfig:"KAFKA_TOPIC"`

	ServiceName string `envconfig:"SERVICE_NAME"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Targets:                 []string{"8.8.8.8", "1.1.1.1", "localhost"},
		ScanInterval:            60 * time.Second,
		PingCount:               4,
		PingTimeout:             5 * time.Second,
		DeadlineMargin:          10 * time.Second,
		FpingPath:               "fping",
		AlertLossThresholdPct:   5,
		AlertLatencyThresholdMS: 100,
		DatabasePath:            "/data/netdiag.db",
		MaintenanceSchedule:     "@hourly",
		Port:                    5001,
		RateLimitRPS:            10,
		RateLimitBurst:          20,
		LogDir:                  "logs",
		LogLevel:                "info",
		KafkaTopic:              "netdiag-alerts",
		ServiceName:             "netdiag",
	}
}

// Validate checks if the configuration is valid. An empty target list is
// allowed; scheduled scans are then skipped.
func (c *Config) Validate() error {
	for _, t := range c.Targets {
		if err := ValidateTarget(t); err != nil {
			return err
		}
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive")
	}
	if c.PingCount < 1 {
		return fmt.Errorf("ping count must be at least 1")
	}
	if c.PingTimeout <= 0 {
		return fmt.Errorf("ping timeout must be positive")
	}
	if c.DeadlineMargin <= 0 {
		return fmt.Errorf("deadline margin must be positive")
	}
	if c.FpingPath == "" {
		return fmt.Errorf("fping path cannot be empty")
	}
	if c.AlertLossThresholdPct < 0 || c.AlertLossThresholdPct > 100 {
		return fmt.Errorf("loss threshold must be between 0 and 100")
	}
	if c.AlertLatencyThresholdMS < 0 {
		return fmt.Errorf("latency threshold cannot be negative")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention cannot be negative")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// ValidateTarget rejects names that fping would misread.
func ValidateTarget(t string) error {
	switch {
	case strings.TrimSpace(t) == "":
		return fmt.Errorf("target cannot be empty")
	case strings.HasPrefix(t, "-"):
		return fmt.Errorf("target %q cannot start with '-'", t)
	case strings.ContainsAny(t, " \t\r\n"):
		return fmt.Errorf("target %q cannot contain whitespace", t)
	}
	return nil
}

// Clone returns a copy that shares no slices with c.
func (c Config) Clone() Config {
	c.Targets = append([]string(nil), c.Targets...)
	c.KafkaBrokers = append([]string(nil), c.KafkaBrokers...)
	return c
}

// Document is the JSON form of the runtime-tunable settings, used by the
// config file and the HTTP API.
type Document struct {
	Targets                 []string `json:"targets"`
	ScanIntervalSeconds     float64  `json:"scan_interval_seconds"`
	PingCount               int      `json:"ping_count"`
	PingTimeoutMS           int64    `json:"ping_timeout_ms"`
	AlertLossThresholdPct   float64  `json:"alert_loss_threshold_pct"`
	AlertLatencyThresholdMS float64  `json:"alert_latency_threshold_ms"`
}

// Patch is a partial Document; nil fields are left unchanged.
type Patch struct {
	Targets                 *[]string `json:"targets,omitempty"`
	ScanIntervalSeconds     *float64  `json:"scan_interval_seconds,omitempty"`
	PingCount               *int      `json:"ping_count,omitempty"`
	PingTimeoutMS           *int64    `json:"ping_timeout_ms,omitempty"`
	AlertLossThresholdPct   *float64  `json:"alert_loss_threshold_pct,omitempty"`
	AlertLatencyThresholdMS *float64  `json:"alert_latency_threshold_ms,omitempty"`
}

func (c Config) Document() Document {
	targets := append([]string{}, c.Targets...)
	return Document{
		Targets:                 targets,
		ScanIntervalSeconds:     c.ScanInterval.Seconds(),
		PingCount:               c.PingCount,
		PingTimeoutMS:           c.PingTimeout.Milliseconds(),
		AlertLossThresholdPct:   c.AlertLossThresholdPct,
		AlertLatencyThresholdMS: c.AlertLatencyThresholdMS,
	}
}

// Apply returns a copy of c with the patch applied. The result is not
// validated.
func (c Config) Apply(p Patch) Config {
	out := c.Clone()
	if p.Targets != nil {
		out.Targets = append([]string(nil), (*p.Targets)...)
	}
	if p.ScanIntervalSeconds != nil {
		out.ScanInterval = time.Duration(*p.ScanIntervalSeconds * float64(time.Second))
	}
	if p.PingCount != nil {
		out.PingCount = *p.PingCount
	}
	if p.PingTimeoutMS != nil {
		out.PingTimeout = time.Duration(*p.PingTimeoutMS) * time.Millisecond
	}
	if p.AlertLossThresholdPct != nil {
		out.AlertLossThresholdPct = *p.AlertLossThresholdPct
	}
	if p.AlertLatencyThresholdMS != nil {
		out.AlertLatencyThresholdMS = *p.AlertLatencyThresholdMS
	}
	return out
}
