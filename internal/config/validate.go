// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are legal everywhere a default exists.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := cfg.Device
	if strings.TrimSpace(d.Host) == "" {
		return fmt.Errorf("device: host is required")
	}
	if d.Port < 0 || d.Port > 65535 {
		return fmt.Errorf("device: port %d out of range", d.Port)
	}
	if d.UnitID > 247 {
		return fmt.Errorf("device: unit_id %d out of range (1-247)", d.UnitID)
	}
	if d.TimeoutMs < 0 || d.ConnectAttempts < 0 || d.ReadRetries < 0 {
		return fmt.Errorf("device: timeout_ms, connect_attempts and read_retries must not be negative")
	}
	if d.Timezone != "" {
		if _, err := time.LoadLocation(d.Timezone); err != nil {
			return fmt.Errorf("device: timezone %q: %v", d.Timezone, err)
		}
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	p := cfg.Poll
	if p.ScanIntervalS < 0 || p.BMSIntervalS < 0 || p.LogIntervalS < 0 || p.MinGapMs < 0 {
		return fmt.Errorf("poll: intervals must not be negative")
	}
	if p.ScanIntervalS > 0 && d.TimeoutMs > 0 && d.Timeout() >= p.ScanInterval() {
		return fmt.Errorf(
			"device: timeout_ms %d must be shorter than poll.scan_interval_s %d",
			d.TimeoutMs,
			p.ScanIntervalS,
		)
	}
	if p.ScanIntervalS > 0 && p.MinGapMs > 0 && p.MinGap() > p.ScanInterval() {
		return fmt.Errorf("poll: min_gap_ms %d exceeds scan interval", p.MinGapMs)
	}

	// ------------------------------------------------------------
	// LOGS
	// ------------------------------------------------------------

	l := cfg.Logs
	if l.BootstrapDepth < 0 || l.SteadyDepth < 0 || l.FullBatch < 0 {
		return fmt.Errorf("logs: depths and full_batch must not be negative")
	}
	if l.FullBatch > 20 {
		return fmt.Errorf("logs: full_batch %d exceeds the 20 records of one block", l.FullBatch)
	}
	if strings.ContainsAny(l.CSVName, `/\`) {
		return fmt.Errorf("logs: csv_name %q must be a file name", l.CSVName)
	}

	// ------------------------------------------------------------
	// MQTT (OPT-IN)
	// ------------------------------------------------------------

	m := cfg.MQTT
	if m.Enabled {
		if m.Broker == "" {
			return fmt.Errorf("mqtt: broker is required when enabled")
		}
		if m.QoS > 2 {
			return fmt.Errorf("mqtt: qos %d out of range", m.QoS)
		}
		if strings.ContainsAny(m.TopicPrefix, "+#") {
			return fmt.Errorf("mqtt: topic_prefix %q must not contain wildcards", m.TopicPrefix)
		}
	}

	// ------------------------------------------------------------
	// LOGGING
	// ------------------------------------------------------------

	switch cfg.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Output {
	case "", "stdout", "stderr":
	default:
		return fmt.Errorf("logging: output must be stdout or stderr, got %q", cfg.Logging.Output)
	}

	return nil
}
