// internal/config/config.go
package config

import (
	"time"

	"github.com/tamzrod/bydbox-reader/internal/logging"
)

type Config struct {
	Device  DeviceConfig   `yaml:"device"`
	Poll    PollConfig     `yaml:"poll"`
	Logs    LogsConfig     `yaml:"logs"`
	MQTT    MQTTConfig     `yaml:"mqtt"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Logging logging.Config `yaml:"logging"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`

	ConnectAttempts int `yaml:"connect_attempts"`
	ReadRetries     int `yaml:"read_retries"`

	// Timezone interprets log timestamps. Empty means local time.
	Timezone string `yaml:"timezone"`
}

func (d DeviceConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutMs) * time.Millisecond
}

// Location resolves Timezone. Validate has already checked it.
func (d DeviceConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ---- POLL ----

type PollConfig struct {
	ScanIntervalS int `yaml:"scan_interval_s"`
	BMSIntervalS  int `yaml:"bms_interval_s"`
	LogIntervalS  int `yaml:"log_interval_s"`
	MinGapMs      int `yaml:"min_gap_ms"`
}

func (p PollConfig) ScanInterval() time.Duration {
	return time.Duration(p.ScanIntervalS) * time.Second
}

func (p PollConfig) BMSInterval() time.Duration {
	return time.Duration(p.BMSIntervalS) * time.Second
}

func (p PollConfig) LogInterval() time.Duration {
	return time.Duration(p.LogIntervalS) * time.Second
}

func (p PollConfig) MinGap() time.Duration {
	return time.Duration(p.MinGapMs) * time.Millisecond
}

// ---- LOGS ----

type LogsConfig struct {
	Dir     string `yaml:"dir"`
	CSVName string `yaml:"csv_name"`

	BootstrapDepth int `yaml:"bootstrap_depth"`
	SteadyDepth    int `yaml:"steady_depth"`
	FullBatch      int `yaml:"full_batch"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Namespace string `yaml:"namespace"`
}
