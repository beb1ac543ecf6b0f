// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultPort            = 8080
	DefaultUnitID          = 1
	DefaultScanIntervalS   = 30
	DefaultBMSIntervalS    = 600
	DefaultLogIntervalS    = 600
	DefaultMinGapMs        = 1000
	MinTimeoutMs           = 3000
	DefaultConnectAttempts = 3
	DefaultReadRetries     = 3

	DefaultLogDir         = "byd_logs"
	DefaultCSVName        = "byd_logs.csv"
	DefaultBootstrapDepth = 7
	DefaultSteadyDepth    = 1
	DefaultFullBatch      = 20

	DefaultTopicPrefix   = "bydbox"
	DefaultClientID      = "bydbox-reader"
	DefaultMetricsListen = ":2112"
	DefaultNamespace     = "bydbox"
)

// Normalize fills defaults in place.
// Call it before Validate so cross-field checks see the effective values.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- device ----

	d := &cfg.Device
	if d.Port == 0 {
		d.Port = DefaultPort
	}
	if d.UnitID == 0 {
		d.UnitID = DefaultUnitID
	}
	if d.ConnectAttempts == 0 {
		d.ConnectAttempts = DefaultConnectAttempts
	}
	if d.ReadRetries == 0 {
		d.ReadRetries = DefaultReadRetries
	}

	// ---- poll ----

	p := &cfg.Poll
	if p.ScanIntervalS == 0 {
		p.ScanIntervalS = DefaultScanIntervalS
	}
	if p.BMSIntervalS == 0 {
		p.BMSIntervalS = DefaultBMSIntervalS
	}
	if p.LogIntervalS == 0 {
		p.LogIntervalS = DefaultLogIntervalS
	}
	if p.MinGapMs == 0 {
		p.MinGapMs = DefaultMinGapMs
	}

	// timeout follows the scan interval: max(3s, scan - 1s)
	if d.TimeoutMs == 0 {
		d.TimeoutMs = p.ScanIntervalS*1000 - 1000
		if d.TimeoutMs < MinTimeoutMs {
			d.TimeoutMs = MinTimeoutMs
		}
	}

	// ---- logs ----

	l := &cfg.Logs
	if l.Dir == "" {
		l.Dir = DefaultLogDir
	}
	if l.CSVName == "" {
		l.CSVName = DefaultCSVName
	}
	if l.BootstrapDepth == 0 {
		l.BootstrapDepth = DefaultBootstrapDepth
	}
	if l.SteadyDepth == 0 {
		l.SteadyDepth = DefaultSteadyDepth
	}
	if l.FullBatch == 0 {
		l.FullBatch = DefaultFullBatch
	}

	// ---- outputs (opt-in) ----

	if cfg.MQTT.Enabled {
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = DefaultTopicPrefix
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = DefaultClientID
		}
	}
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Listen == "" {
			cfg.Metrics.Listen = DefaultMetricsListen
		}
		if cfg.Metrics.Namespace == "" {
			cfg.Metrics.Namespace = DefaultNamespace
		}
	}
}
