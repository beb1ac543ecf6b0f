// internal/config/validate_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to build a minimal valid config quickly
func minimal() *Config {
	return &Config{Device: DeviceConfig{Host: "192.168.16.254"}}
}

// ---- tests ----

func TestValidate_MinimalIsValid(t *testing.T) {
	assert.NoError(t, Validate(minimal()))
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"missing host":      func(c *Config) { c.Device.Host = " " },
		"port range":        func(c *Config) { c.Device.Port = 70000 },
		"unit id range":     func(c *Config) { c.Device.UnitID = 250 },
		"negative retries":  func(c *Config) { c.Device.ReadRetries = -1 },
		"bad timezone":      func(c *Config) { c.Device.Timezone = "Mars/Olympus" },
		"negative interval": func(c *Config) { c.Poll.BMSIntervalS = -5 },
		"timeout >= scan": func(c *Config) {
			c.Poll.ScanIntervalS = 5
			c.Device.TimeoutMs = 5000
		},
		"full batch > block": func(c *Config) { c.Logs.FullBatch = 21 },
		"csv path":           func(c *Config) { c.Logs.CSVName = "../x.csv" },
		"mqtt no broker":     func(c *Config) { c.MQTT.Enabled = true },
		"mqtt qos":           func(c *Config) { c.MQTT = MQTTConfig{Enabled: true, Broker: "tcp://b:1883", QoS: 3} },
		"mqtt wildcard": func(c *Config) {
			c.MQTT = MQTTConfig{Enabled: true, Broker: "tcp://b:1883", TopicPrefix: "byd/#"}
		},
		"log level":  func(c *Config) { c.Logging.Level = "loud" },
		"log output": func(c *Config) { c.Logging.Output = "file" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := minimal()
			mutate(c)
			assert.Error(t, Validate(c))
		})
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	c := minimal()
	before := *c
	require.NoError(t, Validate(c))
	assert.Equal(t, before, *c)
}

func TestNormalize_Defaults(t *testing.T) {
	c := minimal()
	require.NoError(t, Validate(c))
	Normalize(c)

	assert.Equal(t, 8080, c.Device.Port)
	assert.Equal(t, uint8(1), c.Device.UnitID)
	assert.Equal(t, 29000, c.Device.TimeoutMs)
	assert.Equal(t, 3, c.Device.ConnectAttempts)
	assert.Equal(t, 3, c.Device.ReadRetries)
	assert.Equal(t, 30, c.Poll.ScanIntervalS)
	assert.Equal(t, 600, c.Poll.BMSIntervalS)
	assert.Equal(t, 600, c.Poll.LogIntervalS)
	assert.Equal(t, 1000, c.Poll.MinGapMs)
	assert.Equal(t, 7, c.Logs.BootstrapDepth)
	assert.Equal(t, 1, c.Logs.SteadyDepth)
	assert.Equal(t, 20, c.Logs.FullBatch)
	assert.Equal(t, "byd_logs", c.Logs.Dir)

	// outputs stay off unless asked for
	assert.Empty(t, c.MQTT.TopicPrefix)
	assert.Empty(t, c.Metrics.Listen)
}

func TestNormalizeThenValidate_UsesEffectiveScanInterval(t *testing.T) {
	c := minimal()
	c.Device.TimeoutMs = 40000

	// scan interval unset: nothing to compare against yet
	require.NoError(t, Validate(c))

	Normalize(c)
	assert.Equal(t, 30, c.Poll.ScanIntervalS)
	assert.Error(t, Validate(c))
}

func TestNormalize_TimeoutFloor(t *testing.T) {
	c := minimal()
	c.Poll.ScanIntervalS = 2
	Normalize(c)
	assert.Equal(t, MinTimeoutMs, c.Device.TimeoutMs)
}

func TestNormalize_OutputsOptIn(t *testing.T) {
	c := minimal()
	c.MQTT = MQTTConfig{Enabled: true, Broker: "tcp://b:1883"}
	c.Metrics.Enabled = true
	Normalize(c)

	assert.Equal(t, "bydbox", c.MQTT.TopicPrefix)
	assert.Equal(t, "bydbox-reader", c.MQTT.ClientID)
	assert.Equal(t, ":2112", c.Metrics.Listen)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bydbox.yaml")
	body := `
device:
  host: 10.0.0.5
  unit_id: 1
poll:
  scan_interval_s: 10
mqtt:
  enabled: true
  broker: tcp://broker:1883
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", c.Device.Host)
	assert.Equal(t, 10, c.Poll.ScanIntervalS)
	assert.True(t, c.MQTT.Enabled)
	assert.Equal(t, "debug", c.Logging.Level)
	require.NoError(t, Validate(c))
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte("device:\n  hostname: x\n"))
	assert.Error(t, err)
}
