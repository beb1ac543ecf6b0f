// internal/writer/metrics/exporter.go
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/bydbox-reader/internal/status"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

// Exporter mirrors numeric telemetry into Prometheus gauges.
// Strings (error labels, versions) are not exported.
type Exporter struct {
	registry *prometheus.Registry

	bmu         *prometheus.GaugeVec
	bms         *prometheus.GaugeVec
	cellVoltage *prometheus.GaugeVec
	cellTemp    *prometheus.GaugeVec

	health         prometheus.Gauge
	lastErrorCode  prometheus.Gauge
	secondsInError prometheus.Gauge
	writes         prometheus.Counter
}

// New registers every collector on a private registry.
func New(namespace string) *Exporter {
	e := &Exporter{registry: prometheus.NewRegistry()}

	e.bmu = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bmu_value",
		Help:      "Numeric BMU telemetry by key",
	}, []string{"name"})
	e.bms = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bms_value",
		Help:      "Numeric tower telemetry by key",
	}, []string{"tower", "name"})
	e.cellVoltage = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cell_voltage_millivolts",
		Help:      "Cell voltage (mV)",
	}, []string{"tower", "module", "cell"})
	e.cellTemp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cell_temperature_celsius",
		Help:      "Module temperature sensor (°C)",
	}, []string{"tower", "module", "sensor"})

	e.health = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health",
		Help:      "Session health (0 unknown, 1 ok, 2 error, 3 stale)",
	})
	e.lastErrorCode = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_error_code",
		Help:      "Code of the last error, 0 when healthy",
	})
	e.secondsInError = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "seconds_in_error",
		Help:      "Seconds since the session left the ok state",
	})
	e.writes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telemetry_updates_total",
		Help:      "Telemetry snapshots received",
	})

	e.registry.MustRegister(
		e.bmu, e.bms, e.cellVoltage, e.cellTemp,
		e.health, e.lastErrorCode, e.secondsInError, e.writes,
	)
	return e
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func (e *Exporter) Gatherer() prometheus.Gatherer {
	return e.registry
}

// statusKeys are exported through WriteStatus only.
var statusKeys = map[string]bool{
	status.KeyHealth:         true,
	status.KeyLastErrorCode:  true,
	status.KeySecondsInError: true,
}

func (e *Exporter) Write(_ context.Context, values map[string]telemetry.Value) error {
	e.writes.Inc()

	for key, v := range values {
		if statusKeys[key] {
			continue
		}
		tower, name := telemetry.SplitKey(key)

		switch v.Kind {
		case telemetry.KindNumber:
			if tower == 0 {
				e.bmu.WithLabelValues(name).Set(v.Num)
			} else {
				e.bms.WithLabelValues(strconv.Itoa(tower), name).Set(v.Num)
			}
		case telemetry.KindRecords:
			switch name {
			case "cell_voltages":
				setRows(e.cellVoltage, tower, v.Records, "v")
			case "cell_temps":
				setRows(e.cellTemp, tower, v.Records, "t")
			}
		}
	}
	return nil
}

func (e *Exporter) WriteStatus(s status.Snapshot) error {
	e.health.Set(float64(s.Health))
	e.lastErrorCode.Set(float64(s.LastErrorCode))
	e.secondsInError.Set(float64(s.SecondsInError))
	return nil
}

// setRows exports per-module rows {"m": module, field: []float64}.
func setRows(g *prometheus.GaugeVec, tower int, rows []telemetry.Record, field string) {
	t := strconv.Itoa(tower)
	for _, row := range rows {
		m, ok := row["m"].(int)
		if !ok {
			continue
		}
		values, ok := row[field].([]float64)
		if !ok {
			continue
		}
		module := strconv.Itoa(m)
		for i, v := range values {
			g.WithLabelValues(t, module, strconv.Itoa(i+1)).Set(v)
		}
	}
}
