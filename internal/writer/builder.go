// internal/writer/builder.go
package writer

import (
	"github.com/juju/errors"
	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/bydbox-reader/internal/config"
	"github.com/tamzrod/bydbox-reader/internal/writer/metrics"
	wmqtt "github.com/tamzrod/bydbox-reader/internal/writer/mqtt"
)

// Outputs are the presentation collaborators built from config.
type Outputs struct {
	Data   Writer
	Status StatusWriter

	// Metrics is nil unless enabled.
	Metrics *metrics.Exporter

	mqtt    *wmqtt.Publisher
	closers []func() error
}

// Build creates every enabled output. MQTT connects here and fails fast.
func Build(c cfg.Config, log zerolog.Logger) (*Outputs, error) {
	out := &Outputs{}

	var (
		data   []Writer
		health []StatusWriter
	)

	if c.MQTT.Enabled {
		p := wmqtt.New(wmqtt.Config{
			Broker:      c.MQTT.Broker,
			ClientID:    c.MQTT.ClientID,
			Username:    c.MQTT.Username,
			Password:    c.MQTT.Password,
			TopicPrefix: c.MQTT.TopicPrefix,
			QoS:         c.MQTT.QoS,
			Retain:      c.MQTT.Retain,
		}, log.With().Str("output", "mqtt").Logger())
		if err := p.Connect(); err != nil {
			return nil, errors.Annotatef(err, "mqtt broker %s", c.MQTT.Broker)
		}
		out.mqtt = p
		out.closers = append(out.closers, p.Close)
		data = append(data, p)
		health = append(health, OnChange(p))
	}

	if c.Metrics.Enabled {
		e := metrics.New(c.Metrics.Namespace)
		out.Metrics = e
		data = append(data, e)
		health = append(health, e)
	}

	out.Data = Multi(data...)
	out.Status = MultiStatus(health...)
	return out, nil
}

// Listen routes remote deep-history commands to h. It is a no-op without MQTT.
func (o *Outputs) Listen(h HistoryHandler) error {
	if o.mqtt == nil {
		return nil
	}
	return o.mqtt.Subscribe(h)
}

// Close closes outputs in reverse build order and returns the last error.
func (o *Outputs) Close() error {
	var last error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			last = err
		}
	}
	return last
}
