// internal/poller/builder.go
package poller

import (
	"github.com/rs/zerolog"

	cfg "github.com/tamzrod/bydbox-reader/internal/config"
	"github.com/tamzrod/bydbox-reader/internal/logstore"
	"github.com/tamzrod/bydbox-reader/internal/modbus"
	"github.com/tamzrod/bydbox-reader/internal/reader"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
	"github.com/tamzrod/bydbox-reader/internal/writer"
)

// Build constructs the session, the reader and the poller from config.
// No IO; Start performs the first connect.
// The returned closer releases the Modbus session.
func Build(
	c cfg.Config,
	data *telemetry.Map,
	logs *logstore.Store,
	persister logstore.Persister,
	out *writer.Outputs,
	log zerolog.Logger,
) (*Poller, func() error, error) {
	client, err := modbus.New(modbus.Config{
		Host:            c.Device.Host,
		Port:            c.Device.Port,
		UnitID:          c.Device.UnitID,
		Timeout:         c.Device.Timeout(),
		ConnectAttempts: c.Device.ConnectAttempts,
	}, log.With().Str("component", "modbus").Logger())
	if err != nil {
		return nil, nil, err
	}

	rd := reader.New(client, data, logs, reader.Config{
		ReadRetries:    c.Device.ReadRetries,
		FullBatch:      c.Logs.FullBatch,
		BootstrapDepth: c.Logs.BootstrapDepth,
		SteadyDepth:    c.Logs.SteadyDepth,
		Location:       c.Device.Location(),
	}, log.With().Str("component", "reader").Logger())

	d := Deps{
		Session:   client,
		Reader:    rd,
		Data:      data,
		Logs:      logs,
		Persister: persister,
		Log:       log.With().Str("component", "poller").Logger(),
	}
	if out != nil {
		d.Out = out.Data
		d.Health = out.Status
	}

	p, err := New(Config{
		ScanInterval:    c.Poll.ScanInterval(),
		BMSInterval:     c.Poll.BMSInterval(),
		LogInterval:     c.Poll.LogInterval(),
		MinGap:          c.Poll.MinGap(),
		ConnectAttempts: c.Device.ConnectAttempts,
	}, d)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return p, client.Close, nil
}
