// internal/reader/reader.go
package reader

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/bydbox-reader/internal/logstore"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

// Transport is the register I/O the readers depend on.
// *modbus.Client satisfies it.
type Transport interface {
	ReadRegisters(ctx context.Context, addr, count uint16, retries int) ([]uint16, error)
	WriteRegisters(ctx context.Context, addr uint16, values []uint16) error
}

// Config tunes retry and paging behaviour. Zero values take defaults.
type Config struct {
	ReadRetries int

	// FullBatch is the number of new entries per log block that suggests
	// more unseen history is waiting.
	FullBatch int

	BootstrapDepth int
	SteadyDepth    int

	// Location interprets device timestamps.
	Location *time.Location
}

const (
	DefaultReadRetries    = 3
	DefaultFullBatch      = 20
	DefaultBootstrapDepth = 7
	DefaultSteadyDepth    = 1
)

func (c Config) withDefaults() Config {
	if c.ReadRetries <= 0 {
		c.ReadRetries = DefaultReadRetries
	}
	if c.FullBatch <= 0 {
		c.FullBatch = DefaultFullBatch
	}
	if c.BootstrapDepth <= 0 {
		c.BootstrapDepth = DefaultBootstrapDepth
	}
	if c.SteadyDepth <= 0 {
		c.SteadyDepth = DefaultSteadyDepth
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// Reader drives every device read of one session and writes results into
// the telemetry map and the log store.
type Reader struct {
	io   Transport
	data *telemetry.Map
	logs *logstore.Store
	cfg  Config
	log  zerolog.Logger

	topo Topology

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func New(io Transport, data *telemetry.Map, logs *logstore.Store, cfg Config, log zerolog.Logger) *Reader {
	return &Reader{
		io:    io,
		data:  data,
		logs:  logs,
		cfg:   cfg.withDefaults(),
		log:   log,
		sleep: sleepCtx,
		now:   time.Now,
	}
}

// Topology returns the layout read by Init.
func (r *Reader) Topology() Topology {
	return r.topo
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
