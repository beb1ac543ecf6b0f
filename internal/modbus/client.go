// internal/modbus/client.go
package modbus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	jerrors "github.com/juju/errors"
	"github.com/rs/zerolog"
)

// RetryInterval is the pause between connect attempts and between read retries.
const RetryInterval = 200 * time.Millisecond

// DefaultConnectAttempts is used by EnsureConnected.
const DefaultConnectAttempts = 3

// Config is minimal transport config.
type Config struct {
	Host    string
	Port    int
	UnitID  uint8
	Timeout time.Duration

	// ConnectAttempts bounds reconnects done by EnsureConnected.
	ConnectAttempts int
}

func (c Config) address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// handler is the lifecycle half of a goburrow client handler.
type handler interface {
	Connect() error
	Close() error
}

// registerClient is the subset of modbus.Client the session needs.
type registerClient interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Client is one Modbus TCP session to one device.
// All register operations are serialized by mu.
type Client struct {
	cfg    Config
	log    zerolog.Logger
	handle handler
	client registerClient

	mu        sync.Mutex
	connected bool

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a TCP session. No IO.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("modbus client: host required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("modbus client: invalid port %d", cfg.Port)
	}

	h := modbus.NewTCPClientHandler(cfg.address())
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	return newClient(cfg, log, h, modbus.NewClient(h)), nil
}

func newClient(cfg Config, log zerolog.Logger, h handler, rc registerClient) *Client {
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = DefaultConnectAttempts
	}
	return &Client{
		cfg:    cfg,
		log:    log.With().Str("host", cfg.Host).Int("port", cfg.Port).Uint8("unit", cfg.UnitID).Logger(),
		handle: h,
		client: rc,
		sleep:  sleepCtx,
	}
}

// Connect opens the link, trying up to maxAttempts times RetryInterval apart.
func (c *Client) Connect(ctx context.Context, maxAttempts int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx, maxAttempts)
}

// EnsureConnected reconnects when the link is down.
func (c *Client) EnsureConnected(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureLocked(ctx)
}

func (c *Client) ensureLocked(ctx context.Context) error {
	if c.connected {
		return nil
	}
	c.log.Warn().Msg("modbus client is not connected, reconnecting")
	return c.connectLocked(ctx, c.cfg.ConnectAttempts)
}

func (c *Client) connectLocked(ctx context.Context, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			c.log.Debug().Int("attempt", attempt).Int("of", maxAttempts).Msg("connect retry")
			if err := c.sleep(ctx, RetryInterval); err != nil {
				lastErr = err
				break
			}
		}

		// stale socket from a previous session
		_ = c.handle.Close()

		if err := c.handle.Connect(); err != nil {
			lastErr = err
			continue
		}

		c.connected = true
		c.log.Debug().Msg("connected")
		return nil
	}

	c.connected = false
	return &ConnectionError{
		Host:     c.cfg.Host,
		Port:     c.cfg.Port,
		UnitID:   c.cfg.UnitID,
		Attempts: maxAttempts,
		Err:      lastErr,
	}
}

// ReadRegisters performs an FC3 read.
// Device exceptions and transport failures are retried up to retries times,
// RetryInterval apart. A transport failure drops the session, which is
// reconnected before the next attempt; a failed reconnect ends the call with
// *ConnectionError. Any other failure surfaces as *TransientIOError.
func (c *Client) ReadRegisters(ctx context.Context, addr, count uint16, retries int) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(ctx); err != nil {
		return nil, jerrors.Trace(err)
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, RetryInterval); err != nil {
				lastErr = err
				break
			}
			if err := c.ensureLocked(ctx); err != nil {
				c.log.Error().Err(err).Uint16("address", addr).Uint16("count", count).Msg("reconnect failed during read")
				return nil, jerrors.Trace(err)
			}
		}

		raw, err := c.client.ReadHoldingRegisters(addr, count)
		if err == nil {
			regs, derr := unpackRegisters(raw, count)
			if derr == nil {
				return regs, nil
			}
			c.log.Error().Err(derr).Uint16("address", addr).Uint16("count", count).Msg("malformed register payload")
			return nil, c.readError(addr, count, derr)
		}
		lastErr = err

		switch {
		case isDeviceException(err):
			c.log.Warn().Err(err).Int("attempt", attempt).Uint16("address", addr).Msg("device exception, retrying")
		case isTransient(err):
			c.markDisconnected()
			c.log.Warn().Err(err).Int("attempt", attempt).Uint16("address", addr).Msg("io error, reconnecting")
		default:
			c.log.Error().Err(err).Uint16("address", addr).Uint16("count", count).Msg("io error reading registers")
			return nil, c.readError(addr, count, err)
		}
	}

	c.log.Error().Err(lastErr).Uint16("address", addr).Uint16("count", count).Msg("final failure reading registers")
	return nil, c.readError(addr, count, lastErr)
}

// WriteRegisters performs an FC16 write. Never retried.
func (c *Client) WriteRegisters(ctx context.Context, addr uint16, values []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLocked(ctx); err != nil {
		return jerrors.Trace(err)
	}

	if _, err := c.client.WriteMultipleRegisters(addr, uint16(len(values)), packRegisters(values)); err != nil {
		if isTransient(err) {
			c.markDisconnected()
		}
		return &WriteError{Address: addr, Values: append([]uint16(nil), values...), Err: err}
	}
	return nil
}

// Close drops the link. The session may be reconnected later.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return c.handle.Close()
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) markDisconnected() {
	c.connected = false
	_ = c.handle.Close()
}

func (c *Client) readError(addr, count uint16, err error) error {
	return &TransientIOError{Address: addr, Count: count, UnitID: c.cfg.UnitID, Err: err}
}

// ---- helpers ----

func isDeviceException(err error) bool {
	var mbErr *modbus.ModbusError
	return errors.As(err, &mbErr)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "connection") ||
		strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "reset") ||
		strings.Contains(s, "closed") ||
		strings.Contains(s, "eof") ||
		strings.Contains(s, "i/o") ||
		strings.Contains(s, "timeout")
}

func unpackRegisters(data []byte, count uint16) ([]uint16, error) {
	if len(data) != int(count)*2 {
		return nil, fmt.Errorf("modbus: short read: got %d bytes, want %d", len(data), int(count)*2)
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out, nil
}

func packRegisters(values []uint16) []byte {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		b[2*i] = byte(v >> 8)
		b[2*i+1] = byte(v)
	}
	return b
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
