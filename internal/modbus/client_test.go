// internal/modbus/client_test.go
package modbus

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	connectErrs []error
	connects    int
	closes      int
}

func (f *fakeHandler) Connect() error {
	f.connects++
	if len(f.connectErrs) > 0 {
		err := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		return err
	}
	return nil
}

func (f *fakeHandler) Close() error {
	f.closes++
	return nil
}

type fakeRegs struct {
	readErrs []error
	reads    int
	regs     []byte

	writeErr  error
	lastWrite []byte
	lastQty   uint16
}

func (f *fakeRegs) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	f.reads++
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.regs, nil
}

func (f *fakeRegs) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	f.lastWrite = value
	f.lastQty = quantity
	return nil, f.writeErr
}

func newTestClient(h *fakeHandler, r *fakeRegs) *Client {
	c := newClient(Config{Host: "10.0.0.5", Port: 8080, UnitID: 1}, zerolog.Nop(), h, r)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{Port: 8080}, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(Config{Host: "h", Port: 0}, zerolog.Nop())
	assert.Error(t, err)

	c, err := New(Config{Host: "h", Port: 502, UnitID: 1, Timeout: time.Second}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, c.Connected())
}

func TestConnectRetriesThenFails(t *testing.T) {
	boom := errors.New("refused")
	h := &fakeHandler{connectErrs: []error{boom, boom, boom}}
	c := newTestClient(h, &fakeRegs{})

	err := c.Connect(context.Background(), 3)

	var ce *ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Attempts)
	assert.Equal(t, 3, h.connects)
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.Connected())
}

func TestConnectSucceedsOnSecondAttempt(t *testing.T) {
	h := &fakeHandler{connectErrs: []error{errors.New("refused")}}
	c := newTestClient(h, &fakeRegs{})

	require.NoError(t, c.Connect(context.Background(), 3))
	assert.True(t, c.Connected())
	assert.Equal(t, 2, h.connects)
}

func TestReadRegistersDecodesBigEndian(t *testing.T) {
	r := &fakeRegs{regs: []byte{0x12, 0x34, 0x00, 0x01}}
	c := newTestClient(&fakeHandler{}, r)

	regs, err := c.ReadRegisters(context.Background(), 0x500, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1234, 0x0001}, regs)
	assert.True(t, c.Connected())
}

func TestReadRegistersRetriesDeviceException(t *testing.T) {
	exc := &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: 4}
	r := &fakeRegs{
		readErrs: []error{exc, exc, nil},
		regs:     []byte{0x00, 0x2A},
	}
	c := newTestClient(&fakeHandler{}, r)

	regs, err := c.ReadRegisters(context.Background(), 0, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{42}, regs)
	assert.Equal(t, 3, r.reads)
}

func TestReadRegistersExhaustsRetries(t *testing.T) {
	exc := &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: 4}
	r := &fakeRegs{readErrs: []error{exc, exc, exc, exc, exc}}
	c := newTestClient(&fakeHandler{}, r)

	_, err := c.ReadRegisters(context.Background(), 0x10, 2, 3)

	var te *TransientIOError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, uint16(0x10), te.Address)
	assert.Equal(t, 4, r.reads)
	assert.True(t, c.Connected())
}

func TestReadRegistersTransportFailureReconnectsAndRetries(t *testing.T) {
	h := &fakeHandler{}
	r := &fakeRegs{readErrs: []error{io.EOF}, regs: []byte{0, 7}}
	c := newTestClient(h, r)

	regs, err := c.ReadRegisters(context.Background(), 0, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{7}, regs)
	assert.Equal(t, 2, r.reads)
	assert.Equal(t, 2, h.connects)
	assert.True(t, c.Connected())
}

func TestReadRegistersTransportFailureExhaustsRetries(t *testing.T) {
	h := &fakeHandler{}
	r := &fakeRegs{readErrs: []error{io.EOF, io.EOF, io.EOF}}
	c := newTestClient(h, r)

	_, err := c.ReadRegisters(context.Background(), 0, 1, 2)

	var te *TransientIOError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 3, r.reads)
	assert.False(t, c.Connected())

	// next call reconnects
	r.regs = []byte{0, 1}
	_, err = c.ReadRegisters(context.Background(), 0, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, h.connects)
}

func TestReadRegistersReconnectFailureIsConnectionError(t *testing.T) {
	boom := errors.New("unreachable")
	h := &fakeHandler{}
	r := &fakeRegs{readErrs: []error{io.EOF}}
	c := newTestClient(h, r)
	c.cfg.ConnectAttempts = 2

	// first connect succeeds, both reconnect attempts fail
	h.connectErrs = []error{nil, boom, boom}

	_, err := c.ReadRegisters(context.Background(), 0, 1, 3)

	var ce *ConnectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, r.reads)
	assert.False(t, c.Connected())
}

func TestReadRegistersShortPayload(t *testing.T) {
	c := newTestClient(&fakeHandler{}, &fakeRegs{regs: []byte{0x00}})

	_, err := c.ReadRegisters(context.Background(), 0, 1, 0)
	var te *TransientIOError
	assert.True(t, errors.As(err, &te))
}

func TestReadRegistersConnectFailure(t *testing.T) {
	boom := errors.New("unreachable")
	h := &fakeHandler{connectErrs: []error{boom, boom, boom}}
	c := newTestClient(h, &fakeRegs{})

	_, err := c.ReadRegisters(context.Background(), 0, 1, 3)
	var ce *ConnectionError
	assert.True(t, errors.As(err, &ce))
}

func TestWriteRegistersPacksValues(t *testing.T) {
	r := &fakeRegs{}
	c := newTestClient(&fakeHandler{}, r)

	require.NoError(t, c.WriteRegisters(context.Background(), 0x550, []uint16{2, 0x8100}))
	assert.Equal(t, uint16(2), r.lastQty)
	assert.Equal(t, []byte{0x00, 0x02, 0x81, 0x00}, r.lastWrite)
}

func TestWriteRegistersFailureIsWriteError(t *testing.T) {
	r := &fakeRegs{writeErr: &modbus.ModbusError{FunctionCode: 0x90, ExceptionCode: 2}}
	c := newTestClient(&fakeHandler{}, r)

	err := c.WriteRegisters(context.Background(), 0x5A0, []uint16{0, 0x8100})
	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, uint16(0x5A0), we.Address)
	assert.Equal(t, []uint16{0, 0x8100}, we.Values)
}

func TestCloseMarksDisconnected(t *testing.T) {
	h := &fakeHandler{}
	c := newTestClient(h, &fakeRegs{})
	require.NoError(t, c.Connect(context.Background(), 1))

	require.NoError(t, c.Close())
	assert.False(t, c.Connected())
}
