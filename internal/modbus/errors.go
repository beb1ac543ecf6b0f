// internal/modbus/errors.go
package modbus

import (
	"fmt"

	"github.com/tamzrod/bydbox-reader/internal/status"
)

// ConnectionError means the session could not be (re)established.
type ConnectionError struct {
	Host     string
	Port     int
	UnitID   uint8
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("modbus: connect %s:%d unit %d failed after %d attempts: %v",
		e.Host, e.Port, e.UnitID, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Code() uint16 { return status.ErrorConnection }

// TransientIOError is a soft read failure. Callers treat it as "no data".
type TransientIOError struct {
	Address uint16
	Count   uint16
	UnitID  uint8
	Err     error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("modbus: read addr=0x%04X count=%d unit=%d: %v",
		e.Address, e.Count, e.UnitID, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }

func (e *TransientIOError) Code() uint16 { return status.ErrorTransientIO }

// WriteError is a failed register write. Writes are never retried.
type WriteError struct {
	Address uint16
	Values  []uint16
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("modbus: write addr=0x%04X values=%v: %v", e.Address, e.Values, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Code() uint16 { return status.ErrorWrite }
