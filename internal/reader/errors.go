// internal/reader/errors.go
package reader

import (
	"fmt"
	"time"

	"github.com/tamzrod/bydbox-reader/internal/status"
)

// HandshakeTimeoutError means the ready flag never showed up.
type HandshakeTimeoutError struct {
	Op      string
	Unit    int
	Address uint16
	Want    uint16
	Last    uint16
	Waited  time.Duration
}

func (e *HandshakeTimeoutError) Error() string {
	return fmt.Sprintf("%s unit %d: ready flag 0x%04X not seen at 0x%04X after %s (last 0x%04X)",
		e.Op, e.Unit, e.Want, e.Address, e.Waited, e.Last)
}

func (e *HandshakeTimeoutError) Code() uint16 { return status.ErrorHandshakeTimeout }

// MalformedResponseError rejects a whole block before anything is decoded.
type MalformedResponseError struct {
	Op     string
	Unit   int
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s unit %d: malformed response: %s", e.Op, e.Unit, e.Reason)
}

func (e *MalformedResponseError) Code() uint16 { return status.ErrorMalformed }

// DecodeError rejects a single log sub-record.
type DecodeError struct {
	Unit   int
	Record int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("log unit %d record %d: %s", e.Unit, e.Record, e.Reason)
}

func (e *DecodeError) Code() uint16 { return status.ErrorDecode }
