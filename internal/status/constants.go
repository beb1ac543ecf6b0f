// internal/status/constants.go
package status

// Session health values published with the telemetry.

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy session.
const HealthOK uint16 = 1

// HealthError means the session is down and every cadence is paused.
const HealthError uint16 = 2

// HealthStale means the session is up but part of the last tick failed,
// so some telemetry keys hold older values.
const HealthStale uint16 = 3

// ---- ERROR CODES ----

// ErrorNone is the last_error_code of a healthy session.
const ErrorNone uint16 = 0

// ErrorGeneric is used for errors that expose no code.
const ErrorGeneric uint16 = 1

const (
	ErrorConnection       uint16 = 2
	ErrorTransientIO      uint16 = 3
	ErrorWrite            uint16 = 4
	ErrorHandshakeTimeout uint16 = 5
	ErrorMalformed        uint16 = 6
	ErrorDecode           uint16 = 7
)

// ---- LIMITS ----

// SecondsInErrorMax is where seconds_in_error saturates.
const SecondsInErrorMax uint16 = 65535

// ---- TELEMETRY KEYS ----

const (
	KeyHealth         = "health"
	KeyLastErrorCode  = "last_error_code"
	KeySecondsInError = "seconds_in_error"
)
