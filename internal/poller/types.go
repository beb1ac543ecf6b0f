// internal/poller/types.go
package poller

import "time"

// State is the re-entrancy guard of the scheduler.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Cadence names one unit of work a tick can run.
type Cadence string

const (
	CadenceBMU     Cadence = "bmu"
	CadenceBMS     Cadence = "bms"
	CadenceLogs    Cadence = "logs"
	CadenceHistory Cadence = "history"
)

// Skip says why a tick did no work.
type Skip string

const (
	SkipNone    Skip = ""
	SkipBusy    Skip = "busy"
	SkipTooSoon Skip = "too_soon"
)

// HistoryRequest is a pending deep-history pull for one unit.
type HistoryRequest struct {
	Unit  int
	Depth int
}

// TickResult is a snapshot produced by one tick.
type TickResult struct {
	At      time.Time
	Skipped Skip

	// Ran lists the cadences attempted, in order.
	Ran []Cadence

	NewLogs int

	// Err is nil when every attempted cadence succeeded.
	Err error
}
