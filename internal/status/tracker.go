// internal/status/tracker.go
package status

import "sync"

// Tracker owns the Snapshot of one session.
// Observe is called after each tick, Second on a 1 Hz ticker.
type Tracker struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Observe folds a tick outcome into the snapshot and reports whether it changed.
// A tick that failed only partially is stale, a connection failure is an error.
func (t *Tracker) Observe(err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err == nil {
		// Recovery / OK
		changed := false
		if t.snap.Health != HealthOK {
			t.snap.Health = HealthOK
			changed = true
		}
		if t.snap.LastErrorCode != ErrorNone {
			t.snap.LastErrorCode = ErrorNone
			changed = true
		}
		if t.snap.SecondsInError != 0 {
			t.snap.SecondsInError = 0
			changed = true
		}
		return changed
	}

	changed := false
	code := ErrorCode(err)
	health := HealthStale
	if code == ErrorConnection {
		health = HealthError
	}
	if t.snap.Health != health {
		t.snap.Health = health
		changed = true
	}
	if t.snap.LastErrorCode != code {
		t.snap.LastErrorCode = code
		changed = true
	}
	// seconds_in_error only moves in Second
	return changed
}

// Second advances seconds_in_error while not OK. It saturates instead of wrapping.
func (t *Tracker) Second() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.Health == HealthOK || t.snap.SecondsInError >= SecondsInErrorMax {
		return false
	}
	t.snap.SecondsInError++
	return true
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}
