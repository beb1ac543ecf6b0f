// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tamzrod/bydbox-reader/internal/status"
)

// changeStatusWriter forwards a snapshot only when it differs from the last
// delivered one.
type changeStatusWriter struct {
	mu   sync.Mutex
	next StatusWriter

	needFull bool
	last     status.Snapshot
}

// OnChange wraps next so unchanged snapshots are not re-delivered.
// The first snapshot is always delivered.
func OnChange(next StatusWriter) StatusWriter {
	return &changeStatusWriter{
		next:     next,
		needFull: true, // full re-assert on first successful write
	}
}

// WriteStatus delivers s if it changed.
// On any write failure, the next call re-asserts regardless of change.
func (sw *changeStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.next == nil {
		return errors.New("status writer: disabled")
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if !sw.needFull && sw.last == s {
		return nil
	}

	if err := sw.next.WriteStatus(s); err != nil {
		// Any failure introduces doubt: re-assert on next call.
		sw.needFull = true
		return fmt.Errorf("status writer: %w", err)
	}

	sw.needFull = false
	sw.last = s
	return nil
}
