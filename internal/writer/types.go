// internal/writer/types.go
package writer

import (
	"context"

	"github.com/tamzrod/bydbox-reader/internal/status"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

// Writer delivers a telemetry snapshot to one consumer.
// Values is a copy owned by the callee.
type Writer interface {
	Write(ctx context.Context, values map[string]telemetry.Value) error
}

// StatusWriter is the delivery-only contract for session health.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// HistoryHandler receives deep-history requests from a command channel.
type HistoryHandler func(unit, depth int)
