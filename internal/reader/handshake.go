// internal/reader/handshake.go
package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	jerrors "github.com/juju/errors"

	"github.com/tamzrod/bydbox-reader/internal/modbus"
	"github.com/tamzrod/bydbox-reader/internal/protocol"
)

// Phase is the position of one select/await/read exchange.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelecting
	PhaseAwaitingReady
	PhaseReading
	PhaseDecoded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelecting:
		return "selecting"
	case PhaseAwaitingReady:
		return "awaiting_ready"
	case PhaseReading:
		return "reading"
	case PhaseDecoded:
		return "decoded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// handshake describes one staged block transfer.
type handshake struct {
	op         string
	selectAddr uint16
	readyAddr  uint16
	readyCode  uint16
	dataAddr   uint16
	pages      int
	pageSize   uint16
	dropHeader bool
	words      int
}

var bmsHandshake = handshake{
	op:         "bms status",
	selectAddr: protocol.BMSSelectAddress,
	readyAddr:  protocol.BMSReadyAddress,
	readyCode:  protocol.BMSReadyCode,
	dataAddr:   protocol.BMSDataAddress,
	pages:      protocol.BMSPageCount,
	pageSize:   protocol.BMSPageSize,
	words:      protocol.BMSStatusWords,
}

var logHandshake = handshake{
	op:         "log",
	selectAddr: protocol.LogSelectAddress,
	readyAddr:  protocol.LogReadyAddress,
	readyCode:  protocol.LogReadyCode,
	dataAddr:   protocol.LogDataAddress,
	pages:      protocol.LogPageCount,
	pageSize:   protocol.LogPageSize,
	dropHeader: true,
	words:      protocol.LogWords,
}

// transfer selects unit, waits for the ready flag and reassembles all pages.
// The returned phase is where the exchange stopped.
func (r *Reader) transfer(ctx context.Context, hs handshake, unit int) ([]uint16, Phase, error) {
	log := r.log.With().Str("op", hs.op).Int("unit", unit).Logger()

	// ---- select ----
	if err := r.io.WriteRegisters(ctx, hs.selectAddr, []uint16{uint16(unit), protocol.SelectCode}); err != nil {
		return nil, PhaseSelecting, jerrors.Annotatef(err, "%s select unit %d", hs.op, unit)
	}

	// ---- await ready ----
	var (
		last   uint16
		waited time.Duration
	)
	for last != hs.readyCode {
		if waited >= protocol.ReadyTimeout {
			return nil, PhaseAwaitingReady, &HandshakeTimeoutError{
				Op:      hs.op,
				Unit:    unit,
				Address: hs.readyAddr,
				Want:    hs.readyCode,
				Last:    last,
				Waited:  waited,
			}
		}
		if err := r.sleep(ctx, protocol.ReadyPollInterval); err != nil {
			return nil, PhaseAwaitingReady, jerrors.Trace(err)
		}
		waited += protocol.ReadyPollInterval

		regs, err := r.io.ReadRegisters(ctx, hs.readyAddr, 1, r.cfg.ReadRetries)
		if err != nil {
			if isConnectionError(err) {
				return nil, PhaseAwaitingReady, jerrors.Trace(err)
			}
			log.Warn().Err(err).Msg("ready poll failed")
			continue
		}
		last = regs[0]
	}

	// ---- pages ----
	words := make([]uint16, 0, hs.words)
	for page := 0; page < hs.pages; page++ {
		if err := r.sleep(ctx, protocol.PageGap); err != nil {
			return nil, PhaseReading, jerrors.Trace(err)
		}
		regs, err := r.io.ReadRegisters(ctx, hs.dataAddr, hs.pageSize, r.cfg.ReadRetries)
		if err != nil {
			return nil, PhaseReading, jerrors.Annotatef(err, "%s unit %d page %d", hs.op, unit, page)
		}
		if hs.dropHeader && len(regs) > 0 {
			regs = regs[1:]
		}
		words = append(words, regs...)
	}

	if len(words) != hs.words {
		return nil, PhaseReading, &MalformedResponseError{
			Op:     hs.op,
			Unit:   unit,
			Reason: fmt.Sprintf("got %d words, want %d", len(words), hs.words),
		}
	}
	return words, PhaseDecoded, nil
}

func isConnectionError(err error) bool {
	var ce *modbus.ConnectionError
	return errors.As(err, &ce)
}
