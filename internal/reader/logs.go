// internal/reader/logs.go
package reader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tamzrod/bydbox-reader/internal/codec"
	"github.com/tamzrod/bydbox-reader/internal/logcodec"
	"github.com/tamzrod/bydbox-reader/internal/logstore"
	"github.com/tamzrod/bydbox-reader/internal/protocol"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

// LastLogLayout formats the "last log" telemetry strings.
const LastLogLayout = "01/02/2006, 15:04:05"

// LogListSize is the number of entries in the bmu_logs view.
const LogListSize = 20

// UpdateLogData pulls up to depth log blocks of one unit. It stops early once a
// block yields fewer than FullBatch new entries. The number of new entries is
// returned even when a later block fails.
func (r *Reader) UpdateLogData(ctx context.Context, unit, depth int) (int, error) {
	if depth <= 0 {
		depth = r.cfg.SteadyDepth
	}

	total := 0
	for i := 0; i < depth; i++ {
		n, err := r.readLogBlock(ctx, unit)
		total += n
		if err != nil {
			return total, err
		}
		if n < r.cfg.FullBatch {
			r.log.Debug().Int("unit", unit).Int("block", i).Int("new", n).Msg("log tail reached")
			break
		}
	}
	return total, nil
}

// UpdateAllLogs pulls the BMU log and every tower log. An empty store takes the
// bootstrap depth. A failing unit does not stop the others unless the
// connection is gone.
func (r *Reader) UpdateAllLogs(ctx context.Context) (int, error) {
	depth := r.cfg.SteadyDepth
	if r.logs.Len() == 0 {
		depth = r.cfg.BootstrapDepth
	}

	var first error
	total := 0
	for unit := protocol.BMUUnit; unit <= r.topo.Towers; unit++ {
		if unit > protocol.BMUUnit {
			if err := r.sleep(ctx, protocol.UnitGap); err != nil {
				return total, err
			}
		}
		n, err := r.UpdateLogData(ctx, unit, depth)
		total += n
		if err == nil {
			continue
		}
		r.log.Error().Err(err).Str("unit", protocol.UnitName(unit)).Msg("log read failed")
		if first == nil {
			first = err
		}
		if isConnectionError(err) || ctx.Err() != nil {
			break
		}
	}

	r.RefreshLogViews()
	return total, first
}

// RefreshLogViews rebuilds the log list and the balancing totals from the store.
func (r *Reader) RefreshLogViews() {
	values := map[string]telemetry.Value{
		"log_count": telemetry.Int(r.logs.Len()),
		"bmu_logs":  telemetry.Records(logList(r.logs.Recent(LogListSize))),
	}

	hist := logcodec.BalancingHistogram(r.logs.Entries(), r.topo.Modules, r.topo.Cells)
	for tower := 1; tower <= r.topo.Towers; tower++ {
		b := hist[tower]
		rows := make([]telemetry.Record, 0, len(b.Modules))
		for _, mc := range b.Modules {
			rows = append(rows, telemetry.Record{"m": mc.Module, "bct": mc.Counts})
		}
		values[telemetry.BMSKey(tower, "b_total")] = telemetry.Int(b.Total)
		values[telemetry.BMSKey(tower, "b_cells_total")] = telemetry.Records(rows)
	}
	r.data.SetAll(values)
}

func logList(entries []logstore.Entry) []telemetry.Record {
	out := make([]telemetry.Record, 0, len(entries))
	for _, e := range entries {
		desc, detail := logcodec.Describe(e)
		out = append(out, telemetry.Record{
			"ts":     e.Timestamp,
			"u":      protocol.UnitName(e.Unit),
			"c":      e.Code,
			"d":      desc,
			"detail": detail,
			"data":   e.HexPayload(),
		})
	}
	return out
}

// readLogBlock runs one log handshake and inserts its sub-records.
func (r *Reader) readLogBlock(ctx context.Context, unit int) (int, error) {
	regs, phase, err := r.transfer(ctx, logHandshake, unit)
	if err != nil {
		r.log.Error().Err(err).Str("unit", protocol.UnitName(unit)).Stringer("phase", phase).Msg("log block failed")
		return 0, err
	}

	added := 0
	for i := 0; i < protocol.LogRecordsPerBlock; i++ {
		sub := regs[i*protocol.LogRecordWords : (i+1)*protocol.LogRecordWords]
		e, err := parseSubRecord(unit, i, sub, r.cfg.Location)
		if err != nil {
			r.log.Warn().Err(err).Msg("log record skipped")
			continue
		}
		if r.logs.Insert(e) {
			added++
		}
		if i == 0 {
			r.data.Set(lastLogKey(unit), telemetry.String(lastLog(e)))
		}
	}
	r.data.Set("log_count", telemetry.Int(r.logs.Len()))

	r.log.Debug().Str("unit", protocol.UnitName(unit)).Int("new", added).Msg("log block read")
	return added, nil
}

// parseSubRecord splits one 15-word record:
// w0 code|year, w1 month|day, w2 hour|minute, w3 second|payload[0], w4..w14 payload.
func parseSubRecord(unit, index int, sub []uint16, loc *time.Location) (logstore.Entry, error) {
	if len(sub) != protocol.LogRecordWords {
		return logstore.Entry{}, &DecodeError{Unit: unit, Record: index, Reason: "short record"}
	}

	code, year := codec.Int8Pair(sub[0])
	month, day := codec.Int8Pair(sub[1])
	hour, minute := codec.Int8Pair(sub[2])
	second, first := codec.Int8Pair(sub[3])

	ts, ok := logcodec.ValidDate(year+protocol.LogYearBase, month, day, hour, minute, second, loc)
	if !ok {
		return logstore.Entry{}, &DecodeError{
			Unit:   unit,
			Record: index,
			Reason: fmt.Sprintf("invalid date %d-%d-%d %d:%d:%d", year+protocol.LogYearBase, month, day, hour, minute, second),
		}
	}

	payload := make([]byte, 0, 1+2*(protocol.LogRecordWords-4))
	payload = append(payload, byte(first))
	for _, w := range sub[4:] {
		payload = append(payload, byte(w>>8), byte(w))
	}

	return logstore.Entry{Timestamp: ts, Unit: unit, Code: code, Payload: payload}, nil
}

func lastLogKey(unit int) string {
	if unit == protocol.BMUUnit {
		return "bmu_last_log"
	}
	return "bms" + strconv.Itoa(unit) + "_last_log"
}

func lastLog(e logstore.Entry) string {
	return e.Timestamp.Format(LastLogLayout) + " " + strconv.Itoa(e.Code) + " " + protocol.LogCodeDescription(e.Unit, e.Code)
}
