// internal/reader/bms.go
package reader

import (
	"context"
	"fmt"
	"time"

	jerrors "github.com/juju/errors"

	"github.com/tamzrod/bydbox-reader/internal/codec"
	"github.com/tamzrod/bydbox-reader/internal/protocol"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

// Cell windows inside the reassembled BMS block. Every 65th word is a page
// header and sits between the windows.
var (
	voltageWindows     = [][2]int{{49, 65}, {66, 130}, {131, 180}}
	temperatureWindows = [][2]int{{180, 195}, {196, 213}}
)

const (
	voltageStride     = 16
	temperatureStride = 4
)

// UpdateBMS runs the status handshake for one tower.
// Nothing is written unless the whole block decodes.
func (r *Reader) UpdateBMS(ctx context.Context, tower int) error {
	regs, phase, err := r.transfer(ctx, bmsHandshake, tower)
	if err != nil {
		r.log.Error().Err(err).Int("tower", tower).Stringer("phase", phase).Msg("bms status failed")
		return err
	}

	values, err := decodeBMSStatus(tower, regs, r.topo, r.now())
	if err != nil {
		r.log.Error().Err(err).Int("tower", tower).Stringer("phase", PhaseFailed).Msg("bms status rejected")
		return err
	}
	r.data.SetAll(values)
	return nil
}

// UpdateAllBMS reads towers 1..N. A failing tower does not stop the others;
// the first error is returned.
func (r *Reader) UpdateAllBMS(ctx context.Context) error {
	var first error
	for tower := 1; tower <= r.topo.Towers; tower++ {
		err := r.UpdateBMS(ctx, tower)
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		if isConnectionError(err) || ctx.Err() != nil {
			break
		}
	}
	return first
}

func decodeBMSStatus(tower int, regs []uint16, topo Topology, now time.Time) (map[string]telemetry.Value, error) {
	if len(regs) != protocol.BMSStatusWords {
		return nil, &MalformedResponseError{
			Op:     "bms status",
			Unit:   tower,
			Reason: fmt.Sprintf("got %d words, want %d", len(regs), protocol.BMSStatusWords),
		}
	}

	// word 0 is the length header
	maxV := codec.Round(float64(codec.Int16(regs[1:2]))*0.001, 3)
	if maxV > protocol.MaxCellVoltage {
		return nil, &MalformedResponseError{
			Op:     "bms status",
			Unit:   tower,
			Reason: fmt.Sprintf("implausible max cell voltage %.3f", maxV),
		}
	}
	minV := codec.Round(float64(codec.Int16(regs[2:3]))*0.001, 3)
	maxVID, minVID := codec.Int8Pair(regs[3])
	maxTID, minTID := codec.Int8Pair(regs[6])

	balancing, balancingQty := cellBalancing(regs, topo.Modules)

	charge, err := codec.Uint32(regs[15:17], codec.LittleWordOrder)
	if err != nil {
		return nil, jerrors.Trace(err)
	}
	discharge, err := codec.Uint32(regs[17:19], codec.LittleWordOrder)
	if err != nil {
		return nil, jerrors.Trace(err)
	}
	chargeKWh := codec.Round(float64(charge)*0.001, 3)
	dischargeKWh := codec.Round(float64(discharge)*0.001, 3)

	warnings := codec.BitmaskToLabels(regs[28], protocol.BMSWarnings)
	warnings = append(warnings, codec.BitmaskToLabels(regs[29], protocol.BMSWarnings)...)
	warnings = append(warnings, codec.BitmaskToLabels(regs[30], protocol.BMSWarnings3)...)

	// cell voltages stay in raw mV
	voltages, allV := cellRows(window(regs, voltageWindows), topo.Modules, topo.Cells, voltageStride, "v",
		func(w uint16) []float64 { return []float64{float64(int16(w))} })

	tempWords := 0
	if topo.Sensors > 0 {
		tempWords = (topo.Sensors + 1) / 2
	}
	temps, allT := cellRows(window(regs, temperatureWindows), topo.Modules, tempWords, temperatureStride, "t",
		func(w uint16) []float64 {
			hi, lo := codec.Int8Pair(w)
			return []float64{float64(hi), float64(lo)}
		})

	key := func(name string) string { return telemetry.BMSKey(tower, name) }

	return map[string]telemetry.Value{
		key("max_c_v"):        telemetry.Number(maxV),
		key("min_c_v"):        telemetry.Number(minV),
		key("max_c_v_id"):     telemetry.Int(maxVID),
		key("min_c_v_id"):     telemetry.Int(minVID),
		key("max_c_t"):        telemetry.Int(codec.Int16(regs[4:5])),
		key("min_c_t"):        telemetry.Int(codec.Int16(regs[5:6])),
		key("max_c_t_id"):     telemetry.Int(maxTID),
		key("min_c_t_id"):     telemetry.Int(minTID),
		key("balancing_qty"):  telemetry.Int(balancingQty),
		key("cell_balancing"): telemetry.Records(balancing),
		key("charge_lfte"):    telemetry.Number(chargeKWh),
		key("discharge_lfte"): telemetry.Number(dischargeKWh),
		key("efficiency"):     efficiency(chargeKWh, dischargeKWh),
		key("bat_voltage"):    telemetry.Number(codec.Round(float64(codec.Int16(regs[21:22]))*0.1, 1)),
		key("output_voltage"): telemetry.Number(codec.Round(float64(codec.Int16(regs[24:25]))*0.1, 1)),
		key("soc"):            telemetry.Number(codec.Round(float64(codec.Int16(regs[25:26]))*0.1, 1)),
		key("soh"):            telemetry.Int(codec.Int16(regs[26:27])),
		key("current"):        telemetry.Number(codec.Round(float64(codec.Int16(regs[27:28]))*0.1, 1)),
		key("warnings"):       telemetry.String(codec.JoinLabels(warnings, "Normal")),
		key("errors"):         telemetry.String(codec.BitmaskToString(regs[48], protocol.BMSErrors, "Normal")),
		key("cell_voltages"):  telemetry.Records(voltages),
		key("avg_c_v"):        average(allV, 2),
		key("cell_temps"):     telemetry.Records(temps),
		key("avg_c_t"):        average(allT, 1),
		key("updated"):        telemetry.Time(now),
	}, nil
}

// cellBalancing expands one flag word per module (words 7..) into per-cell bits.
func cellBalancing(regs []uint16, modules int) ([]telemetry.Record, int) {
	rows := make([]telemetry.Record, 0, modules)
	total := 0
	for m := 0; m < modules && 7+m < len(regs); m++ {
		flags := regs[7+m]
		bits := make([]float64, 16)
		for bit := 0; bit < 16; bit++ {
			if flags>>uint(bit)&1 == 1 {
				bits[bit] = 1
				total++
			}
		}
		rows = append(rows, telemetry.Record{"m": m + 1, "b": bits})
	}
	return rows, total
}

// window concatenates the given [from, to) word ranges.
func window(regs []uint16, ranges [][2]int) []uint16 {
	var out []uint16
	for _, r := range ranges {
		out = append(out, regs[r[0]:r[1]]...)
	}
	return out
}

// cellRows slices per-module rows of count words at a fixed stride.
// Words past the window are ignored.
func cellRows(words []uint16, modules, count, stride int, field string, conv func(uint16) []float64) ([]telemetry.Record, []float64) {
	rows := make([]telemetry.Record, 0, modules)
	var all []float64
	for m := 0; m < modules; m++ {
		values := []float64{}
		for i := 0; i < count; i++ {
			idx := m*stride + i
			if idx >= len(words) {
				break
			}
			values = append(values, conv(words[idx])...)
		}
		all = append(all, values...)
		rows = append(rows, telemetry.Record{"m": m + 1, field: values})
	}
	return rows, all
}

func average(values []float64, digits int) telemetry.Value {
	if len(values) == 0 {
		return telemetry.String("NA")
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return telemetry.Number(codec.Round(sum/float64(len(values)), digits))
}
