// internal/reader/bmu.go
package reader

import (
	"context"
	"strconv"
	"time"

	jerrors "github.com/juju/errors"

	"github.com/tamzrod/bydbox-reader/internal/codec"
	"github.com/tamzrod/bydbox-reader/internal/protocol"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

// UpdateBMU reads the BMU live status block in one shot.
func (r *Reader) UpdateBMU(ctx context.Context) error {
	regs, err := r.io.ReadRegisters(ctx, protocol.BMUStatusAddress, protocol.BMUStatusCount, r.cfg.ReadRetries)
	if err != nil {
		return jerrors.Annotate(err, "bmu status")
	}

	values, err := decodeBMUStatus(regs, r.now())
	if err != nil {
		return jerrors.Trace(err)
	}
	r.data.SetAll(values)
	return nil
}

// decodeBMUStatus decodes words 0..20 of the BMU status block.
// Words 9..12 and 15 are reserved.
func decodeBMUStatus(regs []uint16, now time.Time) (map[string]telemetry.Value, error) {
	if len(regs) < int(protocol.BMUStatusCount) {
		return nil, &MalformedResponseError{
			Op:     "bmu status",
			Reason: "got " + strconv.Itoa(len(regs)) + " words, want " + strconv.Itoa(int(protocol.BMUStatusCount)),
		}
	}

	charge, err := codec.Uint32(regs[17:19], codec.LittleWordOrder)
	if err != nil {
		return nil, jerrors.Trace(err)
	}
	discharge, err := codec.Uint32(regs[19:21], codec.LittleWordOrder)
	if err != nil {
		return nil, jerrors.Trace(err)
	}
	chargeKWh := codec.Round(float64(charge)*0.1, 1)
	dischargeKWh := codec.Round(float64(discharge)*0.1, 1)

	current := codec.Round(float64(codec.Int16(regs[4:5]))*0.1, 1)
	outputVoltage := codec.Round(float64(regs[16])*0.01, 2)
	paramHi, paramLo := codec.Int8Pair(regs[14])

	return map[string]telemetry.Value{
		"soc":            telemetry.Int(codec.Uint16(regs[0:1])),
		"max_cell_v":     telemetry.Number(codec.Round(float64(regs[1])*0.01, 2)),
		"min_cell_v":     telemetry.Number(codec.Round(float64(regs[2])*0.01, 2)),
		"soh":            telemetry.Int(codec.Uint16(regs[3:4])),
		"current":        telemetry.Number(current),
		"bat_voltage":    telemetry.Number(codec.Round(float64(regs[5])*0.01, 2)),
		"max_cell_temp":  telemetry.Int(codec.Int16(regs[6:7])),
		"min_cell_temp":  telemetry.Int(codec.Int16(regs[7:8])),
		"bmu_temp":       telemetry.Int(codec.Int16(regs[8:9])),
		"errors":         telemetry.String(codec.BitmaskToString(regs[13], protocol.BMUErrors, "Normal")),
		"param_t_v":      telemetry.String(strconv.Itoa(paramHi) + "." + strconv.Itoa(paramLo)),
		"output_voltage": telemetry.Number(outputVoltage),
		"power":          telemetry.Number(codec.Round(current*outputVoltage, 2)),
		"charge_lfte":    telemetry.Number(chargeKWh),
		"discharge_lfte": telemetry.Number(dischargeKWh),
		"efficiency":     efficiency(chargeKWh, dischargeKWh),
		"updated":        telemetry.Time(now),
	}, nil
}

// efficiency is discharge/charge in percent, "NA" when nothing was charged yet.
func efficiency(charge, discharge float64) telemetry.Value {
	if charge == 0 {
		return telemetry.String("NA")
	}
	return telemetry.Number(codec.Round(discharge/charge*100, 1))
}
