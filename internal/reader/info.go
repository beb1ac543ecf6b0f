// internal/reader/info.go
package reader

import (
	"context"
	"strconv"
	"strings"

	jerrors "github.com/juju/errors"

	"github.com/tamzrod/bydbox-reader/internal/codec"
	"github.com/tamzrod/bydbox-reader/internal/protocol"
	"github.com/tamzrod/bydbox-reader/internal/telemetry"
)

// InfoRetries is how many extra times Init re-reads the identity block.
const InfoRetries = 4

// Topology is the identity and layout of the battery stack.
type Topology struct {
	Serial  string
	BatType string

	BMUVersionA string
	BMUVersionB string
	BMUVersion  string
	BMSVersion  string
	BMUArea     string
	BMSArea     string

	Towers  int
	Modules int

	Application string
	LVSType     int
	Phase       string

	Inverter string
	Model    string
	// Capacity in kWh.
	Capacity float64
	Cells    int
	Sensors  int
}

// Values flattens the topology into telemetry entries.
func (t Topology) Values() map[string]telemetry.Value {
	return map[string]telemetry.Value{
		"serial":      telemetry.String(t.Serial),
		"bat_type":    telemetry.String(t.BatType),
		"bmu_v_A":     telemetry.String(t.BMUVersionA),
		"bmu_v_B":     telemetry.String(t.BMUVersionB),
		"bmu_v":       telemetry.String(t.BMUVersion),
		"bms_v":       telemetry.String(t.BMSVersion),
		"bmu_area":    telemetry.String(t.BMUArea),
		"bms_area":    telemetry.String(t.BMSArea),
		"towers":      telemetry.Int(t.Towers),
		"modules":     telemetry.Int(t.Modules),
		"application": telemetry.String(t.Application),
		"lvs_type":    telemetry.Int(t.LVSType),
		"phase":       telemetry.String(t.Phase),
		"inverter":    telemetry.String(t.Inverter),
		"model":       telemetry.String(t.Model),
		"capacity":    telemetry.Number(t.Capacity),
		"cells":       telemetry.Int(t.Cells),
		"sensors_t":   telemetry.Int(t.Sensors),
	}
}

// Init reads both identity blocks and publishes the topology.
func (r *Reader) Init(ctx context.Context) error {
	var (
		regs []uint16
		err  error
	)
	for attempt := 0; attempt <= InfoRetries; attempt++ {
		if attempt > 0 {
			if serr := r.sleep(ctx, protocol.InfoRetryInterval); serr != nil {
				return jerrors.Trace(serr)
			}
		}
		regs, err = r.io.ReadRegisters(ctx, protocol.InfoAddress, protocol.InfoCount, r.cfg.ReadRetries)
		if err == nil || isConnectionError(err) {
			break
		}
		r.log.Warn().Err(err).Int("attempt", attempt).Msg("info read failed")
	}
	if err != nil {
		return jerrors.Annotate(err, "read info block")
	}

	topo, err := decodeInfo(regs)
	if err != nil {
		return jerrors.Trace(err)
	}

	ext, err := r.io.ReadRegisters(ctx, protocol.ExtInfoAddress, protocol.ExtInfoCount, r.cfg.ReadRetries)
	if err != nil {
		return jerrors.Annotate(err, "read ext info block")
	}
	if err := decodeExtInfo(ext, &topo); err != nil {
		return jerrors.Trace(err)
	}

	r.topo = topo
	r.data.SetAll(topo.Values())
	r.log.Info().
		Str("serial", topo.Serial).
		Str("model", topo.Model).
		Int("towers", topo.Towers).
		Int("modules", topo.Modules).
		Msg("topology read")
	return nil
}

func decodeInfo(regs []uint16) (Topology, error) {
	if len(regs) < int(protocol.InfoCount) {
		return Topology{}, &MalformedResponseError{Op: "info", Reason: "short info block: " + strconv.Itoa(len(regs))}
	}

	var t Topology

	serial := codec.String(regs[0:10])
	if len(serial) > 0 {
		// last character is a checksum
		serial = serial[:len(serial)-1]
	}
	t.Serial = serial

	switch {
	case strings.HasPrefix(serial, "P03"), strings.HasPrefix(serial, "E0P3"):
		t.BatType = "HV"
	case strings.HasPrefix(serial, "P02"), strings.HasPrefix(serial, "P011"):
		t.BatType = "LV"
	default:
		t.BatType = "NA"
	}

	t.BMUVersionA = version(regs[12])
	t.BMUVersionB = version(regs[13])
	t.BMSVersion = version(regs[14])

	bmuArea, bmsArea := codec.Int8Pair(regs[15])
	t.BMUArea = listAt(protocol.WorkingAreas, bmuArea, "NA")
	t.BMSArea = listAt(protocol.WorkingAreas, bmsArea, "NA")
	if bmuArea == 0 {
		t.BMUVersion = t.BMUVersionA
	} else {
		t.BMUVersion = t.BMUVersionB
	}

	t.Towers, t.Modules = codec.Int4Pair(regs[16])

	app, lvsType := codec.Int8Pair(regs[17])
	t.Application = listAt(protocol.Applications, app, "NA")
	t.LVSType = lvsType

	phase, _ := codec.Int8Pair(regs[18])
	t.Phase = listAt(protocol.Phases, phase, "NA")

	return t, nil
}

func decodeExtInfo(regs []uint16, t *Topology) error {
	if len(regs) < int(protocol.ExtInfoCount) {
		return &MalformedResponseError{Op: "ext info", Reason: "short ext info block: " + strconv.Itoa(len(regs))}
	}

	inverterID, _ := codec.Int8Pair(regs[0])
	hvType, _ := codec.Int8Pair(regs[1])

	var perModule float64
	t.Model = "NA"

	switch {
	case hvType == 0:
		t.Model, perModule = "HVL", 4.0
	case hvType == 1:
		t.Model, perModule, t.Cells, t.Sensors = "HVM", 2.76, 16, 8
	case hvType == 2:
		t.Model, perModule, t.Cells, t.Sensors = "HVS", 2.56, 32, 12
	case t.BatType == "LV":
		t.Model, perModule, t.Cells = "LVS", 4.0, 7
	}

	t.Capacity = codec.Round(float64(t.Towers*t.Modules)*perModule, 2)
	t.Inverter = inverterName(t.Model, inverterID)
	return nil
}

func inverterName(model string, id int) string {
	var (
		idx int
		ok  bool
	)
	switch model {
	case "LVS":
		idx, ok = protocol.LVSInverters[id]
	case "HVL":
		idx, ok = protocol.HVLInverters[id]
	default:
		idx, ok = id, id >= 0 && id <= 16
	}
	if !ok || idx >= len(protocol.Inverters) {
		return "Unknown: " + strconv.Itoa(id) + " " + model
	}
	return protocol.Inverters[idx]
}

func version(w uint16) string {
	hi, lo := codec.Int8Pair(w)
	return strconv.Itoa(hi) + "." + strconv.Itoa(lo)
}

func listAt(list []string, i int, def string) string {
	if i < 0 || i >= len(list) {
		return def
	}
	return list[i]
}
