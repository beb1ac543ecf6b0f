// internal/logcodec/decode.go
package logcodec

import (
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/bydbox-reader/internal/codec"
	"github.com/tamzrod/bydbox-reader/internal/protocol"
)

// Source is the kind of unit that wrote a log record.
type Source int

const (
	SourceBMU Source = iota
	SourceBMS
)

// SourceOf maps a log unit id to its Source.
func SourceOf(unit int) Source {
	if unit == protocol.BMUUnit {
		return SourceBMU
	}
	return SourceBMS
}

type key struct {
	src  Source
	code int
}

type decoderFunc func(p payload) []Datapoint

var decoders = map[key]decoderFunc{}

func register(src Source, fn decoderFunc, codes ...int) {
	for _, c := range codes {
		decoders[key{src, c}] = fn
	}
}

func init() {
	register(SourceBMU, bmuPowerOn, 0)
	register(SourceBMU, bmuPowerOff, 1)
	register(SourceBMU, bmuEvent, 2)
	register(SourceBMU, bmuStatusChange, 32)
	register(SourceBMU, bmuBMSUpdate, 34, 35)
	register(SourceBMU, bmuSafetyInfo, 36)
	register(SourceBMU, bmuSOPInfo, 38)
	register(SourceBMU, bmuFirmwareList, 40)
	register(SourceBMU, bmuSOC, 45)
	register(SourceBMU, bmuFirmwareUpdate, 101, 102)
	register(SourceBMU, bmuFirmwareFailure, 103)
	register(SourceBMU, bmuParamTable, 105)
	register(SourceBMU, bmuTimeCalibrated, 111)
	register(SourceBMU, bmuSystemTiming, 118)

	register(SourceBMS, bmsPowerOn, 0)
	register(SourceBMS, bmsPowerOff, 1)
	register(SourceBMS, bmsEvent, 2, 3, 4, 5, 6, 7, 9, 10, 13, 14, 16, 19, 20, 21)
	register(SourceBMS, bmsBalancing, 17, 18)
	register(SourceBMS, bmsFirmwareUpdate, 101, 102)
	register(SourceBMS, bmsThreshold, 105)
	register(SourceBMS, bmsSNChange, 106)
	register(SourceBMS, bmsTimeCalibrated, 111)
}

// Decode extracts the datapoints of one record. Unknown codes yield nil.
func Decode(src Source, code int, data []byte) []Datapoint {
	fn, ok := decoders[key{src, code}]
	if !ok {
		return nil
	}
	return fn(payload{data: data, code: code})
}

// ---- payload access ----

// payload reads bytes with out-of-range positions as 0.
type payload struct {
	data []byte
	code int
}

func (p payload) at(i int) int { return codec.ByteAt(p.data, i) }

func (p payload) beU16(i int) int { return codec.ByteUint16(p.data, i, codec.BigEndian) }
func (p payload) leU16(i int) int { return codec.ByteUint16(p.data, i, codec.LittleEndian) }
func (p payload) beI16(i int) int { return codec.ByteInt16(p.data, i, codec.BigEndian) }
func (p payload) leI16(i int) int { return codec.ByteInt16(p.data, i, codec.LittleEndian) }

// version renders two bytes as "a.b".
func (p payload) version(major, minor int) string {
	return strconv.Itoa(p.at(major)) + "." + strconv.Itoa(p.at(minor))
}

// deci scales a raw value by 0.1.
func deci(v int) float64 { return codec.Round(float64(v)*0.1, 1) }

type points []Datapoint

func (ps *points) add(name string, v interface{}) {
	*ps = append(*ps, Datapoint{Name: name, Value: v})
}

func labelsOf(mask int, table map[int]string) []string {
	return codec.BitmaskToLabels(uint16(mask), table)
}

func listAt(list []string, i int, def string) string {
	if i < 0 || i >= len(list) {
		return def
	}
	return list[i]
}

// ---- BMU ----

func bmuPowerOn(p payload) []Datapoint {
	var ps points
	ps.add("bootl", p.at(0))
	switch p.at(1) {
	case 0:
		ps.add("exec", "A")
	case 1:
		ps.add("exec", "B")
	default:
		ps.add("exec", p.at(1))
	}
	ps.add("firmware_v", p.version(2, 3))
	return ps
}

func bmuPowerOff(p payload) []Datapoint {
	var ps points
	switch p.at(0) {
	case 0:
		ps.add("switchoff", "0")
	case 1:
		ps.add("switchoff", "LED button")
	default:
		ps.add("switchoff", p.at(0))
	}
	return ps
}

func bmuEvent(p payload) []Datapoint {
	var event string
	switch {
	case p.at(0) == 0:
		event = "Error/Warning cleared"
	case p.at(1) != protocol.BMULogNoError:
		event = "Error; " + strings.ToLower(codec.Lookup(protocol.BMULogErrors, p.at(1), "Undefined"))
	default:
		warnings := labelsOf(p.at(2)*0x100+p.at(3), protocol.BMULogWarnings)
		event = "Warning; " + strings.ToLower(codec.JoinLabels(warnings, "NA"))
	}

	var ps points
	ps.add("event", event)
	ps.add("c_max_v", p.beU16(4))
	ps.add("c_min_v", p.beU16(6))
	ps.add("bat_max_t", p.at(8))
	ps.add("bat_min_t", p.at(9))
	ps.add("bat_v", deci(p.beU16(10)))
	ps.add("soc", p.at(12))
	ps.add("soh", p.at(13))
	return ps
}

func bmuStatusChange(p payload) []Datapoint {
	var ps points
	ps.add("p_status", codec.Lookup(protocol.BMUStatus, p.at(1), "NA"))
	ps.add("n_status", codec.Lookup(protocol.BMUStatus, p.at(0), "Undefined"))
	return ps
}

func bmuBMSUpdate(p payload) []Datapoint {
	var ps points
	ps.add("firmware_v", p.version(1, 2))
	ps.add("mcu", p.at(4))
	return ps
}

func bmuSafetyInfo(p payload) []Datapoint {
	var ps points
	ps.add("rtime", p.at(0)<<24|p.at(1)<<16|p.at(2)<<8|p.at(3))
	ps.add("bmu_qty_c", p.at(4))
	ps.add("bmu_qty_t", p.at(5))
	ps.add("c_max_v", p.beU16(6))
	ps.add("c_min_v", p.beU16(8))
	ps.add("c_max_t", p.at(10))
	ps.add("c_min_t", p.at(11))
	ps.add("out_a", deci(p.beI16(12)))
	ps.add("out_v", deci(p.beU16(14)))
	ps.add("acc_v", deci(p.beU16(16)))
	ps.add("bms_addr", p.at(18))
	ps.add("m_type", codec.Lookup(protocol.ModuleTypes, p.at(19), "Undefined"))
	ps.add("m_qty", p.at(20))
	return ps
}

func bmuSOPInfo(p payload) []Datapoint {
	var ps points
	ps.add("max_charge_a", deci(p.beI16(0)))
	ps.add("max_discharge_a", deci(p.beI16(2)))
	ps.add("max_charge_v", deci(p.beI16(4)))
	ps.add("max_discharge_v", deci(p.beI16(6)))
	ps.add("status", []string{codec.Lookup(protocol.BMUStatus, p.at(8), "Undefined")})
	ps.add("bat_t", p.at(9))
	ps.add("inverter", listAt(protocol.Inverters, p.at(10), "Unknown: "+strconv.Itoa(p.at(10))))
	ps.add("bms_qty", p.at(11))
	return ps
}

func bmuFirmwareList(p payload) []Datapoint {
	var ps points
	ps.add("firmware_n1", p.at(0))
	ps.add("firmware_v1", p.version(1, 2))
	ps.add("firmware_n2", p.at(3))
	ps.add("firmware_v2", p.version(4, 5))
	if p.at(6) != 0xFF {
		ps.add("firmware_n3", p.at(6))
		ps.add("firmware_v3", p.version(7, 8))
	}
	return ps
}

func bmuSOC(p payload) []Datapoint {
	var ps points
	ps.add("status", []string{strconv.Itoa(p.at(0))})
	ps.add("out_v", deci(p.beU16(4)))
	ps.add("bat_v", deci(p.beU16(6)))
	ps.add("soc_a", deci(p.beU16(10)))
	ps.add("soc_b", deci(p.beU16(12)))
	return ps
}

func bmuFirmwareUpdate(p payload) []Datapoint {
	var ps points
	// the area byte is always reported as A by the device
	ps.add("bms_updt", "A")
	ps.add("firmware_v", p.version(1, 2))
	return ps
}

func bmuFirmwareFailure(p payload) []Datapoint {
	var ps points
	ps.add("firmware_n1", p.at(0))
	ps.add("firmware_v1", p.version(1, 2))
	ps.add("firmware_n2", p.at(3))
	ps.add("firmware_v2", p.version(4, 5))
	return ps
}

func bmuParamTable(p payload) []Datapoint {
	var ps points
	if p.at(0) <= 2 {
		ps.add("pt_u", "")
	}
	ps.add("pt_v", p.version(1, 2))
	return ps
}

func bmuTimeCalibrated(p payload) []Datapoint {
	var ps points
	ps.add("dt_cal", codec.Lookup(protocol.BMUCalibration, p.at(0), "Undefined"))
	return ps
}

func bmuSystemTiming(p payload) []Datapoint {
	var ps points
	status, known := protocol.BMUStatus[p.at(0)]
	if !known {
		status = "Undefined"
	}
	ps.add("status", []string{status})
	if !known {
		return ps
	}
	ps.add("env_min_t", p.at(1))
	ps.add("env_max_t", p.at(2))
	ps.add("soc", p.at(3))
	ps.add("soh", p.at(4))
	ps.add("bat_t", p.at(5))
	ps.add("bat_v", deci(p.beU16(6)))
	ps.add("c_max_v", p.beU16(8))
	ps.add("c_min_v", p.beU16(10))
	ps.add("bat_max_t", p.at(13))
	ps.add("bat_min_t", p.at(15))
	return ps
}

// ---- BMS ----

func bmsPowerOn(p payload) []Datapoint {
	var ps points
	ps.add("bootl", p.at(0))
	switch p.at(1) {
	case 0:
		ps.add("exec", "A")
	case 2:
		ps.add("exec", "B")
	default:
		ps.add("exec", p.at(1))
	}
	ps.add("firmware_v", p.version(3, 4))
	return ps
}

func bmsPowerOff(p payload) []Datapoint {
	var ps points
	ps.add("power_off", codec.Lookup(protocol.BMSPowerOff, p.at(1), "NA"))
	switch p.at(2) {
	case 0:
		ps.add("section", "A")
	case 1:
		ps.add("section", "B")
	default:
		ps.add("section", p.at(2))
	}
	ps.add("firmware_v", p.version(3, 4))
	return ps
}

func bmsEvent(p payload) []Datapoint {
	var ps points

	warnings := labelsOf(p.leU16(0), protocol.BMSWarnings)
	warnings = append(warnings, labelsOf(p.leU16(2), protocol.BMSWarnings)...)
	warnings = append(warnings, labelsOf(p.leU16(4), protocol.BMSWarnings3)...)
	ps.add("warnings", warnings)
	ps.add("errors", labelsOf(p.leU16(6), protocol.BMSErrors))

	status := p.at(8)
	if status%2 == 1 {
		ps.add("status", labelsOf(status, protocol.BMSStatusOff))
	} else {
		ps.add("status", labelsOf(status, protocol.BMSStatusOn))
	}

	switch p.code {
	case 9:
		ps.add("bat_idle", p.at(9))
		ps.add("target_soc", p.at(10))
	case 20:
		ps.add("bmu_serial_v1", p.at(9))
		ps.add("bmu_serial_v2", p.at(10))
	default:
		ps.add("soc", p.at(9))
		ps.add("soh", p.at(10))
		ps.add("bat_v", deci(p.leU16(11)))
		ps.add("out_v", deci(p.leU16(13)))
		ps.add("out_a", deci(p.leI16(15)))
	}

	if p.code == 21 {
		ps.add("c_max_v_n", p.at(17))
		ps.add("c_min_v_n", p.at(18))
		ps.add("c_max_t_n", p.at(20))
		ps.add("c_min_t_n", p.at(21))
	} else {
		ps.add("c_max_v", p.leU16(17))
		ps.add("c_min_v", p.leU16(19))
		ps.add("c_max_t", p.at(21))
		ps.add("c_min_t", p.at(22))
	}
	return ps
}

// BalancingFlagBytes is the size of the balancing cell flag field.
const BalancingFlagBytes = 20

// BalancingCells returns the indices of set bits in the balancing flag field,
// least significant bit of the first byte first.
func BalancingCells(data []byte) []int {
	var cells []int
	for j := 0; j < BalancingFlagBytes; j++ {
		b := codec.ByteAt(data, j)
		for bit := 0; bit < 8; bit++ {
			if b>>uint(bit)&1 == 1 {
				cells = append(cells, j*8+bit)
			}
		}
	}
	return cells
}

func bmsBalancing(p payload) []Datapoint {
	var ps points
	if p.code == 17 {
		cells := BalancingCells(p.data)
		ids := make([]string, 0, len(cells))
		for _, c := range cells {
			ids = append(ids, strconv.Itoa(c))
		}
		ps.add("b_cells", ids)
	}
	ps.add("c_min_v", p.leU16(21))
	return ps
}

func bmsFirmwareUpdate(p payload) []Datapoint {
	var ps points
	if p.at(0) == 0 {
		ps.add("area", "A")
	} else {
		ps.add("area", "B")
	}
	ps.add("firmware_p", p.version(2, 1))
	ps.add("firmware_n", p.version(4, 3))
	return ps
}

func bmsThreshold(p payload) []Datapoint {
	var ps points
	ps.add("threshold", strconv.Itoa(p.leU16(0))+"."+strconv.Itoa(p.leU16(2)))
	return ps
}

func bmsSNChange(p payload) []Datapoint {
	var ps points
	ps.add("sn_change", 1)
	return ps
}

func bmsTimeCalibrated(p payload) []Datapoint {
	year, month, day := p.at(0)+protocol.LogYearBase, p.at(1), p.at(2)
	hour, minute, second := p.at(3), p.at(4), p.at(5)

	t, ok := ValidDate(year, month, day, hour, minute, second, time.Local)
	if !ok {
		return nil
	}
	var ps points
	ps.add("nt", t)
	return ps
}

// ValidDate builds a time only if every field is in calendar range.
func ValidDate(year, month, day, hour, minute, second int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	// time.Date normalizes overflowing days, e.g. Feb 30
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
