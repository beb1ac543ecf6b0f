// internal/logcodec/datapoints.go
package logcodec

// Kind selects how a datapoint renders.
type Kind int

const (
	// Scalar renders "Label: v unit".
	Scalar Kind = iota
	// NumberList renders "Label: 1,2,3".
	NumberList
	// LabelList renders "Label: a, b".
	LabelList
	// Template renders the label with {v} substituted.
	Template
)

// Definition is the static description of a named datapoint.
type Definition struct {
	Label string
	Kind  Kind
	Unit  string
}

// Datapoint is one decoded value of a log record.
type Datapoint struct {
	Name  string
	Value interface{}
}

// Def returns the static definition of the datapoint.
func (d Datapoint) Def() (Definition, bool) {
	def, ok := definitions[d.Name]
	return def, ok
}

var definitions = map[string]Definition{
	"b_cells":         {"Balancing cells", NumberList, ""},
	"c_max_v":         {"Cell max voltage", Scalar, "mV"},
	"c_min_v":         {"Cell min voltage", Scalar, "mV"},
	"c_max_t":         {"Cell max temp", Scalar, "°C"},
	"c_min_t":         {"Cell min temp", Scalar, "°C"},
	"c_max_v_n":       {"Cell max voltage id", Scalar, ""},
	"c_min_v_n":       {"Cell min voltage id", Scalar, ""},
	"c_max_t_n":       {"Cell max temp id", Scalar, ""},
	"c_min_t_n":       {"Cell min temp id", Scalar, ""},
	"status":          {"Status", LabelList, ""},
	"errors":          {"Errors", LabelList, ""},
	"warnings":        {"Warnings", LabelList, ""},
	"soc":             {"SOC", Scalar, "%"},
	"soh":             {"SOH", Scalar, "%"},
	"bat_v":           {"Battery voltage", Scalar, "V"},
	"out_v":           {"Output voltage", Scalar, "V"},
	"out_a":           {"Output current", Scalar, "A"},
	"bat_idle":        {"Battery idling", Scalar, "%"},
	"target_soc":      {"Target SOC", Scalar, "%"},
	"bmu_serial_v1":   {"BMU serial v1", Scalar, ""},
	"bmu_serial_v2":   {"BMU serial v2", Scalar, ""},
	"rtime":           {"Running time", Scalar, "s"},
	"bmu_qty_c":       {"Cells", Scalar, ""},
	"bmu_qty_t":       {"Temperature sensors", Scalar, ""},
	"acc_v":           {"Accumulated voltage", Scalar, "V"},
	"bms_addr":        {"BMS address", Scalar, ""},
	"m_qty":           {"Modules", Scalar, ""},
	"m_type":          {"Module type", Scalar, ""},
	"max_charge_a":    {"Max charge current", Scalar, "A"},
	"max_discharge_a": {"Max discharge current", Scalar, "A"},
	"max_charge_v":    {"Max charge voltage", Scalar, "V"},
	"max_discharge_v": {"Max discharge voltage", Scalar, "V"},
	"bat_t":           {"Battery temp", Scalar, "°C"},
	"bat_max_t":       {"Battery max temp", Scalar, "°C"},
	"bat_min_t":       {"Battery min temp", Scalar, "°C"},
	"inverter":        {"Inverter", Scalar, ""},
	"bms_qty":         {"BMS quantity", Scalar, ""},
	"nt":              {"Date time set to {v}", Template, ""},
	"env_max_t":       {"Environment max temp", Scalar, "°C"},
	"env_min_t":       {"Environment min temp", Scalar, "°C"},
	"event":           {"Event", Scalar, ""},
	"n_status":        {"New status", Scalar, ""},
	"p_status":        {"Prev status", Scalar, ""},
	"firmware_n1":     {"Firmware n1", Scalar, ""},
	"firmware_v1":     {"Firmware v1", Scalar, ""},
	"firmware_n2":     {"Firmware n2", Scalar, ""},
	"firmware_v2":     {"Firmware v2", Scalar, ""},
	"firmware_n3":     {"Firmware n3", Scalar, ""},
	"firmware_v3":     {"Firmware v3", Scalar, ""},
	"pt_u":            {"Parameter table update", Scalar, ""},
	"pt_v":            {"Parameter table v", Scalar, ""},
	"dt_cal":          {"Datatime calibration by {v}", Template, ""},
	"bms_updt":        {"BMS update", Scalar, ""},
	"firmware_v":      {"Firmware", Scalar, ""},
	"mcu":             {"MCU", Scalar, ""},
	"bootl":           {"Bootloader", Scalar, ""},
	"exec":            {"Executing", Scalar, ""},
	"switchoff":       {"Powered off by {v}", Template, ""},
	"area":            {"Target area", Scalar, ""},
	"firmware_p":      {"Prev firmware", Scalar, ""},
	"firmware_n":      {"New firmware", Scalar, ""},
	"threshold":       {"Threshold table", Scalar, ""},
	"sn_change":       {"Serial number change", Template, ""},
	"section":         {"Running section", Scalar, ""},
	"power_off":       {"Powered off: {v}", Template, ""},
	"soc_a":           {"SOC A", Scalar, "%"},
	"soc_b":           {"SOC B", Scalar, "%"},
}
