// internal/protocol/tables.go
package protocol

import (
	"strconv"

	"github.com/tamzrod/bydbox-reader/internal/codec"
)

// ---- TOPOLOGY ----

var Inverters = []string{
	"Fronius HV", "Goodwe HV/Viessmann HV", "Goodwe LV/Viessmann LV", "KOSTAL HV",
	"Selectronic LV", "SMA SBS3.7/5.0/6.0 HV", "SMA LV", "Victron LV", "SUNTECH LV",
	"Sungrow HV", "KACO_HV", "Studer LV", "SolarEdge LV", "Ingeteam HV", "Sungrow LV",
	"Schneider LV", "SMA SBS2.5 HV", "Solis LV", "Solis HV", "SMA STP 5.0-10.0 SE HV",
	"Deye LV", "Phocos LV", "GE HV", "Deye HV", "Raion LV", "KACO_NH", "Solplanet",
	"Western HV", "SOSEN", "Hoymiles LV", "Hoymiles HV", "SAJ HV",
}

// LVSInverters maps LVS inverter ids onto Inverters.
var LVSInverters = map[int]int{
	0: 0, 1: 1, 2: 1, 3: 2, 4: 18, 5: 3, 6: 19, 7: 20,
	8: 30, 9: 4, 10: 5, 11: 21, 12: 28, 13: 6,
}

// HVLInverters maps HVL inverter ids onto Inverters.
var HVLInverters = map[int]int{0: 1, 1: 3, 2: 8, 3: 10, 4: 17}

var Applications = []string{"Off Grid", "On Grid", "Backup"}

var Phases = []string{"Single", "Three"}

// WorkingAreas is indexed by the firmware area byte.
var WorkingAreas = []string{"B", "A", "B"}

var ModuleTypes = map[int]string{0: "HVL", 1: "HVM", 2: "HVS"}

// ---- STATUS BITMASKS ----

var BMUErrors = codec.ListTable(
	"High temperature charging (cells)",
	"Low temperature charging (cells)",
	"Discharging overcurrent(cells)",
	"Charging overcurrent(cells)",
	"Main circuit failure",
	"Short circuit",
	"Cell imbalance",
	"Current sensor error",
	"Battery overvoltage",
	"Battery undervoltage",
	"Cell overvoltage",
	"Cell undervoltage",
	"Voltage sensor failure",
	"Temperature sensor failure",
	"High temperature discharging (cells)",
	"Low temperature discharging (cells)",
)

var BMSErrors = codec.ListTable(
	"Cells voltage sensor failure",
	"Temperature sensor failure",
	"BIC communication failure",
	"Pack voltage sensor failure",
	"Current sensor failure",
	"Charging MOS failure",
	"Discharging MOS failure",
	"Precharging MOS failure",
	"Main relay failure",
	"Precharging Failed",
	"Heating device failure",
	"Radiator failure",
	"BIC balance failure",
	"Cells failure",
	"PCB temperature sensor failure",
	"Functional safety failure",
)

// BMSWarnings decodes the first two BMS warning words.
var BMSWarnings = codec.ListTable(
	"Battery overvoltage",
	"Battery undervoltage",
	"Cells overvoltage",
	"Cells undervoltage",
	"Cells imbalance",
	"Charging high temperature (cells)",
	"Charging low temperature (cells)",
	"Discharging high temperature (cells)",
	"Discharging low temperature (cells)",
	"Charging overcurrent (cells)",
	"Discharging overcurrent (cells)",
	"Charging overcurrent (hardware)",
	"Short circuit",
	"Inverse connection",
	"Interlock switch abnormal",
	"Air switch abnormal",
)

// BMSWarnings3 decodes the third BMS warning word.
var BMSWarnings3 = codec.ListTable(
	"Battery overvoltage",
	"Battery undervoltage",
	"Cell overvoltage",
	"Cell undervoltage",
	"Voltage sensor failure",
	"Temperature sensor failure",
	"High temperature discharging (cells)",
	"Low temperature discharging (cells)",
	"High temperature charging (cells)",
	"Low temperature charging (cells)",
	"Overcurrent discharging",
	"Overcurrent charging",
	"Main circuit failure",
	"Short circuit alarm",
	"Cells imbalance",
	"Current sensor failure",
)

// ---- LOG TABLES ----

var BMULogWarnings = map[int]string{
	2:  "Cells overvoltage",
	3:  "Cells undervoltage",
	4:  "V-sensor failure",
	7:  "Cell discharge temp low",
	9:  "Cell charge temp low",
	14: "Cells imbalance",
}

// BMULogNoError marks a BMU event record carrying warnings instead of an error.
const BMULogNoError = 23

var BMULogErrors = map[int]string{
	0:  "Total voltage too high",
	1:  "Total voltage too low",
	2:  "Cell voltage too high",
	3:  "Cell voltage too low",
	4:  "Voltage sensor fault",
	5:  "Temperature sensor fault",
	6:  "Cell discharging temp too high",
	7:  "Cell discharging temp too low",
	8:  "Cell charging temp too high",
	9:  "Cell charging temp too low",
	10: "Discharging overcurrent",
	11: "Charging overcurrent",
	12: "Major loop fault",
	13: "Short circuit warning",
	14: "Battery imbalance",
	15: "Current sensor fault",
	23: "",
}

var BMULogCodes = map[int]string{
	0:   "Power ON",
	1:   "Power OFF",
	2:   "Events record",
	22:  "Firmware update started",
	23:  "Firmware update finished",
	24:  "Firmware update fails",
	25:  "SN code was changed",
	26:  "Current calibration",
	27:  "Battery voltage calibration",
	28:  "Pack voltage calibration",
	29:  "SOC/SOH calibration",
	32:  "System status changed",
	33:  "Erase BMS firmware",
	34:  "BMS update start",
	35:  "BMS update done",
	36:  "Functional safety info",
	38:  "SOP info",
	39:  "BCU hardware failed",
	40:  "BMS firmware list",
	41:  "MCU list of BMS",
	101: "Firmware start to update",
	102: "Firmware update successful",
	103: "Firmware update failure",
	104: "Firmware jump into other section",
	105: "Parameters table updated",
	106: "SN code changed",
	111: "Time calibrated",
	112: "BMS disconnected with BMU",
	113: "BMU F/W reset",
	114: "BMU watchdog reset",
	115: "Precharge failed",
	116: "Address registration failed",
	117: "Parameters table load failed",
	118: "System timing",
	120: "Parameters table updating done",
}

var BMSLogCodes = map[int]string{
	0:   "Powered ON",
	1:   "Powered OFF",
	2:   "Events record",
	3:   "Timing record",
	4:   "Start charging",
	5:   "Stop charging",
	6:   "Start discharging",
	7:   "Stop discharging",
	8:   "SOC calibration rough",
	9:   "SOC calibration fine",
	10:  "SOC calibration stop",
	11:  "CAN communication failed",
	12:  "Serial communication failed",
	13:  "Receive precharge command",
	14:  "Precharge successful",
	15:  "Precharge failure",
	16:  "Start end SOC calibration",
	17:  "Start balancing",
	18:  "Stop balancing",
	19:  "Address registered",
	20:  "System functional safety fault",
	21:  "Events additional info",
	101: "Start firmware update",
	102: "Firmware update finish",
	103: "Firmware update failed",
	104: "Firmware jump into other section",
	105: "Parameters table update",
	106: "SN code changed",
	107: "Current calibration",
	108: "Battery voltage calibration",
	109: "Pack voltage calibration",
	110: "SOC/SOH calibration",
	111: "Time calibrated",
}

var BMSPowerOff = map[int]string{
	0: "",
	1: "Press BMS LED button to switch off",
	2: "BMU requires to switch off",
	3: "BMU power off and communication between BMU and BMS failed",
	4: "Power off while communication failed(after 30 minutes)",
	5: "Premium LV BMU requires to power off",
	6: "Press BMS LED to power off",
	7: "Power off due to communication failed with BMU",
	8: "BMS off due to battery undervoltage",
}

var BMSStatusOn = map[int]string{
	0: "Charge MOS switch on",
	1: "Discharge MOS switch on",
	2: "Precharge MOS switch on",
	3: "Relay on",
	4: "Air switch on",
	5: "Precharge 2 MOS switch on",
}

var BMSStatusOff = map[int]string{
	0: "Charge MOS switch off",
	1: "Discharge MOS switch off",
	2: "Precharge MOS switch off",
	3: "Relay off",
	4: "Air switch off",
	5: "Precharge 2 MOS switch off",
}

var BMUStatus = map[int]string{
	0:  "Standby",
	1:  "Inactive",
	2:  "Restart",
	3:  "Active",
	4:  "Fault",
	5:  "Updating",
	6:  "Shutdown",
	7:  "Precharge",
	8:  "Battery check",
	9:  "Assign address",
	10: "Load parameters",
	11: "Init",
}

var BMUCalibration = map[int]string{0: "computer", 1: "inverter", 2: "internet"}

// UnitName renders a log unit id for humans.
func UnitName(unit int) string {
	if unit == BMUUnit {
		return "BMU"
	}
	return "BMS " + strconv.Itoa(unit)
}

// LogCodeDescription resolves a log code against the unit's code table.
func LogCodeDescription(unit, code int) string {
	if unit == BMUUnit {
		return codec.Lookup(BMULogCodes, code, "Not available")
	}
	return codec.Lookup(BMSLogCodes, code, "Not available")
}
