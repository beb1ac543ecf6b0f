// internal/telemetry/group.go
package telemetry

import "strconv"

// Groups partition the map per device for consumers that publish per device.
const (
	GroupBMU  = "bmu"
	GroupLogs = "logs"
)

// logKeys are BMU-namespace keys that belong to the log view.
var logKeys = map[string]bool{
	"bmu_logs":  true,
	"log_count": true,
}

// GroupOf returns the device group of a key and the key without its tower prefix.
// Tower keys group as "bms<N>".
func GroupOf(key string) (group, name string) {
	if logKeys[key] {
		return GroupLogs, key
	}
	tower, name := SplitKey(key)
	if tower == 0 {
		return GroupBMU, name
	}
	return "bms" + strconv.Itoa(tower), name
}

// Partition splits values by GroupOf.
func Partition(values map[string]Value) map[string]map[string]Value {
	out := map[string]map[string]Value{}
	for k, v := range values {
		g, name := GroupOf(k)
		if out[g] == nil {
			out[g] = map[string]Value{}
		}
		out[g][name] = v
	}
	return out
}
