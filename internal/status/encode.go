// internal/status/encode.go
package status

import "github.com/tamzrod/bydbox-reader/internal/telemetry"

// Encode converts a Snapshot into its telemetry entries.
// No IO. No side effects.
func Encode(s Snapshot) map[string]telemetry.Value {
	return map[string]telemetry.Value{
		KeyHealth:         telemetry.Int(int(s.Health)),
		KeyLastErrorCode:  telemetry.Int(int(s.LastErrorCode)),
		KeySecondsInError: telemetry.Int(int(s.SecondsInError)),
	}
}
