// internal/telemetry/map_test.go
package telemetry

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSetGetReplaces(t *testing.T) {
	m := NewMap()
	m.Set("soc", Number(50))
	m.Set("soc", Number(51))

	v, ok := m.Get("soc")
	require.True(t, ok)
	f, isNum := v.Float()
	assert.True(t, isNum)
	assert.Equal(t, 51.0, f)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMapSnapshotIsCopy(t *testing.T) {
	m := NewMap()
	m.SetAll(map[string]Value{"a": Int(1), "b": String("x")})

	snap := m.Snapshot()
	snap["c"] = Int(3)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestMapConcurrentAccess(t *testing.T) {
	m := NewMap()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.Set(BMSKey(i, "soc"), Int(i))
		}(i)
		go func() {
			defer wg.Done()
			_ = m.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, m.Len())
}

func TestValueJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Value{
		"n": Number(1.5),
		"s": String("Normal"),
		"l": List(nil),
		"r": Records([]Record{{"m": 0, "v": []float64{3.3}}}),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1.5,"s":"Normal","l":[],"r":[{"m":0,"v":[3.3]}]}`, string(b))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "bms3_soc", BMSKey(3, "soc"))

	tower, name := SplitKey("bms12_cell_voltages")
	assert.Equal(t, 12, tower)
	assert.Equal(t, "cell_voltages", name)

	tower, name = SplitKey("soc")
	assert.Equal(t, 0, tower)
	assert.Equal(t, "soc", name)
}

func TestPartition(t *testing.T) {
	parts := Partition(map[string]Value{
		"soc":          Int(80),
		"bms1_soc":     Int(81),
		"bms2_soc":     Int(82),
		"bmu_logs":     Records(nil),
		"log_count":    Int(3),
		"bms1_updated": String("x"),
	})

	require.Len(t, parts, 4)
	assert.Equal(t, Int(80), parts[GroupBMU]["soc"])
	assert.Equal(t, Int(81), parts["bms1"]["soc"])
	assert.Len(t, parts["bms1"], 2)
	assert.Equal(t, Int(82), parts["bms2"]["soc"])
	assert.Equal(t, Int(3), parts[GroupLogs]["log_count"])
}
