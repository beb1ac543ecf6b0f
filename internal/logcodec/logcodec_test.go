// internal/logcodec/logcodec_test.go
package logcodec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/bydbox-reader/internal/logstore"
)

func payload23(set map[int]byte) []byte {
	b := make([]byte, 23)
	for i, v := range set {
		b[i] = v
	}
	return b
}

func TestUnknownCodeYieldsNothing(t *testing.T) {
	assert.Empty(t, Decode(SourceBMU, 99, payload23(nil)))
	assert.Empty(t, Decode(SourceBMS, 41, payload23(nil)))
}

func TestBMUPowerOn(t *testing.T) {
	dps := Decode(SourceBMU, 0, payload23(map[int]byte{0: 1, 1: 0, 2: 3, 3: 16}))
	assert.Equal(t, "Bootloader: 1. Executing: A. Firmware: 3.16.", Render(dps))
}

func TestBMUEventWarning(t *testing.T) {
	p := payload23(map[int]byte{
		0: 1, 1: 23, 2: 0, 3: 0x0C,
		4: 0x0D, 5: 0x05,
		6: 0x0C, 7: 0xE4,
		8: 25, 9: 20,
		10: 0x01, 11: 0xF4,
		12: 80, 13: 99,
	})

	want := "Event: Warning; cells overvoltage,cells undervoltage. " +
		"Cell max voltage: 3333 mV. Cell min voltage: 3300 mV. " +
		"Battery max temp: 25 °C. Battery min temp: 20 °C. " +
		"Battery voltage: 50.0 V. SOC: 80 %. SOH: 99 %."
	assert.Equal(t, want, Render(Decode(SourceBMU, 2, p)))
}

func TestBMUEventErrorAndCleared(t *testing.T) {
	dps := Decode(SourceBMU, 2, payload23(map[int]byte{0: 1, 1: 2}))
	require.NotEmpty(t, dps)
	assert.Equal(t, "Error; cell voltage too high", dps[0].Value)

	dps = Decode(SourceBMU, 2, payload23(nil))
	assert.Equal(t, "Error/Warning cleared", dps[0].Value)
}

func TestBMUFirmwareListOptionalThird(t *testing.T) {
	dps := Decode(SourceBMU, 40, payload23(map[int]byte{0: 1, 1: 2, 2: 3, 3: 4, 4: 5, 5: 6, 6: 0xFF}))
	assert.Len(t, dps, 4)

	dps = Decode(SourceBMU, 40, payload23(map[int]byte{6: 7, 7: 1, 8: 9}))
	require.Len(t, dps, 6)
	assert.Equal(t, "1.9", dps[5].Value)
}

func TestBMUSystemTimingUndefinedStatus(t *testing.T) {
	dps := Decode(SourceBMU, 118, payload23(map[int]byte{0: 200}))
	require.Len(t, dps, 1)
	assert.Equal(t, "Status: Undefined.", Render(dps))

	dps = Decode(SourceBMU, 118, payload23(map[int]byte{0: 3, 3: 55}))
	assert.Len(t, dps, 11)
}

func TestBMSEventAllClear(t *testing.T) {
	want := "Warnings: -. Errors: -. Status: -. SOC: 0 %. SOH: 0 %. " +
		"Battery voltage: 0.0 V. Output voltage: 0.0 V. Output current: 0.0 A. " +
		"Cell max voltage: 0 mV. Cell min voltage: 0 mV. Cell max temp: 0 °C. Cell min temp: 0 °C."
	assert.Equal(t, want, Render(Decode(SourceBMS, 2, payload23(nil))))
}

func TestBMSEventStatusAndVariants(t *testing.T) {
	dps := Decode(SourceBMS, 9, payload23(map[int]byte{8: 0x03, 9: 10, 10: 95}))
	require.True(t, len(dps) >= 5)
	assert.Equal(t, []string{"Charge MOS switch off", "Discharge MOS switch off"}, dps[2].Value)
	assert.Equal(t, "bat_idle", dps[3].Name)
	assert.Equal(t, "target_soc", dps[4].Name)

	dps = Decode(SourceBMS, 21, payload23(map[int]byte{17: 4, 18: 9}))
	last := dps[len(dps)-4:]
	assert.Equal(t, "c_max_v_n", last[0].Name)
	assert.Equal(t, 4, last[0].Value)
	assert.Equal(t, 9, last[1].Value)
}

func TestBMSEventSignedCurrent(t *testing.T) {
	// -12.5 A little endian at 15
	dps := Decode(SourceBMS, 4, payload23(map[int]byte{15: 0x83, 16: 0xFF}))
	for _, dp := range dps {
		if dp.Name == "out_a" {
			assert.Equal(t, -12.5, dp.Value)
			return
		}
	}
	t.Fatal("out_a not decoded")
}

func TestBMSBalancingCells(t *testing.T) {
	p := payload23(map[int]byte{0: 0x05, 2: 0x80, 21: 0xE4, 22: 0x0C})
	assert.Equal(t, "Balancing cells: 0,2,23. Cell min voltage: 3300 mV.", Render(Decode(SourceBMS, 17, p)))
	assert.Equal(t, "Cell min voltage: 3300 mV.", Render(Decode(SourceBMS, 18, p)))
}

func TestBMSTimeCalibrated(t *testing.T) {
	dps := Decode(SourceBMS, 111, payload23(map[int]byte{0: 24, 1: 1, 2: 2, 3: 3, 4: 4, 5: 5}))
	assert.Equal(t, "Date time set to 2024-01-02 03:04:05.", Render(dps))

	assert.Empty(t, Decode(SourceBMS, 111, payload23(map[int]byte{0: 24, 1: 13, 2: 2})))
}

func TestBMSPowerOffTemplate(t *testing.T) {
	dps := Decode(SourceBMS, 1, payload23(map[int]byte{1: 2, 2: 1, 3: 1, 4: 7}))
	assert.Equal(t, "Powered off: BMU requires to switch off. Running section: B. Firmware: 1.7.", Render(dps))
}

func TestDescribe(t *testing.T) {
	e := logstore.Entry{Unit: 0, Code: 99, Payload: []byte{0x01, 0x02}}
	desc, detail := Describe(e)
	assert.Equal(t, "Not available", desc)
	assert.Equal(t, "Not decoded: 0102", detail)

	e = logstore.Entry{Unit: 1, Code: 106, Payload: payload23(nil)}
	desc, detail = Describe(e)
	assert.Equal(t, "SN code changed", desc)
	assert.Equal(t, "Serial number change.", detail)
}

func TestValidDate(t *testing.T) {
	_, ok := ValidDate(2024, 2, 30, 0, 0, 0, time.UTC)
	assert.False(t, ok)
	_, ok = ValidDate(2024, 2, 29, 23, 59, 59, time.UTC)
	assert.True(t, ok)
	_, ok = ValidDate(2024, 0, 1, 0, 0, 0, time.UTC)
	assert.False(t, ok)
}

func TestBalancingHistogram(t *testing.T) {
	entries := []logstore.Entry{
		{Unit: 1, Code: 17, Payload: payload23(map[int]byte{0: 0x01})},
		{Unit: 1, Code: 17, Payload: payload23(map[int]byte{0: 0x03})},
		{Unit: 1, Code: 18, Payload: payload23(map[int]byte{0: 0xFF})},
		{Unit: 2, Code: 17, Payload: payload23(map[int]byte{2: 0x01})},
		{Unit: 0, Code: 17, Payload: payload23(map[int]byte{0: 0xFF})},
	}

	h := BalancingHistogram(entries, 2, 16)
	require.Len(t, h, 2)

	t1 := h[1]
	assert.Equal(t, 2, t1.Total)
	require.Len(t, t1.Modules, 2)
	assert.Equal(t, 2, t1.Modules[0].Counts[0])
	assert.Equal(t, 1, t1.Modules[0].Counts[1])
	assert.Equal(t, 0, t1.Modules[1].Counts[0])

	t2 := h[2]
	assert.Equal(t, 1, t2.Total)
	assert.Equal(t, 1, t2.Modules[1].Counts[0])
	assert.Equal(t, 1, t2.Modules[1].Module)
}
