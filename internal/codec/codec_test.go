// internal/codec/codec_test.go
package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt8Pair(t *testing.T) {
	hi, lo := Int8Pair(0x1234)
	assert.Equal(t, 0x12, hi)
	assert.Equal(t, 0x34, lo)
}

func TestInt4Pair(t *testing.T) {
	hi, lo := Int4Pair(0x0023)
	assert.Equal(t, 2, hi)
	assert.Equal(t, 3, lo)

	// only the low byte carries nibbles
	hi, lo = Int4Pair(0xFF15)
	assert.Equal(t, 1, hi)
	assert.Equal(t, 5, lo)
}

func TestUint32WordOrder(t *testing.T) {
	v, err := Uint32([]uint16{0x0001, 0x0000}, LittleWordOrder)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	v, err = Uint32([]uint16{0x0000, 0x0001}, BigWordOrder)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	v, err = Uint32([]uint16{0x1234, 0x5678}, LittleWordOrder)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x56781234), v)
}

func TestUint32LengthMismatch(t *testing.T) {
	_, err := Uint32([]uint16{1}, BigWordOrder)
	assert.Error(t, err)
}

func TestInt16(t *testing.T) {
	assert.Equal(t, -1, Int16([]uint16{0xFFFF}))
	assert.Equal(t, 100, Int16([]uint16{100}))
	assert.Equal(t, 0, Int16(nil))
}

func TestString(t *testing.T) {
	words := []uint16{0x5030, 0x3331, 0x0000} // "P031" + NULs
	assert.Equal(t, "P031", String(words))
	assert.Equal(t, "", String([]uint16{0, 0}))
}

func TestByteConversions(t *testing.T) {
	buf := []byte{0x01, 0x02, 0xFF, 0xFE}

	assert.Equal(t, 0x0102, ByteUint16(buf, 0, BigEndian))
	assert.Equal(t, 0x0201, ByteUint16(buf, 0, LittleEndian))
	assert.Equal(t, -2, ByteInt16(buf, 2, BigEndian))
	assert.Equal(t, -257, ByteInt16(buf, 2, LittleEndian))

	// out of range is not an error
	assert.Equal(t, 0, ByteUint16(buf, 3, BigEndian))
	assert.Equal(t, 0, ByteInt16(buf, 10, LittleEndian))
	assert.Equal(t, 0, ByteAt(buf, -1))
}

func TestBitmaskToLabels(t *testing.T) {
	table := map[int]string{0: "zero", 2: "two"}

	got := BitmaskToLabels(0b0000_0000_0000_1111, table)
	assert.Equal(t, []string{"zero", "bit 1 undefined", "two", "bit 3 undefined"}, got)

	assert.Empty(t, BitmaskToLabels(0, table))
}

func TestBitmaskToStringDefaults(t *testing.T) {
	table := ListTable("a", "b")
	assert.Equal(t, "Normal", BitmaskToString(0, table, "Normal"))
	assert.Equal(t, "a,b", BitmaskToString(3, table, "Normal"))
}

func TestJoinLabelsBounded(t *testing.T) {
	labels := []string{strings.Repeat("x", 200), strings.Repeat("y", 200)}
	assert.Len(t, JoinLabels(labels, "NA"), MaxLabelLength)
	assert.Equal(t, "NA", JoinLabels(nil, "NA"))
}

func TestLookup(t *testing.T) {
	table := map[int]string{1: "one"}
	assert.Equal(t, "one", Lookup(table, 1, "NA"))
	assert.Equal(t, "NA", Lookup(table, 2, "NA"))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.35, Round(12.346, 2))
	assert.Equal(t, 98.7, Round(98.66, 1))
}
