// internal/codec/bytes.go
package codec

// ByteOrder selects the byte order of a 16-bit value inside a byte buffer.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// ByteUint16 reads an unsigned 16-bit value at pos.
// Out of range positions yield 0.
func ByteUint16(buf []byte, pos int, order ByteOrder) int {
	if pos < 0 || pos+1 >= len(buf) {
		return 0
	}
	if order == LittleEndian {
		return int(buf[pos+1])<<8 | int(buf[pos])
	}
	return int(buf[pos])<<8 | int(buf[pos+1])
}

// ByteInt16 reads a signed 16-bit value at pos.
// Out of range positions yield 0.
func ByteInt16(buf []byte, pos int, order ByteOrder) int {
	v := ByteUint16(buf, pos, order)
	if v >= 32768 {
		v -= 65536
	}
	return v
}

// ByteAt returns buf[pos] or 0 when pos is out of range.
func ByteAt(buf []byte, pos int) int {
	if pos < 0 || pos >= len(buf) {
		return 0
	}
	return int(buf[pos])
}
