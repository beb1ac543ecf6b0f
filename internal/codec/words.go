// internal/codec/words.go
package codec

import (
	"fmt"
	"math"
)

// WordOrder selects how multi-register scalars are assembled.
// Different register ranges on the device use different orders.
type WordOrder int

const (
	// BigWordOrder puts the most significant word first.
	BigWordOrder WordOrder = iota
	// LittleWordOrder puts the least significant word first.
	LittleWordOrder
)

// Int8Pair splits a register into its high and low byte.
func Int8Pair(w uint16) (hi, lo int) {
	return int(w >> 8), int(w & 0xFF)
}

// Int4Pair splits the low byte of a register into two nibbles.
func Int4Pair(w uint16) (hi, lo int) {
	return int(w>>4) & 0x0F, int(w & 0x0F)
}

// Uint16 returns the first word as an unsigned value.
func Uint16(words []uint16) int {
	if len(words) == 0 {
		return 0
	}
	return int(words[0])
}

// Int16 returns the first word reinterpreted as two's complement.
func Int16(words []uint16) int {
	if len(words) == 0 {
		return 0
	}
	return int(int16(words[0]))
}

// Uint32 assembles exactly two registers into an unsigned 32-bit value.
func Uint32(words []uint16, order WordOrder) (uint32, error) {
	if len(words) != 2 {
		return 0, fmt.Errorf("codec: uint32 needs 2 registers, got %d", len(words))
	}
	hi, lo := words[0], words[1]
	if order == LittleWordOrder {
		hi, lo = lo, hi
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

// String decodes registers as big-endian ASCII bytes with trailing NULs removed.
func String(words []uint16) string {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
