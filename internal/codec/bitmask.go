// internal/codec/bitmask.go
package codec

import (
	"fmt"
	"strings"
)

// MaxLabelLength bounds joined label strings.
const MaxLabelLength = 255

// BitmaskToLabels returns one label per set bit, lowest bit first.
// Set bits without a table entry render as "bit N undefined".
func BitmaskToLabels(mask uint16, table map[int]string) []string {
	var out []string
	for bit := 0; bit < 16; bit++ {
		if mask&(1<<uint(bit)) == 0 {
			continue
		}
		if label, ok := table[bit]; ok && label != "" {
			out = append(out, label)
			continue
		}
		out = append(out, fmt.Sprintf("bit %d undefined", bit))
	}
	return out
}

// JoinLabels joins labels with commas, bounded to MaxLabelLength.
// def is returned when there is nothing to join.
func JoinLabels(labels []string, def string) string {
	if len(labels) == 0 {
		return def
	}
	s := strings.Join(labels, ",")
	if len(s) > MaxLabelLength {
		s = s[:MaxLabelLength]
	}
	return s
}

// BitmaskToString is BitmaskToLabels followed by JoinLabels.
func BitmaskToString(mask uint16, table map[int]string, def string) string {
	return JoinLabels(BitmaskToLabels(mask, table), def)
}

// Lookup returns table[code] or def.
func Lookup(table map[int]string, code int, def string) string {
	if v, ok := table[code]; ok {
		return v
	}
	return def
}

// ListTable turns an ordered label list into a bit/code table.
func ListTable(labels ...string) map[int]string {
	t := make(map[int]string, len(labels))
	for i, l := range labels {
		t[i] = l
	}
	return t
}
