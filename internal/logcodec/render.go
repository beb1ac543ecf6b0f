// internal/logcodec/render.go
package logcodec

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/bydbox-reader/internal/logstore"
	"github.com/tamzrod/bydbox-reader/internal/protocol"
)

// DateTimeLayout renders time values inside sentences.
const DateTimeLayout = "2006-01-02 15:04:05"

// Render joins the datapoints of one record into a sentence.
// Datapoints without a definition are skipped.
func Render(dps []Datapoint) string {
	parts := make([]string, 0, len(dps))
	for _, dp := range dps {
		def, ok := dp.Def()
		if !ok {
			continue
		}
		parts = append(parts, renderOne(def, dp.Value))
	}
	return strings.Join(parts, ". ") + "."
}

func renderOne(def Definition, v interface{}) string {
	switch def.Kind {
	case Template:
		return strings.ReplaceAll(def.Label, "{v}", formatValue(v))

	case NumberList, LabelList:
		items, _ := v.([]string)
		if len(items) == 0 {
			return def.Label + ": -"
		}
		sep := ", "
		if def.Kind == NumberList {
			sep = ","
		}
		return def.Label + ": " + strings.Join(items, sep)
	}

	s := def.Label + ": " + formatValue(v)
	if def.Unit != "" {
		s += " " + def.Unit
	}
	return s
}

// formatValue prints scaled values with at least one decimal, like "50.0".
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case time.Time:
		return x.Format(DateTimeLayout)
	case []string:
		return strings.Join(x, ", ")
	}
	return fmt.Sprint(v)
}

// Describe returns the code description and the decoded detail of an entry.
// Records without a decoder render as "Not decoded: <hex>".
func Describe(e logstore.Entry) (description, detail string) {
	description = protocol.LogCodeDescription(e.Unit, e.Code)

	dps := Decode(SourceOf(e.Unit), e.Code, e.Payload)
	if len(dps) == 0 {
		return description, "Not decoded: " + hex.EncodeToString(e.Payload)
	}
	return description, Render(dps)
}
