// internal/telemetry/value.go
package telemetry

import (
	"encoding/json"
	"time"
)

// Kind tags the active member of a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindTime
	KindList
	KindRecords
)

// Record is one nested row, e.g. a per-module cell voltage array.
type Record map[string]interface{}

// Value is a single telemetry entry.
// Exactly one member is meaningful, selected by Kind.
type Value struct {
	Kind    Kind
	Num     float64
	Str     string
	Time    time.Time
	List    []float64
	Records []Record
}

func Number(v float64) Value   { return Value{Kind: KindNumber, Num: v} }
func Int(v int) Value          { return Value{Kind: KindNumber, Num: float64(v)} }
func String(v string) Value    { return Value{Kind: KindString, Str: v} }
func Time(v time.Time) Value   { return Value{Kind: KindTime, Time: v} }
func List(v []float64) Value   { return Value{Kind: KindList, List: v} }
func Records(v []Record) Value { return Value{Kind: KindRecords, Records: v} }

// Float reports the numeric member and whether the value is a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// Interface returns the active member as a plain Go value.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindString:
		return v.Str
	case KindTime:
		return v.Time
	case KindList:
		if v.List == nil {
			return []float64{}
		}
		return v.List
	case KindRecords:
		if v.Records == nil {
			return []Record{}
		}
		return v.Records
	}
	return nil
}

// MarshalJSON encodes only the active member.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
