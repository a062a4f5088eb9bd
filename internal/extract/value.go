package extract

import (
	"encoding/json"
	"time"

	"github.com/gemtrack/bid-tracker/constants"
)

// Kind discriminates the value stored for one extracted field.
type Kind int

const (
	KindAbsent Kind = iota
	KindText
	KindNumber
	KindDate
)

// Value is one extracted field value. Absent is explicit: a field whose
// pattern did not match is present in the record with KindAbsent, never
// silently omitted.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Date   time.Time
}

func Absent() Value          { return Value{Kind: KindAbsent} }
func Text(s string) Value    { return Value{Kind: KindText, Text: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func Date(t time.Time) Value { return Value{Kind: KindDate, Date: t} }

// IsAbsent reports whether no value was extracted for the field.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// String renders the value in its canonical text form; absent renders empty.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return formatNumber(v.Number)
	case KindDate:
		return v.Date.Format("2006-01-02")
	default:
		return ""
	}
}

// MarshalJSON encodes absent as null, dates as ISO strings, numbers as JSON
// numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindText:
		return json.Marshal(v.Text)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindDate:
		return json.Marshal(v.Date.Format("2006-01-02"))
	default:
		return []byte("null"), nil
	}
}

// Record maps every field of the fixed schema to its extracted value.
type Record map[string]Value

// NewRecord returns a record covering the full schema with all fields absent.
func NewRecord() Record {
	r := make(Record, len(constants.FieldNames))
	for _, name := range constants.FieldNames {
		r[name] = Absent()
	}
	return r
}
