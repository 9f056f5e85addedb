// Package value implements the tagged-union Value type exchanged at every
// adapter boundary between the schema/migration core and a SQL driver.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the tag of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat64
	KindDecimal
	KindString
	KindBytes
	KindUUID
	KindDateTime
	KindDate
	KindTime
	KindJSON
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindUUID:
		return "uuid"
	case KindDateTime:
		return "datetime"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindJSON:
		return "json"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the SQL-agnostic value space the core
// exchanges with adapters. Only the field matching Kind is meaningful.
//
// Decimal is carried as text (arbitrary precision); equality for decimals is
// by normalized textual form, not float comparison.
type Value struct {
	Kind     Kind
	Bool     bool
	Int32    int32
	Int64    int64
	Float64  float64
	Decimal  string
	Str      string
	Bytes    []byte
	UUID     uuid.UUID
	DateTime time.Time
	Date     time.Time
	Time     time.Time
	JSON     any
	Array    []Value
}

func Null() Value                { return Value{Kind: KindNull} }
func Bool(b bool) Value          { return Value{Kind: KindBool, Bool: b} }
func Int32(i int32) Value        { return Value{Kind: KindInt32, Int32: i} }
func Int64(i int64) Value        { return Value{Kind: KindInt64, Int64: i} }
func Float64(f float64) Value    { return Value{Kind: KindFloat64, Float64: f} }
func Decimal(s string) Value     { return Value{Kind: KindDecimal, Decimal: normalizeDecimal(s)} }
func String(s string) Value      { return Value{Kind: KindString, Str: s} }
func Bytes(b []byte) Value       { return Value{Kind: KindBytes, Bytes: b} }
func UUIDValue(u uuid.UUID) Value { return Value{Kind: KindUUID, UUID: u} }
func DateTime(t time.Time) Value { return Value{Kind: KindDateTime, DateTime: t.UTC()} }
func Date(t time.Time) Value     { return Value{Kind: KindDate, Date: t} }
func Time(t time.Time) Value     { return Value{Kind: KindTime, Time: t} }
func JSON(v any) Value           { return Value{Kind: KindJSON, JSON: v} }
func Array(vs []Value) Value     { return Value{Kind: KindArray, Array: vs} }

// IsNull reports whether v is the tagged null, distinct from any typed
// zero value.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// normalizeDecimal trims a decimal's textual representation so that
// "1.50" and "1.5000" compare equal while "1.5" and "1.50000001" do not.
func normalizeDecimal(s string) string {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if !strings.Contains(s, ".") {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			s = "0"
		}
		if neg && s != "0" {
			return "-" + s
		}
		return s
	}
	parts := strings.SplitN(s, ".", 2)
	intPart := strings.TrimLeft(parts[0], "0")
	if intPart == "" {
		intPart = "0"
	}
	fracPart := strings.TrimRight(parts[1], "0")
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

// Equal reports structural equality: same tag and same underlying data.
// Decimal equality is by normalized textual form.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt32:
		return a.Int32 == b.Int32
	case KindInt64:
		return a.Int64 == b.Int64
	case KindFloat64:
		return a.Float64 == b.Float64
	case KindDecimal:
		return normalizeDecimal(a.Decimal) == normalizeDecimal(b.Decimal)
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return string(a.Bytes) == string(b.Bytes)
	case KindUUID:
		return a.UUID == b.UUID
	case KindDateTime:
		return a.DateTime.Equal(b.DateTime)
	case KindDate:
		return a.Date.Equal(b.Date)
	case KindTime:
		return a.Time.Equal(b.Time)
	case KindJSON:
		aj, _ := canonicalJSON(a.JSON)
		bj, _ := canonicalJSON(b.JSON)
		return aj == bj
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders the default string form of v, used for canonicalization
// and debug output. JSON uses canonical (key-sorted) form.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt32:
		return strconv.FormatInt(int64(v.Int32), 10)
	case KindInt64:
		return strconv.FormatInt(v.Int64, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.Float64, 'g', -1, 64)
	case KindDecimal:
		return normalizeDecimal(v.Decimal)
	case KindString:
		return v.Str
	case KindBytes:
		return fmt.Sprintf("%x", v.Bytes)
	case KindUUID:
		return v.UUID.String()
	case KindDateTime:
		return v.DateTime.UTC().Format(time.RFC3339Nano)
	case KindDate:
		return v.Date.Format("2006-01-02")
	case KindTime:
		return v.Time.Format("15:04:05")
	case KindJSON:
		s, _ := canonicalJSON(v.JSON)
		return s
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return ""
	}
}

// canonicalJSON marshals v with map keys sorted, so that two
// structurally-equal JSON trees always serialize identically.
func canonicalJSON(v any) (string, error) {
	normalized, err := normalizeForJSON(v)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func normalizeForJSON(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(t))
		for _, k := range keys {
			n, err := normalizeForJSON(t[k])
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			n, err := normalizeForJSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return v, nil
	}
}
