package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// IRValue is a sealed interface representing the scalar values that can
// appear in a filter request or a result row.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents SQL NULL / JSON null.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a non-integral number. Only produced for result cells
// and for loosely-typed request fields; never bound as an equality filter.
type IRFloat float64

func (IRFloat) irValue() {}

// MarshalJSON implements json.Marshaler for IRFloat.
// NaN and infinities have no JSON encoding and are written as null.
func (f IRFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRTime represents a timestamp. Serialized as RFC 3339 with nanoseconds.
type IRTime time.Time

func (IRTime) irValue() {}

// Time returns the underlying time.Time.
func (t IRTime) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON implements json.Marshaler for IRTime.
func (t IRTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(time.RFC3339Nano))
}

// Kind names the concrete type of v for error messages.
func Kind(v IRValue) string {
	switch v.(type) {
	case nil, IRNull:
		return "null"
	case IRString:
		return "string"
	case IRInt:
		return "int"
	case IRFloat:
		return "float"
	case IRBool:
		return "bool"
	case IRTime:
		return "timestamp"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Truthy reports whether v counts as "supplied".
// null, "", 0, 0.0 and false are all treated as absent.
func Truthy(v IRValue) bool {
	switch val := v.(type) {
	case nil, IRNull:
		return false
	case IRString:
		return val != ""
	case IRInt:
		return val != 0
	case IRFloat:
		return val != 0
	case IRBool:
		return bool(val)
	case IRTime:
		return !time.Time(val).IsZero()
	default:
		return false
	}
}

// UnsupportedKindError is returned by UnmarshalLoose for JSON arrays and
// objects, which have no scalar representation.
type UnsupportedKindError struct {
	Kind string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported JSON value kind: %s", e.Kind)
}

// UnmarshalLoose decodes a single JSON scalar into an IRValue.
// Integral numbers become IRInt, other numbers IRFloat. An empty input is
// treated as null.
func UnmarshalLoose(data []byte) (IRValue, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return IRNull{}, nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return IRString(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return IRBool(b), nil

	case 'n':
		return IRNull{}, nil

	case '[':
		return nil, &UnsupportedKindError{Kind: "array"}

	case '{':
		return nil, &UnsupportedKindError{Kind: "object"}

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		if i, err := n.Int64(); err == nil {
			return IRInt(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", n, err)
		}
		return IRFloat(f), nil
	}
}

// FromDriver converts a value scanned from database/sql into an IRValue.
// []byte is treated as text; unknown types fall back to their %v rendering.
func FromDriver(v any) IRValue {
	switch val := v.(type) {
	case nil:
		return IRNull{}
	case string:
		return IRString(val)
	case []byte:
		return IRString(string(val))
	case int64:
		return IRInt(val)
	case int32:
		return IRInt(val)
	case int16:
		return IRInt(val)
	case int8:
		return IRInt(val)
	case int:
		return IRInt(val)
	case uint8:
		return IRInt(val)
	case uint16:
		return IRInt(val)
	case uint32:
		return IRInt(val)
	case float64:
		return IRFloat(val)
	case float32:
		return IRFloat(val)
	case bool:
		return IRBool(val)
	case time.Time:
		return IRTime(val)
	case IRValue:
		return val
	default:
		return IRString(fmt.Sprintf("%v", val))
	}
}

// MarshalString encodes s as a JSON string without HTML escaping, so
// clinical free text such as "<38.5>" reaches the caller unchanged.
func MarshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalIRValue marshals an IRValue to JSON bytes. Strings are not
// HTML-escaped.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return []byte("null"), nil
	case IRString:
		return MarshalString(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRFloat:
		return val.MarshalJSON()
	case IRBool:
		return json.Marshal(bool(val))
	case IRTime:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}
