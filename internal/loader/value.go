package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnType is the declared type of a layout column.
type ColumnType int

const (
	// TypeString keeps the trimmed field text.
	TypeString ColumnType = iota
	// TypeInt coerces the field to an integer after stripping separators.
	TypeInt
	// TypeFloat coerces the field to a float after stripping separators.
	TypeFloat
)

func (t ColumnType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// ParseColumnType maps "string", "int" or "float" to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str", "":
		return TypeString, nil
	case "int", "integer":
		return TypeInt, nil
	case "float", "number":
		return TypeFloat, nil
	default:
		return TypeString, fmt.Errorf("unknown column type %q", s)
	}
}

// UnmarshalYAML decodes a column type written as a string.
func (t *ColumnType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	ct, err := ParseColumnType(s)
	if err != nil {
		return err
	}
	*t = ct
	return nil
}

// MarshalYAML encodes a column type as its name.
func (t ColumnType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// Value is one coerced field. A Value is null (Valid false) when the column
// was absent from the line or the text did not convert to the column type;
// Raw always keeps the trimmed source text.
type Value struct {
	Raw     string
	Type    ColumnType
	Present bool // the source line had this column
	Valid   bool
	i       int64
	f       float64
}

// Int returns the integer value. Float columns are truncated toward zero.
func (v Value) Int() (int64, bool) {
	if !v.Valid {
		return 0, false
	}
	switch v.Type {
	case TypeInt:
		return v.i, true
	case TypeFloat:
		return int64(v.f), true
	default:
		return 0, false
	}
}

// Float returns the numeric value as a float64.
func (v Value) Float() (float64, bool) {
	if !v.Valid {
		return 0, false
	}
	switch v.Type {
	case TypeInt:
		return float64(v.i), true
	case TypeFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// String returns the trimmed field text.
func (v Value) String() string {
	return v.Raw
}

// StripSeparators removes thousands separators from a numeric field.
func StripSeparators(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// Coerce converts a raw field to a Value of type t. Conversion failures
// produce a null Value instead of an error.
func Coerce(raw string, t ColumnType) Value {
	raw = strings.TrimSpace(raw)
	v := Value{Raw: raw, Type: t, Present: true}

	switch t {
	case TypeInt:
		n, err := strconv.ParseInt(StripSeparators(raw), 10, 64)
		if err == nil {
			v.i, v.Valid = n, true
		}
	case TypeFloat:
		f, err := strconv.ParseFloat(StripSeparators(raw), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			v.f, v.Valid = f, true
		}
	default:
		v.Valid = raw != ""
	}
	return v
}
