// Package value implements FormCalc's tagged runtime value and the
// coercion rules operators and built-ins rely on.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Number
	String
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "Number"
	case String:
		return "String"
	case Boolean:
		return "Boolean"
	default:
		return "Null"
	}
}

// Value is a tagged union over FormCalc's four runtime variants.
// Null is produced only when evaluation failure is surfaced as a
// value by a caller; normal operators never synthesize it.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

func Num(f float64) Value   { return Value{kind: Number, num: f} }
func Str(s string) Value    { return Value{kind: String, str: s} }
func Bool(b bool) Value     { return Value{kind: Boolean, b: b} }
func NullValue() Value      { return Value{kind: Null} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

// Number returns the numeric payload; only meaningful when Kind() == Number.
func (v Value) Number() float64 { return v.num }

// Text returns the string payload; only meaningful when Kind() == String.
func (v Value) Text() string { return v.str }

// Bool returns the boolean payload; only meaningful when Kind() == Boolean.
func (v Value) Bool() bool { return v.b }

// Equal implements the cross-variant equality rule from the data model:
// same-variant comparison per variant semantics, false across variants.
// NaN is never equal to itself, matching IEEE-754.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Number:
		return v.num == o.num
	case String:
		return v.str == o.str
	case Boolean:
		return v.b == o.b
	default:
		return true // Null == Null
	}
}

// ToDisplayString renders a Value the way '+' concatenation does:
// numbers via shortest round-trip representation (no trailing dot for
// integral values), booleans as "true"/"false", strings verbatim.
func (v Value) ToDisplayString() string {
	switch v.kind {
	case String:
		return v.str
	case Boolean:
		if v.b {
			return "true"
		}
		return "false"
	case Number:
		return FormatNumber(v.num)
	default:
		return ""
	}
}

// FormatNumber renders a float64 using the shortest representation
// that round-trips, printing integral values without a fractional dot.
func FormatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// String implements fmt.Stringer, printed for logging and debugging.
func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.kind, v.ToDisplayString())
}

// jsonValue is the wire shape for a Value: a kind tag alongside a
// native JSON scalar, so a host embedder can serialize/deserialize
// results without reaching into Value's unexported fields.
type jsonValue struct {
	Kind Kind    `json:"kind"`
	Num  float64 `json:"num,omitempty"`
	Str  string  `json:"str,omitempty"`
	Bool bool    `json:"bool,omitempty"`
}

// MarshalJSON encodes a Value as {"kind": ..., plus whichever payload
// field applies}.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonValue{Kind: v.kind, Num: v.num, Str: v.str, Bool: v.b})
}

// UnmarshalJSON decodes a Value previously produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	*v = Value{kind: jv.Kind, num: jv.Num, str: jv.Str, b: jv.Bool}
	return nil
}
