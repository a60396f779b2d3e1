// Package value implements the JSON value model queried by the rule
// evaluator. It is the "external collaborator" boundary described by JCR:
// the evaluator only ever calls predicates (IsString, IsObject, ...),
// accessors (AsString, AsFloat, ...), and iteration/indexing on a *Value;
// it never reaches past this package into the underlying representation.
package value

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrType is returned when a value is accessed as the wrong Kind.
var ErrType = errors.New("value: type error")

// Kind identifies the JSON type carried by a Value.
type Kind int8

const (
	Null Kind = iota
	Integer
	Unsigned
	Float
	String
	Boolean
	Array
	Object
	numKinds
	kindUnknown Kind = -1
)

var kindStrings = [numKinds]string{
	"<null>", "<integer>", "<unsigned>", "<float>", "<string>", "<boolean>", "<array>", "<object>",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "<unknown>"
	}
	return kindStrings[k]
}

// member is one key/value pair of an Object, kept in source order: the
// evaluator's RegexMember iterates members in this order, which callers
// must not assume is sorted.
type member struct {
	key string
	val *Value
}

// Value is an immutable JSON value. The zero Value is a JSON null.
type Value struct {
	kind    Kind
	boolean bool
	integer int64
	uint    uint64
	float   float64
	str     string
	arr     []*Value
	obj     []member
}

func newNull() *Value          { return &Value{kind: Null} }
func newBool(b bool) *Value    { return &Value{kind: Boolean, boolean: b} }
func newInt(i int64) *Value    { return &Value{kind: Integer, integer: i} }
func newUint(u uint64) *Value  { return &Value{kind: Unsigned, uint: u} }
func newFloat(f float64) *Value { return &Value{kind: Float, float: f} }
func newString(s string) *Value { return &Value{kind: String, str: s} }

// Kind reports the JSON type of v.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	if v.kind < 0 || v.kind >= numKinds {
		return kindUnknown
	}
	return v.kind
}

func (v *Value) IsNull() bool    { return v.Kind() == Null }
func (v *Value) IsBoolean() bool { return v.Kind() == Boolean }
func (v *Value) IsString() bool  { return v.Kind() == String }
func (v *Value) IsArray() bool   { return v.Kind() == Array }
func (v *Value) IsObject() bool  { return v.Kind() == Object }

// IsInteger reports whether v is a signed or unsigned integer literal, per
// JCR's AnyInteger rule ("value is signed or unsigned integer").
func (v *Value) IsInteger() bool {
	k := v.Kind()
	return k == Integer || k == Unsigned
}

// IsFloat reports whether v is a floating-point number.
func (v *Value) IsFloat() bool { return v.Kind() == Float }

// IsNumber reports whether v is any numeric kind (integer, unsigned, or float).
func (v *Value) IsNumber() bool {
	return v.IsInteger() || v.IsFloat()
}

func (v *Value) AsNull() (struct{}, error) {
	if v.IsNull() {
		return struct{}{}, nil
	}
	return struct{}{}, fmt.Errorf("%w: %v is not null", ErrType, v)
}

func (v *Value) AsBoolean() (bool, error) {
	if v.IsBoolean() {
		return v.boolean, nil
	}
	return false, fmt.Errorf("%w: %v is not a boolean", ErrType, v)
}

func (v *Value) AsString() (string, error) {
	if v.IsString() {
		return v.str, nil
	}
	return "", fmt.Errorf("%w: %v is not a string", ErrType, v)
}

// AsInteger returns the value as an int64. Unsigned values outside int64's
// range are truncated by conversion; callers needing the full range should
// use AsUnsigned.
func (v *Value) AsInteger() (int64, error) {
	switch v.Kind() {
	case Integer:
		return v.integer, nil
	case Unsigned:
		return int64(v.uint), nil
	}
	return 0, fmt.Errorf("%w: %v is not an integer", ErrType, v)
}

// AsUnsigned returns the value as a uint64. A negative Integer fails.
func (v *Value) AsUnsigned() (uint64, error) {
	switch v.Kind() {
	case Unsigned:
		return v.uint, nil
	case Integer:
		if v.integer >= 0 {
			return uint64(v.integer), nil
		}
	}
	return 0, fmt.Errorf("%w: %v is not an unsigned integer", ErrType, v)
}

// AsFloat returns any numeric value as a float64, matching integers and
// unsigned integers into double precision the way the teacher model's
// AsNumber did.
func (v *Value) AsFloat() (float64, error) {
	switch v.Kind() {
	case Integer:
		return float64(v.integer), nil
	case Unsigned:
		return float64(v.uint), nil
	case Float:
		return v.float, nil
	}
	return 0, fmt.Errorf("%w: %v is not a number", ErrType, v)
}

func (v *Value) AsArray() ([]*Value, error) {
	if v.IsArray() {
		return v.arr, nil
	}
	return nil, fmt.Errorf("%w: %v is not an array", ErrType, v)
}

// Members returns the object's key/value pairs in source order.
func (v *Value) Members() ([]MemberView, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("%w: %v is not an object", ErrType, v)
	}
	out := make([]MemberView, len(v.obj))
	for i, m := range v.obj {
		out[i] = MemberView{Key: m.key, Val: m.val}
	}
	return out, nil
}

// MemberView exposes one object member without leaking the internal slice.
type MemberView struct {
	Key string
	Val *Value
}

// Lookup finds a member by exact key; ok is false if v is not an object or
// the key is absent.
func (v *Value) Lookup(key string) (val *Value, ok bool) {
	if !v.IsObject() {
		return nil, false
	}
	for _, m := range v.obj {
		if m.key == key {
			return m.val, true
		}
	}
	return nil, false
}

// Len returns the number of elements in an array, or members in an object.
func (v *Value) Len() int {
	switch v.Kind() {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.obj)
	}
	return 0
}

// Index returns the i'th array element, or a null Value if v isn't an
// array or i is out of range — the fluent-drill-down behavior the teacher
// model offered.
func (v *Value) Index(i int) *Value {
	if !v.IsArray() || i < 0 || i >= len(v.arr) {
		return newNull()
	}
	return v.arr[i]
}

// Key is the fluent counterpart to Lookup: returns null instead of ok=false.
func (v *Value) Key(k string) *Value {
	if val, ok := v.Lookup(k); ok {
		return val
	}
	return newNull()
}

// Equal reports deep structural equality. Integer and Unsigned compare
// across kinds by numeric value (so `5` literal matches an Unsigned `5`).
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v.IsNull() == o.IsNull()
	}
	switch {
	case v.IsNumber() && o.IsNumber():
		if v.Kind() == Float || o.Kind() == Float {
			fv, _ := v.AsFloat()
			fo, _ := o.AsFloat()
			return fv == fo
		}
		uv, errv := v.AsUnsigned()
		uo, erro := o.AsUnsigned()
		if errv == nil && erro == nil {
			return uv == uo
		}
		iv, _ := v.AsInteger()
		io, _ := o.AsInteger()
		return iv == io
	case v.Kind() != o.Kind():
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Boolean:
		return v.boolean == o.boolean
	case String:
		return v.str == o.str
	case Array:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for _, m := range v.obj {
			ov, ok := o.Lookup(m.key)
			if !ok || !m.val.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a debugging representation. Not guaranteed to be valid JSON.
func (v *Value) String() string {
	switch v.Kind() {
	case Null:
		return "null"
	case Integer:
		return strconv.FormatInt(v.integer, 10)
	case Unsigned:
		return strconv.FormatUint(v.uint, 10)
	case Float:
		return strconv.FormatFloat(v.float, 'f', -1, 64)
	case String:
		return strconv.Quote(v.str)
	case Boolean:
		if v.boolean {
			return "true"
		}
		return "false"
	case Array:
		s := "["
		for i, e := range v.arr {
			if i > 0 {
				s += ", "
			}
			s += e.String()
		}
		return s + "]"
	case Object:
		s := "{"
		for i, m := range v.obj {
			if i > 0 {
				s += ", "
			}
			s += strconv.Quote(m.key) + ": " + m.val.String()
		}
		return s + "}"
	}
	return "<unknown>"
}
