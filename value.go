package zish

import (
	"bytes"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindDecimal
	KindFloat
	KindStr
	KindBytes
	KindTimestamp
	KindList
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindTimestamp:
		return "timestamp"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Timestamp is a calendar date-time with either an explicit UTC offset or an
// explicitly unknown one. An unknown offset serializes with the literal
// "-00:00" suffix; the Time field is then interpreted as if UTC.
type Timestamp struct {
	Time        time.Time
	OffsetKnown bool
}

// MapEntry is one key/value pair of a map, in insertion order.
type MapEntry struct {
	Key   Value
	Value Value
}

// Value is a single Zish value: one of null, bool, int, decimal, float, str,
// bytes, timestamp, list or map. The zero Value has KindInvalid and is the
// only thing the serializer refuses. Values are treated as immutable once
// constructed; callers must not modify slices returned by accessors.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   *big.Int
	decVal   *apd.Decimal
	floatVal float64
	strVal   string
	bytesVal []byte
	tsVal    Timestamp

	listVal []Value
	mapVal  []MapEntry
}

// Null returns the null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool returns a boolean value.
func Bool(v bool) Value {
	return Value{kind: KindBool, boolVal: v}
}

// Int64 returns an integer value.
func Int64(v int64) Value {
	return Value{kind: KindInt, intVal: big.NewInt(v)}
}

// BigInt returns an arbitrary-precision integer value. The argument is not
// copied and must not be mutated afterwards.
func BigInt(v *big.Int) Value {
	return Value{kind: KindInt, intVal: v}
}

// Decimal returns an arbitrary-precision decimal value. The argument must be
// finite; it is not copied and must not be mutated afterwards.
func Decimal(v *apd.Decimal) Value {
	return Value{kind: KindDecimal, decVal: v}
}

// DecimalString returns a decimal value parsed from s, which must be a finite
// decimal number (textual precision, including the exponent and the sign of
// zero, is retained). NaN and infinity have no decimal text form; use Float64
// for those.
func DecimalString(s string) (Value, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Value{}, err
	}
	if d.Form != apd.Finite {
		return Value{}, errf("The decimal %s has no Zish representation.", s)
	}
	return Decimal(d), nil
}

// Float64 returns an IEEE double value. Floats are never produced by parsing;
// they exist for programmatic construction and serialize with the special
// +inf/-inf/nan forms.
func Float64(v float64) Value {
	return Value{kind: KindFloat, floatVal: v}
}

// Str returns a string value.
func Str(v string) Value {
	return Value{kind: KindStr, strVal: v}
}

// Bytes returns a binary value. The argument is not copied.
func Bytes(v []byte) Value {
	return Value{kind: KindBytes, bytesVal: v}
}

// Time returns a timestamp value.
func Time(v Timestamp) Value {
	return Value{kind: KindTimestamp, tsVal: v}
}

// List returns an ordered list of the given elements.
func List(elems ...Value) Value {
	return Value{kind: KindList, listVal: elems}
}

// Map returns a map of the given entries, retaining insertion order. It
// panics if a key is null, a list or a map, or if a key is repeated; these
// are programming errors, mirroring the structural rules the parser enforces.
func Map(entries ...MapEntry) Value {
	for i, e := range entries {
		switch e.Key.kind {
		case KindNull, KindList, KindMap, KindInvalid:
			panic("zish: a " + e.Key.kind.String() + " can't be a map key")
		}
		for _, prev := range entries[:i] {
			if keyEquivalent(prev.Key, e.Key) {
				panic("zish: duplicate map key")
			}
		}
	}
	return Value{kind: KindMap, mapVal: entries}
}

// Kind returns which variant this value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether this is the null value.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsBool returns the boolean value.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, errf("Expected bool, got %s.", v.kind)
	}
	return v.boolVal, nil
}

// AsBigInt returns the integer value.
func (v Value) AsBigInt() (*big.Int, error) {
	if v.kind != KindInt {
		return nil, errf("Expected int, got %s.", v.kind)
	}
	return v.intVal, nil
}

// AsDecimal returns the decimal value.
func (v Value) AsDecimal() (*apd.Decimal, error) {
	if v.kind != KindDecimal {
		return nil, errf("Expected decimal, got %s.", v.kind)
	}
	return v.decVal, nil
}

// AsFloat64 returns the float value.
func (v Value) AsFloat64() (float64, error) {
	if v.kind != KindFloat {
		return 0, errf("Expected float, got %s.", v.kind)
	}
	return v.floatVal, nil
}

// AsStr returns the string value.
func (v Value) AsStr() (string, error) {
	if v.kind != KindStr {
		return "", errf("Expected str, got %s.", v.kind)
	}
	return v.strVal, nil
}

// AsBytes returns the binary value.
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, errf("Expected bytes, got %s.", v.kind)
	}
	return v.bytesVal, nil
}

// AsTime returns the timestamp value.
func (v Value) AsTime() (Timestamp, error) {
	if v.kind != KindTimestamp {
		return Timestamp{}, errf("Expected timestamp, got %s.", v.kind)
	}
	return v.tsVal, nil
}

// AsList returns the list elements.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, errf("Expected list, got %s.", v.kind)
	}
	return v.listVal, nil
}

// AsMap returns the map entries in insertion order.
func (v Value) AsMap() ([]MapEntry, error) {
	if v.kind != KindMap {
		return nil, errf("Expected map, got %s.", v.kind)
	}
	return v.mapVal, nil
}

// Get returns the value stored under key in a map, if present.
func (v Value) Get(key Value) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	for _, e := range v.mapVal {
		if keyEquivalent(e.Key, key) {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of elements of a list or entries of a map.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.listVal)
	case KindMap:
		return len(v.mapVal)
	default:
		return 0
	}
}

// Equal reports structural equality. Decimals compare by retained text, so
// 0e0 and 0e-1 are unequal; floats compare by bit pattern, so NaN equals
// itself; maps compare entry sets without regard to insertion order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolVal == o.boolVal
	case KindInt:
		return v.intVal.Cmp(o.intVal) == 0
	case KindDecimal:
		return decimalText(v.decVal) == decimalText(o.decVal)
	case KindFloat:
		return math.Float64bits(v.floatVal) == math.Float64bits(o.floatVal)
	case KindStr:
		return v.strVal == o.strVal
	case KindBytes:
		return bytes.Equal(v.bytesVal, o.bytesVal)
	case KindTimestamp:
		return timestampsEqual(v.tsVal, o.tsVal)
	case KindList:
		if len(v.listVal) != len(o.listVal) {
			return false
		}
		for i := range v.listVal {
			if !v.listVal[i].Equal(o.listVal[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.mapVal) != len(o.mapVal) {
			return false
		}
		for _, e := range v.mapVal {
			found, ok := o.Get(e.Key)
			if !ok || !e.Value.Equal(found) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func timestampsEqual(a, b Timestamp) bool {
	if a.OffsetKnown != b.OffsetKnown || !a.Time.Equal(b.Time) {
		return false
	}
	if !a.OffsetKnown {
		return true
	}
	_, aoff := a.Time.Zone()
	_, boff := b.Time.Zone()
	return aoff == boff
}

// keyEquivalent is the equality used for map key uniqueness. Unlike Equal it
// compares decimals numerically, so 0. and 0.0 are the same key. Keys of
// different kinds are never equivalent.
func keyEquivalent(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindDecimal {
		return a.decVal.Cmp(b.decVal) == 0
	}
	return a.Equal(b)
}

// compareValues is the partial order used to canonicalize map entries. Int,
// decimal and finite float values compare numerically with each other; bool,
// str, bytes and timestamp values compare only within their own kind. The
// second result reports whether the pair is comparable at all.
func compareValues(a, b Value) (int, bool) {
	if an, bn := a.isNumeric(), b.isNumeric(); an && bn {
		if a.kind == KindInt && b.kind == KindInt {
			return a.intVal.Cmp(b.intVal), true
		}
		ad, ok := a.asComparableDecimal()
		if !ok {
			return 0, false
		}
		bd, ok := b.asComparableDecimal()
		if !ok {
			return 0, false
		}
		return ad.Cmp(bd), true
	}
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindBool:
		return boolRank(a.boolVal) - boolRank(b.boolVal), true
	case KindStr:
		return strings.Compare(a.strVal, b.strVal), true
	case KindBytes:
		return bytes.Compare(a.bytesVal, b.bytesVal), true
	case KindTimestamp:
		return a.tsVal.Time.Compare(b.tsVal.Time), true
	default:
		return 0, false
	}
}

func (v Value) isNumeric() bool {
	switch v.kind {
	case KindInt, KindDecimal:
		return true
	case KindFloat:
		return !math.IsNaN(v.floatVal) && !math.IsInf(v.floatVal, 0)
	default:
		return false
	}
}

func (v Value) asComparableDecimal() (*apd.Decimal, bool) {
	switch v.kind {
	case KindInt:
		var coeff apd.BigInt
		coeff.SetMathBigInt(v.intVal)
		return apd.NewWithBigInt(&coeff, 0), true
	case KindDecimal:
		return v.decVal, true
	case KindFloat:
		d := new(apd.Decimal)
		if _, err := d.SetFloat64(v.floatVal); err != nil {
			return nil, false
		}
		return d, true
	default:
		return nil, false
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
