package zish

import (
	"encoding/base64"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// serializeValue renders the canonical text for v. It fails only on the
// zero-kind misuse value; everything constructible through the package API
// has exactly one rendering.
func serializeValue(v Value) (string, error) {
	var b strings.Builder
	if err := emit(&b, v, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func emit(b *strings.Builder, v Value, depth int) error {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.boolVal {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		b.WriteString(v.intVal.String())
	case KindDecimal:
		b.WriteString(decimalText(v.decVal))
	case KindFloat:
		b.WriteString(floatText(v.floatVal))
	case KindStr:
		emitString(b, v.strVal)
	case KindBytes:
		b.WriteByte('\'')
		b.WriteString(base64.StdEncoding.EncodeToString(v.bytesVal))
		b.WriteByte('\'')
	case KindTimestamp:
		b.WriteString(timestampText(v.tsVal))
	case KindList:
		return emitList(b, v.listVal, depth)
	case KindMap:
		return emitMap(b, v.mapVal, depth)
	default:
		return errf("Type %s not recognised.", v.kind)
	}
	return nil
}

// emitString writes s double-quoted, escaping only the backslash and the
// double quote; control characters and non-ASCII pass through literally.
func emitString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		if r == '\\' || r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
}

func emitList(b *strings.Builder, elems []Value, depth int) error {
	if len(elems) == 0 {
		b.WriteString("[]")
		return nil
	}
	b.WriteString("[\n")
	for _, elem := range elems {
		writeIndent(b, depth+1)
		if err := emit(b, elem, depth+1); err != nil {
			return err
		}
		b.WriteString(",\n")
	}
	writeIndent(b, depth)
	b.WriteByte(']')
	return nil
}

func emitMap(b *strings.Builder, entries []MapEntry, depth int) error {
	if len(entries) == 0 {
		b.WriteString("{}")
		return nil
	}
	b.WriteString("{\n")
	for _, e := range orderEntries(entries) {
		writeIndent(b, depth+1)
		if err := emit(b, e.Key, depth+1); err != nil {
			return err
		}
		b.WriteString(": ")
		if err := emit(b, e.Value, depth+1); err != nil {
			return err
		}
		b.WriteString(",\n")
	}
	writeIndent(b, depth)
	b.WriteByte('}')
	return nil
}

// orderEntries returns entries sorted by the key order when every pair of
// keys is comparable, and in insertion order otherwise. The two paths are
// deliberate: a homogeneous key set canonicalizes, a mixed one keeps the
// order the document (or the caller) gave.
func orderEntries(entries []MapEntry) []MapEntry {
	if len(entries) <= 1 {
		return entries
	}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if _, ok := compareValues(entries[i].Key, entries[j].Key); !ok {
				return entries
			}
		}
	}
	sorted := make([]MapEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		c, _ := compareValues(sorted[i].Key, sorted[j].Key)
		return c < 0
	})
	return sorted
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}

func floatText(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// timestampText renders the three offset forms: compact Z for UTC, full
// numeric offset otherwise, and the literal -00:00 suffix when the offset is
// unknown. The fractional-second field is kept (trimmed of trailing zeros) in
// all three so sub-second timestamps survive a round trip.
func timestampText(ts Timestamp) string {
	if !ts.OffsetKnown {
		return ts.Time.Format("2006-01-02T15:04:05.999999999") + "-00:00"
	}
	return ts.Time.Format("2006-01-02T15:04:05.999999999Z07:00")
}

// decimalText renders d using the General Decimal Arithmetic
// to-scientific-string conversion, the same algorithm the reference
// implementation's decimal type prints with. The retained exponent decides
// between plain and scientific notation, so 0E-8 and 0 stay distinct.
func decimalText(d *apd.Decimal) string {
	if d.Form != apd.Finite {
		return d.String()
	}
	digits := d.Coeff.String()
	exp := int(d.Exponent)
	adj := exp + len(digits) - 1

	var s string
	switch {
	case exp <= 0 && adj >= -6:
		switch {
		case exp == 0:
			s = digits
		case adj >= 0:
			point := len(digits) + exp
			s = digits[:point] + "." + digits[point:]
		default:
			s = "0." + strings.Repeat("0", -adj-1) + digits
		}
	default:
		mant := digits
		if len(digits) > 1 {
			mant = digits[:1] + "." + digits[1:]
		}
		if adj >= 0 {
			s = mant + "E+" + strconv.Itoa(adj)
		} else {
			s = mant + "E" + strconv.Itoa(adj)
		}
	}
	if d.Negative {
		s = "-" + s
	}
	return s
}
