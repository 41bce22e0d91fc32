package zish

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/go-json-experiment/json/jsontext"
)

// FromJSON parses a JSON document into the Value model. Zish is a superset
// of JSON, so the mapping is lossless: object order is preserved, duplicate
// object names are rejected, and numbers become Int or Decimal from their
// raw token text with no precision loss.
func FromJSON(src string) (Value, error) {
	dec := jsontext.NewDecoder(strings.NewReader(src))
	v, err := decodeJSONValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		return Value{}, errf("Multiple top-level JSON values aren't allowed.")
	}
	return v, nil
}

func decodeJSONValue(dec *jsontext.Decoder) (Value, error) {
	switch dec.PeekKind() {
	case '{':
		return decodeJSONObject(dec)
	case '[':
		return decodeJSONArray(dec)
	case '0':
		raw, err := dec.ReadValue()
		if err != nil {
			return Value{}, fmt.Errorf("read number: %w", err)
		}
		return decodeJSONNumber(string(raw))
	default:
		tok, err := dec.ReadToken()
		if err != nil {
			return Value{}, fmt.Errorf("read token: %w", err)
		}
		switch tok.Kind() {
		case 'n':
			return Null(), nil
		case 't':
			return Bool(true), nil
		case 'f':
			return Bool(false), nil
		case '"':
			return Str(tok.String()), nil
		default:
			return Value{}, errf("The JSON token '%s' isn't recognized.", tok.String())
		}
	}
}

func decodeJSONObject(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil { // '{'
		return Value{}, fmt.Errorf("read object open: %w", err)
	}
	var entries []MapEntry
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return Value{}, fmt.Errorf("read object name: %w", err)
		}
		name := tok.String()
		val, err := decodeJSONValue(dec)
		if err != nil {
			return Value{}, fmt.Errorf("read object value for %q: %w", name, err)
		}
		entries = append(entries, MapEntry{Key: Str(name), Value: val})
	}
	if _, err := dec.ReadToken(); err != nil { // '}'
		return Value{}, fmt.Errorf("read object close: %w", err)
	}
	return Value{kind: KindMap, mapVal: entries}, nil
}

func decodeJSONArray(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil { // '['
		return Value{}, fmt.Errorf("read array open: %w", err)
	}
	var elems []Value
	for dec.PeekKind() != ']' {
		elem, err := decodeJSONValue(dec)
		if err != nil {
			return Value{}, fmt.Errorf("read array element: %w", err)
		}
		elems = append(elems, elem)
	}
	if _, err := dec.ReadToken(); err != nil { // ']'
		return Value{}, fmt.Errorf("read array close: %w", err)
	}
	return Value{kind: KindList, listVal: elems}, nil
}

func decodeJSONNumber(text string) (Value, error) {
	if reInteger.MatchString(text) {
		i, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return Value{}, errf("The number %s isn't recognized.", text)
		}
		return BigInt(i), nil
	}
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return Value{}, fmt.Errorf("parse number %s: %w", text, err)
	}
	return Decimal(d), nil
}

// ToJSON renders v as JSON where a representation exists. Int and Decimal go
// out as raw number tokens, Bytes as a base64 string, Timestamp as its
// canonical text, and non-string map keys as their canonical scalar text;
// non-finite floats have no JSON form and are an error.
func ToJSON(v Value) (string, error) {
	var sb strings.Builder
	enc := jsontext.NewEncoder(&sb)
	if err := encodeJSONValue(enc, v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func encodeJSONValue(enc *jsontext.Encoder, v Value) error {
	switch v.kind {
	case KindNull:
		return enc.WriteToken(jsontext.Null)
	case KindBool:
		return enc.WriteToken(jsontext.Bool(v.boolVal))
	case KindInt:
		return enc.WriteValue(jsontext.Value(v.intVal.String()))
	case KindDecimal:
		return enc.WriteValue(jsontext.Value(decimalText(v.decVal)))
	case KindFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			return errf("The float %s has no JSON representation.", floatText(v.floatVal))
		}
		return enc.WriteToken(jsontext.Float(v.floatVal))
	case KindStr:
		return enc.WriteToken(jsontext.String(v.strVal))
	case KindBytes:
		return enc.WriteToken(jsontext.String(base64.StdEncoding.EncodeToString(v.bytesVal)))
	case KindTimestamp:
		return enc.WriteToken(jsontext.String(timestampText(v.tsVal)))
	case KindList:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, elem := range v.listVal {
			if err := encodeJSONValue(enc, elem); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	case KindMap:
		if err := enc.WriteToken(jsontext.BeginObject); err != nil {
			return err
		}
		for _, e := range orderEntries(v.mapVal) {
			name, err := jsonObjectName(e.Key)
			if err != nil {
				return err
			}
			if err := enc.WriteToken(jsontext.String(name)); err != nil {
				return err
			}
			if err := encodeJSONValue(enc, e.Value); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndObject)
	default:
		return errf("Type %s not recognised.", v.kind)
	}
}

// jsonObjectName maps a map key to a JSON object name. String keys map
// directly; any other scalar uses its canonical Zish text, so 42 becomes the
// name "42". Two keys may collide under this mapping (Int 1 and Str "1");
// the encoder's duplicate-name check reports that.
func jsonObjectName(key Value) (string, error) {
	if key.kind == KindStr {
		return key.strVal, nil
	}
	return serializeValue(key)
}
