// Package zish converts between the Zish textual notation, a JSON superset
// with arbitrary-precision integers and decimals, binary blobs, timestamps
// and block comments, and an in-memory Value model, and back again with a
// canonical, deterministic rendering.
//
// Parsing and serialization are pure, synchronous transformations with no
// shared state: independent documents may be processed concurrently without
// coordination. Grammar and structural violations surface as *LocationError
// with an exact 1-based line and character; the few positionless failures
// (an empty document, a comment or escape left dangling at the end of the
// input) surface as *Error.
package zish

import (
	"fmt"
	"io"
)

// Parse reads exactly one Zish value from src. Anything other than
// whitespace or comments after the value is an error.
func Parse(src string) (Value, error) {
	return parseDocument(src)
}

// Serialize renders the canonical text for v. The layout is fixed: two-space
// indentation, one element per line, trailing commas, map entries in key
// order when the key set is totally ordered and in insertion order
// otherwise.
func Serialize(v Value) (string, error) {
	return serializeValue(v)
}

// Load reads all of r and parses it as a single Zish document.
func Load(r io.Reader) (Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Value{}, fmt.Errorf("read document: %w", err)
	}
	return Parse(string(data))
}

// Dump serializes v and writes the text to w.
func Dump(v Value, w io.Writer) error {
	text, err := Serialize(v)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
