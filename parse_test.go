package zish

import (
	"encoding/base64"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) Value {
	t.Helper()
	v, err := DecimalString(s)
	require.NoError(t, err)
	return v
}

func mustB64(t *testing.T, s string) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return data
}

func TestParseScalars(t *testing.T) {
	utc := func(y int, mo time.Month, d, h, mi, s, ns int) Value {
		return Time(Timestamp{Time: time.Date(y, mo, d, h, mi, s, ns, time.UTC), OffsetKnown: true})
	}

	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"null", "null", Null()},
		{"true", "true", Bool(true)},
		{"false", "false", Bool(false)},

		{"zero", "0", Int64(0)},
		{"negative zero is zero", "-0", Int64(0)},
		{"int", "123", Int64(123)},
		{"negative int", "-123", Int64(-123)},
		{"int beyond 64 bits", "123456789012345678901234567890", func() Value {
			i, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
			require.True(t, ok)
			return BigInt(i)
		}()},
		{"not a timestamp, just an int", "2007", Int64(2007)},

		{"decimal", "0.123", mustDecimal(t, "0.123")},
		{"decimal with exponent", "-0.12e4", mustDecimal(t, "-0.12e4")},
		{"zero decimal uppercase exponent", "0E0", mustDecimal(t, "0")},
		{"zero decimal lowercase exponent", "0e0", mustDecimal(t, "0")},
		{"trailing dot", "0.", mustDecimal(t, "0")},
		{"negative zero with precision", "-0e-1", mustDecimal(t, "-0.0")},

		{"empty string", `""`, Str("")},
		{"plain string", `" my string "`, Str(" my string ")},
		{"escaped quote", `"\""`, Str(`"`)},
		{"unicode escape", `"\uABCD"`, Str("\uabcd")},
		{"hex escape", `"\x41"`, Str("A")},
		{"long unicode escape", `"\U0001F600"`, Str("\U0001f600")},
		{"named escapes", `"\0\a\t\n"`, Str("\x00\a\t\n")},
		{"escaped backslash before quote", `"a\\"`, Str(`a\`)},
		{
			"line continuation",
			"\"\\\nThe first line of the string.\nThis is the second line of the string,\nand this is the third line.\n\"",
			Str("The first line of the string.\nThis is the second line of the string,\nand this is the third line.\n"),
		},

		{"blob with embedded newlines", "'\n+AB/\n'", Bytes(mustB64(t, "+AB/"))},
		{"blob with one padding character", "'VG8gaW5maW5pdHkuLi4gYW5kIGJleW9uZCE='", Bytes(mustB64(t, "VG8gaW5maW5pdHkuLi4gYW5kIGJleW9uZCE="))},
		{"blob with two padding characters", "' dHdvIHBhZGRpbmcgY2hhcmFjdGVycw== '", Bytes(mustB64(t, "dHdvIHBhZGRpbmcgY2hhcmFjdGVycw=="))},
		{"empty blob", "''", Bytes(nil)},

		{"timestamp with offset", "2007-02-23T12:14:33.079-08:00", Time(Timestamp{
			Time:        time.Date(2007, 2, 23, 12, 14, 33, 79000000, time.FixedZone("", -8*60*60)),
			OffsetKnown: true,
		})},
		{"timestamp utc", "2007-02-23T20:14:33.079Z", utc(2007, 2, 23, 20, 14, 33, 79000000)},
		{"timestamp lowercase zulu", "2007-02-23T20:14:33.079z", utc(2007, 2, 23, 20, 14, 33, 79000000)},
		{"timestamp explicit zero offset", "2007-02-23T20:14:33.079+00:00", utc(2007, 2, 23, 20, 14, 33, 79000000)},
		{"timestamp unknown offset", "2007-01-01T00:00:00-00:00", Time(Timestamp{
			Time: time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC),
		})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			require.NoError(t, err)
			require.True(t, got.Equal(tc.want), "parsed %s, got kind %s", tc.input, got.Kind())
		})
	}
}

func TestParseStructures(t *testing.T) {
	t.Run("empty map", func(t *testing.T) {
		got, err := Parse("{ }")
		require.NoError(t, err)
		require.Equal(t, KindMap, got.Kind())
		require.Equal(t, 0, got.Len())
	})

	t.Run("map with two fields", func(t *testing.T) {
		got, err := Parse(`{ "first" : "Tom" , "last": "Riddle" }`)
		require.NoError(t, err)
		require.True(t, got.Equal(Map(
			MapEntry{Key: Str("first"), Value: Str("Tom")},
			MapEntry{Key: Str("last"), Value: Str("Riddle")},
		)))
	})

	t.Run("nested map", func(t *testing.T) {
		got, err := Parse(`{"center":{"x":1.0, "y":12.5}, "radius":3}`)
		require.NoError(t, err)
		require.True(t, got.Equal(Map(
			MapEntry{Key: Str("center"), Value: Map(
				MapEntry{Key: Str("x"), Value: mustDecimal(t, "1.0")},
				MapEntry{Key: Str("y"), Value: mustDecimal(t, "12.5")},
			)},
			MapEntry{Key: Str("radius"), Value: Int64(3)},
		)))
	})

	t.Run("map field with empty name", func(t *testing.T) {
		got, err := Parse(`{ "":42 }`)
		require.NoError(t, err)
		v, ok := got.Get(Str(""))
		require.True(t, ok)
		require.True(t, v.Equal(Int64(42)))
	})

	t.Run("map retains insertion order", func(t *testing.T) {
		got, err := Parse(`{"b":1, "a":2}`)
		require.NoError(t, err)
		entries, err := got.AsMap()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.True(t, entries[0].Key.Equal(Str("b")))
		require.True(t, entries[1].Key.Equal(Str("a")))
	})

	t.Run("non-string map keys", func(t *testing.T) {
		got, err := Parse(`{1: "one", 2007-01-01T00:00:00Z: "party"}`)
		require.NoError(t, err)
		v, ok := got.Get(Int64(1))
		require.True(t, ok)
		require.True(t, v.Equal(Str("one")))
	})

	t.Run("empty list", func(t *testing.T) {
		got, err := Parse("[]")
		require.NoError(t, err)
		require.Equal(t, KindList, got.Kind())
		require.Equal(t, 0, got.Len())
	})

	t.Run("list of ints", func(t *testing.T) {
		got, err := Parse("[1, 2, 3]")
		require.NoError(t, err)
		require.True(t, got.Equal(List(Int64(1), Int64(2), Int64(3))))
	})

	t.Run("mixed list", func(t *testing.T) {
		got, err := Parse(`[ 1 , "two" ]`)
		require.NoError(t, err)
		require.True(t, got.Equal(List(Int64(1), Str("two"))))
	})

	t.Run("nested list", func(t *testing.T) {
		got, err := Parse(`["a" , ["b"]]`)
		require.NoError(t, err)
		require.True(t, got.Equal(List(Str("a"), List(Str("b")))))
	})

	t.Run("trailing comma in list", func(t *testing.T) {
		got, err := Parse("[ 1.2, ]")
		require.NoError(t, err)
		require.True(t, got.Equal(List(mustDecimal(t, "1.2"))))
	})

	t.Run("trailing comma in map", func(t *testing.T) {
		got, err := Parse(`{"a":1,}`)
		require.NoError(t, err)
		require.True(t, got.Equal(Map(MapEntry{Key: Str("a"), Value: Int64(1)})))
	})

	t.Run("trailing newline", func(t *testing.T) {
		got, err := Parse("{}\n")
		require.NoError(t, err)
		require.Equal(t, KindMap, got.Kind())
	})

	t.Run("trailing no-break space", func(t *testing.T) {
		got, err := Parse("{}\u00a0")
		require.NoError(t, err)
		require.Equal(t, KindMap, got.Kind())
	})

	t.Run("comments are skipped", func(t *testing.T) {
		got, err := Parse("/* leading */ [1, /* between */ 2] /* trailing */")
		require.NoError(t, err)
		require.True(t, got.Equal(List(Int64(1), Int64(2))))
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// Numeric literal boundaries.
		{"hex int", "0xBeef", "Problem at line 1 and character 8: The value 0xBeef is not recognized."},
		{"binary int", "0b0101", "Problem at line 1 and character 8: The value 0b0101 is not recognized."},
		{"underscored int", "1_2_3", "Problem at line 1 and character 7: The value 1_2_3 is not recognized."},
		{"underscored hex int", "0xFA_CE", "Problem at line 1 and character 9: The value 0xFA_CE is not recognized."},
		{"underscored binary int", "0b10_10_10", "Problem at line 1 and character 12: The value 0b10_10_10 is not recognized."},
		{"leading plus", "+1", "Problem at line 1 and character 4: The value +1 is not recognized."},
		{"leading zero", "0123", "Problem at line 1 and character 6: The value 0123 is not recognized."},
		{"trailing underscore", "1_", "Problem at line 1 and character 4: The value 1_ is not recognized."},
		{"consecutive underscores", "1__2", "Problem at line 1 and character 6: The value 1__2 is not recognized."},
		{"underscore after radix prefix", "0x_12", "Problem at line 1 and character 7: The value 0x_12 is not recognized."},
		{"leading underscore", "_1", "Problem at line 1 and character 4: The value _1 is not recognized."},
		{"legacy d exponent", "0d0", "Problem at line 1 and character 5: The value 0d0 is not recognized."},
		{"legacy D exponent", "0D0", "Problem at line 1 and character 5: The value 0D0 is not recognized."},
		{"negative legacy d exponent", "-0d0", "Problem at line 1 and character 6: The value -0d0 is not recognized."},
		{"underscored decimal", "123_456.789_012", "Problem at line 1 and character 17: The value 123_456.789_012 is not recognized."},
		{"underscore next to point", "123_._456", "Problem at line 1 and character 11: The value 123_._456 is not recognized."},
		{"float special form not parseable", "nan", "Problem at line 1 and character 5: The value nan is not recognized."},

		// Timestamp boundaries.
		{"timestamp without seconds", "2007-02-23T12:14Z", "Problem at line 1 and character 18: The timestamp 2007-02-23T12:14Z is not recognized."},
		{"timestamp without time", "2007-01-01", "Problem at line 1 and character 12: The value 2007-01-01 is not recognized."},
		{"bare T", "2007-01-01T", "Problem at line 1 and character 13: The timestamp 2007-01-01T is malformed."},
		{"month precision", "2007-01T", "Problem at line 1 and character 10: The timestamp 2007-01T is malformed."},
		{"year precision", "2007T", "Problem at line 1 and character 7: The timestamp 2007T is malformed."},
		{"no seconds with offset", "2007-02-23T00:00+00:00", "Problem at line 1 and character 24: The timestamp 2007-02-23T00:00+00:00 is malformed."},
		{"empty fraction", "2007-02-23T20:14:33.Z", "Problem at line 1 and character 22: The timestamp 2007-02-23T20:14:33.Z is not recognized."},

		// Strings, blobs and comments.
		{"unterminated string", `"`, "Problem at line 1 and character 2: Parsing a string but can't find the ending '\"'. The first part of the string is: "},
		{"unterminated bytes", "'abc", "Problem at line 1 and character 2: Parsing bytes but can't find the ending '''. The first part of the bytes is: abc"},
		{"legacy typed string", "xml::\"<e a='v'>c</e>\"", "Problem at line 1 and character 5: The value xml is not recognized."},
		{"legacy set syntax", "( \"hello\rworld!\"  )", "Problem at line 1 and character 3: The value ( is not recognized."},
		{"legacy set with string", `("hello world!")`, "Problem at line 1 and character 9: The value (\"hello is not recognized."},
		{"inline comment rejected", "/x", "Problem at line 1 and character 3: Expected a '*' here, because a comment starts with '/*'."},

		// Structural rules.
		{"multiple top-level values", "{} 3", "Problem at line 1 and character 6: Multiple top-level Zish values aren't allowed. For example, at the top level you can't have a map followed by another map."},
		{"unterminated map", "{", "Problem at line 1 and character 2: After this opening '{', a key or a closing '}' was expected, but reached the end of the document instead."},
		{"key without colon at end", `{ "Etienne"`, "Problem at line 1 and character 12: After this key, a ':' was expected, but reached the end of the document instead."},
		{"colon without value at end", `{"a":`, "Problem at line 1 and character 6: After this ':', a value was expected, but reached the end of the document instead."},
		{"bare word key", "{ x:1, }", "Problem at line 1 and character 5: The value x is not recognized."},
		{"duplicate keys", `{ "x":1, "x":null }`, "Problem at line 1 and character 19: Duplicate map keys aren't allowed: 'x'."},
		{"duplicate keys with container values", `{ "x":[], "x":[] }`, "Problem at line 1 and character 17: Duplicate map keys aren't allowed: 'x'."},
		{"missing field between commas", `{ "x":1, , }`, "Problem at line 1 and character 11: The token type 3 isn't recognized."},
		{"value after value in map", `{ "x": 1 4 }`, "Problem at line 1 and character 12: Expected a ',' or a '}' here, but got '4'."},
		{"colon as key", "{:: 1}", "Problem at line 1 and character 3: The token type 2 isn't recognized."},
		{"missing colon", `{"num" 1}`, "Problem at line 1 and character 10: Expected a ':' here, but got '1'."},
		{"null key", "{null: 1}", "Problem at line 1 and character 7: A map key can't be null."},
		{"list as key", `{["num", 1]: 1}`, "Problem at line 1 and character 3: A list can't be a key in a map."},
		{"map as key", "{{}: 1}", "Problem at line 1 and character 3: A map can't be a key in another map."},
		{"duplicate decimal keys numerically equal", "{0.:1, 0.0:2}", "Problem at line 1 and character 14: Duplicate map keys aren't allowed: '0.0'."},
		{"missing element between commas", "[ 1, , 2 ]", "Problem at line 1 and character 7: Expected a value here, but got ','."},
		{"list open at end", "[1,", "Problem at line 1 and character 2: After this opening '[', a value or a closing ']' was expected, but reached the end of the document instead."},
		{"value after value in list", "[1 2]", "Problem at line 1 and character 6: Expected a ',' or a ']' here, but got '2'."},
		{"error position on later line", "[\n  1,\n  x]", "Problem at line 3 and character 5: The value x is not recognized."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.EqualError(t, err, tc.want)
			var locErr *LocationError
			require.ErrorAs(t, err, &locErr)
		})
	}
}

func TestParseGeneralErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty document", "", "No Zish value found."},
		{"whitespace only", " \t\n", "No Zish value found."},
		{"unterminated comment", "/* foo", "Reached the end of the document while still inside a comment."},
		{"degenerate comment never closes", "/*/", "Reached the end of the document while still inside a comment."},
		{"unresolved escape", `"a\qb"`, `Can't find a valid string following the first backslash of 'a\qb'.`},
		{"list not closed after element", "[1", "Reached the end of the document without the list being closed."},
		{"map not closed after pair", `{"a":1`, "Reached the end of the document without the map being closed."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.EqualError(t, err, tc.want)
			var genErr *Error
			require.ErrorAs(t, err, &genErr)
			var locErr *LocationError
			require.False(t, errors.As(err, &locErr))
		})
	}
}

func TestParseBlobErrors(t *testing.T) {
	t.Run("excess padding", func(t *testing.T) {
		_, err := Parse("' VG8gaW5maW5pdHkuLi4gYW5kIGJleW9uZCE== '")
		var locErr *LocationError
		require.ErrorAs(t, err, &locErr)
		require.Equal(t, 1, locErr.Line)
		require.Equal(t, 42, locErr.Character)
		require.Contains(t, locErr.Message, "illegal base64 data")
	})

	t.Run("padding within data", func(t *testing.T) {
		_, err := Parse("' VG8gaW5maW5pdHku=Li4gYW5kIGJleW9uZCE= '")
		var locErr *LocationError
		require.ErrorAs(t, err, &locErr)
		require.Equal(t, 42, locErr.Character)
		require.Contains(t, locErr.Message, "illegal base64 data")
	})

	t.Run("invalid character within data", func(t *testing.T) {
		_, err := Parse("' dHdvIHBhZGRpbmc_gY2hhcmFjdGVycw= '")
		var locErr *LocationError
		require.ErrorAs(t, err, &locErr)
		require.Equal(t, 37, locErr.Character)
		require.Contains(t, locErr.Message, "illegal base64 data")
	})
}

func TestParseTimestampChainsRoutineError(t *testing.T) {
	// Grammatically fine, rejected by the date-time routine.
	_, err := Parse("2026-02-31T00:00:00Z")
	require.EqualError(t, err, "Problem at line 1 and character 21: Can't parse the timestamp '2026-02-31T00:00:00Z'.")
	var locErr *LocationError
	require.ErrorAs(t, err, &locErr)
	require.Error(t, locErr.Unwrap())
}

func TestParseNeverProducesFloat(t *testing.T) {
	for _, input := range []string{"6.88", "1e-06", "0.0"} {
		got, err := Parse(input)
		require.NoError(t, err)
		require.Equal(t, KindDecimal, got.Kind(), "input %s", input)
	}
}
