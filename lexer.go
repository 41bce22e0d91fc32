package zish

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cockroachdb/apd/v3"
)

// Bare literal grammars. Leading zeros, leading '+', radix prefixes, digit
// separators and the legacy d-exponent are rejected simply by not matching.
var (
	reInteger   = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	reDecimal   = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]*)?([eE][+-]?[0-9]+)?$`)
	reTimestamp = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])` +
		`T([01][0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9](\.[0-9]+)?` +
		`([zZ]|[+-]([01][0-9]|2[0-3]):[0-5][0-9])$`)
)

func isSpace(c rune) bool {
	switch c {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0':
		return true
	}
	return false
}

func structuralType(c rune) (tokenType, bool) {
	switch c {
	case '{':
		return tokenStartMap, true
	case '}':
		return tokenFinishMap, true
	case ':':
		return tokenColon, true
	case ',':
		return tokenComma, true
	case '[':
		return tokenStartList, true
	case ']':
		return tokenFinishList, true
	}
	return 0, false
}

// isDelimiter reports whether c terminates a bare literal. Note that quote
// characters do not: a stray quote glues onto the literal and surfaces in the
// "is not recognized" diagnostic.
func isDelimiter(c rune) bool {
	if isSpace(c) || c == '/' {
		return true
	}
	_, ok := structuralType(c)
	return ok
}

// lexer is a single-pass tokenizer over the decoded input. It is pull-based:
// the parser drives it one token at a time and it is not restartable.
//
// line/col hold the position of the most recently examined character. The
// column counter starts at 1 and is bumped for every character examined
// (newlines reset it), so the first character of the input reports column 2
// and the end-of-input sentinel counts as one more column. This one-past
// scheme is part of the diagnostic contract; every reported position
// assumes it.
type lexer struct {
	src   []rune
	pos   int
	line  int
	col   int
	atEOF bool
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, col: 1}
}

// peek returns the next character along with the position it will have once
// examined, without consuming it. At the end of the input it reports
// eof=true with the sentinel's position.
func (l *lexer) peek() (c rune, line, col int, eof bool) {
	if l.pos >= len(l.src) {
		if l.atEOF {
			return 0, l.line, l.col, true
		}
		return 0, l.line, l.col + 1, true
	}
	c = l.src[l.pos]
	if c == '\n' {
		return c, l.line + 1, 1, false
	}
	return c, l.line, l.col + 1, false
}

// take consumes the peeked character, committing its position.
func (l *lexer) take() {
	_, line, col, eof := l.peek()
	l.line, l.col = line, col
	if eof {
		l.atEOF = true
		return
	}
	l.pos++
}

// next produces the next token. Bare literals and numeric-offset timestamps
// are terminated by a delimiter that is left unconsumed; the delimiter's own
// token, if any, is produced by the following call and shares its position
// with the literal it terminated.
func (l *lexer) next() (token, error) {
	for {
		c, line, col, eof := l.peek()
		if eof {
			l.take()
			return token{typ: tokenEOF, line: line, character: col}, nil
		}
		if isSpace(c) {
			l.take()
			continue
		}
		if c == '/' {
			l.take()
			if err := l.skipComment(); err != nil {
				return token{}, err
			}
			continue
		}
		if typ, ok := structuralType(c); ok {
			l.take()
			return token{typ: typ, line: line, character: col, text: string(c)}, nil
		}
		l.take()
		switch c {
		case '"':
			return l.scanString(line, col)
		case '\'':
			return l.scanBytes(line, col)
		default:
			return l.scanBareLiteral(c)
		}
	}
}

// skipComment discards a block comment; the leading '/' has been consumed.
// The degenerate /*/ never closes: the character ending the comment body must
// be distinct from the '*' that opened it.
func (l *lexer) skipComment() error {
	c, line, col, eof := l.peek()
	l.take()
	if eof || c != '*' {
		return locErrf(line, col, "Expected a '*' here, because a comment starts with '/*'.")
	}
	var prev rune
	for {
		c, _, _, eof := l.peek()
		if eof {
			return errf("Reached the end of the document while still inside a comment.")
		}
		l.take()
		if c == '/' && prev == '*' {
			return nil
		}
		prev = c
	}
}

func (l *lexer) scanString(startLine, startCol int) (token, error) {
	var payload strings.Builder
	escaped := false
	for {
		c, line, col, eof := l.peek()
		if eof {
			return token{}, locErrf(startLine, startCol,
				"Parsing a string but can't find the ending '\"'. The first part of the string is: %s",
				truncate(payload.String(), 10))
		}
		l.take()
		if escaped {
			payload.WriteRune(c)
			escaped = false
			continue
		}
		switch c {
		case '"':
			s, err := unescape(payload.String())
			if err != nil {
				return token{}, err
			}
			return token{typ: tokenPrimitive, line: line, character: col, text: s, value: Str(s)}, nil
		case '\\':
			payload.WriteRune(c)
			escaped = true
		default:
			payload.WriteRune(c)
		}
	}
}

func (l *lexer) scanBytes(startLine, startCol int) (token, error) {
	var payload strings.Builder
	for {
		c, line, col, eof := l.peek()
		if eof {
			return token{}, locErrf(startLine, startCol,
				"Parsing bytes but can't find the ending '''. The first part of the bytes is: %s",
				truncate(payload.String(), 10))
		}
		l.take()
		if c != '\'' {
			payload.WriteRune(c)
			continue
		}
		cleaned := stripSpace(payload.String())
		data, err := base64.StdEncoding.Strict().DecodeString(cleaned)
		if err != nil {
			return token{}, locErrf(line, col, "%s", err.Error())
		}
		return token{typ: tokenPrimitive, line: line, character: col, text: cleaned, value: Bytes(data)}, nil
	}
}

// scanBareLiteral accumulates an undelimited literal; its first character has
// been consumed. A 'T' hands over to the timestamp tail without any
// pre-validation of the digits before it.
func (l *lexer) scanBareLiteral(first rune) (token, error) {
	payload := []rune{first}
	for {
		c, line, col, eof := l.peek()
		if eof || isDelimiter(c) {
			return l.classifyBareLiteral(string(payload), line, col)
		}
		l.take()
		payload = append(payload, c)
		if c == 'T' {
			return l.scanTimestampTail(payload)
		}
	}
}

func (l *lexer) classifyBareLiteral(text string, line, col int) (token, error) {
	tok := token{typ: tokenPrimitive, line: line, character: col, text: text}
	switch text {
	case "true":
		tok.value = Bool(true)
		return tok, nil
	case "false":
		tok.value = Bool(false)
		return tok, nil
	case "null":
		tok.value = Null()
		return tok, nil
	}
	if reInteger.MatchString(text) {
		i, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return token{}, locErrf(line, col, "The value %s is not recognized.", text)
		}
		tok.value = BigInt(i)
		return tok, nil
	}
	if reDecimal.MatchString(text) {
		d, _, err := apd.NewFromString(normalizeDecimal(text))
		if err != nil {
			return token{}, locErrf(line, col, "The value %s is not recognized.", text)
		}
		tok.value = Decimal(d)
		return tok, nil
	}
	return token{}, locErrf(line, col, "The value %s is not recognized.", text)
}

// normalizeDecimal drops a decimal point with an empty fraction ("0." and
// "1.e5" are grammatical) so the text parses as a standard numeric string.
// The dropped dot carries no precision: 0. and 0 are the same decimal.
func normalizeDecimal(text string) string {
	i := strings.IndexByte(text, '.')
	if i < 0 {
		return text
	}
	j := i + 1
	for j < len(text) && text[j] >= '0' && text[j] <= '9' {
		j++
	}
	if j == i+1 {
		return text[:i] + text[i+1:]
	}
	return text
}

// scanTimestampTail accumulates from just after the 'T' heuristic fired. The
// tail terminates on a zone letter, or on a delimiter once three colons have
// accumulated (the numeric-offset form); the delimiter stays unconsumed.
func (l *lexer) scanTimestampTail(payload []rune) (token, error) {
	colons := 0
	for {
		c, line, col, eof := l.peek()
		if eof {
			if colons == 3 {
				return l.finishTimestamp(string(payload), line, col)
			}
			l.take()
			return token{}, locErrf(line, col, "The timestamp %s is malformed.", string(payload))
		}
		if c == 'z' || c == 'Z' {
			l.take()
			payload = append(payload, c)
			return l.finishTimestamp(string(payload), line, col)
		}
		if colons == 3 && isDelimiter(c) {
			return l.finishTimestamp(string(payload), line, col)
		}
		l.take()
		if c == ':' {
			colons++
		}
		payload = append(payload, c)
	}
}

func (l *lexer) finishTimestamp(text string, line, col int) (token, error) {
	if !reTimestamp.MatchString(text) {
		return token{}, locErrf(line, col, "The timestamp %s is not recognized.", text)
	}
	ts, err := parseTimestamp(text)
	if err != nil {
		return token{}, &LocationError{
			Line:      line,
			Character: col,
			Message:   fmt.Sprintf("Can't parse the timestamp '%s'.", text),
			Err:       err,
		}
	}
	return token{typ: tokenPrimitive, line: line, character: col, text: text, value: Time(ts)}, nil
}

// parseTimestamp turns a literal that already passed the timestamp grammar
// into a Timestamp via the host date-time routine. The literal "-00:00"
// suffix means the offset is unknown.
func parseTimestamp(text string) (Timestamp, error) {
	if s, ok := strings.CutSuffix(text, "-00:00"); ok {
		t, err := time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return Timestamp{}, err
		}
		return Timestamp{Time: t}, nil
	}
	s := text
	if s[len(s)-1] == 'z' {
		s = s[:len(s)-1] + "Z"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{Time: t, OffsetKnown: true}, nil
}

// Escape resolution, applied once to a completed string payload. Matching is
// ordered: named single-character escapes, then line continuations, then the
// fixed-width hex forms.
var namedEscapes = []struct {
	seq  string
	repl string
}{
	{"0", "\x00"},
	{"a", "\a"},
	{"b", "\b"},
	{"t", "\t"},
	{"n", "\n"},
	{"f", "\f"},
	{"r", "\r"},
	{"v", "\v"},
	{`"`, `"`},
	{"'", "'"},
	{"?", "?"},
	{`\`, `\`},
	{"/", "/"},
	{"\r\n", ""},
	{"\r", ""},
	{"\n", ""},
}

func unescape(s string) (string, error) {
	i := strings.IndexByte(s, '\\')
	if i < 0 {
		return s, nil
	}
	var b strings.Builder
	for {
		matched := false
		tail := s[i+1:]
		var repl string
		var width int
		for _, esc := range namedEscapes {
			if strings.HasPrefix(tail, esc.seq) {
				repl, width = esc.repl, len(esc.seq)
				matched = true
				break
			}
		}
		if !matched {
			var digits int
			switch {
			case strings.HasPrefix(tail, "x"):
				digits = 2
			case strings.HasPrefix(tail, "u"):
				digits = 4
			case strings.HasPrefix(tail, "U"):
				digits = 8
			}
			if digits > 0 && len(tail) > digits {
				if code, err := strconv.ParseUint(tail[1:1+digits], 16, 32); err == nil && code <= unicode.MaxRune {
					repl, width = string(rune(code)), 1+digits
					matched = true
				}
			}
		}
		if !matched {
			return "", errf("Can't find a valid string following the first backslash of '%s'.", s)
		}
		b.WriteString(s[:i])
		b.WriteString(repl)
		s = tail[width:]
		i = strings.IndexByte(s, '\\')
		if i < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if isSpace(r) {
			return -1
		}
		return r
	}, s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
