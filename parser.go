package zish

// parser drives the lexer one token at a time; it never looks further ahead
// than the token in hand.
type parser struct {
	lex *lexer
}

// parseDocument reads exactly one value and verifies nothing but whitespace
// and comments follows it.
func parseDocument(src string) (Value, error) {
	p := &parser{lex: newLexer(src)}
	tok, err := p.lex.next()
	if err != nil {
		return Value{}, err
	}
	if tok.typ == tokenEOF {
		return Value{}, errf("No Zish value found.")
	}
	v, _, err := p.parseValue(tok)
	if err != nil {
		return Value{}, err
	}
	trailing, err := p.lex.next()
	if err != nil {
		return Value{}, err
	}
	if trailing.typ != tokenEOF {
		return Value{}, locErrf(trailing.line, trailing.character,
			"Multiple top-level Zish values aren't allowed. For example, at the top level "+
				"you can't have a map followed by another map.")
	}
	return v, nil
}

// parseValue turns a value-start token into a Value. The second result is the
// token that closed the value (the primitive itself, or the closing bracket of
// a container); diagnostics about the completed value report its position.
func (p *parser) parseValue(tok token) (Value, token, error) {
	switch tok.typ {
	case tokenPrimitive:
		return tok.value, tok, nil
	case tokenStartList:
		return p.parseList(tok)
	case tokenStartMap:
		return p.parseMap(tok)
	default:
		return Value{}, token{}, locErrf(tok.line, tok.character, "Expected a value here, but got '%s'.", tok.text)
	}
}

func (p *parser) parseList(open token) (Value, token, error) {
	var elems []Value
	for {
		tok, err := p.lex.next()
		if err != nil {
			return Value{}, token{}, err
		}
		switch tok.typ {
		case tokenFinishList:
			return Value{kind: KindList, listVal: elems}, tok, nil
		case tokenEOF:
			return Value{}, token{}, locErrf(open.line, open.character,
				"After this opening '[', a value or a closing ']' was expected, "+
					"but reached the end of the document instead.")
		}
		elem, _, err := p.parseValue(tok)
		if err != nil {
			return Value{}, token{}, err
		}
		elems = append(elems, elem)

		tok, err = p.lex.next()
		if err != nil {
			return Value{}, token{}, err
		}
		switch tok.typ {
		case tokenComma:
			// a ']' straight after the comma is fine: trailing commas are
			// tolerated, and the top of the loop handles it.
		case tokenFinishList:
			return Value{kind: KindList, listVal: elems}, tok, nil
		case tokenEOF:
			return Value{}, token{}, errf("Reached the end of the document without the list being closed.")
		default:
			return Value{}, token{}, locErrf(tok.line, tok.character,
				"Expected a ',' or a ']' here, but got '%s'.", tok.text)
		}
	}
}

func (p *parser) parseMap(open token) (Value, token, error) {
	var entries []MapEntry
	for {
		keyTok, err := p.lex.next()
		if err != nil {
			return Value{}, token{}, err
		}
		switch keyTok.typ {
		case tokenFinishMap:
			return Value{kind: KindMap, mapVal: entries}, keyTok, nil
		case tokenEOF:
			return Value{}, token{}, locErrf(open.line, open.character,
				"After this opening '{', a key or a closing '}' was expected, "+
					"but reached the end of the document instead.")
		case tokenPrimitive:
			if keyTok.value.IsNull() {
				return Value{}, token{}, locErrf(keyTok.line, keyTok.character, "A map key can't be null.")
			}
		case tokenStartList:
			return Value{}, token{}, locErrf(keyTok.line, keyTok.character, "A list can't be a key in a map.")
		case tokenStartMap:
			return Value{}, token{}, locErrf(keyTok.line, keyTok.character, "A map can't be a key in another map.")
		default:
			return Value{}, token{}, locErrf(keyTok.line, keyTok.character,
				"The token type %d isn't recognized.", keyTok.typ)
		}

		colonTok, err := p.lex.next()
		if err != nil {
			return Value{}, token{}, err
		}
		if colonTok.typ == tokenEOF {
			return Value{}, token{}, locErrf(keyTok.line, keyTok.character,
				"After this key, a ':' was expected, but reached the end of the document instead.")
		}
		if colonTok.typ != tokenColon {
			return Value{}, token{}, locErrf(colonTok.line, colonTok.character,
				"Expected a ':' here, but got '%s'.", colonTok.text)
		}

		valTok, err := p.lex.next()
		if err != nil {
			return Value{}, token{}, err
		}
		if valTok.typ == tokenEOF {
			return Value{}, token{}, locErrf(colonTok.line, colonTok.character,
				"After this ':', a value was expected, but reached the end of the document instead.")
		}
		val, endTok, err := p.parseValue(valTok)
		if err != nil {
			return Value{}, token{}, err
		}

		// A re-inserted key is reported at the token that closed the second
		// occurrence's value.
		for _, e := range entries {
			if keyEquivalent(e.Key, keyTok.value) {
				return Value{}, token{}, locErrf(endTok.line, endTok.character,
					"Duplicate map keys aren't allowed: '%s'.", keyTok.text)
			}
		}
		entries = append(entries, MapEntry{Key: keyTok.value, Value: val})

		term, err := p.lex.next()
		if err != nil {
			return Value{}, token{}, err
		}
		switch term.typ {
		case tokenComma:
		case tokenFinishMap:
			return Value{kind: KindMap, mapVal: entries}, term, nil
		case tokenEOF:
			return Value{}, token{}, errf("Reached the end of the document without the map being closed.")
		default:
			return Value{}, token{}, locErrf(term.line, term.character,
				"Expected a ',' or a '}' here, but got '%s'.", term.text)
		}
	}
}
