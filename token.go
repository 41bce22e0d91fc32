package zish

// tokenType identifies a lexer token. The numeric values are part of the
// error contract: the parser's "token type N isn't recognized" diagnostic
// prints them, so the numbering can't change.
type tokenType uint8

const (
	tokenStartMap   tokenType = iota // {
	tokenFinishMap                   // }
	tokenColon                       // :
	tokenComma                       // ,
	tokenStartList                   // [
	tokenFinishList                  // ]
	tokenPrimitive                   // fully parsed scalar
	tokenEOF
)

// token is one lexical unit. Tokens are produced lazily, consumed once by the
// parser and discarded. line and character locate the character that
// terminated the token, in the one-past counting scheme described on
// LocationError. text is the display form used in diagnostics; value is only
// set for tokenPrimitive.
type token struct {
	typ       tokenType
	line      int
	character int
	text      string
	value     Value
}
