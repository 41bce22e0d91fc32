package zish

import "fmt"

// Error is a document-level problem with no meaningful position: an empty
// document, a comment left open at the end of the input, an escape sequence
// that can't be resolved, or an attempt to serialize something outside the
// Value model.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// LocationError is a grammar or structural violation at a known place in the
// input. Line and Character are both 1-based; the character counter advances
// on every character examined, including the one that terminates a token, so
// positions land one past the conventional start-of-token point. Embedding
// tools match on the rendered text, so the format is part of the contract.
type LocationError struct {
	Line      int
	Character int
	Message   string
	Err       error // underlying cause, if any (e.g. the date-time routine)
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("Problem at line %d and character %d: %s", e.Line, e.Character, e.Message)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

func locErrf(line, character int, format string, args ...any) *LocationError {
	return &LocationError{Line: line, Character: character, Message: fmt.Sprintf(format, args...)}
}

func errf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}
