package num

import "strconv"

// ErrorKind identifies why a numeric lexical form was rejected.
type ErrorKind uint8

const (
	ParseInvalid ErrorKind = iota
	ParseEmpty
	ParseBadChar
	ParseMultipleDots
	ParseNoDigits
)

// String returns a stable label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case ParseEmpty:
		return "empty"
	case ParseBadChar:
		return "bad character"
	case ParseMultipleDots:
		return "multiple dots"
	case ParseNoDigits:
		return "no digits"
	default:
		return "invalid"
	}
}

// ParseError reports a rejected numeric literal.
type ParseError struct {
	Input string
	Kind  ErrorKind
}

func newParseError(kind ErrorKind, b []byte) *ParseError {
	return &ParseError{Kind: kind, Input: string(b)}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return "number " + strconv.Quote(e.Input) + ": " + e.Kind.String()
}
