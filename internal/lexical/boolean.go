package lexical

import "fmt"

// Boolean lexical forms in the order used by patterned boolean codes.
var booleanLexicals = [4]string{"false", "0", "true", "1"}

// ParseBoolean parses a collapsed xs:boolean lexical value.
// The returned index identifies the lexical form: 0 "false", 1 "0", 2 "true", 3 "1".
func ParseBoolean(s string) (value bool, index int, err error) {
	switch TrimXMLWhitespace(s) {
	case "false":
		return false, 0, nil
	case "0":
		return false, 1, nil
	case "true":
		return true, 2, nil
	case "1":
		return true, 3, nil
	default:
		return false, 0, fmt.Errorf("invalid boolean: %q", s)
	}
}

// BooleanLexical returns the lexical form for a patterned boolean index.
func BooleanLexical(index int) (string, bool) {
	if index < 0 || index >= len(booleanLexicals) {
		return "", false
	}
	return booleanLexicals[index], true
}

// CanonicalBoolean returns the canonical lexical form.
func CanonicalBoolean(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
