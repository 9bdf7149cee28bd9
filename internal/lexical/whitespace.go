// Package lexical parses and renders the lexical forms of XSD simple values.
package lexical

import "bytes"

// WhitespaceMode is the whiteSpace facet value of a datatype.
type WhitespaceMode uint8

const (
	WhitespacePreserve WhitespaceMode = iota
	WhitespaceReplace
	WhitespaceCollapse
)

// String returns the facet value spelling.
func (m WhitespaceMode) String() string {
	switch m {
	case WhitespaceReplace:
		return "replace"
	case WhitespaceCollapse:
		return "collapse"
	default:
		return "preserve"
	}
}

// ParseWhitespaceMode parses a whiteSpace facet value.
func ParseWhitespaceMode(s string) (WhitespaceMode, bool) {
	switch s {
	case "preserve":
		return WhitespacePreserve, true
	case "replace":
		return WhitespaceReplace, true
	case "collapse":
		return WhitespaceCollapse, true
	default:
		return WhitespacePreserve, false
	}
}

// Normalize applies the whitespace mode to s.
// It returns s unchanged when no rewriting is needed.
func Normalize(mode WhitespaceMode, s string) string {
	switch mode {
	case WhitespaceReplace:
		return string(replaceWhitespace([]byte(s)))
	case WhitespaceCollapse:
		if !needsCollapse([]byte(s)) {
			return s
		}
		return string(collapseWhitespace([]byte(s)))
	default:
		return s
	}
}

// TrimXMLWhitespace removes leading and trailing XML whitespace.
func TrimXMLWhitespace(in string) string {
	start := 0
	end := len(in)
	for start < end && IsXMLWhitespaceByte(in[start]) {
		start++
	}
	for end > start && IsXMLWhitespaceByte(in[end-1]) {
		end--
	}
	return in[start:end]
}

// IsAllWhitespace reports whether s is empty or only XML whitespace.
func IsAllWhitespace(s string) bool {
	for i := 0; i < len(s); i++ {
		if !IsXMLWhitespaceByte(s[i]) {
			return false
		}
	}
	return true
}

// Fields splits s on XML whitespace and skips empty fields.
func Fields(s string) []string {
	var out []string
	i := 0
	for i < len(s) {
		for i < len(s) && IsXMLWhitespaceByte(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		start := i
		for i < len(s) && !IsXMLWhitespaceByte(s[i]) {
			i++
		}
		out = append(out, s[start:i])
	}
	return out
}

func replaceWhitespace(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	for i, b := range out {
		if IsXMLWhitespaceByte(b) {
			out[i] = ' '
		}
	}
	return out
}

func collapseWhitespace(in []byte) []byte {
	out := make([]byte, 0, len(in))
	i := 0
	for i < len(in) && IsXMLWhitespaceByte(in[i]) {
		i++
	}
	pendingSpace := false
	for ; i < len(in); i++ {
		b := in[i]
		if IsXMLWhitespaceByte(b) {
			pendingSpace = true
			continue
		}
		if pendingSpace && len(out) > 0 {
			out = append(out, ' ')
		}
		pendingSpace = false
		out = append(out, b)
	}
	return out
}

func needsCollapse(in []byte) bool {
	if len(in) == 0 {
		return false
	}
	if IsXMLWhitespaceByte(in[0]) || IsXMLWhitespaceByte(in[len(in)-1]) {
		return true
	}
	if bytes.IndexByte(in, '\t') >= 0 || bytes.IndexByte(in, '\n') >= 0 || bytes.IndexByte(in, '\r') >= 0 {
		return true
	}
	return bytes.Contains(in, doubleSpaceBytes)
}

var doubleSpaceBytes = []byte("  ")

// IsXMLWhitespaceByte reports whether the byte is XML whitespace.
func IsXMLWhitespaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
