package lexical

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseBase64 decodes an xs:base64Binary lexical value.
// Whitespace inside the value is ignored.
func ParseBase64(s string) ([]byte, error) {
	compact := stripWhitespace(s)
	out, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("invalid base64Binary: %w", err)
	}
	return out, nil
}

// ParseHex decodes an xs:hexBinary lexical value.
func ParseHex(s string) ([]byte, error) {
	out, err := hex.DecodeString(TrimXMLWhitespace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hexBinary: %w", err)
	}
	return out, nil
}

// CanonicalBase64 renders bytes in canonical base64Binary form.
func CanonicalBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// CanonicalHex renders bytes in canonical (upper-case) hexBinary form.
func CanonicalHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

func stripWhitespace(s string) string {
	if !strings.ContainsAny(s, " \t\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !IsXMLWhitespaceByte(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
