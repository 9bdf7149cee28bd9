package num

import (
	"math/big"
	"strconv"
)

var zeroDigits = []byte{'0'}

// Int represents an arbitrary-precision integer as a decimal digit string.
// Digits never carry leading zeros; zero is Sign 0 with Digits "0".
type Int struct {
	Digits []byte
	Sign   int8
}

// IntZero is the canonical zero.
var IntZero = Int{Sign: 0, Digits: zeroDigits}

// ParseInt parses an integer lexical value into an Int.
func ParseInt(b []byte) (Int, *ParseError) {
	if len(b) == 0 {
		return Int{}, newParseError(ParseEmpty, b)
	}
	sign, rest := splitSign(b)
	if len(rest) == 0 {
		return Int{}, newParseError(ParseNoDigits, b)
	}
	for _, c := range rest {
		if !isDigit(c) {
			return Int{}, newParseError(ParseBadChar, b)
		}
	}
	digits := trimLeadingZeros(rest)
	if len(digits) == 0 {
		return IntZero, nil
	}
	return Int{Sign: sign, Digits: append([]byte(nil), digits...)}, nil
}

// FromInt64 converts an int64 into an Int.
func FromInt64(v int64) Int {
	if v == 0 {
		return IntZero
	}
	s := strconv.FormatInt(v, 10)
	if v < 0 {
		return Int{Sign: -1, Digits: []byte(s[1:])}
	}
	return Int{Sign: 1, Digits: []byte(s)}
}

// FromBig converts a big.Int into an Int.
func FromBig(v *big.Int) Int {
	if v == nil || v.Sign() == 0 {
		return IntZero
	}
	s := v.String()
	if v.Sign() < 0 {
		return Int{Sign: -1, Digits: []byte(s[1:])}
	}
	return Int{Sign: 1, Digits: []byte(s)}
}

// Big returns the value as a new big.Int.
func (a Int) Big() *big.Int {
	out := new(big.Int)
	if a.Sign == 0 {
		return out
	}
	out.SetString(string(a.Digits), 10)
	if a.Sign < 0 {
		out.Neg(out)
	}
	return out
}

// Int64 returns the value as an int64 when it fits.
func (a Int) Int64() (int64, bool) {
	if a.Sign == 0 {
		return 0, true
	}
	v, err := strconv.ParseInt(string(a.RenderCanonical(nil)), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Compare compares two Int values.
func (a Int) Compare(b Int) int {
	if a.Sign == 0 && b.Sign == 0 {
		return 0
	}
	if a.Sign != b.Sign {
		if a.Sign < b.Sign {
			return -1
		}
		return 1
	}
	cmp := compareDigits(a.Digits, b.Digits)
	if a.Sign < 0 {
		return -cmp
	}
	return cmp
}

// RenderCanonical appends the canonical lexical form to dst.
func (a Int) RenderCanonical(dst []byte) []byte {
	if a.Sign == 0 {
		return append(dst, '0')
	}
	if a.Sign < 0 {
		dst = append(dst, '-')
	}
	return append(dst, a.Digits...)
}

// String returns the canonical lexical form.
func (a Int) String() string {
	return string(a.RenderCanonical(nil))
}

func compareDigits(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := 0; i < len(a); i++ {
		if a[i] == b[i] {
			continue
		}
		if a[i] < b[i] {
			return -1
		}
		return 1
	}
	return 0
}
