package num

import (
	"bytes"
	"strconv"
)

// FloatClass identifies the special values of float and double.
type FloatClass uint8

const (
	FloatFinite FloatClass = iota
	FloatPosInf
	FloatNegInf
	FloatNaN
)

// Float is a decimal float split into an integer mantissa and a base-10
// exponent. The mantissa carries no trailing zeros.
type Float struct {
	Mantissa int64
	Exponent int64
	Class    FloatClass
}

// maxMantissaDigits keeps the mantissa inside int64.
const maxMantissaDigits = 18

// ParseFloat parses an XSD float/double lexical value into mantissa and exponent.
// Mantissas wider than 18 digits are truncated toward zero.
func ParseFloat(b []byte) (Float, *ParseError) {
	if len(b) == 0 {
		return Float{}, newParseError(ParseEmpty, b)
	}
	switch {
	case bytes.Equal(b, []byte("INF")):
		return Float{Class: FloatPosInf}, nil
	case bytes.Equal(b, []byte("-INF")):
		return Float{Class: FloatNegInf}, nil
	case bytes.Equal(b, []byte("NaN")):
		return Float{Class: FloatNaN}, nil
	}
	if !isFloatLexical(b) {
		return Float{}, newParseError(ParseBadChar, b)
	}
	mantissaPart := b
	var exp int64
	if i := bytes.IndexAny(b, "eE"); i >= 0 {
		mantissaPart = b[:i]
		v, err := strconv.ParseInt(string(b[i+1:]), 10, 64)
		if err != nil {
			return Float{}, newParseError(ParseInvalid, b)
		}
		exp = v
	}
	dec, perr := ParseDec(mantissaPart)
	if perr != nil {
		return Float{}, perr
	}
	if dec.Sign == 0 {
		return Float{}, nil
	}
	coef := trimTrailingZeros(dec.Coef)
	exp += int64(len(dec.Coef)-len(coef)) - int64(dec.Scale)
	if len(coef) > maxMantissaDigits {
		exp += int64(len(coef) - maxMantissaDigits)
		coef = trimTrailingZeros(coef[:maxMantissaDigits])
		// trailing zeros removed after truncation shift the exponent too
		exp += int64(maxMantissaDigits - len(coef))
	}
	m, err := strconv.ParseInt(string(coef), 10, 64)
	if err != nil {
		return Float{}, newParseError(ParseInvalid, b)
	}
	if dec.Sign < 0 {
		m = -m
	}
	return Float{Mantissa: m, Exponent: exp}, nil
}

// Normalize moves trailing zeros of the mantissa into the exponent.
func (f Float) Normalize() Float {
	if f.Class != FloatFinite {
		return f
	}
	if f.Mantissa == 0 {
		return Float{}
	}
	for f.Mantissa%10 == 0 {
		f.Mantissa /= 10
		f.Exponent++
	}
	return f
}

// RenderCanonical appends the canonical lexical form to dst: a mantissa with
// one integral digit and at least one fractional digit, followed by "E" and
// the exponent ("1.5E2", "-1.0E0", "0.0E0").
func (f Float) RenderCanonical(dst []byte) []byte {
	switch f.Class {
	case FloatPosInf:
		return append(dst, "INF"...)
	case FloatNegInf:
		return append(dst, "-INF"...)
	case FloatNaN:
		return append(dst, "NaN"...)
	}
	f = f.Normalize()
	if f.Mantissa == 0 {
		return append(dst, "0.0E0"...)
	}
	m := f.Mantissa
	if m < 0 {
		dst = append(dst, '-')
		m = -m
	}
	digits := strconv.AppendInt(nil, m, 10)
	exp := f.Exponent + int64(len(digits)-1)
	dst = append(dst, digits[0], '.')
	if len(digits) == 1 {
		dst = append(dst, '0')
	} else {
		dst = append(dst, digits[1:]...)
	}
	dst = append(dst, 'E')
	return strconv.AppendInt(dst, exp, 10)
}

// String returns the canonical lexical form.
func (f Float) String() string {
	return string(f.RenderCanonical(nil))
}

func isFloatLexical(value []byte) bool {
	if len(value) == 0 {
		return false
	}
	i := 0
	if value[i] == '+' || value[i] == '-' {
		i++
		if i == len(value) {
			return false
		}
	}
	startDigits := 0
	for i < len(value) && isDigit(value[i]) {
		i++
		startDigits++
	}
	if i < len(value) && value[i] == '.' {
		i++
		fracDigits := 0
		for i < len(value) && isDigit(value[i]) {
			i++
			fracDigits++
		}
		if startDigits == 0 && fracDigits == 0 {
			return false
		}
	} else if startDigits == 0 {
		return false
	}
	if i < len(value) && (value[i] == 'e' || value[i] == 'E') {
		i++
		if i == len(value) {
			return false
		}
		if value[i] == '+' || value[i] == '-' {
			i++
			if i == len(value) {
				return false
			}
		}
		expDigits := 0
		for i < len(value) && isDigit(value[i]) {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(value)
}
