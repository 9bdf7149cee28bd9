package num

// Dec represents an arbitrary-precision decimal as a coefficient and scale.
// The value is Sign * Coef * 10^-Scale. Coef has no leading zeros and the
// fractional part carries no trailing zeros, so equal values compare bytewise.
type Dec struct {
	Coef  []byte
	Scale uint32
	Sign  int8
}

// ParseDec parses a decimal lexical value into a Dec.
func ParseDec(b []byte) (Dec, *ParseError) {
	if len(b) == 0 {
		return Dec{}, newParseError(ParseEmpty, b)
	}
	sign, rest := splitSign(b)
	intPart := rest
	var fracPart []byte
	dots := 0
	for i, c := range rest {
		switch {
		case c == '.':
			dots++
			if dots > 1 {
				return Dec{}, newParseError(ParseMultipleDots, b)
			}
			intPart = rest[:i]
			fracPart = rest[i+1:]
		case !isDigit(c):
			return Dec{}, newParseError(ParseBadChar, b)
		}
	}
	if len(intPart) == 0 && len(fracPart) == 0 {
		return Dec{}, newParseError(ParseNoDigits, b)
	}
	return newDec(sign, intPart, fracPart), nil
}

// NewDec builds a Dec from integral and fractional digit strings.
func NewDec(negative bool, integral, fraction []byte) Dec {
	sign := int8(1)
	if negative {
		sign = -1
	}
	return newDec(sign, integral, fraction)
}

func newDec(sign int8, intPart, fracPart []byte) Dec {
	fracPart = trimTrailingZeros(fracPart)
	coef := make([]byte, 0, len(intPart)+len(fracPart))
	coef = append(coef, intPart...)
	coef = append(coef, fracPart...)
	coef = trimLeadingZeros(coef)
	if len(coef) == 0 {
		return Dec{Sign: 0, Coef: zeroDigits}
	}
	return Dec{Sign: sign, Coef: coef, Scale: uint32(len(fracPart))}
}

// Parts returns the integral and fractional digit strings.
// The integral part is "0" for values below one; the fractional part is empty
// for whole values.
func (d Dec) Parts() (integral, fraction []byte) {
	if d.Sign == 0 {
		return zeroDigits, nil
	}
	scale := int(d.Scale)
	if scale == 0 {
		return d.Coef, nil
	}
	if len(d.Coef) > scale {
		return d.Coef[:len(d.Coef)-scale], d.Coef[len(d.Coef)-scale:]
	}
	frac := make([]byte, scale)
	pad := scale - len(d.Coef)
	for i := range pad {
		frac[i] = '0'
	}
	copy(frac[pad:], d.Coef)
	return zeroDigits, frac
}

// Compare compares two Dec values.
func (d Dec) Compare(o Dec) int {
	if d.Sign != o.Sign {
		if d.Sign < o.Sign {
			return -1
		}
		return 1
	}
	if d.Sign == 0 {
		return 0
	}
	ai, af := d.Parts()
	bi, bf := o.Parts()
	cmp := compareDigits(ai, bi)
	if cmp == 0 {
		cmp = compareFraction(af, bf)
	}
	if d.Sign < 0 {
		return -cmp
	}
	return cmp
}

// IsInteger reports whether the value has no fractional part.
func (d Dec) IsInteger() bool {
	return d.Sign == 0 || d.Scale == 0
}

// Int returns the integral value when the Dec has no fractional part.
func (d Dec) Int() (Int, bool) {
	if d.Sign == 0 {
		return IntZero, true
	}
	if d.Scale != 0 {
		return Int{}, false
	}
	return Int{Sign: d.Sign, Digits: d.Coef}, true
}

// RenderCanonical appends the canonical lexical form to dst: an optional
// minus sign, at least one integral digit, a point and at least one
// fractional digit.
func (d Dec) RenderCanonical(dst []byte) []byte {
	integral, fraction := d.Parts()
	if d.Sign < 0 {
		dst = append(dst, '-')
	}
	dst = append(dst, integral...)
	dst = append(dst, '.')
	if len(fraction) == 0 {
		return append(dst, '0')
	}
	return append(dst, fraction...)
}

// String returns the canonical lexical form.
func (d Dec) String() string {
	return string(d.RenderCanonical(nil))
}

func compareFraction(a, b []byte) int {
	n := max(len(a), len(b))
	for i := range n {
		ca, cb := byte('0'), byte('0')
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	return 0
}
