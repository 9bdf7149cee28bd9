// Package variant holds typed facet, default, fixed and enumeration values.
package variant

import (
	"bytes"
	"fmt"

	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/num"
)

// Kind tags the lexical category held by a Variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt32
	KindInt64
	KindBigInt
	KindDecimal
	KindFloat
	KindDateTime
	KindDuration
	KindBytes
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindBigInt:
		return "bigint"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindDateTime:
		return "datetime"
	case KindDuration:
		return "duration"
	case KindBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// Variant is an immutable tagged value. The zero Variant is KindInvalid.
type Variant struct {
	dec      num.Dec
	big      num.Int
	str      string
	bytes    []byte
	duration lexical.Duration
	dt       lexical.DateTime
	flt      num.Float
	i64      int64
	kind     Kind
	dtKind   lexical.DateTimeKind
}

// String returns a string variant.
func String(s string) Variant { return Variant{kind: KindString, str: s} }

// Int32 returns an int32 variant.
func Int32(v int32) Variant { return Variant{kind: KindInt32, i64: int64(v)} }

// Int64 returns an int64 variant.
func Int64(v int64) Variant { return Variant{kind: KindInt64, i64: v} }

// BigInt returns an arbitrary-precision integer variant.
func BigInt(v num.Int) Variant { return Variant{kind: KindBigInt, big: v} }

// Decimal returns a decimal variant.
func Decimal(v num.Dec) Variant { return Variant{kind: KindDecimal, dec: v} }

// Float returns a float variant.
func Float(v num.Float) Variant { return Variant{kind: KindFloat, flt: v.Normalize()} }

// DateTime returns a date/time variant of the given primitive kind.
func DateTime(kind lexical.DateTimeKind, v lexical.DateTime) Variant {
	return Variant{kind: KindDateTime, dtKind: kind, dt: v}
}

// Duration returns a duration variant.
func Duration(v lexical.Duration) Variant { return Variant{kind: KindDuration, duration: v} }

// Bytes returns a binary variant holding a copy of b.
func Bytes(b []byte) Variant {
	return Variant{kind: KindBytes, bytes: append([]byte(nil), b...)}
}

// Integer returns the smallest integer variant able to hold v.
func Integer(v num.Int) Variant {
	if i, ok := v.Int64(); ok {
		if i >= -1<<31 && i < 1<<31 {
			return Int32(int32(i))
		}
		return Int64(i)
	}
	return BigInt(v)
}

// Kind returns the variant tag.
func (v Variant) Kind() Kind { return v.kind }

// Str returns the string payload.
func (v Variant) Str() string { return v.str }

// Dec returns the decimal payload.
func (v Variant) Dec() num.Dec { return v.dec }

// Float returns the float payload.
func (v Variant) Float() num.Float { return v.flt }

// DateTime returns the date/time payload and its primitive kind.
func (v Variant) DateTime() (lexical.DateTimeKind, lexical.DateTime) { return v.dtKind, v.dt }

// Duration returns the duration payload.
func (v Variant) Duration() lexical.Duration { return v.duration }

// Bytes returns the binary payload. Callers must not modify it.
func (v Variant) Bytes() []byte { return v.bytes }

// Int returns the integer payload of the int32, int64 and bigint kinds.
func (v Variant) Int() (num.Int, bool) {
	switch v.kind {
	case KindInt32, KindInt64:
		return num.FromInt64(v.i64), true
	case KindBigInt:
		return v.big, true
	default:
		return num.Int{}, false
	}
}

// IsInteger reports whether the variant holds an integer kind.
func (v Variant) IsInteger() bool {
	switch v.kind {
	case KindInt32, KindInt64, KindBigInt:
		return true
	default:
		return false
	}
}

// Equal reports whether two variants hold the same value. Integer kinds compare
// by value regardless of width.
func (v Variant) Equal(o Variant) bool {
	if v.IsInteger() && o.IsInteger() {
		a, _ := v.Int()
		b, _ := o.Int()
		return a.Compare(b) == 0
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindDecimal:
		return v.dec.Compare(o.dec) == 0
	case KindFloat:
		return v.flt == o.flt
	case KindDateTime:
		return v.dtKind == o.dtKind && v.dt == o.dt
	case KindDuration:
		a, b := v.duration, o.duration
		return a.Negative == b.Negative && a.Years == b.Years && a.Months == b.Months &&
			a.Days == b.Days && a.Hours == b.Hours && a.Minutes == b.Minutes &&
			a.Seconds.Compare(b.Seconds) == 0
	case KindBytes:
		return bytes.Equal(v.bytes, o.bytes)
	case KindInvalid:
		return true
	default:
		return false
	}
}

// Compare orders two numeric variants. ok is false when the kinds are not
// comparable.
func (v Variant) Compare(o Variant) (cmp int, ok bool) {
	switch {
	case v.IsInteger() && o.IsInteger():
		a, _ := v.Int()
		b, _ := o.Int()
		return a.Compare(b), true
	case v.kind == KindDecimal && o.kind == KindDecimal:
		return v.dec.Compare(o.dec), true
	default:
		return 0, false
	}
}

// Canonical returns the canonical lexical form of the value.
func (v Variant) Canonical() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt32, KindInt64:
		return num.FromInt64(v.i64).String()
	case KindBigInt:
		return v.big.String()
	case KindDecimal:
		return v.dec.String()
	case KindFloat:
		return v.flt.String()
	case KindDateTime:
		return v.dt.Render(v.dtKind)
	case KindDuration:
		return v.duration.Render()
	case KindBytes:
		return lexical.CanonicalBase64(v.bytes)
	default:
		return ""
	}
}

// GoString implements fmt.GoStringer for test output.
func (v Variant) GoString() string {
	return fmt.Sprintf("variant.%s(%q)", v.kind, v.Canonical())
}
