// Package valuecodec encodes and decodes attribute and character values
// with the bit layout of their selected datatype representation.
package valuecodec

import (
	"math/big"
	"slices"
	"strings"

	"github.com/pkg/errors"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/bitio"
	"github.com/jacoelho/exi/internal/datatype"
	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/num"
	"github.com/jacoelho/exi/internal/schema"
	"github.com/jacoelho/exi/internal/stringtable"
)

const (
	yearOffset     = 2000
	timezoneOffset = 896
	floatSpecial   = -16384
	maxExponent    = 16383
)

// Strings routes string-coded values through the document string tables.
type Strings struct {
	Tables *stringtable.Tables
	Owner  stringtable.Name
}

// Value is a lexical value checked against a representation and ready to
// be written.
type Value struct {
	rep   *datatype.Representation
	text  string
	items []Value
	bytes []byte
	dt    lexical.DateTime
	dec   num.Dec
	i     num.Int
	flt   num.Float
	index int
	b     bool
}

// Parse checks s against rep. String-coded values are kept as written; the
// other representations parse the whitespace-collapsed text.
func Parse(rep *datatype.Representation, s string) (Value, *xerrors.Error) {
	v := Value{rep: rep}
	mismatch := func(format string, args ...any) (Value, *xerrors.Error) {
		return Value{}, xerrors.Newf(xerrors.ErrValueMismatch, format, args...).WithValue(s)
	}
	trimmed := lexical.TrimXMLWhitespace(s)
	switch rep.Kind {
	case datatype.KindString:
		v.text = s
	case datatype.KindEnumeration:
		parsed, err := schema.ParseValue(rep.Primitive, rep.Integer, rep.Whitespace, s)
		if err != nil {
			return mismatch("not a valid %s: %v", rep.Primitive, err)
		}
		v.index = slices.IndexFunc(rep.Values, parsed.Equal)
		if v.index < 0 {
			return Value{}, xerrors.Newf(xerrors.ErrEnumerationMismatch, "value is not one of the %d enumerated values", len(rep.Values)).WithValue(s)
		}
	case datatype.KindBoolean:
		b, index, err := lexical.ParseBoolean(s)
		if err != nil {
			return mismatch("not a valid boolean")
		}
		v.b, v.index = b, index
	case datatype.KindDecimal:
		d, perr := num.ParseDec([]byte(trimmed))
		if perr != nil {
			return mismatch("not a valid decimal: %v", perr)
		}
		v.dec = d
	case datatype.KindFloat:
		f, perr := num.ParseFloat([]byte(trimmed))
		if perr != nil {
			return mismatch("not a valid %s: %v", rep.Primitive, perr)
		}
		f = f.Normalize()
		if f.Class == num.FloatFinite && (f.Exponent > maxExponent || f.Exponent < -maxExponent) {
			return mismatch("exponent %d out of range", f.Exponent)
		}
		v.flt = f
	case datatype.KindInteger, datatype.KindUnsignedInteger, datatype.KindNBitInteger:
		n, perr := num.ParseInt([]byte(trimmed))
		if perr != nil {
			return mismatch("not a valid integer: %v", perr)
		}
		if rep.Kind == datatype.KindUnsignedInteger && n.Sign < 0 {
			return mismatch("negative value for a non-negative integer type")
		}
		if rep.Kind == datatype.KindNBitInteger && (n.Compare(rep.Min) < 0 || n.Compare(rep.Max) > 0) {
			return mismatch("value outside [%s, %s]", rep.Min, rep.Max)
		}
		v.i = n
	case datatype.KindDateTime:
		dt, err := lexical.ParseDateTime(rep.DateTime, trimmed)
		if err != nil {
			return mismatch("%v", err)
		}
		v.dt = dt
	case datatype.KindBinary:
		var (
			b   []byte
			err error
		)
		if rep.Hex {
			b, err = lexical.ParseHex(trimmed)
		} else {
			b, err = lexical.ParseBase64(trimmed)
		}
		if err != nil {
			return mismatch("%v", err)
		}
		v.bytes = b
	case datatype.KindList:
		for _, field := range lexical.Fields(s) {
			item, err := Parse(rep.Item, field)
			if err != nil {
				return Value{}, err.WithValue(s)
			}
			v.items = append(v.items, item)
		}
	default:
		return mismatch("unsupported representation %s", rep.Kind)
	}
	return v, nil
}

// Write writes v. String-coded values go through str.
func (v Value) Write(w *bitio.Writer, str Strings) {
	rep := v.rep
	switch rep.Kind {
	case datatype.KindString:
		var chars stringtable.Chars
		if rep.RCS != nil {
			chars = rcsChars(rep.RCS)
		}
		str.Tables.EncodeValueChars(w, str.Owner, v.text, chars)
	case datatype.KindEnumeration:
		w.WriteBits(uint64(v.index), rep.EnumWidth())
	case datatype.KindBoolean:
		if rep.Patterned {
			w.WriteBits(uint64(v.index), 2)
			return
		}
		w.WriteBool(v.b)
	case datatype.KindDecimal:
		integral, fraction := v.dec.Parts()
		w.WriteBool(v.dec.Sign < 0)
		w.WriteUnsignedBig(digits(integral))
		w.WriteUnsignedBig(digits(reversed(fraction)))
	case datatype.KindFloat:
		writeFloat(w, v.flt)
	case datatype.KindInteger:
		w.WriteIntegerBig(v.i.Big())
	case datatype.KindUnsignedInteger:
		w.WriteUnsignedBig(v.i.Big())
	case datatype.KindNBitInteger:
		off := new(big.Int).Sub(v.i.Big(), rep.Min.Big())
		w.WriteBits(off.Uint64(), rep.Width)
	case datatype.KindDateTime:
		writeDateTime(w, rep.DateTime, v.dt)
	case datatype.KindBinary:
		w.WriteUnsigned(uint64(len(v.bytes)))
		for _, b := range v.bytes {
			w.WriteBits(uint64(b), 8)
		}
	case datatype.KindList:
		w.WriteUnsigned(uint64(len(v.items)))
		for _, item := range v.items {
			item.Write(w, str)
		}
	}
}

// Read decodes one value of rep and returns its lexical form: canonical for
// typed representations, as written for string-coded ones.
func Read(r *bitio.Reader, rep *datatype.Representation, str Strings) (string, error) {
	switch rep.Kind {
	case datatype.KindString:
		var chars stringtable.Chars
		if rep.RCS != nil {
			chars = rcsChars(rep.RCS)
		}
		return str.Tables.DecodeValueChars(r, str.Owner, chars)
	case datatype.KindEnumeration:
		i, err := r.ReadBits(rep.EnumWidth())
		if err != nil {
			return "", err
		}
		if int(i) >= len(rep.Values) {
			return "", errors.Errorf("enumeration index %d of %d", i, len(rep.Values))
		}
		return rep.Values[i].Canonical(), nil
	case datatype.KindBoolean:
		if rep.Patterned {
			i, err := r.ReadBits(2)
			if err != nil {
				return "", err
			}
			s, _ := lexical.BooleanLexical(int(i))
			return s, nil
		}
		b, err := r.ReadBool()
		if err != nil {
			return "", err
		}
		return lexical.CanonicalBoolean(b), nil
	case datatype.KindDecimal:
		return readDecimal(r)
	case datatype.KindFloat:
		return readFloat(r)
	case datatype.KindInteger:
		v, err := r.ReadInteger()
		if err != nil {
			return "", err
		}
		return v.String(), nil
	case datatype.KindUnsignedInteger:
		v, err := r.ReadUnsignedBig()
		if err != nil {
			return "", err
		}
		return v.String(), nil
	case datatype.KindNBitInteger:
		off, err := r.ReadBits(rep.Width)
		if err != nil {
			return "", err
		}
		v := new(big.Int).Add(rep.Min.Big(), new(big.Int).SetUint64(off))
		if v.Cmp(rep.Max.Big()) > 0 {
			return "", errors.Errorf("n-bit value %s above maximum %s", v, rep.Max)
		}
		return v.String(), nil
	case datatype.KindDateTime:
		return readDateTime(r, rep.DateTime)
	case datatype.KindBinary:
		return readBinary(r, rep.Hex)
	case datatype.KindList:
		n, err := r.ReadUnsigned()
		if err != nil {
			return "", err
		}
		if zeroWidth(rep.Item) {
			if n > maxZeroWidthItems {
				return "", errors.Errorf("list of %d zero-width items", n)
			}
		} else if n > uint64(r.Remaining()) {
			return "", bitio.ErrPrematureEnd
		}
		var b strings.Builder
		for i := range n {
			item, err := Read(r, rep.Item, str)
			if err != nil {
				return "", err
			}
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(item)
		}
		return b.String(), nil
	}
	return "", errors.Errorf("unsupported representation %s", rep.Kind)
}

// maxZeroWidthItems bounds lists whose items occupy no bits, where the
// remaining input cannot bound the count.
const maxZeroWidthItems = 1 << 20

// zeroWidth reports whether values of rep are encoded in zero bits.
func zeroWidth(rep *datatype.Representation) bool {
	switch rep.Kind {
	case datatype.KindNBitInteger:
		return rep.Width == 0
	case datatype.KindEnumeration:
		return rep.EnumWidth() == 0
	}
	return false
}

func digits(b []byte) *big.Int {
	v := new(big.Int)
	if len(b) > 0 {
		v.SetString(string(b), 10)
	}
	return v
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func readDecimal(r *bitio.Reader) (string, error) {
	negative, err := r.ReadBool()
	if err != nil {
		return "", err
	}
	integral, err := r.ReadUnsignedBig()
	if err != nil {
		return "", err
	}
	fraction, err := r.ReadUnsignedBig()
	if err != nil {
		return "", err
	}
	d := num.NewDec(negative, []byte(integral.String()), reversed([]byte(fraction.String())))
	return d.String(), nil
}

func writeFloat(w *bitio.Writer, f num.Float) {
	switch f.Class {
	case num.FloatPosInf:
		w.WriteInteger(1)
		w.WriteInteger(floatSpecial)
	case num.FloatNegInf:
		w.WriteInteger(-1)
		w.WriteInteger(floatSpecial)
	case num.FloatNaN:
		w.WriteInteger(0)
		w.WriteInteger(floatSpecial)
	default:
		w.WriteInteger(f.Mantissa)
		w.WriteInteger(f.Exponent)
	}
}

func readFloat(r *bitio.Reader) (string, error) {
	mantissa, err := readInt64(r)
	if err != nil {
		return "", err
	}
	exponent, err := readInt64(r)
	if err != nil {
		return "", err
	}
	f := num.Float{Mantissa: mantissa, Exponent: exponent}
	if exponent == floatSpecial {
		switch mantissa {
		case 1:
			f = num.Float{Class: num.FloatPosInf}
		case -1:
			f = num.Float{Class: num.FloatNegInf}
		default:
			f = num.Float{Class: num.FloatNaN}
		}
	}
	return f.String(), nil
}

func readInt64(r *bitio.Reader) (int64, error) {
	v, err := r.ReadInteger()
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, bitio.ErrOverflow
	}
	return v.Int64(), nil
}

func writeDateTime(w *bitio.Writer, kind lexical.DateTimeKind, dt lexical.DateTime) {
	if kind.HasYear() {
		w.WriteInteger(dt.Year - yearOffset)
	}
	if kind.HasMonthDay() {
		w.WriteBits(uint64(dt.Month*32+dt.Day), 9)
	}
	if kind.HasTime() {
		w.WriteBits(uint64((dt.Hour*64+dt.Minute)*64+dt.Second), 17)
		w.WriteBool(dt.Fraction != "")
		if dt.Fraction != "" {
			w.WriteUnsignedBig(digits(reversed([]byte(dt.Fraction))))
		}
	}
	w.WriteBool(dt.HasTZ)
	if dt.HasTZ {
		h, m := dt.TZ/60, dt.TZ%60
		w.WriteBits(uint64(h*64+m+timezoneOffset), 11)
	}
}

func readDateTime(r *bitio.Reader, kind lexical.DateTimeKind) (string, error) {
	var dt lexical.DateTime
	if kind.HasYear() {
		year, err := readInt64(r)
		if err != nil {
			return "", err
		}
		dt.Year = year + yearOffset
	}
	if kind.HasMonthDay() {
		md, err := r.ReadBits(9)
		if err != nil {
			return "", err
		}
		dt.Month, dt.Day = int(md/32), int(md%32)
	}
	if kind.HasTime() {
		t, err := r.ReadBits(17)
		if err != nil {
			return "", err
		}
		dt.Second = int(t % 64)
		dt.Minute = int(t / 64 % 64)
		dt.Hour = int(t / 4096)
		present, err := r.ReadBool()
		if err != nil {
			return "", err
		}
		if present {
			frac, err := r.ReadUnsignedBig()
			if err != nil {
				return "", err
			}
			dt.Fraction = string(reversed([]byte(frac.String())))
		}
	}
	hasTZ, err := r.ReadBool()
	if err != nil {
		return "", err
	}
	if hasTZ {
		tz, err := r.ReadBits(11)
		if err != nil {
			return "", err
		}
		x := int(tz) - timezoneOffset
		h := x / 64
		m := x - h*64
		if m < -59 || m > 59 {
			return "", errors.Errorf("timezone minutes %d out of range", m)
		}
		dt.TZ = h*60 + m
		dt.HasTZ = true
	}
	s := dt.Render(kind)
	if _, err := lexical.ParseDateTime(kind, s); err != nil {
		return "", errors.Wrapf(err, "decoded %s %q", kind, s)
	}
	return s, nil
}

func readBinary(r *bitio.Reader, hex bool) (string, error) {
	n, err := r.ReadUnsigned()
	if err != nil {
		return "", err
	}
	if n > uint64(r.Remaining()/8) {
		return "", bitio.ErrPrematureEnd
	}
	b := make([]byte, n)
	for i := range b {
		v, err := r.ReadBits(8)
		if err != nil {
			return "", err
		}
		b[i] = byte(v)
	}
	if hex {
		return lexical.CanonicalHex(b), nil
	}
	return lexical.CanonicalBase64(b), nil
}

// rcsChars codes each character as its index in a restricted character
// set; index len(set) escapes to a full code point.
type rcsChars []rune

func (c rcsChars) WriteChars(w *bitio.Writer, s string) {
	width := bitio.Width(len(c) + 1)
	for _, ch := range s {
		i := slices.Index(c, ch)
		if i < 0 {
			w.WriteBits(uint64(len(c)), width)
			w.WriteUnsigned(uint64(ch))
			continue
		}
		w.WriteBits(uint64(i), width)
	}
}

func (c rcsChars) ReadChars(r *bitio.Reader, n uint64) (string, error) {
	if n > uint64(r.Remaining()) {
		return "", bitio.ErrPrematureEnd
	}
	width := bitio.Width(len(c) + 1)
	var b strings.Builder
	for range n {
		i, err := r.ReadBits(width)
		if err != nil {
			return "", err
		}
		if int(i) < len(c) {
			b.WriteRune(c[i])
			continue
		}
		cp, err := r.ReadUnsigned()
		if err != nil {
			return "", err
		}
		if cp > 0x10FFFF {
			return "", bitio.ErrOverflow
		}
		b.WriteRune(rune(cp))
	}
	return b.String(), nil
}
