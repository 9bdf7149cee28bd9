package schema

import (
	"fmt"

	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/num"
	"github.com/jacoelho/exi/internal/variant"
)

// Primitive identifies the primitive built-in type an atomic type derives from.
type Primitive uint8

const (
	PrimitiveNone Primitive = iota
	PrimitiveString
	PrimitiveBoolean
	PrimitiveDecimal
	PrimitiveFloat
	PrimitiveDouble
	PrimitiveDuration
	PrimitiveDateTime
	PrimitiveTime
	PrimitiveDate
	PrimitiveGYearMonth
	PrimitiveGYear
	PrimitiveGMonthDay
	PrimitiveGDay
	PrimitiveGMonth
	PrimitiveHexBinary
	PrimitiveBase64Binary
	PrimitiveAnyURI
	PrimitiveQName
	PrimitiveNOTATION
)

var primitiveNames = map[string]Primitive{
	"string":       PrimitiveString,
	"boolean":      PrimitiveBoolean,
	"decimal":      PrimitiveDecimal,
	"float":        PrimitiveFloat,
	"double":       PrimitiveDouble,
	"duration":     PrimitiveDuration,
	"dateTime":     PrimitiveDateTime,
	"time":         PrimitiveTime,
	"date":         PrimitiveDate,
	"gYearMonth":   PrimitiveGYearMonth,
	"gYear":        PrimitiveGYear,
	"gMonthDay":    PrimitiveGMonthDay,
	"gDay":         PrimitiveGDay,
	"gMonth":       PrimitiveGMonth,
	"hexBinary":    PrimitiveHexBinary,
	"base64Binary": PrimitiveBase64Binary,
	"anyURI":       PrimitiveAnyURI,
	"QName":        PrimitiveQName,
	"NOTATION":     PrimitiveNOTATION,
}

// PrimitiveByName returns the primitive for a built-in local name.
func PrimitiveByName(local string) Primitive {
	return primitiveNames[local]
}

// String returns the XSD name of the primitive.
func (p Primitive) String() string {
	for name, prim := range primitiveNames {
		if prim == p {
			return name
		}
	}
	return "anySimpleType"
}

// DateTimeKind maps the date/time primitives to their lexical kind.
func (p Primitive) DateTimeKind() (lexical.DateTimeKind, bool) {
	switch p {
	case PrimitiveDateTime:
		return lexical.KindDateTime, true
	case PrimitiveTime:
		return lexical.KindTime, true
	case PrimitiveDate:
		return lexical.KindDate, true
	case PrimitiveGYearMonth:
		return lexical.KindGYearMonth, true
	case PrimitiveGYear:
		return lexical.KindGYear, true
	case PrimitiveGMonthDay:
		return lexical.KindGMonthDay, true
	case PrimitiveGDay:
		return lexical.KindGDay, true
	case PrimitiveGMonth:
		return lexical.KindGMonth, true
	default:
		return 0, false
	}
}

// ParseValue parses a lexical value of an atomic type into a Variant. The
// value is whitespace-normalized first; integer selects the xs:integer value
// space for decimal-derived types.
func ParseValue(p Primitive, integer bool, mode lexical.WhitespaceMode, value string) (variant.Variant, error) {
	s := lexical.Normalize(mode, value)
	switch p {
	case PrimitiveDecimal:
		if integer {
			n, perr := num.ParseInt([]byte(s))
			if perr != nil {
				return variant.Variant{}, fmt.Errorf("invalid integer %q: %v", value, perr)
			}
			return variant.Integer(n), nil
		}
		d, perr := num.ParseDec([]byte(s))
		if perr != nil {
			return variant.Variant{}, fmt.Errorf("invalid decimal %q: %v", value, perr)
		}
		return variant.Decimal(d), nil
	case PrimitiveFloat, PrimitiveDouble:
		f, perr := num.ParseFloat([]byte(s))
		if perr != nil {
			return variant.Variant{}, fmt.Errorf("invalid %s %q: %v", p, value, perr)
		}
		return variant.Float(f), nil
	case PrimitiveDuration:
		d, err := lexical.ParseDuration(s)
		if err != nil {
			return variant.Variant{}, err
		}
		return variant.Duration(d), nil
	case PrimitiveHexBinary:
		b, err := lexical.ParseHex(s)
		if err != nil {
			return variant.Variant{}, err
		}
		return variant.Bytes(b), nil
	case PrimitiveBase64Binary:
		b, err := lexical.ParseBase64(s)
		if err != nil {
			return variant.Variant{}, err
		}
		return variant.Bytes(b), nil
	case PrimitiveBoolean:
		v, _, err := lexical.ParseBoolean(s)
		if err != nil {
			return variant.Variant{}, err
		}
		return variant.String(lexical.CanonicalBoolean(v)), nil
	}
	if kind, ok := p.DateTimeKind(); ok {
		dt, err := lexical.ParseDateTime(kind, s)
		if err != nil {
			return variant.Variant{}, err
		}
		return variant.DateTime(kind, dt), nil
	}
	return variant.String(s), nil
}
