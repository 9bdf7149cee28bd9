// Package datatype selects the wire representation of each simple type.
package datatype

import (
	"fmt"
	"math/big"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/bitio"
	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/num"
	"github.com/jacoelho/exi/internal/pattern"
	"github.com/jacoelho/exi/internal/schema"
	"github.com/jacoelho/exi/internal/variant"
)

// NBitLimit is the largest number of distinct values an integer type may have
// and still use the fixed-width representation.
const NBitLimit = 4096

// Kind is a wire representation.
type Kind uint8

const (
	KindString Kind = iota
	KindBoolean
	KindDecimal
	KindFloat
	KindInteger
	KindUnsignedInteger
	KindNBitInteger
	KindDateTime
	KindBinary
	KindEnumeration
	KindList
)

var kindNames = [...]string{
	KindString:          "string",
	KindBoolean:         "boolean",
	KindDecimal:         "decimal",
	KindFloat:           "float",
	KindInteger:         "integer",
	KindUnsignedInteger: "unsigned-integer",
	KindNBitInteger:     "n-bit-integer",
	KindDateTime:        "datetime",
	KindBinary:          "binary",
	KindEnumeration:     "enumeration",
	KindList:            "list",
}

// String returns the representation name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Representation is the selected encoding of one simple type.
type Representation struct {
	Min        num.Int
	Max        num.Int
	Item       *Representation
	RCS        []rune
	Values     []variant.Variant
	Type       schema.TypeID
	Width      int
	Kind       Kind
	Whitespace lexical.WhitespaceMode
	Primitive  schema.Primitive
	DateTime   lexical.DateTimeKind
	Integer    bool
	Patterned  bool
	Hex        bool
}

// RCSWidth returns the bits per restricted character: ceil(log2(|RCS|+1)).
func (r *Representation) RCSWidth() int {
	return bitio.Width(len(r.RCS) + 1)
}

// EnumWidth returns the bits of an enumeration index.
func (r *Representation) EnumWidth() int {
	return bitio.Width(len(r.Values))
}

// String describes the representation for grammar dumps.
func (r *Representation) String() string {
	switch r.Kind {
	case KindNBitInteger:
		return fmt.Sprintf("%s(%d,min=%s)", r.Kind, r.Width, r.Min)
	case KindEnumeration:
		return fmt.Sprintf("%s(%d)", r.Kind, len(r.Values))
	case KindString:
		if r.RCS != nil {
			return fmt.Sprintf("%s(rcs=%d,%s)", r.Kind, len(r.RCS), r.Whitespace)
		}
		return fmt.Sprintf("%s(%s)", r.Kind, r.Whitespace)
	case KindList:
		return fmt.Sprintf("%s(%s)", r.Kind, r.Item)
	default:
		return r.Kind.String()
	}
}

// SelectAll computes the representation of every simple type in s, indexed
// by type ID. Complex types get nil entries.
func SelectAll(s *schema.Schema, errs *xerrors.Collector) []*Representation {
	out := make([]*Representation, len(s.Types))
	for id := 1; id < len(s.Types); id++ {
		if !s.Types[id].Simple {
			continue
		}
		rep, err := Select(s, schema.TypeID(id))
		if err != nil {
			errs.Add(err)
			continue
		}
		out[id] = rep
	}
	return out
}

// Select computes the representation of simple type id.
func Select(s *schema.Schema, id schema.TypeID) (*Representation, *xerrors.Error) {
	return selectDepth(s, id, 0)
}

func selectDepth(s *schema.Schema, id schema.TypeID, depth int) (*Representation, *xerrors.Error) {
	t := s.Type(id)
	eff := effectiveFacets(s, id)
	rep := &Representation{
		Type:       id,
		Whitespace: eff.whitespace,
		Primitive:  t.Primitive,
		Integer:    t.Integer,
	}
	switch t.Variety {
	case model.VarietyList:
		if depth > 0 || t.Item == 0 {
			rep.Kind = KindString
			return rep, nil
		}
		item, err := selectDepth(s, t.Item, depth+1)
		if err != nil {
			return nil, err
		}
		rep.Kind = KindList
		rep.Item = item
		return rep, nil
	case model.VarietyUnion:
		rep.Kind = KindString
		return rep, nil
	}
	if len(eff.enumeration) > 0 && t.Primitive != schema.PrimitiveBoolean &&
		t.Primitive != schema.PrimitiveQName && t.Primitive != schema.PrimitiveNOTATION {
		rep.Kind = KindEnumeration
		for _, v := range eff.enumeration {
			rep.Values = append(rep.Values, s.Variant(v))
		}
		return rep, nil
	}
	switch t.Primitive {
	case schema.PrimitiveBoolean:
		rep.Kind = KindBoolean
		rep.Patterned = len(eff.patterns) > 0
	case schema.PrimitiveDecimal:
		if t.Integer {
			return integerRepresentation(s, rep, eff)
		}
		rep.Kind = KindDecimal
	case schema.PrimitiveFloat, schema.PrimitiveDouble:
		rep.Kind = KindFloat
	case schema.PrimitiveHexBinary:
		rep.Kind = KindBinary
		rep.Hex = true
	case schema.PrimitiveBase64Binary:
		rep.Kind = KindBinary
	case schema.PrimitiveString, schema.PrimitiveAnyURI:
		rep.Kind = KindString
		if rcs, ok := pattern.Restricted(eff.patterns); ok {
			rep.RCS = rcs
		}
	default:
		if kind, ok := t.Primitive.DateTimeKind(); ok {
			rep.Kind = KindDateTime
			rep.DateTime = kind
			return rep, nil
		}
		rep.Kind = KindString
	}
	return rep, nil
}

func integerRepresentation(s *schema.Schema, rep *Representation, eff facets) (*Representation, *xerrors.Error) {
	lo, hasLo := eff.bound(s, true)
	hi, hasHi := eff.bound(s, false)
	if hasLo && hasHi {
		span := new(big.Int).Sub(hi.Big(), lo.Big())
		if span.Sign() < 0 {
			return nil, xerrors.Newf(xerrors.ErrFacetInconsistent, "lower bound %s above upper bound %s", lo, hi).
				WithComponent(s.TypeLabel(rep.Type))
		}
		if span.Cmp(big.NewInt(NBitLimit-1)) <= 0 {
			rep.Kind = KindNBitInteger
			rep.Min = lo
			rep.Max = hi
			rep.Width = bitio.Width(int(span.Int64()) + 1)
			return rep, nil
		}
	}
	if hasLo && lo.Sign >= 0 {
		rep.Kind = KindUnsignedInteger
		return rep, nil
	}
	rep.Kind = KindInteger
	return rep, nil
}

// facets holds the facets in force for a type after walking its derivation chain.
type facets struct {
	minInclusive schema.VariantID
	minExclusive schema.VariantID
	maxInclusive schema.VariantID
	maxExclusive schema.VariantID
	enumeration  []schema.VariantID
	patterns     [][]string
	whitespace   lexical.WhitespaceMode
}

func effectiveFacets(s *schema.Schema, id schema.TypeID) facets {
	var out facets
	hasWhitespace, hasMin, hasMax := false, false, false
	for _, cur := range s.Ancestors(id) {
		t := s.Type(cur)
		f := &t.Facets
		if t.Variety == model.VarietyList && !hasWhitespace {
			out.whitespace = lexical.WhitespaceCollapse
			hasWhitespace = true
		}
		if f.HasWhitespace && !hasWhitespace {
			out.whitespace = f.Whitespace
			hasWhitespace = true
		}
		if out.enumeration == nil && len(f.Enumeration) > 0 {
			out.enumeration = f.Enumeration
		}
		if len(f.Patterns) > 0 {
			out.patterns = append(out.patterns, f.Patterns)
		}
		if !hasMin && (f.MinInclusive != 0 || f.MinExclusive != 0) {
			out.minInclusive, out.minExclusive = f.MinInclusive, f.MinExclusive
			hasMin = true
		}
		if !hasMax && (f.MaxInclusive != 0 || f.MaxExclusive != 0) {
			out.maxInclusive, out.maxExclusive = f.MaxInclusive, f.MaxExclusive
			hasMax = true
		}
	}
	return out
}

// bound returns the inclusive integer lower (or upper) bound.
func (f facets) bound(s *schema.Schema, lower bool) (num.Int, bool) {
	inclusive, exclusive := f.maxInclusive, f.maxExclusive
	step := int64(-1)
	if lower {
		inclusive, exclusive = f.minInclusive, f.minExclusive
		step = 1
	}
	if inclusive != 0 {
		if v, ok := s.Variant(inclusive).Int(); ok {
			return v, true
		}
	}
	if exclusive != 0 {
		if v, ok := s.Variant(exclusive).Int(); ok {
			return num.FromBig(new(big.Int).Add(v.Big(), big.NewInt(step))), true
		}
	}
	return num.Int{}, false
}
