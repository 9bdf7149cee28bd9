package model

import (
	"sync"

	"github.com/jacoelho/exi/internal/wildcard"
)

type builtinDef struct {
	name       string
	base       string
	item       string
	whitespace string
	minInc     string
	maxInc     string
	fraction   int
	minLength  int
}

// builtinDefs lists the XSD 1.0 built-in simple types, bases before derived types.
var builtinDefs = []builtinDef{
	{name: "anySimpleType"},
	{name: "string", base: "anySimpleType", whitespace: "preserve"},
	{name: "boolean", base: "anySimpleType", whitespace: "collapse"},
	{name: "decimal", base: "anySimpleType", whitespace: "collapse"},
	{name: "float", base: "anySimpleType", whitespace: "collapse"},
	{name: "double", base: "anySimpleType", whitespace: "collapse"},
	{name: "duration", base: "anySimpleType", whitespace: "collapse"},
	{name: "dateTime", base: "anySimpleType", whitespace: "collapse"},
	{name: "time", base: "anySimpleType", whitespace: "collapse"},
	{name: "date", base: "anySimpleType", whitespace: "collapse"},
	{name: "gYearMonth", base: "anySimpleType", whitespace: "collapse"},
	{name: "gYear", base: "anySimpleType", whitespace: "collapse"},
	{name: "gMonthDay", base: "anySimpleType", whitespace: "collapse"},
	{name: "gDay", base: "anySimpleType", whitespace: "collapse"},
	{name: "gMonth", base: "anySimpleType", whitespace: "collapse"},
	{name: "hexBinary", base: "anySimpleType", whitespace: "collapse"},
	{name: "base64Binary", base: "anySimpleType", whitespace: "collapse"},
	{name: "anyURI", base: "anySimpleType", whitespace: "collapse"},
	{name: "QName", base: "anySimpleType", whitespace: "collapse"},
	{name: "NOTATION", base: "anySimpleType", whitespace: "collapse"},

	{name: "normalizedString", base: "string", whitespace: "replace"},
	{name: "token", base: "normalizedString", whitespace: "collapse"},
	{name: "language", base: "token"},
	{name: "NMTOKEN", base: "token"},
	{name: "NMTOKENS", item: "NMTOKEN", minLength: 1},
	{name: "Name", base: "token"},
	{name: "NCName", base: "Name"},
	{name: "ID", base: "NCName"},
	{name: "IDREF", base: "NCName"},
	{name: "IDREFS", item: "IDREF", minLength: 1},
	{name: "ENTITY", base: "NCName"},
	{name: "ENTITIES", item: "ENTITY", minLength: 1},

	{name: "integer", base: "decimal", fraction: 1},
	{name: "nonPositiveInteger", base: "integer", maxInc: "0"},
	{name: "negativeInteger", base: "nonPositiveInteger", maxInc: "-1"},
	{name: "long", base: "integer", minInc: "-9223372036854775808", maxInc: "9223372036854775807"},
	{name: "int", base: "long", minInc: "-2147483648", maxInc: "2147483647"},
	{name: "short", base: "int", minInc: "-32768", maxInc: "32767"},
	{name: "byte", base: "short", minInc: "-128", maxInc: "127"},
	{name: "nonNegativeInteger", base: "integer", minInc: "0"},
	{name: "unsignedLong", base: "nonNegativeInteger", maxInc: "18446744073709551615"},
	{name: "unsignedInt", base: "unsignedLong", maxInc: "4294967295"},
	{name: "unsignedShort", base: "unsignedInt", maxInc: "65535"},
	{name: "unsignedByte", base: "unsignedShort", maxInc: "255"},
	{name: "positiveInteger", base: "nonNegativeInteger", minInc: "1"},
}

var builtins = sync.OnceValue(func() map[string]*SimpleType {
	out := make(map[string]*SimpleType, len(builtinDefs))
	for _, def := range builtinDefs {
		st := &SimpleType{
			Name:    QName{Space: XSDNamespace, Local: def.name},
			Facets:  NoFacets(),
			Builtin: true,
		}
		st.Facets.Whitespace = def.whitespace
		st.Facets.MinInclusive = def.minInc
		st.Facets.MaxInclusive = def.maxInc
		if def.fraction != 0 {
			st.Facets.FractionDigits = 0
		}
		if def.base != "" {
			st.Base = out[def.base]
		}
		if def.item != "" {
			st.Variety = VarietyList
			st.Base = out["anySimpleType"]
			st.Item = out[def.item]
			st.Facets.MinLength = def.minLength
			st.Facets.Whitespace = "collapse"
		}
		out[def.name] = st
	}
	return out
})

// Builtin returns the built-in simple type with the given local name in the
// XSD namespace, or nil.
func Builtin(local string) *SimpleType {
	return builtins()[local]
}

// BuiltinNames returns the local names of every built-in simple type in
// definition order.
func BuiltinNames() []string {
	names := make([]string, len(builtinDefs))
	for i, def := range builtinDefs {
		names[i] = def.name
	}
	return names
}

var anyType = sync.OnceValue(func() *ComplexType {
	wc := &wildcard.Wildcard{Constraint: wildcard.AnyNamespace(), Process: wildcard.ProcessLax}
	return &ComplexType{
		Name:    QName{Space: XSDNamespace, Local: "anyType"},
		Content: ContentMixed,
		Particle: &Particle{
			Min: 1,
			Max: 1,
			Group: &ModelGroup{
				Compositor: Sequence,
				Particles:  []*Particle{{Min: 0, Max: Unbounded, Wildcard: wc}},
			},
		},
		AnyAttribute: wc,
	}
})

// AnyType returns the ur-type xs:anyType.
func AnyType() *ComplexType {
	return anyType()
}

// Primitive walks the derivation chain of an atomic type up to its primitive
// built-in type. It returns nil for anySimpleType, lists and unions.
func Primitive(st *SimpleType) *SimpleType {
	for t := st; t != nil; t = t.Base {
		if t.Variety != VarietyAtomic {
			return nil
		}
		if t.Base != nil && t.Base.Builtin && t.Base.Name.Local == "anySimpleType" {
			return t
		}
	}
	return nil
}

// DerivesFrom reports whether st is, or is derived from, the named built-in type.
func DerivesFrom(st *SimpleType, builtin string) bool {
	for t := st; t != nil; t = t.Base {
		if t.Builtin && t.Name.Local == builtin {
			return true
		}
	}
	return false
}
