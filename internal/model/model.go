// Package model is the validated content-model graph consumed by the compiler.
//
// Declarations reference each other by pointer and may form cycles (recursive
// element types). Facet values are kept in lexical form; the compiler parses
// them against the primitive type.
package model

import (
	"fmt"

	"github.com/jacoelho/exi/internal/wildcard"
)

// XSDNamespace is the XML Schema namespace of the built-in types.
const XSDNamespace = "http://www.w3.org/2001/XMLSchema"

// Unbounded is the maxOccurs value of an unbounded particle.
const Unbounded = -1

// Unset marks an absent integer facet.
const Unset = -1

// QName is an expanded name.
type QName struct {
	Space string
	Local string
}

// IsZero reports whether the name is empty.
func (q QName) IsZero() bool { return q.Space == "" && q.Local == "" }

// String renders the name in Clark notation.
func (q QName) String() string {
	if q.Space == "" {
		return q.Local
	}
	return "{" + q.Space + "}" + q.Local
}

// Location is the source position of a declaration.
type Location struct {
	SystemID string
	Line     int
}

// String renders the location as "system:line".
func (l Location) String() string {
	if l.SystemID == "" && l.Line == 0 {
		return ""
	}
	if l.Line == 0 {
		return l.SystemID
	}
	return fmt.Sprintf("%s:%d", l.SystemID, l.Line)
}

// Variety is the variety of a simple type.
type Variety uint8

const (
	VarietyAtomic Variety = iota
	VarietyList
	VarietyUnion
)

// ContentKind is the content type of a complex type.
type ContentKind uint8

const (
	ContentEmpty ContentKind = iota
	ContentSimple
	ContentElementOnly
	ContentMixed
)

// String returns the content kind name.
func (k ContentKind) String() string {
	switch k {
	case ContentSimple:
		return "simple"
	case ContentElementOnly:
		return "element-only"
	case ContentMixed:
		return "mixed"
	default:
		return "empty"
	}
}

// Derivation is the derivation method of a complex type.
type Derivation uint8

const (
	DerivationRestriction Derivation = iota
	DerivationExtension
)

// Compositor is the kind of a model group.
type Compositor uint8

const (
	Sequence Compositor = iota
	Choice
	All
)

// String returns the XSD element name of the compositor.
func (c Compositor) String() string {
	switch c {
	case Choice:
		return "choice"
	case All:
		return "all"
	default:
		return "sequence"
	}
}

// Type is either a *SimpleType or a *ComplexType.
type Type interface {
	TypeName() QName
	isType()
}

// Facets holds the facets declared on one derivation step.
type Facets struct {
	Whitespace     string
	MinInclusive   string
	MaxInclusive   string
	MinExclusive   string
	MaxExclusive   string
	Patterns       []string
	Enumeration    []string
	Length         int
	MinLength      int
	MaxLength      int
	TotalDigits    int
	FractionDigits int
}

// NoFacets returns a facet set with every integer facet unset.
func NoFacets() Facets {
	return Facets{
		Length:         Unset,
		MinLength:      Unset,
		MaxLength:      Unset,
		TotalDigits:    Unset,
		FractionDigits: Unset,
	}
}

// SimpleType is an atomic, list or union simple type.
type SimpleType struct {
	Name     QName
	Location Location
	Base     *SimpleType
	Item     *SimpleType
	Members  []*SimpleType
	Facets   Facets
	Variety  Variety
	Builtin  bool
}

// TypeName returns the type name; anonymous types have a zero name.
func (t *SimpleType) TypeName() QName { return t.Name }
func (*SimpleType) isType()           {}

// ComplexType is a complex type definition with its effective content model:
// for extensions Particle and Attributes already include the base contribution.
type ComplexType struct {
	Name          QName
	Location      Location
	Base          Type
	SimpleContent *SimpleType
	Particle      *Particle
	AnyAttribute  *wildcard.Wildcard
	Attributes    []*AttributeUse
	Derivation    Derivation
	Content       ContentKind
	Abstract      bool
}

// TypeName returns the type name; anonymous types have a zero name.
func (t *ComplexType) TypeName() QName { return t.Name }
func (*ComplexType) isType()           {}

// Element is an element declaration.
type Element struct {
	Name              QName
	Location          Location
	Type              Type
	SubstitutionGroup *Element
	Default           *string
	Fixed             *string
	Abstract          bool
	Nillable          bool
	Global            bool
}

// Attribute is an attribute declaration.
type Attribute struct {
	Name     QName
	Location Location
	Type     *SimpleType
	Default  *string
	Fixed    *string
	Global   bool
}

// AttributeUse binds an attribute declaration to a complex type.
type AttributeUse struct {
	Attribute *Attribute
	Default   *string
	Fixed     *string
	Required  bool
}

// Particle is a term with occurrence bounds. Exactly one of Element, Wildcard
// and Group is set.
type Particle struct {
	Location Location
	Element  *Element
	Wildcard *wildcard.Wildcard
	Group    *ModelGroup
	Min      int
	Max      int
}

// ModelGroup is a sequence, choice or all group. Name is set when the group
// comes from a named group definition.
type ModelGroup struct {
	Name       QName
	Particles  []*Particle
	Compositor Compositor
}

// Set is the whole input graph of one schema.
type Set struct {
	Elements   []*Element
	Attributes []*Attribute
	Types      []Type
}

// Element returns the global element declaration with the given name.
func (s *Set) Element(name QName) *Element {
	for _, e := range s.Elements {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Type returns the named global type, including built-in types.
func (s *Set) Type(name QName) Type {
	for _, t := range s.Types {
		if t.TypeName() == name {
			return t
		}
	}
	if name.Space == XSDNamespace {
		if name.Local == "anyType" {
			return AnyType()
		}
		if st := Builtin(name.Local); st != nil {
			return st
		}
	}
	return nil
}
