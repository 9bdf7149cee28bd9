// Package schema is the compiled Schema Model: flat arrays of types,
// declarations, particles, wildcards and facet values addressed by integer
// handles, plus the interned name corpus.
package schema

import (
	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/variant"
	"github.com/jacoelho/exi/internal/wildcard"
)

// Facets holds the facets declared on one derivation step. Unset integer
// facets are model.Unset; unset value facets are zero handles.
type Facets struct {
	Patterns       []string
	Enumeration    []VariantID
	MinInclusive   VariantID
	MaxInclusive   VariantID
	MinExclusive   VariantID
	MaxExclusive   VariantID
	Length         int
	MinLength      int
	MaxLength      int
	TotalDigits    int
	FractionDigits int
	Whitespace     lexical.WhitespaceMode
	HasWhitespace  bool
}

// Type is a simple or complex type definition.
type Type struct {
	Location      string
	Members       []TypeID
	Attributes    []AttrUse
	Facets        Facets
	Name          QName
	Base          TypeID
	Item          TypeID
	SimpleContent TypeID
	Particle      ParticleID
	AnyAttribute  WildcardID
	Variety       model.Variety
	Primitive     Primitive
	Content       model.ContentKind
	Derivation    model.Derivation
	Named         bool
	Simple        bool
	Builtin       bool
	Integer       bool
	Abstract      bool
}

// Element is an element declaration. Substitutes lists the transitive,
// non-abstract members of its substitution group sorted by name.
type Element struct {
	Location    string
	Substitutes []ElemID
	Name        QName
	Type        TypeID
	Head        ElemID
	Default     VariantID
	Fixed       VariantID
	Global      bool
	Abstract    bool
	Nillable    bool
}

// Attribute is an attribute declaration.
type Attribute struct {
	Name    QName
	Type    TypeID
	Default VariantID
	Fixed   VariantID
	Global  bool
}

// AttrUse binds an attribute to a complex type.
type AttrUse struct {
	Attr     AttrID
	Default  VariantID
	Fixed    VariantID
	Required bool
}

// TermKind is the kind of a particle term.
type TermKind uint8

const (
	TermElement TermKind = iota
	TermWildcard
	TermGroup
)

// Particle is a term with occurrence bounds. Max is model.Unbounded for
// unbounded particles.
type Particle struct {
	Location   string
	GroupName  string
	Children   []ParticleID
	Min        int
	Max        int
	Elem       ElemID
	Wildcard   WildcardID
	Term       TermKind
	Compositor model.Compositor
}

// Schema is the immutable Schema Model. Index zero of every handle array is
// reserved.
type Schema struct {
	typeByName     map[QName]TypeID
	elemByName     map[QName]ElemID
	attrByName     map[QName]AttrID
	Corpus         Corpus
	Types          []Type
	Elements       []Element
	Attributes     []Attribute
	Particles      []Particle
	Wildcards      []wildcard.Wildcard
	Variants       []variant.Variant
	GlobalElements []ElemID
	AnyType        TypeID
	AnySimpleType  TypeID
}

// Type returns the type for id.
func (s *Schema) Type(id TypeID) *Type { return &s.Types[id] }

// Element returns the element declaration for id.
func (s *Schema) Element(id ElemID) *Element { return &s.Elements[id] }

// Attribute returns the attribute declaration for id.
func (s *Schema) Attribute(id AttrID) *Attribute { return &s.Attributes[id] }

// Particle returns the particle for id.
func (s *Schema) Particle(id ParticleID) *Particle { return &s.Particles[id] }

// Wildcard returns the wildcard for id.
func (s *Schema) Wildcard(id WildcardID) *wildcard.Wildcard { return &s.Wildcards[id] }

// Variant returns the value for id.
func (s *Schema) Variant(id VariantID) variant.Variant { return s.Variants[id] }

// TypeByName returns the global type with the given name.
func (s *Schema) TypeByName(space, local string) (TypeID, bool) {
	q, ok := s.Corpus.Lookup(space, local)
	if !ok {
		return 0, false
	}
	id, ok := s.typeByName[q]
	return id, ok
}

// GlobalElement returns the global element declaration with the given name.
func (s *Schema) GlobalElement(space, local string) (ElemID, bool) {
	q, ok := s.Corpus.Lookup(space, local)
	if !ok {
		return 0, false
	}
	id, ok := s.elemByName[q]
	return id, ok
}

// GlobalAttribute returns the global attribute declaration with the given name.
func (s *Schema) GlobalAttribute(space, local string) (AttrID, bool) {
	q, ok := s.Corpus.Lookup(space, local)
	if !ok {
		return 0, false
	}
	id, ok := s.attrByName[q]
	return id, ok
}

// TypeLabel names a type for diagnostics: its QName, or "anonymous" with the
// source location.
func (s *Schema) TypeLabel(id TypeID) string {
	t := s.Type(id)
	if t.Named {
		return s.Corpus.Format(t.Name)
	}
	if t.Location != "" {
		return "anonymous type at " + t.Location
	}
	return "anonymous type"
}

// Ancestors returns the derivation chain of id, starting with id itself.
func (s *Schema) Ancestors(id TypeID) []TypeID {
	var out []TypeID
	for cur := id; cur != 0; cur = s.Types[cur].Base {
		out = append(out, cur)
		if len(out) > len(s.Types) {
			break
		}
	}
	return out
}

// IsBuiltin reports whether id is the named built-in type.
func (s *Schema) IsBuiltin(id TypeID, local string) bool {
	t := s.Type(id)
	return t.Builtin && s.Corpus.LocalName(t.Name) == local
}
