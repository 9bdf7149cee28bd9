package model

import "github.com/jacoelho/exi/internal/wildcard"

// ElementParticle wraps an element declaration in a particle.
func ElementParticle(e *Element, minOccurs, maxOccurs int) *Particle {
	return &Particle{Element: e, Min: minOccurs, Max: maxOccurs}
}

// WildcardParticle wraps an element wildcard in a particle.
func WildcardParticle(w *wildcard.Wildcard, minOccurs, maxOccurs int) *Particle {
	return &Particle{Wildcard: w, Min: minOccurs, Max: maxOccurs}
}

// GroupParticle wraps a model group in a particle.
func GroupParticle(c Compositor, minOccurs, maxOccurs int, particles ...*Particle) *Particle {
	return &Particle{
		Group: &ModelGroup{Compositor: c, Particles: particles},
		Min:   minOccurs,
		Max:   maxOccurs,
	}
}

// LocalElement returns a local element declaration.
func LocalElement(name QName, t Type) *Element {
	return &Element{Name: name, Type: t}
}

// GlobalElement returns a global element declaration.
func GlobalElement(name QName, t Type) *Element {
	return &Element{Name: name, Type: t, Global: true}
}

// ElementOnly returns an element-only complex type over particle.
func ElementOnly(name QName, particle *Particle) *ComplexType {
	return &ComplexType{Name: name, Base: AnyType(), Content: ContentElementOnly, Particle: particle}
}

// EmptyType returns a complex type with empty content.
func EmptyType(name QName) *ComplexType {
	return &ComplexType{Name: name, Base: AnyType(), Content: ContentEmpty}
}

// Restrict returns an anonymous atomic type restricting base with facets.
func Restrict(base *SimpleType, facets Facets) *SimpleType {
	return &SimpleType{Base: base, Facets: facets}
}
