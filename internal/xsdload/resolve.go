package xsdload

import (
	"github.com/antchfx/xmlquery"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/model"
)

// resolver turns indexed components into model declarations. Named
// declarations are registered before they are filled so recursive
// references resolve to the same pointer.
type resolver struct {
	l          *Loader
	set        *model.Set
	elements   map[model.QName]*model.Element
	attributes map[model.QName]*model.Attribute
	types      map[model.QName]model.Type
	deriving   map[model.QName]bool
	derived    map[*model.ComplexType]*derivation
	pending    []*derivation
	groups     []model.QName
	attrGroups []model.QName
	errs       xerrors.Collector
}

func newResolver(l *Loader) *resolver {
	return &resolver{
		l:          l,
		set:        &model.Set{},
		elements:   make(map[model.QName]*model.Element),
		attributes: make(map[model.QName]*model.Attribute),
		types:      make(map[model.QName]model.Type),
		deriving:   make(map[model.QName]bool),
		derived:    make(map[*model.ComplexType]*derivation),
	}
}

func (r *resolver) fail(c component, code xerrors.Code, format string, args ...any) {
	r.errs.Add(xerrors.Newf(code, format, args...).
		WithComponent(label(c.node)).
		WithLocation(c.doc.systemID, 0))
}

func (r *resolver) qname(c component, raw string) (model.QName, bool) {
	q, err := resolveQName(c.node, raw)
	if err != nil {
		r.errs.Add(xerrors.New(xerrors.ErrSchemaReference, "unresolved name").
			WithComponent(label(c.node)).
			WithLocation(c.doc.systemID, 0).
			Wrap(err))
		return model.QName{}, false
	}
	return q, true
}

func (r *resolver) flag(c component, local string) bool {
	v, ok := attr(c.node, local)
	if !ok {
		return false
	}
	b, _, err := lexical.ParseBoolean(v)
	if err != nil {
		r.fail(c, xerrors.ErrSchemaParse, "attribute %s: invalid boolean %q", local, v)
		return false
	}
	return b
}

func anySimpleType() *model.SimpleType {
	return model.Builtin("anySimpleType")
}

// element returns the global element declaration name, or nil.
func (r *resolver) element(name model.QName) *model.Element {
	if e, ok := r.elements[name]; ok {
		return e
	}
	c, ok := r.l.lookup("element", name)
	if !ok {
		return nil
	}
	e := &model.Element{Name: name, Location: c.doc.location(), Global: true}
	r.elements[name] = e
	r.set.Elements = append(r.set.Elements, e)

	e.Abstract = r.flag(c, "abstract")
	e.Nillable = r.flag(c, "nillable")
	e.Default = optional(c.node, "default")
	e.Fixed = optional(c.node, "fixed")
	if raw, ok := attr(c.node, "substitutionGroup"); ok {
		if q, ok := r.qname(c, raw); ok {
			if head := r.element(q); head != nil {
				e.SubstitutionGroup = head
			} else {
				r.fail(c, xerrors.ErrSchemaReference, "substitution group head %s is not declared", q)
			}
		}
	}
	e.Type = r.declaredType(c, e.SubstitutionGroup)
	return e
}

func (r *resolver) localElement(c component) *model.Element {
	n := c.node
	if raw, ok := attr(n, "ref"); ok {
		q, ok := r.qname(c, raw)
		if !ok {
			return nil
		}
		e := r.element(q)
		if e == nil {
			r.fail(c, xerrors.ErrSchemaReference, "element %s is not declared", q)
		}
		return e
	}
	local, ok := attr(n, "name")
	if !ok {
		r.fail(c, xerrors.ErrSchemaParse, "local element has neither name nor ref")
		return nil
	}
	qualified := c.doc.elementQualified
	if form, ok := attr(n, "form"); ok {
		qualified = form == "qualified"
	}
	name := model.QName{Local: local}
	if qualified {
		name.Space = c.doc.targetNS
	}
	return &model.Element{
		Name:     name,
		Location: c.doc.location(),
		Nillable: r.flag(c, "nillable"),
		Default:  optional(n, "default"),
		Fixed:    optional(n, "fixed"),
		Type:     r.declaredType(c, nil),
	}
}

// declaredType returns the type of an element declaration: the type
// attribute, an inline definition, the substitution group head's type or
// xs:anyType, in that order.
func (r *resolver) declaredType(c component, head *model.Element) model.Type {
	n := c.node
	if raw, ok := attr(n, "type"); ok {
		q, ok := r.qname(c, raw)
		if !ok {
			return model.AnyType()
		}
		return r.typeRef(c, q)
	}
	if ct := xmlquery.QuerySelector(n, selComplexType); ct != nil {
		return r.complexType(c.at(ct), model.QName{})
	}
	if st := xmlquery.QuerySelector(n, selSimpleType); st != nil {
		return r.simpleType(c.at(st), model.QName{})
	}
	if head != nil && head.Type != nil {
		return head.Type
	}
	return model.AnyType()
}

// attribute returns the global attribute declaration name, or nil.
func (r *resolver) attribute(name model.QName) *model.Attribute {
	if a, ok := r.attributes[name]; ok {
		return a
	}
	c, ok := r.l.lookup("attribute", name)
	if !ok {
		return nil
	}
	a := &model.Attribute{
		Name:     name,
		Location: c.doc.location(),
		Default:  optional(c.node, "default"),
		Fixed:    optional(c.node, "fixed"),
		Global:   true,
	}
	r.attributes[name] = a
	r.set.Attributes = append(r.set.Attributes, a)
	a.Type = r.attributeType(c)
	return a
}

func (r *resolver) attributeType(c component) *model.SimpleType {
	if raw, ok := attr(c.node, "type"); ok {
		q, ok := r.qname(c, raw)
		if !ok {
			return anySimpleType()
		}
		return r.simpleTypeRef(c, q)
	}
	if st := xmlquery.QuerySelector(c.node, selSimpleType); st != nil {
		return r.simpleType(c.at(st), model.QName{})
	}
	return anySimpleType()
}

// typeRef resolves a type name to a built-in or schema type.
func (r *resolver) typeRef(c component, q model.QName) model.Type {
	if q.Space == model.XSDNamespace {
		if q.Local == "anyType" {
			return model.AnyType()
		}
		if st := model.Builtin(q.Local); st != nil {
			return st
		}
	}
	if t := r.namedType(q); t != nil {
		return t
	}
	r.fail(c, xerrors.ErrSchemaReference, "type %s is not defined", q)
	return model.AnyType()
}

func (r *resolver) simpleTypeRef(c component, q model.QName) *model.SimpleType {
	switch t := r.typeRef(c, q).(type) {
	case *model.SimpleType:
		return t
	case *model.ComplexType:
		if q.Space == model.XSDNamespace && q.Local == "anyType" {
			r.fail(c, xerrors.ErrSchemaReference, "xs:anyType is not a simple type")
		} else if _, ok := r.types[q]; ok {
			r.fail(c, xerrors.ErrSchemaReference, "type %s is not a simple type", q)
		}
	}
	return anySimpleType()
}

// namedType returns the global type name, or nil.
func (r *resolver) namedType(name model.QName) model.Type {
	if t, ok := r.types[name]; ok {
		return t
	}
	if c, ok := r.l.lookup("complexType", name); ok {
		return r.complexType(c, name)
	}
	if c, ok := r.l.lookup("simpleType", name); ok {
		return r.simpleType(c, name)
	}
	return nil
}

// baseType resolves the base of a derivation of self. A base that is
// itself still resolving its own base closes a derivation cycle.
func (r *resolver) baseType(c component, self model.QName) model.Type {
	raw, ok := attr(c.node, "base")
	if !ok {
		r.fail(c, xerrors.ErrSchemaParse, "%s has no base", c.node.Data)
		return nil
	}
	q, ok := r.qname(c, raw)
	if !ok {
		return nil
	}
	if !self.IsZero() && !r.deriving[self] {
		r.deriving[self] = true
		defer delete(r.deriving, self)
	}
	if r.deriving[q] {
		r.fail(c, xerrors.ErrTypeCycle, "type %s derives from itself", q)
		return nil
	}
	return r.typeRef(c, q)
}
