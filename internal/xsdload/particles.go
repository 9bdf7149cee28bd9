package xsdload

import (
	"slices"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/wildcard"
)

// contentParticle returns the model group particle declared directly under
// c, or nil when the content is empty.
func (r *resolver) contentParticle(c component) *model.Particle {
	n := xmlquery.QuerySelector(c.node, selContent)
	if n == nil {
		return nil
	}
	return r.particle(c.at(n))
}

func (r *resolver) particle(c component) *model.Particle {
	minOccurs, maxOccurs, ok := r.occurs(c)
	if !ok {
		return nil
	}
	var p *model.Particle
	switch c.node.Data {
	case "element":
		e := r.localElement(c)
		if e == nil {
			return nil
		}
		p = model.ElementParticle(e, minOccurs, maxOccurs)
	case "any":
		p = model.WildcardParticle(r.wildcard(c), minOccurs, maxOccurs)
	case "group":
		p = r.groupRef(c, minOccurs, maxOccurs)
		if p == nil {
			return nil
		}
	default:
		compositor := model.Sequence
		switch c.node.Data {
		case "choice":
			compositor = model.Choice
		case "all":
			compositor = model.All
		}
		var children []*model.Particle
		for _, n := range xmlquery.QuerySelectorAll(c.node, selParticles) {
			if child := r.particle(c.at(n)); child != nil {
				children = append(children, child)
			}
		}
		p = model.GroupParticle(compositor, minOccurs, maxOccurs, children...)
	}
	p.Location = c.doc.location()
	return p
}

// groupRef builds a fresh particle for a model group reference so each use
// carries its own occurrence range.
func (r *resolver) groupRef(c component, minOccurs, maxOccurs int) *model.Particle {
	raw, ok := attr(c.node, "ref")
	if !ok {
		r.fail(c, xerrors.ErrSchemaParse, "local group has no ref")
		return nil
	}
	q, ok := r.qname(c, raw)
	if !ok {
		return nil
	}
	def, ok := r.l.lookup("group", q)
	if !ok {
		r.fail(c, xerrors.ErrSchemaReference, "group %s is not defined", q)
		return nil
	}
	if slices.Contains(r.groups, q) {
		r.fail(c, xerrors.ErrSchemaReference, "group %s references itself", q)
		return nil
	}
	r.groups = append(r.groups, q)
	defer func() { r.groups = r.groups[:len(r.groups)-1] }()

	body := xmlquery.QuerySelector(def.node, selCompositor)
	if body == nil {
		r.fail(def, xerrors.ErrSchemaParse, "group %s has no model group", q)
		return nil
	}
	p := r.particle(def.at(body))
	if p == nil {
		return nil
	}
	p.Min, p.Max = minOccurs, maxOccurs
	p.Group.Name = q
	return p
}

func (r *resolver) occurs(c component) (int, int, bool) {
	minOccurs, maxOccurs := 1, 1
	if v, ok := attr(c.node, "minOccurs"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			r.fail(c, xerrors.ErrSchemaParse, "invalid minOccurs %q", v)
			return 0, 0, false
		}
		minOccurs = n
	}
	if v, ok := attr(c.node, "maxOccurs"); ok {
		v = strings.TrimSpace(v)
		if v == "unbounded" {
			maxOccurs = model.Unbounded
		} else {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				r.fail(c, xerrors.ErrSchemaParse, "invalid maxOccurs %q", v)
				return 0, 0, false
			}
			maxOccurs = n
		}
	}
	return minOccurs, maxOccurs, true
}

func (r *resolver) wildcard(c component) *wildcard.Wildcard {
	ns, _ := attr(c.node, "namespace")
	constraint, err := wildcard.Parse(ns, c.doc.targetNS)
	if err != nil {
		r.fail(c, xerrors.ErrSchemaParse, "namespace: %v", err)
		constraint = wildcard.AnyNamespace()
	}
	pc, _ := attr(c.node, "processContents")
	process, err := wildcard.ParseProcessContents(pc)
	if err != nil {
		r.fail(c, xerrors.ErrSchemaParse, "processContents: %v", err)
	}
	return &wildcard.Wildcard{Constraint: constraint, Process: process}
}

// attributeUses collects the attribute uses declared under c, expanding
// attribute group references, and returns the attribute wildcard in force.
func (r *resolver) attributeUses(c component, uses *[]*model.AttributeUse, prohibited *[]model.QName) *wildcard.Wildcard {
	var wc *wildcard.Wildcard
	for _, n := range xmlquery.QuerySelectorAll(c.node, selAttributeUses) {
		if n.Data == "attributeGroup" {
			wc = unionWildcard(wc, r.attributeGroupRef(c.at(n), uses, prohibited))
			continue
		}
		r.attributeUse(c.at(n), uses, prohibited)
	}
	if n := xmlquery.QuerySelector(c.node, selAnyAttribute); n != nil {
		wc = r.wildcard(c.at(n))
	}
	return wc
}

func (r *resolver) attributeUse(c component, uses *[]*model.AttributeUse, prohibited *[]model.QName) {
	n := c.node
	use, _ := attr(n, "use")
	var decl *model.Attribute
	if raw, ok := attr(n, "ref"); ok {
		q, ok := r.qname(c, raw)
		if !ok {
			return
		}
		if use == "prohibited" {
			*prohibited = append(*prohibited, q)
			return
		}
		if decl = r.attribute(q); decl == nil {
			r.fail(c, xerrors.ErrSchemaReference, "attribute %s is not declared", q)
			return
		}
	} else {
		local, ok := attr(n, "name")
		if !ok {
			r.fail(c, xerrors.ErrSchemaParse, "local attribute has neither name nor ref")
			return
		}
		qualified := c.doc.attributeQualified
		if form, ok := attr(n, "form"); ok {
			qualified = form == "qualified"
		}
		name := model.QName{Local: local}
		if qualified {
			name.Space = c.doc.targetNS
		}
		if use == "prohibited" {
			*prohibited = append(*prohibited, name)
			return
		}
		decl = &model.Attribute{
			Name:     name,
			Location: c.doc.location(),
			Default:  optional(n, "default"),
			Fixed:    optional(n, "fixed"),
			Type:     r.attributeType(c),
		}
	}
	switch use {
	case "", "optional", "required":
	default:
		r.fail(c, xerrors.ErrSchemaParse, "invalid use %q", use)
	}
	*uses = append(*uses, &model.AttributeUse{
		Attribute: decl,
		Default:   optional(n, "default"),
		Fixed:     optional(n, "fixed"),
		Required:  use == "required",
	})
}

func (r *resolver) attributeGroupRef(c component, uses *[]*model.AttributeUse, prohibited *[]model.QName) *wildcard.Wildcard {
	raw, ok := attr(c.node, "ref")
	if !ok {
		r.fail(c, xerrors.ErrSchemaParse, "local attribute group has no ref")
		return nil
	}
	q, ok := r.qname(c, raw)
	if !ok {
		return nil
	}
	def, ok := r.l.lookup("attributeGroup", q)
	if !ok {
		r.fail(c, xerrors.ErrSchemaReference, "attribute group %s is not defined", q)
		return nil
	}
	if slices.Contains(r.attrGroups, q) {
		r.fail(c, xerrors.ErrSchemaReference, "attribute group %s references itself", q)
		return nil
	}
	r.attrGroups = append(r.attrGroups, q)
	defer func() { r.attrGroups = r.attrGroups[:len(r.attrGroups)-1] }()
	return r.attributeUses(def, uses, prohibited)
}
