package xsdload

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/wildcard"
)

func (r *resolver) simpleType(c component, name model.QName) *model.SimpleType {
	st := &model.SimpleType{Name: name, Location: c.doc.location(), Facets: model.NoFacets()}
	if !name.IsZero() {
		r.types[name] = st
		r.set.Types = append(r.set.Types, st)
		r.deriving[name] = true
		defer delete(r.deriving, name)
	}
	n := c.node
	if step := xmlquery.QuerySelector(n, selRestriction); step != nil {
		base := r.simpleBase(c.at(step), name)
		st.Base = base
		st.Variety = base.Variety
		st.Item = base.Item
		st.Members = base.Members
		r.facets(c.at(step), &st.Facets)
		return st
	}
	st.Base = anySimpleType()
	if list := xmlquery.QuerySelector(n, selList); list != nil {
		st.Variety = model.VarietyList
		st.Facets.Whitespace = "collapse"
		if raw, ok := attr(list, "itemType"); ok {
			if q, ok := r.qname(c.at(list), raw); ok {
				st.Item = r.memberRef(c.at(list), q)
			}
		} else if inline := xmlquery.QuerySelector(list, selSimpleType); inline != nil {
			st.Item = r.simpleType(c.at(inline), model.QName{})
		}
		if st.Item == nil {
			r.fail(c.at(list), xerrors.ErrSchemaParse, "list has no item type")
			st.Item = anySimpleType()
		}
		return st
	}
	if union := xmlquery.QuerySelector(n, selUnion); union != nil {
		st.Variety = model.VarietyUnion
		if raw, ok := attr(union, "memberTypes"); ok {
			for _, field := range strings.Fields(raw) {
				if q, ok := r.qname(c.at(union), field); ok {
					st.Members = append(st.Members, r.memberRef(c.at(union), q))
				}
			}
		}
		for _, inline := range xmlquery.QuerySelectorAll(union, selSimpleType) {
			st.Members = append(st.Members, r.simpleType(c.at(inline), model.QName{}))
		}
		if len(st.Members) == 0 {
			r.fail(c.at(union), xerrors.ErrSchemaParse, "union has no member types")
		}
		return st
	}
	r.fail(c, xerrors.ErrSchemaParse, "simple type has no restriction, list or union")
	return st
}

// simpleBase resolves the base of a simple type restriction: the base
// attribute or an inline simple type.
func (r *resolver) simpleBase(c component, self model.QName) *model.SimpleType {
	if _, ok := attr(c.node, "base"); !ok {
		if inline := xmlquery.QuerySelector(c.node, selSimpleType); inline != nil {
			return r.simpleType(c.at(inline), model.QName{})
		}
	}
	switch t := r.baseType(c, self).(type) {
	case *model.SimpleType:
		return t
	case *model.ComplexType:
		r.fail(c, xerrors.ErrSchemaReference, "base %s of a simple type is not a simple type", t.Name)
	}
	return anySimpleType()
}

// memberRef resolves a list item or union member type, rejecting a
// reference back into a type still being defined.
func (r *resolver) memberRef(c component, q model.QName) *model.SimpleType {
	if r.deriving[q] {
		r.fail(c, xerrors.ErrTypeCycle, "type %s references itself", q)
		return anySimpleType()
	}
	return r.simpleTypeRef(c, q)
}

// facets reads the facets of one restriction step. Patterns of the same
// step are alternatives and are joined into one expression.
func (r *resolver) facets(c component, out *model.Facets) bool {
	var patterns []string
	found := false
	for _, f := range xmlquery.QuerySelectorAll(c.node, selFacets) {
		found = true
		value, ok := attr(f, "value")
		if !ok {
			r.fail(c.at(f), xerrors.ErrSchemaParse, "facet %s has no value", f.Data)
			continue
		}
		switch f.Data {
		case "enumeration":
			out.Enumeration = append(out.Enumeration, value)
		case "pattern":
			patterns = append(patterns, value)
		case "whiteSpace":
			out.Whitespace = value
		case "minInclusive":
			out.MinInclusive = value
		case "maxInclusive":
			out.MaxInclusive = value
		case "minExclusive":
			out.MinExclusive = value
		case "maxExclusive":
			out.MaxExclusive = value
		default:
			v, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || v < 0 {
				r.fail(c.at(f), xerrors.ErrSchemaParse, "facet %s: invalid value %q", f.Data, value)
				continue
			}
			switch f.Data {
			case "length":
				out.Length = v
			case "minLength":
				out.MinLength = v
			case "maxLength":
				out.MaxLength = v
			case "totalDigits":
				out.TotalDigits = v
			case "fractionDigits":
				out.FractionDigits = v
			}
		}
	}
	switch len(patterns) {
	case 0:
	case 1:
		out.Patterns = patterns
	default:
		out.Patterns = []string{"(" + strings.Join(patterns, ")|(") + ")"}
	}
	return found
}

// derivation holds the locally declared parts of a complex type until its
// base is complete.
type derivation struct {
	t          *model.ComplexType
	particle   *model.Particle
	anyAttr    *wildcard.Wildcard
	inline     *model.SimpleType
	c          component
	attrs      []*model.AttributeUse
	prohibited []model.QName
	facets     model.Facets
	hasFacets  bool
	simple     bool
	mixed      bool
	extension  bool
	state      uint8
}

const (
	derivationPending uint8 = iota
	derivationActive
	derivationDone
)

func (r *resolver) complexType(c component, name model.QName) *model.ComplexType {
	ct := &model.ComplexType{Name: name, Location: c.doc.location(), Base: model.AnyType()}
	if !name.IsZero() {
		r.types[name] = ct
		r.set.Types = append(r.set.Types, ct)
	}
	n := c.node
	ct.Abstract = r.flag(c, "abstract")
	d := &derivation{t: ct, c: c, mixed: r.flag(c, "mixed")}
	r.derived[ct] = d
	r.pending = append(r.pending, d)

	if sc := xmlquery.QuerySelector(n, selSimpleContent); sc != nil {
		d.simple = true
		r.derive(c.at(sc), d, name)
		return ct
	}
	if cc := xmlquery.QuerySelector(n, selComplexContent); cc != nil {
		if _, ok := attr(cc, "mixed"); ok {
			d.mixed = r.flag(c.at(cc), "mixed")
		}
		r.derive(c.at(cc), d, name)
		return ct
	}
	d.particle = r.contentParticle(c)
	d.anyAttr = r.attributeUses(c, &d.attrs, &d.prohibited)
	return ct
}

func (r *resolver) derive(c component, d *derivation, self model.QName) {
	step := xmlquery.QuerySelector(c.node, selDerivation)
	if step == nil {
		r.fail(c, xerrors.ErrSchemaParse, "%s has no restriction or extension", c.node.Data)
		return
	}
	sc := c.at(step)
	d.extension = step.Data == "extension"
	if d.extension {
		d.t.Derivation = model.DerivationExtension
	}
	if base := r.baseType(sc, self); base != nil {
		d.t.Base = base
	}
	if d.simple {
		if !d.extension {
			if inline := xmlquery.QuerySelector(step, selSimpleType); inline != nil {
				d.inline = r.simpleType(sc.at(inline), model.QName{})
			}
			d.facets = model.NoFacets()
			d.hasFacets = r.facets(sc, &d.facets)
		}
	} else {
		if _, ok := d.t.Base.(*model.SimpleType); ok {
			r.fail(sc, xerrors.ErrSchemaReference, "base %s of complex content is a simple type", d.t.Base.TypeName())
			d.t.Base = model.AnyType()
		}
		d.particle = r.contentParticle(sc)
	}
	d.anyAttr = r.attributeUses(sc, &d.attrs, &d.prohibited)
}

func (r *resolver) finalizeAll() {
	for _, d := range r.pending {
		r.finalize(d)
	}
}

// finalize computes the effective content and attribute uses of a complex
// type once its base is final.
func (r *resolver) finalize(d *derivation) {
	if d.state != derivationPending {
		return
	}
	d.state = derivationActive
	base, _ := d.t.Base.(*model.ComplexType)
	if base != nil {
		if bd := r.derived[base]; bd != nil {
			r.finalize(bd)
		}
	}
	t := d.t
	if base != nil {
		if d.extension {
			t.Attributes = mergeUses(base.Attributes, d.attrs, nil)
			t.AnyAttribute = unionWildcard(base.AnyAttribute, d.anyAttr)
		} else {
			t.Attributes = mergeUses(base.Attributes, d.attrs, d.prohibited)
			t.AnyAttribute = d.anyAttr
		}
	} else {
		t.Attributes = mergeUses(nil, d.attrs, d.prohibited)
		t.AnyAttribute = unionWildcard(nil, d.anyAttr)
	}
	if d.simple {
		r.finalizeSimple(d, base)
	} else {
		r.finalizeComplex(d, base)
	}
	d.state = derivationDone
}

func (r *resolver) finalizeComplex(d *derivation, base *model.ComplexType) {
	t := d.t
	particle := d.particle
	if isEmpty(particle) {
		particle = nil
	}
	mixed := d.mixed
	if d.extension && base != nil {
		switch {
		case particle == nil:
			particle = base.Particle
		case base.Particle != nil:
			particle = model.GroupParticle(model.Sequence, 1, 1, base.Particle, particle)
		}
		mixed = mixed || base.Content == model.ContentMixed
	}
	t.Particle = particle
	switch {
	case mixed:
		t.Content = model.ContentMixed
	case particle == nil:
		t.Content = model.ContentEmpty
	default:
		t.Content = model.ContentElementOnly
	}
}

func (r *resolver) finalizeSimple(d *derivation, base *model.ComplexType) {
	t := d.t
	t.Content = model.ContentSimple
	var content *model.SimpleType
	switch b := t.Base.(type) {
	case *model.SimpleType:
		if !d.extension {
			r.fail(d.c, xerrors.ErrSchemaReference, "simple content restriction of simple type %s", b.Name)
		}
		content = b
	case *model.ComplexType:
		content = base.SimpleContent
		if base.Content != model.ContentSimple || content == nil {
			if base != model.AnyType() || d.inline == nil {
				r.fail(d.c, xerrors.ErrSchemaReference, "base %s does not have simple content", base.Name)
			}
			content = anySimpleType()
		}
	}
	if !d.extension {
		if d.inline != nil {
			content = d.inline
		}
		if d.hasFacets {
			content = &model.SimpleType{
				Location: t.Location,
				Base:     content,
				Item:     content.Item,
				Members:  content.Members,
				Facets:   d.facets,
				Variety:  content.Variety,
			}
		}
	}
	t.SimpleContent = content
}

func isEmpty(p *model.Particle) bool {
	return p != nil && p.Group != nil && len(p.Group.Particles) == 0
}

// mergeUses overlays own attribute uses on the inherited ones, dropping
// prohibited names.
func mergeUses(inherited, own []*model.AttributeUse, prohibited []model.QName) []*model.AttributeUse {
	drop := make(map[model.QName]bool, len(own)+len(prohibited))
	for _, q := range prohibited {
		drop[q] = true
	}
	for _, u := range own {
		drop[u.Attribute.Name] = true
	}
	var out []*model.AttributeUse
	for _, u := range inherited {
		if !drop[u.Attribute.Name] {
			out = append(out, u)
		}
	}
	seen := make(map[model.QName]bool, len(own))
	for _, u := range own {
		if seen[u.Attribute.Name] {
			continue
		}
		seen[u.Attribute.Name] = true
		out = append(out, u)
	}
	return out
}

func unionWildcard(a, b *wildcard.Wildcard) *wildcard.Wildcard {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return &wildcard.Wildcard{Constraint: wildcard.Union(a.Constraint, b.Constraint), Process: b.Process}
}
