package schema

import (
	"slices"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/variant"
	"github.com/jacoelho/exi/internal/wildcard"
)

type builder struct {
	errs        *xerrors.Collector
	names       *corpusBuilder
	typeIDs     map[model.Type]TypeID
	elemIDs     map[*model.Element]ElemID
	attrIDs     map[*model.Attribute]AttrID
	particleIDs map[*model.Particle]ParticleID
	wildcardIDs map[*wildcard.Wildcard]WildcardID
	out         *Schema
	types       []model.Type
	elems       []*model.Element
	attrs       []*model.Attribute
	particles   []*model.Particle
	wildcards   []*wildcard.Wildcard
}

// Build converts the validated content-model graph into a Schema Model.
// Built-in types and xs:anyType are always present. Problems are recorded in
// errs; the returned schema must not be used when errs is non-empty.
func Build(set *model.Set, errs *xerrors.Collector) *Schema {
	b := &builder{
		errs:        errs,
		names:       newCorpusBuilder(),
		typeIDs:     make(map[model.Type]TypeID),
		elemIDs:     make(map[*model.Element]ElemID),
		attrIDs:     make(map[*model.Attribute]AttrID),
		particleIDs: make(map[*model.Particle]ParticleID),
		wildcardIDs: make(map[*wildcard.Wildcard]WildcardID),
	}
	for _, name := range model.BuiltinNames() {
		b.discoverType(model.Builtin(name))
	}
	b.discoverType(model.AnyType())
	for _, t := range set.Types {
		b.discoverType(t)
	}
	for _, e := range set.Elements {
		b.discoverElement(e)
	}
	for _, a := range set.Attributes {
		b.discoverAttribute(a)
	}

	b.out = &Schema{
		Corpus:     b.names.build(),
		typeByName: make(map[QName]TypeID),
		elemByName: make(map[QName]ElemID),
		attrByName: make(map[QName]AttrID),
		Types:      make([]Type, len(b.types)+1),
		Elements:   make([]Element, len(b.elems)+1),
		Attributes: make([]Attribute, len(b.attrs)+1),
		Particles:  make([]Particle, len(b.particles)+1),
		Wildcards:  make([]wildcard.Wildcard, len(b.wildcards)+1),
		Variants:   make([]variant.Variant, 1),
	}
	for i, w := range b.wildcards {
		b.out.Wildcards[i+1] = *w
	}
	for i, t := range b.types {
		b.fillType(TypeID(i+1), t)
	}
	for i, a := range b.attrs {
		b.fillAttribute(AttrID(i+1), a)
	}
	for i, e := range b.elems {
		b.fillElement(ElemID(i+1), e)
	}
	for i, p := range b.particles {
		b.fillParticle(ParticleID(i+1), p)
	}
	b.out.AnyType = b.typeIDs[model.AnyType()]
	b.out.AnySimpleType = b.typeIDs[model.Builtin("anySimpleType")]
	b.fillSubstitutions()
	b.checkCycles()
	b.indexGlobals(set)
	return b.out
}

func isNilType(t model.Type) bool {
	switch t := t.(type) {
	case nil:
		return true
	case *model.SimpleType:
		return t == nil
	case *model.ComplexType:
		return t == nil
	default:
		return false
	}
}

func (b *builder) discoverType(t model.Type) {
	if isNilType(t) {
		return
	}
	if _, ok := b.typeIDs[t]; ok {
		return
	}
	b.types = append(b.types, t)
	b.typeIDs[t] = TypeID(len(b.types))
	if name := t.TypeName(); !name.IsZero() {
		b.names.add(name)
	}
	switch t := t.(type) {
	case *model.SimpleType:
		if t.Base != nil {
			b.discoverType(t.Base)
		}
		if t.Item != nil {
			b.discoverType(t.Item)
		}
		for _, m := range t.Members {
			b.discoverType(m)
		}
	case *model.ComplexType:
		b.discoverType(t.Base)
		if t.SimpleContent != nil {
			b.discoverType(t.SimpleContent)
		}
		b.discoverWildcard(t.AnyAttribute)
		for _, use := range t.Attributes {
			b.discoverAttribute(use.Attribute)
		}
		b.discoverParticle(t.Particle)
	}
}

func (b *builder) discoverElement(e *model.Element) {
	if e == nil {
		return
	}
	if _, ok := b.elemIDs[e]; ok {
		return
	}
	b.elems = append(b.elems, e)
	b.elemIDs[e] = ElemID(len(b.elems))
	b.names.add(e.Name)
	b.discoverType(e.Type)
	b.discoverElement(e.SubstitutionGroup)
}

func (b *builder) discoverAttribute(a *model.Attribute) {
	if a == nil {
		return
	}
	if _, ok := b.attrIDs[a]; ok {
		return
	}
	b.attrs = append(b.attrs, a)
	b.attrIDs[a] = AttrID(len(b.attrs))
	b.names.add(a.Name)
	if a.Type != nil {
		b.discoverType(a.Type)
	}
}

func (b *builder) discoverWildcard(w *wildcard.Wildcard) {
	if w == nil {
		return
	}
	if _, ok := b.wildcardIDs[w]; ok {
		return
	}
	b.wildcards = append(b.wildcards, w)
	b.wildcardIDs[w] = WildcardID(len(b.wildcards))
	for _, ns := range w.Constraint.Namespaces {
		b.names.namespace(ns)
	}
}

func (b *builder) discoverParticle(p *model.Particle) {
	if p == nil {
		return
	}
	if _, ok := b.particleIDs[p]; ok {
		return
	}
	b.particles = append(b.particles, p)
	b.particleIDs[p] = ParticleID(len(b.particles))
	switch {
	case p.Element != nil:
		b.discoverElement(p.Element)
	case p.Wildcard != nil:
		b.discoverWildcard(p.Wildcard)
	case p.Group != nil:
		if !p.Group.Name.IsZero() {
			b.names.add(p.Group.Name)
		}
		for _, child := range p.Group.Particles {
			b.discoverParticle(child)
		}
	}
}

func (b *builder) qname(name model.QName) QName {
	q, _ := b.out.Corpus.Lookup(name.Space, name.Local)
	return q
}

func (b *builder) typeID(t model.Type) TypeID {
	if isNilType(t) {
		return 0
	}
	return b.typeIDs[t]
}

func (b *builder) addVariant(v variant.Variant) VariantID {
	b.out.Variants = append(b.out.Variants, v)
	return VariantID(len(b.out.Variants) - 1)
}

func (b *builder) fillType(id TypeID, mt model.Type) {
	out := &b.out.Types[id]
	name := mt.TypeName()
	out.Named = !name.IsZero()
	if out.Named {
		out.Name = b.qname(name)
	}
	switch t := mt.(type) {
	case *model.SimpleType:
		out.Simple = true
		out.Builtin = t.Builtin
		out.Location = t.Location.String()
		out.Variety = t.Variety
		if t.Base != nil {
			out.Base = b.typeIDs[t.Base]
		}
		if t.Item != nil {
			out.Item = b.typeIDs[t.Item]
		}
		for _, m := range t.Members {
			out.Members = append(out.Members, b.typeIDs[m])
		}
		if prim := model.Primitive(t); prim != nil {
			out.Primitive = PrimitiveByName(prim.Name.Local)
		}
		out.Integer = model.DerivesFrom(t, "integer")
		out.Facets = b.facets(t, out)
	case *model.ComplexType:
		out.Location = t.Location.String()
		out.Base = b.typeID(t.Base)
		out.Content = t.Content
		out.Derivation = t.Derivation
		out.Abstract = t.Abstract
		if t.SimpleContent != nil {
			out.SimpleContent = b.typeIDs[t.SimpleContent]
		}
		if t.AnyAttribute != nil {
			out.AnyAttribute = b.wildcardIDs[t.AnyAttribute]
		}
		if t.Particle != nil {
			out.Particle = b.particleIDs[t.Particle]
		}
		for _, use := range t.Attributes {
			attr := b.attrIDs[use.Attribute]
			out.Attributes = append(out.Attributes, AttrUse{
				Attr:     attr,
				Required: use.Required,
				Default:  b.valueConstraint(use.Attribute.Type, use.Default, out.Location),
				Fixed:    b.valueConstraint(use.Attribute.Type, use.Fixed, out.Location),
			})
		}
		slices.SortStableFunc(out.Attributes, func(x, y AttrUse) int {
			return b.out.Corpus.Compare(b.attrName(x.Attr), b.attrName(y.Attr))
		})
	}
}

func (b *builder) attrName(id AttrID) QName {
	return b.qname(b.attrs[id-1].Name)
}

// EffectiveWhitespace returns the whiteSpace facet in force for st.
func EffectiveWhitespace(st *model.SimpleType) lexical.WhitespaceMode {
	for t := st; t != nil; t = t.Base {
		if t.Variety == model.VarietyList {
			return lexical.WhitespaceCollapse
		}
		if t.Facets.Whitespace != "" {
			mode, _ := lexical.ParseWhitespaceMode(t.Facets.Whitespace)
			return mode
		}
	}
	return lexical.WhitespacePreserve
}

func (b *builder) facets(st *model.SimpleType, out *Type) Facets {
	in := st.Facets
	f := Facets{
		Patterns:       slices.Clone(in.Patterns),
		Length:         in.Length,
		MinLength:      in.MinLength,
		MaxLength:      in.MaxLength,
		TotalDigits:    in.TotalDigits,
		FractionDigits: in.FractionDigits,
	}
	if in.Whitespace != "" {
		mode, ok := lexical.ParseWhitespaceMode(in.Whitespace)
		if !ok {
			b.errs.Add(xerrors.Newf(xerrors.ErrFacetInconsistent, "invalid whiteSpace %q", in.Whitespace).
				WithComponent(b.label(st)).WithValue(in.Whitespace))
		}
		f.Whitespace = mode
		f.HasWhitespace = true
	}
	mode := EffectiveWhitespace(st)
	parse := func(facet, lex string) VariantID {
		if lex == "" {
			return 0
		}
		var v variant.Variant
		var err error
		if out.Variety == model.VarietyAtomic {
			v, err = ParseValue(out.Primitive, out.Integer, mode, lex)
		} else {
			v = variant.String(lexical.Normalize(mode, lex))
		}
		if err != nil {
			b.errs.Add(xerrors.Newf(xerrors.ErrFacetInconsistent, "invalid %s facet value", facet).
				WithComponent(b.label(st)).WithValue(lex).Wrap(err))
			return 0
		}
		return b.addVariant(v)
	}
	f.MinInclusive = parse("minInclusive", in.MinInclusive)
	f.MaxInclusive = parse("maxInclusive", in.MaxInclusive)
	f.MinExclusive = parse("minExclusive", in.MinExclusive)
	f.MaxExclusive = parse("maxExclusive", in.MaxExclusive)
	for _, lex := range in.Enumeration {
		if lex == "" && out.Variety == model.VarietyAtomic && out.Primitive != PrimitiveString &&
			out.Primitive != PrimitiveAnyURI && out.Primitive != PrimitiveNone {
			b.errs.Add(xerrors.New(xerrors.ErrFacetInconsistent, "empty enumeration value").
				WithComponent(b.label(st)).WithValue(lex))
			continue
		}
		if lex == "" {
			f.Enumeration = append(f.Enumeration, b.addVariant(variant.String("")))
			continue
		}
		if id := parse("enumeration", lex); id != 0 {
			f.Enumeration = append(f.Enumeration, id)
		}
	}
	return f
}

func (b *builder) label(t model.Type) string {
	if name := t.TypeName(); !name.IsZero() {
		return name.String()
	}
	switch t := t.(type) {
	case *model.SimpleType:
		if loc := t.Location.String(); loc != "" {
			return "anonymous type at " + loc
		}
	case *model.ComplexType:
		if loc := t.Location.String(); loc != "" {
			return "anonymous type at " + loc
		}
	}
	return "anonymous type"
}

func (b *builder) valueConstraint(st *model.SimpleType, value *string, location string) VariantID {
	if value == nil {
		return 0
	}
	if st == nil || st.Variety != model.VarietyAtomic {
		return b.addVariant(variant.String(*value))
	}
	prim := model.Primitive(st)
	if prim == nil {
		return b.addVariant(variant.String(*value))
	}
	v, err := ParseValue(PrimitiveByName(prim.Name.Local), model.DerivesFrom(st, "integer"), EffectiveWhitespace(st), *value)
	if err != nil {
		b.errs.Add(xerrors.New(xerrors.ErrFacetInconsistent, "invalid value constraint").
			WithComponent(b.label(st)).WithValue(*value).WithLocation(location, 0).Wrap(err))
		return 0
	}
	return b.addVariant(v)
}

func (b *builder) fillAttribute(id AttrID, a *model.Attribute) {
	out := &b.out.Attributes[id]
	out.Name = b.qname(a.Name)
	out.Global = a.Global
	if a.Type != nil {
		out.Type = b.typeIDs[a.Type]
	} else {
		out.Type = b.typeIDs[model.Builtin("anySimpleType")]
	}
	out.Default = b.valueConstraint(a.Type, a.Default, a.Location.String())
	out.Fixed = b.valueConstraint(a.Type, a.Fixed, a.Location.String())
}

func (b *builder) fillElement(id ElemID, e *model.Element) {
	out := &b.out.Elements[id]
	out.Name = b.qname(e.Name)
	out.Location = e.Location.String()
	out.Global = e.Global
	out.Abstract = e.Abstract
	out.Nillable = e.Nillable
	out.Type = b.typeID(e.Type)
	if out.Type == 0 {
		out.Type = b.typeIDs[model.AnyType()]
	}
	if e.SubstitutionGroup != nil {
		out.Head = b.elemIDs[e.SubstitutionGroup]
	}
	var st *model.SimpleType
	switch t := e.Type.(type) {
	case *model.SimpleType:
		st = t
	case *model.ComplexType:
		if t != nil {
			st = t.SimpleContent
		}
	}
	out.Default = b.valueConstraint(st, e.Default, out.Location)
	out.Fixed = b.valueConstraint(st, e.Fixed, out.Location)
}

func (b *builder) fillParticle(id ParticleID, p *model.Particle) {
	out := &b.out.Particles[id]
	out.Min = p.Min
	out.Max = p.Max
	out.Location = p.Location.String()
	switch {
	case p.Element != nil:
		out.Term = TermElement
		out.Elem = b.elemIDs[p.Element]
	case p.Wildcard != nil:
		out.Term = TermWildcard
		out.Wildcard = b.wildcardIDs[p.Wildcard]
	default:
		out.Term = TermGroup
		if p.Group == nil {
			return
		}
		out.Compositor = p.Group.Compositor
		if !p.Group.Name.IsZero() {
			out.GroupName = p.Group.Name.String()
		}
		for _, child := range p.Group.Particles {
			out.Children = append(out.Children, b.particleIDs[child])
		}
	}
}

func (b *builder) fillSubstitutions() {
	elems := b.out.Elements
	for id := 1; id < len(elems); id++ {
		if elems[id].Abstract {
			continue
		}
		steps := 0
		for head := elems[id].Head; head != 0 && steps < len(elems); head = elems[head].Head {
			if head == ElemID(id) {
				b.errs.Add(xerrors.New(xerrors.ErrTypeCycle, "circular substitution group").
					WithComponent(b.out.Corpus.Format(elems[id].Name)))
				break
			}
			if !slices.Contains(elems[head].Substitutes, ElemID(id)) {
				elems[head].Substitutes = append(elems[head].Substitutes, ElemID(id))
			}
			steps++
		}
	}
	for id := 1; id < len(elems); id++ {
		slices.SortFunc(elems[id].Substitutes, func(x, y ElemID) int {
			return b.out.Corpus.Compare(elems[x].Name, elems[y].Name)
		})
	}
}

func (b *builder) checkCycles() {
	types := b.out.Types
	for id := 1; id < len(types); id++ {
		seen := map[TypeID]bool{}
		for cur := TypeID(id); cur != 0; cur = types[cur].Base {
			if seen[cur] {
				b.errs.Add(xerrors.New(xerrors.ErrTypeCycle, "type derives from itself").
					WithComponent(b.out.TypeLabel(TypeID(id))))
				break
			}
			seen[cur] = true
		}
	}
}

func (b *builder) indexGlobals(set *model.Set) {
	s := b.out
	for id := 1; id < len(s.Types); id++ {
		t := &s.Types[id]
		if !t.Named {
			continue
		}
		if prev, dup := s.typeByName[t.Name]; dup && prev != TypeID(id) {
			b.errs.Add(xerrors.New(xerrors.ErrDuplicateComponent, "duplicate type definition").
				WithComponent(s.Corpus.Format(t.Name)))
			continue
		}
		s.typeByName[t.Name] = TypeID(id)
	}
	for _, e := range set.Elements {
		id := b.elemIDs[e]
		name := s.Elements[id].Name
		if prev, dup := s.elemByName[name]; dup && prev != id {
			b.errs.Add(xerrors.New(xerrors.ErrDuplicateComponent, "duplicate element declaration").
				WithComponent(s.Corpus.Format(name)))
			continue
		}
		s.elemByName[name] = id
		s.GlobalElements = append(s.GlobalElements, id)
	}
	for _, a := range set.Attributes {
		id := b.attrIDs[a]
		name := s.Attributes[id].Name
		if prev, dup := s.attrByName[name]; dup && prev != id {
			b.errs.Add(xerrors.New(xerrors.ErrDuplicateComponent, "duplicate attribute declaration").
				WithComponent(s.Corpus.Format(name)))
			continue
		}
		s.attrByName[name] = id
	}
	slices.SortFunc(s.GlobalElements, func(x, y ElemID) int {
		return s.Corpus.Compare(s.Elements[x].Name, s.Elements[y].Name)
	})
}
