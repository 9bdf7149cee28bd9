package grammar

import (
	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/schema"
	"github.com/jacoelho/exi/internal/wildcard"
)

// checkRestriction verifies that the content model and attribute wildcard of
// a type derived by restriction fit inside its base.
func (b *builder) checkRestriction(t *schema.Type) *xerrors.Error {
	base := b.s.Type(t.Base)
	if base.Simple {
		return nil
	}
	if t.AnyAttribute != 0 {
		if base.AnyAttribute == 0 || !b.wildcardRestricts(t.AnyAttribute, base.AnyAttribute) {
			return xerrors.New(xerrors.ErrRestrictionWildcard, "attribute wildcard is not a subset of the base attribute wildcard").
				WithComponent(b.s.TypeLabel(b.typeID))
		}
	}
	if t.Particle == 0 || t.Particle == base.Particle {
		return nil
	}
	if base.Particle == 0 {
		if b.emptiable(t.Particle) {
			return nil
		}
		return b.particleError(xerrors.ErrRestrictionParticle, t.Particle, "base type %s has no content model", b.s.TypeLabel(t.Base))
	}
	return b.restricts(b.pointless(t.Particle), b.pointless(base.Particle))
}

// pointless skips groups that hold a single particle and occur exactly once.
func (b *builder) pointless(id schema.ParticleID) schema.ParticleID {
	for {
		p := b.s.Particle(id)
		if p.Term != schema.TermGroup || len(p.Children) != 1 || p.Min != 1 || p.Max != 1 {
			return id
		}
		id = p.Children[0]
	}
}

func (b *builder) restricts(derived, base schema.ParticleID) *xerrors.Error {
	dp, bp := b.s.Particle(derived), b.s.Particle(base)
	switch bp.Term {
	case schema.TermWildcard:
		return b.restrictsWildcard(derived, bp)
	case schema.TermElement:
		if dp.Term != schema.TermElement {
			return b.particleError(xerrors.ErrRestrictionParticle, derived, "only an element can restrict element %s", b.elementName(bp.Elem))
		}
		if !b.sameElement(dp.Elem, bp.Elem) {
			return b.particleError(xerrors.ErrRestrictionParticle, derived, "element %s does not restrict element %s", b.elementName(dp.Elem), b.elementName(bp.Elem))
		}
		if !rangeWithin(dp, bp) {
			return b.particleError(xerrors.ErrRestrictionParticle, derived, "occurrence range of %s is wider than the base", b.elementName(dp.Elem))
		}
		return nil
	}

	children := []schema.ParticleID{derived}
	compositor := bp.Compositor
	if dp.Term == schema.TermGroup {
		children = dp.Children
		compositor = dp.Compositor
		if !rangeWithin(dp, bp) {
			return b.particleError(xerrors.ErrRestrictionParticle, derived, "group occurrence range is wider than the base")
		}
	}
	switch {
	case bp.Compositor == model.Choice && compositor == model.Choice:
		return b.mapOrdered(derived, children, bp.Children, false)
	case bp.Compositor == model.Sequence && compositor == model.Sequence:
		return b.mapOrdered(derived, children, bp.Children, true)
	case bp.Compositor == model.All && compositor != model.Choice:
		return b.mapUnordered(derived, children, bp.Children)
	case bp.Compositor == model.Choice && dp.Term != schema.TermGroup:
		return b.mapOrdered(derived, children, bp.Children, false)
	case bp.Compositor == model.Sequence && dp.Term != schema.TermGroup:
		return b.mapOrdered(derived, children, bp.Children, true)
	default:
		return b.particleError(xerrors.ErrRestrictionParticle, derived, "%s group cannot restrict %s group", compositor, bp.Compositor)
	}
}

// mapOrdered maps every derived particle onto a distinct base particle in
// order. With strict set, skipped and trailing base particles must be
// emptiable.
func (b *builder) mapOrdered(derived schema.ParticleID, children, base []schema.ParticleID, strict bool) *xerrors.Error {
	i := 0
	for _, child := range children {
		matched := false
		for i < len(base) {
			cand := base[i]
			i++
			if b.restricts(b.pointless(child), b.pointless(cand)) == nil {
				matched = true
				break
			}
			if strict && !b.emptiable(cand) {
				return b.particleError(xerrors.ErrRestrictionParticle, child, "required base particle is not matched")
			}
		}
		if !matched {
			return b.particleError(xerrors.ErrRestrictionParticle, child, "particle does not map onto the base content model")
		}
	}
	if strict {
		for ; i < len(base); i++ {
			if !b.emptiable(base[i]) {
				return b.particleError(xerrors.ErrRestrictionParticle, derived, "required base particle is not matched")
			}
		}
	}
	return nil
}

func (b *builder) mapUnordered(derived schema.ParticleID, children, base []schema.ParticleID) *xerrors.Error {
	used := make([]bool, len(base))
	for _, child := range children {
		matched := false
		for i, cand := range base {
			if used[i] {
				continue
			}
			if b.restricts(b.pointless(child), b.pointless(cand)) == nil {
				used[i] = true
				matched = true
				break
			}
		}
		if !matched {
			return b.particleError(xerrors.ErrRestrictionParticle, child, "particle does not map onto the base content model")
		}
	}
	for i, cand := range base {
		if !used[i] && !b.emptiable(cand) {
			return b.particleError(xerrors.ErrRestrictionParticle, derived, "required base particle is not matched")
		}
	}
	return nil
}

func (b *builder) restrictsWildcard(derived schema.ParticleID, bp *schema.Particle) *xerrors.Error {
	dp := b.s.Particle(derived)
	if !rangeWithin(dp, bp) {
		return b.particleError(xerrors.ErrRestrictionParticle, derived, "occurrence range is wider than the base wildcard")
	}
	base := b.s.Wildcard(bp.Wildcard).Constraint
	var walk func(id schema.ParticleID) *xerrors.Error
	walk = func(id schema.ParticleID) *xerrors.Error {
		p := b.s.Particle(id)
		switch p.Term {
		case schema.TermElement:
			uri := b.s.Corpus.URI(b.s.Element(p.Elem).Name.NS)
			if !base.Allows(uri) {
				return b.particleError(xerrors.ErrRestrictionParticle, id, "element %s is not allowed by the base wildcard", b.elementName(p.Elem))
			}
		case schema.TermWildcard:
			if !b.wildcardRestricts(p.Wildcard, bp.Wildcard) {
				return b.particleError(xerrors.ErrRestrictionWildcard, id, "wildcard %s is not a subset of %s",
					b.s.Wildcard(p.Wildcard).Constraint, base)
			}
		default:
			for _, child := range p.Children {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(derived)
}

func (b *builder) wildcardRestricts(derived, base schema.WildcardID) bool {
	d, w := b.s.Wildcard(derived), b.s.Wildcard(base)
	return wildcard.Subset(d.Constraint, w.Constraint) && wildcard.StrongerOrEqual(d.Process, w.Process)
}

func (b *builder) sameElement(derived, base schema.ElemID) bool {
	return b.s.Element(derived).Name == b.s.Element(base).Name
}

func (b *builder) elementName(id schema.ElemID) string {
	return b.s.Corpus.Format(b.s.Element(id).Name)
}

// emptiable reports whether particle id can match no elements at all.
func (b *builder) emptiable(id schema.ParticleID) bool {
	p := b.s.Particle(id)
	if p.Min == 0 {
		return true
	}
	if p.Term != schema.TermGroup {
		return false
	}
	if p.Compositor == model.Choice {
		if len(p.Children) == 0 {
			return false
		}
		for _, child := range p.Children {
			if b.emptiable(child) {
				return true
			}
		}
		return false
	}
	for _, child := range p.Children {
		if !b.emptiable(child) {
			return false
		}
	}
	return true
}

func rangeWithin(derived, base *schema.Particle) bool {
	if derived.Min < base.Min {
		return false
	}
	if base.Max == model.Unbounded {
		return true
	}
	return derived.Max != model.Unbounded && derived.Max <= base.Max
}
