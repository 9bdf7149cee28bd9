package grammar

import (
	"cmp"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/schema"
	"github.com/jacoelho/exi/internal/wildcard"
)

// sink is the edge target of end-element; it has no node.
const sink = -1

// Event classes in code order.
const (
	classATName uint8 = iota
	classATURI
	classATAny
	classSEName
	classSEURI
	classSEAny
	classEE
	classCH
	classBuiltinEE
	classBuiltinAT
	classBuiltinSE
	classBuiltinCH
)

// rank orders the events of one grammar.
type rank struct {
	primary   uint32
	secondary uint32
	class     uint8
}

func (r rank) compare(o rank) int {
	if c := cmp.Compare(r.class, o.class); c != 0 {
		return c
	}
	if c := cmp.Compare(r.primary, o.primary); c != 0 {
		return c
	}
	return cmp.Compare(r.secondary, o.secondary)
}

type edge struct {
	ev       EventType
	to       int
	particle schema.ParticleID
	rank     rank
}

type node struct {
	eps   []int
	edges []edge
	attr  bool
}

// nfa is the raw automaton of one type. Occurrence copies of a particle keep
// the particle's ID so subset construction merges them.
type nfa struct {
	nodes []node
}

func (n *nfa) reset() {
	n.nodes = n.nodes[:0]
}

func (n *nfa) add() int {
	n.nodes = append(n.nodes, node{})
	return len(n.nodes) - 1
}

func (n *nfa) epsilon(from, to int) {
	n.nodes[from].eps = append(n.nodes[from].eps, to)
}

func (n *nfa) edge(from int, e edge) {
	n.nodes[from].edges = append(n.nodes[from].edges, e)
}

// particle builds the fragment for particle id and returns its entry node.
// Every path through the fragment ends at next. top is set for the particle
// that is the whole content model of its type.
func (b *builder) particle(id schema.ParticleID, next int, top bool) (int, *xerrors.Error) {
	p := b.s.Particle(id)
	if p.Max != model.Unbounded && p.Min > p.Max {
		return 0, b.particleError(xerrors.ErrOccursRange, id, "minOccurs %d is greater than maxOccurs %d", p.Min, p.Max)
	}
	if p.Min > b.opts.MaxOccursLimit || (p.Max != model.Unbounded && p.Max > b.opts.MaxOccursLimit) {
		return 0, b.particleError(xerrors.ErrOccursLimit, id, "occurrence bound exceeds limit %d", b.opts.MaxOccursLimit)
	}
	if p.Term == schema.TermGroup && p.Compositor == model.All {
		if !top {
			return 0, b.particleError(xerrors.ErrAllGroupNesting, id, "all group must be the whole content model")
		}
		if p.Max != 1 {
			return 0, b.particleError(xerrors.ErrAllGroupOccurs, id, "all group must have maxOccurs 1")
		}
	}
	if p.Max == 0 {
		return next, nil
	}

	tail := next
	if p.Max == model.Unbounded {
		loop := b.nfa.add()
		b.nfa.epsilon(loop, next)
		body, err := b.term(id, loop)
		if err != nil {
			return 0, err
		}
		b.nfa.epsilon(loop, body)
		tail = loop
	} else {
		for k := p.Max - p.Min; k > 0; k-- {
			body, err := b.term(id, tail)
			if err != nil {
				return 0, err
			}
			opt := b.nfa.add()
			b.nfa.epsilon(opt, body)
			b.nfa.epsilon(opt, tail)
			tail = opt
		}
	}
	for range p.Min {
		body, err := b.term(id, tail)
		if err != nil {
			return 0, err
		}
		tail = body
	}
	return tail, nil
}

// term builds one occurrence of the term of particle id.
func (b *builder) term(id schema.ParticleID, next int) (int, *xerrors.Error) {
	p := b.s.Particle(id)
	switch p.Term {
	case schema.TermElement:
		return b.elementTerm(id, p.Elem, next), nil
	case schema.TermWildcard:
		return b.wildcardTerm(id, p.Wildcard, next), nil
	}
	switch p.Compositor {
	case model.Sequence:
		cur := next
		for i := len(p.Children) - 1; i >= 0; i-- {
			entry, err := b.particle(p.Children[i], cur, false)
			if err != nil {
				return 0, err
			}
			cur = entry
		}
		return cur, nil
	case model.Choice:
		entry := b.nfa.add()
		for _, child := range p.Children {
			alt, err := b.particle(child, next, false)
			if err != nil {
				return 0, err
			}
			b.nfa.epsilon(entry, alt)
		}
		return entry, nil
	default:
		return b.allTerm(id, next)
	}
}

func (b *builder) elementTerm(id schema.ParticleID, elem schema.ElemID, next int) int {
	n := b.nfa.add()
	decl := b.s.Element(elem)
	if !decl.Abstract {
		b.nfa.edge(n, edge{
			ev:       EventType{Kind: EventSE, Name: decl.Name, Type: decl.Type},
			to:       next,
			particle: id,
			rank:     rank{class: classSEName, primary: uint32(id)},
		})
	}
	for i, sub := range decl.Substitutes {
		member := b.s.Element(sub)
		b.nfa.edge(n, edge{
			ev:       EventType{Kind: EventSE, Name: member.Name, Type: member.Type},
			to:       next,
			particle: id,
			rank:     rank{class: classSEName, primary: uint32(id), secondary: uint32(i + 1)},
		})
	}
	return n
}

func (b *builder) wildcardTerm(id schema.ParticleID, wc schema.WildcardID, next int) int {
	n := b.nfa.add()
	w := b.s.Wildcard(wc)
	if w.Constraint.Kind != wildcard.List {
		b.nfa.edge(n, edge{
			ev:       EventType{Kind: EventSEAny, Wildcard: wc},
			to:       next,
			particle: id,
			rank:     rank{class: classSEAny, primary: uint32(id)},
		})
		return n
	}
	for _, uri := range w.Constraint.Namespaces {
		ns, _ := b.s.Corpus.Namespace(uri)
		b.nfa.edge(n, edge{
			ev:       EventType{Kind: EventSEURI, NS: ns, Wildcard: wc},
			to:       next,
			particle: id,
			rank:     rank{class: classSEURI, primary: uint32(id), secondary: uint32(ns)},
		})
	}
	return n
}

// allTerm builds an all group as one node per subset of consumed members.
func (b *builder) allTerm(id schema.ParticleID, next int) (int, *xerrors.Error) {
	p := b.s.Particle(id)
	var members []schema.ParticleID
	var required uint64
	for _, child := range p.Children {
		cp := b.s.Particle(child)
		if cp.Term != schema.TermElement {
			return 0, b.particleError(xerrors.ErrAllGroupOccurs, child, "all group members must be elements")
		}
		if cp.Max != model.Unbounded && cp.Min > cp.Max {
			return 0, b.particleError(xerrors.ErrOccursRange, child, "minOccurs %d is greater than maxOccurs %d", cp.Min, cp.Max)
		}
		if cp.Max == model.Unbounded || cp.Max > 1 {
			return 0, b.particleError(xerrors.ErrAllGroupOccurs, child, "all group members must have maxOccurs 0 or 1")
		}
		if cp.Max == 0 {
			continue
		}
		if cp.Min == 1 {
			required |= 1 << len(members)
		}
		members = append(members, child)
	}
	if len(members) >= 63 || 1<<len(members) > b.opts.MaxGrammars {
		return 0, b.particleError(xerrors.ErrGrammarLimit, id, "all group with %d members exceeds grammar limit %d", len(members), b.opts.MaxGrammars)
	}

	memo := make(map[uint64]int)
	var visit func(mask uint64) int
	visit = func(mask uint64) int {
		if n, ok := memo[mask]; ok {
			return n
		}
		n := b.nfa.add()
		memo[mask] = n
		for i, member := range members {
			bit := uint64(1) << i
			if mask&bit != 0 {
				continue
			}
			entry := b.elementTerm(member, b.s.Particle(member).Elem, visit(mask|bit))
			b.nfa.epsilon(n, entry)
		}
		if mask&required == required {
			b.nfa.epsilon(n, next)
		}
		return n
	}
	return visit(0), nil
}

// attributes builds the attribute phase of t in front of content and returns
// the start node. Node i expects uses i..n-1 in order; a required use cannot
// be skipped.
func (b *builder) attributes(t *schema.Type, content int) int {
	uses := t.Attributes
	phase := make([]int, len(uses)+1)
	for i := range phase {
		phase[i] = b.nfa.add()
		b.nfa.nodes[phase[i]].attr = true
	}
	for i := range phase {
		optionalRest := true
		for j := i; j < len(uses); j++ {
			attr := b.s.Attribute(uses[j].Attr)
			b.nfa.edge(phase[i], edge{
				ev:   EventType{Kind: EventAT, Name: attr.Name, Type: attr.Type},
				to:   phase[j+1],
				rank: rank{class: classATName, primary: uint32(j)},
			})
			if uses[j].Required {
				optionalRest = false
				break
			}
		}
		if optionalRest {
			b.nfa.epsilon(phase[i], content)
		}
		if t.AnyAttribute != 0 {
			b.attributeWildcard(phase[i], t.AnyAttribute)
		}
	}
	return phase[0]
}

func (b *builder) attributeWildcard(n int, wc schema.WildcardID) {
	w := b.s.Wildcard(wc)
	if w.Constraint.Kind != wildcard.List {
		b.nfa.edge(n, edge{
			ev:   EventType{Kind: EventATAny, Wildcard: wc},
			to:   n,
			rank: rank{class: classATAny},
		})
		return
	}
	for _, uri := range w.Constraint.Namespaces {
		ns, _ := b.s.Corpus.Namespace(uri)
		b.nfa.edge(n, edge{
			ev:   EventType{Kind: EventATURI, NS: ns, Wildcard: wc},
			to:   n,
			rank: rank{class: classATURI, primary: uint32(ns)},
		})
	}
}
