package grammar

import (
	"slices"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/schema"
	"github.com/jacoelho/exi/internal/wildcard"
)

// group collects the NFA edges of one state that share an event type.
type group struct {
	targets   nodeSet
	particles []schema.ParticleID
	ev        EventType
	rank      rank
	terminal  bool
}

type ranked struct {
	rank rank
	prod Production
}

// determinizer turns the NFA of one type into grammars by subset
// construction. Each reachable set of NFA nodes becomes one grammar.
type determinizer struct {
	b     *builder
	index map[string]Handle
	sets  []nodeSet
	base  Handle
	size  int
	mixed bool
}

func (b *builder) closure(set nodeSet) {
	var stack []int
	set.each(func(n int) { stack = append(stack, n) })
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, to := range b.nfa.nodes[n].eps {
			if set.add(to) {
				stack = append(stack, to)
			}
		}
	}
}

// determinize builds the grammars reachable from NFA node start and returns
// the handle of the first. On failure the arena is left as it was.
func (b *builder) determinize(start int, mixed bool) (Handle, *xerrors.Error) {
	d := &determinizer{
		b:     b,
		index: make(map[string]Handle),
		base:  Handle(len(b.grammars)),
		size:  len(b.nfa.nodes),
		mixed: mixed,
	}
	first := newNodeSet(d.size)
	first.add(start)
	b.closure(first)
	h, err := d.intern(first)
	if err != nil {
		return 0, err
	}
	for i := 0; i < len(d.sets); i++ {
		self := d.base + Handle(i)
		g, err := d.state(d.sets[i], self)
		if err != nil {
			b.grammars = b.grammars[:d.base]
			return 0, err
		}
		b.grammars[self] = g
	}
	return h, nil
}

func (d *determinizer) intern(set nodeSet) (Handle, *xerrors.Error) {
	key := set.key()
	if h, ok := d.index[key]; ok {
		return h, nil
	}
	if len(d.sets) >= d.b.opts.MaxGrammars {
		d.b.grammars = d.b.grammars[:d.base]
		return 0, xerrors.Newf(xerrors.ErrGrammarLimit, "more than %d grammars", d.b.opts.MaxGrammars).
			WithComponent(d.b.s.TypeLabel(d.b.typeID))
	}
	h := Handle(len(d.b.grammars))
	d.index[key] = h
	d.sets = append(d.sets, set)
	d.b.grammars = append(d.b.grammars, Grammar{})
	return h, nil
}

func (d *determinizer) state(set nodeSet, self Handle) (Grammar, *xerrors.Error) {
	b := d.b
	groups := make(map[EventType]*group)
	var order []*group
	hasAttr, hasContent, hasEE := false, false, false
	set.each(func(n int) {
		nd := &b.nfa.nodes[n]
		if nd.attr {
			hasAttr = true
		} else {
			hasContent = true
		}
		for _, e := range nd.edges {
			g, ok := groups[e.ev]
			if !ok {
				g = &group{ev: e.ev, rank: e.rank, targets: newNodeSet(d.size)}
				groups[e.ev] = g
				order = append(order, g)
			}
			if e.to == sink {
				g.terminal = true
			} else {
				g.targets.add(e.to)
			}
			if e.particle != 0 && !slices.Contains(g.particles, e.particle) {
				g.particles = append(g.particles, e.particle)
			}
			if e.rank.compare(g.rank) < 0 {
				g.rank = e.rank
			}
			if e.ev.Kind == EventEE {
				hasEE = true
			}
		}
	})
	if err := b.checkAmbiguity(order); err != nil {
		return Grammar{}, err
	}

	out := make([]ranked, 0, len(order)+4)
	for _, g := range order {
		var next Handle
		if !g.terminal {
			b.closure(g.targets)
			h, err := d.intern(g.targets)
			if err != nil {
				return Grammar{}, err
			}
			next = h
		}
		out = append(out, ranked{rank: g.rank, prod: Production{Event: g.ev, Next: next}})
	}

	needContent := hasContent && (d.mixed || !b.opts.Strict)
	contentNext := self
	if needContent && hasAttr {
		rest := newNodeSet(d.size)
		set.each(func(n int) {
			if !b.nfa.nodes[n].attr {
				rest.add(n)
			}
		})
		h, err := d.intern(rest)
		if err != nil {
			return Grammar{}, err
		}
		contentNext = h
	}
	if d.mixed && hasContent {
		out = append(out, ranked{rank: rank{class: classCH}, prod: Production{Event: EventType{Kind: EventCH}, Next: contentNext}})
	}
	if !b.opts.Strict {
		if hasAttr {
			out = append(out, ranked{rank: rank{class: classBuiltinAT}, prod: Production{Event: EventType{Kind: EventATAny, BuiltIn: true}, Next: self}})
		}
		if hasContent {
			if !hasEE {
				out = append(out, ranked{rank: rank{class: classBuiltinEE}, prod: Production{Event: EventType{Kind: EventEE, BuiltIn: true}}})
			}
			out = append(out, ranked{rank: rank{class: classBuiltinSE}, prod: Production{Event: EventType{Kind: EventSEAny, BuiltIn: true}, Next: contentNext}})
			if !d.mixed {
				out = append(out, ranked{rank: rank{class: classBuiltinCH}, prod: Production{Event: EventType{Kind: EventCH, BuiltIn: true}, Next: contentNext}})
			}
		}
	}
	slices.SortStableFunc(out, func(x, y ranked) int { return x.rank.compare(y.rank) })

	g := Grammar{Content: hasContent, Productions: make([]Production, len(out))}
	for i, r := range out {
		g.Productions[i] = r.prod
	}
	return g, nil
}

// checkAmbiguity reports two different particles whose start-element events
// can match the same element name.
func (b *builder) checkAmbiguity(groups []*group) *xerrors.Error {
	type term struct {
		ev       EventType
		particle schema.ParticleID
	}
	var terms []term
	for _, g := range groups {
		if !g.ev.Kind.IsStartElement() {
			continue
		}
		for _, p := range g.particles {
			terms = append(terms, term{ev: g.ev, particle: p})
		}
	}
	for i := range terms {
		for j := i + 1; j < len(terms); j++ {
			x, y := terms[i], terms[j]
			if x.particle == y.particle || !b.overlap(x.ev, y.ev) {
				continue
			}
			return b.particleError(xerrors.ErrAmbiguousContent, y.particle,
				"%s and %s compete for the same element", b.describe(x.ev), b.describe(y.ev))
		}
	}
	return nil
}

func (b *builder) overlap(x, y EventType) bool {
	switch {
	case x.Kind == EventSE && y.Kind == EventSE:
		return x.Name == y.Name
	case x.Kind == EventSE:
		return b.allows(y, x.Name.NS)
	case y.Kind == EventSE:
		return b.allows(x, y.Name.NS)
	default:
		return wildcard.Overlaps(b.s.Wildcard(x.Wildcard).Constraint, b.s.Wildcard(y.Wildcard).Constraint)
	}
}

func (b *builder) allows(w EventType, ns schema.NamespaceID) bool {
	if w.Kind == EventSEURI {
		return w.NS == ns
	}
	return b.s.Wildcard(w.Wildcard).Constraint.Allows(b.s.Corpus.URI(ns))
}

func (b *builder) describe(ev EventType) string {
	if ev.Kind == EventSE {
		return "element " + b.s.Corpus.Format(ev.Name)
	}
	return "wildcard " + b.s.Wildcard(ev.Wildcard).Constraint.String()
}
