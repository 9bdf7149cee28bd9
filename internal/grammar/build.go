package grammar

import (
	"github.com/golang/glog"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/schema"
)

type builder struct {
	s        *schema.Schema
	allUses  map[string]allUse
	grammars []Grammar
	nfa      nfa
	opts     Options
	typeID   schema.TypeID
}

// Build compiles the grammars of every type in s followed by the document
// grammar, then merges equivalent grammars. Failures are recorded in errs;
// the returned arena is only meaningful when errs stays empty.
func Build(s *schema.Schema, opts Options, errs *xerrors.Collector) *Arena {
	b := &builder{
		s:        s,
		opts:     opts,
		allUses:  make(map[string]allUse),
		grammars: make([]Grammar, 1),
	}
	types := make([]Handle, len(s.Types))
	for id := 1; id < len(s.Types); id++ {
		h, err := b.buildType(schema.TypeID(id))
		if err != nil {
			errs.Add(err)
			if err.Code == xerrors.ErrGrammarLimit {
				break
			}
			continue
		}
		types[id] = h
		if glog.V(2) {
			glog.Infof("type %s: grammar %d", s.TypeLabel(schema.TypeID(id)), h)
		}
	}
	arena := &Arena{Types: types}
	arena.Document = b.document()
	arena.Grammars = b.grammars
	glog.V(1).Infof("built %d grammars for %d types", arena.Len(), len(s.Types)-1)
	arena.dedupe()
	glog.V(1).Infof("%d grammars after de-duplication", arena.Len())
	return arena
}

func (b *builder) buildType(id schema.TypeID) (Handle, *xerrors.Error) {
	b.typeID = id
	t := b.s.Type(id)
	if !t.Simple && t.Derivation == model.DerivationRestriction && t.Base != 0 && t.Base != b.s.AnyType {
		if err := b.checkRestriction(t); err != nil {
			return 0, err
		}
	}

	b.nfa.reset()
	end := b.nfa.add()
	b.nfa.edge(end, edge{ev: EventType{Kind: EventEE}, to: sink, rank: rank{class: classEE}})
	content, err := b.content(id, t, end)
	if err != nil {
		return 0, err
	}
	start := b.attributes(t, content)
	return b.determinize(start, !t.Simple && t.Content == model.ContentMixed)
}

func (b *builder) content(id schema.TypeID, t *schema.Type, end int) (int, *xerrors.Error) {
	if t.Simple {
		return b.characters(id, end), nil
	}
	switch t.Content {
	case model.ContentEmpty:
		return end, nil
	case model.ContentSimple:
		typ := t.SimpleContent
		if typ == 0 {
			typ = b.s.AnySimpleType
		}
		return b.characters(typ, end), nil
	}
	if t.Particle == 0 {
		return end, nil
	}
	if err := b.trackAllGroup(t.Particle); err != nil {
		return 0, err
	}
	return b.particle(t.Particle, end, true)
}

func (b *builder) characters(typ schema.TypeID, next int) int {
	n := b.nfa.add()
	b.nfa.edge(n, edge{ev: EventType{Kind: EventCH, Type: typ}, to: next, rank: rank{class: classCH}})
	return n
}

// allUse records the first reference to a named all group.
type allUse struct {
	particle schema.ParticleID
	typ      schema.TypeID
}

// trackAllGroup rejects a named all group referenced as the content model of
// more than one complex type. A type extending another without adding content
// shares its base's particle and is not a second reference.
func (b *builder) trackAllGroup(id schema.ParticleID) *xerrors.Error {
	p := b.s.Particle(id)
	if p.Term != schema.TermGroup || p.Compositor != model.All || p.GroupName == "" {
		return nil
	}
	prev, ok := b.allUses[p.GroupName]
	if !ok {
		b.allUses[p.GroupName] = allUse{particle: id, typ: b.typeID}
		return nil
	}
	if prev.particle != id {
		return b.particleError(xerrors.ErrAllGroupNesting, id, "all group %s is referenced by both %s and %s",
			p.GroupName, b.s.TypeLabel(prev.typ), b.s.TypeLabel(b.typeID))
	}
	return nil
}

// document appends the start-document, document-content and end-document
// grammars and returns the first.
func (b *builder) document() Handle {
	end := b.append(Grammar{Productions: []Production{{Event: EventType{Kind: EventED}}}})
	content := Grammar{Content: true}
	for _, id := range b.s.GlobalElements {
		e := b.s.Element(id)
		if e.Abstract {
			continue
		}
		content.Productions = append(content.Productions, Production{
			Event: EventType{Kind: EventSE, Name: e.Name, Type: e.Type},
			Next:  end,
		})
	}
	if !b.opts.Strict {
		content.Productions = append(content.Productions, Production{
			Event: EventType{Kind: EventSEAny, BuiltIn: true},
			Next:  end,
		})
	}
	h := b.append(content)
	return b.append(Grammar{Productions: []Production{{Event: EventType{Kind: EventSD}, Next: h}}})
}

func (b *builder) append(g Grammar) Handle {
	b.grammars = append(b.grammars, g)
	return Handle(len(b.grammars) - 1)
}

func (b *builder) particleError(code xerrors.Code, id schema.ParticleID, format string, args ...any) *xerrors.Error {
	err := xerrors.Newf(code, format, args...).WithComponent(b.s.TypeLabel(b.typeID))
	if loc := b.s.Particle(id).Location; loc != "" {
		err = err.WithLocation(loc, 0)
	}
	return err
}
