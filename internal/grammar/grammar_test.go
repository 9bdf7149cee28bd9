package grammar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/schema"
	"github.com/jacoelho/exi/internal/wildcard"
)

const ns = "urn:test"

func qn(local string) model.QName { return model.QName{Space: ns, Local: local} }

func elem(local string) *model.Element {
	return model.LocalElement(qn(local), model.Builtin("string"))
}

func seq(minOccurs, maxOccurs int, particles ...*model.Particle) *model.Particle {
	return model.GroupParticle(model.Sequence, minOccurs, maxOccurs, particles...)
}

func strict() Options {
	opts := DefaultOptions()
	opts.Strict = true
	return opts
}

func compile(t *testing.T, opts Options, set *model.Set) (*schema.Schema, *Arena, error) {
	t.Helper()
	var errs xerrors.Collector
	s := schema.Build(set, &errs)
	require.NoError(t, errs.Err())
	a := Build(s, opts, &errs)
	return s, a, errs.Err()
}

func mustCompile(t *testing.T, opts Options, types ...model.Type) (*schema.Schema, *Arena) {
	t.Helper()
	s, a, err := compile(t, opts, &model.Set{Types: types})
	require.NoError(t, err)
	return s, a
}

func typeGrammar(t *testing.T, s *schema.Schema, a *Arena, local string) *Grammar {
	t.Helper()
	id, ok := s.TypeByName(ns, local)
	require.True(t, ok, local)
	h := a.TypeGrammar(id)
	require.NotZero(t, h)
	return a.Grammar(h)
}

func events(s *schema.Schema, g *Grammar) []string {
	out := make([]string, len(g.Productions))
	for i, p := range g.Productions {
		out[i] = p.Event.Format(&s.Corpus)
	}
	return out
}

// next follows the production at index i.
func next(a *Arena, g *Grammar, i int) *Grammar {
	return a.Grammar(g.Productions[i].Next)
}

func TestEmptyContentIsShared(t *testing.T) {
	first := model.EmptyType(qn("First"))
	second := model.EmptyType(qn("Second"))

	for _, order := range [][]model.Type{{first, second}, {second, first}} {
		s, a := mustCompile(t, DefaultOptions(), order...)
		a1, _ := s.TypeByName(ns, "First")
		a2, _ := s.TypeByName(ns, "Second")
		assert.Equal(t, a.TypeGrammar(a1), a.TypeGrammar(a2))
	}
}

func TestEmptyContentBuiltins(t *testing.T) {
	s, a := mustCompile(t, DefaultOptions(), model.EmptyType(qn("Empty")))
	g := typeGrammar(t, s, a, "Empty")
	assert.Equal(t, []string{"EE()", "AT(*) builtin", "SE(*) builtin", "CH() builtin"}, events(s, g))
	assert.Equal(t, 2, g.CodeWidth())

	content := next(a, g, 2)
	assert.True(t, content.Content)
	assert.Equal(t, []string{"EE()", "SE(*) builtin", "CH() builtin"}, events(s, content))
	assert.Equal(t, g.Productions[2].Next, content.Productions[1].Next)
}

func TestUnboundedElementLoop(t *testing.T) {
	ct := model.ElementOnly(qn("List"), seq(1, 1, model.ElementParticle(elem("item"), 1, model.Unbounded)))
	s, a := mustCompile(t, strict(), ct)

	first := typeGrammar(t, s, a, "List")
	assert.Equal(t, []string{"SE({urn:test}item)"}, events(s, first))
	assert.Equal(t, 0, first.CodeWidth())

	steady := next(a, first, 0)
	assert.Equal(t, []string{"SE({urn:test}item)", "EE()"}, events(s, steady))
	assert.Equal(t, first.Productions[0].Next, steady.Productions[0].Next)
	assert.Equal(t, 1, steady.CodeWidth())
}

func TestBoundedOccurrences(t *testing.T) {
	ct := model.ElementOnly(qn("Pair"), seq(1, 1, model.ElementParticle(elem("x"), 1, 2)))
	s, a := mustCompile(t, strict(), ct)

	g := typeGrammar(t, s, a, "Pair")
	assert.Equal(t, []string{"SE({urn:test}x)"}, events(s, g))
	g = next(a, g, 0)
	assert.Equal(t, []string{"SE({urn:test}x)", "EE()"}, events(s, g))
	g = next(a, g, 0)
	assert.Equal(t, []string{"EE()"}, events(s, g))
}

func TestAmbiguousContent(t *testing.T) {
	anyNS := &wildcard.Wildcard{Constraint: wildcard.AnyNamespace(), Process: wildcard.ProcessLax}
	other := &wildcard.Wildcard{Constraint: wildcard.NewNot(ns, ""), Process: wildcard.ProcessLax}
	local := &wildcard.Wildcard{Constraint: wildcard.NewList("urn:other"), Process: wildcard.ProcessLax}

	tests := []struct {
		name     string
		particle *model.Particle
	}{
		{
			name: "choice of same name",
			particle: model.GroupParticle(model.Choice, 1, 1,
				model.ElementParticle(elem("a"), 1, 1),
				model.ElementParticle(elem("a"), 1, 1)),
		},
		{
			name: "optional then same name",
			particle: seq(1, 1,
				model.ElementParticle(elem("a"), 0, 1),
				model.ElementParticle(elem("a"), 1, 1)),
		},
		{
			name: "overlapping wildcards",
			particle: model.GroupParticle(model.Choice, 1, 1,
				model.WildcardParticle(anyNS, 1, 1),
				model.WildcardParticle(other, 1, 1)),
		},
		{
			name: "element and wildcard",
			particle: seq(1, 1,
				model.WildcardParticle(anyNS, 0, 1),
				model.ElementParticle(elem("a"), 1, 1)),
		},
		{
			name: "list wildcard and other",
			particle: model.GroupParticle(model.Choice, 1, 1,
				model.WildcardParticle(local, 1, 1),
				model.WildcardParticle(other, 1, 1)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := compile(t, strict(), &model.Set{Types: []model.Type{model.ElementOnly(qn("T"), tt.particle)}})
			require.Error(t, err)
			assert.True(t, xerrors.HasCode(err, xerrors.ErrAmbiguousContent))
			assert.True(t, xerrors.IsStructural(err))
		})
	}
}

func TestUnambiguousContent(t *testing.T) {
	local := &wildcard.Wildcard{Constraint: wildcard.NewList("urn:other"), Process: wildcard.ProcessLax}
	tests := []struct {
		name     string
		particle *model.Particle
	}{
		{
			name:     "repeated optional particle",
			particle: seq(1, 1, model.ElementParticle(elem("a"), 0, 3)),
		},
		{
			name: "repeated group",
			particle: seq(0, 2,
				model.ElementParticle(elem("a"), 0, 1),
				model.ElementParticle(elem("b"), 1, 1)),
		},
		{
			name: "disjoint wildcard",
			particle: model.GroupParticle(model.Choice, 1, 1,
				model.WildcardParticle(local, 1, 1),
				model.ElementParticle(elem("a"), 1, 1)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := compile(t, strict(), &model.Set{Types: []model.Type{model.ElementOnly(qn("T"), tt.particle)}})
			require.NoError(t, err)
		})
	}
}

func TestAllGroup(t *testing.T) {
	all := model.GroupParticle(model.All, 1, 1,
		model.ElementParticle(elem("a"), 1, 1),
		model.ElementParticle(elem("b"), 0, 1))
	s, a := mustCompile(t, strict(), model.ElementOnly(qn("T"), all))

	start := typeGrammar(t, s, a, "T")
	assert.Equal(t, []string{"SE({urn:test}a)", "SE({urn:test}b)"}, events(s, start))

	afterA := next(a, start, 0)
	assert.Equal(t, []string{"SE({urn:test}b)", "EE()"}, events(s, afterA))

	afterB := next(a, start, 1)
	assert.Equal(t, []string{"SE({urn:test}a)"}, events(s, afterB))

	assert.Equal(t, []string{"EE()"}, events(s, next(a, afterB, 0)))
}

func TestAllGroupErrors(t *testing.T) {
	tests := []struct {
		name     string
		particle *model.Particle
		code     xerrors.Code
	}{
		{
			name: "nested in sequence",
			particle: seq(1, 1, model.GroupParticle(model.All, 1, 1,
				model.ElementParticle(elem("a"), 1, 1))),
			code: xerrors.ErrAllGroupNesting,
		},
		{
			name: "member maxOccurs",
			particle: model.GroupParticle(model.All, 1, 1,
				model.ElementParticle(elem("a"), 1, 2)),
			code: xerrors.ErrAllGroupOccurs,
		},
		{
			name: "group maxOccurs",
			particle: model.GroupParticle(model.All, 1, 2,
				model.ElementParticle(elem("a"), 1, 1)),
			code: xerrors.ErrAllGroupOccurs,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := compile(t, strict(), &model.Set{Types: []model.Type{model.ElementOnly(qn("T"), tt.particle)}})
			require.Error(t, err)
			assert.True(t, xerrors.HasCode(err, tt.code), err.Error())
		})
	}
}

func TestNamedAllGroupUses(t *testing.T) {
	group := &model.ModelGroup{
		Name:       qn("g"),
		Compositor: model.All,
		Particles: []*model.Particle{
			model.ElementParticle(elem("a"), 1, 1),
			model.ElementParticle(elem("b"), 0, 1),
		},
	}
	ref := func() *model.Particle { return &model.Particle{Group: group, Min: 1, Max: 1} }
	extend := func(name string, base *model.ComplexType, p *model.Particle) *model.ComplexType {
		ct := model.ElementOnly(qn(name), p)
		ct.Base = base
		ct.Derivation = model.DerivationExtension
		return ct
	}

	t.Run("extension without content", func(t *testing.T) {
		base := model.ElementOnly(qn("Base"), ref())
		derived := extend("Derived", base, base.Particle)
		for _, types := range [][]model.Type{{base, derived}, {derived, base}} {
			s, a, err := compile(t, strict(), &model.Set{Types: types})
			require.NoError(t, err)
			want := events(s, typeGrammar(t, s, a, "Base"))
			assert.Equal(t, want, events(s, typeGrammar(t, s, a, "Derived")))
		}
	})

	t.Run("extension with content", func(t *testing.T) {
		base := model.ElementOnly(qn("Base"), ref())
		derived := extend("Derived", base, seq(1, 1, base.Particle, model.ElementParticle(elem("c"), 1, 1)))
		for _, types := range [][]model.Type{{base, derived}, {derived, base}} {
			_, _, err := compile(t, strict(), &model.Set{Types: types})
			require.Error(t, err)
			assert.True(t, xerrors.HasCode(err, xerrors.ErrAllGroupNesting), err.Error())
		}
	})

	t.Run("two referencing types", func(t *testing.T) {
		first := model.ElementOnly(qn("First"), ref())
		second := model.ElementOnly(qn("Second"), ref())
		for _, types := range [][]model.Type{{first, second}, {second, first}} {
			_, _, err := compile(t, strict(), &model.Set{Types: types})
			require.Error(t, err)
			assert.True(t, xerrors.HasCode(err, xerrors.ErrAllGroupNesting), err.Error())
			assert.Contains(t, err.Error(), "First")
			assert.Contains(t, err.Error(), "Second")
		}
	})
}

func TestOccurrenceErrors(t *testing.T) {
	opts := strict()
	opts.MaxOccursLimit = 10

	_, _, err := compile(t, opts, &model.Set{Types: []model.Type{
		model.ElementOnly(qn("T"), seq(1, 1, model.ElementParticle(elem("a"), 3, 2))),
	}})
	assert.True(t, xerrors.HasCode(err, xerrors.ErrOccursRange))

	_, _, err = compile(t, opts, &model.Set{Types: []model.Type{
		model.ElementOnly(qn("T"), seq(1, 1, model.ElementParticle(elem("a"), 0, 11))),
	}})
	assert.True(t, xerrors.HasCode(err, xerrors.ErrOccursLimit))

	opts = strict()
	opts.MaxGrammars = 8
	_, _, err = compile(t, opts, &model.Set{Types: []model.Type{
		model.ElementOnly(qn("T"), seq(1, 1, model.ElementParticle(elem("a"), 0, 20))),
	}})
	assert.True(t, xerrors.HasCode(err, xerrors.ErrGrammarLimit))
}

func TestAttributePhase(t *testing.T) {
	ct := model.EmptyType(qn("T"))
	ct.Attributes = []*model.AttributeUse{
		{Attribute: &model.Attribute{Name: qn("b"), Type: model.Builtin("int")}, Required: true},
		{Attribute: &model.Attribute{Name: qn("a"), Type: model.Builtin("string")}},
	}
	s, a := mustCompile(t, strict(), ct)

	start := typeGrammar(t, s, a, "T")
	assert.False(t, start.Content)
	assert.Equal(t, []string{"AT({urn:test}a)", "AT({urn:test}b)"}, events(s, start))

	afterA := next(a, start, 0)
	assert.Equal(t, []string{"AT({urn:test}b)"}, events(s, afterA))
	assert.Equal(t, start.Productions[1].Next, afterA.Productions[0].Next)

	done := next(a, start, 1)
	assert.True(t, done.Content)
	assert.Equal(t, []string{"EE()"}, events(s, done))
}

func TestAttributeWildcard(t *testing.T) {
	ct := model.EmptyType(qn("T"))
	ct.AnyAttribute = &wildcard.Wildcard{Constraint: wildcard.NewList("urn:x", "urn:y"), Process: wildcard.ProcessLax}
	s, a := mustCompile(t, strict(), ct)

	start := typeGrammar(t, s, a, "T")
	assert.Equal(t, []string{"AT({urn:x}*)", "AT({urn:y}*)", "EE()"}, events(s, start))
	assert.Equal(t, start, next(a, start, 0))
}

func TestSubstitutionGroup(t *testing.T) {
	head := model.GlobalElement(qn("shape"), model.Builtin("string"))
	head.Abstract = true
	square := model.GlobalElement(qn("square"), model.Builtin("string"))
	square.SubstitutionGroup = head
	circle := model.GlobalElement(qn("circle"), model.Builtin("string"))
	circle.SubstitutionGroup = head

	ct := model.ElementOnly(qn("T"), seq(1, 1, model.ElementParticle(head, 1, 1)))
	s, a, err := compile(t, strict(), &model.Set{
		Types:    []model.Type{ct},
		Elements: []*model.Element{head, square, circle},
	})
	require.NoError(t, err)

	start := typeGrammar(t, s, a, "T")
	assert.Equal(t, []string{"SE({urn:test}circle)", "SE({urn:test}square)"}, events(s, start))
}

func TestMixedContent(t *testing.T) {
	ct := model.ElementOnly(qn("T"), seq(1, 1, model.ElementParticle(elem("a"), 1, 1)))
	ct.Content = model.ContentMixed
	s, a := mustCompile(t, strict(), ct)

	start := typeGrammar(t, s, a, "T")
	assert.Equal(t, []string{"SE({urn:test}a)", "CH()"}, events(s, start))
	assert.Equal(t, start, next(a, start, 1))
	assert.True(t, start.HasSchemaCH())
}

func TestSimpleTypeGrammar(t *testing.T) {
	s, a := mustCompile(t, strict())
	id, ok := s.TypeByName(schema.XSDNamespace, "int")
	require.True(t, ok)
	g := a.Grammar(a.TypeGrammar(id))
	require.Len(t, g.Productions, 1)
	assert.Equal(t, EventCH, g.Productions[0].Event.Kind)
	assert.Equal(t, id, g.Productions[0].Event.Type)
	assert.Equal(t, []string{"EE()"}, events(s, next(a, g, 0)))
}

func TestRestriction(t *testing.T) {
	base := model.ElementOnly(qn("Base"), seq(1, 1,
		model.ElementParticle(elem("a"), 1, 1),
		model.ElementParticle(elem("b"), 0, 1)))

	restricted := func(name string, p *model.Particle) *model.ComplexType {
		ct := model.ElementOnly(qn(name), p)
		ct.Base = base
		ct.Derivation = model.DerivationRestriction
		return ct
	}

	_, _, err := compile(t, strict(), &model.Set{Types: []model.Type{
		base, restricted("Ok", seq(1, 1, model.ElementParticle(elem("a"), 1, 1))),
	}})
	assert.NoError(t, err)

	_, _, err = compile(t, strict(), &model.Set{Types: []model.Type{
		base, restricted("Missing", seq(1, 1, model.ElementParticle(elem("b"), 1, 1))),
	}})
	assert.True(t, xerrors.HasCode(err, xerrors.ErrRestrictionParticle))

	_, _, err = compile(t, strict(), &model.Set{Types: []model.Type{
		base, restricted("Wider", seq(1, 1,
			model.ElementParticle(elem("a"), 1, 1),
			model.ElementParticle(elem("b"), 0, 2))),
	}})
	assert.True(t, xerrors.HasCode(err, xerrors.ErrRestrictionParticle))
}

func TestWildcardRestriction(t *testing.T) {
	other := &wildcard.Wildcard{Constraint: wildcard.NewNot(ns, ""), Process: wildcard.ProcessStrict}
	base := model.ElementOnly(qn("Base"), seq(1, 1, model.WildcardParticle(other, 0, 1)))

	derived := func(w *wildcard.Wildcard) *model.ComplexType {
		ct := model.ElementOnly(qn("Derived"), seq(1, 1, model.WildcardParticle(w, 0, 1)))
		ct.Base = base
		ct.Derivation = model.DerivationRestriction
		return ct
	}

	narrow := &wildcard.Wildcard{Constraint: wildcard.NewList("urn:x"), Process: wildcard.ProcessStrict}
	_, _, err := compile(t, strict(), &model.Set{Types: []model.Type{base, derived(narrow)}})
	assert.NoError(t, err)

	wide := &wildcard.Wildcard{Constraint: wildcard.AnyNamespace(), Process: wildcard.ProcessStrict}
	_, _, err = compile(t, strict(), &model.Set{Types: []model.Type{base, derived(wide)}})
	assert.True(t, xerrors.HasCode(err, xerrors.ErrRestrictionWildcard))

	weaker := &wildcard.Wildcard{Constraint: wildcard.NewList("urn:x"), Process: wildcard.ProcessSkip}
	_, _, err = compile(t, strict(), &model.Set{Types: []model.Type{base, derived(weaker)}})
	assert.True(t, xerrors.HasCode(err, xerrors.ErrRestrictionWildcard))
}

func TestDocumentGrammar(t *testing.T) {
	set := func() *model.Set {
		return &model.Set{Elements: []*model.Element{
			model.GlobalElement(qn("zeta"), model.Builtin("string")),
			model.GlobalElement(qn("alpha"), model.Builtin("int")),
		}}
	}

	s, a, err := compile(t, strict(), set())
	require.NoError(t, err)
	doc := a.Grammar(a.Document)
	assert.Equal(t, []string{"SD()"}, events(s, doc))
	content := next(a, doc, 0)
	assert.Equal(t, []string{"SE({urn:test}alpha)", "SE({urn:test}zeta)"}, events(s, content))
	assert.Equal(t, []string{"ED()"}, events(s, next(a, content, 0)))

	s, a, err = compile(t, DefaultOptions(), set())
	require.NoError(t, err)
	content = next(a, a.Grammar(a.Document), 0)
	assert.Equal(t, []string{"SE({urn:test}alpha)", "SE({urn:test}zeta)", "SE(*) builtin"}, events(s, content))
}

func TestDump(t *testing.T) {
	s, a := mustCompile(t, strict(), model.EmptyType(qn("Empty")))
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, s, a))
	out := buf.String()
	assert.Contains(t, out, "document: G")
	assert.Contains(t, out, "type {urn:test}Empty: G")
	assert.Contains(t, out, "  - EE()\n")
}
