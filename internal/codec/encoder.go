package codec

import (
	"cmp"
	"slices"

	"github.com/golang/glog"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/bitio"
	"github.com/jacoelho/exi/internal/cache"
	"github.com/jacoelho/exi/internal/grammar"
	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/valuecodec"
)

// Encoder turns a stream of events into a bit-packed document. Attributes
// of a start tag are buffered and emitted in grammar order when the tag is
// complete.
type Encoder struct {
	session
	w       bitio.Writer
	attrs   []Event
	opts    Options
	open    bool
	started bool
	done    bool
}

// NewEncoder starts an encoding session over c.
func NewEncoder(c *cache.Cache, opts Options) *Encoder {
	glog.V(2).Info("encoder session started")
	return &Encoder{session: newSession(c, opts), opts: opts}
}

// Encode consumes one event. After the first error every call returns it.
func (e *Encoder) Encode(ev Event) error {
	if e.err != nil {
		return e.err
	}
	if e.done {
		return e.fail(xerrors.Newf(xerrors.ErrSessionFailed, "%s after end of document", ev.Kind))
	}
	if !e.started && ev.Kind != StartDocument {
		return e.fail(xerrors.Newf(xerrors.ErrUnexpectedEvent, "%s before start of document", ev.Kind))
	}
	if ev.Kind == Attribute {
		if !e.open {
			return e.fail(xerrors.Newf(xerrors.ErrUnexpectedEvent, "attribute %s outside a start tag", ev.Name).WithValue(ev.Value))
		}
		e.attrs = append(e.attrs, ev)
		return nil
	}
	if err := e.flushAttributes(); err != nil {
		return e.fail(err)
	}
	var err *xerrors.Error
	switch ev.Kind {
	case StartDocument:
		err = e.startDocument()
	case EndDocument:
		err = e.endDocument()
	case StartElement:
		err = e.startElement(ev.Name)
	case EndElement:
		err = e.endElement()
	case Characters:
		err = e.characters(ev.Value)
	default:
		err = xerrors.Newf(xerrors.ErrUnexpectedEvent, "unknown event %s", ev.Kind)
	}
	if err != nil {
		return e.fail(err)
	}
	return nil
}

// Bytes returns the encoded document. It fails until end-document has been
// encoded.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if !e.done {
		return nil, xerrors.New(xerrors.ErrSessionFailed, "document is not complete")
	}
	return e.w.Bytes(), nil
}

func (e *Encoder) code(g *grammar.Grammar, i int) {
	e.w.WriteBits(uint64(i), g.CodeWidth())
}

func (e *Encoder) startDocument() *xerrors.Error {
	if e.started {
		return xerrors.New(xerrors.ErrUnexpectedEvent, "duplicate start of document")
	}
	e.started = true
	if e.opts.Header {
		e.w.WriteBits(headerValue, headerBits)
	}
	doc := e.c.Grammar(e.c.Document())
	e.code(doc, 0)
	e.stack = append(e.stack, frame{grammar: doc.Productions[0].Next})
	return nil
}

func (e *Encoder) endDocument() *xerrors.Error {
	if len(e.stack) != 1 {
		return xerrors.New(xerrors.ErrUnexpectedEvent, "end of document with open elements")
	}
	g := e.grammar()
	for i, p := range g.Productions {
		if p.Event.Kind == grammar.EventED {
			e.code(g, i)
			e.stack = e.stack[:0]
			e.done = true
			glog.V(2).Infof("encoder session finished: %d bits", e.w.Len())
			return nil
		}
	}
	return xerrors.New(xerrors.ErrUnexpectedEvent, "end of document before the document element")
}

// elementScore ranks how specifically p matches an element name: exact name,
// namespace wildcard, schema wildcard, then the built-in fallback.
func (e *Encoder) elementScore(ev grammar.EventType, name model.QName) int {
	switch ev.Kind {
	case grammar.EventSE:
		if e.expand(ev.Name) == name {
			return 4
		}
	case grammar.EventSEURI:
		if e.c.Corpus().URI(ev.NS) == name.Space {
			return 3
		}
	case grammar.EventSEAny:
		if ev.BuiltIn {
			return 1
		}
		if e.c.Schema().Wildcard(ev.Wildcard).Constraint.Allows(name.Space) {
			return 2
		}
	}
	return 0
}

func (e *Encoder) startElement(name model.QName) *xerrors.Error {
	if len(e.stack) == 0 {
		return xerrors.Newf(xerrors.ErrUnexpectedEvent, "element %s after the document element", name)
	}
	g := e.grammar()
	best, score := -1, 0
	for i, p := range g.Productions {
		if s := e.elementScore(p.Event, name); s > score {
			best, score = i, s
		}
	}
	if best < 0 {
		return xerrors.Newf(xerrors.ErrUnexpectedEvent, "element %s is not allowed here", name)
	}
	p := g.Productions[best]
	e.code(g, best)
	e.writeName(p.Event, name)

	child := e.c.TypeGrammar(e.elementType(p.Event, name))
	if child == 0 {
		return xerrors.Newf(xerrors.ErrUnexpectedEvent, "element %s has no grammar", name)
	}
	e.top().grammar = p.Next
	e.stack = append(e.stack, frame{name: name, grammar: child})
	e.open = true
	return nil
}

// writeName writes the parts of name a wildcard event leaves open.
func (e *Encoder) writeName(ev grammar.EventType, name model.QName) {
	switch ev.Kind {
	case grammar.EventSEURI, grammar.EventATURI:
		e.tables.EncodeLocalName(&e.w, int(ev.NS), name.Local)
	case grammar.EventSEAny, grammar.EventATAny:
		ns := e.tables.EncodeURI(&e.w, name.Space)
		e.tables.EncodeLocalName(&e.w, ns, name.Local)
	}
}

func (e *Encoder) endElement() *xerrors.Error {
	if len(e.stack) <= 1 {
		return xerrors.New(xerrors.ErrUnexpectedEvent, "end of element without an open element")
	}
	g := e.grammar()
	i := e.endIndex(g)
	if i < 0 && g.HasSchemaCH() {
		if err := e.characters(""); err == nil {
			g = e.grammar()
			i = e.endIndex(g)
		}
	}
	if i < 0 {
		return xerrors.Newf(xerrors.ErrUnexpectedEvent, "element %s is not complete", e.top().name)
	}
	e.code(g, i)
	e.stack = e.stack[:len(e.stack)-1]
	e.open = false
	return nil
}

// endIndex returns the schema end-element production, or the built-in one.
func (e *Encoder) endIndex(g *grammar.Grammar) int {
	found := -1
	for i, p := range g.Productions {
		if p.Event.Kind != grammar.EventEE {
			continue
		}
		if !p.Event.BuiltIn {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}

// flushAttributes emits the buffered attributes sorted by local name then
// namespace, the order of the attribute uses in every grammar.
func (e *Encoder) flushAttributes() *xerrors.Error {
	if !e.open {
		return nil
	}
	e.open = false
	attrs := e.attrs
	e.attrs = e.attrs[:0]
	slices.SortStableFunc(attrs, func(a, b Event) int {
		if n := cmp.Compare(a.Name.Local, b.Name.Local); n != 0 {
			return n
		}
		return cmp.Compare(a.Name.Space, b.Name.Space)
	})
	for _, at := range attrs {
		if err := e.attribute(at.Name, at.Value); err != nil {
			return err
		}
	}
	return nil
}

type candidate struct {
	index int
	score int
}

func (e *Encoder) attributeScore(ev grammar.EventType, name model.QName) int {
	switch ev.Kind {
	case grammar.EventAT:
		if e.expand(ev.Name) == name {
			return 4
		}
	case grammar.EventATURI:
		if e.c.Corpus().URI(ev.NS) == name.Space {
			return 3
		}
	case grammar.EventATAny:
		if ev.BuiltIn {
			return 1
		}
		if e.c.Schema().Wildcard(ev.Wildcard).Constraint.Allows(name.Space) {
			return 2
		}
	}
	return 0
}

// attribute emits one attribute through the most specific production whose
// datatype accepts the value.
func (e *Encoder) attribute(name model.QName, value string) *xerrors.Error {
	g := e.grammar()
	var cands []candidate
	for i, p := range g.Productions {
		if s := e.attributeScore(p.Event, name); s > 0 {
			cands = append(cands, candidate{index: i, score: s})
		}
	}
	slices.SortStableFunc(cands, func(a, b candidate) int { return cmp.Compare(b.score, a.score) })

	var mismatch *xerrors.Error
	for _, cand := range cands {
		p := g.Productions[cand.index]
		typ := p.Event.Type
		if p.Event.Kind != grammar.EventAT {
			typ = e.attributeType(p.Event, name)
		}
		v, err := valuecodec.Parse(e.representation(typ), value)
		if err != nil {
			if mismatch == nil {
				mismatch = err.WithComponent(name.String())
			}
			continue
		}
		e.code(g, cand.index)
		e.writeName(p.Event, name)
		v.Write(&e.w, valuecodec.Strings{Tables: e.tables, Owner: owner(name)})
		e.top().grammar = p.Next
		return nil
	}
	if mismatch != nil {
		return mismatch
	}
	return xerrors.Newf(xerrors.ErrUnexpectedEvent, "attribute %s is not allowed here", name).WithValue(value)
}

// characters emits character data through a typed, then untyped, then
// built-in production. Whitespace-only data with no schema character
// production is dropped.
func (e *Encoder) characters(value string) *xerrors.Error {
	if len(e.stack) <= 1 {
		if lexical.IsAllWhitespace(value) {
			return nil
		}
		return xerrors.New(xerrors.ErrUnexpectedEvent, "characters outside the document element").WithValue(value)
	}
	g := e.grammar()
	if !g.HasSchemaCH() && lexical.IsAllWhitespace(value) {
		return nil
	}
	var cands []candidate
	for i, p := range g.Productions {
		if p.Event.Kind != grammar.EventCH {
			continue
		}
		score := 1
		switch {
		case p.Event.BuiltIn:
		case p.Event.Type != 0:
			score = 3
		default:
			score = 2
		}
		cands = append(cands, candidate{index: i, score: score})
	}
	slices.SortStableFunc(cands, func(a, b candidate) int { return cmp.Compare(b.score, a.score) })

	name := e.top().name
	var mismatch *xerrors.Error
	for _, cand := range cands {
		p := g.Productions[cand.index]
		v, err := valuecodec.Parse(e.representation(p.Event.Type), value)
		if err != nil {
			if mismatch == nil {
				mismatch = err.WithComponent(name.String())
			}
			continue
		}
		e.code(g, cand.index)
		v.Write(&e.w, valuecodec.Strings{Tables: e.tables, Owner: owner(name)})
		e.top().grammar = p.Next
		return nil
	}
	if mismatch != nil {
		return mismatch
	}
	return xerrors.New(xerrors.ErrUnexpectedEvent, "character data is not allowed here").WithValue(value)
}
