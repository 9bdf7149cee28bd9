package codec

import (
	"io"

	"github.com/golang/glog"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/bitio"
	"github.com/jacoelho/exi/internal/cache"
	"github.com/jacoelho/exi/internal/grammar"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/schema"
	"github.com/jacoelho/exi/internal/valuecodec"
)

// Decoder reads events back from a bit-packed document.
type Decoder struct {
	session
	r       *bitio.Reader
	opts    Options
	started bool
	done    bool
}

// NewDecoder starts a decoding session over data.
func NewDecoder(c *cache.Cache, data []byte, opts Options) *Decoder {
	glog.V(2).Infof("decoder session started: %d bytes", len(data))
	return &Decoder{session: newSession(c, opts), r: bitio.NewReader(data), opts: opts}
}

// Next returns the next event. It returns io.EOF after end-document and the
// session error after a failure.
func (d *Decoder) Next() (Event, error) {
	if d.err != nil {
		return Event{}, d.err
	}
	if d.done {
		return Event{}, io.EOF
	}
	if !d.started {
		return d.startDocument()
	}
	ev, err := d.next()
	if err != nil {
		return Event{}, d.fail(err)
	}
	return ev, nil
}

func (d *Decoder) startDocument() (Event, error) {
	d.started = true
	if d.opts.Header {
		h, err := d.r.ReadBits(headerBits)
		if err != nil {
			return Event{}, d.fail(streamError(err, "header"))
		}
		if h&0xc0 != headerValue&0xc0 {
			return Event{}, d.fail(xerrors.New(xerrors.ErrInvalidHeader, "missing distinguishing bits"))
		}
		if h&0x20 != 0 {
			return Event{}, d.fail(xerrors.New(xerrors.ErrInvalidHeader, "header options are not supported"))
		}
		if h&0x1f != headerVersion {
			return Event{}, d.fail(xerrors.Newf(xerrors.ErrInvalidHeader, "unsupported version field %d", h&0x1f))
		}
	}
	doc := d.c.Grammar(d.c.Document())
	if _, err := d.code(doc); err != nil {
		return Event{}, d.fail(err)
	}
	d.stack = append(d.stack, frame{grammar: doc.Productions[0].Next})
	return Event{Kind: StartDocument}, nil
}

// code reads an event code of g.
func (d *Decoder) code(g *grammar.Grammar) (grammar.Production, *xerrors.Error) {
	i, err := d.r.ReadBits(g.CodeWidth())
	if err != nil {
		return grammar.Production{}, streamError(err, "event code")
	}
	if int(i) >= len(g.Productions) {
		return grammar.Production{}, xerrors.Newf(xerrors.ErrInvalidEventCode, "event code %d of %d", i, len(g.Productions))
	}
	return g.Productions[i], nil
}

func (d *Decoder) next() (Event, *xerrors.Error) {
	p, err := d.code(d.grammar())
	if err != nil {
		return Event{}, err
	}
	ev := p.Event
	switch {
	case ev.Kind == grammar.EventED:
		d.stack = d.stack[:0]
		d.done = true
		glog.V(2).Info("decoder session finished")
		return Event{Kind: EndDocument}, nil
	case ev.Kind == grammar.EventEE:
		if len(d.stack) <= 1 {
			return Event{}, xerrors.New(xerrors.ErrInvalidEventCode, "end of element without an open element")
		}
		name := d.top().name
		d.stack = d.stack[:len(d.stack)-1]
		return Event{Kind: EndElement, Name: name}, nil
	case ev.Kind.IsStartElement():
		name, err := d.readName(ev)
		if err != nil {
			return Event{}, err
		}
		child := d.c.TypeGrammar(d.elementType(ev, name))
		if child == 0 {
			return Event{}, xerrors.Newf(xerrors.ErrInvalidStreamValue, "element %s has no grammar", name)
		}
		d.top().grammar = p.Next
		d.stack = append(d.stack, frame{name: name, grammar: child})
		return Event{Kind: StartElement, Name: name}, nil
	case ev.Kind.IsAttribute():
		name, err := d.readName(ev)
		if err != nil {
			return Event{}, err
		}
		typ := ev.Type
		if ev.Kind != grammar.EventAT {
			typ = d.attributeType(ev, name)
		}
		out, err := d.value(typ, name, "attribute value")
		if err != nil {
			return Event{}, err
		}
		d.top().grammar = p.Next
		out.Kind, out.Name = Attribute, name
		return out, nil
	case ev.Kind == grammar.EventCH:
		out, err := d.value(ev.Type, d.top().name, "character data")
		if err != nil {
			return Event{}, err
		}
		d.top().grammar = p.Next
		out.Kind = Characters
		return out, nil
	}
	return Event{}, xerrors.Newf(xerrors.ErrInvalidEventCode, "unexpected %s event", ev.Kind)
}

func (d *Decoder) readName(ev grammar.EventType) (model.QName, *xerrors.Error) {
	switch ev.Kind {
	case grammar.EventSE, grammar.EventAT:
		return d.expand(ev.Name), nil
	case grammar.EventSEURI, grammar.EventATURI:
		local, err := d.tables.DecodeLocalName(d.r, int(ev.NS))
		if err != nil {
			return model.QName{}, streamError(err, "local name")
		}
		return model.QName{Space: d.c.Corpus().URI(ev.NS), Local: local}, nil
	}
	ns, uri, err := d.tables.DecodeURI(d.r)
	if err != nil {
		return model.QName{}, streamError(err, "namespace")
	}
	local, err := d.tables.DecodeLocalName(d.r, ns)
	if err != nil {
		return model.QName{}, streamError(err, "local name")
	}
	return model.QName{Space: uri, Local: local}, nil
}

func (d *Decoder) value(typ schema.TypeID, name model.QName, what string) (Event, *xerrors.Error) {
	rep := d.representation(typ)
	s, err := valuecodec.Read(d.r, rep, valuecodec.Strings{Tables: d.tables, Owner: owner(name)})
	if err != nil {
		return Event{}, streamError(err, what)
	}
	return Event{Value: s, Typed: rep != untyped, Whitespace: rep.Whitespace}, nil
}
