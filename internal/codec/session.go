// Package codec is the Stream Codec: an encoder and a decoder that walk the
// compiled grammars one document event at a time and code each event as its
// position in the current grammar followed by its content.
package codec

import (
	"strings"

	"github.com/pkg/errors"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/bitio"
	"github.com/jacoelho/exi/internal/cache"
	"github.com/jacoelho/exi/internal/datatype"
	"github.com/jacoelho/exi/internal/grammar"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/schema"
	"github.com/jacoelho/exi/internal/stringtable"
)

// Header layout: two distinguishing bits "10", the options presence bit and
// a five-bit version field where zero is final version 1.
const (
	headerBits    = 8
	headerValue   = 0x80
	headerVersion = 0
)

// Options configures a codec session.
type Options struct {
	Strings stringtable.Options
	// Header writes and expects the stream header.
	Header bool
}

// DefaultOptions returns unbounded string tables with the header enabled.
func DefaultOptions() Options {
	return Options{Strings: stringtable.DefaultOptions(), Header: true}
}

// untyped codes values that have no schema datatype.
var untyped = &datatype.Representation{Kind: datatype.KindString}

// frame is one open element, or the document itself at the bottom of the
// stack.
type frame struct {
	name    model.QName
	grammar grammar.Handle
}

// session is the state shared by Encoder and Decoder.
type session struct {
	c      *cache.Cache
	tables *stringtable.Tables
	stack  []frame
	err    error
}

func newSession(c *cache.Cache, opts Options) session {
	return session{
		c:      c,
		tables: stringtable.New(c.URIs(), c.LocalNames, opts.Strings),
	}
}

func (s *session) top() *frame {
	return &s.stack[len(s.stack)-1]
}

func (s *session) grammar() *grammar.Grammar {
	return s.c.Grammar(s.top().grammar)
}

// path renders the open element names.
func (s *session) path() string {
	if len(s.stack) <= 1 {
		return "/"
	}
	var b strings.Builder
	for _, f := range s.stack[1:] {
		b.WriteByte('/')
		b.WriteString(f.name.String())
	}
	return b.String()
}

// fail records err as the session error, adding the element path.
func (s *session) fail(err *xerrors.Error) error {
	s.err = err.WithPath(s.path())
	return s.err
}

// representation returns the representation of a value typed id, or the
// untyped representation for zero.
func (s *session) representation(id schema.TypeID) *datatype.Representation {
	if id == 0 {
		return untyped
	}
	if rep := s.c.Representation(id); rep != nil {
		return rep
	}
	return untyped
}

// attributeType resolves the datatype of an attribute matched by a schema
// wildcard.
func (s *session) attributeType(ev grammar.EventType, name model.QName) schema.TypeID {
	if ev.BuiltIn {
		return 0
	}
	return s.c.AttributeType(name.Space, name.Local)
}

// elementType resolves the type of an element matched by a start-element
// event.
func (s *session) elementType(ev grammar.EventType, name model.QName) schema.TypeID {
	if ev.Kind == grammar.EventSE {
		return ev.Type
	}
	return s.c.ElementType(name.Space, name.Local)
}

func (s *session) expand(q schema.QName) model.QName {
	return s.c.Corpus().Expand(q)
}

// streamError classifies a read failure.
func streamError(err error, what string) *xerrors.Error {
	if errors.Is(err, bitio.ErrPrematureEnd) {
		return xerrors.Newf(xerrors.ErrPrematureEnd, "stream ended while reading %s", what).Wrap(err)
	}
	return xerrors.Newf(xerrors.ErrInvalidStreamValue, "cannot decode %s", what).Wrap(err)
}

func owner(name model.QName) stringtable.Name {
	return stringtable.Name{Space: name.Space, Local: name.Local}
}
