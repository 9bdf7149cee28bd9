// Package exi compiles XML Schemas into EXI grammars and codes XML documents
// as schema-informed, bit-packed EXI streams.
//
// A Schema is immutable once compiled and may be shared by any number of
// concurrent encoders and decoders; each session owns its string tables.
package exi

import (
	"fmt"
	"io"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/cache"
	"github.com/jacoelho/exi/internal/codec"
	"github.com/jacoelho/exi/internal/grammar"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/xmlevents"
)

// QName is an expanded name.
type QName = model.QName

// Event is one document event. Decoded events report whether their value
// was coded with a schema datatype and that datatype's whitespace mode;
// Event.Normalized applies it.
type Event = codec.Event

// EventKind is the kind of an Event.
type EventKind = codec.EventKind

const (
	StartDocument = codec.StartDocument
	EndDocument   = codec.EndDocument
	StartElement  = codec.StartElement
	EndElement    = codec.EndElement
	Attribute     = codec.Attribute
	Characters    = codec.Characters
)

// Schema is a compiled schema: the grammars of every type plus the
// datatype representations used to code values.
type Schema struct {
	cache   *cache.Cache
	session codec.Options
}

func (s *Schema) loaded() error {
	if s == nil || s.cache == nil {
		return xerrors.New(xerrors.ErrSchemaNotLoaded, "schema not loaded")
	}
	return nil
}

// Strict reports whether the schema was compiled without fallback productions.
func (s *Schema) Strict() bool {
	return s != nil && s.cache != nil && s.cache.Strict()
}

// Encoder codes one document.
type Encoder struct {
	enc *codec.Encoder
}

// NewEncoder starts an encoding session.
func (s *Schema) NewEncoder() (*Encoder, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return &Encoder{enc: codec.NewEncoder(s.cache, s.session)}, nil
}

// Encode codes the next event. The first error ends the session and is
// returned by every later call.
func (e *Encoder) Encode(ev Event) error {
	return e.enc.Encode(ev)
}

// Bytes returns the stream once end document has been encoded.
func (e *Encoder) Bytes() ([]byte, error) {
	return e.enc.Bytes()
}

// Decoder reads one document.
type Decoder struct {
	dec *codec.Decoder
}

// NewDecoder starts a decoding session over data.
func (s *Schema) NewDecoder(data []byte) (*Decoder, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return &Decoder{dec: codec.NewDecoder(s.cache, data, s.session)}, nil
}

// Next returns the next event, or io.EOF after end document.
func (d *Decoder) Next() (Event, error) {
	return d.dec.Next()
}

// EncodeEvents codes a complete event stream.
func (s *Schema) EncodeEvents(events []Event) ([]byte, error) {
	enc, err := s.NewEncoder()
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return nil, err
		}
	}
	return enc.Bytes()
}

// DecodeEvents decodes a complete stream.
func (s *Schema) DecodeEvents(data []byte) ([]Event, error) {
	dec, err := s.NewDecoder(data)
	if err != nil {
		return nil, err
	}
	var events []Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
}

// EncodeXML codes the XML document read from r.
func (s *Schema) EncodeXML(r io.Reader) ([]byte, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, xerrors.New(xerrors.ErrMalformedDocument, "nil reader")
	}
	events, err := xmlevents.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	data, err := s.EncodeEvents(events)
	if err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	return data, nil
}

// DecodeXML decodes data and writes the document to w as XML text. Values
// are written as stored.
func (s *Schema) DecodeXML(data []byte, w io.Writer) error {
	dec, err := s.NewDecoder(data)
	if err != nil {
		return err
	}
	out := xmlevents.NewWriter(w)
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return out.Flush()
		}
		if err != nil {
			return fmt.Errorf("decode xml: %w", err)
		}
		if err := out.WriteEvent(ev); err != nil {
			return fmt.Errorf("decode xml: %w", err)
		}
	}
}

// DumpGrammars writes every type's grammars with their event codes.
func (s *Schema) DumpGrammars(w io.Writer) error {
	if err := s.loaded(); err != nil {
		return err
	}
	return grammar.Dump(w, s.cache.Schema(), s.cache.Arena())
}
