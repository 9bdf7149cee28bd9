// Package grammar builds the deterministic event grammars that drive the
// stream codec: one automaton per type, shared through content-addressed
// de-duplication and stored in a single arena.
package grammar

import (
	"github.com/jacoelho/exi/internal/bitio"
	"github.com/jacoelho/exi/internal/schema"
)

// Handle addresses a Grammar in an Arena. Zero is the terminal handle used as
// the successor of end-element and end-document productions.
type Handle uint32

// Production is one (event type, successor grammar) edge.
type Production struct {
	Event EventType
	Next  Handle
}

// Grammar is one state of a compiled automaton. Productions are in event code
// order. Content reports whether the state admits content events; states
// without it still expect attributes.
type Grammar struct {
	Productions []Production
	Content     bool
}

// CodeWidth returns the number of bits of an event code in g.
func (g *Grammar) CodeWidth() int {
	return bitio.Width(len(g.Productions))
}

// HasSchemaCH reports whether g has a character production that is not a
// built-in fallback.
func (g *Grammar) HasSchemaCH() bool {
	for _, p := range g.Productions {
		if p.Event.Kind == EventCH && !p.Event.BuiltIn {
			return true
		}
	}
	return false
}

// Default limits.
const (
	DefaultMaxGrammars    = 65536
	DefaultMaxOccursLimit = 1_000_000
)

// Options controls grammar construction.
type Options struct {
	// MaxGrammars bounds the number of grammars built for one type.
	MaxGrammars int
	// MaxOccursLimit bounds the bounded occurrence counts that are expanded.
	MaxOccursLimit int
	// Strict omits the built-in fallback productions.
	Strict bool
}

// DefaultOptions returns the non-strict options with the default limits.
func DefaultOptions() Options {
	return Options{MaxGrammars: DefaultMaxGrammars, MaxOccursLimit: DefaultMaxOccursLimit}
}

// Arena holds every grammar of a schema. Index zero is reserved.
type Arena struct {
	Grammars []Grammar
	// Types maps a type ID to the first grammar of an element of that type.
	Types []Handle
	// Document is the start-document grammar.
	Document Handle
}

// Grammar returns the grammar for h.
func (a *Arena) Grammar(h Handle) *Grammar {
	return &a.Grammars[h]
}

// TypeGrammar returns the first grammar of elements of type id.
func (a *Arena) TypeGrammar(id schema.TypeID) Handle {
	if int(id) >= len(a.Types) {
		return 0
	}
	return a.Types[id]
}

// Len returns the number of grammars in the arena.
func (a *Arena) Len() int {
	return len(a.Grammars) - 1
}
