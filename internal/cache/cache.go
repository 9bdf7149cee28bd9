// Package cache is the Grammar Cache: the immutable result of compiling a
// schema, shared read-only by every encode and decode session.
package cache

import (
	"github.com/jacoelho/exi/internal/datatype"
	"github.com/jacoelho/exi/internal/grammar"
	"github.com/jacoelho/exi/internal/schema"
)

// Cache bundles the Schema Model, the datatype representations and the
// grammar arena. It is never mutated after New returns.
type Cache struct {
	schema *schema.Schema
	arena  *grammar.Arena
	reps   []*datatype.Representation
	strict bool
}

// New packages the compiled parts. reps is indexed by type ID.
func New(s *schema.Schema, reps []*datatype.Representation, arena *grammar.Arena, strict bool) *Cache {
	return &Cache{schema: s, reps: reps, arena: arena, strict: strict}
}

// Schema returns the Schema Model.
func (c *Cache) Schema() *schema.Schema { return c.schema }

// Arena returns the grammar arena.
func (c *Cache) Arena() *grammar.Arena { return c.arena }

// Strict reports whether the grammars were built without built-in fallbacks.
func (c *Cache) Strict() bool { return c.strict }

// Corpus returns the interned names of the schema.
func (c *Cache) Corpus() *schema.Corpus { return &c.schema.Corpus }

// Grammar returns the grammar for h.
func (c *Cache) Grammar(h grammar.Handle) *grammar.Grammar {
	return c.arena.Grammar(h)
}

// Document returns the start-document grammar.
func (c *Cache) Document() grammar.Handle {
	return c.arena.Document
}

// TypeGrammar returns the first grammar of elements of type id.
func (c *Cache) TypeGrammar(id schema.TypeID) grammar.Handle {
	return c.arena.TypeGrammar(id)
}

// Representation returns the wire representation of simple type id, or nil
// for complex and unknown types.
func (c *Cache) Representation(id schema.TypeID) *datatype.Representation {
	if int(id) >= len(c.reps) {
		return nil
	}
	return c.reps[id]
}

// AnyType returns the ID of xs:anyType.
func (c *Cache) AnyType() schema.TypeID { return c.schema.AnyType }

// AnySimpleType returns the ID of xs:anySimpleType.
func (c *Cache) AnySimpleType() schema.TypeID { return c.schema.AnySimpleType }

// ElementType returns the type of the global element named {space}local, or
// xs:anyType when no such element is declared.
func (c *Cache) ElementType(space, local string) schema.TypeID {
	if id, ok := c.schema.GlobalElement(space, local); ok {
		return c.schema.Element(id).Type
	}
	return c.schema.AnyType
}

// AttributeType returns the type of the global attribute named {space}local,
// or zero when no such attribute is declared.
func (c *Cache) AttributeType(space, local string) schema.TypeID {
	if id, ok := c.schema.GlobalAttribute(space, local); ok {
		return c.schema.Attribute(id).Type
	}
	return 0
}

// TypeByName returns the named global type.
func (c *Cache) TypeByName(space, local string) (schema.TypeID, bool) {
	return c.schema.TypeByName(space, local)
}

// URIs returns the namespace URIs that seed the URI string table.
func (c *Cache) URIs() []string {
	return c.schema.Corpus.URIs
}

// LocalNames returns the local names that seed the local-name partition of
// the namespace at index ns of URIs.
func (c *Cache) LocalNames(ns int) []string {
	if ns >= len(c.schema.Corpus.Locals) {
		return nil
	}
	return c.schema.Corpus.Locals[ns]
}
