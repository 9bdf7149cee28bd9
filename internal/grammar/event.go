package grammar

import (
	"fmt"
	"strings"

	"github.com/jacoelho/exi/internal/schema"
)

// EventKind is the category of an event type.
type EventKind uint8

const (
	// EventSD is start-document.
	EventSD EventKind = iota
	// EventED is end-document.
	EventED
	// EventSE is start-element with a fixed qualified name.
	EventSE
	// EventSEURI is start-element for any local name in one namespace.
	EventSEURI
	// EventSEAny is start-element for any qualified name.
	EventSEAny
	// EventAT is an attribute with a fixed qualified name.
	EventAT
	// EventATURI is an attribute for any local name in one namespace.
	EventATURI
	// EventATAny is an attribute with any qualified name.
	EventATAny
	// EventEE is end-element.
	EventEE
	// EventCH is character data.
	EventCH
)

var eventNames = [...]string{
	EventSD:    "SD",
	EventED:    "ED",
	EventSE:    "SE",
	EventSEURI: "SE",
	EventSEAny: "SE",
	EventAT:    "AT",
	EventATURI: "AT",
	EventATAny: "AT",
	EventEE:    "EE",
	EventCH:    "CH",
}

// String returns the short event name.
func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// IsStartElement reports whether k is one of the start-element kinds.
func (k EventKind) IsStartElement() bool {
	return k == EventSE || k == EventSEURI || k == EventSEAny
}

// IsAttribute reports whether k is one of the attribute kinds.
func (k EventKind) IsAttribute() bool {
	return k == EventAT || k == EventATURI || k == EventATAny
}

// EventType is one entry of a grammar's event type list.
//
// Name is set for EventSE and EventAT. NS is set for the URI wildcard kinds.
// Type is the child element type for EventSE and the value datatype for
// EventAT and EventCH; zero means the value is untyped or, for start-element
// wildcards, that the type is resolved from the element name. Wildcard names
// the schema wildcard a wildcard event was derived from. BuiltIn marks the
// fallback events added in non-strict mode.
type EventType struct {
	Name     schema.QName
	NS       schema.NamespaceID
	Type     schema.TypeID
	Wildcard schema.WildcardID
	Kind     EventKind
	BuiltIn  bool
}

// Format renders the event with names resolved through c.
func (e EventType) Format(c *schema.Corpus) string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteByte('(')
	switch e.Kind {
	case EventSE, EventAT:
		b.WriteString(c.Format(e.Name))
	case EventSEURI, EventATURI:
		fmt.Fprintf(&b, "{%s}*", c.URI(e.NS))
	case EventSEAny, EventATAny:
		b.WriteByte('*')
	}
	b.WriteByte(')')
	if e.BuiltIn {
		b.WriteString(" builtin")
	}
	return b.String()
}
