package codec

import (
	"fmt"

	"github.com/jacoelho/exi/internal/lexical"
	"github.com/jacoelho/exi/internal/model"
)

// EventKind is the kind of a document event.
type EventKind uint8

const (
	StartDocument EventKind = iota
	EndDocument
	StartElement
	EndElement
	Attribute
	Characters
)

var eventKindNames = [...]string{
	StartDocument: "start-document",
	EndDocument:   "end-document",
	StartElement:  "start-element",
	EndElement:    "end-element",
	Attribute:     "attribute",
	Characters:    "characters",
}

// String returns the event kind name.
func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one unit of document structure exchanged with the codec.
//
// Name is set for elements and attributes. Value is set for attributes and
// characters. On decoded events Typed reports that the value was coded with
// a schema datatype and Whitespace carries that datatype's normalization
// mode; the value itself is returned as it was stored.
type Event struct {
	Name       model.QName
	Value      string
	Kind       EventKind
	Whitespace lexical.WhitespaceMode
	Typed      bool
}

// Normalized returns Value with the datatype's whitespace mode applied.
func (e Event) Normalized() string {
	if !e.Typed {
		return e.Value
	}
	return lexical.Normalize(e.Whitespace, e.Value)
}

// String renders the event for diagnostics.
func (e Event) String() string {
	switch e.Kind {
	case StartElement, EndElement:
		return fmt.Sprintf("%s %s", e.Kind, e.Name)
	case Attribute:
		return fmt.Sprintf("%s %s=%q", e.Kind, e.Name, e.Value)
	case Characters:
		return fmt.Sprintf("%s %q", e.Kind, e.Value)
	default:
		return e.Kind.String()
	}
}
