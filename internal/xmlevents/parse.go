// Package xmlevents converts between XML text and codec event streams.
package xmlevents

import (
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/codec"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/xmlnames"
)

// Parse reads an XML document and returns its events, from start document
// to end document. Namespace declarations, comments and processing
// instructions are not events; adjacent text and CDATA sections form one
// characters event.
func Parse(r io.Reader) ([]codec.Event, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.Wrap(xerrors.New(xerrors.ErrMalformedDocument, "malformed XML document").Wrap(err), "parse document")
	}
	var root *xmlquery.Node
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			root = n
			break
		}
	}
	if root == nil {
		return nil, xerrors.New(xerrors.ErrMalformedDocument, "document has no root element")
	}
	events := []codec.Event{{Kind: codec.StartDocument}}
	events = appendElement(events, root)
	return append(events, codec.Event{Kind: codec.EndDocument}), nil
}

func appendElement(events []codec.Event, n *xmlquery.Node) []codec.Event {
	events = append(events, codec.Event{Kind: codec.StartElement, Name: elementName(n)})
	for _, a := range n.Attr {
		if isNamespaceDecl(a) {
			continue
		}
		events = append(events, codec.Event{
			Kind:  codec.Attribute,
			Name:  model.QName{Space: a.NamespaceURI, Local: a.Name.Local},
			Value: a.Value,
		})
	}
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			events = append(events, codec.Event{Kind: codec.Characters, Value: text.String()})
			text.Reset()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			text.WriteString(c.Data)
		case xmlquery.ElementNode:
			flush()
			events = appendElement(events, c)
		}
	}
	flush()
	return append(events, codec.Event{Kind: codec.EndElement, Name: elementName(n)})
}

func elementName(n *xmlquery.Node) model.QName {
	return model.QName{Space: n.NamespaceURI, Local: n.Data}
}

func isNamespaceDecl(a xmlquery.Attr) bool {
	_, ok := xmlnames.NamespaceDecl(a.Name.Space, a.Name.Local)
	return ok
}
