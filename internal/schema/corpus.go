package schema

import (
	"cmp"
	"slices"

	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/xmlnames"
)

// Namespaces with fixed positions at the start of every corpus.
const (
	XMLNamespace = xmlnames.XMLNamespace
	XSINamespace = xmlnames.XSINamespace
	XSDNamespace = model.XSDNamespace
)

// Fixed namespace IDs.
const (
	NamespaceEmpty NamespaceID = 0
	NamespaceXML   NamespaceID = 1
	NamespaceXSI   NamespaceID = 2
	NamespaceXSD   NamespaceID = 3
)

// Corpus interns every namespace URI and local name of a schema.
// URIs start with "", XML, XSI and XSD followed by the remaining namespaces in
// sorted order; each namespace's local names are sorted.
type Corpus struct {
	index  map[string]NamespaceID
	locals []map[string]uint32
	URIs   []string
	Locals [][]string
}

// Namespace returns the ID of uri.
func (c *Corpus) Namespace(uri string) (NamespaceID, bool) {
	id, ok := c.index[uri]
	return id, ok
}

// Lookup returns the interned name for space and local.
func (c *Corpus) Lookup(space, local string) (QName, bool) {
	ns, ok := c.index[space]
	if !ok {
		return QName{}, false
	}
	idx, ok := c.locals[ns][local]
	if !ok {
		return QName{}, false
	}
	return QName{NS: ns, Local: idx}, true
}

// URI returns the namespace URI of id.
func (c *Corpus) URI(id NamespaceID) string {
	return c.URIs[id]
}

// LocalName returns the local name of q.
func (c *Corpus) LocalName(q QName) string {
	return c.Locals[q.NS][q.Local]
}

// Expand converts q back to a model name.
func (c *Corpus) Expand(q QName) model.QName {
	return model.QName{Space: c.URIs[q.NS], Local: c.Locals[q.NS][q.Local]}
}

// Format renders q in Clark notation.
func (c *Corpus) Format(q QName) string {
	return c.Expand(q).String()
}

// Compare orders names by local name then URI.
func (c *Corpus) Compare(a, b QName) int {
	if n := cmp.Compare(c.LocalName(a), c.LocalName(b)); n != 0 {
		return n
	}
	return cmp.Compare(c.URIs[a.NS], c.URIs[b.NS])
}

type corpusBuilder struct {
	names map[string]map[string]struct{}
}

func newCorpusBuilder() *corpusBuilder {
	b := &corpusBuilder{names: make(map[string]map[string]struct{})}
	for _, uri := range []string{"", XMLNamespace, XSINamespace, XSDNamespace} {
		b.namespace(uri)
	}
	for _, local := range []string{"base", "id", "lang", "space"} {
		b.add(model.QName{Space: XMLNamespace, Local: local})
	}
	for _, local := range []string{"nil", "type"} {
		b.add(model.QName{Space: XSINamespace, Local: local})
	}
	return b
}

func (b *corpusBuilder) namespace(uri string) {
	if _, ok := b.names[uri]; !ok {
		b.names[uri] = make(map[string]struct{})
	}
}

func (b *corpusBuilder) add(name model.QName) {
	b.namespace(name.Space)
	b.names[name.Space][name.Local] = struct{}{}
}

func (b *corpusBuilder) build() Corpus {
	fixed := []string{"", XMLNamespace, XSINamespace, XSDNamespace}
	var rest []string
	for uri := range b.names {
		if !slices.Contains(fixed, uri) {
			rest = append(rest, uri)
		}
	}
	slices.Sort(rest)
	uris := append(fixed, rest...)
	c := Corpus{
		index:  make(map[string]NamespaceID, len(uris)),
		locals: make([]map[string]uint32, len(uris)),
		URIs:   uris,
		Locals: make([][]string, len(uris)),
	}
	for i, uri := range uris {
		c.index[uri] = NamespaceID(i)
		names := make([]string, 0, len(b.names[uri]))
		for local := range b.names[uri] {
			names = append(names, local)
		}
		slices.Sort(names)
		c.Locals[i] = names
		c.locals[i] = make(map[string]uint32, len(names))
		for j, local := range names {
			c.locals[i][local] = uint32(j)
		}
	}
	return c
}
