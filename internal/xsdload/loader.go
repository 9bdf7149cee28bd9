// Package xsdload reads XML Schema documents into the content-model graph.
//
// It is a thin front end: documents are parsed into a DOM, their global
// components are indexed by expanded name and then resolved lazily, so
// components may reference each other across documents in any order.
// Schema location directives are not followed; callers add every document.
package xsdload

import (
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/model"
)

// DuplicatePolicy selects how a global component declared twice is handled.
type DuplicatePolicy uint8

const (
	// DuplicateError rejects the second declaration.
	DuplicateError DuplicatePolicy = iota
	// DuplicateLastWins keeps the declaration added last.
	DuplicateLastWins
)

// String returns the policy name.
func (p DuplicatePolicy) String() string {
	if p == DuplicateLastWins {
		return "last-wins"
	}
	return "error"
}

// Config controls loading.
type Config struct {
	Duplicates DuplicatePolicy
}

type document struct {
	root               *xmlquery.Node
	systemID           string
	targetNS           string
	elementQualified   bool
	attributeQualified bool
}

func (d *document) location() model.Location {
	return model.Location{SystemID: d.systemID}
}

// component is a schema element in the context of its document.
type component struct {
	doc  *document
	node *xmlquery.Node
}

func (c component) at(n *xmlquery.Node) component {
	return component{doc: c.doc, node: n}
}

type key struct {
	kind string
	name model.QName
}

// Loader collects schema documents.
type Loader struct {
	index  map[key]component
	docs   []*document
	order  []key
	config Config
}

// New returns an empty loader.
func New(cfg Config) *Loader {
	return &Loader{config: cfg, index: make(map[key]component)}
}

// Add parses one schema document and indexes its global components.
func (l *Loader) Add(systemID string, r io.Reader) error {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return errors.Wrapf(xerrors.New(xerrors.ErrSchemaParse, "malformed schema document").
			WithLocation(systemID, 0).Wrap(err), "load %s", systemID)
	}
	schema := xmlquery.QuerySelector(root, selSchema)
	if schema == nil {
		return errors.Wrapf(xerrors.New(xerrors.ErrSchemaParse, "document element is not xs:schema").
			WithLocation(systemID, 0), "load %s", systemID)
	}
	doc := &document{root: schema, systemID: systemID}
	doc.targetNS, _ = attr(schema, "targetNamespace")
	if v, ok := attr(schema, "elementFormDefault"); ok {
		doc.elementQualified = v == "qualified"
	}
	if v, ok := attr(schema, "attributeFormDefault"); ok {
		doc.attributeQualified = v == "qualified"
	}
	for _, dir := range xmlquery.QuerySelectorAll(schema, selDirective) {
		switch dir.Data {
		case "redefine", "override":
			return errors.Wrapf(xerrors.Newf(xerrors.ErrSchemaUnsupported, "xs:%s is not supported", dir.Data).
				WithLocation(systemID, 0), "load %s", systemID)
		default:
			loc, _ := attr(dir, "schemaLocation")
			glog.V(2).Infof("%s: ignoring xs:%s %s", systemID, dir.Data, loc)
		}
	}

	var errs xerrors.Collector
	staged := make(map[key]component)
	var order []key
	for _, n := range xmlquery.QuerySelectorAll(schema, selTopLevel) {
		name, ok := attr(n, "name")
		if !ok || name == "" {
			errs.Add(xerrors.Newf(xerrors.ErrSchemaParse, "global %s has no name", n.Data).
				WithLocation(systemID, 0))
			continue
		}
		k := key{kind: n.Data, name: model.QName{Space: doc.targetNS, Local: name}}
		_, seen := staged[k]
		if prev, ok := l.index[k]; (ok || seen) && l.config.Duplicates == DuplicateError {
			where := systemID
			if ok {
				where = prev.doc.systemID
			}
			errs.Add(xerrors.Newf(xerrors.ErrDuplicateComponent, "%s %s is already declared in %s", n.Data, k.name, where).
				WithComponent(k.name.String()).WithLocation(systemID, 0))
			continue
		}
		if _, ok := l.index[k]; !ok && !seen {
			order = append(order, k)
		}
		staged[k] = component{doc: doc, node: n}
	}
	if err := errs.Err(); err != nil {
		return errors.Wrapf(err, "load %s", systemID)
	}
	for k, c := range staged {
		l.index[k] = c
	}
	l.order = append(l.order, order...)
	l.docs = append(l.docs, doc)
	glog.V(1).Infof("%s: indexed %d global components (target namespace %q)", systemID, len(staged), doc.targetNS)
	return nil
}

func (l *Loader) lookup(kind string, name model.QName) (component, bool) {
	c, ok := l.index[key{kind: kind, name: name}]
	return c, ok
}

// Load resolves every global component of the added documents.
func (l *Loader) Load() (*model.Set, error) {
	if len(l.docs) == 0 {
		return nil, xerrors.New(xerrors.ErrSchemaNotLoaded, "no schema documents were added")
	}
	r := newResolver(l)
	for _, k := range l.order {
		switch k.kind {
		case "element":
			r.element(k.name)
		case "attribute":
			r.attribute(k.name)
		case "complexType", "simpleType":
			r.namedType(k.name)
		}
	}
	r.finalizeAll()
	if err := r.errs.Err(); err != nil {
		return nil, errors.Wrap(err, "resolve schema components")
	}
	glog.V(1).Infof("loaded %d elements, %d attributes and %d types from %d documents",
		len(r.set.Elements), len(r.set.Attributes), len(r.set.Types), len(l.docs))
	return r.set, nil
}
