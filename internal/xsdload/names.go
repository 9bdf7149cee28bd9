package xsdload

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/xmlnames"
)

// xsdChildren compiles a selector for the child elements in the XSD
// namespace with any of the given local names.
func xsdChildren(names ...string) *xpath.Expr {
	terms := make([]string, len(names))
	for i, name := range names {
		terms[i] = fmt.Sprintf("local-name()='%s'", name)
	}
	return xpath.MustCompile(fmt.Sprintf("*[namespace-uri()='%s' and (%s)]",
		model.XSDNamespace, strings.Join(terms, " or ")))
}

var (
	selSchema = xpath.MustCompile(fmt.Sprintf("/*[namespace-uri()='%s' and local-name()='schema']", model.XSDNamespace))

	selTopLevel       = xsdChildren("element", "attribute", "complexType", "simpleType", "group", "attributeGroup")
	selDirective      = xsdChildren("include", "import", "redefine", "override")
	selComplexType    = xsdChildren("complexType")
	selSimpleType     = xsdChildren("simpleType")
	selSimpleContent  = xsdChildren("simpleContent")
	selComplexContent = xsdChildren("complexContent")
	selDerivation     = xsdChildren("restriction", "extension")
	selRestriction    = xsdChildren("restriction")
	selList           = xsdChildren("list")
	selUnion          = xsdChildren("union")
	selContent        = xsdChildren("sequence", "choice", "all", "group")
	selCompositor     = xsdChildren("sequence", "choice", "all")
	selParticles      = xsdChildren("element", "sequence", "choice", "all", "group", "any")
	selAttributeUses  = xsdChildren("attribute", "attributeGroup")
	selAnyAttribute   = xsdChildren("anyAttribute")
	selFacets         = xsdChildren("enumeration", "pattern", "whiteSpace",
		"minInclusive", "maxInclusive", "minExclusive", "maxExclusive",
		"length", "minLength", "maxLength", "totalDigits", "fractionDigits")
)

// attr returns the value of the unqualified attribute local on n.
func attr(n *xmlquery.Node, local string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func optional(n *xmlquery.Node, local string) *string {
	v, ok := attr(n, local)
	if !ok {
		return nil
	}
	return &v
}

// namespaceFor resolves prefix against the namespace declarations in scope
// at n. The empty prefix without a default declaration is no namespace.
func namespaceFor(n *xmlquery.Node, prefix string) (string, bool) {
	if prefix == xmlnames.XMLPrefix {
		return xmlnames.XMLNamespace, true
	}
	for cur := n; cur != nil; cur = cur.Parent {
		for _, a := range cur.Attr {
			if bound, ok := xmlnames.NamespaceDecl(a.Name.Space, a.Name.Local); ok && bound == prefix {
				return a.Value, true
			}
		}
	}
	return "", prefix == ""
}

// resolveQName expands a prefixed name in the scope of n.
func resolveQName(n *xmlquery.Node, raw string) (model.QName, error) {
	raw = strings.TrimSpace(raw)
	prefix, local, ok := strings.Cut(raw, ":")
	if !ok {
		prefix, local = "", raw
	}
	if local == "" {
		return model.QName{}, fmt.Errorf("invalid QName %q", raw)
	}
	ns, found := namespaceFor(n, prefix)
	if !found {
		return model.QName{}, fmt.Errorf("prefix %q of %q is not declared", prefix, raw)
	}
	return model.QName{Space: ns, Local: local}, nil
}

// label names the nearest named schema component enclosing n.
func label(n *xmlquery.Node) string {
	for cur := n; cur != nil && cur.Type == xmlquery.ElementNode; cur = cur.Parent {
		if name, ok := attr(cur, "name"); ok {
			return cur.Data + " " + name
		}
		if ref, ok := attr(cur, "ref"); ok && cur == n {
			return cur.Data + " ref " + ref
		}
	}
	return n.Data
}
