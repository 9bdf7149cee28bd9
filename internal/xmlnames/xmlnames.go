// Package xmlnames holds the reserved XML prefixes and namespaces shared by
// the schema loader, the corpus and the document adapters.
package xmlnames

const (
	// XMLPrefix is the reserved prefix for the XML namespace.
	XMLPrefix = "xml"
	// XMLNSPrefix is the reserved prefix for namespace declarations.
	XMLNSPrefix = "xmlns"
	// XMLNamespace is the XML namespace URI.
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"
	// XSINamespace is the XML Schema instance namespace URI.
	XSINamespace = "http://www.w3.org/2001/XMLSchema-instance"
)

// NamespaceDecl reports whether the attribute named space:local declares a
// namespace, and the prefix it binds. The default declaration binds "".
func NamespaceDecl(space, local string) (string, bool) {
	switch {
	case space == XMLNSPrefix:
		return local, true
	case space == "" && local == XMLNSPrefix:
		return "", true
	}
	return "", false
}

// Qualify joins prefix and local, returning local alone for the empty prefix.
func Qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}
