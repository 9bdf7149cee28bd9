package schema

// NamespaceID indexes Corpus.URIs.
type NamespaceID uint32

// TypeID indexes Schema.Types. Zero means none.
type TypeID uint32

// ElemID indexes Schema.Elements. Zero means none.
type ElemID uint32

// AttrID indexes Schema.Attributes. Zero means none.
type AttrID uint32

// ParticleID indexes Schema.Particles. Zero means none.
type ParticleID uint32

// WildcardID indexes Schema.Wildcards. Zero means none.
type WildcardID uint32

// VariantID indexes Schema.Variants. Zero means none.
type VariantID uint32

// QName is an interned expanded name: a namespace and an index into that
// namespace's local-name list.
type QName struct {
	NS    NamespaceID
	Local uint32
}
