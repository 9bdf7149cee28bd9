package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinHierarchy(t *testing.T) {
	byteType := Builtin("byte")
	require.NotNil(t, byteType)
	assert.Equal(t, "short", byteType.Base.Name.Local)
	assert.True(t, DerivesFrom(byteType, "integer"))
	assert.True(t, DerivesFrom(byteType, "decimal"))
	assert.False(t, DerivesFrom(byteType, "string"))
	assert.Equal(t, "decimal", Primitive(byteType).Name.Local)
	assert.Equal(t, "string", Primitive(Builtin("NCName")).Name.Local)
	assert.Nil(t, Primitive(Builtin("anySimpleType")))
	assert.Nil(t, Primitive(Builtin("IDREFS")))
	assert.Equal(t, 0, Builtin("integer").Facets.FractionDigits)
	assert.Equal(t, Unset, Builtin("decimal").Facets.FractionDigits)
	assert.Same(t, Builtin("string"), Builtin("string"))
}

func TestBuiltinNames(t *testing.T) {
	names := BuiltinNames()
	assert.Equal(t, "anySimpleType", names[0])
	for _, name := range names {
		assert.NotNil(t, Builtin(name), name)
	}
}

func TestSetLookup(t *testing.T) {
	ct := EmptyType(QName{Space: "urn:t", Local: "T"})
	el := GlobalElement(QName{Space: "urn:t", Local: "e"}, ct)
	set := &Set{Elements: []*Element{el}, Types: []Type{ct}}

	assert.Same(t, el, set.Element(el.Name))
	assert.Nil(t, set.Element(QName{Local: "e"}))
	assert.Equal(t, Type(ct), set.Type(ct.Name))
	assert.Equal(t, Type(AnyType()), set.Type(QName{Space: XSDNamespace, Local: "anyType"}))
	assert.Equal(t, Type(Builtin("int")), set.Type(QName{Space: XSDNamespace, Local: "int"}))
}

func TestAnyType(t *testing.T) {
	at := AnyType()
	assert.Equal(t, ContentMixed, at.Content)
	require.NotNil(t, at.Particle.Group)
	assert.Equal(t, Unbounded, at.Particle.Group.Particles[0].Max)
	assert.NotNil(t, at.AnyAttribute)
	assert.Equal(t, "{"+XSDNamespace+"}anyType", at.Name.String())
}
