package xsdload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/wildcard"
)

const ns = "urn:test"

func qn(local string) model.QName { return model.QName{Space: ns, Local: local} }

func schemaDoc(body string) string {
	return `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:t="urn:test"
  targetNamespace="urn:test" elementFormDefault="qualified">` + body + `</xs:schema>`
}

func load(t *testing.T, cfg Config, docs ...string) (*model.Set, error) {
	t.Helper()
	l := New(cfg)
	for i, doc := range docs {
		if err := l.Add("doc"+string(rune('0'+i))+".xsd", strings.NewReader(doc)); err != nil {
			return nil, err
		}
	}
	return l.Load()
}

func mustLoad(t *testing.T, docs ...string) *model.Set {
	t.Helper()
	set, err := load(t, Config{}, docs...)
	require.NoError(t, err)
	return set
}

func complexOf(t *testing.T, set *model.Set, local string) *model.ComplexType {
	t.Helper()
	ct, ok := set.Type(qn(local)).(*model.ComplexType)
	require.True(t, ok, "type %s", local)
	return ct
}

func TestLoadOrder(t *testing.T) {
	set := mustLoad(t, schemaDoc(`
  <xs:simpleType name="Small">
    <xs:restriction base="xs:int"><xs:minInclusive value="1"/><xs:maxInclusive value="8"/></xs:restriction>
  </xs:simpleType>
  <xs:complexType name="Order">
    <xs:sequence>
      <xs:element name="qty" type="t:Small"/>
      <xs:element name="color" minOccurs="0">
        <xs:simpleType>
          <xs:restriction base="xs:string">
            <xs:enumeration value="red"/><xs:enumeration value="green"/>
          </xs:restriction>
        </xs:simpleType>
      </xs:element>
      <xs:element name="note" type="xs:token" minOccurs="0" maxOccurs="unbounded"/>
    </xs:sequence>
    <xs:attribute name="id" type="xs:int" use="required"/>
  </xs:complexType>
  <xs:element name="order" type="t:Order"/>`))

	order := set.Element(qn("order"))
	require.NotNil(t, order)
	assert.True(t, order.Global)
	ct, ok := order.Type.(*model.ComplexType)
	require.True(t, ok)
	assert.Equal(t, qn("Order"), ct.Name)
	assert.Equal(t, model.ContentElementOnly, ct.Content)
	assert.Same(t, model.AnyType(), ct.Base)

	require.NotNil(t, ct.Particle)
	require.NotNil(t, ct.Particle.Group)
	assert.Equal(t, model.Sequence, ct.Particle.Group.Compositor)
	children := ct.Particle.Group.Particles
	require.Len(t, children, 3)
	assert.Equal(t, qn("qty"), children[0].Element.Name)
	assert.Same(t, set.Type(qn("Small")), model.Type(children[0].Element.Type))
	assert.Equal(t, 0, children[1].Min)
	color, ok := children[1].Element.Type.(*model.SimpleType)
	require.True(t, ok)
	assert.Equal(t, []string{"red", "green"}, color.Facets.Enumeration)
	assert.Same(t, model.Builtin("string"), color.Base)
	assert.Equal(t, model.Unbounded, children[2].Max)
	assert.Same(t, model.Builtin("token"), children[2].Element.Type)

	require.Len(t, ct.Attributes, 1)
	use := ct.Attributes[0]
	assert.True(t, use.Required)
	assert.Equal(t, model.QName{Local: "id"}, use.Attribute.Name)
	assert.Same(t, model.Builtin("int"), use.Attribute.Type)

	small, ok := set.Type(qn("Small")).(*model.SimpleType)
	require.True(t, ok)
	assert.Equal(t, "1", small.Facets.MinInclusive)
	assert.Equal(t, "8", small.Facets.MaxInclusive)
	assert.Equal(t, model.Unset, small.Facets.Length)
}

func TestLoadForms(t *testing.T) {
	set := mustLoad(t, `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:test"
  attributeFormDefault="qualified">
  <xs:element name="root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="plain" type="xs:string"/>
        <xs:element name="marked" type="xs:string" form="qualified"/>
      </xs:sequence>
      <xs:attribute name="a" type="xs:string"/>
      <xs:attribute name="b" type="xs:string" form="unqualified"/>
    </xs:complexType>
  </xs:element>
</xs:schema>`)
	root := set.Element(qn("root"))
	require.NotNil(t, root)
	ct := root.Type.(*model.ComplexType)
	assert.True(t, ct.Name.IsZero())
	children := ct.Particle.Group.Particles
	assert.Equal(t, model.QName{Local: "plain"}, children[0].Element.Name)
	assert.Equal(t, qn("marked"), children[1].Element.Name)
	assert.Equal(t, qn("a"), ct.Attributes[0].Attribute.Name)
	assert.Equal(t, model.QName{Local: "b"}, ct.Attributes[1].Attribute.Name)
}

func TestLoadDerivation(t *testing.T) {
	set := mustLoad(t, schemaDoc(`
  <xs:complexType name="Base">
    <xs:sequence><xs:element name="a" type="xs:string"/></xs:sequence>
    <xs:attribute name="x" type="xs:string"/>
    <xs:attribute name="y" type="xs:string"/>
  </xs:complexType>
  <xs:complexType name="Extended">
    <xs:complexContent>
      <xs:extension base="t:Base">
        <xs:sequence><xs:element name="b" type="xs:string"/></xs:sequence>
        <xs:attribute name="z" type="xs:string"/>
      </xs:extension>
    </xs:complexContent>
  </xs:complexType>
  <xs:complexType name="Restricted">
    <xs:complexContent>
      <xs:restriction base="t:Base">
        <xs:sequence><xs:element name="a" type="xs:string"/></xs:sequence>
        <xs:attribute name="y" use="prohibited"/>
      </xs:restriction>
    </xs:complexContent>
  </xs:complexType>
  <xs:complexType name="Priced">
    <xs:simpleContent>
      <xs:extension base="xs:decimal">
        <xs:attribute name="currency" type="xs:string" use="required"/>
      </xs:extension>
    </xs:simpleContent>
  </xs:complexType>
  <xs:complexType name="Cheap">
    <xs:simpleContent>
      <xs:restriction base="t:Priced"><xs:maxInclusive value="10"/></xs:restriction>
    </xs:simpleContent>
  </xs:complexType>`))

	base := complexOf(t, set, "Base")
	extended := complexOf(t, set, "Extended")
	assert.Equal(t, model.DerivationExtension, extended.Derivation)
	assert.Same(t, base, extended.Base)
	require.NotNil(t, extended.Particle.Group)
	parts := extended.Particle.Group.Particles
	require.Len(t, parts, 2)
	assert.Same(t, base.Particle, parts[0])
	assert.Equal(t, qn("b"), parts[1].Group.Particles[0].Element.Name)
	assert.Len(t, extended.Attributes, 3)

	restricted := complexOf(t, set, "Restricted")
	assert.Equal(t, model.DerivationRestriction, restricted.Derivation)
	require.Len(t, restricted.Attributes, 1)
	assert.Equal(t, "x", restricted.Attributes[0].Attribute.Name.Local)

	priced := complexOf(t, set, "Priced")
	assert.Equal(t, model.ContentSimple, priced.Content)
	assert.Same(t, model.Builtin("decimal"), priced.SimpleContent)
	require.Len(t, priced.Attributes, 1)
	assert.True(t, priced.Attributes[0].Required)

	cheap := complexOf(t, set, "Cheap")
	assert.Equal(t, model.ContentSimple, cheap.Content)
	require.NotNil(t, cheap.SimpleContent)
	assert.Same(t, model.Builtin("decimal"), cheap.SimpleContent.Base)
	assert.Equal(t, "10", cheap.SimpleContent.Facets.MaxInclusive)
	assert.Len(t, cheap.Attributes, 1)
}

func TestLoadDerivationBeforeBase(t *testing.T) {
	set := mustLoad(t, schemaDoc(`
  <xs:complexType name="Node">
    <xs:complexContent>
      <xs:extension base="t:Named">
        <xs:sequence><xs:element name="child" type="t:Node" minOccurs="0"/></xs:sequence>
      </xs:extension>
    </xs:complexContent>
  </xs:complexType>
  <xs:complexType name="Named">
    <xs:sequence><xs:element name="name" type="xs:string"/></xs:sequence>
  </xs:complexType>`))
	node := complexOf(t, set, "Node")
	parts := node.Particle.Group.Particles
	require.Len(t, parts, 2)
	assert.Equal(t, qn("name"), parts[0].Group.Particles[0].Element.Name)
	assert.Same(t, node, parts[1].Group.Particles[0].Element.Type)
}

func TestLoadSimpleTypes(t *testing.T) {
	set := mustLoad(t, schemaDoc(`
  <xs:simpleType name="Code">
    <xs:restriction base="xs:string">
      <xs:pattern value="[A-Z]+"/>
      <xs:pattern value="[0-9]+"/>
      <xs:maxLength value="4"/>
      <xs:whiteSpace value="collapse"/>
    </xs:restriction>
  </xs:simpleType>
  <xs:simpleType name="Codes"><xs:list itemType="t:Code"/></xs:simpleType>
  <xs:simpleType name="ShortCodes">
    <xs:restriction base="t:Codes"><xs:maxLength value="3"/></xs:restriction>
  </xs:simpleType>
  <xs:simpleType name="CodeOrInt">
    <xs:union memberTypes="t:Code xs:int">
      <xs:simpleType><xs:restriction base="xs:boolean"/></xs:simpleType>
    </xs:union>
  </xs:simpleType>`))

	code := set.Type(qn("Code")).(*model.SimpleType)
	assert.Equal(t, []string{"([A-Z]+)|([0-9]+)"}, code.Facets.Patterns)
	assert.Equal(t, 4, code.Facets.MaxLength)
	assert.Equal(t, "collapse", code.Facets.Whitespace)
	assert.Equal(t, model.VarietyAtomic, code.Variety)

	codes := set.Type(qn("Codes")).(*model.SimpleType)
	assert.Equal(t, model.VarietyList, codes.Variety)
	assert.Same(t, code, codes.Item)

	short := set.Type(qn("ShortCodes")).(*model.SimpleType)
	assert.Equal(t, model.VarietyList, short.Variety)
	assert.Same(t, code, short.Item)
	assert.Same(t, codes, short.Base)

	union := set.Type(qn("CodeOrInt")).(*model.SimpleType)
	assert.Equal(t, model.VarietyUnion, union.Variety)
	require.Len(t, union.Members, 3)
	assert.Same(t, code, union.Members[0])
	assert.Same(t, model.Builtin("int"), union.Members[1])
	assert.Same(t, model.Builtin("boolean"), union.Members[2].Base)
}

func TestLoadGroups(t *testing.T) {
	set := mustLoad(t, schemaDoc(`
  <xs:group name="pair">
    <xs:sequence>
      <xs:element name="left" type="xs:string"/>
      <xs:element name="right" type="xs:string"/>
    </xs:sequence>
  </xs:group>
  <xs:attributeGroup name="common">
    <xs:attribute name="lang" type="xs:language"/>
    <xs:anyAttribute namespace="##other" processContents="lax"/>
  </xs:attributeGroup>
  <xs:complexType name="Twice">
    <xs:sequence>
      <xs:group ref="t:pair"/>
      <xs:group ref="t:pair" minOccurs="0" maxOccurs="2"/>
      <xs:any namespace="##targetNamespace" processContents="skip"/>
    </xs:sequence>
    <xs:attributeGroup ref="t:common"/>
  </xs:complexType>`))

	twice := complexOf(t, set, "Twice")
	parts := twice.Particle.Group.Particles
	require.Len(t, parts, 3)
	assert.NotSame(t, parts[0], parts[1])
	assert.Equal(t, qn("pair"), parts[0].Group.Name)
	assert.Equal(t, qn("pair"), parts[1].Group.Name)
	assert.Equal(t, 1, parts[0].Max)
	assert.Equal(t, 0, parts[1].Min)
	assert.Equal(t, 2, parts[1].Max)

	wc := parts[2].Wildcard
	require.NotNil(t, wc)
	assert.Equal(t, wildcard.ProcessSkip, wc.Process)
	assert.True(t, wc.Constraint.Allows(ns))
	assert.False(t, wc.Constraint.Allows("urn:other"))

	require.Len(t, twice.Attributes, 1)
	assert.Equal(t, "lang", twice.Attributes[0].Attribute.Name.Local)
	require.NotNil(t, twice.AnyAttribute)
	assert.Equal(t, wildcard.ProcessLax, twice.AnyAttribute.Process)
	assert.False(t, twice.AnyAttribute.Constraint.Allows(ns))
	assert.True(t, twice.AnyAttribute.Constraint.Allows("urn:other"))
}

func TestLoadElements(t *testing.T) {
	set := mustLoad(t, schemaDoc(`
  <xs:element name="tree">
    <xs:complexType mixed="true">
      <xs:sequence><xs:element ref="t:tree" minOccurs="0" maxOccurs="unbounded"/></xs:sequence>
    </xs:complexType>
  </xs:element>
  <xs:element name="shape" abstract="true" type="xs:string"/>
  <xs:element name="circle" substitutionGroup="t:shape"/>
  <xs:element name="free"/>
  <xs:attribute name="lang" type="xs:language" default="en"/>`))

	tree := set.Element(qn("tree"))
	ct := tree.Type.(*model.ComplexType)
	assert.Equal(t, model.ContentMixed, ct.Content)
	assert.Same(t, tree, ct.Particle.Group.Particles[0].Element)

	shape := set.Element(qn("shape"))
	circle := set.Element(qn("circle"))
	assert.True(t, shape.Abstract)
	assert.Same(t, shape, circle.SubstitutionGroup)
	assert.Same(t, shape.Type, circle.Type)
	assert.Same(t, model.AnyType(), set.Element(qn("free")).Type)

	require.Len(t, set.Attributes, 1)
	lang := set.Attributes[0]
	assert.True(t, lang.Global)
	require.NotNil(t, lang.Default)
	assert.Equal(t, "en", *lang.Default)
}

func TestLoadAcrossDocuments(t *testing.T) {
	set := mustLoad(t,
		schemaDoc(`<xs:element name="item" type="o:Other" xmlns:o="urn:other"/>`),
		`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:other">
  <xs:complexType name="Other"><xs:sequence><xs:element name="v" type="xs:int"/></xs:sequence></xs:complexType>
</xs:schema>`)
	item := set.Element(qn("item"))
	require.NotNil(t, item)
	assert.Equal(t, model.QName{Space: "urn:other", Local: "Other"}, item.Type.TypeName())
	other := item.Type.(*model.ComplexType)
	assert.Equal(t, model.QName{Local: "v"}, other.Particle.Group.Particles[0].Element.Name)
}

func TestLoadDuplicates(t *testing.T) {
	first := schemaDoc(`<xs:element name="a" type="xs:string"/>`)
	second := schemaDoc(`<xs:element name="a" type="xs:int"/>`)

	_, err := load(t, Config{}, first, second)
	require.Error(t, err)
	assert.True(t, xerrors.HasCode(err, xerrors.ErrDuplicateComponent), err.Error())

	set, err := load(t, Config{Duplicates: DuplicateLastWins}, first, second)
	require.NoError(t, err)
	require.Len(t, set.Elements, 1)
	assert.Same(t, model.Builtin("int"), set.Elements[0].Type)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code xerrors.Code
	}{
		{name: "malformed", doc: `<xs:schema`, code: xerrors.ErrSchemaParse},
		{name: "not a schema", doc: `<root/>`, code: xerrors.ErrSchemaParse},
		{name: "unknown type", doc: schemaDoc(`<xs:element name="a" type="t:Missing"/>`), code: xerrors.ErrSchemaReference},
		{name: "undeclared prefix", doc: schemaDoc(`<xs:element name="a" type="p:T"/>`), code: xerrors.ErrSchemaReference},
		{name: "unknown group", doc: schemaDoc(`<xs:complexType name="T"><xs:group ref="t:g"/></xs:complexType>`), code: xerrors.ErrSchemaReference},
		{
			name: "recursive group",
			doc:  schemaDoc(`<xs:group name="g"><xs:sequence><xs:group ref="t:g"/></xs:sequence></xs:group><xs:complexType name="T"><xs:group ref="t:g"/></xs:complexType>`),
			code: xerrors.ErrSchemaReference,
		},
		{
			name: "type cycle",
			doc:  schemaDoc(`<xs:simpleType name="A"><xs:restriction base="t:B"/></xs:simpleType><xs:simpleType name="B"><xs:restriction base="t:A"/></xs:simpleType>`),
			code: xerrors.ErrTypeCycle,
		},
		{name: "bad occurs", doc: schemaDoc(`<xs:complexType name="T"><xs:sequence><xs:element name="a" maxOccurs="many"/></xs:sequence></xs:complexType>`), code: xerrors.ErrSchemaParse},
		{name: "bad facet", doc: schemaDoc(`<xs:simpleType name="S"><xs:restriction base="xs:string"><xs:length value="-1"/></xs:restriction></xs:simpleType>`), code: xerrors.ErrSchemaParse},
		{name: "unnamed global", doc: schemaDoc(`<xs:element type="xs:string"/>`), code: xerrors.ErrSchemaParse},
		{name: "redefine", doc: schemaDoc(`<xs:redefine schemaLocation="other.xsd"/>`), code: xerrors.ErrSchemaUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, Config{}, tt.doc)
			require.Error(t, err)
			assert.True(t, xerrors.HasCode(err, tt.code), err.Error())
		})
	}
}

func TestLoadWithoutDocuments(t *testing.T) {
	_, err := New(Config{}).Load()
	assert.True(t, xerrors.HasCode(err, xerrors.ErrSchemaNotLoaded))
}

func TestImportIsIgnored(t *testing.T) {
	set := mustLoad(t, schemaDoc(`<xs:import namespace="urn:other" schemaLocation="other.xsd"/><xs:element name="a" type="xs:string"/>`))
	assert.NotNil(t, set.Element(qn("a")))
}
