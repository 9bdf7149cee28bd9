package exi_test

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jacoelho/exi"
	"github.com/jacoelho/exi/errors"
)

const ordersXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           xmlns:o="urn:orders"
           xmlns:c="urn:common"
           targetNamespace="urn:orders"
           elementFormDefault="qualified">
  <xs:element name="orders">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="order" type="o:Order" maxOccurs="unbounded"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
  <xs:complexType name="Order">
    <xs:sequence>
      <xs:element name="sku" type="c:Sku"/>
      <xs:element name="price" type="xs:decimal"/>
      <xs:element name="when" type="xs:date" minOccurs="0"/>
    </xs:sequence>
    <xs:attribute name="rush" type="xs:boolean"/>
  </xs:complexType>
</xs:schema>`

const commonXSD = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:common">
  <xs:simpleType name="Sku">
    <xs:restriction base="xs:string"><xs:pattern value="[A-Z]{2}[0-9]{3}"/></xs:restriction>
  </xs:simpleType>
</xs:schema>`

const ordersXML = `<orders xmlns="urn:orders">
  <order rush="true"><sku>AB123</sku><price>12.50</price><when>2024-02-29</when></order>
  <order><sku>CD456</sku><price>-3</price></order>
</orders>`

func ordersFS() fstest.MapFS {
	return fstest.MapFS{
		"orders.xsd": &fstest.MapFile{Data: []byte(ordersXSD)},
		"common.xsd": &fstest.MapFile{Data: []byte(commonXSD)},
	}
}

func TestSchemaSetCompileMultipleDocuments(t *testing.T) {
	for _, strict := range []bool{false, true} {
		schema, err := exi.LoadWithOptions(ordersFS(), exi.NewOptions().WithStrict(strict), "orders.xsd", "common.xsd")
		if err != nil {
			t.Fatalf("strict=%t: Load() error = %v", strict, err)
		}
		if schema.Strict() != strict {
			t.Fatalf("Strict() = %t, want %t", schema.Strict(), strict)
		}
		data, err := schema.EncodeXML(strings.NewReader(ordersXML))
		if err != nil {
			t.Fatalf("strict=%t: EncodeXML() error = %v", strict, err)
		}
		var out bytes.Buffer
		if err := schema.DecodeXML(data, &out); err != nil {
			t.Fatalf("strict=%t: DecodeXML() error = %v", strict, err)
		}
		want := `<ns0:orders xmlns:ns0="urn:orders">` +
			`<ns0:order rush="true"><ns0:sku>AB123</ns0:sku><ns0:price>12.5</ns0:price><ns0:when>2024-02-29</ns0:when></ns0:order>` +
			`<ns0:order><ns0:sku>CD456</ns0:sku><ns0:price>-3.0</ns0:price></ns0:order>` +
			`</ns0:orders>`
		if out.String() != want {
			t.Fatalf("strict=%t: DecodeXML() =\n%s\nwant\n%s", strict, out.String(), want)
		}
	}
}

func TestSchemaSetDocumentOrderDoesNotMatter(t *testing.T) {
	a, err := exi.Load(ordersFS(), "orders.xsd", "common.xsd")
	if err != nil {
		t.Fatalf("Load(orders, common) error = %v", err)
	}
	b, err := exi.Load(ordersFS(), "common.xsd", "orders.xsd")
	if err != nil {
		t.Fatalf("Load(common, orders) error = %v", err)
	}
	da, err := a.EncodeXML(strings.NewReader(ordersXML))
	if err != nil {
		t.Fatalf("EncodeXML() error = %v", err)
	}
	db, err := b.EncodeXML(strings.NewReader(ordersXML))
	if err != nil {
		t.Fatalf("EncodeXML() error = %v", err)
	}
	if !bytes.Equal(da, db) {
		t.Fatalf("streams differ: %x vs %x", da, db)
	}
}

func TestSchemaSetErrors(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
		code errors.Code
	}{
		{
			name: "no documents",
			run: func() error {
				_, err := exi.NewSchemaSet().Compile()
				return err
			},
		},
		{
			name: "missing file",
			run: func() error {
				return exi.NewSchemaSet().AddFS(ordersFS(), "missing.xsd")
			},
		},
		{
			name: "unresolved type",
			run: func() error {
				_, err := exi.Load(ordersFS(), "orders.xsd")
				return err
			},
			code: errors.ErrSchemaReference,
		},
		{
			name: "duplicate",
			run: func() error {
				_, err := exi.Load(ordersFS(), "orders.xsd", "common.xsd", "common.xsd")
				return err
			},
			code: errors.ErrDuplicateComponent,
		},
		{
			name: "invalid options",
			run: func() error {
				set := exi.NewSchemaSet(exi.NewOptions().WithValueMaxLength(-2))
				if err := set.AddFS(ordersFS(), "common.xsd"); err != nil {
					return nil
				}
				_, err := set.Compile()
				return err
			},
			code: errors.ErrInvalidOption,
		},
		{
			name: "ambiguous content",
			run: func() error {
				set := exi.NewSchemaSet()
				if err := set.Add("upa.xsd", strings.NewReader(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="r">
    <xs:complexType>
      <xs:choice>
        <xs:sequence><xs:element name="a" type="xs:string"/><xs:element name="b" type="xs:string"/></xs:sequence>
        <xs:sequence><xs:element name="a" type="xs:string"/><xs:element name="c" type="xs:string"/></xs:sequence>
      </xs:choice>
    </xs:complexType>
  </xs:element>
</xs:schema>`)); err != nil {
					return nil
				}
				_, err := set.Compile()
				return err
			},
			code: errors.ErrAmbiguousContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil {
				t.Fatal("error = nil, want error")
			}
			if tt.code != "" && !errors.HasCode(err, tt.code) {
				t.Fatalf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestDuplicateLastWins(t *testing.T) {
	opts := exi.NewOptions().WithDuplicatePolicy(exi.DuplicateLastWins)
	if _, err := exi.LoadWithOptions(ordersFS(), opts, "orders.xsd", "common.xsd", "common.xsd"); err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
}

func TestNilSchema(t *testing.T) {
	var schema *exi.Schema
	if _, err := schema.EncodeXML(strings.NewReader("<a/>")); !errors.HasCode(err, errors.ErrSchemaNotLoaded) {
		t.Fatalf("EncodeXML() error = %v, want %s", err, errors.ErrSchemaNotLoaded)
	}
	if _, err := schema.NewDecoder(nil); !errors.HasCode(err, errors.ErrSchemaNotLoaded) {
		t.Fatalf("NewDecoder() error = %v, want %s", err, errors.ErrSchemaNotLoaded)
	}
	if err := schema.DumpGrammars(&bytes.Buffer{}); !errors.HasCode(err, errors.ErrSchemaNotLoaded) {
		t.Fatalf("DumpGrammars() error = %v, want %s", err, errors.ErrSchemaNotLoaded)
	}
}

func TestHeaderOption(t *testing.T) {
	withHeader, err := exi.Load(ordersFS(), "orders.xsd", "common.xsd")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	bare, err := exi.LoadWithOptions(ordersFS(), exi.NewOptions().WithHeader(false), "orders.xsd", "common.xsd")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	a, err := withHeader.EncodeXML(strings.NewReader(ordersXML))
	if err != nil {
		t.Fatalf("EncodeXML() error = %v", err)
	}
	b, err := bare.EncodeXML(strings.NewReader(ordersXML))
	if err != nil {
		t.Fatalf("EncodeXML() error = %v", err)
	}
	if a[0] != 0x80 {
		t.Fatalf("header byte = %#x, want 0x80", a[0])
	}
	if len(b) != len(a)-1 {
		t.Fatalf("bare stream is %d bytes, want %d", len(b), len(a)-1)
	}
	if _, err := withHeader.DecodeEvents(b); !errors.IsStream(err) {
		t.Fatalf("DecodeEvents() error = %v, want stream error", err)
	}
}

func TestEncoderEvents(t *testing.T) {
	schema, err := exi.Load(ordersFS(), "orders.xsd", "common.xsd")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	name := func(local string) exi.QName { return exi.QName{Space: "urn:orders", Local: local} }
	events := []exi.Event{
		{Kind: exi.StartDocument},
		{Kind: exi.StartElement, Name: name("orders")},
		{Kind: exi.StartElement, Name: name("order")},
		{Kind: exi.StartElement, Name: name("sku")},
		{Kind: exi.Characters, Value: "ZZ999"},
		{Kind: exi.EndElement, Name: name("sku")},
		{Kind: exi.StartElement, Name: name("price")},
		{Kind: exi.Characters, Value: "1.5"},
		{Kind: exi.EndElement, Name: name("price")},
		{Kind: exi.EndElement, Name: name("order")},
		{Kind: exi.EndElement, Name: name("orders")},
		{Kind: exi.EndDocument},
	}
	data, err := schema.EncodeEvents(events)
	if err != nil {
		t.Fatalf("EncodeEvents() error = %v", err)
	}
	got, err := schema.DecodeEvents(data)
	if err != nil {
		t.Fatalf("DecodeEvents() error = %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("decoded %d events, want %d", len(got), len(events))
	}
	for i := range events {
		if got[i].Kind != events[i].Kind || got[i].Name != events[i].Name || got[i].Value != events[i].Value {
			t.Fatalf("event %d = %s, want %s", i, got[i], events[i])
		}
	}
}
