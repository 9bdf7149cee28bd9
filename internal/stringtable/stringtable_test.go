package stringtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/exi/internal/bitio"
)

func seeded(opts Options) *Tables {
	uris := []string{"", "urn:a"}
	locals := [][]string{{"x"}, {"a", "b", "c"}}
	return New(uris, func(i int) []string { return locals[i] }, opts)
}

func TestURIPartition(t *testing.T) {
	enc, dec := seeded(DefaultOptions()), seeded(DefaultOptions())
	var w bitio.Writer
	assert.Equal(t, 1, enc.EncodeURI(&w, "urn:a"))
	// two entries plus the miss code need 2 bits
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, 2, enc.EncodeURI(&w, "urn:new"))
	assert.Equal(t, 2, enc.EncodeURI(&w, "urn:new"))
	assert.Equal(t, 3, enc.URICount())

	r := bitio.NewReader(w.Bytes())
	for _, want := range []string{"urn:a", "urn:new", "urn:new"} {
		_, got, err := dec.DecodeURI(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLocalNamePartition(t *testing.T) {
	enc, dec := seeded(DefaultOptions()), seeded(DefaultOptions())
	var w bitio.Writer
	enc.EncodeLocalName(&w, 1, "c")
	// unsigned 0 then 2 index bits
	assert.Equal(t, 10, w.Len())
	enc.EncodeLocalName(&w, 1, "dd")
	enc.EncodeLocalName(&w, 1, "dd")
	enc.EncodeLocalName(&w, 0, "x")

	r := bitio.NewReader(w.Bytes())
	for _, tc := range []struct {
		ns   int
		want string
	}{{1, "c"}, {1, "dd"}, {1, "dd"}, {0, "x"}} {
		got, err := dec.DecodeLocalName(r, tc.ns)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestValuePartitions(t *testing.T) {
	a := Name{Space: "urn:a", Local: "a"}
	b := Name{Space: "urn:a", Local: "b"}
	enc, dec := seeded(DefaultOptions()), seeded(DefaultOptions())

	var w bitio.Writer
	enc.EncodeValue(&w, a, "red")
	miss := w.Len()
	enc.EncodeValue(&w, a, "red")
	assert.Equal(t, 8, w.Len()-miss, "local hit in a one-entry partition is the unsigned 0 only")
	enc.EncodeValue(&w, b, "red")
	enc.EncodeValue(&w, b, "")
	assert.Equal(t, 1, enc.ValueCount())

	r := bitio.NewReader(w.Bytes())
	for _, tc := range []struct {
		owner Name
		want  string
	}{{a, "red"}, {a, "red"}, {b, "red"}, {b, ""}} {
		got, err := dec.DecodeValue(r, tc.owner)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestValueMaxLength(t *testing.T) {
	opts := DefaultOptions()
	opts.ValueMaxLength = 3
	tables := seeded(opts)
	owner := Name{Local: "x"}
	var w bitio.Writer
	tables.EncodeValue(&w, owner, "abcd")
	tables.EncodeValue(&w, owner, "abc")
	assert.Equal(t, 1, tables.ValueCount())

	opts.ValuePartitionCapacity = 0
	none := seeded(opts)
	none.EncodeValue(&w, owner, "abc")
	assert.Equal(t, 0, none.ValueCount())
}

func TestValueEviction(t *testing.T) {
	opts := DefaultOptions()
	opts.ValuePartitionCapacity = 2
	enc, dec := seeded(opts), seeded(opts)
	owner := Name{Local: "x"}
	values := []string{"one", "two", "three", "one", "three", "two"}

	var w bitio.Writer
	for _, v := range values {
		enc.EncodeValue(&w, owner, v)
	}
	assert.Equal(t, 2, enc.ValueCount())
	// one, two, then three replaces one, one replaces two and two replaces three
	assert.Equal(t, "two", enc.global[0].value)
	assert.Equal(t, "one", enc.global[1].value)
	_, ok := enc.globalIndex["three"]
	assert.False(t, ok)

	r := bitio.NewReader(w.Bytes())
	for _, want := range values {
		got, err := dec.DecodeValue(r, owner)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecodeUnknownID(t *testing.T) {
	tables := seeded(DefaultOptions())
	var w bitio.Writer
	w.WriteUnsigned(1)
	w.WriteBits(0, 1)
	_, err := tables.DecodeValue(bitio.NewReader(w.Bytes()), Name{Local: "x"})
	require.ErrorIs(t, err, ErrUnknownID)

	_, err = tables.DecodeLocalName(bitio.NewReader(nil), 9)
	require.ErrorIs(t, err, ErrUnknownID)
}
