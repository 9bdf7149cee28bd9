package bitio

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidth(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {64, 6}, {65, 7}, {4096, 12}, {4097, 13},
	}
	for _, tt := range tests {
		if got := Width(tt.count); got != tt.want {
			t.Fatalf("Width(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestBitsLayout(t *testing.T) {
	var w Writer
	w.WriteBits(0b10, 2)
	w.WriteBool(true)
	w.WriteBits(0b00001, 5)
	w.WriteBits(0b101, 3)
	assert.Equal(t, 11, w.Len())
	assert.Equal(t, []byte{0b10100001, 0b10100000}, w.Bytes())

	r := NewReader(w.Bytes())
	v, err := r.ReadBits(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b10), v)
	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)
	v, err = r.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b00001101), v)
	_, err = r.ReadBits(6)
	assert.ErrorIs(t, err, ErrPrematureEnd)
}

func TestUnsignedLayout(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}
	for _, tt := range tests {
		var w Writer
		w.WriteUnsigned(tt.v)
		assert.Equal(t, tt.want, w.Bytes(), "value %d", tt.v)
		got, err := NewReader(w.Bytes()).ReadUnsigned()
		require.NoError(t, err)
		assert.Equal(t, tt.v, got)
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	huge, ok := new(big.Int).SetString("-123456789012345678901234567890", 10)
	require.True(t, ok)
	values := []*big.Int{big.NewInt(0), big.NewInt(-1), big.NewInt(63), big.NewInt(-64), huge, new(big.Int).Neg(huge)}
	var w Writer
	for _, v := range values {
		w.WriteIntegerBig(v)
	}
	r := NewReader(w.Bytes())
	for _, v := range values {
		got, err := r.ReadInteger()
		require.NoError(t, err)
		assert.Equal(t, 0, v.Cmp(got), "want %s got %s", v, got)
	}
}

func TestIntegerSign(t *testing.T) {
	var w Writer
	w.WriteInteger(-1)
	// sign bit 1 then magnitude 0
	assert.Equal(t, []byte{0x80, 0x00}, w.Bytes())
}

func TestStringRoundTrip(t *testing.T) {
	var w Writer
	w.WriteString("héllo")
	w.WriteString("")
	r := NewReader(w.Bytes())
	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)
	s, err = r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestReadStringTruncated(t *testing.T) {
	var w Writer
	w.WriteUnsigned(50)
	w.WriteCodePoints("ab")
	_, err := NewReader(w.Bytes()).ReadString()
	assert.ErrorIs(t, err, ErrPrematureEnd)
}

func TestReadUnsignedOverflow(t *testing.T) {
	wide := new(big.Int).Lsh(big.NewInt(1), 70)
	var w Writer
	w.WriteUnsignedBig(wide)
	_, err := NewReader(w.Bytes()).ReadUnsigned()
	assert.ErrorIs(t, err, ErrOverflow)
	got, err := NewReader(w.Bytes()).ReadUnsignedBig()
	require.NoError(t, err)
	assert.Equal(t, 0, got.Cmp(wide))
}
