// Package bitio implements the bit-packed stream layer: fixed-width values,
// unsigned and signed variable-length integers and code-point strings.
package bitio

import (
	"errors"
	"math/big"
	"math/bits"
)

// ErrPrematureEnd reports a read past the end of the stream.
var ErrPrematureEnd = errors.New("bitio: premature end of stream")

// ErrOverflow reports an unsigned integer wider than the requested Go type.
var ErrOverflow = errors.New("bitio: integer overflow")

// Width returns the number of bits needed to distinguish count alternatives:
// ceil(log2(count)), and 0 for count <= 1.
func Width(count int) int {
	if count <= 1 {
		return 0
	}
	return bits.Len(uint(count - 1))
}

// Writer accumulates a bit-packed stream, most significant bit first.
// The zero value is ready to use.
type Writer struct {
	buf  []byte
	cur  byte
	used uint8
}

// WriteBits writes the low n bits of v.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.cur = w.cur<<1 | byte(v>>uint(i)&1)
		w.used++
		if w.used == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur, w.used = 0, 0
		}
	}
}

// WriteBool writes one bit.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteBits(1, 1)
		return
	}
	w.WriteBits(0, 1)
}

// WriteUnsigned writes v as 7-bit groups, least significant group first, each
// group in an octet whose high bit flags a following octet.
func (w *Writer) WriteUnsigned(v uint64) {
	for {
		b := v & 0x7f
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteBits(b, 8)
		if v == 0 {
			return
		}
	}
}

// WriteUnsignedBig writes a non-negative big integer like WriteUnsigned.
func (w *Writer) WriteUnsignedBig(v *big.Int) {
	if v.IsUint64() {
		w.WriteUnsigned(v.Uint64())
		return
	}
	rest := new(big.Int).Set(v)
	group := new(big.Int)
	mask := big.NewInt(0x7f)
	for {
		group.And(rest, mask)
		rest.Rsh(rest, 7)
		b := group.Uint64()
		if rest.Sign() != 0 {
			b |= 0x80
		}
		w.WriteBits(b, 8)
		if rest.Sign() == 0 {
			return
		}
	}
}

// WriteInteger writes a sign bit followed by the magnitude; negative values
// store -v-1.
func (w *Writer) WriteInteger(v int64) {
	if v < 0 {
		w.WriteBool(true)
		w.WriteUnsigned(uint64(-(v + 1)))
		return
	}
	w.WriteBool(false)
	w.WriteUnsigned(uint64(v))
}

// WriteIntegerBig writes an arbitrary-precision integer like WriteInteger.
func (w *Writer) WriteIntegerBig(v *big.Int) {
	if v.IsInt64() {
		w.WriteInteger(v.Int64())
		return
	}
	if v.Sign() < 0 {
		w.WriteBool(true)
		mag := new(big.Int).Neg(v)
		w.WriteUnsignedBig(mag.Sub(mag, big.NewInt(1)))
		return
	}
	w.WriteBool(false)
	w.WriteUnsignedBig(v)
}

// WriteCodePoints writes each character as an unsigned integer.
func (w *Writer) WriteCodePoints(s string) {
	for _, r := range s {
		w.WriteUnsigned(uint64(r))
	}
}

// WriteString writes the character count followed by the code points.
func (w *Writer) WriteString(s string) {
	w.WriteUnsigned(uint64(len([]rune(s))))
	w.WriteCodePoints(s)
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	return len(w.buf)*8 + int(w.used)
}

// Bytes returns the stream padded with zero bits to a whole octet.
func (w *Writer) Bytes() []byte {
	out := make([]byte, len(w.buf), len(w.buf)+1)
	copy(out, w.buf)
	if w.used > 0 {
		out = append(out, w.cur<<(8-w.used))
	}
	return out
}

// Reader consumes a bit-packed stream.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadBits reads n bits as an unsigned value.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if r.pos+n > len(r.data)*8 {
		return 0, ErrPrematureEnd
	}
	var v uint64
	for range n {
		b := r.data[r.pos>>3] >> (7 - uint(r.pos&7)) & 1
		v = v<<1 | uint64(b)
		r.pos++
	}
	return v, nil
}

// ReadBool reads one bit.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// ReadUnsigned reads an unsigned integer that must fit in uint64.
func (r *Reader) ReadUnsigned() (uint64, error) {
	v, err := r.ReadUnsignedBig()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}

// ReadUnsignedBig reads an unsigned integer of any size.
func (r *Reader) ReadUnsignedBig() (*big.Int, error) {
	var groups []uint64
	for {
		b, err := r.ReadBits(8)
		if err != nil {
			return nil, err
		}
		groups = append(groups, b&0x7f)
		if b&0x80 == 0 {
			break
		}
	}
	if len(groups) <= 9 {
		var v uint64
		for i := len(groups) - 1; i >= 0; i-- {
			v = v<<7 | groups[i]
		}
		return new(big.Int).SetUint64(v), nil
	}
	out := new(big.Int)
	for i := len(groups) - 1; i >= 0; i-- {
		out.Lsh(out, 7)
		out.Or(out, new(big.Int).SetUint64(groups[i]))
	}
	return out, nil
}

// ReadInteger reads a signed integer of any size.
func (r *Reader) ReadInteger() (*big.Int, error) {
	negative, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	mag, err := r.ReadUnsignedBig()
	if err != nil {
		return nil, err
	}
	if negative {
		mag.Add(mag, big.NewInt(1))
		mag.Neg(mag)
	}
	return mag, nil
}

// ReadCodePoints reads n characters.
func (r *Reader) ReadCodePoints(n uint64) (string, error) {
	if n > uint64(r.Remaining()/8) {
		return "", ErrPrematureEnd
	}
	out := make([]rune, 0, n)
	for range n {
		c, err := r.ReadUnsigned()
		if err != nil {
			return "", err
		}
		if c > 0x10FFFF {
			return "", ErrOverflow
		}
		out = append(out, rune(c))
	}
	return string(out), nil
}

// ReadString reads a character count followed by the code points.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUnsigned()
	if err != nil {
		return "", err
	}
	return r.ReadCodePoints(n)
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return len(r.data)*8 - r.pos
}
