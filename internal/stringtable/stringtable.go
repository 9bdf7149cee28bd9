// Package stringtable implements the per-document string tables: the URI
// partition, one local-name partition per URI and the global and per-name
// value partitions. Encoder and decoder apply identical updates so both sides
// stay in step without transmitting the tables.
package stringtable

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/jacoelho/exi/internal/bitio"
)

// Unbounded disables a value table limit.
const Unbounded = -1

// Options limits the value partitions.
type Options struct {
	// ValueMaxLength is the longest value, in characters, added to the value
	// partitions.
	ValueMaxLength int
	// ValuePartitionCapacity bounds the global value partition. A full
	// partition replaces its entries oldest first.
	ValuePartitionCapacity int
}

// DefaultOptions leaves both value limits unbounded.
func DefaultOptions() Options {
	return Options{ValueMaxLength: Unbounded, ValuePartitionCapacity: Unbounded}
}

// Name is an expanded name keying a local value partition.
type Name struct {
	Space string
	Local string
}

// Chars writes and reads the characters of a value that missed the tables.
// A nil Chars uses plain code points.
type Chars interface {
	WriteChars(w *bitio.Writer, s string)
	ReadChars(r *bitio.Reader, n uint64) (string, error)
}

// ErrUnknownID reports a compact identifier that names no table entry.
var ErrUnknownID = errors.New("stringtable: unknown compact identifier")

type globalEntry struct {
	value string
	owner Name
	local int
}

type localPartition struct {
	values []string
	index  map[string]int
}

// Tables is the mutable string table state of one document.
type Tables struct {
	uriIndex    map[string]int
	globalIndex map[string]int
	local       map[Name]*localPartition
	uris        []string
	names       []*localPartition
	global      []globalEntry
	opts        Options
	next        int
}

// New returns tables seeded with uris and, for URI i, the local names
// returned by locals(i).
func New(uris []string, locals func(i int) []string, opts Options) *Tables {
	t := &Tables{
		uriIndex:    make(map[string]int, len(uris)),
		globalIndex: make(map[string]int),
		local:       make(map[Name]*localPartition),
		opts:        opts,
	}
	for i, uri := range uris {
		t.addURI(uri)
		for _, name := range locals(i) {
			t.names[i].add(name)
		}
	}
	return t
}

func newPartition() *localPartition {
	return &localPartition{index: make(map[string]int)}
}

func (p *localPartition) add(s string) int {
	if id, ok := p.index[s]; ok {
		return id
	}
	p.index[s] = len(p.values)
	p.values = append(p.values, s)
	return len(p.values) - 1
}

func (t *Tables) addURI(uri string) int {
	t.uriIndex[uri] = len(t.uris)
	t.uris = append(t.uris, uri)
	t.names = append(t.names, newPartition())
	return len(t.uris) - 1
}

// URICount returns the number of entries in the URI partition.
func (t *Tables) URICount() int { return len(t.uris) }

// EncodeURI writes uri and returns its partition index. A hit writes index+1
// in ceil(log2(count+1)) bits; a miss writes 0 followed by the string.
func (t *Tables) EncodeURI(w *bitio.Writer, uri string) int {
	width := bitio.Width(len(t.uris) + 1)
	if id, ok := t.uriIndex[uri]; ok {
		w.WriteBits(uint64(id+1), width)
		return id
	}
	w.WriteBits(0, width)
	w.WriteString(uri)
	return t.addURI(uri)
}

// DecodeURI reads a URI written by EncodeURI.
func (t *Tables) DecodeURI(r *bitio.Reader) (int, string, error) {
	v, err := r.ReadBits(bitio.Width(len(t.uris) + 1))
	if err != nil {
		return 0, "", err
	}
	if v == 0 {
		uri, err := r.ReadString()
		if err != nil {
			return 0, "", err
		}
		if id, ok := t.uriIndex[uri]; ok {
			return id, uri, nil
		}
		return t.addURI(uri), uri, nil
	}
	id := int(v - 1)
	if id >= len(t.uris) {
		return 0, "", errors.Wrapf(ErrUnknownID, "uri %d of %d", id, len(t.uris))
	}
	return id, t.uris[id], nil
}

// EncodeLocalName writes local in the partition of URI ns. A hit writes
// unsigned 0 followed by the index; a miss writes length+1 and the string.
func (t *Tables) EncodeLocalName(w *bitio.Writer, ns int, local string) {
	p := t.names[ns]
	if id, ok := p.index[local]; ok {
		w.WriteUnsigned(0)
		w.WriteBits(uint64(id), bitio.Width(len(p.values)))
		return
	}
	w.WriteUnsigned(uint64(utf8.RuneCountInString(local)) + 1)
	w.WriteCodePoints(local)
	p.add(local)
}

// DecodeLocalName reads a local name written by EncodeLocalName.
func (t *Tables) DecodeLocalName(r *bitio.Reader, ns int) (string, error) {
	if ns < 0 || ns >= len(t.names) {
		return "", errors.Wrapf(ErrUnknownID, "uri %d", ns)
	}
	p := t.names[ns]
	n, err := r.ReadUnsigned()
	if err != nil {
		return "", err
	}
	if n == 0 {
		id, err := r.ReadBits(bitio.Width(len(p.values)))
		if err != nil {
			return "", err
		}
		if int(id) >= len(p.values) {
			return "", errors.Wrapf(ErrUnknownID, "local name %d of %d", id, len(p.values))
		}
		return p.values[id], nil
	}
	local, err := r.ReadCodePoints(n - 1)
	if err != nil {
		return "", err
	}
	p.add(local)
	return local, nil
}

// EncodeValue writes the value of an attribute or element named owner.
// A local hit writes unsigned 0 and the index in the owner's partition, a
// global hit writes unsigned 1 and the global index, and a miss writes
// length+2 followed by the string.
func (t *Tables) EncodeValue(w *bitio.Writer, owner Name, value string) {
	t.EncodeValueChars(w, owner, value, nil)
}

// EncodeValueChars is EncodeValue with the characters of a miss written by
// chars.
func (t *Tables) EncodeValueChars(w *bitio.Writer, owner Name, value string, chars Chars) {
	if p := t.local[owner]; p != nil {
		if id, ok := p.index[value]; ok {
			w.WriteUnsigned(0)
			w.WriteBits(uint64(id), bitio.Width(len(p.values)))
			return
		}
	}
	if id, ok := t.globalIndex[value]; ok {
		w.WriteUnsigned(1)
		w.WriteBits(uint64(id), bitio.Width(len(t.global)))
		return
	}
	w.WriteUnsigned(uint64(utf8.RuneCountInString(value)) + 2)
	if chars != nil {
		chars.WriteChars(w, value)
	} else {
		w.WriteCodePoints(value)
	}
	t.addValue(owner, value)
}

// DecodeValue reads a value written by EncodeValue.
func (t *Tables) DecodeValue(r *bitio.Reader, owner Name) (string, error) {
	return t.DecodeValueChars(r, owner, nil)
}

// DecodeValueChars is DecodeValue with the characters of a miss read by
// chars.
func (t *Tables) DecodeValueChars(r *bitio.Reader, owner Name, chars Chars) (string, error) {
	n, err := r.ReadUnsigned()
	if err != nil {
		return "", err
	}
	switch n {
	case 0:
		p := t.local[owner]
		if p == nil {
			return "", errors.Wrapf(ErrUnknownID, "empty local value partition for {%s}%s", owner.Space, owner.Local)
		}
		id, err := r.ReadBits(bitio.Width(len(p.values)))
		if err != nil {
			return "", err
		}
		if int(id) >= len(p.values) || p.values[id] == "" {
			return "", errors.Wrapf(ErrUnknownID, "local value %d", id)
		}
		return p.values[id], nil
	case 1:
		id, err := r.ReadBits(bitio.Width(len(t.global)))
		if err != nil {
			return "", err
		}
		if int(id) >= len(t.global) {
			return "", errors.Wrapf(ErrUnknownID, "global value %d of %d", id, len(t.global))
		}
		return t.global[id].value, nil
	}
	var value string
	if chars != nil {
		value, err = chars.ReadChars(r, n-2)
	} else {
		value, err = r.ReadCodePoints(n - 2)
	}
	if err != nil {
		return "", err
	}
	t.addValue(owner, value)
	return value, nil
}

// addValue records a miss. Empty values, values above ValueMaxLength and
// values already present are not added.
func (t *Tables) addValue(owner Name, value string) {
	if value == "" || t.opts.ValuePartitionCapacity == 0 {
		return
	}
	if t.opts.ValueMaxLength >= 0 && utf8.RuneCountInString(value) > t.opts.ValueMaxLength {
		return
	}
	if _, ok := t.globalIndex[value]; ok {
		return
	}
	p := t.local[owner]
	if p == nil {
		p = newPartition()
		t.local[owner] = p
	}
	entry := globalEntry{value: value, owner: owner, local: len(p.values)}
	p.index[value] = entry.local
	p.values = append(p.values, value)

	capacity := t.opts.ValuePartitionCapacity
	if capacity < 0 || len(t.global) < capacity {
		t.globalIndex[value] = len(t.global)
		t.global = append(t.global, entry)
		return
	}
	t.evict(t.next)
	t.global[t.next] = entry
	t.globalIndex[value] = t.next
	t.next = (t.next + 1) % capacity
}

// evict removes the global entry at id and blanks its local slot so the
// remaining local indices keep their positions.
func (t *Tables) evict(id int) {
	old := t.global[id]
	delete(t.globalIndex, old.value)
	if p := t.local[old.owner]; p != nil {
		delete(p.index, old.value)
		p.values[old.local] = ""
	}
}

// ValueCount returns the number of entries in the global value partition.
func (t *Tables) ValueCount() int { return len(t.global) }
