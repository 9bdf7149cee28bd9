package grammar

import "encoding/binary"

// dedupe merges equivalent grammars by partition refinement. Grammars start
// in blocks keyed by their event lists and are split until every production
// of a block leads to the same block; each block then keeps one grammar.
// Handles into the arena are rewritten.
func (a *Arena) dedupe() {
	n := len(a.Grammars)
	if n <= 1 {
		return
	}
	block := make([]uint64, n)
	count := a.partition(block, func(buf []byte, h int) []byte {
		return signature(buf, &a.Grammars[h])
	})
	for {
		prev := block
		next := make([]uint64, n)
		refined := a.partition(next, func(buf []byte, h int) []byte {
			buf = binary.AppendUvarint(buf, prev[h])
			for _, p := range a.Grammars[h].Productions {
				buf = binary.AppendUvarint(buf, prev[p.Next])
			}
			return buf
		})
		block = next
		if refined == count {
			break
		}
		count = refined
	}

	remap := make([]Handle, n)
	first := make(map[uint64]Handle, count)
	grammars := make([]Grammar, 1, count+1)
	for h := 1; h < n; h++ {
		if kept, ok := first[block[h]]; ok {
			remap[h] = kept
			continue
		}
		kept := Handle(len(grammars))
		first[block[h]] = kept
		remap[h] = kept
		grammars = append(grammars, a.Grammars[h])
	}
	for i := 1; i < len(grammars); i++ {
		prods := make([]Production, len(grammars[i].Productions))
		for j, p := range grammars[i].Productions {
			p.Next = remap[p.Next]
			prods[j] = p
		}
		grammars[i].Productions = prods
	}
	for id, h := range a.Types {
		a.Types[id] = remap[h]
	}
	a.Document = remap[a.Document]
	a.Grammars = grammars
}

// partition assigns block numbers by key. Block zero is the terminal handle.
func (a *Arena) partition(block []uint64, key func(buf []byte, h int) []byte) int {
	ids := make(map[string]uint64)
	var buf []byte
	for h := 1; h < len(a.Grammars); h++ {
		buf = key(buf[:0], h)
		id, ok := ids[string(buf)]
		if !ok {
			id = uint64(len(ids) + 1)
			ids[string(buf)] = id
		}
		block[h] = id
	}
	return len(ids)
}

func signature(buf []byte, g *Grammar) []byte {
	if g.Content {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	for _, p := range g.Productions {
		e := p.Event
		buf = append(buf, byte(e.Kind))
		if e.BuiltIn {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = binary.AppendUvarint(buf, uint64(e.Name.NS))
		buf = binary.AppendUvarint(buf, uint64(e.Name.Local))
		buf = binary.AppendUvarint(buf, uint64(e.NS))
		buf = binary.AppendUvarint(buf, uint64(e.Type))
		buf = binary.AppendUvarint(buf, uint64(e.Wildcard))
	}
	return buf
}
