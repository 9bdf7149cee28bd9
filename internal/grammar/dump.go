package grammar

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jacoelho/exi/internal/schema"
)

// Dump writes the type-to-grammar table followed by every grammar with its
// event codes.
func Dump(w io.Writer, s *schema.Schema, a *Arena) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "document: G%d\n", a.Document)
	for id := 1; id < len(a.Types); id++ {
		if a.Types[id] == 0 {
			continue
		}
		fmt.Fprintf(bw, "type %s: G%d\n", s.TypeLabel(schema.TypeID(id)), a.Types[id])
	}
	for h := 1; h < len(a.Grammars); h++ {
		g := &a.Grammars[h]
		fmt.Fprintf(bw, "G%d", h)
		if g.Content {
			bw.WriteString(" content")
		}
		bw.WriteByte('\n')
		width := g.CodeWidth()
		for i, p := range g.Productions {
			code := "-"
			if width > 0 {
				code = fmt.Sprintf("%0*b", width, i)
			}
			fmt.Fprintf(bw, "  %s %s", code, p.Event.Format(&s.Corpus))
			if p.Next != 0 {
				fmt.Fprintf(bw, " -> G%d", p.Next)
			}
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}
