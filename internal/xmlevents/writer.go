package xmlevents

import (
	"bufio"
	"encoding/xml"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jacoelho/exi/internal/codec"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/xmlnames"
)

type attribute struct {
	name  model.QName
	value string
}

// scope is one open element with the prefixes it declares.
type scope struct {
	prefixes map[string]string
	tag      string
}

// Writer renders an event stream as XML text. Namespaced names get
// generated prefixes declared on the element that first needs them.
type Writer struct {
	w       *bufio.Writer
	err     error
	pending *model.QName
	attrs   []attribute
	scopes  []scope
	next    int
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteEvent renders one event. End document flushes the output.
func (w *Writer) WriteEvent(ev codec.Event) error {
	if w.err != nil {
		return w.err
	}
	switch ev.Kind {
	case codec.StartDocument:
	case codec.StartElement:
		w.closeStart(false)
		name := ev.Name
		w.pending = &name
		w.attrs = w.attrs[:0]
	case codec.Attribute:
		if w.pending == nil {
			w.err = errors.Errorf("attribute %s outside a start tag", ev.Name)
			return w.err
		}
		w.attrs = append(w.attrs, attribute{name: ev.Name, value: ev.Value})
	case codec.Characters:
		w.closeStart(false)
		w.escape(ev.Value)
	case codec.EndElement:
		if w.pending != nil {
			w.closeStart(true)
		} else {
			if len(w.scopes) == 0 {
				w.err = errors.New("end element without an open element")
				return w.err
			}
			w.write("</", w.scopes[len(w.scopes)-1].tag, ">")
		}
		w.scopes = w.scopes[:len(w.scopes)-1]
	case codec.EndDocument:
		w.closeStart(false)
		if w.err == nil {
			w.err = w.w.Flush()
		}
	default:
		w.err = errors.Errorf("unknown event kind %s", ev.Kind)
	}
	return w.err
}

// Flush writes buffered output.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// closeStart writes the pending start tag. An element closed before any
// content is written as an empty-element tag.
func (w *Writer) closeStart(empty bool) {
	if w.pending == nil {
		return
	}
	name := *w.pending
	w.pending = nil
	w.scopes = append(w.scopes, scope{})
	var decls []attribute
	tag := w.qualify(name, &decls)
	w.scopes[len(w.scopes)-1].tag = tag
	names := make([]string, len(w.attrs))
	for i, a := range w.attrs {
		names[i] = w.qualify(a.name, &decls)
	}
	w.write("<", tag)
	for _, d := range decls {
		w.write(" xmlns:", d.name.Local, `="`)
		w.escape(d.value)
		w.write(`"`)
	}
	for i, a := range w.attrs {
		w.write(" ", names[i], `="`)
		w.escape(a.value)
		w.write(`"`)
	}
	if empty {
		w.write("/>")
		return
	}
	w.write(">")
}

// qualify returns the lexical name for q, declaring a prefix on the
// current element when none is in scope.
func (w *Writer) qualify(q model.QName, decls *[]attribute) string {
	if q.Space == "" {
		return q.Local
	}
	if q.Space == xmlnames.XMLNamespace {
		return xmlnames.Qualify(xmlnames.XMLPrefix, q.Local)
	}
	for i := len(w.scopes) - 1; i >= 0; i-- {
		if prefix, ok := w.scopes[i].prefixes[q.Space]; ok {
			return xmlnames.Qualify(prefix, q.Local)
		}
	}
	prefix := "ns" + strconv.Itoa(w.next)
	w.next++
	cur := &w.scopes[len(w.scopes)-1]
	if cur.prefixes == nil {
		cur.prefixes = make(map[string]string)
	}
	cur.prefixes[q.Space] = prefix
	*decls = append(*decls, attribute{name: model.QName{Local: prefix}, value: q.Space})
	return xmlnames.Qualify(prefix, q.Local)
}

func (w *Writer) escape(s string) {
	if w.err != nil {
		return
	}
	w.err = xml.EscapeText(w.w, []byte(s))
}

func (w *Writer) write(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = w.w.WriteString(p)
	}
}

// Render writes events as one XML document.
func Render(out io.Writer, events []codec.Event) error {
	w := NewWriter(out)
	for _, ev := range events {
		if err := w.WriteEvent(ev); err != nil {
			return err
		}
	}
	return w.Flush()
}
