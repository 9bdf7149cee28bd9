package exi

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/golang/glog"

	"github.com/jacoelho/exi/internal/compiler"
	"github.com/jacoelho/exi/internal/xsdload"
)

type schemaSource struct {
	systemID string
	data     []byte
}

// SchemaSet owns schema documents and compiles them into a Schema.
// Every document of the schema must be added; include and import
// directives are not followed.
type SchemaSet struct {
	sources []schemaSource
	opts    Options
}

// NewSchemaSet creates an empty schema set.
func NewSchemaSet(opts ...Options) *SchemaSet {
	o := NewOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	return &SchemaSet{opts: o}
}

// WithOptions replaces the schema set options.
func (s *SchemaSet) WithOptions(opts Options) *SchemaSet {
	if s == nil {
		return nil
	}
	s.opts = opts
	return s
}

// Add adds one schema document read from r.
func (s *SchemaSet) Add(systemID string, r io.Reader) error {
	if s == nil {
		return fmt.Errorf("schema set: nil set")
	}
	if r == nil {
		return fmt.Errorf("schema set: nil reader for %s", systemID)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("schema set: read %s: %w", systemID, err)
	}
	s.sources = append(s.sources, schemaSource{systemID: systemID, data: data})
	return nil
}

// AddFS adds the schema document at location in fsys.
func (s *SchemaSet) AddFS(fsys fs.FS, location string) error {
	if s == nil {
		return fmt.Errorf("schema set: nil set")
	}
	if fsys == nil {
		return fmt.Errorf("schema set: nil fs")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return fmt.Errorf("schema set: empty location")
	}
	data, err := fs.ReadFile(fsys, location)
	if err != nil {
		return fmt.Errorf("schema set: %w", err)
	}
	s.sources = append(s.sources, schemaSource{systemID: location, data: data})
	return nil
}

// Compile reads every added document and builds the schema's grammars.
func (s *SchemaSet) Compile() (*Schema, error) {
	if s == nil {
		return nil, fmt.Errorf("compile schema set: nil set")
	}
	if len(s.sources) == 0 {
		return nil, fmt.Errorf("compile schema set: no schema documents added")
	}
	opts, err := s.opts.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("compile schema set: %w", err)
	}
	l := xsdload.New(opts.load)
	for _, src := range s.sources {
		if err := l.Add(src.systemID, bytes.NewReader(src.data)); err != nil {
			return nil, fmt.Errorf("compile schema set: %w", err)
		}
	}
	set, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("compile schema set: %w", err)
	}
	c, err := compiler.Compile(set, opts.compile)
	if err != nil {
		return nil, fmt.Errorf("compile schema set: %w", err)
	}
	glog.V(1).Infof("compiled schema set of %d documents (strict=%t)", len(s.sources), c.Strict())
	return &Schema{cache: c, session: opts.session}, nil
}
