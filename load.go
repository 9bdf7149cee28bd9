package exi

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load compiles the schema documents at locations in fsys with default options.
func Load(fsys fs.FS, locations ...string) (*Schema, error) {
	return LoadWithOptions(fsys, NewOptions(), locations...)
}

// LoadWithOptions compiles the schema documents at locations in fsys.
func LoadWithOptions(fsys fs.FS, opts Options, locations ...string) (*Schema, error) {
	set := NewSchemaSet(opts)
	for _, location := range locations {
		if err := set.AddFS(fsys, location); err != nil {
			return nil, fmt.Errorf("load schema %s: %w", location, err)
		}
	}
	schema, err := set.Compile()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return schema, nil
}

// LoadFile compiles the schema documents at the given file paths.
func LoadFile(opts Options, paths ...string) (*Schema, error) {
	set := NewSchemaSet(opts)
	for _, path := range paths {
		if err := set.AddFS(os.DirFS(filepath.Dir(path)), filepath.Base(path)); err != nil {
			return nil, fmt.Errorf("load schema %s: %w", path, err)
		}
	}
	schema, err := set.Compile()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return schema, nil
}
