// Package compiler runs the schema compilation pipeline: content-model graph
// to Schema Model, datatype representations, grammars and finally the
// immutable Grammar Cache.
package compiler

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/cache"
	"github.com/jacoelho/exi/internal/datatype"
	"github.com/jacoelho/exi/internal/grammar"
	"github.com/jacoelho/exi/internal/model"
	"github.com/jacoelho/exi/internal/schema"
)

// Config controls compilation.
type Config struct {
	Grammar grammar.Options
}

// DefaultConfig returns the non-strict configuration with default limits.
func DefaultConfig() Config {
	return Config{Grammar: grammar.DefaultOptions()}
}

// Compile builds a Grammar Cache from set. Every stage runs to completion and
// records its failures; when any failure was recorded no cache is returned
// and the error carries the full errors.List.
func Compile(set *model.Set, cfg Config) (*cache.Cache, error) {
	if set == nil {
		return nil, xerrors.New(xerrors.ErrSchemaNotLoaded, "no schema content")
	}
	if cfg.Grammar.MaxGrammars <= 0 {
		cfg.Grammar.MaxGrammars = grammar.DefaultMaxGrammars
	}
	if cfg.Grammar.MaxOccursLimit <= 0 {
		cfg.Grammar.MaxOccursLimit = grammar.DefaultMaxOccursLimit
	}

	var errs xerrors.Collector
	s := schema.Build(set, &errs)
	if err := errs.Err(); err != nil {
		return nil, errors.Wrap(err, "build schema model")
	}
	glog.V(1).Infof("schema model: %d types, %d elements, %d particles", len(s.Types)-1, len(s.Elements)-1, len(s.Particles)-1)

	reps := datatype.SelectAll(s, &errs)
	if err := errs.Err(); err != nil {
		return nil, errors.Wrap(err, "select datatype representations")
	}
	if glog.V(2) {
		for id, rep := range reps {
			if rep != nil && !s.Types[id].Builtin {
				glog.Infof("type %s: %s", s.TypeLabel(schema.TypeID(id)), rep)
			}
		}
	}

	arena := grammar.Build(s, cfg.Grammar, &errs)
	if err := errs.Err(); err != nil {
		return nil, errors.Wrap(err, "build grammars")
	}
	return cache.New(s, reps, arena, cfg.Grammar.Strict), nil
}
