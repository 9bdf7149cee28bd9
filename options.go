package exi

import (
	xerrors "github.com/jacoelho/exi/errors"
	"github.com/jacoelho/exi/internal/codec"
	"github.com/jacoelho/exi/internal/compiler"
	"github.com/jacoelho/exi/internal/grammar"
	"github.com/jacoelho/exi/internal/stringtable"
	"github.com/jacoelho/exi/internal/xsdload"
)

// Unbounded disables a string table limit.
const Unbounded = stringtable.Unbounded

// DuplicatePolicy selects how a global component declared in more than one
// schema document is handled.
type DuplicatePolicy = xsdload.DuplicatePolicy

const (
	// DuplicateError rejects the schema set.
	DuplicateError = xsdload.DuplicateError
	// DuplicateLastWins keeps the declaration added last.
	DuplicateLastWins = xsdload.DuplicateLastWins
)

type intOption struct {
	value int
	set   bool
}

func (o intOption) resolved(def int) int {
	if !o.set {
		return def
	}
	return o.value
}

// Options configures schema compilation and the sessions created from the
// compiled schema. The zero value is valid and selects the defaults.
type Options struct {
	valueMaxLength         intOption
	valuePartitionCapacity intOption
	maxGrammars            intOption
	maxOccursLimit         intOption
	duplicates             DuplicatePolicy
	strict                 bool
	omitHeader             bool
}

type resolvedOptions struct {
	compile compiler.Config
	load    xsdload.Config
	session codec.Options
}

// NewOptions returns a default, valid options value.
func NewOptions() Options {
	return Options{}
}

// WithStrict controls whether the built-in fallback productions are omitted.
// A strict schema rejects undeclared content and invalid values.
func (o Options) WithStrict(value bool) Options {
	o.strict = value
	return o
}

// WithValueMaxLength sets the longest value added to the value tables
// (Unbounded by default).
func (o Options) WithValueMaxLength(value int) Options {
	o.valueMaxLength = intOption{value: value, set: true}
	return o
}

// WithValuePartitionCapacity sets the global value table capacity
// (Unbounded by default). A full table replaces its oldest entry.
func (o Options) WithValuePartitionCapacity(value int) Options {
	o.valuePartitionCapacity = intOption{value: value, set: true}
	return o
}

// WithMaxGrammars sets the grammar count limit per type (0 uses default).
func (o Options) WithMaxGrammars(value int) Options {
	o.maxGrammars = intOption{value: value, set: true}
	return o
}

// WithMaxOccursLimit sets the largest bounded maxOccurs that is expanded (0 uses default).
func (o Options) WithMaxOccursLimit(value int) Options {
	o.maxOccursLimit = intOption{value: value, set: true}
	return o
}

// WithDuplicatePolicy sets how duplicate global declarations are handled.
func (o Options) WithDuplicatePolicy(value DuplicatePolicy) Options {
	o.duplicates = value
	return o
}

// WithHeader controls whether streams carry the EXI header (true by default).
func (o Options) WithHeader(value bool) Options {
	o.omitHeader = !value
	return o
}

// Strict reports whether the options select strict grammars.
func (o Options) Strict() bool { return o.strict }

// Validate validates option values.
func (o Options) Validate() error {
	_, err := o.withDefaults()
	return err
}

func (o Options) withDefaults() (resolvedOptions, error) {
	maxLength := o.valueMaxLength.resolved(Unbounded)
	if maxLength < Unbounded {
		return resolvedOptions{}, xerrors.Newf(xerrors.ErrInvalidOption, "value max length %d is negative", maxLength)
	}
	capacity := o.valuePartitionCapacity.resolved(Unbounded)
	if capacity < Unbounded {
		return resolvedOptions{}, xerrors.Newf(xerrors.ErrInvalidOption, "value partition capacity %d is negative", capacity)
	}
	maxGrammars := o.maxGrammars.resolved(0)
	if maxGrammars < 0 {
		return resolvedOptions{}, xerrors.Newf(xerrors.ErrInvalidOption, "max grammars %d is negative", maxGrammars)
	}
	maxOccurs := o.maxOccursLimit.resolved(0)
	if maxOccurs < 0 {
		return resolvedOptions{}, xerrors.Newf(xerrors.ErrInvalidOption, "max occurs limit %d is negative", maxOccurs)
	}
	switch o.duplicates {
	case DuplicateError, DuplicateLastWins:
	default:
		return resolvedOptions{}, xerrors.Newf(xerrors.ErrInvalidOption, "unknown duplicate policy %d", o.duplicates)
	}

	cfg := compiler.DefaultConfig()
	cfg.Grammar = grammar.Options{MaxGrammars: maxGrammars, MaxOccursLimit: maxOccurs, Strict: o.strict}
	return resolvedOptions{
		compile: cfg,
		load:    xsdload.Config{Duplicates: o.duplicates},
		session: codec.Options{
			Strings: stringtable.Options{ValueMaxLength: maxLength, ValuePartitionCapacity: capacity},
			Header:  !o.omitHeader,
		},
	}, nil
}
