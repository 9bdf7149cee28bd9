// Package errors defines the error taxonomy reported by schema compilation
// and by encode/decode sessions.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error by the stage that produced it.
type Kind uint8

const (
	// KindUsage reports API misuse (nil schema, closed session).
	KindUsage Kind = iota
	// KindSchemaLoad reports schema documents that could not be read into a content model.
	KindSchemaLoad
	// KindStructural reports grammar construction failures (UPA, all-group, restriction).
	KindStructural
	// KindRepresentation reports inconsistent facet sets found while selecting a representation.
	KindRepresentation
	// KindContentMismatch reports encoder input that the grammar or datatype does not admit.
	KindContentMismatch
	// KindStream reports corrupt or truncated binary input.
	KindStream
)

// String returns a stable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindSchemaLoad:
		return "schema-load"
	case KindStructural:
		return "structural"
	case KindRepresentation:
		return "representation"
	case KindContentMismatch:
		return "content-mismatch"
	case KindStream:
		return "stream"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Code identifies a specific error condition.
// XSD-derived conditions reuse the W3C constraint names.
type Code string

const (
	// ErrSchemaNotLoaded indicates an operation on a nil or empty schema.
	ErrSchemaNotLoaded Code = "exi-schema-not-loaded"
	// ErrSessionFailed indicates a call on a session that already failed or finished.
	ErrSessionFailed Code = "exi-session-failed"
	// ErrInvalidOption indicates an out-of-range option value.
	ErrInvalidOption Code = "exi-invalid-option"
	// ErrMalformedDocument indicates XML input that is not well-formed.
	ErrMalformedDocument Code = "exi-malformed-document"

	// ErrSchemaParse indicates a schema document is not well-formed or not an xs:schema.
	ErrSchemaParse Code = "exi-schema-parse"
	// ErrSchemaReference indicates a reference to an undeclared component.
	ErrSchemaReference Code = "src-resolve"
	// ErrDuplicateComponent indicates two global components share a name.
	ErrDuplicateComponent Code = "sch-props-correct.2"
	// ErrSchemaUnsupported indicates a schema construct the front end does not read.
	ErrSchemaUnsupported Code = "exi-schema-unsupported"

	// ErrAmbiguousContent indicates a Unique Particle Attribution violation.
	ErrAmbiguousContent Code = "cos-nonambig"
	// ErrAllGroupNesting indicates an all group used below the top of a content model.
	ErrAllGroupNesting Code = "cos-all-limited.1"
	// ErrAllGroupOccurs indicates an all group or member with illegal occurrence bounds.
	ErrAllGroupOccurs Code = "cos-all-limited.2"
	// ErrRestrictionParticle indicates a restricting particle that does not map onto its base.
	ErrRestrictionParticle Code = "cos-particle-restrict"
	// ErrRestrictionWildcard indicates a restricting wildcard that widens its base.
	ErrRestrictionWildcard Code = "cos-ns-subset"
	// ErrOccursRange indicates maxOccurs below minOccurs.
	ErrOccursRange Code = "p-props-correct.2"
	// ErrOccursLimit indicates a bounded occurrence above the configured expansion limit.
	ErrOccursLimit Code = "exi-occurs-limit"
	// ErrGrammarLimit indicates grammar construction exceeded the configured grammar count.
	ErrGrammarLimit Code = "exi-grammar-limit"
	// ErrTypeCycle indicates a type derived from itself.
	ErrTypeCycle Code = "ct-props-correct.3"

	// ErrFacetInconsistent indicates a facet set the representation selector cannot honor.
	ErrFacetInconsistent Code = "exi-facet-inconsistent"

	// ErrUnexpectedEvent indicates an event with no matching production.
	ErrUnexpectedEvent Code = "exi-unexpected-event"
	// ErrValueMismatch indicates a value outside the datatype's lexical or value space.
	ErrValueMismatch Code = "exi-value-mismatch"
	// ErrEnumerationMismatch indicates a value absent from a closed enumeration.
	ErrEnumerationMismatch Code = "exi-enumeration-mismatch"

	// ErrInvalidHeader indicates a stream that does not start with a supported header.
	ErrInvalidHeader Code = "exi-invalid-header"
	// ErrPrematureEnd indicates the stream ended before the document did.
	ErrPrematureEnd Code = "exi-premature-end"
	// ErrInvalidEventCode indicates an event code outside the current event list.
	ErrInvalidEventCode Code = "exi-invalid-event-code"
	// ErrInvalidStreamValue indicates encoded content that cannot be decoded.
	ErrInvalidStreamValue Code = "exi-invalid-stream-value"
)

var codeKinds = map[Code]Kind{
	ErrSchemaNotLoaded:     KindUsage,
	ErrSessionFailed:       KindUsage,
	ErrInvalidOption:       KindUsage,
	ErrMalformedDocument:   KindContentMismatch,
	ErrSchemaParse:         KindSchemaLoad,
	ErrSchemaReference:     KindSchemaLoad,
	ErrDuplicateComponent:  KindSchemaLoad,
	ErrSchemaUnsupported:   KindSchemaLoad,
	ErrAmbiguousContent:    KindStructural,
	ErrAllGroupNesting:     KindStructural,
	ErrAllGroupOccurs:      KindStructural,
	ErrRestrictionParticle: KindStructural,
	ErrRestrictionWildcard: KindStructural,
	ErrOccursRange:         KindStructural,
	ErrOccursLimit:         KindStructural,
	ErrGrammarLimit:        KindStructural,
	ErrTypeCycle:           KindStructural,
	ErrFacetInconsistent:   KindRepresentation,
	ErrUnexpectedEvent:     KindContentMismatch,
	ErrValueMismatch:       KindContentMismatch,
	ErrEnumerationMismatch: KindContentMismatch,
	ErrInvalidHeader:       KindStream,
	ErrPrematureEnd:        KindStream,
	ErrInvalidEventCode:    KindStream,
	ErrInvalidStreamValue:  KindStream,
}

// Kind returns the class the code belongs to.
func (c Code) Kind() Kind {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return KindUsage
}

// Error describes one failure with its code and optional context.
type Error struct {
	Err       error
	Code      Code
	Message   string
	Component string
	Value     string
	Path      string
	Location  string
	Line      int
	HasValue  bool
}

// New builds an Error with a code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf formats a message and builds an Error.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// WithComponent returns a copy naming the offending schema component.
func (e *Error) WithComponent(component string) *Error {
	out := *e
	out.Component = component
	return &out
}

// WithValue returns a copy carrying the offending literal value.
func (e *Error) WithValue(value string) *Error {
	out := *e
	out.Value = value
	out.HasValue = true
	return &out
}

// WithPath returns a copy carrying the open element path.
func (e *Error) WithPath(path string) *Error {
	out := *e
	out.Path = path
	return &out
}

// WithLocation returns a copy carrying a source location.
func (e *Error) WithLocation(location string, line int) *Error {
	out := *e
	out.Location = location
	out.Line = line
	return &out
}

// Wrap returns a copy with err as its cause.
func (e *Error) Wrap(err error) *Error {
	out := *e
	out.Err = err
	return &out
}

// Kind returns the class of the error.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindUsage
	}
	return e.Code.Kind()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Error formats the error with code, message and context.
func (e *Error) Error() string {
	if e == nil {
		return "exi error <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Component != "" {
		fmt.Fprintf(&b, " (component: %s)", e.Component)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Location != "" {
		if e.Line > 0 {
			fmt.Fprintf(&b, " in %s:%d", e.Location, e.Line)
		} else {
			fmt.Fprintf(&b, " in %s", e.Location)
		}
	}
	if e.HasValue {
		fmt.Fprintf(&b, " (value: %q)", e.Value)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// List is an error that wraps one or more errors.
type List []*Error //nolint:errname // mirrors Error naming.

// Error returns a compact summary of the errors.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
	}
}

// Unwrap exposes the list members to errors.Is and errors.As.
func (l List) Unwrap() []error {
	out := make([]error, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// As extracts every Error carried by err.
func As(err error) ([]*Error, bool) {
	if err == nil {
		return nil, false
	}
	var list List
	if errors.As(err, &list) {
		return []*Error(list), true
	}
	var single *Error
	if errors.As(err, &single) && single != nil {
		return []*Error{single}, true
	}
	return nil, false
}

// HasCode reports whether err carries an Error with the given code.
func HasCode(err error, code Code) bool {
	list, ok := As(err)
	if !ok {
		return false
	}
	for _, e := range list {
		if e.Code == code {
			return true
		}
	}
	return false
}

// IsKind reports whether err carries an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	list, ok := As(err)
	if !ok {
		return false
	}
	for _, e := range list {
		if e.Kind() == kind {
			return true
		}
	}
	return false
}

// IsStructural reports whether err is a grammar construction failure.
func IsStructural(err error) bool { return IsKind(err, KindStructural) }

// IsContentMismatch reports whether err is an encoder content mismatch.
func IsContentMismatch(err error) bool { return IsKind(err, KindContentMismatch) }

// IsStream reports whether err is a corrupt-stream failure.
func IsStream(err error) bool { return IsKind(err, KindStream) }
