// Package wildcard implements the namespace-constraint algebra of XSD wildcards.
package wildcard

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the shape of a resolved namespace constraint.
type Kind uint8

const (
	// Any allows every namespace, including no namespace.
	Any Kind = iota
	// Not allows every namespace except the listed ones.
	Not
	// List allows only the listed namespaces. "" stands for no namespace.
	List
)

// Constraint is a namespace constraint with ##targetNamespace and ##local
// already resolved. Namespaces is sorted and free of duplicates.
type Constraint struct {
	Namespaces []string
	Kind       Kind
}

// ProcessContents is the processContents attribute of a wildcard.
type ProcessContents uint8

const (
	ProcessStrict ProcessContents = iota
	ProcessLax
	ProcessSkip
)

// String returns the attribute spelling.
func (p ProcessContents) String() string {
	switch p {
	case ProcessLax:
		return "lax"
	case ProcessSkip:
		return "skip"
	default:
		return "strict"
	}
}

// ParseProcessContents parses a processContents attribute value. The empty
// string yields the default, strict.
func ParseProcessContents(s string) (ProcessContents, error) {
	switch s {
	case "", "strict":
		return ProcessStrict, nil
	case "lax":
		return ProcessLax, nil
	case "skip":
		return ProcessSkip, nil
	default:
		return ProcessStrict, fmt.Errorf("invalid processContents %q", s)
	}
}

// StrongerOrEqual reports whether derived is at least as strict as base.
func StrongerOrEqual(derived, base ProcessContents) bool {
	switch base {
	case ProcessStrict:
		return derived == ProcessStrict
	case ProcessLax:
		return derived == ProcessLax || derived == ProcessStrict
	default:
		return true
	}
}

// Wildcard is an element or attribute wildcard.
type Wildcard struct {
	Constraint Constraint
	Process    ProcessContents
}

// AnyNamespace is the ##any constraint.
func AnyNamespace() Constraint { return Constraint{Kind: Any} }

// NewList returns a List constraint over the given namespaces.
func NewList(namespaces ...string) Constraint {
	return Constraint{Kind: List, Namespaces: normalize(namespaces)}
}

// NewNot returns a Not constraint excluding the given namespaces.
func NewNot(namespaces ...string) Constraint {
	return Constraint{Kind: Not, Namespaces: normalize(namespaces)}
}

// Parse resolves the namespace attribute of xs:any or xs:anyAttribute.
// The empty attribute means ##any.
func Parse(attr, targetNS string) (Constraint, error) {
	value := strings.TrimSpace(attr)
	switch value {
	case "", "##any":
		return AnyNamespace(), nil
	case "##other":
		return NewNot(targetNS, ""), nil
	}
	var list []string
	for _, token := range strings.Fields(value) {
		switch token {
		case "##targetNamespace":
			list = append(list, targetNS)
		case "##local":
			list = append(list, "")
		case "##any", "##other":
			return Constraint{}, fmt.Errorf("namespace %q cannot appear in a list", token)
		default:
			list = append(list, token)
		}
	}
	return NewList(list...), nil
}

func normalize(namespaces []string) []string {
	out := slices.Clone(namespaces)
	slices.Sort(out)
	return slices.Compact(out)
}

func contains(list []string, ns string) bool {
	_, found := slices.BinarySearch(list, ns)
	return found
}

// Allows reports whether ns is permitted.
func (c Constraint) Allows(ns string) bool {
	switch c.Kind {
	case Any:
		return true
	case Not:
		return !contains(c.Namespaces, ns)
	case List:
		return contains(c.Namespaces, ns)
	default:
		return false
	}
}

// Subset reports whether every namespace allowed by derived is allowed by base.
func Subset(derived, base Constraint) bool {
	switch derived.Kind {
	case Any:
		return base.Kind == Any
	case Not:
		switch base.Kind {
		case Any:
			return true
		case Not:
			for _, ns := range base.Namespaces {
				if !contains(derived.Namespaces, ns) {
					return false
				}
			}
			return true
		default:
			return false
		}
	case List:
		for _, ns := range derived.Namespaces {
			if !base.Allows(ns) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Overlaps reports whether some namespace is allowed by both constraints.
func Overlaps(a, b Constraint) bool {
	switch {
	case a.Kind == Any || b.Kind == Any:
		return true
	case a.Kind == Not && b.Kind == Not:
		// a finite exclusion list always leaves some namespace allowed
		return true
	case a.Kind == List:
		for _, ns := range a.Namespaces {
			if b.Allows(ns) {
				return true
			}
		}
		return false
	default:
		return Overlaps(b, a)
	}
}

// Union returns a constraint allowing every namespace allowed by a or b.
func Union(a, b Constraint) Constraint {
	switch {
	case a.Kind == Any || b.Kind == Any:
		return AnyNamespace()
	case a.Kind == List && b.Kind == List:
		return NewList(append(slices.Clone(a.Namespaces), b.Namespaces...)...)
	case a.Kind == Not && b.Kind == Not:
		var keep []string
		for _, ns := range a.Namespaces {
			if contains(b.Namespaces, ns) {
				keep = append(keep, ns)
			}
		}
		if len(keep) == 0 {
			return AnyNamespace()
		}
		return NewNot(keep...)
	case a.Kind == List:
		return Union(b, a)
	default:
		var keep []string
		for _, ns := range a.Namespaces {
			if !contains(b.Namespaces, ns) {
				keep = append(keep, ns)
			}
		}
		if len(keep) == 0 {
			return AnyNamespace()
		}
		return NewNot(keep...)
	}
}

// String renders the constraint in XSD attribute syntax.
func (c Constraint) String() string {
	switch c.Kind {
	case Any:
		return "##any"
	case Not:
		return "not(" + quoteList(c.Namespaces) + ")"
	default:
		return quoteList(c.Namespaces)
	}
}

func quoteList(list []string) string {
	parts := make([]string, len(list))
	for i, ns := range list {
		if ns == "" {
			parts[i] = "##local"
		} else {
			parts[i] = ns
		}
	}
	return strings.Join(parts, " ")
}
