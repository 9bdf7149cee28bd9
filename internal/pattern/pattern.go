// Package pattern derives restricted character sets from XSD pattern facets.
package pattern

import (
	"fmt"
	"slices"
)

// MaxRestrictedChars is the exclusive upper bound on restricted set size.
const MaxRestrictedChars = 255

// maxRangeWidth caps how wide a character range may be before the set is
// treated as unbounded.
const maxRangeWidth = 4096

// charSet is a finite set of characters, or unbounded.
type charSet struct {
	runes     map[rune]struct{}
	unbounded bool
}

func newCharSet() *charSet {
	return &charSet{runes: make(map[rune]struct{})}
}

func (s *charSet) add(r rune) {
	if !s.unbounded {
		s.runes[r] = struct{}{}
	}
}

func (s *charSet) addRange(lo, hi rune) {
	if hi-lo >= maxRangeWidth {
		s.setUnbounded()
		return
	}
	for r := lo; r <= hi; r++ {
		s.add(r)
	}
}

func (s *charSet) setUnbounded() {
	s.unbounded = true
	s.runes = nil
}

func (s *charSet) union(o *charSet) {
	if o.unbounded {
		s.setUnbounded()
		return
	}
	for r := range o.runes {
		s.add(r)
	}
}

func (s *charSet) sorted() []rune {
	out := make([]rune, 0, len(s.runes))
	for r := range s.runes {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Charset returns every character that can appear in a string matching the
// XSD regular expression. bounded is false when the set is not finite in
// practice (wildcards, negated classes, category escapes, wide ranges).
func Charset(expr string) (chars []rune, bounded bool, err error) {
	p := &parser{src: []rune(expr)}
	set, err := p.regExp()
	if err != nil {
		return nil, false, err
	}
	if p.pos != len(p.src) {
		return nil, false, fmt.Errorf("pattern %q: unexpected %q at offset %d", expr, p.src[p.pos], p.pos)
	}
	if set.unbounded {
		return nil, false, nil
	}
	return set.sorted(), true, nil
}

// Restricted computes the restricted character set of a simple type whose
// derivation steps declare the given patterns. Patterns within one step are
// alternatives; steps all apply. ok is false when no step bounds the
// characters or the set has MaxRestrictedChars characters or more.
func Restricted(steps [][]string) (chars []rune, ok bool) {
	var result map[rune]struct{}
	for _, step := range steps {
		if len(step) == 0 {
			continue
		}
		stepSet := newCharSet()
		for _, expr := range step {
			cs, bounded, err := Charset(expr)
			if err != nil || !bounded {
				stepSet.setUnbounded()
				break
			}
			for _, r := range cs {
				stepSet.add(r)
			}
		}
		if stepSet.unbounded {
			continue
		}
		if result == nil {
			result = stepSet.runes
			continue
		}
		for r := range result {
			if _, keep := stepSet.runes[r]; !keep {
				delete(result, r)
			}
		}
	}
	if result == nil || len(result) >= MaxRestrictedChars {
		return nil, false
	}
	out := make([]rune, 0, len(result))
	for r := range result {
		out = append(out, r)
	}
	slices.Sort(out)
	return out, true
}
