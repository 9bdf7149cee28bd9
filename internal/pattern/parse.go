package pattern

import "fmt"

type parser struct {
	src []rune
	pos int
}

func (p *parser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("pattern %q: %s at offset %d", string(p.src), fmt.Sprintf(format, args...), p.pos)
}

// regExp ::= branch ( '|' branch )*
func (p *parser) regExp() (*charSet, error) {
	set := newCharSet()
	for {
		branch, err := p.branch()
		if err != nil {
			return nil, err
		}
		set.union(branch)
		if r, ok := p.peek(); ok && r == '|' {
			p.pos++
			continue
		}
		return set, nil
	}
}

// branch ::= piece*
func (p *parser) branch() (*charSet, error) {
	set := newCharSet()
	for {
		r, ok := p.peek()
		if !ok || r == '|' || r == ')' {
			return set, nil
		}
		atom, err := p.atom()
		if err != nil {
			return nil, err
		}
		if err := p.quantifier(); err != nil {
			return nil, err
		}
		set.union(atom)
	}
}

func (p *parser) quantifier() error {
	r, ok := p.peek()
	if !ok {
		return nil
	}
	switch r {
	case '?', '*', '+':
		p.pos++
	case '{':
		p.pos++
		digits := 0
		for {
			c, ok := p.peek()
			if !ok {
				return p.errorf("unterminated quantifier")
			}
			p.pos++
			if c == '}' {
				break
			}
			if (c < '0' || c > '9') && c != ',' {
				return p.errorf("invalid quantifier character %q", c)
			}
			if c != ',' {
				digits++
			}
		}
		if digits == 0 {
			return p.errorf("empty quantifier")
		}
	}
	return nil
}

func (p *parser) atom() (*charSet, error) {
	r, _ := p.peek()
	p.pos++
	switch r {
	case '(':
		set, err := p.regExp()
		if err != nil {
			return nil, err
		}
		if c, ok := p.peek(); !ok || c != ')' {
			return nil, p.errorf("missing ')'")
		}
		p.pos++
		return set, nil
	case '[':
		return p.charClass()
	case '\\':
		return p.escape()
	case '.':
		set := newCharSet()
		set.setUnbounded()
		return set, nil
	case '?', '*', '+', '{', '}', ']':
		return nil, p.errorf("unexpected %q", r)
	default:
		set := newCharSet()
		set.add(r)
		return set, nil
	}
}

// escape parses the text after a backslash.
func (p *parser) escape() (*charSet, error) {
	r, ok := p.peek()
	if !ok {
		return nil, p.errorf("trailing backslash")
	}
	p.pos++
	set := newCharSet()
	switch r {
	case 'n':
		set.add('\n')
	case 'r':
		set.add('\r')
	case 't':
		set.add('\t')
	case '\\', '|', '.', '-', '^', '?', '*', '+', '{', '}', '(', ')', '[', ']':
		set.add(r)
	case 's':
		for _, c := range " \t\n\r" {
			set.add(c)
		}
	case 'S', 'd', 'D', 'w', 'W', 'i', 'I', 'c', 'C':
		set.setUnbounded()
	case 'p', 'P':
		if c, ok := p.peek(); !ok || c != '{' {
			return nil, p.errorf("missing '{' after \\%c", r)
		}
		for {
			c, ok := p.peek()
			if !ok {
				return nil, p.errorf("unterminated category escape")
			}
			p.pos++
			if c == '}' {
				break
			}
		}
		set.setUnbounded()
	default:
		return nil, p.errorf("unknown escape \\%c", r)
	}
	return set, nil
}

// charClass parses a character class expression after '['.
func (p *parser) charClass() (*charSet, error) {
	set := newCharSet()
	negated := false
	if r, ok := p.peek(); ok && r == '^' {
		negated = true
		p.pos++
	}
	first := true
	for {
		r, ok := p.peek()
		if !ok {
			return nil, p.errorf("unterminated character class")
		}
		if r == ']' && !first {
			p.pos++
			break
		}
		if r == '-' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '[' {
			p.pos += 2
			if _, err := p.charClass(); err != nil {
				return nil, err
			}
			// subtraction only shrinks the set, so keeping the base is a sound superset
			if c, ok := p.peek(); !ok || c != ']' {
				return nil, p.errorf("subtraction must end the class")
			}
			p.pos++
			break
		}
		first = false
		lo, single, err := p.classAtom()
		if err != nil {
			return nil, err
		}
		if single == nil {
			if c, ok := p.peek(); ok && c == '-' && p.pos+1 < len(p.src) && p.src[p.pos+1] != ']' && p.src[p.pos+1] != '[' {
				p.pos++
				hi, hiSet, err := p.classAtom()
				if err != nil {
					return nil, err
				}
				if hiSet != nil || hi < lo {
					return nil, p.errorf("invalid range")
				}
				set.addRange(lo, hi)
				continue
			}
			set.add(lo)
			continue
		}
		set.union(single)
	}
	if negated {
		set.setUnbounded()
	}
	return set, nil
}

// classAtom returns either a single character or, for multi-character
// escapes, a set.
func (p *parser) classAtom() (rune, *charSet, error) {
	r, _ := p.peek()
	p.pos++
	if r != '\\' {
		if r == '[' {
			return 0, nil, p.errorf("unescaped '[' in class")
		}
		return r, nil, nil
	}
	set, err := p.escape()
	if err != nil {
		return 0, nil, err
	}
	if !set.unbounded && len(set.runes) == 1 {
		for c := range set.runes {
			return c, nil, nil
		}
	}
	return 0, set, nil
}
