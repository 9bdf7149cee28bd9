package lexical

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jacoelho/exi/internal/num"
)

// Duration holds the components of an xs:duration value as written.
// Components are not carried over (PT90M stays 90 minutes).
type Duration struct {
	Seconds  num.Dec
	Years    uint64
	Months   uint64
	Days     uint64
	Hours    uint64
	Minutes  uint64
	Negative bool
}

// ParseDuration parses an xs:duration lexical value.
func ParseDuration(lexical string) (Duration, error) {
	s := TrimXMLWhitespace(lexical)
	var d Duration
	if strings.HasPrefix(s, "-") {
		d.Negative = true
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return Duration{}, fmt.Errorf("invalid duration %q: must start with P", lexical)
	}
	s = s[1:]
	datePart, timePart, hasT := strings.Cut(s, "T")
	if hasT && timePart == "" {
		return Duration{}, fmt.Errorf("invalid duration %q: T without time components", lexical)
	}
	seen := 0
	dateFields := []durationField{{&d.Years, 'Y'}, {&d.Months, 'M'}, {&d.Days, 'D'}}
	rest, n, err := durationFields(datePart, dateFields)
	if err != nil || rest != "" {
		return Duration{}, fmt.Errorf("invalid duration %q", lexical)
	}
	seen += n
	if hasT {
		timeFields := []durationField{{&d.Hours, 'H'}, {&d.Minutes, 'M'}}
		rest, n, err = durationFields(timePart, timeFields)
		if err != nil {
			return Duration{}, fmt.Errorf("invalid duration %q", lexical)
		}
		seen += n
		if rest != "" {
			if !strings.HasSuffix(rest, "S") {
				return Duration{}, fmt.Errorf("invalid duration %q", lexical)
			}
			sec, perr := num.ParseDec([]byte(rest[:len(rest)-1]))
			if perr != nil || sec.Sign < 0 || strings.ContainsAny(rest, "+-") {
				return Duration{}, fmt.Errorf("invalid duration %q: bad seconds", lexical)
			}
			d.Seconds = sec
			seen++
		} else if n == 0 {
			return Duration{}, fmt.Errorf("invalid duration %q: T without time components", lexical)
		}
	}
	if seen == 0 {
		return Duration{}, fmt.Errorf("invalid duration %q: no components", lexical)
	}
	return d, nil
}

type durationField struct {
	dst        *uint64
	designator byte
}

func durationFields(s string, fields []durationField) (string, int, error) {
	n := 0
	for _, f := range fields {
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == 0 || i == len(s) || s[i] != f.designator {
			continue
		}
		v, err := strconv.ParseUint(s[:i], 10, 64)
		if err != nil {
			return s, n, err
		}
		*f.dst = v
		s = s[i+1:]
		n++
	}
	return s, n, nil
}

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d.Years == 0 && d.Months == 0 && d.Days == 0 &&
		d.Hours == 0 && d.Minutes == 0 && d.Seconds.Sign == 0
}

// Render returns the canonical lexical form: zero components are omitted and
// the zero duration is "PT0S".
func (d Duration) Render() string {
	if d.IsZero() {
		return "PT0S"
	}
	var b strings.Builder
	if d.Negative {
		b.WriteByte('-')
	}
	b.WriteByte('P')
	writeComponent(&b, d.Years, 'Y')
	writeComponent(&b, d.Months, 'M')
	writeComponent(&b, d.Days, 'D')
	if d.Hours != 0 || d.Minutes != 0 || d.Seconds.Sign != 0 {
		b.WriteByte('T')
		writeComponent(&b, d.Hours, 'H')
		writeComponent(&b, d.Minutes, 'M')
		if d.Seconds.Sign != 0 {
			integral, fraction := d.Seconds.Parts()
			b.Write(integral)
			if len(fraction) > 0 {
				b.WriteByte('.')
				b.Write(fraction)
			}
			b.WriteByte('S')
		}
	}
	return b.String()
}

func writeComponent(b *strings.Builder, v uint64, designator byte) {
	if v == 0 {
		return
	}
	b.WriteString(strconv.FormatUint(v, 10))
	b.WriteByte(designator)
}
