package lexical

import (
	"fmt"
	"strconv"
	"strings"
)

// DateTimeKind identifies one of the eight date/time primitives.
type DateTimeKind uint8

const (
	KindDateTime DateTimeKind = iota
	KindDate
	KindTime
	KindGYearMonth
	KindGYear
	KindGMonthDay
	KindGDay
	KindGMonth
)

// String returns the XSD primitive name.
func (k DateTimeKind) String() string {
	switch k {
	case KindDateTime:
		return "dateTime"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindGYearMonth:
		return "gYearMonth"
	case KindGYear:
		return "gYear"
	case KindGMonthDay:
		return "gMonthDay"
	case KindGDay:
		return "gDay"
	case KindGMonth:
		return "gMonth"
	default:
		return fmt.Sprintf("DateTimeKind(%d)", int(k))
	}
}

// HasYear reports whether the kind carries a year component.
func (k DateTimeKind) HasYear() bool {
	return k == KindDateTime || k == KindDate || k == KindGYearMonth || k == KindGYear
}

// HasMonthDay reports whether the kind carries a month and/or day component.
func (k DateTimeKind) HasMonthDay() bool {
	return k != KindTime && k != KindGYear
}

// HasTime reports whether the kind carries hour, minute and second components.
func (k DateTimeKind) HasTime() bool {
	return k == KindDateTime || k == KindTime
}

// DateTime holds the components of a date/time lexical value.
// Components the kind does not carry are zero. Fraction holds the digits of
// fractional seconds without trailing zeros.
type DateTime struct {
	Fraction string
	Year     int64
	Month    int
	Day      int
	Hour     int
	Minute   int
	Second   int
	TZ       int
	HasTZ    bool
}

// ParseDateTime parses a lexical value of the given kind into components.
func ParseDateTime(kind DateTimeKind, lexical string) (DateTime, error) {
	s := TrimXMLWhitespace(lexical)
	main, tz, hasTZ, err := splitTimezone(s)
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid %s: %q: %w", kind, lexical, err)
	}
	p := &dtParser{s: main}
	var out DateTime
	out.TZ = tz
	out.HasTZ = hasTZ
	switch kind {
	case KindDateTime:
		err = p.year(&out)
		err = p.then(err, '-', func() error { return p.monthDay(&out, true) })
		err = p.then(err, 'T', func() error { return p.clock(&out) })
	case KindDate:
		err = p.year(&out)
		err = p.then(err, '-', func() error { return p.monthDay(&out, true) })
	case KindTime:
		err = p.clock(&out)
	case KindGYearMonth:
		err = p.year(&out)
		err = p.then(err, '-', func() error { return p.month(&out) })
	case KindGYear:
		err = p.year(&out)
	case KindGMonthDay:
		err = p.literal("--")
		err = p.then(err, 0, func() error { return p.monthDay(&out, false) })
	case KindGDay:
		err = p.literal("---")
		err = p.then(err, 0, func() error {
			day, derr := p.digits(2)
			if derr != nil {
				return derr
			}
			if day < 1 || day > 31 {
				return fmt.Errorf("day out of range")
			}
			out.Day = day
			return nil
		})
	case KindGMonth:
		err = p.literal("--")
		err = p.then(err, 0, func() error { return p.month(&out) })
		if err == nil && strings.HasPrefix(p.s[p.i:], "--") {
			p.i += 2
		}
	default:
		err = fmt.Errorf("unknown kind")
	}
	if err == nil && p.i != len(p.s) {
		err = fmt.Errorf("trailing characters")
	}
	if err != nil {
		return DateTime{}, fmt.Errorf("invalid %s: %q: %w", kind, lexical, err)
	}
	return out, nil
}

// Render returns the canonical lexical form for the kind.
func (d DateTime) Render(kind DateTimeKind) string {
	var b strings.Builder
	switch kind {
	case KindDateTime:
		writeYear(&b, d.Year)
		fmt.Fprintf(&b, "-%02d-%02dT", d.Month, d.Day)
		writeClock(&b, d)
	case KindDate:
		writeYear(&b, d.Year)
		fmt.Fprintf(&b, "-%02d-%02d", d.Month, d.Day)
	case KindTime:
		writeClock(&b, d)
	case KindGYearMonth:
		writeYear(&b, d.Year)
		fmt.Fprintf(&b, "-%02d", d.Month)
	case KindGYear:
		writeYear(&b, d.Year)
	case KindGMonthDay:
		fmt.Fprintf(&b, "--%02d-%02d", d.Month, d.Day)
	case KindGDay:
		fmt.Fprintf(&b, "---%02d", d.Day)
	case KindGMonth:
		fmt.Fprintf(&b, "--%02d", d.Month)
	}
	if d.HasTZ {
		writeTimezone(&b, d.TZ)
	}
	return b.String()
}

func writeYear(b *strings.Builder, year int64) {
	if year < 0 {
		b.WriteByte('-')
		year = -year
	}
	fmt.Fprintf(b, "%04d", year)
}

func writeClock(b *strings.Builder, d DateTime) {
	fmt.Fprintf(b, "%02d:%02d:%02d", d.Hour, d.Minute, d.Second)
	if d.Fraction != "" {
		b.WriteByte('.')
		b.WriteString(d.Fraction)
	}
}

func writeTimezone(b *strings.Builder, offset int) {
	if offset == 0 {
		b.WriteByte('Z')
		return
	}
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	fmt.Fprintf(b, "%c%02d:%02d", sign, offset/60, offset%60)
}

func splitTimezone(s string) (string, int, bool, error) {
	if strings.HasSuffix(s, "Z") {
		return s[:len(s)-1], 0, true, nil
	}
	if len(s) >= 6 {
		tz := s[len(s)-6:]
		if (tz[0] == '+' || tz[0] == '-') && tz[3] == ':' {
			h, err1 := strconv.Atoi(tz[1:3])
			m, err2 := strconv.Atoi(tz[4:6])
			if err1 != nil || err2 != nil || !isDigits(tz[1:3]) || !isDigits(tz[4:6]) {
				return "", 0, false, fmt.Errorf("bad timezone")
			}
			if m > 59 || h > 14 || (h == 14 && m != 0) {
				return "", 0, false, fmt.Errorf("timezone out of range")
			}
			offset := h*60 + m
			if tz[0] == '-' {
				offset = -offset
			}
			return s[:len(s)-6], offset, true, nil
		}
	}
	return s, 0, false, nil
}

type dtParser struct {
	s string
	i int
}

func (p *dtParser) then(err error, sep byte, next func() error) error {
	if err != nil {
		return err
	}
	if sep != 0 {
		if p.i >= len(p.s) || p.s[p.i] != sep {
			return fmt.Errorf("expected %q", sep)
		}
		p.i++
	}
	return next()
}

func (p *dtParser) literal(lit string) error {
	if !strings.HasPrefix(p.s[p.i:], lit) {
		return fmt.Errorf("expected %q", lit)
	}
	p.i += len(lit)
	return nil
}

func (p *dtParser) digits(n int) (int, error) {
	if p.i+n > len(p.s) || !isDigits(p.s[p.i:p.i+n]) {
		return 0, fmt.Errorf("expected %d digits", n)
	}
	v, _ := strconv.Atoi(p.s[p.i : p.i+n])
	p.i += n
	return v, nil
}

func (p *dtParser) year(out *DateTime) error {
	negative := false
	if p.i < len(p.s) && p.s[p.i] == '-' {
		negative = true
		p.i++
	}
	start := p.i
	for p.i < len(p.s) && p.s[p.i] >= '0' && p.s[p.i] <= '9' {
		p.i++
	}
	digits := p.s[start:p.i]
	if len(digits) < 4 {
		return fmt.Errorf("year needs at least four digits")
	}
	if len(digits) > 4 && digits[0] == '0' {
		return fmt.Errorf("year has leading zeros")
	}
	y, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return fmt.Errorf("year out of range")
	}
	if y == 0 {
		return fmt.Errorf("year zero is not allowed")
	}
	if negative {
		y = -y
	}
	out.Year = y
	return nil
}

func (p *dtParser) month(out *DateTime) error {
	month, err := p.digits(2)
	if err != nil {
		return err
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("month out of range")
	}
	out.Month = month
	return nil
}

func (p *dtParser) monthDay(out *DateTime, withYear bool) error {
	if err := p.month(out); err != nil {
		return err
	}
	if err := p.literal("-"); err != nil {
		return err
	}
	day, err := p.digits(2)
	if err != nil {
		return err
	}
	limit := daysInMonth(out.Month, out.Year, withYear)
	if day < 1 || day > limit {
		return fmt.Errorf("day out of range")
	}
	out.Day = day
	return nil
}

func (p *dtParser) clock(out *DateTime) error {
	hour, err := p.digits(2)
	if err != nil {
		return err
	}
	if err := p.literal(":"); err != nil {
		return err
	}
	minute, err := p.digits(2)
	if err != nil {
		return err
	}
	if err := p.literal(":"); err != nil {
		return err
	}
	second, err := p.digits(2)
	if err != nil {
		return err
	}
	fraction := ""
	if p.i < len(p.s) && p.s[p.i] == '.' {
		p.i++
		start := p.i
		for p.i < len(p.s) && p.s[p.i] >= '0' && p.s[p.i] <= '9' {
			p.i++
		}
		if p.i == start {
			return fmt.Errorf("empty fractional seconds")
		}
		fraction = strings.TrimRight(p.s[start:p.i], "0")
	}
	if hour == 24 {
		if minute != 0 || second != 0 || fraction != "" {
			return fmt.Errorf("hour 24 requires 24:00:00")
		}
	} else if hour > 23 || minute > 59 || second > 59 {
		return fmt.Errorf("time out of range")
	}
	out.Hour, out.Minute, out.Second, out.Fraction = hour, minute, second, fraction
	return nil
}

func daysInMonth(month int, year int64, withYear bool) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if !withYear || isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

func isLeapYear(year int64) bool {
	// XSD 1.0 has no year zero; -0001 is the leap year before 0001.
	if year < 0 {
		year++
	}
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
