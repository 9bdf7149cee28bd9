package errors

// Collector accumulates errors during a compilation pass.
// The zero value is ready to use.
type Collector struct {
	list List
}

// Add records e.
func (c *Collector) Add(e *Error) {
	if c == nil || e == nil {
		return
	}
	c.list = append(c.list, e)
}

// Addf formats and records an error for component.
func (c *Collector) Addf(code Code, component, format string, args ...any) {
	c.Add(Newf(code, format, args...).WithComponent(component))
}

// Len returns the number of recorded errors.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.list)
}

// Err returns the recorded errors as a List, or nil when none were recorded.
func (c *Collector) Err() error {
	if c == nil || len(c.list) == 0 {
		return nil
	}
	out := make(List, len(c.list))
	copy(out, c.list)
	return out
}
