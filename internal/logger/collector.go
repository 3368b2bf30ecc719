package logger

import (
	"context"
	"log/slog"
	"sync"
)

// Entry is one recorded diagnostic.
type Entry struct {
	Level     string `json:"level"`
	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`
	Message   string `json:"message"`
}

// Collector is a slog.Handler that records warnings and errors and forwards
// every record to an optional next handler.
type Collector struct {
	next  slog.Handler
	attrs []slog.Attr

	mu      *sync.Mutex
	entries *[]Entry
}

// NewCollector returns a Collector forwarding to next, which may be nil.
func NewCollector(next slog.Handler) *Collector {
	return &Collector{
		next:    next,
		mu:      &sync.Mutex{},
		entries: &[]Entry{},
	}
}

// Enabled reports true for warnings and above, or whatever next enables.
func (c *Collector) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= slog.LevelWarn {
		return true
	}
	return c.next != nil && c.next.Enabled(ctx, level)
}

// Handle records the entry and forwards it.
func (c *Collector) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		e := Entry{Level: r.Level.String(), Message: r.Message}
		read := func(a slog.Attr) bool {
			switch a.Key {
			case KeyComponent:
				e.Component = a.Value.String()
			case KeyOperation:
				e.Operation = a.Value.String()
			}
			return true
		}
		for _, a := range c.attrs {
			read(a)
		}
		r.Attrs(read)

		c.mu.Lock()
		*c.entries = append(*c.entries, e)
		c.mu.Unlock()
	}
	if c.next != nil && c.next.Enabled(ctx, r.Level) {
		return c.next.Handle(ctx, r)
	}
	return nil
}

// WithAttrs returns a handler sharing this collector's entries.
func (c *Collector) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *c
	cp.attrs = append(append([]slog.Attr{}, c.attrs...), attrs...)
	if c.next != nil {
		cp.next = c.next.WithAttrs(attrs)
	}
	return &cp
}

// WithGroup returns a handler sharing this collector's entries.
func (c *Collector) WithGroup(name string) slog.Handler {
	cp := *c
	if c.next != nil {
		cp.next = c.next.WithGroup(name)
	}
	return &cp
}

// Entries returns a copy of everything recorded so far.
func (c *Collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(*c.entries))
	copy(out, *c.entries)
	return out
}

// Count returns the number of recorded entries at exactly level.
func (c *Collector) Count(level slog.Level) int {
	want := level.String()
	n := 0
	for _, e := range c.Entries() {
		if e.Level == want {
			n++
		}
	}
	return n
}

// Warnings returns the recorded warnings.
func (c *Collector) Warnings() []Entry { return c.filter(slog.LevelWarn) }

// Errors returns the recorded errors.
func (c *Collector) Errors() []Entry { return c.filter(slog.LevelError) }

func (c *Collector) filter(level slog.Level) []Entry {
	want := level.String()
	var out []Entry
	for _, e := range c.Entries() {
		if e.Level == want {
			out = append(out, e)
		}
	}
	return out
}
