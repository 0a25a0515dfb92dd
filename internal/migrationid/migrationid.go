// Package migrationid allocates sortable migration identifiers of the form
// "20150101120000_InitialCreate".
package migrationid

import (
	"sync"
	"time"
)

const (
	// Format is the UTC timestamp layout that prefixes every id.
	Format = "20060102150405"
	// Separator joins the timestamp and the migration name.
	Separator = "_"

	prefixLen = len(Format) + len(Separator)
)

// Generator creates migration ids. Ids it returns are strictly increasing
// under string comparison for the lifetime of the value.
type Generator struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the wall clock, which is useful in tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New creates a new id generator
func New(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateID returns a new id for name. When the clock has not moved past the
// previous id's second, the generator advances by one synthetic second.
func (g *Generator) CreateID(name string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now().UTC().Truncate(time.Second)
	if !t.After(g.last) {
		t = g.last.Add(time.Second)
	}
	g.last = t
	return t.Format(Format) + Separator + name
}

// Observe records an existing id so that later ids sort after it. Ids that
// are not well formed are ignored.
func (g *Generator) Observe(id string) {
	t, ok := Timestamp(id)
	if !ok {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.After(g.last) {
		g.last = t
	}
}

// GetName returns the migration name embedded in id. Ids that are not well
// formed are returned unchanged.
func GetName(id string) string {
	if !IsValidID(id) {
		return id
	}
	return id[prefixLen:]
}

// Timestamp returns the creation moment encoded in id.
func Timestamp(id string) (time.Time, bool) {
	if len(id) <= prefixLen || id[len(Format):prefixLen] != Separator {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(Format, id[:len(Format)], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsValidID reports whether id has a timestamp prefix and a non-empty name.
func IsValidID(id string) bool {
	_, ok := Timestamp(id)
	return ok
}
