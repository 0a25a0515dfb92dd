package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// Definition is implemented by generated Go migrations.
type Definition interface {
	ID() string
	Namespace() string
	ProductVersion() string
	Up() operation.List
	Down() operation.List
	Target() *model.Model
}

// SnapshotDefinition is implemented by a generated Go model snapshot.
type SnapshotDefinition interface {
	Name() string
	Namespace() string
	Model() *model.Model
}

// Registry is a Reader over migrations registered in process.
type Registry struct {
	mu         sync.RWMutex
	migrations map[string]Definition
	snapshot   SnapshotDefinition
}

// DefaultRegistry receives the registrations made by generated code.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{migrations: make(map[string]Definition)}
}

// Register adds a migration to DefaultRegistry.
func Register(d Definition) {
	DefaultRegistry.Register(d)
}

// RegisterSnapshot sets the snapshot of DefaultRegistry.
func RegisterSnapshot(s SnapshotDefinition) {
	DefaultRegistry.RegisterSnapshot(s)
}

// Register adds a migration. It panics if the id is registered twice.
func (r *Registry) Register(d Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.migrations[d.ID()]; dup {
		panic(fmt.Sprintf("ledger: migration %s registered twice", d.ID()))
	}
	r.migrations[d.ID()] = d
}

// RegisterSnapshot sets the model snapshot. It panics if a snapshot is
// already registered.
func (r *Registry) RegisterSnapshot(s SnapshotDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot != nil {
		panic(fmt.Sprintf("ledger: snapshot %s registered after %s", s.Name(), r.snapshot.Name()))
	}
	r.snapshot = s
}

// Migrations implements Reader.
func (r *Registry) Migrations(context.Context) ([]*Migration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Migration, 0, len(r.migrations))
	for _, d := range r.migrations {
		out = append(out, &Migration{
			ID:             d.ID(),
			Namespace:      d.Namespace(),
			ProductVersion: d.ProductVersion(),
			Up:             d.Up(),
			Down:           d.Down(),
			Target:         d.Target(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Snapshot implements Reader.
func (r *Registry) Snapshot(context.Context) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snapshot == nil {
		return nil, nil
	}
	return &Snapshot{
		Name:      r.snapshot.Name(),
		Namespace: r.snapshot.Namespace(),
		Model:     r.snapshot.Model(),
	}, nil
}
