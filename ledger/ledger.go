// Package ledger exposes the sequence of migrations a project has created and
// the model snapshot that follows them.
//
// Two readers are provided. Registry is filled by generated Go artifacts from
// their init functions. Dir scans a directory tree for YAML artifacts and for
// the documents embedded in Go artifacts.
package ledger

import (
	"context"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// Migration is one ledger entry.
type Migration struct {
	ID             string
	Namespace      string
	ProductVersion string
	Up             operation.List
	Down           operation.List
	// Target is the model as it was once this migration had been applied.
	Target *model.Model
}

// Snapshot is the persisted model that the newest migration produced.
type Snapshot struct {
	Name      string
	Namespace string
	Model     *model.Model
}

// Reader gives access to a project's migrations.
type Reader interface {
	// Migrations returns every migration ordered by id, oldest first.
	Migrations(ctx context.Context) ([]*Migration, error)
	// Snapshot returns the current snapshot, or nil if there is none.
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Last returns the newest migration, or nil.
func Last(migrations []*Migration) *Migration {
	if len(migrations) == 0 {
		return nil
	}
	return migrations[len(migrations)-1]
}
