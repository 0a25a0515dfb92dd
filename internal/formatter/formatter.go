// Package formatter renders operation scripts, migration listings and models
// for people to read.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Formatter writes human-readable output.
type Formatter interface {
	// FormatOperations writes the up and down scripts of a migration.
	FormatOperations(up, down operation.List) error
	// FormatMigrations writes a ledger listing.
	FormatMigrations(rows []MigrationRow) error
	// FormatModel writes every entity of m.
	FormatModel(m *model.Model) error
}

// New creates the formatter for format, which is "text" or "markdown".
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
	}
}

// Status is the applied state of a migration.
type Status int

const (
	// StatusUnknown means no history store was consulted.
	StatusUnknown Status = iota
	StatusPending
	StatusApplied
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApplied:
		return "applied"
	default:
		return ""
	}
}

// MigrationRow is one line of a migration listing.
type MigrationRow struct {
	ID     string
	Name   string
	Status Status
}

// propertyFlags describes everything about p except its name and type.
func propertyFlags(p *model.Property) []string {
	var flags []string
	if p.Nullable {
		flags = append(flags, "NULL")
	} else {
		flags = append(flags, "NOT NULL")
	}
	if p.MaxLength > 0 {
		flags = append(flags, fmt.Sprintf("MAX %d", p.MaxLength))
	}
	switch p.StoreGenerated {
	case model.StoreGeneratedIdentity:
		flags = append(flags, "IDENTITY")
	case model.StoreGeneratedComputed:
		flags = append(flags, "COMPUTED")
	}
	if p.GenerateValueOnAdd {
		flags = append(flags, "GENERATED ON ADD")
	}
	if p.ConcurrencyToken {
		flags = append(flags, "CONCURRENCY TOKEN")
	}
	return flags
}

func formatAnnotations(a model.Annotations) string {
	parts := make([]string, 0, len(a))
	for _, name := range a.Names() {
		parts = append(parts, name+"="+a[name])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// describe is op's one-line description with the details String leaves out.
func describe(op operation.Operation) string {
	s := op.String()
	switch o := op.(type) {
	case *operation.AddProperty:
		s += " " + strings.Join(propertyFlags(o.Property), " ")
	case *operation.AlterProperty:
		s += " " + strings.Join(propertyFlags(o.Property), " ")
	case *operation.AlterEntity:
		s += " " + formatAnnotations(o.Annotations)
	case *operation.AlterPrimaryKey:
		s += " " + formatAnnotations(o.Annotations)
	case *operation.AlterAlternateKey:
		s += " " + formatAnnotations(o.Annotations)
	case *operation.AlterIndex:
		s += " " + formatAnnotations(o.Annotations)
	case *operation.AlterForeignKey:
		s += " " + formatAnnotations(o.Annotations)
	case *operation.AlterModel:
		s += " " + formatAnnotations(o.Annotations)
	}
	return s
}

// cardinality describes the relationship fk declares on its dependent entity.
func cardinality(fk *model.ForeignKey, dependent *model.Entity) string {
	c := "many-to-one"
	if fk.Unique {
		c = "one-to-one"
	}
	if !fk.IsRequired(dependent) {
		c += ", optional"
	}
	return c
}

// IncomingRelation is a foreign key of another entity that targets an entity.
type IncomingRelation struct {
	Entity     string
	ForeignKey *model.ForeignKey
}

// incomingRelations finds all foreign keys pointing at name, sorted by
// dependent entity. A nil model has none.
func incomingRelations(m *model.Model, name string) []IncomingRelation {
	if m == nil {
		return nil
	}
	var incoming []IncomingRelation
	for _, e := range m.Entities {
		for _, fk := range e.ForeignKeys {
			if fk.PrincipalEntity == name {
				incoming = append(incoming, IncomingRelation{Entity: e.Name, ForeignKey: fk})
			}
		}
	}
	sort.SliceStable(incoming, func(i, j int) bool {
		return incoming[i].Entity < incoming[j].Entity
	})
	return incoming
}

func sortedEntities(m *model.Model) []*model.Entity {
	if m == nil {
		return nil
	}
	entities := make([]*model.Entity, len(m.Entities))
	copy(entities, m.Entities)
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Name < entities[j].Name
	})
	return entities
}
