package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// TextFormatter formats output as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// FormatOperations writes the up and down scripts
func (f *TextFormatter) FormatOperations(up, down operation.List) error {
	if len(up) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No changes.")
		return nil
	}

	_, _ = fmt.Fprintln(f.writer, "UP")
	for _, op := range up {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", describe(op))
	}
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "DOWN")
	for _, op := range down {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", describe(op))
	}
	return nil
}

// FormatMigrations writes one line per migration, oldest first
func (f *TextFormatter) FormatMigrations(rows []MigrationRow) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No migrations.")
		return nil
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r.ID))
	}
	for _, r := range rows {
		if r.Status == StatusUnknown {
			_, _ = fmt.Fprintln(f.writer, r.ID)
			continue
		}
		_, _ = fmt.Fprintf(f.writer, "%-*s  %s\n", width, r.ID, r.Status)
	}
	return nil
}

// FormatModel writes the model's entities in name order
func (f *TextFormatter) FormatModel(m *model.Model) error {
	entities := sortedEntities(m)
	if len(entities) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No entities.")
		return nil
	}

	if len(m.Annotations) > 0 {
		_, _ = fmt.Fprintf(f.writer, "MODEL %s\n\n", formatAnnotations(m.Annotations))
	}
	for i, e := range entities {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between entities
		}
		f.FormatEntity(e, m)
	}
	return nil
}

// FormatEntity writes a single entity. m is used to find the foreign keys
// that reference it and may be nil.
func (f *TextFormatter) FormatEntity(e *model.Entity, m *model.Model) {
	// Entity header with primary key
	pkStr := ""
	if e.PrimaryKey != nil {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(e.PrimaryKey.Properties, ", "))
	}
	_, _ = fmt.Fprintf(f.writer, "ENTITY %s%s\n", e.Name, pkStr)

	for _, p := range e.Properties {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatProperty(p))
	}

	if len(e.AlternateKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  ALTERNATE KEYS:")
		for _, k := range e.AlternateKeys {
			_, _ = fmt.Fprintf(f.writer, "    (%s)\n", strings.Join(k.Properties, ", "))
		}
	}

	if len(e.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONS:")
		for _, fk := range e.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "    (%s) → %s(%s) (%s)\n",
				strings.Join(fk.Properties, ", "),
				fk.PrincipalEntity,
				strings.Join(fk.PrincipalKey, ", "),
				cardinality(fk, e))
		}
	}

	if incoming := incomingRelations(m, e.Name); len(incoming) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  REFERENCED BY:")
		for _, rel := range incoming {
			_, _ = fmt.Fprintf(f.writer, "    %s(%s)\n", rel.Entity, strings.Join(rel.ForeignKey.Properties, ", "))
		}
	}

	if len(e.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range e.Indexes {
			unique := ""
			if idx.Unique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    (%s)%s\n", strings.Join(idx.Properties, ", "), unique)
		}
	}
}

func (f *TextFormatter) formatProperty(p *model.Property) string {
	parts := append([]string{p.Name + ":", p.Type}, propertyFlags(p)...)
	if len(p.Annotations) > 0 {
		parts = append(parts, formatAnnotations(p.Annotations))
	}
	return strings.Join(parts, " ")
}
