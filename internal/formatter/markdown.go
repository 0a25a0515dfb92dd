package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// MarkdownFormatter formats output as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// FormatOperations writes the up and down scripts as two lists
func (f *MarkdownFormatter) FormatOperations(up, down operation.List) error {
	_, _ = fmt.Fprintln(f.writer, "# Pending Changes")
	_, _ = fmt.Fprintln(f.writer)

	if len(up) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No changes.")
		return nil
	}

	f.formatList("Up", up)
	f.formatList("Down", down)
	return nil
}

func (f *MarkdownFormatter) formatList(title string, ops operation.List) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", title)
	for i, op := range ops {
		_, _ = fmt.Fprintf(f.writer, "%d. `%s`\n", i+1, describe(op))
	}
	_, _ = fmt.Fprintln(f.writer)
}

// FormatMigrations writes the ledger as a table
func (f *MarkdownFormatter) FormatMigrations(rows []MigrationRow) error {
	_, _ = fmt.Fprintln(f.writer, "# Migrations")
	_, _ = fmt.Fprintln(f.writer)

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No migrations.")
		return nil
	}

	_, _ = fmt.Fprintln(f.writer, "| Migration | Name | Status |")
	_, _ = fmt.Fprintln(f.writer, "|-----------|------|--------|")
	for _, r := range rows {
		status := r.Status.String()
		if status == "" {
			status = "unknown"
		}
		_, _ = fmt.Fprintf(f.writer, "| %s | %s | %s |\n", r.ID, r.Name, status)
	}
	return nil
}

// FormatModel writes the model with one section per entity
func (f *MarkdownFormatter) FormatModel(m *model.Model) error {
	_, _ = fmt.Fprintln(f.writer, "# Model")
	_, _ = fmt.Fprintln(f.writer)

	if m != nil && len(m.Annotations) > 0 {
		f.formatAnnotationList(m.Annotations)
	}

	entities := sortedEntities(m)
	if len(entities) == 0 {
		_, _ = fmt.Fprintln(f.writer, "No entities.")
		return nil
	}
	for _, e := range entities {
		f.FormatEntity(e, m)
	}
	return nil
}

// FormatEntity formats a single entity (exported for use by MultiFile). m is
// used to find the foreign keys that reference it and may be nil.
func (f *MarkdownFormatter) FormatEntity(e *model.Entity, m *model.Model) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", e.Name)

	_, _ = fmt.Fprintln(f.writer, "### Properties")
	_, _ = fmt.Fprintln(f.writer)
	for _, p := range e.Properties {
		flags := propertyFlags(p)
		if e.PrimaryKey != nil && model.References(e.PrimaryKey.Properties, p.Name) {
			flags = append([]string{"PK"}, flags...)
		}
		_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", p.Name, p.Type, strings.Join(flags, ", "))
	}
	_, _ = fmt.Fprintln(f.writer)

	if len(e.AlternateKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Alternate Keys")
		_, _ = fmt.Fprintln(f.writer)
		for _, k := range e.AlternateKeys {
			_, _ = fmt.Fprintf(f.writer, "- (%s)\n", strings.Join(k.Properties, ", "))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(e.ForeignKeys) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### References")
		_, _ = fmt.Fprintln(f.writer)
		for _, fk := range e.ForeignKeys {
			_, _ = fmt.Fprintf(f.writer, "- %s → %s.%s (%s)\n",
				strings.Join(fk.Properties, ", "),
				fk.PrincipalEntity,
				strings.Join(fk.PrincipalKey, ", "),
				cardinality(fk, e))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if incoming := incomingRelations(m, e.Name); len(incoming) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Referenced by")
		_, _ = fmt.Fprintln(f.writer)
		for _, rel := range incoming {
			_, _ = fmt.Fprintf(f.writer, "- %s.%s\n", rel.Entity, strings.Join(rel.ForeignKey.Properties, ", "))
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(e.Indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Indexes")
		_, _ = fmt.Fprintln(f.writer)
		for _, idx := range e.Indexes {
			if idx.Unique {
				_, _ = fmt.Fprintf(f.writer, "- (%s), unique\n", strings.Join(idx.Properties, ", "))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- (%s)\n", strings.Join(idx.Properties, ", "))
			}
		}
		_, _ = fmt.Fprintln(f.writer)
	}

	if len(e.Annotations) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Annotations")
		_, _ = fmt.Fprintln(f.writer)
		f.formatAnnotationList(e.Annotations)
	}
}

func (f *MarkdownFormatter) formatAnnotationList(a model.Annotations) {
	for _, name := range a.Names() {
		_, _ = fmt.Fprintf(f.writer, "- `%s`: %s\n", name, a[name])
	}
	_, _ = fmt.Fprintln(f.writer)
}
