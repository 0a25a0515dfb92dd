package formatter

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tordrt/modelmigrate/internal/artifact"
	"github.com/tordrt/modelmigrate/model"
)

const overviewName = "_overview"

// MultiFile writes a model to a directory: an overview plus one file per
// entity.
type MultiFile struct {
	store        artifact.Store
	outputDir    string
	outputFormat string
}

// NewMultiFile creates a new multi-file formatter
func NewMultiFile(store artifact.Store, outputDir, format string) *MultiFile {
	return &MultiFile{
		store:        store,
		outputDir:    outputDir,
		outputFormat: format,
	}
}

// Format writes the model and returns the paths written, overview first.
func (f *MultiFile) Format(m *model.Model) ([]string, error) {
	if f.outputFormat != FormatText && f.outputFormat != FormatMarkdown {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", f.outputFormat)
	}
	if err := f.store.EnsureDir(f.outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	entities := sortedEntities(m)
	paths := make([]string, 0, len(entities)+1)

	var buf bytes.Buffer
	f.writeOverview(&buf, entities)
	path, err := f.write(overviewName, buf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to write overview: %w", err)
	}
	paths = append(paths, path)

	for _, e := range entities {
		buf.Reset()
		if f.outputFormat == FormatMarkdown {
			NewMarkdownFormatter(&buf).FormatEntity(e, m)
		} else {
			NewTextFormatter(&buf).FormatEntity(e, m)
		}
		path, err := f.write(e.Name, buf.String())
		if err != nil {
			return nil, fmt.Errorf("failed to write entity file for %s: %w", e.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (f *MultiFile) write(name, text string) (string, error) {
	path := filepath.Join(f.outputDir, name+f.extension())
	return path, f.store.Write(path, text)
}

func (f *MultiFile) writeOverview(buf *bytes.Buffer, entities []*model.Entity) {
	if f.outputFormat == FormatMarkdown {
		_, _ = fmt.Fprintf(buf, "# Model Overview\n\n")
		_, _ = fmt.Fprintf(buf, "Each entity has a corresponding file: `<entity_name>%s`\n\n", f.extension())
		_, _ = fmt.Fprintf(buf, "## Entities\n\n")
		for _, e := range entities {
			_, _ = fmt.Fprintf(buf, "- **%s**", e.Name)
			if targets := principals(e); len(targets) > 0 {
				_, _ = fmt.Fprintf(buf, " (references: %s)", strings.Join(targets, ", "))
			}
			_, _ = fmt.Fprintf(buf, "\n")
		}
		return
	}

	_, _ = fmt.Fprintf(buf, "MODEL OVERVIEW\n")
	_, _ = fmt.Fprintf(buf, "Each entity has a file: <entity_name>%s\n\n", f.extension())
	for _, e := range entities {
		_, _ = fmt.Fprintf(buf, "%s", e.Name)
		if targets := principals(e); len(targets) > 0 {
			_, _ = fmt.Fprintf(buf, " (references: %s)", strings.Join(targets, ","))
		}
		_, _ = fmt.Fprintf(buf, "\n")
	}
}

func (f *MultiFile) extension() string {
	if f.outputFormat == FormatMarkdown {
		return ".md"
	}
	return ".txt"
}

// principals lists the entities e references, without repeats.
func principals(e *model.Entity) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, fk := range e.ForeignKeys {
		if !seen[fk.PrincipalEntity] {
			seen[fk.PrincipalEntity] = true
			targets = append(targets, fk.PrincipalEntity)
		}
	}
	return targets
}
