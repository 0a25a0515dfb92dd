// Package codegen renders migrations and model snapshots into source
// artifacts. Two languages are supported: yaml, and go, which registers itself
// into ledger.DefaultRegistry when compiled. ledger.Dir reads back both.
package codegen

import (
	"fmt"
	"sort"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// Generator renders migration artifacts. Implementations never inspect the
// operations beyond what is needed to print them.
type Generator interface {
	// Language returns the artifact file extension, including the dot.
	Language() string
	// GenerateMigration renders a migration's up and down operations.
	GenerateMigration(namespace, name string, up, down operation.List) (string, error)
	// GenerateMetadata renders the id, product version and target model of a
	// migration.
	GenerateMetadata(namespace, owner, name, id, productVersion string, target *model.Model) (string, error)
	// GenerateSnapshot renders the model snapshot.
	GenerateSnapshot(namespace, owner, snapshotName string, m *model.Model) (string, error)
}

var generators = map[string]func() Generator{
	"yaml": func() Generator { return NewYAML() },
	"go":   func() Generator { return NewGo() },
}

// New returns the generator for a language name.
func New(language string) (Generator, error) {
	newGen, ok := generators[language]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s (supported: %v)", language, Languages())
	}
	return newGen(), nil
}

// Languages returns the supported language names.
func Languages() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
