package codegen

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/modelmigrate/ledger"
	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// YAML renders artifacts as the YAML documents defined in package ledger.
type YAML struct{}

// NewYAML creates a new YAML generator
func NewYAML() *YAML {
	return &YAML{}
}

func (*YAML) Language() string { return ".yaml" }

func (*YAML) GenerateMigration(namespace, name string, up, down operation.List) (string, error) {
	return encode(migrationDocument(namespace, name, up, down))
}

func (*YAML) GenerateMetadata(namespace, owner, name, id, productVersion string, target *model.Model) (string, error) {
	return encode(metadataDocument(namespace, owner, name, id, productVersion, target))
}

func (*YAML) GenerateSnapshot(namespace, owner, snapshotName string, m *model.Model) (string, error) {
	return encode(snapshotDocument(namespace, owner, snapshotName, m))
}

func migrationDocument(namespace, name string, up, down operation.List) *ledger.MigrationDocument {
	return &ledger.MigrationDocument{
		Kind:      ledger.KindMigration,
		Namespace: namespace,
		Name:      name,
		Up:        nonNil(up),
		Down:      nonNil(down),
	}
}

func metadataDocument(namespace, owner, name, id, productVersion string, target *model.Model) *ledger.MetadataDocument {
	return &ledger.MetadataDocument{
		Kind:           ledger.KindMigrationMetadata,
		Namespace:      namespace,
		Owner:          owner,
		Name:           name,
		ID:             id,
		ProductVersion: productVersion,
		Target:         target,
	}
}

func snapshotDocument(namespace, owner, snapshotName string, m *model.Model) *ledger.SnapshotDocument {
	return &ledger.SnapshotDocument{
		Kind:      ledger.KindModelSnapshot,
		Namespace: namespace,
		Owner:     owner,
		Name:      snapshotName,
		Model:     m,
	}
}

// nonNil keeps empty scripts as "[]" rather than null.
func nonNil(ops operation.List) operation.List {
	if ops == nil {
		return operation.List{}
	}
	return ops
}

func encode(doc any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.String(), nil
}
