package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// Artifact kinds written in the "kind" field of YAML artifacts.
const (
	KindMigration         = "Migration"
	KindMigrationMetadata = "MigrationMetadata"
	KindModelSnapshot     = "ModelSnapshot"
)

// Directive prefixes the comment line through which a Go artifact carries
// its YAML document. The document follows as a quoted Go string.
const Directive = "//modelmigrate:ledger "

// EmbeddedDocument returns the YAML document carried by the Directive line of
// a Go artifact. found is false when src has no such line.
func EmbeddedDocument(src []byte) (doc []byte, found bool, err error) {
	for _, line := range strings.Split(string(src), "\n") {
		quoted, ok := strings.CutPrefix(strings.TrimSpace(line), Directive)
		if !ok {
			continue
		}
		text, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, true, fmt.Errorf("malformed ledger directive: %w", err)
		}
		return []byte(text), true, nil
	}
	return nil, false, nil
}

// MigrationDocument is the YAML form of a migration's operations.
type MigrationDocument struct {
	Kind      string         `yaml:"kind"`
	Namespace string         `yaml:"namespace"`
	Name      string         `yaml:"name"`
	Up        operation.List `yaml:"up"`
	Down      operation.List `yaml:"down"`
}

// MetadataDocument is the YAML form of a migration's metadata.
type MetadataDocument struct {
	Kind           string       `yaml:"kind"`
	Namespace      string       `yaml:"namespace"`
	Owner          string       `yaml:"owner"`
	Name           string       `yaml:"name"`
	ID             string       `yaml:"id"`
	ProductVersion string       `yaml:"productVersion,omitempty"`
	Target         *model.Model `yaml:"target"`
}

// SnapshotDocument is the YAML form of a model snapshot.
type SnapshotDocument struct {
	Kind      string       `yaml:"kind"`
	Namespace string       `yaml:"namespace"`
	Owner     string       `yaml:"owner"`
	Name      string       `yaml:"name"`
	Model     *model.Model `yaml:"model"`
}
