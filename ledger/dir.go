package ledger

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dir is a Reader over the artifacts found anywhere below a directory: YAML
// documents, and Go sources carrying a document in their Directive line.
// Files without a recognized "kind" are ignored.
type Dir struct {
	fsys fs.FS
}

// NewDir creates a reader over fsys, typically os.DirFS(projectDir).
func NewDir(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

type dirContents struct {
	ops       map[string]*MigrationDocument // by file base name, which is the id
	metadata  map[string]*MetadataDocument
	snapshots []*SnapshotDocument
	snapPaths []string
}

func (d *Dir) scan(ctx context.Context) (*dirContents, error) {
	c := &dirContents{
		ops:      make(map[string]*MigrationDocument),
		metadata: make(map[string]*MetadataDocument),
	}

	err := fs.WalkDir(d.fsys, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			if p != "." && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".go" {
			return nil
		}

		data, err := fs.ReadFile(d.fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		if ext == ".go" {
			doc, found, err := EmbeddedDocument(data)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			if !found {
				return nil
			}
			data = doc
		}
		var header struct {
			Kind string `yaml:"kind"`
		}
		if err := yaml.Unmarshal(data, &header); err != nil {
			// Not every YAML file in a project is ours.
			return nil
		}

		switch header.Kind {
		case KindMigration:
			var doc MigrationDocument
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse migration %s: %w", p, err)
			}
			c.ops[strings.TrimSuffix(path.Base(p), ext)] = &doc
		case KindMigrationMetadata:
			var doc MetadataDocument
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse migration metadata %s: %w", p, err)
			}
			if doc.ID == "" {
				return fmt.Errorf("migration metadata %s has no id", p)
			}
			if _, dup := c.metadata[doc.ID]; dup {
				return fmt.Errorf("migration %s is defined more than once", doc.ID)
			}
			c.metadata[doc.ID] = &doc
		case KindModelSnapshot:
			var doc SnapshotDocument
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to parse model snapshot %s: %w", p, err)
			}
			c.snapshots = append(c.snapshots, &doc)
			c.snapPaths = append(c.snapPaths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}
	return c, nil
}

// Migrations implements Reader. A migration is defined by its metadata
// artifact; its operations artifact is optional.
func (d *Dir) Migrations(ctx context.Context) ([]*Migration, error) {
	c, err := d.scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Migration, 0, len(c.metadata))
	for id, meta := range c.metadata {
		m := &Migration{
			ID:             id,
			Namespace:      meta.Namespace,
			ProductVersion: meta.ProductVersion,
			Target:         meta.Target,
		}
		if ops, ok := c.ops[id]; ok {
			m.Up = ops.Up
			m.Down = ops.Down
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Snapshot implements Reader.
func (d *Dir) Snapshot(ctx context.Context) (*Snapshot, error) {
	c, err := d.scan(ctx)
	if err != nil {
		return nil, err
	}
	switch len(c.snapshots) {
	case 0:
		return nil, nil
	case 1:
		s := c.snapshots[0]
		return &Snapshot{Name: s.Name, Namespace: s.Namespace, Model: s.Model}, nil
	default:
		return nil, fmt.Errorf("found %d model snapshots: %s", len(c.snapshots), strings.Join(c.snapPaths, ", "))
	}
}
