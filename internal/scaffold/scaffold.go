// Package scaffold adds migrations to a project's ledger and removes the
// newest one again, keeping the model snapshot in step with the ledger.
package scaffold

import (
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/tordrt/modelmigrate/internal/artifact"
	"github.com/tordrt/modelmigrate/internal/codegen"
	"github.com/tordrt/modelmigrate/internal/differ"
	"github.com/tordrt/modelmigrate/internal/migrationid"
	"github.com/tordrt/modelmigrate/ledger"
	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

const (
	defaultSubnamespace = "Migrations"
	snapshotSuffix      = "ModelSnapshot"
	metadataInfix       = ".designer"
)

// HistoryQuery reports which migrations have been applied to a store.
type HistoryQuery interface {
	AppliedMigrationIDs(ctx context.Context) ([]string, error)
}

// Scaffolder creates and removes migrations for the model of one owner.
type Scaffolder struct {
	owner          string
	model          *model.Model
	ledger         ledger.Reader
	codegen        codegen.Generator
	differ         *differ.ModelDiffer
	ids            *migrationid.Generator
	history        HistoryQuery
	store          artifact.Store
	productVersion string
	logger         *slog.Logger
}

// Option configures a Scaffolder.
type Option func(*Scaffolder)

// WithHistory sets the history consulted before a migration is removed.
// Without one, no migration is considered applied.
func WithHistory(h HistoryQuery) Option {
	return func(s *Scaffolder) { s.history = h }
}

// WithStore sets the artifact store. The default is the local filesystem.
func WithStore(store artifact.Store) Option {
	return func(s *Scaffolder) { s.store = store }
}

// WithIDGenerator sets the migration id generator.
func WithIDGenerator(g *migrationid.Generator) Option {
	return func(s *Scaffolder) { s.ids = g }
}

// WithProductVersion sets the version recorded in migration metadata.
func WithProductVersion(v string) Option {
	return func(s *Scaffolder) { s.productVersion = v }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scaffolder) { s.logger = logger }
}

// New creates a scaffolder for the current model of owner. Owner names the
// type the model belongs to and is used to name a new snapshot.
func New(owner string, current *model.Model, reader ledger.Reader, gen codegen.Generator, opts ...Option) *Scaffolder {
	s := &Scaffolder{
		owner:   owner,
		model:   current,
		ledger:  reader,
		codegen: gen,
		differ:  differ.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ids == nil {
		s.ids = migrationid.New()
	}
	if s.store == nil {
		s.store = artifact.NewFS()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ScaffoldedMigration is a migration that has been generated but not yet
// written.
type ScaffoldedMigration struct {
	// Language is the artifact file extension.
	Language string
	// LastMigrationID is the id of the newest existing migration, or "".
	LastMigrationID string
	MigrationID     string
	Up              operation.List
	Down            operation.List
	Target          *model.Model

	MigrationCode         string
	MetadataCode          string
	MigrationSubnamespace string

	SnapshotCode         string
	SnapshotName         string
	SnapshotSubnamespace string
}

// Files lists the artifact paths an operation wrote, rewrote or deleted.
type Files struct {
	MigrationFile string
	MetadataFile  string
	SnapshotFile  string
}

// Scaffold generates a migration named name from the difference between the
// ledger's snapshot and the current model. Nothing is written.
func (s *Scaffolder) Scaffold(ctx context.Context, name, rootNamespace string) (*ScaffoldedMigration, error) {
	if !token.IsIdentifier(name) {
		return nil, &UsageError{Op: "add", Migration: name, Err: ErrInvalidMigrationName}
	}
	if rootNamespace == "" {
		return nil, &UsageError{Op: "add", Migration: name, Err: ErrNoRootNamespace}
	}
	if err := s.model.Validate(); err != nil {
		return nil, err
	}

	migrations, err := s.ledger.Migrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	for _, m := range migrations {
		if strings.EqualFold(migrationid.GetName(m.ID), name) {
			return nil, &UsageError{Op: "add", Migration: name, Err: ErrDuplicateMigrationName}
		}
		s.ids.Observe(m.ID)
	}

	snapshot, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read model snapshot: %w", err)
	}

	migrationNamespace := rootNamespace + "." + defaultSubnamespace
	var lastID string
	if last := ledger.Last(migrations); last != nil {
		lastID = last.ID
		if last.Namespace != "" {
			migrationNamespace = last.Namespace
		}
	}

	var lastModel *model.Model
	snapshotNamespace := migrationNamespace
	snapshotName := inflect.Camelize(s.owner) + snapshotSuffix
	if snapshot != nil {
		lastModel = snapshot.Model
		if snapshot.Namespace != "" {
			snapshotNamespace = snapshot.Namespace
		}
		if snapshot.Name != "" {
			snapshotName = snapshot.Name
		}
	}

	up := s.differ.GetDifferences(lastModel, s.model)
	down := operation.List{}
	if len(up) > 0 {
		down = s.differ.GetDifferences(s.model, lastModel)
	}
	id := s.ids.CreateID(name)

	migrationCode, err := s.codegen.GenerateMigration(migrationNamespace, name, up, down)
	if err != nil {
		return nil, fmt.Errorf("failed to generate migration: %w", err)
	}
	metadataCode, err := s.codegen.GenerateMetadata(migrationNamespace, s.owner, name, id, s.productVersion, s.model)
	if err != nil {
		return nil, fmt.Errorf("failed to generate migration metadata: %w", err)
	}
	snapshotCode, err := s.codegen.GenerateSnapshot(snapshotNamespace, s.owner, snapshotName, s.model)
	if err != nil {
		return nil, fmt.Errorf("failed to generate model snapshot: %w", err)
	}

	s.logger.Debug("scaffolded migration", "id", id, "up", len(up), "down", len(down))

	return &ScaffoldedMigration{
		Language:              s.codegen.Language(),
		LastMigrationID:       lastID,
		MigrationID:           id,
		Up:                    up,
		Down:                  down,
		Target:                s.model,
		MigrationCode:         migrationCode,
		MetadataCode:          metadataCode,
		MigrationSubnamespace: Subnamespace(rootNamespace, migrationNamespace),
		SnapshotCode:          snapshotCode,
		SnapshotName:          snapshotName,
		SnapshotSubnamespace:  Subnamespace(rootNamespace, snapshotNamespace),
	}, nil
}

// Write persists a scaffolded migration below projectDir. New migrations
// are placed next to the newest existing one and the snapshot is rewritten
// where it already lives.
func (s *Scaffolder) Write(ctx context.Context, projectDir string, m *ScaffoldedMigration) (*Files, error) {
	var sibling string
	if m.LastMigrationID != "" {
		sibling = m.LastMigrationID + m.Language
	}
	migrationDir, err := s.directory(ctx, projectDir, sibling, m.MigrationSubnamespace)
	if err != nil {
		return nil, err
	}
	snapshotFileName := m.SnapshotName + m.Language
	snapshotDir, err := s.directory(ctx, projectDir, snapshotFileName, m.SnapshotSubnamespace)
	if err != nil {
		return nil, err
	}

	files := &Files{
		MigrationFile: filepath.Join(migrationDir, m.MigrationID+m.Language),
		MetadataFile:  filepath.Join(migrationDir, m.MigrationID+metadataInfix+m.Language),
		SnapshotFile:  filepath.Join(snapshotDir, snapshotFileName),
	}

	if err := s.store.EnsureDir(migrationDir); err != nil {
		return nil, err
	}
	if err := s.store.Write(files.MigrationFile, m.MigrationCode); err != nil {
		return nil, err
	}
	if err := s.store.Write(files.MetadataFile, m.MetadataCode); err != nil {
		return nil, err
	}
	if err := s.store.EnsureDir(snapshotDir); err != nil {
		return nil, err
	}
	if err := s.store.Write(files.SnapshotFile, m.SnapshotCode); err != nil {
		return nil, err
	}
	return files, nil
}

// RemoveMigration retracts the newest migration and rewinds the snapshot to
// the migration before it. When the snapshot no longer matches the newest
// migration, that migration is taken to be deleted already and only the
// snapshot is rewound.
func (s *Scaffolder) RemoveMigration(ctx context.Context, projectDir, rootNamespace string) (*Files, error) {
	snapshot, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read model snapshot: %w", err)
	}
	if snapshot == nil {
		return nil, &UsageError{Op: "remove", Err: ErrNoSnapshot}
	}
	migrations, err := s.ledger.Migrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	files := &Files{}
	language := s.codegen.Language()

	var current *model.Model
	if last := ledger.Last(migrations); last != nil {
		current = last.Target

		if !s.differ.HasDifferences(last.Target, snapshot.Model) {
			if err := s.checkNotApplied(ctx, last.ID); err != nil {
				return nil, err
			}

			migrationFile, err := s.find(ctx, projectDir, last.ID+language)
			if err != nil {
				return nil, err
			}
			if migrationFile != "" {
				s.logger.Info("removing migration", "id", last.ID)
				if err := s.store.Delete(migrationFile); err != nil {
					return nil, err
				}
				files.MigrationFile = migrationFile
			} else {
				s.logger.Warn("migration file not found", "file", last.ID+language, "id", last.ID)
			}

			metadataFile, err := s.find(ctx, projectDir, last.ID+metadataInfix+language)
			if err != nil {
				return nil, err
			}
			if metadataFile != "" {
				if err := s.store.Delete(metadataFile); err != nil {
					return nil, err
				}
				files.MetadataFile = metadataFile
			} else {
				s.logger.Debug("metadata file not found", "file", last.ID+metadataInfix+language)
			}

			current = nil
			if len(migrations) > 1 {
				current = migrations[len(migrations)-2].Target
			}
		} else {
			s.logger.Warn("snapshot does not match last migration, assuming it was deleted manually", "id", last.ID)
		}
	}

	snapshotFileName := snapshot.Name + language
	snapshotFile, err := s.find(ctx, projectDir, snapshotFileName)
	if err != nil {
		return nil, err
	}

	if current == nil {
		if snapshotFile != "" {
			s.logger.Info("removing snapshot", "file", snapshotFile)
			if err := s.store.Delete(snapshotFile); err != nil {
				return nil, err
			}
			files.SnapshotFile = snapshotFile
		} else {
			s.logger.Warn("snapshot file not found", "file", snapshotFileName, "snapshot", snapshot.Name)
		}
		return files, nil
	}

	code, err := s.codegen.GenerateSnapshot(snapshot.Namespace, s.owner, snapshot.Name, current)
	if err != nil {
		return nil, fmt.Errorf("failed to generate model snapshot: %w", err)
	}
	if snapshotFile == "" {
		dir := filepath.Join(projectDir, subnamespacePath(Subnamespace(rootNamespace, snapshot.Namespace)))
		if err := s.store.EnsureDir(dir); err != nil {
			return nil, err
		}
		snapshotFile = filepath.Join(dir, snapshotFileName)
	}

	s.logger.Info("reverting snapshot", "file", snapshotFile)
	if err := s.store.Write(snapshotFile, code); err != nil {
		return nil, err
	}
	files.SnapshotFile = snapshotFile
	return files, nil
}

func (s *Scaffolder) checkNotApplied(ctx context.Context, id string) error {
	if s.history == nil {
		return nil
	}
	applied, err := s.history.AppliedMigrationIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	for _, a := range applied {
		if strings.EqualFold(a, id) {
			return &UsageError{Op: "remove", Migration: id, Err: ErrMigrationApplied}
		}
	}
	return nil
}

func (s *Scaffolder) find(ctx context.Context, projectDir, fileName string) (string, error) {
	path, ok, err := s.store.Find(ctx, projectDir, fileName)
	if err != nil {
		return "", fmt.Errorf("failed to find %s: %w", fileName, err)
	}
	if !ok {
		return "", nil
	}
	return path, nil
}

// directory is the directory of the sibling artifact when one exists, else
// the path the subnamespace maps to below projectDir.
func (s *Scaffolder) directory(ctx context.Context, projectDir, siblingFileName, subnamespace string) (string, error) {
	if siblingFileName != "" {
		path, err := s.find(ctx, projectDir, siblingFileName)
		if err != nil {
			return "", err
		}
		if path != "" {
			return filepath.Dir(path), nil
		}
	}
	return filepath.Join(projectDir, subnamespacePath(subnamespace)), nil
}

// Subnamespace expresses namespace relative to rootNamespace: "" when they
// are equal, the remaining suffix for a dotted descendant, and namespace
// itself otherwise.
func Subnamespace(rootNamespace, namespace string) string {
	if namespace == rootNamespace {
		return ""
	}
	if strings.HasPrefix(namespace, rootNamespace+".") {
		return namespace[len(rootNamespace)+1:]
	}
	return namespace
}

func subnamespacePath(subnamespace string) string {
	if subnamespace == "" {
		return ""
	}
	return filepath.Join(strings.Split(subnamespace, ".")...)
}
