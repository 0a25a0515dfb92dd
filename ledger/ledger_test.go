package ledger

import (
	"context"
	"strconv"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

type fakeMigration struct {
	id string
}

func (m fakeMigration) ID() string           { return m.id }
func (fakeMigration) Namespace() string      { return "Shop.Migrations" }
func (fakeMigration) ProductVersion() string { return "0.1.0" }
func (fakeMigration) Up() operation.List     { return operation.List{&operation.AddEntity{Name: "Widget"}} }
func (fakeMigration) Down() operation.List   { return operation.List{&operation.DropEntity{Name: "Widget"}} }
func (fakeMigration) Target() *model.Model   { return &model.Model{Entities: []*model.Entity{{Name: "Widget"}}} }

type fakeSnapshot struct{}

func (fakeSnapshot) Name() string        { return "ShopContextModelSnapshot" }
func (fakeSnapshot) Namespace() string   { return "Shop.Migrations" }
func (fakeSnapshot) Model() *model.Model { return &model.Model{} }

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	r.Register(fakeMigration{id: "20150102000000_Second"})
	r.Register(fakeMigration{id: "20150101000000_First"})
	r.RegisterSnapshot(fakeSnapshot{})

	migrations, err := r.Migrations(ctx)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "20150101000000_First", migrations[0].ID)
	assert.Equal(t, "20150102000000_Second", Last(migrations).ID)
	assert.Equal(t, "Shop.Migrations", migrations[0].Namespace)
	assert.Len(t, migrations[0].Up, 1)

	snap, err = r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ShopContextModelSnapshot", snap.Name)

	assert.Panics(t, func() { r.Register(fakeMigration{id: "20150101000000_First"}) })
	assert.Panics(t, func() { r.RegisterSnapshot(fakeSnapshot{}) })
}

const migrationYAML = `kind: Migration
namespace: Shop.Migrations
name: InitialCreate
up:
  - kind: AddEntity
    name: Widget
  - kind: AddProperty
    entity: Widget
    property:
      name: Id
      type: int
down:
  - kind: DropProperty
    entity: Widget
    name: Id
  - kind: DropEntity
    name: Widget
`

const metadataYAML = `kind: MigrationMetadata
namespace: Shop.Migrations
owner: ShopContext
name: InitialCreate
id: 20150101120000_InitialCreate
productVersion: 0.1.0
target:
  entities:
    - name: Widget
      properties:
        - name: Id
          type: int
`

const snapshotYAML = `kind: ModelSnapshot
namespace: Shop.Migrations
owner: ShopContext
name: ShopContextModelSnapshot
model:
  entities:
    - name: Widget
`

func TestDir(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"Migrations/20150101120000_InitialCreate.yaml":          {Data: []byte(migrationYAML)},
		"Migrations/20150101120000_InitialCreate.designer.yaml": {Data: []byte(metadataYAML)},
		"Migrations/20150201000000_Second.designer.yaml": {Data: []byte(
			"kind: MigrationMetadata\nid: 20150201000000_Second\nnamespace: Shop.Migrations\n")},
		"Migrations/ShopContextModelSnapshot.yaml": {Data: []byte(snapshotYAML)},
		"model.yaml":       {Data: []byte("entities:\n  - name: Widget\n")},
		"notes.yaml":       {Data: []byte("{{ not yaml")},
		".git/config.yaml": {Data: []byte(snapshotYAML)},
		"README.md":        {Data: []byte("# shop")},
	}

	d := NewDir(fsys)

	migrations, err := d.Migrations(ctx)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	first := migrations[0]
	assert.Equal(t, "20150101120000_InitialCreate", first.ID)
	assert.Equal(t, "Shop.Migrations", first.Namespace)
	assert.Equal(t, "0.1.0", first.ProductVersion)
	assert.Equal(t, []operation.Kind{operation.KindAddEntity, operation.KindAddProperty}, first.Up.Kinds())
	assert.Equal(t, []operation.Kind{operation.KindDropProperty, operation.KindDropEntity}, first.Down.Kinds())
	require.NotNil(t, first.Target)
	assert.Equal(t, "int", first.Target.Entity("Widget").Property("Id").Type)

	second := migrations[1]
	assert.Equal(t, "20150201000000_Second", second.ID)
	assert.Empty(t, second.Up)

	snap, err := d.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "ShopContextModelSnapshot", snap.Name)
	assert.Equal(t, "Shop.Migrations", snap.Namespace)
	assert.NotNil(t, snap.Model.Entity("Widget"))
}

func goArtifact(body, doc string) []byte {
	return []byte("// Code generated by modelmigrate. DO NOT EDIT.\n\npackage migrations\n\n" +
		body + "\n\n" + Directive + strconv.Quote(doc) + "\n")
}

func TestDirGoArtifacts(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"Migrations/20150101120000_InitialCreate.go":          {Data: goArtifact("type InitialCreate struct{}", migrationYAML)},
		"Migrations/20150101120000_InitialCreate.designer.go": {Data: goArtifact("func init() {}", metadataYAML)},
		"Migrations/ShopContextModelSnapshot.go":              {Data: goArtifact("type ShopContextModelSnapshot struct{}", snapshotYAML)},
		"main.go": {Data: []byte("package main\n\nfunc main() {}\n")},
	}

	d := NewDir(fsys)

	migrations, err := d.Migrations(ctx)
	require.NoError(t, err)
	require.Len(t, migrations, 1)
	assert.Equal(t, "20150101120000_InitialCreate", migrations[0].ID)
	assert.Equal(t, []operation.Kind{operation.KindAddEntity, operation.KindAddProperty}, migrations[0].Up.Kinds())
	assert.NotNil(t, migrations[0].Target.Entity("Widget"))

	snap, err := d.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "ShopContextModelSnapshot", snap.Name)
}

func TestEmbeddedDocument(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantDoc   string
		wantFound bool
		wantErr   bool
	}{
		{"none", "package migrations\n", "", false, false},
		{"quoted", "package migrations\n\n" + Directive + `"kind: ModelSnapshot\nname: S\n"` + "\n", "kind: ModelSnapshot\nname: S\n", true, false},
		{"indented", "package migrations\n\t" + Directive + `"kind: Migration\n"`, "kind: Migration\n", true, false},
		{"malformed", "package migrations\n" + Directive + `"unterminated`, "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, found, err := EmbeddedDocument([]byte(tt.src))
			assert.Equal(t, tt.wantFound, found)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDoc, string(doc))
		})
	}
}

func TestDirEmpty(t *testing.T) {
	d := NewDir(fstest.MapFS{})

	migrations, err := d.Migrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, migrations)

	snap, err := d.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestDirErrors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr string
	}{
		{
			name: "two snapshots",
			fsys: fstest.MapFS{
				"a/Snap.yaml": {Data: []byte(snapshotYAML)},
				"b/Snap.yaml": {Data: []byte(snapshotYAML)},
			},
			wantErr: "found 2 model snapshots",
		},
		{
			name: "metadata without id",
			fsys: fstest.MapFS{
				"x.designer.yaml": {Data: []byte("kind: MigrationMetadata\nname: X\n")},
			},
			wantErr: "has no id",
		},
		{
			name: "bad operation kind",
			fsys: fstest.MapFS{
				"x.yaml": {Data: []byte("kind: Migration\nup:\n  - kind: Rename\n")},
			},
			wantErr: `unknown operation kind "Rename"`,
		},
		{
			name: "malformed go directive",
			fsys: fstest.MapFS{
				"Snap.go": {Data: []byte("package migrations\n" + Directive + "kind: ModelSnapshot\n")},
			},
			wantErr: "malformed ledger directive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDir(tt.fsys)
			_, errM := d.Migrations(context.Background())
			_, errS := d.Snapshot(context.Background())
			err := errM
			if err == nil {
				err = errS
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
