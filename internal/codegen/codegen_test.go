package codegen

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/modelmigrate/ledger"
	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

func widgetModel() *model.Model {
	return &model.Model{
		Annotations: model.Annotations{"Schema": "shop"},
		Entities: []*model.Entity{{
			Name: "Widget",
			Properties: []*model.Property{
				{Name: "Id", Type: "int", StoreGenerated: model.StoreGeneratedIdentity},
				{Name: "Label", Type: "string", Nullable: true, MaxLength: 64},
			},
			PrimaryKey: &model.Key{Properties: []string{"Id"}},
			Indexes:    []*model.Index{{Properties: []string{"Label"}, Unique: true}},
		}},
	}
}

func widgetUp() operation.List {
	m := widgetModel()
	e := m.Entities[0]
	return operation.List{
		&operation.AlterModel{Annotations: m.Annotations},
		&operation.AddEntity{Name: "Widget"},
		&operation.AddProperty{Entity: "Widget", Property: e.Properties[0]},
		&operation.AddProperty{Entity: "Widget", Property: e.Properties[1]},
		&operation.AddPrimaryKey{Entity: "Widget", Key: e.PrimaryKey},
		&operation.AddIndex{Entity: "Widget", Index: e.Indexes[0]},
	}
}

func TestNew(t *testing.T) {
	g, err := New("yaml")
	require.NoError(t, err)
	assert.Equal(t, ".yaml", g.Language())

	g, err = New("go")
	require.NoError(t, err)
	assert.Equal(t, ".go", g.Language())

	_, err = New("csharp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language: csharp")
	assert.Equal(t, []string{"go", "yaml"}, Languages())
}

func TestYAMLMigration(t *testing.T) {
	g := NewYAML()

	text, err := g.GenerateMigration("Shop.Migrations", "InitialCreate", widgetUp(), nil)
	require.NoError(t, err)
	assert.Contains(t, text, "kind: Migration\n")
	assert.Contains(t, text, "down: []\n")

	var doc ledger.MigrationDocument
	require.NoError(t, yaml.Unmarshal([]byte(text), &doc))
	assert.Equal(t, "Shop.Migrations", doc.Namespace)
	assert.Equal(t, "InitialCreate", doc.Name)
	if diff := cmp.Diff(widgetUp(), doc.Up); diff != "" {
		t.Errorf("up mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, doc.Down)
}

func TestYAMLMetadataAndSnapshot(t *testing.T) {
	g := NewYAML()

	text, err := g.GenerateMetadata("Shop.Migrations", "ShopContext", "InitialCreate",
		"20150101120000_InitialCreate", "0.1.0", widgetModel())
	require.NoError(t, err)

	var meta ledger.MetadataDocument
	require.NoError(t, yaml.Unmarshal([]byte(text), &meta))
	assert.Equal(t, ledger.KindMigrationMetadata, meta.Kind)
	assert.Equal(t, "20150101120000_InitialCreate", meta.ID)
	assert.Equal(t, "ShopContext", meta.Owner)
	assert.Equal(t, "0.1.0", meta.ProductVersion)
	if diff := cmp.Diff(widgetModel(), meta.Target); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}

	text, err = g.GenerateSnapshot("Shop.Migrations", "ShopContext", "ShopContextModelSnapshot", widgetModel())
	require.NoError(t, err)

	var snap ledger.SnapshotDocument
	require.NoError(t, yaml.Unmarshal([]byte(text), &snap))
	assert.Equal(t, ledger.KindModelSnapshot, snap.Kind)
	assert.Equal(t, "ShopContextModelSnapshot", snap.Name)
	if diff := cmp.Diff(widgetModel(), snap.Model); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
}

func parseGo(t *testing.T, src string) {
	t.Helper()
	_, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.AllErrors)
	require.NoError(t, err, src)
}

func TestGoMigration(t *testing.T) {
	g := NewGo()

	src, err := g.GenerateMigration("Shop.Migrations", "InitialCreate", widgetUp(), nil)
	require.NoError(t, err)
	parseGo(t, src)

	assert.Contains(t, src, "// Code generated by modelmigrate. DO NOT EDIT.")
	assert.Contains(t, src, "package migrations")
	assert.Contains(t, src, `"github.com/tordrt/modelmigrate/operation"`)
	assert.Contains(t, src, "type InitialCreate struct{}")
	assert.Contains(t, src, "func (InitialCreate) Up() operation.List {")
	assert.Contains(t, src, "model.StoreGeneratedIdentity")
	assert.Regexp(t, `&operation\.AddEntity\{\s*Name: "Widget",?\s*\}`, src)
	assert.Regexp(t, `MaxLength:\s+64`, src)
	assert.Regexp(t, `Properties: \[\]string\{"Label"\}`, src)
	assert.Regexp(t, `func \(InitialCreate\) Down\(\) operation\.List \{\s+return nil`, src)

	var doc ledger.MigrationDocument
	embedded(t, src, &doc)
	assert.Equal(t, ledger.KindMigration, doc.Kind)
	if diff := cmp.Diff(widgetUp(), doc.Up); diff != "" {
		t.Errorf("embedded up mismatch (-want +got):\n%s", diff)
	}
}

func embedded(t *testing.T, src string, out any) {
	t.Helper()
	doc, found, err := ledger.EmbeddedDocument([]byte(src))
	require.NoError(t, err)
	require.True(t, found, src)
	require.NoError(t, yaml.Unmarshal(doc, out))
}

func TestGoMetadataAndSnapshot(t *testing.T) {
	g := NewGo()

	src, err := g.GenerateMetadata("Shop.Migrations", "ShopContext", "InitialCreate",
		"20150101120000_InitialCreate", "0.1.0", widgetModel())
	require.NoError(t, err)
	parseGo(t, src)
	assert.Contains(t, src, `return "20150101120000_InitialCreate"`)
	assert.Contains(t, src, "func (InitialCreate) Target() *model.Model {")
	assert.Contains(t, src, "ledger.Register(InitialCreate{})")
	assert.Regexp(t, `model\.Annotations\{\s*"Schema": "shop",?\s*\}`, src)

	var meta ledger.MetadataDocument
	embedded(t, src, &meta)
	assert.Equal(t, "20150101120000_InitialCreate", meta.ID)
	assert.Equal(t, "Shop.Migrations", meta.Namespace)
	if diff := cmp.Diff(widgetModel(), meta.Target); diff != "" {
		t.Errorf("embedded target mismatch (-want +got):\n%s", diff)
	}

	src, err = g.GenerateSnapshot("Shop.Migrations", "ShopContext", "ShopContextModelSnapshot", nil)
	require.NoError(t, err)
	parseGo(t, src)
	assert.Contains(t, src, "ledger.RegisterSnapshot(ShopContextModelSnapshot{})")
	assert.Regexp(t, `Model\(\) \*model\.Model \{\s+return nil`, src)

	var snap ledger.SnapshotDocument
	embedded(t, src, &snap)
	assert.Equal(t, ledger.KindModelSnapshot, snap.Kind)
	assert.Equal(t, "ShopContextModelSnapshot", snap.Name)
	assert.Nil(t, snap.Model)
}

func TestGoRejectsBadIdentifiers(t *testing.T) {
	g := NewGo()

	_, err := g.GenerateMigration("Shop", "func", nil, nil)
	require.Error(t, err)
	_, err = g.GenerateSnapshot("Shop", "Owner", "Not-An-Ident", nil)
	require.Error(t, err)
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{"Shop.Migrations", "migrations"},
		{"Shop.Data.Schema", "schema"},
		{"Store", "store"},
		{"", "migrations"},
		{"Shop.Go", "migrations"},
		{"Shop.2020", "migrations"},
	}

	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			assert.Equal(t, tt.want, PackageName(tt.namespace))
		})
	}
}
