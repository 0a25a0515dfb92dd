package codegen

import (
	"bytes"
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/tordrt/modelmigrate/ledger"
	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

const (
	modulePath   = "github.com/tordrt/modelmigrate"
	modelPkg     = modulePath + "/model"
	operationPkg = modulePath + "/operation"
	ledgerPkg    = modulePath + "/ledger"

	header = "Code generated by modelmigrate. DO NOT EDIT."
)

// Go renders artifacts as Go source that registers itself into
// ledger.DefaultRegistry from an init function. Each file also carries its
// YAML document in a ledger.Directive line so ledger.Dir can read the project
// without compiling it.
type Go struct{}

// NewGo creates a new Go source generator
func NewGo() *Go {
	return &Go{}
}

func (*Go) Language() string { return ".go" }

func (*Go) GenerateMigration(namespace, name string, up, down operation.List) (string, error) {
	if err := checkIdent(name); err != nil {
		return "", err
	}
	f := newFile(namespace)

	f.Commentf("%s is a migration in namespace %s.", name, namespace)
	f.Type().Id(name).Struct()

	upCode, err := literal(up)
	if err != nil {
		return "", err
	}
	downCode, err := literal(down)
	if err != nil {
		return "", err
	}

	f.Func().Params(jen.Id(name)).Id("Up").Params().Qual(operationPkg, "List").Block(
		jen.Return(upCode),
	)
	f.Func().Params(jen.Id(name)).Id("Down").Params().Qual(operationPkg, "List").Block(
		jen.Return(downCode),
	)
	if err := embed(f, migrationDocument(namespace, name, up, down)); err != nil {
		return "", err
	}
	return render(f)
}

func (*Go) GenerateMetadata(namespace, owner, name, id, productVersion string, target *model.Model) (string, error) {
	if err := checkIdent(name); err != nil {
		return "", err
	}
	f := newFile(namespace)

	targetCode, err := literal(target)
	if err != nil {
		return "", err
	}

	f.Commentf("ID is the ledger id of %s, a migration of %s.", name, owner)
	f.Func().Params(jen.Id(name)).Id("ID").Params().String().Block(jen.Return(jen.Lit(id)))
	f.Func().Params(jen.Id(name)).Id("Namespace").Params().String().Block(jen.Return(jen.Lit(namespace)))
	f.Func().Params(jen.Id(name)).Id("ProductVersion").Params().String().Block(jen.Return(jen.Lit(productVersion)))
	f.Line()
	f.Comment("Target is the model once this migration has been applied.")
	f.Func().Params(jen.Id(name)).Id("Target").Params().Op("*").Qual(modelPkg, "Model").Block(
		jen.Return(targetCode),
	)
	f.Func().Id("init").Params().Block(
		jen.Qual(ledgerPkg, "Register").Call(jen.Id(name).Values()),
	)
	if err := embed(f, metadataDocument(namespace, owner, name, id, productVersion, target)); err != nil {
		return "", err
	}
	return render(f)
}

func (*Go) GenerateSnapshot(namespace, owner, snapshotName string, m *model.Model) (string, error) {
	if err := checkIdent(snapshotName); err != nil {
		return "", err
	}
	f := newFile(namespace)

	modelCode, err := literal(m)
	if err != nil {
		return "", err
	}

	f.Commentf("%s is the current model of %s.", snapshotName, owner)
	f.Type().Id(snapshotName).Struct()
	f.Func().Params(jen.Id(snapshotName)).Id("Name").Params().String().Block(jen.Return(jen.Lit(snapshotName)))
	f.Func().Params(jen.Id(snapshotName)).Id("Namespace").Params().String().Block(jen.Return(jen.Lit(namespace)))
	f.Func().Params(jen.Id(snapshotName)).Id("Model").Params().Op("*").Qual(modelPkg, "Model").Block(
		jen.Return(modelCode),
	)
	f.Func().Id("init").Params().Block(
		jen.Qual(ledgerPkg, "RegisterSnapshot").Call(jen.Id(snapshotName).Values()),
	)
	if err := embed(f, snapshotDocument(namespace, owner, snapshotName, m)); err != nil {
		return "", err
	}
	return render(f)
}

func newFile(namespace string) *jen.File {
	f := jen.NewFile(PackageName(namespace))
	f.HeaderComment(header)
	f.ImportName(modelPkg, "model")
	f.ImportName(operationPkg, "operation")
	f.ImportName(ledgerPkg, "ledger")
	return f
}

// embed appends doc as a single ledger.Directive comment line.
func embed(f *jen.File, doc any) error {
	text, err := encode(doc)
	if err != nil {
		return err
	}
	f.Line()
	f.Comment(ledger.Directive + strconv.Quote(text))
	return nil
}

func render(f *jen.File) (string, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render go source: %w", err)
	}
	return buf.String(), nil
}

// PackageName maps a dotted namespace to a Go package name: the last segment,
// lower-cased, or "migrations" when that is not a usable identifier.
func PackageName(namespace string) string {
	name := namespace
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	if !token.IsIdentifier(name) || name == "_" {
		return "migrations"
	}
	return name
}

func checkIdent(name string) error {
	if !token.IsIdentifier(name) {
		return fmt.Errorf("%q is not a valid Go identifier", name)
	}
	return nil
}
