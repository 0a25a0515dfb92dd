// Package operation defines the atomic, reversible schema changes a migration
// is made of. Operations are abstract: rendering them to a store's DDL is left
// to a dialect-specific collaborator.
package operation

import (
	"strings"

	"github.com/tordrt/modelmigrate/model"
)

// Kind identifies an operation variant.
type Kind int

const (
	KindAddEntity Kind = iota + 1
	KindDropEntity
	KindAlterEntity
	KindAddProperty
	KindDropProperty
	KindAlterProperty
	KindAddPrimaryKey
	KindDropPrimaryKey
	KindAlterPrimaryKey
	KindAddAlternateKey
	KindDropAlternateKey
	KindAlterAlternateKey
	KindAddIndex
	KindDropIndex
	KindAlterIndex
	KindAddForeignKey
	KindDropForeignKey
	KindAlterForeignKey
	KindAlterModel
)

var kindNames = map[Kind]string{
	KindAddEntity:         "AddEntity",
	KindDropEntity:        "DropEntity",
	KindAlterEntity:       "AlterEntity",
	KindAddProperty:       "AddProperty",
	KindDropProperty:      "DropProperty",
	KindAlterProperty:     "AlterProperty",
	KindAddPrimaryKey:     "AddPrimaryKey",
	KindDropPrimaryKey:    "DropPrimaryKey",
	KindAlterPrimaryKey:   "AlterPrimaryKey",
	KindAddAlternateKey:   "AddAlternateKey",
	KindDropAlternateKey:  "DropAlternateKey",
	KindAlterAlternateKey: "AlterAlternateKey",
	KindAddIndex:          "AddIndex",
	KindDropIndex:         "DropIndex",
	KindAlterIndex:        "AlterIndex",
	KindAddForeignKey:     "AddForeignKey",
	KindDropForeignKey:    "DropForeignKey",
	KindAlterForeignKey:   "AlterForeignKey",
	KindAlterModel:        "AlterModel",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Operation is one schema change. Every implementation is a pointer to one of
// the structs in this package.
type Operation interface {
	// Kind returns the variant tag.
	Kind() Kind
	// EntityName returns the entity the operation applies to, or "" for
	// model-level operations.
	EntityName() string
	// String returns a one-line human readable description.
	String() string
}

// AddEntity creates an entity. Its members are added by separate operations.
type AddEntity struct {
	Name        string            `yaml:"name"`
	Annotations model.Annotations `yaml:"annotations,omitempty"`
}

// DropEntity removes an entity.
type DropEntity struct {
	Name string `yaml:"name"`
}

// AlterEntity changes only the annotations of an entity.
type AlterEntity struct {
	Name           string            `yaml:"name"`
	Annotations    model.Annotations `yaml:"annotations,omitempty"`
	OldAnnotations model.Annotations `yaml:"oldAnnotations,omitempty"`
}

// AddProperty adds a property to an existing entity.
type AddProperty struct {
	Entity   string          `yaml:"entity"`
	Property *model.Property `yaml:"property"`
}

// DropProperty removes a property.
type DropProperty struct {
	Entity string `yaml:"entity"`
	Name   string `yaml:"name"`
}

// AlterProperty replaces a property definition as a whole.
type AlterProperty struct {
	Entity      string          `yaml:"entity"`
	Property    *model.Property `yaml:"property"`
	OldProperty *model.Property `yaml:"oldProperty"`
}

// AddPrimaryKey sets the primary key of an entity.
type AddPrimaryKey struct {
	Entity string     `yaml:"entity"`
	Key    *model.Key `yaml:"key"`
}

// DropPrimaryKey removes the primary key of an entity.
type DropPrimaryKey struct {
	Entity     string   `yaml:"entity"`
	Properties []string `yaml:"properties"`
}

// AlterPrimaryKey changes only the annotations of a primary key.
type AlterPrimaryKey struct {
	Entity         string            `yaml:"entity"`
	Properties     []string          `yaml:"properties"`
	Annotations    model.Annotations `yaml:"annotations,omitempty"`
	OldAnnotations model.Annotations `yaml:"oldAnnotations,omitempty"`
}

// AddAlternateKey adds a unique constraint.
type AddAlternateKey struct {
	Entity string     `yaml:"entity"`
	Key    *model.Key `yaml:"key"`
}

// DropAlternateKey removes a unique constraint.
type DropAlternateKey struct {
	Entity     string   `yaml:"entity"`
	Properties []string `yaml:"properties"`
}

// AlterAlternateKey changes only the annotations of an alternate key.
type AlterAlternateKey struct {
	Entity         string            `yaml:"entity"`
	Properties     []string          `yaml:"properties"`
	Annotations    model.Annotations `yaml:"annotations,omitempty"`
	OldAnnotations model.Annotations `yaml:"oldAnnotations,omitempty"`
}

// AddIndex creates an index.
type AddIndex struct {
	Entity string       `yaml:"entity"`
	Index  *model.Index `yaml:"index"`
}

// DropIndex removes an index.
type DropIndex struct {
	Entity     string   `yaml:"entity"`
	Properties []string `yaml:"properties"`
}

// AlterIndex changes only the annotations of an index.
type AlterIndex struct {
	Entity         string            `yaml:"entity"`
	Properties     []string          `yaml:"properties"`
	Annotations    model.Annotations `yaml:"annotations,omitempty"`
	OldAnnotations model.Annotations `yaml:"oldAnnotations,omitempty"`
}

// AddForeignKey creates a foreign key on the dependent entity.
type AddForeignKey struct {
	Entity     string            `yaml:"entity"`
	ForeignKey *model.ForeignKey `yaml:"foreignKey"`
}

// DropForeignKey removes a foreign key.
type DropForeignKey struct {
	Entity          string   `yaml:"entity"`
	Properties      []string `yaml:"properties"`
	PrincipalEntity string   `yaml:"principalEntity"`
}

// AlterForeignKey changes only the annotations of a foreign key.
type AlterForeignKey struct {
	Entity          string            `yaml:"entity"`
	Properties      []string          `yaml:"properties"`
	PrincipalEntity string            `yaml:"principalEntity"`
	Annotations     model.Annotations `yaml:"annotations,omitempty"`
	OldAnnotations  model.Annotations `yaml:"oldAnnotations,omitempty"`
}

// AlterModel changes the model-level annotations.
type AlterModel struct {
	Annotations    model.Annotations `yaml:"annotations,omitempty"`
	OldAnnotations model.Annotations `yaml:"oldAnnotations,omitempty"`
}

func (*AddEntity) Kind() Kind         { return KindAddEntity }
func (*DropEntity) Kind() Kind        { return KindDropEntity }
func (*AlterEntity) Kind() Kind       { return KindAlterEntity }
func (*AddProperty) Kind() Kind       { return KindAddProperty }
func (*DropProperty) Kind() Kind      { return KindDropProperty }
func (*AlterProperty) Kind() Kind     { return KindAlterProperty }
func (*AddPrimaryKey) Kind() Kind     { return KindAddPrimaryKey }
func (*DropPrimaryKey) Kind() Kind    { return KindDropPrimaryKey }
func (*AlterPrimaryKey) Kind() Kind   { return KindAlterPrimaryKey }
func (*AddAlternateKey) Kind() Kind   { return KindAddAlternateKey }
func (*DropAlternateKey) Kind() Kind  { return KindDropAlternateKey }
func (*AlterAlternateKey) Kind() Kind { return KindAlterAlternateKey }
func (*AddIndex) Kind() Kind          { return KindAddIndex }
func (*DropIndex) Kind() Kind         { return KindDropIndex }
func (*AlterIndex) Kind() Kind        { return KindAlterIndex }
func (*AddForeignKey) Kind() Kind     { return KindAddForeignKey }
func (*DropForeignKey) Kind() Kind    { return KindDropForeignKey }
func (*AlterForeignKey) Kind() Kind   { return KindAlterForeignKey }
func (*AlterModel) Kind() Kind        { return KindAlterModel }

func (o *AddEntity) EntityName() string         { return o.Name }
func (o *DropEntity) EntityName() string        { return o.Name }
func (o *AlterEntity) EntityName() string       { return o.Name }
func (o *AddProperty) EntityName() string       { return o.Entity }
func (o *DropProperty) EntityName() string      { return o.Entity }
func (o *AlterProperty) EntityName() string     { return o.Entity }
func (o *AddPrimaryKey) EntityName() string     { return o.Entity }
func (o *DropPrimaryKey) EntityName() string    { return o.Entity }
func (o *AlterPrimaryKey) EntityName() string   { return o.Entity }
func (o *AddAlternateKey) EntityName() string   { return o.Entity }
func (o *DropAlternateKey) EntityName() string  { return o.Entity }
func (o *AlterAlternateKey) EntityName() string { return o.Entity }
func (o *AddIndex) EntityName() string          { return o.Entity }
func (o *DropIndex) EntityName() string         { return o.Entity }
func (o *AlterIndex) EntityName() string        { return o.Entity }
func (o *AddForeignKey) EntityName() string     { return o.Entity }
func (o *DropForeignKey) EntityName() string    { return o.Entity }
func (o *AlterForeignKey) EntityName() string   { return o.Entity }
func (*AlterModel) EntityName() string          { return "" }

func cols(props []string) string { return "(" + strings.Join(props, ", ") + ")" }

func (o *AddEntity) String() string   { return "AddEntity " + o.Name }
func (o *DropEntity) String() string  { return "DropEntity " + o.Name }
func (o *AlterEntity) String() string { return "AlterEntity " + o.Name }
func (o *AddProperty) String() string {
	return "AddProperty " + o.Entity + "." + o.Property.Name + " " + o.Property.Type
}
func (o *DropProperty) String() string { return "DropProperty " + o.Entity + "." + o.Name }
func (o *AlterProperty) String() string {
	return "AlterProperty " + o.Entity + "." + o.Property.Name + " " + o.Property.Type
}
func (o *AddPrimaryKey) String() string {
	return "AddPrimaryKey " + o.Entity + cols(o.Key.Properties)
}
func (o *DropPrimaryKey) String() string  { return "DropPrimaryKey " + o.Entity + cols(o.Properties) }
func (o *AlterPrimaryKey) String() string { return "AlterPrimaryKey " + o.Entity + cols(o.Properties) }
func (o *AddAlternateKey) String() string {
	return "AddAlternateKey " + o.Entity + cols(o.Key.Properties)
}
func (o *DropAlternateKey) String() string {
	return "DropAlternateKey " + o.Entity + cols(o.Properties)
}
func (o *AlterAlternateKey) String() string {
	return "AlterAlternateKey " + o.Entity + cols(o.Properties)
}
func (o *AddIndex) String() string {
	s := "AddIndex " + o.Entity + cols(o.Index.Properties)
	if o.Index.Unique {
		s += " UNIQUE"
	}
	return s
}
func (o *DropIndex) String() string  { return "DropIndex " + o.Entity + cols(o.Properties) }
func (o *AlterIndex) String() string { return "AlterIndex " + o.Entity + cols(o.Properties) }
func (o *AddForeignKey) String() string {
	return "AddForeignKey " + o.Entity + o.ForeignKey.String()
}
func (o *DropForeignKey) String() string {
	return "DropForeignKey " + o.Entity + cols(o.Properties) + " -> " + o.PrincipalEntity
}
func (o *AlterForeignKey) String() string {
	return "AlterForeignKey " + o.Entity + cols(o.Properties) + " -> " + o.PrincipalEntity
}
func (*AlterModel) String() string { return "AlterModel" }

// New returns a zero value of the operation with the given kind.
func New(k Kind) Operation {
	switch k {
	case KindAddEntity:
		return &AddEntity{}
	case KindDropEntity:
		return &DropEntity{}
	case KindAlterEntity:
		return &AlterEntity{}
	case KindAddProperty:
		return &AddProperty{}
	case KindDropProperty:
		return &DropProperty{}
	case KindAlterProperty:
		return &AlterProperty{}
	case KindAddPrimaryKey:
		return &AddPrimaryKey{}
	case KindDropPrimaryKey:
		return &DropPrimaryKey{}
	case KindAlterPrimaryKey:
		return &AlterPrimaryKey{}
	case KindAddAlternateKey:
		return &AddAlternateKey{}
	case KindDropAlternateKey:
		return &DropAlternateKey{}
	case KindAlterAlternateKey:
		return &AlterAlternateKey{}
	case KindAddIndex:
		return &AddIndex{}
	case KindDropIndex:
		return &DropIndex{}
	case KindAlterIndex:
		return &AlterIndex{}
	case KindAddForeignKey:
		return &AddForeignKey{}
	case KindDropForeignKey:
		return &DropForeignKey{}
	case KindAlterForeignKey:
		return &AlterForeignKey{}
	case KindAlterModel:
		return &AlterModel{}
	}
	return nil
}
