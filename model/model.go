// Package model describes the relational shape of a data model at one point
// in time. A Model is treated as an immutable value once it has been handed to
// the differ or recorded in a migration.
package model

import (
	"sort"
	"strings"
)

// Model represents a complete model snapshot
type Model struct {
	Entities    []*Entity   `yaml:"entities,omitempty"`
	Annotations Annotations `yaml:"annotations,omitempty"`
}

// Entity represents an entity type (a table)
type Entity struct {
	Name          string        `yaml:"name"`
	Properties    []*Property   `yaml:"properties,omitempty"`
	PrimaryKey    *Key          `yaml:"primaryKey,omitempty"`
	AlternateKeys []*Key        `yaml:"alternateKeys,omitempty"`
	Indexes       []*Index      `yaml:"indexes,omitempty"`
	ForeignKeys   []*ForeignKey `yaml:"foreignKeys,omitempty"`
	Annotations   Annotations   `yaml:"annotations,omitempty"`
}

// Property represents an entity property (a column)
type Property struct {
	Name               string         `yaml:"name"`
	Type               string         `yaml:"type"`
	Nullable           bool           `yaml:"nullable,omitempty"`
	GenerateValueOnAdd bool           `yaml:"generateValueOnAdd,omitempty"`
	StoreGenerated     StoreGenerated `yaml:"storeGenerated,omitempty"`
	MaxLength          int            `yaml:"maxLength,omitempty"` // 0 means unbounded
	ConcurrencyToken   bool           `yaml:"concurrencyToken,omitempty"`
	Annotations        Annotations    `yaml:"annotations,omitempty"`
}

// Key represents a primary or alternate key. Property order is the column
// order of the key.
type Key struct {
	Properties  []string    `yaml:"properties"`
	Annotations Annotations `yaml:"annotations,omitempty"`
}

// Index represents an index over an ordered property sequence
type Index struct {
	Properties  []string    `yaml:"properties"`
	Unique      bool        `yaml:"unique,omitempty"`
	Annotations Annotations `yaml:"annotations,omitempty"`
}

// ForeignKey represents a relationship from the owning (dependent) entity to
// a principal entity's primary or alternate key.
type ForeignKey struct {
	Properties      []string    `yaml:"properties"`
	PrincipalEntity string      `yaml:"principalEntity"`
	PrincipalKey    []string    `yaml:"principalKey"`
	Unique          bool        `yaml:"unique,omitempty"`
	Annotations     Annotations `yaml:"annotations,omitempty"`
}

// StoreGenerated is the store-generated value pattern of a property.
type StoreGenerated string

const (
	StoreGeneratedNone     StoreGenerated = ""
	StoreGeneratedIdentity StoreGenerated = "identity"
	StoreGeneratedComputed StoreGenerated = "computed"
)

// Annotations maps annotation names to values. Insertion order is irrelevant.
type Annotations map[string]string

// Equal reports whether both maps hold the same names and values. A nil map
// equals an empty one.
func (a Annotations) Equal(b Annotations) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// Names returns the annotation names in sorted order.
func (a Annotations) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of the map, or nil for an empty map.
func (a Annotations) Clone() Annotations {
	if len(a) == 0 {
		return nil
	}
	c := make(Annotations, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Entity returns the entity with the given name, or nil.
func (m *Model) Entity(name string) *Entity {
	if m == nil {
		return nil
	}
	for _, e := range m.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// IsEmpty reports whether the model has neither entities nor annotations.
// A nil model is empty.
func (m *Model) IsEmpty() bool {
	return m == nil || (len(m.Entities) == 0 && len(m.Annotations) == 0)
}

// Property returns the property with the given name, or nil.
func (e *Entity) Property(name string) *Property {
	for _, p := range e.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// FindKey returns the primary or alternate key over exactly the given
// properties, or nil.
func (e *Entity) FindKey(properties []string) *Key {
	if e.PrimaryKey != nil && SameProperties(e.PrimaryKey.Properties, properties) {
		return e.PrimaryKey
	}
	for _, k := range e.AlternateKeys {
		if SameProperties(k.Properties, properties) {
			return k
		}
	}
	return nil
}

// IsRequired reports whether the relationship is required, which is the case
// when none of the dependent properties on e are nullable.
func (fk *ForeignKey) IsRequired(e *Entity) bool {
	for _, name := range fk.Properties {
		if p := e.Property(name); p == nil || p.Nullable {
			return false
		}
	}
	return true
}

// SameProperties reports whether two ordered property sequences are equal.
func SameProperties(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// References reports whether the sequence contains the named property.
func References(properties []string, name string) bool {
	for _, p := range properties {
		if p == name {
			return true
		}
	}
	return false
}

// Equal reports whether two property definitions are semantically the same.
func (p *Property) Equal(o *Property) bool {
	return p.Name == o.Name &&
		p.Type == o.Type &&
		p.Nullable == o.Nullable &&
		p.GenerateValueOnAdd == o.GenerateValueOnAdd &&
		p.StoreGenerated == o.StoreGenerated &&
		p.MaxLength == o.MaxLength &&
		p.ConcurrencyToken == o.ConcurrencyToken &&
		p.Annotations.Equal(o.Annotations)
}

// String returns a short description like "(CustomerId) -> Customer(Id)".
func (fk *ForeignKey) String() string {
	return "(" + strings.Join(fk.Properties, ", ") + ") -> " +
		fk.PrincipalEntity + "(" + strings.Join(fk.PrincipalKey, ", ") + ")"
}
