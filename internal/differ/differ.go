// Package differ computes the ordered operations that transform one model
// snapshot into another.
package differ

import (
	"github.com/tordrt/modelmigrate/model"
	"github.com/tordrt/modelmigrate/operation"
)

// ModelDiffer compares model snapshots. The zero value is ready to use and
// holds no state, so a single value may be shared.
//
// Snapshots are assumed to be valid (see model.Validate); malformed input
// yields unspecified operations rather than an error.
type ModelDiffer struct{}

// New creates a new model differ
func New() *ModelDiffer {
	return &ModelDiffer{}
}

// GetDifferences returns the operations that turn source into target, in an
// order that is safe to apply. Either model may be nil, which stands for the
// empty model.
func (*ModelDiffer) GetDifferences(source, target *model.Model) operation.List {
	d := &diff{}
	d.models(source, target)
	return sortOperations(d.ops)
}

// HasDifferences reports whether GetDifferences would return any operation.
// It stops at the first difference found.
func (*ModelDiffer) HasDifferences(source, target *model.Model) bool {
	d := &diff{first: true}
	d.models(source, target)
	return len(d.ops) > 0
}

// diff accumulates operations in the secondary order: model annotations,
// then drops per source entity, then adds and alters per target entity.
type diff struct {
	ops   operation.List
	first bool
	// droppedKeys holds, per entity kept by both models, the primary and
	// alternate keys of source that this diff drops. Foreign keys referencing
	// them are rebuilt even when they are otherwise unchanged.
	droppedKeys map[string][][]string
}

func (d *diff) add(op operation.Operation) {
	if d.done() {
		return
	}
	d.ops = append(d.ops, op)
}

func (d *diff) done() bool {
	return d.first && len(d.ops) > 0
}

func entities(m *model.Model) []*model.Entity {
	if m == nil {
		return nil
	}
	return m.Entities
}

func annotations(m *model.Model) model.Annotations {
	if m == nil {
		return nil
	}
	return m.Annotations
}

func (d *diff) models(source, target *model.Model) {
	if sa, ta := annotations(source), annotations(target); !sa.Equal(ta) {
		d.add(&operation.AlterModel{Annotations: ta.Clone(), OldAnnotations: sa.Clone()})
	}

	d.droppedKeys = droppedKeys(source, target)

	for _, se := range entities(source) {
		if d.done() {
			return
		}
		if te := target.Entity(se.Name); te != nil {
			d.entityDrops(se, te)
		} else {
			d.dropEntity(se)
		}
	}

	for _, te := range entities(target) {
		if d.done() {
			return
		}
		if se := source.Entity(te.Name); se != nil {
			d.entityAdds(se, te)
		} else {
			d.addEntity(te)
		}
	}
}

func (d *diff) addEntity(e *model.Entity) {
	d.add(&operation.AddEntity{Name: e.Name, Annotations: e.Annotations.Clone()})
	for _, p := range e.Properties {
		d.add(&operation.AddProperty{Entity: e.Name, Property: p})
	}
	if e.PrimaryKey != nil {
		d.add(&operation.AddPrimaryKey{Entity: e.Name, Key: e.PrimaryKey})
	}
	for _, k := range e.AlternateKeys {
		d.add(&operation.AddAlternateKey{Entity: e.Name, Key: k})
	}
	for _, ix := range e.Indexes {
		d.add(&operation.AddIndex{Entity: e.Name, Index: ix})
	}
	for _, fk := range e.ForeignKeys {
		d.add(&operation.AddForeignKey{Entity: e.Name, ForeignKey: fk})
	}
}

func (d *diff) dropEntity(e *model.Entity) {
	for _, fk := range e.ForeignKeys {
		d.add(dropForeignKey(e.Name, fk))
	}
	for _, ix := range e.Indexes {
		d.add(&operation.DropIndex{Entity: e.Name, Properties: ix.Properties})
	}
	for _, k := range e.AlternateKeys {
		d.add(&operation.DropAlternateKey{Entity: e.Name, Properties: k.Properties})
	}
	if e.PrimaryKey != nil {
		d.add(&operation.DropPrimaryKey{Entity: e.Name, Properties: e.PrimaryKey.Properties})
	}
	for _, p := range e.Properties {
		d.add(&operation.DropProperty{Entity: e.Name, Name: p.Name})
	}
	d.add(&operation.DropEntity{Name: e.Name})
}

// entityDrops emits the removals for an entity present in both models:
// members of source that target no longer has, and the drop half of
// structural replacements.
func (d *diff) entityDrops(se, te *model.Entity) {
	for _, fk := range se.ForeignKeys {
		if match := findForeignKey(te, fk); match == nil || !sameForeignKeyShape(fk, match) || d.principalDropped(fk) {
			d.add(dropForeignKey(se.Name, fk))
		}
	}
	for _, ix := range se.Indexes {
		if match := findIndex(te, ix.Properties); match == nil || match.Unique != ix.Unique {
			d.add(&operation.DropIndex{Entity: se.Name, Properties: ix.Properties})
		}
	}
	for _, k := range se.AlternateKeys {
		if findAlternateKey(te, k.Properties) == nil {
			d.add(&operation.DropAlternateKey{Entity: se.Name, Properties: k.Properties})
		}
	}
	if se.PrimaryKey != nil &&
		(te.PrimaryKey == nil || !model.SameProperties(se.PrimaryKey.Properties, te.PrimaryKey.Properties)) {
		d.add(&operation.DropPrimaryKey{Entity: se.Name, Properties: se.PrimaryKey.Properties})
	}
	for _, p := range se.Properties {
		if te.Property(p.Name) == nil {
			d.add(&operation.DropProperty{Entity: se.Name, Name: p.Name})
		}
	}
}

// entityAdds emits additions and in-place changes for an entity present in
// both models.
func (d *diff) entityAdds(se, te *model.Entity) {
	if !se.Annotations.Equal(te.Annotations) {
		d.add(&operation.AlterEntity{
			Name:           te.Name,
			Annotations:    te.Annotations.Clone(),
			OldAnnotations: se.Annotations.Clone(),
		})
	}

	for _, tp := range te.Properties {
		sp := se.Property(tp.Name)
		switch {
		case sp == nil:
			d.add(&operation.AddProperty{Entity: te.Name, Property: tp})
		case !sp.Equal(tp):
			d.add(&operation.AlterProperty{Entity: te.Name, Property: tp, OldProperty: sp})
		}
	}

	if tk := te.PrimaryKey; tk != nil {
		sk := se.PrimaryKey
		switch {
		case sk == nil || !model.SameProperties(sk.Properties, tk.Properties):
			d.add(&operation.AddPrimaryKey{Entity: te.Name, Key: tk})
		case !sk.Annotations.Equal(tk.Annotations):
			d.add(&operation.AlterPrimaryKey{
				Entity:         te.Name,
				Properties:     tk.Properties,
				Annotations:    tk.Annotations.Clone(),
				OldAnnotations: sk.Annotations.Clone(),
			})
		}
	}

	for _, tk := range te.AlternateKeys {
		sk := findAlternateKey(se, tk.Properties)
		switch {
		case sk == nil:
			d.add(&operation.AddAlternateKey{Entity: te.Name, Key: tk})
		case !sk.Annotations.Equal(tk.Annotations):
			d.add(&operation.AlterAlternateKey{
				Entity:         te.Name,
				Properties:     tk.Properties,
				Annotations:    tk.Annotations.Clone(),
				OldAnnotations: sk.Annotations.Clone(),
			})
		}
	}

	for _, ti := range te.Indexes {
		si := findIndex(se, ti.Properties)
		switch {
		case si == nil || si.Unique != ti.Unique:
			d.add(&operation.AddIndex{Entity: te.Name, Index: ti})
		case !si.Annotations.Equal(ti.Annotations):
			d.add(&operation.AlterIndex{
				Entity:         te.Name,
				Properties:     ti.Properties,
				Annotations:    ti.Annotations.Clone(),
				OldAnnotations: si.Annotations.Clone(),
			})
		}
	}

	for _, tfk := range te.ForeignKeys {
		sfk := findForeignKey(se, tfk)
		switch {
		case sfk == nil || !sameForeignKeyShape(sfk, tfk) || d.principalDropped(sfk):
			d.add(&operation.AddForeignKey{Entity: te.Name, ForeignKey: tfk})
		case !sfk.Annotations.Equal(tfk.Annotations):
			d.add(&operation.AlterForeignKey{
				Entity:          te.Name,
				Properties:      tfk.Properties,
				PrincipalEntity: tfk.PrincipalEntity,
				Annotations:     tfk.Annotations.Clone(),
				OldAnnotations:  sfk.Annotations.Clone(),
			})
		}
	}
}

func droppedKeys(source, target *model.Model) map[string][][]string {
	dropped := make(map[string][][]string)
	for _, se := range entities(source) {
		te := target.Entity(se.Name)
		if te == nil {
			continue
		}
		if sk := se.PrimaryKey; sk != nil &&
			(te.PrimaryKey == nil || !model.SameProperties(sk.Properties, te.PrimaryKey.Properties)) {
			dropped[se.Name] = append(dropped[se.Name], sk.Properties)
		}
		for _, k := range se.AlternateKeys {
			if findAlternateKey(te, k.Properties) == nil {
				dropped[se.Name] = append(dropped[se.Name], k.Properties)
			}
		}
	}
	return dropped
}

// principalDropped reports whether fk references a key this diff drops.
func (d *diff) principalDropped(fk *model.ForeignKey) bool {
	for _, k := range d.droppedKeys[fk.PrincipalEntity] {
		if model.SameProperties(k, fk.PrincipalKey) {
			return true
		}
	}
	return false
}

func dropForeignKey(entity string, fk *model.ForeignKey) *operation.DropForeignKey {
	return &operation.DropForeignKey{
		Entity:          entity,
		Properties:      fk.Properties,
		PrincipalEntity: fk.PrincipalEntity,
	}
}

func findAlternateKey(e *model.Entity, props []string) *model.Key {
	for _, k := range e.AlternateKeys {
		if model.SameProperties(k.Properties, props) {
			return k
		}
	}
	return nil
}

func findIndex(e *model.Entity, props []string) *model.Index {
	for _, ix := range e.Indexes {
		if model.SameProperties(ix.Properties, props) {
			return ix
		}
	}
	return nil
}

// findForeignKey matches by identity: dependent properties and principal
// entity. The dependent entity is e itself.
func findForeignKey(e *model.Entity, fk *model.ForeignKey) *model.ForeignKey {
	for _, c := range e.ForeignKeys {
		if c.PrincipalEntity == fk.PrincipalEntity && model.SameProperties(c.Properties, fk.Properties) {
			return c
		}
	}
	return nil
}

// sameForeignKeyShape compares the structural attributes that are not part of
// the identity.
func sameForeignKeyShape(a, b *model.ForeignKey) bool {
	return a.Unique == b.Unique && model.SameProperties(a.PrincipalKey, b.PrincipalKey)
}
