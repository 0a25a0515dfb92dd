package model

import (
	"fmt"
	"strings"
)

// ValidationError describes one violated model invariant.
type ValidationError struct {
	Entity   string
	Property string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("%s.%s: %s", e.Entity, e.Property, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s", e.Entity, e.Message)
	}
	return e.Message
}

// ValidationErrors is returned by Validate when the model is malformed.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid model:")
	for _, e := range errs {
		sb.WriteString("\n  - ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Validate checks the snapshot invariants: case-insensitively unique entity
// and property names, key/index/foreign-key references that resolve on their
// owning entity, and foreign keys that target an existing principal key with
// matching arity and property types. A nil model is valid.
func (m *Model) Validate() error {
	if m == nil {
		return nil
	}
	var errs ValidationErrors
	add := func(entity, property, format string, args ...any) {
		errs = append(errs, &ValidationError{Entity: entity, Property: property, Message: fmt.Sprintf(format, args...)})
	}

	entities := make(map[string]bool, len(m.Entities))
	for _, e := range m.Entities {
		if e.Name == "" {
			add("", "", "entity name is empty")
			continue
		}
		lower := strings.ToLower(e.Name)
		if entities[lower] {
			add(e.Name, "", "duplicate entity name")
		}
		entities[lower] = true

		props := make(map[string]bool, len(e.Properties))
		for _, p := range e.Properties {
			if p.Name == "" {
				add(e.Name, "", "property name is empty")
				continue
			}
			lp := strings.ToLower(p.Name)
			if props[lp] {
				add(e.Name, p.Name, "duplicate property name")
			}
			props[lp] = true
			if p.Type == "" {
				add(e.Name, p.Name, "property type is empty")
			}
			switch p.StoreGenerated {
			case StoreGeneratedNone, StoreGeneratedIdentity, StoreGeneratedComputed:
			default:
				add(e.Name, p.Name, "unknown store-generated pattern %q", p.StoreGenerated)
			}
		}

		checkRefs := func(what string, refs []string) {
			if len(refs) == 0 {
				add(e.Name, "", "%s has no properties", what)
			}
			for _, r := range refs {
				if e.Property(r) == nil {
					add(e.Name, r, "%s references undeclared property", what)
				}
			}
		}
		if e.PrimaryKey != nil {
			checkRefs("primary key", e.PrimaryKey.Properties)
		}
		for _, k := range e.AlternateKeys {
			checkRefs("alternate key", k.Properties)
		}
		for _, ix := range e.Indexes {
			checkRefs("index", ix.Properties)
		}
		for _, fk := range e.ForeignKeys {
			checkRefs("foreign key", fk.Properties)
		}
	}

	for _, e := range m.Entities {
		for _, fk := range e.ForeignKeys {
			principal := m.Entity(fk.PrincipalEntity)
			if principal == nil {
				add(e.Name, "", "foreign key %s references unknown entity", fk)
				continue
			}
			if principal.FindKey(fk.PrincipalKey) == nil {
				add(e.Name, "", "foreign key %s does not target a key of %s", fk, principal.Name)
				continue
			}
			if len(fk.PrincipalKey) != len(fk.Properties) {
				add(e.Name, "", "foreign key %s has %d properties but principal key has %d",
					fk, len(fk.Properties), len(fk.PrincipalKey))
				continue
			}
			for i, name := range fk.Properties {
				dep, pk := e.Property(name), principal.Property(fk.PrincipalKey[i])
				if dep != nil && pk != nil && !strings.EqualFold(dep.Type, pk.Type) {
					add(e.Name, name, "type %s is not compatible with %s.%s (%s)",
						dep.Type, principal.Name, pk.Name, pk.Type)
				}
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
