// Package schema answers reflection questions about GORM models on behalf
// of the collector: which physical table a record maps to, whether it
// already holds a primary key, and which other records it references.
package schema

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	gormschema "gorm.io/gorm/schema"

	"github.com/dbsmedya/gofactory/collector"
)

// Resolver implements collector.Introspector over gorm's schema parser.
// Parsed schemas are cached per model type, so a Resolver is cheap to share
// across factories and safe for concurrent use.
type Resolver struct {
	cache *sync.Map
	namer gormschema.Namer
}

// NewResolver creates a Resolver using the given naming strategy. Pass nil
// to use gorm's default strategy. The namer must match the one the target
// *gorm.DB is configured with, otherwise table names diverge.
func NewResolver(namer gormschema.Namer) *Resolver {
	if namer == nil {
		namer = gormschema.NamingStrategy{}
	}
	return &Resolver{
		cache: &sync.Map{},
		namer: namer,
	}
}

// Schema returns the parsed gorm schema for a record's model type.
func (r *Resolver) Schema(rec any) (*gormschema.Schema, error) {
	s, err := gormschema.Parse(rec, r.cache, r.namer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model schema for %T: %w", rec, err)
	}
	return s, nil
}

// TableOf returns the canonical physical table the record maps to.
func (r *Resolver) TableOf(rec any) (string, error) {
	s, err := r.Schema(rec)
	if err != nil {
		return "", err
	}
	return s.Table, nil
}

// IsPersisted reports whether the record already carries a persistent
// identity, i.e. at least one primary key field is non-zero.
func (r *Resolver) IsPersisted(rec any) (bool, error) {
	s, err := r.Schema(rec)
	if err != nil {
		return false, err
	}

	rv := reflect.Indirect(reflect.ValueOf(rec))
	for _, pf := range s.PrimaryFields {
		if _, isZero := pf.ValueOf(context.Background(), rv); !isZero {
			return true, nil
		}
	}
	return false, nil
}

// ReferencesOf returns the record's belongs-to references in declaration
// order. A reference counts as nullable only when every foreign key column
// behind it can actually hold NULL: the Go field is nilable and carries no
// NOT NULL tag. Association fields declared as struct values (rather than
// pointers) are treated as unset while they are zero.
func (r *Resolver) ReferencesOf(rec any) ([]collector.Reference, error) {
	s, err := r.Schema(rec)
	if err != nil {
		return nil, err
	}

	rv := reflect.Indirect(reflect.ValueOf(rec))
	var refs []collector.Reference
	for _, rel := range s.Relationships.BelongsTo {
		target, err := associationValue(rv, rel.Field)
		if err != nil {
			return nil, fmt.Errorf("failed to read association %s.%s: %w", s.Name, rel.Name, err)
		}
		refs = append(refs, collector.Reference{
			Table:    rel.FieldSchema.Table,
			Nullable: relationNullable(rel),
			Target:   target,
		})
	}
	return refs, nil
}

// SyncReferences copies primary key values from the record's referenced
// instances into the record's foreign key fields. Call it after the
// referenced records have been inserted and before inserting the record
// itself, so bulk inserts carry the freshly assigned identities.
func (r *Resolver) SyncReferences(rec any) error {
	s, err := r.Schema(rec)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rv := reflect.Indirect(reflect.ValueOf(rec))
	for _, rel := range s.Relationships.BelongsTo {
		target, err := associationValue(rv, rel.Field)
		if err != nil {
			return fmt.Errorf("failed to read association %s.%s: %w", s.Name, rel.Name, err)
		}
		if target == nil {
			continue
		}
		tv := reflect.Indirect(reflect.ValueOf(target))
		for _, ref := range rel.References {
			if ref.ForeignKey == nil || ref.PrimaryKey == nil {
				continue
			}
			pk, isZero := ref.PrimaryKey.ValueOf(ctx, tv)
			if isZero {
				continue
			}
			if err := ref.ForeignKey.Set(ctx, rv, pk); err != nil {
				return fmt.Errorf("failed to sync %s.%s: %w", s.Name, ref.ForeignKey.Name, err)
			}
		}
	}
	return nil
}

// relationNullable reports whether a belongs-to relation leaves its foreign
// key columns nullable at the storage level.
func relationNullable(rel *gormschema.Relationship) bool {
	for _, ref := range rel.References {
		fk := ref.ForeignKey
		if fk == nil {
			continue
		}
		if fk.NotNull {
			return false
		}
		if fk.FieldType.Kind() != reflect.Ptr {
			// A non-pointer column has no NULL representation in Go, so
			// the insert will always carry a value the constraint checks.
			return false
		}
	}
	return true
}

// associationValue extracts the referenced record held by an association
// field, or nil when the reference is unset.
func associationValue(rv reflect.Value, field *gormschema.Field) (any, error) {
	fv := rv.FieldByIndex(field.StructField.Index)
	switch fv.Kind() {
	case reflect.Ptr:
		if fv.IsNil() {
			return nil, nil
		}
		return fv.Interface(), nil
	case reflect.Struct:
		if fv.IsZero() {
			return nil, nil
		}
		if !fv.CanAddr() {
			return nil, fmt.Errorf("association field %s is not addressable; pass the record as a pointer", field.Name)
		}
		return fv.Addr().Interface(), nil
	default:
		return nil, fmt.Errorf("association field %s has unsupported kind %s", field.Name, fv.Kind())
	}
}

// compile-time check: Resolver satisfies the collector's contract.
var _ collector.Introspector = (*Resolver)(nil)
