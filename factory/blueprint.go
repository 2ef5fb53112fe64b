package factory

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	gormschema "gorm.io/gorm/schema"

	"github.com/dbsmedya/gofactory/schema"
)

// FieldKind classifies schema fields for strategy lookup.
type FieldKind int

const (
	KindUnknown FieldKind = iota
	KindString
	KindInt
	KindUint
	KindFloat
	KindBool
	KindTime
	KindBytes
	KindRelation    // association fields and the FK columns behind them
	KindAutoPrimary // auto-increment primary keys, assigned by the database
	KindNullable    // nullable columns, left NULL as the simplest valid value
)

// String returns the kind's name for error messages.
func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindBytes:
		return "bytes"
	case KindRelation:
		return "relation"
	case KindAutoPrimary:
		return "auto-primary"
	case KindNullable:
		return "nullable"
	default:
		return "unknown"
	}
}

// Strategy produces a value for one field, or returns SkipField to leave
// the field untouched.
type Strategy func(field *gormschema.Field) (any, error)

type skipSentinel struct{}

// SkipField is the sentinel a Strategy returns to decline populating a
// field.
var SkipField any = &skipSentinel{}

// Skip is the Strategy that always declines.
func Skip(*gormschema.Field) (any, error) {
	return SkipField, nil
}

// DefaultStrategies returns the stock per-kind value generators. Scalars
// get fake but shaped data; relations and database-assigned keys are
// skipped so callers wire them explicitly.
func DefaultStrategies() map[FieldKind]Strategy {
	return map[FieldKind]Strategy{
		KindAutoPrimary: Skip,
		KindRelation:    Skip,
		KindNullable:    Skip,
		KindString:      fakeString,
		KindInt: func(*gormschema.Field) (any, error) {
			return int64(gofakeit.Number(1, 1000)), nil
		},
		KindUint: func(*gormschema.Field) (any, error) {
			return uint64(gofakeit.Number(1, 1000)), nil
		},
		KindFloat: func(*gormschema.Field) (any, error) {
			return gofakeit.Float64Range(0, 1000), nil
		},
		KindBool: func(*gormschema.Field) (any, error) {
			// The least surprising valid value, matching an unset column.
			return false, nil
		},
		KindTime: func(*gormschema.Field) (any, error) {
			return time.Now().UTC(), nil
		},
		KindBytes: func(*gormschema.Field) (any, error) {
			return []byte(gofakeit.LetterN(12)), nil
		},
	}
}

// fakeString picks a generator from the column name, so emails look like
// emails and names like names, and truncates to the column size.
func fakeString(field *gormschema.Field) (any, error) {
	name := strings.ToLower(field.Name)
	var v string
	switch {
	case strings.Contains(name, "email"):
		v = gofakeit.Email()
	case strings.Contains(name, "url"):
		v = gofakeit.URL()
	case strings.Contains(name, "phone"):
		v = gofakeit.Phone()
	case strings.Contains(name, "name"):
		v = gofakeit.Name()
	case strings.Contains(name, "city"):
		v = gofakeit.City()
	case strings.Contains(name, "country"):
		v = gofakeit.Country()
	default:
		v = gofakeit.Word()
	}
	if field.Size > 0 {
		v = truncateRunes(v, int(field.Size))
	}
	return v, nil
}

// truncateRunes shortens v to at most size runes. Cutting at a byte offset
// could split a multi-byte character and leave invalid UTF-8.
func truncateRunes(v string, size int) string {
	runes := []rune(v)
	if len(runes) <= size {
		return v
	}
	return string(runes[:size])
}

// Blueprint derives field-population plans for model types from a table of
// per-kind strategies. Build one, customize its strategies, and attach it
// to any number of factories.
type Blueprint struct {
	resolver   *schema.Resolver
	strategies map[FieldKind]Strategy
	byField    map[string]Strategy
}

// NewBlueprint creates a Blueprint seeded with DefaultStrategies. A nil
// resolver gets a default one.
func NewBlueprint(resolver *schema.Resolver) *Blueprint {
	if resolver == nil {
		resolver = schema.NewResolver(nil)
	}
	return &Blueprint{
		resolver:   resolver,
		strategies: DefaultStrategies(),
		byField:    make(map[string]Strategy),
	}
}

// WithStrategy replaces the strategy for a field kind.
func (b *Blueprint) WithStrategy(kind FieldKind, s Strategy) *Blueprint {
	b.strategies[kind] = s
	return b
}

// WithFieldStrategy pins a strategy to one field by struct field name,
// taking precedence over the kind table.
func (b *Blueprint) WithFieldStrategy(name string, s Strategy) *Blueprint {
	b.byField[name] = s
	return b
}

// boundField pairs a schema field with the strategy that populates it.
type boundField struct {
	field    *gormschema.Field
	strategy Strategy
}

// Plan is the per-model outcome of a Blueprint: an ordered list of fields
// and the strategies that fill them. A Plan is immutable and reusable.
type Plan struct {
	modelName string
	fields    []boundField
}

// Plan classifies every persistable field of the model and binds a
// strategy to it. Fields whose kind has no registered strategy make Plan
// fail, naming the field, so unsupported column types surface at
// configuration time rather than mid-test.
func (b *Blueprint) Plan(model any) (*Plan, error) {
	s, err := b.resolver.Schema(model)
	if err != nil {
		return nil, err
	}

	foreign := foreignKeyFields(s)

	plan := &Plan{modelName: s.Name}
	for _, field := range s.Fields {
		kind := classify(s, field, foreign)

		strategy, ok := b.byField[field.Name]
		if !ok {
			strategy, ok = b.strategies[kind]
		}
		if !ok || strategy == nil {
			return nil, fmt.Errorf("no strategy for field %s.%s (kind %s); register one on the blueprint", s.Name, field.Name, kind)
		}
		plan.fields = append(plan.fields, boundField{field: field, strategy: strategy})
	}
	return plan, nil
}

// Apply runs every bound strategy against the record, setting the values
// it produces. The record must be a pointer to the planned model type.
func (p *Plan) Apply(rec any) error {
	ctx := context.Background()
	rv := reflect.Indirect(reflect.ValueOf(rec))
	for _, bf := range p.fields {
		value, err := bf.strategy(bf.field)
		if err != nil {
			return fmt.Errorf("strategy for %s.%s failed: %w", p.modelName, bf.field.Name, err)
		}
		if value == SkipField {
			continue
		}
		if err := bf.field.Set(ctx, rv, value); err != nil {
			return fmt.Errorf("failed to set %s.%s: %w", p.modelName, bf.field.Name, err)
		}
	}
	return nil
}

// Fields returns the planned field names in schema order.
func (p *Plan) Fields() []string {
	names := make([]string, len(p.fields))
	for i, bf := range p.fields {
		names[i] = bf.field.Name
	}
	return names
}

// foreignKeyFields collects the data fields acting as foreign key columns
// for any of the model's relationships.
func foreignKeyFields(s *gormschema.Schema) map[string]struct{} {
	out := make(map[string]struct{})
	for _, rel := range s.Relationships.Relations {
		for _, ref := range rel.References {
			if ref.ForeignKey != nil && ref.ForeignKey.Schema == s {
				out[ref.ForeignKey.Name] = struct{}{}
			}
		}
	}
	return out
}

// classify maps a schema field to its strategy kind.
func classify(s *gormschema.Schema, field *gormschema.Field, foreign map[string]struct{}) FieldKind {
	if field.PrimaryKey && field.AutoIncrement {
		return KindAutoPrimary
	}
	if _, ok := s.Relationships.Relations[field.Name]; ok {
		return KindRelation
	}
	if _, ok := foreign[field.Name]; ok {
		return KindRelation
	}
	if field.FieldType.Kind() == reflect.Ptr {
		return KindNullable
	}

	switch field.DataType {
	case gormschema.String:
		return KindString
	case gormschema.Int:
		return KindInt
	case gormschema.Uint:
		return KindUint
	case gormschema.Float:
		return KindFloat
	case gormschema.Bool:
		return KindBool
	case gormschema.Time:
		return KindTime
	case gormschema.Bytes:
		return KindBytes
	default:
		return KindUnknown
	}
}
