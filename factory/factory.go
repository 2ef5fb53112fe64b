// Package factory builds and persists GORM model instances for tests.
//
// A Factory binds a model type to a database handle, default attribute
// functions, and an optional Blueprint. Create and CreateBatch hand the
// built instances to the collector, which discovers every pending record
// they reference and produces a table order that bulk inserts can follow
// without tripping foreign key constraints.
package factory

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dbsmedya/gofactory/collector"
	"github.com/dbsmedya/gofactory/internal/logger"
	"github.com/dbsmedya/gofactory/schema"
	"github.com/dbsmedya/gofactory/signal"
)

// Attr mutates a freshly built instance. Factories apply their default
// attrs first, then per-call overrides.
type Attr[T any] func(*T) error

// Factory builds and persists instances of one model type.
type Factory[T any] struct {
	db        *gorm.DB
	resolver  *schema.Resolver
	log       *logger.Logger
	modelName string
	opts      Options

	defaults  []Attr[T]
	blueprint *Blueprint
	plan      *Plan
}

// New creates a factory for T bound to db. The defaults run against every
// built instance, in order. The resolver is derived from db's naming
// strategy so collector table names match what gorm writes.
func New[T any](db *gorm.DB, defaults ...Attr[T]) *Factory[T] {
	modelName := reflect.TypeOf((*T)(nil)).Elem().Name()
	return &Factory[T]{
		db:        db,
		resolver:  resolverFor(db),
		log:       logger.Nop().WithFactory(modelName),
		modelName: modelName,
		opts:      defaultOptions(),
		defaults:  defaults,
	}
}

func resolverFor(db *gorm.DB) *schema.Resolver {
	if db == nil {
		return schema.NewResolver(nil)
	}
	return schema.NewResolver(db.NamingStrategy)
}

// WithOptions applies persistence options and returns the factory.
func (f *Factory[T]) WithOptions(opts ...Option) *Factory[T] {
	for _, opt := range opts {
		opt(&f.opts)
	}
	return f
}

// WithLogger attaches a logger; the factory tags it with its model name.
func (f *Factory[T]) WithLogger(log *logger.Logger) *Factory[T] {
	if log != nil {
		f.log = log.WithFactory(f.modelName)
	}
	return f
}

// WithBlueprint attaches a blueprint whose plan populates scalar fields
// before the factory's default attrs run.
func (f *Factory[T]) WithBlueprint(bp *Blueprint) *Factory[T] {
	f.blueprint = bp
	f.plan = nil
	return f
}

// Build returns an instance with blueprint values, defaults and overrides
// applied, without touching the database.
func (f *Factory[T]) Build(overrides ...Attr[T]) (*T, error) {
	inst := new(T)

	if f.blueprint != nil {
		if f.plan == nil {
			plan, err := f.blueprint.Plan(inst)
			if err != nil {
				return nil, err
			}
			f.plan = plan
		}
		if err := f.plan.Apply(inst); err != nil {
			return nil, err
		}
	}

	for _, attr := range f.defaults {
		if err := attr(inst); err != nil {
			return nil, fmt.Errorf("default attribute failed: %w", err)
		}
	}
	for _, attr := range overrides {
		if err := attr(inst); err != nil {
			return nil, fmt.Errorf("override attribute failed: %w", err)
		}
	}
	return inst, nil
}

// BuildBatch builds n instances without persisting them.
func (f *Factory[T]) BuildBatch(n int, overrides ...Attr[T]) ([]*T, error) {
	out := make([]*T, 0, n)
	for i := 0; i < n; i++ {
		inst, err := f.Build(overrides...)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// Create builds one instance and persists it, along with every pending
// record it references.
func (f *Factory[T]) Create(overrides ...Attr[T]) (*T, error) {
	batch, err := f.CreateBatch(1, overrides...)
	if err != nil {
		return nil, err
	}
	return batch[0], nil
}

// CreateBatch builds n instances and persists them with dependency-ordered
// bulk inserts. All instances, and every unsaved record reachable from
// them, are written inside one transaction; primary keys are assigned
// in place. PreSave and PostSave signals fire per record around each
// table's insert.
func (f *Factory[T]) CreateBatch(n int, overrides ...Attr[T]) ([]*T, error) {
	instances, err := f.BuildBatch(n, overrides...)
	if err != nil {
		return nil, err
	}

	records := make([]any, len(instances))
	for i, inst := range instances {
		records[i] = inst
	}

	col := collector.New(f.resolver, f.log.SugaredLogger)
	if err := col.Collect(records, "", false); err != nil {
		return nil, fmt.Errorf("failed to collect pending records: %w", err)
	}
	col.Sort()

	err = f.db.Transaction(func(tx *gorm.DB) error {
		session := tx.Session(&gorm.Session{SkipHooks: f.opts.SkipHooks})
		pos := 0
		for el := col.Batches().Front(); el != nil; el = el.Next() {
			pos++
			if err := f.insertTableBatch(session, pos, el.Key, el.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instances, nil
}

// insertTableBatch bulk-inserts one table's records, grouped by concrete
// model type, firing save signals around the writes. Foreign keys are
// refreshed from the referenced records first: their tables were inserted
// earlier in the batch order, so their identities exist by now. gorm's own
// association saving is omitted; the collector already owns the ordering.
func (f *Factory[T]) insertTableBatch(session *gorm.DB, pos int, table string, records []any) error {
	if len(records) == 0 {
		return nil
	}

	log := f.log.WithBatch(pos).WithTable(table)
	log.Debugw("bulk inserting table batch", "records", len(records))

	for _, rec := range records {
		if err := f.resolver.SyncReferences(rec); err != nil {
			return err
		}
		signal.PreSave.Send(table, rec)
	}

	for _, group := range typedGroups(records) {
		err := session.Omit(clause.Associations).CreateInBatches(group, f.opts.BatchSize).Error
		if err != nil {
			return fmt.Errorf("bulk insert into %s failed: %w", table, err)
		}
	}

	for _, rec := range records {
		signal.PostSave.Send(table, rec)
	}
	return nil
}

// typedGroups splits a []any of model pointers into typed slices gorm can
// reflect over, preserving order within each concrete type.
func typedGroups(records []any) []any {
	var order []reflect.Type
	groups := make(map[reflect.Type]reflect.Value)
	for _, rec := range records {
		t := reflect.TypeOf(rec)
		slice, ok := groups[t]
		if !ok {
			slice = reflect.MakeSlice(reflect.SliceOf(t), 0, len(records))
			order = append(order, t)
		}
		groups[t] = reflect.Append(slice, reflect.ValueOf(rec))
	}

	out := make([]any, 0, len(order))
	for _, t := range order {
		out = append(out, groups[t].Interface())
	}
	return out
}

// GetOrCreate looks up an existing row by the configured key fields of the
// built instance and returns it, creating the instance when no row
// matches. A duplicate-key error from a concurrent insert falls back to a
// second lookup, so racing callers converge on one row. Requires the db to
// translate driver errors (gorm.Config.TranslateError) for the race
// fallback to trigger.
func (f *Factory[T]) GetOrCreate(overrides ...Attr[T]) (*T, error) {
	inst, err := f.Build(overrides...)
	if err != nil {
		return nil, err
	}

	if len(f.opts.GetOrCreate) == 0 {
		if err := f.db.Create(inst).Error; err != nil {
			return nil, fmt.Errorf("create failed: %w", err)
		}
		return inst, nil
	}

	cond, err := f.lookupConditions(inst)
	if err != nil {
		return nil, err
	}

	var existing T
	err = f.db.Where(cond).Take(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}

	err = f.db.Create(inst).Error
	if err == nil {
		return inst, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race: someone inserted the same key between our lookup
		// and create.
		if lookupErr := f.db.Where(cond).Take(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
	}
	return nil, fmt.Errorf("create failed: %w", err)
}

// lookupConditions maps the configured key fields to column conditions
// using the built instance's values.
func (f *Factory[T]) lookupConditions(inst *T) (map[string]any, error) {
	s, err := f.resolver.Schema(inst)
	if err != nil {
		return nil, err
	}

	rv := reflect.Indirect(reflect.ValueOf(inst))
	cond := make(map[string]any, len(f.opts.GetOrCreate))
	for _, name := range f.opts.GetOrCreate {
		field := s.LookUpField(name)
		if field == nil {
			return nil, fmt.Errorf("get-or-create key %q is not a field of %s", name, s.Name)
		}
		value, _ := field.ValueOf(context.Background(), rv)
		cond[field.DBName] = value
	}
	return cond, nil
}
