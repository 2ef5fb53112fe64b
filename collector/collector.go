// Package collector turns an arbitrary graph of not-yet-persisted records
// into a dependency-ordered, per-table insertion plan.
//
// A Collector gathers pending records, follows the references they hold to
// other pending records, and groups everything into per-table batches
// ordered so that every table is inserted after the tables it holds
// non-nullable foreign keys into. The dependency graph is kept at table
// granularity: foreign key constraints are declared per column, not per row,
// so a table-level order is always a valid row-level order.
//
// A Collector is single-use. Create one per bulk-insert operation and
// discard it afterwards; it is not safe for concurrent use.
package collector

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v2"
	"go.uber.org/zap"
)

// Reference describes one outgoing foreign-key-like reference of a record.
type Reference struct {
	Table    string // canonical table of the referenced record
	Nullable bool   // nullable references never constrain insertion order
	Target   any    // the referenced record; nil when the reference is unset
}

// Introspector answers schema questions about pending records. It is the
// collector's only window into the ORM.
type Introspector interface {
	// TableOf returns the canonical physical table the record maps to.
	TableOf(rec any) (string, error)

	// IsPersisted reports whether the record already holds a persistent
	// identity. Persisted records are assumed present in storage and are
	// never collected.
	IsPersisted(rec any) (bool, error)

	// ReferencesOf returns the record's direct references to other records,
	// in the order the schema declares them.
	ReferencesOf(rec any) ([]Reference, error)
}

// Collector accumulates pending records and their table-level dependencies,
// and sorts the per-table batches into a valid insertion order.
type Collector struct {
	intro Introspector
	log   *zap.SugaredLogger

	// data maps table -> records in discovery order. After a successful
	// Sort, iteration order is a valid insertion order.
	data *orderedmap.OrderedMap[string, []any]

	// dependencies maps table -> set of tables whose rows must be
	// inserted first.
	dependencies map[string]map[string]struct{}

	// seen tracks collected records by identity, per table. Records are
	// compared by pointer identity, never by value: two pending records
	// are the same record only if they are the same object.
	seen map[string]map[any]struct{}
}

// New creates a Collector backed by the given Introspector. The
// introspector may be nil when the collector is used purely as a table
// graph (AddDependency + Sort); Add and Collect require it.
// A nil logger disables logging.
func New(intro Introspector, log *zap.SugaredLogger) *Collector {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Collector{
		intro:        intro,
		log:          log,
		data:         orderedmap.NewOrderedMap[string, []any](),
		dependencies: make(map[string]map[string]struct{}),
		seen:         make(map[string]map[any]struct{}),
	}
}

// Add registers records for insertion. The records must form a homogeneous
// batch belonging to a single table. Records that already hold a persistent
// identity, or that were collected before, are skipped.
//
// If source names the table that triggered this addition and the relation
// is non-nullable, a dependency edge source -> this table is recorded, so
// this table's batch will be inserted before source's batch.
//
// Add returns the subset of records that were newly collected; callers use
// it to decide which records still need their own references explored. An
// empty input is a no-op.
func (c *Collector) Add(records []any, source string, nullable bool) ([]any, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if c.intro == nil {
		return nil, fmt.Errorf("collector has no introspector; Add is unavailable")
	}

	table, err := c.intro.TableOf(records[0])
	if err != nil {
		return nil, fmt.Errorf("failed to resolve table for record batch: %w", err)
	}

	known := c.seen[table]
	if known == nil {
		known = make(map[any]struct{})
		c.seen[table] = known
	}

	var added []any
	for _, rec := range records {
		persisted, err := c.intro.IsPersisted(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to check persistence for table %s: %w", table, err)
		}
		if persisted {
			continue
		}
		if _, ok := known[rec]; ok {
			continue
		}
		known[rec] = struct{}{}
		added = append(added, rec)
	}

	bucket, _ := c.data.Get(table)
	c.data.Set(table, append(bucket, added...))

	// Nullable relations do not constrain insertion order: the referencing
	// column can be filled in after both rows exist.
	if source != "" && !nullable {
		c.AddDependency(source, table)
	}

	return added, nil
}

// AddDependency records that table's insertion must follow dep's insertion.
// It is idempotent, and both tables are guaranteed an entry in the result
// map so a later Sort never stalls on a dependency target that collected
// zero records. Self-edges are ignored: a self-referencing table orders
// its rows within one batch, not across batches.
func (c *Collector) AddDependency(table, dep string) {
	c.Track(table)
	c.Track(dep)
	if table == dep {
		return
	}
	deps := c.dependencies[table]
	if deps == nil {
		deps = make(map[string]struct{})
		c.dependencies[table] = deps
	}
	deps[dep] = struct{}{}
}

// Track ensures the table has an entry in the result map, possibly with an
// empty batch.
func (c *Collector) Track(table string) {
	if _, ok := c.data.Get(table); !ok {
		c.data.Set(table, nil)
	}
}

// refGroup batches reference targets that share a table and nullability, so
// each group recurses exactly once per Collect level.
type refGroup struct {
	table    string
	nullable bool
}

// Collect registers records and recursively discovers every unsaved record
// reachable from them. Nullable references are still followed, so the
// referenced record is persisted, but they contribute no ordering edge.
// Discovery reaches a fixed point when a recursion level adds no new
// records; diamond-shaped graphs collapse through identity deduplication.
func (c *Collector) Collect(records []any, source string, nullable bool) error {
	added, err := c.Add(records, source, nullable)
	if err != nil {
		return err
	}
	if len(added) == 0 {
		return nil
	}

	table, err := c.intro.TableOf(added[0])
	if err != nil {
		return fmt.Errorf("failed to resolve table for collected batch: %w", err)
	}

	var order []refGroup
	groups := make(map[refGroup][]any)
	for _, rec := range added {
		refs, err := c.intro.ReferencesOf(rec)
		if err != nil {
			return fmt.Errorf("failed to resolve references for table %s: %w", table, err)
		}
		for _, ref := range refs {
			if ref.Target == nil {
				continue
			}
			key := refGroup{table: ref.Table, nullable: ref.Nullable}
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], ref.Target)
		}
	}

	for _, key := range order {
		if err := c.Collect(groups[key], table, key.nullable); err != nil {
			return err
		}
	}
	return nil
}

// Sort reorders the collected batches so that every table follows the
// tables it depends on. Tables are picked in repeated passes: any table
// whose dependencies are all already placed is appended next, ties broken
// by discovery order, so the result is deterministic but not canonical
// among valid topological orders.
//
// When a full pass places nothing while tables remain, the graph holds a
// cycle or a dependency target that was never tracked. Sort then logs the
// condition with a cycle diagnosis and leaves the batches in their prior
// order; it never fails hard, so callers can still attempt a best-effort
// insert.
func (c *Collector) Sort() {
	tables := c.data.Keys()

	var sorted []string
	placed := make(map[string]struct{}, len(tables))
	for len(sorted) < len(tables) {
		progress := false
		for _, table := range tables {
			if _, done := placed[table]; done {
				continue
			}
			satisfied := true
			for dep := range c.dependencies[table] {
				if _, done := placed[dep]; !done {
					satisfied = false
					break
				}
			}
			if satisfied {
				sorted = append(sorted, table)
				placed[table] = struct{}{}
				progress = true
			}
		}
		if !progress {
			info := c.diagnose(placed)
			c.log.Warnw("dependency sort stalled, leaving batches unordered",
				"tables", info.TotalTables,
				"placed", info.PlacedTables,
				"stalled", info.StalledTables,
				"cycle", info.CyclePath,
			)
			return
		}
	}

	ordered := orderedmap.NewOrderedMap[string, []any]()
	for _, table := range sorted {
		records, _ := c.data.Get(table)
		ordered.Set(table, records)
	}
	c.data = ordered
}

// Batches returns the per-table record batches. Before Sort, tables iterate
// in discovery order; after a successful Sort, in insertion order. The
// returned map is the collector's own state, not a copy.
func (c *Collector) Batches() *orderedmap.OrderedMap[string, []any] {
	return c.data
}

// Tables returns the table identifiers in current batch order.
func (c *Collector) Tables() []string {
	return c.data.Keys()
}

// Dependencies returns a copy of the table dependency graph.
func (c *Collector) Dependencies() map[string][]string {
	out := make(map[string][]string, len(c.dependencies))
	for table, deps := range c.dependencies {
		for dep := range deps {
			out[table] = append(out[table], dep)
		}
	}
	return out
}
