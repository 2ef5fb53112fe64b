// Package inspect discovers foreign key dependencies from a live MySQL
// schema and turns them into a dependency-ordered insertion plan.
package inspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/gofactory/collector"
	"github.com/dbsmedya/gofactory/internal/config"
	"github.com/dbsmedya/gofactory/internal/logger"
	"github.com/dbsmedya/gofactory/internal/sqlutil"
)

// ForeignKey is one foreign key column discovered in the schema.
type ForeignKey struct {
	Table           string
	Column          string
	ReferencedTable string
	Nullable        bool
}

// Plan is a dependency-ordered insertion plan for a whole schema.
type Plan struct {
	// Order lists the tables in insertion order. When the schema has a
	// reference cycle the order falls back to discovery order and Cycle
	// describes the problem.
	Order        []string
	Dependencies map[string][]string
	ForeignKeys  []ForeignKey
	Cycle        *collector.CycleInfo
}

// Inspector reads table and foreign key metadata from information_schema.
type Inspector struct {
	db     *sql.DB
	cfg    *config.Config
	logger *logger.Logger
}

// New creates an Inspector over an open connection.
func New(db *sql.DB, cfg *config.Config, log *logger.Logger) *Inspector {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Inspector{
		db:     db,
		cfg:    cfg,
		logger: log,
	}
}

const tablesQuery = `SELECT TABLE_NAME FROM information_schema.TABLES ` +
	`WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`

// Tables lists the base tables of the inspected schema, minus the
// configured exclusions.
func (i *Inspector) Tables(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, tablesQuery, i.cfg.InspectSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if i.cfg.Excluded(name) {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

const foreignKeysQuery = `SELECT kcu.TABLE_NAME, kcu.COLUMN_NAME, kcu.REFERENCED_TABLE_NAME, c.IS_NULLABLE ` +
	`FROM information_schema.KEY_COLUMN_USAGE kcu ` +
	`JOIN information_schema.COLUMNS c ` +
	`ON c.TABLE_SCHEMA = kcu.TABLE_SCHEMA AND c.TABLE_NAME = kcu.TABLE_NAME AND c.COLUMN_NAME = kcu.COLUMN_NAME ` +
	`WHERE kcu.TABLE_SCHEMA = ? AND kcu.REFERENCED_TABLE_NAME IS NOT NULL ` +
	`ORDER BY kcu.TABLE_NAME, kcu.ORDINAL_POSITION`

// ForeignKeys lists every foreign key column in the inspected schema,
// with the nullability of the column itself.
func (i *Inspector) ForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, foreignKeysQuery, i.cfg.InspectSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		var nullable string
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.ReferencedTable, &nullable); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fk.Nullable = nullable == "YES"

		if i.cfg.Excluded(fk.Table) || i.cfg.Excluded(fk.ReferencedTable) {
			continue
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys: %w", err)
	}
	return fks, nil
}

// BuildPlan inspects the schema and computes the table insertion order.
// Nullable foreign keys do not constrain the order unless follow_nullable
// is configured; a reference cycle leaves the order at discovery order and
// is reported on the plan rather than failing it.
func (i *Inspector) BuildPlan(ctx context.Context) (*Plan, error) {
	tables, err := i.Tables(ctx)
	if err != nil {
		return nil, err
	}
	fks, err := i.ForeignKeys(ctx)
	if err != nil {
		return nil, err
	}

	col := collector.New(nil, i.logger.SugaredLogger)
	for _, table := range tables {
		col.Track(table)
	}
	for _, fk := range fks {
		if fk.Nullable && !i.cfg.Inspect.FollowNullable {
			continue
		}
		col.AddDependency(fk.Table, fk.ReferencedTable)
	}

	cycle := col.Stalled()
	if cycle != nil {
		i.logger.Warnw("schema has a reference cycle, insertion order is partial",
			"participants", cycle.Participants)
	}
	col.Sort()

	return &Plan{
		Order:        col.Tables(),
		Dependencies: col.Dependencies(),
		ForeignKeys:  fks,
		Cycle:        cycle,
	}, nil
}

// RowCounts returns the number of rows per table, for the tables listing.
// Table names are validated before being interpolated into the query.
func (i *Inspector) RowCounts(ctx context.Context, tables []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		quoted, err := sqlutil.QuoteIdentifierSafe(table)
		if err != nil {
			return nil, fmt.Errorf("refusing to count rows: %w", err)
		}

		var n int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)
		if err := i.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		i.logger.WithTable(table).Debugw("counted rows", "rows", n)
		counts[table] = n
	}
	return counts, nil
}
