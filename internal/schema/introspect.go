package schema

import (
	"context"

	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/errs"
)

// Querier is the slice of the driver contract the introspection engine
// needs: the generic tenant query surface plus the dialect for the
// capability check.
type Querier interface {
	Dialect() driver.Dialect
	Query(ctx context.Context, team driver.Team, databaseID, sql string, args ...any) (driver.Rows, error)
}

// The five catalog queries. All exclude the two built-in system schemas.
const (
	// Columns joined with table type, covering base tables and views.
	columnsQuery = `
		SELECT c.table_schema,
		       c.table_name,
		       t.table_type,
		       c.column_name,
		       c.data_type,
		       c.is_nullable = 'YES',
		       c.column_default,
		       c.character_maximum_length
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema
		 AND t.table_name   = c.table_name
		WHERE c.table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY c.table_schema, c.table_name, c.ordinal_position`

	primaryKeysQuery = `
		SELECT tc.table_schema, tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY tc.table_schema, tc.table_name, kcu.ordinal_position`

	foreignKeysQuery = `
		SELECT tc.constraint_name,
		       tc.table_schema,
		       tc.table_name,
		       kcu.column_name,
		       ccu.table_schema AS ref_schema,
		       ccu.table_name   AS ref_table,
		       ccu.column_name  AS ref_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name
		 AND ccu.table_schema    = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY tc.constraint_name`

	// Non-primary indexes with their ordered column-name arrays.
	indexesQuery = `
		SELECT n.nspname,
		       t.relname,
		       i.relname,
		       array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum))
		FROM pg_class t
		JOIN pg_index ix     ON t.oid = ix.indrelid
		JOIN pg_class i      ON i.oid = ix.indexrelid
		JOIN pg_attribute a  ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n  ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
		  AND NOT ix.indisprimary
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		GROUP BY n.nspname, t.relname, i.relname
		ORDER BY n.nspname, t.relname, i.relname`

	commentsQuery = `
		SELECT n.nspname, c.relname, a.attname, d.description
		FROM pg_description d
		JOIN pg_class c     ON c.oid = d.objoid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = d.objsubid
		WHERE d.objsubid > 0
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema')
		ORDER BY n.nspname, c.relname, a.attnum`
)

// introspectable dialects. Anything else fails the whole call up front —
// a hard capability check, not a per-row failure.
func supportsIntrospection(d driver.Dialect) bool {
	switch d {
	case driver.DialectPostgres, driver.DialectSupavisor, driver.DialectStub:
		return true
	default:
		return false
	}
}

// Introspect issues the five catalog queries through the driver's query
// surface and folds the result sets into a Model.
func Introspect(ctx context.Context, q Querier, team driver.Team, databaseID string) (*Model, error) {
	if !supportsIntrospection(q.Dialect()) {
		return nil, errs.Newf(errs.ErrKindUnsupportedType,
			"schema introspection is not supported for driver %q", q.Dialect())
	}

	m := newModel()

	// Pass 1: tables and columns, in catalog ordinal order.
	if err := forEachRow(ctx, q, team, databaseID, columnsQuery, func(rows driver.Rows) error {
		var schemaName, tableName, tableType, colName, dataType string
		var nullable bool
		var def *string
		var maxLen *int
		if err := rows.Scan(&schemaName, &tableName, &tableType, &colName, &dataType, &nullable, &def, &maxLen); err != nil {
			return err
		}

		t := m.table(schemaName, tableName)
		if t == nil {
			t = &Table{Schema: schemaName, Name: tableName, IsView: tableType == "VIEW"}
			m.addTable(t)
		}
		t.Columns = append(t.Columns, &Column{
			Name:      colName,
			DataType:  dataType,
			Nullable:  nullable,
			Default:   def,
			MaxLength: maxLen,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	// Pass 2: primary keys. The table list and the per-column flags are
	// set together so they cannot disagree.
	if err := forEachRow(ctx, q, team, databaseID, primaryKeysQuery, func(rows driver.Rows) error {
		var schemaName, tableName, colName string
		if err := rows.Scan(&schemaName, &tableName, &colName); err != nil {
			return err
		}
		t := m.table(schemaName, tableName)
		if t == nil {
			return nil
		}
		t.PrimaryKeys = append(t.PrimaryKeys, colName)
		if col := t.column(colName); col != nil {
			col.IsPrimaryKey = true
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Pass 3: foreign keys. References to tables excluded from the dump
	// are kept — rendering is best-effort for dangling targets.
	if err := forEachRow(ctx, q, team, databaseID, foreignKeysQuery, func(rows driver.Rows) error {
		var name, schemaName, tableName, colName, refSchema, refTable, refColumn string
		if err := rows.Scan(&name, &schemaName, &tableName, &colName, &refSchema, &refTable, &refColumn); err != nil {
			return err
		}
		t := m.table(schemaName, tableName)
		if t == nil {
			return nil
		}
		t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
			Name:      name,
			Column:    colName,
			RefSchema: refSchema,
			RefTable:  refTable,
			RefColumn: refColumn,
		})
		if col := t.column(colName); col != nil {
			col.IsForeignKey = true
			col.References = &Reference{Schema: refSchema, Table: refTable, Column: refColumn}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Pass 4: indexes.
	if err := forEachRow(ctx, q, team, databaseID, indexesQuery, func(rows driver.Rows) error {
		var schemaName, tableName, indexName string
		var columns []string
		if err := rows.Scan(&schemaName, &tableName, &indexName, &columns); err != nil {
			return err
		}
		if t := m.table(schemaName, tableName); t != nil {
			t.Indexes = append(t.Indexes, Index{Name: indexName, Columns: columns})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Pass 5: column comments.
	if err := forEachRow(ctx, q, team, databaseID, commentsQuery, func(rows driver.Rows) error {
		var schemaName, tableName, colName, comment string
		if err := rows.Scan(&schemaName, &tableName, &colName, &comment); err != nil {
			return err
		}
		if t := m.table(schemaName, tableName); t != nil {
			if col := t.column(colName); col != nil {
				c := comment
				col.Comment = &c
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return m, nil
}

func (t *Table) column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// forEachRow runs one catalog query and applies fn to every row, closing
// the result set in all paths.
func forEachRow(ctx context.Context, q Querier, team driver.Team, databaseID, sql string, fn func(driver.Rows) error) error {
	rows, err := q.Query(ctx, team, databaseID, sql)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
