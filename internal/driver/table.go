package driver

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/sqltext"
)

// HardRowLimit bounds every data preview, regardless of the requested page
// size. Introspection and preview requests must never become table scans.
const HardRowLimit = 10

// allowedColumnTypes is the explicit allow-list for CreateTable. The
// canonical value is interpolated into DDL, so nothing outside this map
// ever reaches the statement text.
var allowedColumnTypes = map[string]string{
	"int":              "integer",
	"integer":          "integer",
	"bigint":           "bigint",
	"serial":           "serial",
	"bigserial":        "bigserial",
	"text":             "text",
	"varchar":          "varchar",
	"boolean":          "boolean",
	"bool":             "boolean",
	"timestamp":        "timestamp",
	"timestamptz":      "timestamptz",
	"date":             "date",
	"numeric":          "numeric",
	"real":             "real",
	"double precision": "double precision",
	"json":             "json",
	"jsonb":            "jsonb",
	"uuid":             "uuid",
}

// ClampLimit applies the preview ceiling. Non-positive requests mean "use
// the default preview size", which is the ceiling itself.
func ClampLimit(requested int) int {
	if requested <= 0 || requested > HardRowLimit {
		return HardRowLimit
	}
	return requested
}

// BuildCreateTable renders the single CREATE TABLE IF NOT EXISTS statement
// for tableName. Columns with an empty name or type are silently skipped;
// a type outside the allow-list fails with an unsupported-type error before
// any SQL is issued.
func BuildCreateTable(tableName string, columns []ColumnSpec) (string, error) {
	var clauses []string
	for _, col := range columns {
		if col.Name == "" || col.Type == "" {
			continue
		}
		canonical, ok := allowedColumnTypes[strings.ToLower(strings.TrimSpace(col.Type))]
		if !ok {
			return "", errs.Newf(errs.ErrKindUnsupportedType,
				"column type %q is not supported", col.Type)
		}
		clauses = append(clauses, fmt.Sprintf("%s %s", sqltext.Ident(col.Name), canonical))
	}

	if len(clauses) == 0 {
		return "", errs.New(errs.ErrKindInvalidInput, "no usable columns")
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		sqltext.Ident(tableName), strings.Join(clauses, ", ")), nil
}

// --- shared tenant-scoped operations ---
//
// Both real drivers open a short-lived pool scoped to the tenant database
// and run the same catalog queries against it; only how that pool is built
// differs between variants.

// ListTables returns all tables in the tenant database, excluding the two
// built-in system schemas.
func ListTables(ctx context.Context, pool *pgxpool.Pool) (*TableList, error) {
	const q = `
		SELECT table_name, table_schema
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name`

	rows, err := pool.Query(ctx, q)
	if err != nil {
		return nil, MapError(err, "failed to list tables")
	}
	defer rows.Close()

	list := &TableList{Tables: []TableEntry{}}
	for rows.Next() {
		var entry TableEntry
		if err := rows.Scan(&entry.Name, &entry.Schema); err != nil {
			return nil, MapError(err, "failed to scan table entry")
		}
		list.Tables = append(list.Tables, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err, "error iterating tables")
	}
	list.Count = len(list.Tables)
	return list, nil
}

// DescribeTable returns the column descriptors of one table, failing
// NotFound when the table does not exist in the tenant database.
func DescribeTable(ctx context.Context, pool *pgxpool.Pool, tableName string) ([]ColumnDescriptor, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES',
		       column_default,
		       is_generated <> 'NEVER',
		       character_maximum_length
		FROM information_schema.columns
		WHERE table_name = $1
		  AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY ordinal_position`

	rows, err := pool.Query(ctx, q, tableName)
	if err != nil {
		return nil, MapError(err, "failed to describe table")
	}
	defer rows.Close()

	var cols []ColumnDescriptor
	for rows.Next() {
		var c ColumnDescriptor
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable, &c.Default, &c.Generated, &c.MaxLength); err != nil {
			return nil, MapError(err, "failed to scan column descriptor")
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err, "error iterating columns")
	}
	if len(cols) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %q does not exist", tableName)
	}
	return cols, nil
}

// ReadTableData previews rows from one table, clamped to HardRowLimit.
func ReadTableData(ctx context.Context, pool *pgxpool.Pool, tableName string, page Page) (*DataPage, error) {
	limit := ClampLimit(page.Limit)

	q := fmt.Sprintf("SELECT * FROM %s LIMIT $1", sqltext.Ident(tableName))
	rows, err := pool.Query(ctx, q, limit)
	if err != nil {
		return nil, MapError(err, "failed to read table data")
	}

	data, err := ScanRows(WrapPgxRows(rows))
	if err != nil {
		return nil, err
	}
	return &DataPage{
		Count: len(data),
		Rows:  data,
		Meta:  map[string]string{"limit": fmt.Sprintf("%d", limit)},
	}, nil
}

// ExecCreateTable builds and executes the CREATE TABLE statement.
func ExecCreateTable(ctx context.Context, pool *pgxpool.Pool, tableName string, columns []ColumnSpec) error {
	stmt, err := BuildCreateTable(tableName, columns)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return MapError(err, "failed to create table")
	}
	return nil
}

// ExecDropTable executes DROP TABLE for tableName.
func ExecDropTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	stmt := fmt.Sprintf("DROP TABLE %s", sqltext.Ident(tableName))
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return MapError(err, "failed to drop table")
	}
	return nil
}
