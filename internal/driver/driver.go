// Package driver defines the provisioning capability set every backend
// variant implements, plus the connection factory and the shared SQL
// helpers all variants funnel through.
//
// Callers select one variant at startup from configuration and never
// re-select at runtime. All layers above this package talk only to the
// Driver interface — they never import the selfhosted, supavisor, or stub
// packages directly.
package driver

import (
	"context"

	"github.com/vantigo/teamdb/internal/store"
)

// Dialect identifies the provisioning backend topology.
type Dialect string

const (
	// DialectPostgres is the self-hosted variant: one shared database server
	// operated by the platform, one database/role/user per team.
	DialectPostgres Dialect = "postgres"

	// DialectSupavisor delegates tenant lifecycle to a supavisor pooling
	// proxy over its HTTP control API.
	DialectSupavisor Dialect = "supavisor"

	// DialectStub is the in-memory variant for tests and local development.
	DialectStub Dialect = "stub"
)

// Team is the unit of isolation. One team owns at most one provisioned
// database in the current contract.
type Team struct {
	ID   string
	Name string
}

// TenantKey derives the name used for the team's database, login user, and
// role prefix. Team IDs are UUIDs, so the key contains hyphens and must
// always pass through sqltext.Ident before reaching SQL.
func (t Team) TenantKey() string {
	return "team_" + t.ID
}

// TableEntry identifies one table in a tenant database.
type TableEntry struct {
	Name   string `json:"name"`
	Schema string `json:"schema"`
}

// TableList is the result of Tables.
type TableList struct {
	Count  int               `json:"count"`
	Tables []TableEntry      `json:"tables"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// ColumnDescriptor describes one column of an existing table.
type ColumnDescriptor struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Nullable  bool    `json:"nullable"`
	Default   *string `json:"default,omitempty"`
	Generated bool    `json:"generated"`
	MaxLength *int    `json:"maxLength,omitempty"`
}

// ColumnSpec describes one column of a table to be created. Entries with an
// empty Name or Type are skipped, tolerating partially filled UI forms.
type ColumnSpec struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Page bounds a data preview request. Limit is clamped to HardRowLimit
// regardless of the requested value.
type Page struct {
	Limit int `json:"limit"`
}

// DataPage is the result of TableData.
type DataPage struct {
	Count int               `json:"count"`
	Rows  []map[string]any  `json:"rows"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// Driver is the capability set every provisioning backend implements.
//
// Operations against a single tenant are not serialized here: the duplicate
// checks inside CreateDatabase are best-effort reads, and the record
// store's uniqueness constraint is the only real guarantee under races.
type Driver interface {
	// Dialect reports which backend variant this driver is.
	Dialect() Dialect

	// Init establishes the long-lived administrative connection. Missing
	// required configuration fails with a config error; a mere connectivity
	// failure is logged and swallowed so the platform can boot degraded.
	Init(ctx context.Context) error

	// Shutdown releases the administrative connection. Never returns an
	// error for a connection that is already closed or failing.
	Shutdown(ctx context.Context) error

	// Databases returns the team's database records. The self-hosted and
	// stub variants return an empty slice when the team has none; the
	// supavisor variant fails NotFound. Both policies are documented and
	// tested per variant.
	Databases(ctx context.Context, team Team) ([]store.TenantDatabase, error)

	// Database returns the record with the given id, failing NotFound when
	// absent or owned by a different team.
	Database(ctx context.Context, team Team, databaseID string) (*store.TenantDatabase, error)

	// CreateDatabase provisions the team's database and persists its record.
	// Fails AlreadyExists when the team already has a record or when the
	// data plane already holds a database/tenant under the team's key.
	// The record is persisted only after provisioning succeeds.
	CreateDatabase(ctx context.Context, team Team, name string) (*store.TenantDatabase, error)

	// DestroyDatabase tears down the data-plane resources and then deletes
	// the record. Record deletion is always the last step. A data-plane
	// resource that is already absent is treated as already-destroyed.
	DestroyDatabase(ctx context.Context, team Team, databaseID string) error

	// Tables lists the tables of the tenant database, excluding the two
	// built-in system schemas.
	Tables(ctx context.Context, team Team, databaseID string) (*TableList, error)

	// Table describes the columns of one table, failing NotFound when the
	// table does not exist in the tenant database.
	Table(ctx context.Context, team Team, databaseID, tableName string) ([]ColumnDescriptor, error)

	// TableData previews rows of one table, clamped to HardRowLimit.
	TableData(ctx context.Context, team Team, databaseID, tableName string, page Page) (*DataPage, error)

	// CreateTable issues a single CREATE TABLE IF NOT EXISTS statement.
	// Column types outside the allow-list fail with an unsupported-type
	// error before any SQL is issued.
	CreateTable(ctx context.Context, team Team, databaseID, tableName string, columns []ColumnSpec) error

	// DropTable drops the table, failing NotFound when the database record
	// is absent.
	DropTable(ctx context.Context, team Team, databaseID, tableName string) error

	// CreateColumn is a reserved extension point.
	CreateColumn(ctx context.Context, team Team, databaseID, tableName string, column ColumnSpec) error

	// RemoveColumn is a reserved extension point.
	RemoveColumn(ctx context.Context, team Team, databaseID, tableName, columnName string) error

	// Query executes a parameterized statement against the tenant database,
	// one short-lived scoped connection per call. The schema engine issues
	// its catalog queries through this surface.
	Query(ctx context.Context, team Team, databaseID, sql string, args ...any) (Rows, error)
}
