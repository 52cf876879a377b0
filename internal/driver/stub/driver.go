// Package stub is an entirely in-memory driver for tests and local
// development. It preserves the real drivers' failure semantics (duplicate
// create, not-found on missing record or table, limit clamping) so caller
// error handling is exercised identically without a database server.
package stub

import (
	"context"
	"sort"
	"sync"

	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/logger"
	"github.com/vantigo/teamdb/internal/secrets"
	"github.com/vantigo/teamdb/internal/store"
)

// Driver keeps the fake data plane in instance-owned maps, constructed at
// Init and torn down at Shutdown — no process-wide state.
type Driver struct {
	records store.RecordStore
	log     *logger.Logger

	mu        sync.Mutex
	databases map[string]bool                                // fake data plane, by tenant key
	tables    map[string]map[string][]driver.ColumnDescriptor // tenant key -> table -> columns
	data      map[string]map[string][]map[string]any          // tenant key -> table -> rows

	// QueryFunc, when set, serves the generic query surface. Tests use it
	// to feed canned catalog results to the schema engine.
	QueryFunc func(sql string, args ...any) (driver.Rows, error)
}

// New constructs the stub driver over the given record store.
func New(records store.RecordStore, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.Nop()
	}
	return &Driver{records: records, log: log}
}

// Dialect reports the stub variant.
func (d *Driver) Dialect() driver.Dialect { return driver.DialectStub }

// Init allocates the in-memory data plane.
func (d *Driver) Init(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.databases = make(map[string]bool)
	d.tables = make(map[string]map[string][]driver.ColumnDescriptor)
	d.data = make(map[string]map[string][]map[string]any)
	return nil
}

// Shutdown drops the in-memory data plane.
func (d *Driver) Shutdown(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.databases = nil
	d.tables = nil
	d.data = nil
	return nil
}

// Databases returns the team's records, empty slice when none — the
// self-hosted variant's policy.
func (d *Driver) Databases(ctx context.Context, team driver.Team) ([]store.TenantDatabase, error) {
	return d.records.ByTeamID(ctx, team.ID)
}

// Database returns the record, failing NotFound when absent or owned by a
// different team.
func (d *Driver) Database(ctx context.Context, team driver.Team, databaseID string) (*store.TenantDatabase, error) {
	rec, err := d.records.ByID(ctx, team.ID, databaseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errs.Newf(errs.ErrKindNotFound, "database %s not found for team %s", databaseID, team.ID)
	}
	return rec, nil
}

// CreateDatabase mimics the full create flow: record duplicate check,
// independent data-plane duplicate check, provisioning, record persisted
// last.
func (d *Driver) CreateDatabase(ctx context.Context, team driver.Team, name string) (*store.TenantDatabase, error) {
	existing, err := d.records.ByTeamID(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, errs.Newf(errs.ErrKindAlreadyExists, "team %s already has a database", team.ID)
	}

	key := team.TenantKey()

	d.mu.Lock()
	if d.databases[key] {
		d.mu.Unlock()
		return nil, errs.Newf(errs.ErrKindAlreadyExists, "database %q already exists", key)
	}
	d.databases[key] = true
	d.tables[key] = make(map[string][]driver.ColumnDescriptor)
	d.data[key] = make(map[string][]map[string]any)
	d.mu.Unlock()

	password, err := secrets.Password(secrets.PasswordLength)
	if err != nil {
		return nil, err
	}

	rec, err := d.records.Create(ctx, store.TenantDatabase{
		Name:   name,
		TeamID: team.ID,
		Credentials: store.Credentials{
			Host:     "stub",
			Database: key,
			User:     key,
			Password: password,
		},
	})
	if err != nil {
		// Undo the fake data plane so the store's uniqueness violation
		// leaves no half-created tenant behind.
		d.mu.Lock()
		delete(d.databases, key)
		delete(d.tables, key)
		delete(d.data, key)
		d.mu.Unlock()
		return nil, err
	}
	return &rec, nil
}

// DestroyDatabase removes the fake data plane, then the record. An absent
// data plane is treated as already-destroyed, matching the idempotent
// policy of the real drivers.
func (d *Driver) DestroyDatabase(ctx context.Context, team driver.Team, databaseID string) error {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return err
	}

	key := rec.Credentials.Database
	d.mu.Lock()
	if !d.databases[key] {
		d.log.Warnf("stub database %q already absent, deleting record", key)
	}
	delete(d.databases, key)
	delete(d.tables, key)
	delete(d.data, key)
	d.mu.Unlock()

	return d.records.Delete(ctx, rec.ID)
}

// Tables lists the tenant's tables in deterministic order.
func (d *Driver) Tables(ctx context.Context, team driver.Team, databaseID string) (*driver.TableList, error) {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	list := &driver.TableList{Tables: []driver.TableEntry{}}
	for name := range d.tables[rec.Credentials.Database] {
		list.Tables = append(list.Tables, driver.TableEntry{Name: name, Schema: "public"})
	}
	sort.Slice(list.Tables, func(i, j int) bool { return list.Tables[i].Name < list.Tables[j].Name })
	list.Count = len(list.Tables)
	return list, nil
}

// Table describes one table's columns, NotFound when the table is missing.
func (d *Driver) Table(ctx context.Context, team driver.Team, databaseID, tableName string) ([]driver.ColumnDescriptor, error) {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cols, ok := d.tables[rec.Credentials.Database][tableName]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %q does not exist", tableName)
	}
	return cols, nil
}

// TableData previews rows, clamped exactly like the real drivers.
func (d *Driver) TableData(ctx context.Context, team driver.Team, databaseID, tableName string, page driver.Page) (*driver.DataPage, error) {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	rows, ok := d.data[rec.Credentials.Database][tableName]
	if !ok {
		if _, tableExists := d.tables[rec.Credentials.Database][tableName]; !tableExists {
			return nil, errs.Newf(errs.ErrKindNotFound, "table %q does not exist", tableName)
		}
		rows = nil
	}

	limit := driver.ClampLimit(page.Limit)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return &driver.DataPage{Count: len(rows), Rows: rows}, nil
}

// CreateTable validates columns through the shared builder (allow-list,
// empty-column skipping) and records the table. Creating a table that
// already exists is a no-op, matching IF NOT EXISTS.
func (d *Driver) CreateTable(ctx context.Context, team driver.Team, databaseID, tableName string, columns []driver.ColumnSpec) error {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return err
	}

	// Same validation path as the real drivers, statement discarded.
	if _, err := driver.BuildCreateTable(tableName, columns); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := rec.Credentials.Database
	if _, exists := d.tables[key][tableName]; exists {
		return nil
	}

	var descs []driver.ColumnDescriptor
	for _, col := range columns {
		if col.Name == "" || col.Type == "" {
			continue
		}
		descs = append(descs, driver.ColumnDescriptor{Name: col.Name, Type: col.Type})
	}
	d.tables[key][tableName] = descs
	return nil
}

// DropTable removes the table, NotFound when it is missing.
func (d *Driver) DropTable(ctx context.Context, team driver.Team, databaseID, tableName string) error {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := rec.Credentials.Database
	if _, ok := d.tables[key][tableName]; !ok {
		return errs.Newf(errs.ErrKindNotFound, "table %q does not exist", tableName)
	}
	delete(d.tables[key], tableName)
	delete(d.data[key], tableName)
	return nil
}

// CreateColumn is a reserved extension point.
func (d *Driver) CreateColumn(context.Context, driver.Team, string, string, driver.ColumnSpec) error {
	return nil
}

// RemoveColumn is a reserved extension point.
func (d *Driver) RemoveColumn(context.Context, driver.Team, string, string, string) error {
	return nil
}

// Query serves the generic query surface through QueryFunc, or an empty
// result set when unset.
func (d *Driver) Query(ctx context.Context, team driver.Team, databaseID, sql string, args ...any) (driver.Rows, error) {
	if _, err := d.Database(ctx, team, databaseID); err != nil {
		return nil, err
	}
	if d.QueryFunc != nil {
		return d.QueryFunc(sql, args...)
	}
	return driver.NewMemoryRows(nil, nil), nil
}

// Seed installs preview rows for a table. Test helper.
func (d *Driver) Seed(tenantKey, tableName string, rows []map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data[tenantKey] == nil {
		d.data[tenantKey] = make(map[string][]map[string]any)
	}
	d.data[tenantKey][tableName] = rows
}
