// Package selfhosted implements the driver contract against a single shared
// database server the platform operates directly: one isolated database,
// role, and login user per team, default-deny before any grant.
package selfhosted

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/logger"
	"github.com/vantigo/teamdb/internal/secrets"
	"github.com/vantigo/teamdb/internal/store"
)

// adminDatabase is the server's default database the administrative
// connection attaches to. Database-scoped grants for a freshly created
// tenant database cannot run here, hence the per-create scoped connection.
const adminDatabase = "postgres"

const opTimeout = 30 * time.Second

// Config holds the connection parameters for the shared server.
type Config struct {
	Host     string
	Port     int
	SSL      bool
	User     string
	Password string
}

func (c Config) validate() error {
	if c.Host == "" {
		return errs.New(errs.ErrKindConfig, "selfhosted: database.host is required")
	}
	if c.User == "" {
		return errs.New(errs.ErrKindConfig, "selfhosted: database.user is required")
	}
	return nil
}

// Driver provisions team databases on the shared server. The administrative
// pool is a single long-lived handle owned by this instance for its
// lifetime; tenant-scoped pools are opened and closed within one operation.
type Driver struct {
	cfg     Config
	records store.RecordStore
	log     *logger.Logger

	admin *pgxpool.Pool
}

// New constructs the driver. Call Init before use.
func New(cfg Config, records store.RecordStore, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.Nop()
	}
	return &Driver{cfg: cfg, records: records, log: log}
}

// Dialect reports the self-hosted variant.
func (d *Driver) Dialect() driver.Dialect { return driver.DialectPostgres }

// Init validates configuration and establishes the administrative
// connection. A connectivity failure is logged and swallowed so the host
// process can boot in a degraded state; missing configuration is fatal.
func (d *Driver) Init(ctx context.Context) error {
	if err := d.cfg.validate(); err != nil {
		return err
	}

	pool, err := driver.Connect(ctx, d.adminParams())
	if err != nil {
		d.log.ErrorWith("selfhosted: administrative connection failed", err, nil)
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		d.log.ErrorWith("selfhosted: administrative ping failed", err, nil)
	}

	d.admin = pool
	return nil
}

// Shutdown releases the administrative connection. Closing an already
// closed or failing pool is harmless.
func (d *Driver) Shutdown(_ context.Context) error {
	if d.admin != nil {
		d.admin.Close()
		d.admin = nil
	}
	return nil
}

// Databases returns the team's records. No records is not an error for this
// variant — an empty slice is returned.
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

// CreateDatabase provisions an isolated database, role, and login user for
// the team, then persists the record. The record is written last so a
// provisioning failure leaves nothing to clean up in the object store.
func (d *Driver) CreateDatabase(ctx context.Context, team driver.Team, name string) (*store.TenantDatabase, error) {
	existing, err := d.records.ByTeamID(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, errs.Newf(errs.ErrKindAlreadyExists, "team %s already has a database", team.ID)
	}

	admin, err := d.adminPool()
	if err != nil {
		return nil, err
	}

	key := team.TenantKey()
	log := d.log.With().Str("team", team.ID).Str("database", key).Logger()

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// The object-store record and the data plane can disagree after partial
	// failures, so the catalog is checked independently of the record.
	exists, err := d.databaseExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Newf(errs.ErrKindAlreadyExists, "database %q already exists on the server", key)
	}

	if _, err := admin.Exec(ctx, createDatabaseStatement(key)); err != nil {
		return nil, driver.MapError(err, "failed to create database")
	}
	if _, err := admin.Exec(ctx, revokePublicStatement(key)); err != nil {
		return nil, driver.MapError(err, "failed to revoke public access")
	}

	password, err := secrets.Password(secrets.PasswordLength)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExternal, "failed to generate tenant password", err)
	}

	// Database-scoped grants need a connection to the new database itself.
	scoped, err := driver.Connect(ctx, d.scopedParams(key))
	if err != nil {
		return nil, err
	}
	defer scoped.Close()

	for _, stmt := range provisionStatements(key, password) {
		if _, err := scoped.Exec(ctx, stmt); err != nil {
			return nil, driver.MapError(err, "failed to provision tenant role")
		}
	}

	rec, err := d.records.Create(ctx, store.TenantDatabase{
		Name:   name,
		TeamID: team.ID,
		Credentials: store.Credentials{
			Host:     d.cfg.Host,
			Port:     d.cfg.Port,
			SSL:      d.cfg.SSL,
			Database: key,
			User:     key,
			Password: password,
		},
	})
	if err != nil {
		return nil, err
	}

	log.Info("provisioned team database")
	return &rec, nil
}

// DestroyDatabase tears down the database, user, and role, then deletes the
// record. A data-plane database that is already absent is treated as
// already-destroyed: the record is still deleted so a retried destroy
// converges. Drop statements are best-effort — a failure on one must not
// block record deletion.
func (d *Driver) DestroyDatabase(ctx context.Context, team driver.Team, databaseID string) error {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return err
	}

	admin, err := d.adminPool()
	if err != nil {
		return err
	}

	key := rec.Credentials.Database
	log := d.log.With().Str("team", team.ID).Str("database", key).Logger()

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	exists, err := d.databaseExists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		log.Warn("tenant database already absent, deleting record")
	} else {
		for _, stmt := range teardownStatements(key) {
			if _, err := admin.Exec(ctx, stmt); err != nil {
				log.ErrorWith("teardown statement failed, continuing", err, map[string]any{"stmt": stmt})
			}
		}
	}

	// Record deletion is the last step: a failed teardown above has already
	// been logged, and an intact record would allow retry/inspection.
	if err := d.records.Delete(ctx, rec.ID); err != nil {
		return err
	}
	log.Info("destroyed team database")
	return nil
}

// Tables lists the tenant database's tables.
func (d *Driver) Tables(ctx context.Context, team driver.Team, databaseID string) (*driver.TableList, error) {
	pool, cleanup, err := d.scopedPool(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return driver.ListTables(ctx, pool)
}

// Table describes one table's columns.
func (d *Driver) Table(ctx context.Context, team driver.Team, databaseID, tableName string) ([]driver.ColumnDescriptor, error) {
	pool, cleanup, err := d.scopedPool(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return driver.DescribeTable(ctx, pool, tableName)
}

// TableData previews rows from one table.
func (d *Driver) TableData(ctx context.Context, team driver.Team, databaseID, tableName string, page driver.Page) (*driver.DataPage, error) {
	pool, cleanup, err := d.scopedPool(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return driver.ReadTableData(ctx, pool, tableName, page)
}

// CreateTable creates a table in the tenant database.
func (d *Driver) CreateTable(ctx context.Context, team driver.Team, databaseID, tableName string, columns []driver.ColumnSpec) error {
	pool, cleanup, err := d.scopedPool(ctx, team, databaseID)
	if err != nil {
		return err
	}
	defer cleanup()
	return driver.ExecCreateTable(ctx, pool, tableName, columns)
}

// DropTable drops a table from the tenant database.
func (d *Driver) DropTable(ctx context.Context, team driver.Team, databaseID, tableName string) error {
	pool, cleanup, err := d.scopedPool(ctx, team, databaseID)
	if err != nil {
		return err
	}
	defer cleanup()
	return driver.ExecDropTable(ctx, pool, tableName)
}

// CreateColumn is a reserved extension point.
func (d *Driver) CreateColumn(context.Context, driver.Team, string, string, driver.ColumnSpec) error {
	return nil
}

// RemoveColumn is a reserved extension point.
func (d *Driver) RemoveColumn(context.Context, driver.Team, string, string, string) error {
	return nil
}

// Query executes a parameterized statement against the tenant database. The
// scoped connection stays open until the returned Rows are closed.
func (d *Driver) Query(ctx context.Context, team driver.Team, databaseID, sql string, args ...any) (driver.Rows, error) {
	pool, cleanup, err := d.scopedPool(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		cleanup()
		return nil, driver.MapError(err, "tenant query failed")
	}
	return driver.RowsWithCleanup(driver.WrapPgxRows(rows), cleanup), nil
}

// --- internal helpers ---

func (d *Driver) adminPool() (*pgxpool.Pool, error) {
	if d.admin == nil {
		return nil, errs.New(errs.ErrKindExternal, "administrative connection unavailable")
	}
	return d.admin, nil
}

func (d *Driver) adminParams() driver.ConnParams {
	return driver.ConnParams{
		Host:     d.cfg.Host,
		Port:     d.cfg.Port,
		SSL:      d.cfg.SSL,
		User:     d.cfg.User,
		Password: d.cfg.Password,
		Database: adminDatabase,
	}
}

func (d *Driver) scopedParams(database string) driver.ConnParams {
	p := d.adminParams()
	p.Database = database
	return p
}

// scopedPool resolves the record and opens a short-lived pool scoped to the
// tenant database. The caller must invoke cleanup in all paths, including
// after a timed-out query, to avoid leaking connections.
func (d *Driver) scopedPool(ctx context.Context, team driver.Team, databaseID string) (*pgxpool.Pool, func(), error) {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return nil, nil, err
	}

	pool, err := driver.Connect(ctx, d.scopedParams(rec.Credentials.Database))
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

func (d *Driver) databaseExists(ctx context.Context, name string) (bool, error) {
	admin, err := d.adminPool()
	if err != nil {
		return false, err
	}

	var count int
	if err := admin.QueryRow(ctx, "SELECT count(*) FROM pg_database WHERE datname = $1", name).Scan(&count); err != nil {
		return false, driver.MapError(err, "failed to check database existence")
	}
	return count > 0, nil
}
