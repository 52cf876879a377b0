// Package supavisor implements the driver contract by delegating tenant
// lifecycle to a supavisor connection-pooling proxy over its HTTP control
// API. Read and introspection operations connect directly to the tenant's
// pooled endpoint with the tenant's own login — they never touch the
// control plane.
package supavisor

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/logger"
	"github.com/vantigo/teamdb/internal/secrets"
	"github.com/vantigo/teamdb/internal/store"
)

const opTimeout = 30 * time.Second

// BackendConfig points at the real database server the proxy fronts.
type BackendConfig struct {
	Host string
	Port int
	SSL  bool
}

// ProxyConfig points at the supavisor control plane and pooled endpoint.
type ProxyConfig struct {
	URL    string // control-plane base URL, e.g. https://pooler.internal:4000
	Token  string // control-plane bearer token
	Domain string // pooled endpoint host clients connect to
	Port   int    // pooled endpoint port
	SSL    bool
}

// Config holds both halves of the pooled topology.
type Config struct {
	Backend BackendConfig
	Proxy   ProxyConfig
}

func (c Config) validate() error {
	if c.Backend.Host == "" {
		return errs.New(errs.ErrKindConfig, "supavisor: backend.host is required")
	}
	if c.Proxy.URL == "" {
		return errs.New(errs.ErrKindConfig, "supavisor: supavisor.url is required")
	}
	if c.Proxy.Token == "" {
		return errs.New(errs.ErrKindConfig, "supavisor: supavisor.token is required")
	}
	if c.Proxy.Domain == "" {
		return errs.New(errs.ErrKindConfig, "supavisor: supavisor.domain is required")
	}
	return nil
}

// Driver provisions team databases through the pooling proxy.
type Driver struct {
	cfg     Config
	records store.RecordStore
	log     *logger.Logger

	client *controlClient
}

// New constructs the driver. Call Init before use.
func New(cfg Config, records store.RecordStore, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.Nop()
	}
	return &Driver{cfg: cfg, records: records, log: log}
}

// Dialect reports the pooled variant.
func (d *Driver) Dialect() driver.Dialect { return driver.DialectSupavisor }

// Init validates configuration and probes the control plane. An unreachable
// proxy is logged and swallowed so the host process can boot degraded.
func (d *Driver) Init(ctx context.Context) error {
	if err := d.cfg.validate(); err != nil {
		return err
	}
	d.client = newControlClient(d.cfg.Proxy.URL, d.cfg.Proxy.Token)

	if err := d.client.health(ctx); err != nil {
		d.log.ErrorWith("supavisor: control plane unreachable", err, nil)
	}
	return nil
}

// Shutdown releases idle control-plane connections. Never fails.
func (d *Driver) Shutdown(_ context.Context) error {
	if d.client != nil {
		d.client.http.CloseIdleConnections()
	}
	return nil
}

// Databases returns the team's records. Unlike the self-hosted variant,
// a team with no database fails NotFound here.
func (d *Driver) Databases(ctx context.Context, team driver.Team) ([]store.TenantDatabase, error) {
	recs, err := d.records.ByTeamID(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "team %s has no database", team.ID)
	}
	return recs, nil
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

// CreateDatabase registers the tenant with the proxy and persists a record
// whose credentials point at the pooled endpoint. The real backend
// host/port is kept in Meta for diagnostics only.
func (d *Driver) CreateDatabase(ctx context.Context, team driver.Team, name string) (*store.TenantDatabase, error) {
	existing, err := d.records.ByTeamID(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, errs.Newf(errs.ErrKindAlreadyExists, "team %s already has a database", team.ID)
	}

	key := team.TenantKey()
	log := d.log.With().Str("team", team.ID).Str("tenant", key).Logger()

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	exists, err := d.client.tenantExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Newf(errs.ErrKindAlreadyExists, "tenant %q already exists on the proxy", key)
	}

	password, err := secrets.Password(secrets.PasswordLength)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExternal, "failed to generate tenant password", err)
	}

	err = d.client.createTenant(ctx, tenantRequest{Tenant: tenantSpec{
		DBHost:      d.cfg.Backend.Host,
		DBPort:      d.cfg.Backend.Port,
		DBDatabase:  key,
		ExternalID:  key,
		RequireUser: true,
		UpstreamSSL: d.cfg.Backend.SSL,
		Users: []tenantUser{{
			DBUser:     key,
			DBPassword: password,
			ModeType:   poolModeTransaction,
			PoolSize:   defaultPoolSize,
			IsManager:  true,
		}},
	}})
	if err != nil {
		return nil, err
	}

	rec, err := d.records.Create(ctx, store.TenantDatabase{
		Name:   name,
		TeamID: team.ID,
		Credentials: store.Credentials{
			Host:     d.cfg.Proxy.Domain,
			Port:     d.cfg.Proxy.Port,
			SSL:      d.cfg.Proxy.SSL,
			Database: key,
			User:     key,
			Password: password,
		},
		Meta: map[string]string{
			"backendHost": d.cfg.Backend.Host,
			"backendPort": strconv.Itoa(d.cfg.Backend.Port),
		},
	})
	if err != nil {
		return nil, err
	}

	log.Info("registered pooled tenant")
	return &rec, nil
}

// DestroyDatabase removes the tenant from the proxy, then deletes the
// record. Policy: a proxy 404 means already-gone and the destroy proceeds;
// any other control-plane failure aborts before record deletion so the
// record stays available for retry.
func (d *Driver) DestroyDatabase(ctx context.Context, team driver.Team, databaseID string) error {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return err
	}

	key := rec.Credentials.Database
	log := d.log.With().Str("team", team.ID).Str("tenant", key).Logger()

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	found, err := d.client.deleteTenant(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		log.Warn("pooled tenant already absent, deleting record")
	}

	if err := d.records.Delete(ctx, rec.ID); err != nil {
		return err
	}
	log.Info("destroyed pooled tenant")
	return nil
}

// Tables lists the tenant database's tables via the pooled endpoint.
func (d *Driver) Tables(ctx context.Context, team driver.Team, databaseID string) (*driver.TableList, error) {
	pool, cleanup, err := d.pooledPool(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return driver.ListTables(ctx, pool)
}

// Table describes one table's columns via the pooled endpoint.
func (d *Driver) Table(ctx context.Context, team driver.Team, databaseID, tableName string) ([]driver.ColumnDescriptor, error) {
	pool, cleanup, err := d.pooledPool(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return driver.DescribeTable(ctx, pool, tableName)
}

// TableData previews rows via the pooled endpoint.
func (d *Driver) TableData(ctx context.Context, team driver.Team, databaseID, tableName string, page driver.Page) (*driver.DataPage, error) {
	pool, cleanup, err := d.pooledPool(ctx, team, databaseID)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return driver.ReadTableData(ctx, pool, tableName, page)
}

// CreateTable creates a table via the pooled endpoint.
func (d *Driver) CreateTable(ctx context.Context, team driver.Team, databaseID, tableName string, columns []driver.ColumnSpec) error {
	pool, cleanup, err := d.pooledPool(ctx, team, databaseID)
	if err != nil {
		return err
	}
	defer cleanup()
	return driver.ExecCreateTable(ctx, pool, tableName, columns)
}

// DropTable drops a table via the pooled endpoint.
func (d *Driver) DropTable(ctx context.Context, team driver.Team, databaseID, tableName string) error {
	pool, cleanup, err := d.pooledPool(ctx, team, databaseID)
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

// Query executes a parameterized statement through the pooled endpoint. The
// scoped connection stays open until the returned Rows are closed.
func (d *Driver) Query(ctx context.Context, team driver.Team, databaseID, sql string, args ...any) (driver.Rows, error) {
	pool, cleanup, err := d.pooledPool(ctx, team, databaseID)
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

// pooledPool resolves the record and opens a short-lived pool against the
// pooled endpoint with the tenant's own login. The caller must invoke
// cleanup in all paths to avoid leaking connections.
func (d *Driver) pooledPool(ctx context.Context, team driver.Team, databaseID string) (*pgxpool.Pool, func(), error) {
	rec, err := d.Database(ctx, team, databaseID)
	if err != nil {
		return nil, nil, err
	}

	pool, err := driver.Connect(ctx, driver.ParamsFromCredentials(rec.Credentials))
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}
