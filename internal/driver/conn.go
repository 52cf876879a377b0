package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/store"
)

const (
	// Tenant-scoped connections are opened and closed within one operation,
	// never pooled across requests, so the pool stays tiny.
	scopedMaxConns = 2

	defaultConnectTimeout = 10 * time.Second
)

// ConnParams are the parameters the connection factory turns into a
// configured client handle. Pure construction, no state.
type ConnParams struct {
	Host     string
	Port     int
	SSL      bool
	User     string
	Password string
	Database string

	// Options are passthrough extras appended verbatim to the DSN
	// (e.g. pool_mode hints for a pooled endpoint).
	Options map[string]string
}

// ParamsFromCredentials converts a persisted record's credentials into
// connection parameters.
func ParamsFromCredentials(c store.Credentials) ConnParams {
	return ConnParams{
		Host:     c.Host,
		Port:     c.Port,
		SSL:      c.SSL,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		Options:  c.Options,
	}
}

// DSN renders the keyword/value connection string for p.
func (p ConnParams) DSN() string {
	sslMode := "disable"
	if p.SSL {
		sslMode = "require"
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}

	parts := []string{
		fmt.Sprintf("host=%s", p.Host),
		fmt.Sprintf("port=%d", port),
		fmt.Sprintf("user=%s", p.User),
		fmt.Sprintf("password=%s", p.Password),
		fmt.Sprintf("dbname=%s", p.Database),
		fmt.Sprintf("sslmode=%s", sslMode),
	}

	// Deterministic option order keeps DSNs stable for logging and tests.
	keys := make([]string, 0, len(p.Options))
	for k := range p.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, p.Options[k]))
	}

	return strings.Join(parts, " ")
}

// Connect builds a pgx pool for p. The caller owns the returned pool and
// must Close it — tenant-scoped pools in a guaranteed-cleanup block, the
// administrative pool at Shutdown.
func Connect(ctx context.Context, p ConnParams) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(p.DSN())
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "invalid connection parameters", err)
	}

	poolCfg.MaxConns = scopedMaxConns
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindExternal, "failed to create connection pool", err)
	}
	return pool, nil
}
