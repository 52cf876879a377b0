// Package teamdb provisions one isolated PostgreSQL database per team and
// reconstructs an approximate DDL description of it for AI-completion
// context.
//
// The package wires the configured driver variant, the schema engine, and
// the optional snapshot archive together. Callers hold a driver.Driver and
// a *schema.Engine; everything else is internal.
package teamdb

import (
	"context"

	"github.com/vantigo/teamdb/internal/cache"
	"github.com/vantigo/teamdb/internal/config"
	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/driver/selfhosted"
	"github.com/vantigo/teamdb/internal/driver/stub"
	"github.com/vantigo/teamdb/internal/driver/supavisor"
	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/logger"
	"github.com/vantigo/teamdb/internal/schema"
	"github.com/vantigo/teamdb/internal/snapshot"
	"github.com/vantigo/teamdb/internal/snapshot/minio"
	"github.com/vantigo/teamdb/internal/store"
)

// NewDriver selects and constructs the driver variant named by
// cfg.Dialect. The returned driver is not yet initialized — call Init.
func NewDriver(cfg *config.Config, records store.RecordStore, log *logger.Logger) (driver.Driver, error) {
	switch driver.Dialect(cfg.Dialect) {
	case driver.DialectPostgres:
		return selfhosted.New(selfhosted.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			SSL:      cfg.Database.SSL,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
		}, records, log), nil

	case driver.DialectSupavisor:
		return supavisor.New(supavisor.Config{
			Backend: supavisor.BackendConfig{
				Host: cfg.Backend.Host,
				Port: cfg.Backend.Port,
				SSL:  cfg.Backend.SSL,
			},
			Proxy: supavisor.ProxyConfig{
				URL:    cfg.Supavisor.URL,
				Token:  cfg.Supavisor.Token,
				Domain: cfg.Supavisor.Domain,
				Port:   cfg.Supavisor.Port,
				SSL:    cfg.Supavisor.SSL,
			},
		}, records, log), nil

	case driver.DialectStub:
		return stub.New(records, log), nil

	default:
		return nil, errs.Newf(errs.ErrKindConfig, "unknown dialect %q", cfg.Dialect)
	}
}

// NewEngine builds the schema hint engine for drv, honoring the cache
// sizing and optional snapshot archive from cfg.
func NewEngine(ctx context.Context, cfg *config.Config, drv driver.Driver, log *logger.Logger) (*schema.Engine, error) {
	if log == nil {
		log = logger.Nop()
	}
	opts := []schema.Option{
		schema.WithLogger(log),
		schema.WithHintCache(cache.New[string](cfg.Hints.MaxEntries, cfg.Hints.TTL.Std())),
	}

	if cfg.Snapshot != nil && cfg.Snapshot.Enabled {
		st, err := minio.New(ctx, snapshot.Config{
			Endpoint:  cfg.Snapshot.Endpoint,
			AccessKey: cfg.Snapshot.AccessKey,
			SecretKey: cfg.Snapshot.SecretKey,
			UseSSL:    cfg.Snapshot.SSL,
			Bucket:    cfg.Snapshot.Bucket,
		})
		if err != nil {
			return nil, err
		}
		assetCache := cache.New[[]byte](cfg.Hints.MaxEntries, cfg.Hints.AssetTTL.Std())
		opts = append(opts, schema.WithArchive(snapshot.NewArchive(st, assetCache, log)))
	}

	return schema.NewEngine(drv, opts...), nil
}
