package snapshot

import (
	"context"
	"fmt"

	"github.com/vantigo/teamdb/internal/cache"
	"github.com/vantigo/teamdb/internal/logger"
)

// Archive stores and retrieves per-tenant DDL snapshots, serving reads
// through a bounded TTL cache so repeated diagnostic fetches do not hammer
// the storage backend.
type Archive struct {
	store Store
	cache *cache.Cache[[]byte]
	log   *logger.Logger
}

// NewArchive wraps store with the given asset cache. A nil cache gets the
// default sizing (100 entries, 30 minutes).
func NewArchive(store Store, c *cache.Cache[[]byte], log *logger.Logger) *Archive {
	if c == nil {
		c = cache.New[[]byte](cache.DefaultMaxEntries, cache.DefaultAssetTTL)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Archive{store: store, cache: c, log: log}
}

// Save archives a rendered dump for the tenant. Failures are logged, not
// returned — archiving must never fail the schema request.
func (a *Archive) Save(ctx context.Context, teamID, databaseID string, ddl []byte) {
	key := snapshotKey(teamID, databaseID)
	if err := a.store.Put(ctx, key, ddl); err != nil {
		a.log.ErrorWith("failed to archive schema snapshot", err, map[string]any{"key": key})
		return
	}
	a.cache.Set(key, ddl)
}

// Latest returns the most recent archived dump for the tenant, from cache
// when fresh.
func (a *Archive) Latest(ctx context.Context, teamID, databaseID string) ([]byte, error) {
	key := snapshotKey(teamID, databaseID)
	if data, ok := a.cache.Get(key); ok {
		return data, nil
	}

	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	a.cache.Set(key, data)
	return data, nil
}

func snapshotKey(teamID, databaseID string) string {
	return fmt.Sprintf("%s/%s/schema.sql", teamID, databaseID)
}
