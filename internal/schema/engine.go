package schema

import (
	"context"

	"github.com/vantigo/teamdb/internal/cache"
	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/logger"
	"github.com/vantigo/teamdb/internal/snapshot"
)

// Engine derives DDL hints for tenant databases, caching the rendered text
// per team+database.
type Engine struct {
	querier Querier
	hints   *cache.Cache[string]
	archive *snapshot.Archive // optional
	log     *logger.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithHintCache replaces the default hint cache (100 entries, 5 minutes).
func WithHintCache(c *cache.Cache[string]) Option {
	return func(e *Engine) { e.hints = c }
}

// WithArchive enables best-effort snapshot archiving of fresh renders.
func WithArchive(a *snapshot.Archive) Option {
	return func(e *Engine) { e.archive = a }
}

// WithLogger sets the engine logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine builds an Engine over the active driver's query surface.
func NewEngine(q Querier, opts ...Option) *Engine {
	e := &Engine{
		querier: q,
		hints:   cache.New[string](cache.DefaultMaxEntries, cache.DefaultHintTTL),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hints returns the rendered DDL text for the tenant database, from cache
// when fresh.
//
// A failed introspection caches an explicit empty result for the TTL
// window: within that window callers see "no schema" instead of a retry
// storm against a struggling tenant database. Documented trade-off — load
// protection over freshness.
func (e *Engine) Hints(ctx context.Context, team driver.Team, databaseID string) (string, error) {
	key := hintKey(team.ID, databaseID)
	if ddl, ok := e.hints.Get(key); ok {
		return ddl, nil
	}

	model, err := Introspect(ctx, e.querier, team, databaseID)
	if err != nil {
		e.hints.Set(key, "")
		e.log.ErrorWith("schema introspection failed, caching empty hints", err,
			map[string]any{"team": team.ID, "database": databaseID})
		return "", err
	}

	ddl := RenderDDL(model)
	e.hints.Set(key, ddl)

	if e.archive != nil && ddl != "" {
		e.archive.Save(ctx, team.ID, databaseID, []byte(ddl))
	}
	return ddl, nil
}

// Invalidate drops the cached hints for one tenant database, forcing the
// next call to re-derive. Called after DDL-changing operations.
func (e *Engine) Invalidate(team driver.Team, databaseID string) {
	e.hints.Remove(hintKey(team.ID, databaseID))
}

func hintKey(teamID, databaseID string) string {
	return teamID + "/" + databaseID
}
