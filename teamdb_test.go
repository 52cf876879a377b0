package teamdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantigo/teamdb/internal/config"
	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/store"
)

func TestNewDriver_Dispatch(t *testing.T) {
	records := store.NewMemory()

	tests := []struct {
		cfg  *config.Config
		want driver.Dialect
	}{
		{
			cfg: &config.Config{
				Dialect:  "postgres",
				Database: &config.Database{Host: "h", User: "u"},
			},
			want: driver.DialectPostgres,
		},
		{
			cfg: &config.Config{
				Dialect:   "supavisor",
				Backend:   &config.Backend{Host: "h"},
				Supavisor: &config.Supavisor{URL: "http://p", Token: "t", Domain: "d"},
			},
			want: driver.DialectSupavisor,
		},
		{
			cfg:  &config.Config{Dialect: "stub"},
			want: driver.DialectStub,
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			drv, err := NewDriver(tt.cfg, records, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, drv.Dialect())
		})
	}
}

func TestNewDriver_UnknownDialect(t *testing.T) {
	_, err := NewDriver(&config.Config{Dialect: "oracle"}, store.NewMemory(), nil)
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestNewEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Dialect: "stub"}

	drv, err := NewDriver(cfg, store.NewMemory(), nil)
	require.NoError(t, err)
	require.NoError(t, drv.Init(ctx))

	engine, err := NewEngine(ctx, cfg, drv, nil)
	require.NoError(t, err)

	team := driver.Team{ID: "1", Name: "acme"}
	rec, err := drv.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	// The stub's query surface serves empty result sets by default, so the
	// hints render to an empty dump rather than an error.
	ddl, err := engine.Hints(ctx, team, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, ddl)
}
