package selfhosted

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/store"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Host: "h", User: "u"}.validate())

	err := Config{User: "u"}.validate()
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))

	err = Config{Host: "h"}.validate()
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestInit_ConfigError(t *testing.T) {
	d := New(Config{}, store.NewMemory(), nil)
	err := d.Init(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestDialect(t *testing.T) {
	d := New(Config{Host: "h", User: "u"}, store.NewMemory(), nil)
	assert.Equal(t, driver.DialectPostgres, d.Dialect())
}

func TestDatabases_EmptyPolicy(t *testing.T) {
	d := New(Config{Host: "h", User: "u"}, store.NewMemory(), nil)

	dbs, err := d.Databases(context.Background(), driver.Team{ID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, dbs)
}

func TestDatabase_NotFound(t *testing.T) {
	d := New(Config{Host: "h", User: "u"}, store.NewMemory(), nil)

	_, err := d.Database(context.Background(), driver.Team{ID: "1"}, "missing")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestCreateDatabase_NoAdminConnection(t *testing.T) {
	// Init never ran, so the administrative pool is absent. The duplicate
	// record check still runs, then the operation fails External.
	d := New(Config{Host: "h", User: "u"}, store.NewMemory(), nil)

	_, err := d.CreateDatabase(context.Background(), driver.Team{ID: "1"}, "main")
	require.Error(t, err)
	assert.True(t, errs.IsExternal(err))
}

func TestCreateDatabase_DuplicateRecord(t *testing.T) {
	records := store.NewMemory()
	_, err := records.Create(context.Background(), store.TenantDatabase{TeamID: "1", Name: "main"})
	require.NoError(t, err)

	d := New(Config{Host: "h", User: "u"}, records, nil)

	_, err = d.CreateDatabase(context.Background(), driver.Team{ID: "1"}, "second")
	require.Error(t, err)
	assert.True(t, errs.IsAlreadyExists(err))
}

func TestAdminParams(t *testing.T) {
	d := New(Config{Host: "db.internal", Port: 5433, SSL: true, User: "admin", Password: "pw"}, store.NewMemory(), nil)

	p := d.adminParams()
	assert.Equal(t, "postgres", p.Database)
	assert.Equal(t, "db.internal", p.Host)
	assert.Equal(t, 5433, p.Port)
	assert.True(t, p.SSL)

	scoped := d.scopedParams("team_1")
	assert.Equal(t, "team_1", scoped.Database)
	assert.Equal(t, "admin", scoped.User)
}

func TestShutdown_WithoutInit(t *testing.T) {
	d := New(Config{Host: "h", User: "u"}, store.NewMemory(), nil)
	assert.NoError(t, d.Shutdown(context.Background()))
}
