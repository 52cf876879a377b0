package stub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantigo/teamdb/internal/driver"
	"github.com/vantigo/teamdb/internal/errs"
	"github.com/vantigo/teamdb/internal/store"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	d := New(store.NewMemory(), nil)
	require.NoError(t, d.Init(context.Background()))
	return d
}

func TestCreateDatabase(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1", Name: "acme"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)
	assert.Equal(t, "team_1", rec.Credentials.Database)
	assert.Equal(t, "team_1", rec.Credentials.User)
	assert.NotEmpty(t, rec.Credentials.Password)

	dbs, err := d.Databases(ctx, team)
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, rec.ID, dbs[0].ID)
}

func TestCreateDatabase_Duplicate(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	_, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	_, err = d.CreateDatabase(ctx, team, "second")
	require.Error(t, err)
	assert.True(t, errs.IsAlreadyExists(err))
}

func TestDestroyDatabase(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	require.NoError(t, d.DestroyDatabase(ctx, team, rec.ID))

	// The record is gone, so a second destroy fails NotFound.
	err = d.DestroyDatabase(ctx, team, rec.ID)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	// And the team can provision again.
	_, err = d.CreateDatabase(ctx, team, "again")
	assert.NoError(t, err)
}

func TestDatabase_WrongTeam(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	rec, err := d.CreateDatabase(ctx, driver.Team{ID: "1"}, "main")
	require.NoError(t, err)

	_, err = d.Database(ctx, driver.Team{ID: "2"}, rec.ID)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestTables(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	list, err := d.Tables(ctx, team, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Tables)

	require.NoError(t, d.CreateTable(ctx, team, rec.ID, "zebras", []driver.ColumnSpec{{Name: "id", Type: "int"}}))
	require.NoError(t, d.CreateTable(ctx, team, rec.ID, "apples", []driver.ColumnSpec{{Name: "id", Type: "int"}}))

	list, err = d.Tables(ctx, team, rec.ID)
	require.NoError(t, err)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "apples", list.Tables[0].Name)
	assert.Equal(t, "zebras", list.Tables[1].Name)
}

func TestCreateTable_Validation(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	err = d.CreateTable(ctx, team, rec.ID, "t", []driver.ColumnSpec{{Name: "id", Type: "blob"}})
	require.Error(t, err)
	assert.True(t, errs.IsUnsupportedType(err))

	err = d.CreateTable(ctx, team, rec.ID, "t", []driver.ColumnSpec{{Name: "", Type: ""}})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))

	// Empty columns are skipped, not rejected, when a usable one remains.
	err = d.CreateTable(ctx, team, rec.ID, "t", []driver.ColumnSpec{
		{Name: "", Type: "text"},
		{Name: "id", Type: "int"},
	})
	require.NoError(t, err)

	cols, err := d.Table(ctx, team, rec.ID, "t")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "id", cols[0].Name)
}

func TestCreateTable_ExistingIsNoOp(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	require.NoError(t, d.CreateTable(ctx, team, rec.ID, "t", []driver.ColumnSpec{{Name: "id", Type: "int"}}))
	require.NoError(t, d.CreateTable(ctx, team, rec.ID, "t", []driver.ColumnSpec{{Name: "other", Type: "text"}}))

	cols, err := d.Table(ctx, team, rec.ID, "t")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "id", cols[0].Name, "second create must not overwrite")
}

func TestDropTable(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	err = d.DropTable(ctx, team, rec.ID, "missing")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, d.CreateTable(ctx, team, rec.ID, "t", []driver.ColumnSpec{{Name: "id", Type: "int"}}))
	require.NoError(t, d.DropTable(ctx, team, rec.ID, "t"))

	_, err = d.Table(ctx, team, rec.ID, "t")
	assert.True(t, errs.IsNotFound(err))
}

func TestTableData_Clamped(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)
	require.NoError(t, d.CreateTable(ctx, team, rec.ID, "t", []driver.ColumnSpec{{Name: "id", Type: "int"}}))

	rows := make([]map[string]any, 25)
	for i := range rows {
		rows[i] = map[string]any{"id": i}
	}
	d.Seed(team.TenantKey(), "t", rows)

	page, err := d.TableData(ctx, team, rec.ID, "t", driver.Page{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, driver.HardRowLimit, page.Count)

	page, err = d.TableData(ctx, team, rec.ID, "t", driver.Page{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Count)

	page, err = d.TableData(ctx, team, rec.ID, "t", driver.Page{Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, driver.HardRowLimit, page.Count)
}

func TestTableData_MissingTable(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	_, err = d.TableData(ctx, team, rec.ID, "missing", driver.Page{Limit: 5})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestQuery_UsesQueryFunc(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)
	team := driver.Team{ID: "1"}

	rec, err := d.CreateDatabase(ctx, team, "main")
	require.NoError(t, err)

	d.QueryFunc = func(sql string, _ ...any) (driver.Rows, error) {
		return driver.NewMemoryRows([]string{"q"}, [][]any{{sql}}), nil
	}

	rows, err := d.Query(ctx, team, rec.ID, "SELECT 1")
	require.NoError(t, err)
	data, err := driver.ScanRows(rows)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, "SELECT 1", data[0]["q"])
}
