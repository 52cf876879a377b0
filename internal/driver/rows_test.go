package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRows_Iteration(t *testing.T) {
	rows := NewMemoryRows([]string{"name", "schema"}, [][]any{
		{"users", "public"},
		{"orders", "public"},
	})

	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "schema"}, cols)

	var seen []string
	for rows.Next() {
		var name, schema string
		require.NoError(t, rows.Scan(&name, &schema))
		seen = append(seen, schema+"."+name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"public.users", "public.orders"}, seen)
}

func TestMemoryRows_ScanBeforeNext(t *testing.T) {
	rows := NewMemoryRows([]string{"a"}, [][]any{{"x"}})
	var s string
	assert.Error(t, rows.Scan(&s))
}

func TestMemoryRows_NullableColumns(t *testing.T) {
	rows := NewMemoryRows([]string{"col", "dflt"}, [][]any{
		{"id", nil},
		{"name", "'anon'::text"},
	})

	require.True(t, rows.Next())
	var col string
	var dflt *string
	require.NoError(t, rows.Scan(&col, &dflt))
	assert.Equal(t, "id", col)
	assert.Nil(t, dflt)

	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&col, &dflt))
	require.NotNil(t, dflt)
	assert.Equal(t, "'anon'::text", *dflt)
}

func TestMemoryRows_DestCountMismatch(t *testing.T) {
	rows := NewMemoryRows([]string{"a", "b"}, [][]any{{"x", "y"}})
	require.True(t, rows.Next())
	var only string
	assert.Error(t, rows.Scan(&only))
}

func TestScanRows(t *testing.T) {
	rows := NewMemoryRows([]string{"id", "name"}, [][]any{
		{1, "alice"},
		{2, "bob"},
	})

	data, err := ScanRows(rows)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, 1, data[0]["id"])
	assert.Equal(t, "alice", data[0]["name"])
	assert.Equal(t, "bob", data[1]["name"])
}

func TestScanRows_Empty(t *testing.T) {
	rows := NewMemoryRows([]string{"id"}, nil)
	data, err := ScanRows(rows)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.NotNil(t, data)
}

func TestRowsWithCleanup(t *testing.T) {
	var cleaned int
	rows := RowsWithCleanup(NewMemoryRows([]string{"a"}, nil), func() { cleaned++ })

	rows.Close()
	rows.Close()
	assert.Equal(t, 1, cleaned, "cleanup must run exactly once")
}
