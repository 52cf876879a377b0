package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantigo/teamdb/internal/errs"
)

func TestMemory_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, TenantDatabase{
		Name:   "main",
		TeamID: "team-1",
		Credentials: Credentials{
			Host:     "db.internal",
			Port:     5432,
			Database: "team_team-1",
			User:     "team_team-1",
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	byTeam, err := m.ByTeamID(ctx, "team-1")
	require.NoError(t, err)
	require.Len(t, byTeam, 1)
	assert.Equal(t, rec.ID, byTeam[0].ID)

	byID, err := m.ByID(ctx, "team-1", rec.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "main", byID.Name)
}

func TestMemory_UniqueTeamConstraint(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Create(ctx, TenantDatabase{Name: "first", TeamID: "team-1"})
	require.NoError(t, err)

	_, err = m.Create(ctx, TenantDatabase{Name: "second", TeamID: "team-1"})
	require.Error(t, err)
	assert.True(t, errs.IsAlreadyExists(err))
}

func TestMemory_ByID_TeamMismatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, TenantDatabase{Name: "main", TeamID: "team-1"})
	require.NoError(t, err)

	// Another team must not see the record, even with the right id.
	got, err := m.ByID(ctx, "team-2", rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec, err := m.Create(ctx, TenantDatabase{Name: "main", TeamID: "team-1"})
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, rec.ID))

	got, err := m.ByID(ctx, "team-1", rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Team can create again after deletion.
	_, err = m.Create(ctx, TenantDatabase{Name: "again", TeamID: "team-1"})
	assert.NoError(t, err)
}
