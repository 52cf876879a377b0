package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vantigo/teamdb/internal/errs"
)

// Memory is an in-process RecordStore. It is safe for concurrent use and
// enforces the one-database-per-team constraint the same way a relational
// store would with a unique index on team_id.
type Memory struct {
	mu      sync.RWMutex
	records map[string]TenantDatabase // keyed by record id
}

// NewMemory returns an empty in-memory record store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]TenantDatabase)}
}

// ByTeamID returns all records owned by the team.
func (m *Memory) ByTeamID(_ context.Context, teamID string) ([]TenantDatabase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []TenantDatabase
	for _, rec := range m.records {
		if rec.TeamID == teamID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ByID returns the record with the given id, or nil when absent or owned by
// a different team.
func (m *Memory) ByID(_ context.Context, teamID, id string) (*TenantDatabase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok || rec.TeamID != teamID {
		return nil, nil
	}
	out := rec
	return &out, nil
}

// Create persists rec, assigning an ID when empty. A second record for the
// same team violates the uniqueness constraint and fails AlreadyExists.
func (m *Memory) Create(_ context.Context, rec TenantDatabase) (TenantDatabase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.records {
		if existing.TeamID == rec.TeamID {
			return TenantDatabase{}, errs.Newf(errs.ErrKindAlreadyExists,
				"team %s already has a database record", rec.TeamID)
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.records[rec.ID] = rec
	return rec, nil
}

// Delete removes the record with the given id. Deleting a missing record is
// not an error — the caller has already resolved the record.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}
