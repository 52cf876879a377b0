// Package store defines the TenantDatabase record and the contract of the
// external object store that persists it.
//
// The engine does not own the object store — in production the platform
// supplies its own implementation. The Memory implementation here backs the
// stub driver, local development, and tests.
package store

import "context"

// Credentials are the connection parameters persisted on a TenantDatabase
// record. For the supavisor driver they point at the pooled endpoint, not
// the real backend.
type Credentials struct {
	Host     string            `json:"host"`
	Port     int               `json:"port"`
	SSL      bool              `json:"ssl"`
	Database string            `json:"database"`
	User     string            `json:"user"`
	Password string            `json:"password"`
	Options  map[string]string `json:"options,omitempty"` // driver-specific extras
}

// TenantDatabase is the per-team database record. At most one record exists
// per team in the current contract.
type TenantDatabase struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	TeamID      string            `json:"teamId"`
	Credentials Credentials       `json:"credentials"`

	// Meta holds auxiliary connection info not used for connecting, e.g. the
	// real backend host/port behind a pooling proxy. Kept for diagnostics.
	Meta map[string]string `json:"meta,omitempty"`
}

// RecordStore is the keyed record store contract the engine consumes.
//
// Create must enforce a uniqueness constraint on TeamID and surface a
// violation as errs.ErrKindAlreadyExists: the engine's read-then-write
// duplicate check is racy under concurrent creates, and the store's
// constraint is the only real guarantee.
type RecordStore interface {
	// ByTeamID returns all records owned by the team (zero or one today).
	ByTeamID(ctx context.Context, teamID string) ([]TenantDatabase, error)

	// ByID returns the record with the given id, or nil if it does not exist
	// or is owned by a different team.
	ByID(ctx context.Context, teamID, id string) (*TenantDatabase, error)

	// Create persists a new record and returns it with its assigned ID.
	Create(ctx context.Context, rec TenantDatabase) (TenantDatabase, error)

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error
}
